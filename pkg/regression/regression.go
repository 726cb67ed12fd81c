// Package regression fits ordinary least-squares trend models of a single
// independent variable.
package regression

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
)

// Model is a fitted polynomial y = c0 + c1*x + c2*x^2 + ...
type Model struct {
	Coefficients []float64
	RSquared     float64
}

// Degree returns the polynomial degree of the model.
func (m Model) Degree() int {
	return len(m.Coefficients) - 1
}

// Slope returns the first-order coefficient, or zero for a constant model.
func (m Model) Slope() float64 {
	if len(m.Coefficients) < 2 {
		return 0
	}
	return m.Coefficients[1]
}

// Predict evaluates the model at x.
func (m Model) Predict(x float64) float64 {
	var y float64
	for i := len(m.Coefficients) - 1; i >= 0; i-- {
		y = y*x + m.Coefficients[i]
	}
	return y
}

// PredictAll evaluates the model at each x.
func (m Model) PredictAll(xs []float64) []float64 {
	out := make([]float64, len(xs))
	for i, x := range xs {
		out[i] = m.Predict(x)
	}
	return out
}

// Linear fits y = a + b*x.
func Linear(x, y []float64) (Model, error) {
	if err := checkInput(x, y, 2); err != nil {
		return Model{}, err
	}
	alpha, beta := stat.LinearRegression(x, y, nil, false)
	m := Model{Coefficients: []float64{alpha, beta}}
	m.RSquared = RSquared(m.PredictAll(x), y)
	return m, nil
}

// Polynomial fits a polynomial of the given degree using the expanded feature
// basis [1, x, ..., x^degree].
func Polynomial(x, y []float64, degree int) (Model, error) {
	if degree < 1 {
		return Model{}, fmt.Errorf("polynomial degree must be at least 1, got %d", degree)
	}
	if err := checkInput(x, y, degree+1); err != nil {
		return Model{}, err
	}

	cols := degree + 1
	design := mat.NewDense(len(x), cols, nil)
	for i, xi := range x {
		for j := 0; j < cols; j++ {
			design.Set(i, j, math.Pow(xi, float64(j)))
		}
	}

	var coef mat.VecDense
	if err := coef.SolveVec(design, mat.NewVecDense(len(y), append([]float64(nil), y...))); err != nil {
		var cond mat.Condition
		if !errors.As(err, &cond) {
			return Model{}, fmt.Errorf("solve least squares: %w", err)
		}
	}

	m := Model{Coefficients: make([]float64, cols)}
	for j := 0; j < cols; j++ {
		m.Coefficients[j] = coef.AtVec(j)
	}
	m.RSquared = RSquared(m.PredictAll(x), y)
	return m, nil
}

// RSquared is the coefficient of determination of estimates against values.
// A constant series scores 1 when it is reproduced exactly and 0 otherwise.
func RSquared(estimates, values []float64) float64 {
	mean := stat.Mean(values, nil)
	var ssRes, ssTot float64
	for i, v := range values {
		r := v - estimates[i]
		ssRes += r * r
		d := v - mean
		ssTot += d * d
	}
	if ssTot == 0 {
		if ssRes == 0 {
			return 1
		}
		return 0
	}
	return 1 - ssRes/ssTot
}

func checkInput(x, y []float64, minPoints int) error {
	if len(x) != len(y) {
		return fmt.Errorf("length mismatch: %d x values, %d y values", len(x), len(y))
	}
	if len(x) < minPoints {
		return fmt.Errorf("need at least %d points, got %d", minPoints, len(x))
	}
	for i := range x {
		if !finite(x[i]) || !finite(y[i]) {
			return fmt.Errorf("point %d is not a finite number", i)
		}
	}
	return nil
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
