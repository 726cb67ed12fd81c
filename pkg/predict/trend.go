// Package predict turns a short monthly sales series into multi-month
// projections. Trend predictors fit the series against its month index; peer
// predictors project each agent or program from its historical run-rate.
package predict

import (
	"fmt"
	"math"

	"github.com/iwvelando/sales-forecast/internal/sales"
	"github.com/iwvelando/sales-forecast/pkg/constants"
	"github.com/iwvelando/sales-forecast/pkg/mathutil"
	"github.com/iwvelando/sales-forecast/pkg/regression"
)

// Model names reported in results.
const (
	ModelLinear     = "linear"
	ModelPolynomial = "polynomial"
	ModelSeasonal   = "seasonal"
)

// Result is the output of a trend predictor.
type Result struct {
	Model           string    `json:"model"`
	Predictions     Values    `json:"predictions"`
	Confidence      float64   `json:"confidence"`
	TrendSlope      float64   `json:"trend_slope"`
	RSquared        float64   `json:"r_squared"`
	SeasonalFactors []float64 `json:"seasonal_factors_used,omitempty"`
}

// Linear fits metric against the month index and extrapolates horizon months
// past the last observed index. It returns sales.ErrInsufficientHistory when
// fewer than two months are available.
func Linear(summaries []sales.MonthlySummary, metric sales.Metric, horizon int) (*Result, error) {
	x, y, err := prepare(summaries, metric, horizon, constants.LinearMinimumPoints)
	if err != nil {
		return nil, err
	}

	model, err := regression.Linear(x, y)
	if err != nil {
		return nil, fmt.Errorf("linear fit of %s: %w", metric, err)
	}
	if err := checkModel(model, metric); err != nil {
		return nil, err
	}

	return &Result{
		Model:       ModelLinear,
		Predictions: extrapolate(model, summaries, horizon),
		Confidence:  confidence(model.RSquared),
		TrendSlope:  model.Slope(),
		RSquared:    model.RSquared,
	}, nil
}

// Polynomial fits a degree-2 trend. It needs at least three months and
// discounts its confidence relative to Linear.
func Polynomial(summaries []sales.MonthlySummary, metric sales.Metric, horizon int) (*Result, error) {
	x, y, err := prepare(summaries, metric, horizon, constants.PolynomialMinimumPoints)
	if err != nil {
		return nil, err
	}

	model, err := regression.Polynomial(x, y, constants.PolynomialDegree)
	if err != nil {
		return nil, fmt.Errorf("polynomial fit of %s: %w", metric, err)
	}
	if err := checkModel(model, metric); err != nil {
		return nil, err
	}

	return &Result{
		Model:       ModelPolynomial,
		Predictions: extrapolate(model, summaries, horizon),
		Confidence:  confidence(model.RSquared * constants.PolynomialConfidenceDiscount),
		TrendSlope:  model.Slope(),
		RSquared:    model.RSquared,
	}, nil
}

func prepare(summaries []sales.MonthlySummary, metric sales.Metric, horizon, minPoints int) ([]float64, []float64, error) {
	if horizon < 1 {
		return nil, nil, fmt.Errorf("horizon must be at least 1 month, got %d", horizon)
	}
	x, y, err := sales.Series(summaries, metric)
	if err != nil {
		return nil, nil, err
	}
	if len(summaries) < minPoints {
		return nil, nil, fmt.Errorf("%s needs %d months, have %d: %w",
			metric, minPoints, len(summaries), sales.ErrInsufficientHistory)
	}
	for i, v := range y {
		if !finite(v) {
			return nil, nil, fmt.Errorf("%s month %d is %v: %w", metric, i+1, v, sales.ErrNonFiniteSeries)
		}
	}
	return x, y, nil
}

// checkModel rejects fits whose coefficients overflowed.
func checkModel(model regression.Model, metric sales.Metric) error {
	if !finite(model.RSquared) {
		return fmt.Errorf("%s fit has r-squared %v: %w", metric, model.RSquared, sales.ErrNonFiniteSeries)
	}
	for _, c := range model.Coefficients {
		if !finite(c) {
			return fmt.Errorf("%s fit has coefficient %v: %w", metric, c, sales.ErrNonFiniteSeries)
		}
	}
	return nil
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

func extrapolate(model regression.Model, summaries []sales.MonthlySummary, horizon int) Values {
	last := summaries[len(summaries)-1].MonthIndex
	out := make(Values, horizon)
	for i := range out {
		out[i] = mathutil.NonNegative(model.Predict(float64(last + i + 1)))
	}
	return out
}

func confidence(score float64) float64 {
	return mathutil.Clamp(score, constants.MinConfidence, constants.MaxConfidence)
}
