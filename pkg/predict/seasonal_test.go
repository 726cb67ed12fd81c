package predict

import (
	"errors"
	"testing"

	"github.com/iwvelando/sales-forecast/internal/sales"
	"github.com/iwvelando/sales-forecast/pkg/mathutil"
)

func TestSeasonalCyclesTable(t *testing.T) {
	table := DefaultSeasonalTable()
	r, err := Seasonal(revenueSeries(10000, 12000, 14000), sales.MetricTotalRevenue, 12, table, 7)
	if err != nil {
		t.Fatalf("Seasonal() error = %v", err)
	}

	if len(r.SeasonalFactors) != 12 {
		t.Fatalf("got %d factors, expected 12", len(r.SeasonalFactors))
	}
	for i, f := range r.SeasonalFactors {
		month := (7-1+i)%12 + 1
		if f != table[month-1] {
			t.Errorf("factor %d = %v, expected table entry for month %d (%v)", i, f, month, table[month-1])
		}
	}
	expected := []float64{0.85, 0.80, 0.85, 1.05, 1.10, 1.20, 1.15, 1.10, 1.05, 1.00, 0.95, 0.90}
	for i := range expected {
		if r.SeasonalFactors[i] != expected[i] {
			t.Errorf("factor %d = %v, expected %v", i, r.SeasonalFactors[i], expected[i])
		}
	}
}

func TestSeasonalScalesLinear(t *testing.T) {
	series := revenueSeries(10000, 12000, 14000)
	base, err := Linear(series, sales.MetricTotalRevenue, 3)
	if err != nil {
		t.Fatalf("Linear() error = %v", err)
	}
	r, err := Seasonal(series, sales.MetricTotalRevenue, 3, DefaultSeasonalTable(), 7)
	if err != nil {
		t.Fatalf("Seasonal() error = %v", err)
	}

	for i := range r.Predictions {
		want := base.Predictions[i] * r.SeasonalFactors[i]
		if !mathutil.WithinTolerance(r.Predictions[i], want, 1e-6) {
			t.Errorf("prediction %d = %v, expected %v", i, r.Predictions[i], want)
		}
	}
	if !mathutil.WithinTolerance(r.Predictions[0], 16000*0.85, 1e-6) {
		t.Errorf("first prediction = %v, expected %v", r.Predictions[0], 16000*0.85)
	}
	if !mathutil.WithinTolerance(r.Confidence, 0.95*0.95, 1e-9) {
		t.Errorf("confidence = %v, expected %v", r.Confidence, 0.95*0.95)
	}
	if r.TrendSlope != base.TrendSlope {
		t.Errorf("base slope = %v, expected %v", r.TrendSlope, base.TrendSlope)
	}
}

func TestSeasonalPropagatesUnavailable(t *testing.T) {
	r, err := Seasonal(revenueSeries(10000), sales.MetricTotalRevenue, 3, DefaultSeasonalTable(), 7)
	if r != nil || !errors.Is(err, sales.ErrInsufficientHistory) {
		t.Errorf("Seasonal() = %+v, %v; expected nil, ErrInsufficientHistory", r, err)
	}
}

func TestSeasonalTableOverrides(t *testing.T) {
	table, err := NeutralSeasonalTable().With(12, 2)
	if err != nil {
		t.Fatalf("With() error = %v", err)
	}
	if table.Factor(12) != 2 || table.Factor(1) != 1 {
		t.Errorf("unexpected table %v", table)
	}
	if table.Factor(13) != 1 {
		t.Errorf("Factor(13) = %v, expected neutral 1", table.Factor(13))
	}
	if _, err := table.With(0, 1.1); err == nil {
		t.Error("With(0) expected error")
	}
}

func TestGrowthRulesLookup(t *testing.T) {
	rules := DefaultProgramGrowth()
	tests := []struct {
		name     string
		expected float64
	}{
		{"IBO Accelerator", 1.12},
		{"the ibo program", 1.12},
		{"BOB Starter", 1.08},
		{"Bobcat IBO", 1.12},
		{"Coaching", 1.05},
		{"", 1.05},
	}

	for _, tt := range tests {
		if got := rules.Lookup(tt.name); got != tt.expected {
			t.Errorf("Lookup(%q) = %v, expected %v", tt.name, got, tt.expected)
		}
	}

	if got := UniformGrowth(1.1).Lookup("anything"); got != 1.1 {
		t.Errorf("UniformGrowth().Lookup() = %v, expected 1.1", got)
	}
}
