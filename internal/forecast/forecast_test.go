package forecast

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/iwvelando/sales-forecast/internal/config"
	"github.com/iwvelando/sales-forecast/internal/sales"
	"github.com/iwvelando/sales-forecast/pkg/mathutil"
	"github.com/iwvelando/sales-forecast/pkg/testutil"
	"go.uber.org/zap"
)

// quarter has revenue 10000, 12000, 14000 across April to June 2025 with two
// deals a month split evenly between two agents.
func quarter() []sales.Transaction {
	return []sales.Transaction{
		testutil.Sale("2025-04-03", 5000, "alice", "IBO Program"),
		testutil.Sale("2025-04-20", 5000, "bob", "BOB Starter"),
		testutil.Sale("2025-05-03", 6000, "alice", "IBO Program"),
		testutil.Sale("2025-05-20", 6000, "bob", "BOB Starter"),
		testutil.Sale("2025-06-03", 7000, "alice", "IBO Program"),
		testutil.Sale("2025-06-20", 7000, "bob", "BOB Starter"),
	}
}

func testConfig(horizons ...int) config.Configuration {
	conf := config.DefaultConfiguration()
	conf.Forecast.Horizons = horizons
	return *conf
}

func TestGetForecast(t *testing.T) {
	report, err := GetForecast(context.Background(), zap.NewNop(), testConfig(3, 6, 12), quarter())
	if err != nil {
		t.Fatalf("GetForecast() error = %v", err)
	}

	if got := strings.Join(report.Labels(), ","); got != "3_months,6_months,12_months" {
		t.Errorf("Labels() = %s", got)
	}
	if len(report.Monthly) != 3 {
		t.Errorf("expected 3 monthly summaries, got %d", len(report.Monthly))
	}

	h, ok := report.Find("3_months")
	if !ok {
		t.Fatal("Find(3_months) failed")
	}
	if h.PredictionPeriod != 3 {
		t.Errorf("PredictionPeriod = %d", h.PredictionPeriod)
	}
	if h.BaseDataPeriod != "2025-04 to 2025-06" {
		t.Errorf("BaseDataPeriod = %s", h.BaseDataPeriod)
	}
	if h.PredictionStartDate != "2025-07-01" {
		t.Errorf("PredictionStartDate = %s", h.PredictionStartDate)
	}

	linear := h.Revenue.Linear
	if linear == nil {
		t.Fatal("expected a linear revenue forecast")
	}
	expected := []float64{16000, 18000, 20000}
	for i, want := range expected {
		if !mathutil.WithinTolerance(linear.Predictions[i], want, 0.01) {
			t.Errorf("linear[%d] = %v, expected %v", i, linear.Predictions[i], want)
		}
	}
	if linear.Confidence != 0.95 {
		t.Errorf("linear confidence = %v, expected 0.95", linear.Confidence)
	}

	if h.Revenue.Polynomial == nil {
		t.Error("expected a polynomial revenue forecast")
	}

	// July, August and September factors.
	seasonal := h.Revenue.Seasonal
	if seasonal == nil {
		t.Fatal("expected a seasonal revenue forecast")
	}
	for i, want := range []float64{16000 * 0.85, 18000 * 0.80, 20000 * 0.85} {
		if !mathutil.WithinTolerance(seasonal.Predictions[i], want, 0.01) {
			t.Errorf("seasonal[%d] = %v, expected %v", i, seasonal.Predictions[i], want)
		}
	}

	if h.Deals.Linear == nil || h.Deals.Polynomial == nil || h.Deals.Seasonal == nil {
		t.Fatalf("expected every deals forecast, got %+v", h.Deals)
	}
	if !mathutil.WithinTolerance(h.Deals.Linear.Predictions[0], 2, 0.001) {
		t.Errorf("deals forecast = %v, expected 2", h.Deals.Linear.Predictions[0])
	}

	if len(h.Agents) != 2 || len(h.Programs) != 2 {
		t.Fatalf("expected 2 agents and 2 programs, got %d and %d", len(h.Agents), len(h.Programs))
	}
	// Equal revenue ties break by name.
	if h.Agents[0].Name != "alice" {
		t.Errorf("first agent = %s, expected alice", h.Agents[0].Name)
	}
}

func TestGetForecastPeerGrowth(t *testing.T) {
	report, err := GetForecast(context.Background(), nil, testConfig(12), quarter())
	if err != nil {
		t.Fatalf("GetForecast() error = %v", err)
	}
	h := report.Horizons[0]

	alice := testutil.FindPeer(h.Agents, "alice")
	if alice == nil {
		t.Fatal("alice missing from agent forecasts")
	}
	// 18000 over three months, one year at 10% growth.
	if !mathutil.WithinTolerance(alice.PredictedMonthlyRevenue[11], 6600, 0.01) {
		t.Errorf("alice month 12 = %v, expected 6600", alice.PredictedMonthlyRevenue[11])
	}

	ibo := testutil.FindPeer(h.Programs, "IBO Program")
	bob := testutil.FindPeer(h.Programs, "BOB Starter")
	if ibo == nil || bob == nil {
		t.Fatalf("missing programs in %+v", h.Programs)
	}
	if ibo.GrowthFactor != 1.12 || bob.GrowthFactor != 1.08 {
		t.Errorf("growth factors = %v, %v", ibo.GrowthFactor, bob.GrowthFactor)
	}
}

func TestGetForecastShortHistory(t *testing.T) {
	tests := []struct {
		name          string
		records       []sales.Transaction
		hasLinear     bool
		hasPolynomial bool
	}{
		{
			name:    "One month",
			records: quarter()[:2],
		},
		{
			name:      "Two months",
			records:   quarter()[:4],
			hasLinear: true,
		},
		{
			name:          "Three months",
			records:       quarter(),
			hasLinear:     true,
			hasPolynomial: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			report, err := GetForecast(context.Background(), zap.NewNop(), testConfig(3), tt.records)
			if err != nil {
				t.Fatalf("GetForecast() error = %v", err)
			}
			h := report.Horizons[0]
			if (h.Revenue.Linear != nil) != tt.hasLinear {
				t.Errorf("linear present = %v, expected %v", h.Revenue.Linear != nil, tt.hasLinear)
			}
			if (h.Revenue.Seasonal != nil) != tt.hasLinear {
				t.Errorf("seasonal present = %v, expected %v", h.Revenue.Seasonal != nil, tt.hasLinear)
			}
			if (h.Revenue.Polynomial != nil) != tt.hasPolynomial {
				t.Errorf("polynomial present = %v, expected %v", h.Revenue.Polynomial != nil, tt.hasPolynomial)
			}
			if len(h.Agents) == 0 || len(h.Programs) == 0 {
				t.Error("peer forecasts should not depend on history length")
			}
		})
	}
}

func TestGetForecastNoRecords(t *testing.T) {
	_, err := GetForecast(context.Background(), zap.NewNop(), testConfig(3), nil)
	var dataErr *sales.DataError
	if !errors.As(err, &dataErr) {
		t.Errorf("GetForecast() error = %v, expected DataError", err)
	}
}

func TestGetForecastDerivedStart(t *testing.T) {
	records := []sales.Transaction{
		testutil.Sale("2025-08-10", 1000, "alice", "IBO"),
		testutil.Sale("2025-09-10", 2000, "alice", "IBO"),
	}
	conf := testConfig(2)
	conf.Forecast.AnchorMonth = 0
	conf.Forecast.StartDate = config.Auto

	report, err := GetForecast(context.Background(), zap.NewNop(), conf, records)
	if err != nil {
		t.Fatalf("GetForecast() error = %v", err)
	}
	h := report.Horizons[0]
	if h.PredictionStartDate != "2025-10-01" {
		t.Errorf("PredictionStartDate = %s, expected 2025-10-01", h.PredictionStartDate)
	}
	// October then November.
	factors := h.Revenue.Seasonal.SeasonalFactors
	if len(factors) != 2 || factors[0] != 1.05 || factors[1] != 1.10 {
		t.Errorf("seasonal factors = %v, expected [1.05 1.1]", factors)
	}
}

func TestGetForecastDuplicateHorizons(t *testing.T) {
	report, err := GetForecast(context.Background(), zap.NewNop(), testConfig(6, 3, 6), quarter())
	if err != nil {
		t.Fatalf("GetForecast() error = %v", err)
	}
	if got := strings.Join(report.Labels(), ","); got != "6_months,3_months" {
		t.Errorf("Labels() = %s", got)
	}
	if len(report.Warnings) != 1 {
		t.Errorf("Warnings = %v, expected one", report.Warnings)
	}
}

func TestGetForecastCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := GetForecast(ctx, zap.NewNop(), testConfig(3), quarter()); !errors.Is(err, context.Canceled) {
		t.Errorf("GetForecast() error = %v, expected context.Canceled", err)
	}
}

func TestReportJSONRoundTrip(t *testing.T) {
	report, err := GetForecast(context.Background(), zap.NewNop(), testConfig(12, 3, 6), quarter()[:2])
	if err != nil {
		t.Fatalf("GetForecast() error = %v", err)
	}

	data, err := json.Marshal(report)
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}
	if !strings.HasPrefix(string(data), `{"12_months":`) {
		t.Errorf("report JSON should start with the first requested horizon, got %.40s", data)
	}
	if !strings.Contains(string(data), `"linear":null`) {
		t.Error("unavailable forecasts should serialize as null")
	}

	var decoded Report
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}
	if strings.Join(decoded.Labels(), ",") != strings.Join(report.Labels(), ",") {
		t.Errorf("labels = %v, expected %v", decoded.Labels(), report.Labels())
	}
	for i, h := range decoded.Horizons {
		original := report.Horizons[i]
		if len(h.Agents) != len(original.Agents) || len(h.Programs) != len(original.Programs) {
			t.Errorf("%s peer counts changed", h.Label())
		}
		for _, peer := range h.Agents {
			if len(peer.PredictedMonthlyRevenue) != h.PredictionPeriod {
				t.Errorf("%s agent %s has %d predictions", h.Label(), peer.Name, len(peer.PredictedMonthlyRevenue))
			}
		}
		if h.Revenue.Linear != nil {
			t.Errorf("%s linear forecast should stay null", h.Label())
		}
	}
}

func TestReportUnmarshalErrors(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"Not an object", `[]`},
		{"Mismatched label", `{"3_months":{"prediction_period":6}}`},
		{"Truncated", `{"3_months":`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var r Report
			if err := json.Unmarshal([]byte(tt.input), &r); err == nil {
				t.Error("Unmarshal() expected error")
			}
		})
	}
}

func TestReportGaps(t *testing.T) {
	report, err := GetForecast(context.Background(), zap.NewNop(), testConfig(3, 6), quarter()[:4])
	if err != nil {
		t.Fatalf("GetForecast() error = %v", err)
	}
	// Two months of history: only the polynomial fits are missing.
	gaps := report.Gaps()
	if len(gaps) != 4 {
		t.Fatalf("Gaps() = %+v, expected 4", gaps)
	}
	for _, g := range gaps {
		if g.Model != "polynomial" {
			t.Errorf("unexpected gap %+v", g)
		}
	}
	if gaps[0].Horizon != "3_months" || gaps[0].Metric != sales.MetricTotalRevenue {
		t.Errorf("first gap = %+v", gaps[0])
	}
}

func TestGetForecastOversizedAmounts(t *testing.T) {
	records := append(quarter(),
		testutil.Sale("2025-05-10", 1e308, "carol", "IBO Program"),
		testutil.Sale("2025-05-11", 1e308, "carol", "IBO Program"),
	)

	report, err := GetForecast(context.Background(), zap.NewNop(), testConfig(3), records)
	if err != nil {
		t.Fatalf("GetForecast() error = %v", err)
	}
	if report.Monthly[1].TotalRevenue != 12000 {
		t.Errorf("May revenue = %v, expected 12000", report.Monthly[1].TotalRevenue)
	}
	if _, err := json.Marshal(report); err != nil {
		t.Errorf("Marshal(report) error = %v", err)
	}
	if _, err := json.Marshal(report.Monthly); err != nil {
		t.Errorf("Marshal(monthly) error = %v", err)
	}
}
