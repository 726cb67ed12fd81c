// Package sales defines the transaction and monthly summary data structures and
// the aggregation that turns raw transactions into a monthly series.
package sales

import (
	"fmt"
	"math"
	"time"

	"github.com/iwvelando/sales-forecast/pkg/constants"
)

// Transaction is one closed sale. Optional numeric fields that were missing in
// the input hold NaN.
type Transaction struct {
	SignupDate      time.Time
	AmountPaid      float64
	SalesAgent      string
	ClosingAgent    string
	Country         string
	ProductType     string
	CustomerAgeDays float64
	PaidPerDay      float64
}

// Missing is the value stored in optional numeric fields that had no data.
func Missing() float64 {
	return math.NaN()
}

// Usable reports whether a numeric field is finite and no larger in magnitude
// than constants.MaxAbsAmount. Aggregates skip unusable values.
func Usable(v float64) bool {
	return !math.IsNaN(v) && math.Abs(v) <= constants.MaxAbsAmount
}

func usableOrMissing(v float64) float64 {
	if Usable(v) {
		return v
	}
	return Missing()
}

// MonthlySummary aggregates every transaction that falls in one calendar month.
type MonthlySummary struct {
	MonthIndex      int     `json:"month_num"`
	YearMonth       string  `json:"year_month"`
	TotalRevenue    float64 `json:"total_revenue"`
	AvgDealSize     float64 `json:"avg_deal_size"`
	TotalDeals      int     `json:"total_deals"`
	UniqueAgents    int     `json:"unique_agents"`
	UniqueClosers   int     `json:"unique_closers"`
	UniqueCountries int     `json:"unique_countries"`
	TopProduct      string  `json:"top_product"`
	AvgCustomerAge  float64 `json:"avg_customer_age"`
	AvgDailyRevenue float64 `json:"avg_daily_revenue"`
}

// Metric names a numeric column of MonthlySummary that can be forecast.
type Metric string

const (
	MetricTotalRevenue    Metric = "total_revenue"
	MetricAvgDealSize     Metric = "avg_deal_size"
	MetricTotalDeals      Metric = "total_deals"
	MetricUniqueAgents    Metric = "unique_agents"
	MetricUniqueClosers   Metric = "unique_closers"
	MetricUniqueCountries Metric = "unique_countries"
	MetricAvgCustomerAge  Metric = "avg_customer_age"
	MetricAvgDailyRevenue Metric = "avg_daily_revenue"
)

// Value returns the summary's value for the given metric.
func (m MonthlySummary) Value(metric Metric) (float64, error) {
	switch metric {
	case MetricTotalRevenue:
		return m.TotalRevenue, nil
	case MetricAvgDealSize:
		return m.AvgDealSize, nil
	case MetricTotalDeals:
		return float64(m.TotalDeals), nil
	case MetricUniqueAgents:
		return float64(m.UniqueAgents), nil
	case MetricUniqueClosers:
		return float64(m.UniqueClosers), nil
	case MetricUniqueCountries:
		return float64(m.UniqueCountries), nil
	case MetricAvgCustomerAge:
		return m.AvgCustomerAge, nil
	case MetricAvgDailyRevenue:
		return m.AvgDailyRevenue, nil
	default:
		return 0, fmt.Errorf("unknown metric %q", metric)
	}
}

// Series extracts the month indices and metric values of a monthly series.
func Series(summaries []MonthlySummary, metric Metric) ([]float64, []float64, error) {
	x := make([]float64, len(summaries))
	y := make([]float64, len(summaries))
	for i, s := range summaries {
		v, err := s.Value(metric)
		if err != nil {
			return nil, nil, err
		}
		x[i] = float64(s.MonthIndex)
		y[i] = v
	}
	return x, y, nil
}

// Span returns the first and last year-month labels of a monthly series.
// ok is false when the series is empty.
func Span(summaries []MonthlySummary) (first, last string, ok bool) {
	if len(summaries) == 0 {
		return "", "", false
	}
	return summaries[0].YearMonth, summaries[len(summaries)-1].YearMonth, true
}
