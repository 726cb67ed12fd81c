package sales

import (
	"encoding/json"
	"errors"
	"math"
	"math/rand"
	"reflect"
	"testing"
	"time"

	"github.com/iwvelando/sales-forecast/pkg/constants"
)

func tx(date string, amount float64, agent, closer, country, product string) Transaction {
	d, err := time.Parse(constants.DayLayout, date)
	if err != nil {
		panic(err)
	}
	return Transaction{
		SignupDate:      d,
		AmountPaid:      amount,
		SalesAgent:      agent,
		ClosingAgent:    closer,
		Country:         country,
		ProductType:     product,
		CustomerAgeDays: 30,
		PaidPerDay:      amount / 30,
	}
}

func sampleTransactions() []Transaction {
	return []Transaction{
		tx("2025-04-02", 1000, "alice", "carol", "US", "IBO Program"),
		tx("2025-04-10", 2000, "bob", "carol", "CA", "BOB Starter"),
		tx("2025-04-20", 1500, "alice", "dave", "US", "IBO Program"),
		tx("2025-05-03", 3000, "alice", "carol", "UK", "BOB Starter"),
		tx("2025-05-15", 500, "erin", "", "US", "BOB Starter"),
		tx("2025-06-30", 1200.5, "bob", "dave", "US", "Coaching"),
		tx("2025-07-01", 800.25, "alice", "carol", "US", "IBO Program"),
	}
}

func TestAggregateEmpty(t *testing.T) {
	_, err := Aggregate(nil)
	var dataErr *DataError
	if !errors.As(err, &dataErr) {
		t.Fatalf("Aggregate(nil) error = %v, expected DataError", err)
	}
}

func TestAggregate(t *testing.T) {
	summaries, err := Aggregate(sampleTransactions())
	if err != nil {
		t.Fatalf("Aggregate() error = %v", err)
	}

	if len(summaries) != 4 {
		t.Fatalf("Aggregate() returned %d months, expected 4", len(summaries))
	}

	expectedLabels := []string{"2025-04", "2025-05", "2025-06", "2025-07"}
	for i, s := range summaries {
		if s.MonthIndex != i+1 {
			t.Errorf("month %d has index %d", i, s.MonthIndex)
		}
		if s.YearMonth != expectedLabels[i] {
			t.Errorf("month %d label = %s, expected %s", i, s.YearMonth, expectedLabels[i])
		}
	}

	april := summaries[0]
	if april.TotalRevenue != 4500 {
		t.Errorf("April revenue = %v, expected 4500", april.TotalRevenue)
	}
	if april.AvgDealSize != 1500 {
		t.Errorf("April avg deal = %v, expected 1500", april.AvgDealSize)
	}
	if april.TotalDeals != 3 {
		t.Errorf("April deals = %d, expected 3", april.TotalDeals)
	}
	if april.UniqueAgents != 2 || april.UniqueClosers != 2 || april.UniqueCountries != 2 {
		t.Errorf("April distinct counts = %d/%d/%d, expected 2/2/2",
			april.UniqueAgents, april.UniqueClosers, april.UniqueCountries)
	}
	if april.TopProduct != "IBO Program" {
		t.Errorf("April top product = %s, expected IBO Program", april.TopProduct)
	}
	if april.AvgCustomerAge != 30 {
		t.Errorf("April avg customer age = %v, expected 30", april.AvgCustomerAge)
	}

	may := summaries[1]
	if may.UniqueClosers != 1 {
		t.Errorf("May closers = %d, expected empty closer to be ignored", may.UniqueClosers)
	}
	if may.TopProduct != "BOB Starter" {
		t.Errorf("May top product = %s, expected BOB Starter", may.TopProduct)
	}

	if summaries[3].TotalRevenue != 800.25 {
		t.Errorf("July revenue = %v, expected 800.25", summaries[3].TotalRevenue)
	}
}

func TestAggregateOrderIndependent(t *testing.T) {
	records := sampleTransactions()
	expected, err := Aggregate(records)
	if err != nil {
		t.Fatalf("Aggregate() error = %v", err)
	}

	rng := rand.New(rand.NewSource(42))
	for i := 0; i < 10; i++ {
		shuffled := append([]Transaction(nil), records...)
		rng.Shuffle(len(shuffled), func(a, b int) {
			shuffled[a], shuffled[b] = shuffled[b], shuffled[a]
		})
		got, err := Aggregate(shuffled)
		if err != nil {
			t.Fatalf("Aggregate() error = %v", err)
		}
		if !reflect.DeepEqual(got, expected) {
			t.Fatalf("shuffle %d changed aggregation:\n got %+v\nwant %+v", i, got, expected)
		}
	}
}

func TestAggregateDoesNotMutateInput(t *testing.T) {
	records := sampleTransactions()
	before := append([]Transaction(nil), records...)
	if _, err := Aggregate(records); err != nil {
		t.Fatalf("Aggregate() error = %v", err)
	}
	if !reflect.DeepEqual(records, before) {
		t.Error("Aggregate() modified its input")
	}
}

func TestTopProductTieBreak(t *testing.T) {
	tests := []struct {
		name     string
		records  []Transaction
		expected string
	}{
		{
			name: "Lexical over first seen",
			records: []Transaction{
				tx("2025-04-01", 100, "a", "c", "US", "Zeta"),
				tx("2025-04-05", 100, "a", "c", "US", "Zeta"),
				tx("2025-04-09", 100, "a", "c", "US", "Alpha"),
				tx("2025-04-20", 100, "a", "c", "US", "Alpha"),
			},
			expected: "Alpha",
		},
		{
			name: "Count before name",
			records: []Transaction{
				tx("2025-04-01", 100, "a", "c", "US", "Alpha"),
				tx("2025-04-05", 100, "a", "c", "US", "Zeta"),
				tx("2025-04-09", 100, "a", "c", "US", "Zeta"),
			},
			expected: "Zeta",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// Input order must not matter.
			for _, records := range [][]Transaction{tt.records, reversed(tt.records)} {
				summaries, err := Aggregate(records)
				if err != nil {
					t.Fatalf("Aggregate() error = %v", err)
				}
				if summaries[0].TopProduct != tt.expected {
					t.Errorf("TopProduct = %s, expected %s", summaries[0].TopProduct, tt.expected)
				}
			}
		})
	}
}

func reversed(records []Transaction) []Transaction {
	out := make([]Transaction, len(records))
	for i, r := range records {
		out[len(records)-1-i] = r
	}
	return out
}

func TestAggregateIgnoresOversizedValues(t *testing.T) {
	huge := tx("2025-04-02", 1e308, "a", "c", "US", "X")
	huge.CustomerAgeDays = 1e308
	huge.PaidPerDay = math.Inf(1)
	records := []Transaction{
		huge,
		tx("2025-04-03", 1e308, "a", "c", "US", "X"),
		tx("2025-04-04", 60, "a", "c", "US", "X"),
	}

	summaries, err := Aggregate(records)
	if err != nil {
		t.Fatalf("Aggregate() error = %v", err)
	}
	s := summaries[0]
	if s.TotalRevenue != 60 || s.TotalDeals != 3 || s.AvgDealSize != 20 {
		t.Errorf("unexpected totals %+v", s)
	}
	if s.AvgCustomerAge != 30 || math.IsInf(s.AvgDailyRevenue, 0) {
		t.Errorf("oversized optional values should be skipped, got %+v", s)
	}
	if _, err := json.Marshal(summaries); err != nil {
		t.Errorf("Marshal() error = %v", err)
	}
}

func TestTopProductUnknown(t *testing.T) {
	records := []Transaction{
		tx("2025-04-09", 100, "a", "c", "US", ""),
	}
	summaries, err := Aggregate(records)
	if err != nil {
		t.Fatalf("Aggregate() error = %v", err)
	}
	if summaries[0].TopProduct != constants.UnknownProduct {
		t.Errorf("TopProduct = %s, expected %s", summaries[0].TopProduct, constants.UnknownProduct)
	}
}

func TestAggregateMissingOptionalValues(t *testing.T) {
	first := tx("2025-04-01", 100, "a", "c", "US", "X")
	first.CustomerAgeDays = Missing()
	first.PaidPerDay = Missing()
	second := tx("2025-04-02", 300, "a", "c", "US", "X")
	second.CustomerAgeDays = 10
	second.PaidPerDay = 5

	summaries, err := Aggregate([]Transaction{first, second})
	if err != nil {
		t.Fatalf("Aggregate() error = %v", err)
	}
	if summaries[0].AvgCustomerAge != 10 {
		t.Errorf("AvgCustomerAge = %v, expected 10", summaries[0].AvgCustomerAge)
	}
	if summaries[0].AvgDailyRevenue != 5 {
		t.Errorf("AvgDailyRevenue = %v, expected 5", summaries[0].AvgDailyRevenue)
	}
	if math.IsNaN(summaries[0].AvgDealSize) || summaries[0].AvgDealSize != 200 {
		t.Errorf("AvgDealSize = %v, expected 200", summaries[0].AvgDealSize)
	}
}

func TestSeriesAndValue(t *testing.T) {
	summaries := []MonthlySummary{
		{MonthIndex: 1, YearMonth: "2025-04", TotalRevenue: 10, TotalDeals: 2},
		{MonthIndex: 2, YearMonth: "2025-05", TotalRevenue: 20, TotalDeals: 4},
	}

	x, y, err := Series(summaries, MetricTotalDeals)
	if err != nil {
		t.Fatalf("Series() error = %v", err)
	}
	if !reflect.DeepEqual(x, []float64{1, 2}) || !reflect.DeepEqual(y, []float64{2, 4}) {
		t.Errorf("Series() = %v, %v", x, y)
	}

	if _, _, err := Series(summaries, Metric("bogus")); err == nil {
		t.Error("Series() expected error for unknown metric")
	}

	first, last, ok := Span(summaries)
	if !ok || first != "2025-04" || last != "2025-05" {
		t.Errorf("Span() = %s, %s, %v", first, last, ok)
	}
	if _, _, ok := Span(nil); ok {
		t.Error("Span(nil) expected ok = false")
	}
}
