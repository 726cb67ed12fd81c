package sales

import (
	"sort"
	"time"

	"github.com/iwvelando/sales-forecast/pkg/constants"
	"github.com/iwvelando/sales-forecast/pkg/datetime"
	"github.com/iwvelando/sales-forecast/pkg/mathutil"
	"github.com/shopspring/decimal"
)

type monthAccumulator struct {
	start        time.Time
	revenue      decimal.Decimal
	deals        int
	agents       map[string]struct{}
	closers      map[string]struct{}
	countries    map[string]struct{}
	productCount map[string]int
	customerAges []float64
	dailyRevenue []float64
}

func newMonthAccumulator(start time.Time) *monthAccumulator {
	return &monthAccumulator{
		start:        start,
		revenue:      decimal.Zero,
		agents:       make(map[string]struct{}),
		closers:      make(map[string]struct{}),
		countries:    make(map[string]struct{}),
		productCount: make(map[string]int),
	}
}

func (acc *monthAccumulator) add(tx Transaction) {
	if Usable(tx.AmountPaid) {
		acc.revenue = acc.revenue.Add(decimal.NewFromFloat(tx.AmountPaid))
	}
	acc.deals++
	addDistinct(acc.agents, tx.SalesAgent)
	addDistinct(acc.closers, tx.ClosingAgent)
	addDistinct(acc.countries, tx.Country)
	if tx.ProductType != "" {
		acc.productCount[tx.ProductType]++
	}
	acc.customerAges = append(acc.customerAges, usableOrMissing(tx.CustomerAgeDays))
	acc.dailyRevenue = append(acc.dailyRevenue, usableOrMissing(tx.PaidPerDay))
}

// topProduct returns the most frequent product type. Ties go to the lexically
// smaller name.
func (acc *monthAccumulator) topProduct() string {
	best := ""
	bestCount := 0
	for product, count := range acc.productCount {
		if count > bestCount || (count == bestCount && product < best) {
			best = product
			bestCount = count
		}
	}
	if best == "" {
		return constants.UnknownProduct
	}
	return best
}

func (acc *monthAccumulator) summary(index int) MonthlySummary {
	avgDeal := decimal.Zero
	if acc.deals > 0 {
		avgDeal = acc.revenue.Div(decimal.NewFromInt(int64(acc.deals)))
	}
	return MonthlySummary{
		MonthIndex:      index,
		YearMonth:       datetime.MonthLabel(acc.start),
		TotalRevenue:    acc.revenue.Round(constants.DecimalPlaces).InexactFloat64(),
		AvgDealSize:     avgDeal.Round(constants.DecimalPlaces).InexactFloat64(),
		TotalDeals:      acc.deals,
		UniqueAgents:    len(acc.agents),
		UniqueClosers:   len(acc.closers),
		UniqueCountries: len(acc.countries),
		TopProduct:      acc.topProduct(),
		AvgCustomerAge:  mathutil.Round(mathutil.MeanIgnoringNaN(acc.customerAges)),
		AvgDailyRevenue: mathutil.Round(mathutil.MeanIgnoringNaN(acc.dailyRevenue)),
	}
}

func addDistinct(set map[string]struct{}, value string) {
	if value != "" {
		set[value] = struct{}{}
	}
}

// Aggregate groups transactions by calendar month and returns one summary per
// month present, in chronological order, indexed 1..N. The result does not
// depend on the order of records.
func Aggregate(records []Transaction) ([]MonthlySummary, error) {
	if len(records) == 0 {
		return nil, &DataError{Msg: "no valid transactions to aggregate"}
	}

	months := make(map[time.Time]*monthAccumulator)
	for _, tx := range records {
		start := datetime.MonthStart(tx.SignupDate)
		acc, ok := months[start]
		if !ok {
			acc = newMonthAccumulator(start)
			months[start] = acc
		}
		acc.add(tx)
	}

	starts := make([]time.Time, 0, len(months))
	for start := range months {
		starts = append(starts, start)
	}
	sort.Slice(starts, func(i, j int) bool {
		return starts[i].Before(starts[j])
	})

	summaries := make([]MonthlySummary, len(starts))
	for i, start := range starts {
		summaries[i] = months[start].summary(i + 1)
	}
	return summaries, nil
}
