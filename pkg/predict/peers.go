package predict

import (
	"fmt"
	"math"
	"sort"

	"github.com/iwvelando/sales-forecast/internal/sales"
	"github.com/iwvelando/sales-forecast/pkg/constants"
	"github.com/iwvelando/sales-forecast/pkg/mathutil"
	"github.com/shopspring/decimal"
)

// Performance is a peer's aggregate over the whole observed history.
type Performance struct {
	TotalRevenue   float64 `json:"total_revenue"`
	TotalDeals     int     `json:"total_deals"`
	AvgDealSize    float64 `json:"avg_deal_size"`
	AvgCustomerAge float64 `json:"avg_customer_age"`
}

// PeerForecast projects one agent or program forward month by month.
type PeerForecast struct {
	Name                    string      `json:"name"`
	Current                 Performance `json:"current_performance"`
	GrowthFactor            float64     `json:"growth_factor"`
	PredictedMonthlyRevenue Values      `json:"predicted_monthly_revenue"`
	PredictedMonthlyDeals   Values      `json:"predicted_monthly_deals"`
}

// Agents projects every sales agent at a uniform annual growth factor and
// returns the top agents by current revenue. top <= 0 keeps every agent.
func Agents(records []sales.Transaction, observedMonths, horizon int, growth float64, top int) ([]PeerForecast, error) {
	peers, err := projectPeers(records, observedMonths, horizon,
		func(tx sales.Transaction) string { return tx.SalesAgent },
		func(string) float64 { return growth },
	)
	if err != nil {
		return nil, err
	}
	if top > 0 && len(peers) > top {
		peers = peers[:top]
	}
	return peers, nil
}

// Programs projects every product type, choosing its growth factor from rules.
func Programs(records []sales.Transaction, observedMonths, horizon int, rules GrowthRules) ([]PeerForecast, error) {
	return projectPeers(records, observedMonths, horizon,
		func(tx sales.Transaction) string { return tx.ProductType },
		rules.Lookup,
	)
}

// RunRate divides a historical total by the number of observed months,
// falling back to the default month count when none are known.
func RunRate(total float64, observedMonths int) float64 {
	if observedMonths <= 0 {
		observedMonths = constants.DefaultObservedMonths
	}
	return total / float64(observedMonths)
}

// Compound projects base forward for months 1..horizon at an annual growth
// factor, i.e. base * growth^(m/12), floored at zero.
func Compound(base, growth float64, horizon int) Values {
	out := make(Values, horizon)
	for i := range out {
		month := float64(i + 1)
		out[i] = mathutil.NonNegative(base * math.Pow(growth, month/constants.MonthsPerYear))
	}
	return out
}

type peerAccumulator struct {
	revenue decimal.Decimal
	deals   int
	ages    []float64
}

func projectPeers(records []sales.Transaction, observedMonths, horizon int, key func(sales.Transaction) string, growthFor func(string) float64) ([]PeerForecast, error) {
	if horizon < 1 {
		return nil, fmt.Errorf("horizon must be at least 1 month, got %d", horizon)
	}

	groups := make(map[string]*peerAccumulator)
	for _, tx := range records {
		name := key(tx)
		if name == "" {
			continue
		}
		acc, ok := groups[name]
		if !ok {
			acc = &peerAccumulator{revenue: decimal.Zero}
			groups[name] = acc
		}
		if sales.Usable(tx.AmountPaid) {
			acc.revenue = acc.revenue.Add(decimal.NewFromFloat(tx.AmountPaid))
		}
		acc.deals++
		if sales.Usable(tx.CustomerAgeDays) {
			acc.ages = append(acc.ages, tx.CustomerAgeDays)
		}
	}

	peers := make([]PeerForecast, 0, len(groups))
	for name, acc := range groups {
		current := Performance{
			TotalRevenue:   acc.revenue.Round(constants.DecimalPlaces).InexactFloat64(),
			TotalDeals:     acc.deals,
			AvgDealSize:    acc.revenue.Div(decimal.NewFromInt(int64(acc.deals))).Round(constants.DecimalPlaces).InexactFloat64(),
			AvgCustomerAge: mathutil.Round(mathutil.MeanIgnoringNaN(acc.ages)),
		}
		growth := growthFor(name)
		peers = append(peers, PeerForecast{
			Name:                    name,
			Current:                 current,
			GrowthFactor:            growth,
			PredictedMonthlyRevenue: Compound(RunRate(current.TotalRevenue, observedMonths), growth, horizon),
			PredictedMonthlyDeals:   Compound(RunRate(float64(current.TotalDeals), observedMonths), growth, horizon),
		})
	}

	sort.Slice(peers, func(i, j int) bool {
		if peers[i].Current.TotalRevenue != peers[j].Current.TotalRevenue {
			return peers[i].Current.TotalRevenue > peers[j].Current.TotalRevenue
		}
		return peers[i].Name < peers[j].Name
	})
	return peers, nil
}
