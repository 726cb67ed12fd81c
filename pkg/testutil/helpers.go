// Package testutil provides common utility functions for testing.
package testutil

import (
	"time"

	"github.com/iwvelando/sales-forecast/internal/sales"
	"github.com/iwvelando/sales-forecast/pkg/constants"
	"github.com/iwvelando/sales-forecast/pkg/predict"
)

// FindPeer finds a peer forecast by name in the peers slice.
// Returns a pointer to the forecast if found, nil otherwise.
func FindPeer(peers []predict.PeerForecast, name string) *predict.PeerForecast {
	for i := range peers {
		if peers[i].Name == name {
			return &peers[i]
		}
	}
	return nil
}

// Sale builds a transaction on the given YYYY-MM-DD day. It panics on a
// malformed day, which only happens in broken tests.
func Sale(day string, amount float64, agent, product string) sales.Transaction {
	signup, err := time.Parse(constants.DayLayout, day)
	if err != nil {
		panic(err)
	}
	return sales.Transaction{
		SignupDate:      signup,
		AmountPaid:      amount,
		SalesAgent:      agent,
		ClosingAgent:    agent,
		Country:         "US",
		ProductType:     product,
		CustomerAgeDays: 30,
		PaidPerDay:      amount / 30,
	}
}

// MonthlyRevenue builds consecutive monthly summaries starting at January
// 2025 with the given total revenues and one deal per 1000 of revenue.
func MonthlyRevenue(revenues ...float64) []sales.MonthlySummary {
	start := time.Date(2025, time.January, 1, 0, 0, 0, 0, time.UTC)
	out := make([]sales.MonthlySummary, len(revenues))
	for i, revenue := range revenues {
		out[i] = sales.MonthlySummary{
			MonthIndex:   i + 1,
			YearMonth:    start.AddDate(0, i, 0).Format(constants.DateTimeLayout),
			TotalRevenue: revenue,
			TotalDeals:   int(revenue / 1000),
		}
	}
	return out
}
