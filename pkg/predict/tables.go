package predict

import (
	"fmt"
	"strings"

	"github.com/iwvelando/sales-forecast/pkg/constants"
)

// SeasonalTable holds the multiplier for each calendar month, January first.
type SeasonalTable [constants.MonthsPerYear]float64

// DefaultSeasonalTable returns the stock table: strong Q1 and Q4, soft summer.
func DefaultSeasonalTable() SeasonalTable {
	return SeasonalTable{
		1.15, 1.10, 1.05, // Q1
		1.00, 0.95, 0.90, // Q2
		0.85, 0.80, 0.85, // Q3
		1.05, 1.10, 1.20, // Q4
	}
}

// NeutralSeasonalTable returns a table of 1.0 for every month.
func NeutralSeasonalTable() SeasonalTable {
	var t SeasonalTable
	for i := range t {
		t[i] = 1
	}
	return t
}

// Factor returns the multiplier for month (1-12).
func (t SeasonalTable) Factor(month int) float64 {
	if month < 1 || month > constants.MonthsPerYear {
		return 1
	}
	return t[month-1]
}

// With returns a copy of the table with month set to factor.
func (t SeasonalTable) With(month int, factor float64) (SeasonalTable, error) {
	if month < 1 || month > constants.MonthsPerYear {
		return t, fmt.Errorf("month %d is outside 1-12", month)
	}
	t[month-1] = factor
	return t, nil
}

// GrowthRule assigns an annual growth factor to every peer whose name contains
// Keyword, compared case-insensitively.
type GrowthRule struct {
	Keyword string
	Factor  float64
}

// GrowthRules is an ordered rule list; the first matching rule wins.
type GrowthRules struct {
	Rules   []GrowthRule
	Default float64
}

// DefaultProgramGrowth returns the stock program growth rules.
func DefaultProgramGrowth() GrowthRules {
	return GrowthRules{
		Rules: []GrowthRule{
			{Keyword: "ibo", Factor: 1.12},
			{Keyword: "bob", Factor: 1.08},
		},
		Default: constants.DefaultProgramGrowth,
	}
}

// UniformGrowth returns rules that give every peer the same factor.
func UniformGrowth(factor float64) GrowthRules {
	return GrowthRules{Default: factor}
}

// Lookup returns the growth factor for name.
func (g GrowthRules) Lookup(name string) float64 {
	lower := strings.ToLower(name)
	for _, rule := range g.Rules {
		if rule.Keyword != "" && strings.Contains(lower, strings.ToLower(rule.Keyword)) {
			return rule.Factor
		}
	}
	return g.Default
}
