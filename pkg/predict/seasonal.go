package predict

import (
	"github.com/iwvelando/sales-forecast/internal/sales"
	"github.com/iwvelando/sales-forecast/pkg/constants"
	"github.com/iwvelando/sales-forecast/pkg/datetime"
	"github.com/iwvelando/sales-forecast/pkg/mathutil"
)

// Seasonal scales a linear forecast by the table factor of each forecast
// month. The first forecast point falls in calendar month anchor (1-12).
func Seasonal(summaries []sales.MonthlySummary, metric sales.Metric, horizon int, table SeasonalTable, anchor int) (*Result, error) {
	base, err := Linear(summaries, metric, horizon)
	if err != nil {
		return nil, err
	}

	predictions := make(Values, horizon)
	factors := make([]float64, horizon)
	for i, p := range base.Predictions {
		factors[i] = table.Factor(datetime.MonthOfYear(anchor, i))
		predictions[i] = mathutil.NonNegative(p * factors[i])
	}

	return &Result{
		Model:           ModelSeasonal,
		Predictions:     predictions,
		Confidence:      confidence(base.Confidence * constants.SeasonalConfidenceDiscount),
		TrendSlope:      base.TrendSlope,
		RSquared:        base.RSquared,
		SeasonalFactors: factors,
	}, nil
}
