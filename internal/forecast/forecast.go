// Package forecast defines the data structures related to a given forecast and
// includes functions for computing the forecasts.
package forecast

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/iwvelando/sales-forecast/internal/config"
	"github.com/iwvelando/sales-forecast/internal/sales"
	"github.com/iwvelando/sales-forecast/pkg/constants"
	"github.com/iwvelando/sales-forecast/pkg/datetime"
	"github.com/iwvelando/sales-forecast/pkg/predict"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// NoData is the observed span reported when no months were aggregated.
const NoData = "No data"

// Strategies holds one trend forecast per model. A nil entry means the model
// had too little history to fit.
type Strategies struct {
	Linear     *predict.Result `json:"linear"`
	Polynomial *predict.Result `json:"polynomial"`
	Seasonal   *predict.Result `json:"seasonal"`
}

// Horizon holds every forecast computed for one horizon length.
type Horizon struct {
	Revenue             Strategies             `json:"revenue_predictions"`
	Deals               Strategies             `json:"deals_predictions"`
	Agents              []predict.PeerForecast `json:"agent_predictions"`
	Programs            []predict.PeerForecast `json:"program_predictions"`
	PredictionPeriod    int                    `json:"prediction_period"`
	BaseDataPeriod      string                 `json:"base_data_period"`
	PredictionStartDate string                 `json:"prediction_start_date"`
}

// Label returns the report key of the horizon, e.g. "3_months".
func (h Horizon) Label() string {
	return Label(h.PredictionPeriod)
}

// Label returns the report key for a horizon of the given length.
func Label(months int) string {
	return fmt.Sprintf("%d_months", months)
}

// Report is the assembled forecast. Horizons keep the requested order.
type Report struct {
	Horizons []Horizon

	// Populated by GetForecast and not serialized.
	Monthly  []sales.MonthlySummary
	Warnings []string
}

// Find returns the horizon with the given label.
func (r *Report) Find(label string) (*Horizon, bool) {
	for i := range r.Horizons {
		if r.Horizons[i].Label() == label {
			return &r.Horizons[i], true
		}
	}
	return nil, false
}

// Labels returns the horizon labels in report order.
func (r *Report) Labels() []string {
	labels := make([]string, len(r.Horizons))
	for i, h := range r.Horizons {
		labels[i] = h.Label()
	}
	return labels
}

// GetForecast aggregates records into monthly summaries and computes every
// configured horizon. Horizons run concurrently and are returned in the
// configured order; a duplicated horizon is computed once.
func GetForecast(ctx context.Context, logger *zap.Logger, conf config.Configuration, records []sales.Transaction) (*Report, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	monthly, err := sales.Aggregate(records)
	if err != nil {
		return nil, err
	}

	settings, err := newSettings(conf, monthly)
	if err != nil {
		return nil, err
	}

	logger.Debug("aggregated monthly summaries",
		zap.String("op", "forecast.GetForecast"),
		zap.Int("months", len(monthly)),
		zap.String("span", settings.span),
		zap.Int("anchorMonth", settings.anchor),
		zap.String("startDate", settings.startDate),
	)

	horizons := uniqueHorizons(conf.Forecast.Horizons)
	results := make([]Horizon, len(horizons))

	g, ctx := errgroup.WithContext(ctx)
	for i, months := range horizons {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			h, err := buildHorizon(logger, settings, monthly, records, months)
			if err != nil {
				return fmt.Errorf("%s: %w", Label(months), err)
			}
			results[i] = h
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	report := &Report{Horizons: results, Monthly: monthly}
	if len(horizons) < len(conf.Forecast.Horizons) {
		report.Warnings = append(report.Warnings, "duplicate horizons were computed once")
	}
	return report, nil
}

type settings struct {
	span           string
	startDate      string
	anchor         int
	observedMonths int
	table          predict.SeasonalTable
	agentGrowth    float64
	topAgents      int
	programRules   predict.GrowthRules
}

func newSettings(conf config.Configuration, monthly []sales.MonthlySummary) (settings, error) {
	table, err := conf.SeasonalTable()
	if err != nil {
		return settings{}, err
	}

	s := settings{
		span:           NoData,
		startDate:      conf.Forecast.StartDate,
		anchor:         conf.Forecast.AnchorMonth,
		observedMonths: len(monthly),
		table:          table,
		agentGrowth:    conf.Forecast.AgentGrowth,
		topAgents:      conf.Forecast.TopAgents,
		programRules:   conf.ProgramGrowthRules(),
	}
	if s.observedMonths == 0 {
		s.observedMonths = conf.Forecast.DefaultObservedMonths
	}

	first, last, ok := sales.Span(monthly)
	if ok {
		s.span = fmt.Sprintf("%s to %s", first, last)
	}

	if conf.DeriveAnchor() || conf.DeriveStartDate() {
		next := constants.DefaultAnchorMonth
		start, _ := time.Parse(constants.DayLayout, constants.DefaultForecastStartDate)
		if ok {
			next, start, err = datetime.NextMonthAfter(last)
			if err != nil {
				return settings{}, fmt.Errorf("deriving forecast start from %s: %w", last, err)
			}
		}
		if conf.DeriveAnchor() {
			s.anchor = next
		}
		if conf.DeriveStartDate() {
			s.startDate = start.Format(constants.DayLayout)
		}
	}
	return s, nil
}

func uniqueHorizons(horizons []int) []int {
	seen := make(map[int]bool, len(horizons))
	out := make([]int, 0, len(horizons))
	for _, h := range horizons {
		if seen[h] {
			continue
		}
		seen[h] = true
		out = append(out, h)
	}
	return out
}

func buildHorizon(logger *zap.Logger, s settings, monthly []sales.MonthlySummary, records []sales.Transaction, months int) (Horizon, error) {
	revenue, err := strategies(logger, s, monthly, sales.MetricTotalRevenue, months)
	if err != nil {
		return Horizon{}, err
	}
	deals, err := strategies(logger, s, monthly, sales.MetricTotalDeals, months)
	if err != nil {
		return Horizon{}, err
	}

	agents, err := predict.Agents(records, s.observedMonths, months, s.agentGrowth, s.topAgents)
	if err != nil {
		return Horizon{}, err
	}
	programs, err := predict.Programs(records, s.observedMonths, months, s.programRules)
	if err != nil {
		return Horizon{}, err
	}

	return Horizon{
		Revenue:             revenue,
		Deals:               deals,
		Agents:              agents,
		Programs:            programs,
		PredictionPeriod:    months,
		BaseDataPeriod:      s.span,
		PredictionStartDate: s.startDate,
	}, nil
}

func strategies(logger *zap.Logger, s settings, monthly []sales.MonthlySummary, metric sales.Metric, months int) (Strategies, error) {
	var out Strategies
	var err error

	out.Linear, err = optional(logger, predict.ModelLinear, metric, months)(predict.Linear(monthly, metric, months))
	if err != nil {
		return out, err
	}
	out.Polynomial, err = optional(logger, predict.ModelPolynomial, metric, months)(predict.Polynomial(monthly, metric, months))
	if err != nil {
		return out, err
	}
	out.Seasonal, err = optional(logger, predict.ModelSeasonal, metric, months)(predict.Seasonal(monthly, metric, months, s.table, s.anchor))
	if err != nil {
		return out, err
	}
	return out, nil
}

// optional turns a short-history or non-finite failure into a nil result.
func optional(logger *zap.Logger, model string, metric sales.Metric, months int) func(*predict.Result, error) (*predict.Result, error) {
	return func(r *predict.Result, err error) (*predict.Result, error) {
		if errors.Is(err, sales.ErrInsufficientHistory) || errors.Is(err, sales.ErrNonFiniteSeries) {
			logger.Debug("forecast unavailable",
				zap.String("op", "forecast.GetForecast"),
				zap.String("model", model),
				zap.String("metric", string(metric)),
				zap.Int("horizon", months),
				zap.Error(err),
			)
			return nil, nil
		}
		return r, err
	}
}

// Gap names a trend forecast that could not be fitted.
type Gap struct {
	Horizon string
	Metric  sales.Metric
	Model   string
}

// Gaps lists every unavailable trend forecast in the report.
func (r *Report) Gaps() []Gap {
	var gaps []Gap
	for _, h := range r.Horizons {
		for _, s := range []struct {
			metric sales.Metric
			set    Strategies
		}{
			{sales.MetricTotalRevenue, h.Revenue},
			{sales.MetricTotalDeals, h.Deals},
		} {
			if s.set.Linear == nil {
				gaps = append(gaps, Gap{h.Label(), s.metric, predict.ModelLinear})
			}
			if s.set.Polynomial == nil {
				gaps = append(gaps, Gap{h.Label(), s.metric, predict.ModelPolynomial})
			}
			if s.set.Seasonal == nil {
				gaps = append(gaps, Gap{h.Label(), s.metric, predict.ModelSeasonal})
			}
		}
	}
	return gaps
}
