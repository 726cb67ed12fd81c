// Package output provides utilities for formatting and displaying forecast results.
package output

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/iwvelando/sales-forecast/internal/forecast"
	"github.com/iwvelando/sales-forecast/pkg/constants"
	"github.com/iwvelando/sales-forecast/pkg/datetime"
	"github.com/iwvelando/sales-forecast/pkg/format"
	"github.com/iwvelando/sales-forecast/pkg/predict"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// Write renders report to w in the named format.
func Write(w io.Writer, report *forecast.Report, outputFormat string) error {
	switch outputFormat {
	case constants.OutputFormatPretty, "":
		return PrettyFormat(w, report)
	case constants.OutputFormatCSV:
		return CsvFormat(w, report)
	case constants.OutputFormatJSON:
		return JSONFormat(w, report)
	default:
		return fmt.Errorf("unknown output format %q", outputFormat)
	}
}

// PrettyFormat outputs a human-readable summary of each horizon.
func PrettyFormat(w io.Writer, report *forecast.Report) error {
	p := message.NewPrinter(language.English)
	rule := strings.Repeat("=", 60)

	if _, err := fmt.Fprintf(w, "%s\nSALES FORECAST SUMMARY\n%s\n", rule, rule); err != nil {
		return err
	}
	for _, h := range report.Horizons {
		_, _ = fmt.Fprintf(w, "\n--- %s predictions from %s (based on %s) ---\n",
			strings.ToUpper(h.Label()), h.PredictionStartDate, h.BaseDataPeriod)

		if s := h.Revenue.Seasonal; s != nil {
			total := s.Predictions.Sum()
			_, _ = fmt.Fprintf(w, "  Total Predicted Revenue:   %s\n", format.Currency(total))
			_, _ = fmt.Fprintf(w, "  Average Monthly Revenue:   %s\n", format.Currency(s.Predictions.Mean()))
			_, _ = fmt.Fprintf(w, "  Confidence Level:          %s\n", format.Percent(s.Confidence))
		} else {
			_, _ = fmt.Fprintf(w, "  Revenue forecast unavailable (not enough monthly history)\n")
		}

		if s := h.Deals.Seasonal; s != nil {
			_, _ = fmt.Fprintf(w, "  Total Predicted Deals:     %s\n", format.Count(s.Predictions.Sum()))
			_, _ = p.Fprintf(w, "  Average Monthly Deals:     %.1f\n", s.Predictions.Mean())
		}

		if len(h.Agents) > 0 {
			top := h.Agents[0]
			_, _ = fmt.Fprintf(w, "  Top Predicted Agent:       %s\n", top.Name)
			_, _ = fmt.Fprintf(w, "  Agent Predicted Revenue:   %s\n", format.Currency(top.PredictedMonthlyRevenue.Sum()))
		}
		if len(h.Programs) > 0 {
			top := h.Programs[0]
			_, _ = fmt.Fprintf(w, "  Top Predicted Program:     %s\n", top.Name)
			_, _ = fmt.Fprintf(w, "  Program Predicted Revenue: %s\n", format.Currency(top.PredictedMonthlyRevenue.Sum()))
		}
		_, _ = p.Fprintf(w, "  Agents: %d  Programs: %d\n", len(h.Agents), len(h.Programs))
	}
	for _, warning := range report.Warnings {
		_, _ = fmt.Fprintf(w, "\nwarning: %s\n", warning)
	}
	_, err := fmt.Fprintf(w, "\n%s\n", rule)
	return err
}

// CsvFormat outputs one row per predicted month of every forecast series.
func CsvFormat(w io.Writer, report *forecast.Report) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"horizon", "series", "name", "month", "value", "confidence"}); err != nil {
		return err
	}

	for _, h := range report.Horizons {
		months := forecastMonths(h.PredictionStartDate, h.PredictionPeriod)
		trend := func(series string, s forecast.Strategies) error {
			for _, r := range []*predict.Result{s.Linear, s.Polynomial, s.Seasonal} {
				if r == nil {
					continue
				}
				conf := strconv.FormatFloat(r.Confidence, 'f', 4, 64)
				if err := writeSeries(cw, h.Label(), series, r.Model, months, r.Predictions, conf); err != nil {
					return err
				}
			}
			return nil
		}
		if err := trend("revenue", h.Revenue); err != nil {
			return err
		}
		if err := trend("deals", h.Deals); err != nil {
			return err
		}
		for _, peer := range h.Agents {
			if err := writeSeries(cw, h.Label(), "agent_revenue", peer.Name, months, peer.PredictedMonthlyRevenue, ""); err != nil {
				return err
			}
			if err := writeSeries(cw, h.Label(), "agent_deals", peer.Name, months, peer.PredictedMonthlyDeals, ""); err != nil {
				return err
			}
		}
		for _, peer := range h.Programs {
			if err := writeSeries(cw, h.Label(), "program_revenue", peer.Name, months, peer.PredictedMonthlyRevenue, ""); err != nil {
				return err
			}
			if err := writeSeries(cw, h.Label(), "program_deals", peer.Name, months, peer.PredictedMonthlyDeals, ""); err != nil {
				return err
			}
		}
	}

	cw.Flush()
	return cw.Error()
}

func writeSeries(cw *csv.Writer, horizon, series, name string, months []string, values predict.Values, confidence string) error {
	for i, v := range values {
		month := strconv.Itoa(i + 1)
		if i < len(months) {
			month = months[i]
		}
		row := []string{horizon, series, name, month, strconv.FormatFloat(v, 'f', 2, 64), confidence}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	return nil
}

// forecastMonths labels n months starting at the month of start. It returns
// nil when start is not a date.
func forecastMonths(start string, n int) []string {
	t, err := time.Parse(constants.DayLayout, start)
	if err != nil {
		return nil
	}
	months := make([]string, n)
	for i := range months {
		months[i] = datetime.MonthStart(t).AddDate(0, i, 0).Format(constants.DateTimeLayout)
	}
	return months
}

// JSONFormat outputs the full report document.
func JSONFormat(w io.Writer, report *forecast.Report) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(report)
}
