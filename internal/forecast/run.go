package forecast

import (
	"context"

	"github.com/iwvelando/sales-forecast/internal/config"
	"github.com/iwvelando/sales-forecast/internal/ingest"
	"go.uber.org/zap"
)

// Run applies the configured date window to loaded input and computes the
// report. Ingest and window warnings are carried into the report.
func Run(ctx context.Context, logger *zap.Logger, conf config.Configuration, loaded ingest.Result) (*Report, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	window, err := conf.DateWindow()
	if err != nil {
		return nil, err
	}
	filtered := ingest.ApplyWindow(logger, loaded.Records, window)

	report, err := GetForecast(ctx, logger, conf, filtered.Records)
	if err != nil {
		return nil, err
	}

	warnings := make([]string, 0, len(loaded.Warnings)+len(filtered.Warnings)+len(report.Warnings))
	warnings = append(warnings, loaded.Warnings...)
	warnings = append(warnings, filtered.Warnings...)
	report.Warnings = append(warnings, report.Warnings...)

	logger.Info("forecast computed",
		zap.String("op", "forecast.Run"),
		zap.Int("records", len(filtered.Records)),
		zap.Int("months", len(report.Monthly)),
		zap.Strings("horizons", report.Labels()),
		zap.Int("unavailable", len(report.Gaps())),
	)
	return report, nil
}
