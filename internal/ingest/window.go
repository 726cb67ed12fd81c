package ingest

import (
	"fmt"
	"time"

	"github.com/iwvelando/sales-forecast/internal/sales"
	"github.com/iwvelando/sales-forecast/pkg/datetime"
	"go.uber.org/zap"
)

// Window is an inclusive range of calendar days.
type Window struct {
	Start time.Time
	End   time.Time
}

// Contains reports whether t falls on a day inside the window.
func (w Window) Contains(t time.Time) bool {
	return datetime.WithinDays(t, w.Start, w.End)
}

func (w Window) String() string {
	return fmt.Sprintf("%s to %s", w.Start.Format(datetime.DayLayout), w.End.Format(datetime.DayLayout))
}

// Filtered is the outcome of applying a window. Widened is set when the window
// matched nothing and the full dataset was used instead.
type Filtered struct {
	Records  []sales.Transaction
	Widened  bool
	Warnings []string
}

// ApplyWindow keeps the records inside w. A nil window keeps everything. When
// nothing matches, all records are returned and the fallback is reported.
func ApplyWindow(logger *zap.Logger, records []sales.Transaction, w *Window) Filtered {
	if logger == nil {
		logger = zap.NewNop()
	}
	if w == nil {
		return Filtered{Records: records}
	}

	kept := make([]sales.Transaction, 0, len(records))
	for _, tx := range records {
		if w.Contains(tx.SignupDate) {
			kept = append(kept, tx)
		}
	}

	if len(kept) > 0 {
		logger.Info("applied date window",
			zap.String("op", "ingest.ApplyWindow"),
			zap.String("window", w.String()),
			zap.Int("kept", len(kept)),
			zap.Int("total", len(records)),
		)
		return Filtered{Records: kept}
	}

	warning := fmt.Sprintf("no records between %s; using all %d records", w, len(records))
	if first, last, ok := dateRange(records); ok {
		warning = fmt.Sprintf("%s (data spans %s to %s)", warning,
			first.Format(datetime.DayLayout), last.Format(datetime.DayLayout))
	}
	logger.Warn(warning,
		zap.String("op", "ingest.ApplyWindow"),
	)
	return Filtered{Records: records, Widened: true, Warnings: []string{warning}}
}

func dateRange(records []sales.Transaction) (time.Time, time.Time, bool) {
	if len(records) == 0 {
		return time.Time{}, time.Time{}, false
	}
	first, last := records[0].SignupDate, records[0].SignupDate
	for _, tx := range records[1:] {
		if tx.SignupDate.Before(first) {
			first = tx.SignupDate
		}
		if tx.SignupDate.After(last) {
			last = tx.SignupDate
		}
	}
	return first, last, true
}
