package output

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"os"
	"path/filepath"

	"github.com/iwvelando/sales-forecast/internal/forecast"
	"github.com/iwvelando/sales-forecast/internal/sales"
	"go.uber.org/zap"
)

// Sink persists a report to a destination such as a file path or table.
type Sink interface {
	Write(ctx context.Context, report *forecast.Report, destination string) error
}

// FileSink writes the report as an indented JSON document.
type FileSink struct {
	Logger *zap.Logger
}

// NewFileSink returns a FileSink that logs to logger.
func NewFileSink(logger *zap.Logger) *FileSink {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &FileSink{Logger: logger}
}

// Write encodes report to destination, replacing any existing file. Parent
// directories are created as needed.
func (s *FileSink) Write(ctx context.Context, report *forecast.Report, destination string) error {
	if err := ctx.Err(); err != nil {
		return &sales.PersistenceError{Destination: destination, Err: err}
	}

	var buf bytes.Buffer
	if err := JSONFormat(&buf, report); err != nil {
		return &sales.PersistenceError{Destination: destination, Err: err}
	}

	if dir := filepath.Dir(destination); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return &sales.PersistenceError{Destination: destination, Err: err}
		}
	}
	if err := os.WriteFile(destination, buf.Bytes(), 0o644); err != nil {
		return &sales.PersistenceError{Destination: destination, Err: err}
	}

	if s.Logger != nil {
		s.Logger.Info("wrote forecast report",
			zap.String("op", "output.FileSink.Write"),
			zap.String("destination", destination),
			zap.Strings("horizons", report.Labels()),
			zap.Int("bytes", buf.Len()),
		)
	}
	return nil
}

// Decode reads a report document produced by JSONFormat.
func Decode(r io.Reader) (*forecast.Report, error) {
	var report forecast.Report
	if err := json.NewDecoder(r).Decode(&report); err != nil {
		return nil, err
	}
	return &report, nil
}

// ReadFile decodes the report document at path.
func ReadFile(path string) (*forecast.Report, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = f.Close()
	}()
	return Decode(f)
}
