package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/iwvelando/sales-forecast/internal/config"
	"github.com/iwvelando/sales-forecast/internal/forecast"
	"github.com/iwvelando/sales-forecast/internal/ingest"
	"github.com/iwvelando/sales-forecast/internal/metrics"
	"github.com/iwvelando/sales-forecast/internal/sales"
	"github.com/iwvelando/sales-forecast/pkg/constants"
	"github.com/iwvelando/sales-forecast/pkg/output"
	"github.com/iwvelando/sales-forecast/pkg/validation"
	"go.uber.org/zap"
)

// RunIDHeader carries the identifier of a forecast run in responses.
const RunIDHeader = "X-Run-ID"

// Options configures the HTTP handler.
type Options struct {
	// Forecast is the configuration applied to every upload. Defaults are
	// used when nil.
	Forecast      *config.Configuration
	MaxUploadSize int64
	Version       string
	// Metrics is optional; when set, requests are instrumented and /metrics
	// is served.
	Metrics *metrics.Collector
	// Sink is optional; when set, each report is persisted under SinkName.
	Sink     output.Sink
	SinkName string
}

type handler struct {
	logger        *zap.Logger
	forecast      config.Configuration
	maxUploadSize int64
	version       string
	metrics       *metrics.Collector
	sink          output.Sink
	sinkName      string
}

// NewHandler constructs the HTTP handler that serves the forecast API.
func NewHandler(logger *zap.Logger, opts Options) http.Handler {
	if logger == nil {
		logger = zap.NewNop()
	}

	maxUploadSize := opts.MaxUploadSize
	if maxUploadSize <= 0 {
		maxUploadSize = constants.DefaultMaxUploadSizeBytes
	}

	trimmedVersion := strings.TrimSpace(opts.Version)
	if trimmedVersion == "" {
		trimmedVersion = "dev"
	}

	conf := opts.Forecast
	if conf == nil {
		conf = config.DefaultConfiguration()
	}

	h := &handler{
		logger:        logger,
		forecast:      *conf,
		maxUploadSize: maxUploadSize,
		version:       trimmedVersion,
		metrics:       opts.Metrics,
		sink:          opts.Sink,
		sinkName:      opts.SinkName,
	}

	mux := http.NewServeMux()

	// Forecast API endpoint (CSV upload)
	mux.HandleFunc("/api/forecast", h.handleForecast)

	// Version endpoint for client metadata
	mux.HandleFunc("/api/version", h.handleVersion)

	mux.HandleFunc("/healthz", h.handleHealth)

	if h.metrics != nil {
		mux.Handle("/metrics", h.metrics.Handler())
		return h.metrics.InstrumentHandler(mux, "/api/forecast", "/api/version", "/healthz", "/metrics")
	}
	return mux
}

type forecastResponse struct {
	RunID    string                 `json:"runId"`
	Horizons []string               `json:"horizons"`
	Report   *forecast.Report       `json:"report"`
	Monthly  []sales.MonthlySummary `json:"monthly"`
	Records  int                    `json:"records"`
	Dropped  int                    `json:"dropped"`
	Warnings []string               `json:"warnings,omitempty"`
	Stored   bool                   `json:"stored"`
	Duration string                 `json:"duration"`
}

func (h *handler) handleForecast(w http.ResponseWriter, r *http.Request) {
	const op = "server.handleForecast"
	if r.Method != http.MethodPost {
		http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
		return
	}

	start := time.Now()
	runID := uuid.New()
	w.Header().Set(RunIDHeader, runID.String())

	if h.maxUploadSize > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadSize)
	}
	if err := r.ParseMultipartForm(h.maxUploadSize); err != nil {
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			h.respondError(w, http.StatusRequestEntityTooLarge,
				fmt.Sprintf("upload exceeds limit of %d bytes", h.maxUploadSize))
			return
		}
		h.respondError(w, http.StatusBadRequest, fmt.Sprintf("failed to parse upload: %v", err))
		return
	}

	conf := h.forecast
	if raw := strings.TrimSpace(r.FormValue("horizons")); raw != "" {
		horizons, err := parseHorizons(raw)
		if err != nil {
			h.respondError(w, http.StatusBadRequest, err.Error())
			return
		}
		conf.Forecast.Horizons = horizons
	}
	warnings, err := validation.ValidateHorizons(conf.Forecast.Horizons)
	if err != nil {
		h.respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		h.respondError(w, http.StatusBadRequest, "missing sales data file")
		return
	}
	defer func() {
		if closeErr := file.Close(); closeErr != nil {
			h.logger.Warn("failed to close uploaded file",
				zap.String("op", op),
				zap.Error(closeErr),
			)
		}
	}()

	loaded, err := ingest.NewCSVSource(h.logger).Parse(header.Filename, file)
	if err != nil {
		h.observeRun(metrics.OutcomeError, start)
		h.respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	if h.metrics != nil {
		h.metrics.ObserveIngest(len(loaded.Records), loaded.Dropped)
	}

	report, err := forecast.Run(r.Context(), h.logger, conf, loaded)
	if err != nil {
		h.observeRun(metrics.OutcomeError, start)
		status := http.StatusInternalServerError
		var dataErr *sales.DataError
		if errors.As(err, &dataErr) {
			status = http.StatusUnprocessableEntity
		}
		h.respondError(w, status, fmt.Sprintf("failed to compute forecast: %v", err))
		return
	}
	if h.metrics != nil {
		for _, gap := range report.Gaps() {
			h.metrics.ObserveUnavailable(string(gap.Metric), gap.Model)
		}
	}

	stored := false
	if h.sink != nil {
		if err := h.sink.Write(r.Context(), report, h.sinkName); err != nil {
			h.logger.Error("failed to store forecast report",
				zap.String("op", op),
				zap.String("runId", runID.String()),
				zap.Error(err),
			)
			warnings = append(warnings, "report was not stored")
		} else {
			stored = true
		}
	}

	h.observeRun(metrics.OutcomeSuccess, start)
	elapsed := time.Since(start)

	response := forecastResponse{
		RunID:    runID.String(),
		Horizons: report.Labels(),
		Report:   report,
		Monthly:  report.Monthly,
		Records:  len(loaded.Records),
		Dropped:  loaded.Dropped,
		Warnings: append(report.Warnings, warnings...),
		Stored:   stored,
		Duration: elapsed.String(),
	}

	h.logger.Info("forecast computed",
		zap.String("op", op),
		zap.String("runId", runID.String()),
		zap.Strings("horizons", response.Horizons),
		zap.Int("records", response.Records),
		zap.Duration("duration", elapsed),
	)

	h.writeJSON(w, http.StatusOK, response)
}

func (h *handler) handleVersion(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]string{
		"version": h.version,
	})
}

func (h *handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *handler) observeRun(outcome string, start time.Time) {
	if h.metrics != nil {
		h.metrics.ObserveRun(outcome, time.Since(start))
	}
}

// parseHorizons reads a comma-separated list of month counts, e.g. "3,6,12".
func parseHorizons(raw string) ([]int, error) {
	parts := strings.Split(raw, ",")
	horizons := make([]int, 0, len(parts))
	for _, part := range parts {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		n, err := strconv.Atoi(part)
		if err != nil {
			return nil, fmt.Errorf("invalid horizon %q", part)
		}
		horizons = append(horizons, n)
	}
	return horizons, nil
}

func (h *handler) respondError(w http.ResponseWriter, status int, msg string) {
	h.logger.Error("forecast request failed",
		zap.String("op", "server.handleForecast"),
		zap.Int("status", status),
		zap.String("error", msg),
	)

	h.writeJSON(w, status, map[string]string{"error": msg})
}

func (h *handler) writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		h.logger.Error("failed to write JSON response", zap.Error(err))
	}
}
