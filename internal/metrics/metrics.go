// Package metrics exposes Prometheus metrics for the forecast service.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "sales_forecast"

// Run outcomes recorded by ObserveRun.
const (
	OutcomeSuccess = "success"
	OutcomeError   = "error"
)

// Collector holds HTTP request metrics and forecast run metrics on a private
// registry.
type Collector struct {
	registry        *prometheus.Registry
	requestDuration *prometheus.HistogramVec
	requestTotal    *prometheus.CounterVec
	runTotal        *prometheus.CounterVec
	runDuration     prometheus.Histogram
	recordsTotal    prometheus.Counter
	droppedTotal    prometheus.Counter
	unavailable     *prometheus.CounterVec
}

// NewCollector constructs a collector with default histograms/counters.
func NewCollector() (*Collector, error) {
	c := &Collector{
		registry: prometheus.NewRegistry(),
		requestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "Latency distribution for inbound HTTP requests.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "path", "status"}),
		requestTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total number of inbound HTTP requests.",
		}, []string{"method", "path", "status"}),
		runTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "run",
			Name:      "total",
			Help:      "Forecast runs by outcome.",
		}, []string{"outcome"}),
		runDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "run",
			Name:      "duration_seconds",
			Help:      "Time spent computing a forecast report.",
			Buckets:   prometheus.DefBuckets,
		}),
		recordsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "ingest",
			Name:      "records_total",
			Help:      "Transactions accepted from uploaded input.",
		}),
		droppedTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "ingest",
			Name:      "dropped_rows_total",
			Help:      "Input rows dropped as malformed or for unparseable dates or amounts.",
		}),
		unavailable: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "run",
			Name:      "unavailable_forecasts_total",
			Help:      "Trend forecasts skipped for lack of monthly history.",
		}, []string{"metric", "model"}),
	}

	for _, collector := range []prometheus.Collector{
		c.requestDuration, c.requestTotal, c.runTotal, c.runDuration,
		c.recordsTotal, c.droppedTotal, c.unavailable,
	} {
		if err := c.registry.Register(collector); err != nil {
			return nil, err
		}
	}
	return c, nil
}

// Registry returns the registry backing the collector.
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}

// Handler returns an HTTP handler for exposing Prometheus metrics.
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}

// ObserveIngest counts accepted and dropped input rows.
func (c *Collector) ObserveIngest(records, dropped int) {
	c.recordsTotal.Add(float64(records))
	c.droppedTotal.Add(float64(dropped))
}

// ObserveRun records the outcome and duration of one forecast run.
func (c *Collector) ObserveRun(outcome string, elapsed time.Duration) {
	c.runTotal.WithLabelValues(outcome).Inc()
	c.runDuration.Observe(elapsed.Seconds())
}

// ObserveUnavailable counts a trend forecast that could not be fitted.
func (c *Collector) ObserveUnavailable(metric, model string) {
	c.unavailable.WithLabelValues(metric, model).Inc()
}

// OtherRoute labels requests for paths outside the instrumented route set.
const OtherRoute = "other"

// InstrumentHandler wraps the provided handler to record HTTP metrics. Only the
// given routes are used as path labels; every other path is recorded as
// OtherRoute so arbitrary URLs cannot grow the label set.
func (c *Collector) InstrumentHandler(next http.Handler, routes ...string) http.Handler {
	known := make(map[string]struct{}, len(routes))
	for _, route := range routes {
		known[route] = struct{}{}
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		rw := &responseWriter{ResponseWriter: w, status: http.StatusOK}

		next.ServeHTTP(rw, r)

		duration := time.Since(start).Seconds()
		status := strconv.Itoa(rw.status)
		path := OtherRoute
		if _, ok := known[r.URL.Path]; ok {
			path = r.URL.Path
		}

		c.requestTotal.WithLabelValues(r.Method, path, status).Inc()
		c.requestDuration.WithLabelValues(r.Method, path, status).Observe(duration)
	})
}

type responseWriter struct {
	http.ResponseWriter
	status int
}

func (w *responseWriter) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}
