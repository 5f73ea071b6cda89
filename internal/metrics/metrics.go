// Package metrics provides Prometheus metrics for the departure board.
package metrics

import (
	"log/slog"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics for the application.
type Metrics struct {
	// Registry is the Prometheus registry for this metrics instance
	Registry *prometheus.Registry

	// HTTP metrics
	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec
	RateLimitedTotal    prometheus.Counter

	// Upstream departure board metrics
	UpstreamRequestsTotal   *prometheus.CounterVec
	UpstreamRequestDuration prometheus.Histogram
	UpstreamResponseBytes   prometheus.Histogram

	// Normalization metrics
	DeparturesReturned       prometheus.Histogram
	NormalizationErrorsTotal *prometheus.CounterVec

	// logger for error reporting
	logger *slog.Logger
}

// New creates and registers all application metrics with a new registry.
func New() *Metrics {
	return NewWithLogger(nil)
}

// NewWithLogger creates metrics with a logger for error reporting.
func NewWithLogger(logger *slog.Logger) *Metrics {
	registry := prometheus.NewRegistry()

	httpRequestsTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "nerad_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	httpRequestDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "nerad_http_request_duration_seconds",
			Help:    "HTTP request latency distribution",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	rateLimitedTotal := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "nerad_http_rate_limited_total",
		Help: "Requests rejected by the rate limiter",
	})

	upstreamRequestsTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "nerad_upstream_requests_total",
			Help: "Departure board requests by outcome",
		},
		[]string{"status"},
	)

	upstreamRequestDuration := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "nerad_upstream_request_duration_seconds",
		Help:    "Departure board request latency distribution",
		Buckets: prometheus.DefBuckets,
	})

	upstreamResponseBytes := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "nerad_upstream_response_bytes",
		Help:    "Size of departure board response bodies",
		Buckets: prometheus.ExponentialBuckets(1024, 4, 8),
	})

	departuresReturned := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "nerad_departures_returned",
		Help:    "Number of departures per normalized response",
		Buckets: []float64{0, 1, 5, 10, 25, 50, 100, 250, 500, 1000},
	})

	normalizationErrorsTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "nerad_normalization_errors_total",
			Help: "Departure board responses rejected during normalization",
		},
		[]string{"kind"},
	)

	registry.MustRegister(
		httpRequestsTotal,
		httpRequestDuration,
		rateLimitedTotal,
		upstreamRequestsTotal,
		upstreamRequestDuration,
		upstreamResponseBytes,
		departuresReturned,
		normalizationErrorsTotal,
	)

	return &Metrics{
		Registry:                 registry,
		HTTPRequestsTotal:        httpRequestsTotal,
		HTTPRequestDuration:      httpRequestDuration,
		RateLimitedTotal:         rateLimitedTotal,
		UpstreamRequestsTotal:    upstreamRequestsTotal,
		UpstreamRequestDuration:  upstreamRequestDuration,
		UpstreamResponseBytes:    upstreamResponseBytes,
		DeparturesReturned:       departuresReturned,
		NormalizationErrorsTotal: normalizationErrorsTotal,
		logger:                   logger,
	}
}

// Handler exposes the registry in the Prometheus text format. Gathering
// errors are logged when a logger was supplied.
func (m *Metrics) Handler() http.Handler {
	opts := promhttp.HandlerOpts{}
	if m.logger != nil {
		opts.ErrorLog = slog.NewLogLogger(m.logger.Handler(), slog.LevelError)
	}
	return promhttp.HandlerFor(m.Registry, opts)
}
