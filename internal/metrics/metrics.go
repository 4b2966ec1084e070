package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Outcome labels for listing and seeding.
const (
	OutcomeOK    = "ok"
	OutcomeError = "error"
)

// Metrics holds the Prometheus collectors for the application.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	// HTTP requests by method, matched route and status
	HTTPRequests *prometheus.CounterVec
	HTTPDuration *prometheus.HistogramVec

	// Listing queries by outcome, and result sizes
	ListQueries  *prometheus.CounterVec
	ListRows     prometheus.Histogram
	ListDuration prometheus.Histogram

	SeedRuns *prometheus.CounterVec
}

// New creates and registers all collectors with reg.
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		HTTPRequests: f.NewCounterVec(prometheus.CounterOpts{
			Name: "advocates_http_requests_total",
			Help: "Total HTTP requests by method, route and status",
		}, []string{"method", "route", "status"}),

		HTTPDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "advocates_http_request_duration_seconds",
			Help:    "HTTP request latency by method and route",
			Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
		}, []string{"method", "route"}),

		ListQueries: f.NewCounterVec(prometheus.CounterOpts{
			Name: "advocates_list_total",
			Help: "Advocate listing queries by outcome",
		}, []string{"outcome"}),

		ListRows: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "advocates_list_rows",
			Help:    "Rows returned per advocate listing query",
			Buckets: []float64{0, 1, 5, 10, 25, 50, 100, 250, 500},
		}),

		ListDuration: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "advocates_list_duration_seconds",
			Help:    "Storage latency of advocate listing queries",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		}),

		SeedRuns: f.NewCounterVec(prometheus.CounterOpts{
			Name: "advocates_seed_total",
			Help: "Seed runs by outcome",
		}, []string{"outcome"}),
	}
}

// ObserveHTTP records one served request.
func (m *Metrics) ObserveHTTP(method, route string, status int, d time.Duration) {
	if m == nil {
		return
	}
	if route == "" {
		route = "unmatched"
	}
	m.HTTPRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	m.HTTPDuration.WithLabelValues(method, route).Observe(d.Seconds())
}

// ObserveList records a listing query. rows is ignored on error.
func (m *Metrics) ObserveList(rows int, d time.Duration, err error) {
	if m == nil {
		return
	}
	m.ListDuration.Observe(d.Seconds())
	if err != nil {
		m.ListQueries.WithLabelValues(OutcomeError).Inc()
		return
	}
	m.ListQueries.WithLabelValues(OutcomeOK).Inc()
	m.ListRows.Observe(float64(rows))
}

// IncrementSeed records a seed run.
func (m *Metrics) IncrementSeed(err error) {
	if m == nil {
		return
	}
	if err != nil {
		m.SeedRuns.WithLabelValues(OutcomeError).Inc()
		return
	}
	m.SeedRuns.WithLabelValues(OutcomeOK).Inc()
}
