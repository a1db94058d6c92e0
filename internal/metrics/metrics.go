// Package metrics provides Prometheus metrics for the contributions service.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics for the service.
type Metrics struct {
	FetchesTotal    *prometheus.CounterVec
	YearsDropped    *prometheus.CounterVec
	ParseErrors     *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec
	CacheHits       *prometheus.CounterVec
	WeeksScraped    prometheus.Histogram

	registry *prometheus.Registry
}

// New creates and registers all metrics on a private registry.
func New() *Metrics {
	reg := prometheus.NewRegistry()

	m := &Metrics{
		FetchesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "tune_upstream_fetches_total",
				Help: "Upstream contribution-page fetches by role and outcome.",
			},
			[]string{"role", "outcome"},
		),
		YearsDropped: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "tune_years_dropped_total",
				Help: "Historical years excluded from a result by reason.",
			},
			[]string{"reason"},
		),
		ParseErrors: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "tune_parse_errors_total",
				Help: "Calendar parse failures by kind.",
			},
			[]string{"kind"},
		),
		RequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "tune_request_duration_seconds",
				Help:    "Contributions request duration by status.",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"status"},
		),
		CacheHits: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "tune_cache_requests_total",
				Help: "Response cache lookups by result.",
			},
			[]string{"result"},
		),
		WeeksScraped: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "tune_weeks_per_year",
				Help:    "Weeks parsed per successfully scraped year.",
				Buckets: []float64{10, 20, 30, 40, 50, 53, 54},
			},
		),
		registry: reg,
	}

	reg.MustRegister(m.FetchesTotal)
	reg.MustRegister(m.YearsDropped)
	reg.MustRegister(m.ParseErrors)
	reg.MustRegister(m.RequestDuration)
	reg.MustRegister(m.CacheHits)
	reg.MustRegister(m.WeeksScraped)

	return m
}

// Handler returns an http.Handler for the /metrics endpoint.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// RecordFetch increments the upstream fetch counter.
func (m *Metrics) RecordFetch(role, outcome string) {
	m.FetchesTotal.WithLabelValues(role, outcome).Inc()
}

// RecordYearDropped increments the dropped-year counter.
func (m *Metrics) RecordYearDropped(reason string) {
	m.YearsDropped.WithLabelValues(reason).Inc()
}

// RecordParseError increments the parse failure counter.
func (m *Metrics) RecordParseError(kind string) {
	m.ParseErrors.WithLabelValues(kind).Inc()
}

// RecordCache increments the cache lookup counter with "hit" or "miss".
func (m *Metrics) RecordCache(result string) {
	m.CacheHits.WithLabelValues(result).Inc()
}
