// Package metrics holds brew-signal's Prometheus registry, grounded on
// the upstream scanner's MetricsRegistry: one struct of named
// collectors constructed once at process start and registered with a
// dedicated prometheus.Registry rather than the global default, so
// tests can build throwaway registries without collisions.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Registry holds every brew-signal Prometheus collector.
type Registry struct {
	CollectorRunsTotal   *prometheus.CounterVec
	CollectorFetchSecs   *prometheus.HistogramVec
	BreakerState         *prometheus.GaugeVec
	HTTPRequestDuration   *prometheus.HistogramVec
	HTTPRequestsTotal     *prometheus.CounterVec
	ConfidenceScore       *prometheus.GaugeVec
	OpportunityScore      *prometheus.GaugeVec

	registry *prometheus.Registry
}

// NewRegistry constructs and registers every collector on a fresh
// prometheus.Registry.
func NewRegistry() *Registry {
	reg := prometheus.NewRegistry()

	m := &Registry{
		registry: reg,
		CollectorRunsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "brewsignal_collector_runs_total",
				Help: "Total alias-fetch attempts by source and outcome",
			},
			[]string{"source", "outcome"},
		),
		CollectorFetchSecs: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "brewsignal_collector_fetch_seconds",
				Help:    "Duration of a single alias fetch, including retries",
				Buckets: []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60},
			},
			[]string{"source"},
		),
		BreakerState: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "brewsignal_breaker_open",
				Help: "1 if the source's circuit breaker is currently open, else 0",
			},
			[]string{"source"},
		),
		HTTPRequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "brewsignal_http_request_duration_seconds",
				Help:    "HTTP API request latency",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "route", "status"},
		),
		HTTPRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "brewsignal_http_requests_total",
				Help: "Total HTTP API requests",
			},
			[]string{"method", "route", "status"},
		),
		ConfidenceScore: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "brewsignal_confidence_score",
				Help: "Most recently computed confidence_score per IP",
			},
			[]string{"ip_id"},
		),
		OpportunityScore: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "brewsignal_opportunity_score",
				Help: "Most recently computed opportunity score per IP",
			},
			[]string{"ip_id"},
		),
	}

	reg.MustRegister(
		m.CollectorRunsTotal,
		m.CollectorFetchSecs,
		m.BreakerState,
		m.HTTPRequestDuration,
		m.HTTPRequestsTotal,
		m.ConfidenceScore,
		m.OpportunityScore,
	)
	return m
}

// Handler returns the Prometheus scrape handler for this registry.
func (m *Registry) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
