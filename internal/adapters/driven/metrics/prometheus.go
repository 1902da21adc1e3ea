// Package metrics exports pipeline counters through Prometheus.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/custodia-labs/affinity-cli/internal/core/domain"
	"github.com/custodia-labs/affinity-cli/internal/core/ports/driven"
)

// Ensure Prometheus implements the interface.
var _ driven.Metrics = (*Prometheus)(nil)

// Prometheus records pipeline metrics on a private registry.
type Prometheus struct {
	registry *prometheus.Registry

	consolidationTotal    *prometheus.CounterVec
	consolidationDuration *prometheus.HistogramVec
	consolidationSessions *prometheus.HistogramVec
	cacheLookups          *prometheus.CounterVec
	exportTotal           *prometheus.CounterVec
	reviewRouted          *prometheus.CounterVec
}

// NewPrometheus creates the collectors and registers them.
func NewPrometheus() *Prometheus {
	registry := prometheus.NewRegistry()

	consolidationTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "affinity",
			Subsystem: "consolidation",
			Name:      "runs_total",
			Help:      "Total consolidation runs by strategy and status.",
		},
		[]string{"strategy", "status"},
	)
	consolidationDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "affinity",
			Subsystem: "consolidation",
			Name:      "duration_seconds",
			Help:      "Consolidation duration in seconds.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"strategy"},
	)
	consolidationSessions := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "affinity",
			Subsystem: "consolidation",
			Name:      "sessions",
			Help:      "Sessions considered per consolidation.",
			Buckets:   []float64{1, 2, 3, 5, 10, 20, 50},
		},
		[]string{"strategy"},
	)
	cacheLookups := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "affinity",
			Subsystem: "cache",
			Name:      "lookups_total",
			Help:      "Cache lookups by store and hit.",
		},
		[]string{"store", "hit"},
	)
	exportTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "affinity",
			Subsystem: "export",
			Name:      "runs_total",
			Help:      "Export attempts by format and outcome.",
		},
		[]string{"format", "outcome"},
	)
	reviewRouted := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "affinity",
			Subsystem: "qa",
			Name:      "submissions_total",
			Help:      "Review submissions by routing action.",
		},
		[]string{"action"},
	)

	registry.MustRegister(
		consolidationTotal,
		consolidationDuration,
		consolidationSessions,
		cacheLookups,
		exportTotal,
		reviewRouted,
	)

	return &Prometheus{
		registry:              registry,
		consolidationTotal:    consolidationTotal,
		consolidationDuration: consolidationDuration,
		consolidationSessions: consolidationSessions,
		cacheLookups:          cacheLookups,
		exportTotal:           exportTotal,
		reviewRouted:          reviewRouted,
	}
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Prometheus) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Registry returns the underlying registry.
func (m *Prometheus) Registry() *prometheus.Registry {
	return m.registry
}

// ConsolidationCompleted records a successful consolidation.
func (m *Prometheus) ConsolidationCompleted(strategy domain.ConsolidationStrategy, sessions int, elapsed time.Duration) {
	m.consolidationTotal.WithLabelValues(strategy.String(), "success").Inc()
	m.consolidationDuration.WithLabelValues(strategy.String()).Observe(elapsed.Seconds())
	m.consolidationSessions.WithLabelValues(strategy.String()).Observe(float64(sessions))
}

// ConsolidationFailed records a consolidation that returned an error.
func (m *Prometheus) ConsolidationFailed(strategy domain.ConsolidationStrategy) {
	m.consolidationTotal.WithLabelValues(strategy.String(), "error").Inc()
}

// CacheLookup records a cache read.
func (m *Prometheus) CacheLookup(store string, hit bool) {
	m.cacheLookups.WithLabelValues(store, strconv.FormatBool(hit)).Inc()
}

// ExportCompleted records an export attempt and its outcome.
func (m *Prometheus) ExportCompleted(format domain.ExportFormat, outcome string) {
	m.exportTotal.WithLabelValues(format.String(), outcome).Inc()
}

// ReviewRouted records how a review submission was routed.
func (m *Prometheus) ReviewRouted(action string) {
	m.reviewRouted.WithLabelValues(action).Inc()
}
