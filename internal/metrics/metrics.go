// Package metrics holds the prometheus collectors for the collection store,
// the remote writes and enrichment. A nil *Metrics records nothing.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Enrichment outcomes
const (
	OutcomeCreated    = "created"
	OutcomeCached     = "cached"
	OutcomeParseError = "parse_error"
	OutcomeFailed     = "failed"
	OutcomeRejected   = "rejected"
)

// Metrics groups every collector on its own registry
type Metrics struct {
	registry *prometheus.Registry

	SnapshotsApplied   prometheus.Counter
	SubscriptionErrors prometheus.Counter
	RemoteWriteErrors  *prometheus.CounterVec
	Enrichments        *prometheus.CounterVec
	CollectionSize     prometheus.Gauge
}

// New creates and registers the collectors
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		SnapshotsApplied: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "cinearchive",
			Name:      "snapshots_applied_total",
			Help:      "Full snapshots applied to the local mirror.",
		}),
		SubscriptionErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "cinearchive",
			Name:      "subscription_errors_total",
			Help:      "Errors delivered by the snapshot subscription.",
		}),
		RemoteWriteErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "cinearchive",
			Name:      "remote_write_errors_total",
			Help:      "Failed remote writes by operation.",
		}, []string{"op"}),
		Enrichments: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "cinearchive",
			Name:      "enrichments_total",
			Help:      "Enrichment attempts by outcome.",
		}, []string{"outcome"}),
		CollectionSize: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "cinearchive",
			Name:      "collection_records",
			Help:      "Records currently in the local mirror.",
		}),
	}

	m.registry.MustRegister(
		m.SnapshotsApplied,
		m.SubscriptionErrors,
		m.RemoteWriteErrors,
		m.Enrichments,
		m.CollectionSize,
	)
	return m
}

// Handler exposes the registry in the prometheus text format
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return promhttp.HandlerFor(prometheus.NewRegistry(), promhttp.HandlerOpts{})
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// SnapshotApplied records a snapshot and the resulting mirror size
func (m *Metrics) SnapshotApplied(size int) {
	if m == nil {
		return
	}
	m.SnapshotsApplied.Inc()
	m.CollectionSize.Set(float64(size))
}

// MirrorSize records the mirror size after an optimistic change
func (m *Metrics) MirrorSize(size int) {
	if m == nil {
		return
	}
	m.CollectionSize.Set(float64(size))
}

// SubscriptionFailed records a subscription error
func (m *Metrics) SubscriptionFailed() {
	if m == nil {
		return
	}
	m.SubscriptionErrors.Inc()
}

// WriteFailed records a failed remote write
func (m *Metrics) WriteFailed(op string) {
	if m == nil {
		return
	}
	m.RemoteWriteErrors.WithLabelValues(op).Inc()
}

// Enrichment records an enrichment outcome
func (m *Metrics) Enrichment(outcome string) {
	if m == nil {
		return
	}
	m.Enrichments.WithLabelValues(outcome).Inc()
}
