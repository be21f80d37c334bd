package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus counters, gauges, and histograms for the
// suspension engine.
type Metrics struct {
	SuspensionsIssued   prometheus.Counter
	SuspensionsLifted   prometheus.Counter
	SuspensionsExtended prometheus.Counter
	IssueConflicts      prometheus.Counter

	RequestsSubmitted prometheus.Counter
	RequestsReviewed  *prometheus.CounterVec // label: outcome={approved,rejected,cancelled}

	AuditPublishErrors prometheus.Counter

	ActiveSuspensions prometheus.Gauge
	WSSubscribers     prometheus.Gauge

	StoreTxDuration prometheus.Histogram
}

// NewMetrics creates and registers all engine metrics with the default
// Prometheus registry.
func NewMetrics() *Metrics {
	m := newMetrics()
	prometheus.MustRegister(
		m.SuspensionsIssued,
		m.SuspensionsLifted,
		m.SuspensionsExtended,
		m.IssueConflicts,
		m.RequestsSubmitted,
		m.RequestsReviewed,
		m.AuditPublishErrors,
		m.ActiveSuspensions,
		m.WSSubscribers,
		m.StoreTxDuration,
	)
	return m
}

// NewMetricsForTesting creates Metrics without registering them, avoiding
// "already registered" panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	return newMetrics()
}

func newMetrics() *Metrics {
	return &Metrics{
		SuspensionsIssued: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "suspension_engine",
			Name:      "suspensions_issued_total",
			Help:      "Total suspension records issued.",
		}),
		SuspensionsLifted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "suspension_engine",
			Name:      "suspensions_lifted_total",
			Help:      "Total suspensions lifted before their window closed.",
		}),
		SuspensionsExtended: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "suspension_engine",
			Name:      "suspensions_extended_total",
			Help:      "Total suspension extensions applied.",
		}),
		IssueConflicts: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "suspension_engine",
			Name:      "issue_conflicts_total",
			Help:      "Issue attempts rejected because the city already had an active suspension.",
		}),
		RequestsSubmitted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "suspension_engine",
			Name:      "requests_submitted_total",
			Help:      "Total suspension requests submitted by mayors.",
		}),
		RequestsReviewed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "suspension_engine",
			Name:      "requests_reviewed_total",
			Help:      "Request reviews by outcome.",
		}, []string{"outcome"}),
		AuditPublishErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "suspension_engine",
			Name:      "audit_publish_errors_total",
			Help:      "Audit events that failed to publish to the sink.",
		}),
		ActiveSuspensions: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "suspension_engine",
			Name:      "active_suspensions",
			Help:      "Number of effectively active suspensions across all cities.",
		}),
		WSSubscribers: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "suspension_engine",
			Name:      "ws_subscribers",
			Help:      "Connected websocket subscribers.",
		}),
		StoreTxDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "suspension_engine",
			Name:      "store_tx_duration_seconds",
			Help:      "Duration of store transactions, including retries.",
			Buckets:   []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
		}),
	}
}
