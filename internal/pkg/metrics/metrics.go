package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics groups the collectors for the chat pipeline. Build one per registry;
// tests pass a fresh prometheus.NewRegistry() so registrations never collide.
type Metrics struct {
	MessagesPersisted *prometheus.CounterVec
	AIDecisions       *prometheus.CounterVec
	AIReplies         *prometheus.CounterVec
	GenerationLatency prometheus.Histogram
	RetrievalLatency  prometheus.Histogram
	IndexingFailures  prometheus.Counter
	IndexingQueued    prometheus.Gauge
	ActiveConnections prometheus.Gauge
	RateLimited       *prometheus.CounterVec
}

func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		MessagesPersisted: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: "nexus",
			Name:      "messages_persisted_total",
			Help:      "Messages written to the message store, by role.",
		}, []string{"role"}),
		AIDecisions: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: "nexus",
			Name:      "ai_decisions_total",
			Help:      "Trigger decisions taken by the orchestrator.",
		}, []string{"mode", "outcome"}),
		AIReplies: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: "nexus",
			Name:      "ai_replies_total",
			Help:      "Generation outcomes: reply, silent or apology.",
		}, []string{"outcome"}),
		GenerationLatency: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: "nexus",
			Name:      "generation_seconds",
			Help:      "Wall time of generation including retries.",
			Buckets:   prometheus.ExponentialBuckets(0.25, 2, 8),
		}),
		RetrievalLatency: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: "nexus",
			Name:      "retrieval_seconds",
			Help:      "Wall time of embed plus scoped vector search.",
			Buckets:   prometheus.DefBuckets,
		}),
		IndexingFailures: f.NewCounter(prometheus.CounterOpts{
			Namespace: "nexus",
			Name:      "indexing_failures_total",
			Help:      "Background indexing jobs that failed.",
		}),
		IndexingQueued: f.NewGauge(prometheus.GaugeOpts{
			Namespace: "nexus",
			Name:      "worker_tasks_in_flight",
			Help:      "Tasks accepted by the worker pool and not yet finished.",
		}),
		ActiveConnections: f.NewGauge(prometheus.GaugeOpts{
			Namespace: "nexus",
			Name:      "ws_connections",
			Help:      "Open websocket sessions.",
		}),
		RateLimited: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: "nexus",
			Name:      "rate_limited_total",
			Help:      "Rejected requests, by surface.",
		}, []string{"surface"}),
	}
}

// NewNop returns collectors bound to a private registry.
func NewNop() *Metrics {
	return New(prometheus.NewRegistry())
}
