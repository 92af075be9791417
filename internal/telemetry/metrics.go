package telemetry

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics bundles the counters/histograms the coordinator and orchestrator
// update, grounded on the teacher's cmd/metrics-server registry shape.
// StageLatency and EmbeddingBatchSize are registered, but no caller in this
// module observes them.
type Metrics struct {
	Registry *prometheus.Registry

	RequestsTotal      *prometheus.CounterVec
	DeadlineExpired    prometheus.Counter
	QuestionsTotal     *prometheus.CounterVec
	StageLatency       *prometheus.HistogramVec
	EmbeddingBatchSize prometheus.Histogram
}

// NewMetrics constructs and registers the metric set against a fresh
// registry.
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	m := &Metrics{
		Registry: reg,
		RequestsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "docqa",
			Name:      "requests_total",
			Help:      "Total requests handled by outcome.",
		}, []string{"outcome"}),
		DeadlineExpired: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "docqa",
			Name:      "deadline_expired_total",
			Help:      "Requests whose global deadline fired before completion.",
		}),
		QuestionsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "docqa",
			Name:      "questions_total",
			Help:      "Questions answered by terminal state.",
		}, []string{"state"}),
		StageLatency: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "docqa",
			Name:      "stage_latency_seconds",
			Help:      "Per-stage latency within request processing.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"stage"}),
		EmbeddingBatchSize: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: "docqa",
			Name:      "embedding_batch_size",
			Help:      "Size of embedding batches dispatched.",
			Buckets:   []float64{1, 10, 50, 100, 250, 500},
		}),
	}
	return m
}
