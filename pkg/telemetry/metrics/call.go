package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// CallMetrics tracks provider calls made by experiment runs.
//
// Metrics:
//   - tokenbench_calls_total: Calls by provider, model and status
//   - tokenbench_call_errors_total: Failed calls by provider and error kind
//   - tokenbench_call_latency_seconds: End-to-end call latency
//   - tokenbench_call_retries_total: Retries spent on calls
//   - tokenbench_tokens_total: Tokens by provider and bucket
//   - tokenbench_limiter_wait_seconds: Time spent waiting on the interval limiter
type CallMetrics struct {
	calls       *prometheus.CounterVec
	errors      *prometheus.CounterVec
	latency     *prometheus.HistogramVec
	retries     *prometheus.CounterVec
	tokens      *prometheus.CounterVec
	limiterWait *prometheus.HistogramVec
}

// NewCallMetrics creates and registers call metrics with the provided registry.
func NewCallMetrics(namespace string, registry *prometheus.Registry) *CallMetrics {
	cm := &CallMetrics{
		calls: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "calls_total",
				Help:      "Total number of provider calls by status",
			},
			[]string{"provider", "model", "status"},
		),

		errors: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "call_errors_total",
				Help:      "Total number of failed provider calls by error kind",
			},
			[]string{"provider", "kind"},
		),

		latency: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "call_latency_seconds",
				Help:      "Provider call latency in seconds, retries included",
				// LLM completions: 100ms to 2 minutes
				Buckets: []float64{0.1, 0.25, 0.5, 1, 2, 5, 10, 30, 60, 120},
			},
			[]string{"provider"},
		),

		retries: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "call_retries_total",
				Help:      "Total number of retried provider invocations",
			},
			[]string{"provider"},
		),

		tokens: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "tokens_total",
				Help:      "Total tokens reported by providers, by bucket",
			},
			[]string{"provider", "bucket"},
		),

		limiterWait: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "limiter_wait_seconds",
				Help:      "Time spent waiting for the per-provider call interval",
				Buckets:   []float64{0, 0.01, 0.05, 0.1, 0.25, 0.5, 1, 2, 5},
			},
			[]string{"provider"},
		),
	}

	registry.MustRegister(
		cm.calls,
		cm.errors,
		cm.latency,
		cm.retries,
		cm.tokens,
		cm.limiterWait,
	)

	return cm
}
