package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// RunMetrics tracks whole experiment runs and credential availability.
//
// Metrics:
//   - tokenbench_runs_total: Finished runs by outcome
//   - tokenbench_run_duration_seconds: Wall time per run
//   - tokenbench_run_cost_usd: Total cost of the most recent run
//   - tokenbench_last_run_timestamp_seconds: Finish time of the most recent run
//   - tokenbench_credential_present: 1 when a provider has a usable key
type RunMetrics struct {
	runs          *prometheus.CounterVec
	duration      prometheus.Histogram
	lastCost      prometheus.Gauge
	lastRun       prometheus.Gauge
	credentialSet *prometheus.GaugeVec
}

// NewRunMetrics creates and registers run metrics with the provided registry.
func NewRunMetrics(namespace string, registry *prometheus.Registry) *RunMetrics {
	rm := &RunMetrics{
		runs: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "runs_total",
				Help:      "Total number of finished runs by outcome",
			},
			[]string{"outcome"},
		),

		duration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "run_duration_seconds",
				Help:      "Experiment run wall time in seconds",
				Buckets:   []float64{1, 5, 15, 30, 60, 120, 300, 600},
			},
		),

		lastCost: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "run_cost_usd",
				Help:      "Total cost in USD of the most recent run",
			},
		),

		lastRun: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "last_run_timestamp_seconds",
				Help:      "Unix time the most recent run finished",
			},
		),

		credentialSet: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "credential_present",
				Help:      "Provider credential status (1=usable, 0=missing or placeholder)",
			},
			[]string{"provider"},
		),
	}

	registry.MustRegister(
		rm.runs,
		rm.duration,
		rm.lastCost,
		rm.lastRun,
		rm.credentialSet,
	)

	return rm
}
