package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// CostMetrics tracks computed call costs.
//
// Metrics:
//   - tokenbench_cost_usd_total: Total cost in USD by provider and bucket
//   - tokenbench_call_cost_usd: Cost distribution per successful call
//   - tokenbench_pricing_incomplete_total: Calls priced without a documented rate
type CostMetrics struct {
	costTotal         *prometheus.CounterVec
	costPerCall       *prometheus.HistogramVec
	pricingIncomplete *prometheus.CounterVec
}

// NewCostMetrics creates and registers cost metrics with the provided registry.
func NewCostMetrics(namespace string, registry *prometheus.Registry) *CostMetrics {
	cm := &CostMetrics{
		costTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "cost_usd_total",
				Help:      "Total cost in USD by provider and bucket",
			},
			[]string{"provider", "bucket"},
		),

		costPerCall: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "call_cost_usd",
				Help:      "Cost distribution per successful call in USD",
				// Single prompts: a hundredth of a cent up to a dollar
				Buckets: []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1},
			},
			[]string{"provider"},
		),

		pricingIncomplete: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "pricing_incomplete_total",
				Help:      "Calls whose cost omits a bucket with no documented rate",
			},
			[]string{"provider"},
		),
	}

	registry.MustRegister(
		cm.costTotal,
		cm.costPerCall,
		cm.pricingIncomplete,
	)

	return cm
}
