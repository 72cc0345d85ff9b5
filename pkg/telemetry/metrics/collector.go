package metrics

import (
	"fmt"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"costlab-hq/tokenbench/pkg/config"
	"costlab-hq/tokenbench/pkg/experiment"
)

// DefaultNamespace prefixes metric names when none is configured.
const DefaultNamespace = "tokenbench"

// maxModelLabels bounds distinct provider/model pairs. Providers echo dated
// model snapshots, so the set is open-ended.
const maxModelLabels = 1000

// Collector records experiment activity as Prometheus metrics. It implements
// experiment.Observer and can be attached to the interval limiter through
// ObserveLimiterWait.
type Collector struct {
	config   config.MetricsConfig
	registry *prometheus.Registry

	calls *CallMetrics
	costs *CostMetrics
	runs  *RunMetrics

	// Cardinality tracking
	cardinalityLimiter *CardinalityLimiter
}

// NewCollector creates a new metrics collector. If registry is nil, a fresh
// registry is created.
//
// Example:
//
//	collector := metrics.NewCollector(cfg.Telemetry.Metrics, nil)
//	runner := experiment.NewRunner(factory, limiter, policy, calc,
//	    experiment.WithObserver(collector))
func NewCollector(cfg config.MetricsConfig, registry *prometheus.Registry) *Collector {
	if registry == nil {
		registry = prometheus.NewRegistry()
	}
	if cfg.Namespace == "" {
		cfg.Namespace = DefaultNamespace
	}

	return &Collector{
		config:             cfg,
		registry:           registry,
		calls:              NewCallMetrics(cfg.Namespace, registry),
		costs:              NewCostMetrics(cfg.Namespace, registry),
		runs:               NewRunMetrics(cfg.Namespace, registry),
		cardinalityLimiter: NewCardinalityLimiter(maxModelLabels),
	}
}

// RecordAppended implements experiment.Observer.
func (c *Collector) RecordAppended(rec experiment.CallRecord) {
	if !c.config.Enabled {
		return
	}

	model := rec.Model
	if !c.cardinalityLimiter.Allow(fmt.Sprintf("%s:%s", rec.Provider, model)) {
		model = "other"
	}

	status := "success"
	if !rec.Success {
		status = "error"
		c.calls.errors.WithLabelValues(rec.Provider, string(rec.ErrorKind)).Inc()
	}
	c.calls.calls.WithLabelValues(rec.Provider, model, status).Inc()
	c.calls.latency.WithLabelValues(rec.Provider).Observe(rec.Latency.Seconds())
	if rec.Attempts > 1 {
		c.calls.retries.WithLabelValues(rec.Provider).Add(float64(rec.Attempts - 1))
	}

	if !rec.Success {
		return
	}

	usage := rec.Usage
	c.calls.tokens.WithLabelValues(rec.Provider, "uncached_input").Add(float64(usage.UncachedInputTokens()))
	c.calls.tokens.WithLabelValues(rec.Provider, "cached_input").Add(float64(usage.CachedInputTokens))
	c.calls.tokens.WithLabelValues(rec.Provider, "output").Add(float64(usage.OutputTokens))
	c.calls.tokens.WithLabelValues(rec.Provider, "reasoning").Add(float64(usage.ReasoningTokens))

	cost := rec.Cost
	c.costs.costTotal.WithLabelValues(rec.Provider, "uncached_input").Add(cost.UncachedInputCost)
	c.costs.costTotal.WithLabelValues(rec.Provider, "cached_input").Add(cost.CachedInputCost)
	c.costs.costTotal.WithLabelValues(rec.Provider, "output").Add(cost.OutputCost)
	c.costs.costPerCall.WithLabelValues(rec.Provider).Observe(cost.TotalCost)
	if cost.PricingIncomplete {
		c.costs.pricingIncomplete.WithLabelValues(rec.Provider).Inc()
	}
}

// RunFinished implements experiment.Observer.
func (c *Collector) RunFinished(res *experiment.Result) {
	if !c.config.Enabled {
		return
	}

	c.runs.runs.WithLabelValues(RunOutcome(res)).Inc()
	c.runs.duration.Observe(res.Duration().Seconds())
	c.runs.lastCost.Set(res.TotalCost())
	c.runs.lastRun.Set(float64(res.FinishedAt.Unix()))
}

// ObserveLimiterWait records time a call spent waiting for its provider's
// interval. Its signature matches ratelimit.WithObserver.
func (c *Collector) ObserveLimiterWait(provider string, waited time.Duration) {
	if !c.config.Enabled {
		return
	}

	c.calls.limiterWait.WithLabelValues(provider).Observe(waited.Seconds())
}

// UpdateCredentialStatus sets whether a provider has a usable credential.
func (c *Collector) UpdateCredentialStatus(provider string, present bool) {
	if !c.config.Enabled {
		return
	}

	value := 0.0
	if present {
		value = 1.0
	}
	c.runs.credentialSet.WithLabelValues(provider).Set(value)
}

// RunOutcome classifies a finished run as "complete" (no failures),
// "partial" or "failed" (no successes).
func RunOutcome(res *experiment.Result) string {
	succeeded, failed := res.Succeeded(), res.Failed()
	switch {
	case failed == 0:
		return "complete"
	case succeeded == 0:
		return "failed"
	default:
		return "partial"
	}
}

// Registry returns the Prometheus registry used by this collector.
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}

// CardinalityLimiter prevents metric cardinality explosion by limiting
// the number of unique label combinations per metric.
type CardinalityLimiter struct {
	maxCardinality int
	current        map[string]struct{}
	mu             sync.RWMutex
}

// NewCardinalityLimiter creates a new cardinality limiter with the specified
// maximum cardinality.
func NewCardinalityLimiter(maxCardinality int) *CardinalityLimiter {
	return &CardinalityLimiter{
		maxCardinality: maxCardinality,
		current:        make(map[string]struct{}),
	}
}

// Allow checks if a label set is allowed. Returns true if the label set
// already exists or if we haven't reached the cardinality limit yet.
// Returns false if adding this label set would exceed the limit.
func (cl *CardinalityLimiter) Allow(labelSet string) bool {
	cl.mu.RLock()
	if _, exists := cl.current[labelSet]; exists {
		cl.mu.RUnlock()
		return true
	}
	cl.mu.RUnlock()

	cl.mu.Lock()
	defer cl.mu.Unlock()

	// Double-check after acquiring write lock
	if _, exists := cl.current[labelSet]; exists {
		return true
	}

	if len(cl.current) >= cl.maxCardinality {
		return false
	}

	cl.current[labelSet] = struct{}{}
	return true
}

// Count returns the current cardinality.
func (cl *CardinalityLimiter) Count() int {
	cl.mu.RLock()
	defer cl.mu.RUnlock()
	return len(cl.current)
}
