package tracing

import (
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"costlab-hq/tokenbench/pkg/costs"
	"costlab-hq/tokenbench/pkg/providers"
	"costlab-hq/tokenbench/pkg/retry"
)

// Span names.
const (
	SpanRun  = "experiment.run"
	SpanCall = "provider.call"
)

// Event names.
const (
	EventLimiterWait     = "limiter.wait"
	EventRetryTransition = "retry.transition"
)

// Attribute keys. Prompts, outputs and credentials are never attached.
const (
	AttrRunID     = "tokenbench.run_id"
	AttrTrials    = "tokenbench.trials"
	AttrProviders = "tokenbench.providers"
	AttrTrial     = "tokenbench.trial"
	AttrProvider  = "tokenbench.provider"
	AttrModel     = "tokenbench.model"

	AttrTokensInput      = "tokenbench.tokens.input"
	AttrTokensCached     = "tokenbench.tokens.cached_input"
	AttrTokensCacheWrite = "tokenbench.tokens.cache_write"
	AttrTokensOutput     = "tokenbench.tokens.output"
	AttrTokensReasoning  = "tokenbench.tokens.reasoning"

	AttrCostTotal         = "tokenbench.cost.total"
	AttrCostTier          = "tokenbench.cost.tier"
	AttrPricingIncomplete = "tokenbench.cost.pricing_incomplete"

	AttrAttempts  = "tokenbench.attempts"
	AttrErrorKind = "tokenbench.error.kind"
	AttrWaitMs    = "tokenbench.wait_ms"

	AttrRetryFrom    = "retry.from"
	AttrRetryTo      = "retry.to"
	AttrRetryAttempt = "retry.attempt"
	AttrRetryDelayMs = "retry.delay_ms"
	AttrRetryError   = "retry.error"
)

// CallResult is what a finished provider call contributes to its span.
type CallResult struct {
	Model     string
	Attempts  int
	Usage     providers.TokenUsage
	Cost      costs.Breakdown
	ErrorKind providers.ErrorKind
}

// RunAttributes describe a run span.
func RunAttributes(runID string, providerIDs []string, trials int) []attribute.KeyValue {
	return []attribute.KeyValue{
		attribute.String(AttrRunID, runID),
		attribute.StringSlice(AttrProviders, providerIDs),
		attribute.Int(AttrTrials, trials),
	}
}

// CallAttributes describe a call span when it starts.
func CallAttributes(runID string, trial int, provider, model string) []attribute.KeyValue {
	return []attribute.KeyValue{
		attribute.String(AttrRunID, runID),
		attribute.Int(AttrTrial, trial),
		attribute.String(AttrProvider, provider),
		attribute.String(AttrModel, model),
	}
}

// SetCallResult records usage, cost and attempts on a call span.
func SetCallResult(span trace.Span, res CallResult) {
	attrs := []attribute.KeyValue{
		attribute.String(AttrModel, res.Model),
		attribute.Int(AttrAttempts, res.Attempts),
		attribute.Int64(AttrTokensInput, res.Usage.InputTokens),
		attribute.Int64(AttrTokensCached, res.Usage.CachedInputTokens),
		attribute.Int64(AttrTokensCacheWrite, res.Usage.CacheWriteTokens),
		attribute.Int64(AttrTokensOutput, res.Usage.OutputTokens),
		attribute.Int64(AttrTokensReasoning, res.Usage.ReasoningTokens),
		attribute.Float64(AttrCostTotal, res.Cost.TotalCost),
		attribute.Int(AttrCostTier, res.Cost.Tier),
		attribute.Bool(AttrPricingIncomplete, res.Cost.PricingIncomplete),
	}
	if res.ErrorKind != "" {
		attrs = append(attrs, attribute.String(AttrErrorKind, string(res.ErrorKind)))
	}
	span.SetAttributes(attrs...)
}

// AddLimiterWait records time spent waiting for the provider's rate limiter.
func AddLimiterWait(span trace.Span, waitedMs int64) {
	span.AddEvent(EventLimiterWait, trace.WithAttributes(attribute.Int64(AttrWaitMs, waitedMs)))
}

// AddTransition records one retry state change.
func AddTransition(span trace.Span, t retry.Transition) {
	attrs := []attribute.KeyValue{
		attribute.String(AttrRetryFrom, t.From.String()),
		attribute.String(AttrRetryTo, t.To.String()),
		attribute.Int(AttrRetryAttempt, t.Attempt),
	}
	if t.Delay > 0 {
		attrs = append(attrs, attribute.Int64(AttrRetryDelayMs, t.Delay.Milliseconds()))
	}
	if t.Err != nil {
		attrs = append(attrs, attribute.String(AttrRetryError, t.Err.Error()))
	}
	span.AddEvent(EventRetryTransition, trace.WithAttributes(attrs...))
}
