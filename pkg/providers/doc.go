// Package providers defines the provider-agnostic client contract used by the
// benchmark runner.
//
// # Overview
//
// Every supported LLM API (openai, gemini, anthropic, grok) is wrapped by a
// variant in a subpackage that implements Client. A variant turns a Request
// into the provider's wire format, sends exactly one request, and converts the
// provider's usage report into a TokenUsage.
//
// # Token Usage
//
// TokenUsage keeps cached and uncached input in disjoint buckets:
//
//	uncached = InputTokens - CachedInputTokens
//	cached   = CachedInputTokens (reads + writes)
//	writes   = CacheWriteTokens  (subset of cached, Anthropic only)
//
// ReasoningTokens is recorded when reported and never billed separately.
//
// # Errors
//
// Calls fail with *ProviderError. Its Kind tells the retry policy what to do:
//
//   - KindTransient: 408, 429, 5xx, network timeouts
//   - KindFatal: other 4xx, malformed responses, caller cancellation
//
// Setup problems (unknown provider, missing credential) are *ConfigError and
// are reported before any call is made.
//
// # Transport
//
// HTTPProvider is a pooled JSON transport for variants without an SDK. It
// performs a single exchange per call; retries belong to pkg/retry.
package providers
