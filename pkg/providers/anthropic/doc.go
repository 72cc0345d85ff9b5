// Package anthropic implements the Anthropic provider variant on top of
// github.com/anthropics/anthropic-sdk-go.
//
// Anthropic reports cache traffic separately from input_tokens. The variant
// folds it back so that TokenUsage keeps the shared meaning:
//
//	input       = input_tokens + cache_creation_input_tokens + cache_read_input_tokens
//	cached      = cache_creation_input_tokens + cache_read_input_tokens
//	cache write = cache_creation_input_tokens
//	output      = output_tokens
//
// # Cache Mode
//
// WithCacheMode marks the system prompt with cache_control. Ephemeral uses
// the default 5 minute TTL, persistent the 1 hour TTL. The same mode must be
// configured on the pricing side so writes are billed at the matching rate.
//
// The SDK's own retries are disabled; pkg/retry owns retry behavior.
package anthropic
