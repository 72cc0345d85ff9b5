package providers

import (
	"fmt"
	"time"
)

// Provider identifiers accepted by the factory.
const (
	OpenAI    = "openai"
	Gemini    = "gemini"
	Anthropic = "anthropic"
	Grok      = "grok"
)

// KnownProviders lists every supported provider in canonical order.
var KnownProviders = []string{OpenAI, Gemini, Anthropic, Grok}

// TierKey selects which token count decides a provider's pricing tier.
type TierKey string

const (
	// TierKeyInput qualifies tiers on input tokens only.
	TierKeyInput TierKey = "input"

	// TierKeyInputOutput qualifies tiers on input plus output tokens.
	TierKeyInputOutput TierKey = "input_output"
)

// CacheMode selects how prompt-cache writes are requested and billed.
// Only Anthropic distinguishes modes; the read rate is the same for both.
type CacheMode string

const (
	// CacheModeNone requests no explicit caching.
	CacheModeNone CacheMode = ""

	// CacheModeEphemeral is the short-lived (5 minute) cache.
	CacheModeEphemeral CacheMode = "ephemeral"

	// CacheModePersistent is the extended (1 hour) cache.
	CacheModePersistent CacheMode = "persistent"
)

// Valid reports whether m is a known cache mode.
func (m CacheMode) Valid() bool {
	switch m {
	case CacheModeNone, CacheModeEphemeral, CacheModePersistent:
		return true
	}
	return false
}

// TokenUsage is the normalized token accounting reported by a provider for one call.
// Counts are facts reported by the provider and are never estimated locally.
type TokenUsage struct {
	// InputTokens is the total prompt size, cached portion included
	InputTokens int64 `json:"input_tokens"`

	// CachedInputTokens is the portion of InputTokens served from or written to a cache
	CachedInputTokens int64 `json:"cached_input_tokens"`

	// CacheWriteTokens is the portion of CachedInputTokens that was written to
	// the cache on this call rather than read from it (Anthropic only)
	CacheWriteTokens int64 `json:"cache_write_tokens,omitempty"`

	// OutputTokens is the number of generated tokens billed as output
	OutputTokens int64 `json:"output_tokens"`

	// ReasoningTokens is the hidden reasoning count when the provider reports it.
	// Informational only; billing relies on OutputTokens.
	ReasoningTokens int64 `json:"reasoning_tokens,omitempty"`
}

// UncachedInputTokens returns the input tokens billed at the regular input rate.
func (u TokenUsage) UncachedInputTokens() int64 {
	return u.InputTokens - u.CachedInputTokens
}

// CacheReadTokens returns the cached tokens that were read rather than written.
func (u TokenUsage) CacheReadTokens() int64 {
	return u.CachedInputTokens - u.CacheWriteTokens
}

// TotalContextTokens returns input plus output tokens.
func (u TokenUsage) TotalContextTokens() int64 {
	return u.InputTokens + u.OutputTokens
}

// QualifyingTokens returns the count compared against tier thresholds for the given key.
func (u TokenUsage) QualifyingTokens(key TierKey) int64 {
	if key == TierKeyInputOutput {
		return u.TotalContextTokens()
	}
	return u.InputTokens
}

// IsZero reports whether no tokens were consumed.
func (u TokenUsage) IsZero() bool {
	return u.InputTokens == 0 && u.CachedInputTokens == 0 && u.CacheWriteTokens == 0 &&
		u.OutputTokens == 0 && u.ReasoningTokens == 0
}

// Validate checks that counts are non-negative and the cached buckets nest.
func (u TokenUsage) Validate() error {
	switch {
	case u.InputTokens < 0:
		return &ValidationError{Field: "input_tokens", Message: "must be non-negative"}
	case u.CachedInputTokens < 0:
		return &ValidationError{Field: "cached_input_tokens", Message: "must be non-negative"}
	case u.CacheWriteTokens < 0:
		return &ValidationError{Field: "cache_write_tokens", Message: "must be non-negative"}
	case u.OutputTokens < 0:
		return &ValidationError{Field: "output_tokens", Message: "must be non-negative"}
	case u.ReasoningTokens < 0:
		return &ValidationError{Field: "reasoning_tokens", Message: "must be non-negative"}
	case u.CachedInputTokens > u.InputTokens:
		return &ValidationError{
			Field:   "cached_input_tokens",
			Message: fmt.Sprintf("%d exceeds input tokens %d", u.CachedInputTokens, u.InputTokens),
		}
	case u.CacheWriteTokens > u.CachedInputTokens:
		return &ValidationError{
			Field:   "cache_write_tokens",
			Message: fmt.Sprintf("%d exceeds cached input tokens %d", u.CacheWriteTokens, u.CachedInputTokens),
		}
	}
	return nil
}

// Request is a provider-agnostic single-turn prompt.
type Request struct {
	// Model overrides the client's configured model when set
	Model string `json:"model,omitempty"`

	// SystemPrompt is optional; providers without a system role prepend it
	SystemPrompt string `json:"system_prompt,omitempty"`

	// UserPrompt is the text sent as the user turn
	UserPrompt string `json:"user_prompt"`

	// MaxTokens caps generation; zero uses the client's default
	MaxTokens int `json:"max_tokens,omitempty"`
}

// Validate checks the request before it is sent.
func (r *Request) Validate() error {
	if r == nil {
		return &ValidationError{Field: "request", Message: "must not be nil"}
	}
	if r.UserPrompt == "" {
		return &ValidationError{Field: "user_prompt", Message: "must not be empty"}
	}
	if r.MaxTokens < 0 {
		return &ValidationError{Field: "max_tokens", Message: "must be non-negative"}
	}
	return nil
}

// Response is the normalized result of one provider call.
type Response struct {
	// Output is the generated text
	Output string `json:"output"`

	// Model is the model that served the call as reported by the provider
	Model string `json:"model"`

	// Usage is the normalized token accounting
	Usage TokenUsage `json:"usage"`

	// FinishReason is the provider's stop reason, passed through verbatim
	FinishReason string `json:"finish_reason,omitempty"`
}

// ClientConfig holds the settings shared by every provider client.
type ClientConfig struct {
	// Name is the provider identifier (openai, gemini, anthropic, grok)
	Name string

	// Model is the default model for calls that do not set one
	Model string

	// BaseURL overrides the provider's public endpoint (used by tests and proxies)
	BaseURL string

	// APIKey is the credential. It is never logged.
	APIKey string

	// Timeout bounds a single HTTP exchange (default: 60s)
	Timeout time.Duration

	// MaxTokens is the default generation cap (default: 1024)
	MaxTokens int

	// MaxIdleConns is the connection pool size (default: 10)
	MaxIdleConns int

	// IdleConnTimeout closes idle pooled connections (default: 90s)
	IdleConnTimeout time.Duration
}

// Default client settings.
const (
	DefaultTimeout         = 60 * time.Second
	DefaultMaxTokens       = 1024
	DefaultMaxIdleConns    = 10
	DefaultIdleConnTimeout = 90 * time.Second
)

// WithDefaults returns a copy with zero fields replaced by defaults.
func (c ClientConfig) WithDefaults() ClientConfig {
	if c.Timeout <= 0 {
		c.Timeout = DefaultTimeout
	}
	if c.MaxTokens <= 0 {
		c.MaxTokens = DefaultMaxTokens
	}
	if c.MaxIdleConns <= 0 {
		c.MaxIdleConns = DefaultMaxIdleConns
	}
	if c.IdleConnTimeout <= 0 {
		c.IdleConnTimeout = DefaultIdleConnTimeout
	}
	return c
}

// Validate reports the first missing required field as a ConfigError.
func (c ClientConfig) Validate() error {
	if c.Name == "" {
		return &ConfigError{Provider: c.Name, Field: "name", Message: "name is required"}
	}
	if c.APIKey == "" {
		return &ConfigError{Provider: c.Name, Field: "api_key", Message: "api_key is required"}
	}
	if c.Model == "" {
		return &ConfigError{Provider: c.Name, Field: "model", Message: "model is required"}
	}
	return nil
}

// ModelFor returns the request model or the configured default.
func (c ClientConfig) ModelFor(req *Request) string {
	if req != nil && req.Model != "" {
		return req.Model
	}
	return c.Model
}

// MaxTokensFor returns the request cap or the configured default.
func (c ClientConfig) MaxTokensFor(req *Request) int {
	if req != nil && req.MaxTokens > 0 {
		return req.MaxTokens
	}
	return c.MaxTokens
}
