package providerfactory

import (
	"fmt"
	"log/slog"

	"costlab-hq/tokenbench/pkg/config"
	"costlab-hq/tokenbench/pkg/providers"
	"costlab-hq/tokenbench/pkg/providers/anthropic"
	"costlab-hq/tokenbench/pkg/providers/gemini"
	"costlab-hq/tokenbench/pkg/providers/grok"
	"costlab-hq/tokenbench/pkg/providers/openai"
)

// NewClient creates the client variant for a provider id.
// The id must already be normalized; apiKey is the resolved credential.
//
// Supported ids:
//   - "openai": OpenAI chat completions
//   - "grok": xAI, OpenAI-compatible
//   - "gemini": Gemini generateContent (honors thinking_budget)
//   - "anthropic": Anthropic Messages (honors pricing.cache_mode)
//
// Example:
//
//	client, err := NewClient("anthropic", cfg.Providers["anthropic"], key)
//	if err != nil {
//	    return err
//	}
//	defer client.Close()
func NewClient(id string, pc config.ProviderConfig, apiKey string) (providers.Client, error) {
	cc := ClientConfig(id, pc, apiKey)

	slog.Debug("creating provider client",
		"name", id,
		"model", cc.Model,
		"base_url", cc.BaseURL,
	)

	var (
		client providers.Client
		err    error
	)

	switch id {
	case providers.OpenAI:
		client, err = openai.NewClient(cc)

	case providers.Grok:
		client, err = grok.NewClient(cc)

	case providers.Gemini:
		var opts []gemini.Option
		if pc.ThinkingBudget != nil {
			opts = append(opts, gemini.WithThinkingBudget(*pc.ThinkingBudget))
		}
		client, err = gemini.NewClient(cc, opts...)

	case providers.Anthropic:
		client, err = anthropic.NewClient(cc,
			anthropic.WithCacheMode(providers.CacheMode(pc.Pricing.CacheMode)))

	default:
		return nil, unknownProviderError(id)
	}

	if err != nil {
		return nil, fmt.Errorf("failed to create provider %q: %w", id, err)
	}

	return client, nil
}

// ClientConfig maps a provider's YAML settings onto the client settings.
func ClientConfig(id string, pc config.ProviderConfig, apiKey string) providers.ClientConfig {
	return providers.ClientConfig{
		Name:      id,
		Model:     pc.Model,
		BaseURL:   pc.BaseURL,
		APIKey:    apiKey,
		Timeout:   pc.Timeout,
		MaxTokens: pc.MaxTokens,
	}.WithDefaults()
}

func unknownProviderError(id string) *providers.ConfigError {
	return &providers.ConfigError{
		Provider: id,
		Field:    "provider",
		Message: fmt.Sprintf("unsupported provider %q (supported: %s, %s, %s, %s)",
			id, providers.OpenAI, providers.Gemini, providers.Anthropic, providers.Grok),
	}
}
