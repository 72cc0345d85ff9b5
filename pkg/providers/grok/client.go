// Package grok implements the xAI Grok provider variant.
//
// Grok exposes an OpenAI-compatible chat completions API, so the variant is a
// thin configuration layer over the openai package. Usage extraction is the
// same: cached tokens come from prompt_tokens_details and reasoning tokens
// from completion_tokens_details. Grok tiers are qualified on input plus
// output tokens (see pkg/costs).
package grok

import (
	"costlab-hq/tokenbench/pkg/providers"
	"costlab-hq/tokenbench/pkg/providers/openai"
)

const (
	// DefaultBaseURL is the public xAI API endpoint.
	DefaultBaseURL = "https://api.x.ai/v1"

	// DefaultModel is used when the configuration does not name one.
	DefaultModel = "grok-4"
)

// NewClient creates a Grok client.
func NewClient(config providers.ClientConfig) (*openai.Client, error) {
	if config.Name == "" {
		config.Name = providers.Grok
	}
	if config.BaseURL == "" {
		config.BaseURL = DefaultBaseURL
	}
	if config.Model == "" {
		config.Model = DefaultModel
	}
	return openai.NewCompatibleClient(config)
}
