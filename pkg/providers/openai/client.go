package openai

import (
	"context"
	"log/slog"

	goopenai "github.com/sashabaranov/go-openai"

	"costlab-hq/tokenbench/pkg/providers"
)

const (
	// DefaultBaseURL is the public OpenAI API endpoint.
	DefaultBaseURL = "https://api.openai.com/v1"

	// DefaultModel is used when the configuration does not name one.
	DefaultModel = "gpt-4o"
)

// Client is the OpenAI chat completions variant.
// It also serves any OpenAI-compatible API through BaseURL (see package grok).
type Client struct {
	*providers.HTTPProvider

	sdk    *goopenai.Client
	logger *slog.Logger
}

// NewClient creates an OpenAI client.
func NewClient(config providers.ClientConfig) (*Client, error) {
	if config.Name == "" {
		config.Name = providers.OpenAI
	}
	if config.BaseURL == "" {
		config.BaseURL = DefaultBaseURL
	}
	if config.Model == "" {
		config.Model = DefaultModel
	}
	return newClient(config)
}

// NewCompatibleClient creates a client for an OpenAI-compatible endpoint.
// BaseURL and Model must already be set.
func NewCompatibleClient(config providers.ClientConfig) (*Client, error) {
	if config.BaseURL == "" {
		return nil, &providers.ConfigError{
			Provider: config.Name,
			Field:    "base_url",
			Message:  "base_url is required for OpenAI-compatible providers",
		}
	}
	return newClient(config)
}

func newClient(config providers.ClientConfig) (*Client, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	httpProvider := providers.NewHTTPProvider(config)

	sdkConfig := goopenai.DefaultConfig(config.APIKey)
	sdkConfig.BaseURL = config.BaseURL
	sdkConfig.HTTPClient = httpProvider.HTTPClient()

	c := &Client{
		HTTPProvider: httpProvider,
		sdk:          goopenai.NewClientWithConfig(sdkConfig),
		logger:       slog.Default().With("component", "providers.openai", "provider", config.Name),
	}

	c.logger.Info("provider client initialized",
		"base_url", config.BaseURL,
		"model", config.Model,
	)

	return c, nil
}

// Name returns the provider identifier.
func (c *Client) Name() string {
	return c.Config().Name
}

// Model returns the default model.
func (c *Client) Model() string {
	return c.Config().Model
}

// Call sends one chat completion.
func (c *Client) Call(ctx context.Context, req *providers.Request) (*providers.Response, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	cfg := c.Config()
	resp, err := c.sdk.CreateChatCompletion(ctx, buildRequest(cfg, req))
	if err != nil {
		return nil, classifyError(cfg.Name, err)
	}

	out, err := convertResponse(cfg.Name, resp)
	if err != nil {
		return nil, err
	}

	c.logger.Debug("completion request succeeded",
		"model", out.Model,
		"input_tokens", out.Usage.InputTokens,
		"cached_input_tokens", out.Usage.CachedInputTokens,
		"output_tokens", out.Usage.OutputTokens,
	)

	return out, nil
}
