package anthropic

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	sdk "github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"costlab-hq/tokenbench/pkg/providers"
)

const (
	// DefaultBaseURL is the public Anthropic API endpoint.
	DefaultBaseURL = "https://api.anthropic.com"

	// DefaultModel is used when the configuration does not name one.
	DefaultModel = "claude-sonnet-4-20250514"

	// DefaultAnthropicVersion is the API version header value.
	DefaultAnthropicVersion = "2023-06-01"
)

// Client is the Anthropic Messages API variant.
type Client struct {
	*providers.HTTPProvider

	sdk       sdk.Client
	cacheMode providers.CacheMode
	logger    *slog.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithCacheMode marks the system prompt as cacheable with the given mode.
func WithCacheMode(mode providers.CacheMode) Option {
	return func(c *Client) {
		c.cacheMode = mode
	}
}

// NewClient creates an Anthropic client.
func NewClient(config providers.ClientConfig, opts ...Option) (*Client, error) {
	if config.Name == "" {
		config.Name = providers.Anthropic
	}
	if config.BaseURL == "" {
		config.BaseURL = DefaultBaseURL
	}
	if config.Model == "" {
		config.Model = DefaultModel
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}

	httpProvider := providers.NewHTTPProvider(config)

	c := &Client{
		HTTPProvider: httpProvider,
		sdk: sdk.NewClient(
			option.WithAPIKey(config.APIKey),
			option.WithBaseURL(strings.TrimRight(config.BaseURL, "/")),
			option.WithHTTPClient(httpProvider.HTTPClient()),
			option.WithHeader("anthropic-version", DefaultAnthropicVersion),
			option.WithMaxRetries(0),
		),
		logger: slog.Default().With("component", "providers.anthropic", "provider", config.Name),
	}
	for _, opt := range opts {
		opt(c)
	}
	if !c.cacheMode.Valid() {
		return nil, &providers.ConfigError{
			Provider: config.Name,
			Field:    "cache_mode",
			Message:  fmt.Sprintf("unknown cache mode %q", c.cacheMode),
		}
	}

	c.logger.Info("provider client initialized",
		"base_url", config.BaseURL,
		"model", config.Model,
		"cache_mode", string(c.cacheMode),
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

// Call sends one Messages API request.
func (c *Client) Call(ctx context.Context, req *providers.Request) (*providers.Response, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	cfg := c.Config()
	msg, err := c.sdk.Messages.New(ctx, buildParams(cfg, c.cacheMode, req))
	if err != nil {
		return nil, classifyError(cfg.Name, err)
	}

	out, err := convertMessage(cfg.Name, msg)
	if err != nil {
		return nil, err
	}

	c.logger.Debug("completion request succeeded",
		"model", out.Model,
		"input_tokens", out.Usage.InputTokens,
		"cached_input_tokens", out.Usage.CachedInputTokens,
		"cache_write_tokens", out.Usage.CacheWriteTokens,
		"output_tokens", out.Usage.OutputTokens,
	)

	return out, nil
}

// buildParams converts a provider-agnostic request into SDK params.
func buildParams(cfg providers.ClientConfig, mode providers.CacheMode, req *providers.Request) sdk.MessageNewParams {
	params := sdk.MessageNewParams{
		Model:     sdk.Model(cfg.ModelFor(req)),
		MaxTokens: int64(cfg.MaxTokensFor(req)),
		Messages: []sdk.MessageParam{
			sdk.NewUserMessage(sdk.NewTextBlock(req.UserPrompt)),
		},
	}

	if req.SystemPrompt != "" {
		block := sdk.TextBlockParam{Text: req.SystemPrompt}
		switch mode {
		case providers.CacheModeEphemeral:
			block.CacheControl = sdk.NewCacheControlEphemeralParam()
		case providers.CacheModePersistent:
			block.CacheControl = sdk.NewCacheControlEphemeralParam()
			block.CacheControl.TTL = sdk.CacheControlEphemeralTTLTTL1h
		}
		params.System = []sdk.TextBlockParam{block}
	}

	return params
}

// convertUsage maps Anthropic counters onto TokenUsage.
// Anthropic reports input_tokens excluding cache traffic, so the cache
// counters are added back to make InputTokens the full prompt size.
func convertUsage(u sdk.Usage) providers.TokenUsage {
	cached := u.CacheCreationInputTokens + u.CacheReadInputTokens
	return providers.TokenUsage{
		InputTokens:       u.InputTokens + cached,
		CachedInputTokens: cached,
		CacheWriteTokens:  u.CacheCreationInputTokens,
		OutputTokens:      u.OutputTokens,
	}
}

// convertMessage normalizes an SDK message.
func convertMessage(provider string, msg *sdk.Message) (*providers.Response, error) {
	if msg == nil {
		return nil, providers.NewParseError(provider, fmt.Errorf("empty message"))
	}

	usage := convertUsage(msg.Usage)
	if err := usage.Validate(); err != nil {
		return nil, providers.NewParseError(provider, err)
	}

	var text strings.Builder
	for _, block := range msg.Content {
		if block.Type == "text" {
			text.WriteString(block.Text)
		}
	}

	return &providers.Response{
		Output:       text.String(),
		Model:        string(msg.Model),
		Usage:        usage,
		FinishReason: string(msg.StopReason),
	}, nil
}

// classifyError turns an SDK error into a classified ProviderError,
// keeping the server's Retry-After hint.
func classifyError(provider string, err error) error {
	var apiErr *sdk.Error
	if errors.As(err, &apiErr) && apiErr.StatusCode > 0 {
		perr := providers.NewStatusError(provider, apiErr.StatusCode, apiErr.Error(), err)
		if apiErr.Response != nil {
			perr.RetryAfter = providers.ParseRetryAfter(apiErr.Response.Header.Get("Retry-After"))
		}
		return perr
	}
	return providers.NewTransportError(provider, err)
}
