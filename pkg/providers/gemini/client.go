package gemini

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"google.golang.org/genai"

	"costlab-hq/tokenbench/pkg/providers"
)

const (
	// DefaultBaseURL is the Generative Language API endpoint.
	DefaultBaseURL = "https://generativelanguage.googleapis.com"

	// DefaultModel is used when the configuration does not name one.
	DefaultModel = "gemini-2.5-pro"

	// DefaultAPIVersion is the REST API version segment.
	DefaultAPIVersion = "v1beta"
)

// Client is the Gemini generateContent variant.
type Client struct {
	*providers.HTTPProvider

	sdk            *genai.Client
	thinkingBudget *int
	logger         *slog.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithThinkingBudget caps internal reasoning. Zero disables thinking on
// models that allow it.
func WithThinkingBudget(tokens int) Option {
	return func(c *Client) {
		c.thinkingBudget = &tokens
	}
}

// NewClient creates a Gemini client.
func NewClient(config providers.ClientConfig, opts ...Option) (*Client, error) {
	if config.Name == "" {
		config.Name = providers.Gemini
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

	client, err := genai.NewClient(context.Background(), &genai.ClientConfig{
		APIKey:     config.APIKey,
		Backend:    genai.BackendGeminiAPI,
		HTTPClient: httpProvider.HTTPClient(),
		HTTPOptions: genai.HTTPOptions{
			BaseURL:    strings.TrimRight(config.BaseURL, "/") + "/",
			APIVersion: DefaultAPIVersion,
		},
	})
	if err != nil {
		return nil, &providers.ConfigError{
			Provider: config.Name,
			Field:    "client",
			Message:  err.Error(),
		}
	}

	c := &Client{
		HTTPProvider: httpProvider,
		sdk:          client,
		logger:       slog.Default().With("component", "providers.gemini", "provider", config.Name),
	}
	for _, opt := range opts {
		opt(c)
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

// Call sends one generateContent request.
func (c *Client) Call(ctx context.Context, req *providers.Request) (*providers.Response, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	cfg := c.Config()
	model := cfg.ModelFor(req)

	resp, err := c.sdk.Models.GenerateContent(ctx, model,
		genai.Text(req.UserPrompt), buildConfig(cfg.MaxTokensFor(req), c.thinkingBudget, req))
	if err != nil {
		return nil, classifyError(cfg.Name, err)
	}

	out, err := convertResponse(cfg.Name, model, resp)
	if err != nil {
		return nil, err
	}

	c.logger.Debug("completion request succeeded",
		"model", out.Model,
		"input_tokens", out.Usage.InputTokens,
		"cached_input_tokens", out.Usage.CachedInputTokens,
		"output_tokens", out.Usage.OutputTokens,
		"reasoning_tokens", out.Usage.ReasoningTokens,
	)

	return out, nil
}

// buildConfig converts the request options into generation settings.
func buildConfig(maxTokens int, thinkingBudget *int, req *providers.Request) *genai.GenerateContentConfig {
	gc := &genai.GenerateContentConfig{
		MaxOutputTokens: int32(maxTokens),
	}
	if req.SystemPrompt != "" {
		gc.SystemInstruction = &genai.Content{
			Parts: []*genai.Part{{Text: req.SystemPrompt}},
		}
	}
	if thinkingBudget != nil {
		budget := int32(*thinkingBudget)
		gc.ThinkingConfig = &genai.ThinkingConfig{ThinkingBudget: &budget}
	}
	return gc
}

// convertUsage maps usage metadata onto TokenUsage.
// promptTokenCount includes cached content; thoughts are kept apart from output.
func convertUsage(u *genai.GenerateContentResponseUsageMetadata) providers.TokenUsage {
	if u == nil {
		return providers.TokenUsage{}
	}
	return providers.TokenUsage{
		InputTokens:       int64(u.PromptTokenCount),
		CachedInputTokens: int64(u.CachedContentTokenCount),
		OutputTokens:      int64(u.CandidatesTokenCount),
		ReasoningTokens:   int64(u.ThoughtsTokenCount),
	}
}

// convertResponse normalizes a generateContent response.
func convertResponse(provider, model string, resp *genai.GenerateContentResponse) (*providers.Response, error) {
	if resp == nil || resp.UsageMetadata == nil {
		return nil, providers.NewParseError(provider, errors.New("response has no usageMetadata"))
	}

	usage := convertUsage(resp.UsageMetadata)
	if err := usage.Validate(); err != nil {
		return nil, providers.NewParseError(provider, err)
	}

	out := &providers.Response{
		Model: resp.ModelVersion,
		Usage: usage,
	}
	if out.Model == "" {
		out.Model = model
	}

	if len(resp.Candidates) > 0 && resp.Candidates[0] != nil {
		c := resp.Candidates[0]
		if c.Content != nil {
			var text strings.Builder
			for _, p := range c.Content.Parts {
				if p == nil || p.Thought {
					continue
				}
				text.WriteString(p.Text)
			}
			out.Output = text.String()
		}
		out.FinishReason = string(c.FinishReason)
	}

	return out, nil
}

// classifyError turns an SDK error into a classified ProviderError.
func classifyError(provider string, err error) error {
	var apiErr genai.APIError
	if errors.As(err, &apiErr) && apiErr.Code > 0 {
		return providers.NewStatusError(provider, apiErr.Code, apiErr.Message, err)
	}
	return providers.NewTransportError(provider, err)
}
