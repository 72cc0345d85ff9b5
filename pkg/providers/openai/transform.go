package openai

import (
	"errors"
	"fmt"

	goopenai "github.com/sashabaranov/go-openai"

	"costlab-hq/tokenbench/pkg/providers"
)

// buildRequest converts a provider-agnostic request into a chat completion request.
func buildRequest(cfg providers.ClientConfig, req *providers.Request) goopenai.ChatCompletionRequest {
	messages := make([]goopenai.ChatCompletionMessage, 0, 2)
	if req.SystemPrompt != "" {
		messages = append(messages, goopenai.ChatCompletionMessage{
			Role:    goopenai.ChatMessageRoleSystem,
			Content: req.SystemPrompt,
		})
	}
	messages = append(messages, goopenai.ChatCompletionMessage{
		Role:    goopenai.ChatMessageRoleUser,
		Content: req.UserPrompt,
	})

	return goopenai.ChatCompletionRequest{
		Model:               cfg.ModelFor(req),
		Messages:            messages,
		MaxCompletionTokens: cfg.MaxTokensFor(req),
	}
}

// convertUsage maps OpenAI-compatible usage onto TokenUsage.
// prompt_tokens already includes cached tokens, so cached is a subset of input.
func convertUsage(u goopenai.Usage) providers.TokenUsage {
	usage := providers.TokenUsage{
		InputTokens:  int64(u.PromptTokens),
		OutputTokens: int64(u.CompletionTokens),
	}
	if u.PromptTokensDetails != nil {
		usage.CachedInputTokens = int64(u.PromptTokensDetails.CachedTokens)
	}
	if u.CompletionTokensDetails != nil {
		usage.ReasoningTokens = int64(u.CompletionTokensDetails.ReasoningTokens)
	}
	return usage
}

// convertResponse normalizes a chat completion response.
func convertResponse(provider string, resp goopenai.ChatCompletionResponse) (*providers.Response, error) {
	if len(resp.Choices) == 0 {
		return nil, providers.NewParseError(provider, fmt.Errorf("response contains no choices"))
	}

	usage := convertUsage(resp.Usage)
	if err := usage.Validate(); err != nil {
		return nil, providers.NewParseError(provider, err)
	}

	choice := resp.Choices[0]
	return &providers.Response{
		Output:       choice.Message.Content,
		Model:        resp.Model,
		Usage:        usage,
		FinishReason: string(choice.FinishReason),
	}, nil
}

// classifyError turns an SDK error into a classified ProviderError.
func classifyError(provider string, err error) error {
	var apiErr *goopenai.APIError
	if errors.As(err, &apiErr) && apiErr.HTTPStatusCode > 0 {
		return providers.NewStatusError(provider, apiErr.HTTPStatusCode, apiErr.Message, err)
	}

	var reqErr *goopenai.RequestError
	if errors.As(err, &reqErr) && reqErr.HTTPStatusCode > 0 {
		return providers.NewStatusError(provider, reqErr.HTTPStatusCode, string(reqErr.Body), err)
	}

	return providers.NewTransportError(provider, err)
}
