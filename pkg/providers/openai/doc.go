// Package openai implements the OpenAI provider variant on top of
// github.com/sashabaranov/go-openai.
//
// Usage mapping:
//
//	input     = usage.prompt_tokens
//	cached    = usage.prompt_tokens_details.cached_tokens
//	output    = usage.completion_tokens
//	reasoning = usage.completion_tokens_details.reasoning_tokens
//
// # Basic Usage
//
//	client, err := openai.NewClient(providers.ClientConfig{
//	    APIKey: key,
//	    Model:  "gpt-4o",
//	})
//	if err != nil {
//	    return err
//	}
//	defer client.Close()
//
//	resp, err := client.Call(ctx, &providers.Request{UserPrompt: "hello"})
//
// NewCompatibleClient serves other OpenAI-compatible APIs (grok uses it).
package openai
