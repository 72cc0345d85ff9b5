package grok

import (
	"context"
	"testing"

	testhelpers "costlab-hq/tokenbench/internal/providers"
	"costlab-hq/tokenbench/pkg/providers"
)

func TestGrokClient_Defaults(t *testing.T) {
	client, err := NewClient(providers.ClientConfig{APIKey: "xai-test"})
	testhelpers.AssertNoError(t, err)
	defer client.Close()

	if client.Name() != providers.Grok {
		t.Errorf("expected name %q, got %q", providers.Grok, client.Name())
	}
	if client.Model() != DefaultModel {
		t.Errorf("expected default model %q, got %q", DefaultModel, client.Model())
	}
	if client.Config().BaseURL != DefaultBaseURL {
		t.Errorf("expected base URL %q, got %q", DefaultBaseURL, client.Config().BaseURL)
	}
}

func TestGrokClient_Call(t *testing.T) {
	mock := testhelpers.NewMockServer()
	defer mock.Close()

	mock.SetResponse("/v1/chat/completions", testhelpers.MockResponse{
		StatusCode: 200,
		Body:       testhelpers.MockOpenAIResponse("hello", "grok-4-0709", 150, 128, 1, 320),
	})

	client, err := NewClient(testhelpers.TestConfigWithURL("grok", "grok-4", mock.URL()+"/v1"))
	testhelpers.AssertNoError(t, err)
	defer client.Close()

	resp, err := client.Call(context.Background(), &providers.Request{UserPrompt: "hello"})
	testhelpers.AssertNoError(t, err)

	testhelpers.AssertUsage(t, resp.Usage, providers.TokenUsage{
		InputTokens:       150,
		CachedInputTokens: 128,
		OutputTokens:      1,
		ReasoningTokens:   320,
	})
}
