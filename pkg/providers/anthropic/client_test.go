package anthropic

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	testhelpers "costlab-hq/tokenbench/internal/providers"
	"costlab-hq/tokenbench/pkg/providers"
)

func newTestClient(t *testing.T, mock *testhelpers.MockServer, opts ...Option) *Client {
	t.Helper()
	client, err := NewClient(testhelpers.TestConfigWithURL("anthropic", "claude-sonnet-4-20250514", mock.URL()), opts...)
	testhelpers.AssertNoError(t, err)
	t.Cleanup(func() { _ = client.Close() })
	return client
}

func TestAnthropicClient_Call(t *testing.T) {
	mock := testhelpers.NewMockServer()
	defer mock.Close()

	mock.SetResponse("/v1/messages", testhelpers.MockResponse{
		StatusCode: 200,
		Body:       testhelpers.MockAnthropicResponse("hello", "claude-sonnet-4-20250514", 10, 1500, 500, 2),
	})

	client := newTestClient(t, mock)

	resp, err := client.Call(context.Background(), &providers.Request{UserPrompt: "say hello"})
	testhelpers.AssertNoError(t, err)

	if resp.Output != "hello" {
		t.Errorf("expected output %q, got %q", "hello", resp.Output)
	}
	if resp.FinishReason != "end_turn" {
		t.Errorf("expected end_turn, got %q", resp.FinishReason)
	}
	testhelpers.AssertUsage(t, resp.Usage, providers.TokenUsage{
		InputTokens:       2010,
		CachedInputTokens: 2000,
		CacheWriteTokens:  1500,
		OutputTokens:      2,
	})

	recorded, _ := mock.LastRequest()
	if got := recorded.Headers.Get("x-api-key"); got != "test-key" {
		t.Errorf("expected x-api-key header, got %q", got)
	}
	if got := recorded.Headers.Get("anthropic-version"); got != DefaultAnthropicVersion {
		t.Errorf("expected anthropic-version %q, got %q", DefaultAnthropicVersion, got)
	}
}

func TestAnthropicClient_CacheControl(t *testing.T) {
	tests := []struct {
		name    string
		mode    providers.CacheMode
		wantTTL string
		cached  bool
	}{
		{name: "no caching", mode: providers.CacheModeNone},
		{name: "ephemeral", mode: providers.CacheModeEphemeral, cached: true},
		{name: "persistent", mode: providers.CacheModePersistent, cached: true, wantTTL: "1h"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mock := testhelpers.NewMockServer()
			defer mock.Close()
			mock.SetResponse("/v1/messages", testhelpers.MockResponse{
				StatusCode: 200,
				Body:       testhelpers.MockAnthropicResponse("ok", "claude-sonnet-4-20250514", 5, 0, 0, 1),
			})

			client := newTestClient(t, mock, WithCacheMode(tt.mode))
			_, err := client.Call(context.Background(), &providers.Request{
				SystemPrompt: "long shared context",
				UserPrompt:   "hi",
			})
			testhelpers.AssertNoError(t, err)

			recorded, _ := mock.LastRequest()
			var body struct {
				System []struct {
					Text         string `json:"text"`
					CacheControl *struct {
						Type string `json:"type"`
						TTL  string `json:"ttl"`
					} `json:"cache_control"`
				} `json:"system"`
			}
			if err := json.Unmarshal(recorded.Body, &body); err != nil {
				t.Fatalf("failed to decode request: %v", err)
			}
			if len(body.System) != 1 {
				t.Fatalf("expected one system block, got %d", len(body.System))
			}

			cc := body.System[0].CacheControl
			if !tt.cached {
				if cc != nil {
					t.Errorf("expected no cache_control, got %+v", cc)
				}
				return
			}
			if cc == nil || cc.Type != "ephemeral" {
				t.Fatalf("expected ephemeral cache_control, got %+v", cc)
			}
			if tt.wantTTL != "" && cc.TTL != tt.wantTTL {
				t.Errorf("expected ttl %q, got %q", tt.wantTTL, cc.TTL)
			}
		})
	}
}

func TestAnthropicClient_ErrorClassification(t *testing.T) {
	tests := []struct {
		name     string
		response testhelpers.MockResponse
		wantKind providers.ErrorKind
	}{
		{"auth", testhelpers.MockAuthError(), providers.KindFatal},
		{"rate limit", testhelpers.MockRateLimitError(0), providers.KindTransient},
		{"overloaded", testhelpers.MockErrorResponse(529, "overloaded"), providers.KindTransient},
		{"invalid request", testhelpers.MockErrorResponse(400, "bad"), providers.KindFatal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mock := testhelpers.NewMockServer()
			defer mock.Close()
			mock.SetResponse("/v1/messages", tt.response)

			client := newTestClient(t, mock)
			_, err := client.Call(context.Background(), &providers.Request{UserPrompt: "hi"})
			testhelpers.AssertErrorKind(t, err, tt.wantKind)

			if got := mock.GetRequestCount(); got != 1 {
				t.Errorf("expected SDK retries to be disabled, got %d requests", got)
			}
		})
	}
}

func TestAnthropicClient_RetryAfterKept(t *testing.T) {
	mock := testhelpers.NewMockServer()
	defer mock.Close()
	mock.SetResponse("/v1/messages", testhelpers.MockRateLimitError(7))

	client := newTestClient(t, mock)
	_, err := client.Call(context.Background(), &providers.Request{UserPrompt: "hi"})

	perr := testhelpers.AssertErrorKind(t, err, providers.KindTransient)
	if perr.StatusCode != 429 {
		t.Errorf("expected status 429, got %d", perr.StatusCode)
	}
	if perr.RetryAfter != 7*time.Second {
		t.Errorf("expected retry after 7s, got %v", perr.RetryAfter)
	}
}

func TestNewClient_Validation(t *testing.T) {
	if _, err := NewClient(providers.ClientConfig{}); err == nil {
		t.Error("expected error for missing api key")
	}

	_, err := NewClient(providers.ClientConfig{APIKey: "k"}, WithCacheMode("forever"))
	if _, ok := err.(*providers.ConfigError); !ok {
		t.Errorf("expected ConfigError for unknown cache mode, got %T: %v", err, err)
	}
}
