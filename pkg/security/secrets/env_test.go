package secrets

import (
	"context"
	"errors"
	"testing"
)

func TestEnvProvider_GetSecret(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", " sk-test ")

	provider := NewEnvProvider("")

	value, err := provider.GetSecret(context.Background(), "openai-api-key")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if value != "sk-test" {
		t.Errorf("expected trimmed value 'sk-test', got %q", value)
	}
}

func TestEnvProvider_GetSecret_NotFound(t *testing.T) {
	t.Setenv("GROK_API_KEY", "   ")

	provider := NewEnvProvider("")

	for _, name := range []string{"nonexistent-api-key", "grok-api-key"} {
		_, err := provider.GetSecret(context.Background(), name)
		if !errors.Is(err, ErrNotFound) {
			t.Errorf("%s: expected ErrNotFound, got %v", name, err)
		}
	}
}

func TestEnvProvider_EnvVar(t *testing.T) {
	tests := []struct {
		prefix string
		secret string
		want   string
	}{
		{"", "openai-api-key", "OPENAI_API_KEY"},
		{"", "gemini-api-key", "GEMINI_API_KEY"},
		{"BENCH_", "anthropic-api-key", "BENCH_ANTHROPIC_API_KEY"},
		{"", "my_secret", "MY_SECRET"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			p := NewEnvProvider(tt.prefix)
			if got := p.EnvVar(tt.secret); got != tt.want {
				t.Errorf("EnvVar(%q) = %q, want %q", tt.secret, got, tt.want)
			}
		})
	}
}

func TestEnvProvider_ListSecrets(t *testing.T) {
	provider := &EnvProvider{
		Prefix: "BENCH_",
		environ: func() []string {
			return []string{
				"BENCH_OPENAI_API_KEY=sk-1",
				"BENCH_GROK_API_KEY=xai-2",
				"BENCH_EMPTY_API_KEY=",
				"BENCH_LOG_LEVEL=debug",
				"OPENAI_API_KEY=sk-3",
				"PATH=/usr/bin",
			}
		},
	}

	names, err := provider.ListSecrets(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(names) != 2 || names[0] != "grok-api-key" || names[1] != "openai-api-key" {
		t.Errorf("expected [grok-api-key openai-api-key], got %v", names)
	}
}

func TestEnvProvider_InjectedLookup(t *testing.T) {
	provider := &EnvProvider{
		lookup: func(key string) (string, bool) {
			if key == "ANTHROPIC_API_KEY" {
				return "sk-ant-x", true
			}
			return "", false
		},
	}

	if v, err := provider.GetSecret(context.Background(), "anthropic-api-key"); err != nil || v != "sk-ant-x" {
		t.Errorf("expected injected value, got %q (%v)", v, err)
	}
}

func TestEnvProvider_ProviderAndSupports(t *testing.T) {
	provider := NewEnvProvider("")
	if provider.Provider() != "env" {
		t.Errorf("expected provider name 'env', got %q", provider.Provider())
	}
	if !provider.Supports("anything") {
		t.Error("env provider should support every name")
	}
}

func TestIsPlaceholder(t *testing.T) {
	tests := []struct {
		value string
		want  bool
	}{
		{"your-openai-api-key", true},
		{"YOUR_API_KEY", true},
		{"  your-key  ", true},
		{"changeme", true},
		{"sk-proj-abc", false},
		{"xai-123", false},
		{"", false},
	}

	for _, tt := range tests {
		if got := IsPlaceholder(tt.value); got != tt.want {
			t.Errorf("IsPlaceholder(%q) = %v, want %v", tt.value, got, tt.want)
		}
	}
}
