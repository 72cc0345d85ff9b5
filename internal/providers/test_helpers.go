package providers

import (
	"errors"
	"testing"
	"time"

	"costlab-hq/tokenbench/pkg/providers"
)

// TestConfig returns a client configuration for tests.
func TestConfig(name, model string) providers.ClientConfig {
	return providers.ClientConfig{
		Name:            name,
		Model:           model,
		BaseURL:         "http://localhost:8080",
		APIKey:          "test-key",
		Timeout:         5 * time.Second,
		MaxTokens:       64,
		MaxIdleConns:    2,
		IdleConnTimeout: 30 * time.Second,
	}
}

// TestConfigWithURL returns a test config with a specific base URL.
func TestConfigWithURL(name, model, baseURL string) providers.ClientConfig {
	config := TestConfig(name, model)
	config.BaseURL = baseURL
	return config
}

// AssertNoError fails the test if err is not nil.
func AssertNoError(t *testing.T, err error) {
	t.Helper()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

// AssertErrorKind fails the test unless err is a ProviderError of the given kind.
func AssertErrorKind(t *testing.T, err error, kind providers.ErrorKind) *providers.ProviderError {
	t.Helper()
	if err == nil {
		t.Fatal("expected error, got nil")
	}
	var perr *providers.ProviderError
	if !errors.As(err, &perr) {
		t.Fatalf("expected ProviderError, got %T: %v", err, err)
	}
	if perr.Kind != kind {
		t.Fatalf("expected %s error, got %s: %v", kind, perr.Kind, err)
	}
	return perr
}

// AssertUsage fails the test if the usage differs from expected.
func AssertUsage(t *testing.T, got, expected providers.TokenUsage) {
	t.Helper()
	if got != expected {
		t.Fatalf("usage mismatch:\nexpected: %+v\nactual:   %+v", expected, got)
	}
}
