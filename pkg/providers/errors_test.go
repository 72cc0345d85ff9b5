package providers

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strings"
	"testing"
	"time"
)

func TestProviderError(t *testing.T) {
	t.Run("with status code", func(t *testing.T) {
		err := &ProviderError{
			Provider:   "openai",
			Kind:       KindTransient,
			StatusCode: 500,
			Message:    "internal error",
		}

		expected := `provider "openai" transient error (status 500): internal error`
		if err.Error() != expected {
			t.Errorf("expected %q, got %q", expected, err.Error())
		}
	})

	t.Run("without status code", func(t *testing.T) {
		err := &ProviderError{
			Provider: "gemini",
			Kind:     KindFatal,
			Message:  "connection failed",
		}

		expected := `provider "gemini" fatal error: connection failed`
		if err.Error() != expected {
			t.Errorf("expected %q, got %q", expected, err.Error())
		}
	})

	t.Run("with cause", func(t *testing.T) {
		cause := errors.New("network timeout")
		err := &ProviderError{
			Provider: "openai",
			Message:  "request failed",
			Cause:    cause,
		}

		if !errors.Is(err, cause) {
			t.Error("expected error to wrap cause")
		}
	})

	t.Run("found through wrapping", func(t *testing.T) {
		wrapped := fmt.Errorf("call: %w", &ProviderError{Provider: "grok", Kind: KindTransient})
		var pe *ProviderError
		if !errors.As(wrapped, &pe) {
			t.Fatal("expected errors.As to find ProviderError")
		}
		if pe.Provider != "grok" {
			t.Errorf("expected provider grok, got %q", pe.Provider)
		}
	})
}

func TestKindForStatus(t *testing.T) {
	tests := []struct {
		status int
		want   ErrorKind
	}{
		{400, KindFatal},
		{401, KindFatal},
		{403, KindFatal},
		{404, KindFatal},
		{408, KindTransient},
		{422, KindFatal},
		{429, KindTransient},
		{500, KindTransient},
		{502, KindTransient},
		{503, KindTransient},
		{529, KindTransient},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("status %d", tt.status), func(t *testing.T) {
			if got := KindForStatus(tt.status); got != tt.want {
				t.Errorf("KindForStatus(%d) = %q, want %q", tt.status, got, tt.want)
			}
		})
	}
}

type timeoutErr struct{}

func (timeoutErr) Error() string   { return "i/o timeout" }
func (timeoutErr) Timeout() bool   { return true }
func (timeoutErr) Temporary() bool { return true }

var _ net.Error = timeoutErr{}

func TestNewTransportError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want ErrorKind
	}{
		{"deadline exceeded", context.DeadlineExceeded, KindTransient},
		{"canceled", context.Canceled, KindFatal},
		{"net timeout", timeoutErr{}, KindTransient},
		{"wrapped net timeout", fmt.Errorf("dial: %w", timeoutErr{}), KindTransient},
		{"plain error", errors.New("boom"), KindFatal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			perr := NewTransportError("openai", tt.err)
			if perr.Kind != tt.want {
				t.Errorf("expected kind %q, got %q", tt.want, perr.Kind)
			}
			if !errors.Is(perr, tt.err) {
				t.Error("expected transport error to wrap cause")
			}
		})
	}
}

func TestIsTransient(t *testing.T) {
	if IsTransient(nil) {
		t.Error("nil must not be transient")
	}
	if !IsTransient(NewStatusError("openai", 503, "unavailable", nil)) {
		t.Error("503 should be transient")
	}
	if IsTransient(NewStatusError("openai", 401, "bad key", nil)) {
		t.Error("401 should be fatal")
	}
	if !IsTransient(timeoutErr{}) {
		t.Error("bare net timeout should be transient")
	}
	if IsTransient(errors.New("unknown")) {
		t.Error("unclassified errors should be fatal")
	}
}

func TestConfigError(t *testing.T) {
	err := &ConfigError{
		Provider: "anthropic",
		Field:    "api_key",
		Message:  "api_key is required",
	}

	errStr := err.Error()
	if !strings.Contains(errStr, "anthropic") || !strings.Contains(errStr, "api_key") {
		t.Errorf("expected provider and field in error, got %q", errStr)
	}
}

func TestParseRetryAfter(t *testing.T) {
	if got := ParseRetryAfter(""); got != 0 {
		t.Errorf("expected 0 for empty header, got %s", got)
	}
	if got := ParseRetryAfter("7"); got != 7*time.Second {
		t.Errorf("expected 7s, got %s", got)
	}
	if got := ParseRetryAfter("soon"); got != 0 {
		t.Errorf("expected 0 for garbage, got %s", got)
	}
}
