package logging

import (
	"strings"
	"testing"
)

func TestRedactor_RedactString(t *testing.T) {
	r, err := NewRedactor(nil)
	if err != nil {
		t.Fatalf("NewRedactor() failed: %v", err)
	}

	tests := []struct {
		name  string
		input string
		want  string
	}{
		{
			name:  "openai key",
			input: "key sk-proj-AbCdEf0123456789 rejected",
			want:  "key [REDACTED] rejected",
		},
		{
			name:  "anthropic key",
			input: "sk-ant-api03-abcdefghijk",
			want:  "[REDACTED]",
		},
		{
			name:  "xai key",
			input: "using xai-0123456789abcdef",
			want:  "using [REDACTED]",
		},
		{
			name:  "google key",
			input: "url?key=AIzaSyA1234567890abcdefghijklmno",
			want:  "url?key=[REDACTED]",
		},
		{
			name:  "bearer token",
			input: "Authorization: Bearer abc.def-ghi",
			want:  "Authorization: Bearer [REDACTED]",
		},
		{
			name:  "api key header",
			input: `x-api-key: "hunter2hunter2"`,
			want:  `x-api-key: "[REDACTED]"`,
		},
		{
			name:  "short sk word untouched",
			input: "task-list sk-1",
			want:  "task-list sk-1",
		},
		{
			name:  "plain text untouched",
			input: "input_tokens=1200 output_tokens=300",
			want:  "input_tokens=1200 output_tokens=300",
		},
		{
			name:  "empty",
			input: "",
			want:  "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := r.RedactString(tt.input); got != tt.want {
				t.Errorf("RedactString(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestRedactor_CustomPatterns(t *testing.T) {
	r, err := NewRedactor([]string{`acct-[0-9]{4}`})
	if err != nil {
		t.Fatalf("NewRedactor() failed: %v", err)
	}
	got := r.RedactString("billing acct-1234 and sk-abcdefghijkl")
	if strings.Contains(got, "acct-1234") || strings.Contains(got, "sk-abcdefghijkl") {
		t.Errorf("expected both redacted, got %q", got)
	}

	if _, err := NewRedactor([]string{"[unclosed"}); err == nil {
		t.Error("expected error for invalid pattern")
	}
}

func TestIsSensitiveKey(t *testing.T) {
	tests := []struct {
		key  string
		want bool
	}{
		{key: "api_key", want: true},
		{key: "API_KEY", want: true},
		{key: "Authorization", want: true},
		{key: "token", want: true},
		{key: "output_tokens", want: false},
		{key: "credential", want: false},
		{key: "provider", want: false},
	}

	for _, tt := range tests {
		if got := IsSensitiveKey(tt.key); got != tt.want {
			t.Errorf("IsSensitiveKey(%q) = %v, want %v", tt.key, got, tt.want)
		}
	}
}
