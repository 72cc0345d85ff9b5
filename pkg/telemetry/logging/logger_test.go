package logging

import (
	"bytes"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"testing"

	"costlab-hq/tokenbench/pkg/config"
)

func TestNew_Formats(t *testing.T) {
	tests := []struct {
		format   string
		contains string
		noTime   bool
	}{
		{format: "json", contains: `"msg":"hello"`},
		{format: "text", contains: "msg=hello"},
		{format: "", contains: "msg=hello"},
		{format: "console", contains: "msg=hello", noTime: true},
	}

	for _, tt := range tests {
		t.Run(tt.format, func(t *testing.T) {
			var buf bytes.Buffer
			logger, err := New(config.LoggingConfig{Level: "info", Format: tt.format}, &buf)
			if err != nil {
				t.Fatalf("New() failed: %v", err)
			}

			logger.Info("hello", "provider", "openai")

			out := buf.String()
			if !strings.Contains(out, tt.contains) {
				t.Errorf("expected %q in %q", tt.contains, out)
			}
			if tt.noTime && strings.Contains(out, "time=") {
				t.Errorf("expected no timestamp in console output: %q", out)
			}
		})
	}
}

func TestNew_Level(t *testing.T) {
	var buf bytes.Buffer
	logger, err := New(config.LoggingConfig{Level: "warn"}, &buf)
	if err != nil {
		t.Fatalf("New() failed: %v", err)
	}

	logger.Info("dropped")
	logger.Warn("kept")

	if strings.Contains(buf.String(), "dropped") {
		t.Error("expected info message to be filtered")
	}
	if !strings.Contains(buf.String(), "kept") {
		t.Error("expected warn message to be written")
	}
}

func TestNew_InvalidConfig(t *testing.T) {
	tests := []struct {
		name string
		cfg  config.LoggingConfig
	}{
		{name: "level", cfg: config.LoggingConfig{Level: "verbose"}},
		{name: "format", cfg: config.LoggingConfig{Format: "xml"}},
		{name: "pattern", cfg: config.LoggingConfig{RedactPatterns: []string{"("}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := New(tt.cfg, &bytes.Buffer{}); err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestNew_RedactsSecrets(t *testing.T) {
	var buf bytes.Buffer
	logger, err := New(config.LoggingConfig{
		Format:         "json",
		RedactPatterns: []string{`internal-[0-9]+`},
	}, &buf)
	if err != nil {
		t.Fatalf("New() failed: %v", err)
	}

	logger.With("api_key", "plain-value").Info("request sent with sk-proj-abcdef123456",
		"error", errors.New("401: invalid x-api-key: sk-ant-api03-secretsecret"),
		"detail", "ticket internal-42",
		"usage", slog.GroupValue(slog.String("token", "abc"), slog.Int("output_tokens", 12)),
	)

	out := buf.String()
	for _, secret := range []string{"plain-value", "sk-proj-abcdef123456", "sk-ant-api03-secretsecret", "internal-42"} {
		if strings.Contains(out, secret) {
			t.Errorf("secret %q leaked: %s", secret, out)
		}
	}

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("invalid JSON log: %v", err)
	}
	if entry["api_key"] != Redacted {
		t.Errorf("expected api_key redacted, got %v", entry["api_key"])
	}
	usage, ok := entry["usage"].(map[string]any)
	if !ok {
		t.Fatalf("expected usage group, got %v", entry["usage"])
	}
	if usage["token"] != Redacted {
		t.Errorf("expected nested token redacted, got %v", usage["token"])
	}
	if usage["output_tokens"] != float64(12) {
		t.Errorf("expected output_tokens kept, got %v", usage["output_tokens"])
	}
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want slog.Level
	}{
		{in: "debug", want: slog.LevelDebug},
		{in: "INFO", want: slog.LevelInfo},
		{in: "", want: slog.LevelInfo},
		{in: "warning", want: slog.LevelWarn},
		{in: "error", want: slog.LevelError},
	}

	for _, tt := range tests {
		got, err := ParseLevel(tt.in)
		if err != nil {
			t.Errorf("ParseLevel(%q) failed: %v", tt.in, err)
		}
		if got != tt.want {
			t.Errorf("ParseLevel(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}
