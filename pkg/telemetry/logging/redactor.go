package logging

import (
	"fmt"
	"regexp"
	"strings"
)

// Redacted replaces every secret match.
const Redacted = "[REDACTED]"

// Redactor masks provider credentials in log messages and attribute values.
type Redactor struct {
	patterns []*redactPattern
}

// redactPattern contains a compiled regex and replacement string.
type redactPattern struct {
	name        string
	regex       *regexp.Regexp
	replacement string
}

// Built-in pattern names.
const (
	PatternAnthropicKey = "anthropic_key"
	PatternOpenAIKey    = "openai_key"
	PatternXAIKey       = "xai_key"
	PatternGoogleKey    = "google_key"
	PatternBearerToken  = "bearer_token"
	PatternAPIKeyHeader = "api_key_header"
)

// Patterns are applied in order; the Anthropic prefix must run before the
// generic sk- one.
var defaultPatterns = []struct {
	name        string
	regex       string
	replacement string
}{
	{
		name:        PatternAnthropicKey,
		regex:       `sk-ant-[A-Za-z0-9_\-]{8,}`,
		replacement: Redacted,
	},
	{
		name:        PatternOpenAIKey,
		regex:       `sk-[A-Za-z0-9_\-]{8,}`,
		replacement: Redacted,
	},
	{
		name:        PatternXAIKey,
		regex:       `xai-[A-Za-z0-9_\-]{8,}`,
		replacement: Redacted,
	},
	{
		name:        PatternGoogleKey,
		regex:       `AIza[0-9A-Za-z_\-]{20,}`,
		replacement: Redacted,
	},
	{
		name:        PatternBearerToken,
		regex:       `(?i)(bearer\s+)[A-Za-z0-9\-._~+/]+=*`,
		replacement: "${1}" + Redacted,
	},
	{
		name:        PatternAPIKeyHeader,
		regex:       `(?i)((?:x-api-key|x-goog-api-key|api[-_]?key)["']?\s*[:=]\s*["']?)[^\s"',&]+`,
		replacement: "${1}" + Redacted,
	},
}

// sensitiveKeys are attribute keys whose values are always masked.
var sensitiveKeys = map[string]bool{
	"api_key":       true,
	"apikey":        true,
	"secret":        true,
	"secret_value":  true,
	"password":      true,
	"authorization": true,
	"token":         true,
	"access_token":  true,
	"x-api-key":     true,
}

// NewRedactor creates a Redactor with the built-in patterns plus extra
// regular expressions, whose matches are replaced with [REDACTED].
func NewRedactor(extra []string) (*Redactor, error) {
	r := &Redactor{}

	for _, p := range defaultPatterns {
		r.patterns = append(r.patterns, &redactPattern{
			name:        p.name,
			regex:       regexp.MustCompile(p.regex),
			replacement: p.replacement,
		})
	}

	for i, expr := range extra {
		regex, err := regexp.Compile(expr)
		if err != nil {
			return nil, fmt.Errorf("invalid redact pattern %d: %w", i, err)
		}
		r.patterns = append(r.patterns, &redactPattern{
			name:        fmt.Sprintf("custom_%d", i),
			regex:       regex,
			replacement: Redacted,
		})
	}

	return r, nil
}

// RedactString masks every secret-looking substring of value.
func (r *Redactor) RedactString(value string) string {
	if value == "" {
		return value
	}

	redacted := value
	for _, pattern := range r.patterns {
		redacted = pattern.regex.ReplaceAllString(redacted, pattern.replacement)
	}
	return redacted
}

// IsSensitiveKey reports whether values under key are masked entirely.
func IsSensitiveKey(key string) bool {
	return sensitiveKeys[strings.ToLower(key)]
}
