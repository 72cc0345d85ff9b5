package providers

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"
)

// ErrorKind classifies a provider failure for the retry policy.
type ErrorKind string

const (
	// KindTransient marks failures worth retrying (rate limits, 5xx, timeouts).
	KindTransient ErrorKind = "transient"

	// KindFatal marks failures that will not succeed on retry.
	KindFatal ErrorKind = "fatal"
)

// ProviderError represents a failed provider call.
// It includes the provider name, HTTP status code, and underlying error.
type ProviderError struct {
	// Provider is the name of the provider that returned the error
	Provider string

	// Kind is the retry classification
	Kind ErrorKind

	// StatusCode is the HTTP status code (0 if not applicable)
	StatusCode int

	// RetryAfter is the server-suggested wait, when provided
	RetryAfter time.Duration

	// Message is the error message
	Message string

	// Cause is the underlying error (if any)
	Cause error
}

// Error implements the error interface.
func (e *ProviderError) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("provider %q %s error (status %d): %s", e.Provider, e.Kind, e.StatusCode, e.Message)
	}
	if e.Cause != nil && e.Message == "" {
		return fmt.Sprintf("provider %q %s error: %v", e.Provider, e.Kind, e.Cause)
	}
	return fmt.Sprintf("provider %q %s error: %s", e.Provider, e.Kind, e.Message)
}

// Unwrap returns the underlying error for error chain support.
func (e *ProviderError) Unwrap() error {
	return e.Cause
}

// Transient reports whether the failure is worth retrying.
func (e *ProviderError) Transient() bool {
	return e.Kind == KindTransient
}

// ValidationError represents a request or usage validation failure.
type ValidationError struct {
	// Field is the name of the invalid field
	Field string

	// Message describes what is invalid about the field
	Message string
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation error for field %q: %s", e.Field, e.Message)
}

// ConfigError represents a provider configuration error.
// It is raised at setup time, before any call is made.
type ConfigError struct {
	// Provider is the name of the provider with invalid configuration
	Provider string

	// Field is the configuration field that is invalid
	Field string

	// Message describes the configuration error
	Message string
}

// Error implements the error interface.
func (e *ConfigError) Error() string {
	return fmt.Sprintf("provider %q configuration error for field %q: %s",
		e.Provider, e.Field, e.Message)
}

// KindForStatus maps an HTTP status code to a retry classification.
func KindForStatus(status int) ErrorKind {
	switch {
	case status == http.StatusRequestTimeout, status == http.StatusTooManyRequests:
		return KindTransient
	case status >= 500:
		return KindTransient
	default:
		return KindFatal
	}
}

// NewStatusError builds a ProviderError for a non-2xx response.
func NewStatusError(provider string, status int, message string, cause error) *ProviderError {
	return &ProviderError{
		Provider:   provider,
		Kind:       KindForStatus(status),
		StatusCode: status,
		Message:    message,
		Cause:      cause,
	}
}

// NewTransportError classifies a failure that happened before a status was received.
// Deadline expiry and network timeouts are transient; caller cancellation is fatal.
func NewTransportError(provider string, err error) *ProviderError {
	kind := KindFatal
	var netErr net.Error
	switch {
	case errors.Is(err, context.Canceled):
	case errors.Is(err, context.DeadlineExceeded), errors.As(err, &netErr):
		kind = KindTransient
	}
	return &ProviderError{
		Provider: provider,
		Kind:     kind,
		Message:  "request failed",
		Cause:    err,
	}
}

// NewParseError marks a malformed provider response as fatal.
func NewParseError(provider string, err error) *ProviderError {
	return &ProviderError{
		Provider: provider,
		Kind:     KindFatal,
		Message:  "malformed response",
		Cause:    err,
	}
}

// IsTransient reports whether err is a transient provider failure or a network timeout.
func IsTransient(err error) bool {
	if err == nil {
		return false
	}
	var pe *ProviderError
	if errors.As(err, &pe) {
		return pe.Transient()
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}
	return false
}

// ParseRetryAfter parses the Retry-After header value.
// It supports both delay-seconds and HTTP-date formats.
func ParseRetryAfter(header string) time.Duration {
	if header == "" {
		return 0
	}

	var seconds int
	if _, err := fmt.Sscanf(header, "%d", &seconds); err == nil {
		return time.Duration(seconds) * time.Second
	}

	if t, err := http.ParseTime(header); err == nil {
		return time.Until(t)
	}

	return 0
}
