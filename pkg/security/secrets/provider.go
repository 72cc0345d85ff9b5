package secrets

import (
	"context"
	"errors"
	"strings"
)

// ErrNotFound is returned (wrapped) when a source has no value for a name.
var ErrNotFound = errors.New("secret not found")

// ErrPlaceholder is returned (wrapped) when a value is a template placeholder
// such as "your-openai-api-key" left over from an example file.
var ErrPlaceholder = errors.New("secret is a placeholder")

// SecretProvider retrieves credentials from one backend.
//
// Implementations read from environment variables or a directory of files.
// A Manager chains them with first-match-wins fallback.
type SecretProvider interface {
	// GetSecret retrieves a secret by name.
	// Returns an error wrapping ErrNotFound if the secret is absent.
	GetSecret(ctx context.Context, name string) (string, error)

	// ListSecrets returns all secret names available from this provider.
	// Values are never included.
	ListSecrets(ctx context.Context) ([]string, error)

	// Provider returns the provider name (env, file).
	Provider() string

	// Supports indicates if this provider may hold the given secret name.
	Supports(name string) bool
}

// RefreshableProvider can reload secrets without restart.
type RefreshableProvider interface {
	SecretProvider

	// Refresh drops cached values so the next read goes to the backend.
	Refresh(ctx context.Context) error
}

// IsPlaceholder reports whether value looks like an unfilled template value.
func IsPlaceholder(value string) bool {
	v := strings.ToLower(strings.TrimSpace(value))
	return strings.HasPrefix(v, "your-") || strings.HasPrefix(v, "your_") || v == "changeme"
}
