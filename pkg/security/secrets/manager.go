package secrets

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"

	"costlab-hq/tokenbench/pkg/config"
)

// Manager chains secret providers with first-match-wins fallback.
// Values are never logged; names are redacted in debug output.
type Manager struct {
	providers []SecretProvider
	logger    *slog.Logger
}

// NewManager creates a manager that tries providers in the given order.
func NewManager(providers ...SecretProvider) *Manager {
	return &Manager{
		providers: providers,
		logger:    slog.Default().With("component", "secrets"),
	}
}

// NewFromConfig builds the manager described by the secrets configuration.
// The file source falls back to the environment for names it does not hold.
func NewFromConfig(cfg config.SecretsConfig) (*Manager, error) {
	env := NewEnvProvider(cfg.EnvPrefix)

	switch cfg.Source {
	case "", "env":
		return NewManager(env), nil
	case "file":
		file, err := NewFileProvider(cfg.Path, true)
		if err != nil {
			return nil, err
		}
		return NewManager(file, env), nil
	default:
		return nil, fmt.Errorf("unknown secrets source %q", cfg.Source)
	}
}

// GetSecret returns the first non-placeholder value any provider holds for name.
// A placeholder is treated as absent and reported with ErrPlaceholder so the
// caller can explain what to fix.
func (m *Manager) GetSecret(ctx context.Context, name string) (string, error) {
	var lastErr error
	for _, provider := range m.providers {
		if !provider.Supports(name) {
			continue
		}

		value, err := provider.GetSecret(ctx, name)
		if err != nil {
			lastErr = err
			m.logger.Debug("provider has no value",
				"provider", provider.Provider(),
				"name", redactSecretName(name),
			)
			continue
		}

		if IsPlaceholder(value) {
			lastErr = fmt.Errorf("%w: %s from %s", ErrPlaceholder, name, provider.Provider())
			continue
		}

		m.logger.Debug("secret resolved",
			"provider", provider.Provider(),
			"name", redactSecretName(name),
		)
		return value, nil
	}

	if lastErr != nil {
		return "", fmt.Errorf("failed to get secret %q: %w", name, lastErr)
	}
	return "", fmt.Errorf("failed to get secret %q: %w", name, ErrNotFound)
}

// Present reports whether name resolves to a usable value without returning it.
func (m *Manager) Present(ctx context.Context, name string) bool {
	_, err := m.GetSecret(ctx, name)
	return err == nil
}

// Refresh reloads all refreshable providers.
func (m *Manager) Refresh(ctx context.Context) error {
	var errs []error
	for _, provider := range m.providers {
		refreshable, ok := provider.(RefreshableProvider)
		if !ok {
			continue
		}
		if err := refreshable.Refresh(ctx); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", provider.Provider(), err))
		}
	}
	return errors.Join(errs...)
}

// ListSecrets returns the union of secret names across providers.
func (m *Manager) ListSecrets(ctx context.Context) ([]string, error) {
	seen := make(map[string]bool)
	for _, provider := range m.providers {
		names, err := provider.ListSecrets(ctx)
		if err != nil {
			m.logger.Warn("failed to list secrets", "provider", provider.Provider(), "error", err)
			continue
		}
		for _, name := range names {
			seen[name] = true
		}
	}

	names := make([]string, 0, len(seen))
	for name := range seen {
		names = append(names, name)
	}
	sort.Strings(names)
	return names, nil
}

// Sources returns the provider names in lookup order.
func (m *Manager) Sources() []string {
	out := make([]string, len(m.providers))
	for i, p := range m.providers {
		out[i] = p.Provider()
	}
	return out
}

// Close releases provider resources such as file watchers.
func (m *Manager) Close() error {
	var errs []error
	for _, p := range m.providers {
		if c, ok := p.(interface{ Close() error }); ok {
			if err := c.Close(); err != nil {
				errs = append(errs, err)
			}
		}
	}
	return errors.Join(errs...)
}

// redactSecretName shortens a name for logs.
func redactSecretName(name string) string {
	if len(name) <= 4 {
		return "***"
	}
	return name[:2] + "..." + name[len(name)-2:]
}

