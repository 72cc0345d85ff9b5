package providerfactory

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"costlab-hq/tokenbench/pkg/config"
	"costlab-hq/tokenbench/pkg/providers"
	"costlab-hq/tokenbench/pkg/security/secrets"
)

// SecretSource resolves a credential name to its value.
// *secrets.Manager satisfies it.
type SecretSource interface {
	GetSecret(ctx context.Context, name string) (string, error)
}

// BuildFunc constructs a client for a normalized provider id.
type BuildFunc func(id string, pc config.ProviderConfig, apiKey string) (providers.Client, error)

// Factory resolves provider ids to ready clients.
// Clients are built once per id and reused until Close.
//
// Factory is thread-safe and can be used concurrently.
type Factory struct {
	providers map[string]config.ProviderConfig
	secrets   SecretSource
	build     BuildFunc
	logger    *slog.Logger

	mu      sync.Mutex
	clients map[string]providers.Client
}

// Option configures a Factory.
type Option func(*Factory)

// WithBuilder replaces client construction, typically with fakes in tests.
func WithBuilder(build BuildFunc) Option {
	return func(f *Factory) {
		f.build = build
	}
}

// WithLogger sets the factory logger.
func WithLogger(logger *slog.Logger) Option {
	return func(f *Factory) {
		f.logger = logger
	}
}

// New creates a factory over the configured providers.
func New(cfgs map[string]config.ProviderConfig, source SecretSource, opts ...Option) *Factory {
	f := &Factory{
		providers: make(map[string]config.ProviderConfig, len(cfgs)),
		secrets:   source,
		build:     NewClient,
		logger:    slog.Default().With("component", "providerfactory"),
		clients:   make(map[string]providers.Client),
	}
	for name, pc := range cfgs {
		f.providers[config.NormalizeProvider(name)] = pc
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// GetClient returns the client for a provider id. The id is trimmed and
// lowercased. A ConfigError is returned when the id is unsupported or
// unconfigured, or when its credential is missing, empty or a placeholder.
func (f *Factory) GetClient(ctx context.Context, id string) (providers.Client, error) {
	id = config.NormalizeProvider(id)

	f.mu.Lock()
	defer f.mu.Unlock()

	if client, ok := f.clients[id]; ok {
		return client, nil
	}

	pc, err := f.lookup(id)
	if err != nil {
		return nil, err
	}

	apiKey, err := f.credential(ctx, id, pc)
	if err != nil {
		return nil, err
	}

	client, err := f.build(id, pc, apiKey)
	if err != nil {
		return nil, err
	}
	f.clients[id] = client

	f.logger.Info("provider client ready",
		"provider", id,
		"model", client.Model(),
		"total_clients", len(f.clients),
	)

	return client, nil
}

// AvailableProviders returns the supported ids that are also configured,
// in canonical order.
func (f *Factory) AvailableProviders() []string {
	var out []string
	for _, id := range providers.KnownProviders {
		if _, ok := f.providers[id]; ok {
			out = append(out, id)
		}
	}
	return out
}

// ValidateProviders normalizes and deduplicates ids, preserving first
// occurrence order, and rejects any id the factory cannot serve.
func (f *Factory) ValidateProviders(ids []string) ([]string, error) {
	seen := make(map[string]bool, len(ids))
	out := make([]string, 0, len(ids))
	for _, raw := range ids {
		id := config.NormalizeProvider(raw)
		if seen[id] {
			continue
		}
		if _, err := f.lookup(id); err != nil {
			return nil, err
		}
		seen[id] = true
		out = append(out, id)
	}
	if len(out) == 0 {
		return nil, &providers.ConfigError{
			Field:   "providers",
			Message: "at least one provider is required",
		}
	}
	return out, nil
}

// CredentialStatus describes whether a provider has a usable key.
type CredentialStatus struct {
	Provider   string `json:"provider"`
	Credential string `json:"credential"`
	Present    bool   `json:"present"`
	Reason     string `json:"reason,omitempty"`
}

// CredentialReport checks every available provider's credential without
// building clients. Values are never included.
func (f *Factory) CredentialReport(ctx context.Context) []CredentialStatus {
	ids := f.AvailableProviders()
	report := make([]CredentialStatus, 0, len(ids))
	for _, id := range ids {
		pc := f.providers[id]
		status := CredentialStatus{Provider: id, Credential: credentialName(id, pc)}
		if _, err := f.credential(ctx, id, pc); err != nil {
			var cfgErr *providers.ConfigError
			if errors.As(err, &cfgErr) {
				status.Reason = cfgErr.Message
			} else {
				status.Reason = err.Error()
			}
		} else {
			status.Present = true
		}
		report = append(report, status)
	}
	return report
}

// Close closes all built clients.
func (f *Factory) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()

	var errs []error
	for id, client := range f.clients {
		if err := client.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close provider %q: %w", id, err))
		}
	}
	f.clients = make(map[string]providers.Client)

	return errors.Join(errs...)
}

func (f *Factory) lookup(id string) (config.ProviderConfig, error) {
	known := false
	for _, k := range providers.KnownProviders {
		if k == id {
			known = true
			break
		}
	}
	if !known {
		return config.ProviderConfig{}, unknownProviderError(id)
	}

	pc, ok := f.providers[id]
	if !ok {
		return config.ProviderConfig{}, &providers.ConfigError{
			Provider: id,
			Field:    "provider",
			Message:  "provider is not configured",
		}
	}
	return pc, nil
}

// credential resolves the key: a non-blank inline api_key wins, otherwise the
// named credential is read from the secret source. Surrounding whitespace is
// never part of a key.
func (f *Factory) credential(ctx context.Context, id string, pc config.ProviderConfig) (string, error) {
	name := credentialName(id, pc)

	if inline := strings.TrimSpace(pc.APIKey); inline != "" {
		if secrets.IsPlaceholder(inline) {
			return "", &providers.ConfigError{
				Provider: id,
				Field:    "api_key",
				Message:  "inline api_key is a placeholder",
			}
		}
		return inline, nil
	}

	if f.secrets == nil {
		return "", &providers.ConfigError{
			Provider: id,
			Field:    "api_key",
			Message:  fmt.Sprintf("no secret source configured for credential %q", name),
		}
	}

	value, err := f.secrets.GetSecret(ctx, name)
	value = strings.TrimSpace(value)
	switch {
	case errors.Is(err, secrets.ErrPlaceholder), err == nil && secrets.IsPlaceholder(value):
		return "", &providers.ConfigError{
			Provider: id,
			Field:    "api_key",
			Message:  fmt.Sprintf("credential %q is a placeholder", name),
		}
	case err != nil, value == "":
		return "", &providers.ConfigError{
			Provider: id,
			Field:    "api_key",
			Message:  fmt.Sprintf("credential %q is missing or empty", name),
		}
	}
	return value, nil
}

func credentialName(id string, pc config.ProviderConfig) string {
	if pc.Credential != "" {
		return pc.Credential
	}
	return config.DefaultCredentialFor(id)
}
