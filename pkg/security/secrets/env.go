package secrets

import (
	"context"
	"fmt"
	"os"
	"sort"
	"strings"
)

// EnvProvider loads secrets from environment variables.
//
// Secret names are converted to uppercase environment variable names
// with hyphens replaced by underscores. An optional prefix namespaces them.
//
// Example:
//   - Secret name: "anthropic-api-key"
//   - Env var name: "ANTHROPIC_API_KEY" (no prefix)
//   - Env var name: "BENCH_ANTHROPIC_API_KEY" (prefix "BENCH_")
type EnvProvider struct {
	Prefix string // Optional prefix for environment variables

	lookup  func(string) (string, bool)
	environ func() []string
}

// NewEnvProvider creates a new environment variable secret provider.
func NewEnvProvider(prefix string) *EnvProvider {
	return &EnvProvider{
		Prefix:  prefix,
		lookup:  os.LookupEnv,
		environ: os.Environ,
	}
}

// GetSecret retrieves a secret from an environment variable.
// An empty or whitespace-only variable counts as absent.
func (p *EnvProvider) GetSecret(ctx context.Context, name string) (string, error) {
	envVar := p.EnvVar(name)

	value, ok := p.lookupEnv(envVar)
	if !ok || strings.TrimSpace(value) == "" {
		return "", fmt.Errorf("%w in environment: %s (env var: %s)", ErrNotFound, name, envVar)
	}

	return strings.TrimSpace(value), nil
}

// ListSecrets returns the names of all non-empty variables ending in _API_KEY
// under the configured prefix. Listing every variable would expose unrelated
// process state, so only credential-shaped names are reported.
func (p *EnvProvider) ListSecrets(ctx context.Context) ([]string, error) {
	var secrets []string

	for _, env := range p.env() {
		name, value, ok := strings.Cut(env, "=")
		if !ok || value == "" {
			continue
		}
		if !strings.HasPrefix(name, p.Prefix) || !strings.HasSuffix(name, "_API_KEY") {
			continue
		}
		secrets = append(secrets, p.envVarToSecretName(name))
	}

	sort.Strings(secrets)
	return secrets, nil
}

// Provider returns the provider name.
func (p *EnvProvider) Provider() string {
	return "env"
}

// Supports always returns true so the environment can act as a fallback.
func (p *EnvProvider) Supports(name string) bool {
	return true
}

// EnvVar returns the environment variable a secret name maps to.
//
// Example: "openai-api-key" -> "OPENAI_API_KEY"
func (p *EnvProvider) EnvVar(name string) string {
	return p.Prefix + strings.ToUpper(strings.ReplaceAll(name, "-", "_"))
}

// envVarToSecretName converts an environment variable name back to a secret name.
//
// Example: "OPENAI_API_KEY" -> "openai-api-key"
func (p *EnvProvider) envVarToSecretName(envVar string) string {
	name := strings.TrimPrefix(envVar, p.Prefix)
	return strings.ToLower(strings.ReplaceAll(name, "_", "-"))
}

func (p *EnvProvider) lookupEnv(key string) (string, bool) {
	if p.lookup == nil {
		return os.LookupEnv(key)
	}
	return p.lookup(key)
}

func (p *EnvProvider) env() []string {
	if p.environ == nil {
		return os.Environ()
	}
	return p.environ()
}
