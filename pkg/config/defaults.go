package config

import (
	"fmt"
	"time"
)

// Default values for configuration fields.
const (
	// Experiment defaults
	DefaultUserPrompt     = "Give me the word 'hello' without any puncuation or any other characters"
	DefaultTrials         = 3
	DefaultMaxConcurrency = 4

	// Provider defaults
	DefaultProviderTimeout   = 60 * time.Second
	DefaultProviderMaxTokens = 1024
	DefaultMinInterval       = 100 * time.Millisecond

	// Retry defaults
	DefaultRetryMaxAttempts = 3
	DefaultRetryBaseDelay   = 1 * time.Second
	DefaultRetryMaxDelay    = 60 * time.Second
	DefaultRetryJitter      = 0.1

	// Storage defaults
	DefaultStorageDriver       = "sqlite"
	DefaultStoragePath         = "data/tokenbench.db"
	DefaultStorageJournalMode  = "WAL"
	DefaultStorageBusyTimeout  = 5 * time.Second
	DefaultStorageMaxOpenConns = 4

	// Export defaults
	DefaultExportDirectory = "results"

	// Schedule defaults
	DefaultScheduleCron = "0 * * * *"

	// Telemetry defaults
	DefaultLoggingLevel         = "info"
	DefaultLoggingFormat        = "text"
	DefaultMetricsListenAddress = "127.0.0.1:9464"
	DefaultMetricsPath          = "/metrics"
	DefaultMetricsNamespace     = "tokenbench"
	DefaultTracingSampler       = "always"
	DefaultTracingSampleRatio   = 0.1
	DefaultTracingExporter      = "otlp"
	DefaultTracingEndpoint      = "localhost:4317"
	DefaultTracingTimeout       = 10 * time.Second
	DefaultTracingServiceName   = "tokenbench"

	// Secrets defaults
	DefaultSecretsSource = "env"
)

// KnownProviders lists provider identifiers in canonical order.
var KnownProviders = []string{"openai", "gemini", "anthropic", "grok"}

// defaultMinIntervals are the per-provider call spacings.
var defaultMinIntervals = map[string]time.Duration{
	"openai":    100 * time.Millisecond,
	"gemini":    500 * time.Millisecond,
	"anthropic": 200 * time.Millisecond,
	"grok":      100 * time.Millisecond,
}

// DefaultMinIntervalFor returns the default call spacing for a provider.
func DefaultMinIntervalFor(provider string) time.Duration {
	if d, ok := defaultMinIntervals[provider]; ok {
		return d
	}
	return DefaultMinInterval
}

// DefaultCredentialFor returns the default secret name for a provider.
// With the env source and no prefix it resolves to <PROVIDER>_API_KEY.
func DefaultCredentialFor(provider string) string {
	return fmt.Sprintf("%s-api-key", provider)
}

func rate(v float64) *float64 {
	return &v
}

// Ptr returns a pointer to v, for optional fields where zero is meaningful.
func Ptr[T any](v T) *T {
	return &v
}

// DefaultProviders returns the built-in model and price sheet for every
// supported provider. Rates are USD per million tokens.
func DefaultProviders() map[string]ProviderConfig {
	return map[string]ProviderConfig{
		"openai": {
			Model: "gpt-4o",
			Pricing: PricingConfig{
				TierKey: "input",
				Tiers: []TierConfig{
					{AboveTokens: 0, Input: 2.50, CachedInput: rate(1.25), Output: 10.00},
				},
			},
		},
		"gemini": {
			Model: "gemini-2.5-pro",
			Pricing: PricingConfig{
				// Cache read pricing is not published for this tier set; cached
				// tokens are flagged as pricing incomplete.
				TierKey: "input",
				Tiers: []TierConfig{
					{AboveTokens: 0, Input: 1.25, Output: 10.00},
					{AboveTokens: 200000, Input: 2.50, Output: 15.00},
				},
			},
		},
		"anthropic": {
			Model: "claude-sonnet-4-20250514",
			Pricing: PricingConfig{
				TierKey:   "input",
				CacheMode: "ephemeral",
				Tiers: []TierConfig{
					{
						AboveTokens:          0,
						Input:                3.00,
						CachedInput:          rate(0.30),
						Output:               15.00,
						CacheWriteEphemeral:  rate(3.75),
						CacheWritePersistent: rate(6.00),
					},
					{
						AboveTokens:          200000,
						Input:                6.00,
						CachedInput:          rate(0.60),
						Output:               22.50,
						CacheWriteEphemeral:  rate(7.50),
						CacheWritePersistent: rate(12.00),
					},
				},
			},
		},
		"grok": {
			Model: "grok-4",
			Pricing: PricingConfig{
				TierKey: "input_output",
				Tiers: []TierConfig{
					{AboveTokens: 0, Input: 3.00, CachedInput: rate(0.75), Output: 15.00},
					{AboveTokens: 128000, Input: 6.00, CachedInput: rate(1.50), Output: 30.00},
				},
			},
		},
	}
}

// Default returns a complete configuration with all defaults applied.
func Default() *Config {
	cfg := &Config{Providers: DefaultProviders()}
	ApplyDefaults(cfg)
	return cfg
}

// ApplyDefaults applies default values to a Config struct.
// It sets defaults for any fields that have zero values.
// This function is idempotent and safe to call multiple times.
func ApplyDefaults(cfg *Config) {
	applyProviderDefaults(cfg)
	applyExperimentDefaults(cfg)

	if cfg.Retry.MaxAttempts == 0 {
		cfg.Retry.MaxAttempts = DefaultRetryMaxAttempts
	}
	if cfg.Retry.BaseDelay == 0 {
		cfg.Retry.BaseDelay = DefaultRetryBaseDelay
	}
	if cfg.Retry.MaxDelay == 0 {
		cfg.Retry.MaxDelay = DefaultRetryMaxDelay
	}
	if cfg.Retry.Jitter == nil {
		cfg.Retry.Jitter = Ptr(DefaultRetryJitter)
	}

	if cfg.Storage.Driver == "" {
		cfg.Storage.Driver = DefaultStorageDriver
	}
	if cfg.Storage.Path == "" {
		cfg.Storage.Path = DefaultStoragePath
	}
	if cfg.Storage.JournalMode == "" {
		cfg.Storage.JournalMode = DefaultStorageJournalMode
	}
	if cfg.Storage.BusyTimeout == 0 {
		cfg.Storage.BusyTimeout = DefaultStorageBusyTimeout
	}
	if cfg.Storage.MaxOpenConns == 0 {
		cfg.Storage.MaxOpenConns = DefaultStorageMaxOpenConns
	}

	if cfg.Export.Directory == "" {
		cfg.Export.Directory = DefaultExportDirectory
	}

	if cfg.Schedule.Cron == "" {
		cfg.Schedule.Cron = DefaultScheduleCron
	}

	if cfg.Telemetry.Logging.Level == "" {
		cfg.Telemetry.Logging.Level = DefaultLoggingLevel
	}
	if cfg.Telemetry.Logging.Format == "" {
		cfg.Telemetry.Logging.Format = DefaultLoggingFormat
	}
	if cfg.Telemetry.Metrics.ListenAddress == "" {
		cfg.Telemetry.Metrics.ListenAddress = DefaultMetricsListenAddress
	}
	if cfg.Telemetry.Metrics.Path == "" {
		cfg.Telemetry.Metrics.Path = DefaultMetricsPath
	}
	if cfg.Telemetry.Metrics.Namespace == "" {
		cfg.Telemetry.Metrics.Namespace = DefaultMetricsNamespace
	}
	applyTracingDefaults(&cfg.Telemetry.Tracing)

	if cfg.Secrets.Source == "" {
		cfg.Secrets.Source = DefaultSecretsSource
	}
}

func applyTracingDefaults(cfg *TracingConfig) {
	if cfg.Sampler == "" {
		cfg.Sampler = DefaultTracingSampler
	}
	if cfg.SampleRatio == 0 {
		cfg.SampleRatio = DefaultTracingSampleRatio
	}
	if cfg.Exporter == "" {
		cfg.Exporter = DefaultTracingExporter
	}
	if cfg.Endpoint == "" {
		cfg.Endpoint = DefaultTracingEndpoint
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultTracingTimeout
	}
	if cfg.ServiceName == "" {
		cfg.ServiceName = DefaultTracingServiceName
	}
}

func applyExperimentDefaults(cfg *Config) {
	if cfg.Experiment.Trials == 0 {
		cfg.Experiment.Trials = DefaultTrials
	}
	if cfg.Experiment.UserPrompt == "" {
		cfg.Experiment.UserPrompt = DefaultUserPrompt
	}
	if cfg.Experiment.MaxConcurrency == 0 {
		cfg.Experiment.MaxConcurrency = DefaultMaxConcurrency
	}
	if len(cfg.Experiment.Providers) == 0 {
		for _, name := range KnownProviders {
			if _, ok := cfg.Providers[name]; ok {
				cfg.Experiment.Providers = append(cfg.Experiment.Providers, name)
			}
		}
	}
}

// applyProviderDefaults fills provider fields. A provider listed without a
// pricing section inherits the built-in sheet for its identifier; explicit
// pricing is never merged with the built-in one.
func applyProviderDefaults(cfg *Config) {
	if cfg.Providers == nil {
		cfg.Providers = DefaultProviders()
	}
	cfg.Providers = normalizeProviderKeys(cfg.Providers)

	builtin := DefaultProviders()
	for name, p := range cfg.Providers {
		def, known := builtin[name]
		if p.Model == "" && known {
			p.Model = def.Model
		}
		if len(p.Pricing.Tiers) == 0 && p.Pricing.TierKey == "" && known {
			cacheMode := p.Pricing.CacheMode
			p.Pricing = def.Pricing
			if cacheMode != "" {
				p.Pricing.CacheMode = cacheMode
			}
		}
		if p.Credential == "" {
			p.Credential = DefaultCredentialFor(name)
		}
		if p.Timeout == 0 {
			p.Timeout = DefaultProviderTimeout
		}
		if p.MinInterval == nil {
			p.MinInterval = Ptr(DefaultMinIntervalFor(name))
		}
		if p.MaxTokens == 0 {
			p.MaxTokens = DefaultProviderMaxTokens
		}
		cfg.Providers[name] = p
	}
}

// normalizeProviderKeys rewrites provider ids to their normalized form. A key
// whose normalized id is already present stays as written, so validation
// reports the duplicate.
func normalizeProviderKeys(in map[string]ProviderConfig) map[string]ProviderConfig {
	out := make(map[string]ProviderConfig, len(in))
	for name, p := range in {
		if name == NormalizeProvider(name) {
			out[name] = p
		}
	}
	for name, p := range in {
		id := NormalizeProvider(name)
		if name == id {
			continue
		}
		if _, taken := out[id]; taken {
			out[name] = p
			continue
		}
		out[id] = p
	}
	return out
}
