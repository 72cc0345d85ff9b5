package config

import "time"

// Config is the root configuration structure for tokenbench.
// It contains the experiment plan, per-provider models and pricing, retry
// policy, result storage, scheduling, telemetry and credential sources.
type Config struct {
	// Experiment describes what to run: prompts, providers and trial count.
	Experiment ExperimentConfig `yaml:"experiment"`

	// Providers contains per-provider model, endpoint, rate limit and pricing.
	// Keys are provider identifiers (openai, gemini, anthropic, grok).
	Providers map[string]ProviderConfig `yaml:"providers"`

	// Retry contains the backoff policy applied to every provider call.
	Retry RetryConfig `yaml:"retry"`

	// Storage contains configuration for persisting run results.
	Storage StorageConfig `yaml:"storage"`

	// Export contains configuration for writing result files.
	Export ExportConfig `yaml:"export"`

	// Schedule contains configuration for recurring runs.
	Schedule ScheduleConfig `yaml:"schedule"`

	// Telemetry contains logging and metrics configuration.
	Telemetry TelemetryConfig `yaml:"telemetry"`

	// Secrets controls where provider credentials are read from.
	Secrets SecretsConfig `yaml:"secrets"`
}

// ExperimentConfig describes one benchmark run.
type ExperimentConfig struct {
	// Providers lists the providers to call, in result order.
	// Default: all configured providers in canonical order
	Providers []string `yaml:"providers"`

	// Trials is the number of times each provider is called.
	// Default: 3
	Trials int `yaml:"trials"`

	// UserPrompt is the prompt sent to every provider.
	UserPrompt string `yaml:"user_prompt"`

	// SystemPrompt is optional.
	SystemPrompt string `yaml:"system_prompt"`

	// MaxConcurrency bounds how many providers are called at once within a trial.
	// Default: 4
	MaxConcurrency int `yaml:"max_concurrency"`
}

// ProviderConfig contains configuration for a single provider.
type ProviderConfig struct {
	// Model is the model identifier sent to the provider.
	Model string `yaml:"model"`

	// BaseURL overrides the provider's public endpoint.
	BaseURL string `yaml:"base_url"`

	// APIKey is an inline credential. Prefer Credential; inline keys are
	// accepted for local use and are never logged.
	APIKey string `yaml:"api_key"`

	// Credential is the secret name resolved through the secrets source.
	// Default: "<provider>-api-key" (env var <PROVIDER>_API_KEY)
	Credential string `yaml:"credential"`

	// Timeout bounds a single HTTP exchange.
	// Default: 60s
	Timeout time.Duration `yaml:"timeout"`

	// MinInterval is the minimum spacing between calls to this provider.
	// An explicit 0s disables spacing.
	// Default: per provider (openai 100ms, gemini 500ms, anthropic 200ms, grok 100ms)
	MinInterval *time.Duration `yaml:"min_interval"`

	// MaxTokens caps generated tokens per call.
	// Default: 1024
	MaxTokens int `yaml:"max_tokens"`

	// ThinkingBudget caps Gemini internal reasoning. Nil leaves the model default.
	ThinkingBudget *int `yaml:"thinking_budget"`

	// Pricing is the provider's billing model.
	Pricing PricingConfig `yaml:"pricing"`
}

// Interval returns MinInterval, or 0 when unset.
func (p ProviderConfig) Interval() time.Duration {
	if p.MinInterval == nil {
		return 0
	}
	return *p.MinInterval
}

// PricingConfig describes a provider's tiered, cache-aware billing.
type PricingConfig struct {
	// TierKey selects the qualifying count: "input" or "input_output".
	TierKey string `yaml:"tier_key"`

	// CacheMode selects the cache write rate: "", "ephemeral" or "persistent".
	// It also controls whether the Anthropic client requests caching.
	CacheMode string `yaml:"cache_mode"`

	// Tiers are ordered by ascending above_tokens; the first must be 0.
	Tiers []TierConfig `yaml:"tiers"`
}

// TierConfig is one rate schedule. Rates are USD per million tokens.
type TierConfig struct {
	// AboveTokens is the qualifying count this tier starts above.
	AboveTokens int64 `yaml:"above_tokens"`

	// Input is the uncached input rate.
	Input float64 `yaml:"input"`

	// CachedInput is the cache read rate. Omit when undocumented.
	CachedInput *float64 `yaml:"cached_input"`

	// Output is the output rate.
	Output float64 `yaml:"output"`

	// CacheWriteEphemeral is the 5 minute cache write rate.
	CacheWriteEphemeral *float64 `yaml:"cache_write_ephemeral"`

	// CacheWritePersistent is the 1 hour cache write rate.
	CacheWritePersistent *float64 `yaml:"cache_write_persistent"`
}

// RetryConfig contains the retry policy for provider calls.
type RetryConfig struct {
	// MaxAttempts is the total number of invocations, first call included.
	// Default: 3
	MaxAttempts int `yaml:"max_attempts"`

	// BaseDelay is the backoff before the first retry; it doubles each retry.
	// Default: 1s
	BaseDelay time.Duration `yaml:"base_delay"`

	// MaxDelay caps a single backoff.
	// Default: 60s
	MaxDelay time.Duration `yaml:"max_delay"`

	// Jitter is the random fraction added to each backoff (0 to 1).
	// An explicit 0 disables jitter.
	// Default: 0.1
	Jitter *float64 `yaml:"jitter"`
}

// JitterFraction returns Jitter, or 0 when unset.
func (r RetryConfig) JitterFraction() float64 {
	if r.Jitter == nil {
		return 0
	}
	return *r.Jitter
}

// StorageConfig contains configuration for persisting results.
type StorageConfig struct {
	// Enabled turns persistence on.
	Enabled bool `yaml:"enabled"`

	// Driver is "sqlite3" (cgo, mattn), "sqlite" (pure Go, modernc) or "memory".
	// Default: "sqlite"
	Driver string `yaml:"driver"`

	// Path is the database file.
	// Default: "data/tokenbench.db"
	Path string `yaml:"path"`

	// JournalMode is the SQLite journal mode.
	// Default: "WAL"
	JournalMode string `yaml:"journal_mode"`

	// BusyTimeout is how long SQLite waits on a locked database.
	// Default: 5s
	BusyTimeout time.Duration `yaml:"busy_timeout"`

	// MaxOpenConns bounds the connection pool.
	// Default: 4
	MaxOpenConns int `yaml:"max_open_conns"`

	// RetentionDays prunes runs older than this many days after each
	// scheduled run. Zero keeps everything.
	RetentionDays int `yaml:"retention_days"`
}

// ExportConfig contains configuration for result files.
type ExportConfig struct {
	// Format is "csv", "json" or empty to disable.
	Format string `yaml:"format"`

	// Directory receives timestamped result files.
	// Default: "results"
	Directory string `yaml:"directory"`

	// JSONPretty indents JSON output.
	JSONPretty bool `yaml:"json_pretty"`
}

// ScheduleConfig contains configuration for recurring runs.
type ScheduleConfig struct {
	// Cron is a standard 5-field cron expression.
	// Default: "0 * * * *" (hourly)
	Cron string `yaml:"cron"`

	// RunOnStart triggers one run immediately when the scheduler starts.
	RunOnStart bool `yaml:"run_on_start"`

	// WatchConfig reloads pricing when the config file changes.
	WatchConfig bool `yaml:"watch_config"`
}

// TelemetryConfig contains observability configuration.
type TelemetryConfig struct {
	// Logging contains structured logging configuration.
	Logging LoggingConfig `yaml:"logging"`

	// Metrics contains Prometheus metrics configuration.
	Metrics MetricsConfig `yaml:"metrics"`

	// Tracing contains OpenTelemetry tracing configuration.
	Tracing TracingConfig `yaml:"tracing"`
}

// LoggingConfig contains logging configuration.
type LoggingConfig struct {
	// Level is debug, info, warn or error.
	// Default: "info"
	Level string `yaml:"level"`

	// Format is json, text or console.
	// Default: "text"
	Format string `yaml:"format"`

	// AddSource includes file:line in log records.
	AddSource bool `yaml:"add_source"`

	// RedactPatterns adds extra regular expressions whose matches are masked.
	RedactPatterns []string `yaml:"redact_patterns"`
}

// MetricsConfig contains Prometheus metrics configuration.
type MetricsConfig struct {
	// Enabled serves metrics over HTTP during scheduled runs.
	Enabled bool `yaml:"enabled"`

	// ListenAddress for the metrics endpoint.
	// Default: "127.0.0.1:9464"
	ListenAddress string `yaml:"listen_address"`

	// Path for the metrics endpoint.
	// Default: "/metrics"
	Path string `yaml:"path"`

	// Namespace prefixes every metric name.
	// Default: "tokenbench"
	Namespace string `yaml:"namespace"`
}

// TracingConfig contains OpenTelemetry tracing configuration. Each provider
// call becomes one span carrying its usage and cost.
type TracingConfig struct {
	// Enabled exports spans to the configured endpoint.
	// Default: false
	Enabled bool `yaml:"enabled"`

	// Sampler is "always", "never" or "ratio".
	// Default: "always"
	Sampler string `yaml:"sampler"`

	// SampleRatio is the fraction of runs sampled when Sampler is "ratio".
	// Default: 0.1
	SampleRatio float64 `yaml:"sample_ratio"`

	// Exporter selects the span exporter. Only "otlp" (gRPC) is supported.
	// Default: "otlp"
	Exporter string `yaml:"exporter"`

	// Endpoint is the collector host:port.
	// Default: "localhost:4317"
	Endpoint string `yaml:"endpoint"`

	// Insecure disables TLS to the collector.
	Insecure bool `yaml:"insecure"`

	// Timeout bounds each export.
	// Default: 10s
	Timeout time.Duration `yaml:"timeout"`

	// ServiceName is the service.name resource attribute.
	// Default: "tokenbench"
	ServiceName string `yaml:"service_name"`
}

// SecretsConfig controls credential lookup.
type SecretsConfig struct {
	// Source is "env" or "file".
	// Default: "env"
	Source string `yaml:"source"`

	// Path is the directory holding one file per secret (file source).
	Path string `yaml:"path"`

	// EnvPrefix is prepended to env var names (env source).
	EnvPrefix string `yaml:"env_prefix"`
}
