package config

import (
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// EnvPrefix is the prefix of every configuration environment variable.
const EnvPrefix = "TOKENBENCH_"

// LoadConfig loads configuration from a YAML file at the specified path.
// It applies default values, validates the configuration, and returns any errors.
// The configuration is not modified by environment variables; use LoadConfigWithEnvOverrides
// for that functionality.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read configuration file %q: %w", path, err)
	}

	cfg, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse configuration file %q: %w", path, err)
	}

	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// Parse decodes YAML and applies defaults without validating.
func Parse(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	ApplyDefaults(&cfg)
	return &cfg, nil
}

// LoadConfigWithEnvOverrides loads configuration from a YAML file and applies
// environment variable overrides. Environment variables follow the naming
// convention TOKENBENCH_SECTION_FIELD (e.g., TOKENBENCH_EXPERIMENT_TRIALS).
// Environment variables always take precedence over file-based configuration.
//
// An empty path starts from the built-in defaults instead of a file.
//
// The loading sequence is:
// 1. Load YAML from file
// 2. Apply default values
// 3. Apply environment variable overrides
// 4. Validate final configuration
func LoadConfigWithEnvOverrides(path string) (*Config, error) {
	var cfg *Config
	if path == "" {
		cfg = Default()
	} else {
		loaded, err := LoadConfig(path)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}

	applyEnvOverrides(cfg)

	// Overrides may add providers that still need their defaults.
	ApplyDefaults(cfg)

	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed after environment overrides: %w", err)
	}

	return cfg, nil
}

// applyEnvOverrides applies environment variable overrides to the configuration.
// Environment variables use the format TOKENBENCH_SECTION_FIELD.
func applyEnvOverrides(cfg *Config) {
	// Experiment overrides
	if val := os.Getenv(EnvPrefix + "EXPERIMENT_PROVIDERS"); val != "" {
		cfg.Experiment.Providers = splitList(val)
	}
	if val := os.Getenv(EnvPrefix + "EXPERIMENT_TRIALS"); val != "" {
		if i, err := strconv.Atoi(val); err == nil {
			cfg.Experiment.Trials = i
		}
	}
	if val := os.Getenv(EnvPrefix + "EXPERIMENT_USER_PROMPT"); val != "" {
		cfg.Experiment.UserPrompt = val
	}
	if val := os.Getenv(EnvPrefix + "EXPERIMENT_SYSTEM_PROMPT"); val != "" {
		cfg.Experiment.SystemPrompt = val
	}
	if val := os.Getenv(EnvPrefix + "EXPERIMENT_MAX_CONCURRENCY"); val != "" {
		if i, err := strconv.Atoi(val); err == nil {
			cfg.Experiment.MaxConcurrency = i
		}
	}

	// Provider overrides cover the known providers and any configured extras.
	names := append([]string(nil), KnownProviders...)
	for name := range cfg.Providers {
		if !contains(names, name) {
			names = append(names, name)
		}
	}
	sort.Strings(names[len(KnownProviders):])
	for _, name := range names {
		applyProviderEnvOverrides(cfg, name)
	}

	// Retry overrides
	if val := os.Getenv(EnvPrefix + "RETRY_MAX_ATTEMPTS"); val != "" {
		if i, err := strconv.Atoi(val); err == nil {
			cfg.Retry.MaxAttempts = i
		}
	}
	if val := os.Getenv(EnvPrefix + "RETRY_BASE_DELAY"); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			cfg.Retry.BaseDelay = d
		}
	}
	if val := os.Getenv(EnvPrefix + "RETRY_MAX_DELAY"); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			cfg.Retry.MaxDelay = d
		}
	}
	if val := os.Getenv(EnvPrefix + "RETRY_JITTER"); val != "" {
		if f, err := strconv.ParseFloat(val, 64); err == nil {
			cfg.Retry.Jitter = &f
		}
	}

	// Storage overrides
	if val := os.Getenv(EnvPrefix + "STORAGE_ENABLED"); val != "" {
		if b, err := strconv.ParseBool(val); err == nil {
			cfg.Storage.Enabled = b
		}
	}
	if val := os.Getenv(EnvPrefix + "STORAGE_DRIVER"); val != "" {
		cfg.Storage.Driver = val
	}
	if val := os.Getenv(EnvPrefix + "STORAGE_PATH"); val != "" {
		cfg.Storage.Path = val
	}

	// Export overrides
	if val := os.Getenv(EnvPrefix + "EXPORT_FORMAT"); val != "" {
		cfg.Export.Format = val
	}
	if val := os.Getenv(EnvPrefix + "EXPORT_DIRECTORY"); val != "" {
		cfg.Export.Directory = val
	}

	// Schedule overrides
	if val := os.Getenv(EnvPrefix + "SCHEDULE_CRON"); val != "" {
		cfg.Schedule.Cron = val
	}

	// Telemetry overrides
	if val := os.Getenv(EnvPrefix + "TELEMETRY_LOGGING_LEVEL"); val != "" {
		cfg.Telemetry.Logging.Level = val
	}
	if val := os.Getenv(EnvPrefix + "TELEMETRY_LOGGING_FORMAT"); val != "" {
		cfg.Telemetry.Logging.Format = val
	}
	if val := os.Getenv(EnvPrefix + "TELEMETRY_METRICS_ENABLED"); val != "" {
		if b, err := strconv.ParseBool(val); err == nil {
			cfg.Telemetry.Metrics.Enabled = b
		}
	}
	if val := os.Getenv(EnvPrefix + "TELEMETRY_METRICS_LISTEN_ADDRESS"); val != "" {
		cfg.Telemetry.Metrics.ListenAddress = val
	}
	if val := os.Getenv(EnvPrefix + "TELEMETRY_TRACING_ENABLED"); val != "" {
		if b, err := strconv.ParseBool(val); err == nil {
			cfg.Telemetry.Tracing.Enabled = b
		}
	}
	if val := os.Getenv(EnvPrefix + "TELEMETRY_TRACING_ENDPOINT"); val != "" {
		cfg.Telemetry.Tracing.Endpoint = val
	}

	// Secrets overrides
	if val := os.Getenv(EnvPrefix + "SECRETS_SOURCE"); val != "" {
		cfg.Secrets.Source = val
	}
	if val := os.Getenv(EnvPrefix + "SECRETS_PATH"); val != "" {
		cfg.Secrets.Path = val
	}
}

// applyProviderEnvOverrides applies environment variable overrides for a specific provider.
// Provider environment variables follow the format TOKENBENCH_PROVIDERS_<NAME>_<FIELD>
// where NAME is the uppercase provider name.
func applyProviderEnvOverrides(cfg *Config, providerName string) {
	if cfg.Providers == nil {
		cfg.Providers = make(map[string]ProviderConfig)
	}

	provider, exists := cfg.Providers[providerName]

	prefix := fmt.Sprintf("%sPROVIDERS_%s_", EnvPrefix, strings.ToUpper(providerName))

	modified := false

	if val := os.Getenv(prefix + "MODEL"); val != "" {
		provider.Model = val
		modified = true
	}
	if val := os.Getenv(prefix + "BASE_URL"); val != "" {
		provider.BaseURL = val
		modified = true
	}
	if val := os.Getenv(prefix + "CREDENTIAL"); val != "" {
		provider.Credential = val
		modified = true
	}
	if val := os.Getenv(prefix + "TIMEOUT"); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			provider.Timeout = d
			modified = true
		}
	}
	if val := os.Getenv(prefix + "MIN_INTERVAL"); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			provider.MinInterval = &d
			modified = true
		}
	}
	if val := os.Getenv(prefix + "MAX_TOKENS"); val != "" {
		if i, err := strconv.Atoi(val); err == nil {
			provider.MaxTokens = i
			modified = true
		}
	}
	if val := os.Getenv(prefix + "CACHE_MODE"); val != "" {
		provider.Pricing.CacheMode = val
		modified = true
	}

	// Only update the map if we found at least one override
	if modified || exists {
		cfg.Providers[providerName] = provider
	}
}

func splitList(val string) []string {
	var out []string
	for _, part := range strings.Split(val, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
