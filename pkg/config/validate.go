package config

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/robfig/cron/v3"
)

// FieldError represents a validation error for a specific configuration field.
type FieldError struct {
	// Field is the dotted path to the configuration field (e.g., "retry.max_attempts").
	Field string

	// Message is a human-readable error message.
	Message string
}

// Error returns the error message for this field error.
func (e FieldError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidationError represents one or more validation errors in a configuration.
// It implements the error interface and provides access to all field errors.
type ValidationError struct {
	// Errors contains all validation errors found in the configuration.
	Errors []FieldError
}

// Error returns a formatted string containing all validation errors.
func (e ValidationError) Error() string {
	if len(e.Errors) == 0 {
		return "configuration validation failed"
	}
	if len(e.Errors) == 1 {
		return fmt.Sprintf("configuration validation failed: %s", e.Errors[0].Error())
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("configuration validation failed with %d errors:\n", len(e.Errors)))
	for _, err := range e.Errors {
		sb.WriteString(fmt.Sprintf("  - %s\n", err.Error()))
	}
	return sb.String()
}

// HasField reports whether any error refers to the given field path.
func (e ValidationError) HasField(field string) bool {
	for _, fe := range e.Errors {
		if fe.Field == field {
			return true
		}
	}
	return false
}

// Validate validates the entire configuration and returns a ValidationError
// if any validation rules fail. It returns nil if the configuration is valid.
// All validation errors are collected and returned together.
func Validate(cfg *Config) error {
	var errs []FieldError

	errs = append(errs, validateProviders(cfg.Providers)...)
	errs = append(errs, validateExperiment(&cfg.Experiment, cfg.Providers)...)
	errs = append(errs, validateRetry(&cfg.Retry)...)
	errs = append(errs, validateStorage(&cfg.Storage)...)
	errs = append(errs, validateExport(&cfg.Export)...)
	errs = append(errs, validateSchedule(&cfg.Schedule)...)
	errs = append(errs, validateTelemetry(&cfg.Telemetry)...)
	errs = append(errs, validateSecrets(&cfg.Secrets)...)

	if len(errs) > 0 {
		return ValidationError{Errors: errs}
	}

	return nil
}

// NormalizeProvider lower-cases and trims a provider identifier.
func NormalizeProvider(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

// validateExperiment validates the experiment plan against configured providers.
func validateExperiment(cfg *ExperimentConfig, providers map[string]ProviderConfig) []FieldError {
	var errs []FieldError

	if cfg.Trials < 1 {
		errs = append(errs, FieldError{
			Field:   "experiment.trials",
			Message: "trials must be at least 1",
		})
	}
	if strings.TrimSpace(cfg.UserPrompt) == "" {
		errs = append(errs, FieldError{
			Field:   "experiment.user_prompt",
			Message: "user prompt is required",
		})
	}
	if cfg.MaxConcurrency < 1 {
		errs = append(errs, FieldError{
			Field:   "experiment.max_concurrency",
			Message: "max concurrency must be at least 1",
		})
	}

	seen := make(map[string]bool)
	for i, raw := range cfg.Providers {
		name := NormalizeProvider(raw)
		field := fmt.Sprintf("experiment.providers[%d]", i)
		if _, ok := providers[name]; !ok {
			errs = append(errs, FieldError{
				Field:   field,
				Message: fmt.Sprintf("provider %q is not configured", raw),
			})
			continue
		}
		if seen[name] {
			errs = append(errs, FieldError{
				Field:   field,
				Message: fmt.Sprintf("provider %q is listed more than once", raw),
			})
		}
		seen[name] = true
	}

	return errs
}

// validateProviders validates provider configurations.
func validateProviders(providers map[string]ProviderConfig) []FieldError {
	var errs []FieldError

	if len(providers) == 0 {
		errs = append(errs, FieldError{
			Field:   "providers",
			Message: "at least one provider must be configured",
		})
		return errs
	}

	for name, provider := range providers {
		prefix := fmt.Sprintf("providers.%s", name)

		if id := NormalizeProvider(name); id != name {
			errs = append(errs, FieldError{
				Field:   prefix,
				Message: fmt.Sprintf("provider %q is configured more than once", id),
			})
		}

		if provider.Model == "" {
			errs = append(errs, FieldError{
				Field:   prefix + ".model",
				Message: "model is required",
			})
		}

		if provider.BaseURL != "" {
			if u, err := url.Parse(provider.BaseURL); err != nil {
				errs = append(errs, FieldError{
					Field:   prefix + ".base_url",
					Message: fmt.Sprintf("invalid URL format: %v", err),
				})
			} else if u.Scheme != "http" && u.Scheme != "https" {
				errs = append(errs, FieldError{
					Field:   prefix + ".base_url",
					Message: fmt.Sprintf("unsupported URL scheme %q", u.Scheme),
				})
			}
		}

		if provider.Timeout < 0 {
			errs = append(errs, FieldError{
				Field:   prefix + ".timeout",
				Message: "timeout must be positive",
			})
		}
		if provider.Interval() < 0 {
			errs = append(errs, FieldError{
				Field:   prefix + ".min_interval",
				Message: "min interval must be non-negative",
			})
		}
		if provider.MaxTokens < 0 {
			errs = append(errs, FieldError{
				Field:   prefix + ".max_tokens",
				Message: "max tokens must be non-negative",
			})
		}
		if provider.ThinkingBudget != nil && *provider.ThinkingBudget < 0 {
			errs = append(errs, FieldError{
				Field:   prefix + ".thinking_budget",
				Message: "thinking budget must be non-negative",
			})
		}

		errs = append(errs, validatePricing(prefix+".pricing", &provider.Pricing)...)
	}

	return errs
}

// validatePricing validates a provider's tier table.
func validatePricing(prefix string, cfg *PricingConfig) []FieldError {
	var errs []FieldError

	switch cfg.TierKey {
	case "input", "input_output":
	default:
		errs = append(errs, FieldError{
			Field:   prefix + ".tier_key",
			Message: fmt.Sprintf("invalid tier key %q: must be 'input' or 'input_output'", cfg.TierKey),
		})
	}

	switch cfg.CacheMode {
	case "", "ephemeral", "persistent":
	default:
		errs = append(errs, FieldError{
			Field:   prefix + ".cache_mode",
			Message: fmt.Sprintf("invalid cache mode %q: must be 'ephemeral' or 'persistent'", cfg.CacheMode),
		})
	}

	if len(cfg.Tiers) == 0 {
		errs = append(errs, FieldError{
			Field:   prefix + ".tiers",
			Message: "at least one tier is required",
		})
		return errs
	}

	if cfg.Tiers[0].AboveTokens != 0 {
		errs = append(errs, FieldError{
			Field:   prefix + ".tiers[0].above_tokens",
			Message: "first tier must start at 0",
		})
	}

	for i, tier := range cfg.Tiers {
		field := fmt.Sprintf("%s.tiers[%d]", prefix, i)
		if i > 0 && tier.AboveTokens <= cfg.Tiers[i-1].AboveTokens {
			errs = append(errs, FieldError{
				Field:   field + ".above_tokens",
				Message: "tier thresholds must be strictly ascending",
			})
		}
		if tier.Input < 0 || tier.Output < 0 {
			errs = append(errs, FieldError{
				Field:   field,
				Message: "rates must be non-negative",
			})
		}
		for _, r := range []*float64{tier.CachedInput, tier.CacheWriteEphemeral, tier.CacheWritePersistent} {
			if r != nil && *r < 0 {
				errs = append(errs, FieldError{
					Field:   field,
					Message: "cache rates must be non-negative",
				})
				break
			}
		}
	}

	return errs
}

// validateRetry validates the retry policy.
func validateRetry(cfg *RetryConfig) []FieldError {
	var errs []FieldError

	if cfg.MaxAttempts < 1 {
		errs = append(errs, FieldError{
			Field:   "retry.max_attempts",
			Message: "max attempts must be at least 1",
		})
	}
	if cfg.MaxAttempts > 10 {
		errs = append(errs, FieldError{
			Field:   "retry.max_attempts",
			Message: "max attempts exceeds reasonable limit (10)",
		})
	}
	if cfg.BaseDelay <= 0 {
		errs = append(errs, FieldError{
			Field:   "retry.base_delay",
			Message: "base delay must be positive",
		})
	}
	if cfg.MaxDelay < cfg.BaseDelay {
		errs = append(errs, FieldError{
			Field:   "retry.max_delay",
			Message: "max delay must not be less than base delay",
		})
	}
	if j := cfg.JitterFraction(); j < 0 || j > 1.0 {
		errs = append(errs, FieldError{
			Field:   "retry.jitter",
			Message: "jitter must be between 0.0 and 1.0",
		})
	}

	return errs
}

// validateStorage validates result storage configuration.
func validateStorage(cfg *StorageConfig) []FieldError {
	var errs []FieldError

	if !cfg.Enabled {
		return errs
	}

	validDrivers := map[string]bool{"sqlite3": true, "sqlite": true, "memory": true}
	if !validDrivers[cfg.Driver] {
		errs = append(errs, FieldError{
			Field:   "storage.driver",
			Message: fmt.Sprintf("invalid driver %q: must be 'sqlite3', 'sqlite', or 'memory'", cfg.Driver),
		})
	}
	if cfg.Driver != "memory" && cfg.Path == "" {
		errs = append(errs, FieldError{
			Field:   "storage.path",
			Message: "database path is required",
		})
	}

	validModes := map[string]bool{"DELETE": true, "TRUNCATE": true, "PERSIST": true, "MEMORY": true, "WAL": true, "OFF": true}
	if !validModes[strings.ToUpper(cfg.JournalMode)] {
		errs = append(errs, FieldError{
			Field:   "storage.journal_mode",
			Message: fmt.Sprintf("invalid journal mode %q", cfg.JournalMode),
		})
	}
	if cfg.BusyTimeout < 0 {
		errs = append(errs, FieldError{
			Field:   "storage.busy_timeout",
			Message: "busy timeout must be non-negative",
		})
	}
	if cfg.MaxOpenConns < 1 {
		errs = append(errs, FieldError{
			Field:   "storage.max_open_conns",
			Message: "max open connections must be at least 1",
		})
	}
	if cfg.RetentionDays < 0 {
		errs = append(errs, FieldError{
			Field:   "storage.retention_days",
			Message: "retention days must be non-negative",
		})
	}

	return errs
}

// validateExport validates result export configuration.
func validateExport(cfg *ExportConfig) []FieldError {
	var errs []FieldError

	switch cfg.Format {
	case "":
		return errs
	case "csv", "json":
	default:
		errs = append(errs, FieldError{
			Field:   "export.format",
			Message: fmt.Sprintf("invalid export format %q: must be 'csv' or 'json'", cfg.Format),
		})
	}
	if cfg.Directory == "" {
		errs = append(errs, FieldError{
			Field:   "export.directory",
			Message: "directory is required when export is enabled",
		})
	}

	return errs
}

// validateSchedule validates the cron expression.
func validateSchedule(cfg *ScheduleConfig) []FieldError {
	var errs []FieldError

	if cfg.Cron == "" {
		errs = append(errs, FieldError{
			Field:   "schedule.cron",
			Message: "cron expression is required",
		})
	} else if _, err := cron.ParseStandard(cfg.Cron); err != nil {
		errs = append(errs, FieldError{
			Field:   "schedule.cron",
			Message: fmt.Sprintf("invalid cron expression: %v", err),
		})
	}

	return errs
}

// validateTelemetry validates telemetry configuration.
func validateTelemetry(cfg *TelemetryConfig) []FieldError {
	var errs []FieldError

	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if cfg.Logging.Level == "" {
		errs = append(errs, FieldError{
			Field:   "telemetry.logging.level",
			Message: "logging level is required",
		})
	} else if !validLevels[cfg.Logging.Level] {
		errs = append(errs, FieldError{
			Field:   "telemetry.logging.level",
			Message: fmt.Sprintf("invalid logging level %q: must be 'debug', 'info', 'warn', or 'error'", cfg.Logging.Level),
		})
	}

	validFormats := map[string]bool{"json": true, "text": true, "console": true}
	if cfg.Logging.Format == "" {
		errs = append(errs, FieldError{
			Field:   "telemetry.logging.format",
			Message: "logging format is required",
		})
	} else if !validFormats[cfg.Logging.Format] {
		errs = append(errs, FieldError{
			Field:   "telemetry.logging.format",
			Message: fmt.Sprintf("invalid logging format %q: must be 'json', 'text', or 'console'", cfg.Logging.Format),
		})
	}

	if cfg.Metrics.Enabled {
		if cfg.Metrics.ListenAddress == "" {
			errs = append(errs, FieldError{
				Field:   "telemetry.metrics.listen_address",
				Message: "listen address is required when metrics are enabled",
			})
		}
		if !strings.HasPrefix(cfg.Metrics.Path, "/") {
			errs = append(errs, FieldError{
				Field:   "telemetry.metrics.path",
				Message: "metrics path must start with '/'",
			})
		}
	}

	if cfg.Tracing.Enabled {
		switch cfg.Tracing.Sampler {
		case "always", "never":
		case "ratio":
			if cfg.Tracing.SampleRatio < 0 || cfg.Tracing.SampleRatio > 1 {
				errs = append(errs, FieldError{
					Field:   "telemetry.tracing.sample_ratio",
					Message: "sample ratio must be between 0.0 and 1.0",
				})
			}
		default:
			errs = append(errs, FieldError{
				Field:   "telemetry.tracing.sampler",
				Message: fmt.Sprintf("invalid sampler %q: must be 'always', 'never', or 'ratio'", cfg.Tracing.Sampler),
			})
		}
		if cfg.Tracing.Exporter != "otlp" {
			errs = append(errs, FieldError{
				Field:   "telemetry.tracing.exporter",
				Message: fmt.Sprintf("unsupported exporter %q: must be 'otlp'", cfg.Tracing.Exporter),
			})
		}
		if cfg.Tracing.Endpoint == "" {
			errs = append(errs, FieldError{
				Field:   "telemetry.tracing.endpoint",
				Message: "endpoint is required when tracing is enabled",
			})
		}
	}

	return errs
}

// validateSecrets validates the credential source.
func validateSecrets(cfg *SecretsConfig) []FieldError {
	var errs []FieldError

	switch cfg.Source {
	case "env":
	case "file":
		if cfg.Path == "" {
			errs = append(errs, FieldError{
				Field:   "secrets.path",
				Message: "path is required for the file source",
			})
		}
	default:
		errs = append(errs, FieldError{
			Field:   "secrets.source",
			Message: fmt.Sprintf("invalid secrets source %q: must be 'env' or 'file'", cfg.Source),
		})
	}

	return errs
}
