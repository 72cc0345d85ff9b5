package config

import (
	"errors"
	"strings"
	"testing"
	"time"
)

func TestValidate_ValidConfig(t *testing.T) {
	if err := Validate(Default()); err != nil {
		t.Errorf("expected valid config to pass validation, got error: %v", err)
	}
}

func TestValidate_MultipleErrors(t *testing.T) {
	cfg := &Config{
		Providers: map[string]ProviderConfig{},
	}

	err := Validate(cfg)
	if err == nil {
		t.Fatal("expected validation to fail")
	}

	var validationErr ValidationError
	if !errors.As(err, &validationErr) {
		t.Fatalf("expected ValidationError, got %T", err)
	}
	if len(validationErr.Errors) < 2 {
		t.Errorf("expected multiple errors, got %d", len(validationErr.Errors))
	}
	if !strings.Contains(validationErr.Error(), "validation failed with") {
		t.Errorf("error message should mention multiple errors: %s", validationErr.Error())
	}
}

func TestValidate_Fields(t *testing.T) {
	tests := []struct {
		name       string
		mutate     func(*Config)
		errorField string
	}{
		{
			name:       "zero trials",
			mutate:     func(c *Config) { c.Experiment.Trials = 0 },
			errorField: "experiment.trials",
		},
		{
			name:       "blank prompt",
			mutate:     func(c *Config) { c.Experiment.UserPrompt = "   " },
			errorField: "experiment.user_prompt",
		},
		{
			name:       "duplicate provider after normalization",
			mutate:     func(c *Config) { c.Experiment.Providers = []string{"openai", " OpenAI "} },
			errorField: "experiment.providers[1]",
		},
		{
			name:       "unconfigured provider",
			mutate:     func(c *Config) { c.Experiment.Providers = []string{"mistral"} },
			errorField: "experiment.providers[0]",
		},
		{
			name: "missing model",
			mutate: func(c *Config) {
				p := c.Providers["openai"]
				p.Model = ""
				c.Providers["openai"] = p
			},
			errorField: "providers.openai.model",
		},
		{
			name: "bad base url scheme",
			mutate: func(c *Config) {
				p := c.Providers["grok"]
				p.BaseURL = "ftp://api.x.ai"
				c.Providers["grok"] = p
			},
			errorField: "providers.grok.base_url",
		},
		{
			name: "negative min interval",
			mutate: func(c *Config) {
				p := c.Providers["gemini"]
				p.MinInterval = Ptr(-time.Second)
				c.Providers["gemini"] = p
			},
			errorField: "providers.gemini.min_interval",
		},
		{
			name: "unknown tier key",
			mutate: func(c *Config) {
				p := c.Providers["openai"]
				p.Pricing.TierKey = "output"
				c.Providers["openai"] = p
			},
			errorField: "providers.openai.pricing.tier_key",
		},
		{
			name: "unknown cache mode",
			mutate: func(c *Config) {
				p := c.Providers["anthropic"]
				p.Pricing.CacheMode = "forever"
				c.Providers["anthropic"] = p
			},
			errorField: "providers.anthropic.pricing.cache_mode",
		},
		{
			name: "first tier not at zero",
			mutate: func(c *Config) {
				p := c.Providers["openai"]
				p.Pricing.Tiers = []TierConfig{{AboveTokens: 10, Input: 1, Output: 1}}
				c.Providers["openai"] = p
			},
			errorField: "providers.openai.pricing.tiers[0].above_tokens",
		},
		{
			name: "thresholds not ascending",
			mutate: func(c *Config) {
				p := c.Providers["openai"]
				p.Pricing.Tiers = []TierConfig{
					{AboveTokens: 0, Input: 1, Output: 1},
					{AboveTokens: 0, Input: 2, Output: 2},
				}
				c.Providers["openai"] = p
			},
			errorField: "providers.openai.pricing.tiers[1].above_tokens",
		},
		{
			name: "negative cache rate",
			mutate: func(c *Config) {
				p := c.Providers["openai"]
				neg := -1.0
				p.Pricing.Tiers = []TierConfig{{Input: 1, Output: 1, CachedInput: &neg}}
				c.Providers["openai"] = p
			},
			errorField: "providers.openai.pricing.tiers[0]",
		},
		{
			name:       "zero max attempts",
			mutate:     func(c *Config) { c.Retry.MaxAttempts = 0 },
			errorField: "retry.max_attempts",
		},
		{
			name:       "max delay below base",
			mutate:     func(c *Config) { c.Retry.MaxDelay = c.Retry.BaseDelay / 2 },
			errorField: "retry.max_delay",
		},
		{
			name:       "jitter out of range",
			mutate:     func(c *Config) { c.Retry.Jitter = Ptr(1.5) },
			errorField: "retry.jitter",
		},
		{
			name: "unknown storage driver",
			mutate: func(c *Config) {
				c.Storage.Enabled = true
				c.Storage.Driver = "postgres"
			},
			errorField: "storage.driver",
		},
		{
			name: "negative retention",
			mutate: func(c *Config) {
				c.Storage.Enabled = true
				c.Storage.RetentionDays = -1
			},
			errorField: "storage.retention_days",
		},
		{
			name:       "unknown export format",
			mutate:     func(c *Config) { c.Export.Format = "xlsx" },
			errorField: "export.format",
		},
		{
			name:       "bad cron",
			mutate:     func(c *Config) { c.Schedule.Cron = "every hour" },
			errorField: "schedule.cron",
		},
		{
			name:       "bad log level",
			mutate:     func(c *Config) { c.Telemetry.Logging.Level = "trace" },
			errorField: "telemetry.logging.level",
		},
		{
			name: "metrics path without slash",
			mutate: func(c *Config) {
				c.Telemetry.Metrics.Enabled = true
				c.Telemetry.Metrics.Path = "metrics"
			},
			errorField: "telemetry.metrics.path",
		},
		{
			name:       "file secrets without path",
			mutate:     func(c *Config) { c.Secrets.Source = "file" },
			errorField: "secrets.path",
		},
		{
			name:       "unknown secrets source",
			mutate:     func(c *Config) { c.Secrets.Source = "vault" },
			errorField: "secrets.source",
		},
		{
			name: "unknown tracing sampler",
			mutate: func(c *Config) {
				c.Telemetry.Tracing.Enabled = true
				c.Telemetry.Tracing.Sampler = "sometimes"
			},
			errorField: "telemetry.tracing.sampler",
		},
		{
			name: "tracing ratio out of range",
			mutate: func(c *Config) {
				c.Telemetry.Tracing.Enabled = true
				c.Telemetry.Tracing.Sampler = "ratio"
				c.Telemetry.Tracing.SampleRatio = 2
			},
			errorField: "telemetry.tracing.sample_ratio",
		},
		{
			name: "tracing without endpoint",
			mutate: func(c *Config) {
				c.Telemetry.Tracing.Enabled = true
				c.Telemetry.Tracing.Endpoint = ""
			},
			errorField: "telemetry.tracing.endpoint",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)

			err := Validate(cfg)
			if err == nil {
				t.Fatalf("expected error on %s", tt.errorField)
			}

			var verr ValidationError
			if !errors.As(err, &verr) {
				t.Fatalf("expected ValidationError, got %T", err)
			}
			if !verr.HasField(tt.errorField) {
				t.Errorf("expected error on %s, got %v", tt.errorField, verr)
			}
		})
	}
}

func TestValidate_StorageDisabledSkipsChecks(t *testing.T) {
	cfg := Default()
	cfg.Storage.Driver = "postgres"
	cfg.Storage.Enabled = false

	if err := Validate(cfg); err != nil {
		t.Errorf("disabled storage should not be validated: %v", err)
	}
}

func TestValidate_MemoryStorageNeedsNoPath(t *testing.T) {
	cfg := Default()
	cfg.Storage.Enabled = true
	cfg.Storage.Driver = "memory"
	cfg.Storage.Path = ""

	if err := Validate(cfg); err != nil {
		t.Errorf("memory storage should not need a path: %v", err)
	}
}

func TestFieldError_Error(t *testing.T) {
	err := FieldError{Field: "retry.jitter", Message: "out of range"}
	if got := err.Error(); got != "retry.jitter: out of range" {
		t.Errorf("unexpected message %q", got)
	}
}

func TestNormalizeProvider(t *testing.T) {
	if got := NormalizeProvider("  Grok\t"); got != "grok" {
		t.Errorf("expected grok, got %q", got)
	}
}
