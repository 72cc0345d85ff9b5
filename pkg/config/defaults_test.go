package config

import (
	"reflect"
	"testing"
	"time"
)

func TestApplyDefaults(t *testing.T) {
	tests := []struct {
		name  string
		input Config
		check func(*testing.T, *Config)
	}{
		{
			name:  "empty config gets all defaults",
			input: Config{},
			check: func(t *testing.T, cfg *Config) {
				if len(cfg.Providers) != len(KnownProviders) {
					t.Errorf("expected %d providers, got %d", len(KnownProviders), len(cfg.Providers))
				}
				if !reflect.DeepEqual(cfg.Experiment.Providers, KnownProviders) {
					t.Errorf("expected providers %v, got %v", KnownProviders, cfg.Experiment.Providers)
				}
				if cfg.Experiment.Trials != DefaultTrials {
					t.Errorf("expected trials %d, got %d", DefaultTrials, cfg.Experiment.Trials)
				}
				if cfg.Experiment.UserPrompt != DefaultUserPrompt {
					t.Errorf("expected default prompt, got %q", cfg.Experiment.UserPrompt)
				}
				if cfg.Retry.MaxAttempts != DefaultRetryMaxAttempts {
					t.Errorf("expected max attempts %d, got %d", DefaultRetryMaxAttempts, cfg.Retry.MaxAttempts)
				}
				if cfg.Retry.BaseDelay != DefaultRetryBaseDelay {
					t.Errorf("expected base delay %v, got %v", DefaultRetryBaseDelay, cfg.Retry.BaseDelay)
				}
				if cfg.Retry.MaxDelay != DefaultRetryMaxDelay {
					t.Errorf("expected max delay %v, got %v", DefaultRetryMaxDelay, cfg.Retry.MaxDelay)
				}
				if cfg.Storage.Driver != DefaultStorageDriver {
					t.Errorf("expected storage driver %q, got %q", DefaultStorageDriver, cfg.Storage.Driver)
				}
				if cfg.Schedule.Cron != DefaultScheduleCron {
					t.Errorf("expected cron %q, got %q", DefaultScheduleCron, cfg.Schedule.Cron)
				}
				if cfg.Telemetry.Logging.Level != DefaultLoggingLevel {
					t.Errorf("expected logging level %q, got %q", DefaultLoggingLevel, cfg.Telemetry.Logging.Level)
				}
				if cfg.Secrets.Source != DefaultSecretsSource {
					t.Errorf("expected secrets source %q, got %q", DefaultSecretsSource, cfg.Secrets.Source)
				}
			},
		},
		{
			name: "provider without pricing inherits built-in sheet",
			input: Config{
				Providers: map[string]ProviderConfig{
					"grok": {Model: "grok-4-fast"},
				},
			},
			check: func(t *testing.T, cfg *Config) {
				grok := cfg.Providers["grok"]
				if grok.Model != "grok-4-fast" {
					t.Errorf("expected model to be preserved, got %q", grok.Model)
				}
				if grok.Pricing.TierKey != "input_output" {
					t.Errorf("expected inherited tier key, got %q", grok.Pricing.TierKey)
				}
				if grok.Interval() != 100*time.Millisecond {
					t.Errorf("expected grok interval 100ms, got %v", grok.Interval())
				}
				if grok.Credential != "grok-api-key" {
					t.Errorf("expected default credential, got %q", grok.Credential)
				}
				if _, ok := cfg.Providers["openai"]; ok {
					t.Error("unlisted providers must not be added")
				}
				if !reflect.DeepEqual(cfg.Experiment.Providers, []string{"grok"}) {
					t.Errorf("expected experiment providers [grok], got %v", cfg.Experiment.Providers)
				}
			},
		},
		{
			name: "cache mode survives pricing inheritance",
			input: Config{
				Providers: map[string]ProviderConfig{
					"anthropic": {Pricing: PricingConfig{CacheMode: "persistent"}},
				},
			},
			check: func(t *testing.T, cfg *Config) {
				p := cfg.Providers["anthropic"].Pricing
				if p.CacheMode != "persistent" {
					t.Errorf("expected persistent cache mode, got %q", p.CacheMode)
				}
				if len(p.Tiers) != 2 {
					t.Errorf("expected 2 inherited tiers, got %d", len(p.Tiers))
				}
			},
		},
		{
			name: "explicit values are preserved",
			input: Config{
				Experiment: ExperimentConfig{Trials: 7, UserPrompt: "hi"},
				Providers: map[string]ProviderConfig{
					"gemini": {Model: "gemini-2.5-flash", MinInterval: Ptr(time.Second), MaxTokens: 32},
				},
				Retry: RetryConfig{MaxAttempts: 5, BaseDelay: time.Millisecond},
			},
			check: func(t *testing.T, cfg *Config) {
				if cfg.Experiment.Trials != 7 {
					t.Errorf("expected trials 7, got %d", cfg.Experiment.Trials)
				}
				g := cfg.Providers["gemini"]
				if g.Interval() != time.Second || g.MaxTokens != 32 {
					t.Errorf("explicit provider values overwritten: %+v", g)
				}
				if cfg.Retry.MaxAttempts != 5 || cfg.Retry.BaseDelay != time.Millisecond {
					t.Errorf("explicit retry values overwritten: %+v", cfg.Retry)
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := tt.input
			ApplyDefaults(&cfg)
			tt.check(t, &cfg)
		})
	}
}

func TestApplyDefaults_Idempotent(t *testing.T) {
	cfg1 := Config{}
	ApplyDefaults(&cfg1)

	cfg2 := Config{}
	ApplyDefaults(&cfg2)
	ApplyDefaults(&cfg2)

	if !reflect.DeepEqual(cfg1, cfg2) {
		t.Error("ApplyDefaults is not idempotent")
	}
}

func TestDefault_IsValid(t *testing.T) {
	if err := Validate(Default()); err != nil {
		t.Fatalf("default configuration must validate: %v", err)
	}
}

func TestDefaultProviders_ReturnsFreshCopies(t *testing.T) {
	a := DefaultProviders()
	a["openai"].Pricing.Tiers[0].Input = 99

	b := DefaultProviders()
	if b["openai"].Pricing.Tiers[0].Input == 99 {
		t.Error("DefaultProviders must not share tier slices between calls")
	}
}

func TestDefaultMinIntervalFor(t *testing.T) {
	tests := []struct {
		provider string
		want     time.Duration
	}{
		{"openai", 100 * time.Millisecond},
		{"gemini", 500 * time.Millisecond},
		{"anthropic", 200 * time.Millisecond},
		{"grok", 100 * time.Millisecond},
		{"unknown", DefaultMinInterval},
	}

	for _, tt := range tests {
		t.Run(tt.provider, func(t *testing.T) {
			if got := DefaultMinIntervalFor(tt.provider); got != tt.want {
				t.Errorf("DefaultMinIntervalFor(%q) = %v, want %v", tt.provider, got, tt.want)
			}
		})
	}
}
