// Package config provides configuration management for tokenbench.
//
// This package handles loading, validating, and watching configuration from
// YAML files with environment variable overrides. Every field has a default,
// so an empty file (or no file at all) yields a runnable configuration that
// compares the four supported providers with their built-in price sheets.
//
// # Configuration Loading
//
// Configuration can be loaded in two ways:
//
//  1. From a YAML file only:
//     cfg, err := config.LoadConfig("tokenbench.yaml")
//
//  2. With environment variable overrides (an empty path uses defaults):
//     cfg, err := config.LoadConfigWithEnvOverrides("tokenbench.yaml")
//
// # Environment Variable Overrides
//
// Environment variables follow the naming convention TOKENBENCH_SECTION_FIELD.
// For example:
//
//   - TOKENBENCH_EXPERIMENT_TRIALS overrides experiment.trials
//   - TOKENBENCH_PROVIDERS_GROK_MODEL overrides providers.grok.model
//   - TOKENBENCH_TELEMETRY_LOGGING_LEVEL overrides telemetry.logging.level
//
// API keys are not configuration. They are resolved at call time through the
// secrets source named in the secrets section (OPENAI_API_KEY and friends by
// default) and are never written back into a Config.
//
// # Configuration Precedence
//
//  1. Default values (defined in defaults.go)
//  2. Values from YAML file
//  3. Environment variable overrides
//  4. Validation (fails fast if invalid)
//
// # Pricing
//
// Each provider carries a tier table keyed on either input tokens or input
// plus output tokens. A tier applies when the qualifying count is strictly
// greater than its above_tokens threshold. Omitting cached_input marks cache
// pricing as unknown; such calls are costed with a pricing-incomplete flag.
//
// # Hot Reload
//
// Watcher observes the configuration file and delivers each valid revision
// to a callback. The scheduler uses it to refresh price sheets between runs.
package config
