// Package logging builds the structured logger used across tokenbench.
//
// # Overview
//
// The logger is a standard *slog.Logger whose handler masks provider
// credentials before anything is written:
//   - JSON, text and console formats
//   - Configurable levels (debug, info, warn, error)
//   - Built-in patterns for OpenAI, Anthropic, xAI and Google keys, bearer
//     tokens and api-key headers, plus configured extra patterns
//   - Attributes named api_key, secret, token or authorization are always
//     masked, whatever their value
//
// # Usage
//
//	logger, err := logging.New(cfg.Telemetry.Logging, os.Stderr)
//	if err != nil {
//	    return err
//	}
//	slog.SetDefault(logger)
//
//	logger.Info("calling provider", "provider", "openai", "api_key", key) // api_key=[REDACTED]
package logging
