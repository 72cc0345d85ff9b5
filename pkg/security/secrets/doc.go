/*
Package secrets resolves provider API keys without ever writing them to
configuration, logs, or result storage.

# Providers

Two sources implement SecretProvider:

  - EnvProvider reads OPENAI_API_KEY style variables. A credential named
    "openai-api-key" maps to OPENAI_API_KEY, optionally behind a prefix.
  - FileProvider reads one file per credential from a directory. Files must be
    mode 0600 or 0400. With watching enabled, rotated files are picked up on
    the next read.

# Manager

A Manager chains providers with first-match-wins fallback:

	m, err := secrets.NewFromConfig(cfg.Secrets)
	if err != nil {
		return err
	}
	defer m.Close()

	key, err := m.GetSecret(ctx, "anthropic-api-key")

Values that look like unedited template placeholders ("your-openai-api-key")
are treated as absent and reported with ErrPlaceholder. Missing values wrap
ErrNotFound. Errors and log lines carry the credential name only.
*/
package secrets
