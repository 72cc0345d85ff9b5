/*
Package security holds credential handling for tokenbench.

# Secret Management

Provider API keys are resolved by name through a chain of sources:

	manager, err := secrets.NewFromConfig(cfg.Secrets)
	if err != nil {
		log.Fatal(err)
	}

	apiKey, err := manager.GetSecret(ctx, "openai-api-key")
	if err != nil {
		log.Fatal(err)
	}

The env source maps "openai-api-key" to OPENAI_API_KEY. The file source
reads one file per secret from a directory and reloads it on change.
Placeholder values such as "your-api-key" count as missing.

Secret values are never logged, stored with results or printed by the CLI.
*/
package security
