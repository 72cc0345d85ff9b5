// tokenbench compares token usage and cost across LLM provider APIs.
//
// It sends the same prompt to several providers (OpenAI, Gemini, Anthropic,
// Grok) for a number of trials, records the token counts each provider
// reports and prices every call against the configured tier and cache rates.
//
// Usage:
//
//	# Run the configured experiment once
//	tokenbench run --config tokenbench.yaml
//
//	# Override the plan from the command line
//	tokenbench run -p openai,anthropic -n 5 --prompt "Summarize Hamlet"
//
//	# Run on a cron schedule and serve metrics
//	tokenbench schedule --config tokenbench.yaml
//
//	# Check which providers have a usable credential
//	tokenbench providers
//
//	# Quote the cost of a call without making it
//	tokenbench cost anthropic --input 2006 --cached 1920 --output 300
//
//	# Inspect stored runs
//	tokenbench runs list --since 24h
package main

func main() {
	Execute()
}
