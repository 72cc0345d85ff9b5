package main

import (
	"strconv"

	"github.com/spf13/cobra"

	"costlab-hq/tokenbench/pkg/cli"
	"costlab-hq/tokenbench/pkg/config"
	"costlab-hq/tokenbench/pkg/costs"
	"costlab-hq/tokenbench/pkg/providers"
)

var costFlags struct {
	input      int64
	cached     int64
	cacheWrite int64
	output     int64
	reasoning  int64
	format     string
}

var costCmd = &cobra.Command{
	Use:   "cost <provider>...",
	Short: "Quote the cost of a call from token counts, without calling the provider",
	Long: `Price the given token counts against each provider's configured tiers and
cache rates. No network call is made.

--input is the whole prompt, cached portion included. --cached is the part
of it served from or written to a cache; --cache-write is the part of
--cached written on this call (Anthropic only).

Examples:
  # One Anthropic call with a warm cache
  tokenbench cost anthropic --input 2006 --cached 1920 --output 300

  # Compare all providers for the same counts
  tokenbench cost openai gemini anthropic grok --input 150000 --output 2000`,
	Args: cobra.MinimumNArgs(1),
	RunE: quoteCost,
}

func init() {
	rootCmd.AddCommand(costCmd)

	costCmd.Flags().Int64Var(&costFlags.input, "input", 0, "input tokens, cached included")
	costCmd.Flags().Int64Var(&costFlags.cached, "cached", 0, "cached input tokens")
	costCmd.Flags().Int64Var(&costFlags.cacheWrite, "cache-write", 0, "cached tokens written on this call")
	costCmd.Flags().Int64Var(&costFlags.output, "output", 0, "output tokens")
	costCmd.Flags().Int64Var(&costFlags.reasoning, "reasoning", 0, "reasoning tokens (informational)")
	costCmd.Flags().StringVarP(&costFlags.format, "format", "f", "text", "output format (text, json, csv)")
}

// quote is one priced provider in the cost report.
type quote struct {
	Provider string               `json:"provider"`
	Model    string               `json:"model"`
	Usage    providers.TokenUsage `json:"usage"`
	Cost     costs.Breakdown      `json:"cost"`
}

func quoteCost(cmd *cobra.Command, args []string) error {
	if _, err := cli.ParseOutputFormat(costFlags.format); err != nil {
		return err
	}

	usage := providers.TokenUsage{
		InputTokens:       costFlags.input,
		CachedInputTokens: costFlags.cached,
		CacheWriteTokens:  costFlags.cacheWrite,
		OutputTokens:      costFlags.output,
		ReasoningTokens:   costFlags.reasoning,
	}
	if err := usage.Validate(); err != nil {
		return err
	}

	cfg, _, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	calculator, err := costs.NewCalculatorFromConfig(cfg.Providers)
	if err != nil {
		return err
	}

	table := &cli.Table{
		Headers: []string{"PROVIDER", "MODEL", "TIER", "UNCACHED INPUT", "CACHED INPUT", "OUTPUT", "TOTAL", "NOTE"},
	}
	quotes := make([]quote, 0, len(args))
	for _, arg := range args {
		id := config.NormalizeProvider(arg)
		breakdown, err := calculator.Compute(id, usage)
		if err != nil {
			return err
		}
		model := cfg.Providers[id].Model
		quotes = append(quotes, quote{Provider: id, Model: model, Usage: usage, Cost: breakdown})

		table.Rows = append(table.Rows, []string{
			id,
			model,
			strconv.Itoa(breakdown.Tier),
			formatUSD(breakdown.UncachedInputCost),
			formatUSD(breakdown.CachedInputCost),
			formatUSD(breakdown.OutputCost),
			formatUSD(breakdown.TotalCost),
			breakdown.IncompleteReason,
		})
	}
	table.Data = quotes

	return render(cmd, costFlags.format, table)
}
