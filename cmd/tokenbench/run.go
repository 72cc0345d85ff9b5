package main

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"costlab-hq/tokenbench/pkg/cli"
	"costlab-hq/tokenbench/pkg/config"
	"costlab-hq/tokenbench/pkg/experiment"
	"costlab-hq/tokenbench/pkg/results/export"
	"costlab-hq/tokenbench/pkg/results/storage"
)

var runFlags struct {
	providers   []string
	trials      int
	prompt      string
	system      string
	maxTokens   int
	concurrency int
	output      string
	export      string
	noStore     bool
	noProgress  bool
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the experiment once",
	Long: `Send the prompt to every selected provider for the configured number of
trials, price each call and print a per-provider summary.

Failed calls are recorded and the run continues. When storage is enabled the
run is saved; when an export format is set a timestamped results file is
written.

Examples:
  # Run the configured experiment
  tokenbench run --config tokenbench.yaml

  # Two providers, five trials, custom prompt
  tokenbench run -p openai,anthropic -n 5 --prompt "Summarize Hamlet in one line"

  # Write a CSV file and print the summary as JSON
  tokenbench run --export csv --output json`,
	RunE: runExperiment,
}

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().StringSliceVarP(&runFlags.providers, "providers", "p", nil, "providers to call, in result order")
	runCmd.Flags().IntVarP(&runFlags.trials, "trials", "n", 0, "number of trials per provider")
	runCmd.Flags().StringVar(&runFlags.prompt, "prompt", "", "user prompt")
	runCmd.Flags().StringVar(&runFlags.system, "system", "", "system prompt")
	runCmd.Flags().IntVar(&runFlags.maxTokens, "max-tokens", 0, "override each provider's max_tokens")
	runCmd.Flags().IntVar(&runFlags.concurrency, "concurrency", 0, "providers called at once within a trial")
	runCmd.Flags().StringVarP(&runFlags.output, "output", "o", "text", "summary format (text, json, csv)")
	runCmd.Flags().StringVar(&runFlags.export, "export", "", "results file format (csv, json, none); default from config")
	runCmd.Flags().BoolVar(&runFlags.noStore, "no-store", false, "do not save the run even if storage is enabled")
	runCmd.Flags().BoolVar(&runFlags.noProgress, "no-progress", false, "hide the progress bar")
}

func runExperiment(cmd *cobra.Command, args []string) error {
	if _, err := cli.ParseOutputFormat(runFlags.output); err != nil {
		return err
	}

	cfg, logger, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if err := applyRunFlags(cfg); err != nil {
		return err
	}

	plan := experiment.PlanFromConfig(cfg.Experiment)
	plan.MaxTokens = runFlags.maxTokens
	if err := plan.Validate(); err != nil {
		return err
	}

	a, err := newApp(cfg, logger)
	if err != nil {
		return err
	}
	defer a.Close()

	var progress cli.ProgressReporter = cli.NoProgress{}
	if !runFlags.noProgress {
		progress = cli.NewProgressReporter(cmd.ErrOrStderr())
	}
	progress.Start(int64(plan.Trials * len(plan.Providers)))

	runner := a.runner(experiment.WithProgress(func(done, total int, rec experiment.CallRecord) {
		progress.Update(int64(done))
	}))

	ctx, stop := cli.SetupSignalHandler(cmd.Context())
	defer stop()

	res, runErr := runner.Run(ctx, plan)
	if res == nil {
		progress.Error(runErr)
		return runErr
	}
	progress.Finish()

	// The run already happened; keep its result even if interrupted.
	saveCtx := context.WithoutCancel(ctx)
	if err := persistRun(saveCtx, cfg, res, logger); err != nil {
		return cli.NewCommandError("run", err)
	}

	if err := render(cmd, runFlags.output, summaryTable(experiment.Summarize(res))); err != nil {
		return err
	}

	if runErr != nil {
		return cli.NewCommandError("run", fmt.Errorf("run %s interrupted after %d calls: %w",
			res.RunID, len(res.Snapshot()), runErr))
	}
	return nil
}

// applyRunFlags copies explicit flags over the experiment section.
func applyRunFlags(cfg *config.Config) error {
	if len(runFlags.providers) > 0 {
		seen := make(map[string]bool, len(runFlags.providers))
		for _, raw := range runFlags.providers {
			id := config.NormalizeProvider(raw)
			if seen[id] {
				return cli.NewUsageError("providers", fmt.Sprintf("provider %q is listed more than once", raw))
			}
			seen[id] = true
		}
		cfg.Experiment.Providers = runFlags.providers
	}
	if runFlags.trials < 0 {
		return cli.NewUsageError("trials", "must be at least 1")
	}
	if runFlags.trials > 0 {
		cfg.Experiment.Trials = runFlags.trials
	}
	if runFlags.prompt != "" {
		cfg.Experiment.UserPrompt = runFlags.prompt
	}
	if runFlags.system != "" {
		cfg.Experiment.SystemPrompt = runFlags.system
	}
	if runFlags.maxTokens < 0 {
		return cli.NewUsageError("max-tokens", "must be non-negative")
	}
	if runFlags.concurrency > 0 {
		cfg.Experiment.MaxConcurrency = runFlags.concurrency
	}

	switch runFlags.export {
	case "":
	case "none":
		cfg.Export.Format = ""
	case export.FormatCSV, export.FormatJSON:
		cfg.Export.Format = runFlags.export
	default:
		return cli.NewUsageError("export", fmt.Sprintf("unknown format %q (csv, json, none)", runFlags.export))
	}
	if runFlags.noStore {
		cfg.Storage.Enabled = false
	}
	return nil
}

// persistRun saves and exports res as configured.
func persistRun(ctx context.Context, cfg *config.Config, res *experiment.Result, logger *slog.Logger) error {
	if cfg.Storage.Enabled {
		store, err := storage.New(cfg.Storage)
		if err != nil {
			return err
		}
		defer store.Close()

		if err := store.SaveRun(ctx, res); err != nil {
			return err
		}
		logger.Info("run saved", "run_id", res.RunID, "driver", cfg.Storage.Driver, "path", cfg.Storage.Path)
	}

	if cfg.Export.Format != "" {
		exporter, err := export.New(cfg.Export.Format, cfg.Export.JSONPretty)
		if err != nil {
			return err
		}
		path, err := export.WriteFile(ctx, exporter, cfg.Export.Directory, res, time.Now())
		if err != nil {
			return err
		}
		logger.Info("results exported", "run_id", res.RunID, "path", path)
	}
	return nil
}

// summaryTable renders per-provider statistics. JSON output carries the
// full summary, outliers included.
func summaryTable(s experiment.Summary) *cli.Table {
	table := &cli.Table{
		Headers: []string{
			"PROVIDER", "MODEL", "CALLS", "OK", "FAILED",
			"TOTAL COST", "MEAN COST", "STDDEV",
			"INPUT", "CACHED", "OUTPUT", "REASONING",
			"TOKENS/$", "MEAN LATENCY", "RETRIES", "INCOMPLETE",
		},
		Data: s,
	}
	for _, p := range s.Providers {
		table.Rows = append(table.Rows, []string{
			p.Provider,
			p.Model,
			strconv.Itoa(p.Calls),
			strconv.Itoa(p.Succeeded),
			strconv.Itoa(p.Failed),
			formatUSD(p.TotalCost),
			formatUSD(p.MeanCost),
			formatUSD(p.StdDevCost),
			strconv.FormatInt(p.InputTokens, 10),
			strconv.FormatInt(p.CachedInputTokens, 10),
			strconv.FormatInt(p.OutputTokens, 10),
			strconv.FormatInt(p.ReasoningTokens, 10),
			strconv.FormatFloat(p.OutputTokensPerDollar, 'f', 0, 64),
			p.MeanLatency.Round(time.Millisecond).String(),
			strconv.Itoa(p.Retries),
			strconv.Itoa(p.PricingIncomplete),
		})
	}
	table.Rows = append(table.Rows, []string{
		"TOTAL", "",
		strconv.Itoa(s.TotalCalls),
		strconv.Itoa(s.Succeeded),
		strconv.Itoa(s.Failed),
		formatUSD(s.TotalCost),
		"", "", "", "", "", "", "", "", "", "",
	})
	return table
}

func formatUSD(v float64) string {
	return "$" + strconv.FormatFloat(v, 'f', 6, 64)
}
