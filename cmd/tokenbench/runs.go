package main

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"costlab-hq/tokenbench/pkg/cli"
	"costlab-hq/tokenbench/pkg/experiment"
	"costlab-hq/tokenbench/pkg/results/export"
	"costlab-hq/tokenbench/pkg/results/storage"
)

var runsFlags struct {
	since    string
	until    string
	provider string
	limit    int
	offset   int
	output   string
	records  string
}

var runsCmd = &cobra.Command{
	Use:   "runs",
	Short: "Inspect stored runs",
	Long:  `List and show runs saved by "tokenbench run" and "tokenbench schedule".`,
}

var runsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List stored runs, newest first",
	Long: `List stored runs, newest first.

--since and --until accept an RFC3339 time or a duration relative to now.

Examples:
  # Runs from the last day
  tokenbench runs list --since 24h

  # Runs that called Gemini, as JSON
  tokenbench runs list --provider gemini --output json`,
	RunE: listRuns,
}

var runsShowCmd = &cobra.Command{
	Use:   "show <run-id>",
	Short: "Show one stored run",
	Long: `Show the per-provider summary of a stored run. With --records csv or
--records json, print every call record instead, in the same layout as the
exported results files.`,
	Args: cobra.ExactArgs(1),
	RunE: showRun,
}

func init() {
	rootCmd.AddCommand(runsCmd)
	runsCmd.AddCommand(runsListCmd)
	runsCmd.AddCommand(runsShowCmd)

	runsListCmd.Flags().StringVar(&runsFlags.since, "since", "", "only runs started at or after this time")
	runsListCmd.Flags().StringVar(&runsFlags.until, "until", "", "only runs started at or before this time")
	runsListCmd.Flags().StringVar(&runsFlags.provider, "provider", "", "only runs that called this provider")
	runsListCmd.Flags().IntVar(&runsFlags.limit, "limit", storage.DefaultListLimit, "maximum number of runs")
	runsListCmd.Flags().IntVar(&runsFlags.offset, "offset", 0, "number of runs to skip")
	runsListCmd.Flags().StringVarP(&runsFlags.output, "output", "o", "text", "output format (text, json, csv)")

	runsShowCmd.Flags().StringVarP(&runsFlags.output, "output", "o", "text", "summary format (text, json, csv)")
	runsShowCmd.Flags().StringVar(&runsFlags.records, "records", "", "print call records as csv or json")
}

// openStore opens the configured storage backend for reading.
func openStore(cmd *cobra.Command) (storage.Storage, error) {
	cfg, _, err := loadConfig(cmd)
	if err != nil {
		return nil, err
	}
	return storage.New(cfg.Storage)
}

func listRuns(cmd *cobra.Command, args []string) error {
	if _, err := cli.ParseOutputFormat(runsFlags.output); err != nil {
		return err
	}

	now := time.Now()
	query := storage.RunQuery{
		Provider: runsFlags.provider,
		Limit:    runsFlags.limit,
		Offset:   runsFlags.offset,
	}
	var err error
	if query.Since, err = parseTimeFlag("since", runsFlags.since, now); err != nil {
		return err
	}
	if query.Until, err = parseTimeFlag("until", runsFlags.until, now); err != nil {
		return err
	}
	if runsFlags.offset < 0 {
		return cli.NewUsageError("offset", "must be non-negative")
	}

	store, err := openStore(cmd)
	if err != nil {
		return err
	}
	defer store.Close()

	summaries, err := store.ListRuns(cmd.Context(), query)
	if err != nil {
		return err
	}

	table := &cli.Table{
		Headers: []string{"RUN ID", "STARTED", "DURATION", "PROVIDERS", "TRIALS", "CALLS", "FAILED", "TOTAL COST"},
		Data:    summaries,
	}
	for _, s := range summaries {
		table.Rows = append(table.Rows, []string{
			s.RunID,
			s.StartedAt.Local().Format(time.DateTime),
			s.FinishedAt.Sub(s.StartedAt).Round(time.Millisecond).String(),
			strings.Join(s.Providers, ","),
			strconv.Itoa(s.Trials),
			strconv.Itoa(s.Records),
			strconv.Itoa(s.Failed),
			formatUSD(s.TotalCost),
		})
	}

	return render(cmd, runsFlags.output, table)
}

func showRun(cmd *cobra.Command, args []string) error {
	if _, err := cli.ParseOutputFormat(runsFlags.output); err != nil {
		return err
	}

	var exporter export.Exporter
	if runsFlags.records != "" {
		var err error
		if exporter, err = export.New(runsFlags.records, true); err != nil {
			return cli.NewUsageError("records", err.Error())
		}
	}

	store, err := openStore(cmd)
	if err != nil {
		return err
	}
	defer store.Close()

	res, err := store.GetRun(cmd.Context(), args[0])
	if err != nil {
		return err
	}

	if exporter != nil {
		return exporter.Export(cmd.Context(), res, cmd.OutOrStdout())
	}
	return render(cmd, runsFlags.output, summaryTable(experiment.Summarize(res)))
}

// parseTimeFlag accepts RFC3339 or a duration back from now. Empty means unset.
func parseTimeFlag(flag, value string, now time.Time) (*time.Time, error) {
	if value == "" {
		return nil, nil
	}
	if t, err := time.Parse(time.RFC3339, value); err == nil {
		return &t, nil
	}
	d, err := time.ParseDuration(value)
	if err != nil || d < 0 {
		return nil, cli.NewUsageError(flag, fmt.Sprintf("%q is neither RFC3339 nor a positive duration", value))
	}
	t := now.Add(-d)
	return &t, nil
}
