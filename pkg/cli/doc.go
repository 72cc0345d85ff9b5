/*
Package cli provides command-line helpers used by the tokenbench command.

Output Formatting:

Commands render tables as aligned text, CSV or JSON:

	format, err := cli.ParseOutputFormat(flagValue)
	if err != nil {
		return err
	}
	table := &cli.Table{Headers: []string{"PROVIDER", "COST"}, Rows: rows, Data: summary}
	if err := cli.NewFormatter(format).FormatTo(os.Stdout, table); err != nil {
		return err
	}

Progress Reporting:

	progress := cli.NewProgressReporter(os.Stderr)
	progress.Start(int64(trials * len(providers)))
	// per finished call
	progress.Update(int64(done))
	progress.Finish()

Signal Handling:

	ctx, stop := cli.SetupSignalHandler(context.Background())
	defer stop()

Errors:

ExitCode maps UsageError and configuration errors to exit status 2 and
other failures to 1.
*/
package cli
