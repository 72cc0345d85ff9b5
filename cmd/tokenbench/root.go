package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"costlab-hq/tokenbench/pkg/cli"
	"costlab-hq/tokenbench/pkg/config"
	"costlab-hq/tokenbench/pkg/telemetry/logging"
)

var (
	// Global flags
	cfgFile   string
	logLevel  string
	logFormat string
	verbose   bool
)

var rootCmd = &cobra.Command{
	Use:   "tokenbench",
	Short: "Compare LLM token usage and cost across providers",
	Long: `tokenbench sends the same prompt to several LLM providers, records the
token counts each one reports and prices every call against tiered,
cache-aware rate sheets.

Supported providers: openai, gemini, anthropic, grok.

Credentials are read from OPENAI_API_KEY, GEMINI_API_KEY, ANTHROPIC_API_KEY
and GROK_API_KEY, or from a secrets directory. Without --config the built-in
defaults are used.`,
	Version:       Version,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(cli.ExitCode(err))
	}
}

func init() {
	// Global persistent flags (available to all subcommands)
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file path (default: built-in defaults)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "override log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "", "override log format (text, json, console)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output (same as --log-level debug)")
}

// loadConfig reads the configuration, applies environment and logging flag
// overrides, and installs the resulting logger as the slog default.
func loadConfig(cmd *cobra.Command) (*config.Config, *slog.Logger, error) {
	cfg, err := config.LoadConfigWithEnvOverrides(cfgFile)
	if err != nil {
		return nil, nil, err
	}

	if logLevel != "" {
		cfg.Telemetry.Logging.Level = logLevel
	}
	if verbose {
		cfg.Telemetry.Logging.Level = "debug"
	}
	if logFormat != "" {
		cfg.Telemetry.Logging.Format = logFormat
	}

	logger, err := logging.New(cfg.Telemetry.Logging, cmd.ErrOrStderr())
	if err != nil {
		return nil, nil, fmt.Errorf("failed to configure logging: %w", err)
	}
	slog.SetDefault(logger)

	return cfg, logger, nil
}

// render writes table in the format named by the --output flag value.
func render(cmd *cobra.Command, output string, table *cli.Table) error {
	format, err := cli.ParseOutputFormat(output)
	if err != nil {
		return err
	}
	return cli.NewFormatter(format).FormatTo(cmd.OutOrStdout(), table)
}
