package main

import (
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"costlab-hq/tokenbench/pkg/cli"
	"costlab-hq/tokenbench/pkg/providerfactory"
)

var providersFlags struct {
	output string
}

var providersCmd = &cobra.Command{
	Use:   "providers",
	Short: "Show configured providers and whether their credentials are usable",
	Long: `List every configured provider with its model, call interval and credential
status. Placeholder keys such as "your-api-key" count as missing. Credential
values are never printed.`,
	RunE: listProviders,
}

func init() {
	rootCmd.AddCommand(providersCmd)

	providersCmd.Flags().StringVarP(&providersFlags.output, "output", "o", "text", "output format (text, json, csv)")
}

// providerStatus is one row of the providers report.
type providerStatus struct {
	providerfactory.CredentialStatus
	Model       string        `json:"model"`
	MinInterval time.Duration `json:"min_interval"`
	Selected    bool          `json:"selected"`
}

func listProviders(cmd *cobra.Command, args []string) error {
	if _, err := cli.ParseOutputFormat(providersFlags.output); err != nil {
		return err
	}

	cfg, logger, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	a, err := newApp(cfg, logger)
	if err != nil {
		return err
	}
	defer a.Close()

	selected := make(map[string]bool, len(cfg.Experiment.Providers))
	for _, id := range cfg.Experiment.Providers {
		selected[id] = true
	}

	report := a.factory.CredentialReport(cmd.Context())
	statuses := make([]providerStatus, 0, len(report))
	table := &cli.Table{
		Headers: []string{"PROVIDER", "MODEL", "MIN INTERVAL", "SELECTED", "CREDENTIAL", "STATUS"},
	}
	for _, st := range report {
		pc := cfg.Providers[st.Provider]
		statuses = append(statuses, providerStatus{
			CredentialStatus: st,
			Model:            pc.Model,
			MinInterval:      pc.Interval(),
			Selected:         selected[st.Provider],
		})

		status := "ok"
		if !st.Present {
			status = "missing: " + st.Reason
		}
		table.Rows = append(table.Rows, []string{
			st.Provider,
			pc.Model,
			pc.Interval().String(),
			strconv.FormatBool(selected[st.Provider]),
			st.Credential,
			status,
		})
	}
	table.Data = statuses

	return render(cmd, providersFlags.output, table)
}
