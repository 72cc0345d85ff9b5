package main

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/cobra"
)

// newTestCmd returns a command whose stdout is captured and whose logs and
// progress output are discarded.
func newTestCmd() (*cobra.Command, *bytes.Buffer) {
	var out bytes.Buffer
	cmd := &cobra.Command{}
	cmd.SetOut(&out)
	cmd.SetErr(io.Discard)
	cmd.SetContext(context.Background())
	return cmd, &out
}

// useConfig writes body to a config file in dir and points --config at it.
// Occurrences of {{dir}} in body are replaced with dir.
func useConfig(t *testing.T, dir, body string) {
	t.Helper()

	path := filepath.Join(dir, "tokenbench.yaml")
	body = strings.ReplaceAll(body, "{{dir}}", dir)
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}

	prevFile, prevLogger := cfgFile, slog.Default()
	cfgFile = path
	t.Cleanup(func() {
		cfgFile = prevFile
		logLevel, logFormat, verbose = "", "", false
		slog.SetDefault(prevLogger)
	})
}
