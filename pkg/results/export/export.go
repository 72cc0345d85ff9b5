package export

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"costlab-hq/tokenbench/pkg/experiment"
	"costlab-hq/tokenbench/pkg/results"
)

// Supported formats.
const (
	FormatCSV  = "csv"
	FormatJSON = "json"
)

// FilePrefix starts every exported file name.
const FilePrefix = "results"

// Exporter writes a run to a writer in one format.
type Exporter interface {
	Export(ctx context.Context, res *experiment.Result, w io.Writer) error

	// Format returns the format name, also used as the file extension.
	Format() string
}

// New returns the exporter for format. pretty only affects JSON.
func New(format string, pretty bool) (Exporter, error) {
	switch strings.ToLower(strings.TrimSpace(format)) {
	case FormatCSV:
		return NewCSVExporter(true), nil
	case FormatJSON:
		return NewJSONExporter(pretty), nil
	default:
		return nil, results.NewExportError(format, 0, fmt.Errorf("unsupported export format %q", format))
	}
}

// FileName returns results_YYYYMMDD_HHMMSS.<ext> for t.
func FileName(ext string, t time.Time) string {
	return fmt.Sprintf("%s_%s.%s", FilePrefix, t.Format("20060102_150405"), ext)
}

// WriteFile exports res into a timestamped file under dir and returns its
// path. The file is written to a temporary name first and renamed once
// complete.
func WriteFile(ctx context.Context, e Exporter, dir string, res *experiment.Result, now time.Time) (string, error) {
	count := len(res.Snapshot())

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", results.NewExportError(e.Format(), count, err)
	}

	path := filepath.Join(dir, FileName(e.Format(), now))
	tmp, err := os.CreateTemp(dir, ".export-*")
	if err != nil {
		return "", results.NewExportError(e.Format(), count, err)
	}
	defer os.Remove(tmp.Name())

	if err := e.Export(ctx, res, tmp); err != nil {
		tmp.Close()
		return "", err
	}
	if err := tmp.Close(); err != nil {
		return "", results.NewExportError(e.Format(), count, err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return "", results.NewExportError(e.Format(), count, err)
	}

	return path, nil
}
