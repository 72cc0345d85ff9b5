package export

import (
	"context"
	"encoding/json"
	"io"
	"time"

	"costlab-hq/tokenbench/pkg/experiment"
	"costlab-hq/tokenbench/pkg/results"
)

// JSONExporter exports a run with its records and summary as one document.
type JSONExporter struct {
	// Pretty enables pretty-printing with indentation.
	Pretty bool
}

// NewJSONExporter creates a new JSON exporter.
func NewJSONExporter(pretty bool) *JSONExporter {
	return &JSONExporter{
		Pretty: pretty,
	}
}

// Format implements Exporter.
func (e *JSONExporter) Format() string {
	return FormatJSON
}

// Document is the JSON layout of an exported run.
type Document struct {
	RunID      string                  `json:"run_id"`
	StartedAt  time.Time               `json:"started_at"`
	FinishedAt time.Time               `json:"finished_at"`
	Plan       experiment.Plan         `json:"plan"`
	Records    []experiment.CallRecord `json:"records"`
	Summary    experiment.Summary      `json:"summary"`
}

// Export writes the run as a single JSON object.
func (e *JSONExporter) Export(ctx context.Context, res *experiment.Result, w io.Writer) error {
	records := res.Snapshot()
	if records == nil {
		records = []experiment.CallRecord{}
	}

	doc := Document{
		RunID:      res.RunID,
		StartedAt:  res.StartedAt,
		FinishedAt: res.FinishedAt,
		Plan:       res.Plan,
		Records:    records,
		Summary:    experiment.Summarize(res),
	}

	enc := json.NewEncoder(w)
	if e.Pretty {
		enc.SetIndent("", "  ")
	}
	if err := enc.Encode(doc); err != nil {
		return results.NewExportError(FormatJSON, len(records), err)
	}
	return nil
}
