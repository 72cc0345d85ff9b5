package export

import (
	"context"
	"encoding/csv"
	"io"
	"strconv"

	"costlab-hq/tokenbench/pkg/experiment"
	"costlab-hq/tokenbench/pkg/results"
)

// CSVExporter exports call records, one row per call.
type CSVExporter struct {
	// IncludeHeader includes a header row with column names.
	IncludeHeader bool
}

// NewCSVExporter creates a new CSV exporter.
func NewCSVExporter(includeHeader bool) *CSVExporter {
	return &CSVExporter{
		IncludeHeader: includeHeader,
	}
}

// Format implements Exporter.
func (e *CSVExporter) Format() string {
	return FormatCSV
}

// Export writes the run's records in plan order. Failed calls carry
// "Error: <message>" in the Output column and empty token columns.
func (e *CSVExporter) Export(ctx context.Context, res *experiment.Result, w io.Writer) error {
	records := res.Snapshot()
	writer := csv.NewWriter(w)

	if e.IncludeHeader {
		if err := writer.Write(e.getHeaderRow()); err != nil {
			return results.NewExportError(FormatCSV, len(records), err)
		}
	}

	for _, rec := range records {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := writer.Write(e.recordToRow(rec)); err != nil {
			return results.NewExportError(FormatCSV, len(records), err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return results.NewExportError(FormatCSV, len(records), err)
	}
	return nil
}

// getHeaderRow returns the CSV header row.
func (e *CSVExporter) getHeaderRow() []string {
	return []string{
		"Run Number", "Vendor", "Model",
		"User Prompt", "System Prompt", "Output",
		"Input Tokens", "Cached Input Tokens", "Output Tokens", "Reasoning Tokens",
		"Uncached Input Cost", "Cached Input Cost", "Output Cost", "Total Cost",
		"Pricing Incomplete", "Attempts", "Latency Ms",
	}
}

// recordToRow converts a call record to a CSV row.
func (e *CSVExporter) recordToRow(rec experiment.CallRecord) []string {
	formatInt := func(v int64) string {
		if !rec.Success {
			return ""
		}
		return strconv.FormatInt(v, 10)
	}
	formatCost := func(v float64) string {
		if !rec.Success {
			return ""
		}
		return strconv.FormatFloat(v, 'f', 6, 64)
	}

	output := rec.Output
	if !rec.Success {
		output = "Error: " + rec.Error
	}

	return []string{
		strconv.Itoa(rec.Trial),
		rec.Provider,
		rec.Model,
		rec.UserPrompt,
		rec.SystemPrompt,
		output,
		formatInt(rec.Usage.InputTokens),
		formatInt(rec.Usage.CachedInputTokens),
		formatInt(rec.Usage.OutputTokens),
		formatInt(rec.Usage.ReasoningTokens),
		formatCost(rec.Cost.UncachedInputCost),
		formatCost(rec.Cost.CachedInputCost),
		formatCost(rec.Cost.OutputCost),
		formatCost(rec.Cost.TotalCost),
		strconv.FormatBool(rec.Cost.PricingIncomplete),
		strconv.Itoa(rec.Attempts),
		strconv.FormatInt(rec.Latency.Milliseconds(), 10),
	}
}
