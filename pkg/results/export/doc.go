// Package export writes experiment runs to CSV or JSON files.
//
// The CSV layout has one row per call with the columns Run Number, Vendor,
// Model, User Prompt, System Prompt, Output, the token counts and the
// per-bucket costs. Failed calls show "Error: <message>" as their output.
//
// The JSON layout is one object holding the plan, every record and the
// run summary:
//
//	exporter, err := export.New("json", true)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	path, err := export.WriteFile(ctx, exporter, "results", result, time.Now())
//
// Files are named results_YYYYMMDD_HHMMSS.<format>.
package export
