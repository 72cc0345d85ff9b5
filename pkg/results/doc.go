// Package results holds the collaborators that keep experiment results
// beyond a single process: persistent storage of runs and their call records
// (subpackage storage) and timestamped CSV or JSON files (subpackage export).
//
// Both subpackages report failures with the typed errors defined here:
//
//	var se *results.StorageError
//	if errors.As(err, &se) {
//	    log.Printf("backend %s failed during %s", se.Backend, se.Operation)
//	}
//
// Credentials never reach this layer; records carry provider ids, prompts,
// outputs, token counts and costs only.
package results
