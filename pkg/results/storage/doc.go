// Package storage persists experiment runs and their call records.
//
// # Storage Backends
//
//   - SQLite via github.com/mattn/go-sqlite3 (driver "sqlite3", cgo)
//   - SQLite via modernc.org/sqlite (driver "sqlite", pure Go)
//   - Memory, for tests and runs with persistence disabled
//
// Both SQLite drivers share one schema. Timestamps and latencies are stored
// as integer nanoseconds, so a database written by one driver reads back
// identically through the other.
//
// # Basic Usage
//
//	store, err := storage.New(cfg.Storage)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer store.Close()
//
//	if err := store.SaveRun(ctx, result); err != nil {
//	    log.Printf("save failed: %v", err)
//	}
//
//	runs, err := store.ListRuns(ctx, storage.RunQuery{Provider: "openai", Limit: 10})
//
// # Retention
//
// DeleteRunsBefore removes runs, with their calls, whose start time is older
// than the cutoff. The scheduler calls it after each run when
// storage.retention_days is set.
package storage
