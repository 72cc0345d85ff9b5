package storage

import (
	"context"
	"fmt"
	"time"

	"costlab-hq/tokenbench/pkg/config"
	"costlab-hq/tokenbench/pkg/experiment"
)

// Storage persists experiment results.
type Storage interface {
	// SaveRun stores a run and all its records. Saving an existing run id
	// replaces it.
	SaveRun(ctx context.Context, res *experiment.Result) error

	// GetRun loads a run with its records in original order.
	// It returns results.ErrRunNotFound for an unknown id.
	GetRun(ctx context.Context, runID string) (*experiment.Result, error)

	// ListRuns returns run summaries, newest first.
	ListRuns(ctx context.Context, query RunQuery) ([]RunSummary, error)

	// DeleteRunsBefore removes runs started before cutoff and returns how
	// many were removed.
	DeleteRunsBefore(ctx context.Context, cutoff time.Time) (int64, error)

	// Close releases resources held by the backend.
	Close() error
}

// RunQuery filters ListRuns.
type RunQuery struct {
	// Since and Until bound the run start time (inclusive).
	Since *time.Time
	Until *time.Time

	// Provider keeps runs that called this provider.
	Provider string

	// Limit caps the number of runs (default: 100).
	Limit int

	Offset int
}

// DefaultListLimit is the ListRuns limit when none is given.
const DefaultListLimit = 100

func (q RunQuery) limit() int {
	if q.Limit > 0 {
		return q.Limit
	}
	return DefaultListLimit
}

// RunSummary is the stored header of one run.
type RunSummary struct {
	RunID      string    `json:"run_id"`
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`
	Providers  []string  `json:"providers"`
	Trials     int       `json:"trials"`
	Records    int       `json:"records"`
	Succeeded  int       `json:"succeeded"`
	Failed     int       `json:"failed"`
	TotalCost  float64   `json:"total_cost"`
}

func summaryOf(res *experiment.Result) RunSummary {
	return RunSummary{
		RunID:      res.RunID,
		StartedAt:  res.StartedAt,
		FinishedAt: res.FinishedAt,
		Providers:  append([]string(nil), res.Plan.Providers...),
		Trials:     res.Plan.Trials,
		Records:    len(res.Snapshot()),
		Succeeded:  res.Succeeded(),
		Failed:     res.Failed(),
		TotalCost:  res.TotalCost(),
	}
}

// New opens the backend selected by the storage configuration.
func New(cfg config.StorageConfig) (Storage, error) {
	switch cfg.Driver {
	case DriverMemory:
		return NewMemoryStorage(), nil
	case DriverMattn, DriverModernc:
		return NewSQLiteStorage(&SQLiteConfig{
			Driver:       cfg.Driver,
			Path:         cfg.Path,
			JournalMode:  cfg.JournalMode,
			BusyTimeout:  cfg.BusyTimeout,
			MaxOpenConns: cfg.MaxOpenConns,
		})
	default:
		return nil, fmt.Errorf("unknown storage driver %q", cfg.Driver)
	}
}
