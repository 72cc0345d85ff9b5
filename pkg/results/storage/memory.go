package storage

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"costlab-hq/tokenbench/pkg/experiment"
	"costlab-hq/tokenbench/pkg/results"
)

type storedRun struct {
	summary RunSummary
	plan    experiment.Plan
	records []experiment.CallRecord
}

// MemoryStorage implements Storage with an in-memory map.
// It is intended for tests and one-off runs with persistence disabled.
type MemoryStorage struct {
	runs map[string]*storedRun
	mu   sync.RWMutex
}

// NewMemoryStorage creates a new in-memory storage backend.
func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{
		runs: make(map[string]*storedRun),
	}
}

// SaveRun stores a copy of the run.
func (s *MemoryStorage) SaveRun(ctx context.Context, res *experiment.Result) error {
	stored := &storedRun{
		summary: summaryOf(res),
		plan:    res.Plan,
		records: res.Snapshot(),
	}
	stored.plan.Providers = append([]string(nil), res.Plan.Providers...)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.runs[res.RunID] = stored
	return nil
}

// GetRun returns a copy of a stored run.
func (s *MemoryStorage) GetRun(ctx context.Context, runID string) (*experiment.Result, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stored, ok := s.runs[runID]
	if !ok {
		return nil, results.NewStorageError(DriverMemory, "get_run", fmt.Errorf("%w: %s", results.ErrRunNotFound, runID))
	}

	plan := stored.plan
	plan.Providers = append([]string(nil), stored.plan.Providers...)
	return &experiment.Result{
		RunID:      stored.summary.RunID,
		Plan:       plan,
		StartedAt:  stored.summary.StartedAt,
		FinishedAt: stored.summary.FinishedAt,
		Records:    append([]experiment.CallRecord(nil), stored.records...),
	}, nil
}

// ListRuns returns matching summaries, newest first.
func (s *MemoryStorage) ListRuns(ctx context.Context, query RunQuery) ([]RunSummary, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	provider := strings.ToLower(strings.TrimSpace(query.Provider))
	summaries := []RunSummary{}
	for _, stored := range s.runs {
		if s.matchesQuery(stored, query, provider) {
			sum := stored.summary
			sum.Providers = append([]string(nil), stored.summary.Providers...)
			summaries = append(summaries, sum)
		}
	}

	sort.Slice(summaries, func(i, j int) bool {
		return summaries[i].StartedAt.After(summaries[j].StartedAt)
	})

	start := query.Offset
	if start > len(summaries) {
		return []RunSummary{}, nil
	}
	end := start + query.limit()
	if end > len(summaries) {
		end = len(summaries)
	}
	return summaries[start:end], nil
}

// DeleteRunsBefore removes runs started before cutoff.
func (s *MemoryStorage) DeleteRunsBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var count int64
	for id, stored := range s.runs {
		if stored.summary.StartedAt.Before(cutoff) {
			delete(s.runs, id)
			count++
		}
	}
	return count, nil
}

// Close is a no-op for memory storage.
func (s *MemoryStorage) Close() error {
	return nil
}

func (s *MemoryStorage) matchesQuery(stored *storedRun, query RunQuery, provider string) bool {
	if query.Since != nil && stored.summary.StartedAt.Before(*query.Since) {
		return false
	}
	if query.Until != nil && stored.summary.StartedAt.After(*query.Until) {
		return false
	}
	if provider != "" {
		for _, rec := range stored.records {
			if rec.Provider == provider {
				return true
			}
		}
		return false
	}
	return true
}
