package storage

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"costlab-hq/tokenbench/pkg/config"
	"costlab-hq/tokenbench/pkg/costs"
	"costlab-hq/tokenbench/pkg/experiment"
	"costlab-hq/tokenbench/pkg/providers"
	"costlab-hq/tokenbench/pkg/results"
)

// backends opens every Storage implementation against a fresh location.
func backends(t *testing.T) map[string]Storage {
	t.Helper()

	out := map[string]Storage{
		DriverMemory: NewMemoryStorage(),
	}
	for _, driver := range []string{DriverModernc, DriverMattn} {
		s, err := NewSQLiteStorage(&SQLiteConfig{
			Driver:       driver,
			Path:         filepath.Join(t.TempDir(), "runs.db"),
			BusyTimeout:  time.Second,
			MaxOpenConns: 2,
		})
		if err != nil {
			if driver == DriverMattn && strings.Contains(err.Error(), "CGO_ENABLED") {
				t.Logf("skipping %s: %v", driver, err)
				continue
			}
			t.Fatalf("NewSQLiteStorage(%s) failed: %v", driver, err)
		}
		out[driver] = s
	}

	t.Cleanup(func() {
		for _, s := range out {
			s.Close()
		}
	})
	return out
}

func makeRun(id string, started time.Time, providerIDs ...string) *experiment.Result {
	res := &experiment.Result{
		RunID: id,
		Plan: experiment.Plan{
			Providers:    providerIDs,
			Trials:       1,
			UserPrompt:   "How many r's in strawberry?",
			SystemPrompt: "Answer briefly.",
			MaxTokens:    256,
		},
		StartedAt:  started,
		FinishedAt: started.Add(3 * time.Second),
	}
	for i, p := range providerIDs {
		rec := experiment.CallRecord{
			RunID:        id,
			Trial:        1,
			Provider:     p,
			Model:        p + "-model",
			UserPrompt:   res.Plan.UserPrompt,
			SystemPrompt: res.Plan.SystemPrompt,
			Attempts:     1,
			Latency:      time.Duration(i+1) * 150 * time.Millisecond,
			StartedAt:    started.Add(time.Duration(i) * time.Millisecond),
		}
		if i == len(providerIDs)-1 && len(providerIDs) > 1 {
			rec.ErrorKind = providers.KindTransient
			rec.Error = "rate limited"
			rec.Attempts = 3
		} else {
			rec.Success = true
			rec.Output = "There are three."
			rec.FinishReason = "stop"
			rec.Usage = providers.TokenUsage{
				InputTokens:       1000,
				CachedInputTokens: 200,
				OutputTokens:      300,
				ReasoningTokens:   50,
			}
			rec.Cost = costs.Breakdown{
				UncachedInputCost: 0.002,
				CachedInputCost:   0.00025,
				OutputCost:        0.003,
				TotalCost:         0.00525,
			}
		}
		res.Records = append(res.Records, rec)
	}
	return res
}

func TestStorage_SaveAndGetRun(t *testing.T) {
	ctx := context.Background()
	started := time.Date(2026, 3, 1, 12, 0, 0, 123456789, time.UTC)

	for name, s := range backends(t) {
		t.Run(name, func(t *testing.T) {
			run := makeRun("run-1", started, "openai", "anthropic", "grok")
			if err := s.SaveRun(ctx, run); err != nil {
				t.Fatalf("SaveRun() failed: %v", err)
			}

			got, err := s.GetRun(ctx, "run-1")
			if err != nil {
				t.Fatalf("GetRun() failed: %v", err)
			}

			if !got.StartedAt.Equal(started) {
				t.Errorf("expected started_at %v, got %v", started, got.StartedAt)
			}
			if got.Plan.SystemPrompt != "Answer briefly." || got.Plan.MaxTokens != 256 {
				t.Errorf("plan not restored: %+v", got.Plan)
			}
			if strings.Join(got.Plan.Providers, ",") != "openai,anthropic,grok" {
				t.Errorf("expected providers in plan order, got %v", got.Plan.Providers)
			}
			if len(got.Records) != 3 {
				t.Fatalf("expected 3 records, got %d", len(got.Records))
			}

			first := got.Records[0]
			if first.Provider != "openai" || !first.Success {
				t.Errorf("unexpected first record: %+v", first)
			}
			if first.Usage != run.Records[0].Usage {
				t.Errorf("expected usage %+v, got %+v", run.Records[0].Usage, first.Usage)
			}
			if first.Cost.TotalCost != 0.00525 {
				t.Errorf("expected total cost 0.00525, got %v", first.Cost.TotalCost)
			}
			if first.Latency != 150*time.Millisecond {
				t.Errorf("expected latency 150ms, got %v", first.Latency)
			}
			if first.RunID != "run-1" {
				t.Errorf("expected run id on record, got %q", first.RunID)
			}

			last := got.Records[2]
			if last.Success || last.ErrorKind != providers.KindTransient || last.Attempts != 3 {
				t.Errorf("unexpected failed record: %+v", last)
			}
			if got.Succeeded() != 2 || got.Failed() != 1 {
				t.Errorf("expected 2/1, got %d/%d", got.Succeeded(), got.Failed())
			}
		})
	}
}

func TestStorage_GetRunNotFound(t *testing.T) {
	for name, s := range backends(t) {
		t.Run(name, func(t *testing.T) {
			_, err := s.GetRun(context.Background(), "missing")
			if !errors.Is(err, results.ErrRunNotFound) {
				t.Fatalf("expected ErrRunNotFound, got %v", err)
			}
			var se *results.StorageError
			if !errors.As(err, &se) {
				t.Fatalf("expected StorageError, got %T", err)
			}
			if se.Operation != "get_run" {
				t.Errorf("expected operation get_run, got %q", se.Operation)
			}
		})
	}
}

func TestStorage_SaveReplacesRun(t *testing.T) {
	ctx := context.Background()
	started := time.Now().UTC()

	for name, s := range backends(t) {
		t.Run(name, func(t *testing.T) {
			if err := s.SaveRun(ctx, makeRun("run-1", started, "openai", "gemini")); err != nil {
				t.Fatalf("SaveRun() failed: %v", err)
			}
			if err := s.SaveRun(ctx, makeRun("run-1", started, "grok")); err != nil {
				t.Fatalf("second SaveRun() failed: %v", err)
			}

			got, err := s.GetRun(ctx, "run-1")
			if err != nil {
				t.Fatalf("GetRun() failed: %v", err)
			}
			if len(got.Records) != 1 || got.Records[0].Provider != "grok" {
				t.Errorf("expected replaced run with one grok record, got %+v", got.Records)
			}

			runs, err := s.ListRuns(ctx, RunQuery{})
			if err != nil {
				t.Fatalf("ListRuns() failed: %v", err)
			}
			if len(runs) != 1 {
				t.Errorf("expected 1 run, got %d", len(runs))
			}
		})
	}
}

func TestStorage_ListRuns(t *testing.T) {
	ctx := context.Background()
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	for name, s := range backends(t) {
		t.Run(name, func(t *testing.T) {
			for i := 0; i < 5; i++ {
				p := "openai"
				if i%2 == 1 {
					p = "gemini"
				}
				run := makeRun(fmt.Sprintf("run-%d", i), base.Add(time.Duration(i)*time.Hour), p)
				if err := s.SaveRun(ctx, run); err != nil {
					t.Fatalf("SaveRun() failed: %v", err)
				}
			}

			since := base.Add(2 * time.Hour)
			tests := []struct {
				name  string
				query RunQuery
				want  []string
			}{
				{
					name:  "all newest first",
					query: RunQuery{},
					want:  []string{"run-4", "run-3", "run-2", "run-1", "run-0"},
				},
				{
					name:  "limit and offset",
					query: RunQuery{Limit: 2, Offset: 1},
					want:  []string{"run-3", "run-2"},
				},
				{
					name:  "since",
					query: RunQuery{Since: &since},
					want:  []string{"run-4", "run-3", "run-2"},
				},
				{
					name:  "until",
					query: RunQuery{Until: &since},
					want:  []string{"run-2", "run-1", "run-0"},
				},
				{
					name:  "provider",
					query: RunQuery{Provider: " Gemini "},
					want:  []string{"run-3", "run-1"},
				},
				{
					name:  "offset past end",
					query: RunQuery{Offset: 10},
					want:  []string{},
				},
			}

			for _, tt := range tests {
				t.Run(tt.name, func(t *testing.T) {
					runs, err := s.ListRuns(ctx, tt.query)
					if err != nil {
						t.Fatalf("ListRuns() failed: %v", err)
					}
					got := make([]string, 0, len(runs))
					for _, r := range runs {
						got = append(got, r.RunID)
					}
					if strings.Join(got, ",") != strings.Join(tt.want, ",") {
						t.Errorf("expected %v, got %v", tt.want, got)
					}
				})
			}
		})
	}
}

func TestStorage_ListRunsSummary(t *testing.T) {
	ctx := context.Background()

	for name, s := range backends(t) {
		t.Run(name, func(t *testing.T) {
			run := makeRun("run-1", time.Now().UTC(), "openai", "anthropic")
			if err := s.SaveRun(ctx, run); err != nil {
				t.Fatalf("SaveRun() failed: %v", err)
			}

			runs, err := s.ListRuns(ctx, RunQuery{})
			if err != nil {
				t.Fatalf("ListRuns() failed: %v", err)
			}
			if len(runs) != 1 {
				t.Fatalf("expected 1 run, got %d", len(runs))
			}
			sum := runs[0]
			if sum.Records != 2 || sum.Succeeded != 1 || sum.Failed != 1 {
				t.Errorf("unexpected counts: %+v", sum)
			}
			if sum.TotalCost != 0.00525 {
				t.Errorf("expected total cost 0.00525, got %v", sum.TotalCost)
			}
			if sum.Trials != 1 || len(sum.Providers) != 2 {
				t.Errorf("unexpected plan fields: %+v", sum)
			}
		})
	}
}

func TestStorage_DeleteRunsBefore(t *testing.T) {
	ctx := context.Background()
	now := time.Now().UTC()

	for name, s := range backends(t) {
		t.Run(name, func(t *testing.T) {
			old := makeRun("old", now.Add(-48*time.Hour), "openai")
			recent := makeRun("recent", now.Add(-time.Hour), "openai")
			for _, run := range []*experiment.Result{old, recent} {
				if err := s.SaveRun(ctx, run); err != nil {
					t.Fatalf("SaveRun() failed: %v", err)
				}
			}

			n, err := s.DeleteRunsBefore(ctx, now.Add(-24*time.Hour))
			if err != nil {
				t.Fatalf("DeleteRunsBefore() failed: %v", err)
			}
			if n != 1 {
				t.Errorf("expected 1 deleted run, got %d", n)
			}
			if _, err := s.GetRun(ctx, "old"); !errors.Is(err, results.ErrRunNotFound) {
				t.Errorf("expected old run gone, got %v", err)
			}
			if _, err := s.GetRun(ctx, "recent"); err != nil {
				t.Errorf("expected recent run kept, got %v", err)
			}
		})
	}
}

func TestSQLiteStorage_Reopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "runs.db")
	cfg := &SQLiteConfig{Driver: DriverModernc, Path: path}

	s, err := NewSQLiteStorage(cfg)
	if err != nil {
		t.Fatalf("NewSQLiteStorage() failed: %v", err)
	}
	if err := s.SaveRun(context.Background(), makeRun("run-1", time.Now().UTC(), "openai")); err != nil {
		t.Fatalf("SaveRun() failed: %v", err)
	}
	if err := s.Close(); err != nil {
		t.Fatalf("Close() failed: %v", err)
	}

	reopened, err := NewSQLiteStorage(cfg)
	if err != nil {
		t.Fatalf("reopen failed: %v", err)
	}
	defer reopened.Close()

	if _, err := reopened.GetRun(context.Background(), "run-1"); err != nil {
		t.Errorf("expected run to survive reopen, got %v", err)
	}
}

func TestNew(t *testing.T) {
	tests := []struct {
		name    string
		cfg     config.StorageConfig
		wantErr bool
	}{
		{
			name: "memory",
			cfg:  config.StorageConfig{Driver: DriverMemory},
		},
		{
			name: "modernc",
			cfg: config.StorageConfig{
				Driver: DriverModernc,
				Path:   filepath.Join(t.TempDir(), "runs.db"),
			},
		},
		{
			name:    "unknown driver",
			cfg:     config.StorageConfig{Driver: "postgres"},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, err := New(tt.cfg)
			if (err != nil) != tt.wantErr {
				t.Fatalf("New() error = %v, wantErr %v", err, tt.wantErr)
			}
			if s != nil {
				s.Close()
			}
		})
	}
}
