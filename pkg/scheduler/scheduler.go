package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"costlab-hq/tokenbench/pkg/experiment"
	"costlab-hq/tokenbench/pkg/results/export"
	"costlab-hq/tokenbench/pkg/results/storage"
)

// ExperimentRunner executes one experiment plan.
type ExperimentRunner interface {
	Run(ctx context.Context, plan experiment.Plan) (*experiment.Result, error)
}

// RunReport describes one scheduled run after it has been persisted.
type RunReport struct {
	RunID      string    `json:"run_id"`
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`
	Records    int       `json:"records"`
	Succeeded  int       `json:"succeeded"`
	Failed     int       `json:"failed"`
	TotalCost  float64   `json:"total_cost"`

	// ExportPath is empty when export is disabled.
	ExportPath string `json:"export_path,omitempty"`

	// Pruned counts runs removed by retention after this run.
	Pruned int64 `json:"pruned"`

	// Err is the first error that stopped or degraded the run.
	Err error `json:"-"`
}

// Scheduler runs the experiment plan on a cron schedule, persists each
// result, exports it and prunes runs older than the retention period.
// Overlapping runs are skipped, not queued.
type Scheduler struct {
	runner   ExperimentRunner
	expr     string
	schedule cron.Schedule
	cron     *cron.Cron

	store         storage.Storage
	retentionDays int
	exporter      export.Exporter
	exportDir     string

	pricing   PricingUpdater
	intervals IntervalSetter

	logger *slog.Logger
	now    func() time.Time

	mu      sync.Mutex
	plan    experiment.Plan
	running bool
	last    *RunReport
}

// Option configures a Scheduler.
type Option func(*Scheduler)

// WithStorage saves every run to store and, when retentionDays is positive,
// deletes runs older than that many days after each run.
func WithStorage(store storage.Storage, retentionDays int) Option {
	return func(s *Scheduler) {
		s.store = store
		s.retentionDays = retentionDays
	}
}

// WithExporter writes every run to a timestamped file under dir.
func WithExporter(e export.Exporter, dir string) Option {
	return func(s *Scheduler) {
		s.exporter = e
		s.exportDir = dir
	}
}

// WithLogger sets the scheduler logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Scheduler) {
		s.logger = logger
	}
}

// WithClock replaces the time source used for export names and retention.
func WithClock(now func() time.Time) Option {
	return func(s *Scheduler) {
		s.now = now
	}
}

// New creates a scheduler for a standard 5-field cron expression.
//
// Common cron expressions:
//   - "0 * * * *"    - Hourly
//   - "*/15 * * * *" - Every 15 minutes
//   - "0 3 * * *"    - Daily at 3 AM
func New(runner ExperimentRunner, plan experiment.Plan, expr string, opts ...Option) (*Scheduler, error) {
	schedule, err := cron.ParseStandard(expr)
	if err != nil {
		return nil, fmt.Errorf("invalid cron schedule %q: %w", expr, err)
	}
	if err := plan.Validate(); err != nil {
		return nil, fmt.Errorf("invalid experiment plan: %w", err)
	}

	s := &Scheduler{
		runner:   runner,
		expr:     expr,
		schedule: schedule,
		plan:     plan,
		logger:   slog.Default().With("component", "scheduler"),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}

	s.cron = cron.New(cron.WithChain(
		cron.Recover(cron.DiscardLogger),
		cron.SkipIfStillRunning(cron.DiscardLogger),
	))

	return s, nil
}

// Start schedules the job and returns immediately. The scheduler stops when
// ctx is cancelled or Stop is called.
func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		return fmt.Errorf("scheduler already running")
	}

	s.cron.Schedule(s.schedule, cron.FuncJob(func() {
		if _, err := s.RunOnce(ctx); err != nil {
			s.logger.Error("scheduled run failed", "error", err)
		}
	}))

	s.cron.Start()
	s.running = true

	s.logger.Info("scheduler started",
		"schedule", s.expr,
		"retention_days", s.retentionDays,
		"storage", s.store != nil,
		"export", s.exporter != nil,
	)

	go func() {
		<-ctx.Done()
		s.Stop()
	}()

	return nil
}

// Stop stops the scheduler and waits for a run in progress to finish.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return
	}
	s.running = false
	s.mu.Unlock()

	<-s.cron.Stop().Done()
	s.logger.Info("scheduler stopped")
}

// IsRunning returns true if the scheduler is running.
func (s *Scheduler) IsRunning() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.running
}

// NextRun returns the next scheduled run time after from.
func (s *Scheduler) NextRun(from time.Time) time.Time {
	return s.schedule.Next(from)
}

// Plan returns the plan the next run will use.
func (s *Scheduler) Plan() experiment.Plan {
	s.mu.Lock()
	defer s.mu.Unlock()

	plan := s.plan
	plan.Providers = append([]string(nil), s.plan.Providers...)
	return plan
}

// SetPlan replaces the plan for subsequent runs. An invalid plan is rejected.
func (s *Scheduler) SetPlan(plan experiment.Plan) error {
	if err := plan.Validate(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.plan = plan
	return nil
}

// LastRun returns the report of the most recent run, if any.
func (s *Scheduler) LastRun() (RunReport, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.last == nil {
		return RunReport{}, false
	}
	return *s.last, true
}

// RunOnce executes one run now: run the plan, save, export, prune. A partial
// result from a cancelled run is still saved. The returned error is the
// first failure; later steps still run when a result exists.
func (s *Scheduler) RunOnce(ctx context.Context) (RunReport, error) {
	plan := s.Plan()
	logger := s.logger

	res, runErr := s.runner.Run(ctx, plan)
	if res == nil {
		report := RunReport{StartedAt: s.now(), FinishedAt: s.now(), Err: runErr}
		s.remember(report)
		return report, fmt.Errorf("experiment run failed: %w", runErr)
	}

	report := RunReport{
		RunID:      res.RunID,
		StartedAt:  res.StartedAt,
		FinishedAt: res.FinishedAt,
		Records:    len(res.Snapshot()),
		Succeeded:  res.Succeeded(),
		Failed:     res.Failed(),
		TotalCost:  res.TotalCost(),
		Err:        runErr,
	}
	logger = logger.With("run_id", res.RunID)

	// Persistence outlives a cancelled run context.
	persistCtx := context.WithoutCancel(ctx)

	if s.store != nil {
		if err := s.store.SaveRun(persistCtx, res); err != nil {
			logger.Error("failed to save run", "error", err)
			report.Err = firstErr(report.Err, err)
		}
	}

	if s.exporter != nil {
		path, err := export.WriteFile(persistCtx, s.exporter, s.exportDir, res, s.now())
		if err != nil {
			logger.Error("failed to export run", "error", err)
			report.Err = firstErr(report.Err, err)
		} else {
			report.ExportPath = path
			logger.Info("run exported", "path", path)
		}
	}

	if s.store != nil && s.retentionDays > 0 {
		cutoff := s.now().AddDate(0, 0, -s.retentionDays)
		n, err := s.store.DeleteRunsBefore(persistCtx, cutoff)
		if err != nil {
			logger.Error("retention pruning failed", "error", err)
			report.Err = firstErr(report.Err, err)
		} else {
			report.Pruned = n
			if n > 0 {
				logger.Info("retention pruning completed", "deleted_count", n, "cutoff", cutoff)
			}
		}
	}

	s.remember(report)

	logger.Info("scheduled run completed",
		"succeeded", report.Succeeded,
		"failed", report.Failed,
		"total_cost", report.TotalCost,
	)

	return report, report.Err
}

func (s *Scheduler) remember(report RunReport) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.last = &report
}

func firstErr(current, next error) error {
	if current != nil {
		return current
	}
	return next
}
