package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"costlab-hq/tokenbench/pkg/cli"
	"costlab-hq/tokenbench/pkg/config"
	"costlab-hq/tokenbench/pkg/experiment"
	"costlab-hq/tokenbench/pkg/results/export"
	"costlab-hq/tokenbench/pkg/results/storage"
	"costlab-hq/tokenbench/pkg/scheduler"
	"costlab-hq/tokenbench/pkg/telemetry/health"
)

const shutdownTimeout = 10 * time.Second

var scheduleFlags struct {
	cron       string
	runOnStart bool
	listen     string
}

var scheduleCmd = &cobra.Command{
	Use:   "schedule",
	Short: "Run the experiment on a cron schedule",
	Long: `Run the configured experiment on a cron schedule until interrupted.

Each run is saved (when storage is enabled), exported (when an export format
is set) and runs older than storage.retention_days are pruned. A run that is
still in progress when the next one is due causes that tick to be skipped.

With telemetry.metrics.enabled, Prometheus metrics and /health, /ready and
/version are served on the metrics listen address. With schedule.watch_config,
edits to the config file update pricing, call intervals and the plan without
a restart.

Examples:
  # Hourly runs (default schedule)
  tokenbench schedule --config tokenbench.yaml

  # Every 15 minutes, first run immediately
  tokenbench schedule --cron "*/15 * * * *" --run-on-start`,
	RunE: runSchedule,
}

func init() {
	rootCmd.AddCommand(scheduleCmd)

	scheduleCmd.Flags().StringVar(&scheduleFlags.cron, "cron", "", "override schedule.cron")
	scheduleCmd.Flags().BoolVar(&scheduleFlags.runOnStart, "run-on-start", false, "run once immediately")
	scheduleCmd.Flags().StringVar(&scheduleFlags.listen, "listen", "", "override telemetry.metrics.listen_address")
}

func runSchedule(cmd *cobra.Command, args []string) error {
	cfg, logger, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if scheduleFlags.cron != "" {
		cfg.Schedule.Cron = scheduleFlags.cron
	}
	if scheduleFlags.runOnStart {
		cfg.Schedule.RunOnStart = true
	}
	if scheduleFlags.listen != "" {
		cfg.Telemetry.Metrics.ListenAddress = scheduleFlags.listen
	}

	ctx, stop := cli.SetupSignalHandler(cmd.Context())
	defer stop()

	svc, err := newScheduleService(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer svc.Close()

	return svc.Serve(ctx)
}

// scheduleService owns everything the schedule command runs.
type scheduleService struct {
	cfg       *config.Config
	logger    *slog.Logger
	app       *app
	store     storage.Storage
	scheduler *scheduler.Scheduler
	checker   *health.Checker
}

func newScheduleService(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*scheduleService, error) {
	a, err := newApp(cfg, logger)
	if err != nil {
		return nil, err
	}
	svc := &scheduleService{cfg: cfg, logger: logger, app: a, checker: health.New(health.DefaultCheckTimeout)}

	opts := []scheduler.Option{
		scheduler.WithLogger(logger.With("component", "scheduler")),
		scheduler.WithReloadTargets(a.calculator, a.limiter),
	}
	if cfg.Storage.Enabled {
		store, err := storage.New(cfg.Storage)
		if err != nil {
			svc.Close()
			return nil, err
		}
		svc.store = store
		opts = append(opts, scheduler.WithStorage(store, cfg.Storage.RetentionDays))
	}
	if cfg.Export.Format != "" {
		exporter, err := export.New(cfg.Export.Format, cfg.Export.JSONPretty)
		if err != nil {
			svc.Close()
			return nil, err
		}
		opts = append(opts, scheduler.WithExporter(exporter, cfg.Export.Directory))
	}

	sched, err := scheduler.New(a.runner(), experiment.PlanFromConfig(cfg.Experiment), cfg.Schedule.Cron, opts...)
	if err != nil {
		svc.Close()
		return nil, err
	}
	svc.scheduler = sched

	svc.registerChecks()
	svc.reportCredentials(ctx)

	return svc, nil
}

// registerChecks installs the readiness checks: stored runs are readable,
// every planned provider has a credential and the last run succeeded.
func (s *scheduleService) registerChecks() {
	if s.store != nil {
		s.checker.RegisterCheck("storage", func(ctx context.Context) error {
			_, err := s.store.ListRuns(ctx, storage.RunQuery{Limit: 1})
			return err
		})
	}

	s.checker.RegisterCheck("credentials", func(ctx context.Context) error {
		missing := s.reportCredentials(ctx)
		if len(missing) > 0 {
			return fmt.Errorf("missing credentials: %s", strings.Join(missing, ", "))
		}
		return nil
	})

	s.checker.RegisterCheck("last_run", func(ctx context.Context) error {
		report, ok := s.scheduler.LastRun()
		if !ok || report.Err == nil {
			return nil
		}
		return fmt.Errorf("run %s: %w", report.RunID, report.Err)
	})
}

// reportCredentials refreshes the credential gauge and returns the planned
// providers without a usable credential.
func (s *scheduleService) reportCredentials(ctx context.Context) []string {
	planned := make(map[string]bool)
	for _, id := range s.scheduler.Plan().Providers {
		planned[config.NormalizeProvider(id)] = true
	}

	var missing []string
	for _, st := range s.app.factory.CredentialReport(ctx) {
		s.app.collector.UpdateCredentialStatus(st.Provider, st.Present)
		if planned[st.Provider] && !st.Present {
			missing = append(missing, st.Provider)
		}
	}
	return missing
}

// handler serves metrics and health endpoints.
func (s *scheduleService) handler() http.Handler {
	mux := http.NewServeMux()
	mux.Handle(s.cfg.Telemetry.Metrics.Path, s.app.collector.Handler())
	health.Register(mux, s.checker, Version, GitCommit, BuildDate)
	return mux
}

// Serve runs until ctx is cancelled.
func (s *scheduleService) Serve(ctx context.Context) error {
	errCh := make(chan error, 2)

	if s.cfg.Telemetry.Metrics.Enabled {
		ln, err := net.Listen("tcp", s.cfg.Telemetry.Metrics.ListenAddress)
		if err != nil {
			return fmt.Errorf("failed to listen on %s: %w", s.cfg.Telemetry.Metrics.ListenAddress, err)
		}
		server := &http.Server{
			Handler:           s.handler(),
			ReadHeaderTimeout: 5 * time.Second,
		}
		go func() {
			if err := server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
				errCh <- fmt.Errorf("metrics server: %w", err)
			}
		}()
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
			defer cancel()
			if err := server.Shutdown(shutdownCtx); err != nil {
				s.logger.Error("metrics server shutdown failed", "error", err)
			}
		}()
		s.logger.Info("metrics server listening",
			"address", ln.Addr().String(),
			"path", s.cfg.Telemetry.Metrics.Path,
		)
	}

	if s.cfg.Schedule.WatchConfig && cfgFile != "" {
		watcher, err := config.NewWatcher(cfgFile, 0, s.logger)
		if err != nil {
			return err
		}
		defer watcher.Stop()
		go func() {
			err := watcher.Watch(ctx, func(cfg *config.Config) {
				if err := s.scheduler.ApplyConfig(cfg); err != nil {
					s.logger.Error("config reload rejected", "error", err)
				}
			})
			if err != nil && !errors.Is(err, context.Canceled) {
				errCh <- fmt.Errorf("config watcher: %w", err)
			}
		}()
	}

	if s.cfg.Schedule.RunOnStart {
		if _, err := s.scheduler.RunOnce(ctx); err != nil {
			s.logger.Error("initial run failed", "error", err)
		}
	}

	if err := s.scheduler.Start(ctx); err != nil {
		return err
	}
	defer s.scheduler.Stop()
	s.logger.Info("waiting for next run", "next_run", s.scheduler.NextRun(time.Now()))

	select {
	case <-ctx.Done():
		s.logger.Info("shutdown signal received")
		return nil
	case err := <-errCh:
		return err
	}
}

// Close releases storage and provider resources.
func (s *scheduleService) Close() error {
	var errs []error
	if s.store != nil {
		errs = append(errs, s.store.Close())
	}
	errs = append(errs, s.app.Close())
	return errors.Join(errs...)
}
