package main

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"costlab-hq/tokenbench/pkg/config"
	"costlab-hq/tokenbench/pkg/costs"
	"costlab-hq/tokenbench/pkg/experiment"
	"costlab-hq/tokenbench/pkg/limits/ratelimit"
	"costlab-hq/tokenbench/pkg/providerfactory"
	"costlab-hq/tokenbench/pkg/retry"
	"costlab-hq/tokenbench/pkg/security/secrets"
	"costlab-hq/tokenbench/pkg/telemetry/metrics"
	"costlab-hq/tokenbench/pkg/telemetry/tracing"
)

// tracerShutdownTimeout bounds the final span flush on exit.
const tracerShutdownTimeout = 5 * time.Second

// app holds the collaborators shared by the commands that call providers.
type app struct {
	cfg        *config.Config
	logger     *slog.Logger
	secrets    *secrets.Manager
	factory    *providerfactory.Factory
	limiter    *ratelimit.IntervalLimiter
	calculator *costs.Calculator
	collector  *metrics.Collector
	tracer     *tracing.Tracer
}

// newApp wires the secret source, client factory, rate limiter, price sheet
// metrics collector and tracer from cfg. The collector and tracer record
// nothing unless enabled.
func newApp(cfg *config.Config, logger *slog.Logger) (*app, error) {
	secretManager, err := secrets.NewFromConfig(cfg.Secrets)
	if err != nil {
		return nil, err
	}

	calculator, err := costs.NewCalculatorFromConfig(cfg.Providers)
	if err != nil {
		_ = secretManager.Close()
		return nil, err
	}

	collector := metrics.NewCollector(cfg.Telemetry.Metrics, prometheus.NewRegistry())

	tracer, err := tracing.New(context.Background(), cfg.Telemetry.Tracing, tracing.WithServiceVersion(Version))
	if err != nil {
		_ = secretManager.Close()
		return nil, err
	}

	return &app{
		cfg:     cfg,
		logger:  logger,
		secrets: secretManager,
		factory: providerfactory.New(cfg.Providers, secretManager,
			providerfactory.WithLogger(logger.With("component", "providerfactory"))),
		limiter:    ratelimit.FromConfig(cfg.Providers, ratelimit.WithObserver(collector.ObserveLimiterWait)),
		calculator: calculator,
		collector:  collector,
		tracer:     tracer,
	}, nil
}

// runner builds an experiment runner over the app's collaborators.
func (a *app) runner(opts ...experiment.Option) *experiment.Runner {
	base := []experiment.Option{
		experiment.WithMaxConcurrency(a.cfg.Experiment.MaxConcurrency),
		experiment.WithObserver(a.collector),
		experiment.WithLogger(a.logger.With("component", "experiment")),
		experiment.WithTracer(a.tracer.Tracer()),
	}
	return experiment.NewRunner(a.factory, a.limiter, retry.FromConfig(a.cfg.Retry), a.calculator,
		append(base, opts...)...)
}

// Close releases provider clients and secret watchers and flushes spans.
func (a *app) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), tracerShutdownTimeout)
	defer cancel()
	return errors.Join(a.factory.Close(), a.secrets.Close(), a.tracer.Shutdown(ctx))
}
