package experiment

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
	"golang.org/x/sync/errgroup"

	"costlab-hq/tokenbench/pkg/config"
	"costlab-hq/tokenbench/pkg/costs"
	"costlab-hq/tokenbench/pkg/providers"
	"costlab-hq/tokenbench/pkg/retry"
	"costlab-hq/tokenbench/pkg/telemetry/tracing"
)

// ClientSource resolves provider ids to clients.
// *providerfactory.Factory satisfies it.
type ClientSource interface {
	GetClient(ctx context.Context, id string) (providers.Client, error)
}

// Limiter spaces calls per provider.
// *ratelimit.IntervalLimiter satisfies it.
type Limiter interface {
	Wait(ctx context.Context, provider string) error
}

// Pricer prices normalized usage per provider.
// *costs.Calculator satisfies it.
type Pricer interface {
	Pricing(provider string) (costs.Pricing, error)
	Compute(provider string, usage providers.TokenUsage) (costs.Breakdown, error)
}

// Observer is notified as a run progresses. Callbacks run on the runner's
// goroutine and must not block for long.
type Observer interface {
	// RecordAppended is called once per record, in result order.
	RecordAppended(rec CallRecord)

	// RunFinished is called when Run returns with a result.
	RunFinished(res *Result)
}

// ProgressFunc reports completed calls out of the planned total.
type ProgressFunc func(done, total int, rec CallRecord)

// Runner orchestrates trials across providers. For every call it waits on
// the provider's rate limiter, executes the call under the retry policy, and
// prices the reported usage. Per-call failures become failed records; only
// setup errors abort a run.
type Runner struct {
	clients        ClientSource
	limiter        Limiter
	policy         *retry.Policy
	pricer         Pricer
	maxConcurrency int
	observers      []Observer
	progress       ProgressFunc
	logger         *slog.Logger
	tracer         trace.Tracer
	now            func() time.Time
	newID          func() string
}

// Option configures a Runner.
type Option func(*Runner)

// WithMaxConcurrency bounds how many providers are called at once per trial.
func WithMaxConcurrency(n int) Option {
	return func(r *Runner) {
		r.maxConcurrency = n
	}
}

// WithObserver adds an observer such as a metrics collector.
func WithObserver(o Observer) Option {
	return func(r *Runner) {
		r.observers = append(r.observers, o)
	}
}

// WithProgress sets a progress callback.
func WithProgress(fn ProgressFunc) Option {
	return func(r *Runner) {
		r.progress = fn
	}
}

// WithLogger sets the runner logger.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Runner) {
		r.logger = logger
	}
}

// WithTracer sets the tracer for run and call spans.
func WithTracer(tracer trace.Tracer) Option {
	return func(r *Runner) {
		r.tracer = tracer
	}
}

// WithClock replaces time.Now for deterministic tests.
func WithClock(now func() time.Time) Option {
	return func(r *Runner) {
		r.now = now
	}
}

// WithIDGenerator replaces the run id source.
func WithIDGenerator(fn func() string) Option {
	return func(r *Runner) {
		r.newID = fn
	}
}

// NewRunner creates a runner from its collaborators.
func NewRunner(clients ClientSource, limiter Limiter, policy *retry.Policy, pricer Pricer, opts ...Option) *Runner {
	r := &Runner{
		clients:        clients,
		limiter:        limiter,
		policy:         policy,
		pricer:         pricer,
		maxConcurrency: config.DefaultMaxConcurrency,
		logger:         slog.Default().With("component", "experiment"),
		tracer:         noop.NewTracerProvider().Tracer(tracing.InstrumentationName),
		now:            time.Now,
		newID:          uuid.NewString,
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.maxConcurrency < 1 {
		r.maxConcurrency = 1
	}
	return r
}

// Run executes the plan. Every client and price sheet is resolved before the
// first call; a setup error is returned with a nil result. Once calls start,
// the run always completes with one record per trial and provider. If ctx
// ends, no further trials are started and the partial result is returned
// together with ctx.Err().
func (r *Runner) Run(ctx context.Context, plan Plan) (*Result, error) {
	if err := plan.Validate(); err != nil {
		return nil, err
	}

	ids, err := normalizeProviders(plan.Providers)
	if err != nil {
		return nil, err
	}
	plan.Providers = ids

	clients := make([]providers.Client, len(ids))
	for i, id := range ids {
		client, err := r.clients.GetClient(ctx, id)
		if err != nil {
			return nil, fmt.Errorf("failed to resolve provider %q: %w", id, err)
		}
		if _, err := r.pricer.Pricing(id); err != nil {
			return nil, fmt.Errorf("failed to resolve pricing for %q: %w", id, err)
		}
		clients[i] = client
	}

	result := &Result{
		RunID:     r.newID(),
		Plan:      plan,
		StartedAt: r.now(),
		Records:   make([]CallRecord, 0, plan.Trials*len(ids)),
	}
	ctx, span := r.tracer.Start(ctx, tracing.SpanRun,
		trace.WithAttributes(tracing.RunAttributes(result.RunID, ids, plan.Trials)...))
	defer span.End()

	logger := r.logger.With("run_id", result.RunID)
	logger.Info("experiment started",
		"providers", ids,
		"trials", plan.Trials,
		"max_concurrency", r.maxConcurrency,
	)

	total := plan.Trials * len(ids)
	var runErr error
	for trial := 1; trial <= plan.Trials; trial++ {
		if err := ctx.Err(); err != nil {
			logger.Warn("experiment cancelled between trials",
				"completed_trials", trial-1,
				"error", err,
			)
			runErr = err
			break
		}

		records := r.runTrial(ctx, result.RunID, trial, plan, clients)
		result.append(records...)

		done := len(result.Snapshot())
		for _, rec := range records {
			for _, o := range r.observers {
				o.RecordAppended(rec)
			}
		}
		if r.progress != nil {
			for i, rec := range records {
				r.progress(done-len(records)+i+1, total, rec)
			}
		}
	}

	result.FinishedAt = r.now()
	for _, o := range r.observers {
		o.RunFinished(result)
	}

	logger.Info("experiment finished",
		"records", len(result.Records),
		"succeeded", result.Succeeded(),
		"failed", result.Failed(),
		"total_cost", result.TotalCost(),
		"duration", result.Duration(),
	)
	tracing.SetStatus(span, runErr)

	return result, runErr
}

// runTrial calls every provider of one trial concurrently and returns the
// records in plan order.
func (r *Runner) runTrial(ctx context.Context, runID string, trial int, plan Plan, clients []providers.Client) []CallRecord {
	records := make([]CallRecord, len(clients))

	var g errgroup.Group
	g.SetLimit(r.maxConcurrency)
	for i, client := range clients {
		g.Go(func() error {
			records[i] = r.call(ctx, runID, trial, plan, plan.Providers[i], client)
			return nil
		})
	}
	// Calls never return errors; failures live in the records.
	_ = g.Wait()

	return records
}

// call performs Wait, Execute(Call) and Compute for one trial and provider.
func (r *Runner) call(ctx context.Context, runID string, trial int, plan Plan, id string, client providers.Client) (rec CallRecord) {
	ctx, span := r.tracer.Start(ctx, tracing.SpanCall,
		trace.WithAttributes(tracing.CallAttributes(runID, trial, id, client.Model())...))
	defer func() {
		tracing.SetCallResult(span, tracing.CallResult{
			Model:     rec.Model,
			Attempts:  rec.Attempts,
			Usage:     rec.Usage,
			Cost:      rec.Cost,
			ErrorKind: rec.ErrorKind,
		})
		var err error
		if !rec.Success {
			err = errors.New(rec.Error)
		}
		tracing.SetStatus(span, err)
		span.End()
	}()

	rec = CallRecord{
		RunID:        runID,
		Trial:        trial,
		Provider:     id,
		Model:        client.Model(),
		UserPrompt:   plan.UserPrompt,
		SystemPrompt: plan.SystemPrompt,
		StartedAt:    r.now(),
	}
	logger := r.logger.With("run_id", runID, "trial", trial, "provider", id)

	if err := r.limiter.Wait(ctx, id); err != nil {
		rec.Latency = r.now().Sub(rec.StartedAt)
		return failed(rec, err)
	}
	tracing.AddLimiterWait(span, r.now().Sub(rec.StartedAt).Milliseconds())

	req := &providers.Request{
		UserPrompt:   plan.UserPrompt,
		SystemPrompt: plan.SystemPrompt,
		MaxTokens:    plan.MaxTokens,
	}

	var resp *providers.Response
	outcome := r.policy.ExecuteObserved(ctx, func(ctx context.Context) error {
		out, err := client.Call(ctx, req)
		if err != nil {
			return err
		}
		if err := out.Usage.Validate(); err != nil {
			return &providers.ProviderError{
				Provider: id,
				Kind:     providers.KindFatal,
				Message:  "invalid usage reported",
				Cause:    err,
			}
		}
		resp = out
		return nil
	}, func(t retry.Transition) {
		tracing.AddTransition(span, t)
	})
	rec.Attempts = outcome.Attempts
	rec.Latency = r.now().Sub(rec.StartedAt)

	if !outcome.Succeeded() {
		logger.Warn("call failed",
			"attempts", outcome.Attempts,
			"error", outcome.Err,
		)
		return failed(rec, outcome.Err)
	}

	rec.Output = resp.Output
	rec.FinishReason = resp.FinishReason
	rec.Usage = resp.Usage
	if resp.Model != "" {
		rec.Model = resp.Model
	}

	breakdown, err := r.pricer.Compute(id, resp.Usage)
	if err != nil {
		logger.Error("failed to price call", "error", err)
		rec.Success = false
		rec.ErrorKind = providers.KindFatal
		rec.Error = err.Error()
		return rec
	}
	rec.Cost = breakdown
	rec.Success = true

	if breakdown.PricingIncomplete {
		logger.Warn("pricing incomplete",
			"model", rec.Model,
			"reason", breakdown.IncompleteReason,
		)
	}
	logger.Debug("call succeeded",
		"model", rec.Model,
		"attempts", rec.Attempts,
		"input_tokens", rec.Usage.InputTokens,
		"cached_input_tokens", rec.Usage.CachedInputTokens,
		"output_tokens", rec.Usage.OutputTokens,
		"total_cost", rec.Cost.TotalCost,
	)

	return rec
}

// failed fills the error fields of a record. Usage and cost stay zero.
func failed(rec CallRecord, err error) CallRecord {
	rec.Success = false
	rec.ErrorKind = ErrorKindOf(err)
	if err != nil {
		rec.Error = err.Error()
	}
	return rec
}

// ErrorKindOf returns the retry classification recorded for a failure.
func ErrorKindOf(err error) providers.ErrorKind {
	var perr *providers.ProviderError
	if errors.As(err, &perr) {
		return perr.Kind
	}
	if retry.Classify(err) {
		return providers.KindTransient
	}
	return providers.KindFatal
}

// normalizeProviders trims, lowercases and deduplicates ids in order.
func normalizeProviders(ids []string) ([]string, error) {
	seen := make(map[string]bool, len(ids))
	out := make([]string, 0, len(ids))
	for _, raw := range ids {
		id := config.NormalizeProvider(raw)
		if id == "" {
			return nil, &providers.ConfigError{Field: "providers", Message: "empty provider id"}
		}
		if seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	return out, nil
}
