package retry

import (
	"context"
	"errors"
	"log/slog"
	"math/rand/v2"
	"time"

	"costlab-hq/tokenbench/pkg/config"
	"costlab-hq/tokenbench/pkg/providers"
)

// State is a position in the retry state machine.
type State int

const (
	// Idle is the state before the first attempt.
	Idle State = iota

	// Attempting means the operation is running.
	Attempting

	// Backoff means a transient failure occurred and the policy is waiting.
	Backoff

	// Succeeded is terminal: the operation returned nil.
	Succeeded

	// FailedTerminal is terminal: a fatal error, exhausted attempts or cancellation.
	FailedTerminal
)

// String returns the state name.
func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Attempting:
		return "attempting"
	case Backoff:
		return "backoff"
	case Succeeded:
		return "succeeded"
	case FailedTerminal:
		return "failed_terminal"
	default:
		return "unknown"
	}
}

// Terminal reports whether no further transitions can happen.
func (s State) Terminal() bool {
	return s == Succeeded || s == FailedTerminal
}

// Transition describes one state change.
type Transition struct {
	From    State
	To      State
	Attempt int           // 1-based invocation number the transition belongs to
	Delay   time.Duration // set when entering Backoff
	Err     error         // failure that caused the transition, if any
}

// Outcome is the result of Execute. A failed outcome is a value, not a panic.
type Outcome struct {
	// State is Succeeded or FailedTerminal.
	State State

	// Attempts is the number of times the operation was invoked.
	Attempts int

	// Err is the last failure; nil on success.
	Err error

	// Delays holds every backoff that was scheduled, in order.
	Delays []time.Duration
}

// Succeeded reports whether the operation eventually returned nil.
func (o Outcome) Succeeded() bool {
	return o.State == Succeeded
}

// Retries returns the number of invocations after the first.
func (o Outcome) Retries() int {
	if o.Attempts == 0 {
		return 0
	}
	return o.Attempts - 1
}

// SleepFunc waits for d or returns ctx.Err() if the context ends first.
type SleepFunc func(ctx context.Context, d time.Duration) error

// Policy retries transient failures with capped exponential backoff and
// jitter. The zero value is not usable; build one with New or FromConfig.
type Policy struct {
	// MaxAttempts is the total number of invocations, first call included.
	MaxAttempts int

	// BaseDelay is the backoff before the first retry.
	BaseDelay time.Duration

	// MaxDelay caps every backoff, jitter included.
	MaxDelay time.Duration

	// Jitter is the fraction of the exponential delay added at random.
	Jitter float64

	// Sleep replaces the real timer; tests inject a recorder.
	Sleep SleepFunc

	// Rand returns a value in [0, 1). Defaults to math/rand/v2.
	Rand func() float64

	// IsTransient classifies failures. Defaults to Classify.
	IsTransient func(error) bool

	// OnTransition observes every state change.
	OnTransition func(Transition)

	// Logger receives retry decisions.
	Logger *slog.Logger
}

// New returns a policy with the given limits and real sleeping.
func New(maxAttempts int, baseDelay, maxDelay time.Duration, jitter float64) *Policy {
	return &Policy{
		MaxAttempts: maxAttempts,
		BaseDelay:   baseDelay,
		MaxDelay:    maxDelay,
		Jitter:      jitter,
	}
}

// FromConfig builds a policy from the retry configuration section.
func FromConfig(cfg config.RetryConfig) *Policy {
	return New(cfg.MaxAttempts, cfg.BaseDelay, cfg.MaxDelay, cfg.JitterFraction())
}

// Classify is the default failure classifier. Provider errors carry their own
// kind; a deadline or network timeout raised by the operation is transient;
// anything else, cancellation included, is fatal.
func Classify(err error) bool {
	if err == nil {
		return false
	}
	var perr *providers.ProviderError
	if errors.As(err, &perr) {
		return perr.Transient()
	}
	if errors.Is(err, context.Canceled) {
		return false
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	return providers.IsTransient(err)
}

// Execute runs op until it succeeds, fails fatally, exhausts MaxAttempts or
// ctx ends during a backoff. It never panics on failure; the last error is
// returned inside the Outcome.
func (p *Policy) Execute(ctx context.Context, op func(ctx context.Context) error) Outcome {
	return p.ExecuteObserved(ctx, op, nil)
}

// ExecuteObserved is Execute with an extra per-call transition callback,
// invoked after OnTransition. A shared Policy can serve concurrent calls
// that each observe only their own transitions.
func (p *Policy) ExecuteObserved(ctx context.Context, op func(ctx context.Context) error, observe func(Transition)) Outcome {
	maxAttempts := p.MaxAttempts
	if maxAttempts < 1 {
		maxAttempts = 1
	}
	sleep := p.Sleep
	if sleep == nil {
		sleep = SleepContext
	}
	isTransient := p.IsTransient
	if isTransient == nil {
		isTransient = Classify
	}
	logger := p.Logger
	if logger == nil {
		logger = slog.Default()
	}

	var out Outcome
	state := Idle
	move := func(to State, attempt int, delay time.Duration, err error) {
		t := Transition{From: state, To: to, Attempt: attempt, Delay: delay, Err: err}
		if p.OnTransition != nil {
			p.OnTransition(t)
		}
		if observe != nil {
			observe(t)
		}
		state = to
	}

	for attempt := 1; ; attempt++ {
		move(Attempting, attempt, 0, nil)
		out.Attempts = attempt

		err := op(ctx)
		if err == nil {
			move(Succeeded, attempt, 0, nil)
			out.State = Succeeded
			out.Err = nil
			return out
		}
		out.Err = err

		if !isTransient(err) {
			logger.Debug("fatal failure, not retrying", "attempt", attempt, "error", err)
			move(FailedTerminal, attempt, 0, err)
			out.State = FailedTerminal
			return out
		}

		if attempt >= maxAttempts {
			logger.Warn("retries exhausted", "attempts", attempt, "error", err)
			move(FailedTerminal, attempt, 0, err)
			out.State = FailedTerminal
			return out
		}

		delay := p.Delay(attempt-1, err)
		out.Delays = append(out.Delays, delay)
		logger.Debug("transient failure, backing off",
			"attempt", attempt,
			"max_attempts", maxAttempts,
			"delay", delay,
			"error", err,
		)
		move(Backoff, attempt, delay, err)

		if serr := sleep(ctx, delay); serr != nil {
			out.Err = serr
			move(FailedTerminal, attempt, 0, serr)
			out.State = FailedTerminal
			return out
		}
	}
}

// Delay returns the backoff before retry n (n from 0):
// min(BaseDelay·2ⁿ + jitter, MaxDelay), with jitter in [0, Jitter·BaseDelay·2ⁿ).
// A provider Retry-After hint raises the delay, still subject to MaxDelay.
func (p *Policy) Delay(n int, err error) time.Duration {
	maxDelay := p.MaxDelay
	if maxDelay <= 0 {
		maxDelay = p.BaseDelay
	}

	exp := p.BaseDelay
	for i := 0; i < n && exp < maxDelay; i++ {
		exp *= 2
	}

	random := p.Rand
	if random == nil {
		random = rand.Float64
	}
	delay := exp
	if p.Jitter > 0 {
		delay += time.Duration(random() * p.Jitter * float64(exp))
	}

	var perr *providers.ProviderError
	if errors.As(err, &perr) && perr.RetryAfter > delay {
		delay = perr.RetryAfter
	}

	if delay > maxDelay {
		delay = maxDelay
	}
	return delay
}

// SleepContext waits for delay unless the context is canceled first.
func SleepContext(ctx context.Context, delay time.Duration) error {
	if delay <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(delay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
