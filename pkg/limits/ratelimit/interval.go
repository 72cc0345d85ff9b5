package ratelimit

import (
	"context"
	"strings"
	"sync"
	"time"

	"costlab-hq/tokenbench/pkg/config"
)

// DefaultInterval applies to providers without a configured interval.
const DefaultInterval = 100 * time.Millisecond

// IntervalLimiter enforces a minimum spacing between permitted calls per
// provider. Each provider has its own slot; a caller holds the slot for the
// whole wait, so concurrent callers for one provider are serialized in
// roughly arrival order while different providers never block each other.
type IntervalLimiter struct {
	mu        sync.Mutex
	intervals map[string]time.Duration
	slots     map[string]*slot
	fallback  time.Duration

	now      func() time.Time
	sleep    func(ctx context.Context, d time.Duration) error
	observer func(provider string, waited time.Duration)
}

// slot is the per-provider critical section. The buffered channel is a
// mutex whose acquisition can be abandoned when the context ends. Slots live
// as long as the limiter; last is guarded by IntervalLimiter.mu.
type slot struct {
	token chan struct{}
	last  time.Time
}

// Option configures an IntervalLimiter.
type Option func(*IntervalLimiter)

// WithClock replaces the time source and sleep function.
func WithClock(now func() time.Time, sleep func(ctx context.Context, d time.Duration) error) Option {
	return func(l *IntervalLimiter) {
		l.now = now
		l.sleep = sleep
	}
}

// WithFallback sets the interval for providers that have none configured.
func WithFallback(d time.Duration) Option {
	return func(l *IntervalLimiter) {
		l.fallback = d
	}
}

// WithObserver is called after every permitted call with the time spent waiting.
func WithObserver(fn func(provider string, waited time.Duration)) Option {
	return func(l *IntervalLimiter) {
		l.observer = fn
	}
}

// NewIntervalLimiter creates a limiter with per-provider minimum intervals.
//
// Example:
//
//	limiter := NewIntervalLimiter(map[string]time.Duration{
//	    "openai": 100 * time.Millisecond,
//	    "gemini": 500 * time.Millisecond,
//	})
//	if err := limiter.Wait(ctx, "gemini"); err != nil {
//	    return err
//	}
func NewIntervalLimiter(intervals map[string]time.Duration, opts ...Option) *IntervalLimiter {
	l := &IntervalLimiter{
		intervals: make(map[string]time.Duration, len(intervals)),
		slots:     make(map[string]*slot),
		fallback:  DefaultInterval,
		now:       time.Now,
		sleep:     sleepContext,
	}
	for name, d := range intervals {
		l.intervals[normalize(name)] = d
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// FromConfig builds a limiter from the providers configuration section.
func FromConfig(providers map[string]config.ProviderConfig, opts ...Option) *IntervalLimiter {
	intervals := make(map[string]time.Duration, len(providers))
	for name, p := range providers {
		intervals[name] = p.Interval()
	}
	return NewIntervalLimiter(intervals, opts...)
}

// Wait blocks until at least the provider's interval has elapsed since the
// previous permitted call for that provider, then records the new call.
// It returns ctx.Err() if the context ends first; no call is recorded then.
func (l *IntervalLimiter) Wait(ctx context.Context, provider string) error {
	name := normalize(provider)
	s := l.slot(name)

	start := l.now()
	select {
	case s.token <- struct{}{}:
	case <-ctx.Done():
		return ctx.Err()
	}
	defer func() { <-s.token }()

	if last := l.lastCall(s); !last.IsZero() {
		if wait := last.Add(l.Interval(name)).Sub(l.now()); wait > 0 {
			if err := l.sleep(ctx, wait); err != nil {
				return err
			}
		}
	} else if err := ctx.Err(); err != nil {
		return err
	}

	now := l.now()
	l.mu.Lock()
	s.last = now
	l.mu.Unlock()

	if l.observer != nil {
		l.observer(name, now.Sub(start))
	}
	return nil
}

// Interval returns the effective interval for a provider.
func (l *IntervalLimiter) Interval(provider string) time.Duration {
	l.mu.Lock()
	defer l.mu.Unlock()
	if d, ok := l.intervals[normalize(provider)]; ok {
		return d
	}
	return l.fallback
}

// SetInterval changes a provider's interval. It applies to the next wait.
func (l *IntervalLimiter) SetInterval(provider string, d time.Duration) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.intervals[normalize(provider)] = d
}

// Reset forgets the last call time for a provider, or for all providers when
// provider is empty. Callers already waiting keep their place in line.
func (l *IntervalLimiter) Reset(provider string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if provider == "" {
		for _, s := range l.slots {
			s.last = time.Time{}
		}
		return
	}
	if s, ok := l.slots[normalize(provider)]; ok {
		s.last = time.Time{}
	}
}

func (l *IntervalLimiter) lastCall(s *slot) time.Time {
	l.mu.Lock()
	defer l.mu.Unlock()
	return s.last
}

func (l *IntervalLimiter) slot(name string) *slot {
	l.mu.Lock()
	defer l.mu.Unlock()
	s, ok := l.slots[name]
	if !ok {
		s = &slot{token: make(chan struct{}, 1)}
		l.slots[name] = s
	}
	return s
}

func normalize(provider string) string {
	return strings.ToLower(strings.TrimSpace(provider))
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
