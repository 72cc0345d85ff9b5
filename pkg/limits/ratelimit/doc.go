// Package ratelimit spaces out calls to each provider.
//
// # Overview
//
// IntervalLimiter enforces a minimum interval between permitted calls per
// provider, independent of how many goroutines are calling:
//
//	limiter := ratelimit.FromConfig(cfg.Providers)
//	if err := limiter.Wait(ctx, "anthropic"); err != nil {
//	    return err // context ended while waiting
//	}
//	resp, err := client.Call(ctx, req)
//
// The interval is measured between the start of consecutive permitted calls,
// not between completions. Providers are identified case-insensitively.
//
// # Thread Safety
//
// Each provider has its own slot, held for the duration of the wait. Callers
// for the same provider are therefore serialized; callers for different
// providers proceed in parallel. There is no fairness guarantee beyond the
// Go runtime's channel wake-up order.
//
// # Testing
//
// WithClock swaps the time source and sleep function so interval logic can
// be verified without real delays.
package ratelimit
