// Package retry makes a single provider call resilient.
//
// A Policy runs an operation through an explicit state machine:
//
//	Idle → Attempting → Succeeded
//	                  → Backoff → Attempting
//	                  → FailedTerminal
//
// Transient failures (rate limits, timeouts, 5xx) are retried with
// exponential backoff plus jitter, capped at MaxDelay. Fatal failures
// (authentication, invalid requests, malformed responses) end the run at
// once. Exhaustion is reported through Outcome, never by panicking.
//
// Sleeping and the random source are fields on Policy so tests can drive
// the machine without real delays:
//
//	var delays []time.Duration
//	p := retry.New(3, time.Second, time.Minute, 0.1)
//	p.Sleep = func(_ context.Context, d time.Duration) error {
//	    delays = append(delays, d)
//	    return nil
//	}
//	out := p.Execute(ctx, call)
package retry
