// Package limits groups the controls that keep a benchmark within what the
// provider APIs accept.
//
// # Architecture
//
//   - ratelimit: minimum interval between calls per provider
//
// Retries with backoff live in package retry; they act after a call fails,
// while the limiter acts before each call is made.
package limits
