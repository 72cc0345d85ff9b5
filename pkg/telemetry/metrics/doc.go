// Package metrics exposes experiment activity as Prometheus metrics.
//
// # Overview
//
// The Collector implements experiment.Observer, so attaching it to a Runner
// is enough to record every call:
//
//	collector := metrics.NewCollector(cfg.Telemetry.Metrics, nil)
//	limiter := ratelimit.FromConfig(cfg.Providers,
//	    ratelimit.WithObserver(collector.ObserveLimiterWait))
//	runner := experiment.NewRunner(factory, limiter, policy, calc,
//	    experiment.WithObserver(collector))
//
//	http.Handle("/metrics", collector.Handler())
//
// # Metrics Categories
//
//   - Call metrics: calls by status, errors by kind, latency, retries,
//     tokens by bucket, limiter wait time
//   - Cost metrics: cost by provider and bucket, cost per call, calls with
//     incomplete pricing
//   - Run metrics: runs by outcome, duration, last run cost and time,
//     credential availability
//
// Model labels are capped; once the cap is reached new models are counted
// under "other".
package metrics
