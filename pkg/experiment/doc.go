// Package experiment runs trials of one prompt against several LLM providers
// and collects a priced record for every call.
//
// A Runner is built from four collaborators: a ClientSource (the provider
// factory), a Limiter (per-provider spacing), a retry Policy and a Pricer
// (the cost calculator). Run resolves every client and price sheet before
// the first call, then for each trial dispatches the providers concurrently:
//
//	wait on limiter → retry.Execute(client.Call) → costs.Compute → append
//
// A failed call produces a failed CallRecord and the run continues; only
// setup errors abort. Summarize derives per-provider statistics and outliers
// from a Result.
package experiment
