// Package health serves liveness, readiness and version endpoints for the
// scheduled benchmark process.
//
// Readiness aggregates named checks that run concurrently, each bounded by
// a timeout:
//
//	checker := health.New(5 * time.Second)
//	checker.RegisterCheck("storage", func(ctx context.Context) error {
//	    _, err := store.ListRuns(ctx, storage.RunQuery{Limit: 1})
//	    return err
//	})
//
//	mux := http.NewServeMux()
//	health.Register(mux, checker, version, commit, buildTime)
package health
