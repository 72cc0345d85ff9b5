// Package scheduler repeats an experiment on a cron schedule.
//
// Each scheduled run executes the current plan, saves the result to
// storage, writes an export file and prunes runs older than the retention
// period. A run that is still going when the next tick fires causes that
// tick to be skipped.
//
//	sched, err := scheduler.New(runner, plan, "0 * * * *",
//	    scheduler.WithStorage(store, cfg.Storage.RetentionDays),
//	    scheduler.WithExporter(exporter, cfg.Export.Directory),
//	    scheduler.WithReloadTargets(calculator, limiter),
//	)
//	if err != nil {
//	    return err
//	}
//	if err := sched.Start(ctx); err != nil {
//	    return err
//	}
//
// ApplyConfig takes a reloaded configuration, typically from
// config.Watcher, and swaps pricing, call intervals and the plan.
package scheduler
