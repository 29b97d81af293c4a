// Package jobs runs the background sweeps of the Raasta Sathi API.
//
// Sweeps are scheduled with robfig/cron and run independently of HTTP
// request handling:
//
//   - report-expiry: resolves open reports whose deadline has passed
//   - resolved-cleanup: archives reports resolved longer than the retention period
//   - restriction-cleanup: lifts reporting restrictions that have lapsed
//
// # Scheduler
//
//	sched := jobs.NewScheduler(jobs.SchedulerConfig{Timeout: 2 * time.Minute})
//	for _, sw := range jobs.DefaultSweeps(expirySvc, restrictionSvc, cfg.Scheduler.Schedules()) {
//	    if err := sched.Register(sw); err != nil {
//	        log.Fatal(err)
//	    }
//	}
//	sched.Start()
//	defer sched.Stop()
//
// A sweep never overlaps with itself, and a panicking sweep is recovered and
// logged. Each run is bounded by the configured timeout; a sweep cut short
// reports a partial result rather than an error.
//
// # Manual runs
//
// RunOnce runs a registered sweep by name, outside the cron schedule. The
// admin CLI uses it for the sweep command.
package jobs
