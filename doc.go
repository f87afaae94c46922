// Package datautils provides in-process scheduling and call-shaping
// primitives for Go services that sit in front of storage and messaging
// backends.
//
// The centrepiece is the queued command runner (package runner): a polling
// scheduler that executes jobs sequentially by default and lets callers opt
// individual jobs into named concurrency groups with bounded parallelism.
// Alongside it live three call-shaping helpers that are independent of the
// runner and of each other:
//
//   - throttle: funnel every call through one shared rate limiter
//   - retry: re-invoke a failing call a bounded number of times
//   - distribute: route each call to one instance of a pool
//
// # Quick Start
//
//	r, err := runner.New(runner.WithLogger(logger))
//	if err != nil { ... }
//	defer r.Close(ctx)
//
//	r.Events().Observe(func(e event.Event) {
//	    if e.Kind == event.KindError {
//	        logger.Error("job failed", "error", e.Err)
//	    }
//	})
//
//	r.AddJob(job.New("import", importFn))
//	r.AddJob(job.New("resize", resizeFn, job.WithGroup("images", 4)))
//
// # Collaborators
//
// Storage and messaging adapters (packages cache and pubsub) report
// outcomes through [Result], and every value recovered from a panic or
// handed back by a foreign callback is normalised with [AsError] before it
// reaches an error event.
package datautils
