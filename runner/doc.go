// Package runner implements the queued command runner: a polling
// scheduler that executes jobs one at a time in submission order, except
// for jobs that opt into a concurrency group.
//
// Consecutive jobs of the same group run in parallel, at most
// MaxConcurrent at once. Whenever the dispatch mode changes (sequential to
// group, group to another group, group back to sequential) the runner
// first waits for every job of the current mode to settle, so jobs of
// different modes never overlap.
//
// The runner reports progress through an [event.Bus]. A failing job is
// reported as an error event and never stops the scheduler.
//
//	r, err := runner.New(runner.WithLogger(logger))
//	if err != nil {
//	    return err
//	}
//	defer r.Close(ctx)
//
//	r.AddJob(job.New("migrate", migrate))
//	for _, img := range images {
//	    r.AddJob(job.New("resize", resize(img), job.WithGroup("images", 4)))
//	}
package runner
