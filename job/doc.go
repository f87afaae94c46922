// Package job defines the unit of work executed by the runner.
//
// # Job Entity
//
// A [Job] pairs a name with a [Work] function and an optional
// [ConcurrencyGroup]. Jobs are built once with [New] and never modified
// afterwards; the runner owns a job from the moment it is dequeued until
// its work settles, after which the job is discarded.
//
//	sequential := job.New("rebuild-index", rebuild)
//	concurrent := job.New("thumbnail", resize, job.WithGroup("images", 4))
//
// # Sequential and Concurrent Jobs
//
// A job without a group, or whose group allows at most one job at a time,
// is sequential: it runs alone, in submission order. A job whose group
// allows more than one is concurrent: consecutive jobs of the same group
// run in parallel up to the group's limit, and a different group (or a
// sequential job) only starts after all of them have settled.
//
// Fields of note:
//   - ID: K-sortable identifier used to correlate lifecycle events
//   - Group: concurrency bucket (nil = sequential)
//   - Timeout: per-job execution deadline (zero = unlimited)
package job
