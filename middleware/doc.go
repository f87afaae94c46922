// Package middleware wraps job execution with cross-cutting behaviour.
//
// A [Middleware] receives the job and the next [Handler] in the chain.
// [Chain] composes several into one; the first middleware given is the
// outermost.
//
//	chain := middleware.Chain(
//	    middleware.Logging(logger),
//	    middleware.Recover(logger),
//	    middleware.Timeout(30*time.Second),
//	)
//
// Built in:
//
//   - [Recover] turns panics into errors
//   - [Logging] logs each run with its duration and outcome
//   - [Timeout] bounds a run by the job's own timeout or a fallback
//   - [Tracing] opens an OpenTelemetry span per run
//   - [Metrics] records run duration and outcome counters
//
// A middleware that does not call next short-circuits the job.
package middleware
