// Package observability records runner lifecycle counters with
// OpenTelemetry. [LifecycleMetrics] is an event observer: attach it to a
// runner's bus and it counts job starts, finishes, errors, group
// completions, drains and state transitions.
//
// For per-run tracing and duration histograms, see the middleware
// package: middleware.Tracing() and middleware.Metrics().
package observability
