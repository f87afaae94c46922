// Package throttle rate-limits calls through one shared limiter.
//
// A [Throttler] admits at most maxCalls call starts per interval. Calls
// over the limit wait their turn in admission order; they are never
// rejected. Every call that should count against the same budget must go
// through the same Throttler, whichever method it wraps.
//
//	t, err := throttle.New(10, time.Second, false)
//	...
//	v, err := throttle.Do(ctx, t, func(ctx context.Context) ([]byte, error) {
//	    return client.Get(ctx, key)
//	})
//
// Three limiters are available. The fixed window (strict=false) lets a
// full budget through at the start of each window. The sliding window
// (strict=true) never admits more than maxCalls in any interval-long span.
// [NewSmooth] spaces admissions evenly at interval/maxCalls.
package throttle
