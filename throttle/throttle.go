package throttle

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"golang.org/x/time/rate"

	"github.com/mitchcodes/datautils"
)

// Limiter blocks until the caller may start, or ctx is done.
type Limiter interface {
	Wait(ctx context.Context) error
}

// Throttler funnels calls through a single Limiter.
type Throttler struct {
	limiter  Limiter
	maxCalls int
	interval time.Duration

	admitted atomic.Int64
}

// New creates a throttler admitting maxCalls per interval. strict selects
// the sliding window; otherwise a fixed window is used.
func New(maxCalls int, interval time.Duration, strict bool) (*Throttler, error) {
	if err := validate(maxCalls, interval); err != nil {
		return nil, err
	}
	var l Limiter
	if strict {
		l = newSlidingWindow(maxCalls, interval)
	} else {
		l = newFixedWindow(maxCalls, interval)
	}
	return &Throttler{limiter: l, maxCalls: maxCalls, interval: interval}, nil
}

// NewSmooth creates a throttler that spaces calls interval/maxCalls apart
// using a token bucket with a burst of one.
func NewSmooth(maxCalls int, interval time.Duration) (*Throttler, error) {
	if err := validate(maxCalls, interval); err != nil {
		return nil, err
	}
	every := rate.Every(interval / time.Duration(maxCalls))
	return &Throttler{
		limiter:  rate.NewLimiter(every, 1),
		maxCalls: maxCalls,
		interval: interval,
	}, nil
}

// NewWithLimiter wraps a custom limiter.
func NewWithLimiter(l Limiter) *Throttler {
	return &Throttler{limiter: l}
}

func validate(maxCalls int, interval time.Duration) error {
	if maxCalls < 1 {
		return fmt.Errorf("%w: maxCalls must be positive, got %d", datautils.ErrInvalidLimit, maxCalls)
	}
	if interval <= 0 {
		return fmt.Errorf("%w: interval must be positive, got %s", datautils.ErrInvalidLimit, interval)
	}
	return nil
}

// Wait blocks until the next call may start.
func (t *Throttler) Wait(ctx context.Context) error {
	if err := t.limiter.Wait(ctx); err != nil {
		return err
	}
	t.admitted.Add(1)
	return nil
}

// Admitted returns the number of calls admitted so far.
func (t *Throttler) Admitted() int64 { return t.admitted.Load() }

// Limit returns the configured budget. Both values are zero for custom
// limiters.
func (t *Throttler) Limit() (maxCalls int, interval time.Duration) {
	return t.maxCalls, t.interval
}

// Do waits for admission and then calls fn. fn's result and error are
// returned unchanged.
func Do[T any](ctx context.Context, t *Throttler, fn func(context.Context) (T, error)) (T, error) {
	if err := t.Wait(ctx); err != nil {
		var zero T
		return zero, err
	}
	return fn(ctx)
}

// Run is Do for functions that only return an error.
func Run(ctx context.Context, t *Throttler, fn func(context.Context) error) error {
	if err := t.Wait(ctx); err != nil {
		return err
	}
	return fn(ctx)
}
