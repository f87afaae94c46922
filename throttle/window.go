package throttle

import (
	"context"
	"sync"
	"time"
)

// fixedWindow admits up to limit calls per window. When a window is full
// the next reservation opens the following window, so waiting callers are
// admitted in the order they arrived.
type fixedWindow struct {
	limit    int
	interval time.Duration

	mu    sync.Mutex
	start time.Time
	count int
	now   func() time.Time
}

func newFixedWindow(limit int, interval time.Duration) *fixedWindow {
	return &fixedWindow{limit: limit, interval: interval, now: time.Now}
}

func (w *fixedWindow) reserve() time.Time {
	w.mu.Lock()
	defer w.mu.Unlock()

	now := w.now()
	if w.start.IsZero() || now.Sub(w.start) > w.interval {
		w.start = now
		w.count = 1
		return now
	}
	if w.count < w.limit {
		w.count++
	} else {
		w.start = w.start.Add(w.interval)
		w.count = 1
	}
	return w.start
}

func (w *fixedWindow) Wait(ctx context.Context) error {
	return sleepUntil(ctx, w.reserve())
}

// slidingWindow remembers the start times of the last limit admissions; a
// new call may start no earlier than interval after the oldest of them.
type slidingWindow struct {
	limit    int
	interval time.Duration

	mu    sync.Mutex
	ticks []time.Time
	now   func() time.Time
}

func newSlidingWindow(limit int, interval time.Duration) *slidingWindow {
	return &slidingWindow{
		limit:    limit,
		interval: interval,
		ticks:    make([]time.Time, 0, limit),
		now:      time.Now,
	}
}

func (w *slidingWindow) reserve() time.Time {
	w.mu.Lock()
	defer w.mu.Unlock()

	now := w.now()
	if len(w.ticks) < w.limit {
		w.ticks = append(w.ticks, now)
		return now
	}

	earliest := w.ticks[0].Add(w.interval)
	copy(w.ticks, w.ticks[1:])
	w.ticks = w.ticks[:len(w.ticks)-1]

	at := now
	if earliest.After(now) {
		at = earliest
	}
	w.ticks = append(w.ticks, at)
	return at
}

func (w *slidingWindow) Wait(ctx context.Context) error {
	return sleepUntil(ctx, w.reserve())
}

// sleepUntil blocks until at, or returns early with ctx's error. The
// reservation that produced at is not given back on cancellation.
func sleepUntil(ctx context.Context, at time.Time) error {
	d := time.Until(at)
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
