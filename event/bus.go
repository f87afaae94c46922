package event

import (
	"context"
	"fmt"
	"log/slog"
	"runtime/debug"
	"sync"
	"sync/atomic"
)

// DefaultBufferSize is the default per-subscriber event buffer.
const DefaultBufferSize = 256

// Observer is called synchronously for every published event. Observers
// run on the publishing goroutine, which may differ between events, so
// they must be safe for concurrent use and must not block for long.
type Observer func(Event)

type observerEntry struct {
	id uint64
	fn Observer
}

// Bus fans lifecycle events out to observers and channel subscribers.
// It is safe for concurrent use.
type Bus struct {
	logger     *slog.Logger
	bufferSize int

	mu          sync.RWMutex
	nextID      uint64
	observers   []observerEntry
	subscribers map[uint64]*Subscriber

	totalPublished atomic.Int64
	totalDropped   atomic.Int64
}

// BusOption configures a Bus.
type BusOption func(*Bus)

// WithBufferSize sets the default per-subscriber buffer size.
func WithBufferSize(size int) BusOption {
	return func(b *Bus) { b.bufferSize = size }
}

// NewBus creates an event bus.
func NewBus(logger *slog.Logger, opts ...BusOption) *Bus {
	if logger == nil {
		logger = slog.Default()
	}
	b := &Bus{
		logger:      logger,
		bufferSize:  DefaultBufferSize,
		subscribers: make(map[uint64]*Subscriber),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Observe registers fn and returns a function that removes it again.
// Observers are notified in registration order.
func (b *Bus) Observe(fn Observer) (cancel func()) {
	b.mu.Lock()
	b.nextID++
	entryID := b.nextID
	b.observers = append(b.observers, observerEntry{id: entryID, fn: fn})
	b.mu.Unlock()

	return func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		for i, e := range b.observers {
			if e.id == entryID {
				b.observers = append(b.observers[:i:i], b.observers[i+1:]...)
				return
			}
		}
	}
}

// Subscribe creates a channel subscriber for the given kinds (all kinds
// when none are given). The subscriber is removed and its channel closed
// once ctx is done or Unsubscribe is called.
func (b *Bus) Subscribe(ctx context.Context, kinds ...Kind) *Subscriber {
	b.mu.Lock()
	b.nextID++
	sub := newSubscriber(b.nextID, b.bufferSize, kinds)
	b.subscribers[sub.id] = sub
	b.mu.Unlock()

	sub.mu.Lock()
	sub.stop = context.AfterFunc(ctx, func() { b.Unsubscribe(sub) })
	sub.mu.Unlock()
	return sub
}

// Unsubscribe removes sub and closes its channel. Safe to call more than
// once.
func (b *Bus) Unsubscribe(sub *Subscriber) {
	b.mu.Lock()
	delete(b.subscribers, sub.id)
	b.mu.Unlock()

	sub.close()
}

// Publish delivers evt to every observer and subscriber. Subscribers whose
// buffers are full miss the event; the drop is counted in Stats.
func (b *Bus) Publish(evt Event) {
	b.mu.RLock()
	observers := make([]observerEntry, len(b.observers))
	copy(observers, b.observers)
	subs := make([]*Subscriber, 0, len(b.subscribers))
	for _, s := range b.subscribers {
		subs = append(subs, s)
	}
	b.mu.RUnlock()

	for _, o := range observers {
		b.notify(o, evt)
	}

	for _, s := range subs {
		if !s.wants(evt.Kind) {
			continue
		}
		if s.send(evt) {
			b.totalPublished.Add(1)
		} else {
			b.totalDropped.Add(1)
		}
	}
}

// notify runs one observer, containing panics so a faulty observer cannot
// take the publisher down.
func (b *Bus) notify(o observerEntry, evt Event) {
	defer func() {
		if r := recover(); r != nil {
			b.logger.Error("event observer panicked",
				slog.String("kind", string(evt.Kind)),
				slog.String("panic", fmt.Sprint(r)),
				slog.String("stack", string(debug.Stack())),
			)
		}
	}()
	o.fn(evt)
}

// Close removes every subscriber and observer.
func (b *Bus) Close() {
	b.mu.Lock()
	subs := b.subscribers
	b.subscribers = make(map[uint64]*Subscriber)
	b.observers = nil
	b.mu.Unlock()

	for _, s := range subs {
		s.close()
	}
}

// Stats contains bus counters.
type Stats struct {
	Observers    int   `json:"observers"`
	Subscribers  int   `json:"subscribers"`
	TotalQueued  int64 `json:"total_queued"`
	TotalDropped int64 `json:"total_dropped"`
}

// Stats returns a snapshot of the bus counters.
func (b *Bus) Stats() Stats {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return Stats{
		Observers:    len(b.observers),
		Subscribers:  len(b.subscribers),
		TotalQueued:  b.totalPublished.Load(),
		TotalDropped: b.totalDropped.Load(),
	}
}
