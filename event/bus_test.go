package event_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/mitchcodes/datautils/event"
	"github.com/mitchcodes/datautils/job"
)

func noop(context.Context) error { return nil }

func TestBus_ObserveInOrder(t *testing.T) {
	bus := event.NewBus(nil)

	var (
		mu   sync.Mutex
		seen []string
	)
	bus.Observe(func(e event.Event) {
		mu.Lock()
		seen = append(seen, "first:"+string(e.Kind))
		mu.Unlock()
	})
	bus.Observe(func(e event.Event) {
		mu.Lock()
		seen = append(seen, "second:"+string(e.Kind))
		mu.Unlock()
	})

	bus.Publish(event.New(event.KindStarting))
	bus.Publish(event.New(event.KindStarted))

	want := []string{"first:starting", "second:starting", "first:started", "second:started"}
	if len(seen) != len(want) {
		t.Fatalf("seen = %v, want %v", seen, want)
	}
	for i := range want {
		if seen[i] != want[i] {
			t.Errorf("seen[%d] = %q, want %q", i, seen[i], want[i])
		}
	}
}

func TestBus_ObserveCancel(t *testing.T) {
	bus := event.NewBus(nil)

	calls := 0
	cancel := bus.Observe(func(event.Event) { calls++ })
	bus.Publish(event.New(event.KindStarted))
	cancel()
	bus.Publish(event.New(event.KindStopped))

	if calls != 1 {
		t.Errorf("calls = %d, want 1", calls)
	}
	if n := bus.Stats().Observers; n != 0 {
		t.Errorf("observers = %d, want 0", n)
	}
}

func TestBus_ObserverPanicContained(t *testing.T) {
	bus := event.NewBus(nil)

	reached := false
	bus.Observe(func(event.Event) { panic("boom") })
	bus.Observe(func(event.Event) { reached = true })

	bus.Publish(event.New(event.KindError))

	if !reached {
		t.Error("observer after a panicking observer was not called")
	}
}

func TestBus_SubscribeReceives(t *testing.T) {
	bus := event.NewBus(nil)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sub := bus.Subscribe(ctx)
	j := job.New("resize", noop)

	evt := event.New(event.KindStartJob)
	evt.Job = j
	bus.Publish(evt)

	select {
	case got := <-sub.C():
		if got.Kind != event.KindStartJob {
			t.Errorf("Kind = %q, want %q", got.Kind, event.KindStartJob)
		}
		if got.Job.ID != j.ID {
			t.Errorf("Job.ID = %s, want %s", got.Job.ID, j.ID)
		}
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for event")
	}
}

func TestBus_SubscribeFiltersKinds(t *testing.T) {
	bus := event.NewBus(nil)
	sub := bus.Subscribe(context.Background(), event.KindError)
	defer bus.Unsubscribe(sub)

	bus.Publish(event.New(event.KindStarted))
	bus.Publish(event.New(event.KindError))

	got := <-sub.C()
	if got.Kind != event.KindError {
		t.Errorf("Kind = %q, want %q", got.Kind, event.KindError)
	}
	select {
	case extra := <-sub.C():
		t.Errorf("unexpected extra event %q", extra.Kind)
	default:
	}
}

func TestBus_SubscriberDropsWhenFull(t *testing.T) {
	bus := event.NewBus(nil, event.WithBufferSize(2))
	sub := bus.Subscribe(context.Background())
	defer bus.Unsubscribe(sub)

	for range 5 {
		bus.Publish(event.New(event.KindStartJob))
	}

	stats := bus.Stats()
	if stats.TotalQueued != 2 {
		t.Errorf("TotalQueued = %d, want 2", stats.TotalQueued)
	}
	if stats.TotalDropped != 3 {
		t.Errorf("TotalDropped = %d, want 3", stats.TotalDropped)
	}
}

func TestBus_SubscribeEndsWithContext(t *testing.T) {
	bus := event.NewBus(nil)
	ctx, cancel := context.WithCancel(context.Background())

	sub := bus.Subscribe(ctx)
	cancel()

	select {
	case _, ok := <-sub.C():
		if ok {
			t.Fatal("expected closed channel")
		}
	case <-time.After(time.Second):
		t.Fatal("channel not closed after context cancel")
	}

	// Publishing after the subscription ended must not panic.
	bus.Publish(event.New(event.KindStopped))
	if n := bus.Stats().Subscribers; n != 0 {
		t.Errorf("subscribers = %d, want 0", n)
	}
}

func TestBus_Close(t *testing.T) {
	bus := event.NewBus(nil)
	sub := bus.Subscribe(context.Background())
	bus.Observe(func(event.Event) {})

	bus.Close()

	if _, ok := <-sub.C(); ok {
		t.Error("expected closed channel after Close")
	}
	stats := bus.Stats()
	if stats.Observers != 0 || stats.Subscribers != 0 {
		t.Errorf("stats after Close = %+v", stats)
	}
	bus.Unsubscribe(sub)
}
