// Package memory implements pubsub.Manager in process. Published messages
// are queued without blocking the publisher and delivered one at a time,
// at the pace of a throttle.Throttler, to every subscriber in subscription
// order.
package memory

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/mitchcodes/datautils"
	"github.com/mitchcodes/datautils/id"
	"github.com/mitchcodes/datautils/pubsub"
	"github.com/mitchcodes/datautils/queue"
	"github.com/mitchcodes/datautils/throttle"
)

var _ pubsub.Manager = (*Manager)(nil)

// Option configures a Manager.
type Option func(*Manager)

// WithLogger sets a custom logger.
func WithLogger(l *slog.Logger) Option {
	return func(m *Manager) { m.logger = l }
}

type subscriber struct {
	id        string
	onMessage pubsub.MessageHandler
	onError   pubsub.ErrorHandler
}

// Manager is a throttled in-memory pub/sub manager.
type Manager struct {
	throttler *throttle.Throttler
	logger    *slog.Logger

	mu          sync.RWMutex
	subscribers []*subscriber
	backlog     *queue.Queue[pubsub.Message]
	notify      chan struct{}
	cancel      context.CancelFunc
	done        chan struct{}
}

// New creates a manager delivering at most maxCalls messages per interval.
// strict selects the sliding-window algorithm.
func New(maxCalls int, interval time.Duration, strict bool, opts ...Option) (*Manager, error) {
	t, err := throttle.New(maxCalls, interval, strict)
	if err != nil {
		return nil, err
	}
	return NewWithThrottler(t, opts...), nil
}

// NewWithThrottler creates a manager paced by t.
func NewWithThrottler(t *throttle.Throttler, opts ...Option) *Manager {
	m := &Manager{throttler: t, logger: slog.Default()}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Open starts the delivery loop. The loop outlives ctx; stop it with Close.
func (m *Manager) Open(_ context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.backlog != nil {
		return nil
	}

	ctx, cancel := context.WithCancel(context.Background())
	m.backlog = queue.New[pubsub.Message]()
	m.notify = make(chan struct{}, 1)
	m.cancel = cancel
	m.done = make(chan struct{})
	go m.deliver(ctx, m.backlog, m.notify, m.done)

	maxCalls, interval := m.throttler.Limit()
	m.logger.Debug("pubsub opened",
		slog.Int("max_calls", maxCalls),
		slog.Duration("interval", interval),
	)
	return nil
}

func (m *Manager) opened() bool { return m.backlog != nil }

// Publish queues payload for delivery and returns immediately.
func (m *Manager) Publish(_ context.Context, payload any) datautils.Result {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if !m.opened() {
		return datautils.Failure("pubsub: no delivery queue, call Open first", datautils.ErrNotInitialized)
	}

	msg := pubsub.Message{
		ID:          id.NewMessageID(),
		Payload:     payload,
		PublishedAt: time.Now().UTC(),
	}
	m.backlog.Push(msg)
	select {
	case m.notify <- struct{}{}:
	default:
	}
	return datautils.Result{Status: datautils.StatusSuccess, Message: msg.ID.String()}
}

// Subscribe registers a subscriber. Subscribing before Open is allowed.
func (m *Manager) Subscribe(subscriberID string, onMessage pubsub.MessageHandler, onError pubsub.ErrorHandler) datautils.Result {
	if onMessage == nil {
		return datautils.Failure("pubsub: nil message handler", nil)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.indexOf(subscriberID) >= 0 {
		return datautils.Failure(
			fmt.Sprintf("pubsub: subscribe %q", subscriberID),
			pubsub.ErrDuplicateSubscriber,
		)
	}
	m.subscribers = append(m.subscribers, &subscriber{
		id:        subscriberID,
		onMessage: onMessage,
		onError:   onError,
	})
	return datautils.Success()
}

// Unsubscribe removes a subscriber.
func (m *Manager) Unsubscribe(subscriberID string) datautils.Result {
	m.mu.Lock()
	defer m.mu.Unlock()
	i := m.indexOf(subscriberID)
	if i < 0 {
		return datautils.Failure(
			fmt.Sprintf("pubsub: unsubscribe %q", subscriberID),
			pubsub.ErrUnknownSubscriber,
		)
	}
	m.subscribers = slices.Delete(m.subscribers, i, i+1)
	return datautils.Success()
}

// Status reports StateOpen for a known subscriber while the manager is
// open and StateClosed otherwise.
func (m *Manager) Status(subscriberID string) (pubsub.SubscriptionState, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.indexOf(subscriberID) < 0 {
		return pubsub.StateUnknown, false
	}
	if m.opened() {
		return pubsub.StateOpen, true
	}
	return pubsub.StateClosed, true
}

// Close stops delivery, drops undelivered messages and removes every
// subscriber. It waits for an in-progress delivery until ctx ends.
func (m *Manager) Close(ctx context.Context) error {
	m.mu.Lock()
	if !m.opened() {
		m.subscribers = nil
		m.mu.Unlock()
		return nil
	}
	backlog, cancel, done := m.backlog, m.cancel, m.done
	m.backlog, m.notify, m.cancel, m.done = nil, nil, nil, nil
	m.mu.Unlock()

	cancel()
	select {
	case <-done:
	case <-ctx.Done():
		return ctx.Err()
	}

	if dropped := len(backlog.Drain()); dropped > 0 {
		m.logger.Warn("pubsub closed with undelivered messages", slog.Int("dropped", dropped))
	}

	m.mu.Lock()
	m.subscribers = nil
	m.mu.Unlock()
	return nil
}

func (m *Manager) indexOf(subscriberID string) int {
	return slices.IndexFunc(m.subscribers, func(s *subscriber) bool {
		return s.id == subscriberID
	})
}

func (m *Manager) deliver(ctx context.Context, backlog *queue.Queue[pubsub.Message], notify <-chan struct{}, done chan<- struct{}) {
	defer close(done)
	for {
		msg, ok := backlog.Pop()
		if !ok {
			select {
			case <-notify:
				continue
			case <-ctx.Done():
				return
			}
		}
		if err := m.throttler.Wait(ctx); err != nil {
			return
		}
		m.handle(ctx, msg)
	}
}

func (m *Manager) handle(ctx context.Context, msg pubsub.Message) {
	m.mu.RLock()
	subs := slices.Clone(m.subscribers)
	m.mu.RUnlock()

	allHandled := true
	for _, s := range subs {
		res, err := receive(ctx, s, msg)
		if err != nil {
			m.broadcast(subs, fmt.Errorf("pubsub: deliver %s to %q: %w", msg.ID, s.id, err))
			return
		}
		if !res.Handled {
			allHandled = false
		}
	}

	if !allHandled {
		m.broadcast(subs, fmt.Errorf("%w: %s", pubsub.ErrNotHandled, msg.ID))
	}
}

// receive calls the subscriber's message handler and turns a panic into
// an error.
func receive(ctx context.Context, s *subscriber, msg pubsub.Message) (res pubsub.ReceiveResult, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = datautils.AsError(r)
		}
	}()
	return s.onMessage(ctx, msg), nil
}

func (m *Manager) broadcast(subs []*subscriber, err error) {
	m.logger.Warn("pubsub delivery failed", slog.String("error", err.Error()))
	for _, s := range subs {
		if s.onError == nil {
			continue
		}
		func() {
			defer func() {
				if r := recover(); r != nil {
					m.logger.Error("pubsub error handler panicked",
						slog.String("subscriber", s.id),
						slog.Any("panic", r),
					)
				}
			}()
			s.onError(err)
		}()
	}
}
