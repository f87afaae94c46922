// Package pubsub defines the publish/subscribe collaborator.
//
// A [Manager] fans every published message out to all of its subscribers.
// Subscribers answer each delivery with a [ReceiveResult]; a message that
// any subscriber leaves unhandled is reported back to every subscriber's
// error handler as [ErrNotHandled].
//
// The memory subpackage provides a throttled in-process implementation.
package pubsub

import (
	"context"
	"errors"
	"time"

	"github.com/mitchcodes/datautils"
	"github.com/mitchcodes/datautils/id"
)

var (
	// ErrDuplicateSubscriber is returned by Subscribe for an ID already in use.
	ErrDuplicateSubscriber = errors.New("pubsub: subscriber id already exists")
	// ErrUnknownSubscriber is returned by Unsubscribe for an ID not in use.
	ErrUnknownSubscriber = errors.New("pubsub: subscriber id does not exist")
	// ErrNotHandled is reported when a subscriber leaves a message unhandled.
	ErrNotHandled = errors.New("pubsub: not all subscribers handled message")
)

// SubscriptionState describes a subscriber's connection.
type SubscriptionState int

const (
	StateUnknown SubscriptionState = iota
	StateOpen
	StateClosed
)

func (s SubscriptionState) String() string {
	switch s {
	case StateOpen:
		return "open"
	case StateClosed:
		return "closed"
	default:
		return "unknown"
	}
}

// Message is a published payload.
type Message struct {
	ID          id.MessageID `json:"id"`
	Payload     any          `json:"payload"`
	PublishedAt time.Time    `json:"published_at"`
}

// ReceiveResult is a subscriber's answer to a delivery.
type ReceiveResult struct {
	datautils.Result
	Handled bool `json:"handled"`
}

// Handled acknowledges a message.
func Handled() ReceiveResult {
	return ReceiveResult{Result: datautils.Success(), Handled: true}
}

// Unhandled rejects a message. err may be nil.
func Unhandled(msg string, err error) ReceiveResult {
	return ReceiveResult{Result: datautils.Failure(msg, err)}
}

// MessageHandler receives one message.
type MessageHandler func(ctx context.Context, msg Message) ReceiveResult

// ErrorHandler receives delivery failures.
type ErrorHandler func(err error)

// Manager publishes messages to subscribers.
type Manager interface {
	// Open prepares the manager for publishing. Opening twice is a no-op.
	Open(ctx context.Context) error
	// Publish enqueues payload for delivery. The result's Message holds
	// the new message ID.
	Publish(ctx context.Context, payload any) datautils.Result
	// Subscribe registers handlers under subscriberID.
	Subscribe(subscriberID string, onMessage MessageHandler, onError ErrorHandler) datautils.Result
	// Unsubscribe removes subscriberID.
	Unsubscribe(subscriberID string) datautils.Result
	// Status reports the state of subscriberID, or false if it is unknown.
	Status(subscriberID string) (SubscriptionState, bool)
	// Close stops delivery and drops every subscriber.
	Close(ctx context.Context) error
}
