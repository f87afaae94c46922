package event

import "sync"

// Subscriber receives events on a buffered channel.
type Subscriber struct {
	id    uint64
	ch    chan Event
	kinds map[Kind]struct{}
	stop  func() bool

	mu     sync.RWMutex
	closed bool
}

func newSubscriber(subID uint64, bufferSize int, kinds []Kind) *Subscriber {
	if bufferSize <= 0 {
		bufferSize = DefaultBufferSize
	}
	s := &Subscriber{
		id: subID,
		ch: make(chan Event, bufferSize),
	}
	if len(kinds) > 0 {
		s.kinds = make(map[Kind]struct{}, len(kinds))
		for _, k := range kinds {
			s.kinds[k] = struct{}{}
		}
	}
	return s
}

// C returns the read-only event channel. It is closed when the
// subscription ends.
func (s *Subscriber) C() <-chan Event { return s.ch }

func (s *Subscriber) wants(k Kind) bool {
	if s.kinds == nil {
		return true
	}
	_, ok := s.kinds[k]
	return ok
}

// send attempts a non-blocking delivery. Returns false when the event was
// dropped because the subscriber is closed or its buffer is full.
func (s *Subscriber) send(evt Event) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return false
	}
	select {
	case s.ch <- evt:
		return true
	default:
		return false
	}
}

func (s *Subscriber) close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stop != nil {
		s.stop()
	}
	if !s.closed {
		s.closed = true
		close(s.ch)
	}
}
