package hostenv

import (
	"fmt"
	"sync"

	"github.com/meshforge/meshforge/internal/core"
)

// outBuffer bounds the outbound message channel. One job emits a handful of
// progress messages and exactly one terminal message, so a small buffer
// keeps emission non-blocking even after the coordinator stops listening.
const outBuffer = 16

// MessageScope is the worker-scope messaging object bridging the worker
// context to the coordinator. The coordinator delivers job messages and
// reads outbound messages; the worker side subscribes to deliveries and
// emits results. All state is private to the hosting worker context.
type MessageScope struct {
	jobs chan core.JobMessage
	out  chan core.Message

	mu     sync.Mutex
	closed bool
}

// NewMessageScope creates a scope for one worker context.
func NewMessageScope() *MessageScope {
	return &MessageScope{
		jobs: make(chan core.JobMessage, 1),
		out:  make(chan core.Message, outBuffer),
	}
}

// Deliver posts a job message into the worker context. A worker hosts a
// single job, so a second delivery is an error.
func (s *MessageScope) Deliver(m core.JobMessage) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return fmt.Errorf("message scope is closed")
	}
	select {
	case s.jobs <- m:
		return nil
	default:
		return fmt.Errorf("job message already delivered")
	}
}

// Subscribe registers a handler for inbound job messages and returns an
// unsubscribe function. The handler runs on a dedicated goroutine owned by
// the subscription; unsubscribing (or closing the scope) stops delivery.
func (s *MessageScope) Subscribe(handler func(core.JobMessage)) (unsubscribe func()) {
	stop := make(chan struct{})
	var once sync.Once
	go func() {
		for {
			select {
			case m, ok := <-s.jobs:
				if !ok {
					return
				}
				handler(m)
			case <-stop:
				return
			}
		}
	}()
	return func() { once.Do(func() { close(stop) }) }
}

// Emit sends a message toward the coordinator. Emission never blocks: once
// the buffer is full (the coordinator has settled and stopped draining)
// further messages are dropped.
func (s *MessageScope) Emit(m core.Message) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	select {
	case s.out <- m:
	default:
	}
}

// Messages is the coordinator-side view of outbound worker messages,
// observed in emission order.
func (s *MessageScope) Messages() <-chan core.Message {
	return s.out
}

// Close tears the bridge down. Safe to call more than once.
func (s *MessageScope) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.closed = true
	close(s.jobs)
}
