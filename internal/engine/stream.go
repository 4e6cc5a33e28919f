package engine

import (
	"context"
	"sync"
)

// Stream is the ordered, finite, single-pass event sequence of one
// run. The producer side (an Engine implementation) emits events and
// finishes with CloseSend; the consumer side reads Events until the
// channel closes, then inspects Err for a transport failure.
//
// Close releases the producer exactly once regardless of how the
// consumer exits; abandoned streams do not leak the producing
// goroutine.
type Stream struct {
	events chan Event
	cancel context.CancelFunc

	closeOnce sync.Once

	// err is written by the producer before events is closed and read
	// by the consumer after it observes the close, so the channel
	// close provides the necessary ordering.
	err error
}

// NewStream builds the shared stream object. cancel stops the
// producing goroutine; implementations derive it from the run context.
func NewStream(cancel context.CancelFunc) *Stream {
	return &Stream{
		events: make(chan Event, 16),
		cancel: cancel,
	}
}

// Events returns the receive side. The channel closes when the run
// terminates, normally or otherwise.
func (s *Stream) Events() <-chan Event {
	return s.events
}

// Err reports the transport failure that terminated the stream, if
// any. Valid only after Events has been closed.
func (s *Stream) Err() error {
	return s.err
}

// Close stops the producer and drains any buffered events so the
// producing goroutine can exit. Safe to call from any exit path, any
// number of times.
func (s *Stream) Close() {
	s.closeOnce.Do(func() {
		s.cancel()
		go func() {
			for range s.events {
			}
		}()
	})
}

// Emit delivers one event to the consumer. It returns false when the
// run context is done, signalling the producer to stop.
func (s *Stream) Emit(ctx context.Context, ev Event) bool {
	select {
	case s.events <- ev:
		return true
	case <-ctx.Done():
		return false
	}
}

// CloseSend terminates the stream from the producer side. A non-nil
// err marks the stream as failed in transport; it must be called
// exactly once, after the last Emit.
func (s *Stream) CloseSend(err error) {
	s.err = err
	close(s.events)
}
