package browser

import "sync"

// Stream is a minimal publish/subscribe fan-out used for the engine's
// observable state. Only the owning manager publishes; subscribers receive
// values synchronously on the publisher's goroutine and must not call back
// into the engine from the handler.
type Stream[T any] struct {
	mu   sync.Mutex
	next int
	subs map[int]func(T)
}

// NewStream creates an empty stream.
func NewStream[T any]() *Stream[T] {
	return &Stream[T]{subs: make(map[int]func(T))}
}

// Subscribe registers a handler and returns its unsubscribe function.
func (s *Stream[T]) Subscribe(fn func(T)) (unsubscribe func()) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := s.next
	s.next++
	s.subs[id] = fn
	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		delete(s.subs, id)
	}
}

// publish delivers v to all current subscribers.
func (s *Stream[T]) publish(v T) {
	s.mu.Lock()
	handlers := make([]func(T), 0, len(s.subs))
	for _, fn := range s.subs {
		handlers = append(handlers, fn)
	}
	s.mu.Unlock()

	for _, fn := range handlers {
		fn(v)
	}
}
