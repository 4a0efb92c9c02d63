// Package mailbox provides a single-slot, latest-value-wins handoff between
// a slow producer goroutine and a polling consumer.
package mailbox

import "sync"

type Slot[T any] struct {
	mu    sync.Mutex
	val   T
	full  bool
	ready chan struct{}
}

func NewSlot[T any]() *Slot[T] {
	return &Slot[T]{ready: make(chan struct{}, 1)}
}

// Put replaces any unread value. It never blocks.
func (s *Slot[T]) Put(v T) {
	s.mu.Lock()
	s.val = v
	s.full = true
	s.mu.Unlock()
	select {
	case s.ready <- struct{}{}:
	default:
	}
}

// TryTake swaps the pending value out if there is one. It never blocks.
func (s *Slot[T]) TryTake() (T, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var zero T
	if !s.full {
		return zero, false
	}
	v := s.val
	s.val = zero
	s.full = false
	return v, true
}

// Ready is signalled after Put; consumers that prefer to wait can select on it
// and then call TryTake.
func (s *Slot[T]) Ready() <-chan struct{} {
	return s.ready
}
