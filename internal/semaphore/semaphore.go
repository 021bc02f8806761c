// Package semaphore implements a small channel-backed counting
// semaphore, adapted from pipelined-audio's mixer fan-in backpressure
// primitive. There it bounded how many in-flight buffers one mixer input
// could have outstanding; here it bounds how many synchronous mailbox
// rendezvous a sink's control-thread callers may have in flight at once,
// so a burst of callers cannot pile up unboundedly many blocked sends
// against one render thread.
package semaphore

import "context"

// Semaphore implements the semaphore synchronization primitive.
type Semaphore struct {
	limit chan struct{}
}

// New returns a new semaphore that allows up to n concurrent holders.
func New(n int) Semaphore {
	limit := make(chan struct{}, n)
	for i := 0; i < n; i++ {
		limit <- struct{}{}
	}
	return Semaphore{limit: limit}
}

// Acquire blocks until a slot is free or ctx is done, reporting which.
func (s *Semaphore) Acquire(ctx context.Context) error {
	select {
	case <-s.limit:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Release frees a slot.
func (s *Semaphore) Release() {
	s.limit <- struct{}{}
}
