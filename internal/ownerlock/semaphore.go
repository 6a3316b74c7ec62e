package ownerlock

import (
	"context"

	"github.com/joeycumines/uxx/internal/container"
	"github.com/joeycumines/uxx/internal/spinlock"
)

type semWaiter struct {
	container.Link[*semWaiter]
	ready chan struct{}
}

// Semaphore is a counting semaphore with a FIFO wait queue, for handing
// out a bounded count of permits in arrival order.
type Semaphore struct {
	guard   spinlock.SpinLock
	count   int
	waiters container.DList[*semWaiter]
}

// NewSemaphore returns a Semaphore initialized with n permits.
func NewSemaphore(n int, class spinlock.Class) *Semaphore {
	s := &Semaphore{count: n}
	s.guard.Class = class
	return s
}

// P acquires one permit, blocking until available.
func (s *Semaphore) P() {
	s.guard.Lock()
	if s.count > 0 {
		s.count--
		s.guard.Unlock()
		return
	}
	w := &semWaiter{ready: make(chan struct{})}
	s.waiters.PushBack(w)
	s.guard.Unlock()
	<-w.ready
}

// TryP acquires one permit only if immediately available.
func (s *Semaphore) TryP() bool {
	s.guard.Lock()
	defer s.guard.Unlock()
	if s.count > 0 {
		s.count--
		return true
	}
	return false
}

// PTimeout acquires one permit, returning ctx.Err() if ctx expires
// first.
func (s *Semaphore) PTimeout(ctx context.Context) error {
	s.guard.Lock()
	if s.count > 0 {
		s.count--
		s.guard.Unlock()
		return nil
	}
	w := &semWaiter{ready: make(chan struct{})}
	s.waiters.PushBack(w)
	s.guard.Unlock()
	select {
	case <-w.ready:
		return nil
	case <-ctx.Done():
		s.guard.Lock()
		select {
		case <-w.ready:
			s.guard.Unlock()
			return nil
		default:
			s.waiters.Remove(w)
			s.guard.Unlock()
			return ctx.Err()
		}
	}
}

// V releases one permit, waking the longest-waiting blocked P if any.
func (s *Semaphore) V() {
	s.guard.Lock()
	w, ok := s.waiters.PopFront()
	if !ok {
		s.count++
		s.guard.Unlock()
		return
	}
	// Closed under guard, so a PTimeout that gives up on ctx and then
	// takes guard always sees whether it was handed the permit.
	close(w.ready)
	s.guard.Unlock()
}
