package ownerlock

import "github.com/joeycumines/uxx/internal/container"

type condWaiter struct {
	container.Link[*condWaiter]
	ready chan struct{}
}

// CondLock is a condition variable tied to an OwnerLock, the building
// block the monitor package's Condition is generalized from (see
// monitor.Condition, which adds the accept-signalled interaction
// spec.md §4.4 describes). Wait atomically releases the lock and parks,
// then reacquires it before returning - the same contract as the
// original's uCondLock::wait.
type CondLock struct {
	lock    *OwnerLock
	waiters container.DList[*condWaiter]
}

// NewCondLock returns a CondLock guarded by lock.
func NewCondLock(lock *OwnerLock) *CondLock {
	return &CondLock{lock: lock}
}

// Wait releases the lock, blocks until signalled, then reacquires the
// lock as owner before returning.
func (c *CondLock) Wait(owner TaskID) {
	w := &condWaiter{ready: make(chan struct{})}
	c.lock.guard.Lock()
	c.waiters.PushBack(w)
	c.lock.guard.Unlock()

	c.lock.Release()
	<-w.ready
	c.lock.Acquire(owner)
}

// Signal wakes the longest-waiting blocked Wait, if any. The woken
// goroutine still has to compete for the lock via its own Acquire call,
// same as every OwnerLock waiter.
func (c *CondLock) Signal() {
	c.lock.guard.Lock()
	w, ok := c.waiters.PopFront()
	c.lock.guard.Unlock()
	if ok {
		close(w.ready)
	}
}

// Broadcast wakes every currently blocked Wait.
func (c *CondLock) Broadcast() {
	c.lock.guard.Lock()
	var woken []*condWaiter
	for {
		w, ok := c.waiters.PopFront()
		if !ok {
			break
		}
		woken = append(woken, w)
	}
	c.lock.guard.Unlock()
	for _, w := range woken {
		close(w.ready)
	}
}

// Empty reports whether any goroutine is currently blocked in Wait.
func (c *CondLock) Empty() bool {
	c.lock.guard.Lock()
	defer c.lock.guard.Unlock()
	return c.waiters.Empty()
}
