// Package ownerlock implements the recursive, owner-aware locks the
// kernel layers on top of internal/spinlock: a task that already holds
// a lock may re-acquire it without blocking, mirroring the original's
// task-owned mutex semantics used by Serial and the cluster/processor
// bookkeeping locks. Waiters queue and wake in FIFO order, the same
// entry-queue discipline spec.md §4.4 documents for monitor entry.
//
// Blocking here parks the calling goroutine on a channel rather than
// spinning, the same ping-pong handoff idiom as the teacher's
// microbatch.Batcher (jobCh/batchCh) and longpoll.Channel: a waiter
// blocks on a private channel closed by whichever goroutine hands it
// ownership, instead of polling shared state.
package ownerlock

import (
	"context"

	"github.com/joeycumines/uxx/internal/container"
	"github.com/joeycumines/uxx/internal/spinlock"
)

// TaskID identifies the lock's caller. The kernel's task package assigns
// each Task a unique, non-zero TaskID; zero is reserved to mean "no
// owner" and must never be a valid caller identity.
type TaskID uint64

type waiter struct {
	container.Link[*waiter]
	owner TaskID
	ready chan struct{}
}

// OwnerLock is a recursive mutual-exclusion lock keyed by TaskID.
type OwnerLock struct {
	guard   spinlock.SpinLock
	owner   TaskID
	count   int
	waiters container.DList[*waiter]
}

// NewOwnerLock returns an OwnerLock tagged with class for the
// uxx_lockorder debug checker (see internal/spinlock).
func NewOwnerLock(class spinlock.Class) *OwnerLock {
	l := &OwnerLock{}
	l.guard.Class = class
	return l
}

// Acquire blocks until owner holds the lock, recursively or otherwise.
func (l *OwnerLock) Acquire(owner TaskID) {
	l.guard.Lock()
	switch {
	case l.count == 0:
		l.owner, l.count = owner, 1
		l.guard.Unlock()
	case l.owner == owner:
		l.count++
		l.guard.Unlock()
	default:
		w := &waiter{owner: owner, ready: make(chan struct{})}
		l.waiters.PushBack(w)
		l.guard.Unlock()
		<-w.ready
	}
}

// TryAcquire acquires the lock only if it is free or already owned by
// owner, without blocking.
func (l *OwnerLock) TryAcquire(owner TaskID) bool {
	l.guard.Lock()
	defer l.guard.Unlock()
	switch {
	case l.count == 0:
		l.owner, l.count = owner, 1
		return true
	case l.owner == owner:
		l.count++
		return true
	default:
		return false
	}
}

// Release releases one level of recursion. The caller must currently
// hold the lock; releasing a lock it does not hold is a programming
// error, same as the underlying SpinLock.
func (l *OwnerLock) Release() {
	l.guard.Lock()
	l.count--
	if l.count > 0 {
		l.guard.Unlock()
		return
	}
	w, ok := l.waiters.PopFront()
	if !ok {
		l.owner = 0
		l.guard.Unlock()
		return
	}
	l.owner, l.count = w.owner, 1
	// Closed under guard, so an AcquireContext that gives up on ctx and
	// then takes guard always sees whether it was handed the lock.
	close(w.ready)
	l.guard.Unlock()
}

// Owner returns the current owner and whether the lock is held at all.
func (l *OwnerLock) Owner() (TaskID, bool) {
	l.guard.Lock()
	defer l.guard.Unlock()
	return l.owner, l.count > 0
}

// AdaptiveOwnerLock behaves like OwnerLock but spins briefly before
// parking a blocked waiter, avoiding a channel allocation and a
// scheduler round-trip for the common case of a lock held only for the
// duration of a short critical section (cluster ready-queue updates,
// processor state flips).
type AdaptiveOwnerLock struct {
	OwnerLock
}

// NewAdaptiveOwnerLock returns an AdaptiveOwnerLock tagged with class.
func NewAdaptiveOwnerLock(class spinlock.Class) *AdaptiveOwnerLock {
	l := &AdaptiveOwnerLock{}
	l.guard.Class = class
	return l
}

// Acquire spins up to spinlock.SpinCount attempts before falling back to
// OwnerLock's park-based Acquire.
func (l *AdaptiveOwnerLock) Acquire(owner TaskID) {
	for i := 0; i < spinlock.SpinCount; i++ {
		if l.TryAcquire(owner) {
			return
		}
	}
	l.OwnerLock.Acquire(owner)
}

// AcquireContext is like Acquire but returns ctx.Err() if ctx is done
// before the lock is obtained.
func (l *AdaptiveOwnerLock) AcquireContext(ctx context.Context, owner TaskID) error {
	for i := 0; i < spinlock.SpinCount; i++ {
		if l.TryAcquire(owner) {
			return nil
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
	}
	l.guard.Lock()
	if l.count == 0 {
		l.owner, l.count = owner, 1
		l.guard.Unlock()
		return nil
	}
	if l.owner == owner {
		l.count++
		l.guard.Unlock()
		return nil
	}
	w := &waiter{owner: owner, ready: make(chan struct{})}
	l.waiters.PushBack(w)
	l.guard.Unlock()
	select {
	case <-w.ready:
		return nil
	case <-ctx.Done():
		l.guard.Lock()
		select {
		case <-w.ready:
			// Won the race with a concurrent Release; already owner.
			l.guard.Unlock()
			return nil
		default:
			l.waiters.Remove(w)
			l.guard.Unlock()
			return ctx.Err()
		}
	}
}
