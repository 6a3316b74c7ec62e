package monitor

import (
	"time"

	"github.com/joeycumines/uxx/event"
	"github.com/joeycumines/uxx/internal/container"
	"github.com/joeycumines/uxx/task"
)

type condWaiter struct {
	container.Link[*condWaiter]
	t        *task.Task
	info     uint64
	queued   bool
	timedOut bool
}

// Condition is a condition variable scoped to one Serial. A task may
// only Wait/Signal/Broadcast on a Condition while it owns that Serial.
type Condition struct {
	serial  *Serial
	waiters container.DList[*condWaiter]
}

// NewCondition binds a new, empty Condition to s.
func NewCondition(s *Serial) *Condition {
	return &Condition{serial: s}
}

// Empty reports whether any task is currently waiting on c.
func (c *Condition) Empty() bool {
	c.serial.lock.Lock()
	defer c.serial.lock.Unlock()
	return c.waiters.Empty()
}

// Front returns the info word the longest-waiting task passed to
// Wait/WaitTimeout, without dequeuing it. ok is false if nothing is
// waiting. The returned value is only meaningful while the caller owns
// the serial, since any other owner could Signal the waiter away
// between Front and whatever the caller does with the value.
func (c *Condition) Front() (info uint64, ok bool) {
	c.serial.lock.Lock()
	defer c.serial.lock.Unlock()
	if c.waiters.Empty() {
		return 0, false
	}
	return c.waiters.Front().info, true
}

// Wait fully releases the serial (regardless of the calling task's
// recursion depth, which is restored once the serial is reacquired) and
// blocks t until some other task calls Signal, SignalBlock, or
// Broadcast on c. Closing the serial does not wake a task waiting here;
// a waiter woken after Close returns ErrRendezvousFailure. info is
// returned unchanged
// to the caller, mirroring the hint/condition-info parameter spec.md
// describes for passing a small payload alongside a wait.
func (c *Condition) Wait(t *task.Task, info uint64) (uint64, error) {
	s := c.serial
	s.lock.Lock()
	if s.owner != t {
		s.lock.Unlock()
		panic("monitor: Wait called by non-owner")
	}
	w := &condWaiter{t: t, info: info}
	c.waiters.PushBack(w)
	savedRecursion := s.recursion
	next := s.pickSuccessorLocked()
	s.lock.Unlock()
	if next != nil {
		next.Cluster().MakeReady(next)
	}

	t.ExitMonitor()
	t.Block()

	if s.destroyed {
		return w.info, ErrRendezvousFailure
	}
	t.EnterMonitor()
	s.lock.Lock()
	s.recursion = savedRecursion
	s.lock.Unlock()
	return w.info, nil
}

// WaitTimeout is Wait, additionally arming a timer event on t's
// cluster's event list (spec.md §4.7's "condition wait(duration)" use
// of the shared per-cluster timer) that cancels the wait - removing w
// from c's waiters and handing t the serial at once if it is free, or
// else re-entering t at the front of the serial's entry queue - if the
// deadline duration elapses before a matching
// Signal/SignalBlock/Broadcast arrives. timedOut reports
// whether the wait ended this way rather than via an actual signal.
func (c *Condition) WaitTimeout(t *task.Task, info uint64, deadline time.Duration) (value uint64, timedOut bool, err error) {
	s := c.serial
	s.lock.Lock()
	if s.owner != t {
		s.lock.Unlock()
		panic("monitor: WaitTimeout called by non-owner")
	}
	w := &condWaiter{t: t, info: info, queued: true}
	c.waiters.PushBack(w)
	savedRecursion := s.recursion
	next := s.pickSuccessorLocked()
	s.lock.Unlock()
	if next != nil {
		next.Cluster().MakeReady(next)
	}

	node := &event.Node{
		When: time.Now().Add(deadline),
		ExecuteLocked: func() {
			c.cancelWait(w)
		},
	}
	t.Cluster().Events.Schedule(node)

	t.ExitMonitor()
	t.Block()
	t.Cluster().Events.Cancel(node)

	if s.destroyed {
		return w.info, false, ErrRendezvousFailure
	}
	t.EnterMonitor()
	s.lock.Lock()
	s.recursion = savedRecursion
	s.lock.Unlock()
	return w.info, w.timedOut, nil
}

// cancelWait ends w's wait on c without a signal, invoked by
// WaitTimeout's own timer node at its deadline. It is a no-op if w is
// no longer actually queued on c (it was already signalled, or already
// timed out). If the serial is free, no Exit is pending to pop an entry
// waiter, so w.t becomes owner and is made ready directly. Otherwise w
// re-enters at the front of the serial's entry queue - it does not jump
// straight to owner, since the serial belongs to someone else
// (whoever pickSuccessorLocked chose when w first called Wait): w.t is
// woken only once a future Serial.Exit's own pickSuccessorLocked
// actually pops it and assigns ownership, exactly like any other
// entryQueue waiter.
func (c *Condition) cancelWait(w *condWaiter) {
	s := c.serial
	s.lock.Lock()
	if !w.queued {
		// already removed (signalled, broadcast, or a prior cancelWait)
		s.lock.Unlock()
		return
	}
	w.queued = false
	c.waiters.Remove(w)
	w.timedOut = true
	if s.owner == nil {
		s.owner, s.recursion = w.t, 1
		s.lock.Unlock()
		w.t.Cluster().MakeReady(w.t)
		return
	}
	ew := &entryWaiter{t: w.t, member: NoMember}
	s.entryQueue.PushFront(ew)
	s.lock.Unlock()
}

// Signal marks the longest-waiting task on c as the next owner of the
// serial once the current owner exits, without itself giving up the
// serial. Calling Signal more than once before exiting stacks the
// signalled tasks LIFO: the most recently signalled task becomes owner
// first. A Signal with nothing waiting is a no-op.
func (c *Condition) Signal() {
	s := c.serial
	s.lock.Lock()
	w, ok := c.waiters.PopFront()
	if ok {
		w.queued = false
		s.acceptSignalled.Push(&signalEntry{t: w.t})
	}
	s.lock.Unlock()
}

// SignalBlock hands the serial directly to the longest-waiting task on
// c and blocks the calling task t, which goes onto the acceptor/
// signalled stack - regaining the serial ahead of any ordinary entry
// caller as soon as the signalled task next gives it up, the same
// reclaim path an acceptor takes after admitting a call. A SignalBlock
// with nothing waiting is a no-op and t keeps running with the serial
// held.
func (c *Condition) SignalBlock(t *task.Task) {
	s := c.serial
	s.lock.Lock()
	w, ok := c.waiters.PopFront()
	if !ok {
		s.lock.Unlock()
		return
	}
	w.queued = false
	s.acceptSignalled.Push(&signalEntry{t: t})
	s.owner, s.recursion = w.t, 1
	s.lock.Unlock()

	w.t.Cluster().MakeReady(w.t)

	t.ExitMonitor()
	t.Block()
	if s.destroyed {
		return
	}
	t.EnterMonitor()
}

// Broadcast marks every task currently waiting on c as eligible to
// become the serial's next owner, stacked LIFO in the order they were
// waiting (so the longest-waiting task is signalled first and thus
// sits at the bottom of the stack, becoming owner last).
func (c *Condition) Broadcast() {
	s := c.serial
	s.lock.Lock()
	for {
		w, ok := c.waiters.PopFront()
		if !ok {
			break
		}
		w.queued = false
		s.acceptSignalled.Push(&signalEntry{t: w.t})
	}
	s.lock.Unlock()
}
