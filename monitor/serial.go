package monitor

import (
	"errors"
	"time"

	"github.com/joeycumines/uxx/event"
	"github.com/joeycumines/uxx/internal/container"
	"github.com/joeycumines/uxx/internal/spinlock"
	"github.com/joeycumines/uxx/task"
)

// ErrRendezvousFailure is returned to any task still waiting to enter a
// Serial that is destroyed while it waits - spec.md §9's
// drain-on-destruction rule - and to a task waiting on one of its
// Conditions that is woken after the Serial is destroyed.
var ErrRendezvousFailure = errors.New("monitor: rendezvous failed, serial destroyed while waiting")

// NoMember is the member ID recorded for an Enter call made without
// participating in accept selection (the plain Enter method below).
// It never matches a real accept table entry, whose member IDs are
// assigned starting at 0 (reserved for the destructor, spec.md §9) or
// 1 upward by the embedder.
const NoMember = -1

type entryWaiter struct {
	container.Link[*entryWaiter]
	t      *task.Task
	member int
}

type signalEntry struct {
	container.SLink[*signalEntry]
	t *task.Task
}

// acceptWaiter records a task blocked inside Serial.Wait with no
// immediately matching caller, per spec.md §4.5's "enqueue on the
// acceptor list" path. enabled is the set of member IDs the acceptor
// will accept; member/cancelled are filled in by whichever of
// EnterMember or cancelAccept resolves the wait, and read back by
// Wait once the acceptor task is resumed.
type acceptWaiter struct {
	task      *task.Task
	enabled   map[int]bool
	member    int
	cancelled bool
}

// Serial is the kernel's monitor core: a recursive, task-owned lock
// with a FIFO entry queue, plus a LIFO acceptSignalled stack that
// Condition and the accept selector use to hand the monitor directly to
// a specific task on the next Exit, ahead of the plain entry queue.
type Serial struct {
	lock            spinlock.SpinLock
	owner           *task.Task
	recursion       int
	entryQueue      container.DList[*entryWaiter]
	acceptSignalled container.SList[*signalEntry]
	waitingAcceptor *acceptWaiter
	destroyed       bool
}

// NewSerial returns an unowned Serial.
func NewSerial() *Serial {
	s := &Serial{}
	s.lock.Class = spinlock.ClassSerial
	return s
}

// Enter acquires the serial on behalf of t, recursively if t already
// owns it, blocking t otherwise until the current owner hands off. It
// is EnterMember with NoMember, for callers that never participate in
// accept selection.
func (s *Serial) Enter(t *task.Task) error {
	return s.EnterMember(t, NoMember)
}

// EnterMember is Enter, additionally tagging the call with member (the
// compiled mutex-member ID spec.md §9 says the translator assigns,
// destructor = 0) so a pending Serial.Wait or TryAdmit can recognize and admit
// it ahead of the plain FIFO entry queue.
func (s *Serial) EnterMember(t *task.Task, member int) error {
	s.lock.Lock()
	switch {
	case s.destroyed:
		s.lock.Unlock()
		return ErrRendezvousFailure
	case s.owner == nil:
		s.owner, s.recursion = t, 1
		s.lock.Unlock()
	case s.owner == t:
		s.recursion++
		s.lock.Unlock()
	case s.waitingAcceptor != nil && s.waitingAcceptor.task == s.owner && s.waitingAcceptor.enabled[member]:
		// The current owner is blocked inside Serial.Wait, waiting
		// specifically for a call to an enabled member - admit t
		// immediately, ahead of (and without ever touching) the plain
		// FIFO entry queue, per spec.md §4.5. The owner is handed back
		// the serial, via the normal acceptSignalled handoff, once t
		// exits.
		aw := s.waitingAcceptor
		s.waitingAcceptor = nil
		aw.member = member
		s.acceptSignalled.Push(&signalEntry{t: aw.task})
		s.owner, s.recursion = t, 1
		s.lock.Unlock()
		t.EnterMonitor()
		return nil
	default:
		w := &entryWaiter{t: t, member: member}
		s.entryQueue.PushBack(w)
		s.lock.Unlock()
		t.Block()
		if s.destroyed {
			return ErrRendezvousFailure
		}
	}
	t.EnterMonitor()
	return nil
}

// Exit releases one level of recursion. Once recursion drops to zero,
// the releaser picks a successor - preferring the acceptSignalled stack
// (LIFO, populated by Condition signal variants and by the accept
// selector) over the plain FIFO entry queue - and hands off directly by
// assigning ownership and calling MakeReady on the successor, never
// re-contending for the lock itself. Exit panics if t is not the
// current owner, the same programming-error contract as every other
// lock in this kernel.
func (s *Serial) Exit(t *task.Task) {
	s.lock.Lock()
	if s.owner != t {
		s.lock.Unlock()
		panic("monitor: Exit called by non-owner")
	}
	t.ExitMonitor()
	s.recursion--
	if s.recursion > 0 {
		s.lock.Unlock()
		return
	}
	next := s.pickSuccessorLocked()
	s.lock.Unlock()
	if next != nil {
		next.Cluster().MakeReady(next)
	}
}

// pickSuccessorLocked must be called with s.lock held. It assigns
// ownership to the next eligible task, if any, and returns it so the
// caller can wake it outside the lock.
func (s *Serial) pickSuccessorLocked() *task.Task {
	var next *task.Task
	if se, ok := s.acceptSignalled.Pop(); ok {
		next = se.t
	} else if w, ok := s.entryQueue.PopFront(); ok {
		next = w.t
	}
	if next == nil {
		s.owner = nil
		return nil
	}
	s.owner, s.recursion = next, 1
	return next
}

// TryAdmit implements the non-blocking first half of spec.md §4.5's
// acceptStart: acceptor, which must be the current owner, scans the
// entry queue in FIFO order for the first caller whose member is in
// enabled. If found, that caller is popped and handed the serial
// immediately (acceptor is pushed onto acceptSignalled to reclaim it
// once the accepted call exits, exactly the handoff Exit already
// performs for a signalled Condition waiter) and TryAdmit blocks
// acceptor until that handoff completes, returning the accepted member
// ID. If no queued caller currently matches, TryAdmit returns
// immediately with ok false and no side effects - the caller (the
// accept package) decides from there whether to take an _Else branch
// or call Wait.
func (s *Serial) TryAdmit(acceptor *task.Task, enabled map[int]bool) (member int, ok bool, err error) {
	s.lock.Lock()
	if s.owner != acceptor {
		s.lock.Unlock()
		panic("monitor: Accept called by non-owner")
	}
	w, found := s.scanEntryQueueLocked(enabled)
	if !found {
		s.lock.Unlock()
		return 0, false, nil
	}
	s.entryQueue.Remove(w)
	s.acceptSignalled.Push(&signalEntry{t: acceptor})
	savedRecursion := s.recursion
	s.owner, s.recursion = w.t, 1
	member = w.member
	s.lock.Unlock()

	w.t.Cluster().MakeReady(w.t)
	acceptor.ExitMonitor()
	acceptor.Block()
	if s.destroyed {
		return 0, false, ErrRendezvousFailure
	}
	acceptor.EnterMonitor()

	s.lock.Lock()
	s.recursion = savedRecursion
	s.lock.Unlock()
	return member, true, nil
}

// Wait implements the blocking second half of spec.md §4.5: acceptor
// (still the current owner - TryAdmit having already found nothing)
// registers as the serial's pending acceptor for enabled and blocks
// until a future EnterMember call admits a matching caller (see
// EnterMember's matching case), or until cancelAccept ends the wait
// without a match (the accept package's _Timeout path).
//
// Unlike Condition.Wait, a pending Wait does not release ownership to
// the general entry queue: the owner field keeps pointing at acceptor
// for its whole duration, exactly as spec.md's "the monitor is still
// held by the accept statement" model requires - only a call to one of
// the enabled members may jump ahead of the ordinary entry queue while
// an accept is pending; calls to other members queue normally and are
// served once the accept construct as a whole finishes.
//
// Wait returns the member ID served, and whether the wait instead ended
// via a timeout. deadline, if non-zero, arms a timer event on
// acceptor's cluster's event list (spec.md §4.7's "Accept _Timeout"
// use of the shared per-cluster timer) that cancels the wait if no
// matching call arrives first; the timer and the acceptor registration
// are torn down atomically with each other, one under s.lock, matching
// spec.md §4.5's "timer and table canceled atomically" race resolution.
// err is ErrRendezvousFailure if the serial was closed while acceptor
// waited.
func (s *Serial) Wait(acceptor *task.Task, enabled map[int]bool, deadline time.Time) (member int, timedOut bool, err error) {
	s.lock.Lock()
	if s.owner != acceptor {
		s.lock.Unlock()
		panic("monitor: Accept called by non-owner")
	}
	aw := &acceptWaiter{task: acceptor, enabled: enabled}
	s.waitingAcceptor = aw
	savedRecursion := s.recursion
	s.lock.Unlock()

	var node *event.Node
	if !deadline.IsZero() {
		node = &event.Node{When: deadline, ExecuteLocked: func() { s.cancelAccept(aw) }}
		acceptor.Cluster().Events.Schedule(node)
	}

	acceptor.ExitMonitor()
	acceptor.Block()
	if node != nil {
		acceptor.Cluster().Events.Cancel(node)
	}
	if s.destroyed {
		return 0, false, ErrRendezvousFailure
	}
	acceptor.EnterMonitor()

	s.lock.Lock()
	s.recursion = savedRecursion
	member, timedOut = aw.member, aw.cancelled
	s.lock.Unlock()
	return member, timedOut, nil
}

// scanEntryQueueLocked must be called with s.lock held. It returns the
// first (FIFO-earliest) entry-queue waiter whose member is in enabled,
// matching spec.md §4.5's ordering guarantee.
func (s *Serial) scanEntryQueueLocked(enabled map[int]bool) (*entryWaiter, bool) {
	for w := s.entryQueue.Front(); w != nil; w = w.DListNext() {
		if enabled[w.member] {
			return w, true
		}
	}
	return nil, false
}

// cancelAccept ends acceptor's wait for aw without a match, invoked by
// Wait's own timer node at its deadline. It is a no-op if aw is no
// longer the current waiting acceptor (it already matched, or was
// already canceled). Reports whether it actually canceled a pending
// wait.
func (s *Serial) cancelAccept(aw *acceptWaiter) bool {
	s.lock.Lock()
	if s.waitingAcceptor != aw {
		s.lock.Unlock()
		return false
	}
	s.waitingAcceptor = nil
	aw.cancelled = true
	s.lock.Unlock()
	aw.task.Cluster().MakeReady(aw.task)
	return true
}

// Owner returns the task currently holding the serial, or nil if it is
// free.
func (s *Serial) Owner() *task.Task {
	s.lock.Lock()
	defer s.lock.Unlock()
	return s.owner
}

// Close destroys the serial, waking every task still queued to enter it,
// every task on its acceptSignalled stack, and any pending acceptor, with
// ErrRendezvousFailure. Tasks waiting on one of its Conditions are not
// woken: the Serial keeps no reference to its Conditions.
func (s *Serial) Close() {
	s.lock.Lock()
	s.destroyed = true
	var wake []*task.Task
	for {
		w, ok := s.entryQueue.PopFront()
		if !ok {
			break
		}
		wake = append(wake, w.t)
	}
	for {
		se, ok := s.acceptSignalled.Pop()
		if !ok {
			break
		}
		wake = append(wake, se.t)
	}
	if aw := s.waitingAcceptor; aw != nil {
		s.waitingAcceptor = nil
		wake = append(wake, aw.task)
	}
	s.lock.Unlock()
	for _, t := range wake {
		t.Cluster().MakeReady(t)
	}
}
