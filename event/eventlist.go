package event

import (
	"container/heap"
	"time"

	"github.com/joeycumines/logiface"

	"github.com/joeycumines/uxx/internal/spinlock"
)

// Log, when non-nil, receives this package's diagnostics: timer
// scheduling and firing at Trace. A nil logger is fully disabled
// (logiface's documented nil-receiver contract); the uxx root package
// wires one up from its own Log by default.
var Log *logiface.Logger[logiface.Event]

// Node is a single scheduled wakeup: a callback to run at (or after)
// When. ExecuteLocked runs with the List's own lock still held,
// exactly as spec.md §4.7 specifies for semaphore-timeout nodes, so the
// callback must be quick and must not call back into the List it
// is a member of.
type Node struct {
	When          time.Time
	ExecuteLocked func()

	index    int // heap index, maintained by container/heap
	canceled bool
}

// heapSlice is a container/heap.Interface min-heap of *Node ordered by
// When, the same shape as the teacher's timerHeap generalized from a
// concrete timer struct to a pointer so a Node can be canceled in
// place without a linear search.
type heapSlice []*Node

func (h heapSlice) Len() int            { return len(h) }
func (h heapSlice) Less(i, j int) bool  { return h[i].When.Before(h[j].When) }
func (h heapSlice) Swap(i, j int)       { h[i], h[j] = h[j], h[i]; h[i].index, h[j].index = i, j }
func (h *heapSlice) Push(x any)         { n := x.(*Node); n.index = len(*h); *h = append(*h, n) }
func (h *heapSlice) Pop() any {
	old := *h
	n := len(old)
	x := old[n-1]
	old[n-1] = nil
	x.index = -1
	*h = old[:n-1]
	return x
}

// List is one cluster's event list: a min-heap of pending Nodes plus
// the single OS timer armed for the earliest one. Every cluster owns
// exactly one List.
type List struct {
	guard spinlock.SpinLock
	heap  heapSlice
	timer osTimer
}

// NewList returns an empty, ready to use event list.
func NewList() *List {
	l := &List{}
	l.guard.Class = spinlock.Unordered
	l.timer = newOSTimer(l.fire)
	return l
}

// Schedule adds a Node to the list, reprogramming the OS timer if n is
// now the earliest pending node.
func (l *List) Schedule(n *Node) {
	l.guard.Lock()
	heap.Push(&l.heap, n)
	l.rearm()
	l.guard.Unlock()
	Log.Trace().Dur("in", time.Until(n.When)).Log("timer event scheduled")
}

// Cancel removes n from the list if it is still pending, reporting
// whether it was. A Node already fired (or already canceled) is a
// no-op, matching the "timer and table canceled atomically" accept
// semantics of spec.md §4.5.
func (l *List) Cancel(n *Node) bool {
	l.guard.Lock()
	defer l.guard.Unlock()
	if n.index < 0 || n.canceled {
		return false
	}
	n.canceled = true
	heap.Remove(&l.heap, n.index)
	l.rearm()
	return true
}

// rearm must be called with guard held. It reprograms the OS timer for
// the current earliest pending node, or disarms it if the list is
// empty.
func (l *List) rearm() {
	if len(l.heap) == 0 {
		l.timer.disarm()
		return
	}
	l.timer.arm(l.heap[0].When)
}

// fire is the OS timer callback. It pops and executes every node whose
// deadline has passed, each with guard held, then rearms for whatever
// remains.
func (l *List) fire() {
	l.guard.Lock()
	now := time.Now()
	fired := 0
	for len(l.heap) > 0 && !l.heap[0].When.After(now) {
		n := heap.Pop(&l.heap).(*Node)
		if n.canceled {
			continue
		}
		if n.ExecuteLocked != nil {
			n.ExecuteLocked()
		}
		fired++
	}
	l.rearm()
	l.guard.Unlock()
	Log.Trace().Int("fired", fired).Log("timer fired")
}

// Len reports the number of currently pending (non-canceled) nodes.
func (l *List) Len() int {
	l.guard.Lock()
	defer l.guard.Unlock()
	return len(l.heap)
}

// Close releases the list's OS timer resources. A List must not be
// used after Close.
func (l *List) Close() error {
	return l.timer.close()
}
