package cluster

import "github.com/joeycumines/uxx/internal/container"

// Runnable is the minimal surface the cluster package needs from a
// scheduled task, keeping cluster free of any dependency on the task
// package (see the package doc comment).
type Runnable interface {
	// RunOnProcessor executes the task on the calling goroutine (the
	// processor's own goroutine) for one scheduling quantum, returning
	// true if the task should be requeued as ready immediately, or
	// false if it has suspended on something else (a monitor, the
	// event list, an accept) and will re-enter the ready queue on its
	// own via Cluster.MakeReady when that something else completes.
	RunOnProcessor(p *Processor) (requeue bool)
}

// ReadyPolicy decides ready-queue order. FIFOPolicy is the default;
// RealTimePolicy is provided as the pluggable deadline/priority
// alternative spec.md §1 calls out as in-scope to provide an interface
// for, even though specifying the policy itself is out of scope.
type ReadyPolicy interface {
	Empty() bool
	Add(t Runnable)
	Drop() (Runnable, bool)
	// Compare reports whether a should be scheduled before b. FIFOPolicy
	// ignores it; priority-based policies use it to keep Add's insertion
	// point sorted.
	Compare(a, b Runnable) bool
}

// fifoEntry wraps a Runnable for intrusive linking. A wrapper is
// unavoidable here (rather than linking Runnable values directly):
// Runnable is an interface, and internal/container's intrusive nodes
// need a concrete comparable pointer type to satisfy DNode's
// self-referential constraint. The allocation happens once per
// scheduling decision, not once per lock acquisition, so it is a
// reasonable place to spend it.
type fifoEntry struct {
	container.Link[*fifoEntry]
	task Runnable
}

// FIFOPolicy is the default ReadyPolicy: tasks run in the order they
// became ready, exactly as spec.md's baseline scheduling model
// requires.
type FIFOPolicy struct {
	list container.DList[*fifoEntry]
}

func (p *FIFOPolicy) Empty() bool { return p.list.Empty() }

func (p *FIFOPolicy) Add(t Runnable) {
	p.list.PushBack(&fifoEntry{task: t})
}

func (p *FIFOPolicy) Drop() (Runnable, bool) {
	e, ok := p.list.PopFront()
	if !ok {
		return nil, false
	}
	return e.task, true
}

// Compare is unused by FIFOPolicy; tasks run in arrival order
// regardless.
func (p *FIFOPolicy) Compare(a, b Runnable) bool { return false }

// Prioritized is the extra surface a Runnable must provide to
// participate in RealTimePolicy's ordering. Priority-based and
// deadline-based real-time scheduling policies (spec.md §1's "specific
// real-time scheduling policies... we describe only the plug-in
// interface") both reduce to "a total order over ready tasks", so a
// single int key covers both: deadline policies key on a deadline's
// nanosecond value, static-priority-ceiling policies key on the
// negated priority.
type Prioritized interface {
	Runnable
	SchedulingKey() int64
}

// realtimeEntry wraps a Prioritized for intrusive linking in priority
// order, the same wrapper-allocation tradeoff fifoEntry documents.
type realtimeEntry struct {
	container.Link[*realtimeEntry]
	task Prioritized
}

// RealTimePolicy is the pluggable priority-ordered ReadyPolicy spec.md
// §1 calls out as in-scope to provide the interface for (not to
// specify the policy itself): Add performs a sorted insertion keyed by
// Prioritized.SchedulingKey (ascending - the smallest key, e.g. the
// nearest deadline or the highest static priority when priorities are
// negated, runs first), and Drop always takes the head. It does not
// itself implement deadline-monotonic or static-priority-ceiling
// scheduling; it is the ordering primitive those concrete policies
// would be built from.
type RealTimePolicy struct {
	list container.DList[*realtimeEntry]
}

func (p *RealTimePolicy) Empty() bool { return p.list.Empty() }

// Add inserts t in ascending SchedulingKey order, after any existing
// entry with an equal or lower key, preserving FIFO order among tasks
// that share a key.
func (p *RealTimePolicy) Add(t Runnable) {
	pt, ok := t.(Prioritized)
	if !ok {
		panic("cluster: RealTimePolicy requires a Prioritized Runnable")
	}
	e := &realtimeEntry{task: pt}
	key := pt.SchedulingKey()
	for cur := p.list.Front(); cur != nil; cur = cur.DListNext() {
		if key < cur.task.SchedulingKey() {
			p.list.InsertBefore(cur, e)
			return
		}
	}
	p.list.PushBack(e)
}

func (p *RealTimePolicy) Drop() (Runnable, bool) {
	e, ok := p.list.PopFront()
	if !ok {
		return nil, false
	}
	return e.task, true
}

// Compare reports whether a's key sorts before b's.
func (p *RealTimePolicy) Compare(a, b Runnable) bool {
	pa, aok := a.(Prioritized)
	pb, bok := b.(Prioritized)
	if !aok || !bok {
		return false
	}
	return pa.SchedulingKey() < pb.SchedulingKey()
}
