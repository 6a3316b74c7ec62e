package task

import (
	"sync/atomic"

	"github.com/joeycumines/uxx/cluster"
	"github.com/joeycumines/uxx/coroutine"
	"github.com/joeycumines/uxx/exception"
	"github.com/joeycumines/uxx/heap"
	"github.com/joeycumines/uxx/internal/goroutinelocal"
	"github.com/joeycumines/uxx/internal/ownerlock"
)

var currentKey = struct{ _ int }{}

// Current returns the Task whose Main is executing on the calling
// goroutine, or nil if the calling goroutine is not running inside any
// Task's Main. This is the uThisTask() thread-local accessor spec.md
// §6 describes; see coroutine.Current for the equivalent one level
// down.
func Current() *Task {
	if v, ok := goroutinelocal.Get(currentKey); ok {
		return v.(*Task)
	}
	return nil
}

// ID identifies a task uniquely for the lifetime of the process; it is
// the same type as internal/ownerlock.TaskID, so a task's ID can key an
// OwnerLock directly. Monitor entry keys ownership by *Task instead, and
// heap bucket locks are plain spinlocks.
type ID = ownerlock.TaskID

var idCounter atomic.Uint64

// Main is a task's entry point.
type Main func(t *Task) error

// Task is the kernel's schedulable unit: a coroutine bound to a
// cluster, with a priority, a recursion counter for the monitors it
// currently holds, and a mailbox for asynchronous exceptions.
type Task struct {
	*coroutine.Coroutine

	id      ID
	name    string
	cluster *cluster.Cluster
	// processor is set only while this task is actually running,
	// cleared as soon as it yields or blocks; it has no meaning at any
	// other time.
	processor *cluster.Processor

	priority       int
	activePriority int
	mutexRecursion int

	mailbox *exception.Mailbox
	err     error

	// heap is the allocator this task's Alloc/Free calls use, defaulting
	// to the shared process heap until SetHeap gives it isolation.
	heap *heap.Heap
}

// Start creates a task bound to c, running main, and places it on c's
// ready queue. The task does not begin executing until some Processor
// on c dequeues it.
func Start(c *cluster.Cluster, name string, main Main) *Task {
	t := &Task{
		id:      ID(idCounter.Add(1)),
		name:    name,
		cluster: c,
		mailbox: exception.NewMailbox(),
		heap:    heap.Default(),
	}
	t.Coroutine = coroutine.New(name, func(*coroutine.Coroutine) error {
		// Registered once, on the task's own goroutine, before Main runs;
		// torn down along with the coroutine's own current-coroutine
		// entry when this goroutine's Coroutine.run clears its whole
		// goroutine-local map on the way out.
		goroutinelocal.Set(currentKey, t)
		return exception.Guard(func() error { return main(t) })
	})
	c.MakeReady(t)
	return t
}

// ID returns the task's unique identity.
func (t *Task) ID() ID { return t.id }

// Name returns the task's diagnostic name.
func (t *Task) Name() string { return t.name }

// Cluster returns the cluster this task currently belongs to.
func (t *Task) Cluster() *cluster.Cluster { return t.cluster }

// Processor returns the processor currently running this task, or nil
// if it is not currently running (ready, blocked, or halted).
func (t *Task) Processor() *cluster.Processor { return t.processor }

// Mailbox returns the task's asynchronous-exception mailbox, used by
// exception.ResumeAt/ThrowAt callers and by the task itself to poll for
// pending deliveries at a safe point.
func (t *Task) Mailbox() *exception.Mailbox { return t.mailbox }

// Heap returns the allocator this task's Alloc/Free calls go through -
// the shared process heap by default, or an isolated one after
// SetHeap.
func (t *Task) Heap() *heap.Heap { return t.heap }

// SetHeap switches the task to an isolated heap (typically one freshly
// returned by heap.NewHeap), per spec.md §3's per-task heap affinity.
// Blocks already allocated from the old heap remain valid; only
// allocations made after this call use h.
func (t *Task) SetHeap(h *heap.Heap) { t.heap = h }

// Priority returns the task's baseline and currently active priority.
// activePriority differs from the baseline only while the task holds a
// monitor subject to priority inheritance (SPEC_FULL.md's
// RealTimePolicy integration point); this kernel does not implement
// inheritance itself; inheritance is the policy plug-in's job.
func (t *Task) Priority() (base, active int) { return t.priority, t.activePriority }

// SetPriority sets the task's baseline priority. It does not itself
// reorder the task within whatever ready queue it currently sits on.
func (t *Task) SetPriority(p int) { t.priority, t.activePriority = p, p }

// EnterMonitor records that the task has entered one more level of
// monitor nesting (recursive Serial.Enter by this task).
func (t *Task) EnterMonitor() { t.mutexRecursion++ }

// ExitMonitor records that the task has left one level of monitor
// nesting.
func (t *Task) ExitMonitor() { t.mutexRecursion-- }

// MonitorDepth reports how many levels of monitor nesting the task is
// currently inside.
func (t *Task) MonitorDepth() int { return t.mutexRecursion }

// RunOnProcessor implements cluster.Runnable. It hands control to the
// task's coroutine for one activation and always returns false: a Task
// that wants to remain ready after giving up the processor does so
// explicitly via Yield, not via an automatic processor-driven requeue,
// since only the task (or whatever unblocks it) knows whether it is
// actually ready again.
func (t *Task) RunOnProcessor(p *cluster.Processor) bool {
	t.processor = p
	if err := t.Resume(); err != nil {
		t.err = err
	}
	t.processor = nil
	return false
}

// Err returns the error the task's Main most recently terminated with
// (via a plain return, a Throw that unwound past Main, or a posted
// asynchronous ThrowAt delivered and left unhandled), or nil if it
// exited cleanly or is still running. This is the resting place for the
// "exception propagation out of main" case spec.md §9 calls out: the
// kernel does not itself decide what an embedder does with an
// unhandled terminal error, it just makes it observable here.
func (t *Task) Err() error { return t.err }

// Yield voluntarily gives up the processor while remaining ready: it
// re-enqueues the task on its cluster before suspending, so some
// processor (possibly a different one) resumes it again once its
// current turn on the ready queue comes around. It also drains any
// pending, currently-enabled asynchronous exceptions from the task's
// mailbox before returning, the same poll point spec.md §4.6 requires
// at every scheduled yield.
func (t *Task) Yield() {
	t.cluster.MakeReady(t)
	t.Coroutine.Suspend()
	t.mailbox.Poll()
}

// Block suspends the task without re-enqueuing it. The caller
// (typically a monitor, semaphore, or accept primitive) is responsible
// for calling Cluster().MakeReady(t) once whatever the task is waiting
// for becomes available. Block also polls the mailbox on the way back
// in, the same as Yield.
func (t *Task) Block() {
	t.Coroutine.Suspend()
	t.mailbox.Poll()
}

// Migrate moves the task to dest, to take effect the next time it
// yields or blocks and is subsequently resumed: it cooperatively gives
// up its current cluster via Yield and re-enqueues itself on dest. This
// only migrates the calling task itself (Migrate must be called from
// within the task's own Main); it does not forcibly relocate a task
// that is not currently running, which would require acquiring both
// clusters' internal locks in a fixed global order (by Cluster.ID) -
// the approach SPEC_FULL.md describes for the general case - since Go
// has no "disable interrupts" to fall back on otherwise. This
// implementation covers the common case (a task moving itself) and
// documents the narrower scope rather than building the two-lock
// general case without a caller that exercises it.
func (t *Task) Migrate(dest *cluster.Cluster) {
	t.cluster = dest
	t.Yield()
}
