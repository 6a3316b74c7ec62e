package cluster

import (
	"sync/atomic"

	"github.com/joeycumines/logiface"

	"github.com/joeycumines/uxx/event"
	"github.com/joeycumines/uxx/internal/spinlock"
)

var idCounter atomic.Uint64

// Log, when non-nil, receives this package's diagnostics: processor
// lifecycle at Debug, idle parking at Trace. The generalized logiface
// form keeps the package backend-agnostic; a nil logger is fully
// disabled (logiface's documented nil-receiver contract), so there is
// no logging overhead unless an embedder wires one up - the uxx root
// package does so from its own Log by default.
var Log *logiface.Logger[logiface.Event]

// Cluster groups a set of Processors sharing one ready queue and one
// event list, mirroring spec.md §3's Cluster/§4.3. All cluster-internal
// bookkeeping (the ready queue, the idle-processor list) is guarded by
// one spinlock; spec.md §5's documented lock order places this class
// first, ahead of a processor's own state and a serial's entry queue
// (see internal/spinlock.Class).
type Cluster struct {
	id     uint64
	lock   spinlock.SpinLock
	policy ReadyPolicy
	Events *event.List

	processors []*Processor
	idle       []*Processor
}

// New creates a Cluster using policy for ready-queue ordering. A nil
// policy defaults to FIFOPolicy, spec.md's baseline scheduling model.
func New(policy ReadyPolicy) *Cluster {
	if policy == nil {
		policy = &FIFOPolicy{}
	}
	c := &Cluster{
		id:     idCounter.Add(1),
		policy: policy,
		Events: event.NewList(),
	}
	c.lock.Class = spinlock.ClassCluster
	return c
}

// ID returns the cluster's unique, process-lifetime identity. Task.Migrate
// does not use it: a task migrates only itself and never holds two
// cluster locks at once (see DESIGN.md's documented Migrate substitution).
func (c *Cluster) ID() uint64 { return c.id }

// StartProcessor creates and starts a new Processor bound to this
// cluster.
func (c *Cluster) StartProcessor() *Processor {
	p := newProcessor(c)
	c.lock.Lock()
	c.processors = append(c.processors, p)
	c.lock.Unlock()
	p.start()
	Log.Debug().Uint64("cluster", c.id).Log("processor started")
	return p
}

// Processors returns a snapshot of the cluster's currently bound
// processors.
func (c *Cluster) Processors() []*Processor {
	c.lock.Lock()
	defer c.lock.Unlock()
	out := make([]*Processor, len(c.processors))
	copy(out, c.processors)
	return out
}

// MakeReady adds t to the ready queue, waking an idle processor if one
// is parked.
func (c *Cluster) MakeReady(t Runnable) {
	c.lock.Lock()
	c.policy.Add(t)
	var wake *Processor
	if n := len(c.idle); n > 0 {
		wake = c.idle[n-1]
		c.idle = c.idle[:n-1]
	}
	c.lock.Unlock()
	if wake != nil {
		select {
		case wake.wakeCh <- struct{}{}:
		default:
		}
	}
}

// dequeue pops the next ready task, if any, under the cluster lock.
func (c *Cluster) dequeue() (Runnable, bool) {
	c.lock.Lock()
	defer c.lock.Unlock()
	return c.policy.Drop()
}

// parkIdle registers p as idle and blocks until woken or stopped -
// unless a task arrived between the caller's failed dequeue and the
// registration, in which case that task is returned and p never parks.
// The re-check and the registration happen under one acquisition of
// c.lock, so no MakeReady can land between them unseen: either it ran
// before the re-check (and the task is found here), or it runs after
// p is on c.idle (and pops p to wake it). Without the re-check, an
// enqueue in that window - a timer firing, another processor's task
// unblocking a waiter - would strand a Ready task with every processor
// parked.
func (c *Cluster) parkIdle(p *Processor) (Runnable, bool) {
	c.lock.Lock()
	if t, ok := c.policy.Drop(); ok {
		c.lock.Unlock()
		return t, true
	}
	c.idle = append(c.idle, p)
	c.lock.Unlock()
	Log.Trace().Uint64("cluster", c.id).Log("processor parked idle")

	select {
	case <-p.wakeCh:
	case <-p.stopCh:
	}

	// A stale wake token (from a MakeReady whose task p already picked
	// up via dequeue) or a stop can end the park while p still sits on
	// c.idle; scrub it so p is never listed twice.
	c.lock.Lock()
	for i, q := range c.idle {
		if q == p {
			c.idle = append(c.idle[:i], c.idle[i+1:]...)
			break
		}
	}
	c.lock.Unlock()
	return nil, false
}

// Shutdown stops every processor bound to this cluster. Tasks still on
// the ready queue are left queued; the caller is responsible for
// draining or migrating them first if that matters for its scenario.
func (c *Cluster) Shutdown() {
	for _, p := range c.Processors() {
		p.Stop()
	}
}
