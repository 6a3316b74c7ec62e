package cluster

import (
	"runtime"
	"sync/atomic"
	"time"
)

// ProcessorState is a processor's dispatch-loop state, the same
// enum-plus-atomic-CAS shape as coroutine.State and the teacher's
// LoopState/FastState.
type ProcessorState uint32

const (
	// Idle means the processor has no ready task and is parked waiting
	// to be woken.
	Idle ProcessorState = iota
	// Dispatching means the processor is between tasks, selecting the
	// next one to run.
	Dispatching
	// Running means the processor currently holds control handed to a
	// task.
	Running
	// Stopped is the terminal state.
	Stopped
)

// Processor is a dedicated, OS-thread-pinned goroutine that repeatedly
// pulls a Runnable off its Cluster's ready queue and runs it,
// implementing spec.md §4.2's dispatch loop steps 1-4. Pinning the
// goroutine to its OS thread (runtime.LockOSThread) is this kernel's
// analogue of "the processor owns a kernel stack, not a task's stack" -
// the goroutine's own stack is that kernel stack, and it never runs any
// other processor's work.
type Processor struct {
	cluster *Cluster
	state   atomic.Uint32

	wakeCh chan struct{}
	stopCh chan struct{}
	doneCh chan struct{}

	preemptPending atomic.Bool
	ticker         *time.Ticker

	current Runnable
}

func newProcessor(c *Cluster) *Processor {
	return &Processor{
		cluster: c,
		wakeCh:  make(chan struct{}, 1),
		stopCh:  make(chan struct{}),
		doneCh:  make(chan struct{}),
	}
}

func (p *Processor) start() {
	go p.loop()
}

// Cluster returns the cluster this processor belongs to.
func (p *Processor) Cluster() *Cluster { return p.cluster }

// State returns the processor's current dispatch-loop state.
func (p *Processor) State() ProcessorState { return ProcessorState(p.state.Load()) }

// Current returns the task currently running on this processor, or nil
// between tasks.
func (p *Processor) Current() Runnable { return p.current }

// PreemptPending reports whether a preemption tick has fired since the
// flag was last checked, and clears it, per spec.md §4.2's cooperative
// preemption: Go offers no way to force-preempt a goroutine mid-
// instruction from outside the runtime, so this kernel exposes an atomic
// flag instead of the original's signal-driven forced yield. No kernel
// primitive polls it; a task yields on a tick only if its own code
// checks this flag and calls Yield. This is a documented substitution,
// not a silent downgrade - see DESIGN.md.
func (p *Processor) PreemptPending() bool {
	return p.preemptPending.Swap(false)
}

// EnablePreemption arms a periodic preemption tick of period d. A zero
// or negative d disables preemption.
func (p *Processor) EnablePreemption(d time.Duration) {
	if p.ticker != nil {
		p.ticker.Stop()
		p.ticker = nil
	}
	if d <= 0 {
		return
	}
	p.ticker = time.NewTicker(d)
	go func(t *time.Ticker) {
		for {
			select {
			case <-t.C:
				p.preemptPending.Store(true)
			case <-p.stopCh:
				return
			}
		}
	}(p.ticker)
}

// Stop halts the processor's dispatch loop after its current task (if
// any) yields. Stop blocks until the loop has exited.
func (p *Processor) Stop() {
	select {
	case <-p.stopCh:
	default:
		close(p.stopCh)
	}
	<-p.doneCh
}

func (p *Processor) loop() {
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()
	defer close(p.doneCh)
	defer p.state.Store(uint32(Stopped))
	defer func() { Log.Debug().Uint64("cluster", p.cluster.id).Log("processor stopped") }()

	for {
		select {
		case <-p.stopCh:
			return
		default:
		}

		p.state.Store(uint32(Dispatching))
		task, ok := p.cluster.dequeue()
		if !ok {
			p.state.Store(uint32(Idle))
			task, ok = p.cluster.parkIdle(p)
			if !ok {
				select {
				case <-p.stopCh:
					return
				default:
				}
				continue
			}
		}

		p.current = task
		p.state.Store(uint32(Running))
		requeue := task.RunOnProcessor(p)
		p.current = nil
		if requeue {
			p.cluster.MakeReady(task)
		}
	}
}
