package coroutine

import (
	"fmt"

	"github.com/joeycumines/uxx/internal/goroutinelocal"
)

var currentKey = struct{ _ int }{}

// Current returns the coroutine currently executing on the calling
// goroutine, or nil if the calling goroutine is not running inside any
// Coroutine's Main.
func Current() *Coroutine {
	if v, ok := goroutinelocal.Get(currentKey); ok {
		return v.(*Coroutine)
	}
	return nil
}

func setCurrent(c *Coroutine) { goroutinelocal.Set(currentKey, c) }
func clearCurrent()           { goroutinelocal.Clear() }

// Main is the body of a coroutine. It receives the Coroutine it is
// running on, so it can call Suspend on itself. A non-nil return value
// becomes the error returned from the Resume call that last resumed
// this coroutine's final activation, exactly like any other suspend.
type Main func(c *Coroutine) error

// Coroutine is a single resumable unit of control: a goroutine parked on
// a channel pair, not a user-space stack swapped by hand. See the
// package doc comment for the rendezvous design.
type Coroutine struct {
	name    string
	main    Main
	state   fastState
	started bool

	resume  chan struct{}
	suspend chan struct{}

	// last is the coroutine that most recently resumed this one; starter
	// is the coroutine that originally created it. Both are non-owning
	// references used only for diagnostics and for the asymmetric
	// coroutine/task relationship described in SPEC_FULL.md §0/§3.5 - a
	// plain coroutine only ever has one starter and, once started, one
	// active resumer at a time.
	last    *Coroutine
	starter *Coroutine

	pendingExc error
	haltErr    error
}

// New creates a coroutine with the given diagnostic name and body. The
// coroutine does not start running until the first Resume.
func New(name string, main Main) *Coroutine {
	return &Coroutine{
		name:    name,
		main:    main,
		resume:  make(chan struct{}),
		suspend: make(chan struct{}),
	}
}

// Name returns the coroutine's diagnostic name.
func (c *Coroutine) Name() string { return c.name }

// State returns the coroutine's current lifecycle state.
func (c *Coroutine) State() State { return c.state.load() }

// Starter returns the coroutine that created this one, or nil for a
// coroutine with no recorded starter.
func (c *Coroutine) Starter() *Coroutine { return c.starter }

// Last returns the coroutine that most recently resumed this one, valid
// only while this coroutine is Active.
func (c *Coroutine) Last() *Coroutine { return c.last }

// StackExhausted always reports false. Go goroutine stacks grow
// automatically starting at a few KB and are not directly inspectable
// from user code, so there is no portable way to reproduce the
// original's fixed-stack high-water check; this is a deliberate
// capability gap, not a silently dropped feature.
func (c *Coroutine) StackExhausted() bool { return false }

// Resume runs c until it suspends or returns, blocking the calling
// goroutine meanwhile. It returns any error the coroutine's Main
// returned on this activation, or any pending asynchronous exception
// posted to it since its last suspend.
func (c *Coroutine) Resume() error {
	if c.state.load() == Halt {
		return fmt.Errorf("coroutine: Resume on halted coroutine %q", c.name)
	}
	caller := Current()
	c.last = caller
	if c.starter == nil {
		c.starter = caller
	}

	runHooks(HookResume, c)
	if !c.started {
		c.started = true
		c.state.store(Active)
		go c.run()
	} else {
		c.state.store(Active)
	}
	c.resume <- struct{}{}
	<-c.suspend
	runHooks(HookSuspend, c)

	if c.pendingExc != nil {
		err := c.pendingExc
		c.pendingExc = nil
		return err
	}
	return nil
}

// run is the coroutine's own goroutine. It blocks for its first resume,
// executes Main exactly once, and parks between every Suspend call Main
// makes on itself.
func (c *Coroutine) run() {
	<-c.resume
	setCurrent(c)
	err := c.main(c)
	clearCurrent()
	c.haltErr = err
	c.pendingExc = err
	c.state.store(Halt)
	c.suspend <- struct{}{}
}

// Suspend yields control back to whoever most recently resumed this
// coroutine, blocking until it is resumed again. Suspend must only be
// called by the goroutine currently executing this coroutine's Main.
func (c *Coroutine) Suspend() {
	c.state.store(Inactive)
	c.suspend <- struct{}{}
	<-c.resume
	c.state.store(Active)
}

// PostException records err to be delivered as the result of the
// Resume call that next regains control after this coroutine suspends
// or halts, implementing the asynchronous-exception mailbox the task
// and exception layers build on.
func (c *Coroutine) PostException(err error) {
	c.pendingExc = err
}
