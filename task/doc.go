// Package task implements Task: a coroutine with a cluster affinity, a
// scheduling identity, and an asynchronous-exception mailbox - the
// thread of control the kernel actually schedules, as distinct from a
// bare coroutine.Coroutine (which has no notion of which cluster it
// belongs to or how it got back onto a ready queue).
//
// A Task's own user code runs on a dedicated goroutine (lazily spawned
// by its embedded Coroutine's first Resume), while the cluster.Processor
// that dispatches it is a separate, OS-thread-pinned goroutine blocked
// on the Coroutine's channel rendezvous for the duration of each
// activation. This is the natural consequence of modeling "user-level
// context switch" as a channel handoff (see SPEC_FULL.md §0): Go's own
// M:N scheduler, not this package, decides which OS thread actually
// executes the task's goroutine at any given moment. Pinning the
// Processor's loop to an OS thread still matches the original's "a
// processor owns a kernel stack" model for the loop's own bookkeeping;
// it does not pin task execution to that thread, which the original's
// design does not require either (only the processor's own dispatch
// logic needs a stable stack).
package task
