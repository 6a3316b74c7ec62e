// Package exception implements the kernel's two dispatch disciplines
// over a single Exception type (any Go error satisfies it): termination
// (Throw, unwinding, built directly on Go's own panic/recover - the
// host unwinder spec.md §4.6 says termination integrates with, rather
// than a bespoke one built on top of it) and resumption (Resume, a
// per-goroutine stack of ResumptionHandler entries walked
// innermost-to-outermost with no unwinding, reporting false if nothing
// handles it; ResumeOrThrow is the variant that falls back to Throw).
//
// Mailbox adds the asynchronous half: ResumeAt/ThrowAt post a message to
// a target task's mailbox, an intrusive FIFO list guarded by a spinlock,
// drained only at poll points while the target is inside an
// EnableDeliver region for that message's kind. The FIFO delivery order
// per sender/target pair is a property of the list, not a promise
// enforced anywhere else.
package exception
