// Package coroutine implements the kernel's lowest execution primitive:
// a unit of control that can be resumed and can suspend itself back to
// whoever resumed it, carrying no implicit scheduling policy of its own
// (that's task.Task and cluster.Processor, built on top).
//
// "User-level context switch" is realized as a rendezvous between
// goroutines over a pair of unbuffered channels, the same ping/pong
// handoff idiom the teacher's microbatch.Batcher and longpoll.Channel
// use to hand synchronous control between a producer and a worker
// goroutine. A Coroutine's own goroutine blocks on its resume channel
// until resumed, and the resumer blocks on the coroutine's suspend
// channel until it yields or finishes - at no point are both goroutines
// running the coroutine's logic at once, preserving the original's
// single-active-stack-per-coroutine invariant without any OS-level
// synchronization beyond the channel handoff itself.
package coroutine
