// Package heap implements the kernel's own allocator, the user-level
// heap spec.md §3's Heap descriptor and §4.8 describe: per-task heap
// affinity, power-of-two-ish size buckets with a spinlock-guarded
// freelist each, and a bump-pointer arena that crosses over to a raw
// mmap for large allocations. It sits beside Go's garbage collector
// rather than replacing it - every arena is itself a make([]byte, ...)
// slice (or, on Linux, an mmap'd region) that Go's GC never scans, and
// blocks handed out of it are tracked entirely by the header this
// package writes in front of them.
//
// This is not a general-purpose allocator competing with Go's own; it
// exists because the scheduling semantics it models (per-task heap
// isolation, round-trip alloc/free across tasks, Memalign) are part of
// the kernel's documented surface and need a concrete, testable
// implementation the way every other module here has one.
package heap
