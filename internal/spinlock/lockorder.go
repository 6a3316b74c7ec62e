package spinlock

// This file implements the debug-only lock-order checker. It is compiled
// only under the uxx_lockorder build tag, so production builds pay
// nothing for it; spec.md §5 asks only that the order be "enforced in
// debug builds", not always.
//
// Every SpinLock-derived lock in the kernel that participates in the
// documented partial order (cluster lock < processor lock < serial lock
// < heap bucket lock, see SPEC_FULL.md §3.2) is assigned a Class at
// construction. The checker keeps a goroutine-local stack of classes
// currently held (via internal/goroutinelocal, the same TLS substitute the rest of
// the kernel uses for uThisTask et al.) and panics if a goroutine tries
// to acquire a class lower than or equal to its current top, since that
// can only happen by violating the documented order or trying to
// recursively acquire a non-reentrant lock.

// Class identifies a lock's position in the kernel's documented
// acquisition order. Locks with an Unordered class are exempt from the
// check (used for leaf locks with no documented relationship).
type Class int

const (
	Unordered Class = iota
	ClassCluster
	ClassProcessor
	ClassSerial
	ClassHeapBucket
)
