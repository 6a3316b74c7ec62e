// Package spinlock implements the test-and-test-and-set primitive every
// other lock in the kernel (owner locks, serial locks, cluster locks,
// heap bucket locks) is built on top of, plus the debug-only lock-order
// checker spec.md §5 calls for ("a strict partial order is documented
// and enforced in debug builds").
//
// The cache-line padding and pure-atomic-CAS idiom here is lifted
// directly from the teacher's FastState (eventloop/state.go): no mutex,
// no validation on the hot path, padding to avoid false sharing between
// cores spinning on independent locks.
package spinlock

import (
	"runtime"
	"sync/atomic"
)

// SpinCount is the default number of test-and-set attempts before a
// spinning goroutine yields the OS thread via runtime.Gosched, mirroring
// spec.md §6's DEFAULT_SPIN tunable (1000 checks) for the idle-processor
// loop; a SpinLock itself always eventually yields rather than busy-loop
// forever, since blocking the sole OS thread backing a goroutine defeats
// Go's own scheduler fairness.
const SpinCount = 1000

// SpinLock is a non-reentrant mutual-exclusion primitive. Acquiring a
// SpinLock already held by the same goroutine deadlocks - exactly like
// the C++ original's raw spinlock, which is not recursive either;
// recursion is layered on top by owner locks (see uxx/internal/ownerlock).
//
// Class is set once, before the lock is ever used, to its position in
// the kernel's documented acquisition order; it drives the uxx_lockorder
// debug check and is otherwise ignored.
type SpinLock struct { // betteralign:ignore
	_     [64]byte
	state atomic.Bool
	_     [63]byte
	Class Class
}

// Lock blocks until the spinlock is acquired.
func (s *SpinLock) Lock() {
	for {
		for i := 0; i < SpinCount; i++ {
			if !s.state.Load() && s.state.CompareAndSwap(false, true) {
				Enter(s.Class)
				return
			}
		}
		runtime.Gosched()
	}
}

// TryLock attempts to acquire the spinlock without blocking.
func (s *SpinLock) TryLock() bool {
	if !s.state.Load() && s.state.CompareAndSwap(false, true) {
		Enter(s.Class)
		return true
	}
	return false
}

// Unlock releases the spinlock. Unlocking an unheld SpinLock is a
// programming error the caller is responsible for not committing - the
// kernel's internal callers always pair Lock/Unlock lexically.
func (s *SpinLock) Unlock() {
	Leave(s.Class)
	s.state.Store(false)
}
