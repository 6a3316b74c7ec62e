// Package monitor implements Serial, the kernel's mutual-exclusion
// entry/exit core (a recursive, task-owned lock with a FIFO entry
// queue, generalized from internal/ownerlock.OwnerLock to add the
// accept-selector interaction spec.md §4.4/§4.5 describe), and
// Condition, a condition variable scoped to one Serial.
//
// Unlike internal/ownerlock.OwnerLock (which parks a blocked goroutine
// directly on a channel), Serial's entry queue holds Tasks and hands
// off by calling Cluster().MakeReady on the next owner rather than
// closing a channel - entering or leaving a Serial is itself a
// scheduling event, not just a lock operation, matching spec.md §4.4's
// "the releaser picks the successor and hands off, never re-contends"
// rule.
package monitor
