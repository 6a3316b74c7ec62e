// Package event implements the per-cluster event list and timer: a
// min-heap of pending wakeups ordered by absolute time, backed by one
// real OS timer that only ever needs reprogramming when the heap's
// earliest deadline changes, exactly as spec.md §4.7 describes.
//
// The heap itself is container/heap.Interface over a slice, the same
// shape as the teacher's timerHeap; the OS timer underneath it is
// Linux timerfd (golang.org/x/sys/unix), falling back to a plain
// time.Timer elsewhere, split by build tag the same way the teacher
// splits its I/O poller per-GOOS.
package event
