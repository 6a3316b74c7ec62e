package task

import (
	"time"

	"github.com/joeycumines/uxx/event"
)

// Sleep is the embedding API's uSleep(t): it blocks the calling task
// for at least d, via a timer event on the task's current cluster
// rather than a bare time.Sleep, so the task yields its processor for
// the duration instead of holding a goroutine (and, on the processor
// that dispatched it, the OS thread it is pinned to) parked doing
// nothing. Per spec.md §4.7, a sleeping task is not on any ready,
// entry, or condition queue while it waits - Block already guarantees
// this, since nothing re-enqueues t until the event fires.
func Sleep(t *Task, d time.Duration) {
	if d <= 0 {
		t.Yield()
		return
	}
	node := &event.Node{
		When: time.Now().Add(d),
		ExecuteLocked: func() {
			t.Cluster().MakeReady(t)
		},
	}
	t.Cluster().Events.Schedule(node)
	t.Block()
}
