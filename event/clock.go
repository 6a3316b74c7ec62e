package event

import (
	"sync/atomic"
	"time"
)

// Clock reports the kernel's notion of "now". GetTime() carries an
// injectable offset for virtual-clock scenarios (spec.md §4.7); every
// scheduling decision (timer ordering, deadline comparison) instead
// uses Now(), real monotonic time, so virtualizing GetTime() never
// perturbs actual wakeup ordering.
type Clock struct {
	offset atomic.Int64 // nanoseconds added to GetTime(), never to Now()
}

// Now returns real wall-clock time, used for all scheduling math.
func (c *Clock) Now() time.Time { return time.Now() }

// GetTime returns real time plus the injected offset, the
// user-observable clock spec.md §4.7 describes as distinct from the
// scheduler's own timing.
func (c *Clock) GetTime() time.Time {
	return time.Now().Add(time.Duration(c.offset.Load()))
}

// SetOffset adjusts the virtual clock's offset from real time.
func (c *Clock) SetOffset(d time.Duration) {
	c.offset.Store(int64(d))
}
