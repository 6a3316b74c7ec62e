package exception

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestThrowGuard_RoundTrip(t *testing.T) {
	want := errors.New("boom")
	err := Guard(func() error {
		Throw(want)
		t.Fatal("unreachable")
		return nil
	})
	require.ErrorIs(t, err, want)
}

func TestGuard_PlainReturnPassesThrough(t *testing.T) {
	want := errors.New("plain")
	err := Guard(func() error { return want })
	require.ErrorIs(t, err, want)
}

func TestGuard_UnrelatedPanicPropagates(t *testing.T) {
	require.Panics(t, func() {
		_ = Guard(func() error {
			panic("not an exception")
		})
	})
}

func TestResume_FallsBackToHandlerOrder(t *testing.T) {
	var seen []string
	popOuter := PushResumptionHandler(func(e error) bool {
		seen = append(seen, "outer")
		return true
	})
	defer popOuter()
	popInner := PushResumptionHandler(func(e error) bool {
		seen = append(seen, "inner")
		return false
	})
	defer popInner()

	handled := Resume(errors.New("e"))
	require.True(t, handled)
	require.Equal(t, []string{"inner", "outer"}, seen)
}

func TestResume_NoHandlerReturnsFalse(t *testing.T) {
	require.False(t, Resume(errors.New("e")))
}

func TestResumeOrThrow_ThrowsWhenUnhandled(t *testing.T) {
	want := errors.New("unhandled")
	err := Guard(func() error {
		ResumeOrThrow(want)
		return nil
	})
	require.ErrorIs(t, err, want)
}

func TestResume_SkipsActiveHandlerToPreventRecursion(t *testing.T) {
	var calls int
	var pop func()
	pop = PushResumptionHandler(func(e error) bool {
		calls++
		if calls == 1 {
			// Re-raising from within the handler must skip this same
			// frame, or it would recurse forever.
			return Resume(e)
		}
		return true
	})
	defer pop()
	handled := Resume(errors.New("e"))
	require.False(t, handled)
	require.Equal(t, 1, calls)
}

func TestMailbox_ThrowAtDeliveredOnPollWhenEnabled(t *testing.T) {
	m := NewMailbox()
	want := errors.New("async")
	m.ThrowAt(1, want)
	require.False(t, m.Pending()) // mask 1 not enabled yet (starts at 0)

	restore := m.EnableDeliver(1)
	defer restore()
	require.True(t, m.Pending())

	err := Guard(func() error {
		m.Poll()
		return nil
	})
	require.ErrorIs(t, err, want)
	require.False(t, m.Pending())
}

func TestMailbox_ResumeAtUsesResumptionHandler(t *testing.T) {
	m := NewMailbox()
	want := errors.New("resumable")
	restore := m.EnableDeliver(MaskAll)
	defer restore()

	var handledErr error
	pop := PushResumptionHandler(func(e error) bool {
		handledErr = e
		return true
	})
	defer pop()

	m.ResumeAt(MaskAll, want)
	m.Poll()
	require.ErrorIs(t, handledErr, want)
}

func TestMailbox_FIFOOrder(t *testing.T) {
	m := NewMailbox()
	restore := m.EnableDeliver(MaskAll)
	defer restore()

	e1, e2 := errors.New("first"), errors.New("second")
	m.ThrowAt(MaskAll, e1)
	m.ThrowAt(MaskAll, e2)

	first := Guard(func() error {
		m.Poll()
		return nil
	})
	require.ErrorIs(t, first, e1)

	second := Guard(func() error {
		m.Poll()
		return nil
	})
	require.ErrorIs(t, second, e2)
}

func TestMailbox_DisableDeliverBlocksDelivery(t *testing.T) {
	m := NewMailbox()
	restoreEnable := m.EnableDeliver(MaskAll)
	restoreDisable := m.DisableDeliver(1)
	defer restoreDisable()
	defer restoreEnable()

	m.ThrowAt(1, errors.New("blocked"))
	require.False(t, m.Pending())
}
