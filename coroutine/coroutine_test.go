package coroutine

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCoroutine_ResumeSuspendRoundTrip(t *testing.T) {
	var trace []string
	co := New("worker", func(c *Coroutine) error {
		trace = append(trace, "enter")
		c.Suspend()
		trace = append(trace, "resumed")
		return nil
	})

	require.Equal(t, Start, co.State())
	require.NoError(t, co.Resume())
	require.Equal(t, []string{"enter"}, trace)
	require.Equal(t, Inactive, co.State())

	require.NoError(t, co.Resume())
	require.Equal(t, []string{"enter", "resumed"}, trace)
	require.Equal(t, Halt, co.State())
}

func TestCoroutine_ResumeAfterHaltErrors(t *testing.T) {
	co := New("oneshot", func(c *Coroutine) error { return nil })
	require.NoError(t, co.Resume())
	require.Error(t, co.Resume())
}

func TestCoroutine_MainErrorDeliveredToResumer(t *testing.T) {
	wantErr := errors.New("boom")
	co := New("failer", func(c *Coroutine) error { return wantErr })
	err := co.Resume()
	require.ErrorIs(t, err, wantErr)
}

func TestCoroutine_PostExceptionDeliveredOnNextSuspend(t *testing.T) {
	wantErr := errors.New("async")
	reached := make(chan struct{})
	co := New("interruptible", func(c *Coroutine) error {
		c.Suspend()
		close(reached)
		c.Suspend()
		return nil
	})
	require.NoError(t, co.Resume())
	co.PostException(wantErr)
	err := co.Resume()
	require.ErrorIs(t, err, wantErr)
	<-reached
}

func TestCoroutine_CurrentDuringMain(t *testing.T) {
	var seen *Coroutine
	co := New("self-aware", func(c *Coroutine) error {
		seen = Current()
		return nil
	})
	require.NoError(t, co.Resume())
	require.Same(t, co, seen)
	require.Nil(t, Current())
}

func TestCoroutine_StarterAndLast(t *testing.T) {
	var starter, last *Coroutine
	var child *Coroutine
	child = New("child", func(c *Coroutine) error {
		starter = c.Starter()
		last = c.Last()
		return nil
	})
	parent := New("parent", func(c *Coroutine) error {
		return child.Resume()
	})
	require.NoError(t, parent.Resume())
	require.Same(t, parent, starter)
	require.Same(t, parent, last)
}

func TestCoroutine_StackExhaustedAlwaysFalse(t *testing.T) {
	co := New("n", func(c *Coroutine) error { return nil })
	require.False(t, co.StackExhausted())
}

func TestRegisterSwitchHook(t *testing.T) {
	var events []SwitchEvent
	unregister := RegisterSwitchHook(func(event SwitchEvent, c *Coroutine) {
		events = append(events, event)
	})
	defer unregister()

	co := New("hooked", func(c *Coroutine) error {
		c.Suspend()
		return nil
	})
	require.NoError(t, co.Resume())
	require.NoError(t, co.Resume())
	require.Equal(t, []SwitchEvent{HookResume, HookSuspend, HookResume, HookSuspend}, events)
}
