package event

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestList_FiresInOrder(t *testing.T) {
	l := NewList()
	defer l.Close()

	var mu sync.Mutex
	var order []int
	done := make(chan struct{})

	now := time.Now()
	l.Schedule(&Node{When: now.Add(30 * time.Millisecond), ExecuteLocked: func() {
		mu.Lock()
		order = append(order, 2)
		mu.Unlock()
		close(done)
	}})
	l.Schedule(&Node{When: now.Add(10 * time.Millisecond), ExecuteLocked: func() {
		mu.Lock()
		order = append(order, 1)
		mu.Unlock()
	}})

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("events never fired")
	}

	mu.Lock()
	defer mu.Unlock()
	require.Equal(t, []int{1, 2}, order)
}

func TestList_Cancel(t *testing.T) {
	l := NewList()
	defer l.Close()

	fired := make(chan struct{})
	n := &Node{When: time.Now().Add(20 * time.Millisecond), ExecuteLocked: func() { close(fired) }}
	l.Schedule(n)
	require.True(t, l.Cancel(n))
	require.False(t, l.Cancel(n))

	select {
	case <-fired:
		t.Fatal("canceled node fired")
	case <-time.After(60 * time.Millisecond):
	}
	require.Equal(t, 0, l.Len())
}

func TestClock_OffsetDoesNotAffectNow(t *testing.T) {
	var c Clock
	before := c.Now()
	c.SetOffset(time.Hour)
	after := c.Now()
	require.WithinDuration(t, before, after, time.Second)
	require.WithinDuration(t, c.Now().Add(time.Hour), c.GetTime(), time.Second)
}
