package cluster

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

type countingTask struct {
	mu      sync.Mutex
	runs    int
	maxRuns int
	done    chan struct{}
}

func (t *countingTask) RunOnProcessor(p *Processor) bool {
	t.mu.Lock()
	t.runs++
	runs := t.runs
	t.mu.Unlock()
	if runs >= t.maxRuns {
		close(t.done)
		return false
	}
	return true
}

func TestCluster_RunsReadyTaskToCompletion(t *testing.T) {
	c := New(nil)
	defer c.Shutdown()
	p := c.StartProcessor()
	require.NotNil(t, p)

	task := &countingTask{maxRuns: 5, done: make(chan struct{})}
	c.MakeReady(task)

	select {
	case <-task.done:
	case <-time.After(time.Second):
		t.Fatal("task never completed")
	}
	task.mu.Lock()
	defer task.mu.Unlock()
	require.Equal(t, 5, task.runs)
}

func TestCluster_WakesIdleProcessor(t *testing.T) {
	c := New(nil)
	defer c.Shutdown()
	c.StartProcessor()

	time.Sleep(10 * time.Millisecond) // let the processor park idle

	task := &countingTask{maxRuns: 1, done: make(chan struct{})}
	c.MakeReady(task)

	select {
	case <-task.done:
	case <-time.After(time.Second):
		t.Fatal("idle processor never woke")
	}
}

func TestFIFOPolicy_OrderPreserved(t *testing.T) {
	var p FIFOPolicy
	require.True(t, p.Empty())
	a, b := &countingTask{}, &countingTask{}
	p.Add(a)
	p.Add(b)

	first, ok := p.Drop()
	require.True(t, ok)
	require.Same(t, a, first)

	second, ok := p.Drop()
	require.True(t, ok)
	require.Same(t, b, second)

	require.True(t, p.Empty())
}
