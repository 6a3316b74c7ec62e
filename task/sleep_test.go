package task

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/joeycumines/uxx/cluster"
)

func TestSleep_ElapsesAtLeastTheRequestedDuration(t *testing.T) {
	c := cluster.New(nil)
	defer c.Shutdown()
	c.StartProcessor()

	const d = 50 * time.Millisecond
	start := make(chan time.Time, 1)
	woke := make(chan time.Time, 1)
	Start(c, "sleeper", func(self *Task) error {
		start <- time.Now()
		Sleep(self, d)
		woke <- time.Now()
		return nil
	})

	var began, ended time.Time
	select {
	case began = <-start:
	case <-time.After(time.Second):
		t.Fatal("sleeper never started")
	}
	select {
	case ended = <-woke:
	case <-time.After(time.Second):
		t.Fatal("sleeper never woke")
	}
	require.GreaterOrEqual(t, ended.Sub(began), d)
}

func TestSleep_DoesNotBlockOtherTasksOnTheCluster(t *testing.T) {
	c := cluster.New(nil)
	defer c.Shutdown()
	c.StartProcessor()
	c.StartProcessor()

	done := make(chan struct{})
	Start(c, "sleeper", func(self *Task) error {
		Sleep(self, time.Second)
		return nil
	})

	Start(c, "runner", func(self *Task) error {
		close(done)
		return nil
	})

	select {
	case <-done:
	case <-time.After(200 * time.Millisecond):
		t.Fatal("a sleeping task starved an unrelated ready task on the same cluster")
	}
}
