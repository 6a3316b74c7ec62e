package monitor

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/joeycumines/uxx/cluster"
	"github.com/joeycumines/uxx/task"
)

func TestSerial_TryAdmitMatchesQueuedMember(t *testing.T) {
	c := cluster.New(nil)
	defer c.Shutdown()
	c.StartProcessor()
	c.StartProcessor()

	s := NewSerial()
	ownerEntered := make(chan struct{})
	callerQueued := make(chan struct{})
	admitted := make(chan int, 1)

	task.Start(c, "owner", func(self *task.Task) error {
		require.NoError(t, s.Enter(self))
		close(ownerEntered)
		<-callerQueued
		member, ok, err := s.TryAdmit(self, map[int]bool{7: true})
		require.NoError(t, err)
		require.True(t, ok)
		admitted <- member
		s.Exit(self)
		return nil
	})

	<-ownerEntered
	task.Start(c, "caller", func(self *task.Task) error {
		require.NoError(t, s.EnterMember(self, 7))
		s.Exit(self)
		return nil
	})
	time.Sleep(20 * time.Millisecond) // let caller queue on s behind owner
	close(callerQueued)

	select {
	case member := <-admitted:
		require.Equal(t, 7, member)
	case <-time.After(time.Second):
		t.Fatal("TryAdmit never matched the queued caller")
	}
}

func TestSerial_TryAdmitReturnsFalseWhenNothingMatches(t *testing.T) {
	c := cluster.New(nil)
	defer c.Shutdown()
	c.StartProcessor()

	s := NewSerial()
	done := make(chan struct{})
	task.Start(c, "owner", func(self *task.Task) error {
		require.NoError(t, s.Enter(self))
		_, ok, err := s.TryAdmit(self, map[int]bool{7: true})
		require.NoError(t, err)
		require.False(t, ok)
		s.Exit(self)
		close(done)
		return nil
	})

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("owner task never finished")
	}
}

func TestSerial_WaitAdmitsLaterMatchingCall(t *testing.T) {
	c := cluster.New(nil)
	defer c.Shutdown()
	c.StartProcessor()
	c.StartProcessor()

	s := NewSerial()
	ownerWaiting := make(chan struct{})
	result := make(chan int, 1)

	task.Start(c, "owner", func(self *task.Task) error {
		require.NoError(t, s.Enter(self))
		close(ownerWaiting)
		member, timedOut, err := s.Wait(self, map[int]bool{7: true}, time.Time{})
		require.NoError(t, err)
		require.False(t, timedOut)
		result <- member
		s.Exit(self)
		return nil
	})

	<-ownerWaiting
	time.Sleep(20 * time.Millisecond) // let owner actually register as waitingAcceptor
	task.Start(c, "caller", func(self *task.Task) error {
		require.NoError(t, s.EnterMember(self, 7))
		s.Exit(self)
		return nil
	})

	select {
	case member := <-result:
		require.Equal(t, 7, member)
	case <-time.After(time.Second):
		t.Fatal("Wait never admitted the later matching call")
	}
}

func TestSerial_WaitOwnershipNeverReleasedToUnrelatedCaller(t *testing.T) {
	c := cluster.New(nil)
	defer c.Shutdown()
	c.StartProcessor()
	c.StartProcessor()

	s := NewSerial()
	ownerWaiting := make(chan struct{})
	result := make(chan int, 1)

	task.Start(c, "owner", func(self *task.Task) error {
		require.NoError(t, s.Enter(self))
		close(ownerWaiting)
		member, timedOut, err := s.Wait(self, map[int]bool{7: true}, time.Time{})
		require.NoError(t, err)
		require.False(t, timedOut)
		result <- member
		s.Exit(self)
		return nil
	})

	<-ownerWaiting
	// A call to a member NOT in the accept set must queue normally behind
	// the waiting owner, never jump in and steal the serial. It only
	// proceeds once the matching "caller" below finishes the accept and
	// exits, handing the serial on down the normal FIFO entry queue.
	otherRan := make(chan struct{})
	task.Start(c, "other", func(self *task.Task) error {
		require.NoError(t, s.EnterMember(self, 99))
		s.Exit(self)
		close(otherRan)
		return nil
	})
	time.Sleep(20 * time.Millisecond) // let "other" queue up behind the waiting owner

	task.Start(c, "caller", func(self *task.Task) error {
		require.NoError(t, s.EnterMember(self, 7))
		s.Exit(self)
		return nil
	})

	select {
	case member := <-result:
		require.Equal(t, 7, member)
	case <-time.After(time.Second):
		t.Fatal("Wait never admitted the matching caller")
	}
	select {
	case <-otherRan:
	case <-time.After(time.Second):
		t.Fatal("queued non-matching caller was never eventually served")
	}
}

func TestSerial_WaitTimesOutAndCancelsTimer(t *testing.T) {
	c := cluster.New(nil)
	defer c.Shutdown()
	c.StartProcessor()

	s := NewSerial()
	result := make(chan bool, 1)
	start := time.Now()

	task.Start(c, "owner", func(self *task.Task) error {
		require.NoError(t, s.Enter(self))
		_, timedOut, err := s.Wait(self, map[int]bool{7: true}, time.Now().Add(40*time.Millisecond))
		require.NoError(t, err)
		result <- timedOut
		s.Exit(self)
		return nil
	})

	select {
	case timedOut := <-result:
		require.True(t, timedOut)
		require.GreaterOrEqual(t, time.Since(start), 40*time.Millisecond)
	case <-time.After(time.Second):
		t.Fatal("Wait never timed out")
	}
}

func TestSerial_CloseWakesPendingAcceptor(t *testing.T) {
	c := cluster.New(nil)
	defer c.Shutdown()
	c.StartProcessor()

	s := NewSerial()
	ownerWaiting := make(chan struct{})
	errCh := make(chan error, 1)

	task.Start(c, "owner", func(self *task.Task) error {
		require.NoError(t, s.Enter(self))
		close(ownerWaiting)
		_, _, err := s.Wait(self, map[int]bool{7: true}, time.Time{})
		errCh <- err
		return nil
	})

	<-ownerWaiting
	time.Sleep(20 * time.Millisecond)
	s.Close()

	select {
	case err := <-errCh:
		require.ErrorIs(t, err, ErrRendezvousFailure)
	case <-time.After(time.Second):
		t.Fatal("Close never woke the pending acceptor")
	}
}
