package accept

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/joeycumines/uxx/cluster"
	"github.com/joeycumines/uxx/monitor"
	"github.com/joeycumines/uxx/task"
)

const memberX = 1

func TestStart_AdmitsAlreadyQueuedCaller(t *testing.T) {
	c := cluster.New(nil)
	defer c.Shutdown()
	c.StartProcessor()
	c.StartProcessor()

	s := monitor.NewSerial()
	callerEntered := make(chan struct{})
	callerDone := make(chan struct{})
	acceptDone := make(chan Result, 1)

	task.Start(c, "owner", func(self *task.Task) error {
		require.NoError(t, s.Enter(self))
		require.NoError(t, s.Enter(self)) // held twice, so the Exit below keeps s
		close(callerEntered)
		<-callerDone // let the caller queue up behind us first
		s.Exit(self)

		res, err := Start(s, self, Table{Entries: []Entry{{MemberID: memberX}}})
		require.NoError(t, err)
		acceptDone <- res
		s.Exit(self)
		return nil
	})

	<-callerEntered
	task.Start(c, "caller", func(self *task.Task) error {
		require.NoError(t, s.EnterMember(self, memberX))
		s.Exit(self)
		return nil
	})
	time.Sleep(20 * time.Millisecond) // let caller queue on s behind owner
	close(callerDone)

	select {
	case res := <-acceptDone:
		require.Equal(t, memberX, res.MemberID)
		require.False(t, res.Else)
		require.False(t, res.TimedOut)
	case <-time.After(time.Second):
		t.Fatal("accept never admitted the queued caller")
	}
}

func TestStart_ElseWhenNothingQueued(t *testing.T) {
	c := cluster.New(nil)
	defer c.Shutdown()
	c.StartProcessor()

	s := monitor.NewSerial()
	done := make(chan Result, 1)
	task.Start(c, "owner", func(self *task.Task) error {
		require.NoError(t, s.Enter(self))
		res, err := Start(s, self, Table{
			Entries: []Entry{{MemberID: memberX}},
			HasElse: true,
		})
		require.NoError(t, err)
		done <- res
		s.Exit(self)
		return nil
	})

	select {
	case res := <-done:
		require.True(t, res.Else)
	case <-time.After(time.Second):
		t.Fatal("accept never took the else branch")
	}
}

func TestStart_NoClauseNoElseNoTimeoutIsError(t *testing.T) {
	c := cluster.New(nil)
	defer c.Shutdown()
	c.StartProcessor()

	s := monitor.NewSerial()
	errCh := make(chan error, 1)
	task.Start(c, "owner", func(self *task.Task) error {
		require.NoError(t, s.Enter(self))
		_, err := Start(s, self, Table{
			Entries: []Entry{{MemberID: memberX, Guard: func() bool { return false }}},
		})
		errCh <- err
		s.Exit(self)
		return nil
	})

	select {
	case err := <-errCh:
		require.ErrorIs(t, err, ErrNoAcceptableClause)
	case <-time.After(time.Second):
		t.Fatal("accept never returned")
	}
}

func TestStart_WaitsThenAdmitsLateCaller(t *testing.T) {
	c := cluster.New(nil)
	defer c.Shutdown()
	c.StartProcessor()
	c.StartProcessor()

	s := monitor.NewSerial()
	acceptDone := make(chan Result, 1)
	task.Start(c, "owner", func(self *task.Task) error {
		require.NoError(t, s.Enter(self))
		res, err := Start(s, self, Table{
			Entries: []Entry{{MemberID: memberX}},
			Timeout: time.Now().Add(time.Second),
		})
		require.NoError(t, err)
		acceptDone <- res
		s.Exit(self)
		return nil
	})

	time.Sleep(20 * time.Millisecond) // let owner start waiting in accept first
	task.Start(c, "caller", func(self *task.Task) error {
		require.NoError(t, s.EnterMember(self, memberX))
		s.Exit(self)
		return nil
	})

	select {
	case res := <-acceptDone:
		require.Equal(t, memberX, res.MemberID)
		require.False(t, res.TimedOut)
	case <-time.After(2 * time.Second):
		t.Fatal("accept never admitted the late caller")
	}
}

func TestStart_TimesOutWithNoCaller(t *testing.T) {
	c := cluster.New(nil)
	defer c.Shutdown()
	c.StartProcessor()

	s := monitor.NewSerial()
	acceptDone := make(chan Result, 1)
	start := time.Now()
	task.Start(c, "owner", func(self *task.Task) error {
		require.NoError(t, s.Enter(self))
		res, err := Start(s, self, Table{
			Entries: []Entry{{MemberID: memberX}},
			Timeout: time.Now().Add(50 * time.Millisecond),
		})
		require.NoError(t, err)
		acceptDone <- res
		s.Exit(self)
		return nil
	})

	select {
	case res := <-acceptDone:
		require.True(t, res.TimedOut)
		require.GreaterOrEqual(t, time.Since(start), 50*time.Millisecond)
	case <-time.After(2 * time.Second):
		t.Fatal("accept never timed out")
	}
}

func TestStart_PureTimeoutWaitWhenAllGuardsFalse(t *testing.T) {
	c := cluster.New(nil)
	defer c.Shutdown()
	c.StartProcessor()

	s := monitor.NewSerial()
	acceptDone := make(chan Result, 1)
	task.Start(c, "owner", func(self *task.Task) error {
		require.NoError(t, s.Enter(self))
		res, err := Start(s, self, Table{
			Entries: []Entry{{MemberID: memberX, Guard: func() bool { return false }}},
			Timeout: time.Now().Add(30 * time.Millisecond),
		})
		require.NoError(t, err)
		acceptDone <- res
		s.Exit(self)
		return nil
	})

	select {
	case res := <-acceptDone:
		require.True(t, res.TimedOut)
	case <-time.After(time.Second):
		t.Fatal("pure timeout accept never returned")
	}
}
