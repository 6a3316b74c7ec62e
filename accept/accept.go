package accept

import (
	"errors"
	"time"

	"github.com/joeycumines/uxx/monitor"
	"github.com/joeycumines/uxx/task"
)

// ErrNoAcceptableClause is returned when every clause's guard evaluates
// false and neither _Else nor _Timeout is present - a runtime error per
// spec.md §4.5, not a soft "nothing ready" return.
var ErrNoAcceptableClause = errors.New("accept: no enabled clause, and no _Else or _Timeout")

// DestructorMember is the reserved member ID for an accepted destructor
// call (_Accept(~T)), per spec.md §9.
const DestructorMember = 0

// Entry is one compiled _Accept clause: the mutex member it admits, and
// its _When guard (nil means unconditionally enabled).
type Entry struct {
	MemberID int
	Guard    func() bool
}

// Table is the compiled form of an _Accept/_Select statement: the
// clause list plus an optional _Timeout deadline and/or _Else branch.
type Table struct {
	Entries []Entry
	Timeout time.Time // zero value means no _Timeout
	HasElse bool
}

// Result is what Start dispatches on: Index selects which
// Entries clause fired (valid only when Else and TimedOut are both
// false), Else reports the _Else branch was taken, TimedOut reports the
// _Timeout branch was taken.
type Result struct {
	Index    int
	MemberID int
	Else     bool
	TimedOut bool
}

// Start is spec.md §6's acceptStart(table, timeoutAbs, hasElse): it
// evaluates every clause's guard, then admits the first currently
// queued caller (FIFO order) whose member is enabled, falls through to
// _Else if present and nothing currently matches, or blocks until a
// matching call arrives or table.Timeout passes. acceptor must be the
// serial's current owner.
func Start(s *monitor.Serial, acceptor *task.Task, table Table) (Result, error) {
	enabled := make(map[int]bool, len(table.Entries))
	index := make(map[int]int, len(table.Entries))
	anyEnabled := false
	for i, e := range table.Entries {
		if e.Guard == nil || e.Guard() {
			enabled[e.MemberID] = true
			index[e.MemberID] = i
			anyEnabled = true
		}
	}
	if !anyEnabled && !table.HasElse && table.Timeout.IsZero() {
		return Result{}, ErrNoAcceptableClause
	}

	member, ok, err := s.TryAdmit(acceptor, enabled)
	if err != nil {
		return Result{}, err
	}
	if ok {
		return Result{Index: index[member], MemberID: member}, nil
	}
	if table.HasElse {
		return Result{Else: true}, nil
	}

	// anyEnabled may be false here (all guards false, _Timeout present):
	// spec.md §4.5 calls this "a pure timeout wait" - enabled is then
	// empty, so no future EnterMember call can ever match it, and the
	// wait can only end via table.Timeout firing.
	member, timedOut, err := s.Wait(acceptor, enabled, table.Timeout)
	if err != nil {
		return Result{}, err
	}
	if timedOut {
		return Result{TimedOut: true}, nil
	}
	return Result{Index: index[member], MemberID: member}, nil
}
