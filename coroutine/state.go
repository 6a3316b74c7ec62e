package coroutine

import "sync/atomic"

// State is a coroutine's lifecycle state.
type State uint32

const (
	// Start is the state of a coroutine that has never been resumed.
	Start State = iota
	// Inactive is the state of a coroutine that has suspended and is
	// waiting to be resumed again.
	Inactive
	// Active is the state of a coroutine currently running (on some
	// goroutine, blocked in a channel rendezvous from its resumer's
	// point of view, but executing user code from its own).
	Active
	// Halt is the terminal state: the coroutine's main function has
	// returned and it can never be resumed again.
	Halt
)

func (s State) String() string {
	switch s {
	case Start:
		return "Start"
	case Inactive:
		return "Inactive"
	case Active:
		return "Active"
	case Halt:
		return "Halt"
	default:
		return "Unknown"
	}
}

// fastState is a lock-free State holder, the same cache-line-padded
// pure-CAS pattern as the teacher's eventloop.FastState.
type fastState struct { // betteralign:ignore
	_ [64]byte
	v atomic.Uint32
	_ [60]byte
}

func (s *fastState) load() State            { return State(s.v.Load()) }
func (s *fastState) store(state State)      { s.v.Store(uint32(state)) }
func (s *fastState) tryTransition(from, to State) bool {
	return s.v.CompareAndSwap(uint32(from), uint32(to))
}
