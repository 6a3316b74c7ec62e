package exception

import (
	"github.com/joeycumines/uxx/internal/container"
	"github.com/joeycumines/uxx/internal/spinlock"
)

// Mask is a caller-defined bitset of exception "kinds" a task can
// selectively enable or disable asynchronous delivery for, matching
// spec.md §4.6's EnableDeliver(mask)/DisableDeliver(mask).
type Mask uint64

// MaskAll matches every kind; a task that never calls EnableDeliver or
// DisableDeliver starts fully disabled (mask 0), per spec.md §4.6.
const MaskAll Mask = ^Mask(0)

type asyncMessage struct {
	container.Link[*asyncMessage]
	kind       Mask
	err        error
	resumption bool
}

// Mailbox is a task's inbox for asynchronous exceptions posted by other
// tasks via ResumeAt/ThrowAt. It is drained only by the owning task,
// via Poll, and only for messages whose kind intersects the currently
// enabled mask.
type Mailbox struct {
	guard    spinlock.SpinLock
	messages container.DList[*asyncMessage]
	enable   []Mask
}

// NewMailbox returns an empty Mailbox with delivery fully disabled.
func NewMailbox() *Mailbox {
	m := &Mailbox{enable: []Mask{0}}
	m.guard.Class = spinlock.Unordered
	return m
}

// ThrowAt posts a terminating exception to the mailbox, to be delivered
// as a Throw the next time the owning task polls with kind enabled.
func (m *Mailbox) ThrowAt(kind Mask, err error) {
	m.guard.Lock()
	m.messages.PushBack(&asyncMessage{kind: kind, err: err, resumption: false})
	m.guard.Unlock()
}

// ResumeAt posts a resumption exception to the mailbox, to be delivered
// via ResumeOrThrow the next time the owning task polls with kind
// enabled.
func (m *Mailbox) ResumeAt(kind Mask, err error) {
	m.guard.Lock()
	m.messages.PushBack(&asyncMessage{kind: kind, err: err, resumption: true})
	m.guard.Unlock()
}

// EnableDeliver pushes a new enabled-kind set, adding mask to whatever
// is currently enabled. The returned restore function must be called
// to pop back to the previous set, normally via defer.
func (m *Mailbox) EnableDeliver(mask Mask) (restore func()) {
	return m.push(func(top Mask) Mask { return top | mask })
}

// DisableDeliver pushes a new enabled-kind set, removing mask from
// whatever is currently enabled. The returned restore function must be
// called to pop back to the previous set, normally via defer.
func (m *Mailbox) DisableDeliver(mask Mask) (restore func()) {
	return m.push(func(top Mask) Mask { return top &^ mask })
}

func (m *Mailbox) push(transform func(top Mask) Mask) func() {
	m.guard.Lock()
	top := m.enable[len(m.enable)-1]
	m.enable = append(m.enable, transform(top))
	m.guard.Unlock()
	return func() {
		m.guard.Lock()
		m.enable = m.enable[:len(m.enable)-1]
		m.guard.Unlock()
	}
}

// Poll delivers every currently pending, currently-enabled message in
// FIFO order, applying ResumeOrThrow for resumption messages and Throw
// for termination messages. A Throw unwinds out of Poll itself, so any
// messages behind it stay queued for a later poll. It must be called by the owning task's own
// goroutine: delivery (panicking, or running resumption handlers) only
// makes sense on the goroutine the message is meant to interrupt.
func (m *Mailbox) Poll() {
	for {
		msg := m.takeOne()
		if msg == nil {
			return
		}
		if msg.resumption {
			ResumeOrThrow(msg.err)
		} else {
			Throw(msg.err)
		}
	}
}

func (m *Mailbox) takeOne() *asyncMessage {
	m.guard.Lock()
	defer m.guard.Unlock()
	enabled := m.enable[len(m.enable)-1]
	var found *asyncMessage
	m.messages.Each(func(msg *asyncMessage) {
		if found == nil && msg.kind&enabled != 0 {
			found = msg
		}
	})
	if found != nil {
		m.messages.Remove(found)
	}
	return found
}

// Pending reports whether any deliverable (enabled) message currently
// sits in the mailbox, without removing it.
func (m *Mailbox) Pending() bool {
	m.guard.Lock()
	defer m.guard.Unlock()
	enabled := m.enable[len(m.enable)-1]
	pending := false
	m.messages.Each(func(msg *asyncMessage) {
		if msg.kind&enabled != 0 {
			pending = true
		}
	})
	return pending
}
