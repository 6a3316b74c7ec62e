package exception

import "github.com/joeycumines/uxx/internal/goroutinelocal"

// ResumptionHandler attempts to handle e without unwinding the raiser's
// stack. It returns true if it handled e.
type ResumptionHandler func(e error) (handled bool)

type handlerFrame struct {
	handler ResumptionHandler
	active  bool
}

var handlerStackKey = struct{ _ int }{}

func loadHandlers() []*handlerFrame {
	if v, ok := goroutinelocal.Get(handlerStackKey); ok {
		return v.([]*handlerFrame)
	}
	return nil
}

func storeHandlers(s []*handlerFrame) {
	goroutinelocal.Set(handlerStackKey, s)
}

// PushResumptionHandler installs h as the innermost resumption handler
// on the calling goroutine. The returned pop function must be called,
// in strict LIFO order with every other PushResumptionHandler call on
// the same goroutine, to remove it again - normally via defer right
// after pushing.
func PushResumptionHandler(h ResumptionHandler) (pop func()) {
	frame := &handlerFrame{handler: h}
	storeHandlers(append(loadHandlers(), frame))
	return func() {
		s := loadHandlers()
		n := len(s)
		if n == 0 || s[n-1] != frame {
			panic("exception: resumption handler popped out of order")
		}
		storeHandlers(s[:n-1])
	}
}

// Resume attempts to handle e by walking the calling goroutine's
// resumption handler stack innermost-to-outermost. A handler currently
// executing (including one further out on the same stack, mid-Resume)
// is skipped so raising from within a handler can never recurse into
// itself. Resume returns whether some handler accepted e.
func Resume(e error) bool {
	s := loadHandlers()
	for i := len(s) - 1; i >= 0; i-- {
		f := s[i]
		if f.active {
			continue
		}
		f.active = true
		handled := f.handler(e)
		f.active = false
		if handled {
			return true
		}
	}
	return false
}

// ResumeOrThrow calls Resume, and Throws e if nothing handled it.
func ResumeOrThrow(e error) {
	if !Resume(e) {
		Throw(e)
	}
}
