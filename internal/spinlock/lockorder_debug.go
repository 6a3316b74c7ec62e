//go:build uxx_lockorder

package spinlock

import (
	"fmt"

	"github.com/joeycumines/uxx/internal/goroutinelocal"
)

// orderKey identifies this package's entry in the per-goroutine store.
// The checker must distinguish "goroutine A holds cluster then tries
// processor" from "goroutine B independently holds processor" - a
// package-global stack would conflate unrelated goroutines.
var orderKey = struct{ _ int }{}

type orderStack struct {
	classes []Class
}

func loadStack() *orderStack {
	if v, ok := goroutinelocal.Get(orderKey); ok {
		return v.(*orderStack)
	}
	return &orderStack{}
}

func storeStack(s *orderStack) {
	goroutinelocal.Set(orderKey, s)
}

// Enter records the acquisition of a lock of the given class on the
// calling goroutine, panicking if it violates the documented partial
// order (a class must be strictly greater than the current top).
func Enter(class Class) {
	if class == Unordered {
		return
	}
	s := loadStack()
	if n := len(s.classes); n > 0 && class <= s.classes[n-1] {
		panic(fmt.Sprintf("spinlock: lock order violation: acquiring class %d while holding class %d", class, s.classes[n-1]))
	}
	s.classes = append(s.classes, class)
	storeStack(s)
}

// Leave pops the most recently acquired class of the given value from
// the calling goroutine's stack. Leave must be called in strict LIFO
// order with Enter, matching how the locks themselves must unwind.
func Leave(class Class) {
	if class == Unordered {
		return
	}
	s := loadStack()
	n := len(s.classes)
	if n == 0 || s.classes[n-1] != class {
		panic(fmt.Sprintf("spinlock: lock order violation: releasing class %d out of order", class))
	}
	s.classes = s.classes[:n-1]
	storeStack(s)
}
