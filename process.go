package uxx

import (
	"fmt"
	"os"
	"sync/atomic"
)

// Teardown is called once by Exit and Abort before the process actually
// exits, so an embedder can release whatever Clusters and Processors it
// created. It defaults to a no-op: unlike the original, which owns a
// single implicit process-wide cluster it can always find and drain,
// this kernel lets a program create any number of independent Clusters
// with no global registry linking them together, so there is nothing
// to discover automatically. Set this to
// your own cleanup before calling Exit/Abort if you need one.
var Teardown func() = func() {}

var aborting atomic.Bool

// Exit is the embedding API's exit(code): it runs Teardown, then calls
// os.Exit(code). Unlike Abort, it implies nothing went wrong.
func Exit(code int) {
	Teardown()
	os.Exit(code)
}

// Abort is the embedding API's abort(fmt, args...): a programming-error
// exit. It identifies the calling task/coroutine (falling back to
// "<no task>" outside any Task's Main), logs the formatted message at
// Emergency level, runs Teardown, and calls os.Exit(1). Reentrancy-safe
// per spec.md §7: the first caller to reach Abort proceeds: every
// later caller - including one racing in from another goroutine while
// the first is still running Teardown - parks forever instead of
// running Teardown twice or producing interleaved diagnostics.
func Abort(format string, args ...any) {
	if !aborting.CompareAndSwap(false, true) {
		select {} // a second caller never returns; the first is already exiting the process
	}
	msg := fmt.Sprintf(format, args...)
	entry := Log.Emerg()
	if t := ThisTask(); t != nil {
		entry = entry.Str("task", t.Name()).Interface("task_ptr", t)
	} else {
		entry = entry.Str("task", "<no task>")
	}
	entry.Log(msg)
	Teardown()
	os.Exit(1)
}
