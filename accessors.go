package uxx

import (
	"github.com/joeycumines/uxx/cluster"
	"github.com/joeycumines/uxx/coroutine"
	"github.com/joeycumines/uxx/task"
)

// ThisTask is uThisTask(): the Task executing on the calling goroutine,
// or nil outside any Task's Main.
func ThisTask() *task.Task { return task.Current() }

// ThisCoroutine is uThisCoroutine(): the Coroutine executing on the
// calling goroutine, or nil outside any Coroutine's Main. Every Task is
// also a Coroutine, so inside a Task's Main this returns the same
// object as ThisTask, viewed through its embedded *coroutine.Coroutine.
func ThisCoroutine() *coroutine.Coroutine { return coroutine.Current() }

// ThisCluster is uThisCluster(): the Cluster the calling goroutine's
// Task is bound to, or nil outside any Task's Main.
func ThisCluster() *cluster.Cluster {
	if t := ThisTask(); t != nil {
		return t.Cluster()
	}
	return nil
}

// ThisProcessor is uThisProcessor(): the Processor currently running
// the calling goroutine's Task, or nil if the calling goroutine is not
// a Task's Main actively executing on one (e.g. it has yielded control
// to a nested Resume without itself being resumed again - see
// task.Task.Processor's own doc comment for when this is meaningful).
func ThisProcessor() *cluster.Processor {
	if t := ThisTask(); t != nil {
		return t.Processor()
	}
	return nil
}
