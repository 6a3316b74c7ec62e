// Package cluster implements the scheduling layer: a Cluster owning a
// ready queue and an event list, and Processors - dedicated,
// OS-thread-pinned goroutines that repeatedly pull a runnable task off
// the cluster and hand it control.
//
// Cluster deliberately does not import the task package: its ready
// queue holds the Runnable interface, implemented by *task.Task, so a
// task knows about its cluster but a cluster never needs to know about
// task's internals. This mirrors the teacher's eventloop.Loop - one
// dispatch loop pulling opaque work off a queue - generalized from one
// loop to N cooperating Processor loops sharing one Cluster's queues.
package cluster
