// Package container implements the intrusive collections the kernel builds
// every queue on: a doubly-linked list (DList) for FIFO queues that need
// O(1) arbitrary removal (entry queues, condition queues, cluster task
// sets), and a singly-linked LIFO stack (SList) for the acceptor/signalled
// stack a monitor uses on exit.
//
// Nodes are intrusive: the list never allocates a wrapper, it links the
// record the caller already owns. A record joins a list by implementing
// the DNode/SNode method set (typically via an embedded Link/SLink field),
// and a given record may only be linked into one DList and one SList at a
// time - the linkage fields are exclusive, exactly as a real linked node
// would be in C.
package container
