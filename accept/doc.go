// Package accept implements spec.md §4.5's accept selector: the
// compiled table of (_When-guarded) _Accept clauses plus an optional
// _Timeout/_Else that a translated _Select statement evaluates against
// a monitor's entry queue. The actual FIFO scan, handoff, and
// timer-cancel-atomically-with-table machinery lives on
// uxx/monitor.Serial (TryAdmit/Wait), since it needs the serial's own
// lock and queues; this package only compiles the table and interprets
// the scan's outcome the way spec.md §6's embedding API describes
// (acceptStart(table, timeoutAbs, hasElse) -> index).
package accept
