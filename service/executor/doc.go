// Package executor turns composed pipeline chains into running jobs.  It is
// the process controller: for each stage it resolves the command through the
// registry, wires standard streams across OS pipes allocated ahead of any
// spawn, binds the outer chain ends to files, URLs, strings or buffers,
// starts one OS process (or in-process handler goroutine) per stage in the
// working directory current at spawn time, and registers every stage in the
// job table in pipeline order.
//
// Failure of stage k leaves stages 0..k-1 running; their writes fail with a
// broken pipe once the parent releases the unconsumed pipe ends, which is the
// same visibility a shell gives partially failed pipelines.
package executor
