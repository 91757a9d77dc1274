// Package subshell provides programmatic construction and execution of
// process pipelines.
//
// Pipelines are immutable filter chains composed with Pipe and bound to
// files, buffers, literals or storage URLs through redirection helpers.  The
// executor wires the whole stream topology before any process starts, spawns
// every stage concurrently and tracks each one in a job table that supports
// waiting, signal delivery and pruning:
//
//	sh, _ := subshell.New()
//	chain, _ := sh.Command("cat", "/var/log/syslog")
//	chain, _ = chain.Pipe(pipeline.New("grep", "error"))
//	chain, _ = chain.RedirectOutput("errors.txt")
//	statuses, _ := sh.Run(ctx, chain)
//
// The shell also keeps a virtual current directory with pushd/popd semantics
// that never touches the process working directory, so independent shells can
// run side by side in one process.  For the lower-level building blocks see
// the model/pipeline, runtime/job and service sub-packages.
package subshell
