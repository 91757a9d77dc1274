// Package job tracks spawned pipeline stages as cancellable jobs.
//
// A Job wraps one stage of an executed pipeline, either an OS process or an
// in-process handler running on its own goroutine.  Each job owns a reaper
// goroutine that collects the final exit status, runs any registered
// finalizers (flushing output endpoints) and then marks the job terminal, so
// a completed Wait always implies fully materialised sinks.
//
// The Table is a concurrency-safe registry of jobs keyed by opaque id.  It
// supports enumeration in registration order and symbolic signal delivery;
// signalling an already-exited job reports a delivery failure instead of
// raising, mirroring kill(2) semantics.
package job
