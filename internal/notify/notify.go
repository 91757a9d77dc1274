// Package notify implements the line-oriented diagnostic logger shared by
// every component of the module. Output is serialised through a single
// process-wide lock so that lines emitted by concurrently running pipelines
// never interleave. The logger is strictly an observer; no component may
// consult it for control flow.
package notify

import (
	"fmt"
	"io"
	"os"
	"sync"
)

var (
	mu      sync.Mutex
	out     io.Writer = os.Stderr
	debug   bool
	verbose bool
)

// Configure sets the process-wide debug and verbose toggles. It is intended
// to be called once at startup, before any pipeline runs; debug implies
// verbose.
func Configure(debugOn, verboseOn bool) {
	mu.Lock()
	defer mu.Unlock()
	debug = debugOn
	verbose = verboseOn || debugOn
}

// SetOutput redirects diagnostic output. Passing nil restores stderr.
func SetOutput(w io.Writer) {
	mu.Lock()
	defer mu.Unlock()
	if w == nil {
		w = os.Stderr
	}
	out = w
}

// Verbose reports whether verbose diagnostics are enabled.
func Verbose() bool {
	mu.Lock()
	defer mu.Unlock()
	return verbose
}

// Notify writes a single diagnostic line. Lines flagged verboseOnly are
// dropped unless verbose mode is on.
func Notify(message string, verboseOnly bool) {
	mu.Lock()
	defer mu.Unlock()
	if verboseOnly && !verbose {
		return
	}
	_, _ = fmt.Fprintln(out, "subshell: "+message)
}

// Debugf writes a formatted line only when debug mode is on.
func Debugf(format string, args ...interface{}) {
	mu.Lock()
	defer mu.Unlock()
	if !debug {
		return
	}
	_, _ = fmt.Fprintf(out, "subshell: "+format+"\n", args...)
}
