package job

import (
	"fmt"
	"strconv"
	"syscall"

	"golang.org/x/sys/unix"
)

// State represents the lifecycle state of a job
type State string

const (
	StateRunning  State = "running"
	StateExited   State = "exited"
	StateSignaled State = "signaled"
	// StateUnknown covers the case where the wait itself failed and no exit
	// information could be collected.
	StateUnknown State = "unknown"
)

// Terminal reports whether the state is final.
func (s State) Terminal() bool {
	return s == StateExited || s == StateSignaled || s == StateUnknown
}

// Status is a point-in-time snapshot of a job's lifecycle.  State transitions
// monotonically from running to exactly one terminal state and never changes
// afterwards.
type Status struct {
	State State `json:"state"`

	// ExitCode holds the process exit code when State is exited
	ExitCode int `json:"exitCode,omitempty"`

	// Signal holds the terminating signal when State is signaled
	Signal syscall.Signal `json:"signal,omitempty"`

	// Err carries a handler or finalizer failure, never set for a plain
	// non-zero exit
	Err error `json:"-"`
}

// Running reports whether the job has not reached a terminal state yet.
func (s Status) Running() bool {
	return s.State == StateRunning
}

// Success reports a clean zero exit without handler or finalizer failures.
func (s Status) Success() bool {
	return s.State == StateExited && s.ExitCode == 0 && s.Err == nil
}

// String renders the canonical status form: running, exited(0),
// signaled(SIGTERM) or unknown.
func (s Status) String() string {
	switch s.State {
	case StateRunning:
		return "running"
	case StateExited:
		return fmt.Sprintf("exited(%d)", s.ExitCode)
	case StateSignaled:
		name := unix.SignalName(s.Signal)
		if name == "" {
			name = strconv.Itoa(int(s.Signal))
		}
		return fmt.Sprintf("signaled(%s)", name)
	}
	return "unknown"
}
