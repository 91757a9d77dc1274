package executor

import (
	"errors"
	"fmt"
)

// ErrEmptyPipeline is returned when executing a nil chain.
var ErrEmptyPipeline = errors.New("executor: empty pipeline")

// SpawnError wraps the first failure while spawning a pipeline and names the
// failing stage.  Stages spawned before the failure are left running.
type SpawnError struct {
	// Stage is the zero-based index of the failed stage, head first
	Stage int

	// Command is the failed stage's command name
	Command string

	Err error
}

func (e *SpawnError) Error() string {
	return fmt.Sprintf("failed to spawn stage %d (%s): %v", e.Stage, e.Command, e.Err)
}

func (e *SpawnError) Unwrap() error {
	return e.Err
}
