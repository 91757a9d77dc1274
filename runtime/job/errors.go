package job

import "errors"

// Common job errors.  Sentinel variables allow callers to detect conditions
// via errors.Is instead of brittle string comparisons.

var (
	// ErrNotFound is returned when the requested job is not registered in
	// the table.
	ErrNotFound = errors.New("job: not found")

	// ErrUnknownSignal indicates that a symbolic or numeric signal name
	// could not be resolved.
	ErrUnknownSignal = errors.New("job: unknown signal")

	// ErrNoProcess is returned when signalling a job that has no backing OS
	// process, such as an in-process handler stage.
	ErrNoProcess = errors.New("job: no backing process")
)
