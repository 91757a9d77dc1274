package pipeline

import "errors"

// Composition errors. Sentinel variables let callers detect misuse via
// errors.Is instead of brittle string comparisons.

var (
	// ErrNilFilter is returned when a composition operand is nil.
	ErrNilFilter = errors.New("pipeline: filter is nil")

	// ErrInputBound is returned when a chain input is redirected twice, or
	// when a chain whose head already reads from a redirection is piped into.
	ErrInputBound = errors.New("pipeline: input already bound")

	// ErrOutputBound is returned when a chain output is redirected twice, or
	// when a chain that already writes to a redirection is piped onward.
	ErrOutputBound = errors.New("pipeline: output already bound")
)
