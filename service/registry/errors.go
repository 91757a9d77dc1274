package registry

import "errors"

var (
	// ErrNotFound is returned when a command name resolves to nothing, in
	// the registry or on the system PATH.
	ErrNotFound = errors.New("registry: command not found")

	// ErrAliasLoop is returned when alias resolution exceeds the maximum
	// chain depth.
	ErrAliasLoop = errors.New("registry: alias loop")
)
