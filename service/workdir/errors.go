package workdir

import "errors"

var (
	// ErrStackEmpty is returned when popping or swapping with no saved
	// directories.
	ErrStackEmpty = errors.New("workdir: directory stack is empty")

	// ErrNotDirectory is returned when a change target exists but is not a
	// directory.
	ErrNotDirectory = errors.New("workdir: not a directory")
)
