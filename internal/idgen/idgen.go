package idgen

import "github.com/google/uuid"

// NewFunc produces the identifiers handed out by New; tests may stub it.
var NewFunc = func() string { return uuid.New().String() }

// New returns a new globally unique identifier as string.
func New() string { return NewFunc() }
