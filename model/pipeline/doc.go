// Package pipeline contains the in-memory representation of a command
// pipeline: a linear chain of Filter stages connected through their standard
// streams, with optional file, URL or in-memory buffer redirections on the
// outer ends.
//
// Composition is pure data assembly. Building a chain never opens a file,
// allocates a pipe or spawns a process; that happens only when the chain is
// handed to the executor service. Filters are immutable: every composition
// call returns a new chain and leaves its operands untouched, so a partially
// composed filter can safely be reused as the prefix of several pipelines.
package pipeline
