package registry

import (
	"context"
	"io"
)

// Handler is an in-process command implementation.  It reads from stdin and
// writes to stdout like an external filter would; the context carries the
// working directory in-process commands resolve relative paths against.
type Handler func(ctx context.Context, stdin io.Reader, stdout io.Writer, args []string) error

// Command is one registry entry: an external command, an alias, or an
// in-process handler.
type Command struct {
	// Name is the registered name
	Name string `json:"name" yaml:"name"`

	// Path locates the executable, either absolute or resolved via PATH
	Path string `json:"path,omitempty" yaml:"path,omitempty"`

	// Target names the command this entry aliases
	Target string `json:"target,omitempty" yaml:"target,omitempty"`

	// Args are fixed arguments prepended to every invocation
	Args []string `json:"args,omitempty" yaml:"args,omitempty"`

	Handler Handler `json:"-" yaml:"-"`
}

// clone returns a copy whose Args no longer share a backing array with the
// registry's stored entry.
func (c *Command) clone() Command {
	ret := *c
	ret.Args = cloneArgs(c.Args)
	return ret
}

// IsAlias reports whether the entry forwards to another command.
func (c Command) IsAlias() bool {
	return c.Target != ""
}

// Resolved is the outcome of resolving a command name.
type Resolved struct {
	// Name is the name resolution started from
	Name string

	// Path is the located executable, empty for in-process commands
	Path string

	// Args are the fixed arguments accumulated along the alias chain
	Args []string

	// Handler is the in-process implementation, nil for external commands
	Handler Handler
}

// InProcess reports whether the command runs inside the calling program.
func (r *Resolved) InProcess() bool {
	return r.Handler != nil
}
