package pipeline

import (
	"bytes"
	"fmt"
	"strings"
)

// Filter is a single pipeline stage together with the chain of stages wired
// into its standard input. The value handed to the executor is the tail of
// the chain; Head and Stages recover the full pipeline.
//
// Filters are immutable. Composition methods return a fresh chain built from
// deep copies of their operands, so any filter can participate in multiple
// pipelines.
type Filter struct {
	command string
	args    []string
	prev    *Filter
	input   Endpoint
	output  Endpoint
}

// New creates a single stage filter invoking the named command.
func New(command string, args ...string) *Filter {
	f := &Filter{command: command}
	if len(args) > 0 {
		f.args = make([]string, len(args))
		copy(f.args, args)
	}
	return f
}

// Command returns the command name of this stage.
func (f *Filter) Command() string { return f.command }

// Args returns a copy of the stage arguments.
func (f *Filter) Args() []string {
	if len(f.args) == 0 {
		return nil
	}
	args := make([]string, len(f.args))
	copy(args, f.args)
	return args
}

// Input returns the chain input endpoint, which lives on the head stage.
func (f *Filter) Input() Endpoint { return f.Head().input }

// Output returns the chain output endpoint, which lives on the tail stage.
func (f *Filter) Output() Endpoint { return f.output }

// Head returns the first stage of the chain.
func (f *Filter) Head() *Filter {
	head := f
	for head.prev != nil {
		head = head.prev
	}
	return head
}

// Len returns the number of stages in the chain.
func (f *Filter) Len() int {
	n := 0
	for s := f; s != nil; s = s.prev {
		n++
	}
	return n
}

// Stages returns the chain stages in execution order, head first.
func (f *Filter) Stages() []*Filter {
	n := f.Len()
	stages := make([]*Filter, n)
	for s := f; s != nil; s = s.prev {
		n--
		stages[n] = s
	}
	return stages
}

// Pipe connects the output of this chain to the input of next and returns the
// combined chain. Both operands are left untouched. Piping fails when this
// chain already redirects its output, or when the head of next already
// redirects its input.
func (f *Filter) Pipe(next *Filter) (*Filter, error) {
	if next == nil {
		return nil, ErrNilFilter
	}
	if f.output.Bound() {
		return nil, fmt.Errorf("cannot pipe %q into %q: %w", f.command, next.command, ErrOutputBound)
	}
	if next.Head().input.Bound() {
		return nil, fmt.Errorf("cannot pipe %q into %q: %w", f.command, next.command, ErrInputBound)
	}
	left := f.clone()
	right := next.clone()
	right.Head().prev = left
	return right, nil
}

// RedirectInput binds the chain input to a file.
func (f *Filter) RedirectInput(path string) (*Filter, error) {
	return f.withInput(Endpoint{Kind: KindFile, Path: path})
}

// InputString feeds the chain input from a literal string.
func (f *Filter) InputString(data string) (*Filter, error) {
	return f.withInput(Endpoint{Kind: KindString, Data: data})
}

// InputURL streams the chain input from a storage location addressed by URL.
func (f *Filter) InputURL(URL string) (*Filter, error) {
	return f.withInput(Endpoint{Kind: KindURL, URL: URL})
}

// DiscardInput connects the chain input to the null device.
func (f *Filter) DiscardInput() (*Filter, error) {
	return f.withInput(Endpoint{Kind: KindDiscard})
}

// RedirectOutput binds the chain output to a file, truncating it first.
func (f *Filter) RedirectOutput(path string) (*Filter, error) {
	return f.withOutput(Endpoint{Kind: KindFile, Path: path})
}

// RedirectAppend binds the chain output to a file opened for append.
func (f *Filter) RedirectAppend(path string) (*Filter, error) {
	return f.withOutput(Endpoint{Kind: KindFile, Path: path, Append: true})
}

// OutputBuffer collects the chain output into buffer.
func (f *Filter) OutputBuffer(buffer *bytes.Buffer) (*Filter, error) {
	if buffer == nil {
		return nil, fmt.Errorf("output buffer was nil")
	}
	return f.withOutput(Endpoint{Kind: KindBuffer, Buffer: buffer})
}

// OutputURL uploads the chain output to a storage location addressed by URL.
func (f *Filter) OutputURL(URL string) (*Filter, error) {
	return f.withOutput(Endpoint{Kind: KindURL, URL: URL})
}

// DiscardOutput connects the chain output to the null device.
func (f *Filter) DiscardOutput() (*Filter, error) {
	return f.withOutput(Endpoint{Kind: KindDiscard})
}

func (f *Filter) withInput(endpoint Endpoint) (*Filter, error) {
	if head := f.Head(); head.input.Bound() {
		return nil, fmt.Errorf("%q: %w", head.command, ErrInputBound)
	}
	dup := f.clone()
	dup.Head().input = endpoint
	return dup, nil
}

func (f *Filter) withOutput(endpoint Endpoint) (*Filter, error) {
	if f.output.Bound() {
		return nil, fmt.Errorf("%q: %w", f.command, ErrOutputBound)
	}
	dup := f.clone()
	dup.output = endpoint
	return dup, nil
}

// clone deep copies the whole chain and returns the copy of the receiver.
func (f *Filter) clone() *Filter {
	if f == nil {
		return nil
	}
	dup := &Filter{
		command: f.command,
		input:   f.input,
		output:  f.output,
		prev:    f.prev.clone(),
	}
	if len(f.args) > 0 {
		dup.args = make([]string, len(f.args))
		copy(dup.args, f.args)
	}
	return dup
}

// String renders the chain in shell notation for logs and error messages.
func (f *Filter) String() string {
	var b strings.Builder
	stages := f.Stages()
	for i, stage := range stages {
		if i > 0 {
			b.WriteString(" | ")
		}
		b.WriteString(stage.command)
		for _, arg := range stage.args {
			b.WriteByte(' ')
			if strings.ContainsAny(arg, " \t\"") {
				fmt.Fprintf(&b, "%q", arg)
			} else {
				b.WriteString(arg)
			}
		}
	}
	if in := stages[0].input; in.Bound() {
		b.WriteString(" < ")
		b.WriteString(in.String())
	}
	if f.output.Bound() {
		if f.output.Kind == KindFile && f.output.Append {
			b.WriteString(" >> ")
		} else {
			b.WriteString(" > ")
		}
		b.WriteString(f.output.String())
	}
	return b.String()
}
