package pipeline

import (
	"bytes"
	"fmt"
)

// EndpointKind discriminates the destinations a chain end can be bound to.
type EndpointKind int

const (
	// KindInherit leaves the stream attached to whatever the executor
	// inherits, typically the parent process stdio. Zero value.
	KindInherit EndpointKind = iota

	// KindDiscard routes the stream to the null device.
	KindDiscard

	// KindFile binds the stream to a file on the local filesystem.
	KindFile

	// KindURL binds the stream to a storage location addressed by URL.
	KindURL

	// KindString feeds a literal string into an input end.
	KindString

	// KindBuffer collects an output end into a caller supplied buffer.
	KindBuffer
)

// Endpoint describes where one outer end of a chain reads from or writes to.
// The zero value inherits the executor's stdio.
type Endpoint struct {
	Kind EndpointKind

	// Path holds the file location for KindFile endpoints
	Path string

	// Append selects append rather than truncate semantics for file outputs
	Append bool

	// URL holds the storage location for KindURL endpoints
	URL string

	// Data holds the literal input for KindString endpoints
	Data string

	Buffer *bytes.Buffer
}

// Bound reports whether the endpoint was explicitly redirected.
func (e Endpoint) Bound() bool {
	return e.Kind != KindInherit
}

// String renders a shell-like description of the endpoint for diagnostics.
func (e Endpoint) String() string {
	switch e.Kind {
	case KindDiscard:
		return "/dev/null"
	case KindFile:
		return e.Path
	case KindURL:
		return e.URL
	case KindString:
		if len(e.Data) > 16 {
			return fmt.Sprintf("%q...", e.Data[:16])
		}
		return fmt.Sprintf("%q", e.Data)
	case KindBuffer:
		return "[buffer]"
	}
	return ""
}
