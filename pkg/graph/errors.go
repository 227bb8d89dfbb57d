package graph

import (
	"errors"
	"fmt"
)

// Snapshot construction errors
var (
	ErrDanglingEdge     = errors.New("edge references unknown vertex")
	ErrDuplicateVertex  = errors.New("duplicate vertex id")
	ErrInvalidVertex    = errors.New("invalid vertex")
	ErrNegativeWeight   = errors.New("edge weight must be a non-negative number")
	ErrInvalidDirection = errors.New("invalid edge direction")
)

// SnapshotError describes why a vertex or edge was rejected while building a
// snapshot.
type SnapshotError struct {
	Op      string // e.g. "add_vertex", "add_edge"
	Entity  string // "vertex" or "edge"
	ID      string
	Index   int    // position in the input slice
	Context string // additional detail, e.g. the missing endpoint
	Cause   error
}

// Error implements the error interface.
func (e *SnapshotError) Error() string {
	if e.ID != "" {
		if e.Context != "" {
			return fmt.Sprintf("%s %s %q (%s): %v", e.Op, e.Entity, e.ID, e.Context, e.Cause)
		}
		return fmt.Sprintf("%s %s %q: %v", e.Op, e.Entity, e.ID, e.Cause)
	}
	if e.Context != "" {
		return fmt.Sprintf("%s %s #%d (%s): %v", e.Op, e.Entity, e.Index, e.Context, e.Cause)
	}
	return fmt.Sprintf("%s %s #%d: %v", e.Op, e.Entity, e.Index, e.Cause)
}

// Unwrap returns the underlying cause for error chain support.
func (e *SnapshotError) Unwrap() error {
	return e.Cause
}

// Is reports whether the target error matches this error's cause.
func (e *SnapshotError) Is(target error) bool {
	if target == nil {
		return false
	}
	return errors.Is(e.Cause, target)
}

// ErrorBuilder provides a fluent interface for building SnapshotErrors.
type ErrorBuilder struct {
	err SnapshotError
}

// NewError creates a new error builder with the given operation.
func NewError(op string) *ErrorBuilder {
	return &ErrorBuilder{err: SnapshotError{Op: op}}
}

// Vertex sets the entity to "vertex".
func (b *ErrorBuilder) Vertex(index int, id string) *ErrorBuilder {
	b.err.Entity = "vertex"
	b.err.Index = index
	b.err.ID = id
	return b
}

// Edge sets the entity to "edge".
func (b *ErrorBuilder) Edge(index int, id string) *ErrorBuilder {
	b.err.Entity = "edge"
	b.err.Index = index
	b.err.ID = id
	return b
}

// Context sets additional context information.
func (b *ErrorBuilder) Context(format string, args ...any) *ErrorBuilder {
	b.err.Context = fmt.Sprintf(format, args...)
	return b
}

// Cause sets the underlying error cause.
func (b *ErrorBuilder) Cause(err error) *ErrorBuilder {
	b.err.Cause = err
	return b
}

// Err returns the error as an error interface.
func (b *ErrorBuilder) Err() error {
	return &b.err
}

// IsRejected returns true if the error is any snapshot validation failure.
func IsRejected(err error) bool {
	var se *SnapshotError
	return errors.As(err, &se)
}
