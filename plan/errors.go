package plan

import (
	"errors"
	"fmt"
)

var (
	// ErrForwardReference marks a node that reads a node at or after its own position
	ErrForwardReference = errors.New("forward reference")
	// ErrInvalidPlan marks structural plan errors such as unknown types or missing outputs
	ErrInvalidPlan = errors.New("invalid plan")
	// ErrSchemaMismatch marks a batch whose schema differs from the one the plan was built for
	ErrSchemaMismatch = errors.New("schema mismatch")
)

// ForwardReferenceError reports an argument that breaks evaluation order
type ForwardReferenceError struct {
	Node int
	Ref  int
}

func (e *ForwardReferenceError) Error() string {
	return fmt.Sprintf("node %d references node %d, which is not computed before it", e.Node, e.Ref)
}

func (e *ForwardReferenceError) Is(target error) bool { return target == ErrForwardReference }
