package expr

import (
	"errors"
	"fmt"
	"strings"

	"coleval/vectorized"
)

// Error classes. Every typed error below reports its class through errors.Is.
var (
	ErrUnknownOperation  = errors.New("unknown operation")
	ErrArity             = errors.New("wrong number of arguments")
	ErrTypeMismatch      = errors.New("type mismatch")
	ErrInvalidArgument   = errors.New("invalid argument")
	ErrEvaluation        = errors.New("evaluation failed")
	ErrOrderingViolation = errors.New("ordering violation")
)

// UnknownOperationError is returned when no factory is registered for a name
type UnknownOperationError struct {
	Name string
}

func (e *UnknownOperationError) Error() string {
	return fmt.Sprintf("unknown operation %q", e.Name)
}

func (e *UnknownOperationError) Is(target error) bool { return target == ErrUnknownOperation }

// ArityError reports a node whose argument count does not match its operation
type ArityError struct {
	Operation string
	Expected  int
	Given     int
}

func (e *ArityError) Error() string {
	return fmt.Sprintf("operation %s expects %d arguments, %d given", e.Operation, e.Expected, e.Given)
}

func (e *ArityError) Is(target error) bool { return target == ErrArity }

// TypeMismatchError reports an argument (or, with Argument == -1, the node's
// declared result) whose logical type differs from what the operation needs.
type TypeMismatchError struct {
	Operation string
	Argument  int
	Position  int
	Expected  string
	Actual    vectorized.DataType
}

func (e *TypeMismatchError) Error() string {
	if e.Argument < 0 {
		return fmt.Sprintf("operation %s: result of node %d expected %s, got %s",
			e.Operation, e.Position, e.Expected, e.Actual)
	}
	return fmt.Sprintf("operation %s: argument %d (node %d) expected %s, got %s",
		e.Operation, e.Argument, e.Position, e.Expected, e.Actual)
}

func (e *TypeMismatchError) Is(target error) bool { return target == ErrTypeMismatch }

func joinTypes(types []vectorized.DataType, sep string) string {
	names := make([]string, len(types))
	for i, t := range types {
		names[i] = t.String()
	}
	return strings.Join(names, sep)
}

// InvalidArgumentError reports an operation-specific validation failure,
// such as a computed value where a constant is required.
type InvalidArgumentError struct {
	Operation string
	Argument  int
	Reason    string
}

func (e *InvalidArgumentError) Error() string {
	return fmt.Sprintf("operation %s: argument %d: %s", e.Operation, e.Argument, e.Reason)
}

func (e *InvalidArgumentError) Is(target error) bool { return target == ErrInvalidArgument }

// EvaluationError wraps a per-batch computation failure with the identity of
// the operation that failed.
type EvaluationError struct {
	Operation string
	Node      int
	ArgTypes  []vectorized.DataType
	Err       error
}

func (e *EvaluationError) Error() string {
	return fmt.Sprintf("evaluating %s(%s) at node %d: %v", e.Operation, joinTypes(e.ArgTypes, ", "), e.Node, e.Err)
}

func (e *EvaluationError) Unwrap() error { return e.Err }

func (e *EvaluationError) Is(target error) bool { return target == ErrEvaluation }

// OrderingViolationError signals a plan defect: a slot was read before it was
// written, written twice, or holds a different type than the handle claims.
// It is never wrapped as an EvaluationError.
type OrderingViolationError struct {
	Position int
	Reason   string
}

func (e *OrderingViolationError) Error() string {
	return fmt.Sprintf("ordering violation at position %d: %s", e.Position, e.Reason)
}

func (e *OrderingViolationError) Is(target error) bool { return target == ErrOrderingViolation }
