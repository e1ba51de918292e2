package evaluators

import (
	"fmt"

	"coleval/expr"
	"coleval/vectorized"
)

type columnEvaluator struct {
	name  string
	index int
}

// newColumn reads an input column by name. The name is a constant resolved
// against the plan's input schema when the plan is built.
func newColumn(info *expr.StaticInfo) (expr.Evaluator, error) {
	if err := info.ExpectArguments(1); err != nil {
		return nil, err
	}
	arg, err := info.UnpackArgument()
	if err != nil {
		return nil, err
	}
	name, err := arg.AsStringLiteral()
	if err != nil {
		return nil, err
	}

	schema := info.InputSchema()
	if schema == nil {
		return nil, &expr.InvalidArgumentError{Operation: info.Operation(), Argument: 0, Reason: "no input schema"}
	}
	index := schema.FieldIndex(name)
	if index < 0 {
		return nil, &expr.InvalidArgumentError{
			Operation: info.Operation(),
			Argument:  0,
			Reason:    fmt.Sprintf("column %q not in input schema", name),
		}
	}
	if field := schema.Fields[index]; field.DataType != info.ResultType() {
		return nil, &expr.TypeMismatchError{
			Operation: info.Operation(),
			Argument:  -1,
			Position:  info.Index(),
			Expected:  field.DataType.String(),
			Actual:    info.ResultType(),
		}
	}
	return &columnEvaluator{name: name, index: index}, nil
}

func (e *columnEvaluator) Evaluate(wa *expr.WorkArea) (*vectorized.Vector, error) {
	input := wa.Input()
	if input == nil || e.index >= len(input.Columns) {
		return nil, fmt.Errorf("input batch has no column %q", e.name)
	}
	return input.Columns[e.index], nil
}

type literalEvaluator struct {
	literal expr.Literal
}

// newLiteral broadcasts a constant to the length of every batch.
func newLiteral(info *expr.StaticInfo) (expr.Evaluator, error) {
	if err := info.ExpectArguments(1); err != nil {
		return nil, err
	}
	arg, err := info.UnpackArgument()
	if err != nil {
		return nil, err
	}
	literal, err := arg.AsLiteral()
	if err != nil {
		return nil, err
	}
	if literal.Type != info.ResultType() {
		return nil, &expr.TypeMismatchError{
			Operation: info.Operation(),
			Argument:  0,
			Position:  info.Index(),
			Expected:  info.ResultType().String(),
			Actual:    literal.Type,
		}
	}
	// Reject values that do not fit the type now rather than on the first batch
	if _, err := vectorized.Broadcast(literal.Type, literal.Value, 1); err != nil {
		return nil, &expr.InvalidArgumentError{Operation: info.Operation(), Argument: 0, Reason: err.Error()}
	}
	return &literalEvaluator{literal: literal}, nil
}

func (e *literalEvaluator) Evaluate(wa *expr.WorkArea) (*vectorized.Vector, error) {
	return vectorized.Broadcast(e.literal.Type, e.literal.Value, wa.Rows())
}
