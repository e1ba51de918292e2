package expr

import (
	"fmt"

	"coleval/vectorized"
)

// ValueRef is an untyped handle: the position of a node in evaluation order
// together with the node's declared output type.
type ValueRef struct {
	Index int
	Type  vectorized.DataType
}

// Literal is a constant argument. A nil Value is a typed null.
type Literal struct {
	Type  vectorized.DataType
	Value interface{}
}

// Argument is one declared input of a node: either a reference to an earlier
// node or a literal.
type Argument struct {
	Ref     ValueRef
	Literal *Literal
}

// RefArgument declares an argument computed by the node at index.
func RefArgument(index int, t vectorized.DataType) Argument {
	return Argument{Ref: ValueRef{Index: index, Type: t}}
}

// LiteralArgument declares a constant argument.
func LiteralArgument(t vectorized.DataType, value interface{}) Argument {
	return Argument{Literal: &Literal{Type: t, Value: value}}
}

// IsLiteral reports whether the argument is a constant.
func (a Argument) IsLiteral() bool { return a.Literal != nil }

// DataType returns the argument's logical type.
func (a Argument) DataType() vectorized.DataType {
	if a.Literal != nil {
		return a.Literal.Type
	}
	return a.Ref.Type
}

// Handle is a typed reference to a node's output.
type Handle interface {
	Position() int
	DataType() vectorized.DataType
}

// StringValue references a STRING node output.
type StringValue struct{ index int }

func (v StringValue) Position() int                 { return v.index }
func (v StringValue) DataType() vectorized.DataType { return vectorized.STRING }

// Int32Value references an INT32 node output.
type Int32Value struct{ index int }

func (v Int32Value) Position() int                 { return v.index }
func (v Int32Value) DataType() vectorized.DataType { return vectorized.INT32 }

// Int64Value references an INT64 node output.
type Int64Value struct{ index int }

func (v Int64Value) Position() int                 { return v.index }
func (v Int64Value) DataType() vectorized.DataType { return vectorized.INT64 }

// Float64Value references a FLOAT64 node output.
type Float64Value struct{ index int }

func (v Float64Value) Position() int                 { return v.index }
func (v Float64Value) DataType() vectorized.DataType { return vectorized.FLOAT64 }

// BoolValue references a BOOLEAN node output.
type BoolValue struct{ index int }

func (v BoolValue) Position() int                 { return v.index }
func (v BoolValue) DataType() vectorized.DataType { return vectorized.BOOLEAN }

// NumericValue references an INT32, INT64 or FLOAT64 node output.
type NumericValue struct {
	index int
	typ   vectorized.DataType
}

func (v NumericValue) Position() int                 { return v.index }
func (v NumericValue) DataType() vectorized.DataType { return v.typ }

// AnyValue references a node output of any materialized type.
type AnyValue struct {
	index int
	typ   vectorized.DataType
}

func (v AnyValue) Position() int                 { return v.index }
func (v AnyValue) DataType() vectorized.DataType { return v.typ }

// Arg is an argument taken from StaticInfo. Its conversions validate the
// logical type once, at plan-build time.
type Arg struct {
	Argument
	info    *StaticInfo
	ordinal int
}

// Ordinal returns the argument's position in the node's argument list.
func (a Arg) Ordinal() int { return a.ordinal }

func (a Arg) ref(expected ...vectorized.DataType) (ValueRef, error) {
	if a.IsLiteral() {
		return ValueRef{}, &InvalidArgumentError{
			Operation: a.info.operation,
			Argument:  a.ordinal,
			Reason:    "expected a computed value, got a literal",
		}
	}
	for _, t := range expected {
		if a.Ref.Type == t {
			a.info.bound = append(a.info.bound, a.Ref)
			return a.Ref, nil
		}
	}
	return ValueRef{}, &TypeMismatchError{
		Operation: a.info.operation,
		Argument:  a.ordinal,
		Position:  a.Ref.Index,
		Expected:  joinTypes(expected, " or "),
		Actual:    a.Ref.Type,
	}
}

// AsString binds the argument as a STRING handle.
func (a Arg) AsString() (StringValue, error) {
	ref, err := a.ref(vectorized.STRING)
	return StringValue{index: ref.Index}, err
}

// AsInt32 binds the argument as an INT32 handle.
func (a Arg) AsInt32() (Int32Value, error) {
	ref, err := a.ref(vectorized.INT32)
	return Int32Value{index: ref.Index}, err
}

// AsInt64 binds the argument as an INT64 handle.
func (a Arg) AsInt64() (Int64Value, error) {
	ref, err := a.ref(vectorized.INT64)
	return Int64Value{index: ref.Index}, err
}

// AsFloat64 binds the argument as a FLOAT64 handle.
func (a Arg) AsFloat64() (Float64Value, error) {
	ref, err := a.ref(vectorized.FLOAT64)
	return Float64Value{index: ref.Index}, err
}

// AsBool binds the argument as a BOOLEAN handle.
func (a Arg) AsBool() (BoolValue, error) {
	ref, err := a.ref(vectorized.BOOLEAN)
	return BoolValue{index: ref.Index}, err
}

// AsNumeric binds the argument as any numeric handle.
func (a Arg) AsNumeric() (NumericValue, error) {
	ref, err := a.ref(vectorized.INT32, vectorized.INT64, vectorized.FLOAT64)
	return NumericValue{index: ref.Index, typ: ref.Type}, err
}

// AsAny binds the argument as a handle of any materialized type.
func (a Arg) AsAny() (AnyValue, error) {
	ref, err := a.ref(vectorized.INT32, vectorized.INT64, vectorized.FLOAT64, vectorized.STRING, vectorized.BOOLEAN)
	return AnyValue{index: ref.Index, typ: ref.Type}, err
}

// AsType binds the argument as a handle of exactly type t.
func (a Arg) AsType(t vectorized.DataType) (AnyValue, error) {
	ref, err := a.ref(t)
	return AnyValue{index: ref.Index, typ: ref.Type}, err
}

// AsLiteral returns the argument's constant, failing for computed values.
func (a Arg) AsLiteral() (Literal, error) {
	if !a.IsLiteral() {
		return Literal{}, &InvalidArgumentError{
			Operation: a.info.operation,
			Argument:  a.ordinal,
			Reason:    fmt.Sprintf("expected a constant, got computed node %d", a.Ref.Index),
		}
	}
	return *a.Literal, nil
}

// AsStringLiteral returns a non-null STRING constant.
func (a Arg) AsStringLiteral() (string, error) {
	lit, err := a.literalOf(vectorized.STRING)
	if err != nil {
		return "", err
	}
	s, ok := lit.Value.(string)
	if !ok {
		return "", a.invalid(fmt.Sprintf("literal %v is not a string", lit.Value))
	}
	return s, nil
}

// AsInt64Literal returns a non-null INT64 constant.
func (a Arg) AsInt64Literal() (int64, error) {
	lit, err := a.literalOf(vectorized.INT64)
	if err != nil {
		return 0, err
	}
	switch v := lit.Value.(type) {
	case int64:
		return v, nil
	case int:
		return int64(v), nil
	case int32:
		return int64(v), nil
	default:
		return 0, a.invalid(fmt.Sprintf("literal %v is not an integer", lit.Value))
	}
}

func (a Arg) literalOf(t vectorized.DataType) (Literal, error) {
	lit, err := a.AsLiteral()
	if err != nil {
		return Literal{}, err
	}
	if lit.Type != t {
		return Literal{}, &TypeMismatchError{
			Operation: a.info.operation,
			Argument:  a.ordinal,
			Position:  a.info.index,
			Expected:  t.String(),
			Actual:    lit.Type,
		}
	}
	if lit.Value == nil {
		return Literal{}, a.invalid("constant must not be null")
	}
	return lit, nil
}

func (a Arg) invalid(reason string) error {
	return &InvalidArgumentError{Operation: a.info.operation, Argument: a.ordinal, Reason: reason}
}
