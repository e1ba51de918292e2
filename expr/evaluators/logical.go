package evaluators

import (
	"fmt"

	"coleval/expr"
	"coleval/vectorized"
)

// Logical operations follow SQL three-valued logic: false AND null is false,
// true OR null is true, any other combination with a null is null.

type connectiveEvaluator struct {
	left, right expr.BoolValue
	// dominant is the operand value that decides the result on its own
	dominant bool
}

func newConnective(dominant bool) expr.Factory {
	return func(info *expr.StaticInfo) (expr.Evaluator, error) {
		if err := info.ExpectArguments(2); err != nil {
			return nil, err
		}
		if err := info.ExpectResultType(vectorized.BOOLEAN); err != nil {
			return nil, err
		}
		left, err := info.UnpackBool()
		if err != nil {
			return nil, err
		}
		right, err := info.UnpackBool()
		if err != nil {
			return nil, err
		}
		return &connectiveEvaluator{left: left, right: right, dominant: dominant}, nil
	}
}

var (
	newAnd = newConnective(false)
	newOr  = newConnective(true)
)

func (e *connectiveEvaluator) Evaluate(wa *expr.WorkArea) (*vectorized.Vector, error) {
	left, err := wa.Lookup(e.left)
	if err != nil {
		return nil, err
	}
	right, err := wa.Lookup(e.right)
	if err != nil {
		return nil, err
	}
	if left.Length != right.Length {
		return nil, fmt.Errorf("argument lengths differ: %d and %d", left.Length, right.Length)
	}
	as, err := typedData[bool](left)
	if err != nil {
		return nil, err
	}
	bs, err := typedData[bool](right)
	if err != nil {
		return nil, err
	}

	out := vectorized.NewVectorOfLength(vectorized.BOOLEAN, left.Length)
	for i := range as {
		aNull, bNull := left.IsNull(i), right.IsNull(i)
		switch {
		case !aNull && as[i] == e.dominant, !bNull && bs[i] == e.dominant:
			out.SetBoolean(i, e.dominant)
		case aNull || bNull:
			out.SetNull(i)
		default:
			out.SetBoolean(i, !e.dominant)
		}
	}
	return out, nil
}

type notEvaluator struct {
	input expr.BoolValue
}

func newNot(info *expr.StaticInfo) (expr.Evaluator, error) {
	if err := info.ExpectArguments(1); err != nil {
		return nil, err
	}
	if err := info.ExpectResultType(vectorized.BOOLEAN); err != nil {
		return nil, err
	}
	input, err := info.UnpackBool()
	if err != nil {
		return nil, err
	}
	return &notEvaluator{input: input}, nil
}

func (e *notEvaluator) Evaluate(wa *expr.WorkArea) (*vectorized.Vector, error) {
	in, err := wa.Lookup(e.input)
	if err != nil {
		return nil, err
	}
	return mapValues(in, vectorized.BOOLEAN, func(b bool) (bool, bool) { return !b, true })
}

// isNullEvaluator accepts any type and never produces nulls.
type isNullEvaluator struct {
	input expr.AnyValue
}

func newIsNull(info *expr.StaticInfo) (expr.Evaluator, error) {
	if err := info.ExpectArguments(1); err != nil {
		return nil, err
	}
	if err := info.ExpectResultType(vectorized.BOOLEAN); err != nil {
		return nil, err
	}
	input, err := info.UnpackAny()
	if err != nil {
		return nil, err
	}
	return &isNullEvaluator{input: input}, nil
}

func (e *isNullEvaluator) Evaluate(wa *expr.WorkArea) (*vectorized.Vector, error) {
	in, err := wa.Lookup(e.input)
	if err != nil {
		return nil, err
	}
	out := vectorized.NewVectorOfLength(vectorized.BOOLEAN, in.Length)
	for i := 0; i < in.Length; i++ {
		out.SetBoolean(i, in.IsNull(i))
	}
	return out, nil
}
