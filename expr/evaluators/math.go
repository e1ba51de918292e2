package evaluators

import (
	"math"

	"coleval/expr"
	"coleval/vectorized"
)

type arithmeticOp int

const (
	opAdd arithmeticOp = iota
	opSub
	opMul
	opDiv
)

// arithmeticFunc returns the element function for op. Division by zero
// yields a null.
func arithmeticFunc[T number](op arithmeticOp) func(a, b T) (T, bool) {
	switch op {
	case opAdd:
		return func(a, b T) (T, bool) { return a + b, true }
	case opSub:
		return func(a, b T) (T, bool) { return a - b, true }
	case opMul:
		return func(a, b T) (T, bool) { return a * b, true }
	default:
		return func(a, b T) (T, bool) {
			if b == 0 {
				return 0, false
			}
			return a / b, true
		}
	}
}

// denseKernel returns the null-free kernel for op, or nil when op can
// produce nulls on its own.
func denseKernel[T number](op arithmeticOp) func(a, b, result []T) error {
	switch op {
	case opAdd:
		return vectorized.AddInto[T]
	case opSub:
		return vectorized.SubInto[T]
	case opMul:
		return vectorized.MulInto[T]
	default:
		return nil
	}
}

type arithmeticEvaluator[T number] struct {
	left, right expr.AnyValue
	resultType  vectorized.DataType
	fn          func(a, b T) (T, bool)
	dense       func(a, b, result []T) error
}

func (e *arithmeticEvaluator[T]) Evaluate(wa *expr.WorkArea) (*vectorized.Vector, error) {
	left, err := wa.Lookup(e.left)
	if err != nil {
		return nil, err
	}
	right, err := wa.Lookup(e.right)
	if err != nil {
		return nil, err
	}
	if e.dense != nil && left.Dense() && right.Dense() {
		return e.evaluateDense(left, right)
	}
	return zipValues(left, right, e.resultType, e.fn)
}

func (e *arithmeticEvaluator[T]) evaluateDense(left, right *vectorized.Vector) (*vectorized.Vector, error) {
	as, err := typedData[T](left)
	if err != nil {
		return nil, err
	}
	bs, err := typedData[T](right)
	if err != nil {
		return nil, err
	}
	out := vectorized.NewVectorOfLength(e.resultType, len(as))
	dst, err := typedData[T](out)
	if err != nil {
		return nil, err
	}
	if err := e.dense(as, bs, dst); err != nil {
		return nil, err
	}
	return out, nil
}

// newArithmetic builds a binary numeric operation. Both arguments must have
// the declared result type.
func newArithmetic(op arithmeticOp) expr.Factory {
	return func(info *expr.StaticInfo) (expr.Evaluator, error) {
		if err := info.ExpectArguments(2); err != nil {
			return nil, err
		}
		if err := info.ExpectResultType(vectorized.INT32, vectorized.INT64, vectorized.FLOAT64); err != nil {
			return nil, err
		}
		rt := info.ResultType()
		left, err := unpackAs(info, rt)
		if err != nil {
			return nil, err
		}
		right, err := unpackAs(info, rt)
		if err != nil {
			return nil, err
		}

		switch rt {
		case vectorized.INT32:
			return &arithmeticEvaluator[int32]{left: left, right: right, resultType: rt, fn: arithmeticFunc[int32](op), dense: denseKernel[int32](op)}, nil
		case vectorized.INT64:
			return &arithmeticEvaluator[int64]{left: left, right: right, resultType: rt, fn: arithmeticFunc[int64](op), dense: denseKernel[int64](op)}, nil
		default:
			return &arithmeticEvaluator[float64]{left: left, right: right, resultType: rt, fn: arithmeticFunc[float64](op), dense: denseKernel[float64](op)}, nil
		}
	}
}

func unpackAs(info *expr.StaticInfo, t vectorized.DataType) (expr.AnyValue, error) {
	arg, err := info.UnpackArgument()
	if err != nil {
		return expr.AnyValue{}, err
	}
	return arg.AsType(t)
}

type unaryNumericEvaluator[In number, Out any] struct {
	input      expr.NumericValue
	resultType vectorized.DataType
	fn         func(In) (Out, bool)
}

func (e *unaryNumericEvaluator[In, Out]) Evaluate(wa *expr.WorkArea) (*vectorized.Vector, error) {
	in, err := wa.Lookup(e.input)
	if err != nil {
		return nil, err
	}
	return mapValues(in, e.resultType, e.fn)
}

// absValue yields a null where the absolute value does not fit the type.
func absValue[T number](x T) (T, bool) {
	if x >= 0 {
		return x, true
	}
	if -x < 0 {
		return 0, false
	}
	return -x, true
}

// newAbs keeps the argument's type.
func newAbs(info *expr.StaticInfo) (expr.Evaluator, error) {
	if err := info.ExpectArguments(1); err != nil {
		return nil, err
	}
	input, err := info.UnpackNumeric()
	if err != nil {
		return nil, err
	}
	if err := info.ExpectResultType(input.DataType()); err != nil {
		return nil, err
	}

	switch input.DataType() {
	case vectorized.INT32:
		return &unaryNumericEvaluator[int32, int32]{input: input, resultType: vectorized.INT32, fn: absValue[int32]}, nil
	case vectorized.INT64:
		return &unaryNumericEvaluator[int64, int64]{input: input, resultType: vectorized.INT64, fn: absValue[int64]}, nil
	default:
		return &unaryNumericEvaluator[float64, float64]{input: input, resultType: vectorized.FLOAT64, fn: func(x float64) (float64, bool) {
			return math.Abs(x), true
		}}, nil
	}
}

func sqrtValue[T number](x T) (float64, bool) {
	if x < 0 {
		return 0, false
	}
	return math.Sqrt(float64(x)), true
}

// newSqrt accepts any numeric argument and produces FLOAT64. Negative inputs
// yield nulls.
func newSqrt(info *expr.StaticInfo) (expr.Evaluator, error) {
	if err := info.ExpectArguments(1); err != nil {
		return nil, err
	}
	if err := info.ExpectResultType(vectorized.FLOAT64); err != nil {
		return nil, err
	}
	input, err := info.UnpackNumeric()
	if err != nil {
		return nil, err
	}

	switch input.DataType() {
	case vectorized.INT32:
		return &unaryNumericEvaluator[int32, float64]{input: input, resultType: vectorized.FLOAT64, fn: sqrtValue[int32]}, nil
	case vectorized.INT64:
		return &unaryNumericEvaluator[int64, float64]{input: input, resultType: vectorized.FLOAT64, fn: sqrtValue[int64]}, nil
	default:
		return &unaryNumericEvaluator[float64, float64]{input: input, resultType: vectorized.FLOAT64, fn: sqrtValue[float64]}, nil
	}
}
