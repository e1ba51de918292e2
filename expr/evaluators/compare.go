package evaluators

import (
	"cmp"

	"coleval/expr"
	"coleval/vectorized"
)

type comparison int

const (
	cmpEq comparison = iota
	cmpNeq
	cmpLt
	cmpLte
	cmpGt
	cmpGte
)

func (c comparison) holds(order int) bool {
	switch c {
	case cmpEq:
		return order == 0
	case cmpNeq:
		return order != 0
	case cmpLt:
		return order < 0
	case cmpLte:
		return order <= 0
	case cmpGt:
		return order > 0
	default:
		return order >= 0
	}
}

func compareBools(a, b bool) int {
	switch {
	case a == b:
		return 0
	case !a:
		return -1
	default:
		return 1
	}
}

// orderedPredicate uses Go's operators, so FLOAT64 follows IEEE 754: any
// comparison with NaN is false except neq, which is true.
func orderedPredicate[T cmp.Ordered](op comparison) func(a, b T) bool {
	switch op {
	case cmpEq:
		return func(a, b T) bool { return a == b }
	case cmpNeq:
		return func(a, b T) bool { return a != b }
	case cmpLt:
		return func(a, b T) bool { return a < b }
	case cmpLte:
		return func(a, b T) bool { return a <= b }
	case cmpGt:
		return func(a, b T) bool { return a > b }
	default:
		return func(a, b T) bool { return a >= b }
	}
}

func boolPredicate(op comparison) func(a, b bool) bool {
	return func(a, b bool) bool { return op.holds(compareBools(a, b)) }
}

type comparisonEvaluator[T any] struct {
	left, right expr.AnyValue
	holds       func(a, b T) bool
}

func (e *comparisonEvaluator[T]) Evaluate(wa *expr.WorkArea) (*vectorized.Vector, error) {
	left, err := wa.Lookup(e.left)
	if err != nil {
		return nil, err
	}
	right, err := wa.Lookup(e.right)
	if err != nil {
		return nil, err
	}
	return zipValues(left, right, vectorized.BOOLEAN, func(a, b T) (bool, bool) {
		return e.holds(a, b), true
	})
}

// newComparison compares two arguments of the same type. BOOLEAN orders
// false before true. NaN compares unequal to everything, itself included.
func newComparison(op comparison) expr.Factory {
	return func(info *expr.StaticInfo) (expr.Evaluator, error) {
		if err := info.ExpectArguments(2); err != nil {
			return nil, err
		}
		if err := info.ExpectResultType(vectorized.BOOLEAN); err != nil {
			return nil, err
		}
		left, err := info.UnpackAny()
		if err != nil {
			return nil, err
		}
		right, err := unpackAs(info, left.DataType())
		if err != nil {
			return nil, err
		}

		switch left.DataType() {
		case vectorized.INT32:
			return &comparisonEvaluator[int32]{left: left, right: right, holds: orderedPredicate[int32](op)}, nil
		case vectorized.INT64:
			return &comparisonEvaluator[int64]{left: left, right: right, holds: orderedPredicate[int64](op)}, nil
		case vectorized.FLOAT64:
			return &comparisonEvaluator[float64]{left: left, right: right, holds: orderedPredicate[float64](op)}, nil
		case vectorized.STRING:
			return &comparisonEvaluator[string]{left: left, right: right, holds: orderedPredicate[string](op)}, nil
		default:
			return &comparisonEvaluator[bool]{left: left, right: right, holds: boolPredicate(op)}, nil
		}
	}
}
