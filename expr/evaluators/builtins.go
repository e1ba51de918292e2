// Package evaluators holds the built-in operations. Each family lives in its
// own file; RegisterBuiltins is the single place they are added to a registry.
package evaluators

import (
	"coleval/expr"
)

// RegisterBuiltins adds every built-in operation to r.
func RegisterBuiltins(r *expr.Registry) {
	// inputs
	r.Register("column", newColumn)
	r.Register("literal", newLiteral)

	// strings
	r.Register("len", newLength)
	r.Register("upper", newStringMap("upper", toUpper))
	r.Register("lower", newStringMap("lower", toLower))
	r.Register("concat", newConcat)
	r.Register("substring", newSubstring)

	// math
	r.Register("abs", newAbs)
	r.Register("sqrt", newSqrt)
	r.Register("add", newArithmetic(opAdd))
	r.Register("sub", newArithmetic(opSub))
	r.Register("mul", newArithmetic(opMul))
	r.Register("div", newArithmetic(opDiv))

	// comparison
	r.Register("eq", newComparison(cmpEq))
	r.Register("neq", newComparison(cmpNeq))
	r.Register("lt", newComparison(cmpLt))
	r.Register("lte", newComparison(cmpLte))
	r.Register("gt", newComparison(cmpGt))
	r.Register("gte", newComparison(cmpGte))

	// logical
	r.Register("and", newAnd)
	r.Register("or", newOr)
	r.Register("not", newNot)
	r.Register("is_null", newIsNull)
}

// NewRegistry returns a frozen registry holding the built-in operations.
func NewRegistry() *expr.Registry {
	r := expr.NewRegistry()
	RegisterBuiltins(r)
	r.Freeze()
	return r
}
