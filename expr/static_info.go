package expr

import (
	"coleval/vectorized"
)

// StaticInfo is the plan-build-time view of one node: its operation, its
// position, its declared arguments and result type. Factories consume the
// arguments left to right; argument order is fixed by the plan.
type StaticInfo struct {
	operation   string
	index       int
	args        []Argument
	next        int
	resultType  vectorized.DataType
	inputSchema *vectorized.Schema
	bound       []ValueRef
}

// NewStaticInfo describes the node at position index.
func NewStaticInfo(operation string, index int, args []Argument, resultType vectorized.DataType, inputSchema *vectorized.Schema) *StaticInfo {
	return &StaticInfo{
		operation:   operation,
		index:       index,
		args:        args,
		resultType:  resultType,
		inputSchema: inputSchema,
	}
}

// Operation returns the node's operation name.
func (si *StaticInfo) Operation() string { return si.operation }

// Index returns the node's position in evaluation order.
func (si *StaticInfo) Index() int { return si.index }

// ResultType returns the node's declared output type.
func (si *StaticInfo) ResultType() vectorized.DataType { return si.resultType }

// InputSchema returns the schema of the batches the plan will evaluate.
func (si *StaticInfo) InputSchema() *vectorized.Schema { return si.inputSchema }

// NumArguments returns the declared argument count.
func (si *StaticInfo) NumArguments() int { return len(si.args) }

// Remaining returns how many arguments have not been unpacked yet.
func (si *StaticInfo) Remaining() int { return len(si.args) - si.next }

// ArgumentTypes returns the logical types of all declared arguments.
func (si *StaticInfo) ArgumentTypes() []vectorized.DataType {
	types := make([]vectorized.DataType, len(si.args))
	for i, arg := range si.args {
		types[i] = arg.DataType()
	}
	return types
}

// Bound returns the handles bound so far, in binding order.
func (si *StaticInfo) Bound() []ValueRef {
	return append([]ValueRef(nil), si.bound...)
}

// ExpectArguments fails with an arity error unless exactly n arguments were declared.
func (si *StaticInfo) ExpectArguments(n int) error {
	if len(si.args) != n {
		return &ArityError{Operation: si.operation, Expected: n, Given: len(si.args)}
	}
	return nil
}

// ExpectResultType fails unless the declared result type is one of types.
func (si *StaticInfo) ExpectResultType(types ...vectorized.DataType) error {
	for _, t := range types {
		if si.resultType == t {
			return nil
		}
	}
	return &TypeMismatchError{
		Operation: si.operation,
		Argument:  -1,
		Position:  si.index,
		Expected:  joinTypes(types, " or "),
		Actual:    si.resultType,
	}
}

// UnpackArgument removes and returns the next argument.
func (si *StaticInfo) UnpackArgument() (Arg, error) {
	if si.next >= len(si.args) {
		return Arg{}, &ArityError{Operation: si.operation, Expected: si.next + 1, Given: len(si.args)}
	}
	arg := Arg{Argument: si.args[si.next], info: si, ordinal: si.next}
	si.next++
	return arg, nil
}

// UnpackString unpacks the next argument as a STRING handle.
func (si *StaticInfo) UnpackString() (StringValue, error) {
	arg, err := si.UnpackArgument()
	if err != nil {
		return StringValue{}, err
	}
	return arg.AsString()
}

// UnpackBool unpacks the next argument as a BOOLEAN handle.
func (si *StaticInfo) UnpackBool() (BoolValue, error) {
	arg, err := si.UnpackArgument()
	if err != nil {
		return BoolValue{}, err
	}
	return arg.AsBool()
}

// UnpackNumeric unpacks the next argument as a numeric handle.
func (si *StaticInfo) UnpackNumeric() (NumericValue, error) {
	arg, err := si.UnpackArgument()
	if err != nil {
		return NumericValue{}, err
	}
	return arg.AsNumeric()
}

// UnpackAny unpacks the next argument as a handle of any materialized type.
func (si *StaticInfo) UnpackAny() (AnyValue, error) {
	arg, err := si.UnpackArgument()
	if err != nil {
		return AnyValue{}, err
	}
	return arg.AsAny()
}
