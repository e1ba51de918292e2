package evaluators

import (
	"fmt"
	"math"

	"coleval/expr"
	"coleval/vectorized"
)

// lengthEvaluator computes the byte length of each string. The declared
// result type selects INT32 or INT64 output.
type lengthEvaluator struct {
	input      expr.StringValue
	resultType vectorized.DataType
}

func newLength(info *expr.StaticInfo) (expr.Evaluator, error) {
	if err := info.ExpectArguments(1); err != nil {
		return nil, err
	}
	if err := info.ExpectResultType(vectorized.INT32, vectorized.INT64); err != nil {
		return nil, err
	}
	input, err := info.UnpackString()
	if err != nil {
		return nil, err
	}
	return &lengthEvaluator{input: input, resultType: info.ResultType()}, nil
}

func (e *lengthEvaluator) Evaluate(wa *expr.WorkArea) (*vectorized.Vector, error) {
	in, err := wa.Lookup(e.input)
	if err != nil {
		return nil, err
	}
	values, err := typedData[string](in)
	if err != nil {
		return nil, err
	}

	out := vectorized.NewVectorOfLength(e.resultType, in.Length)
	for i, s := range values {
		if in.IsNull(i) {
			out.SetNull(i)
			continue
		}
		if e.resultType == vectorized.INT64 {
			out.SetInt64(i, int64(len(s)))
			continue
		}
		if len(s) > math.MaxInt32 {
			return nil, fmt.Errorf("row %d: length %d overflows INT32", i, len(s))
		}
		out.SetInt32(i, int32(len(s)))
	}
	return out, nil
}
