package evaluators

import (
	"strings"

	"coleval/expr"
	"coleval/vectorized"
)

func toUpper(s string) (string, bool) { return strings.ToUpper(s), true }
func toLower(s string) (string, bool) { return strings.ToLower(s), true }

type stringMapEvaluator struct {
	input expr.StringValue
	fn    func(string) (string, bool)
}

func newStringMap(name string, fn func(string) (string, bool)) expr.Factory {
	return func(info *expr.StaticInfo) (expr.Evaluator, error) {
		if err := info.ExpectArguments(1); err != nil {
			return nil, err
		}
		if err := info.ExpectResultType(vectorized.STRING); err != nil {
			return nil, err
		}
		input, err := info.UnpackString()
		if err != nil {
			return nil, err
		}
		return &stringMapEvaluator{input: input, fn: fn}, nil
	}
}

func (e *stringMapEvaluator) Evaluate(wa *expr.WorkArea) (*vectorized.Vector, error) {
	in, err := wa.Lookup(e.input)
	if err != nil {
		return nil, err
	}
	return mapValues(in, vectorized.STRING, e.fn)
}

type concatEvaluator struct {
	left, right expr.StringValue
}

func newConcat(info *expr.StaticInfo) (expr.Evaluator, error) {
	if err := info.ExpectArguments(2); err != nil {
		return nil, err
	}
	if err := info.ExpectResultType(vectorized.STRING); err != nil {
		return nil, err
	}
	left, err := info.UnpackString()
	if err != nil {
		return nil, err
	}
	right, err := info.UnpackString()
	if err != nil {
		return nil, err
	}
	return &concatEvaluator{left: left, right: right}, nil
}

func (e *concatEvaluator) Evaluate(wa *expr.WorkArea) (*vectorized.Vector, error) {
	left, err := wa.Lookup(e.left)
	if err != nil {
		return nil, err
	}
	right, err := wa.Lookup(e.right)
	if err != nil {
		return nil, err
	}
	return zipValues(left, right, vectorized.STRING, func(a, b string) (string, bool) {
		return a + b, true
	})
}

// substringEvaluator extracts length runes starting at the 1-based rune
// position start. Both bounds are constants.
type substringEvaluator struct {
	input  expr.StringValue
	start  int64
	length int64
}

func newSubstring(info *expr.StaticInfo) (expr.Evaluator, error) {
	if err := info.ExpectArguments(3); err != nil {
		return nil, err
	}
	if err := info.ExpectResultType(vectorized.STRING); err != nil {
		return nil, err
	}
	input, err := info.UnpackString()
	if err != nil {
		return nil, err
	}

	startArg, err := info.UnpackArgument()
	if err != nil {
		return nil, err
	}
	start, err := startArg.AsInt64Literal()
	if err != nil {
		return nil, err
	}
	if start < 1 {
		return nil, &expr.InvalidArgumentError{Operation: info.Operation(), Argument: startArg.Ordinal(), Reason: "start must be at least 1"}
	}

	lengthArg, err := info.UnpackArgument()
	if err != nil {
		return nil, err
	}
	length, err := lengthArg.AsInt64Literal()
	if err != nil {
		return nil, err
	}
	if length < 0 {
		return nil, &expr.InvalidArgumentError{Operation: info.Operation(), Argument: lengthArg.Ordinal(), Reason: "length must not be negative"}
	}

	return &substringEvaluator{input: input, start: start, length: length}, nil
}

func (e *substringEvaluator) Evaluate(wa *expr.WorkArea) (*vectorized.Vector, error) {
	in, err := wa.Lookup(e.input)
	if err != nil {
		return nil, err
	}
	return mapValues(in, vectorized.STRING, func(s string) (string, bool) {
		runes := []rune(s)
		begin := e.start - 1
		if begin >= int64(len(runes)) {
			return "", true
		}
		end := int64(len(runes))
		if e.length < end-begin {
			end = begin + e.length
		}
		return string(runes[begin:end]), true
	})
}
