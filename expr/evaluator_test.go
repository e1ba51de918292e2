package expr

import (
	"errors"
	"reflect"
	"testing"

	"coleval/vectorized"
)

func TestEvaluator_WrapsFailuresWithIdentity(t *testing.T) {
	cause := errors.New("malformed utf-8")
	registry := NewRegistry()
	registry.Register("broken", func(info *StaticInfo) (Evaluator, error) {
		if _, err := info.UnpackString(); err != nil {
			return nil, err
		}
		return EvaluatorFunc(func(wa *WorkArea) (*vectorized.Vector, error) { return nil, cause }), nil
	})

	ev, err := registry.Create(NewStaticInfo("broken", 1, []Argument{RefArgument(0, vectorized.STRING)}, vectorized.INT32, nil))
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	wa := NewWorkArea(stringBatch(t, "a"), 2)
	_, err = ev.Evaluate(wa)
	if !errors.Is(err, ErrEvaluation) || !errors.Is(err, cause) {
		t.Fatalf("Expected evaluation error wrapping the cause, got %v", err)
	}
	var evalErr *EvaluationError
	if !errors.As(err, &evalErr) {
		t.Fatalf("Expected *EvaluationError, got %T", err)
	}
	if evalErr.Operation != "broken" || evalErr.Node != 1 {
		t.Errorf("Unexpected identity %s/%d", evalErr.Operation, evalErr.Node)
	}
	if !reflect.DeepEqual(evalErr.ArgTypes, []vectorized.DataType{vectorized.STRING}) {
		t.Errorf("Unexpected argument types %v", evalErr.ArgTypes)
	}
}

func TestEvaluator_OrderingViolationIsNotWrapped(t *testing.T) {
	registry := NewRegistry()
	registry.Register("len", lengthFactory)

	ev, err := registry.Create(NewStaticInfo("len", 1, []Argument{RefArgument(0, vectorized.STRING)}, vectorized.INT32, nil))
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	// Slot 0 was never stored
	_, err = ev.Evaluate(NewWorkArea(stringBatch(t, "a"), 2))
	var ov *OrderingViolationError
	if !errors.As(err, &ov) {
		t.Fatalf("Expected ordering violation, got %v", err)
	}
	if errors.Is(err, ErrEvaluation) {
		t.Errorf("Ordering violation was wrapped as an evaluation error")
	}
}

func TestEvaluator_ChecksOutputShape(t *testing.T) {
	tests := []struct {
		name string
		out  func() *vectorized.Vector
	}{
		{"nil output", func() *vectorized.Vector { return nil }},
		{"short output", func() *vectorized.Vector { return vectorized.NewVectorOfLength(vectorized.INT32, 1) }},
		{"wrong type", func() *vectorized.Vector { return vectorized.NewVectorOfLength(vectorized.INT64, 2) }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			registry := NewRegistry()
			registry.Register("fixed", func(info *StaticInfo) (Evaluator, error) {
				return EvaluatorFunc(func(wa *WorkArea) (*vectorized.Vector, error) { return tt.out(), nil }), nil
			})
			ev, err := registry.Create(NewStaticInfo("fixed", 0, nil, vectorized.INT32, nil))
			if err != nil {
				t.Fatalf("Create failed: %v", err)
			}
			if _, err := ev.Evaluate(NewWorkArea(stringBatch(t, "a", "b"), 1)); !errors.Is(err, ErrEvaluation) {
				t.Errorf("Expected evaluation error, got %v", err)
			}
		})
	}
}

func TestStaticInfo_BindingIsDeterministic(t *testing.T) {
	args := []Argument{
		RefArgument(0, vectorized.STRING),
		RefArgument(2, vectorized.INT64),
		LiteralArgument(vectorized.INT64, int64(4)),
	}
	bind := func() []ValueRef {
		info := NewStaticInfo("substring_like", 3, args, vectorized.STRING, nil)
		if _, err := info.UnpackString(); err != nil {
			t.Fatal(err)
		}
		if _, err := info.UnpackNumeric(); err != nil {
			t.Fatal(err)
		}
		arg, err := info.UnpackArgument()
		if err != nil {
			t.Fatal(err)
		}
		if n, err := arg.AsInt64Literal(); err != nil || n != 4 {
			t.Fatalf("AsInt64Literal = %d, %v", n, err)
		}
		return info.Bound()
	}

	first, second := bind(), bind()
	want := []ValueRef{{Index: 0, Type: vectorized.STRING}, {Index: 2, Type: vectorized.INT64}}
	if !reflect.DeepEqual(first, want) || !reflect.DeepEqual(second, want) {
		t.Errorf("Expected %v twice, got %v and %v", want, first, second)
	}
}

func TestStaticInfo_LiteralBinding(t *testing.T) {
	info := NewStaticInfo("column", 0, []Argument{
		RefArgument(0, vectorized.STRING),
		LiteralArgument(vectorized.STRING, "name"),
	}, vectorized.STRING, nil)

	computed, _ := info.UnpackArgument()
	if _, err := computed.AsStringLiteral(); !errors.Is(err, ErrInvalidArgument) {
		t.Errorf("Expected invalid argument for a computed value, got %v", err)
	}

	literal, _ := info.UnpackArgument()
	if _, err := literal.AsString(); !errors.Is(err, ErrInvalidArgument) {
		t.Errorf("Expected invalid argument for a literal handle, got %v", err)
	}
	if s, err := literal.AsStringLiteral(); err != nil || s != "name" {
		t.Errorf("AsStringLiteral = %q, %v", s, err)
	}

	if _, err := info.UnpackArgument(); !errors.Is(err, ErrArity) {
		t.Errorf("Expected arity error once arguments are exhausted, got %v", err)
	}
}

func TestStaticInfo_ExpectResultType(t *testing.T) {
	info := NewStaticInfo("len", 4, nil, vectorized.STRING, nil)
	err := info.ExpectResultType(vectorized.INT32, vectorized.INT64)

	var mismatch *TypeMismatchError
	if !errors.As(err, &mismatch) {
		t.Fatalf("Expected type mismatch, got %v", err)
	}
	if mismatch.Argument != -1 || mismatch.Expected != "INT32 or INT64" || mismatch.Actual != vectorized.STRING {
		t.Errorf("Unexpected details %+v", mismatch)
	}
}
