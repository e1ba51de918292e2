package evaluators

import (
	"errors"
	"fmt"
	"math"
	"testing"

	"github.com/google/go-cmp/cmp"

	"coleval/expr"
	"coleval/vectorized"
)

// harness stores its input vectors at positions 0..n-1 and evaluates one node at n
type harness struct {
	t        *testing.T
	registry *expr.Registry
	batch    *vectorized.VectorBatch
	inputs   []*vectorized.Vector
}

func newHarness(t *testing.T, inputs ...*vectorized.Vector) *harness {
	t.Helper()
	fields := make([]*vectorized.Field, len(inputs))
	for i, in := range inputs {
		fields[i] = &vectorized.Field{Name: fmt.Sprintf("c%d", i), DataType: in.DataType, Nullable: true}
	}
	batch, err := vectorized.NewVectorBatchFromColumns(vectorized.NewSchema(fields...), inputs)
	if err != nil {
		t.Fatalf("NewVectorBatchFromColumns: %v", err)
	}
	return &harness{t: t, registry: NewRegistry(), batch: batch, inputs: inputs}
}

func (h *harness) refs() []expr.Argument {
	args := make([]expr.Argument, len(h.inputs))
	for i, in := range h.inputs {
		args[i] = expr.RefArgument(i, in.DataType)
	}
	return args
}

func (h *harness) build(op string, resultType vectorized.DataType, args []expr.Argument) (expr.Evaluator, error) {
	info := expr.NewStaticInfo(op, len(h.inputs), args, resultType, h.batch.Schema)
	return h.registry.Create(info)
}

func (h *harness) workArea() *expr.WorkArea {
	h.t.Helper()
	wa := expr.NewWorkArea(h.batch, len(h.inputs)+1)
	for i, in := range h.inputs {
		if err := wa.Store(i, in); err != nil {
			h.t.Fatalf("Store(%d): %v", i, err)
		}
	}
	return wa
}

// run builds op over all inputs and evaluates it once
func (h *harness) run(op string, resultType vectorized.DataType, args ...expr.Argument) []interface{} {
	h.t.Helper()
	ev, err := h.build(op, resultType, append(h.refs(), args...))
	if err != nil {
		h.t.Fatalf("Building %s: %v", op, err)
	}
	out, err := ev.Evaluate(h.workArea())
	if err != nil {
		h.t.Fatalf("Evaluating %s: %v", op, err)
	}
	return rowsOf(out)
}

func rowsOf(v *vectorized.Vector) []interface{} {
	rows := make([]interface{}, v.Length)
	for i := range rows {
		rows[i] = v.Get(i)
	}
	return rows
}

func vector(t *testing.T, dt vectorized.DataType, values ...interface{}) *vectorized.Vector {
	t.Helper()
	v, err := vectorized.VectorFromValues(dt, values...)
	if err != nil {
		t.Fatalf("VectorFromValues: %v", err)
	}
	return v
}

func TestLength_NullPreserving(t *testing.T) {
	h := newHarness(t, vector(t, vectorized.STRING, "ab", nil, "", "xyz"))

	got := h.run("len", vectorized.INT32)
	want := []interface{}{int32(2), nil, int32(0), int32(3)}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("len mismatch (-want +got):\n%s", diff)
	}
}

func TestLength_ByteLengthAndWideResult(t *testing.T) {
	h := newHarness(t, vector(t, vectorized.STRING, "héllo", nil))

	got := h.run("len", vectorized.INT64)
	want := []interface{}{int64(6), nil}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("len mismatch (-want +got):\n%s", diff)
	}
}

func TestLength_Idempotent(t *testing.T) {
	h := newHarness(t, vector(t, vectorized.STRING, "ab", nil, "", "xyz"))
	ev, err := h.build("len", vectorized.INT32, h.refs())
	if err != nil {
		t.Fatal(err)
	}

	first, err := ev.Evaluate(h.workArea())
	if err != nil {
		t.Fatal(err)
	}
	second, err := ev.Evaluate(h.workArea())
	if err != nil {
		t.Fatal(err)
	}
	if first == second {
		t.Fatalf("Evaluations shared an output vector")
	}
	if diff := cmp.Diff(first, second); diff != "" {
		t.Errorf("Outputs differ (-first +second):\n%s", diff)
	}
}

func TestLength_MalformedInputIsEvaluationError(t *testing.T) {
	bad := vectorized.NewVectorOfLength(vectorized.STRING, 2)
	bad.Data = []string{"only one"}
	h := newHarness(t, vector(t, vectorized.STRING, "a", "b"))
	h.inputs[0] = bad

	ev, err := h.build("len", vectorized.INT32, h.refs())
	if err != nil {
		t.Fatal(err)
	}
	_, err = ev.Evaluate(h.workArea())
	if !errors.Is(err, expr.ErrEvaluation) {
		t.Fatalf("Expected evaluation error, got %v", err)
	}
	var evalErr *expr.EvaluationError
	if !errors.As(err, &evalErr) || evalErr.Operation != "len" {
		t.Errorf("Evaluation error does not carry the operation: %v", err)
	}
}

func TestBuild_Errors(t *testing.T) {
	h := newHarness(t,
		vector(t, vectorized.STRING, "a"),
		vector(t, vectorized.INT64, int64(1)),
	)
	str := expr.RefArgument(0, vectorized.STRING)
	num := expr.RefArgument(1, vectorized.INT64)

	tests := []struct {
		name       string
		op         string
		resultType vectorized.DataType
		args       []expr.Argument
		want       error
	}{
		{"len without arguments", "len", vectorized.INT32, nil, expr.ErrArity},
		{"len of integer", "len", vectorized.INT32, []expr.Argument{num}, expr.ErrTypeMismatch},
		{"len as string", "len", vectorized.STRING, []expr.Argument{str}, expr.ErrTypeMismatch},
		{"concat of one", "concat", vectorized.STRING, []expr.Argument{str}, expr.ErrArity},
		{"add mixed types", "add", vectorized.INT64, []expr.Argument{num, str}, expr.ErrTypeMismatch},
		{"substring computed start", "substring", vectorized.STRING, []expr.Argument{str, num, expr.LiteralArgument(vectorized.INT64, int64(1))}, expr.ErrInvalidArgument},
		{"substring zero start", "substring", vectorized.STRING, []expr.Argument{str, expr.LiteralArgument(vectorized.INT64, int64(0)), expr.LiteralArgument(vectorized.INT64, int64(1))}, expr.ErrInvalidArgument},
		{"substring negative length", "substring", vectorized.STRING, []expr.Argument{str, expr.LiteralArgument(vectorized.INT64, int64(1)), expr.LiteralArgument(vectorized.INT64, int64(-1))}, expr.ErrInvalidArgument},
		{"column missing", "column", vectorized.STRING, []expr.Argument{expr.LiteralArgument(vectorized.STRING, "nope")}, expr.ErrInvalidArgument},
		{"column wrong type", "column", vectorized.INT64, []expr.Argument{expr.LiteralArgument(vectorized.STRING, "c0")}, expr.ErrTypeMismatch},
		{"literal wrong type", "literal", vectorized.INT64, []expr.Argument{expr.LiteralArgument(vectorized.STRING, "x")}, expr.ErrTypeMismatch},
		{"literal bad value", "literal", vectorized.BOOLEAN, []expr.Argument{expr.LiteralArgument(vectorized.BOOLEAN, "yes")}, expr.ErrInvalidArgument},
		{"literal int32 overflow", "literal", vectorized.INT32, []expr.Argument{expr.LiteralArgument(vectorized.INT32, int64(5000000000))}, expr.ErrInvalidArgument},
		{"literal int32 underflow", "literal", vectorized.INT32, []expr.Argument{expr.LiteralArgument(vectorized.INT32, math.MinInt32-1)}, expr.ErrInvalidArgument},
		{"compare mixed types", "lt", vectorized.BOOLEAN, []expr.Argument{str, num}, expr.ErrTypeMismatch},
		{"unknown", "reverse", vectorized.STRING, []expr.Argument{str}, expr.ErrUnknownOperation},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := h.build(tt.op, tt.resultType, tt.args)
			if !errors.Is(err, tt.want) {
				t.Errorf("Expected %v, got %v", tt.want, err)
			}
		})
	}
}

func TestInputs(t *testing.T) {
	h := newHarness(t, vector(t, vectorized.STRING, "a", nil, "c"))

	ev, err := h.build("column", vectorized.STRING, []expr.Argument{expr.LiteralArgument(vectorized.STRING, "c0")})
	if err != nil {
		t.Fatal(err)
	}
	out, err := ev.Evaluate(h.workArea())
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff([]interface{}{"a", nil, "c"}, rowsOf(out)); diff != "" {
		t.Errorf("column mismatch (-want +got):\n%s", diff)
	}

	ev, err = h.build("literal", vectorized.INT64, []expr.Argument{expr.LiteralArgument(vectorized.INT64, 7)})
	if err != nil {
		t.Fatal(err)
	}
	out, err = ev.Evaluate(h.workArea())
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff([]interface{}{int64(7), int64(7), int64(7)}, rowsOf(out)); diff != "" {
		t.Errorf("literal mismatch (-want +got):\n%s", diff)
	}
}

func TestLiteral_Int32Bounds(t *testing.T) {
	h := newHarness(t, vector(t, vectorized.STRING, "a", "b"))
	ev, err := h.build("literal", vectorized.INT32, []expr.Argument{expr.LiteralArgument(vectorized.INT32, int64(math.MaxInt32))})
	if err != nil {
		t.Fatalf("Expected MaxInt32 literal to build, got %v", err)
	}
	out, err := ev.Evaluate(h.workArea())
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff([]interface{}{int32(math.MaxInt32), int32(math.MaxInt32)}, rowsOf(out)); diff != "" {
		t.Errorf("literal mismatch (-want +got):\n%s", diff)
	}

	_, err = h.build("literal", vectorized.INT32, []expr.Argument{expr.LiteralArgument(vectorized.INT32, int64(math.MaxInt32)+1)})
	if !errors.Is(err, expr.ErrInvalidArgument) {
		t.Errorf("Expected invalid argument for an int32 overflow, got %v", err)
	}
}

func TestStrings(t *testing.T) {
	words := vector(t, vectorized.STRING, "Go", nil, "héllo wörld")
	suffix := vector(t, vectorized.STRING, "!", "?", nil)

	tests := []struct {
		name string
		run  func(t *testing.T) []interface{}
		want []interface{}
	}{
		{"upper", func(t *testing.T) []interface{} {
			return newHarness(t, words).run("upper", vectorized.STRING)
		}, []interface{}{"GO", nil, "HÉLLO WÖRLD"}},
		{"lower", func(t *testing.T) []interface{} {
			return newHarness(t, words).run("lower", vectorized.STRING)
		}, []interface{}{"go", nil, "héllo wörld"}},
		{"concat", func(t *testing.T) []interface{} {
			return newHarness(t, words, suffix).run("concat", vectorized.STRING)
		}, []interface{}{"Go!", nil, nil}},
		{"substring by runes", func(t *testing.T) []interface{} {
			return newHarness(t, words).run("substring", vectorized.STRING,
				expr.LiteralArgument(vectorized.INT64, int64(2)),
				expr.LiteralArgument(vectorized.INT64, int64(4)))
		}, []interface{}{"o", nil, "éllo"}},
		{"substring past end", func(t *testing.T) []interface{} {
			return newHarness(t, words).run("substring", vectorized.STRING,
				expr.LiteralArgument(vectorized.INT64, int64(50)),
				expr.LiteralArgument(vectorized.INT64, int64(math.MaxInt64)))
		}, []interface{}{"", nil, ""}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if diff := cmp.Diff(tt.want, tt.run(t)); diff != "" {
				t.Errorf("mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestMath(t *testing.T) {
	ints := vector(t, vectorized.INT64, int64(7), int64(-3), nil, int64(math.MinInt64))
	divisors := vector(t, vectorized.INT64, int64(2), int64(0), int64(1), int64(1))
	floats := vector(t, vectorized.FLOAT64, 2.25, -4.0, nil, 0.0)

	tests := []struct {
		name string
		run  func(t *testing.T) []interface{}
		want []interface{}
	}{
		{"add", func(t *testing.T) []interface{} {
			return newHarness(t, ints, divisors).run("add", vectorized.INT64)
		}, []interface{}{int64(9), int64(-3), nil, int64(math.MinInt64 + 1)}},
		{"sub", func(t *testing.T) []interface{} {
			return newHarness(t, ints, divisors).run("sub", vectorized.INT64)
		}, []interface{}{int64(5), int64(-3), nil, int64(math.MaxInt64)}},
		{"mul", func(t *testing.T) []interface{} {
			return newHarness(t, ints, divisors).run("mul", vectorized.INT64)
		}, []interface{}{int64(14), int64(0), nil, int64(math.MinInt64)}},
		{"div by zero is null", func(t *testing.T) []interface{} {
			return newHarness(t, ints, divisors).run("div", vectorized.INT64)
		}, []interface{}{int64(3), nil, nil, int64(math.MinInt64)}},
		{"abs", func(t *testing.T) []interface{} {
			return newHarness(t, ints).run("abs", vectorized.INT64)
		}, []interface{}{int64(7), int64(3), nil, nil}},
		{"abs float", func(t *testing.T) []interface{} {
			return newHarness(t, floats).run("abs", vectorized.FLOAT64)
		}, []interface{}{2.25, 4.0, nil, 0.0}},
		{"sqrt", func(t *testing.T) []interface{} {
			return newHarness(t, floats).run("sqrt", vectorized.FLOAT64)
		}, []interface{}{1.5, nil, nil, 0.0}},
		{"sqrt of integers", func(t *testing.T) []interface{} {
			return newHarness(t, vector(t, vectorized.INT32, int32(9), int32(-1))).run("sqrt", vectorized.FLOAT64)
		}, []interface{}{3.0, nil}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if diff := cmp.Diff(tt.want, tt.run(t)); diff != "" {
				t.Errorf("mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestArithmetic_DenseInputsMatchNullablePath(t *testing.T) {
	const n = 100
	as := make([]interface{}, n)
	bs := make([]interface{}, n)
	for i := 0; i < n; i++ {
		as[i] = float64(i) / 2
		bs[i] = float64(n - i)
	}
	dense := newHarness(t, vector(t, vectorized.FLOAT64, as...), vector(t, vectorized.FLOAT64, bs...))

	// One null forces the element-wise path; the other rows must agree.
	withNull := append([]interface{}(nil), as...)
	withNull[0] = nil
	sparse := newHarness(t, vector(t, vectorized.FLOAT64, withNull...), vector(t, vectorized.FLOAT64, bs...))

	for _, op := range []string{"add", "sub", "mul"} {
		got := dense.run(op, vectorized.FLOAT64)
		want := sparse.run(op, vectorized.FLOAT64)
		if got[0] == nil || want[0] != nil {
			t.Errorf("%s: unexpected first row %v / %v", op, got[0], want[0])
		}
		if diff := cmp.Diff(want[1:], got[1:]); diff != "" {
			t.Errorf("%s mismatch (-nullable +dense):\n%s", op, diff)
		}
	}
}

func TestComparisons(t *testing.T) {
	left := vector(t, vectorized.STRING, "apple", "pear", nil, "fig")
	right := vector(t, vectorized.STRING, "banana", "pear", "kiwi", "date")

	tests := []struct {
		op   string
		want []interface{}
	}{
		{"eq", []interface{}{false, true, nil, false}},
		{"neq", []interface{}{true, false, nil, true}},
		{"lt", []interface{}{true, false, nil, false}},
		{"lte", []interface{}{true, true, nil, false}},
		{"gt", []interface{}{false, false, nil, true}},
		{"gte", []interface{}{false, true, nil, true}},
	}

	for _, tt := range tests {
		t.Run(tt.op, func(t *testing.T) {
			got := newHarness(t, left, right).run(tt.op, vectorized.BOOLEAN)
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("mismatch (-want +got):\n%s", diff)
			}
		})
	}

	t.Run("nan", func(t *testing.T) {
		nan := math.NaN()
		a := vector(t, vectorized.FLOAT64, nan, nan, 1.0)
		b := vector(t, vectorized.FLOAT64, nan, 1.0, nan)
		want := map[string][]interface{}{
			"eq":  {false, false, false},
			"neq": {true, true, true},
			"lt":  {false, false, false},
			"lte": {false, false, false},
			"gt":  {false, false, false},
			"gte": {false, false, false},
		}
		for op, w := range want {
			got := newHarness(t, a, b).run(op, vectorized.BOOLEAN)
			if diff := cmp.Diff(w, got); diff != "" {
				t.Errorf("%s mismatch (-want +got):\n%s", op, diff)
			}
		}
	})

	t.Run("booleans", func(t *testing.T) {
		a := vector(t, vectorized.BOOLEAN, false, true, true)
		b := vector(t, vectorized.BOOLEAN, true, true, false)
		got := newHarness(t, a, b).run("lt", vectorized.BOOLEAN)
		if diff := cmp.Diff([]interface{}{true, false, false}, got); diff != "" {
			t.Errorf("mismatch (-want +got):\n%s", diff)
		}
	})
}

func TestLogical(t *testing.T) {
	// every combination of true, false and null
	a := vector(t, vectorized.BOOLEAN, true, true, true, false, false, false, nil, nil, nil)
	b := vector(t, vectorized.BOOLEAN, true, false, nil, true, false, nil, true, false, nil)

	tests := []struct {
		name string
		run  func(t *testing.T) []interface{}
		want []interface{}
	}{
		{"and", func(t *testing.T) []interface{} {
			return newHarness(t, a, b).run("and", vectorized.BOOLEAN)
		}, []interface{}{true, false, nil, false, false, false, nil, false, nil}},
		{"or", func(t *testing.T) []interface{} {
			return newHarness(t, a, b).run("or", vectorized.BOOLEAN)
		}, []interface{}{true, true, true, true, false, nil, true, nil, nil}},
		{"not", func(t *testing.T) []interface{} {
			return newHarness(t, a).run("not", vectorized.BOOLEAN)
		}, []interface{}{false, false, false, true, true, true, nil, nil, nil}},
		{"is_null", func(t *testing.T) []interface{} {
			return newHarness(t, b).run("is_null", vectorized.BOOLEAN)
		}, []interface{}{false, false, true, false, false, true, false, false, true}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if diff := cmp.Diff(tt.want, tt.run(t)); diff != "" {
				t.Errorf("mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestNewRegistry_Frozen(t *testing.T) {
	registry := NewRegistry()
	if !registry.Frozen() {
		t.Errorf("Builtin registry is not frozen")
	}
	for _, name := range []string{"len", "column", "literal", "is_null"} {
		if _, err := registry.Get(name); err != nil {
			t.Errorf("Builtin %s missing: %v", name, err)
		}
	}
}
