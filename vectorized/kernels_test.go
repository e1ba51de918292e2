package vectorized

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestKernels_MatchScalarLoop(t *testing.T) {
	for _, n := range []int{0, 3, 64, 131} {
		a := make([]int64, n)
		b := make([]int64, n)
		for i := range a {
			a[i] = int64(i * 3)
			b[i] = int64(n - i)
		}
		wantAdd := make([]int64, n)
		wantSub := make([]int64, n)
		wantMul := make([]int64, n)
		for i := range a {
			wantAdd[i] = a[i] + b[i]
			wantSub[i] = a[i] - b[i]
			wantMul[i] = a[i] * b[i]
		}

		got := make([]int64, n)
		if err := AddInto(a, b, got); err != nil {
			t.Fatalf("AddInto failed: %v", err)
		}
		if diff := cmp.Diff(wantAdd, got); diff != "" {
			t.Errorf("AddInto n=%d mismatch (-want +got):\n%s", n, diff)
		}
		if err := SubInto(a, b, got); err != nil {
			t.Fatalf("SubInto failed: %v", err)
		}
		if diff := cmp.Diff(wantSub, got); diff != "" {
			t.Errorf("SubInto n=%d mismatch (-want +got):\n%s", n, diff)
		}
		if err := MulInto(a, b, got); err != nil {
			t.Fatalf("MulInto failed: %v", err)
		}
		if diff := cmp.Diff(wantMul, got); diff != "" {
			t.Errorf("MulInto n=%d mismatch (-want +got):\n%s", n, diff)
		}
	}
}

func TestKernels_LengthMismatch(t *testing.T) {
	if err := AddInto([]float64{1}, []float64{1, 2}, make([]float64, 1)); err == nil {
		t.Error("Expected length mismatch error")
	}
}

func TestCountNulls(t *testing.T) {
	v := NewVectorOfLength(INT32, 300)
	for _, i := range []int{0, 63, 64, 200, 299} {
		v.SetNull(i)
	}
	if got := CountNulls(v.Nulls); got != 5 {
		t.Errorf("Expected 5 nulls, got %d", got)
	}
	if v.Dense() {
		t.Error("Expected vector with nulls not to be dense")
	}
	if !NewVectorOfLength(INT32, 10).Dense() {
		t.Error("Expected fresh vector to be dense")
	}
}
