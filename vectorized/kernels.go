package vectorized

import (
	"fmt"
	"math/bits"
)

// Numeric is the set of element types the dense kernels operate on.
type Numeric interface {
	~int32 | ~int64 | ~float64
}

// unrollMin is the length below which kernels skip the unrolled loop.
const unrollMin = 64

// AddInto writes a[i] + b[i] into result. All three slices must have the
// same length.
func AddInto[T Numeric](a, b, result []T) error {
	if err := sameLength(len(a), len(b), len(result)); err != nil {
		return err
	}
	n := len(a)
	end := 0
	if n >= unrollMin {
		end = n - n%4
	}
	for i := 0; i < end; i += 4 {
		result[i] = a[i] + b[i]
		result[i+1] = a[i+1] + b[i+1]
		result[i+2] = a[i+2] + b[i+2]
		result[i+3] = a[i+3] + b[i+3]
	}
	for i := end; i < n; i++ {
		result[i] = a[i] + b[i]
	}
	return nil
}

// SubInto writes a[i] - b[i] into result.
func SubInto[T Numeric](a, b, result []T) error {
	if err := sameLength(len(a), len(b), len(result)); err != nil {
		return err
	}
	n := len(a)
	end := 0
	if n >= unrollMin {
		end = n - n%4
	}
	for i := 0; i < end; i += 4 {
		result[i] = a[i] - b[i]
		result[i+1] = a[i+1] - b[i+1]
		result[i+2] = a[i+2] - b[i+2]
		result[i+3] = a[i+3] - b[i+3]
	}
	for i := end; i < n; i++ {
		result[i] = a[i] - b[i]
	}
	return nil
}

// MulInto writes a[i] * b[i] into result.
func MulInto[T Numeric](a, b, result []T) error {
	if err := sameLength(len(a), len(b), len(result)); err != nil {
		return err
	}
	n := len(a)
	end := 0
	if n >= unrollMin {
		end = n - n%4
	}
	for i := 0; i < end; i += 4 {
		result[i] = a[i] * b[i]
		result[i+1] = a[i+1] * b[i+1]
		result[i+2] = a[i+2] * b[i+2]
		result[i+3] = a[i+3] * b[i+3]
	}
	for i := end; i < n; i++ {
		result[i] = a[i] * b[i]
	}
	return nil
}

func sameLength(a, b, result int) error {
	if a != b || a != result {
		return fmt.Errorf("slice length mismatch: %d, %d and %d", a, b, result)
	}
	return nil
}

// CountNulls recounts the set bits of a null mask.
func CountNulls(nm *NullMask) int {
	count := 0
	words := len(nm.Bits)
	end := words - words%4
	for i := 0; i < end; i += 4 {
		count += bits.OnesCount64(nm.Bits[i])
		count += bits.OnesCount64(nm.Bits[i+1])
		count += bits.OnesCount64(nm.Bits[i+2])
		count += bits.OnesCount64(nm.Bits[i+3])
	}
	for i := end; i < words; i++ {
		count += bits.OnesCount64(nm.Bits[i])
	}
	return count
}

// Dense reports whether every position of v below its length is non-null.
func (v *Vector) Dense() bool {
	return v.Nulls == nil || v.Nulls.NullCount == 0
}
