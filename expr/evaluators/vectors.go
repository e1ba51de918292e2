package evaluators

import (
	"fmt"

	"coleval/vectorized"
)

type number = vectorized.Numeric

// typedData returns the backing slice of v after checking it is well formed.
func typedData[T any](v *vectorized.Vector) ([]T, error) {
	data, ok := v.Data.([]T)
	if !ok {
		return nil, fmt.Errorf("%s vector holds %T", v.DataType, v.Data)
	}
	if len(data) < v.Length {
		return nil, fmt.Errorf("%s vector holds %d values for length %d", v.DataType, len(data), v.Length)
	}
	return data[:v.Length], nil
}

// mapValues applies f to every non-null element of in. A false result from f
// yields a null.
func mapValues[In, Out any](in *vectorized.Vector, outType vectorized.DataType, f func(In) (Out, bool)) (*vectorized.Vector, error) {
	src, err := typedData[In](in)
	if err != nil {
		return nil, err
	}
	out := vectorized.NewVectorOfLength(outType, in.Length)
	dst, err := typedData[Out](out)
	if err != nil {
		return nil, err
	}
	for i, x := range src {
		if in.IsNull(i) {
			out.SetNull(i)
			continue
		}
		y, ok := f(x)
		if !ok {
			out.SetNull(i)
			continue
		}
		dst[i] = y
	}
	return out, nil
}

// zipValues applies f element-wise to two vectors of the same length. A null
// on either side, or a false result from f, yields a null.
func zipValues[A, B, Out any](left, right *vectorized.Vector, outType vectorized.DataType, f func(A, B) (Out, bool)) (*vectorized.Vector, error) {
	if left.Length != right.Length {
		return nil, fmt.Errorf("argument lengths differ: %d and %d", left.Length, right.Length)
	}
	as, err := typedData[A](left)
	if err != nil {
		return nil, err
	}
	bs, err := typedData[B](right)
	if err != nil {
		return nil, err
	}
	out := vectorized.NewVectorOfLength(outType, left.Length)
	dst, err := typedData[Out](out)
	if err != nil {
		return nil, err
	}
	for i := range as {
		if left.IsNull(i) || right.IsNull(i) {
			out.SetNull(i)
			continue
		}
		y, ok := f(as[i], bs[i])
		if !ok {
			out.SetNull(i)
			continue
		}
		dst[i] = y
	}
	return out, nil
}
