package expr

import (
	"errors"
	"fmt"

	"coleval/vectorized"
)

// Evaluator computes one node's output for the batch held by a WorkArea.
// Implementations keep only the handles bound at construction and must not
// mutate vectors obtained through Lookup.
type Evaluator interface {
	Evaluate(wa *WorkArea) (*vectorized.Vector, error)
}

// Factory builds an Evaluator for one node, consuming its arguments in order.
type Factory func(info *StaticInfo) (Evaluator, error)

// EvaluatorFunc adapts a plain function to the Evaluator interface.
type EvaluatorFunc func(wa *WorkArea) (*vectorized.Vector, error)

// Evaluate calls f(wa).
func (f EvaluatorFunc) Evaluate(wa *WorkArea) (*vectorized.Vector, error) { return f(wa) }

// boundEvaluator tags failures with the node's identity and checks the shape
// of every output.
type boundEvaluator struct {
	inner      Evaluator
	operation  string
	index      int
	argTypes   []vectorized.DataType
	resultType vectorized.DataType
}

func (b *boundEvaluator) Evaluate(wa *WorkArea) (*vectorized.Vector, error) {
	out, err := b.inner.Evaluate(wa)
	if err != nil {
		var ov *OrderingViolationError
		if errors.As(err, &ov) {
			return nil, err
		}
		return nil, b.wrap(err)
	}
	switch {
	case out == nil:
		return nil, b.wrap(errors.New("no output produced"))
	case out.Length != wa.Rows():
		return nil, b.wrap(fmt.Errorf("produced %d rows for a batch of %d", out.Length, wa.Rows()))
	case out.DataType != b.resultType:
		return nil, b.wrap(fmt.Errorf("produced %s, declared %s", out.DataType, b.resultType))
	}
	return out, nil
}

func (b *boundEvaluator) wrap(err error) error {
	return &EvaluationError{Operation: b.operation, Node: b.index, ArgTypes: b.argTypes, Err: err}
}
