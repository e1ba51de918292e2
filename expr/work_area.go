package expr

import (
	"fmt"

	"coleval/vectorized"
)

// WorkArea holds the per-node results of one evaluation pass over one batch.
// Slots are written once, in plan order, and read by later nodes. A WorkArea
// belongs to a single pass and is not safe for concurrent use.
type WorkArea struct {
	input *vectorized.VectorBatch
	slots []*vectorized.Vector
}

// NewWorkArea creates an empty work area for a plan of numNodes nodes.
func NewWorkArea(input *vectorized.VectorBatch, numNodes int) *WorkArea {
	return &WorkArea{
		input: input,
		slots: make([]*vectorized.Vector, numNodes),
	}
}

// Reset empties every slot and switches to a new input batch.
func (wa *WorkArea) Reset(input *vectorized.VectorBatch) {
	wa.input = input
	for i := range wa.slots {
		wa.slots[i] = nil
	}
}

// Input returns the batch being evaluated.
func (wa *WorkArea) Input() *vectorized.VectorBatch { return wa.input }

// Rows returns the number of rows in the batch being evaluated.
func (wa *WorkArea) Rows() int {
	if wa.input == nil {
		return 0
	}
	return wa.input.RowCount
}

// Len returns the number of slots.
func (wa *WorkArea) Len() int { return len(wa.slots) }

// Stored reports whether position has been written in this pass.
func (wa *WorkArea) Stored(position int) bool {
	return position >= 0 && position < len(wa.slots) && wa.slots[position] != nil
}

// Store records the output of the node at position.
func (wa *WorkArea) Store(position int, v *vectorized.Vector) error {
	if position < 0 || position >= len(wa.slots) {
		return &OrderingViolationError{Position: position, Reason: fmt.Sprintf("outside work area of %d slots", len(wa.slots))}
	}
	if v == nil {
		return &OrderingViolationError{Position: position, Reason: "storing a nil vector"}
	}
	if wa.slots[position] != nil {
		return &OrderingViolationError{Position: position, Reason: "already stored in this pass"}
	}
	wa.slots[position] = v
	return nil
}

// Get returns the vector stored at position, failing if it is empty.
func (wa *WorkArea) Get(position int) (*vectorized.Vector, error) {
	if position < 0 || position >= len(wa.slots) {
		return nil, &OrderingViolationError{Position: position, Reason: fmt.Sprintf("outside work area of %d slots", len(wa.slots))}
	}
	v := wa.slots[position]
	if v == nil {
		return nil, &OrderingViolationError{Position: position, Reason: "read before it was computed"}
	}
	return v, nil
}

// Lookup returns the vector a handle refers to. Callers must treat the result
// as read-only.
func (wa *WorkArea) Lookup(h Handle) (*vectorized.Vector, error) {
	v, err := wa.Get(h.Position())
	if err != nil {
		return nil, err
	}
	if v.DataType != h.DataType() {
		return nil, &OrderingViolationError{
			Position: h.Position(),
			Reason:   fmt.Sprintf("slot holds %s, handle expects %s", v.DataType, h.DataType()),
		}
	}
	return v, nil
}
