package vectorized

import (
	"fmt"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/memory"
)

// ArrowType maps a data type onto its arrow equivalent.
func ArrowType(dt DataType) (arrow.DataType, error) {
	switch dt {
	case INT32:
		return arrow.PrimitiveTypes.Int32, nil
	case INT64:
		return arrow.PrimitiveTypes.Int64, nil
	case FLOAT64:
		return arrow.PrimitiveTypes.Float64, nil
	case STRING:
		return arrow.BinaryTypes.String, nil
	case BOOLEAN:
		return arrow.FixedWidthTypes.Boolean, nil
	default:
		return nil, fmt.Errorf("no arrow mapping for %s", dt)
	}
}

// FromArrowType maps an arrow type back onto a data type.
func FromArrowType(t arrow.DataType) (DataType, error) {
	switch t.ID() {
	case arrow.INT32:
		return INT32, nil
	case arrow.INT64:
		return INT64, nil
	case arrow.FLOAT64:
		return FLOAT64, nil
	case arrow.STRING:
		return STRING, nil
	case arrow.BOOL:
		return BOOLEAN, nil
	default:
		return 0, fmt.Errorf("unsupported arrow type %s", t)
	}
}

// ToArrow copies a vector into a new arrow array. The caller owns the result
// and must Release it.
func ToArrow(mem memory.Allocator, v *Vector) (arrow.Array, error) {
	if mem == nil {
		mem = memory.NewGoAllocator()
	}

	switch v.DataType {
	case INT32:
		b := array.NewInt32Builder(mem)
		defer b.Release()
		data := Values[int32](v)
		for i := range data {
			if v.IsNull(i) {
				b.AppendNull()
			} else {
				b.Append(data[i])
			}
		}
		return b.NewArray(), nil
	case INT64:
		b := array.NewInt64Builder(mem)
		defer b.Release()
		data := Values[int64](v)
		for i := range data {
			if v.IsNull(i) {
				b.AppendNull()
			} else {
				b.Append(data[i])
			}
		}
		return b.NewArray(), nil
	case FLOAT64:
		b := array.NewFloat64Builder(mem)
		defer b.Release()
		data := Values[float64](v)
		for i := range data {
			if v.IsNull(i) {
				b.AppendNull()
			} else {
				b.Append(data[i])
			}
		}
		return b.NewArray(), nil
	case STRING:
		b := array.NewStringBuilder(mem)
		defer b.Release()
		data := Values[string](v)
		for i := range data {
			if v.IsNull(i) {
				b.AppendNull()
			} else {
				b.Append(data[i])
			}
		}
		return b.NewArray(), nil
	case BOOLEAN:
		b := array.NewBooleanBuilder(mem)
		defer b.Release()
		data := Values[bool](v)
		for i := range data {
			if v.IsNull(i) {
				b.AppendNull()
			} else {
				b.Append(data[i])
			}
		}
		return b.NewArray(), nil
	default:
		return nil, fmt.Errorf("cannot export %s vector to arrow", v.DataType)
	}
}

// FromArrow copies an arrow array into a new vector.
func FromArrow(arr arrow.Array) (*Vector, error) {
	dt, err := FromArrowType(arr.DataType())
	if err != nil {
		return nil, err
	}
	n := arr.Len()
	v := NewVectorOfLength(dt, n)

	switch a := arr.(type) {
	case *array.Int32:
		data := v.Data.([]int32)
		for i := 0; i < n; i++ {
			if a.IsNull(i) {
				v.SetNull(i)
			} else {
				data[i] = a.Value(i)
			}
		}
	case *array.Int64:
		data := v.Data.([]int64)
		for i := 0; i < n; i++ {
			if a.IsNull(i) {
				v.SetNull(i)
			} else {
				data[i] = a.Value(i)
			}
		}
	case *array.Float64:
		data := v.Data.([]float64)
		for i := 0; i < n; i++ {
			if a.IsNull(i) {
				v.SetNull(i)
			} else {
				data[i] = a.Value(i)
			}
		}
	case *array.String:
		data := v.Data.([]string)
		for i := 0; i < n; i++ {
			if a.IsNull(i) {
				v.SetNull(i)
			} else {
				data[i] = a.Value(i)
			}
		}
	case *array.Boolean:
		data := v.Data.([]bool)
		for i := 0; i < n; i++ {
			if a.IsNull(i) {
				v.SetNull(i)
			} else {
				data[i] = a.Value(i)
			}
		}
	default:
		return nil, fmt.Errorf("unsupported arrow array %T", arr)
	}
	return v, nil
}

// ToArrowRecord exports a whole batch as an arrow record.
func ToArrowRecord(mem memory.Allocator, batch *VectorBatch) (arrow.Record, error) {
	fields := make([]arrow.Field, len(batch.Schema.Fields))
	cols := make([]arrow.Array, 0, len(batch.Columns))
	defer func() {
		for _, col := range cols {
			col.Release()
		}
	}()

	for i, field := range batch.Schema.Fields {
		at, err := ArrowType(field.DataType)
		if err != nil {
			return nil, fmt.Errorf("column %s: %w", field.Name, err)
		}
		fields[i] = arrow.Field{Name: field.Name, Type: at, Nullable: field.Nullable}

		col, err := ToArrow(mem, batch.Columns[i])
		if err != nil {
			return nil, fmt.Errorf("column %s: %w", field.Name, err)
		}
		cols = append(cols, col)
	}

	// NewRecord retains the columns; the deferred release drops our references.
	return array.NewRecord(arrow.NewSchema(fields, nil), cols, int64(batch.RowCount)), nil
}

// FromArrowRecord imports an arrow record as a batch.
func FromArrowRecord(rec arrow.Record) (*VectorBatch, error) {
	schema := &Schema{Fields: make([]*Field, rec.NumCols())}
	columns := make([]*Vector, rec.NumCols())
	for i, f := range rec.Schema().Fields() {
		col, err := FromArrow(rec.Column(i))
		if err != nil {
			return nil, fmt.Errorf("column %s: %w", f.Name, err)
		}
		schema.Fields[i] = &Field{Name: f.Name, DataType: col.DataType, Nullable: f.Nullable}
		columns[i] = col
	}
	return NewVectorBatchFromColumns(schema, columns)
}
