package vectorized

import (
	"fmt"
	"math"
	"strings"
)

// VectorBatch represents a batch of columnar data for vectorized processing
type VectorBatch struct {
	Schema   *Schema
	Columns  []*Vector
	RowCount int
	Capacity int
}

// Schema defines the structure of a vector batch
type Schema struct {
	Fields []*Field
}

// Field represents a column definition in the schema
type Field struct {
	Name     string
	DataType DataType
	Nullable bool
}

// DataType is the logical type tag carried by vectors and value handles
type DataType int

const (
	INT32 DataType = iota
	INT64
	FLOAT32
	FLOAT64
	STRING
	BOOLEAN
	DATE
	TIMESTAMP
	DECIMAL
)

// Vector represents a columnar vector of data
type Vector struct {
	DataType DataType
	Data     interface{} // Type-specific data array
	Nulls    *NullMask   // Bitmap for null values
	Length   int
	Capacity int
}

// NullMask efficiently tracks null values using bitmaps
type NullMask struct {
	Bits      []uint64
	Length    int
	NullCount int
}

const (
	DefaultBatchSize = 4096
	MaxBatchSize     = 65536
	MinBatchSize     = 64
)

// NewSchema builds a schema from fields.
func NewSchema(fields ...*Field) *Schema {
	return &Schema{Fields: fields}
}

// FieldIndex returns the position of the named field, or -1.
func (s *Schema) FieldIndex(name string) int {
	for i, field := range s.Fields {
		if field.Name == name {
			return i
		}
	}
	return -1
}

// NewVectorBatch creates a new vector batch with the given schema
func NewVectorBatch(schema *Schema, capacity int) *VectorBatch {
	if capacity <= 0 {
		capacity = DefaultBatchSize
	}

	columns := make([]*Vector, len(schema.Fields))
	for i, field := range schema.Fields {
		columns[i] = NewVector(field.DataType, capacity)
	}

	return &VectorBatch{
		Schema:   schema,
		Columns:  columns,
		RowCount: 0,
		Capacity: capacity,
	}
}

// NewVectorBatchFromColumns wraps already materialized columns. All columns
// must have the same length and match the schema's types.
func NewVectorBatchFromColumns(schema *Schema, columns []*Vector) (*VectorBatch, error) {
	if len(columns) != len(schema.Fields) {
		return nil, fmt.Errorf("column count mismatch: expected %d, got %d", len(schema.Fields), len(columns))
	}
	rows := 0
	for i, col := range columns {
		if col.DataType != schema.Fields[i].DataType {
			return nil, fmt.Errorf("column %s: expected %s, got %s", schema.Fields[i].Name, schema.Fields[i].DataType, col.DataType)
		}
		if i == 0 {
			rows = col.Length
		} else if col.Length != rows {
			return nil, fmt.Errorf("column %s: length %d differs from %d", schema.Fields[i].Name, col.Length, rows)
		}
	}
	return &VectorBatch{
		Schema:   schema,
		Columns:  columns,
		RowCount: rows,
		Capacity: rows,
	}, nil
}

// NewVector creates a new vector of the specified type and capacity
func NewVector(dataType DataType, capacity int) *Vector {
	vector := &Vector{
		DataType: dataType,
		Length:   0,
		Capacity: capacity,
		Nulls:    NewNullMask(capacity),
	}

	switch dataType {
	case INT32:
		vector.Data = make([]int32, capacity)
	case INT64:
		vector.Data = make([]int64, capacity)
	case FLOAT32:
		vector.Data = make([]float32, capacity)
	case FLOAT64:
		vector.Data = make([]float64, capacity)
	case STRING:
		vector.Data = make([]string, capacity)
	case BOOLEAN:
		vector.Data = make([]bool, capacity)
	default:
		vector.Data = make([]interface{}, capacity)
	}

	return vector
}

// NewVectorOfLength creates a vector whose Length already equals n. Every
// position starts non-null with the zero value.
func NewVectorOfLength(dataType DataType, n int) *Vector {
	vector := NewVector(dataType, n)
	vector.Length = n
	return vector
}

// VectorFromValues builds a vector from Go values; nil entries become nulls.
func VectorFromValues(dataType DataType, values ...interface{}) (*Vector, error) {
	vector := NewVectorOfLength(dataType, len(values))
	for i, value := range values {
		if value == nil {
			vector.SetNull(i)
			continue
		}
		if err := vector.setValue(i, value); err != nil {
			return nil, fmt.Errorf("value %d: %w", i, err)
		}
	}
	return vector, nil
}

// Broadcast builds a vector of n copies of value; a nil value gives n nulls.
func Broadcast(dataType DataType, value interface{}, n int) (*Vector, error) {
	vector := NewVectorOfLength(dataType, n)
	for i := 0; i < n; i++ {
		if value == nil {
			vector.SetNull(i)
			continue
		}
		if err := vector.setValue(i, value); err != nil {
			return nil, err
		}
	}
	return vector, nil
}

// NewNullMask creates a new null mask with the specified capacity
func NewNullMask(capacity int) *NullMask {
	numWords := (capacity + 63) / 64
	return &NullMask{
		Bits:      make([]uint64, numWords),
		Length:    capacity,
		NullCount: 0,
	}
}

// Values returns the typed backing slice of a vector, truncated to its length.
// It panics if T does not match the vector's storage type.
func Values[T any](v *Vector) []T {
	return v.Data.([]T)[:v.Length]
}

// GetInt32 retrieves an int32 value from the vector
func (v *Vector) GetInt32(index int) (int32, bool) {
	if v.DataType != INT32 || index >= v.Length || v.IsNull(index) {
		return 0, false
	}
	return v.Data.([]int32)[index], true
}

// GetInt64 retrieves an int64 value from the vector
func (v *Vector) GetInt64(index int) (int64, bool) {
	if v.DataType != INT64 || index >= v.Length || v.IsNull(index) {
		return 0, false
	}
	return v.Data.([]int64)[index], true
}

// GetFloat64 retrieves a float64 value from the vector
func (v *Vector) GetFloat64(index int) (float64, bool) {
	if v.DataType != FLOAT64 || index >= v.Length || v.IsNull(index) {
		return 0, false
	}
	return v.Data.([]float64)[index], true
}

// GetString retrieves a string value from the vector
func (v *Vector) GetString(index int) (string, bool) {
	if v.DataType != STRING || index >= v.Length || v.IsNull(index) {
		return "", false
	}
	return v.Data.([]string)[index], true
}

// GetBoolean retrieves a boolean value from the vector
func (v *Vector) GetBoolean(index int) (bool, bool) {
	if v.DataType != BOOLEAN || index >= v.Length || v.IsNull(index) {
		return false, false
	}
	return v.Data.([]bool)[index], true
}

// Get returns the value at index as an interface, or nil for nulls.
func (v *Vector) Get(index int) interface{} {
	if index >= v.Length || v.IsNull(index) {
		return nil
	}
	switch data := v.Data.(type) {
	case []int32:
		return data[index]
	case []int64:
		return data[index]
	case []float32:
		return data[index]
	case []float64:
		return data[index]
	case []string:
		return data[index]
	case []bool:
		return data[index]
	case []interface{}:
		return data[index]
	}
	return nil
}

// SetInt32 sets an int32 value in the vector
func (v *Vector) SetInt32(index int, value int32) {
	if v.DataType != INT32 || index >= v.Capacity {
		return
	}
	v.Data.([]int32)[index] = value
	v.markSet(index)
}

// SetInt64 sets an int64 value in the vector
func (v *Vector) SetInt64(index int, value int64) {
	if v.DataType != INT64 || index >= v.Capacity {
		return
	}
	v.Data.([]int64)[index] = value
	v.markSet(index)
}

// SetFloat64 sets a float64 value in the vector
func (v *Vector) SetFloat64(index int, value float64) {
	if v.DataType != FLOAT64 || index >= v.Capacity {
		return
	}
	v.Data.([]float64)[index] = value
	v.markSet(index)
}

// SetString sets a string value in the vector
func (v *Vector) SetString(index int, value string) {
	if v.DataType != STRING || index >= v.Capacity {
		return
	}
	v.Data.([]string)[index] = value
	v.markSet(index)
}

// SetBoolean sets a boolean value in the vector
func (v *Vector) SetBoolean(index int, value bool) {
	if v.DataType != BOOLEAN || index >= v.Capacity {
		return
	}
	v.Data.([]bool)[index] = value
	v.markSet(index)
}

func (v *Vector) markSet(index int) {
	v.Nulls.SetNotNull(index)
	if index >= v.Length {
		v.Length = index + 1
	}
}

// SetNull marks a position as null
func (v *Vector) SetNull(index int) {
	if index < v.Capacity {
		v.Nulls.SetNull(index)
		if index >= v.Length {
			v.Length = index + 1
		}
	}
}

// IsNull checks if a position is null
func (v *Vector) IsNull(index int) bool {
	return v.Nulls.IsNull(index)
}

// NullCount returns the number of null positions
func (v *Vector) NullCount() int {
	return v.Nulls.NullCount
}

// setValue converts a Go value into the vector's storage type
func (v *Vector) setValue(index int, value interface{}) error {
	switch v.DataType {
	case INT32:
		switch x := value.(type) {
		case int32:
			v.SetInt32(index, x)
		case int:
			if x < math.MinInt32 || x > math.MaxInt32 {
				return fmt.Errorf("%d overflows int32", x)
			}
			v.SetInt32(index, int32(x))
		case int64:
			if x < math.MinInt32 || x > math.MaxInt32 {
				return fmt.Errorf("%d overflows int32", x)
			}
			v.SetInt32(index, int32(x))
		default:
			return fmt.Errorf("cannot convert %T to int32", value)
		}
	case INT64:
		switch x := value.(type) {
		case int64:
			v.SetInt64(index, x)
		case int:
			v.SetInt64(index, int64(x))
		case int32:
			v.SetInt64(index, int64(x))
		default:
			return fmt.Errorf("cannot convert %T to int64", value)
		}
	case FLOAT64:
		switch x := value.(type) {
		case float64:
			v.SetFloat64(index, x)
		case float32:
			v.SetFloat64(index, float64(x))
		case int:
			v.SetFloat64(index, float64(x))
		case int64:
			v.SetFloat64(index, float64(x))
		default:
			return fmt.Errorf("cannot convert %T to float64", value)
		}
	case STRING:
		x, ok := value.(string)
		if !ok {
			return fmt.Errorf("cannot convert %T to string", value)
		}
		v.SetString(index, x)
	case BOOLEAN:
		x, ok := value.(bool)
		if !ok {
			return fmt.Errorf("cannot convert %T to bool", value)
		}
		v.SetBoolean(index, x)
	default:
		return fmt.Errorf("unsupported vector type %s", v.DataType)
	}
	return nil
}

// NullMask methods for efficient null handling

// IsNull checks if a bit is set (indicating null)
func (nm *NullMask) IsNull(index int) bool {
	if index >= nm.Length {
		return false
	}
	wordIndex := index / 64
	bitIndex := index % 64
	return (nm.Bits[wordIndex] & (1 << bitIndex)) != 0
}

// SetNull sets a bit to indicate null
func (nm *NullMask) SetNull(index int) {
	if index >= nm.Length {
		return
	}
	wordIndex := index / 64
	bitIndex := index % 64
	if (nm.Bits[wordIndex] & (1 << bitIndex)) == 0 {
		nm.Bits[wordIndex] |= (1 << bitIndex)
		nm.NullCount++
	}
}

// SetNotNull clears a bit to indicate not null
func (nm *NullMask) SetNotNull(index int) {
	if index >= nm.Length {
		return
	}
	wordIndex := index / 64
	bitIndex := index % 64
	if (nm.Bits[wordIndex] & (1 << bitIndex)) != 0 {
		nm.Bits[wordIndex] &^= (1 << bitIndex)
		nm.NullCount--
	}
}

// HasNulls returns true if there are any null values
func (nm *NullMask) HasNulls() bool {
	return nm.NullCount > 0
}

// AddRow adds a row to the batch
func (vb *VectorBatch) AddRow(values []interface{}) error {
	if vb.RowCount >= vb.Capacity {
		return fmt.Errorf("batch is full")
	}

	if len(values) != len(vb.Columns) {
		return fmt.Errorf("value count mismatch: expected %d, got %d", len(vb.Columns), len(values))
	}

	for i, value := range values {
		col := vb.Columns[i]
		if value == nil {
			col.SetNull(vb.RowCount)
			continue
		}
		if err := col.setValue(vb.RowCount, value); err != nil {
			return fmt.Errorf("column %s: %w", vb.Schema.Fields[i].Name, err)
		}
	}

	vb.RowCount++
	return nil
}

// GetColumn returns a column by index
func (vb *VectorBatch) GetColumn(index int) *Vector {
	if index < len(vb.Columns) {
		return vb.Columns[index]
	}
	return nil
}

// GetColumnByName returns a column by name
func (vb *VectorBatch) GetColumnByName(name string) *Vector {
	if i := vb.Schema.FieldIndex(name); i >= 0 {
		return vb.Columns[i]
	}
	return nil
}

// Row returns the values of one row; nulls are nil.
func (vb *VectorBatch) Row(index int) []interface{} {
	row := make([]interface{}, len(vb.Columns))
	for i, col := range vb.Columns {
		row[i] = col.Get(index)
	}
	return row
}

// String returns the string representation of a data type
func (dt DataType) String() string {
	switch dt {
	case INT32:
		return "INT32"
	case INT64:
		return "INT64"
	case FLOAT32:
		return "FLOAT32"
	case FLOAT64:
		return "FLOAT64"
	case STRING:
		return "STRING"
	case BOOLEAN:
		return "BOOLEAN"
	case DATE:
		return "DATE"
	case TIMESTAMP:
		return "TIMESTAMP"
	case DECIMAL:
		return "DECIMAL"
	default:
		return "UNKNOWN"
	}
}

// ParseDataType parses a type name such as "string" or "INT64".
func ParseDataType(name string) (DataType, error) {
	switch strings.ToUpper(strings.TrimSpace(name)) {
	case "INT32", "INT":
		return INT32, nil
	case "INT64", "BIGINT":
		return INT64, nil
	case "FLOAT32", "FLOAT":
		return FLOAT32, nil
	case "FLOAT64", "DOUBLE":
		return FLOAT64, nil
	case "STRING", "UTF8":
		return STRING, nil
	case "BOOLEAN", "BOOL":
		return BOOLEAN, nil
	case "DATE":
		return DATE, nil
	case "TIMESTAMP":
		return TIMESTAMP, nil
	case "DECIMAL":
		return DECIMAL, nil
	default:
		return 0, fmt.Errorf("unknown data type %q", name)
	}
}

// IsNumeric returns true if the data type is numeric
func (dt DataType) IsNumeric() bool {
	switch dt {
	case INT32, INT64, FLOAT32, FLOAT64, DECIMAL:
		return true
	default:
		return false
	}
}

// IsMaterialized reports whether vectors of this type have typed storage.
func (dt DataType) IsMaterialized() bool {
	switch dt {
	case INT32, INT64, FLOAT64, STRING, BOOLEAN:
		return true
	default:
		return false
	}
}
