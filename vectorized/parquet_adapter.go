package vectorized

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/parquet-go/parquet-go"
	"github.com/parquet-go/parquet-go/compress"
)

// ParquetVectorDataSource reads a parquet file as a sequence of vector batches
type ParquetVectorDataSource struct {
	file      *parquet.File
	reader    *parquet.Reader
	schema    *Schema
	fieldOf   map[int]int // parquet column index -> schema field index
	batchSize int
	totalRows int64
	rowsRead  int64
	rowBuf    []parquet.Row
}

// NewParquetVectorDataSource opens a parquet file over any io.ReaderAt
func NewParquetVectorDataSource(input io.ReaderAt, size int64, batchSize int) (*ParquetVectorDataSource, error) {
	if input == nil {
		return nil, fmt.Errorf("parquet input cannot be nil")
	}
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}

	file, err := parquet.OpenFile(input, size)
	if err != nil {
		return nil, fmt.Errorf("failed to open parquet file: %w", err)
	}

	schema, fieldOf, err := convertParquetSchema(file.Schema())
	if err != nil {
		return nil, fmt.Errorf("failed to convert parquet schema: %w", err)
	}

	return &ParquetVectorDataSource{
		file:      file,
		reader:    parquet.NewReader(file),
		schema:    schema,
		fieldOf:   fieldOf,
		batchSize: batchSize,
		totalRows: file.NumRows(),
		rowBuf:    make([]parquet.Row, batchSize),
	}, nil
}

// GetSchema returns the vectorized schema
func (pvds *ParquetVectorDataSource) GetSchema() *Schema {
	return pvds.schema
}

// HasNext returns true if there are more batches to read
func (pvds *ParquetVectorDataSource) HasNext() bool {
	return pvds.rowsRead < pvds.totalRows
}

// GetEstimatedRowCount returns the total number of rows
func (pvds *ParquetVectorDataSource) GetEstimatedRowCount() int {
	return int(pvds.totalRows)
}

// GetNextBatch reads the next batch. It returns nil, nil at the end of data.
func (pvds *ParquetVectorDataSource) GetNextBatch() (*VectorBatch, error) {
	if !pvds.HasNext() {
		return nil, nil
	}

	n, err := pvds.reader.ReadRows(pvds.rowBuf)
	if err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("failed to read rows at offset %d: %w", pvds.rowsRead, err)
	}
	if n == 0 {
		pvds.rowsRead = pvds.totalRows
		return nil, nil
	}

	batch := NewVectorBatch(pvds.schema, n)
	for rowIdx, row := range pvds.rowBuf[:n] {
		for _, value := range row {
			fieldIdx, ok := pvds.fieldOf[value.Column()]
			if !ok {
				continue
			}
			if err := setParquetValue(batch.Columns[fieldIdx], rowIdx, value); err != nil {
				return nil, fmt.Errorf("column %s row %d: %w", pvds.schema.Fields[fieldIdx].Name, pvds.rowsRead+int64(rowIdx), err)
			}
		}
	}
	for _, col := range batch.Columns {
		col.Length = n
	}
	batch.RowCount = n
	pvds.rowsRead += int64(n)
	return batch, nil
}

// Close releases the underlying reader
func (pvds *ParquetVectorDataSource) Close() error {
	return pvds.reader.Close()
}

func setParquetValue(vector *Vector, index int, value parquet.Value) error {
	if value.IsNull() {
		vector.SetNull(index)
		return nil
	}
	switch vector.DataType {
	case INT32:
		vector.SetInt32(index, value.Int32())
	case INT64:
		vector.SetInt64(index, value.Int64())
	case FLOAT64:
		if value.Kind() == parquet.Float {
			vector.SetFloat64(index, float64(value.Float()))
		} else {
			vector.SetFloat64(index, value.Double())
		}
	case STRING:
		vector.SetString(index, string(value.ByteArray()))
	case BOOLEAN:
		vector.SetBoolean(index, value.Boolean())
	default:
		return fmt.Errorf("unsupported vector type %s", vector.DataType)
	}
	return nil
}

// convertParquetSchema maps the top-level leaf columns of a parquet schema
func convertParquetSchema(ps *parquet.Schema) (*Schema, map[int]int, error) {
	schema := &Schema{}
	fieldOf := make(map[int]int)

	for _, f := range ps.Fields() {
		if !f.Leaf() {
			return nil, nil, fmt.Errorf("nested column %s is not supported", f.Name())
		}
		var dt DataType
		switch f.Type().Kind() {
		case parquet.Boolean:
			dt = BOOLEAN
		case parquet.Int32:
			dt = INT32
		case parquet.Int64:
			dt = INT64
		case parquet.Float, parquet.Double:
			dt = FLOAT64
		case parquet.ByteArray, parquet.FixedLenByteArray:
			dt = STRING
		default:
			return nil, nil, fmt.Errorf("column %s: unsupported parquet kind %s", f.Name(), f.Type().Kind())
		}
		leaf, ok := ps.Lookup(f.Name())
		if !ok {
			return nil, nil, fmt.Errorf("column %s not found in schema", f.Name())
		}
		fieldOf[leaf.ColumnIndex] = len(schema.Fields)
		schema.Fields = append(schema.Fields, &Field{
			Name:     f.Name(),
			DataType: dt,
			Nullable: f.Optional(),
		})
	}
	return schema, fieldOf, nil
}

// ParquetCodec resolves a column compression codec by name
func ParquetCodec(name string) (compress.Codec, error) {
	switch strings.ToLower(name) {
	case "", "none", "uncompressed":
		return &parquet.Uncompressed, nil
	case "snappy":
		return &parquet.Snappy, nil
	case "zstd":
		return &parquet.Zstd, nil
	case "gzip":
		return &parquet.Gzip, nil
	default:
		return nil, fmt.Errorf("unknown parquet compression %q", name)
	}
}

// NewParquetSchema builds an all-optional parquet schema for a vector schema
func NewParquetSchema(schema *Schema) (*parquet.Schema, error) {
	group := make(parquet.Group)
	for _, field := range schema.Fields {
		var node parquet.Node
		switch field.DataType {
		case INT32:
			node = parquet.Int(32)
		case INT64:
			node = parquet.Int(64)
		case FLOAT64:
			node = parquet.Leaf(parquet.DoubleType)
		case STRING:
			node = parquet.String()
		case BOOLEAN:
			node = parquet.Leaf(parquet.BooleanType)
		default:
			return nil, fmt.Errorf("column %s: cannot persist %s", field.Name, field.DataType)
		}
		if _, exists := group[field.Name]; exists {
			return nil, fmt.Errorf("duplicate column name %s", field.Name)
		}
		group[field.Name] = parquet.Optional(node)
	}
	return parquet.NewSchema("batch", group), nil
}

// ParquetBatchWriter writes vector batches into a parquet stream
type ParquetBatchWriter struct {
	writer   *parquet.Writer
	schema   *Schema
	columnOf []int // schema field index -> parquet column index
}

// NewParquetBatchWriter creates a writer for batches of the given schema
func NewParquetBatchWriter(output io.Writer, schema *Schema, codec compress.Codec) (*ParquetBatchWriter, error) {
	ps, err := NewParquetSchema(schema)
	if err != nil {
		return nil, err
	}

	columnOf := make([]int, len(schema.Fields))
	for i, field := range schema.Fields {
		leaf, ok := ps.Lookup(field.Name)
		if !ok {
			return nil, fmt.Errorf("column %s missing from parquet schema", field.Name)
		}
		columnOf[i] = leaf.ColumnIndex
	}

	options := []parquet.WriterOption{ps}
	if codec != nil {
		options = append(options, parquet.Compression(codec))
	}
	return &ParquetBatchWriter{
		writer:   parquet.NewWriter(output, options...),
		schema:   schema,
		columnOf: columnOf,
	}, nil
}

// WriteBatch appends all rows of the batch
func (w *ParquetBatchWriter) WriteBatch(batch *VectorBatch) error {
	if len(batch.Columns) != len(w.schema.Fields) {
		return fmt.Errorf("column count mismatch: expected %d, got %d", len(w.schema.Fields), len(batch.Columns))
	}

	rows := make([]parquet.Row, batch.RowCount)
	for r := range rows {
		row := make(parquet.Row, len(w.columnOf))
		for i, col := range batch.Columns {
			row[w.columnOf[i]] = parquetValue(col, r, w.columnOf[i])
		}
		rows[r] = row
	}

	if _, err := w.writer.WriteRows(rows); err != nil {
		return fmt.Errorf("failed to write rows: %w", err)
	}
	return nil
}

// Close flushes and writes the parquet footer
func (w *ParquetBatchWriter) Close() error {
	return w.writer.Close()
}

func parquetValue(col *Vector, row, columnIndex int) parquet.Value {
	if col.IsNull(row) {
		return parquet.NullValue().Level(0, 0, columnIndex)
	}
	var v parquet.Value
	switch data := col.Data.(type) {
	case []int32:
		v = parquet.Int32Value(data[row])
	case []int64:
		v = parquet.Int64Value(data[row])
	case []float64:
		v = parquet.DoubleValue(data[row])
	case []string:
		v = parquet.ByteArrayValue([]byte(data[row]))
	case []bool:
		v = parquet.BooleanValue(data[row])
	default:
		return parquet.NullValue().Level(0, 0, columnIndex)
	}
	return v.Level(0, 1, columnIndex)
}
