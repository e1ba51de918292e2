// Package persist writes evaluated batches as parquet and reads parquet
// sources from any object store location.
package persist

import (
	"fmt"
	"io"

	"github.com/parquet-go/parquet-go/compress"

	"coleval/vectorized"
)

// WriteBatches writes batches sharing schema as one parquet stream. Parquet
// groups order their columns by name, so readers see columns sorted by name.
func WriteBatches(w io.Writer, schema *vectorized.Schema, batches []*vectorized.VectorBatch, codec compress.Codec) error {
	writer, err := vectorized.NewParquetBatchWriter(w, schema, codec)
	if err != nil {
		return err
	}
	for i, batch := range batches {
		if err := writer.WriteBatch(batch); err != nil {
			writer.Close()
			return fmt.Errorf("batch %d: %w", i, err)
		}
	}
	return writer.Close()
}

// WriteBatch writes a single batch as a parquet stream.
func WriteBatch(w io.Writer, batch *vectorized.VectorBatch, codec compress.Codec) error {
	return WriteBatches(w, batch.Schema, []*vectorized.VectorBatch{batch}, codec)
}

// ReadBatches reads a whole parquet stream into batches of at most batchSize rows.
func ReadBatches(r io.ReaderAt, size int64, batchSize int) ([]*vectorized.VectorBatch, error) {
	source, err := vectorized.NewParquetVectorDataSource(r, size, batchSize)
	if err != nil {
		return nil, err
	}
	defer source.Close()
	return drain(source)
}

func drain(source *vectorized.ParquetVectorDataSource) ([]*vectorized.VectorBatch, error) {
	var batches []*vectorized.VectorBatch
	for source.HasNext() {
		batch, err := source.GetNextBatch()
		if err != nil {
			return nil, err
		}
		if batch == nil {
			break
		}
		batches = append(batches, batch)
	}
	return batches, nil
}
