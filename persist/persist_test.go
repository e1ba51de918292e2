package persist

import (
	"bytes"
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/parquet-go/parquet-go"

	"coleval/stores"
	"coleval/vectorized"
)

// column names are already in name order so the round trip keeps positions
func sampleBatch(t *testing.T) *vectorized.VectorBatch {
	t.Helper()
	schema := vectorized.NewSchema(
		&vectorized.Field{Name: "active", DataType: vectorized.BOOLEAN, Nullable: true},
		&vectorized.Field{Name: "count", DataType: vectorized.INT32, Nullable: true},
		&vectorized.Field{Name: "id", DataType: vectorized.INT64, Nullable: true},
		&vectorized.Field{Name: "name", DataType: vectorized.STRING, Nullable: true},
		&vectorized.Field{Name: "score", DataType: vectorized.FLOAT64, Nullable: true},
	)
	batch := vectorized.NewVectorBatch(schema, 4)
	rows := [][]interface{}{
		{true, int32(1), int64(100), "alpha", 1.5},
		{nil, int32(2), int64(200), nil, 2.5},
		{false, nil, int64(300), "gamma", nil},
	}
	for _, row := range rows {
		if err := batch.AddRow(row); err != nil {
			t.Fatal(err)
		}
	}
	return batch
}

func batchRows(batches []*vectorized.VectorBatch) [][]interface{} {
	var rows [][]interface{}
	for _, b := range batches {
		for i := 0; i < b.RowCount; i++ {
			rows = append(rows, b.Row(i))
		}
	}
	return rows
}

func TestWriteReadBatches_RoundTripWithNulls(t *testing.T) {
	for _, codec := range []string{"none", "snappy", "zstd", "gzip"} {
		t.Run(codec, func(t *testing.T) {
			c, err := vectorized.ParquetCodec(codec)
			if err != nil {
				t.Fatal(err)
			}
			in := sampleBatch(t)

			var buf bytes.Buffer
			if err := WriteBatch(&buf, in, c); err != nil {
				t.Fatalf("WriteBatch failed: %v", err)
			}
			out, err := ReadBatches(bytes.NewReader(buf.Bytes()), int64(buf.Len()), 2)
			if err != nil {
				t.Fatalf("ReadBatches failed: %v", err)
			}

			if len(out) != 2 {
				t.Errorf("Expected 2 batches of at most 2 rows, got %d", len(out))
			}
			if diff := cmp.Diff(batchRows([]*vectorized.VectorBatch{in}), batchRows(out)); diff != "" {
				t.Errorf("Round trip mismatch (-want +got):\n%s", diff)
			}
			for i, f := range out[0].Schema.Fields {
				if f.Name != in.Schema.Fields[i].Name || f.DataType != in.Schema.Fields[i].DataType {
					t.Errorf("Field %d: expected %s %s, got %s %s", i, in.Schema.Fields[i].Name, in.Schema.Fields[i].DataType, f.Name, f.DataType)
				}
			}
		})
	}
}

func TestCheckpoint_MemoryStore(t *testing.T) {
	ctx := context.Background()
	registry := stores.NewRegistry(stores.S3Options{})
	defer registry.Close()

	in := sampleBatch(t)
	checkpointer := NewCheckpointer(registry, stores.MustParseURL("mem:///checkpoints"), &parquet.Snappy, stores.CompressionNone).
		WithTempDir(t.TempDir())

	target, err := checkpointer.Checkpoint(ctx, "run-1", in.Schema, in, in)
	if err != nil {
		t.Fatalf("Checkpoint failed: %v", err)
	}
	if target.String() != "mem:///checkpoints/run-1.parquet" {
		t.Errorf("Unexpected target %s", target)
	}

	source, err := OpenSource(ctx, registry, target, 16)
	if err != nil {
		t.Fatalf("OpenSource failed: %v", err)
	}
	defer source.Close()

	if source.GetEstimatedRowCount() != 6 {
		t.Errorf("Expected 6 rows, got %d", source.GetEstimatedRowCount())
	}
	batches, err := source.ReadAll()
	if err != nil {
		t.Fatalf("ReadAll failed: %v", err)
	}
	want := append(batchRows([]*vectorized.VectorBatch{in}), batchRows([]*vectorized.VectorBatch{in})...)
	if diff := cmp.Diff(want, batchRows(batches)); diff != "" {
		t.Errorf("Checkpoint mismatch (-want +got):\n%s", diff)
	}
}

func TestCheckpoint_LocalStore(t *testing.T) {
	ctx := context.Background()
	registry := stores.NewRegistry(stores.S3Options{})
	defer registry.Close()

	location, err := stores.LocalURL(filepath.Join(t.TempDir(), "out"))
	if err != nil {
		t.Fatal(err)
	}
	in := sampleBatch(t)
	target, err := NewCheckpointer(registry, location, nil, stores.CompressionNone).Checkpoint(ctx, "final", in.Schema, in)
	if err != nil {
		t.Fatalf("Checkpoint failed: %v", err)
	}

	source, err := OpenSource(ctx, registry, target, 0)
	if err != nil {
		t.Fatalf("OpenSource failed: %v", err)
	}
	defer source.Close()
	batches, err := source.ReadAll()
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff(batchRows([]*vectorized.VectorBatch{in}), batchRows(batches)); diff != "" {
		t.Errorf("Checkpoint mismatch (-want +got):\n%s", diff)
	}
}

func TestOpenSource_Missing(t *testing.T) {
	registry := stores.NewRegistry(stores.S3Options{})
	defer registry.Close()

	_, err := OpenSource(context.Background(), registry, stores.MustParseURL("mem:///nope.parquet"), 10)
	if !errors.Is(err, stores.ErrObjectNotFound) {
		t.Errorf("Expected not found, got %v", err)
	}
}
