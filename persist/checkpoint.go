package persist

import (
	"context"
	"fmt"
	"os"

	"github.com/parquet-go/parquet-go/compress"

	"coleval/stores"
	"coleval/trace"
	"coleval/vectorized"
)

// Checkpointer persists evaluated batches under a store location. Each
// checkpoint is staged in a local temp file and uploaded as
// <location>/<name>.parquet.
type Checkpointer struct {
	registry    *stores.Registry
	location    stores.URL
	codec       compress.Codec
	compression stores.Compression
	tempDir     string
}

// NewCheckpointer creates a checkpointer. codec compresses parquet pages;
// compression encodes the uploaded stream and is usually none.
func NewCheckpointer(registry *stores.Registry, location stores.URL, codec compress.Codec, compression stores.Compression) *Checkpointer {
	return &Checkpointer{
		registry:    registry,
		location:    location,
		codec:       codec,
		compression: compression,
	}
}

// WithTempDir stages files in dir instead of the system temp directory
func (c *Checkpointer) WithTempDir(dir string) *Checkpointer {
	c.tempDir = dir
	return c
}

// Target returns the location a checkpoint called name is written to
func (c *Checkpointer) Target(name string) stores.URL {
	return c.location.Join(name + ".parquet" + c.compression.Extension())
}

// Checkpoint writes batches under name and returns their location.
func (c *Checkpointer) Checkpoint(ctx context.Context, name string, schema *vectorized.Schema, batches ...*vectorized.VectorBatch) (stores.URL, error) {
	tmp, err := os.CreateTemp(c.tempDir, "coleval-checkpoint-*.parquet")
	if err != nil {
		return stores.URL{}, fmt.Errorf("staging checkpoint %s: %w", name, err)
	}
	defer os.Remove(tmp.Name())

	if err := WriteBatches(tmp, schema, batches, c.codec); err != nil {
		tmp.Close()
		return stores.URL{}, fmt.Errorf("writing checkpoint %s: %w", name, err)
	}
	if err := tmp.Close(); err != nil {
		return stores.URL{}, fmt.Errorf("writing checkpoint %s: %w", name, err)
	}

	target := c.Target(name)
	if err := c.registry.Upload(ctx, target, tmp.Name(), c.compression); err != nil {
		trace.Get().Error(trace.ComponentPersist, "Checkpoint upload failed",
			trace.Context("target", target.String(), "error", err.Error()))
		return stores.URL{}, fmt.Errorf("uploading checkpoint %s: %w", name, err)
	}

	trace.Get().Info(trace.ComponentPersist, "Checkpoint written",
		trace.Context("target", target.String(), "batches", len(batches)))
	return target, nil
}
