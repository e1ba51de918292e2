package persist

import (
	"context"
	"fmt"

	"coleval/stores"
	"coleval/trace"
	"coleval/vectorized"
)

// Source streams parquet batches from an object store location.
type Source struct {
	*vectorized.ParquetVectorDataSource
	location stores.URL
	object   stores.Object
}

// OpenSource opens the parquet object at location through registry.
func OpenSource(ctx context.Context, registry *stores.Registry, location stores.URL, batchSize int) (*Source, error) {
	obj, err := registry.Open(ctx, location)
	if err != nil {
		return nil, err
	}
	data, err := vectorized.NewParquetVectorDataSource(obj, obj.Size(), batchSize)
	if err != nil {
		obj.Close()
		return nil, fmt.Errorf("opening %s: %w", location, err)
	}

	trace.Get().Info(trace.ComponentPersist, "Opened parquet source", trace.Context(
		"location", location.String(),
		"bytes", obj.Size(),
		"rows", data.GetEstimatedRowCount(),
		"columns", len(data.GetSchema().Fields),
	))
	return &Source{ParquetVectorDataSource: data, location: location, object: obj}, nil
}

// Location returns where the source reads from
func (s *Source) Location() stores.URL { return s.location }

// ReadAll returns every remaining batch
func (s *Source) ReadAll() ([]*vectorized.VectorBatch, error) {
	batches, err := drain(s.ParquetVectorDataSource)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", s.location, err)
	}
	return batches, nil
}

// Close releases the parquet reader and the object
func (s *Source) Close() error {
	err := s.ParquetVectorDataSource.Close()
	if cerr := s.object.Close(); err == nil {
		err = cerr
	}
	return err
}
