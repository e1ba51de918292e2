package stores

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"

	"golang.org/x/sync/singleflight"

	"coleval/trace"
)

// S3Options are connection defaults applied to s3:// locations that do not
// set them in their query string.
type S3Options struct {
	Region     string
	Endpoint   string
	PathStyle  bool
	DisableSSL bool
}

// Registry resolves locations to backends and caches one backend per key.
// Concurrent resolution of the same key constructs the backend once; a
// failed construction is not cached.
type Registry struct {
	mu     sync.RWMutex
	stores map[Key]ObjectStore
	group  singleflight.Group
	s3     S3Options
	create func(ctx context.Context, key Key) (ObjectStore, error)
}

// NewRegistry creates an empty registry
func NewRegistry(s3 S3Options) *Registry {
	return &Registry{
		stores: make(map[Key]ObjectStore),
		s3:     s3,
		create: createObjectStore,
	}
}

// KeyFor returns the backend key of u with connection defaults applied
func (r *Registry) KeyFor(u URL) Key {
	key := u.Key()
	if key.Kind == KindS3 {
		if key.Region == "" {
			key.Region = r.s3.Region
		}
		if key.Endpoint == "" {
			key.Endpoint = r.s3.Endpoint
		}
		key.PathStyle = key.PathStyle || r.s3.PathStyle
		key.DisableSSL = key.DisableSSL || r.s3.DisableSSL
	}
	return key
}

// ObjectStore returns the cached backend for u, creating it on first use
func (r *Registry) ObjectStore(ctx context.Context, u URL) (ObjectStore, error) {
	key := r.KeyFor(u)

	r.mu.RLock()
	store, ok := r.stores[key]
	r.mu.RUnlock()
	if ok {
		return store, nil
	}

	v, err, _ := r.group.Do(key.String(), func() (interface{}, error) {
		r.mu.RLock()
		existing, ok := r.stores[key]
		r.mu.RUnlock()
		if ok {
			return existing, nil
		}

		created, err := r.create(ctx, key)
		if err != nil {
			return nil, fmt.Errorf("%w for %s: %w", ErrCreatingStore, key, err)
		}

		r.mu.Lock()
		r.stores[key] = created
		r.mu.Unlock()

		trace.Get().Info(trace.ComponentStore, "Created object store",
			trace.Context("key", key.String(), "store", created.String()))
		return created, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(ObjectStore), nil
}

// Open returns ranged read access to the object at u
func (r *Registry) Open(ctx context.Context, u URL) (Object, error) {
	store, err := r.ObjectStore(ctx, u)
	if err != nil {
		return nil, err
	}
	return store.Open(ctx, u.ObjectPath())
}

// sourceReader remembers read failures so they are not blamed on the remote side
type sourceReader struct {
	r   io.Reader
	err error
}

func (s *sourceReader) Read(p []byte) (int, error) {
	n, err := s.r.Read(p)
	if err != nil && err != io.EOF {
		s.err = err
	}
	return n, err
}

// Upload copies the local file at localPath to target, encoding it with c.
// Failures opening or reading the local file are ErrLocalSource. Failures
// resolving the target store or creating, writing or committing the remote
// object are ErrRemoteWrite.
func (r *Registry) Upload(ctx context.Context, target URL, localPath string, c Compression) error {
	store, err := r.ObjectStore(ctx, target)
	if err != nil {
		return fmt.Errorf("%w: resolving %s: %w", ErrRemoteWrite, target, err)
	}

	file, err := os.Open(localPath)
	if err != nil {
		return fmt.Errorf("%w: opening %s: %w", ErrLocalSource, localPath, err)
	}
	defer file.Close()

	uploadCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	remote, err := store.Create(uploadCtx, target.ObjectPath())
	if err != nil {
		return fmt.Errorf("%w: creating %s: %w", ErrRemoteWrite, target, err)
	}
	encoder, err := NewCompressor(remote, c, CompressionLevelDefault)
	if err != nil {
		cancel()
		remote.Close()
		return fmt.Errorf("%w: %w", ErrRemoteWrite, err)
	}

	src := &sourceReader{r: file}
	written, err := io.Copy(encoder, src)
	if err != nil {
		// abandon the partial object
		cancel()
		encoder.Close()
		remote.Close()
		if src.err != nil {
			return fmt.Errorf("%w: reading %s: %w", ErrLocalSource, localPath, src.err)
		}
		return fmt.Errorf("%w: writing %s: %w", ErrRemoteWrite, target, err)
	}
	if err := encoder.Close(); err != nil {
		cancel()
		remote.Close()
		return fmt.Errorf("%w: flushing %s: %w", ErrRemoteWrite, target, err)
	}
	if err := remote.Close(); err != nil {
		return fmt.Errorf("%w: committing %s: %w", ErrRemoteWrite, target, err)
	}

	trace.Get().Debug(trace.ComponentStore, "Uploaded object", trace.Context(
		"source", localPath,
		"target", target.String(),
		"bytes", written,
		"compression", c.String(),
	))
	return nil
}

// Download copies the object at src to localPath, decoding it with c.
func (r *Registry) Download(ctx context.Context, src URL, localPath string, c Compression) error {
	obj, err := r.Open(ctx, src)
	if err != nil {
		return err
	}
	defer obj.Close()

	decoder, err := NewDecompressor(io.NewSectionReader(obj, 0, obj.Size()), c)
	if err != nil {
		return fmt.Errorf("downloading object from %s: %w", src, err)
	}
	defer decoder.Close()

	if err := os.MkdirAll(filepath.Dir(localPath), 0755); err != nil {
		return fmt.Errorf("downloading object from %s to %s: %w", src, localPath, err)
	}
	out, err := os.Create(localPath)
	if err != nil {
		return fmt.Errorf("downloading object from %s to %s: %w", src, localPath, err)
	}
	if _, err := io.Copy(out, decoder); err != nil {
		out.Close()
		return fmt.Errorf("downloading object from %s to %s: %w", src, localPath, err)
	}
	return out.Close()
}

// Close closes every cached backend and empties the cache
func (r *Registry) Close() error {
	r.mu.Lock()
	stores := r.stores
	r.stores = make(map[Key]ObjectStore)
	r.mu.Unlock()

	var firstErr error
	for key, store := range stores {
		if err := store.Close(); err != nil && firstErr == nil {
			firstErr = fmt.Errorf("closing %s: %w", key, err)
		}
	}
	return firstErr
}

// Len returns the number of cached backends
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.stores)
}
