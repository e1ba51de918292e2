package stores

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"gocloud.dev/blob"
	"gocloud.dev/blob/fileblob"
	"gocloud.dev/blob/memblob"
	"gocloud.dev/gcerrors"
	"howett.net/ranger"

	// registered for blob.OpenBucket
	_ "gocloud.dev/blob/gcsblob"
	_ "gocloud.dev/blob/s3blob"
)

// ObjectStore is a resolved backend. Implementations are safe for concurrent use.
type ObjectStore interface {
	// Open returns ranged read access to an existing object
	Open(ctx context.Context, path string) (Object, error)
	// Create starts writing an object. Cancelling ctx before Close abandons it.
	Create(ctx context.Context, path string) (io.WriteCloser, error)
	Close() error
	String() string
}

// Object is an opened object with random access reads.
type Object interface {
	io.ReaderAt
	io.Closer
	Size() int64
}

// createObjectStore constructs the backend for a key
func createObjectStore(ctx context.Context, key Key) (ObjectStore, error) {
	switch key.Kind {
	case KindLocal:
		bucket, err := fileblob.OpenBucket("/", &fileblob.Options{
			NoTempDir: true,
			Metadata:  fileblob.MetadataDontWrite,
		})
		if err != nil {
			return nil, err
		}
		return &blobStore{bucket: bucket, name: "LocalFileSystem(file:///)"}, nil
	case KindMemory:
		return &blobStore{bucket: memblob.OpenBucket(nil), name: "InMemory"}, nil
	case KindS3:
		q := url.Values{}
		if key.Region != "" {
			q.Set("region", key.Region)
		}
		if key.Endpoint != "" {
			q.Set("endpoint", key.Endpoint)
		}
		if key.PathStyle {
			q.Set("use_path_style", "true")
		}
		if key.DisableSSL {
			q.Set("disable_https", "true")
		}
		u := url.URL{Scheme: "s3", Host: key.Bucket, RawQuery: q.Encode()}
		bucket, err := blob.OpenBucket(ctx, u.String())
		if err != nil {
			return nil, err
		}
		return &blobStore{bucket: bucket, name: fmt.Sprintf("AmazonS3(%s)", key.Bucket)}, nil
	case KindGCS:
		bucket, err := blob.OpenBucket(ctx, "gs://"+key.Bucket)
		if err != nil {
			return nil, err
		}
		return &blobStore{bucket: bucket, name: fmt.Sprintf("GoogleCloudStorage(%s)", key.Bucket)}, nil
	case KindHTTP:
		return &httpStore{client: http.DefaultClient, name: fmt.Sprintf("HTTP(%s)", key)}, nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedScheme, key.Kind)
	}
}

// blobStore adapts a gocloud bucket
type blobStore struct {
	bucket *blob.Bucket
	name   string
}

func (s *blobStore) String() string { return s.name }

func (s *blobStore) Open(ctx context.Context, path string) (Object, error) {
	attrs, err := s.bucket.Attributes(ctx, path)
	if err != nil {
		if gcerrors.Code(err) == gcerrors.NotFound {
			return nil, fmt.Errorf("%w: %s in %s", ErrObjectNotFound, path, s.name)
		}
		return nil, fmt.Errorf("reading attributes of %s: %w", path, err)
	}
	return &blobObject{ctx: ctx, bucket: s.bucket, key: path, size: attrs.Size}, nil
}

func (s *blobStore) Create(ctx context.Context, path string) (io.WriteCloser, error) {
	w, err := s.bucket.NewWriter(ctx, path, nil)
	if err != nil {
		return nil, err
	}
	return w, nil
}

func (s *blobStore) Close() error { return s.bucket.Close() }

type blobObject struct {
	ctx    context.Context
	bucket *blob.Bucket
	key    string
	size   int64
}

func (o *blobObject) Size() int64 { return o.size }

func (o *blobObject) ReadAt(p []byte, off int64) (int, error) {
	if off >= o.size {
		return 0, io.EOF
	}
	want := int64(len(p))
	if off+want > o.size {
		want = o.size - off
	}
	r, err := o.bucket.NewRangeReader(o.ctx, o.key, off, want, nil)
	if err != nil {
		return 0, err
	}
	defer r.Close()

	n, err := io.ReadFull(r, p[:want])
	if err == nil && n < len(p) {
		err = io.EOF
	}
	return n, err
}

func (o *blobObject) Close() error { return nil }

// httpStore reads objects over HTTP range requests. It cannot write.
type httpStore struct {
	client *http.Client
	name   string
}

func (s *httpStore) String() string { return s.name }

func (s *httpStore) Open(ctx context.Context, rawURL string) (Object, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("%w %q: %v", ErrInvalidURL, rawURL, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodHead, rawURL, nil)
	if err != nil {
		return nil, err
	}
	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("requesting %s: %w", rawURL, err)
	}
	resp.Body.Close()
	if resp.StatusCode == http.StatusNotFound {
		return nil, fmt.Errorf("%w: %s", ErrObjectNotFound, rawURL)
	}
	if resp.StatusCode >= 300 {
		return nil, fmt.Errorf("requesting %s: %s", rawURL, resp.Status)
	}

	reader, err := ranger.NewReader(&ranger.HTTPRanger{URL: u})
	if err != nil {
		return nil, fmt.Errorf("failed to create HTTP reader: %w", err)
	}
	length, err := reader.Length()
	if err != nil {
		return nil, fmt.Errorf("failed to get HTTP content length: %w", err)
	}
	return &httpObject{reader: reader, size: length}, nil
}

func (s *httpStore) Create(ctx context.Context, path string) (io.WriteCloser, error) {
	return nil, fmt.Errorf("%w: %s", ErrReadOnly, s.name)
}

func (s *httpStore) Close() error { return nil }

type httpObject struct {
	reader *ranger.Reader
	size   int64
}

func (o *httpObject) ReadAt(p []byte, off int64) (int, error) { return o.reader.ReadAt(p, off) }
func (o *httpObject) Size() int64                             { return o.size }
func (o *httpObject) Close() error                            { return nil }
