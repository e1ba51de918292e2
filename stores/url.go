package stores

import (
	"fmt"
	"net/url"
	"path"
	"strings"
)

// Kind identifies a backend family.
type Kind int

const (
	KindLocal Kind = iota
	KindMemory
	KindS3
	KindGCS
	KindHTTP
)

func (k Kind) String() string {
	switch k {
	case KindLocal:
		return "local"
	case KindMemory:
		return "memory"
	case KindS3:
		return "s3"
	case KindGCS:
		return "gcs"
	case KindHTTP:
		return "http"
	default:
		return "unknown"
	}
}

// Key identifies one backend. Locations with equal keys share a backend.
type Key struct {
	Kind Kind
	// Bucket is set for S3 and GCS
	Bucket string
	// S3 connection settings
	Region     string
	Endpoint   string
	PathStyle  bool
	DisableSSL bool
	// Scheme and Host are set for HTTP
	Scheme string
	Host   string
}

func (k Key) String() string {
	switch k.Kind {
	case KindS3:
		return fmt.Sprintf("s3://%s?region=%s&endpoint=%s&path_style=%t&disable_ssl=%t",
			k.Bucket, k.Region, k.Endpoint, k.PathStyle, k.DisableSSL)
	case KindGCS:
		return "gs://" + k.Bucket
	case KindHTTP:
		return k.Scheme + "://" + k.Host
	default:
		return k.Kind.String()
	}
}

// URL is a parsed object store location.
//
//	file:///abs/path
//	mem:///path
//	s3://bucket/path[?region=..&endpoint=..&path_style=true&disable_ssl=true]
//	gs://bucket/path
//	http(s)://host/path
type URL struct {
	u *url.URL
}

// ParseURL parses and validates a location.
func ParseURL(raw string) (URL, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return URL{}, fmt.Errorf("%w %q: %v", ErrInvalidURL, raw, err)
	}
	switch u.Scheme {
	case "file":
		if u.Host != "" && u.Host != "localhost" {
			return URL{}, fmt.Errorf("%w %q: unsupported host %q", ErrInvalidURL, raw, u.Host)
		}
		if !strings.HasPrefix(u.Path, "/") {
			return URL{}, fmt.Errorf("%w %q: path must be absolute", ErrInvalidURL, raw)
		}
	case "mem":
		if u.Path == "" || u.Path == "/" {
			return URL{}, fmt.Errorf("%w %q: missing path", ErrInvalidURL, raw)
		}
	case "s3", "gs":
		if u.Host == "" {
			return URL{}, fmt.Errorf("%w %q: missing bucket", ErrInvalidURL, raw)
		}
	case "http", "https":
		if u.Host == "" {
			return URL{}, fmt.Errorf("%w %q: missing host", ErrInvalidURL, raw)
		}
	case "":
		return URL{}, fmt.Errorf("%w %q: missing scheme", ErrInvalidURL, raw)
	default:
		return URL{}, fmt.Errorf("%w %q; expected one of file, mem, s3, gs, http, https", ErrUnsupportedScheme, raw)
	}
	return URL{u: u}, nil
}

// MustParseURL is ParseURL for constant locations; it panics on error.
func MustParseURL(raw string) URL {
	u, err := ParseURL(raw)
	if err != nil {
		panic(err)
	}
	return u
}

// LocalURL returns the file:// location of an absolute local path.
func LocalURL(absPath string) (URL, error) {
	return ParseURL((&url.URL{Scheme: "file", Path: absPath}).String())
}

func (u URL) String() string {
	if u.u == nil {
		return ""
	}
	return u.u.String()
}

// Scheme returns the location's scheme.
func (u URL) Scheme() string { return u.u.Scheme }

// Key returns the backend key, without connection defaults applied.
func (u URL) Key() Key {
	switch u.u.Scheme {
	case "file":
		return Key{Kind: KindLocal}
	case "mem":
		return Key{Kind: KindMemory}
	case "s3":
		q := u.u.Query()
		return Key{
			Kind:       KindS3,
			Bucket:     u.u.Host,
			Region:     q.Get("region"),
			Endpoint:   q.Get("endpoint"),
			PathStyle:  q.Get("path_style") == "true",
			DisableSSL: q.Get("disable_ssl") == "true",
		}
	case "gs":
		return Key{Kind: KindGCS, Bucket: u.u.Host}
	default:
		return Key{Kind: KindHTTP, Scheme: u.u.Scheme, Host: u.u.Host}
	}
}

// ObjectPath returns the object's name within its backend. HTTP objects are
// addressed by their full URL.
func (u URL) ObjectPath() string {
	if u.Key().Kind == KindHTTP {
		return u.u.String()
	}
	return strings.TrimPrefix(u.u.Path, "/")
}

// Join returns the location of name under u.
func (u URL) Join(name string) URL {
	next := *u.u
	next.Path = path.Join(u.u.Path, name)
	next.RawPath = ""
	return URL{u: &next}
}
