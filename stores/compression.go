package stores

import (
	"fmt"
	"io"
	"strings"

	"github.com/golang/snappy"
	"github.com/klauspost/compress/zstd"
)

// Compression selects the stream encoding applied on upload
type Compression uint8

const (
	CompressionNone   Compression = 0
	CompressionSnappy Compression = 2
	CompressionZstd   Compression = 3
)

// CompressionLevel represents compression level for algorithms that support it
type CompressionLevel int

const (
	CompressionLevelFastest CompressionLevel = 1
	CompressionLevelDefault CompressionLevel = 0
	CompressionLevelBetter  CompressionLevel = 3
	CompressionLevelBest    CompressionLevel = 9
)

// ParseCompression resolves a compression name
func ParseCompression(name string) (Compression, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "none":
		return CompressionNone, nil
	case "snappy":
		return CompressionSnappy, nil
	case "zstd":
		return CompressionZstd, nil
	default:
		return CompressionNone, fmt.Errorf("unsupported compression %q", name)
	}
}

func (c Compression) String() string {
	switch c {
	case CompressionNone:
		return "none"
	case CompressionSnappy:
		return "snappy"
	case CompressionZstd:
		return "zstd"
	default:
		return fmt.Sprintf("compression(%d)", uint8(c))
	}
}

// Extension returns the conventional file suffix for the encoding
func (c Compression) Extension() string {
	switch c {
	case CompressionSnappy:
		return ".sz"
	case CompressionZstd:
		return ".zst"
	default:
		return ""
	}
}

type nopWriteCloser struct{ io.Writer }

func (nopWriteCloser) Close() error { return nil }

// NewCompressor wraps w so that everything written is encoded with c. Close
// flushes the encoder but does not close w.
func NewCompressor(w io.Writer, c Compression, level CompressionLevel) (io.WriteCloser, error) {
	switch c {
	case CompressionNone:
		return nopWriteCloser{w}, nil
	case CompressionSnappy:
		return snappy.NewBufferedWriter(w), nil
	case CompressionZstd:
		// Map our levels to zstd levels
		zstdLevel := zstd.SpeedDefault
		switch level {
		case CompressionLevelFastest:
			zstdLevel = zstd.SpeedFastest
		case CompressionLevelBetter:
			zstdLevel = zstd.SpeedBetterCompression
		case CompressionLevelBest:
			zstdLevel = zstd.SpeedBestCompression
		}
		encoder, err := zstd.NewWriter(w, zstd.WithEncoderLevel(zstdLevel))
		if err != nil {
			return nil, err
		}
		return encoder, nil
	default:
		return nil, fmt.Errorf("unsupported compression type: %d", c)
	}
}

// NewDecompressor wraps r to decode a stream written with c
func NewDecompressor(r io.Reader, c Compression) (io.ReadCloser, error) {
	switch c {
	case CompressionNone:
		return io.NopCloser(r), nil
	case CompressionSnappy:
		return io.NopCloser(snappy.NewReader(r)), nil
	case CompressionZstd:
		decoder, err := zstd.NewReader(r)
		if err != nil {
			return nil, err
		}
		return decoder.IOReadCloser(), nil
	default:
		return nil, fmt.Errorf("unsupported compression type: %d", c)
	}
}
