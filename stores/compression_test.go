package stores

import (
	"bytes"
	"io"
	"testing"
)

func TestCompression_RoundTrip(t *testing.T) {
	data := bytes.Repeat([]byte("abcdefgh"), 1000)

	for _, c := range []Compression{CompressionNone, CompressionSnappy, CompressionZstd} {
		for _, level := range []CompressionLevel{CompressionLevelFastest, CompressionLevelDefault, CompressionLevelBest} {
			var buf bytes.Buffer
			w, err := NewCompressor(&buf, c, level)
			if err != nil {
				t.Fatalf("%s: NewCompressor failed: %v", c, err)
			}
			if _, err := w.Write(data); err != nil {
				t.Fatalf("%s: Write failed: %v", c, err)
			}
			if err := w.Close(); err != nil {
				t.Fatalf("%s: Close failed: %v", c, err)
			}

			r, err := NewDecompressor(&buf, c)
			if err != nil {
				t.Fatalf("%s: NewDecompressor failed: %v", c, err)
			}
			got, err := io.ReadAll(r)
			r.Close()
			if err != nil {
				t.Fatalf("%s: ReadAll failed: %v", c, err)
			}
			if !bytes.Equal(got, data) {
				t.Errorf("%s level %d: round trip changed data", c, level)
			}
		}
	}
}

func TestParseCompression(t *testing.T) {
	tests := map[string]Compression{"": CompressionNone, "none": CompressionNone, "Snappy": CompressionSnappy, "zstd": CompressionZstd}
	for name, want := range tests {
		got, err := ParseCompression(name)
		if err != nil || got != want {
			t.Errorf("ParseCompression(%q) = %v, %v; want %v", name, got, err, want)
		}
	}
	if _, err := ParseCompression("lz4"); err == nil {
		t.Errorf("Expected error for lz4")
	}
}
