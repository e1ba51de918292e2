package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"coleval/stores"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "coleval.yaml")
	if err := os.WriteFile(path, []byte(body), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if diff := cmp.Diff(Default(), cfg); diff != "" {
		t.Errorf("Defaults mismatch (-want +got):\n%s", diff)
	}
}

func TestLoad_FileAndEnvOverrides(t *testing.T) {
	path := writeConfig(t, `
batch_size: 1024
parallelism: 2
trace:
  level: DEBUG
  components: [PLANNING, STORE]
store:
  s3:
    region: eu-west-1
    force_path_style: true
  upload_compression: zstd
checkpoint:
  location: mem:///checkpoints
  compression: gzip
`)
	t.Setenv("COLEVAL_PARALLELISM", "8")
	t.Setenv("COLEVAL_S3_ENDPOINT", "http://localhost:9000")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	want := &Config{
		BatchSize:   1024,
		Parallelism: 8,
		Trace:       TraceConfig{Level: "DEBUG", Components: []string{"PLANNING", "STORE"}, Format: "text"},
		Store: StoreConfig{
			S3:                S3Config{Region: "eu-west-1", Endpoint: "http://localhost:9000", ForcePathStyle: true},
			UploadCompression: "zstd",
		},
		Checkpoint: CheckpointConfig{Location: "mem:///checkpoints", Compression: "gzip"},
	}
	if diff := cmp.Diff(want, cfg); diff != "" {
		t.Errorf("Config mismatch (-want +got):\n%s", diff)
	}
	if cfg.UploadCompression() != stores.CompressionZstd {
		t.Errorf("Expected zstd upload compression, got %s", cfg.UploadCompression())
	}
	if opts := cfg.S3Options(); opts.Region != "eu-west-1" || !opts.PathStyle {
		t.Errorf("Unexpected S3 options %+v", opts)
	}
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name string
		body string
		env  map[string]string
		want string
	}{
		{"batch size", "batch_size: 1", nil, "batch_size"},
		{"parallelism", "parallelism: 0", nil, "parallelism"},
		{"compression", "store: {upload_compression: lz4}", nil, "upload_compression"},
		{"codec", "checkpoint: {compression: brotli9}", nil, "checkpoint.compression"},
		{"location", "checkpoint: {location: 'ftp://x/y'}", nil, "checkpoint.location"},
		{"format", "trace: {format: xml}", nil, "trace.format"},
		{"env", "", map[string]string{"COLEVAL_BATCH_SIZE": "many"}, "COLEVAL_BATCH_SIZE"},
		{"yaml", "batch_size: [", nil, "parse config yaml"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			_, err := Load(writeConfig(t, tt.body))
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Errorf("Expected error mentioning %q, got %v", tt.want, err)
			}
		})
	}
}
