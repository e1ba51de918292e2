// Package config loads coleval settings from YAML with environment overrides.
package config

import (
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"

	"coleval/stores"
	"coleval/trace"
	"coleval/vectorized"
)

// Config holds all coleval settings.
type Config struct {
	BatchSize   int              `yaml:"batch_size"`
	Parallelism int              `yaml:"parallelism"`
	Trace       TraceConfig      `yaml:"trace"`
	Store       StoreConfig      `yaml:"store"`
	Checkpoint  CheckpointConfig `yaml:"checkpoint"`
}

// TraceConfig selects what the tracer emits.
type TraceConfig struct {
	Level      string   `yaml:"level"`
	Components []string `yaml:"components"`
	Format     string   `yaml:"format"`
}

// StoreConfig configures object store backends.
type StoreConfig struct {
	S3                S3Config `yaml:"s3"`
	UploadCompression string   `yaml:"upload_compression"`
}

// S3Config holds connection defaults for s3:// locations.
type S3Config struct {
	Region         string `yaml:"region"`
	Endpoint       string `yaml:"endpoint"`
	ForcePathStyle bool   `yaml:"force_path_style"`
	DisableSSL     bool   `yaml:"disable_ssl"`
}

// CheckpointConfig controls where and how evaluated batches are persisted.
type CheckpointConfig struct {
	Location    string `yaml:"location"`
	Compression string `yaml:"compression"`
}

// Default returns the built-in settings.
func Default() *Config {
	return &Config{
		BatchSize:   vectorized.DefaultBatchSize,
		Parallelism: 1,
		Trace:       TraceConfig{Level: "OFF", Format: "text"},
		Store:       StoreConfig{UploadCompression: "none"},
		Checkpoint:  CheckpointConfig{Compression: "snappy"},
	}
}

// Load reads path over the defaults and applies environment overrides. An
// empty path loads defaults and environment only.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config yaml: %w", err)
		}
	}
	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() error {
	if v := os.Getenv("COLEVAL_BATCH_SIZE"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("COLEVAL_BATCH_SIZE: %w", err)
		}
		c.BatchSize = n
	}
	if v := os.Getenv("COLEVAL_PARALLELISM"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("COLEVAL_PARALLELISM: %w", err)
		}
		c.Parallelism = n
	}
	if v := os.Getenv("COLEVAL_S3_ENDPOINT"); v != "" {
		c.Store.S3.Endpoint = v
	}
	if v := os.Getenv("COLEVAL_S3_REGION"); v != "" {
		c.Store.S3.Region = v
	}
	return nil
}

// Validate checks ranges and names.
func (c *Config) Validate() error {
	if c.BatchSize < vectorized.MinBatchSize || c.BatchSize > vectorized.MaxBatchSize {
		return fmt.Errorf("batch_size %d outside [%d, %d]", c.BatchSize, vectorized.MinBatchSize, vectorized.MaxBatchSize)
	}
	if c.Parallelism < 1 {
		return fmt.Errorf("parallelism must be at least 1, got %d", c.Parallelism)
	}
	if _, err := stores.ParseCompression(c.Store.UploadCompression); err != nil {
		return fmt.Errorf("store.upload_compression: %w", err)
	}
	if _, err := vectorized.ParquetCodec(c.Checkpoint.Compression); err != nil {
		return fmt.Errorf("checkpoint.compression: %w", err)
	}
	if c.Checkpoint.Location != "" {
		if _, err := stores.ParseURL(c.Checkpoint.Location); err != nil {
			return fmt.Errorf("checkpoint.location: %w", err)
		}
	}
	switch c.Trace.Format {
	case "", "text", "json":
	default:
		return fmt.Errorf("trace.format must be text or json, got %q", c.Trace.Format)
	}
	return nil
}

// S3Options converts the S3 section for the store registry.
func (c *Config) S3Options() stores.S3Options {
	return stores.S3Options{
		Region:     c.Store.S3.Region,
		Endpoint:   c.Store.S3.Endpoint,
		PathStyle:  c.Store.S3.ForcePathStyle,
		DisableSSL: c.Store.S3.DisableSSL,
	}
}

// UploadCompression returns the parsed upload stream encoding.
func (c *Config) UploadCompression() stores.Compression {
	compression, _ := stores.ParseCompression(c.Store.UploadCompression)
	return compression
}

// ApplyTrace configures t from the trace section. Environment settings read
// by the tracer itself are kept unless the file names a level.
func (c *Config) ApplyTrace(t *trace.Tracer) {
	if c.Trace.Format != "" {
		t.SetOutput(os.Stderr, c.Trace.Format)
	}
	if c.Trace.Level != "" && c.Trace.Level != "OFF" {
		t.SetLevel(trace.ParseLevel(c.Trace.Level))
	}
	t.EnableComponents(c.Trace.Components...)
}
