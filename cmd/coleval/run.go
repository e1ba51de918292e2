package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/parquet-go/parquet-go/compress"
	"github.com/spf13/cobra"

	"coleval/config"
	"coleval/expr/evaluators"
	"coleval/persist"
	"coleval/plan"
	"coleval/stores"
	"coleval/trace"
	"coleval/vectorized"
)

var runFlags struct {
	planPath   string
	inputPath  string
	outputPath string
	checkpoint string
	configPath string
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Evaluate a plan over every batch of a parquet input",
	Long: `Evaluate a plan over a parquet input read from a local path or a
file://, mem://, s3://, gs:// or http(s):// URL. Results are written to
--output as parquet, checkpointed to the configured location under the
name given by --checkpoint, or both.`,
	RunE: runRun,
}

func init() {
	f := runCmd.Flags()
	f.StringVar(&runFlags.planPath, "plan", "", "Path to the plan YAML (required)")
	f.StringVar(&runFlags.inputPath, "input", "", "Parquet input path or URL (required)")
	f.StringVar(&runFlags.outputPath, "output", "", "Local parquet output path")
	f.StringVar(&runFlags.checkpoint, "checkpoint", "", "Checkpoint name under checkpoint.location")
	f.StringVar(&runFlags.configPath, "config", "", "Path to coleval.yaml")
	_ = runCmd.MarkFlagRequired("plan")
	_ = runCmd.MarkFlagRequired("input")
}

func runRun(cmd *cobra.Command, _ []string) error {
	if runFlags.outputPath == "" && runFlags.checkpoint == "" {
		return fmt.Errorf("one of --output or --checkpoint is required")
	}
	cfg, err := loadConfig(runFlags.configPath)
	if err != nil {
		return err
	}
	if runFlags.checkpoint != "" && cfg.Checkpoint.Location == "" {
		return fmt.Errorf("--checkpoint needs checkpoint.location in the config")
	}
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	registry := stores.NewRegistry(cfg.S3Options())
	defer registry.Close()

	source, err := openInput(ctx, registry, runFlags.inputPath, cfg.BatchSize)
	if err != nil {
		return err
	}
	defer source.Close()

	spec, err := plan.LoadFile(runFlags.planPath)
	if err != nil {
		return err
	}
	program, err := plan.NewBuilder(evaluators.NewRegistry()).Build(source.GetSchema(), spec)
	if err != nil {
		return fmt.Errorf("build plan: %w", err)
	}

	start := time.Now()
	batches, err := source.ReadAll()
	if err != nil {
		return err
	}
	results, err := program.EvaluateBatches(ctx, batches, cfg.Parallelism)
	if err != nil {
		return err
	}
	rows := 0
	for _, b := range results {
		rows += b.RowCount
	}
	trace.Get().Info(trace.ComponentCLI, "Plan evaluated", trace.Context(
		"batches", len(results),
		"rows", rows,
		"parallelism", cfg.Parallelism,
		"duration", time.Since(start).String(),
	))

	codec, err := vectorized.ParquetCodec(cfg.Checkpoint.Compression)
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()

	if runFlags.outputPath != "" {
		if err := writeOutput(runFlags.outputPath, program.OutputSchema(), results, codec); err != nil {
			return err
		}
		fmt.Fprintf(out, "Wrote %d rows to %s\n", rows, runFlags.outputPath)
	}
	if runFlags.checkpoint != "" {
		location, err := stores.ParseURL(cfg.Checkpoint.Location)
		if err != nil {
			return err
		}
		target, err := persist.NewCheckpointer(registry, location, codec, cfg.UploadCompression()).
			Checkpoint(ctx, runFlags.checkpoint, program.OutputSchema(), results...)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "Checkpointed %d rows to %s\n", rows, target)
	}
	return nil
}

func writeOutput(path string, schema *vectorized.Schema, batches []*vectorized.VectorBatch, codec compress.Codec) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create output: %w", err)
	}
	if err := persist.WriteBatches(f, schema, batches, codec); err != nil {
		f.Close()
		return fmt.Errorf("write output: %w", err)
	}
	return f.Close()
}

func loadConfig(path string) (*config.Config, error) {
	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}
	cfg.ApplyTrace(trace.Get())
	return cfg, nil
}

// openInput accepts a URL or a local path.
func openInput(ctx context.Context, registry *stores.Registry, input string, batchSize int) (*persist.Source, error) {
	var location stores.URL
	var err error
	if strings.Contains(input, "://") {
		location, err = stores.ParseURL(input)
	} else {
		var abs string
		abs, err = filepath.Abs(input)
		if err == nil {
			location, err = stores.LocalURL(abs)
		}
	}
	if err != nil {
		return nil, fmt.Errorf("input %s: %w", input, err)
	}
	return persist.OpenSource(ctx, registry, location, batchSize)
}

func formatSchema(schema *vectorized.Schema) string {
	parts := make([]string, len(schema.Fields))
	for i, f := range schema.Fields {
		parts[i] = fmt.Sprintf("%s:%s", f.Name, f.DataType)
	}
	return "(" + strings.Join(parts, ", ") + ")"
}
