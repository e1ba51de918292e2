package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"coleval/expr/evaluators"
	"coleval/plan"
	"coleval/stores"
)

var describeFlags struct {
	planPath   string
	inputPath  string
	configPath string
}

var describeCmd = &cobra.Command{
	Use:   "describe",
	Short: "Build a plan against an input schema and print its bindings",
	RunE:  runDescribe,
}

func init() {
	f := describeCmd.Flags()
	f.StringVar(&describeFlags.planPath, "plan", "", "Path to the plan YAML (required)")
	f.StringVar(&describeFlags.inputPath, "input", "", "Parquet input path or URL (required)")
	f.StringVar(&describeFlags.configPath, "config", "", "Path to coleval.yaml")
	_ = describeCmd.MarkFlagRequired("plan")
	_ = describeCmd.MarkFlagRequired("input")
}

func runDescribe(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig(describeFlags.configPath)
	if err != nil {
		return err
	}
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	registry := stores.NewRegistry(cfg.S3Options())
	defer registry.Close()

	source, err := openInput(ctx, registry, describeFlags.inputPath, cfg.BatchSize)
	if err != nil {
		return err
	}
	defer source.Close()

	spec, err := plan.LoadFile(describeFlags.planPath)
	if err != nil {
		return err
	}
	program, err := plan.NewBuilder(evaluators.NewRegistry()).Build(source.GetSchema(), spec)
	if err != nil {
		return fmt.Errorf("build plan: %w", err)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Input:  %s\n", formatSchema(program.InputSchema()))
	fmt.Fprintf(out, "Output: %s\n", formatSchema(program.OutputSchema()))
	live := make(map[int]bool)
	for _, i := range program.LiveNodes() {
		live[i] = true
	}
	for i, bound := range program.Bindings() {
		node := spec.Nodes[i]
		refs := make([]string, len(bound))
		for j, ref := range bound {
			refs[j] = fmt.Sprintf("#%d:%s", ref.Index, ref.Type)
		}
		marker := " "
		if !live[i] {
			marker = "-"
		}
		fmt.Fprintf(out, "%s %3d  %-10s %-8s [%s]\n", marker, i, node.Op, node.Type, strings.Join(refs, ", "))
	}
	return nil
}
