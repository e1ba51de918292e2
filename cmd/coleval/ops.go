package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"coleval/expr/evaluators"
)

var opsCmd = &cobra.Command{
	Use:   "ops",
	Short: "List the registered operations",
	RunE:  runOps,
}

func runOps(cmd *cobra.Command, _ []string) error {
	out := cmd.OutOrStdout()
	for _, name := range evaluators.NewRegistry().Names() {
		fmt.Fprintln(out, name)
	}
	return nil
}
