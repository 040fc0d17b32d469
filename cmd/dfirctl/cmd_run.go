package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/katalvlaran/dfir/flatbuild"
	"github.com/katalvlaran/dfir/partition"
)

// runCmd builds and partitions a program, reporting its diagnostics and
// resulting scheduling shape. Operator codegen (spec §6, "Operator codegen
// callback") is external to this repository, so there is no subgraph body to
// actually execute here — this reports what the scheduler would see, not a
// live run.
var runCmd = &cobra.Command{
	Use:   "run <program.yaml>",
	Short: "Build and partition a program, reporting diagnostics and strata",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		stmts, err := loadProgram(args[0])
		if err != nil {
			return err
		}

		g, diags, err := flatbuild.Build(stmts)
		if err != nil {
			for _, d := range diags {
				fmt.Fprintf(cmd.OutOrStdout(), "%s: %s\n", d.Severity, d.Message)
			}

			return fmt.Errorf("dfirctl: build program: %w", err)
		}
		for _, d := range diags {
			if logger != nil {
				logger.Warn("diagnostic", zap.String("severity", d.Severity.String()), zap.String("message", d.Message))
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s: %s\n", d.Severity, d.Message)
		}

		sgIDs, err := partition.Partition(g)
		if err != nil {
			return fmt.Errorf("dfirctl: partition program: %w", err)
		}

		fmt.Fprintf(cmd.OutOrStdout(), "%d nodes, %d edges, %d subgraphs\n", len(g.Nodes()), len(g.Edges()), len(sgIDs))
		for _, id := range sgIDs {
			sg, err := g.Subgraph(id)
			if err != nil {
				continue
			}
			fmt.Fprintf(cmd.OutOrStdout(), "  subgraph %d: stratum=%d lazy=%t pivot=%d nodes=%v\n",
				sg.ID, sg.Stratum, sg.Lazy, sg.Pivot, sg.Nodes)
		}

		return nil
	},
}
