package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/katalvlaran/dfir/dfirgraph"
	"github.com/katalvlaran/dfir/export"
	"github.com/katalvlaran/dfir/flatbuild"
)

var graphCmd = &cobra.Command{
	Use:   "graph",
	Short: "Inspect or export a program's built graph",
}

var graphInspectCmd = &cobra.Command{
	Use:   "inspect <program.yaml>",
	Short: "Print every node and edge of a program's built graph",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		g, diags, err := buildFromFile(args[0])
		printDiagnostics(cmd, diags)
		if err != nil {
			return err
		}

		for _, n := range g.Nodes() {
			fmt.Fprintf(cmd.OutOrStdout(), "node %d: kind=%v op=%s varname=%q subgraph=%d\n",
				n.ID, n.Kind, n.Op.OpName, n.Varname, n.Subgraph)
		}
		for _, e := range g.Edges() {
			fmt.Fprintf(cmd.OutOrStdout(), "edge %d: %d[%s] -> %d[%s] kind=%v\n",
				e.ID, e.Src, e.SrcPort, e.Dst, e.DstPort, e.Kind)
		}

		return nil
	},
}

var exportFormat string

var graphExportCmd = &cobra.Command{
	Use:   "export <program.yaml>",
	Short: "Export a program's built graph as Mermaid or Dot",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		g, diags, err := buildFromFile(args[0])
		printDiagnostics(cmd, diags)
		if err != nil {
			return err
		}

		switch exportFormat {
		case "mermaid":
			fmt.Fprint(cmd.OutOrStdout(), export.ToMermaid(g))
		case "dot":
			fmt.Fprint(cmd.OutOrStdout(), export.ToDot(g))
		default:
			return fmt.Errorf("dfirctl: unknown export format %q (want mermaid or dot)", exportFormat)
		}

		return nil
	},
}

func init() {
	graphExportCmd.Flags().StringVar(&exportFormat, "format", "mermaid", "output format: mermaid or dot")
	graphCmd.AddCommand(graphInspectCmd)
	graphCmd.AddCommand(graphExportCmd)
}

func buildFromFile(path string) (*dfirgraph.Graph, []flatbuild.Diagnostic, error) {
	stmts, err := loadProgram(path)
	if err != nil {
		return nil, nil, err
	}

	g, diags, err := flatbuild.Build(stmts)
	if err != nil {
		return g, diags, fmt.Errorf("dfirctl: build program: %w", err)
	}

	return g, diags, nil
}

func printDiagnostics(cmd *cobra.Command, diags []flatbuild.Diagnostic) {
	for _, d := range diags {
		fmt.Fprintf(cmd.OutOrStdout(), "%s: %s\n", d.Severity, d.Message)
	}
}
