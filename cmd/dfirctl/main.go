// Command dfirctl builds and inspects dataflow graphs from the YAML program
// format this package's front-end accepts: `run` builds, partitions, and
// reports a graph's scheduling shape; `graph inspect`/`graph export` load a
// program and show or export the resulting graph.
//
// Command registration hub follows the teacher's root-command-plus-
// subcommand-files layout (cmd/nerd/main.go): this file owns rootCmd, global
// flags, and logger setup; each subcommand lives in its own cmd_*.go file.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/katalvlaran/dfir/internal/dfirlog"
)

var (
	verbose bool
	logger  *zap.Logger
)

var rootCmd = &cobra.Command{
	Use:   "dfirctl",
	Short: "Build, partition, and inspect dataflow graphs",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		config := zap.NewProductionConfig()
		if verbose {
			config.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
		}
		var err error
		logger, err = config.Build()
		if err != nil {
			logger = dfirlog.Noop()

			return fmt.Errorf("dfirctl: initialize logger: %w", err)
		}

		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug-level logging")
	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(graphCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
