// Package dfirlog provides the structured logger used for the scheduler's
// tick/stratum trace events and by cmd/dfirctl. The flat-graph builder does
// not log through it. It never carries the diagnostics themselves (those
// stay structured values per the graph builder's own diagnostic type) —
// this is operational trace output only.
//
// Grounded on the production/development zap.Config split used for CLI
// output (cmd/nerd/main.go).
package dfirlog

import (
	"fmt"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// New builds a zap.Logger. verbose switches the level from Info to Debug.
// A nil, never-erroring logger would hide genuine misconfiguration, so New
// returns an error instead of silently falling back.
func New(verbose bool) (*zap.Logger, error) {
	config := zap.NewProductionConfig()
	if verbose {
		config.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
	}
	logger, err := config.Build()
	if err != nil {
		return nil, fmt.Errorf("dfirlog: build logger: %w", err)
	}

	return logger, nil
}

// Noop returns a logger that discards everything, for callers (tests,
// library embedders) that don't want scheduler trace output.
func Noop() *zap.Logger {
	return zap.NewNop()
}
