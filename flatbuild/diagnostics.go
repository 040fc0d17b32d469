package flatbuild

import (
	"fmt"

	"github.com/katalvlaran/dfir/dfirgraph"
)

// Severity classifies a Diagnostic as a hard failure or an advisory.
type Severity int

const (
	// SevError marks a diagnostic that should fail the build at a caller's
	// discretion (Build itself never aborts early — see spec §4.F step 3).
	SevError Severity = iota
	// SevWarning marks an advisory diagnostic (a soft arity violation, etc).
	SevWarning
)

func (s Severity) String() string {
	if s == SevWarning {
		return "warning"
	}

	return "error"
}

// Diagnostic is one build-time finding, returned alongside the partial graph
// even when the overall build fails (spec §4.F: "Result: a validated
// DfirGraph plus a diagnostics list"). Diagnostics are listed in the order
// of the build's check phases, not in source order; within the
// name-resolution and loop-cycle phases their relative order is not
// defined.
type Diagnostic struct {
	Severity Severity
	Message  string
	NodeID   dfirgraph.NodeID // 0 if the diagnostic isn't node-specific
}

func errorf(node dfirgraph.NodeID, format string, args ...any) Diagnostic {
	return Diagnostic{Severity: SevError, Message: fmt.Sprintf(format, args...), NodeID: node}
}

func warnf(node dfirgraph.NodeID, format string, args ...any) Diagnostic {
	return Diagnostic{Severity: SevWarning, Message: fmt.Sprintf(format, args...), NodeID: node}
}

// HasErrors reports whether diags contains at least one SevError entry.
func HasErrors(diags []Diagnostic) bool {
	for _, d := range diags {
		if d.Severity == SevError {
			return true
		}
	}

	return false
}
