// Package opcatalog holds the static table of operator specifications the
// flat-graph builder validates against and the partitioner/codegen layer
// reads from: arity bounds, persistence/type-arg arities, port lists,
// DelayType, FlowType, whether the operator owns singleton state, and the
// code-emission callback, per spec §4.D.
//
// The table itself is data, grounded on the teacher's own table-of-named-
// constructors-with-validated-arities pattern (builder/variants.go's
// map[Variant]size/chords tables): the unexported registry is a
// map[string]*Spec built up by MustRegister calls in an init(), one per
// recognized operator.
package opcatalog

import (
	"errors"
	"fmt"
)

// Sentinel errors for catalog lookups and registration.
var (
	// ErrUnknownOperator indicates a name absent from the registry.
	ErrUnknownOperator = errors.New("opcatalog: unknown operator")
	// ErrAlreadyRegistered indicates a duplicate Register call for one name.
	ErrAlreadyRegistered = errors.New("opcatalog: operator already registered")
)

// DelayType classifies an operator input as a scheduling barrier, per
// spec §3 "Delay type" / §4.G.
type DelayType int

const (
	// NoDelay: the input carries no barrier semantics.
	NoDelay DelayType = iota
	// Stratum forces the destination to run in a strictly later stratum
	// than the source.
	Stratum
	// Tick defers consumption of the value to a later tick without
	// bumping stratum.
	Tick
)

// FlowType partitions operators by their role in a loop block, per spec
// §4.D: sources must sit at root scope, Windowing operators open a loop,
// Unwindowing operators close one.
type FlowType int

const (
	// FlowUnset marks an operator with no loop-block role.
	FlowUnset FlowType = iota
	// FlowSource marks a source operator (source_stream, source_iter, ...).
	FlowSource
	// FlowWindowing marks an operator that may begin a loop block.
	FlowWindowing
	// FlowUnwindowing marks an operator that may terminate a loop block.
	FlowUnwindowing
)

// ArityRange bounds an operator's input or output degree. Hard violations
// are errors; soft violations are warnings (spec §4.D).
type ArityRange struct {
	HardMin, HardMax int // inclusive; HardMax < 0 means unbounded
	SoftMin, SoftMax int // inclusive; SoftMax < 0 means unbounded
}

// InRange reports whether n falls within the hard bounds.
func (r ArityRange) InRange(n int) bool {
	if n < r.HardMin {
		return false
	}
	if r.HardMax >= 0 && n > r.HardMax {
		return false
	}

	return true
}

// InSoftRange reports whether n falls within the soft (warning) bounds.
func (r ArityRange) InSoftRange(n int) bool {
	if n < r.SoftMin {
		return false
	}
	if r.SoftMax >= 0 && n > r.SoftMax {
		return false
	}

	return true
}

// WriteContextArgs is passed to a Spec's Write callback, carrying
// everything spec §6 "Operator codegen callback" lists: the subgraph id,
// resolved neighbor identifiers, pull/push coloring, the singleton output
// identifier if any, and the operator's parsed arguments.
type WriteContextArgs struct {
	SubgraphID   int
	NodeID       int
	IsPull       bool
	InputIDs     []int
	OutputIDs    []int
	SingletonID  int // 0 if the operator has no singleton output
	ValueArgs    []string
	PersistArgs  []string
	TypeArgs     []string
}

// WriteOutput is the three-part realization spec §4.D describes: prologue
// (state allocation), the iterator/pusherator body, and post-run
// bookkeeping. All three are opaque source-text fragments here since code
// emission itself is delegated to the front-end/codegen layer this core
// does not own; the core only needs to invoke Write and record that it
// happened.
type WriteOutput struct {
	Prologue string
	Body     string
	Post     string
}

// WriteFn emits an operator's realization for a given call site.
type WriteFn func(args WriteContextArgs) (WriteOutput, error)

// PortSpec names the allowed port set on one side (input or output) of an
// operator. A nil Names means "any port, elided or indexed" — ports are
// only validated when Names is non-nil.
type PortSpec struct {
	Names []string
}

// Allows reports whether name is a legal port on this side. An empty name
// denotes the elided port and is legal only when Names is nil (an operator
// that declares named ports requires every edge use one of them).
func (p PortSpec) Allows(name string) bool {
	if p.Names == nil {
		return true
	}
	if name == "" {
		return false
	}
	for _, n := range p.Names {
		if n == name {
			return true
		}
	}

	return false
}

// Spec is one operator catalog entry, per spec §4.D.
type Spec struct {
	Name string

	NumArgs         ArityRange
	PersistenceArgs ArityRange
	TypeArgs        ArityRange

	HardRangeInn ArityRange
	HardRangeOut ArityRange

	InPorts  PortSpec
	OutPorts PortSpec

	// InputDelayType reports the DelayType for a given input port name (""
	// for elided). Nil means every input is NoDelay.
	InputDelayType func(port string) DelayType

	FlowType FlowType

	HasSingletonOutput bool

	Write WriteFn
}

// registry is the process-wide static operator catalog. Populated by
// MustRegister calls in this package's init(); front-ends and the flat-graph
// builder both read it via Lookup.
var registry = map[string]*Spec{}

// Register adds spec to the catalog. Intended to be called only from this
// package's own init(); returns ErrAlreadyRegistered on a duplicate name so
// a copy-paste catalog entry fails loudly instead of silently shadowing.
func Register(spec *Spec) error {
	if _, exists := registry[spec.Name]; exists {
		return fmt.Errorf("%w: %s", ErrAlreadyRegistered, spec.Name)
	}
	registry[spec.Name] = spec

	return nil
}

// MustRegister calls Register and panics on error; used only at
// package-init time for this package's own built-in operator table, where a
// duplicate indicates a programming error in this package, not user input.
func MustRegister(spec *Spec) {
	if err := Register(spec); err != nil {
		panic(err)
	}
}

// Lookup returns the catalog entry for name, or ErrUnknownOperator.
func Lookup(name string) (*Spec, error) {
	spec, ok := registry[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownOperator, name)
	}

	return spec, nil
}

// Names returns every registered operator name, for diagnostics/tooling.
func Names() []string {
	out := make([]string, 0, len(registry))
	for name := range registry {
		out = append(out, name)
	}

	return out
}
