// Package flatbuild turns a parsed statement list into a validated
// dfirgraph.Graph, per spec §4.F. It owns name resolution (including the
// bounded-recursion cycle walk over chained name references), port-conflict
// and arity checking against the operator catalog, singleton resolution,
// and loop-block validation.
//
// The statement/pipeline AST here is the input contract a front-end (a
// surface-syntax parser or a Datalog lowering pass) is expected to produce;
// this package owns no lexer or parser of its own.
package flatbuild

import "github.com/katalvlaran/dfir/dfirgraph"

// Statement is one top-level item in a flat-graph source: a name binding, a
// bare pipeline, a use declaration, or a loop block.
type Statement struct {
	Kind StatementKind
	Name string      // for StmtAssign
	Pipe Pipeline     // for StmtAssign, StmtBare
	Body []Statement  // for StmtLoop
	Use  string       // for StmtUse
}

// StatementKind discriminates Statement's union.
type StatementKind int

const (
	// StmtAssign binds Pipe's ends under Name.
	StmtAssign StatementKind = iota
	// StmtBare evaluates Pipe for its side effects only (e.g. a sink chain).
	StmtBare
	// StmtUse declares an import; flatbuild skips it without storing
	// anything and does not resolve module contents itself (that's the
	// front-end's job before handing us the statement list).
	StmtUse
	// StmtLoop opens a loop block scope around Body.
	StmtLoop
)

// Pipeline is the pipeline-expression union spec §4.F describes.
type Pipeline struct {
	Kind PipelineKind

	// PipelineOperator fields.
	OpName     string
	ValueArgs  []string
	Persist    []dfirgraph.Persistence
	TypeArgs   []string
	Singletons []string // names referencing operators with HasSingletonOutput

	// PipelineParen fields.
	Inner   *Pipeline
	InPort  dfirgraph.Port
	OutPort dfirgraph.Port

	// PipelineRef fields.
	RefName string

	// PipelineLink fields.
	LHS *Pipeline
	RHS *Pipeline
}

// PipelineKind discriminates Pipeline's union.
type PipelineKind int

const (
	// PipelineOperator is a bare operator invocation.
	PipelineOperator PipelineKind = iota
	// PipelineParen re-exposes Inner's ends under overriding outer ports.
	PipelineParen
	// PipelineRef refers to a previously (or later) named pipeline.
	PipelineRef
	// PipelineModuleBoundary marks a module import/export point.
	PipelineModuleBoundary
	// PipelineLink chains LHS's output into RHS's input.
	PipelineLink
)

// Op constructs a bare operator-invocation pipeline.
func Op(name string, valueArgs ...string) Pipeline {
	return Pipeline{Kind: PipelineOperator, OpName: name, ValueArgs: valueArgs}
}

// Ref constructs a named-pipeline reference.
func Ref(name string) Pipeline {
	return Pipeline{Kind: PipelineRef, RefName: name}
}

// Link constructs lhs -> rhs.
func Link(lhs, rhs Pipeline) Pipeline {
	return Pipeline{Kind: PipelineLink, LHS: &lhs, RHS: &rhs}
}

// ModuleBoundary constructs a module boundary placeholder pipeline.
func ModuleBoundary() Pipeline {
	return Pipeline{Kind: PipelineModuleBoundary}
}
