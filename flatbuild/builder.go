package flatbuild

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"

	"golang.org/x/sync/singleflight"

	"github.com/katalvlaran/dfir/dfirgraph"
	"github.com/katalvlaran/dfir/graphalgo"
	"github.com/katalvlaran/dfir/opcatalog"
)

// maxNameResolutionDepth bounds the name-reference walk (spec §4.F step 2).
const maxNameResolutionDepth = 1024

// visitState mirrors the teacher's White/Gray/Black DFS state machine
// (dfs/topological.go), reused here to walk chained name references and
// report self-referential cycles exactly once per participant.
type visitState int

const (
	white visitState = iota
	gray
	black
)

// endpoint is one side of a pipeline's external connection: either resolved
// to a concrete graph node/port, or still carrying the identifier of a
// pipeline it names (spec §4.F step 1 "undetermined endpoint").
type endpoint struct {
	resolved bool
	node     dfirgraph.NodeID
	port     dfirgraph.Port
	refName  string
}

// ends describes a pipeline's external input and output endpoints.
type ends struct {
	in  endpoint
	out endpoint
}

// pendingLink records a not-yet-inserted lhs->rhs connection, deferred until
// every name reference it touches has been resolved.
type pendingLink struct {
	lhs ends
	rhs ends
}

// Builder accumulates statements into a dfirgraph.Graph and produces
// diagnostics, per spec §4.F. The zero value is not usable; construct with
// New.
type Builder struct {
	graph *dfirgraph.Graph

	names   map[string]ends
	pending []pendingLink
	diags   []Diagnostic

	// pendingSingletons holds each operator node's unresolved singleton
	// reference names, set during lower() and consumed by
	// resolveSingletons() once every name binding is settled.
	pendingSingletons map[dfirgraph.NodeID][]string

	loopStack []int
	nextLoop  int
}

// New constructs an empty Builder.
func New() *Builder {
	return &Builder{
		graph:             dfirgraph.New(),
		names:             make(map[string]ends),
		pendingSingletons: make(map[dfirgraph.NodeID][]string),
	}
}

// group deduplicates concurrent Build calls against an identical statement
// list, per SPEC_FULL's domain-stack wiring: two front-ends racing to
// compile the same named subgraph module collapse into one build.
var group singleflight.Group

// Build parses stmts into a dfirgraph.Graph, running every check spec §4.F
// enumerates, and returns the resulting (possibly partial) graph alongside
// its diagnostics. Build never aborts early on a recoverable error — per
// step 3, a port conflict is reported but the edge is still inserted so
// downstream checks do not cascade into spurious follow-on errors.
func Build(stmts []Statement) (*dfirgraph.Graph, []Diagnostic, error) {
	key := hashStatements(stmts)
	v, err, _ := group.Do(key, func() (any, error) {
		b := New()
		b.run(stmts)

		return b, nil
	})
	if err != nil {
		return nil, nil, err
	}
	b := v.(*Builder)

	return b.graph, b.diags, nil
}

// hashStatements derives a stable dedupe key for the singleflight group.
// Statement identity for this purpose only needs to be a function of
// structure, not a cryptographic guarantee, so fmt's %#v plus sha256 is
// sufficient and avoids hand-rolling a structural hash.
func hashStatements(stmts []Statement) string {
	sum := sha256.Sum256([]byte(fmt.Sprintf("%#v", stmts)))

	return hex.EncodeToString(sum[:])
}

func (b *Builder) run(stmts []Statement) {
	b.collect(stmts)
	b.resolveNames()
	b.resolveSingletons()
	b.insertPendingLinks()
	b.checkOperators()
	b.checkLoopCycles()
	b.checkModuleBoundaries()
}

// checkModuleBoundaries reports any NodeModuleBoundary node still present
// once a build completes. Module boundaries are a placeholder used only
// while importing sub-graphs (spec §3 "Node"); a real module-import
// front-end is expected to pair each import/export boundary and call
// dfirgraph.Graph.MergeModules to eliminate them before the graph reaches
// the partitioner. This builder's statement grammar has no module-import
// construct that produces matched pairs, so any ModuleBoundary node it sees
// is necessarily unmerged — report it rather than let it silently vanish
// during partitioning.
func (b *Builder) checkModuleBoundaries() {
	for _, n := range b.graph.Nodes() {
		if n.Kind == dfirgraph.NodeModuleBoundary {
			b.diags = append(b.diags, errorf(n.ID, "module boundary node was never merged via MergeModules; it must be eliminated before execution"))
		}
	}
}

// collect walks every statement, creating nodes for each pipeline and
// recording name bindings and pending links (spec §4.F step 1).
func (b *Builder) collect(stmts []Statement) {
	for _, st := range stmts {
		switch st.Kind {
		case StmtUse:
			// Skipped: nothing is stored and nothing is built.
		case StmtLoop:
			b.nextLoop++
			loopID := b.nextLoop
			b.loopStack = append(b.loopStack, loopID)
			b.collect(st.Body)
			b.loopStack = b.loopStack[:len(b.loopStack)-1]
		case StmtAssign:
			e := b.lower(st.Pipe)
			if _, dup := b.names[st.Name]; dup {
				b.diags = append(b.diags, errorf(0, "duplicate name binding: %s", st.Name))
				continue
			}
			b.names[st.Name] = e
		case StmtBare:
			b.lower(st.Pipe)
		}
	}
}

// currentLoop returns the innermost loop id, or 0 at root scope.
func (b *Builder) currentLoop() int {
	if len(b.loopStack) == 0 {
		return 0
	}

	return b.loopStack[len(b.loopStack)-1]
}

// currentLoopDepth returns the current nesting depth: how many loop blocks
// enclose the node being created, 0 at root scope. Unlike the sequential
// loop id (unique per block, but not ordered by nesting), this is what
// checkLoopCrossing uses to decide whether an edge spans more than one
// nesting level — two sibling (non-nested) loops get adjacent sequential
// ids but share the same depth.
func (b *Builder) currentLoopDepth() int {
	return len(b.loopStack)
}

// lower creates graph nodes for p and returns its external ends, deferring
// any link whose endpoints are not yet resolvable.
func (b *Builder) lower(p Pipeline) ends {
	switch p.Kind {
	case PipelineOperator:
		id := b.graph.InsertNode(dfirgraph.Node{
			Kind:      dfirgraph.NodeOperator,
			LoopID:    b.currentLoop(),
			LoopDepth: b.currentLoopDepth(),
			Op: dfirgraph.OperatorInstance{
				OpName:       p.OpName,
				ValueArgs:    p.ValueArgs,
				TypeArgs:     p.TypeArgs,
				Persistences: p.Persist,
			},
		})
		if len(p.Singletons) > 0 {
			b.pendingSingletons[id] = p.Singletons
		}
		e := endpoint{resolved: true, node: id, port: dfirgraph.ElidedPort}

		return ends{in: e, out: e}

	case PipelineModuleBoundary:
		id := b.graph.InsertNode(dfirgraph.Node{Kind: dfirgraph.NodeModuleBoundary, LoopID: b.currentLoop(), LoopDepth: b.currentLoopDepth()})
		e := endpoint{resolved: true, node: id, port: dfirgraph.ElidedPort}

		return ends{in: e, out: e}

	case PipelineParen:
		inner := b.lower(*p.Inner)
		if !p.InPort.Elided {
			inner.in.port = p.InPort
		}
		if !p.OutPort.Elided {
			inner.out.port = p.OutPort
		}

		return inner

	case PipelineRef:
		unresolved := endpoint{resolved: false, refName: p.RefName}

		return ends{in: unresolved, out: unresolved}

	case PipelineLink:
		lhs := b.lower(*p.LHS)
		rhs := b.lower(*p.RHS)
		b.pending = append(b.pending, pendingLink{lhs: lhs, rhs: rhs})

		return ends{in: lhs.in, out: rhs.out}
	}

	return ends{}
}

// resolveNames walks every name binding's chained references to a fixed
// point (spec §4.F step 2), bounded at maxNameResolutionDepth. A cycle is
// reported once per participant, each naming its position in the cycle
// ("i/n"), and every participant is poisoned so dependent lookups don't
// cascade into duplicate diagnostics.
func (b *Builder) resolveNames() {
	state := make(map[string]visitState, len(b.names))
	poisoned := make(map[string]bool)
	posInPath := make(map[string]int)
	var path []string

	var visit func(name string, depth int) (ends, bool)
	visit = func(name string, depth int) (ends, bool) {
		if poisoned[name] {
			return ends{}, false
		}
		if state[name] == black {
			return b.names[name], true
		}
		if state[name] == gray {
			cycle := append([]string(nil), path[posInPath[name]:]...)
			for i, participant := range cycle {
				b.diags = append(b.diags, errorf(0, "cyclic name reference: %s (cycle position %d/%d)", participant, i+1, len(cycle)))
				poisoned[participant] = true
			}

			return ends{}, false
		}
		if depth > maxNameResolutionDepth {
			b.diags = append(b.diags, errorf(0, "name resolution exceeded depth %d at %s", maxNameResolutionDepth, name))
			poisoned[name] = true

			return ends{}, false
		}

		state[name] = gray
		posInPath[name] = len(path)
		path = append(path, name)
		defer func() {
			path = path[:len(path)-1]
			delete(posInPath, name)
		}()

		e, ok := b.names[name]
		if !ok {
			b.diags = append(b.diags, errorf(0, "undefined name: %s", name))
			state[name] = black

			return ends{}, false
		}

		if !e.in.resolved {
			target, ok2 := visit(e.in.refName, depth+1)
			if !ok2 {
				poisoned[name] = true
				state[name] = black

				return ends{}, false
			}
			e.in = e.in.mergeFrom(target, false)
		}
		if !e.out.resolved {
			target, ok2 := visit(e.out.refName, depth+1)
			if !ok2 {
				poisoned[name] = true
				state[name] = black

				return ends{}, false
			}
			e.out = e.out.mergeFrom(target, true)
		}

		b.names[name] = e
		state[name] = black

		return e, true
	}

	for name := range b.names {
		visit(name, 0)
	}

	resolveEndpoint := func(e endpoint, preferOut bool) (endpoint, bool) {
		if e.resolved {
			return e, true
		}
		resolved, ok := visit(e.refName, 0)
		if !ok {
			return endpoint{}, false
		}

		return e.mergeFrom(resolved, preferOut), true
	}

	for i := range b.pending {
		if lhs, ok := resolveEndpoint(b.pending[i].lhs.out, true); ok {
			b.pending[i].lhs.out = lhs
		}
		if rhs, ok := resolveEndpoint(b.pending[i].rhs.in, false); ok {
			b.pending[i].rhs.in = rhs
		}
	}
}

// mergeFrom returns the resolved endpoint denoted by following e's
// reference to target, preferring target's out side for an output role and
// its in side for an input role. A port explicitly set on e (e.g. by a
// Paren wrapping the reference) takes precedence over target's own port,
// since the wrapping pipeline chose it.
func (e endpoint) mergeFrom(target ends, preferOut bool) endpoint {
	if e.refName == "" {
		return e
	}

	resolved := target.in
	if preferOut {
		resolved = target.out
	}
	if !resolved.resolved {
		// Fall back to whichever side did resolve.
		if preferOut {
			resolved = target.in
		} else {
			resolved = target.out
		}
	}
	if !e.port.Elided {
		resolved.port = e.port
	}

	return resolved
}

// insertPendingLinks inserts every fully-resolved pending link as a graph
// edge, reporting a port conflict via InsertEdgeAllowConflict without
// aborting (spec §4.F step 3).
func (b *Builder) insertPendingLinks() {
	for _, pl := range b.pending {
		if !pl.lhs.out.resolved || !pl.rhs.in.resolved {
			continue // already diagnosed during resolveNames
		}
		_, err := b.graph.InsertEdgeAllowConflict(
			pl.lhs.out.node, pl.lhs.out.port,
			pl.rhs.in.node, pl.rhs.in.port,
			dfirgraph.EdgeValue,
		)
		if err != nil {
			b.diags = append(b.diags, errorf(pl.lhs.out.node, "port conflict inserting edge into %s", pl.rhs.in.port))
			b.diags = append(b.diags, errorf(pl.rhs.in.node, "port conflict receiving edge from %s", pl.lhs.out.port))
		}
	}
}

// checkOperators runs catalog lookup, arity, port, and loop-role checks for
// every operator node (spec §4.F steps 4-7). Singleton references are
// checked separately by resolveSingletons.
func (b *Builder) checkOperators() {
	for _, n := range b.graph.Nodes() {
		if n.Kind != dfirgraph.NodeOperator {
			continue
		}
		spec, err := opcatalog.Lookup(n.Op.OpName)
		if err != nil {
			b.diags = append(b.diags, errorf(n.ID, "unknown operator: %s", n.Op.OpName))
			continue
		}

		b.checkArity(n, spec)
		b.checkPorts(n, spec)
		b.checkLoopRole(n, spec)
	}
}

// valueEdgeCount counts only EdgeValue edges among eids: reference edges
// carry a singleton read, not data, and never enter an operator's arity.
func (b *Builder) valueEdgeCount(eids []dfirgraph.EdgeID) int {
	n := 0
	for _, eid := range eids {
		if e, err := b.graph.Edge(eid); err == nil && e.Kind == dfirgraph.EdgeValue {
			n++
		}
	}

	return n
}

func (b *Builder) checkArity(n *dfirgraph.Node, spec *opcatalog.Spec) {
	inCount := b.valueEdgeCount(b.graph.InEdges(n.ID))
	outCount := b.valueEdgeCount(b.graph.OutEdges(n.ID))

	if !spec.HardRangeInn.InRange(inCount) {
		b.diags = append(b.diags, errorf(n.ID, "%s: input arity %d out of hard range", n.Op.OpName, inCount))
	} else if !spec.HardRangeInn.InSoftRange(inCount) {
		b.diags = append(b.diags, warnf(n.ID, "%s: input arity %d out of soft range", n.Op.OpName, inCount))
	}

	if !spec.HardRangeOut.InRange(outCount) {
		b.diags = append(b.diags, errorf(n.ID, "%s: output arity %d out of hard range", n.Op.OpName, outCount))
	} else if !spec.HardRangeOut.InSoftRange(outCount) {
		b.diags = append(b.diags, warnf(n.ID, "%s: output arity %d out of soft range", n.Op.OpName, outCount))
	}

	if !spec.PersistenceArgs.InRange(len(n.Op.Persistences)) {
		b.diags = append(b.diags, errorf(n.ID, "%s: wrong persistence-arg count %d", n.Op.OpName, len(n.Op.Persistences)))
	}
	if !spec.TypeArgs.InRange(len(n.Op.TypeArgs)) {
		b.diags = append(b.diags, errorf(n.ID, "%s: wrong type-arg count %d", n.Op.OpName, len(n.Op.TypeArgs)))
	}
}

// checkPorts validates only EdgeValue edges against spec's declared port
// names: a reference edge carries a singleton read, not a port-qualified
// data input, and is checked separately by resolveSingletons.
func (b *Builder) checkPorts(n *dfirgraph.Node, spec *opcatalog.Spec) {
	for _, eid := range b.graph.InEdges(n.ID) {
		e, err := b.graph.Edge(eid)
		if err != nil || e.Kind != dfirgraph.EdgeValue {
			continue
		}
		if !spec.InPorts.Allows(e.DstPort.String()) {
			b.diags = append(b.diags, errorf(n.ID, "%s: unexpected input port %q", n.Op.OpName, e.DstPort.String()))
		}
	}
	for _, name := range spec.InPorts.Names {
		if !b.hasInPort(n.ID, name) {
			b.diags = append(b.diags, errorf(n.ID, "%s: missing required input port %q", n.Op.OpName, name))
		}
	}

	for _, eid := range b.graph.OutEdges(n.ID) {
		e, err := b.graph.Edge(eid)
		if err != nil || e.Kind != dfirgraph.EdgeValue {
			continue
		}
		if !spec.OutPorts.Allows(e.SrcPort.String()) {
			b.diags = append(b.diags, errorf(n.ID, "%s: unexpected output port %q", n.Op.OpName, e.SrcPort.String()))
		}
	}
	for _, name := range spec.OutPorts.Names {
		if !b.hasOutPort(n.ID, name) {
			b.diags = append(b.diags, errorf(n.ID, "%s: missing required output port %q", n.Op.OpName, name))
		}
	}
}

func (b *Builder) hasInPort(id dfirgraph.NodeID, name string) bool {
	for _, eid := range b.graph.InEdges(id) {
		e, err := b.graph.Edge(eid)
		if err != nil || e.Kind != dfirgraph.EdgeValue {
			continue
		}
		if e.DstPort.String() == name {
			return true
		}
	}

	return false
}

func (b *Builder) hasOutPort(id dfirgraph.NodeID, name string) bool {
	for _, eid := range b.graph.OutEdges(id) {
		e, err := b.graph.Edge(eid)
		if err != nil || e.Kind != dfirgraph.EdgeValue {
			continue
		}
		if e.SrcPort.String() == name {
			return true
		}
	}

	return false
}

// resolveSingletons resolves each operator's named singleton references to
// node ids and verifies the referent declares HasSingletonOutput (spec §4.F
// step 6). Must run after resolveNames, since a singleton name may be bound
// to a pipeline reached only through a chain of other names.
func (b *Builder) resolveSingletons() {
	for id, names := range b.pendingSingletons {
		n, err := b.graph.Node(id)
		if err != nil {
			continue
		}
		resolved := make([]dfirgraph.NodeID, 0, len(names))
		for _, name := range names {
			e, ok := b.names[name]
			if !ok || !e.out.resolved {
				b.diags = append(b.diags, errorf(id, "unresolved singleton reference: %s", name))
				continue
			}
			refNode, refErr := b.graph.Node(e.out.node)
			if refErr != nil {
				b.diags = append(b.diags, errorf(id, "unresolved singleton reference: %s", name))
				continue
			}
			spec, specErr := opcatalog.Lookup(refNode.Op.OpName)
			if specErr != nil || !spec.HasSingletonOutput {
				b.diags = append(b.diags, errorf(id, "name %s does not reference a singleton-owning operator", name))
				continue
			}
			resolved = append(resolved, e.out.node)
		}
		n.Op.SingletonsReferenced = resolved

		// A singleton read crosses subgraphs without carrying data, so it is
		// modeled as a reference edge (spec §9 "Singletons referenced across
		// subgraphs"): the stratum assigner treats it as a barrier, but the
		// partitioner never splices a handoff onto it.
		for _, refID := range resolved {
			if _, err := b.graph.InsertEdge(refID, dfirgraph.ElidedPort, id, dfirgraph.ElidedPort, dfirgraph.EdgeReference); err != nil {
				b.diags = append(b.diags, errorf(id, "singleton reference edge from %d: %v", refID, err))
			}
		}
	}
}

// checkLoopRole enforces spec §4.F step 7: sources sit at root scope, loop
// entry edges originate at Windowing operators, loop exit edges terminate
// at Unwindowing operators, and no edge spans more than one nesting level.
func (b *Builder) checkLoopRole(n *dfirgraph.Node, spec *opcatalog.Spec) {
	if spec.FlowType == opcatalog.FlowSource && n.LoopID != 0 {
		b.diags = append(b.diags, errorf(n.ID, "%s: source operator must sit at root scope, found inside a loop", n.Op.OpName))
	}

	for _, eid := range b.graph.InEdges(n.ID) {
		e, _ := b.graph.Edge(eid)
		src, err := b.graph.Node(e.Src)
		if err != nil {
			continue
		}
		b.checkLoopCrossing(src, n, spec)
	}
}

// checkLoopCrossing validates an edge whose endpoints sit in different loop
// blocks. Nesting level is LoopDepth (how many loop blocks enclose a node),
// not LoopID: LoopID is only a unique per-block identifier assigned in
// statement order, so two sibling (non-nested) loops can get ids one apart
// while sharing the same depth — comparing raw ids would misclassify that
// as a legal one-level crossing.
func (b *Builder) checkLoopCrossing(src, dst *dfirgraph.Node, dstSpec *opcatalog.Spec) {
	if src.LoopID == dst.LoopID {
		return
	}

	switch {
	case abs(src.LoopDepth-dst.LoopDepth) > 1:
		b.diags = append(b.diags, errorf(dst.ID, "%s: edge spans more than one loop nesting level", dst.Op.OpName))

	case dst.LoopDepth > src.LoopDepth:
		// Entering a loop: dst must be Windowing.
		if dstSpec.FlowType != opcatalog.FlowWindowing {
			b.diags = append(b.diags, errorf(dst.ID, "%s: edge into loop must target a windowing operator", dst.Op.OpName))
		}

	case dst.LoopDepth < src.LoopDepth:
		// Leaving a loop: src must be Unwindowing.
		srcSpec, err := opcatalog.Lookup(src.Op.OpName)
		if err != nil {
			return // unknown-operator diagnostic already reported for src
		}
		if srcSpec.FlowType != opcatalog.FlowUnwindowing {
			b.diags = append(b.diags, errorf(dst.ID, "%s: edge out of loop must originate at an unwindowing operator", src.Op.OpName))
		}

	default:
		// Same depth, different loop id: sibling loop bodies are not
		// nested with respect to each other, so no direct edge between
		// them is a valid single-step crossing.
		b.diags = append(b.diags, errorf(dst.ID, "%s: edge connects two unrelated loop scopes at the same nesting level", dst.Op.OpName))
	}
}

// checkLoopCycles enforces spec §4.F step 7's last clause: within each loop
// body, the subgraph of value edges, excluding defer_tick, must be a DAG;
// otherwise every node participating in the cycle is reported. Root-scope
// nodes (LoopID == 0) are outside any loop body and are exempt.
func (b *Builder) checkLoopCycles() {
	byLoop := make(map[int][]dfirgraph.NodeID)
	for _, n := range b.graph.Nodes() {
		if n.Kind == dfirgraph.NodeOperator && n.LoopID != 0 {
			byLoop[n.LoopID] = append(byLoop[n.LoopID], n.ID)
		}
	}

	excludeDeferTick := func(dst dfirgraph.NodeID) bool {
		n, err := b.graph.Node(dst)

		return err == nil && n.Op.OpName == "defer_tick"
	}

	for loopID, members := range byLoop {
		cycle, found := graphalgo.DetectCycle(b.graph, members, excludeDeferTick)
		if !found {
			continue
		}
		// DetectCycle closes the cycle on its first node; report each
		// participant once.
		for _, id := range cycle[:len(cycle)-1] {
			opName := "?"
			if n, err := b.graph.Node(id); err == nil {
				opName = n.Op.OpName
			}
			b.diags = append(b.diags, errorf(id, "%s: illegal cycle within loop block %d (excluding defer_tick)", opName, loopID))
		}
	}
}

func abs(n int) int {
	if n < 0 {
		return -n
	}

	return n
}
