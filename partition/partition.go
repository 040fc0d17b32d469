// Package partition implements the pull/push partitioner spec §4.H
// describes: color every operator node Pull or Push (or Compute, which
// always splits), insert handoffs at stratum boundaries and incompatible
// color adjacencies, group the remainder into connected-component
// subgraphs, and place each subgraph's pull/push pivot.
//
// Connected-component grouping is grounded on the teacher's Kruskal
// disjoint-set-union traversal (graph/prim_kruskal.go); node coloring by
// in/out degree mirrors builder/impl_grid.go's classify-by-degree
// construction pattern.
package partition

import (
	"errors"
	"sort"

	"github.com/katalvlaran/dfir/dfirgraph"
	"github.com/katalvlaran/dfir/graphalgo"
)

// ErrUnmergedModuleBoundary indicates the graph still contains a
// NodeModuleBoundary node. Spec §3 requires ModuleBoundary nodes to be
// eliminated (via dfirgraph.Graph.MergeModules) before execution; since the
// partitioner only colors and groups NodeOperator nodes, a leftover
// boundary node would otherwise be silently skipped — it gets no subgraph,
// no color, and never runs.
var ErrUnmergedModuleBoundary = errors.New("partition: graph contains an unmerged module boundary node")

// Color is a node's pull/push classification, per spec §4.H.
type Color int

const (
	// Pull: the node draws from upstream (in=0,out=1, or in>1,out<=1).
	Pull Color = iota
	// Push: the node pushes downstream (in=1,out=0, or in<=1,out>1).
	Push
	// Either: in=1,out=1 — the node's role is decided by its neighbors.
	Either
	// Compute: in>1,out>1 — always split by a trailing handoff.
	Compute
)

// ColorOf classifies a node by its value-edge in/out degree, per spec §4.H's
// rule table.
func ColorOf(inCount, outCount int) Color {
	switch {
	case inCount == 0 && outCount == 1:
		return Pull
	case inCount == 1 && outCount == 0:
		return Push
	case inCount == 1 && outCount == 1:
		return Either
	case inCount > 1 && outCount > 1:
		return Compute
	case inCount > 1:
		return Pull
	case outCount > 1:
		return Push
	default:
		return Either
	}
}

// lazyMarked names the operators a lazy subgraph may consist of (spec §4.H:
// "contains only lazy-marked operators, e.g. defer"); isLazy also requires
// every outgoing handoff to target a later stratum. These are exactly the tick-deferring/persisting operators: they
// never force the current tick to continue just because they produced data.
var lazyMarked = map[string]bool{
	"persist":    true,
	"defer_tick": true,
	"next_tick":  true,
}

// valueEdgeCounts returns a node's in/out degree counting only EdgeValue
// edges (reference edges never enter the pull/push coloring decision).
func valueEdgeCounts(g *dfirgraph.Graph, id dfirgraph.NodeID) (int, int) {
	in := 0
	for _, eid := range g.InEdges(id) {
		if e, err := g.Edge(eid); err == nil && e.Kind == dfirgraph.EdgeValue {
			in++
		}
	}
	out := 0
	for _, eid := range g.OutEdges(id) {
		if e, err := g.Edge(eid); err == nil && e.Kind == dfirgraph.EdgeValue {
			out++
		}
	}

	return in, out
}

// Partition runs the full algorithm against g in place: it colors nodes,
// splices in handoffs, forms subgraphs, and sets each subgraph's pivot. It
// returns the assigned subgraph ids in ascending order.
func Partition(g *dfirgraph.Graph) ([]dfirgraph.SubgraphID, error) {
	for _, n := range g.Nodes() {
		if n.Kind == dfirgraph.NodeModuleBoundary {
			return nil, ErrUnmergedModuleBoundary
		}
	}

	strata, _ := graphalgo.AssignStrata(g)

	colors := make(map[dfirgraph.NodeID]Color)
	for _, n := range g.Nodes() {
		if n.Kind != dfirgraph.NodeOperator {
			continue
		}
		in, out := valueEdgeCounts(g, n.ID)
		colors[n.ID] = ColorOf(in, out)
	}

	if err := insertHandoffs(g, colors, strata); err != nil {
		return nil, err
	}

	return formSubgraphs(g, strata)
}

// insertHandoffs splices a Handoff node onto every value edge that either
// crosses a stratum boundary, leaves a Compute node, or connects a Push
// producer directly to a Pull consumer (spec §4.H).
func insertHandoffs(g *dfirgraph.Graph, colors map[dfirgraph.NodeID]Color, strata map[dfirgraph.NodeID]int) error {
	var toSplit []dfirgraph.EdgeID
	for _, e := range g.Edges() {
		if e.Kind != dfirgraph.EdgeValue {
			continue
		}
		srcNode, err := g.Node(e.Src)
		if err != nil || srcNode.Kind != dfirgraph.NodeOperator {
			continue
		}
		dstNode, err := g.Node(e.Dst)
		if err != nil || dstNode.Kind != dfirgraph.NodeOperator {
			continue
		}

		needsSplit := strata[e.Dst] > strata[e.Src] ||
			colors[e.Src] == Compute ||
			(colors[e.Src] == Push && colors[e.Dst] == Pull)

		if needsSplit {
			toSplit = append(toSplit, e.ID)
		}
	}

	for _, eid := range toSplit {
		if _, err := g.InsertIntermediateNode(eid, dfirgraph.Node{Kind: dfirgraph.NodeHandoff}); err != nil {
			return err
		}
	}

	return nil
}

// formSubgraphs groups operator nodes connected by surviving (non-handoff)
// value edges into maximal components via union-find, inserts one subgraph
// per component, and places its pivot.
func formSubgraphs(g *dfirgraph.Graph, strata map[dfirgraph.NodeID]int) ([]dfirgraph.SubgraphID, error) {
	nodes := g.Nodes()
	parent := make(map[dfirgraph.NodeID]dfirgraph.NodeID, len(nodes))
	for _, n := range nodes {
		if n.Kind == dfirgraph.NodeOperator {
			parent[n.ID] = n.ID
		}
	}

	var find func(dfirgraph.NodeID) dfirgraph.NodeID
	find = func(id dfirgraph.NodeID) dfirgraph.NodeID {
		if parent[id] != id {
			parent[id] = find(parent[id])
		}

		return parent[id]
	}
	union := func(a, b dfirgraph.NodeID) {
		ra, rb := find(a), find(b)
		if ra != rb {
			parent[ra] = rb
		}
	}

	for _, e := range g.Edges() {
		if e.Kind != dfirgraph.EdgeValue {
			continue
		}
		if _, ok := parent[e.Src]; !ok {
			continue
		}
		if _, ok := parent[e.Dst]; !ok {
			continue
		}
		union(e.Src, e.Dst)
	}

	components := make(map[dfirgraph.NodeID][]dfirgraph.NodeID)
	for id := range parent {
		root := find(id)
		components[root] = append(components[root], id)
	}

	roots := make([]dfirgraph.NodeID, 0, len(components))
	for root := range components {
		roots = append(roots, root)
	}
	sort.Slice(roots, func(i, j int) bool { return roots[i] < roots[j] })

	var sgIDs []dfirgraph.SubgraphID
	for _, root := range roots {
		members := components[root]
		sort.Slice(members, func(i, j int) bool { return members[i] < members[j] })

		ordered, err := graphalgo.TopologicalSort(g, members)
		if err != nil {
			ordered = members // a cycle here is a builder-level bug elsewhere; fall back to stable order
		}

		maxStratum := 0
		for _, id := range ordered {
			if strata[id] > maxStratum {
				maxStratum = strata[id]
			}
		}

		sgID, err := g.InsertSubgraph(ordered, maxStratum, isLazy(g, ordered))
		if err != nil {
			return nil, err
		}

		pivot := len(ordered)
		for i, id := range ordered {
			in, out := valueEdgeCounts(g, id)
			if ColorOf(in, out) == Push {
				pivot = i
				break
			}
		}
		if err := g.SetPivot(sgID, pivot); err != nil {
			return nil, err
		}

		sgIDs = append(sgIDs, sgID)
	}

	return sgIDs, nil
}

// isLazy reports whether every outgoing handoff of members targets a
// strictly later stratum and every member is a lazy-marked operator, per
// spec §4.H.
func isLazy(g *dfirgraph.Graph, members []dfirgraph.NodeID) bool {
	for _, id := range members {
		n, err := g.Node(id)
		if err != nil || n.Kind != dfirgraph.NodeOperator || !lazyMarked[n.Op.OpName] {
			return false
		}
	}

	strata, _ := graphalgo.AssignStrata(g)
	for _, id := range members {
		for _, eid := range g.OutEdges(id) {
			e, err := g.Edge(eid)
			if err != nil {
				continue
			}
			hoff, err := g.Node(e.Dst)
			if err != nil || hoff.Kind != dfirgraph.NodeHandoff {
				continue
			}
			for _, hoffOut := range g.OutEdges(hoff.ID) {
				he, err := g.Edge(hoffOut)
				if err != nil {
					continue
				}
				if strata[he.Dst] <= strata[id] {
					return false
				}
			}
		}
	}

	return true
}
