// Package graphalgo implements the graph-algorithm layer spec §4.G
// describes: topological sort over a node subset, cycle detection that
// reports the offending node set, and stratum fixpoint assignment driven by
// operator DelayType barriers.
//
// The traversal shape throughout is the teacher's own White/Gray/Black DFS
// state machine (dfs/topological.go, dfs/cycle.go), generalized from
// core.Graph's string vertex IDs to dfirgraph.Graph's integer NodeIDs and
// from undirected/directed edge flags to value/reference EdgeKind.
package graphalgo

import (
	"errors"
	"fmt"

	"github.com/katalvlaran/dfir/dfirgraph"
)

// visitState mirrors dfs.White/Gray/Black.
type visitState int

const (
	white visitState = iota
	gray
	black
)

// ErrCycleDetected indicates TopologicalSort found a cycle in the requested
// node subset.
var ErrCycleDetected = errors.New("graphalgo: cycle detected")

// sorter encapsulates one topological-sort run.
type sorter struct {
	g       *dfirgraph.Graph
	inSet   map[dfirgraph.NodeID]bool
	state   map[dfirgraph.NodeID]visitState
	order   []dfirgraph.NodeID
}

// TopologicalSort orders nodes such that for every edge u->v with both
// endpoints in nodes, u precedes v. Returns ErrCycleDetected if the induced
// subgraph has one.
func TopologicalSort(g *dfirgraph.Graph, nodes []dfirgraph.NodeID) ([]dfirgraph.NodeID, error) {
	s := &sorter{
		g:     g,
		inSet: make(map[dfirgraph.NodeID]bool, len(nodes)),
		state: make(map[dfirgraph.NodeID]visitState, len(nodes)),
		order: make([]dfirgraph.NodeID, 0, len(nodes)),
	}
	for _, n := range nodes {
		s.inSet[n] = true
	}

	for _, n := range nodes {
		if s.state[n] == white {
			if err := s.visit(n); err != nil {
				return nil, err
			}
		}
	}

	for i, j := 0, len(s.order)-1; i < j; i, j = i+1, j-1 {
		s.order[i], s.order[j] = s.order[j], s.order[i]
	}

	return s.order, nil
}

func (s *sorter) visit(id dfirgraph.NodeID) error {
	if s.state[id] == gray {
		return fmt.Errorf("%w: at node %d", ErrCycleDetected, id)
	}
	if s.state[id] == black {
		return nil
	}
	s.state[id] = gray

	for _, eid := range s.g.OutEdges(id) {
		e, err := s.g.Edge(eid)
		if err != nil {
			continue
		}
		if !s.inSet[e.Dst] {
			continue
		}
		if err := s.visit(e.Dst); err != nil {
			return err
		}
	}

	s.state[id] = black
	s.order = append(s.order, id)

	return nil
}
