package graphalgo

import "github.com/katalvlaran/dfir/dfirgraph"

// DetectCycle walks the value-edge subgraph induced by nodes, skipping any
// edge whose destination node excludeBarrier reports as a scheduling
// barrier (spec §4.F step 7: "the subgraph of value edges, excluding
// defer_tick, must be a DAG"). It returns the first cycle found as an
// ordered node list closing back on its own first element, or (nil, false)
// if none exists.
//
// Unlike the teacher's DetectCycles, this does not enumerate every simple
// cycle — the flat-graph builder only needs one representative cycle to
// build a diagnostic naming the offending nodes (spec §4.F step 7: "every
// node in the cycle is reported").
func DetectCycle(g *dfirgraph.Graph, nodes []dfirgraph.NodeID, excludeBarrier func(dst dfirgraph.NodeID) bool) ([]dfirgraph.NodeID, bool) {
	inSet := make(map[dfirgraph.NodeID]bool, len(nodes))
	for _, n := range nodes {
		inSet[n] = true
	}

	state := make(map[dfirgraph.NodeID]visitState, len(nodes))
	path := make([]dfirgraph.NodeID, 0, len(nodes))

	var found []dfirgraph.NodeID

	var visit func(id dfirgraph.NodeID) bool
	visit = func(id dfirgraph.NodeID) bool {
		state[id] = gray
		path = append(path, id)

		for _, eid := range g.OutEdges(id) {
			e, err := g.Edge(eid)
			if err != nil || e.Kind != dfirgraph.EdgeValue || !inSet[e.Dst] {
				continue
			}
			if excludeBarrier != nil && excludeBarrier(e.Dst) {
				continue
			}

			switch state[e.Dst] {
			case white:
				if visit(e.Dst) {
					return true
				}
			case gray:
				idx := indexOf(path, e.Dst)
				found = append(append([]dfirgraph.NodeID(nil), path[idx:]...), e.Dst)

				return true
			}
		}

		path = path[:len(path)-1]
		state[id] = black

		return false
	}

	for _, n := range nodes {
		if state[n] == white {
			if visit(n) {
				return found, true
			}
		}
	}

	return nil, false
}

func indexOf(path []dfirgraph.NodeID, id dfirgraph.NodeID) int {
	for i, p := range path {
		if p == id {
			return i
		}
	}

	return -1
}
