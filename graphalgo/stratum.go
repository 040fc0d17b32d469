package graphalgo

import (
	"github.com/katalvlaran/dfir/dfirgraph"
	"github.com/katalvlaran/dfir/opcatalog"
)

// AssignStrata computes each operator node's stratum number by repeatedly
// relaxing `stratum(dst) >= stratum(src) + 1` for every edge whose
// destination port is a Stratum barrier, per spec §4.G. Singleton reference
// edges carry an implicit Stratum barrier regardless of the destination
// operator's own InputDelayType. Tick-barrier edges never bump stratum;
// TickBoundary reports which destination nodes require a new tick instead.
//
// Iterates to a fixed point (bounded by node count, since each relaxation
// strictly increases some node's stratum and strata are bounded above by
// the node count in an acyclic barrier graph).
func AssignStrata(g *dfirgraph.Graph) (map[dfirgraph.NodeID]int, map[dfirgraph.NodeID]bool) {
	nodes := g.Nodes()
	stratum := make(map[dfirgraph.NodeID]int, len(nodes))
	tickBoundary := make(map[dfirgraph.NodeID]bool)

	for _, n := range nodes {
		stratum[n.ID] = 0
	}

	specOf := func(n *dfirgraph.Node) *opcatalog.Spec {
		if n.Kind != dfirgraph.NodeOperator {
			return nil
		}
		spec, err := opcatalog.Lookup(n.Op.OpName)
		if err != nil {
			return nil
		}

		return spec
	}

	changed := true
	for pass := 0; changed && pass <= len(nodes); pass++ {
		changed = false
		for _, n := range nodes {
			for _, eid := range g.InEdges(n.ID) {
				e, err := g.Edge(eid)
				if err != nil {
					continue
				}
				src, err := g.Node(e.Src)
				if err != nil {
					continue
				}

				barrier := e.Kind == dfirgraph.EdgeReference
				tick := false
				if spec := specOf(n); spec != nil && spec.InputDelayType != nil {
					switch spec.InputDelayType(e.DstPort.String()) {
					case opcatalog.Stratum:
						barrier = true
					case opcatalog.Tick:
						tick = true
					}
				}

				if tick {
					tickBoundary[n.ID] = true
					continue
				}
				if !barrier {
					if stratum[n.ID] < stratum[src.ID] {
						stratum[n.ID] = stratum[src.ID]
						changed = true
					}
					continue
				}
				if stratum[n.ID] < stratum[src.ID]+1 {
					stratum[n.ID] = stratum[src.ID] + 1
					changed = true
				}
			}
		}
	}

	return stratum, tickBoundary
}
