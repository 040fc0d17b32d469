package dfirgraph

import "sort"

// InsertNode adds an operator, handoff, or module-boundary node and returns
// its freshly allocated ID.
func (g *Graph) InsertNode(n Node) NodeID {
	g.muNodes.Lock()
	g.nextNodeID++
	id := g.nextNodeID
	n.ID = id
	g.nodes[id] = &n
	g.muNodes.Unlock()

	g.muEdgeAdj.Lock()
	g.outAdj[id] = nil
	g.inAdj[id] = nil
	g.muEdgeAdj.Unlock()

	return id
}

// Node returns the node record for id, or ErrNodeNotFound.
func (g *Graph) Node(id NodeID) (*Node, error) {
	g.muNodes.RLock()
	defer g.muNodes.RUnlock()

	n, ok := g.nodes[id]
	if !ok {
		return nil, ErrNodeNotFound
	}

	return n, nil
}

// Nodes returns every node sorted by ID ascending, for deterministic output.
func (g *Graph) Nodes() []*Node {
	g.muNodes.RLock()
	defer g.muNodes.RUnlock()

	out := make([]*Node, 0, len(g.nodes))
	for _, n := range g.nodes {
		out = append(out, n)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })

	return out
}

// portConflict reports whether inserting an edge with the given (src,
// srcPort) or (dst, dstPort) collides with an edge already present on that
// side of that node, per spec §3 invariant 1: a node may not have two edges
// claiming the same explicit port on the same side.
func (g *Graph) portConflict(src NodeID, srcPort Port, dst NodeID, dstPort Port) bool {
	for _, eid := range g.outAdj[src] {
		if e := g.edges[eid]; e.SrcPort.Equal(srcPort) {
			return true
		}
	}
	for _, eid := range g.inAdj[dst] {
		if e := g.edges[eid]; e.DstPort.Equal(dstPort) {
			return true
		}
	}

	return false
}

// InsertEdge connects src/srcPort to dst/dstPort and returns the new edge's
// ID. Returns ErrNodeNotFound if either endpoint is absent, or
// ErrPortConflict if the named port is already claimed on that side.
func (g *Graph) InsertEdge(src NodeID, srcPort Port, dst NodeID, dstPort Port, kind EdgeKind) (EdgeID, error) {
	g.muNodes.RLock()
	_, srcOK := g.nodes[src]
	_, dstOK := g.nodes[dst]
	g.muNodes.RUnlock()
	if !srcOK || !dstOK {
		return 0, ErrNodeNotFound
	}

	g.muEdgeAdj.Lock()
	defer g.muEdgeAdj.Unlock()

	if g.portConflict(src, srcPort, dst, dstPort) {
		return 0, ErrPortConflict
	}

	g.nextEdgeID++
	id := g.nextEdgeID
	e := &Edge{ID: id, Src: src, SrcPort: srcPort, Dst: dst, DstPort: dstPort, Kind: kind}
	g.edges[id] = e
	g.outAdj[src] = append(g.outAdj[src], id)
	g.inAdj[dst] = append(g.inAdj[dst], id)

	return id, nil
}

// InsertEdgeAllowConflict behaves like InsertEdge but inserts even when a
// port conflict is detected, returning (id, ErrPortConflict) rather than
// (0, ErrPortConflict). Used by the flat-graph builder, which must report a
// port conflict as a diagnostic without aborting the rest of the build
// (spec §4.F step 3: "emit two diagnostics... and still insert the edge to
// avoid cascading errors").
func (g *Graph) InsertEdgeAllowConflict(src NodeID, srcPort Port, dst NodeID, dstPort Port, kind EdgeKind) (EdgeID, error) {
	g.muNodes.RLock()
	_, srcOK := g.nodes[src]
	_, dstOK := g.nodes[dst]
	g.muNodes.RUnlock()
	if !srcOK || !dstOK {
		return 0, ErrNodeNotFound
	}

	g.muEdgeAdj.Lock()
	defer g.muEdgeAdj.Unlock()

	conflict := g.portConflict(src, srcPort, dst, dstPort)

	g.nextEdgeID++
	id := g.nextEdgeID
	e := &Edge{ID: id, Src: src, SrcPort: srcPort, Dst: dst, DstPort: dstPort, Kind: kind}
	g.edges[id] = e
	g.outAdj[src] = append(g.outAdj[src], id)
	g.inAdj[dst] = append(g.inAdj[dst], id)

	if conflict {
		return id, ErrPortConflict
	}

	return id, nil
}

// Edge returns the edge record for id, or ErrEdgeNotFound.
func (g *Graph) Edge(id EdgeID) (*Edge, error) {
	g.muEdgeAdj.RLock()
	defer g.muEdgeAdj.RUnlock()

	e, ok := g.edges[id]
	if !ok {
		return nil, ErrEdgeNotFound
	}

	return e, nil
}

// Edges returns every edge sorted by ID ascending.
func (g *Graph) Edges() []*Edge {
	g.muEdgeAdj.RLock()
	defer g.muEdgeAdj.RUnlock()

	out := make([]*Edge, 0, len(g.edges))
	for _, e := range g.edges {
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })

	return out
}

// OutEdges returns the edge IDs leaving node n, in insertion order.
func (g *Graph) OutEdges(n NodeID) []EdgeID {
	g.muEdgeAdj.RLock()
	defer g.muEdgeAdj.RUnlock()

	out := make([]EdgeID, len(g.outAdj[n]))
	copy(out, g.outAdj[n])

	return out
}

// InEdges returns the edge IDs entering node n, in insertion order.
func (g *Graph) InEdges(n NodeID) []EdgeID {
	g.muEdgeAdj.RLock()
	defer g.muEdgeAdj.RUnlock()

	out := make([]EdgeID, len(g.inAdj[n]))
	copy(out, g.inAdj[n])

	return out
}

// removeEdgeLocked deletes one edge and its adjacency entries. Callers must
// hold muEdgeAdj.
func (g *Graph) removeEdgeLocked(id EdgeID) {
	e, ok := g.edges[id]
	if !ok {
		return
	}
	delete(g.edges, id)
	g.outAdj[e.Src] = removeID(g.outAdj[e.Src], id)
	g.inAdj[e.Dst] = removeID(g.inAdj[e.Dst], id)
}

func removeID(ids []EdgeID, target EdgeID) []EdgeID {
	out := ids[:0]
	for _, id := range ids {
		if id != target {
			out = append(out, id)
		}
	}

	return out
}

// InsertIntermediateNode splices a new node onto an existing edge: the
// original edge src->dst is replaced by src->mid and mid->dst, preserving
// src's original out-port and dst's original in-port on the outer two edges
// and using elided ports on the new node's two sides. Used by the
// partitioner to splice in handoffs (spec §4.H) without the caller needing
// to know the original edge's ports.
func (g *Graph) InsertIntermediateNode(edgeID EdgeID, mid Node) (NodeID, error) {
	g.muEdgeAdj.Lock()
	e, ok := g.edges[edgeID]
	if !ok {
		g.muEdgeAdj.Unlock()
		return 0, ErrEdgeNotFound
	}
	src, srcPort, dst, dstPort, kind := e.Src, e.SrcPort, e.Dst, e.DstPort, e.Kind
	g.removeEdgeLocked(edgeID)
	g.muEdgeAdj.Unlock()

	midID := g.InsertNode(mid)

	g.muEdgeAdj.Lock()
	defer g.muEdgeAdj.Unlock()

	g.nextEdgeID++
	first := g.nextEdgeID
	g.edges[first] = &Edge{ID: first, Src: src, SrcPort: srcPort, Dst: midID, DstPort: ElidedPort, Kind: kind}
	g.outAdj[src] = append(g.outAdj[src], first)
	g.inAdj[midID] = append(g.inAdj[midID], first)

	g.nextEdgeID++
	second := g.nextEdgeID
	g.edges[second] = &Edge{ID: second, Src: midID, SrcPort: ElidedPort, Dst: dst, DstPort: dstPort, Kind: kind}
	g.outAdj[midID] = append(g.outAdj[midID], second)
	g.inAdj[dst] = append(g.inAdj[dst], second)

	return midID, nil
}

// RemoveIntermediateNode reverses a splice: node mid must have exactly one
// in-edge and one out-edge and no subgraph assignment, and is replaced by a
// direct edge from mid's predecessor to mid's successor carrying mid's
// in-edge's source port and out-edge's destination port. Returns
// ErrNotSplice otherwise.
func (g *Graph) RemoveIntermediateNode(mid NodeID) (EdgeID, error) {
	g.muNodes.RLock()
	n, ok := g.nodes[mid]
	g.muNodes.RUnlock()
	if !ok {
		return 0, ErrNodeNotFound
	}
	if n.Subgraph != 0 {
		return 0, ErrNotSplice
	}

	g.muEdgeAdj.Lock()
	defer g.muEdgeAdj.Unlock()

	ins, outs := g.inAdj[mid], g.outAdj[mid]
	if len(ins) != 1 || len(outs) != 1 {
		return 0, ErrNotSplice
	}

	inEdge := g.edges[ins[0]]
	outEdge := g.edges[outs[0]]
	src, srcPort := inEdge.Src, inEdge.SrcPort
	dst, dstPort := outEdge.Dst, outEdge.DstPort
	kind := inEdge.Kind

	g.removeEdgeLocked(ins[0])
	g.removeEdgeLocked(outs[0])

	g.muNodes.Lock()
	delete(g.nodes, mid)
	g.muNodes.Unlock()
	delete(g.outAdj, mid)
	delete(g.inAdj, mid)

	g.nextEdgeID++
	id := g.nextEdgeID
	g.edges[id] = &Edge{ID: id, Src: src, SrcPort: srcPort, Dst: dst, DstPort: dstPort, Kind: kind}
	g.outAdj[src] = append(g.outAdj[src], id)
	g.inAdj[dst] = append(g.inAdj[dst], id)

	return id, nil
}

// InsertSubgraph assigns a fresh SubgraphID to nodes and records stratum/lazy
// metadata, per spec §4.H partitioning output. Returns ErrAlreadyPartitioned
// if any node already carries a subgraph assignment.
func (g *Graph) InsertSubgraph(nodes []NodeID, stratum int, lazy bool) (SubgraphID, error) {
	g.muNodes.Lock()
	defer g.muNodes.Unlock()

	for _, id := range nodes {
		n, ok := g.nodes[id]
		if !ok {
			return 0, ErrNodeNotFound
		}
		if n.Subgraph != 0 {
			return 0, ErrAlreadyPartitioned
		}
	}

	g.nextSgID++
	sgID := g.nextSgID
	ordered := append([]NodeID(nil), nodes...)
	sg := &Subgraph{ID: sgID, Stratum: stratum, Lazy: lazy, Nodes: ordered, Pivot: len(ordered)}
	g.subgraphs[sgID] = sg

	for _, id := range nodes {
		g.nodes[id].Subgraph = sgID
	}

	return sgID, nil
}

// Subgraph returns the subgraph record for id, or ErrNodeNotFound if absent
// (subgraphs share the not-found sentinel since both are graph-keyed by id).
func (g *Graph) Subgraph(id SubgraphID) (*Subgraph, error) {
	g.muNodes.RLock()
	defer g.muNodes.RUnlock()

	sg, ok := g.subgraphs[id]
	if !ok {
		return nil, ErrNodeNotFound
	}

	return sg, nil
}

// Subgraphs returns every subgraph sorted by ID ascending.
func (g *Graph) Subgraphs() []*Subgraph {
	g.muNodes.RLock()
	defer g.muNodes.RUnlock()

	out := make([]*Subgraph, 0, len(g.subgraphs))
	for _, sg := range g.subgraphs {
		out = append(out, sg)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })

	return out
}

// SetPivot records the index within sg.Nodes at which the push-colored
// suffix begins, per spec §4.H "pivot". idx == len(Nodes) means the
// subgraph is entirely pull-colored.
func (g *Graph) SetPivot(sgID SubgraphID, idx int) error {
	g.muNodes.Lock()
	defer g.muNodes.Unlock()

	sg, ok := g.subgraphs[sgID]
	if !ok {
		return ErrNodeNotFound
	}
	sg.Pivot = idx

	return nil
}

// MergeModules splices a module invocation's boundary nodes out of the
// graph: each boundary node is collapsed as a passthrough, its own incoming
// edge on port P joined directly to its own outgoing edge on port P, and
// both boundary nodes are deleted. This is the flattening step spec §4.D
// "Module resolution" describes: nested surface-language modules compile to
// ordinary subgraphs once their boundaries are erased.
//
// inBoundary and outBoundary must be NodeModuleBoundary nodes, and each one's
// incoming port set must match its own outgoing port set one-to-one;
// otherwise ErrModuleBoundaryMismatch.
func (g *Graph) MergeModules(inBoundary, outBoundary NodeID) error {
	g.muNodes.RLock()
	inNode, inOK := g.nodes[inBoundary]
	outNode, outOK := g.nodes[outBoundary]
	g.muNodes.RUnlock()
	if !inOK || !outOK {
		return ErrNodeNotFound
	}
	if inNode.Kind != NodeModuleBoundary || outNode.Kind != NodeModuleBoundary {
		return ErrModuleBoundaryMismatch
	}

	g.muEdgeAdj.Lock()
	defer g.muEdgeAdj.Unlock()

	// Every edge entering inBoundary on port P is rewired to instead come
	// from whatever feeds outBoundary's port P's matching internal producer:
	// in this flattened model, the module's internals already connect
	// directly to inBoundary/outBoundary, so rewiring means reconnecting
	// inBoundary's consumers directly to inBoundary's own producers, and
	// outBoundary's consumers directly to outBoundary's own producers — the
	// boundary nodes are pure passthroughs by construction once a module is
	// fully inlined, so each simply collapses like RemoveIntermediateNode
	// but across potentially many ports.
	inPreds := append([]EdgeID(nil), g.inAdj[inBoundary]...)
	inSuccs := append([]EdgeID(nil), g.outAdj[inBoundary]...)
	if len(inPreds) != len(inSuccs) {
		return ErrModuleBoundaryMismatch
	}
	if err := g.collapsePassthroughLocked(inBoundary, inPreds, inSuccs); err != nil {
		return err
	}

	outPreds := append([]EdgeID(nil), g.inAdj[outBoundary]...)
	outSuccs := append([]EdgeID(nil), g.outAdj[outBoundary]...)
	if len(outPreds) != len(outSuccs) {
		return ErrModuleBoundaryMismatch
	}

	return g.collapsePassthroughLocked(outBoundary, outPreds, outSuccs)
}

// collapsePassthroughLocked matches each in-edge of node by DstPort to the
// out-edge of node sharing the same SrcPort, replaces the pair with a direct
// edge, and finally deletes node. Callers must hold muEdgeAdj.
func (g *Graph) collapsePassthroughLocked(node NodeID, preds, succs []EdgeID) error {
	succByPort := make(map[string]EdgeID, len(succs))
	for _, sid := range succs {
		succByPort[g.edges[sid].SrcPort.String()] = sid
	}

	for _, pid := range preds {
		pred := g.edges[pid]
		sid, ok := succByPort[pred.DstPort.String()]
		if !ok {
			return ErrModuleBoundaryMismatch
		}
		succ := g.edges[sid]

		g.nextEdgeID++
		id := g.nextEdgeID
		g.edges[id] = &Edge{ID: id, Src: pred.Src, SrcPort: pred.SrcPort, Dst: succ.Dst, DstPort: succ.DstPort, Kind: pred.Kind}
		g.outAdj[pred.Src] = append(g.outAdj[pred.Src], id)
		g.inAdj[succ.Dst] = append(g.inAdj[succ.Dst], id)

		g.removeEdgeLocked(pid)
		g.removeEdgeLocked(sid)
	}

	g.muNodes.Lock()
	delete(g.nodes, node)
	g.muNodes.Unlock()
	delete(g.outAdj, node)
	delete(g.inAdj, node)

	return nil
}
