package dataflow

// End-to-end scenarios exercising the full build -> partition -> run
// pipeline. Operator codegen lives outside this repository, so each
// scenario's RunFunc bodies are hand-written simulations of the operator
// semantics flatbuild/opcatalog describe, wired onto the real graph the
// builder and partitioner produce.

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/katalvlaran/dfir/dfirgraph"
	"github.com/katalvlaran/dfir/flatbuild"
	"github.com/katalvlaran/dfir/handoff"
	"github.com/katalvlaran/dfir/lattice"
	"github.com/katalvlaran/dfir/partition"
	"github.com/katalvlaran/dfir/row"
	"github.com/katalvlaran/dfir/scheduler"
)

func paren(inner flatbuild.Pipeline, inPort, outPort dfirgraph.Port) flatbuild.Pipeline {
	return flatbuild.Pipeline{Kind: flatbuild.PipelineParen, Inner: &inner, InPort: inPort, OutPort: outPort}
}

func buildAndPartition(t *testing.T, stmts []flatbuild.Statement) *dfirgraph.Graph {
	t.Helper()

	g, diags, err := flatbuild.Build(stmts)
	require.NoError(t, err)
	require.False(t, flatbuild.HasErrors(diags), "diagnostics: %+v", diags)

	_, err = partition.Partition(g)
	require.NoError(t, err)

	return g
}

func findOp(t *testing.T, g *dfirgraph.Graph, opName string) *dfirgraph.Node {
	t.Helper()
	for _, n := range g.Nodes() {
		if n.Kind == dfirgraph.NodeOperator && n.Op.OpName == opName {
			return n
		}
	}
	t.Fatalf("no %s node found", opName)

	return nil
}

func findAllOps(t *testing.T, g *dfirgraph.Graph, opName string) []*dfirgraph.Node {
	t.Helper()
	var out []*dfirgraph.Node
	for _, n := range g.Nodes() {
		if n.Kind == dfirgraph.NodeOperator && n.Op.OpName == opName {
			out = append(out, n)
		}
	}

	return out
}

// handoffFeeding returns the handoff node whose out-edge lands on dstPort of
// dst, asserting the partitioner actually spliced one there.
func handoffFeeding(t *testing.T, g *dfirgraph.Graph, dst dfirgraph.NodeID, dstPort string) *dfirgraph.Node {
	t.Helper()
	for _, e := range g.Edges() {
		if e.Dst != dst || e.DstPort.String() != dstPort {
			continue
		}
		src, err := g.Node(e.Src)
		require.NoError(t, err)
		require.Equal(t, dfirgraph.NodeHandoff, src.Kind, "edge into %s port %q is not fed by a handoff", dst, dstPort)

		return src
	}
	t.Fatalf("no edge feeds %s port %q of node %d", dstPort, dstPort, dst)

	return nil
}

// S1: source_stream(in) -> map(+1) -> filter(even) -> for_each(out.push).
func TestScenarioMapFilterForEach(t *testing.T) {
	stmts := []flatbuild.Statement{
		{Kind: flatbuild.StmtBare, Pipe: flatbuild.Link(
			flatbuild.Op("source_stream"),
			flatbuild.Link(flatbuild.Op("map"), flatbuild.Link(flatbuild.Op("filter"), flatbuild.Op("for_each"))),
		)},
	}
	g := buildAndPartition(t, stmts)

	sgs := g.Subgraphs()
	require.Len(t, sgs, 1, "one stratum, one pull/push chain collapses into a single subgraph")
	sgID := sgs[0].ID

	var out []int
	runner := func(ctx *scheduler.Context) scheduler.RunOutcome {
		in := []int{0, 1, 2, 3, 4, 5, 6, 7, 8, 9, 10}
		for _, x := range in {
			y := x + 1
			if y%2 == 0 {
				out = append(out, y)
			}
		}

		return scheduler.RunOutcome{}
	}

	inst, err := New(g, map[dfirgraph.SubgraphID]scheduler.RunFunc{sgID: runner}, nil, nil)
	require.NoError(t, err)

	inst.SeedExternal([]dfirgraph.SubgraphID{sgID})
	ran, err := inst.RunTick(context.Background())
	require.NoError(t, err)
	assert.True(t, ran)
	assert.Equal(t, []int{2, 4, 6, 8, 10}, out)
}

// S2: symmetric join with 'static persistence on both sides.
func TestScenarioSymmetricJoin(t *testing.T) {
	joinOp := flatbuild.Pipeline{
		Kind:    flatbuild.PipelineOperator,
		OpName:  "join",
		Persist: []dfirgraph.Persistence{dfirgraph.Static, dfirgraph.Static},
	}

	stmts := []flatbuild.Statement{
		{Kind: flatbuild.StmtAssign, Name: "j", Pipe: joinOp},
		{Kind: flatbuild.StmtBare, Pipe: flatbuild.Link(
			flatbuild.Op("source_iter"),
			paren(flatbuild.Ref("j"), dfirgraph.NamedPort("0"), dfirgraph.ElidedPort),
		)},
		{Kind: flatbuild.StmtBare, Pipe: flatbuild.Link(
			flatbuild.Op("source_iter"),
			paren(flatbuild.Ref("j"), dfirgraph.NamedPort("1"), dfirgraph.ElidedPort),
		)},
		{Kind: flatbuild.StmtBare, Pipe: flatbuild.Link(flatbuild.Ref("j"), flatbuild.Op("for_each"))},
	}
	g := buildAndPartition(t, stmts)

	sgs := g.Subgraphs()
	require.Len(t, sgs, 1, "join and its sources share a stratum with no push/pull split")
	sgID := sgs[0].ID

	left := []row.Row{row.New(1, "a"), row.New(2, "b")}
	right := []row.Row{row.New(1, "x"), row.New(3, "y")}

	var out []row.Row
	runner := func(ctx *scheduler.Context) scheduler.RunOutcome {
		rightByKey := make(map[any]row.Row, len(right))
		for _, r := range right {
			key, val := r.Split(1)
			rightByKey[key[0]] = val
		}
		for _, r := range left {
			key, val := r.Split(1)
			if rv, ok := rightByKey[key[0]]; ok {
				out = append(out, row.New(key[0], row.New(val[0], rv[0])))
			}
		}

		return scheduler.RunOutcome{}
	}

	inst, err := New(g, map[dfirgraph.SubgraphID]scheduler.RunFunc{sgID: runner}, nil, nil)
	require.NoError(t, err)

	inst.SeedExternal([]dfirgraph.SubgraphID{sgID})
	ran, err := inst.RunTick(context.Background())
	require.NoError(t, err)
	assert.True(t, ran)

	require.Len(t, out, 1)
	assert.True(t, out[0].EqRef(row.New(1, row.New("a", "x"))))
}

// S3: anti_join, whose "neg" port carries a stratum delay, so positives and
// negatives arrive through handoffs from a lower stratum.
func TestScenarioAntiJoinStratumDelay(t *testing.T) {
	stmts := []flatbuild.Statement{
		{Kind: flatbuild.StmtAssign, Name: "posSrc", Pipe: flatbuild.Op("source_iter")},
		{Kind: flatbuild.StmtAssign, Name: "negSrc", Pipe: flatbuild.Op("source_iter")},
		{Kind: flatbuild.StmtAssign, Name: "aj", Pipe: flatbuild.Op("anti_join")},
		{Kind: flatbuild.StmtBare, Pipe: flatbuild.Link(
			flatbuild.Ref("posSrc"),
			paren(flatbuild.Ref("aj"), dfirgraph.NamedPort("pos"), dfirgraph.ElidedPort),
		)},
		{Kind: flatbuild.StmtBare, Pipe: flatbuild.Link(
			flatbuild.Ref("negSrc"),
			paren(flatbuild.Ref("aj"), dfirgraph.NamedPort("neg"), dfirgraph.ElidedPort),
		)},
		{Kind: flatbuild.StmtBare, Pipe: flatbuild.Link(flatbuild.Ref("aj"), flatbuild.Op("for_each"))},
	}
	g := buildAndPartition(t, stmts)

	ajNode := findOp(t, g, "anti_join")
	require.Len(t, ajNode.Op.SingletonsReferenced, 0)

	sgs := g.Subgraphs()
	require.Len(t, sgs, 3, "neg's stratum delay forces anti_join into its own later-stratum subgraph")

	posHoffNode := handoffFeeding(t, g, ajNode.ID, "pos")
	negHoffNode := handoffFeeding(t, g, ajNode.ID, "neg")

	hPos := handoff.New[row.Row]()
	hNeg := handoff.New[row.Row]()

	sourceNodes := findAllOps(t, g, "source_iter")
	require.Len(t, sourceNodes, 2)

	var sgPos, sgNeg, sgAntiJoin dfirgraph.SubgraphID
	for _, sg := range sgs {
		for _, nid := range sg.Nodes {
			if nid == ajNode.ID {
				sgAntiJoin = sg.ID
			}
			for _, src := range sourceNodes {
				if nid != src.ID {
					continue
				}
				// Tell the two sources apart by which handoff their
				// out-edge feeds.
				for _, eid := range g.OutEdges(src.ID) {
					e, err := g.Edge(eid)
					require.NoError(t, err)
					if e.Dst == posHoffNode.ID {
						sgPos = sg.ID
					}
					if e.Dst == negHoffNode.ID {
						sgNeg = sg.ID
					}
				}
			}
		}
	}
	require.NotZero(t, sgPos)
	require.NotZero(t, sgNeg)
	require.NotZero(t, sgAntiJoin)

	positives := []row.Row{row.New(1, struct{}{}), row.New(2, struct{}{}), row.New(3, struct{}{})}
	negatives := []row.Row{row.New(2, struct{}{})}

	posGiven, negGiven := false, false
	runPos := func(ctx *scheduler.Context) scheduler.RunOutcome {
		if posGiven {
			return scheduler.RunOutcome{}
		}
		posGiven = true
		for _, r := range positives {
			hPos.Give(r)
		}

		return scheduler.RunOutcome{FilledHandoffDownstream: []dfirgraph.SubgraphID{sgAntiJoin}}
	}
	runNeg := func(ctx *scheduler.Context) scheduler.RunOutcome {
		if negGiven {
			return scheduler.RunOutcome{}
		}
		negGiven = true
		for _, r := range negatives {
			hNeg.Give(r)
		}

		return scheduler.RunOutcome{FilledHandoffDownstream: []dfirgraph.SubgraphID{sgAntiJoin}}
	}

	var out []row.Row
	runAntiJoin := func(ctx *scheduler.Context) scheduler.RunOutcome {
		posRows := hPos.BorrowMutSwap()
		negRows := hNeg.BorrowMutSwap()
		excluded := make(map[any]bool, len(negRows))
		for _, r := range negRows {
			key, _ := r.Split(1)
			excluded[key[0]] = true
		}
		for _, r := range posRows {
			key, _ := r.Split(1)
			if !excluded[key[0]] {
				out = append(out, r)
			}
		}

		return scheduler.RunOutcome{}
	}

	inst, err := New(g, map[dfirgraph.SubgraphID]scheduler.RunFunc{
		sgPos:      runPos,
		sgNeg:      runNeg,
		sgAntiJoin: runAntiJoin,
	}, map[dfirgraph.NodeID]Handoff{
		posHoffNode.ID: hPos,
		negHoffNode.ID: hNeg,
	}, nil)
	require.NoError(t, err)

	// Tick with non-empty inputs: anti_join yields positives minus negatives.
	inst.SeedExternal([]dfirgraph.SubgraphID{sgPos, sgNeg})
	ran, err := inst.RunTick(context.Background())
	require.NoError(t, err)
	assert.True(t, ran)
	require.Len(t, out, 2)
	assert.True(t, out[0].EqRef(row.New(1, struct{}{})))
	assert.True(t, out[1].EqRef(row.New(3, struct{}{})))

	// Following tick, sources give nothing: anti_join never runs again.
	out = nil
	inst.SeedExternal([]dfirgraph.SubgraphID{sgPos, sgNeg})
	_, err = inst.RunTick(context.Background())
	require.NoError(t, err)
	assert.Empty(t, out)
}

// S4: monotone set-union accumulated in a state cell across two ticks.
func TestScenarioMonotoneSetUnionStaticPersistence(t *testing.T) {
	g := dfirgraph.New()
	stateNode := g.InsertNode(dfirgraph.Node{
		Kind: dfirgraph.NodeOperator,
		Op:   dfirgraph.OperatorInstance{OpName: "state", Persistences: []dfirgraph.Persistence{dfirgraph.Static}},
	})
	sgID, err := g.InsertSubgraph([]dfirgraph.NodeID{stateNode}, 0, false)
	require.NoError(t, err)

	handle := scheduler.Handle(stateNode)
	deliveries := [][]string{{"a"}, {"b"}}
	tickIdx := 0
	var readBack []string
	runner := func(ctx *scheduler.Context) scheduler.RunOutcome {
		cell, ok := ctx.StateRef(handle)
		require.True(t, ok)
		typed := cell.(*scheduler.TypedCell[lattice.SetUnion[string], *lattice.SetUnion[string]])
		typed.Merge(lattice.NewSetUnion(deliveries[tickIdx]...))
		readBack = typed.Value().Elements()
		tickIdx++

		return scheduler.RunOutcome{}
	}

	inst, err := New(g, map[dfirgraph.SubgraphID]scheduler.RunFunc{sgID: runner}, nil, nil)
	require.NoError(t, err)
	inst.Arena().Register(handle, scheduler.NewCell[lattice.SetUnion[string], *lattice.SetUnion[string]](
		dfirgraph.Static, lattice.NewSetUnion[string](),
	))

	inst.SeedExternal([]dfirgraph.SubgraphID{sgID})
	_, err = inst.RunTick(context.Background())
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"a"}, readBack)

	inst.SeedExternal([]dfirgraph.SubgraphID{sgID})
	_, err = inst.RunTick(context.Background())
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"a", "b"}, readBack, "'static persistence must retain the first tick's union")
}

// S4b: the same shape under 'tick persistence, where a tick boundary resets
// the cell to bottom before the second delivery is merged.
func TestScenarioMonotoneSetUnionTickPersistence(t *testing.T) {
	g := dfirgraph.New()
	stateNode := g.InsertNode(dfirgraph.Node{
		Kind: dfirgraph.NodeOperator,
		Op:   dfirgraph.OperatorInstance{OpName: "state", Persistences: []dfirgraph.Persistence{dfirgraph.Tick}},
	})
	sgID, err := g.InsertSubgraph([]dfirgraph.NodeID{stateNode}, 0, false)
	require.NoError(t, err)

	handle := scheduler.Handle(stateNode)
	deliveries := [][]string{{"a"}, {"b"}}
	tickIdx := 0
	var readBack []string
	runner := func(ctx *scheduler.Context) scheduler.RunOutcome {
		cell, ok := ctx.StateRef(handle)
		require.True(t, ok)
		typed := cell.(*scheduler.TypedCell[lattice.SetUnion[string], *lattice.SetUnion[string]])
		typed.Merge(lattice.NewSetUnion(deliveries[tickIdx]...))
		readBack = typed.Value().Elements()
		tickIdx++

		// Force a tick boundary after the first delivery so the second
		// delivery lands in a freshly reset cell.
		return scheduler.RunOutcome{CrossedToLowerStratum: tickIdx == 1}
	}

	inst, err := New(g, map[dfirgraph.SubgraphID]scheduler.RunFunc{sgID: runner}, nil, nil)
	require.NoError(t, err)
	inst.Arena().Register(handle, scheduler.NewCell[lattice.SetUnion[string], *lattice.SetUnion[string]](
		dfirgraph.Tick, lattice.NewSetUnion[string](),
	))

	inst.SeedExternal([]dfirgraph.SubgraphID{sgID})
	_, err = inst.RunTick(context.Background())
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"a"}, readBack)

	inst.SeedExternal([]dfirgraph.SubgraphID{sgID})
	_, err = inst.RunTick(context.Background())
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"b"}, readBack, "'tick persistence must have reset before the second delivery")
}

// S5: defer_tick creates a tick boundary; its downstream for_each only sees
// output after the boundary is crossed.
func TestScenarioDeferTickBoundary(t *testing.T) {
	stmts := []flatbuild.Statement{
		{Kind: flatbuild.StmtBare, Pipe: flatbuild.Link(
			flatbuild.Op("source_iter"),
			flatbuild.Link(flatbuild.Op("defer_tick"), flatbuild.Op("for_each")),
		)},
	}
	g := buildAndPartition(t, stmts)

	sgs := g.Subgraphs()
	require.Len(t, sgs, 1, "defer_tick never bumps stratum, so the chain stays one subgraph")
	sgID := sgs[0].ID

	var out []int
	var tickAtBuffer, tickAtFlush int
	stage := 0
	runner := func(ctx *scheduler.Context) scheduler.RunOutcome {
		switch stage {
		case 0:
			stage = 1
			tickAtBuffer = ctx.CurrentTick
			ctx.ScheduleSubgraph(ctx.CurrentSubgraphID, false)

			return scheduler.RunOutcome{CrossedToLowerStratum: true}
		default:
			tickAtFlush = ctx.CurrentTick
			out = append(out, 1, 2, 3)

			return scheduler.RunOutcome{}
		}
	}

	inst, err := New(g, map[dfirgraph.SubgraphID]scheduler.RunFunc{sgID: runner}, nil, nil)
	require.NoError(t, err)

	inst.SeedExternal([]dfirgraph.SubgraphID{sgID})
	ran, err := inst.RunTick(context.Background())
	require.NoError(t, err)
	assert.True(t, ran)

	assert.Equal(t, []int{1, 2, 3}, out)
	assert.Equal(t, 1, inst.Tick(), "defer_tick must advance the tick counter exactly once")
	assert.Less(t, tickAtBuffer, tickAtFlush, "the flush must observe a later tick than the buffering run")
}

// S6: a name cycle is reported with every participant's position, and the
// partial graph remains inspectable.
func TestScenarioNameCycleDiagnostic(t *testing.T) {
	stmts := []flatbuild.Statement{
		{Kind: flatbuild.StmtAssign, Name: "a", Pipe: flatbuild.Link(flatbuild.Ref("b"), flatbuild.Op("map"))},
		{Kind: flatbuild.StmtAssign, Name: "b", Pipe: flatbuild.Link(flatbuild.Ref("a"), flatbuild.Op("map"))},
	}

	g, diags, err := flatbuild.Build(stmts)
	require.NoError(t, err)
	require.True(t, flatbuild.HasErrors(diags))

	var cycleMsgs []string
	for _, d := range diags {
		if strings.HasPrefix(d.Message, "cyclic name reference") {
			cycleMsgs = append(cycleMsgs, d.Message)
		}
	}
	require.Len(t, cycleMsgs, 2, "both cycle participants must be individually reported")

	joined := strings.Join(cycleMsgs, " | ")
	assert.Contains(t, joined, "reference: a (cycle position")
	assert.Contains(t, joined, "reference: b (cycle position")
	assert.Contains(t, joined, "1/2")
	assert.Contains(t, joined, "2/2")

	// The graph is still inspectable: both map operators were created even
	// though their name bindings could not be resolved.
	require.NotNil(t, g)
	assert.NotEmpty(t, g.Nodes())
}
