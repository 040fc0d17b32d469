package partition

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/katalvlaran/dfir/dfirgraph"
)

func opNode(name string) dfirgraph.Node {
	return dfirgraph.Node{Kind: dfirgraph.NodeOperator, Op: dfirgraph.OperatorInstance{OpName: name}}
}

func TestColorOfRuleTable(t *testing.T) {
	assert.Equal(t, Pull, ColorOf(0, 1))
	assert.Equal(t, Push, ColorOf(1, 0))
	assert.Equal(t, Either, ColorOf(1, 1))
	assert.Equal(t, Pull, ColorOf(2, 1))
	assert.Equal(t, Push, ColorOf(1, 2))
	assert.Equal(t, Compute, ColorOf(2, 2))
}

func TestPartitionSimpleChainFormsOneSubgraph(t *testing.T) {
	g := dfirgraph.New()
	a := g.InsertNode(opNode("source_iter"))
	b := g.InsertNode(opNode("map"))
	c := g.InsertNode(opNode("for_each"))
	_, err := g.InsertEdge(a, dfirgraph.ElidedPort, b, dfirgraph.ElidedPort, dfirgraph.EdgeValue)
	require.NoError(t, err)
	_, err = g.InsertEdge(b, dfirgraph.ElidedPort, c, dfirgraph.ElidedPort, dfirgraph.EdgeValue)
	require.NoError(t, err)

	sgIDs, err := Partition(g)
	require.NoError(t, err)
	require.Len(t, sgIDs, 1)

	sg, err := g.Subgraph(sgIDs[0])
	require.NoError(t, err)
	assert.ElementsMatch(t, []dfirgraph.NodeID{a, b, c}, sg.Nodes)
}

func TestPartitionInsertsHandoffAtStratumBoundary(t *testing.T) {
	g := dfirgraph.New()
	pos := g.InsertNode(opNode("source_iter"))
	neg := g.InsertNode(opNode("source_iter"))
	aj := g.InsertNode(opNode("anti_join"))

	_, err := g.InsertEdge(pos, dfirgraph.ElidedPort, aj, dfirgraph.NamedPort("pos"), dfirgraph.EdgeValue)
	require.NoError(t, err)
	_, err = g.InsertEdge(neg, dfirgraph.ElidedPort, aj, dfirgraph.NamedPort("neg"), dfirgraph.EdgeValue)
	require.NoError(t, err)

	_, err = Partition(g)
	require.NoError(t, err)

	foundHandoff := false
	for _, n := range g.Nodes() {
		if n.Kind == dfirgraph.NodeHandoff {
			foundHandoff = true
		}
	}
	assert.True(t, foundHandoff, "crossing the anti_join's stratum barrier must insert a handoff")
}

func TestPartitionSplitsComputeNode(t *testing.T) {
	g := dfirgraph.New()
	a := g.InsertNode(opNode("source_iter"))
	b := g.InsertNode(opNode("source_iter"))
	compute := g.InsertNode(opNode("join"))
	c := g.InsertNode(opNode("for_each"))
	d := g.InsertNode(opNode("for_each"))

	_, err := g.InsertEdge(a, dfirgraph.ElidedPort, compute, dfirgraph.NamedPort("0"), dfirgraph.EdgeValue)
	require.NoError(t, err)
	_, err = g.InsertEdge(b, dfirgraph.ElidedPort, compute, dfirgraph.NamedPort("1"), dfirgraph.EdgeValue)
	require.NoError(t, err)
	_, err = g.InsertEdge(compute, dfirgraph.NamedPort("0"), c, dfirgraph.ElidedPort, dfirgraph.EdgeValue)
	require.NoError(t, err)
	_, err = g.InsertEdge(compute, dfirgraph.NamedPort("1"), d, dfirgraph.ElidedPort, dfirgraph.EdgeValue)
	require.NoError(t, err)

	in, out := valueEdgeCounts(g, compute)
	require.Equal(t, Compute, ColorOf(in, out))

	_, err = Partition(g)
	require.NoError(t, err)

	for _, eid := range g.OutEdges(compute) {
		e, err := g.Edge(eid)
		require.NoError(t, err)
		dst, err := g.Node(e.Dst)
		require.NoError(t, err)
		assert.Equal(t, dfirgraph.NodeHandoff, dst.Kind, "a Compute node's outputs must be split by a trailing handoff")
	}
}

func TestPartitionPivotSeparatesPullFromPush(t *testing.T) {
	g := dfirgraph.New()
	src := g.InsertNode(opNode("source_iter"))
	mid := g.InsertNode(opNode("map"))
	sink := g.InsertNode(opNode("for_each"))
	_, err := g.InsertEdge(src, dfirgraph.ElidedPort, mid, dfirgraph.ElidedPort, dfirgraph.EdgeValue)
	require.NoError(t, err)
	_, err = g.InsertEdge(mid, dfirgraph.ElidedPort, sink, dfirgraph.ElidedPort, dfirgraph.EdgeValue)
	require.NoError(t, err)

	sgIDs, err := Partition(g)
	require.NoError(t, err)
	require.Len(t, sgIDs, 1)

	sg, err := g.Subgraph(sgIDs[0])
	require.NoError(t, err)
	for i, id := range sg.Nodes {
		if id == sink {
			assert.Equal(t, i, sg.Pivot, "for_each is the sole Push node and must be the pivot")
		}
	}
}

func TestPartitionRejectsUnmergedModuleBoundary(t *testing.T) {
	g := dfirgraph.New()
	g.InsertNode(dfirgraph.Node{Kind: dfirgraph.NodeModuleBoundary})

	_, err := Partition(g)
	require.ErrorIs(t, err, ErrUnmergedModuleBoundary)
}
