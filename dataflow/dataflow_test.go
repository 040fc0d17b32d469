package dataflow

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/katalvlaran/dfir/dfirgraph"
	"github.com/katalvlaran/dfir/handoff"
	"github.com/katalvlaran/dfir/scheduler"
)

func opNode(name string) dfirgraph.Node {
	return dfirgraph.Node{Kind: dfirgraph.NodeOperator, Op: dfirgraph.OperatorInstance{OpName: name}}
}

func TestNewRejectsMissingRunner(t *testing.T) {
	g := dfirgraph.New()
	a := g.InsertNode(opNode("map"))
	_, err := g.InsertSubgraph([]dfirgraph.NodeID{a}, 0, false)
	require.NoError(t, err)

	_, err = New(g, map[dfirgraph.SubgraphID]scheduler.RunFunc{}, nil, nil)
	assert.Error(t, err)
}

func TestRunTickSeedsFromNonEmptyHandoff(t *testing.T) {
	g := dfirgraph.New()
	producer := g.InsertNode(opNode("source_iter"))
	hoffNode := g.InsertNode(dfirgraph.Node{Kind: dfirgraph.NodeHandoff})
	consumer := g.InsertNode(opNode("for_each"))

	_, err := g.InsertEdge(producer, dfirgraph.ElidedPort, hoffNode, dfirgraph.ElidedPort, dfirgraph.EdgeValue)
	require.NoError(t, err)
	_, err = g.InsertEdge(hoffNode, dfirgraph.ElidedPort, consumer, dfirgraph.ElidedPort, dfirgraph.EdgeValue)
	require.NoError(t, err)

	sgProducer, err := g.InsertSubgraph([]dfirgraph.NodeID{producer}, 0, false)
	require.NoError(t, err)
	sgConsumer, err := g.InsertSubgraph([]dfirgraph.NodeID{consumer}, 0, false)
	require.NoError(t, err)

	h := handoff.New[int]()
	h.Give(42)

	ran := false
	runners := map[dfirgraph.SubgraphID]scheduler.RunFunc{
		sgProducer: func(ctx *scheduler.Context) scheduler.RunOutcome { return scheduler.RunOutcome{} },
		sgConsumer: func(ctx *scheduler.Context) scheduler.RunOutcome { ran = true; return scheduler.RunOutcome{} },
	}

	inst, err := New(g, runners, map[dfirgraph.NodeID]Handoff{hoffNode: h}, nil)
	require.NoError(t, err)

	did, err := inst.RunTick(context.Background())
	require.NoError(t, err)
	assert.True(t, did)
	assert.True(t, ran, "a non-empty handoff at tick start must seed its consumer subgraph")
}

func TestNextStratumAdvancesThenWraps(t *testing.T) {
	g := dfirgraph.New()
	a := g.InsertNode(opNode("map"))
	b := g.InsertNode(opNode("map"))
	_, err := g.InsertEdge(a, dfirgraph.ElidedPort, b, dfirgraph.ElidedPort, dfirgraph.EdgeReference)
	require.NoError(t, err)

	sg0, err := g.InsertSubgraph([]dfirgraph.NodeID{a}, 0, false)
	require.NoError(t, err)
	sg1, err := g.InsertSubgraph([]dfirgraph.NodeID{b}, 1, false)
	require.NoError(t, err)

	runners := map[dfirgraph.SubgraphID]scheduler.RunFunc{
		sg0: func(ctx *scheduler.Context) scheduler.RunOutcome { return scheduler.RunOutcome{} },
		sg1: func(ctx *scheduler.Context) scheduler.RunOutcome { return scheduler.RunOutcome{} },
	}

	inst, err := New(g, runners, nil, nil)
	require.NoError(t, err)
	inst.SeedExternal([]dfirgraph.SubgraphID{sg0, sg1})

	ran0, err := inst.NextStratum(context.Background())
	require.NoError(t, err)
	assert.True(t, ran0)

	ran1, err := inst.NextStratum(context.Background())
	require.NoError(t, err)
	assert.True(t, ran1)

	wrapped, err := inst.NextStratum(context.Background())
	require.NoError(t, err)
	assert.False(t, wrapped, "the cursor must wrap once it passes the last stratum")
}

func TestRunAsyncReturnsOnCancel(t *testing.T) {
	g := dfirgraph.New()
	a := g.InsertNode(opNode("map"))
	_, err := g.InsertSubgraph([]dfirgraph.NodeID{a}, 0, false)
	require.NoError(t, err)

	sgs := g.Subgraphs()
	runners := map[dfirgraph.SubgraphID]scheduler.RunFunc{
		sgs[0].ID: func(ctx *scheduler.Context) scheduler.RunOutcome { return scheduler.RunOutcome{} },
	}

	inst, err := New(g, runners, nil, nil)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err = inst.RunAsync(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}
