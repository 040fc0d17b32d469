// Package dataflow wires a partitioned graph, its handoffs, its subgraph run
// functions, and a state arena into one runnable Instance, per spec §4.J.
//
// Grounded on flow/dinic.go's build-once-run-many-times shape: Dinic builds
// its capacity map once, then drives repeated augmenting-path searches over
// it until none remain. An Instance is built once from a graph (New), then
// driven by repeated RunTick/RunAvailable/RunAsync/NextStratum calls.
package dataflow

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/katalvlaran/dfir/dfirgraph"
	"github.com/katalvlaran/dfir/scheduler"
)

// Handoff is the subset of handoff.Handoff[T]'s API an Instance needs to
// decide readiness, independent of the buffered element type T. Any
// *handoff.Handoff[T] satisfies this structurally.
type Handoff interface {
	NonEmpty() bool
	Len() int
}

// Instance wires together everything one partitioned dfirgraph.Graph needs
// to run: the scheduler (ready-set, tick/stratum driver, state arena) and
// the handoffs that carry values between its subgraphs.
type Instance struct {
	graph    *dfirgraph.Graph
	arena    *scheduler.Arena
	sched    *scheduler.Scheduler
	handoffs map[dfirgraph.NodeID]Handoff

	stratumCursor int
}

// New builds an Instance from an already-partitioned graph (see package
// partition), one RunFunc per subgraph, and the handoffs backing the graph's
// Handoff-kind nodes. logger may be nil.
func New(
	g *dfirgraph.Graph,
	runners map[dfirgraph.SubgraphID]scheduler.RunFunc,
	handoffs map[dfirgraph.NodeID]Handoff,
	logger *zap.Logger,
) (*Instance, error) {
	stratumOf := make(map[dfirgraph.SubgraphID]int)
	for _, sg := range g.Subgraphs() {
		stratumOf[sg.ID] = sg.Stratum
		if _, ok := runners[sg.ID]; !ok {
			return nil, fmt.Errorf("dataflow: no run function supplied for subgraph %d", sg.ID)
		}
	}

	arena := scheduler.NewArena()
	sched := scheduler.New(arena, stratumOf, runners, logger)

	return &Instance{graph: g, arena: arena, sched: sched, handoffs: handoffs}, nil
}

// Arena exposes the instance's state arena so callers can register state
// cells before the first run.
func (inst *Instance) Arena() *scheduler.Arena { return inst.arena }

// Tick returns the instance's current tick counter.
func (inst *Instance) Tick() int { return inst.sched.Tick() }

// SeedExternal marks ids ready, for sources whose input became available
// from outside the dataflow (spec §4.I step 1's "externally signaled").
func (inst *Instance) SeedExternal(ids []dfirgraph.SubgraphID) {
	inst.sched.Seed(ids)
}

// Notify wakes a blocked RunAsync loop, for use by external event sources
// (e.g. a source_stream's future resolving) after calling SeedExternal.
func (inst *Instance) Notify() {
	select {
	case inst.sched.Wake <- struct{}{}:
	default:
	}
}

// seedFromHandoffs marks ready every subgraph whose consuming node sits
// downstream of a currently non-empty handoff, per spec §4.I step 1
// ("handoffs non-empty at tick start").
func (inst *Instance) seedFromHandoffs() {
	var ready []dfirgraph.SubgraphID
	for nodeID, h := range inst.handoffs {
		if !h.NonEmpty() {
			continue
		}
		for _, eid := range inst.graph.OutEdges(nodeID) {
			e, err := inst.graph.Edge(eid)
			if err != nil {
				continue
			}
			dst, err := inst.graph.Node(e.Dst)
			if err != nil {
				continue
			}
			ready = append(ready, dst.Subgraph)
		}
	}
	inst.sched.Seed(ready)
}

// RunTick runs subgraphs until the current tick completes; returns true if
// any work was done.
func (inst *Instance) RunTick(ctx context.Context) (bool, error) {
	inst.seedFromHandoffs()

	return inst.sched.RunTick(ctx)
}

// RunAvailable runs ticks while any subgraph is ready, without awaiting
// external events.
func (inst *Instance) RunAvailable(ctx context.Context) error {
	inst.seedFromHandoffs()

	return inst.sched.RunAvailable(ctx)
}

// RunAsync loops forever, draining available work and awaiting the next
// external wake between idle periods, until ctx is cancelled.
func (inst *Instance) RunAsync(ctx context.Context) error {
	for {
		if err := inst.RunAvailable(ctx); err != nil {
			return err
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-inst.sched.Wake:
		}
	}
}

// NextStratum advances the scheduler by one stratum, draining whatever is
// ready there, and reports whether it did (spec §4.J's `next_stratum() ->
// Option<()>`). Once the cursor passes the last stratum it wraps back to
// stratum 0 and reports false, signaling the tick boundary to the caller.
func (inst *Instance) NextStratum(ctx context.Context) (bool, error) {
	if inst.stratumCursor > inst.sched.MaxStratum() {
		inst.stratumCursor = 0

		return false, nil
	}

	inst.seedFromHandoffs()
	ran, err := inst.sched.DrainStratum(ctx, inst.stratumCursor)
	inst.stratumCursor++

	return ran, err
}
