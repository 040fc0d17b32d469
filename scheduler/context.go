package scheduler

import "github.com/katalvlaran/dfir/dfirgraph"

// Context is passed to every subgraph run, per spec §4.I. It exposes the
// tick/stratum/subgraph coordinates, a state-cell accessor, the
// first-run-this-tick flag joins use to gate replay of accumulated state,
// and a re-entrant scheduling hook for operators (fold under 'static) that
// must schedule themselves again.
type Context struct {
	// CurrentTick is the dataflow instance's tick counter.
	CurrentTick int
	// CurrentStratum is the stratum currently being drained.
	CurrentStratum int
	// CurrentSubgraphID is the subgraph presently executing.
	CurrentSubgraphID dfirgraph.SubgraphID

	arena     *Arena
	firstRun  bool
	scheduler *Scheduler
}

// StateRef returns the cell registered under handle, per spec §4.I's
// `state_ref(handle)`.
func (c *Context) StateRef(handle Handle) (Cell, bool) {
	return c.arena.Get(handle)
}

// IsFirstRunThisTick reports whether CurrentSubgraphID has not yet run
// during CurrentTick.
func (c *Context) IsFirstRunThisTick() bool {
	return c.firstRun
}

// ScheduleSubgraph re-enqueues id, per spec §4.I's
// `schedule_subgraph(id, is_external)`. isExternal is forwarded only to
// trace logging — it does not change queueing semantics.
func (c *Context) ScheduleSubgraph(id dfirgraph.SubgraphID, isExternal bool) {
	c.scheduler.enqueue(id, isExternal)
}
