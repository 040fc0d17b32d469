// Package scheduler implements the tick-based cooperative scheduler spec
// §4.I describes: a per-stratum ready-set, the per-tick drain loop, tick
// advancement on cross-stratum sends to a lower stratum, and the Context
// passed to every subgraph run.
//
// The ready-set's mutex is deliberately split from the state arena's
// (arena.go), generalizing the teacher's muVert/muEdgeAdj split
// (core/types.go) from graph structure to scheduler structure. New takes
// its collaborators as plain arguments (no options), and cancellation is
// driven by the context.Context passed to each run method.
package scheduler

import (
	"context"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/katalvlaran/dfir/dfirgraph"
	"github.com/katalvlaran/dfir/internal/dfirlog"
)

// RunOutcome is what a subgraph's run reports back to the scheduler.
type RunOutcome struct {
	// FilledHandoffDownstream lists subgraphs whose input handoff just
	// became non-empty as a result of this run.
	FilledHandoffDownstream []dfirgraph.SubgraphID
	// CrossedToLowerStratum reports whether this run sent data to a
	// lower-numbered stratum (e.g. via defer_tick), which forces a new tick
	// per spec §4.I step 4. A lazy subgraph's runner must never set this.
	CrossedToLowerStratum bool
}

// RunFunc executes one subgraph once, given its Context.
type RunFunc func(ctx *Context) RunOutcome

// Scheduler drives the ready-set and tick/stratum advancement for one
// dataflow instance.
type Scheduler struct {
	logger *zap.Logger

	mu     sync.Mutex
	ready  map[int][]dfirgraph.SubgraphID
	queued map[dfirgraph.SubgraphID]bool

	stratumOf  map[dfirgraph.SubgraphID]int
	runners    map[dfirgraph.SubgraphID]RunFunc
	maxStratum int

	arena            *Arena
	tick             int
	firstRunThisTick map[dfirgraph.SubgraphID]bool

	// Wake receives a signal whenever external code has queued new work for
	// RunAsync's idle wait to pick up (e.g. a source_stream future resolved).
	Wake chan struct{}
}

// New builds a Scheduler. stratumOf and runners must cover the same
// subgraph id set; a nil logger defaults to a no-op logger.
func New(arena *Arena, stratumOf map[dfirgraph.SubgraphID]int, runners map[dfirgraph.SubgraphID]RunFunc, logger *zap.Logger) *Scheduler {
	max := 0
	for _, st := range stratumOf {
		if st > max {
			max = st
		}
	}
	if logger == nil {
		logger = dfirlog.Noop()
	}

	return &Scheduler{
		logger:           logger,
		ready:            make(map[int][]dfirgraph.SubgraphID),
		queued:           make(map[dfirgraph.SubgraphID]bool),
		stratumOf:        stratumOf,
		runners:          runners,
		maxStratum:       max,
		arena:            arena,
		firstRunThisTick: make(map[dfirgraph.SubgraphID]bool),
		Wake:             make(chan struct{}, 1),
	}
}

// MaxStratum returns the highest stratum number any subgraph occupies.
func (s *Scheduler) MaxStratum() int { return s.maxStratum }

// Tick returns the current tick counter.
func (s *Scheduler) Tick() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.tick
}

// Seed enqueues ids as the ready-set's starting point for a tick (spec §4.I
// step 1: sources with non-empty input, handoffs non-empty at tick start).
func (s *Scheduler) Seed(ids []dfirgraph.SubgraphID) {
	for _, id := range ids {
		s.enqueue(id, true)
	}
}

func (s *Scheduler) enqueue(id dfirgraph.SubgraphID, isExternal bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.queued[id] {
		return
	}
	s.queued[id] = true
	st := s.stratumOf[id]
	s.ready[st] = append(s.ready[st], id)
	s.logger.Debug("scheduled subgraph",
		zap.Int("subgraph", int(id)), zap.Int("stratum", st), zap.Bool("external", isExternal))
}

func (s *Scheduler) pop(stratum int) (dfirgraph.SubgraphID, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	q := s.ready[stratum]
	if len(q) == 0 {
		return 0, false
	}
	id := q[0]
	s.ready[stratum] = q[1:]
	delete(s.queued, id)

	return id, true
}

func (s *Scheduler) hasAnyReady() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, q := range s.ready {
		if len(q) > 0 {
			return true
		}
	}

	return false
}

// DrainStratum runs every currently-ready subgraph in stratum, including
// ones re-enqueued into stratum by runs within this call, until the
// stratum's ready queue is empty. It returns whether anything ran.
func (s *Scheduler) DrainStratum(ctx context.Context, stratum int) (bool, error) {
	ran := false
	for {
		if err := ctx.Err(); err != nil {
			return ran, err
		}
		id, ok := s.pop(stratum)
		if !ok {
			break
		}
		ran = true

		first := !s.firstRunThisTick[id]
		s.firstRunThisTick[id] = true

		rtCtx := &Context{
			CurrentTick:       s.Tick(),
			CurrentStratum:    stratum,
			CurrentSubgraphID: id,
			arena:             s.arena,
			firstRun:          first,
			scheduler:         s,
		}

		run, ok := s.runners[id]
		if !ok {
			continue
		}
		outcome := run(rtCtx)
		s.logger.Debug("ran subgraph",
			zap.Int("subgraph", int(id)), zap.Int("stratum", stratum), zap.Int("tick", s.Tick()))

		for _, downstream := range outcome.FilledHandoffDownstream {
			s.enqueue(downstream, false)
		}
		if outcome.CrossedToLowerStratum {
			s.mu.Lock()
			s.tick++
			s.mu.Unlock()
			s.arena.ResetTickCells()
			s.logger.Debug("tick-crossing send forced new tick", zap.Int("tick", s.Tick()))
		}
	}

	return ran, nil
}

// RunTick runs subgraphs until the current tick completes, per spec §4.I's
// per-tick loop. If a run crosses to a lower stratum it restarts draining
// from stratum 0 under the new tick (step 4); RunTick keeps doing so until a
// full pass completes with no further cross-tick send. Returns true if any
// subgraph ran.
func (s *Scheduler) RunTick(ctx context.Context) (bool, error) {
	ranAny := false
	for {
		ranThisPass := false
		startTick := s.Tick()
		s.firstRunThisTick = make(map[dfirgraph.SubgraphID]bool)

		for stratum := 0; stratum <= s.maxStratum; stratum++ {
			ran, err := s.DrainStratum(ctx, stratum)
			if err != nil {
				return ranAny, err
			}
			if ran {
				ranThisPass = true
				ranAny = true
			}
		}

		if s.Tick() != startTick {
			continue
		}
		if !ranThisPass {
			break
		}
		break
	}

	return ranAny, nil
}

// RunAvailable runs ticks while any subgraph is ready, without awaiting
// external events.
func (s *Scheduler) RunAvailable(ctx context.Context) error {
	for s.hasAnyReady() {
		if _, err := s.RunTick(ctx); err != nil {
			return err
		}
	}

	return nil
}

// RunAsync loops forever, running available work and awaiting the next
// external wake signal between idle periods, until ctx is cancelled.
// Grounded on run_async's "awaits the next wake" suspension point (spec
// §4.I); an errgroup.Group carries the cancellation out cleanly.
func (s *Scheduler) RunAsync(ctx context.Context) error {
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		for {
			if err := s.RunAvailable(gctx); err != nil {
				return err
			}
			select {
			case <-gctx.Done():
				return gctx.Err()
			case <-s.Wake:
			}
		}
	})

	return g.Wait()
}
