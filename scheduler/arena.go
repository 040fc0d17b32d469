package scheduler

import (
	"sync"

	"github.com/katalvlaran/dfir/dfirgraph"
	"github.com/katalvlaran/dfir/lattice"
)

// Handle identifies a state cell owned by one dataflow instance's arena. It
// is the NodeID of the `state`/fold/join singleton node that owns the cell.
type Handle dfirgraph.NodeID

// Cell is the type-erased interface every TypedCell satisfies, letting the
// arena store heterogeneous lattice types in one map.
type Cell interface {
	// mergeAny merges v (which must be the cell's concrete T) into the cell.
	mergeAny(v any) bool
	// DeepReveal exposes the underlying value for inspection, per
	// lattice.DeepReveal's contract — never used by merge logic.
	DeepReveal() any
	// Persistence reports whether this cell resets to bottom every tick.
	Persistence() dfirgraph.Persistence
	resetTick()
}

// TypedCell holds one lattice-typed state value. PT is the pointer type
// implementing Merge, following the package's Pair/MapUnion convention of
// threading a *T Merge method through a generic wrapper (lattice.Ptr).
type TypedCell[T any, PT lattice.Ptr[T]] struct {
	mu          sync.Mutex
	value       T
	bottom      T
	persistence dfirgraph.Persistence
}

// NewCell constructs a cell seeded at bottom with the given persistence.
func NewCell[T any, PT lattice.Ptr[T]](persistence dfirgraph.Persistence, bottom T) *TypedCell[T, PT] {
	return &TypedCell[T, PT]{value: bottom, bottom: bottom, persistence: persistence}
}

// Merge merges v into the cell's value, reporting whether it changed.
func (c *TypedCell[T, PT]) Merge(v T) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	p := PT(&c.value)

	return p.Merge(v)
}

// Value returns a copy of the cell's current value.
func (c *TypedCell[T, PT]) Value() T {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.value
}

func (c *TypedCell[T, PT]) mergeAny(v any) bool { return c.Merge(v.(T)) }

// DeepReveal implements Cell.
func (c *TypedCell[T, PT]) DeepReveal() any {
	c.mu.Lock()
	defer c.mu.Unlock()
	if dr, ok := any(c.value).(lattice.DeepReveal); ok {
		return dr.DeepReveal()
	}

	return c.value
}

// Persistence implements Cell.
func (c *TypedCell[T, PT]) Persistence() dfirgraph.Persistence { return c.persistence }

func (c *TypedCell[T, PT]) resetTick() {
	if c.persistence != dfirgraph.Tick {
		return
	}
	c.mu.Lock()
	c.value = c.bottom
	c.mu.Unlock()
}

// Arena owns every state cell for one dataflow instance. Cells are
// exclusively owned by the instance that created them (spec §5's resource
// policy); the arena's mutex is split from the scheduler's ready-set mutex,
// generalizing the teacher's muVert/muEdgeAdj split (core/types.go) to
// state-cells vs. ready-set instead of nodes vs. edges.
type Arena struct {
	mu    sync.RWMutex
	cells map[Handle]Cell
}

// NewArena returns an empty state arena.
func NewArena() *Arena {
	return &Arena{cells: make(map[Handle]Cell)}
}

// Register installs a cell under handle. Re-registering the same handle
// replaces the prior cell.
func (a *Arena) Register(handle Handle, cell Cell) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.cells[handle] = cell
}

// Get returns the cell registered under handle, if any.
func (a *Arena) Get(handle Handle) (Cell, bool) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	c, ok := a.cells[handle]

	return c, ok
}

// ResetTickCells resets every 'tick-persistence cell to bottom, per spec
// §4.I step 4 ("reset per-tick lattice states to bottom").
func (a *Arena) ResetTickCells() {
	a.mu.RLock()
	defer a.mu.RUnlock()
	for _, c := range a.cells {
		c.resetTick()
	}
}
