// Package handoff implements the FIFO buffer that carries values between
// two subgraphs of a dataflow graph. The buffer has no capacity limit. A Handoff has exactly one
// producer subgraph and one consumer subgraph by construction (enforced by
// the partitioner, not by this package); its state machine is
// EMPTY -> (Give*) -> NON_EMPTY -> (BorrowMutSwap) -> EMPTY, per spec §4.C.
package handoff

import (
	"sync"

	"github.com/google/uuid"
)

// ID uniquely identifies a Handoff within a dataflow instance. Backed by a
// uuid so handoffs created by independently-built subgraphs across a
// process never collide. State-cell handles (scheduler.Handle) are node ids
// instead, not uuids.
type ID uuid.UUID

// NewID generates a fresh handoff identifier.
func NewID() ID { return ID(uuid.New()) }

func (id ID) String() string { return uuid.UUID(id).String() }

// Handoff is a typed, single-producer single-consumer FIFO buffer. Give
// never blocks and never fails; BorrowMutSwap atomically exchanges the
// accumulated buffer for a fresh empty one, to be called exactly once per
// scheduled run of the consumer subgraph (spec §4.C).
type Handoff[T any] struct {
	id ID

	mu  sync.Mutex
	buf []T
}

// New constructs an empty Handoff with a fresh ID.
func New[T any]() *Handoff[T] {
	return &Handoff[T]{id: NewID()}
}

// ID returns the handoff's identifier.
func (h *Handoff[T]) ID() ID { return h.id }

// Give appends item to the buffer. Never blocks, never fails.
func (h *Handoff[T]) Give(item T) {
	h.mu.Lock()
	h.buf = append(h.buf, item)
	h.mu.Unlock()
}

// GiveAll appends every element of items, preserving order. Equivalent to
// calling Give in a loop but takes the lock once.
func (h *Handoff[T]) GiveAll(items []T) {
	if len(items) == 0 {
		return
	}
	h.mu.Lock()
	h.buf = append(h.buf, items...)
	h.mu.Unlock()
}

// BorrowMutSwap atomically swaps the accumulated buffer for an empty one and
// returns the old buffer. Must be called exactly once per scheduled run of
// the consumer subgraph; the returned slice is owned by the caller.
func (h *Handoff[T]) BorrowMutSwap() []T {
	h.mu.Lock()
	old := h.buf
	h.buf = nil
	h.mu.Unlock()

	return old
}

// NonEmpty reports whether the buffer currently holds at least one item.
// Used by the scheduler to decide whether a handoff's consumer subgraph
// should be marked ready.
func (h *Handoff[T]) NonEmpty() bool {
	h.mu.Lock()
	defer h.mu.Unlock()

	return len(h.buf) > 0
}

// Len reports the number of items currently buffered.
func (h *Handoff[T]) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()

	return len(h.buf)
}
