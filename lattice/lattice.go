// Package lattice provides the join-semilattice state abstraction that
// backs every stateful operator in the dataflow runtime: folds, reduces,
// join half-states, antijoin sets, and `state` cells all hold a value that
// implements Merge.
//
// The contract of the concrete lattices in this package:
//
//   - Merge(other) bool (every type) merges other into the receiver in place
//     and reports whether the receiver changed. Implementations MUST be
//     associative, commutative, and idempotent with respect to the join they
//     compute, with two exceptions: Seq keeps the receiver when two
//     sequences diverge (its join is the longer of two prefix-related
//     sequences; it does not concatenate — see NonCommutative), and Point
//     keeps the receiver when two tagged Points differ.
//   - LatticeFrom(other), where a type has it (Max, Min, SetUnion,
//     Conflict), constructs the least upper bound of bottom and other; here
//     it is just a constructor.
//   - IsBot/IsTop, where a type has them, are exact predicates when the
//     lattice has a decidable bottom/top; IsTop may conservatively return
//     false when undecidable (documented per type below). Not every type
//     has both.
//   - DeepReveal (every type) exposes the underlying representation
//     recursively, for inspection and tests only — never for merge logic.
//
// A merge of structurally incompatible values is never a runtime error: it
// produces a recognizable top/conflict state that downstream code tests via
// IsTop, per spec §4.B "Failure".
package lattice

// Merge is satisfied by every concrete lattice type in this package. T is
// the lattice's own type, so Merge(other T) mutates the receiver in place.
type Merge[T any] interface {
	// Merge merges other into the receiver, returning true iff the receiver
	// changed as a result. Must be associative, commutative (barring
	// explicitly ordered lattices), and idempotent.
	Merge(other T) bool
}

// LatticeFrom constructs a T that is the least upper bound of T's bottom and
// an arbitrary other value convertible into T.
type LatticeFrom[T any, From any] interface {
	LatticeFrom(other From) T
}

// BotTop exposes exact-or-conservative bottom/top predicates.
type BotTop interface {
	// IsBot reports whether the receiver is exactly the lattice's bottom.
	IsBot() bool
	// IsTop reports whether the receiver is the lattice's top. May return
	// false conservatively when top is undecidable for this type.
	IsTop() bool
}

// DeepReveal exposes a lattice value's underlying representation,
// recursively unwrapping any nested lattice wrappers. Used only for
// inspection and testing; merge logic must never depend on it.
type DeepReveal interface {
	DeepReveal() any
}

// Ordering is the result of a partial-order comparison between two lattice
// elements under the join order: a <= b iff a ⊔ b == b.
type Ordering int

const (
	// Incomparable means neither a<=b nor b<=a holds.
	Incomparable Ordering = iota
	Less
	Equal
	Greater
)

// LatticeOrd is satisfied by lattices whose partial order is derived from
// (and must agree with) their join. Cmp returns ok=false for incomparable
// elements instead of an Incomparable Ordering value with ok=true, so
// callers cannot accidentally treat "incomparable" as a result to branch on
// without checking ok first.
type LatticeOrd[T any] interface {
	// Cmp compares the receiver to other under the lattice's partial order.
	Cmp(other T) (ord Ordering, ok bool)
}

// NonCommutative is implemented by lattice types whose join is not
// commutative (currently only Seq). The law-checking harness in
// lattice/lawcheck does not call this method: a caller skips the
// commutativity law by setting lawcheck.Semilattice's NonCommutative field.
type NonCommutative interface {
	NonCommutative() bool
}
