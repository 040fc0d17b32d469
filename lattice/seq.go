package lattice

// Seq is the append-only sequence lattice: two Seqs join when one is a
// prefix of the other, and the join is the longer of the two (an append
// never rewrites history). Two divergent sequences (neither a prefix of
// the other) have no defined join here; Merge leaves the receiver
// unchanged in that case rather than guessing a winner. That makes Seq's
// join NOT commutative — for divergent a and b, merge(a,b) is a while
// merge(b,a) is b — so NonCommutative reports true, and a caller of
// lattice/lawcheck sets Semilattice.NonCommutative to skip the
// commutativity law for it, per spec §8.1.
type Seq[T comparable] struct {
	items []T
}

// NewSeq constructs a Seq from an initial slice (copied).
func NewSeq[T comparable](init []T) Seq[T] {
	items := make([]T, len(init))
	copy(items, init)

	return Seq[T]{items: items}
}

// Merge adopts other in place of the receiver when other is a (non-strict)
// extension of the receiver; it is a no-op when the receiver already
// extends or equals other, and leaves the receiver unchanged when the two
// sequences diverge.
func (s *Seq[T]) Merge(other Seq[T]) bool {
	if isPrefix(other.items, s.items) {
		// receiver already extends (or equals) other.
		return false
	}
	if isPrefix(s.items, other.items) {
		s.items = append([]T(nil), other.items...)
		return true
	}

	return false
}

func isPrefix[T comparable](prefix, of []T) bool {
	if len(prefix) > len(of) {
		return false
	}
	for i, v := range prefix {
		if of[i] != v {
			return false
		}
	}

	return true
}

// IsBot reports whether the sequence is empty.
func (s Seq[T]) IsBot() bool { return len(s.items) == 0 }

// NonCommutative always reports true for Seq.
func (s Seq[T]) NonCommutative() bool { return true }

// Items returns the sequence's elements in order.
func (s Seq[T]) Items() []T {
	out := make([]T, len(s.items))
	copy(out, s.items)

	return out
}

// DeepReveal exposes the underlying slice.
func (s Seq[T]) DeepReveal() any { return s.Items() }
