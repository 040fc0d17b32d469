package lattice

// SetUnion is the set lattice over a comparable element type: merge is set
// union, bottom is the empty set, and there is no universal top.
type SetUnion[S comparable] struct {
	elems map[S]struct{}
}

// NewSetUnion constructs a SetUnion containing the given elements.
func NewSetUnion[S comparable](elems ...S) SetUnion[S] {
	su := SetUnion[S]{elems: make(map[S]struct{}, len(elems))}
	for _, e := range elems {
		su.elems[e] = struct{}{}
	}

	return su
}

// Merge adds every element of other not already present, reporting whether
// the set grew.
func (s *SetUnion[S]) Merge(other SetUnion[S]) bool {
	changed := false
	if s.elems == nil {
		s.elems = make(map[S]struct{}, len(other.elems))
	}
	for e := range other.elems {
		if _, ok := s.elems[e]; !ok {
			s.elems[e] = struct{}{}
			changed = true
		}
	}

	return changed
}

// LatticeFrom constructs a SetUnion from a slice of elements.
func (s SetUnion[S]) LatticeFrom(elems []S) SetUnion[S] { return NewSetUnion(elems...) }

// IsBot reports whether the set is empty.
func (s SetUnion[S]) IsBot() bool { return len(s.elems) == 0 }

// IsTop always reports false: sets over an arbitrary comparable domain have
// no universal top.
func (s SetUnion[S]) IsTop() bool { return false }

// Contains reports whether e is a member of the set.
func (s SetUnion[S]) Contains(e S) bool {
	_, ok := s.elems[e]
	return ok
}

// Len returns the number of elements currently in the set.
func (s SetUnion[S]) Len() int { return len(s.elems) }

// Elements returns the set's members in unspecified order.
func (s SetUnion[S]) Elements() []S {
	out := make([]S, 0, len(s.elems))
	for e := range s.elems {
		out = append(out, e)
	}

	return out
}

// DeepReveal exposes the underlying element slice.
func (s SetUnion[S]) DeepReveal() any { return s.Elements() }
