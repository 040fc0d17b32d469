package lattice

// Pair is the cross-product lattice: merge is componentwise on First and
// Second, each delegating to its own lattice's Merge.
type Pair[A any, PA Ptr[A], B any, PB Ptr[B]] struct {
	First  A
	Second B
}

// NewPair constructs a Pair from two component values.
func NewPair[A any, PA Ptr[A], B any, PB Ptr[B]](first A, second B) Pair[A, PA, B, PB] {
	return Pair[A, PA, B, PB]{First: first, Second: second}
}

// Merge merges other's First into the receiver's First and other's Second
// into the receiver's Second, reporting whether either changed.
func (p *Pair[A, PA, B, PB]) Merge(other Pair[A, PA, B, PB]) bool {
	c1 := mergeInto[A, PA](&p.First, other.First)
	c2 := mergeInto[B, PB](&p.Second, other.Second)

	return c1 || c2
}

// DeepReveal exposes both components, recursing when they implement
// DeepReveal themselves.
func (p Pair[A, PA, B, PB]) DeepReveal() any {
	reveal := func(v any) any {
		if dr, ok := v.(DeepReveal); ok {
			return dr.DeepReveal()
		}

		return v
	}

	return [2]any{reveal(p.First), reveal(p.Second)}
}

// DomPair is the dominating-pair lattice keyed by a totally-ordered key:
// when two DomPairs have different keys, the larger key wins outright and
// the lesser key's value is dropped (not merged); when keys are equal, the
// values are merged via V's own Merge.
type DomPair[K any, V any, PV Ptr[V]] struct {
	Key   K
	Value V

	cmp func(a, b K) int
}

// NewDomPair constructs a DomPair with the given key-comparison function
// (negative if a<b, zero if equal, positive if a>b — matching cmp.Compare).
func NewDomPair[K any, V any, PV Ptr[V]](key K, value V, cmp func(a, b K) int) DomPair[K, V, PV] {
	return DomPair[K, V, PV]{Key: key, Value: value, cmp: cmp}
}

// Merge keeps the larger key's Value outright, or merges Values when keys
// tie. The receiver's cmp function is used; other's is ignored (both sides
// of a single state cell must be constructed with the same ordering).
func (d *DomPair[K, V, PV]) Merge(other DomPair[K, V, PV]) bool {
	if d.cmp == nil {
		d.cmp = other.cmp
	}

	switch c := d.cmp(d.Key, other.Key); {
	case c == 0:
		return mergeInto[V, PV](&d.Value, other.Value)
	case c < 0:
		d.Key, d.Value = other.Key, other.Value
		return true
	default:
		return false
	}
}

// DeepReveal exposes the key and (recursively revealed) value.
func (d DomPair[K, V, PV]) DeepReveal() any {
	v := any(d.Value)
	if dr, ok := v.(DeepReveal); ok {
		v = dr.DeepReveal()
	}

	return struct {
		Key   K
		Value any
	}{Key: d.Key, Value: v}
}
