package lattice

// MapUnion is the key-wise lattice over a comparable key and an inner
// lattice L: merge is performed per key, treating a missing key on either
// side as that key's bottom (so the other side's value is simply adopted).
type MapUnion[K comparable, L any, PL Ptr[L]] struct {
	entries map[K]L
}

// NewMapUnion constructs a MapUnion from an initial key/value map. The map
// is copied; mutating the argument afterward does not affect the result.
func NewMapUnion[K comparable, L any, PL Ptr[L]](init map[K]L) MapUnion[K, L, PL] {
	m := MapUnion[K, L, PL]{entries: make(map[K]L, len(init))}
	for k, v := range init {
		m.entries[k] = v
	}

	return m
}

// Merge merges other key-wise into the receiver, reporting whether any
// entry changed or was added.
func (m *MapUnion[K, L, PL]) Merge(other MapUnion[K, L, PL]) bool {
	if m.entries == nil {
		m.entries = make(map[K]L, len(other.entries))
	}
	changed := false
	for k, v := range other.entries {
		cur, ok := m.entries[k]
		if !ok {
			m.entries[k] = v
			changed = true
			continue
		}
		if mergeInto[L, PL](&cur, v) {
			m.entries[k] = cur
			changed = true
		}
	}

	return changed
}

// IsBot reports whether the map holds no entries.
func (m MapUnion[K, L, PL]) IsBot() bool { return len(m.entries) == 0 }

// Get returns the value stored for k and whether it is present.
func (m MapUnion[K, L, PL]) Get(k K) (L, bool) {
	v, ok := m.entries[k]
	return v, ok
}

// Keys returns the map's keys in unspecified order.
func (m MapUnion[K, L, PL]) Keys() []K {
	out := make([]K, 0, len(m.entries))
	for k := range m.entries {
		out = append(out, k)
	}

	return out
}

// DeepReveal exposes a plain map, recursively revealing values that
// implement DeepReveal themselves.
func (m MapUnion[K, L, PL]) DeepReveal() any {
	out := make(map[K]any, len(m.entries))
	for k, v := range m.entries {
		if dr, ok := any(v).(DeepReveal); ok {
			out[k] = dr.DeepReveal()
			continue
		}
		out[k] = v
	}

	return out
}

// VecUnion is the index-wise lattice over a variadic-length list of an inner
// lattice L: merge is positional, and the shorter operand is conceptually
// padded with L's bottom, which in practice means positions beyond the
// shorter list's length are simply adopted from the longer list.
type VecUnion[L any, PL Ptr[L]] struct {
	items []L
}

// NewVecUnion constructs a VecUnion from an initial slice (copied).
func NewVecUnion[L any, PL Ptr[L]](init []L) VecUnion[L, PL] {
	items := make([]L, len(init))
	copy(items, init)

	return VecUnion[L, PL]{items: items}
}

// Merge merges other position-wise into the receiver, growing the receiver
// if other is longer.
func (v *VecUnion[L, PL]) Merge(other VecUnion[L, PL]) bool {
	changed := false
	for i, ov := range other.items {
		if i >= len(v.items) {
			v.items = append(v.items, ov)
			changed = true
			continue
		}
		if mergeInto[L, PL](&v.items[i], ov) {
			changed = true
		}
	}

	return changed
}

// IsBot reports whether the vector holds no entries.
func (v VecUnion[L, PL]) IsBot() bool { return len(v.items) == 0 }

// At returns the element at index i and whether it exists.
func (v VecUnion[L, PL]) At(i int) (L, bool) {
	if i < 0 || i >= len(v.items) {
		var zero L
		return zero, false
	}

	return v.items[i], true
}

// Len returns the vector's current length.
func (v VecUnion[L, PL]) Len() int { return len(v.items) }

// DeepReveal exposes a plain slice, recursively revealing elements that
// implement DeepReveal themselves.
func (v VecUnion[L, PL]) DeepReveal() any {
	out := make([]any, len(v.items))
	for i, item := range v.items {
		if dr, ok := any(item).(DeepReveal); ok {
			out[i] = dr.DeepReveal()
			continue
		}
		out[i] = item
	}

	return out
}
