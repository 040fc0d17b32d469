// Package bimorphism provides binary lattice morphisms: functions f(a, b)
// that distribute over join in each argument independently, i.e.
// f(a⊔a', b) == f(a,b) ⊔ f(a',b) and symmetrically in b. These back
// lattice-level joins and keyed joins (spec §4.B).
package bimorphism

// Pair is a bimorphism from A x B into lattice C, computed by applying a
// plain function to the two operands' revealed values and lifting the
// result back into C via join (via the caller-supplied joinFn).
type Pair[A, B, C any] struct {
	// Apply computes f(a, b) -> c for single elements.
	Apply func(a A, b B) C
	// Join merges two C values, matching C's own Merge semantics.
	Join func(dst *C, src C) bool
}

// Combine applies the bimorphism to every element of as x bs and folds the
// results together with Join, starting from the first pair's result. It
// returns C's zero value when as or bs is empty.
func (p Pair[A, B, C]) Combine(as []A, bs []B) C {
	var acc C
	first := true
	for _, a := range as {
		for _, b := range bs {
			c := p.Apply(a, b)
			if first {
				acc = c
				first = false
				continue
			}
			p.Join(&acc, c)
		}
	}

	return acc
}

// Keyed is a bimorphism over MapUnion-shaped inputs: it applies an inner
// Pair bimorphism per matching outer key, matching spec §4.B's
// "KeyedBimorphism (outer key then inner bimorphism)".
type Keyed[K comparable, A, B, C any] struct {
	Inner Pair[A, B, C]
}

// Combine applies Inner.Apply to every (a, b) sharing a key, keyed by K, and
// folds per-key results independently.
func (k Keyed[K, A, B, C]) Combine(as map[K][]A, bs map[K][]B) map[K]C {
	out := make(map[K]C, len(as))
	for key, aVals := range as {
		bVals, ok := bs[key]
		if !ok {
			continue
		}
		out[key] = k.Inner.Combine(aVals, bVals)
	}

	return out
}
