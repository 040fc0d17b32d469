// Package lawcheck provides a reusable algebraic-property-check harness for
// concrete lattice types, grounded on the property-test suite in
// hydroflow's lattices/src/algebra.rs and re-expressed as plain testing.T
// checks per spec §8.1: a test passes CheckSemilattice a small finite
// domain instead of hand writing associativity/commutativity/idempotence
// checks per type. The Max and SetUnion tests use it.
package lawcheck

import "testing"

// Semilattice is the minimal surface CheckSemilattice needs from a
// concrete lattice element: a way to merge two elements and read the
// result back out for equality comparison. Equal should be a by-value
// deep-equality check (e.g. require.Equal's semantics) — callers
// typically pass reflect.DeepEqual or a testify-flavored helper.
type Semilattice[T any] struct {
	// Merge merges b into a and returns the new value of a (copy
	// semantics — the harness never mutates the caller's samples).
	Merge func(a, b T) T
	// Equal reports whether two elements are the same lattice value.
	Equal func(a, b T) bool
	// NonCommutative, if true, skips the commutativity law (Seq only).
	NonCommutative bool
}

// CheckSemilattice runs the associativity, commutativity (unless
// NonCommutative), and idempotence laws from spec §8.1 over every pairing
// and tripling of the given finite domain.
func CheckSemilattice[T any](t *testing.T, sl Semilattice[T], domain []T) {
	t.Helper()

	for _, a := range domain {
		// Idempotence: merge(a, a) == a.
		if got := sl.Merge(a, a); !sl.Equal(got, a) {
			t.Errorf("idempotence failed for %v: merge(a,a) = %v", a, got)
		}
	}

	if !sl.NonCommutative {
		for _, a := range domain {
			for _, b := range domain {
				ab := sl.Merge(a, b)
				ba := sl.Merge(b, a)
				if !sl.Equal(ab, ba) {
					t.Errorf("commutativity failed: merge(%v,%v)=%v != merge(%v,%v)=%v", a, b, ab, b, a, ba)
				}
			}
		}
	}

	for _, a := range domain {
		for _, b := range domain {
			for _, c := range domain {
				left := sl.Merge(sl.Merge(a, b), c)
				right := sl.Merge(a, sl.Merge(b, c))
				if !sl.Equal(left, right) {
					t.Errorf("associativity failed for (%v,%v,%v): %v != %v", a, b, c, left, right)
				}
			}
		}
	}
}

// CheckBimorphism verifies f(merge(a,a'), b) == merge(f(a,b), f(a',b)) and
// symmetrically in b, per spec §4.B / §8.2.
func CheckBimorphism[A, B, C any](
	t *testing.T,
	f func(a A, b B) C,
	mergeA func(a, a2 A) A,
	mergeB func(b, b2 B) B,
	mergeC func(c, c2 C) C,
	equalC func(c, c2 C) bool,
	as []A, bs []B,
) {
	t.Helper()

	for _, a := range as {
		for _, a2 := range as {
			for _, b := range bs {
				left := f(mergeA(a, a2), b)
				right := mergeC(f(a, b), f(a2, b))
				if !equalC(left, right) {
					t.Errorf("bimorphism law (first arg) failed for a=%v a2=%v b=%v: %v != %v", a, a2, b, left, right)
				}
			}
		}
	}

	for _, b := range bs {
		for _, b2 := range bs {
			for _, a := range as {
				left := f(a, mergeB(b, b2))
				right := mergeC(f(a, b), f(a, b2))
				if !equalC(left, right) {
					t.Errorf("bimorphism law (second arg) failed for b=%v b2=%v a=%v: %v != %v", b, b2, a, left, right)
				}
			}
		}
	}
}
