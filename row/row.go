// Package row provides the variadic tuple/schema kit used by lattice
// containers and keyed operators: rows are heterogeneous tuples whose
// element types are fixed per edge, and a schema can be split into a
// prefix (key) and suffix (value) for keyed aggregation and joining.
//
// Rows are immutable value carriers: no operation mutates a Row in place.
// Split and SplitBySuffix return views that share r's backing array; New,
// AsRefVar and Clone return fresh copies.
package row

import "reflect"

// Row is a heterogeneous tuple. Element order is significant and is part of
// a Row's schema identity; two Rows of different lengths are never equal.
type Row []any

// New builds a Row from the given elements, in order.
func New(elems ...any) Row {
	r := make(Row, len(elems))
	copy(r, elems)

	return r
}

// Len returns the number of elements in r.
func (r Row) Len() int { return len(r) }

// Split divides r into a key prefix of length n and a value suffix holding
// the remainder. Panics if n is negative or greater than r.Len(), mirroring
// the teacher's convention of panicking only on caller-supplied construction
// errors rather than at merge time.
func (r Row) Split(n int) (key, value Row) {
	if n < 0 || n > len(r) {
		panic("row: Split index out of range")
	}

	return r[:n:n], r[n:]
}

// SplitBySuffix divides r into a key prefix and a value suffix of exactly
// suffixLen elements. It is the mirror image of Split, expressed in terms of
// the suffix length since keyed-aggregation operators (fold_keyed,
// reduce_keyed, join) commonly know the value arity rather than the key
// arity.
func (r Row) SplitBySuffix(suffixLen int) (key, value Row) {
	if suffixLen < 0 || suffixLen > len(r) {
		panic("row: SplitBySuffix length out of range")
	}

	return r.Split(len(r) - suffixLen)
}

// EqRef reports whether r and other hold deeply equal elements in the same
// order. Used by test assertions; not on any scheduler hot path, so
// reflect.DeepEqual's cost is acceptable here.
func (r Row) EqRef(other Row) bool {
	return reflect.DeepEqual(r, other)
}

// AsRefVar returns a shallow copy of r suitable for use as a map key's
// backing value when the caller needs to retain a reference independent of
// the original slice's future mutation (Rows are conventionally immutable,
// but callers constructing Rows from reused buffers should copy via this).
func (r Row) AsRefVar() Row {
	out := make(Row, len(r))
	copy(out, r)

	return out
}

// Clone returns a deep-enough copy of r: a fresh backing array with the same
// elements. Element values themselves are not deep-copied.
func (r Row) Clone() Row {
	return r.AsRefVar()
}
