package lattice

import (
	"fmt"

	"github.com/katalvlaran/dfir/row"
)

// GeneralizedHashTrie is the prefix-tree lattice keyed by a variadic schema:
// rows are split at a fixed key arity into a prefix (the trie's bucket key)
// and a suffix, with each bucket holding a set over the suffixes observed
// for that prefix. Merge is recursive: buckets union by key, and within a
// matching bucket, suffix sets union.
//
// This implementation keeps one flat level of buckets (prefix -> suffix set)
// rather than a fully nested byte-trie, since the join-semilattice contract
// — not the storage shape — is what spec §4.B actually requires of this
// type; canonicalKey provides the hashing spec's name alludes to.
type GeneralizedHashTrie struct {
	keyArity int
	buckets  map[string]*ghtBucket
}

type ghtBucket struct {
	key      row.Row
	suffixes map[string]row.Row
}

// NewGeneralizedHashTrie constructs an empty trie that splits inserted rows
// at keyArity elements.
func NewGeneralizedHashTrie(keyArity int) GeneralizedHashTrie {
	return GeneralizedHashTrie{keyArity: keyArity, buckets: make(map[string]*ghtBucket)}
}

func canonicalKey(r row.Row) string { return fmt.Sprintf("%#v", []any(r)) }

// Insert adds r, splitting it into key/suffix at the trie's key arity.
// Reports whether the suffix was new for that key.
func (t *GeneralizedHashTrie) Insert(r row.Row) bool {
	if t.buckets == nil {
		t.buckets = make(map[string]*ghtBucket)
	}
	key, suffix := r.Split(t.keyArity)
	ck := canonicalKey(key)
	b, ok := t.buckets[ck]
	if !ok {
		b = &ghtBucket{key: key, suffixes: make(map[string]row.Row)}
		t.buckets[ck] = b
	}
	sk := canonicalKey(suffix)
	if _, exists := b.suffixes[sk]; exists {
		return false
	}
	b.suffixes[sk] = suffix

	return true
}

// Merge unions other's buckets into the receiver, and within each matching
// bucket unions the suffix sets, reporting whether anything changed.
func (t *GeneralizedHashTrie) Merge(other GeneralizedHashTrie) bool {
	if t.buckets == nil {
		t.buckets = make(map[string]*ghtBucket)
	}
	if t.keyArity == 0 {
		t.keyArity = other.keyArity
	}

	changed := false
	for ck, ob := range other.buckets {
		b, ok := t.buckets[ck]
		if !ok {
			nb := &ghtBucket{key: ob.key, suffixes: make(map[string]row.Row, len(ob.suffixes))}
			for sk, sv := range ob.suffixes {
				nb.suffixes[sk] = sv
			}
			t.buckets[ck] = nb
			changed = true
			continue
		}
		for sk, sv := range ob.suffixes {
			if _, exists := b.suffixes[sk]; !exists {
				b.suffixes[sk] = sv
				changed = true
			}
		}
	}

	return changed
}

// IsBot reports whether the trie holds no rows.
func (t GeneralizedHashTrie) IsBot() bool { return len(t.buckets) == 0 }

// Lookup returns every suffix row stored for the given key prefix.
func (t GeneralizedHashTrie) Lookup(key row.Row) ([]row.Row, bool) {
	b, ok := t.buckets[canonicalKey(key)]
	if !ok {
		return nil, false
	}
	out := make([]row.Row, 0, len(b.suffixes))
	for _, v := range b.suffixes {
		out = append(out, v)
	}

	return out, true
}

// DeepReveal exposes the trie as a map from canonical key string to its
// suffix rows.
func (t GeneralizedHashTrie) DeepReveal() any {
	out := make(map[string][]row.Row, len(t.buckets))
	for _, b := range t.buckets {
		vals := make([]row.Row, 0, len(b.suffixes))
		for _, v := range b.suffixes {
			vals = append(vals, v)
		}
		out[canonicalKey(b.key)] = vals
	}

	return out
}
