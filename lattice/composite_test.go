package lattice

import (
	"testing"

	"github.com/katalvlaran/dfir/row"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPairMerge(t *testing.T) {
	a := NewPair[Max[int], *Max[int], SetUnion[string], *SetUnion[string]](NewMax(1), NewSetUnion("x"))
	b := NewPair[Max[int], *Max[int], SetUnion[string], *SetUnion[string]](NewMax(5), NewSetUnion("y"))

	changed := a.Merge(b)
	assert.True(t, changed)
	assert.Equal(t, 5, a.First.Value)
	assert.True(t, a.Second.Contains("x"))
	assert.True(t, a.Second.Contains("y"))
}

func TestDomPairLargerKeyWinsOutright(t *testing.T) {
	cmp := func(a, b int) int { return a - b }
	d := NewDomPair[int, Max[int], *Max[int]](1, NewMax(100), cmp)
	other := NewDomPair[int, Max[int], *Max[int]](2, NewMax(1), cmp)

	changed := d.Merge(other)
	require.True(t, changed)
	assert.Equal(t, 2, d.Key)
	assert.Equal(t, 1, d.Value.Value) // lesser key's value dropped, not merged
}

func TestDomPairEqualKeysMergeValues(t *testing.T) {
	cmp := func(a, b int) int { return a - b }
	d := NewDomPair[int, Max[int], *Max[int]](1, NewMax(3), cmp)
	other := NewDomPair[int, Max[int], *Max[int]](1, NewMax(9), cmp)

	changed := d.Merge(other)
	require.True(t, changed)
	assert.Equal(t, 9, d.Value.Value)
}

func TestWithBotAbsorption(t *testing.T) {
	bot := BotWithBot[Max[int], *Max[int]]()
	changed := bot.Merge(NewWithBot[Max[int], *Max[int]](NewMax(4)))
	assert.True(t, changed)
	v, ok := bot.Unwrap()
	assert.True(t, ok)
	assert.Equal(t, 4, v.Value)
}

func TestWithTopAbsorption(t *testing.T) {
	w := NewWithTop[Max[int], *Max[int]](NewMax(4))
	changed := w.Merge(TopWithTop[Max[int], *Max[int]]())
	assert.True(t, changed)
	assert.True(t, w.IsTop())

	changed = w.Merge(NewWithTop[Max[int], *Max[int]](NewMax(99)))
	assert.False(t, changed, "top absorbs further merges")
}

func TestMapUnionMerge(t *testing.T) {
	m := NewMapUnion[string, Max[int], *Max[int]](map[string]Max[int]{"a": NewMax(1)})
	other := NewMapUnion[string, Max[int], *Max[int]](map[string]Max[int]{"a": NewMax(5), "b": NewMax(2)})

	changed := m.Merge(other)
	assert.True(t, changed)
	a, _ := m.Get("a")
	b, _ := m.Get("b")
	assert.Equal(t, 5, a.Value)
	assert.Equal(t, 2, b.Value)
}

func TestVecUnionMerge(t *testing.T) {
	v := NewVecUnion[Max[int], *Max[int]]([]Max[int]{NewMax(1), NewMax(2)})
	other := NewVecUnion[Max[int], *Max[int]]([]Max[int]{NewMax(5)})

	changed := v.Merge(other)
	assert.True(t, changed)
	first, _ := v.At(0)
	second, _ := v.At(1)
	assert.Equal(t, 5, first.Value)
	assert.Equal(t, 2, second.Value)

	other2 := NewVecUnion[Max[int], *Max[int]]([]Max[int]{NewMax(0), NewMax(0), NewMax(9)})
	v.Merge(other2)
	assert.Equal(t, 3, v.Len())
	third, _ := v.At(2)
	assert.Equal(t, 9, third.Value)
}

func TestSeqPrefixJoin(t *testing.T) {
	s := NewSeq([]int{1, 2})
	changed := s.Merge(NewSeq([]int{1, 2, 3}))
	assert.True(t, changed)
	assert.Equal(t, []int{1, 2, 3}, s.Items())

	changed = s.Merge(NewSeq([]int{1, 2}))
	assert.False(t, changed, "receiver already extends the shorter sequence")

	changed = s.Merge(NewSeq([]int{9, 9}))
	assert.False(t, changed, "divergent sequences have no defined join")
	assert.True(t, s.NonCommutative())
}

func TestGeneralizedHashTrie(t *testing.T) {
	a := NewGeneralizedHashTrie(1)
	a.Insert(row.New("k1", "v1"))
	a.Insert(row.New("k1", "v2"))

	b := NewGeneralizedHashTrie(1)
	b.Insert(row.New("k1", "v2"))
	b.Insert(row.New("k2", "v3"))

	changed := a.Merge(b)
	assert.True(t, changed)

	vals, ok := a.Lookup(row.New("k1"))
	require.True(t, ok)
	assert.Len(t, vals, 2)

	_, ok = a.Lookup(row.New("k2"))
	assert.True(t, ok)
}
