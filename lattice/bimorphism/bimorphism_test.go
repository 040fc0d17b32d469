package bimorphism

import (
	"testing"

	"github.com/katalvlaran/dfir/lattice"
	"github.com/katalvlaran/dfir/lattice/lawcheck"
	"github.com/stretchr/testify/assert"
)

func TestPairCombine(t *testing.T) {
	p := Pair[int, int, lattice.Max[int]]{
		Apply: func(a, b int) lattice.Max[int] { return lattice.NewMax(a * b) },
		Join: func(dst *lattice.Max[int], src lattice.Max[int]) bool {
			return dst.Merge(src)
		},
	}

	got := p.Combine([]int{2, 3}, []int{5})
	assert.Equal(t, 15, got.Value) // max(2*5, 3*5) == 15
}

func TestBimorphismLaw(t *testing.T) {
	f := func(a, b int) lattice.Max[int] { return lattice.NewMax(a * b) }
	mergeA := func(a, a2 int) int {
		if a2 > a {
			return a2
		}
		return a
	}
	mergeB := mergeA
	mergeC := func(c, c2 lattice.Max[int]) lattice.Max[int] {
		c.Merge(c2)
		return c
	}
	equalC := func(c, c2 lattice.Max[int]) bool { return c.Value == c2.Value }

	lawcheck.CheckBimorphism(t, f, mergeA, mergeB, mergeC, equalC, []int{1, 2, 3}, []int{1, 2})
}
