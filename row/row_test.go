package row

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSplit(t *testing.T) {
	r := New(1, "a", true, 3.5)

	key, value := r.Split(2)
	assert.Equal(t, Row{1, "a"}, key)
	assert.Equal(t, Row{true, 3.5}, value)
}

func TestSplitBySuffix(t *testing.T) {
	r := New(1, "a", true, 3.5)

	key, value := r.SplitBySuffix(1)
	assert.Equal(t, Row{1, "a", true}, key)
	assert.Equal(t, Row{3.5}, value)
}

func TestSplitOutOfRangePanics(t *testing.T) {
	r := New(1, 2)
	assert.Panics(t, func() { r.Split(3) })
	assert.Panics(t, func() { r.Split(-1) })
}

func TestEqRef(t *testing.T) {
	a := New(1, "x")
	b := New(1, "x")
	c := New(1, "y")

	assert.True(t, a.EqRef(b))
	assert.False(t, a.EqRef(c))
}

func TestCloneIndependence(t *testing.T) {
	a := New(1, 2, 3)
	b := a.Clone()
	b[0] = 99

	require.Equal(t, 1, a[0])
	require.Equal(t, 99, b[0])
}
