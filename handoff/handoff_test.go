package handoff

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGiveThenSwap(t *testing.T) {
	h := New[int]()
	assert.False(t, h.NonEmpty())

	h.Give(1)
	h.Give(2)
	h.Give(3)
	assert.True(t, h.NonEmpty())
	assert.Equal(t, 3, h.Len())

	got := h.BorrowMutSwap()
	assert.Equal(t, []int{1, 2, 3}, got)
	assert.False(t, h.NonEmpty())

	// a second swap with no intervening Give returns empty.
	assert.Empty(t, h.BorrowMutSwap())
}

func TestGiveAllPreservesOrder(t *testing.T) {
	h := New[string]()
	h.GiveAll([]string{"a", "b", "c"})
	assert.Equal(t, []string{"a", "b", "c"}, h.BorrowMutSwap())
}

// TestConservation exercises spec §8.3: sum of Give calls equals sum of
// elements drained by BorrowMutSwap, across concurrent producers.
func TestConservation(t *testing.T) {
	h := New[int]()
	const producers = 8
	const perProducer = 500

	var wg sync.WaitGroup
	wg.Add(producers)
	for p := 0; p < producers; p++ {
		go func() {
			defer wg.Done()
			for i := 0; i < perProducer; i++ {
				h.Give(i)
			}
		}()
	}
	wg.Wait()

	require.Equal(t, producers*perProducer, h.Len())
	drained := h.BorrowMutSwap()
	assert.Len(t, drained, producers*perProducer)
	assert.Empty(t, h.BorrowMutSwap())
}

func TestIDIsStable(t *testing.T) {
	h := New[int]()
	id1 := h.ID()
	id2 := h.ID()
	assert.Equal(t, id1, id2)
	assert.NotEmpty(t, id1.String())
}
