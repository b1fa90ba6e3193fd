package sampler

import (
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seeded(seed uint64) *rand.Rand {
	return rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
}

func TestSample_NoDuplicatesNoZeroWeights(t *testing.T) {
	src := seeded(1)
	for round := 0; round < 200; round++ {
		items := make([]Item, 0, 40)
		positive := 0
		for id := uint(1); id <= 40; id++ {
			w := int64(src.IntN(6)) - 1 // -1..4
			if w > 0 {
				positive++
			}
			items = append(items, Item{ID: id, Weight: w})
		}
		n := 1 + src.IntN(30)

		got := Sample(items, n, src)

		seen := make(map[uint]bool, len(got))
		for _, id := range got {
			require.False(t, seen[id], "duplicate id %d", id)
			seen[id] = true
			require.Greater(t, items[id-1].Weight, int64(0), "non-positive weight drawn")
		}
		assert.Len(t, got, min(n, positive))
	}
}

func TestSample_ReturnsWholeEligibleSet(t *testing.T) {
	items := []Item{{ID: 1, Weight: 5}, {ID: 2, Weight: 0}, {ID: 3, Weight: 1}, {ID: 4, Weight: -3}, {ID: 5, Weight: 900}}

	for _, n := range []int{3, 4, 100} {
		got := Sample(items, n, seeded(uint64(n)))
		assert.ElementsMatch(t, []uint{1, 3, 5}, got)
	}
}

func TestSample_Empty(t *testing.T) {
	assert.Empty(t, Sample(nil, 5, nil))
	assert.Empty(t, Sample([]Item{{ID: 1, Weight: 0}}, 5, nil))
	assert.Empty(t, Sample([]Item{{ID: 1, Weight: 3}}, 0, nil))
}

func TestSample_HeavierItemsWinMoreOften(t *testing.T) {
	items := []Item{{ID: 1, Weight: 1}, {ID: 2, Weight: 10}, {ID: 3, Weight: 100}}
	src := seeded(42)
	hits := map[uint]int{}

	for i := 0; i < 5000; i++ {
		for _, id := range Sample(items, 1, src) {
			hits[id]++
		}
	}

	assert.Less(t, hits[1], hits[2])
	assert.Less(t, hits[2], hits[3])
}

func TestEligible(t *testing.T) {
	got := Eligible([]Item{{ID: 1, Weight: 0}, {ID: 2, Weight: 2}, {ID: 3, Weight: -1}})
	assert.Equal(t, []Item{{ID: 2, Weight: 2}}, got)
}
