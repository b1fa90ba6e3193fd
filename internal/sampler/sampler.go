// Package sampler draws weighted random samples without replacement.
//
// Each item with weight w > 0 receives the key log(u)/w for a uniform u in
// (0, 1]; the n largest keys form the sample (Efraimidis and Spirakis). An
// item's inclusion probability grows with its weight and no item can be drawn
// twice. Items with a non-positive weight never appear.
package sampler

import (
	"container/heap"
	"math"
	"math/rand/v2"
)

// Item is a candidate with its sampling weight.
type Item struct {
	ID     uint
	Weight int64
}

// Source yields uniform floats in [0, 1). *rand.Rand satisfies it.
type Source interface {
	Float64() float64
}

type globalSource struct{}

func (globalSource) Float64() float64 { return rand.Float64() }

// DefaultSource is safe for concurrent use.
var DefaultSource Source = globalSource{}

// Eligible drops items that can never be drawn.
func Eligible(items []Item) []Item {
	out := make([]Item, 0, len(items))
	for _, it := range items {
		if it.Weight > 0 {
			out = append(out, it)
		}
	}
	return out
}

// Sample returns up to n distinct item ids. When the eligible items number n
// or fewer, all of them are returned in random order. The result is ordered
// by descending key, itself a weighted random order.
func Sample(items []Item, n int, src Source) []uint {
	if src == nil {
		src = DefaultSource
	}
	eligible := Eligible(items)
	if n <= 0 || len(eligible) == 0 {
		return nil
	}
	if n > len(eligible) {
		n = len(eligible)
	}

	h := make(keyHeap, 0, n)
	for _, it := range eligible {
		k := key(it.Weight, src)
		if len(h) < n {
			heap.Push(&h, keyed{id: it.ID, key: k})
			continue
		}
		if k > h[0].key {
			h[0] = keyed{id: it.ID, key: k}
			heap.Fix(&h, 0)
		}
	}

	ids := make([]uint, len(h))
	for i := len(h) - 1; i >= 0; i-- {
		ids[i] = heap.Pop(&h).(keyed).id
	}
	return ids
}

func key(weight int64, src Source) float64 {
	// 1 - [0,1) keeps u away from zero so the log stays finite
	u := 1 - src.Float64()
	return math.Log(u) / float64(weight)
}

type keyed struct {
	id  uint
	key float64
}

// keyHeap is a min-heap on key holding the current best n.
type keyHeap []keyed

func (h keyHeap) Len() int           { return len(h) }
func (h keyHeap) Less(i, j int) bool { return h[i].key < h[j].key }
func (h keyHeap) Swap(i, j int)      { h[i], h[j] = h[j], h[i] }

func (h *keyHeap) Push(x interface{}) { *h = append(*h, x.(keyed)) }

func (h *keyHeap) Pop() interface{} {
	old := *h
	last := old[len(old)-1]
	*h = old[:len(old)-1]
	return last
}
