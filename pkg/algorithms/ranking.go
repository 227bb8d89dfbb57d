package algorithms

import (
	"container/heap"
	"sort"
)

// RankedVertex represents a vertex with its score
type RankedVertex struct {
	VertexID string  `json:"vertex_id"`
	Score    float64 `json:"score"`
}

// rankedVertexHeap is a min-heap by score; on equal scores the larger id sits
// nearer the root so it is evicted first.
type rankedVertexHeap []RankedVertex

func (h rankedVertexHeap) Len() int { return len(h) }
func (h rankedVertexHeap) Less(i, j int) bool {
	if h[i].Score != h[j].Score {
		return h[i].Score < h[j].Score
	}
	return h[i].VertexID > h[j].VertexID
}
func (h rankedVertexHeap) Swap(i, j int) { h[i], h[j] = h[j], h[i] }

func (h *rankedVertexHeap) Push(x any) {
	*h = append(*h, x.(RankedVertex))
}

func (h *rankedVertexHeap) Pop() any {
	old := *h
	n := len(old)
	x := old[n-1]
	*h = old[0 : n-1]
	return x
}

// TopN returns the n highest scoring vertices, highest first. Ties are broken
// by ascending vertex id. Runs in O(V log n).
func TopN(scores map[string]float64, n int) []RankedVertex {
	if n <= 0 {
		return nil
	}

	h := make(rankedVertexHeap, 0, n)
	heap.Init(&h)

	for id, score := range scores {
		rv := RankedVertex{VertexID: id, Score: score}
		if h.Len() < n {
			heap.Push(&h, rv)
		} else if beats(rv, h[0]) {
			heap.Pop(&h)
			heap.Push(&h, rv)
		}
	}

	result := make([]RankedVertex, h.Len())
	copy(result, h)
	sort.Slice(result, func(i, j int) bool {
		return beats(result[i], result[j])
	})
	return result
}

// beats reports whether a ranks above b
func beats(a, b RankedVertex) bool {
	if a.Score != b.Score {
		return a.Score > b.Score
	}
	return a.VertexID < b.VertexID
}
