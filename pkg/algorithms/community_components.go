package algorithms

import "github.com/dd0wney/cluso-analytics/pkg/graph"

// weakComponents labels each vertex with its weakly connected component,
// ignoring arc direction. Components are numbered in order of their first
// vertex.
func weakComponents(snap *graph.Snapshot) []int {
	n := snap.VertexCount()
	component := make([]int, n)
	for i := range component {
		component[i] = -1
	}

	queue := make([]int, 0, n)
	next := 0
	for start := 0; start < n; start++ {
		if component[start] >= 0 {
			continue
		}

		// BFS over both arc directions
		component[start] = next
		queue = append(queue[:0], start)
		for head := 0; head < len(queue); head++ {
			v := queue[head]
			for _, w := range snap.OutAt(v) {
				if component[w] < 0 {
					component[w] = next
					queue = append(queue, w)
				}
			}
			for _, w := range snap.InAt(v) {
				if component[w] < 0 {
					component[w] = next
					queue = append(queue, w)
				}
			}
		}
		next++
	}
	return component
}
