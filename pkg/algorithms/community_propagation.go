package algorithms

import "github.com/dd0wney/cluso-analytics/pkg/graph"

// labelPropagation runs synchronous-in-order label propagation. Each vertex,
// visited in insertion order, adopts the most frequent label among its in and
// out neighbors; ties go to the smallest label so runs are reproducible.
// Returns the labels, the number of rounds run and whether labels settled.
func labelPropagation(snap *graph.Snapshot, maxIterations int) ([]int, int, bool) {
	n := snap.VertexCount()
	labels := singletonPartition(n)
	labelCount := make(map[int]int)

	for iter := 1; iter <= maxIterations; iter++ {
		changed := false

		for v := 0; v < n; v++ {
			clear(labelCount)
			for _, w := range snap.OutAt(v) {
				if w != v {
					labelCount[labels[w]]++
				}
			}
			for _, w := range snap.InAt(v) {
				if w != v {
					labelCount[labels[w]]++
				}
			}
			if len(labelCount) == 0 {
				continue
			}

			// Find most frequent label
			maxCount := 0
			maxLabel := labels[v]
			for label, count := range labelCount {
				if count > maxCount || (count == maxCount && label < maxLabel) {
					maxCount = count
					maxLabel = label
				}
			}
			// Keep the current label when it is already one of the winners
			if labelCount[labels[v]] == maxCount {
				maxLabel = labels[v]
			}

			if maxLabel != labels[v] {
				labels[v] = maxLabel
				changed = true
			}
		}

		if !changed {
			return labels, iter, true
		}
	}
	return labels, maxIterations, false
}
