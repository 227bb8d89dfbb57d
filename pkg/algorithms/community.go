package algorithms

import (
	"fmt"

	"github.com/dd0wney/cluso-analytics/pkg/graph"
)

// DetectCommunities partitions the snapshot's vertices with the named
// algorithm and scores the partition's modularity.
func DetectCommunities(snap *graph.Snapshot, alg CommunityAlgorithm, opts CommunityOptions) (*CommunityResult, error) {
	opts = opts.withDefaults()

	var (
		partition  []int
		iterations int
		converged  bool
	)

	switch alg {
	case LouvainAlgorithm:
		partition = singletonPartition(snap.VertexCount())
		converged = true
		if opts.LocalMoving {
			iterations, converged = localMoving(snap, partition, opts)
		}
	case LabelPropagationAlgorithm:
		partition, iterations, converged = labelPropagation(snap, opts.MaxIterations)
	case ConnectedComponentsAlgorithm:
		partition = weakComponents(snap)
		converged = true
	default:
		return nil, fmt.Errorf("%w: community algorithm %q", ErrAlgorithmNotImplemented, string(alg))
	}

	result := buildCommunityResult(snap, canonicalize(partition))
	result.Algorithm = alg
	result.Iterations = iterations
	result.Converged = converged
	return result, nil
}

// SingletonPartition assigns every vertex its own community, numbered by
// insertion order. It is the starting point Louvain iterates on.
func SingletonPartition(snap *graph.Snapshot) map[string]int {
	assignments := make(map[string]int, snap.VertexCount())
	for i := 0; i < snap.VertexCount(); i++ {
		assignments[snap.IDAt(i)] = i
	}
	return assignments
}

func singletonPartition(n int) []int {
	partition := make([]int, n)
	for i := range partition {
		partition[i] = i
	}
	return partition
}

// Modularity scores a partition of the snapshot:
//
//	Q = (1/2m) Σ_{i≠j, c_i=c_j} (A_ij − k_i·k_j / 2m)
//
// m is the total edge weight, A_ij the arc weight from i to j (an undirected
// edge counts both ways) and k_i the weighted degree. Vertices missing from
// assignments are treated as singletons. Self-loops never contribute.
func Modularity(snap *graph.Snapshot, assignments map[string]int) float64 {
	n := snap.VertexCount()
	partition := make([]int, n)
	// Missing vertices get ids past any assigned one so they stay alone.
	next := 0
	for _, c := range assignments {
		if c >= next {
			next = c + 1
		}
	}
	for i := 0; i < n; i++ {
		if c, ok := assignments[snap.IDAt(i)]; ok {
			partition[i] = c
		} else {
			partition[i] = next
			next++
		}
	}
	return modularity(snap, partition)
}

func modularity(snap *graph.Snapshot, partition []int) float64 {
	m := snap.TotalWeight()
	if m == 0 {
		return 0.0
	}

	internal := 0.0
	for k := 0; k < snap.EdgeCount(); k++ {
		from, to, w, dir := snap.EdgeAt(k)
		if from == to || partition[from] != partition[to] {
			continue
		}
		internal += w
		if dir == graph.DirectionUndirected {
			internal += w
		}
	}

	// Σ_{i≠j in c} k_i k_j = (Σ_c k)^2 − Σ_c k^2
	degreeSum := make(map[int]float64)
	degreeSquares := make(map[int]float64)
	for i, c := range partition {
		k := snap.WeightedDegreeAt(i)
		degreeSum[c] += k
		degreeSquares[c] += k * k
	}
	expected := 0.0
	for c, sum := range degreeSum {
		expected += sum*sum - degreeSquares[c]
	}

	twoM := 2.0 * m
	return (internal - expected/twoM) / twoM
}

// neighborWeight is the combined A_ij + A_ji contribution of one edge
type neighborWeight struct {
	vertex int
	weight float64
}

// pairWeights lists, per vertex, (neighbor, A_ij + A_ji) contributions edge by
// edge. Self-loops are dropped.
func pairWeights(snap *graph.Snapshot) [][]neighborWeight {
	nbrs := make([][]neighborWeight, snap.VertexCount())
	for k := 0; k < snap.EdgeCount(); k++ {
		from, to, w, dir := snap.EdgeAt(k)
		if from == to {
			continue
		}
		if dir == graph.DirectionUndirected {
			w *= 2
		}
		nbrs[from] = append(nbrs[from], neighborWeight{vertex: to, weight: w})
		nbrs[to] = append(nbrs[to], neighborWeight{vertex: from, weight: w})
	}
	return nbrs
}

// localMoving is the Louvain first phase: each vertex in insertion order moves
// to the neighboring community with the best positive modularity gain, until a
// sweep moves nothing or the sweep budget runs out. partition is updated in
// place.
//
// Moving i from C to D changes Q by
//
//	(1/2m) [ w_iD − w_iC − k_i (K_D − K_C + k_i) / m ]
//
// where w_iX sums A_ij + A_ji over j in X and K_X is X's degree total.
func localMoving(snap *graph.Snapshot, partition []int, opts CommunityOptions) (int, bool) {
	m := snap.TotalWeight()
	if m == 0 {
		return 0, true
	}

	n := snap.VertexCount()
	nbrs := pairWeights(snap)
	commDegree := make(map[int]float64, n)
	for i, c := range partition {
		commDegree[c] += snap.WeightedDegreeAt(i)
	}

	linkTo := make(map[int]float64)
	candidates := make([]int, 0)

	for sweep := 1; sweep <= opts.MaxIterations; sweep++ {
		moved := false

		for i := 0; i < n; i++ {
			current := partition[i]
			ki := snap.WeightedDegreeAt(i)

			clear(linkTo)
			candidates = candidates[:0]
			for _, nb := range nbrs[i] {
				c := partition[nb.vertex]
				if _, seen := linkTo[c]; !seen {
					candidates = append(candidates, c)
				}
				linkTo[c] += nb.weight
			}

			best := current
			bestGain := opts.MinGain
			for _, c := range candidates {
				if c == current {
					continue
				}
				gain := (linkTo[c] - linkTo[current] - ki*(commDegree[c]-commDegree[current]+ki)/m) / (2.0 * m)
				if gain > bestGain {
					best = c
					bestGain = gain
				}
			}

			if best != current {
				commDegree[current] -= ki
				commDegree[best] += ki
				partition[i] = best
				moved = true
			}
		}

		if !moved {
			return sweep, true
		}
	}
	return opts.MaxIterations, false
}

// canonicalize renumbers communities 0..k-1 in order of first appearance.
func canonicalize(partition []int) []int {
	remap := make(map[int]int)
	out := make([]int, len(partition))
	for i, c := range partition {
		id, ok := remap[c]
		if !ok {
			id = len(remap)
			remap[c] = id
		}
		out[i] = id
	}
	return out
}

// buildCommunityResult expects community ids 0..k-1.
func buildCommunityResult(snap *graph.Snapshot, partition []int) *CommunityResult {
	assignments := make(map[string]int, len(partition))
	summary := make(map[int][]string)
	count := 0
	for i, c := range partition {
		id := snap.IDAt(i)
		assignments[id] = c
		summary[c] = append(summary[c], id)
		if c+1 > count {
			count = c + 1
		}
	}

	internalEdges := make([]int, count)
	for k := 0; k < snap.EdgeCount(); k++ {
		from, to, _, _ := snap.EdgeAt(k)
		if from != to && partition[from] == partition[to] {
			internalEdges[partition[from]]++
		}
	}

	communities := make([]*Community, count)
	for c := 0; c < count; c++ {
		members := summary[c]
		communities[c] = &Community{
			ID:       c,
			Vertices: members,
			Size:     len(members),
			Density:  graph.Density(len(members), internalEdges[c]),
		}
	}

	return &CommunityResult{
		Assignments: assignments,
		Modularity:  modularity(snap, partition),
		Summary:     summary,
		Communities: communities,
	}
}
