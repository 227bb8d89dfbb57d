package algorithms

import (
	"fmt"

	"github.com/dd0wney/cluso-analytics/pkg/graph"
	"github.com/dd0wney/cluso-analytics/pkg/parallel"
)

// CentralityOptions configures the centrality engine
type CentralityOptions struct {
	PageRank PageRankOptions

	// Workers bounds the per-source BFS fan-out of betweenness and closeness.
	// 0 uses one worker per CPU, 1 runs sequentially on the caller's goroutine.
	Workers int
}

// DefaultCentralityOptions returns default centrality configuration
func DefaultCentralityOptions() CentralityOptions {
	return CentralityOptions{
		PageRank: DefaultPageRankOptions(),
	}
}

// RunCentrality dispatches to the named centrality algorithm and returns a
// score for every vertex in the snapshot.
func RunCentrality(snap *graph.Snapshot, alg CentralityAlgorithm, opts CentralityOptions) (map[string]float64, error) {
	switch alg {
	case PageRankAlgorithm:
		return PageRank(snap, opts.PageRank).Scores, nil
	case BetweennessAlgorithm:
		return BetweennessCentrality(snap, opts)
	case ClosenessAlgorithm:
		return ClosenessCentrality(snap, opts)
	case DegreeAlgorithm:
		return DegreeCentrality(snap), nil
	default:
		return nil, fmt.Errorf("%w: centrality algorithm %q", ErrAlgorithmNotImplemented, string(alg))
	}
}

// bfsWorkspace holds per-source BFS state. One workspace is reused for every
// source of a chunk.
type bfsWorkspace struct {
	dist  []int
	sigma []float64
	delta []float64
	preds [][]int
	queue []int // FIFO worklist; each vertex is enqueued at most once
	stack []int // vertices in non-decreasing distance order
}

func newBFSWorkspace(n int) *bfsWorkspace {
	return &bfsWorkspace{
		dist:  make([]int, n),
		sigma: make([]float64, n),
		delta: make([]float64, n),
		preds: make([][]int, n),
		queue: make([]int, 0, n),
		stack: make([]int, 0, n),
	}
}

func (ws *bfsWorkspace) reset() {
	for i := range ws.dist {
		ws.dist[i] = -1
		ws.sigma[i] = 0
		ws.delta[i] = 0
		ws.preds[i] = ws.preds[i][:0]
	}
	ws.queue = ws.queue[:0]
	ws.stack = ws.stack[:0]
}

// brandesFrom runs one Brandes pass from source and adds its pair
// dependencies into acc. Parallel arcs count as distinct shortest paths.
func (ws *bfsWorkspace) brandesFrom(snap *graph.Snapshot, source int, acc []float64) {
	ws.reset()
	ws.sigma[source] = 1
	ws.dist[source] = 0
	ws.queue = append(ws.queue, source)

	for head := 0; head < len(ws.queue); head++ {
		v := ws.queue[head]
		ws.stack = append(ws.stack, v)

		for _, w := range snap.OutAt(v) {
			if ws.dist[w] < 0 {
				ws.dist[w] = ws.dist[v] + 1
				ws.queue = append(ws.queue, w)
			}
			if ws.dist[w] == ws.dist[v]+1 {
				ws.sigma[w] += ws.sigma[v]
				ws.preds[w] = append(ws.preds[w], v)
			}
		}
	}

	// Back-propagation from the farthest vertex inwards
	for i := len(ws.stack) - 1; i >= 0; i-- {
		w := ws.stack[i]
		for _, v := range ws.preds[w] {
			ws.delta[v] += (ws.sigma[v] / ws.sigma[w]) * (1.0 + ws.delta[w])
		}
		if w != source {
			acc[w] += ws.delta[w]
		}
	}
}

// distanceSumFrom returns the sum of shortest-path hop counts from source to
// every vertex it reaches.
func (ws *bfsWorkspace) distanceSumFrom(snap *graph.Snapshot, source int) int {
	ws.reset()
	ws.dist[source] = 0
	ws.queue = append(ws.queue, source)

	total := 0
	for head := 0; head < len(ws.queue); head++ {
		v := ws.queue[head]
		for _, w := range snap.OutAt(v) {
			if ws.dist[w] < 0 {
				ws.dist[w] = ws.dist[v] + 1
				total += ws.dist[w]
				ws.queue = append(ws.queue, w)
			}
		}
	}
	return total
}

// BetweennessCentrality computes Brandes betweenness for all vertices.
//
// Raw dependencies are scaled by 2/((n-1)(n-2)) whatever the mix of directed
// and undirected edges. With fewer than three vertices every score is 0.
func BetweennessCentrality(snap *graph.Snapshot, opts CentralityOptions) (map[string]float64, error) {
	n := snap.VertexCount()
	scores := make(map[string]float64, n)
	if n < 3 {
		for i := 0; i < n; i++ {
			scores[snap.IDAt(i)] = 0.0
		}
		return scores, nil
	}

	chunks := parallel.SplitChunks(n, workerCount(opts.Workers))
	partials := make([][]float64, len(chunks))

	err := parallel.ForEachChunk(n, len(chunks), func(c parallel.Chunk) {
		acc := make([]float64, n)
		ws := newBFSWorkspace(n)
		for source := c.Lo; source < c.Hi; source++ {
			ws.brandesFrom(snap, source, acc)
		}
		partials[c.Index] = acc
	})
	if err != nil {
		return nil, fmt.Errorf("betweenness: %w", err)
	}

	raw := make([]float64, n)
	for _, acc := range partials {
		for i, v := range acc {
			raw[i] += v
		}
	}

	normFactor := 2.0 / float64((n-1)*(n-2))
	for i, v := range raw {
		scores[snap.IDAt(i)] = v * normFactor
	}
	return scores, nil
}

// ClosenessCentrality computes (n-1) / Σ distance for every vertex, following
// arc direction. Vertices that reach nothing score 0.
func ClosenessCentrality(snap *graph.Snapshot, opts CentralityOptions) (map[string]float64, error) {
	n := snap.VertexCount()
	sums := make([]int, n)

	err := parallel.ForEachChunk(n, workerCount(opts.Workers), func(c parallel.Chunk) {
		ws := newBFSWorkspace(n)
		for source := c.Lo; source < c.Hi; source++ {
			sums[source] = ws.distanceSumFrom(snap, source)
		}
	})
	if err != nil {
		return nil, fmt.Errorf("closeness: %w", err)
	}

	closeness := make(map[string]float64, n)
	for i, total := range sums {
		if total > 0 {
			closeness[snap.IDAt(i)] = float64(n-1) / float64(total)
		} else {
			closeness[snap.IDAt(i)] = 0.0
		}
	}
	return closeness, nil
}

// DegreeCentrality computes degree centrality for all vertices.
// Simple count of arcs (in + out) divided by n-1.
func DegreeCentrality(snap *graph.Snapshot) map[string]float64 {
	n := snap.VertexCount()
	degree := make(map[string]float64, n)

	for i := 0; i < n; i++ {
		if n > 1 {
			total := len(snap.InAt(i)) + len(snap.OutAt(i))
			degree[snap.IDAt(i)] = float64(total) / float64(n-1)
		} else {
			degree[snap.IDAt(i)] = 0.0
		}
	}
	return degree
}

func workerCount(workers int) int {
	if workers <= 0 {
		return parallel.DefaultWorkers()
	}
	return workers
}
