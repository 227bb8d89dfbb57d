package graph

import (
	"math"
)

// Arc is one traversable direction of an edge. An undirected edge yields two
// arcs; a directed edge yields one.
type Arc struct {
	EdgeID    string
	Weight    float64 // sum of weights when parallel edges share the arc
	Direction Direction
	Count     int // number of edges folded into this arc
}

type arcKey struct {
	from, to int
}

type edgeEnds struct {
	from, to int
}

// Snapshot is an immutable adjacency view of one analysis run's vertices and
// edges. It is safe for concurrent readers.
type Snapshot struct {
	vertices []Vertex
	edges    []Edge
	index    map[string]int

	// Per-vertex adjacency in edge insertion order, by vertex index.
	// Parallel edges appear once per edge.
	out [][]int
	in  [][]int

	ends           []edgeEnds
	arcs           map[arcKey]Arc
	weightedDegree []float64
	totalWeight    float64
	arcCount       int
}

// NewSnapshot validates the inputs and builds adjacency. Inputs are copied and
// never mutated. Any dangling edge, duplicate vertex, negative weight or
// unknown direction rejects the whole snapshot.
func NewSnapshot(vertices []Vertex, edges []Edge) (*Snapshot, error) {
	s := &Snapshot{
		vertices:       make([]Vertex, 0, len(vertices)),
		edges:          make([]Edge, 0, len(edges)),
		ends:           make([]edgeEnds, 0, len(edges)),
		index:          make(map[string]int, len(vertices)),
		out:            make([][]int, len(vertices)),
		in:             make([][]int, len(vertices)),
		arcs:           make(map[arcKey]Arc, len(edges)),
		weightedDegree: make([]float64, len(vertices)),
	}

	for i, v := range vertices {
		if v.ID == "" {
			return nil, NewError("add_vertex").Vertex(i, "").Context("empty id").Cause(ErrInvalidVertex).Err()
		}
		if _, exists := s.index[v.ID]; exists {
			return nil, NewError("add_vertex").Vertex(i, v.ID).Cause(ErrDuplicateVertex).Err()
		}
		s.index[v.ID] = len(s.vertices)
		s.vertices = append(s.vertices, v.withDefaults())
	}

	for i, e := range edges {
		e = e.withDefaults()
		if math.IsNaN(e.Weight) || math.IsInf(e.Weight, 0) || e.Weight < 0 {
			return nil, NewError("add_edge").Edge(i, e.ID).Context("weight %v", e.Weight).Cause(ErrNegativeWeight).Err()
		}
		if e.Direction != DirectionDirected && e.Direction != DirectionUndirected {
			return nil, NewError("add_edge").Edge(i, e.ID).Context("direction %d", e.Direction).Cause(ErrInvalidDirection).Err()
		}
		src, ok := s.index[e.SourceID]
		if !ok {
			return nil, NewError("add_edge").Edge(i, e.ID).Context("source %q", e.SourceID).Cause(ErrDanglingEdge).Err()
		}
		dst, ok := s.index[e.TargetID]
		if !ok {
			return nil, NewError("add_edge").Edge(i, e.ID).Context("target %q", e.TargetID).Cause(ErrDanglingEdge).Err()
		}

		s.edges = append(s.edges, e)
		s.ends = append(s.ends, edgeEnds{from: src, to: dst})
		s.addArc(src, dst, e)
		if e.Direction == DirectionUndirected {
			s.addArc(dst, src, e)
		}

		s.weightedDegree[src] += e.Weight
		s.weightedDegree[dst] += e.Weight
		s.totalWeight += e.Weight
	}

	return s, nil
}

func (s *Snapshot) addArc(from, to int, e Edge) {
	s.out[from] = append(s.out[from], to)
	s.in[to] = append(s.in[to], from)
	s.arcCount++

	key := arcKey{from: from, to: to}
	arc, exists := s.arcs[key]
	if !exists {
		arc = Arc{EdgeID: e.ID, Direction: e.Direction}
	}
	arc.Weight += e.Weight
	arc.Count++
	s.arcs[key] = arc
}

// VertexCount returns the number of vertices
func (s *Snapshot) VertexCount() int {
	return len(s.vertices)
}

// EdgeCount returns the number of stored edges; an undirected edge counts once.
func (s *Snapshot) EdgeCount() int {
	return len(s.edges)
}

// ArcCount returns the number of traversable arcs; an undirected edge counts twice.
func (s *Snapshot) ArcCount() int {
	return s.arcCount
}

// TotalWeight returns the sum of all edge weights, each edge counted once.
func (s *Snapshot) TotalWeight() float64 {
	return s.totalWeight
}

// Density returns the structural density of the snapshot
func (s *Snapshot) Density() float64 {
	return Density(s.VertexCount(), s.EdgeCount())
}

// VertexIDs returns vertex ids in insertion order
func (s *Snapshot) VertexIDs() []string {
	ids := make([]string, len(s.vertices))
	for i := range s.vertices {
		ids[i] = s.vertices[i].ID
	}
	return ids
}

// Vertex returns a copy of the vertex with the given id
func (s *Snapshot) Vertex(id string) (*Vertex, bool) {
	i, ok := s.index[id]
	if !ok {
		return nil, false
	}
	return s.vertices[i].Clone(), true
}

// Edges returns copies of all edges in insertion order
func (s *Snapshot) Edges() []Edge {
	out := make([]Edge, len(s.edges))
	for i := range s.edges {
		out[i] = *s.edges[i].Clone()
	}
	return out
}

// OutLinks returns successor ids of a vertex, one entry per arc.
func (s *Snapshot) OutLinks(id string) []string {
	i, ok := s.index[id]
	if !ok {
		return nil
	}
	return s.idsOf(s.out[i])
}

// InLinks returns predecessor ids of a vertex, one entry per arc.
func (s *Snapshot) InLinks(id string) []string {
	i, ok := s.index[id]
	if !ok {
		return nil
	}
	return s.idsOf(s.in[i])
}

// Arc looks up the arc from source to target
func (s *Snapshot) Arc(source, target string) (Arc, bool) {
	from, ok := s.index[source]
	if !ok {
		return Arc{}, false
	}
	to, ok := s.index[target]
	if !ok {
		return Arc{}, false
	}
	return s.ArcAt(from, to)
}

// OutDegree returns the number of outgoing arcs of a vertex
func (s *Snapshot) OutDegree(id string) int {
	i, ok := s.index[id]
	if !ok {
		return 0
	}
	return len(s.out[i])
}

// WeightedDegree returns the sum of incident edge weights of a vertex. A
// self-loop contributes its weight twice.
func (s *Snapshot) WeightedDegree(id string) float64 {
	i, ok := s.index[id]
	if !ok {
		return 0
	}
	return s.weightedDegree[i]
}

func (s *Snapshot) idsOf(indices []int) []string {
	ids := make([]string, len(indices))
	for k, idx := range indices {
		ids[k] = s.vertices[idx].ID
	}
	return ids
}

// Index-based accessors for the algorithms. Slices returned by OutAt and InAt
// are shared with the snapshot and must not be modified.

// IndexOf returns the dense index of a vertex id
func (s *Snapshot) IndexOf(id string) (int, bool) {
	i, ok := s.index[id]
	return i, ok
}

// IDAt returns the vertex id at a dense index
func (s *Snapshot) IDAt(i int) string {
	return s.vertices[i].ID
}

// OutAt returns successor indices of the vertex at index i
func (s *Snapshot) OutAt(i int) []int {
	return s.out[i]
}

// InAt returns predecessor indices of the vertex at index i
func (s *Snapshot) InAt(i int) []int {
	return s.in[i]
}

// ArcAt looks up the arc between two dense indices
func (s *Snapshot) ArcAt(from, to int) (Arc, bool) {
	arc, ok := s.arcs[arcKey{from: from, to: to}]
	return arc, ok
}

// WeightedDegreeAt returns the weighted degree of the vertex at index i
func (s *Snapshot) WeightedDegreeAt(i int) float64 {
	return s.weightedDegree[i]
}

// EdgeAt returns the endpoint indices, weight and direction of the k-th edge
func (s *Snapshot) EdgeAt(k int) (from, to int, weight float64, direction Direction) {
	e := s.ends[k]
	return e.from, e.to, s.edges[k].Weight, s.edges[k].Direction
}
