package graph

// Density computes 2E / (V(V-1)), the edge density of a graph with the given
// counts. It uses the undirected maximum edge count regardless of edge
// direction. Graphs with fewer than two vertices have density 0.
func Density(vertexCount, edgeCount int) float64 {
	if vertexCount < 2 {
		return 0.0
	}
	v := float64(vertexCount)
	return (2.0 * float64(edgeCount)) / (v * (v - 1.0))
}
