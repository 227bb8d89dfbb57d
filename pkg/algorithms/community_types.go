package algorithms

// Community represents a detected community
type Community struct {
	ID       int      `json:"id"`
	Vertices []string `json:"vertices"`
	Size     int      `json:"size"`
	Density  float64  `json:"density"` // Edge density within community
}

// CommunityResult contains detected communities
type CommunityResult struct {
	Algorithm   CommunityAlgorithm `json:"algorithm"`
	Assignments map[string]int     `json:"assignments"` // Vertex ID -> Community ID
	Modularity  float64            `json:"modularity"`  // Quality measure of the partitioning
	Summary     map[int][]string   `json:"summary"`     // Community ID -> member vertex IDs
	Communities []*Community       `json:"communities"` // Ordered by community ID
	Iterations  int                `json:"iterations"`
	Converged   bool               `json:"converged"`
}

// CommunityOf returns the community ID assigned to a vertex
func (r *CommunityResult) CommunityOf(vertexID string) (int, bool) {
	id, ok := r.Assignments[vertexID]
	return id, ok
}

// Members returns a copy of the vertex IDs in a community
func (r *CommunityResult) Members(communityID int) []string {
	members := r.Summary[communityID]
	out := make([]string, len(members))
	copy(out, members)
	return out
}

// CommunityOptions configures community detection
type CommunityOptions struct {
	// LocalMoving enables the Louvain local-moving phase on top of the
	// singleton baseline. Off by default; there is no aggregation phase.
	LocalMoving bool

	// MaxIterations bounds local-moving sweeps and label propagation rounds.
	MaxIterations int

	// MinGain is the smallest modularity gain that justifies a move.
	MinGain float64
}

// Community detection defaults
const (
	DefaultCommunityIterations = 100
	DefaultMinModularityGain   = 1e-12
)

// DefaultCommunityOptions returns the baseline configuration
func DefaultCommunityOptions() CommunityOptions {
	return CommunityOptions{
		MaxIterations: DefaultCommunityIterations,
		MinGain:       DefaultMinModularityGain,
	}
}

func (o CommunityOptions) withDefaults() CommunityOptions {
	if o.MaxIterations <= 0 {
		o.MaxIterations = DefaultCommunityIterations
	}
	if o.MinGain <= 0 {
		o.MinGain = DefaultMinModularityGain
	}
	return o
}
