package graph

import "fmt"

// Defaults applied when a vertex or edge leaves a field empty.
const (
	DefaultVertexType       = "concept"
	DefaultRelationshipType = "relates_to"
	DefaultEdgeWeight       = 1.0
)

// Direction tells whether an edge is traversable one way or both ways
type Direction uint8

const (
	DirectionDirected Direction = iota
	DirectionUndirected
)

// String returns the wire name of the direction
func (d Direction) String() string {
	switch d {
	case DirectionDirected:
		return "directed"
	case DirectionUndirected:
		return "undirected"
	default:
		return "unknown"
	}
}

// ParseDirection converts a wire name into a Direction. An empty string is
// directed.
func ParseDirection(s string) (Direction, error) {
	switch s {
	case "", "directed":
		return DirectionDirected, nil
	case "undirected":
		return DirectionUndirected, nil
	default:
		return DirectionDirected, fmt.Errorf("%w: %q", ErrInvalidDirection, s)
	}
}

// MarshalText implements encoding.TextMarshaler
func (d Direction) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler
func (d *Direction) UnmarshalText(text []byte) error {
	parsed, err := ParseDirection(string(text))
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// Properties is an open bag of scalar values attached to a vertex or edge.
// Nothing in the algorithms package reads it.
type Properties map[string]Value

// Clone returns a shallow copy; Value is immutable so this is a full copy.
func (p Properties) Clone() Properties {
	if p == nil {
		return nil
	}
	out := make(Properties, len(p))
	for k, v := range p {
		out[k] = v
	}
	return out
}

// Vertex is a node of the analysis graph
type Vertex struct {
	ID         string
	Label      string
	Type       string
	Properties Properties

	// Presentation only
	Size      float64
	Color     string
	XPosition float64
	YPosition float64
}

// Edge connects two vertices
type Edge struct {
	ID               string
	SourceID         string
	TargetID         string
	RelationshipType string
	Weight           float64
	Direction        Direction
	Properties       Properties

	// weightSet distinguishes an explicit zero weight from "not provided".
	weightSet bool
}

// WithWeight returns a copy of the edge carrying an explicit weight, including 0.
func (e Edge) WithWeight(w float64) Edge {
	e.Weight = w
	e.weightSet = true
	return e
}

// ExplicitWeight reports whether Weight holds a caller-supplied value. A zero
// weight that was never set is replaced by DefaultEdgeWeight in a snapshot.
func (e Edge) ExplicitWeight() bool {
	return e.weightSet || e.Weight != 0
}

// Clone creates a deep copy of a vertex
func (v *Vertex) Clone() *Vertex {
	clone := *v
	clone.Properties = v.Properties.Clone()
	return &clone
}

// Clone creates a deep copy of an edge
func (e *Edge) Clone() *Edge {
	clone := *e
	clone.Properties = e.Properties.Clone()
	return &clone
}

func (v Vertex) withDefaults() Vertex {
	if v.Type == "" {
		v.Type = DefaultVertexType
	}
	v.Properties = v.Properties.Clone()
	return v
}

func (e Edge) withDefaults() Edge {
	if e.RelationshipType == "" {
		e.RelationshipType = DefaultRelationshipType
	}
	if e.Weight == 0 && !e.weightSet {
		e.Weight = DefaultEdgeWeight
	}
	e.Properties = e.Properties.Clone()
	return e
}
