package validation

import (
	"errors"
	"fmt"
	"regexp"

	"github.com/go-playground/validator/v10"

	"github.com/dd0wney/cluso-analytics/pkg/graph"
)

var (
	// validate is a singleton validator instance
	validate *validator.Validate

	// Validation constants
	MaxProperties    = 100
	MaxPropertyKey   = 100
	MaxGraphVertices = 1_000_000
	MaxGraphEdges    = 10_000_000

	// Regular expressions
	typePattern    = regexp.MustCompile(`^[a-zA-Z0-9_\-]+$`)
	propKeyPattern = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_]*$`)
)

// ErrInvalidInput is wrapped by every input validation failure
var ErrInvalidInput = errors.New("invalid graph input")

func init() {
	validate = validator.New()
}

// VertexInput is a vertex as supplied by a graph source or a graph file
type VertexInput struct {
	ID         string         `json:"id" yaml:"id" validate:"required,max=256"`
	Label      string         `json:"label" yaml:"label" validate:"max=512"`
	Type       string         `json:"type,omitempty" yaml:"type,omitempty" validate:"omitempty,max=64"`
	Properties map[string]any `json:"properties,omitempty" yaml:"properties,omitempty" validate:"omitempty,max=100"`
	Size       float64        `json:"size,omitempty" yaml:"size,omitempty" validate:"gte=0"`
	Color      string         `json:"color,omitempty" yaml:"color,omitempty" validate:"omitempty,max=32"`
	XPosition  float64        `json:"x_position,omitempty" yaml:"x_position,omitempty"`
	YPosition  float64        `json:"y_position,omitempty" yaml:"y_position,omitempty"`
}

// EdgeInput is an edge as supplied by a graph source or a graph file. A nil
// Weight takes the default; an explicit 0 is kept.
type EdgeInput struct {
	ID               string         `json:"id,omitempty" yaml:"id,omitempty" validate:"max=256"`
	SourceID         string         `json:"source_id" yaml:"source_id" validate:"required,max=256"`
	TargetID         string         `json:"target_id" yaml:"target_id" validate:"required,max=256"`
	RelationshipType string         `json:"relationship_type,omitempty" yaml:"relationship_type,omitempty" validate:"omitempty,max=64"`
	Weight           *float64       `json:"weight,omitempty" yaml:"weight,omitempty" validate:"omitempty,gte=0"`
	Direction        string         `json:"direction,omitempty" yaml:"direction,omitempty" validate:"omitempty,oneof=directed undirected"`
	Properties       map[string]any `json:"properties,omitempty" yaml:"properties,omitempty" validate:"omitempty,max=100"`
}

// GraphDocument is the on-disk form of a graph: a vertex list and an edge list
type GraphDocument struct {
	Vertices []VertexInput `json:"vertices" yaml:"vertices"`
	Edges    []EdgeInput   `json:"edges" yaml:"edges"`
}

// ValidateVertexInput validates a vertex and converts it to the graph model
func ValidateVertexInput(in *VertexInput) (graph.Vertex, error) {
	if in == nil {
		return graph.Vertex{}, fmt.Errorf("%w: vertex cannot be nil", ErrInvalidInput)
	}

	// Validate using struct tags
	if err := validate.Struct(in); err != nil {
		return graph.Vertex{}, formatValidationError(err)
	}

	if in.Type != "" && !typePattern.MatchString(in.Type) {
		return graph.Vertex{}, fmt.Errorf("%w: Type: %q contains invalid characters", ErrInvalidInput, in.Type)
	}

	props, err := convertProperties(in.Properties)
	if err != nil {
		return graph.Vertex{}, err
	}

	return graph.Vertex{
		ID:         in.ID,
		Label:      in.Label,
		Type:       in.Type,
		Properties: props,
		Size:       in.Size,
		Color:      in.Color,
		XPosition:  in.XPosition,
		YPosition:  in.YPosition,
	}, nil
}

// ValidateEdgeInput validates an edge and converts it to the graph model
func ValidateEdgeInput(in *EdgeInput) (graph.Edge, error) {
	if in == nil {
		return graph.Edge{}, fmt.Errorf("%w: edge cannot be nil", ErrInvalidInput)
	}

	if err := validate.Struct(in); err != nil {
		return graph.Edge{}, formatValidationError(err)
	}

	if in.RelationshipType != "" && !typePattern.MatchString(in.RelationshipType) {
		return graph.Edge{}, fmt.Errorf("%w: RelationshipType: %q contains invalid characters", ErrInvalidInput, in.RelationshipType)
	}

	direction, err := graph.ParseDirection(in.Direction)
	if err != nil {
		return graph.Edge{}, fmt.Errorf("%w: Direction: %v", ErrInvalidInput, err)
	}

	props, err := convertProperties(in.Properties)
	if err != nil {
		return graph.Edge{}, err
	}

	e := graph.Edge{
		ID:               in.ID,
		SourceID:         in.SourceID,
		TargetID:         in.TargetID,
		RelationshipType: in.RelationshipType,
		Direction:        direction,
		Properties:       props,
	}
	if in.Weight != nil {
		e = e.WithWeight(*in.Weight)
	}
	return e, nil
}

// ValidateDocument validates every vertex and edge of a document and returns
// them in document order. The first failure names its list position.
func ValidateDocument(doc *GraphDocument) ([]graph.Vertex, []graph.Edge, error) {
	if doc == nil {
		return nil, nil, fmt.Errorf("%w: document cannot be nil", ErrInvalidInput)
	}
	if len(doc.Vertices) > MaxGraphVertices {
		return nil, nil, fmt.Errorf("%w: maximum %d vertices allowed, got %d", ErrInvalidInput, MaxGraphVertices, len(doc.Vertices))
	}
	if len(doc.Edges) > MaxGraphEdges {
		return nil, nil, fmt.Errorf("%w: maximum %d edges allowed, got %d", ErrInvalidInput, MaxGraphEdges, len(doc.Edges))
	}

	vertices := make([]graph.Vertex, len(doc.Vertices))
	for i := range doc.Vertices {
		v, err := ValidateVertexInput(&doc.Vertices[i])
		if err != nil {
			return nil, nil, fmt.Errorf("vertices[%d]: %w", i, err)
		}
		vertices[i] = v
	}

	edges := make([]graph.Edge, len(doc.Edges))
	for i := range doc.Edges {
		e, err := ValidateEdgeInput(&doc.Edges[i])
		if err != nil {
			return nil, nil, fmt.Errorf("edges[%d]: %w", i, err)
		}
		if e.ID == "" {
			e.ID = fmt.Sprintf("e%d", i)
		}
		edges[i] = e
	}

	return vertices, edges, nil
}

// ValidatePropertyKey validates a property key
func ValidatePropertyKey(key string) error {
	if key == "" {
		return errors.New("property key cannot be empty")
	}
	if len(key) > MaxPropertyKey {
		return fmt.Errorf("property key '%s' exceeds maximum length of %d characters", key, MaxPropertyKey)
	}
	if !propKeyPattern.MatchString(key) {
		return fmt.Errorf("property key '%s' is invalid (must start with letter or underscore, followed by alphanumeric or underscore)", key)
	}
	return nil
}

func convertProperties(raw map[string]any) (graph.Properties, error) {
	for key := range raw {
		if err := ValidatePropertyKey(key); err != nil {
			return nil, fmt.Errorf("%w: Properties: %v", ErrInvalidInput, err)
		}
	}
	props, err := graph.PropertiesOf(raw)
	if err != nil {
		return nil, fmt.Errorf("%w: Properties: %v", ErrInvalidInput, err)
	}
	return props, nil
}

// formatValidationError converts validator errors to a more user-friendly format
func formatValidationError(err error) error {
	if err == nil {
		return nil
	}

	var validationErrs validator.ValidationErrors
	if !errors.As(err, &validationErrs) {
		return fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}

	// Return the first validation error in a user-friendly format
	for _, e := range validationErrs {
		field := e.Field()
		param := e.Param()

		switch e.Tag() {
		case "required":
			return fmt.Errorf("%w: %s: field is required", ErrInvalidInput, field)
		case "max":
			return fmt.Errorf("%w: %s: must not exceed %s", ErrInvalidInput, field, param)
		case "gte":
			return fmt.Errorf("%w: %s: must be at least %s", ErrInvalidInput, field, param)
		case "oneof":
			return fmt.Errorf("%w: %s: must be one of [%s]", ErrInvalidInput, field, param)
		default:
			return fmt.Errorf("%w: %s: validation failed (%s)", ErrInvalidInput, field, e.Tag())
		}
	}

	return fmt.Errorf("%w: %v", ErrInvalidInput, err)
}
