package store

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/dd0wney/cluso-analytics/pkg/graph"
	"github.com/dd0wney/cluso-analytics/pkg/validation"
)

// LoadGraphFile reads a YAML (or JSON) document with `vertices` and `edges`
// lists and validates every entry. Edges without an id are numbered e0, e1...
func LoadGraphFile(path string) ([]graph.Vertex, []graph.Edge, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read graph file: %w", err)
	}
	return ParseGraphDocument(data)
}

// ParseGraphDocument decodes and validates a graph document. JSON is valid
// YAML, so both formats are accepted.
func ParseGraphDocument(data []byte) ([]graph.Vertex, []graph.Edge, error) {
	var doc validation.GraphDocument
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, nil, fmt.Errorf("failed to parse graph document: %w", err)
	}
	return validation.ValidateDocument(&doc)
}
