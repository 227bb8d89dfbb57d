package algorithms

import (
	"errors"
	"fmt"
)

// ErrAlgorithmNotImplemented is returned for an algorithm name outside the
// supported set.
var ErrAlgorithmNotImplemented = errors.New("algorithm not implemented")

// CentralityAlgorithm names a per-vertex importance measure
type CentralityAlgorithm string

const (
	PageRankAlgorithm    CentralityAlgorithm = "pagerank"
	BetweennessAlgorithm CentralityAlgorithm = "betweenness"
	ClosenessAlgorithm   CentralityAlgorithm = "closeness"
	DegreeAlgorithm      CentralityAlgorithm = "degree"
)

// CentralityAlgorithms lists the supported centrality algorithms
var CentralityAlgorithms = []CentralityAlgorithm{
	PageRankAlgorithm,
	BetweennessAlgorithm,
	ClosenessAlgorithm,
	DegreeAlgorithm,
}

// ParseCentralityAlgorithm maps a caller-supplied name onto the closed set.
func ParseCentralityAlgorithm(name string) (CentralityAlgorithm, error) {
	alg := CentralityAlgorithm(name)
	switch alg {
	case PageRankAlgorithm, BetweennessAlgorithm, ClosenessAlgorithm, DegreeAlgorithm:
		return alg, nil
	default:
		return "", fmt.Errorf("%w: centrality algorithm %q (supported: pagerank, betweenness, closeness, degree)", ErrAlgorithmNotImplemented, name)
	}
}

// CommunityAlgorithm names a community detection method
type CommunityAlgorithm string

const (
	LouvainAlgorithm             CommunityAlgorithm = "louvain"
	LabelPropagationAlgorithm    CommunityAlgorithm = "label_propagation"
	ConnectedComponentsAlgorithm CommunityAlgorithm = "connected_components"
)

// CommunityAlgorithms lists the supported community algorithms
var CommunityAlgorithms = []CommunityAlgorithm{
	LouvainAlgorithm,
	LabelPropagationAlgorithm,
	ConnectedComponentsAlgorithm,
}

// ParseCommunityAlgorithm maps a caller-supplied name onto the closed set.
func ParseCommunityAlgorithm(name string) (CommunityAlgorithm, error) {
	alg := CommunityAlgorithm(name)
	switch alg {
	case LouvainAlgorithm, LabelPropagationAlgorithm, ConnectedComponentsAlgorithm:
		return alg, nil
	default:
		return "", fmt.Errorf("%w: community algorithm %q (supported: louvain, label_propagation, connected_components)", ErrAlgorithmNotImplemented, name)
	}
}
