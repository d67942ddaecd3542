// Package retrieval implements the query-time strategies that turn a user
// query into an ordered list of chunk identifiers: query classification,
// semantic (vector) search, keyword search, and a hybrid fusion of the two.
package retrieval

import (
	"context"

	"github.com/codecortex/codecortex/internal/store"
)

// QueryType labels what kind of answer a query is seeking, driving which
// retrieval strategy (and weighting) is used.
type QueryType string

const (
	QueryTypeConceptual     QueryType = "conceptual"
	QueryTypeImplementation QueryType = "implementation"
	QueryTypeMixed          QueryType = "mixed"
)

// Query bundles the text and (optional) embedding a strategy retrieves against.
type Query struct {
	Text      string
	Embedding []float32
}

// RankedID is a chunk identifier with its strategy-assigned score, descending.
type RankedID struct {
	ID    string
	Score float64
}

// Strategy ranks candidate chunk identifiers for a query.
type Strategy interface {
	Retrieve(ctx context.Context, q Query, embeddings map[string][]float32, metadata map[string]*store.EmbeddingMetadata, k int) ([]RankedID, error)
}

// Weights controls how much each underlying strategy contributes to a
// hybrid fusion, keyed by query type (spec 4.5).
type Weights struct {
	Semantic float64
	Keyword  float64
}

// WeightsForQueryType returns the fixed per-type hybrid weights.
func WeightsForQueryType(qt QueryType) Weights {
	switch qt {
	case QueryTypeConceptual:
		return Weights{Semantic: 0.8, Keyword: 0.2}
	case QueryTypeImplementation:
		return Weights{Semantic: 0.6, Keyword: 0.4}
	default:
		return Weights{Semantic: 0.7, Keyword: 0.3}
	}
}
