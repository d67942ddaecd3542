package retrieval

import (
	"context"
	"fmt"
	"math"
	"sort"

	"github.com/codecortex/codecortex/internal/store"
)

const minSemanticDimensions = 64

var semanticThresholds = map[QueryType]float64{
	QueryTypeConceptual:     0.55,
	QueryTypeImplementation: 0.70,
	QueryTypeMixed:          0.65,
}

const descriptionBoost = 1.1

// SemanticStrategy ranks candidates by cosine similarity to the query embedding.
type SemanticStrategy struct{}

// NewSemanticStrategy constructs a SemanticStrategy.
func NewSemanticStrategy() *SemanticStrategy { return &SemanticStrategy{} }

// Retrieve requires q.Embedding; candidates whose vector has fewer than
// minSemanticDimensions dimensions are rejected outright.
func (s *SemanticStrategy) Retrieve(ctx context.Context, q Query, embeddings map[string][]float32, metadata map[string]*store.EmbeddingMetadata, k int) ([]RankedID, error) {
	if len(q.Embedding) == 0 {
		return nil, fmt.Errorf("semantic strategy requires a query embedding")
	}

	qt := Classify(q.Text)
	threshold := semanticThresholds[qt]

	var ranked []RankedID
	for id, vec := range embeddings {
		if len(vec) < minSemanticDimensions {
			continue
		}
		sim := cosineSimilarity(q.Embedding, vec)

		if qt == QueryTypeConceptual {
			if meta := metadata[id]; meta != nil && meta.Description != "" {
				sim *= descriptionBoost
			}
		}

		if sim < threshold {
			continue
		}
		ranked = append(ranked, RankedID{ID: id, Score: sim})
	}

	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].Score != ranked[j].Score {
			return ranked[i].Score > ranked[j].Score
		}
		return ranked[i].ID < ranked[j].ID
	})
	if len(ranked) > k {
		ranked = ranked[:k]
	}
	return ranked, nil
}

func cosineSimilarity(a, b []float32) float64 {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	var dot, magA, magB float64
	for i := 0; i < n; i++ {
		dot += float64(a[i]) * float64(b[i])
		magA += float64(a[i]) * float64(a[i])
		magB += float64(b[i]) * float64(b[i])
	}
	if magA == 0 || magB == 0 {
		return 0
	}
	return dot / (math.Sqrt(magA) * math.Sqrt(magB))
}

var _ Strategy = (*SemanticStrategy)(nil)
