package retrieval

import (
	"context"
	"sort"

	"github.com/codecortex/codecortex/internal/store"
)

// HybridStrategy merges semantic and keyword rankings using fixed
// per-query-type weights (4.5).
type HybridStrategy struct {
	semantic *SemanticStrategy
	keyword  *KeywordStrategy
}

// NewHybridStrategy constructs a HybridStrategy.
func NewHybridStrategy() *HybridStrategy {
	return &HybridStrategy{semantic: NewSemanticStrategy(), keyword: NewKeywordStrategy()}
}

// Retrieve delegates to whichever single strategy applies when only text or
// only an embedding is present; otherwise it fetches 2k from each, merges
// into a common candidate set, and scores each by
// Σ(strategyWeight × (|results| − rank)).
func (h *HybridStrategy) Retrieve(ctx context.Context, q Query, embeddings map[string][]float32, metadata map[string]*store.EmbeddingMetadata, k int) ([]RankedID, error) {
	hasText := q.Text != ""
	hasEmbedding := len(q.Embedding) > 0

	switch {
	case hasEmbedding && !hasText:
		return h.semantic.Retrieve(ctx, q, embeddings, metadata, k)
	case hasText && !hasEmbedding:
		return h.keyword.Retrieve(ctx, q, embeddings, metadata, k)
	}

	qt := Classify(q.Text)
	weights := WeightsForQueryType(qt)

	semResults, err := h.semantic.Retrieve(ctx, q, embeddings, metadata, 2*k)
	if err != nil {
		return nil, err
	}
	kwResults, err := h.keyword.Retrieve(ctx, q, embeddings, metadata, 2*k)
	if err != nil {
		return nil, err
	}

	scores := make(map[string]float64)
	accumulate(scores, semResults, weights.Semantic)
	accumulate(scores, kwResults, weights.Keyword)

	ranked := make([]RankedID, 0, len(scores))
	for id, score := range scores {
		ranked = append(ranked, RankedID{ID: id, Score: score})
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

// accumulate adds weight × rankScore for each entry in results, where
// rankScore = |results| − rank (0-indexed rank).
func accumulate(scores map[string]float64, results []RankedID, weight float64) {
	n := len(results)
	for rank, r := range results {
		rankScore := float64(n - rank)
		scores[r.ID] += weight * rankScore
	}
}

var _ Strategy = (*HybridStrategy)(nil)
