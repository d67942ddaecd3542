package retrieval

import (
	"context"
	"regexp"
	"sort"
	"strings"

	"github.com/codecortex/codecortex/internal/store"
)

const minTokenLength = 3

var keywordStopWords = map[string]bool{
	"the": true, "a": true, "an": true, "is": true, "are": true, "of": true,
	"to": true, "in": true, "for": true, "and": true, "or": true, "with": true,
	"this": true, "that": true, "it": true, "on": true, "at": true, "by": true,
}

var wordPattern = regexp.MustCompile(`[a-zA-Z0-9_]+`)

// KeywordStrategy ranks candidates by a weighted term-frequency score over
// each candidate's content, description, purpose summary and capabilities.
type KeywordStrategy struct{}

// NewKeywordStrategy constructs a KeywordStrategy.
func NewKeywordStrategy() *KeywordStrategy { return &KeywordStrategy{} }

// Retrieve tokenizes q.Text, drops stop words and short tokens, and scores
// every metadata entry per spec 4.5's weighted term-count formula.
func (k *KeywordStrategy) Retrieve(ctx context.Context, q Query, embeddings map[string][]float32, metadata map[string]*store.EmbeddingMetadata, kk int) ([]RankedID, error) {
	terms := tokenizeQuery(q.Text)
	if len(terms) == 0 {
		return nil, nil
	}

	boost := 1.0
	if Classify(q.Text) == QueryTypeConceptual {
		boost = 1.5
	}

	var ranked []RankedID
	for id, meta := range metadata {
		if meta == nil {
			continue
		}
		score := 0.0
		for _, term := range terms {
			score += 2 * float64(countOccurrences(meta.Content, term))
			score += boost * float64(countOccurrences(meta.Description, term))
			score += boost * 2 * float64(countOccurrences(meta.PurposeSummary, term))
			for _, cap := range meta.Capabilities {
				score += boost * float64(countOccurrences(cap, term))
			}
		}
		if score > 0 {
			ranked = append(ranked, RankedID{ID: id, Score: score})
		}
	}

	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].Score != ranked[j].Score {
			return ranked[i].Score > ranked[j].Score
		}
		return ranked[i].ID < ranked[j].ID
	})
	if len(ranked) > kk {
		ranked = ranked[:kk]
	}
	return ranked, nil
}

// tokenizeQuery lowercases, splits on non-alphanumeric boundaries, and drops
// stop words and tokens shorter than minTokenLength.
func tokenizeQuery(text string) []string {
	words := wordPattern.FindAllString(strings.ToLower(text), -1)
	out := make([]string, 0, len(words))
	for _, w := range words {
		if len(w) < minTokenLength || keywordStopWords[w] {
			continue
		}
		out = append(out, w)
	}
	return out
}

func countOccurrences(haystack, term string) int {
	if haystack == "" || term == "" {
		return 0
	}
	return strings.Count(strings.ToLower(haystack), term)
}

var _ Strategy = (*KeywordStrategy)(nil)
