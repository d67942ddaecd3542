package retrieval

import (
	"context"
	"testing"

	"github.com/codecortex/codecortex/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHybridStrategy_DelegatesToSemanticWhenTextMissing(t *testing.T) {
	h := NewHybridStrategy()
	vec := make([]float32, 100)
	vec[0] = 1
	query := make([]float32, 100)
	query[0] = 1

	embeddings := map[string][]float32{"a": vec}
	results, err := h.Retrieve(context.Background(), Query{Embedding: query}, embeddings, nil, 5)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "a", results[0].ID)
}

func TestHybridStrategy_DelegatesToKeywordWhenEmbeddingMissing(t *testing.T) {
	h := NewHybridStrategy()
	metadata := map[string]*store.EmbeddingMetadata{
		"a": {Content: "retry logic with exponential backoff"},
		"b": {Content: "unrelated file listing code"},
	}

	results, err := h.Retrieve(context.Background(), Query{Text: "retry backoff"}, nil, metadata, 5)
	require.NoError(t, err)
	require.NotEmpty(t, results)
	assert.Equal(t, "a", results[0].ID)
}

func TestHybridStrategy_MergesWeightedRankScores(t *testing.T) {
	h := NewHybridStrategy()

	query := make([]float32, 64)
	query[0] = 1

	aVec := make([]float32, 64)
	aVec[0] = 1 // cosine 1.0 against query

	bVec := make([]float32, 64)
	bVec[0] = 0.9
	bVec[1] = 0.4359 // cosine ~0.9 against query, still above the 0.70 threshold

	embeddings := map[string][]float32{"a": aVec, "b": bVec}
	metadata := map[string]*store.EmbeddingMetadata{
		"a": {Content: "method"},
		"b": {Content: "method where method"},
	}

	// "where is the method" classifies as implementation (0.6 semantic / 0.4 keyword).
	results, err := h.Retrieve(context.Background(), Query{Text: "where is the method", Embedding: query}, embeddings, metadata, 2)
	require.NoError(t, err)
	require.Len(t, results, 2)

	// semantic rank: a(2) b(1); keyword rank: b(2) a(1)
	// a = 0.6*2 + 0.4*1 = 1.6; b = 0.6*1 + 0.4*2 = 1.4
	assert.Equal(t, "a", results[0].ID)
	assert.InDelta(t, 1.6, results[0].Score, 0.01)
	assert.Equal(t, "b", results[1].ID)
	assert.InDelta(t, 1.4, results[1].Score, 0.01)
}

func TestHybridStrategy_TiesBreakByIDAscending(t *testing.T) {
	h := NewHybridStrategy()

	query := make([]float32, 64)
	query[0] = 1

	xVec := make([]float32, 64)
	xVec[0] = 1
	yVec := make([]float32, 64)
	yVec[0] = 1

	embeddings := map[string][]float32{"x": xVec, "y": yVec}
	metadata := map[string]*store.EmbeddingMetadata{
		"x": {Content: "method"},
		"y": {Content: "method"},
	}

	results, err := h.Retrieve(context.Background(), Query{Text: "where is the method", Embedding: query}, embeddings, metadata, 2)
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, "x", results[0].ID)
	assert.Equal(t, "y", results[1].ID)
}
