package query

import (
	"context"
	"testing"

	"github.com/codecortex/codecortex/internal/mcp"
	"github.com/codecortex/codecortex/internal/retrieval"
	"github.com/codecortex/codecortex/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeStrategy struct {
	ranked []retrieval.RankedID
	err    error
}

func (f *fakeStrategy) Retrieve(ctx context.Context, q retrieval.Query, embeddings map[string][]float32, metadata map[string]*store.EmbeddingMetadata, k int) ([]retrieval.RankedID, error) {
	return f.ranked, f.err
}

func TestEngine_ExecuteCodeLocationQuerySynthesizesFromRetrievalAlone(t *testing.T) {
	strategy := &fakeStrategy{ranked: []retrieval.RankedID{{ID: "a.go#0", Score: 0.8}}}
	metadata := map[string]*store.EmbeddingMetadata{
		"a.go#0": {FilePath: "a.go", StartLine: 1, EndLine: 10, PurposeSummary: "does a thing"},
	}
	engine := NewEngine(strategy, nil, DefaultConfig(), nil)

	result, err := engine.Execute(context.Background(), retrieval.Query{Text: "where is the scheduler defined"}, nil, metadata)
	require.NoError(t, err)
	assert.Equal(t, []Category{CategoryCodeLocation}, result.Categories)
	assert.Empty(t, result.ToolResponses)
	assert.False(t, result.FallbackUsed)
	assert.Contains(t, result.Prompt, "a.go (lines 1-10)")
	assert.NotNil(t, result.Confidence)
}

func TestEngine_ExecutePropagatesRetrievalError(t *testing.T) {
	strategy := &fakeStrategy{err: assertError{}}
	engine := NewEngine(strategy, nil, DefaultConfig(), nil)

	_, err := engine.Execute(context.Background(), retrieval.Query{Text: "anything"}, nil, nil)
	require.Error(t, err)
}

type assertError struct{}

func (assertError) Error() string { return "boom" }

func TestEngine_ExecuteRunsPlannedToolAndMarksFallbackOnFailure(t *testing.T) {
	strategy := &fakeStrategy{ranked: []retrieval.RankedID{{ID: "b.go#0", Score: 0.6}}}
	registry := mcp.NewRegistry(4, 16, nil)
	require.NoError(t, registry.Register(mcp.ToolFunc{
		ToolName: ToolCallPath,
		Fn: func(ctx context.Context, params map[string]any) (any, error) {
			return nil, mcp.NonRetryable(assertError{})
		},
	}))

	engine := NewEngine(strategy, registry, DefaultConfig(), nil)
	result, err := engine.Execute(context.Background(), retrieval.Query{Text: "how does this method behave"}, nil, map[string]*store.EmbeddingMetadata{})
	require.NoError(t, err)

	assert.Contains(t, result.Categories, CategoryMethodBehavior)
	assert.True(t, result.FallbackUsed)
	resp, ok := result.ToolResponses[ToolCallPath]
	require.True(t, ok)
	assert.False(t, resp.Success)
}

func TestEngine_ExecuteSuccessfulToolRaisesConfidence(t *testing.T) {
	strategy := &fakeStrategy{ranked: []retrieval.RankedID{{ID: "c.go#0", Score: 0.9}}}
	registry := mcp.NewRegistry(4, 16, nil)
	require.NoError(t, registry.Register(mcp.ToolFunc{
		ToolName: ToolErrorChain,
		Fn: func(ctx context.Context, params map[string]any) (any, error) {
			return "analysis complete", nil
		},
	}))

	engine := NewEngine(strategy, registry, DefaultConfig(), nil)
	result, err := engine.Execute(context.Background(), retrieval.Query{Text: "why does this throw an exception"}, nil, map[string]*store.EmbeddingMetadata{})
	require.NoError(t, err)

	assert.False(t, result.FallbackUsed)
	resp, ok := result.ToolResponses[ToolErrorChain]
	require.True(t, ok)
	assert.True(t, resp.Success)
	assert.Greater(t, result.Confidence.Score, 0.0)
}
