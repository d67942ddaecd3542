package store

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testStore(t *testing.T) *NamespacedVectorStore {
	t.Helper()
	dir := filepath.Join(t.TempDir(), "vectors")
	return NewNamespacedVectorStore(dir, DefaultVectorStoreConfig(3))
}

func TestNamespacedVectorStore_StoreAndFindSimilar(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	require.NoError(t, s.Store(ctx, "a", []float32{1, 0, 0}, &EmbeddingMetadata{FilePath: "a.go"}, "repo1"))
	require.NoError(t, s.Store(ctx, "b", []float32{0, 1, 0}, &EmbeddingMetadata{FilePath: "b.go"}, "repo1"))

	matches, err := s.FindSimilar(ctx, []float32{1, 0, 0}, 5, 0, []string{"repo1"})
	require.NoError(t, err)
	require.NotEmpty(t, matches)
	assert.Equal(t, "a", matches[0].ID)
	assert.Equal(t, "repo1", matches[0].Namespace)
}

func TestNamespacedVectorStore_NamespaceIsolation(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	require.NoError(t, s.Store(ctx, "a", []float32{1, 0, 0}, &EmbeddingMetadata{FilePath: "a.go"}, "repo1"))
	require.NoError(t, s.Store(ctx, "b", []float32{1, 0, 0}, &EmbeddingMetadata{FilePath: "b.go"}, "repo2"))

	matches, err := s.FindSimilar(ctx, []float32{1, 0, 0}, 5, 0, []string{"repo1"})
	require.NoError(t, err)
	for _, m := range matches {
		assert.Equal(t, "repo1", m.Namespace)
		assert.NotEqual(t, "b", m.ID)
	}
}

func TestNamespacedVectorStore_DimensionMismatchRejected(t *testing.T) {
	s := testStore(t)
	err := s.Store(context.Background(), "a", []float32{1, 0}, &EmbeddingMetadata{}, "repo1")
	require.Error(t, err)
	var dimErr ErrDimensionMismatch
	assert.ErrorAs(t, err, &dimErr)
}

func TestNamespacedVectorStore_DeleteRemovesBothIndexAndMetadata(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()
	require.NoError(t, s.Store(ctx, "a", []float32{1, 0, 0}, &EmbeddingMetadata{FilePath: "a.go"}, "repo1"))

	require.NoError(t, s.Delete(ctx, "a", "repo1"))
	assert.Equal(t, 0, s.Size([]string{"repo1"}))
}

func TestNamespacedVectorStore_FindByFilePathSuffixMatch(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()
	require.NoError(t, s.Store(ctx, "a", []float32{1, 0, 0}, &EmbeddingMetadata{FilePath: "src/pkg/a.go"}, "repo1"))

	matches := s.FindByFilePath("pkg/a.go", []string{"repo1"})
	require.Len(t, matches, 1)
	assert.Equal(t, "a", matches[0].ID)
}

func TestNamespacedVectorStore_PersistAndLoadRoundTrip(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "vectors")
	s := NewNamespacedVectorStore(dir, DefaultVectorStoreConfig(3))
	ctx := context.Background()

	require.NoError(t, s.Store(ctx, "a", []float32{1, 0, 0}, &EmbeddingMetadata{FilePath: "a.go"}, "repo1"))
	require.NoError(t, s.Persist(ctx))

	reloaded := NewNamespacedVectorStore(dir, DefaultVectorStoreConfig(3))
	require.NoError(t, reloaded.Load(ctx, "repo1"))

	matches, err := reloaded.FindSimilar(ctx, []float32{1, 0, 0}, 5, 0, []string{"repo1"})
	require.NoError(t, err)
	require.NotEmpty(t, matches)
	assert.Equal(t, "a", matches[0].ID)
}

func TestNamespacedVectorStore_SizeUnionAcrossNamespaces(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()
	require.NoError(t, s.Store(ctx, "a", []float32{1, 0, 0}, &EmbeddingMetadata{}, "repo1"))
	require.NoError(t, s.Store(ctx, "b", []float32{0, 1, 0}, &EmbeddingMetadata{}, "repo2"))

	assert.Equal(t, 2, s.Size(nil))
}
