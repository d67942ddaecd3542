package cmd

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/codecortex/codecortex/internal/chunk"
	"github.com/codecortex/codecortex/internal/config"
	"github.com/codecortex/codecortex/internal/embed"
	"github.com/codecortex/codecortex/internal/exception"
	"github.com/codecortex/codecortex/internal/graph"
	"github.com/codecortex/codecortex/internal/index"
	"github.com/codecortex/codecortex/internal/scanner"
	"github.com/codecortex/codecortex/internal/store"
)

// projectPaths resolves the project root and its .codecortex data
// directory from a user-supplied path.
func projectPaths(path string) (root, dataDir string, err error) {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return "", "", fmt.Errorf("failed to resolve path: %w", err)
	}
	root, err = config.FindProjectRoot(absPath)
	if err != nil {
		root = absPath
	}
	return root, filepath.Join(root, ".codecortex"), nil
}

// openStores opens the metadata, BM25, and vector stores at dataDir, and an
// embedder matching cfg.Embeddings, for the duration of one CLI command.
// The caller must call the returned closer.
type openStoresResult struct {
	Metadata *store.SQLiteMetadataStore
	BM25     store.BM25Index
	Vector   store.VectorStore
	Embedder embed.Embedder
}

func (r *openStoresResult) Close() {
	if r.Embedder != nil {
		_ = r.Embedder.Close()
	}
	if r.Vector != nil {
		_ = r.Vector.Close()
	}
	if r.BM25 != nil {
		_ = r.BM25.Close()
	}
	if r.Metadata != nil {
		_ = r.Metadata.Close()
	}
}

func openStores(ctx context.Context, dataDir string, cfg *config.Config, offline bool) (*openStoresResult, error) {
	if err := os.MkdirAll(dataDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	metadata, err := store.NewSQLiteMetadataStore(filepath.Join(dataDir, "metadata.db"))
	if err != nil {
		return nil, fmt.Errorf("failed to open metadata store: %w", err)
	}

	bm25, err := store.NewBM25IndexWithBackend(filepath.Join(dataDir, "bm25"), store.DefaultBM25Config(), cfg.Search.BM25Backend)
	if err != nil {
		_ = metadata.Close()
		return nil, fmt.Errorf("failed to open BM25 index: %w", err)
	}

	var embedder embed.Embedder
	if offline {
		embedder = embed.NewStaticEmbedder768()
	} else {
		embedCtx, cancel := context.WithTimeout(ctx, 15*time.Second)
		embedder, err = embed.NewEmbedder(embedCtx, embed.ParseProvider(cfg.Embeddings.Provider), cfg.Embeddings.Model)
		cancel()
		if err != nil {
			_ = bm25.Close()
			_ = metadata.Close()
			return nil, fmt.Errorf("embedder initialization failed: %w", err)
		}
	}

	vector, err := store.NewHNSWStore(store.DefaultVectorStoreConfig(embedder.Dimensions()))
	if err != nil {
		_ = embedder.Close()
		_ = bm25.Close()
		_ = metadata.Close()
		return nil, fmt.Errorf("failed to open vector store: %w", err)
	}

	return &openStoresResult{Metadata: metadata, BM25: bm25, Vector: vector, Embedder: embedder}, nil
}

// buildRunner assembles an index.Runner from stores already open at res,
// reusing the Renderer the caller chose (LogRenderer for CLI/HTTP use).
func buildRunner(res *openStoresResult, cfg *config.Config, renderer index.Renderer) (*index.Runner, error) {
	chunker := codeChunkerFor(cfg)
	return index.NewRunner(index.RunnerDependencies{
		Renderer:        renderer,
		Config:          cfg,
		Metadata:        res.Metadata,
		BM25:            res.BM25,
		Vector:          res.Vector,
		Embedder:        res.Embedder,
		CodeChunker:     chunker,
		MarkdownChunker: chunker,
	})
}

// scanSourceFiles walks root with the Scanner and reads every discovered
// file into graph.SourceFile/exception.SourceFile records for the
// analyzers, which need full text rather than chunked content.
func scanSourceFiles(ctx context.Context, root string, cfg *config.Config) ([]graph.SourceFile, []exception.SourceFile, error) {
	sc, err := scanner.New()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create scanner: %w", err)
	}

	results, err := sc.Scan(ctx, &scanner.ScanOptions{
		RootDir:          root,
		ExcludePatterns:  cfg.Paths.Exclude,
		IncludePatterns:  cfg.Paths.Include,
		RespectGitignore: true,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("failed to scan %s: %w", root, err)
	}

	var graphFiles []graph.SourceFile
	var exceptionFiles []exception.SourceFile
	for res := range results {
		if res.Error != nil || res.File == nil {
			continue
		}
		if res.File.ContentType != scanner.ContentTypeCode {
			continue
		}
		content, err := os.ReadFile(res.File.AbsPath)
		if err != nil {
			continue
		}
		graphFiles = append(graphFiles, graph.SourceFile{
			Path:     res.File.Path,
			Content:  string(content),
			Language: res.File.Language,
		})
		exceptionFiles = append(exceptionFiles, exception.SourceFile{
			Path:    res.File.Path,
			Content: string(content),
		})
	}
	return graphFiles, exceptionFiles, nil
}

// codeChunkerFor returns a chunker sized per cfg.Search, so a project's
// configured chunk size/overlap applies uniformly to code and markdown.
func codeChunkerFor(cfg *config.Config) chunk.Chunker {
	opts := chunk.DefaultChunkerOptions()
	if cfg.Search.ChunkSize > 0 {
		opts.MaxChunkSize = cfg.Search.ChunkSize
	}
	if cfg.Search.ChunkOverlap > 0 {
		opts.OverlapSize = cfg.Search.ChunkOverlap
	}
	return chunk.NewDeterministicChunker(opts)
}

// loadQueryData reads every stored embedding and its chunk record back out
// of the metadata store, reshaping store.Chunk into the
// store.EmbeddingMetadata the retrieval strategies and query.Engine expect.
// There is no dedicated "embedding metadata" table: the chunk itself already
// carries the fields a retrieval match needs to render a source snippet.
func loadQueryData(ctx context.Context, metadata *store.SQLiteMetadataStore) (map[string][]float32, map[string]*store.EmbeddingMetadata, error) {
	embeddings, err := metadata.GetAllEmbeddings(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load embeddings: %w", err)
	}

	ids := make([]string, 0, len(embeddings))
	for id := range embeddings {
		ids = append(ids, id)
	}

	chunks, err := metadata.GetChunks(ctx, ids)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load chunks: %w", err)
	}

	meta := make(map[string]*store.EmbeddingMetadata, len(chunks))
	for _, c := range chunks {
		meta[c.ID] = &store.EmbeddingMetadata{
			Source:    c.FilePath,
			Type:      string(c.ContentType),
			FilePath:  c.FilePath,
			StartLine: c.StartLine,
			EndLine:   c.EndLine,
			Content:   c.Content,
			Language:  c.Language,
		}
	}

	return embeddings, meta, nil
}
