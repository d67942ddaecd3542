package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/codecortex/codecortex/internal/config"
	"github.com/codecortex/codecortex/internal/exception"
	"github.com/codecortex/codecortex/internal/graph"
	"github.com/codecortex/codecortex/internal/mcp"
	"github.com/codecortex/codecortex/internal/query"
	"github.com/codecortex/codecortex/internal/retrieval"
	"github.com/codecortex/codecortex/internal/toolset"
)

// newAnalyzeWorkflowCmd runs one natural-language or structured query
// through the Hybrid Query Engine (C9) against a project already indexed
// by generate-embeddings, wiring the Call-Path, Error-Chain,
// Config-Impact and Cross-Repo tools over the project's call graph and
// exception hierarchy.
func newAnalyzeWorkflowCmd() *cobra.Command {
	var path string

	cmd := &cobra.Command{
		Use:   "analyze-workflow <query>",
		Short: "Run a query through the hybrid query engine",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAnalyzeWorkflow(cmd.Context(), cmd, path, args[0])
		},
	}

	cmd.Flags().StringVar(&path, "path", ".", "Project path to query")
	return cmd
}

func runAnalyzeWorkflow(ctx context.Context, cmd *cobra.Command, path, queryText string) error {
	root, dataDir, err := projectPaths(path)
	if err != nil {
		return err
	}

	cfg, err := config.Load(root)
	if err != nil {
		cfg = config.NewConfig()
	}

	res, err := openStores(ctx, dataDir, cfg, false)
	if err != nil {
		return err
	}
	defer res.Close()

	embeddings, metadata, err := loadQueryData(ctx, res.Metadata)
	if err != nil {
		return err
	}
	if len(embeddings) == 0 {
		return fmt.Errorf("no embeddings found under %s — run generate-embeddings first", dataDir)
	}

	graphFiles, exceptionFiles, err := scanSourceFiles(ctx, root, cfg)
	if err != nil {
		return err
	}

	graphAnalyzer := graph.NewAnalyzer(nil)
	defer graphAnalyzer.Close()
	graphAnalyzer.Index(ctx, graphFiles)

	exceptionAnalyzer := exception.NewAnalyzer(graphAnalyzer)

	registry := mcp.NewRegistry(0, 0, nil)
	if err := toolset.RegisterAll(registry, toolset.Dependencies{
		Graph:          graphAnalyzer,
		Exceptions:     exceptionAnalyzer,
		ExceptionFiles: exceptionFiles,
		ExceptionFlags: exception.DefaultFlags(),
		Metadata:       metadata,
	}); err != nil {
		return fmt.Errorf("failed to register tools: %w", err)
	}

	queryEmbedding, err := res.Embedder.Embed(ctx, queryText)
	if err != nil {
		return fmt.Errorf("failed to embed query: %w", err)
	}

	engine := query.NewEngine(retrieval.NewHybridStrategy(), registry, query.DefaultConfig(), nil)
	result, err := engine.Execute(ctx, retrieval.Query{Text: queryText, Embedding: queryEmbedding}, embeddings, metadata)
	if err != nil {
		return fmt.Errorf("query execution failed: %w", err)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "query: %s\n", result.Query)
	fmt.Fprintf(out, "categories: %v\n", result.Categories)
	if result.Confidence != nil {
		fmt.Fprintf(out, "confidence: %.2f\n", result.Confidence.Score)
	}
	if result.FallbackUsed {
		fmt.Fprintln(out, "fallback: used retrieval-only synthesis")
	}
	if result.Partial {
		fmt.Fprintln(out, "partial: some tools failed or timed out")
	}
	fmt.Fprintf(out, "sources (%d):\n", len(result.Snippets))
	for _, s := range result.Snippets {
		m := metadata[s.ID]
		if m == nil {
			fmt.Fprintf(out, "  - %s (score %.3f)\n", s.ID, s.Score)
			continue
		}
		fmt.Fprintf(out, "  - %s:%d-%d (score %.3f)\n", m.FilePath, m.StartLine, m.EndLine, s.Score)
	}
	if result.Prompt != "" {
		fmt.Fprintln(out, "\n--- synthesized prompt ---")
		fmt.Fprintln(out, result.Prompt)
	}
	return nil
}
