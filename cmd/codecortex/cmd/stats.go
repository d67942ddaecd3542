package cmd

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/codecortex/codecortex/internal/config"
	"github.com/codecortex/codecortex/internal/index"
	"github.com/codecortex/codecortex/internal/telemetry"
)

// newStatsCmd reports index size, embedding coverage, and query
// telemetry, all read from the same metadata database generate-embeddings
// writes.
func newStatsCmd() *cobra.Command {
	var (
		path       string
		jsonOutput bool
	)

	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Show index size and query telemetry",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runStats(cmd.Context(), cmd, path, jsonOutput)
		},
	}

	cmd.Flags().StringVar(&path, "path", ".", "Project path to inspect")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output as JSON")
	return cmd
}

// StatsOutput is the JSON shape for `stats --json`.
type StatsOutput struct {
	Project          string              `json:"project"`
	FileCount        int                 `json:"file_count"`
	ChunkCount       int                 `json:"chunk_count"`
	WithEmbedding    int                 `json:"with_embedding"`
	WithoutEmbedding int                 `json:"without_embedding"`
	TopTerms         []telemetry.TermCount `json:"top_terms"`
	ZeroResultQueries []string           `json:"zero_result_queries"`
}

func runStats(ctx context.Context, cmd *cobra.Command, path string, jsonOutput bool) error {
	root, dataDir, err := projectPaths(path)
	if err != nil {
		return err
	}

	cfg, err := config.Load(root)
	if err != nil {
		cfg = config.NewConfig()
	}

	res, err := openStores(ctx, dataDir, cfg, true)
	if err != nil {
		return err
	}
	defer res.Close()

	project, err := res.Metadata.GetProject(ctx, index.ProjectID(root))
	if err != nil {
		return fmt.Errorf("no index found in %s — run generate-embeddings first: %w", dataDir, err)
	}

	withEmbedding, withoutEmbedding, err := res.Metadata.GetEmbeddingStats(ctx)
	if err != nil {
		return fmt.Errorf("failed to read embedding stats: %w", err)
	}

	metricsStore, err := telemetry.NewSQLiteMetricsStore(res.Metadata.DB())
	if err != nil {
		return fmt.Errorf("failed to open telemetry store: %w", err)
	}

	topTerms, err := metricsStore.GetTopTerms(10)
	if err != nil {
		return fmt.Errorf("failed to read top terms: %w", err)
	}
	zeroResults, err := metricsStore.GetZeroResultQueries(10)
	if err != nil {
		return fmt.Errorf("failed to read zero-result queries: %w", err)
	}

	out := StatsOutput{
		Project:           project.Name,
		FileCount:         project.FileCount,
		ChunkCount:        project.ChunkCount,
		WithEmbedding:     withEmbedding,
		WithoutEmbedding:  withoutEmbedding,
		TopTerms:          topTerms,
		ZeroResultQueries: zeroResults,
	}

	if jsonOutput {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(out)
	}

	w := cmd.OutOrStdout()
	fmt.Fprintf(w, "project: %s (%s)\n", out.Project, root)
	fmt.Fprintf(w, "files: %d  chunks: %d\n", out.FileCount, out.ChunkCount)
	fmt.Fprintf(w, "embeddings: %d complete, %d pending\n", out.WithEmbedding, out.WithoutEmbedding)
	if len(out.TopTerms) > 0 {
		fmt.Fprintln(w, "\ntop query terms:")
		for _, t := range out.TopTerms {
			fmt.Fprintf(w, "  %-20s %d\n", t.Term, t.Count)
		}
	}
	if len(out.ZeroResultQueries) > 0 {
		fmt.Fprintln(w, "\nrecent zero-result queries:")
		for _, q := range out.ZeroResultQueries {
			fmt.Fprintf(w, "  - %s\n", q)
		}
	}
	return nil
}
