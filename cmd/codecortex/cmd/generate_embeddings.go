package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/codecortex/codecortex/internal/config"
	"github.com/codecortex/codecortex/internal/index"
)

// newGenerateEmbeddingsCmd runs the full ingestion pipeline (scan,
// chunk, embed, BM25 + vector index) over a project tree via
// internal/index.Runner.
func newGenerateEmbeddingsCmd() *cobra.Command {
	var (
		path      string
		recursive bool
		verbose   bool
		offline   bool
	)

	cmd := &cobra.Command{
		Use:   "generate-embeddings",
		Short: "Index a project: chunk, embed, and build BM25 + vector indices",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return runGenerateEmbeddings(ctx, cmd, path, recursive, verbose, offline)
		},
	}

	cmd.Flags().StringVar(&path, "path", ".", "Project path to index")
	cmd.Flags().BoolVar(&recursive, "recursive", true, "Recurse into subdirectories")
	cmd.Flags().BoolVar(&verbose, "verbose", false, "Log per-file progress")
	cmd.Flags().BoolVar(&offline, "offline", false, "Use static embeddings instead of a network provider")

	return cmd
}

func runGenerateEmbeddings(ctx context.Context, cmd *cobra.Command, path string, recursive, verbose, offline bool) error {
	_ = recursive // the scanner controls its own recursion via ScanOptions

	root, dataDir, err := projectPaths(path)
	if err != nil {
		return err
	}

	cfg, err := config.Load(root)
	if err != nil {
		cfg = config.NewConfig()
	}

	res, err := openStores(ctx, dataDir, cfg, offline)
	if err != nil {
		return err
	}
	defer res.Close()

	var renderer index.Renderer = index.NewLogRenderer()
	if verbose {
		renderer = index.NewJobRenderer(renderer)
	}

	runner, err := buildRunner(res, cfg, renderer)
	if err != nil {
		return fmt.Errorf("failed to create index runner: %w", err)
	}
	defer func() { _ = runner.Close() }()

	result, err := runner.Run(ctx, index.RunnerConfig{RootDir: root, DataDir: dataDir, Offline: offline})
	if err != nil {
		return fmt.Errorf("indexing failed: %w", err)
	}

	_, err = fmt.Fprintf(cmd.OutOrStdout(), "indexed %d files, %d chunks, %d errors, %d warnings in %s\n",
		result.Files, result.Chunks, result.Errors, result.Warnings, result.Duration)
	return err
}
