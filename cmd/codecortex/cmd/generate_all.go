package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/codecortex/codecortex/internal/config"
	"github.com/codecortex/codecortex/internal/exception"
	"github.com/codecortex/codecortex/internal/graph"
	"github.com/codecortex/codecortex/internal/index"
)

// newGenerateAllCmd runs the embedding pipeline and the knowledge-graph
// build back to back, so a fresh checkout only needs one command before
// analyze-workflow/serve can answer queries.
func newGenerateAllCmd() *cobra.Command {
	var (
		path    string
		verbose bool
		offline bool
	)

	cmd := &cobra.Command{
		Use:   "generate-all",
		Short: "Index a project and build its knowledge graph in one pass",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return runGenerateAll(ctx, cmd, path, verbose, offline)
		},
	}

	cmd.Flags().StringVar(&path, "path", ".", "Project path to index")
	cmd.Flags().BoolVar(&verbose, "verbose", false, "Log per-file progress")
	cmd.Flags().BoolVar(&offline, "offline", false, "Use static embeddings instead of a network provider")

	return cmd
}

func runGenerateAll(ctx context.Context, cmd *cobra.Command, path string, verbose, offline bool) error {
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

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "indexed %d files, %d chunks, %d errors, %d warnings in %s\n",
		result.Files, result.Chunks, result.Errors, result.Warnings, result.Duration)

	graphFiles, _, err := scanSourceFiles(ctx, root, cfg)
	if err != nil {
		return err
	}

	analyzer := graph.NewAnalyzer(nil)
	defer analyzer.Close()
	analyzer.Index(ctx, graphFiles)

	exceptionAnalyzer := exception.NewAnalyzer(analyzer)
	_ = exceptionAnalyzer // warms the analyzer's graph dependency; analysis itself runs per-query

	fmt.Fprintf(out, "built call graph from %d source files\n", len(graphFiles))
	return nil
}
