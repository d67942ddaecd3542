package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/codecortex/codecortex/internal/config"
	"github.com/codecortex/codecortex/internal/graph"
)

// newBuildKnowledgeGraphCmd walks a project tree and builds the static
// call graph (C6) the Call-Path and Error-Chain tools query against.
func newBuildKnowledgeGraphCmd() *cobra.Command {
	var path string

	cmd := &cobra.Command{
		Use:   "build-knowledge-graph",
		Short: "Build the static call graph and exception hierarchy for a project",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBuildKnowledgeGraph(cmd.Context(), cmd, path)
		},
	}

	cmd.Flags().StringVar(&path, "path", ".", "Project path to analyze")
	return cmd
}

func runBuildKnowledgeGraph(ctx context.Context, cmd *cobra.Command, path string) error {
	root, _, err := projectPaths(path)
	if err != nil {
		return err
	}

	cfg, err := config.Load(root)
	if err != nil {
		cfg = config.NewConfig()
	}

	graphFiles, _, err := scanSourceFiles(ctx, root, cfg)
	if err != nil {
		return err
	}

	analyzer := graph.NewAnalyzer(nil)
	defer analyzer.Close()
	analyzer.Index(ctx, graphFiles)

	_, err = fmt.Fprintf(cmd.OutOrStdout(), "indexed call graph from %d source files\n", len(graphFiles))
	return err
}
