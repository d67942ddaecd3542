package cmd

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/codecortex/codecortex/internal/config"
	"github.com/codecortex/codecortex/internal/index"
)

// newInspectCmd reports the chunks, symbols, and embedding coverage a
// single file has in the index, for debugging why a query did or didn't
// surface it.
func newInspectCmd() *cobra.Command {
	var path string

	cmd := &cobra.Command{
		Use:   "inspect <filepath>",
		Short: "Show indexed chunks and symbols for one file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInspect(cmd.Context(), cmd, path, args[0])
		},
	}

	cmd.Flags().StringVar(&path, "path", ".", "Project path the file belongs to")
	return cmd
}

func runInspect(ctx context.Context, cmd *cobra.Command, path, targetFile string) error {
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

	relPath := targetFile
	if filepath.IsAbs(targetFile) {
		relPath, err = filepath.Rel(root, targetFile)
		if err != nil {
			return fmt.Errorf("failed to resolve %s relative to %s: %w", targetFile, root, err)
		}
	}

	projectID := index.ProjectID(root)
	file, err := res.Metadata.GetFileByPath(ctx, projectID, relPath)
	if err != nil {
		return fmt.Errorf("%s is not indexed under %s: %w", relPath, root, err)
	}

	chunks, err := res.Metadata.GetChunksByFile(ctx, file.ID)
	if err != nil {
		return fmt.Errorf("failed to load chunks: %w", err)
	}

	embeddings, err := res.Metadata.GetAllEmbeddings(ctx)
	if err != nil {
		return fmt.Errorf("failed to load embeddings: %w", err)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "%s\n", file.Path)
	fmt.Fprintf(out, "  language: %s  content-type: %s  size: %d bytes  indexed: %s\n",
		file.Language, file.ContentType, file.Size, file.IndexedAt.Format("2006-01-02 15:04:05"))
	fmt.Fprintf(out, "  chunks: %d\n", len(chunks))
	for _, c := range chunks {
		_, hasEmbedding := embeddings[c.ID]
		fmt.Fprintf(out, "    [%d-%d] %s  embedded=%t  symbols=%d\n", c.StartLine, c.EndLine, c.ID[:12], hasEmbedding, len(c.Symbols))
		for _, s := range c.Symbols {
			fmt.Fprintf(out, "      %s %s (%d-%d)\n", s.Type, s.Name, s.StartLine, s.EndLine)
		}
	}
	return nil
}
