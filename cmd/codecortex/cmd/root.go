// Package cmd provides the CLI commands for CodeCortex.
package cmd

import (
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/codecortex/codecortex/pkg/version"
)

var debugMode bool
var loggingCleanup func()

// NewRootCmd creates the root command for the codecortex CLI.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "codecortex",
		Short: "Local-first hybrid code intelligence server",
		Long: `CodeCortex indexes a codebase (BM25 + semantic embeddings), builds a
static call graph and exception hierarchy, and answers structured and
natural-language queries over it through an HTTP API or this CLI.`,
		Version: version.Version,
	}

	cmd.SetVersionTemplate("codecortex version {{.Version}}\n")
	cmd.PersistentFlags().BoolVar(&debugMode, "debug", false, "Enable debug logging to ~/.codecortex/logs/")
	cmd.PersistentPreRunE = startLogging
	cmd.PersistentPostRunE = stopLogging

	cmd.AddCommand(newGenerateEmbeddingsCmd())
	cmd.AddCommand(newBuildKnowledgeGraphCmd())
	cmd.AddCommand(newAnalyzeWorkflowCmd())
	cmd.AddCommand(newGenerateAllCmd())
	cmd.AddCommand(newInspectCmd())
	cmd.AddCommand(newServeCmd())
	cmd.AddCommand(newStatsCmd())
	cmd.AddCommand(newDoctorCmd())
	cmd.AddCommand(newVersionCmd())

	return cmd
}

// Execute runs the root command.
func Execute() error {
	return NewRootCmd().Execute()
}

func startLogging(_ *cobra.Command, _ []string) error {
	if !debugMode {
		return nil
	}
	logger, cleanup, err := loggingSetup()
	if err != nil {
		return err
	}
	loggingCleanup = cleanup
	slog.SetDefault(logger)
	slog.Info("debug logging enabled")
	return nil
}

func stopLogging(_ *cobra.Command, _ []string) error {
	if loggingCleanup != nil {
		loggingCleanup()
		loggingCleanup = nil
	}
	return nil
}
