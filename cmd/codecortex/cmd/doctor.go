package cmd

import (
	"context"
	"encoding/json"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/codecortex/codecortex/internal/preflight"
)

// newDoctorCmd runs disk/memory/permission checks plus embedder
// reachability, useful before generate-embeddings to explain why indexing
// might fail.
func newDoctorCmd() *cobra.Command {
	var (
		path       string
		verbose    bool
		jsonOutput bool
		offline    bool
	)

	cmd := &cobra.Command{
		Use:   "doctor",
		Short: "Check system requirements and diagnose indexing issues",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runDoctor(cmd, path, verbose, jsonOutput, offline)
		},
	}

	cmd.Flags().StringVar(&path, "path", ".", "Project path to check")
	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "Show detailed diagnostic info")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output as JSON")
	cmd.Flags().BoolVar(&offline, "offline", false, "Skip embedder reachability checks")

	return cmd
}

func runDoctor(cmd *cobra.Command, path string, verbose, jsonOutput, offline bool) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	root, _, err := projectPaths(path)
	if err != nil {
		root, _ = os.Getwd()
	}

	checker := preflight.New(
		preflight.WithOffline(offline),
		preflight.WithVerbose(verbose),
		preflight.WithOutput(cmd.OutOrStdout()),
	)

	results := checker.RunAll(ctx, root)

	if jsonOutput {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(results)
	}

	checker.PrintResults(results)

	if checker.HasCriticalFailures(results) {
		return errDoctorCriticalFailure
	}
	return nil
}

var errDoctorCriticalFailure = &doctorError{"one or more critical checks failed"}

type doctorError struct{ msg string }

func (e *doctorError) Error() string { return e.msg }
