package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/codecortex/codecortex/internal/config"
	"github.com/codecortex/codecortex/internal/httpapi"
	"github.com/codecortex/codecortex/internal/index"
	"github.com/codecortex/codecortex/internal/lifecycle"
	"github.com/codecortex/codecortex/internal/mcp"
	"github.com/codecortex/codecortex/internal/query"
	"github.com/codecortex/codecortex/internal/retrieval"
	"github.com/codecortex/codecortex/internal/telemetry"
)

// newServeCmd serves /chat, /mcp/*, /hybrid/*, /metrics and
// /generate-embeddings, all wired to the same query.Engine and
// index.Runner the CLI commands use directly.
func newServeCmd() *cobra.Command {
	var (
		path     string
		host     string
		port     int
		offline  bool
		llmHost  string
		llmModel string
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return runServe(ctx, cmd, path, host, port, offline, llmHost, llmModel)
		},
	}

	cmd.Flags().StringVar(&path, "path", ".", "Project path to serve")
	cmd.Flags().StringVar(&host, "host", "127.0.0.1", "HTTP listen host")
	cmd.Flags().IntVar(&port, "port", 0, "HTTP listen port (default: config.Server.Port)")
	cmd.Flags().BoolVar(&offline, "offline", false, "Use static embeddings instead of a network provider")
	cmd.Flags().StringVar(&llmHost, "llm-host", "", "Ollama host for /chat synthesis (default: lifecycle.DefaultHost)")
	cmd.Flags().StringVar(&llmModel, "llm-model", "llama3", "Ollama model for /chat synthesis")

	return cmd
}

func runServe(ctx context.Context, cmd *cobra.Command, path, host string, port int, offline bool, llmHost, llmModel string) error {
	root, dataDir, err := projectPaths(path)
	if err != nil {
		return err
	}

	cfg, err := config.Load(root)
	if err != nil {
		cfg = config.NewConfig()
	}
	if port == 0 {
		port = cfg.Server.Port
	}

	res, err := openStores(ctx, dataDir, cfg, offline)
	if err != nil {
		return err
	}
	defer res.Close()

	embeddings, metadata, err := loadQueryData(ctx, res.Metadata)
	if err != nil {
		return err
	}

	registry := mcp.NewRegistry(0, 0, nil)
	engine := query.NewEngine(retrieval.NewHybridStrategy(), registry, query.DefaultConfig(), nil)
	metrics := telemetry.NewQueryMetrics(nil)

	ollama := lifecycle.NewOllamaManagerWithHost(llmHost)
	llm := lifecycle.NewLLMAdapter(ollama, llmModel)

	var renderer index.Renderer = index.NewLogRenderer()
	runner, err := buildRunner(res, cfg, renderer)
	if err != nil {
		return fmt.Errorf("failed to create index runner: %w", err)
	}
	defer func() { _ = runner.Close() }()

	var mode string
	if cfg.Server.LogLevel == "debug" {
		mode = "debug"
	} else {
		mode = "release"
	}

	logger, err := zap.NewProduction()
	if err != nil {
		logger = zap.NewNop()
	}
	defer func() { _ = logger.Sync() }()

	server := httpapi.NewServer(httpapi.Config{Host: host, Mode: mode}, port, httpapi.Dependencies{
		Engine:     engine,
		Registry:   registry,
		Metrics:    metrics,
		LLM:        llm,
		Runner:     runner,
		Embeddings: embeddings,
		Metadata:   metadata,
	}, logger)

	if err := server.Start(ctx); err != nil {
		return fmt.Errorf("failed to start server: %w", err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "listening on %s:%d (project %s)\n", host, port, root)

	<-ctx.Done()

	stopCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return server.Stop(stopCtx)
}
