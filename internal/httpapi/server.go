// Package httpapi exposes CodeCortex over HTTP: chat, MCP request/response,
// hybrid query, tool listing, metrics, and ingestion triggers.
package httpapi

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/codecortex/codecortex/internal/index"
	"github.com/codecortex/codecortex/internal/mcp"
	"github.com/codecortex/codecortex/internal/query"
	"github.com/codecortex/codecortex/internal/store"
	"github.com/codecortex/codecortex/internal/telemetry"
)

// Config controls the HTTP listener.
type Config struct {
	Host string
	Mode string // debug, release
}

// Dependencies wires the components a Server dispatches to. Registry, LLM,
// and Runner are optional: a nil Registry fails /mcp/request with 503 and
// makes /hybrid/tools list no tools, a nil LLM degrades /chat to returning the
// assembled prompt instead of a synthesized answer, and a nil Runner
// fails /generate-embeddings with 503.
type Dependencies struct {
	Engine     *query.Engine
	Registry   *mcp.Registry
	Metrics    *telemetry.QueryMetrics
	LLM        LLMService
	Runner     *index.Runner
	Embeddings map[string][]float32
	Metadata   map[string]*store.EmbeddingMetadata
}

// Server is the HTTP front door for CodeCortex.
type Server struct {
	server *http.Server
	logger *zap.Logger
	deps   Dependencies
}

// NewServer builds a Server bound to addr, wiring deps into the route
// handlers.
func NewServer(cfg Config, port int, deps Dependencies, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	} else {
		gin.SetMode(gin.DebugMode)
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(accessLogger(logger))

	h := &handler{deps: deps, logger: logger}
	h.register(router)

	addr := fmt.Sprintf("%s:%d", cfg.Host, port)
	return &Server{
		server: &http.Server{Addr: addr, Handler: router},
		logger: logger,
		deps:   deps,
	}
}

// Router exposes the underlying http.Handler, primarily for tests.
func (s *Server) Router() http.Handler {
	return s.server.Handler
}

// Start runs the HTTP server in the background.
func (s *Server) Start(ctx context.Context) error {
	s.logger.Info("starting http server", zap.String("address", s.server.Addr))
	go func() {
		if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			s.logger.Error("http server error", zap.Error(err))
		}
	}()
	return nil
}

// Stop gracefully shuts the server down.
func (s *Server) Stop(ctx context.Context) error {
	s.logger.Info("stopping http server")
	return s.server.Shutdown(ctx)
}

func (h *handler) register(router *gin.Engine) {
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	router.POST("/chat", h.Chat)
	router.POST("/mcp/query", h.MCPQuery)
	router.POST("/mcp/request", h.MCPRequestHandler)
	router.POST("/hybrid/query", h.HybridQuery)
	router.POST("/hybrid/tools", h.HybridTools)
	router.GET("/metrics", h.Metrics)
	router.POST("/generate-embeddings", h.GenerateEmbeddings)
}

// accessLogger mirrors the request-log middleware idiom, routed through zap
// as an alternate sink from the CLI/core's slog logging.
func accessLogger(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		query := c.Request.URL.RawQuery

		c.Next()

		logger.Info("http request",
			zap.String("method", c.Request.Method),
			zap.String("path", path),
			zap.String("query", query),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(start)),
		)
	}
}
