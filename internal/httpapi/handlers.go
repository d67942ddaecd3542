package httpapi

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/codecortex/codecortex/internal/confidence"
	"github.com/codecortex/codecortex/internal/index"
	"github.com/codecortex/codecortex/internal/mcp"
	"github.com/codecortex/codecortex/internal/query"
	"github.com/codecortex/codecortex/internal/retrieval"
)

type handler struct {
	deps   Dependencies
	logger *zap.Logger
}

// Chat handles POST /chat: runs the Hybrid Query Engine and, if an
// LLMService is configured, asks it to synthesize an answer from the
// assembled prompt; otherwise the prompt itself stands in as the answer.
func (h *handler) Chat(c *gin.Context) {
	var req ChatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if h.deps.Engine == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "query engine not configured"})
		return
	}

	start := time.Now()
	result, err := h.deps.Engine.Execute(c.Request.Context(), retrieval.Query{Text: req.Query}, h.deps.Embeddings, h.deps.Metadata)
	if err != nil {
		h.logger.Error("chat query failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	answer := result.Prompt
	if h.deps.LLM != nil && h.deps.LLM.Available(c.Request.Context()) {
		synthesized, err := h.deps.LLM.ProcessRequest(c.Request.Context(), result.Prompt, map[string]any{"contextType": req.ContextType, "contextId": req.ContextID})
		if err != nil {
			h.logger.Error("llm synthesis failed", zap.Error(err))
		} else {
			answer = synthesized
		}
	}

	c.JSON(http.StatusOK, ChatResponse{
		Answer:                answer,
		Sources:               sourcesFrom(result),
		ProcessingTimeMs:      time.Since(start).Milliseconds(),
		Confidence:            result.Confidence.Score,
		ConfidenceRating:      string(result.Confidence.Bucket),
		ConfidenceExplanation: explanationStrings(result.Confidence),
	})
}

// MCPQuery handles POST /mcp/query?query=…: a single free-text query run
// through the same classify/plan/execute pipeline as /mcp/request, with an
// empty executionPlan inferred from the query text.
func (h *handler) MCPQuery(c *gin.Context) {
	q := c.Query("query")
	if q == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "query is required"})
		return
	}

	if h.deps.Engine == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "query engine not configured"})
		return
	}

	result, err := h.deps.Engine.Execute(c.Request.Context(), retrieval.Query{Text: q}, h.deps.Embeddings, h.deps.Metadata)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, MCPResponseBody{
		RequestID:   uuid.New().String(),
		Answer:      result.Prompt,
		ToolResults: toolResultsToMap(result.ToolResponses),
		Metadata: map[string]any{
			"categories":   result.Categories,
			"fallbackUsed": result.FallbackUsed,
			"partial":      result.Partial,
		},
	})
}

// MCPRequestHandler handles POST /mcp/request: an explicit executionPlan
// is run directly against the Registry, ascending by priority (spec 4.8).
func (h *handler) MCPRequestHandler(c *gin.Context) {
	var req MCPRequestBody
	if err := c.ShouldBindJSON(&req); err != nil || req.Query == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "query must not be empty"})
		return
	}

	if h.deps.Registry == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "tool registry not configured"})
		return
	}

	plan := mcp.Plan{Tools: make([]mcp.PlannedTool, 0, len(req.ExecutionPlan))}
	for _, e := range req.ExecutionPlan {
		plan.Tools = append(plan.Tools, mcp.PlannedTool{
			ToolName: e.ToolName,
			Params:   e.Params,
			Priority: e.Priority,
			Required: e.Required,
		})
	}

	result, err := h.deps.Registry.Process(c.Request.Context(), plan)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, MCPResponseBody{
		RequestID:   uuid.New().String(),
		ToolResults: toolResultsToMap(result.Responses),
		Metadata: map[string]any{
			"partial":      result.Partial,
			"fallbackUsed": result.FallbackUsed,
		},
	})
}

// HybridQuery handles POST /hybrid/query: the full Hybrid Query Engine
// pipeline, returned as a QueryResult (spec 4.9).
func (h *handler) HybridQuery(c *gin.Context) {
	var req HybridQueryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if h.deps.Engine == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "query engine not configured"})
		return
	}

	result, err := h.deps.Engine.Execute(c.Request.Context(), retrieval.Query{Text: req.Query}, h.deps.Embeddings, h.deps.Metadata)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, HybridQueryResponse{
		RequestID:    uuid.New().String(),
		Query:        result.Query,
		Categories:   result.Categories,
		ToolResults:  toolResultsToMap(result.ToolResponses),
		FallbackUsed: result.FallbackUsed,
		Partial:      result.Partial,
		Confidence:   result.Confidence.Score,
		Rating:       string(result.Confidence.Bucket),
		Prompt:       result.Prompt,
	})
}

// HybridTools handles POST /hybrid/tools: lists every tool registered with
// the Registry.
func (h *handler) HybridTools(c *gin.Context) {
	if h.deps.Registry == nil {
		c.JSON(http.StatusOK, gin.H{"tools": []string{}})
		return
	}
	c.JSON(http.StatusOK, gin.H{"tools": h.deps.Registry.Names()})
}

// Metrics handles GET /metrics: query counts, registered tools, vector
// store size and LLM availability. FailureCount is not filled in and stays 0.
func (h *handler) Metrics(c *gin.Context) {
	resp := MetricsResponse{}
	if h.deps.Metrics != nil {
		snap := h.deps.Metrics.Snapshot()
		resp.TotalQueries = snap.TotalQueries
		resp.ZeroResultCount = snap.ZeroResultCount
	}
	if h.deps.Registry != nil {
		resp.RegisteredTools = h.deps.Registry.Names()
	}
	resp.VectorStoreSize = len(h.deps.Embeddings)
	if h.deps.LLM != nil {
		resp.LLMAvailable = h.deps.LLM.Available(c.Request.Context())
	}
	c.JSON(http.StatusOK, resp)
}

// GenerateEmbeddings handles POST /generate-embeddings?path=…&recursive=…:
// triggers the ingestion pipeline for one root directory.
func (h *handler) GenerateEmbeddings(c *gin.Context) {
	path := c.Query("path")
	if path == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "path is required"})
		return
	}

	if h.deps.Runner == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "ingestion runner not configured"})
		return
	}

	result, err := h.deps.Runner.Run(c.Request.Context(), index.RunnerConfig{RootDir: path})
	if err != nil {
		h.logger.Error("ingestion failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, GenerateEmbeddingsResponse{
		Files:      result.Files,
		Chunks:     result.Chunks,
		Errors:     result.Errors,
		Warnings:   result.Warnings,
		Resumed:    result.Resumed,
		DurationMs: result.Duration.Milliseconds(),
	})
}

func toolResultsToMap(responses map[string]*mcp.ToolResponse) map[string]any {
	out := make(map[string]any, len(responses))
	for name, resp := range responses {
		if resp == nil {
			continue
		}
		out[name] = gin.H{
			"success":  resp.Success,
			"message":  resp.Message,
			"data":     resp.Data,
			"warnings": resp.Warnings,
			"errors":   resp.Errors,
			"status":   resp.Status,
			"attempts": resp.Attempts,
		}
	}
	return out
}

func sourcesFrom(result *query.Result) ChatSources {
	sources := ChatSources{
		Articles:      []string{},
		CodeSnippets:  make([]string, 0, len(result.Snippets)),
		Relationships: []string{},
		WorkflowSteps: []string{},
	}
	for _, s := range result.Snippets {
		sources.CodeSnippets = append(sources.CodeSnippets, s.ID)
	}
	return sources
}

func explanationStrings(result *confidence.Result) []string {
	lines := make([]string, 0, len(result.Components))
	for _, comp := range result.Components {
		lines = append(lines, comp.Name+": "+strconv.FormatFloat(comp.Contributes, 'f', 3, 64)+
			" ("+strconv.FormatFloat(comp.PercentOf, 'f', 1, 64)+"% of total)")
	}
	return lines
}
