package httpapi

import (
	"context"

	"github.com/codecortex/codecortex/internal/query"
)

// LLMService is the pluggable out-of-process answer-synthesis
// collaborator: processRequest(prompt, params) -> response. It is an
// external collaborator, not a component this service owns — callers
// inject whatever provider client they run.
type LLMService interface {
	ProcessRequest(ctx context.Context, prompt string, params map[string]any) (string, error)
	Available(ctx context.Context) bool
}

// ChatRequest is the body of POST /chat.
type ChatRequest struct {
	Query            string `json:"query" binding:"required"`
	ContextType      string `json:"contextType,omitempty"`
	ContextID        string `json:"contextId,omitempty"`
	IncludeFullFiles bool   `json:"includeFullFiles,omitempty"`
}

// ChatSources groups the evidence backing a /chat answer.
type ChatSources struct {
	Articles      []string `json:"articles"`
	CodeSnippets  []string `json:"code_snippets"`
	Relationships []string `json:"relationships"`
	WorkflowSteps []string `json:"workflow_steps"`
}

// ChatResponse is the body of a successful POST /chat response.
type ChatResponse struct {
	Answer                string      `json:"answer"`
	Sources               ChatSources `json:"sources"`
	ProcessingTimeMs      int64       `json:"processing_time_ms"`
	Confidence            float64     `json:"confidence"`
	ConfidenceRating      string      `json:"confidence_rating"`
	ConfidenceExplanation []string    `json:"confidence_explanation"`
}

// MCPRequestBody is the body of POST /mcp/request.
type MCPRequestBody struct {
	Query          string              `json:"query" binding:"required"`
	ExecutionPlan  []MCPExecutionEntry `json:"executionPlan"`
	ContextData    map[string]any      `json:"contextData,omitempty"`
}

// MCPExecutionEntry is one step of an MCPRequest's executionPlan.
type MCPExecutionEntry struct {
	ToolName string         `json:"toolName" binding:"required"`
	Params   map[string]any `json:"params,omitempty"`
	Priority int            `json:"priority"`
	Required bool           `json:"required"`
}

// MCPResponseBody is the body returned by /mcp/query and /mcp/request.
type MCPResponseBody struct {
	RequestID   string          `json:"requestId"`
	Answer      string          `json:"answer"`
	ToolResults map[string]any  `json:"toolResults"`
	Metadata    map[string]any  `json:"metadata"`
}

// HybridQueryRequest is the body of POST /hybrid/query.
type HybridQueryRequest struct {
	Query   string         `json:"query" binding:"required"`
	Context map[string]any `json:"context,omitempty"`
}

// HybridQueryResponse wraps query.Result for JSON transport.
type HybridQueryResponse struct {
	RequestID     string                     `json:"requestId"`
	Query         string                     `json:"query"`
	Categories    []query.Category           `json:"categories"`
	ToolResults   map[string]any             `json:"toolResults"`
	FallbackUsed  bool                       `json:"fallbackUsed"`
	Partial       bool                       `json:"partial"`
	Confidence    float64                    `json:"confidence"`
	Rating        string                     `json:"confidenceRating"`
	Prompt        string                     `json:"prompt"`
}

// MetricsResponse is the body of GET /metrics.
type MetricsResponse struct {
	VectorStoreSize  int    `json:"vectorStoreSize"`
	FailureCount     int    `json:"failureCount"`
	TotalQueries     int64  `json:"totalQueries"`
	ZeroResultCount  int64  `json:"zeroResultCount"`
	RegisteredTools  []string `json:"registeredTools"`
	LLMAvailable     bool   `json:"llmAvailable"`
}

// GenerateEmbeddingsResponse is the body of POST /generate-embeddings.
type GenerateEmbeddingsResponse struct {
	Files    int   `json:"files"`
	Chunks   int   `json:"chunks"`
	Errors   int   `json:"errors"`
	Warnings int   `json:"warnings"`
	Resumed  bool  `json:"resumed"`
	DurationMs int64 `json:"duration_ms"`
}
