// Package query implements the Hybrid Query Engine (C9): classify ->
// pre-compute retrieval -> plan tool execution -> execute via the MCP
// Handler -> fallback -> synthesize via the Prompt Builder, enriched with
// confidence metrics (spec 4.9).
package query

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/codecortex/codecortex/internal/confidence"
	"github.com/codecortex/codecortex/internal/mcp"
	"github.com/codecortex/codecortex/internal/prompt"
	"github.com/codecortex/codecortex/internal/retrieval"
	"github.com/codecortex/codecortex/internal/store"
)

// relevantEvidenceThreshold is the score above which a retrieved snippet
// counts as "relevant evidence" for the Confidence Calculator's evidence
// component.
const relevantEvidenceThreshold = 0.5

// Config parameterizes one Engine.
type Config struct {
	RetrievalK          int
	MaxExecutionTime    time.Duration
	ConfidenceWeights   confidence.Weights
}

// DefaultConfig returns the default retrieval depth, execution
// budget, and confidence weighting.
func DefaultConfig() Config {
	return Config{RetrievalK: 10, MaxExecutionTime: 30 * time.Second, ConfidenceWeights: confidence.DefaultWeights()}
}

// Engine orchestrates one query end to end.
type Engine struct {
	strategy retrieval.Strategy
	registry *mcp.Registry
	config   Config
	logger   *slog.Logger
}

// NewEngine builds an Engine. registry may be nil, in which case no dynamic
// tools are ever executed and every query synthesizes from retrieval alone.
func NewEngine(strategy retrieval.Strategy, registry *mcp.Registry, cfg Config, logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{strategy: strategy, registry: registry, config: cfg, logger: logger}
}

// Result is the Hybrid Query Engine's full output for one query.
type Result struct {
	Query         string
	Categories    []Category
	Snippets      []retrieval.RankedID
	ToolResponses map[string]*mcp.ToolResponse
	FallbackUsed  bool
	Partial       bool
	Confidence    *confidence.Result
	Prompt        string
}

// Execute runs the six-step pipeline: classify, retrieve, plan, execute,
// fallback, synthesize.
func (e *Engine) Execute(ctx context.Context, q retrieval.Query, embeddings map[string][]float32, metadata map[string]*store.EmbeddingMetadata) (*Result, error) {
	categories := Classify(q.Text)

	ranked, err := e.strategy.Retrieve(ctx, q, embeddings, metadata, e.retrievalK())
	if err != nil {
		return nil, fmt.Errorf("query: retrieval failed: %w", err)
	}

	plan := BuildPlan(categories, ranked)

	processResult := &mcp.ProcessResult{Responses: make(map[string]*mcp.ToolResponse)}
	if len(plan.Tools) > 0 && e.registry != nil {
		execCtx := ctx
		if e.config.MaxExecutionTime > 0 {
			var cancel context.CancelFunc
			execCtx, cancel = context.WithTimeout(ctx, e.config.MaxExecutionTime)
			defer cancel()
		}
		processResult, err = e.registry.Process(execCtx, plan)
		if err != nil {
			return nil, fmt.Errorf("query: plan execution failed: %w", err)
		}
	}

	snippets, relevances := snippetsFromRanked(ranked, metadata)

	metrics := confidence.Metrics{
		SnippetRelevances:        relevances,
		SuccessfulToolExecutions: countSuccessful(processResult.Responses),
		ToolExecutionCount:       len(processResult.Responses),
		HasEvidence:              len(ranked) > 0,
		EvidenceRelevanceRate:    relevanceRate(relevances),
		EvidenceAverageQuality:   average(relevances),
		QueryClarity:             QueryClarity(q.Text),
	}

	weights := e.config.ConfidenceWeights
	if weights == (confidence.Weights{}) {
		weights = confidence.DefaultWeights()
	}
	confResult, err := confidence.Calculate(metrics, weights)
	if err != nil {
		return nil, fmt.Errorf("query: confidence calculation failed: %w", err)
	}

	promptText := prompt.Build(prompt.Input{Query: q.Text, Snippets: snippets})

	return &Result{
		Query:         q.Text,
		Categories:    categories,
		Snippets:      ranked,
		ToolResponses: processResult.Responses,
		FallbackUsed:  processResult.FallbackUsed,
		Partial:       processResult.Partial,
		Confidence:    confResult,
		Prompt:        promptText,
	}, nil
}

func (e *Engine) retrievalK() int {
	if e.config.RetrievalK > 0 {
		return e.config.RetrievalK
	}
	return 10
}

func snippetsFromRanked(ranked []retrieval.RankedID, metadata map[string]*store.EmbeddingMetadata) ([]prompt.Snippet, []float64) {
	snippets := make([]prompt.Snippet, 0, len(ranked))
	relevances := make([]float64, 0, len(ranked))
	for _, r := range ranked {
		relevances = append(relevances, r.Score)
		md, ok := metadata[r.ID]
		if !ok {
			continue
		}
		snippets = append(snippets, prompt.Snippet{
			FilePath:     md.FilePath,
			StartLine:    md.StartLine,
			EndLine:      md.EndLine,
			Purpose:      md.PurposeSummary,
			Description:  md.Description,
			Capabilities: md.Capabilities,
		})
	}
	return snippets, relevances
}

func countSuccessful(responses map[string]*mcp.ToolResponse) int {
	n := 0
	for _, r := range responses {
		if r != nil && r.Success {
			n++
		}
	}
	return n
}

func relevanceRate(relevances []float64) float64 {
	if len(relevances) == 0 {
		return 0
	}
	relevant := 0
	for _, r := range relevances {
		if r >= relevantEvidenceThreshold {
			relevant++
		}
	}
	return float64(relevant) / float64(len(relevances))
}

func average(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sum := 0.0
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}
