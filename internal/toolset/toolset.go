// Package toolset is the composition root's binding of the dynamic MCP
// tools spec 4.9 step 3 plans (Call-Path, Error-Chain, Config-Impact,
// Cross-Repo) to their backing analyzers, registered against one shared
// *internal/mcp.Registry. internal/query only ever emits tool names; this
// package is where those names resolve to behavior.
package toolset

import (
	"context"
	"fmt"
	"strings"

	"github.com/codecortex/codecortex/internal/exception"
	"github.com/codecortex/codecortex/internal/graph"
	"github.com/codecortex/codecortex/internal/mcp"
	"github.com/codecortex/codecortex/internal/query"
	"github.com/codecortex/codecortex/internal/store"
)

// CallPathTool wraps internal/graph.Analyzer.AnalyzeMethod (C6) as an MCP
// tool: given a method key, returns its forward call graph.
type CallPathTool struct {
	Graph    *graph.Analyzer
	MaxDepth int
}

func (t *CallPathTool) Name() string { return query.ToolCallPath }

func (t *CallPathTool) Execute(ctx context.Context, params map[string]any) (any, error) {
	methodPath, _ := params["methodPath"].(string)
	if methodPath == "" {
		return nil, mcp.NonRetryable(fmt.Errorf("call-path: methodPath is required"))
	}
	maxDepth := t.MaxDepth
	if maxDepth <= 0 {
		maxDepth = 10
	}
	callGraph, err := t.Graph.AnalyzeMethod(methodPath, maxDepth)
	if err != nil {
		return nil, mcp.NonRetryable(fmt.Errorf("call-path: %w", err))
	}
	return callGraph, nil
}

// ErrorChainTool wraps internal/exception.Analyzer.Analyze (C7) as an MCP
// tool: given an exception class, returns its hierarchy, propagation
// chains and anti-patterns. The scanned file set is fixed at construction
// time, mirroring the Bytecode Analyzer's one-shot Index pass.
type ErrorChainTool struct {
	Exceptions *exception.Analyzer
	Files      []exception.SourceFile
	Flags      exception.AnalysisFlags
}

func (t *ErrorChainTool) Name() string { return query.ToolErrorChain }

func (t *ErrorChainTool) Execute(ctx context.Context, params map[string]any) (any, error) {
	class, _ := params["exceptionClass"].(string)
	if class == "" {
		return nil, mcp.NonRetryable(fmt.Errorf("error-chain: exceptionClass is required"))
	}
	flags := t.Flags
	if flags == (exception.AnalysisFlags{}) {
		flags = exception.DefaultFlags()
	}
	result, err := t.Exceptions.Analyze(ctx, class, t.Files, flags)
	if err != nil {
		return nil, mcp.NonRetryable(fmt.Errorf("error-chain: %w", err))
	}
	return result, nil
}

// ConfigImpactMatch is one chunk whose content references a config key.
type ConfigImpactMatch struct {
	ChunkID   string
	FilePath  string
	StartLine int
	EndLine   int
	Purpose   string
}

// ConfigImpactTool answers "what breaks if I change this config key" by
// searching indexed chunk content for the key, grounded directly on the
// store.EmbeddingMetadata.Content/FilePath fields the Vector Store already
// carries (spec 4.9 names this tool but, unlike Call-Path/Error-Chain,
// defines no dedicated analyzer component for it).
type ConfigImpactTool struct {
	Metadata map[string]*store.EmbeddingMetadata
}

func (t *ConfigImpactTool) Name() string { return query.ToolConfigImpact }

func (t *ConfigImpactTool) Execute(ctx context.Context, params map[string]any) (any, error) {
	key, _ := params["configKey"].(string)
	if key == "" {
		return nil, mcp.NonRetryable(fmt.Errorf("config-impact: configKey is required"))
	}

	var matches []ConfigImpactMatch
	for id, md := range t.Metadata {
		if md == nil {
			continue
		}
		if strings.Contains(md.Content, key) {
			matches = append(matches, ConfigImpactMatch{
				ChunkID:   id,
				FilePath:  md.FilePath,
				StartLine: md.StartLine,
				EndLine:   md.EndLine,
				Purpose:   md.PurposeSummary,
			})
		}
	}
	return matches, nil
}

// CrossRepoMatch is one chunk in a repository namespace other than the
// caller's that references the requested symbol.
type CrossRepoMatch struct {
	ChunkID   string
	Namespace string
	FilePath  string
	StartLine int
	EndLine   int
}

// CrossRepoTool answers cross-component/cross-repository questions by
// searching every namespace other than the caller's own for the symbol,
// grounded on store.EmbeddingMetadata.RepositoryNamespace — the field the
// Vector Store (C4) already uses to keep namespaces isolated (spec 3 /
// Testable Property 3).
type CrossRepoTool struct {
	Metadata map[string]*store.EmbeddingMetadata
}

func (t *CrossRepoTool) Name() string { return query.ToolCrossRepo }

func (t *CrossRepoTool) Execute(ctx context.Context, params map[string]any) (any, error) {
	symbol, _ := params["symbol"].(string)
	if symbol == "" {
		return nil, mcp.NonRetryable(fmt.Errorf("cross-repo: symbol is required"))
	}
	currentNamespace, _ := params["currentNamespace"].(string)

	var matches []CrossRepoMatch
	for id, md := range t.Metadata {
		if md == nil || md.RepositoryNamespace == currentNamespace {
			continue
		}
		if strings.Contains(md.Content, symbol) {
			matches = append(matches, CrossRepoMatch{
				ChunkID:   id,
				Namespace: md.RepositoryNamespace,
				FilePath:  md.FilePath,
				StartLine: md.StartLine,
				EndLine:   md.EndLine,
			})
		}
	}
	return matches, nil
}

// Dependencies bundles everything RegisterAll needs to bind the four
// dynamic tools.
type Dependencies struct {
	Graph            *graph.Analyzer
	GraphMaxDepth    int
	Exceptions       *exception.Analyzer
	ExceptionFiles   []exception.SourceFile
	ExceptionFlags   exception.AnalysisFlags
	Metadata         map[string]*store.EmbeddingMetadata
}

// RegisterAll binds Call-Path, Error-Chain, Config-Impact and Cross-Repo to
// registry. Graph/Exceptions may be nil, in which case the corresponding
// tool is skipped rather than registered to fail every call.
func RegisterAll(registry *mcp.Registry, deps Dependencies) error {
	if deps.Graph != nil {
		if err := registry.Register(&CallPathTool{Graph: deps.Graph, MaxDepth: deps.GraphMaxDepth}); err != nil {
			return err
		}
	}
	if deps.Exceptions != nil {
		if err := registry.Register(&ErrorChainTool{Exceptions: deps.Exceptions, Files: deps.ExceptionFiles, Flags: deps.ExceptionFlags}); err != nil {
			return err
		}
	}
	if err := registry.Register(&ConfigImpactTool{Metadata: deps.Metadata}); err != nil {
		return err
	}
	if err := registry.Register(&CrossRepoTool{Metadata: deps.Metadata}); err != nil {
		return err
	}
	return nil
}
