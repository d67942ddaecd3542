package exception

import (
	"context"
	"strings"
	"sync"

	"github.com/codecortex/codecortex/internal/graph"
)

type antiPatternTemplate struct {
	Description    string
	Impact         string
	Recommendation string
}

var antiPatternCatalog = map[string]antiPatternTemplate{
	"empty-catch": {
		Description:    "Catch block has an empty body.",
		Impact:         "The exception is discarded silently; failures go unnoticed.",
		Recommendation: "Log the exception or handle it explicitly; never leave a catch block empty.",
	},
	"swallowed": {
		Description:    "Catch block neither rethrows, logs, nor returns.",
		Impact:         "The failure is absorbed with no observable trace, masking bugs in production.",
		Recommendation: "Rethrow, wrap, log, or otherwise surface the exception.",
	},
	"generic-catch": {
		Description:    "Catch block handles the generic base exception type instead of a specific one.",
		Impact:         "Unrelated failures are handled identically, hiding the real failure mode.",
		Recommendation: "Catch the narrowest exception type that the call site can actually raise.",
	},
	"catch-and-log-only": {
		Description:    "Catch block only logs the exception and does nothing else.",
		Impact:         "The caller proceeds as if nothing failed, which can cascade into inconsistent state.",
		Recommendation: "Decide whether to recover, retry, or propagate; logging alone is rarely sufficient.",
	},
	"print-stack-trace": {
		Description:    "Catch block prints the stack trace directly instead of using structured logging.",
		Impact:         "The failure bypasses log aggregation, rotation, and alerting.",
		Recommendation: "Route the exception through the configured logger instead.",
	},
	"sleep-in-catch": {
		Description:    "Catch block sleeps before continuing.",
		Impact:         "Blocks the calling goroutine/thread and hides a retry policy that should be explicit.",
		Recommendation: "Use a backoff-aware retry helper instead of a bare sleep in the handler.",
	},
}

type cacheKey struct {
	class string
	flags AnalysisFlags
}

// Analyzer produces ErrorChainResults for exception classes, caching by
// (exceptionClass, flags). Hierarchy and propagation-chain data are
// delegated to an optional *graph.Analyzer; everything else (wrapping,
// logging, anti-patterns, handling strategies) is derived from raw source
// text.
type Analyzer struct {
	mu    sync.Mutex
	graph *graph.Analyzer
	cache map[cacheKey]*ErrorChainResult
}

// NewAnalyzer constructs an Analyzer. g may be nil; hierarchy and
// propagation chains are then left empty with an analysis note explaining
// why.
func NewAnalyzer(g *graph.Analyzer) *Analyzer {
	return &Analyzer{graph: g, cache: make(map[cacheKey]*ErrorChainResult)}
}

// Analyze scans files for every throw/catch/wrap/log site referencing
// exceptionClass and returns the full ErrorChainResult.
func (a *Analyzer) Analyze(ctx context.Context, exceptionClass string, files []SourceFile, flags AnalysisFlags) (*ErrorChainResult, error) {
	key := cacheKey{class: exceptionClass, flags: flags}

	a.mu.Lock()
	if cached, ok := a.cache[key]; ok {
		a.mu.Unlock()
		return cached, nil
	}
	a.mu.Unlock()

	simple := simpleClassName(exceptionClass)
	result := &ErrorChainResult{
		ExceptionClass:      exceptionClass,
		AntiPatterns:        make(map[string]AntiPattern),
		CommonErrorMessages: make(map[string]int),
		Recommendations:     make(map[string]string),
	}

	if a.graph != nil {
		if node, err := a.graph.AnalyzeExceptionHierarchy(exceptionClass); err == nil {
			result.Hierarchy = node.Parents
		}
		result.PropagationChains = a.graph.AnalyzeExceptionPropagation(exceptionClass, flags.MaxPropagationDepth)
	} else {
		result.AnalysisNotes = append(result.AnalysisNotes, "no static call graph supplied; hierarchy and propagation chains are empty")
	}

	throwRe := throwPattern(simple)
	catchRe := catchPattern(simple)
	logRe := loggingPattern(simple)
	msgRe := commonMessagePattern(simple)

	componentStrategy := make(map[string]string)
	wrapping := make(map[[2]string]int)

	for _, f := range files {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		content := f.Content

		for _, m := range throwRe.FindAllStringIndex(content, -1) {
			result.ThrowLocations = append(result.ThrowLocations, location(f.Path, lineOf(content, m[0])))
			noteComponentStrategy(componentStrategy, f.Path)
		}

		for _, m := range logRe.FindAllStringIndex(content, -1) {
			result.LoggingPatterns = append(result.LoggingPatterns, location(f.Path, lineOf(content, m[0])))
		}

		for _, m := range msgRe.FindAllStringSubmatch(content, -1) {
			result.CommonErrorMessages[m[1]]++
		}

		for _, m := range wrapConstructorPattern.FindAllStringSubmatch(content, -1) {
			wrapper := simpleClassName(m[1])
			args := m[2]
			if strings.Contains(args, simple) && wrapper != simple {
				wrapping[[2]string{wrapper, simple}]++
			}
			if wrapper == simple {
				// scanning for any *Exception identifier wrapped by this class
				for _, other := range wrapConstructorPattern.FindAllStringSubmatch(args, -1) {
					wrapping[[2]string{simple, simpleClassName(other[1])}]++
				}
			}
		}

		catchMatches := catchRe.FindAllStringSubmatchIndex(content, -1)
		for _, m := range catchMatches {
			headerEnd := m[1]
			line := lineOf(content, m[0])
			result.CatchLocations = append(result.CatchLocations, location(f.Path, line))
			noteComponentStrategy(componentStrategy, f.Path)

			if !flags.IncludeAntiPatterns {
				continue
			}
			ident := content[m[2]:m[3]]
			body := catchBody(content, headerEnd)
			loc := location(f.Path, line)

			a.classifyAntiPatterns(result, simple, ident, body, loc)
		}
	}

	for pair, count := range wrapping {
		result.WrappingPatterns = append(result.WrappingPatterns, WrappingPattern{Wrapper: pair[0], Wrapped: pair[1], Count: count})
	}

	for component, effectiveness := range componentStrategy {
		result.HandlingStrategies = append(result.HandlingStrategies, HandlingStrategy{Component: component, Effectiveness: effectiveness})
	}

	for name, ap := range result.AntiPatterns {
		result.Recommendations[antiPatternCatalog[name].Description] = ap.Recommendation
	}

	a.mu.Lock()
	a.cache[key] = result
	a.mu.Unlock()

	return result, nil
}

func (a *Analyzer) classifyAntiPatterns(result *ErrorChainResult, simple, ident, body, loc string) {
	trimmed := strings.TrimSpace(body)

	if simple == "Exception" {
		a.record(result, "generic-catch", loc)
		return
	}

	if trimmed == "" {
		a.record(result, "empty-catch", loc)
		return
	}

	hasThrow := strings.Contains(trimmed, "throw")
	hasLog := strings.Contains(trimmed, "log.") || strings.Contains(trimmed, "logger.") || strings.Contains(trimmed, "Log.")
	hasReturn := strings.Contains(trimmed, "return")

	if !hasThrow && !hasLog && !hasReturn {
		a.record(result, "swallowed", loc)
	}

	if printStackTracePattern.MatchString(trimmed) {
		a.record(result, "print-stack-trace", loc)
	}

	for _, sp := range sleepPatterns {
		if sp.MatchString(trimmed) {
			a.record(result, "sleep-in-catch", loc)
			break
		}
	}

	if hasLog && !hasThrow && !hasReturn && isLogOnlyBody(trimmed, ident) {
		a.record(result, "catch-and-log-only", loc)
	}
}

func (a *Analyzer) record(result *ErrorChainResult, name, loc string) {
	tmpl := antiPatternCatalog[name]
	ap, ok := result.AntiPatterns[name]
	if !ok {
		ap = AntiPattern{Description: tmpl.Description, Impact: tmpl.Impact, Recommendation: tmpl.Recommendation}
	}
	ap.Locations = append(ap.Locations, loc)
	result.AntiPatterns[name] = ap
}

// isLogOnlyBody reports whether trimmed is (give or take a trailing
// semicolon) a single logger call mentioning ident, and nothing else.
func isLogOnlyBody(trimmed, ident string) bool {
	stmt := strings.TrimSuffix(strings.TrimSpace(trimmed), ";")
	if strings.Count(stmt, "\n") > 0 {
		return false
	}
	return (strings.HasPrefix(stmt, "log.") || strings.HasPrefix(stmt, "logger.") || strings.HasPrefix(stmt, "Log.")) &&
		strings.Contains(stmt, ident)
}

func noteComponentStrategy(m map[string]string, path string) {
	if _, ok := m[path]; ok {
		return
	}
	lower := strings.ToLower(path)
	switch {
	case strings.Contains(lower, "controller") || strings.Contains(lower, "advice"):
		m[path] = "High"
	case strings.Contains(lower, "service"):
		m[path] = "Medium"
	case strings.Contains(lower, "repository") || strings.Contains(lower, "dao"):
		m[path] = "Low"
	}
}

func simpleClassName(class string) string {
	if idx := strings.LastIndex(class, "."); idx >= 0 {
		return class[idx+1:]
	}
	return class
}
