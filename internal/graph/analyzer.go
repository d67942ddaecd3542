package graph

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/codecortex/codecortex/internal/chunk"
)

const (
	// DefaultMaxNodes bounds a single AnalyzeMethod traversal (hard cap).
	DefaultMaxNodes = 2000
	// typeCacheSize and exceptionCacheSize bound the process-wide caches.
	typeCacheSize      = 4000
	exceptionCacheSize = 2000
)

// Analyzer builds and caches a method-level call graph and exception
// hierarchy by walking the tree-sitter AST of the scanned repositories,
// standing in for a compiled-bytecode analysis pass.
type Analyzer struct {
	mu sync.RWMutex

	parser    *chunk.Parser
	extractor *chunk.SymbolExtractor
	registry  *chunk.LanguageRegistry

	forwardGraph map[string]map[string]bool // methodKey -> set(methodKey)
	reverseGraph map[string]map[string]bool
	nodes        map[string]*MethodNode // methodKey -> node
	bodies       map[string]string      // methodKey -> source body, for exception propagation scans

	typeCache          *lru.Cache[string, *TypeDescriptor]
	exceptionNodeCache *lru.Cache[string, *ExceptionNode]

	logger *slog.Logger
}

// NewAnalyzer constructs an empty Analyzer ready for Index.
func NewAnalyzer(logger *slog.Logger) *Analyzer {
	if logger == nil {
		logger = slog.Default()
	}
	typeCache, _ := lru.New[string, *TypeDescriptor](typeCacheSize)
	exceptionCache, _ := lru.New[string, *ExceptionNode](exceptionCacheSize)
	return &Analyzer{
		parser:             chunk.NewParser(),
		extractor:          chunk.NewSymbolExtractor(),
		registry:           chunk.DefaultRegistry(),
		forwardGraph:       make(map[string]map[string]bool),
		reverseGraph:       make(map[string]map[string]bool),
		nodes:              make(map[string]*MethodNode),
		bodies:             make(map[string]string),
		typeCache:          typeCache,
		exceptionNodeCache: exceptionCache,
		logger:             logger,
	}
}

// Close releases the underlying tree-sitter parser.
func (a *Analyzer) Close() {
	a.parser.Close()
}

// Index performs the one-shot background build of forwardGraph, reverseGraph,
// typeCache and per-method bodies from the given source files. One file that
// fails to parse is logged and skipped; it never blocks the rest.
func (a *Analyzer) Index(ctx context.Context, files []SourceFile) {
	for _, f := range files {
		if err := ctx.Err(); err != nil {
			return
		}
		a.indexFile(ctx, f)
	}
}

func (a *Analyzer) indexFile(ctx context.Context, f SourceFile) {
	config, ok := a.registry.GetByName(f.Language)
	if !ok {
		a.logger.Debug("graph: no grammar for language, skipping", "file", f.Path, "language", f.Language)
		return
	}

	source := []byte(f.Content)
	tree, err := a.parser.Parse(ctx, source, f.Language)
	if err != nil {
		a.logger.Warn("graph: failed to parse file", "file", f.Path, "error", err)
		return
	}

	symbols := a.extractor.Extract(tree, source)
	lines := strings.Split(f.Content, "\n")

	var classSymbols []*chunk.Symbol
	for _, s := range symbols {
		if s.Type == chunk.SymbolTypeClass || s.Type == chunk.SymbolTypeInterface || s.Type == chunk.SymbolTypeType {
			classSymbols = append(classSymbols, s)
		}
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	for _, cs := range classSymbols {
		extends, implements := extractHeritage(cs.Signature, f.Language)
		desc := &TypeDescriptor{
			Name:        cs.Name,
			IsInterface: cs.Type == chunk.SymbolTypeInterface,
			IsAbstract:  strings.Contains(cs.Signature, "abstract"),
			Extends:     extends,
			Implements:  implements,
			SourceFile:  f.Path,
			LineNumber:  cs.StartLine,
		}
		a.typeCache.Add(cs.Name, desc)
	}

	for _, s := range symbols {
		if s.Type != chunk.SymbolTypeFunction && s.Type != chunk.SymbolTypeMethod {
			continue
		}

		owner, ownerDesc := resolveOwner(s, classSymbols, f.Language)
		node := &MethodNode{
			ClassName:  owner,
			MethodName: s.Name,
			SourceFile: f.Path,
			LineNumber: s.StartLine,
		}
		if ownerDesc != nil {
			node.IsInterface = ownerDesc.IsInterface
			node.IsAbstract = ownerDesc.IsAbstract
			ownerDesc.Methods = append(ownerDesc.Methods, s.Name)
		}

		key := node.Key()
		a.nodes[key] = node

		body := sourceRange(lines, s.StartLine, s.EndLine)
		a.bodies[key] = body

		// The declaration line itself ("func A() {", "def foo():") looks
		// exactly like a call site for its own name; scan only the body
		// past the signature line for callees.
		for _, callee := range extractCallTargets(stripFirstLine(body)) {
			a.addEdge(key, callee)
		}
	}
}

// resolveOwner determines a function/method symbol's owning type. Go
// receivers are read off the signature directly; other languages fall back
// to the tightest enclosing class/interface/type symbol by line range.
func resolveOwner(s *chunk.Symbol, classSymbols []*chunk.Symbol, language string) (string, *TypeDescriptor) {
	if language == "go" {
		if recv := goReceiverType(s.Signature); recv != "" {
			return recv, nil
		}
		return "", nil
	}

	var best *chunk.Symbol
	for _, cs := range classSymbols {
		if cs.StartLine <= s.StartLine && cs.EndLine >= s.EndLine {
			if best == nil || (cs.EndLine-cs.StartLine) < (best.EndLine-best.StartLine) {
				best = cs
			}
		}
	}
	if best == nil {
		return "", nil
	}
	return best.Name, &TypeDescriptor{Name: best.Name, IsInterface: best.Type == chunk.SymbolTypeInterface}
}

func sourceRange(lines []string, start, end int) string {
	if start < 1 {
		start = 1
	}
	if end > len(lines) {
		end = len(lines)
	}
	if start > end || start > len(lines) {
		return ""
	}
	return strings.Join(lines[start-1:end], "\n")
}

func stripFirstLine(body string) string {
	idx := strings.IndexByte(body, '\n')
	if idx < 0 {
		return ""
	}
	return body[idx+1:]
}

func (a *Analyzer) addEdge(from, to string) {
	if a.forwardGraph[from] == nil {
		a.forwardGraph[from] = make(map[string]bool)
	}
	a.forwardGraph[from][to] = true

	if a.reverseGraph[to] == nil {
		a.reverseGraph[to] = make(map[string]bool)
	}
	a.reverseGraph[to][from] = true
}

// AnalyzeMethod performs a forward traversal from methodPath's node,
// expanding callees from the forward graph. Interface/abstract nodes are
// additionally expanded into every concrete implementation's own call edges
// (dynamic dispatch). Traversal is bounded by maxDepth and DefaultMaxNodes;
// hitting either bound marks the graph Truncated.
func (a *Analyzer) AnalyzeMethod(methodPath string, maxDepth int) (*CallGraph, error) {
	a.mu.RLock()
	defer a.mu.RUnlock()

	root, ok := a.nodes[methodPath]
	if !ok {
		return nil, fmt.Errorf("graph: unknown method %q", methodPath)
	}

	graph := &CallGraph{
		RootNode: root,
		Nodes:    map[string]*MethodNode{methodPath: root},
		Edges:    make(map[string][]string),
	}

	type frontierEntry struct {
		key   string
		depth int
	}
	visited := map[string]bool{methodPath: true}
	queue := []frontierEntry{{key: methodPath, depth: 0}}

	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]

		if cur.depth >= maxDepth {
			if len(a.expandCallees(cur.key)) > 0 {
				graph.Truncated = true
			}
			continue
		}

		callees := a.expandCallees(cur.key)
		for _, callee := range callees {
			graph.Edges[cur.key] = append(graph.Edges[cur.key], callee)

			if visited[callee] {
				continue
			}
			if len(graph.Nodes) >= DefaultMaxNodes {
				graph.Truncated = true
				continue
			}
			visited[callee] = true
			if n, ok := a.nodes[callee]; ok {
				graph.Nodes[callee] = n
			} else {
				graph.Nodes[callee] = &MethodNode{MethodName: callee}
			}
			queue = append(queue, frontierEntry{key: callee, depth: cur.depth + 1})
		}
	}

	return graph, nil
}

// expandCallees returns key's direct callees, plus (when key is an
// interface/abstract method) every concrete implementation's callees too.
func (a *Analyzer) expandCallees(key string) []string {
	seen := make(map[string]bool)
	var out []string
	for callee := range a.forwardGraph[key] {
		if !seen[callee] {
			seen[callee] = true
			out = append(out, callee)
		}
	}

	if node, ok := a.nodes[key]; ok && (node.IsInterface || node.IsAbstract) {
		for _, implKey := range a.findOverrideKeys(node) {
			for callee := range a.forwardGraph[implKey] {
				if !seen[callee] {
					seen[callee] = true
					out = append(out, callee)
				}
			}
		}
	}
	return out
}

// FindImplementations returns the concrete types implementing the named
// interface: direct implementors, transitive sub-interface implementors, and
// extenders of the declaring abstract class.
func (a *Analyzer) FindImplementations(interfaceName string) []string {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.findImplementingTypes(interfaceName, make(map[string]bool))
}

func (a *Analyzer) findImplementingTypes(typeName string, visiting map[string]bool) []string {
	if visiting[typeName] {
		return nil
	}
	visiting[typeName] = true

	var result []string
	for _, key := range a.typeCache.Keys() {
		desc, ok := a.typeCache.Peek(key)
		if !ok {
			continue
		}
		if desc.Extends == typeName || containsName(desc.Implements, typeName) {
			result = append(result, desc.Name)
			// transitively: anything implementing a sub-interface of typeName
			if desc.IsInterface {
				result = append(result, a.findImplementingTypes(desc.Name, visiting)...)
			}
		}
	}
	return dedupeStrings(result)
}

// FindOverrides returns the MethodNode keys of concrete methods overriding
// the given interface/abstract MethodNode across all implementing types,
// including inherited concrete definitions from a superclass.
func (a *Analyzer) FindOverrides(node *MethodNode) []string {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.findOverrideKeys(node)
}

func (a *Analyzer) findOverrideKeys(node *MethodNode) []string {
	implementors := a.findImplementingTypes(node.ClassName, make(map[string]bool))
	var keys []string
	for _, impl := range implementors {
		// Walk up the superclass chain until a definition is found, stopping
		// at the declaring type itself.
		visited := make(map[string]bool)
		for cur := impl; cur != "" && cur != node.ClassName && !visited[cur]; {
			visited[cur] = true
			key := cur + "." + node.MethodName
			if _, ok := a.nodes[key]; ok {
				keys = append(keys, key)
				break
			}
			desc, ok := a.typeCache.Peek(cur)
			if !ok {
				break
			}
			cur = desc.Extends
		}
	}
	return dedupeStrings(keys)
}

func containsName(names []string, target string) bool {
	for _, n := range names {
		if n == target {
			return true
		}
	}
	return false
}

func dedupeStrings(in []string) []string {
	seen := make(map[string]bool, len(in))
	out := make([]string, 0, len(in))
	for _, s := range in {
		if !seen[s] {
			seen[s] = true
			out = append(out, s)
		}
	}
	return out
}
