package graph

import (
	"fmt"
	"regexp"
	"sort"
	"strings"
)

// throwableRoots stop a hierarchy walk: reaching one of these (or an
// unindexed type, treated as an implicit root) ends AnalyzeExceptionHierarchy.
var throwableRoots = map[string]bool{
	"Throwable": true, "Exception": true, "Error": true, "BaseException": true,
	"Object": true, "error": true,
}

var uncheckedMarkers = map[string]bool{
	"RuntimeException": true, "Error": true, "UnsupportedOperationException": true,
}

// AnalyzeExceptionHierarchy walks superclasses from class to a
// Throwable-family root, memoizing the result process-wide. Checked vs
// unchecked is tagged by the presence of a RuntimeException/Error ancestor.
func (a *Analyzer) AnalyzeExceptionHierarchy(class string) (*ExceptionNode, error) {
	if cached, ok := a.exceptionNodeCache.Get(class); ok {
		return cached, nil
	}

	var parents []string
	unchecked := uncheckedMarkers[class]
	current := class
	visited := map[string]bool{}

	for !throwableRoots[current] && !visited[current] {
		visited[current] = true
		desc, ok := a.typeCache.Get(current)
		if !ok || desc.Extends == "" {
			break
		}
		parents = append(parents, desc.Extends)
		if uncheckedMarkers[desc.Extends] {
			unchecked = true
		}
		current = desc.Extends
	}

	node := &ExceptionNode{ClassName: class, Parents: parents, Unchecked: unchecked}
	a.exceptionNodeCache.Add(class, node)
	return node, nil
}

var (
	throwSitePattern = regexp.MustCompile(`throw\s+new\s+([A-Za-z_]\w*)\s*\(|raise\s+([A-Za-z_]\w*)\s*\(?`)
	catchSitePattern = regexp.MustCompile(`catch\s*\(\s*([A-Za-z_]\w*(?:\s*\|\s*[A-Za-z_]\w*)*)\s+\w+\s*\)|except\s+([A-Za-z_]\w*)`)
)

func simpleName(class string) string {
	if idx := strings.LastIndex(class, "."); idx >= 0 {
		return class[idx+1:]
	}
	return class
}

func throwsClass(body, simple string) bool {
	for _, m := range throwSitePattern.FindAllStringSubmatch(body, -1) {
		if m[1] == simple || m[2] == simple {
			return true
		}
	}
	return false
}

func catchesClass(body, simple string) bool {
	for _, m := range catchSitePattern.FindAllStringSubmatch(body, -1) {
		handled := m[1]
		if handled == "" {
			handled = m[2]
		}
		for _, h := range strings.Split(handled, "|") {
			h = strings.TrimSpace(h)
			if h == simple || strings.HasSuffix(h, simple) {
				return true
			}
		}
	}
	return false
}

// AnalyzeExceptionPropagation finds every indexed method whose body contains
// a throw/raise site for class (matched by simple name), and for each walks
// the reverse call graph recording CATCHES (first matching handler found) or
// PROPAGATES steps, stopping at maxDepth. Limited to the first 10 chains.
func (a *Analyzer) AnalyzeExceptionPropagation(class string, maxDepth int) []*PropagationChain {
	simple := simpleName(class)

	a.mu.RLock()
	defer a.mu.RUnlock()

	var chains []*PropagationChain
	for _, key := range a.sortedBodyKeys() {
		if len(chains) >= 10 {
			break
		}
		body := a.bodies[key]
		if !throwsClass(body, simple) {
			continue
		}

		chain := &PropagationChain{Steps: []PropagationStep{{
			Component: key,
			Action:    ActionThrows,
			Location:  a.location(key),
			Details:   fmt.Sprintf("throws %s", class),
		}}}
		a.walkPropagation(key, simple, 1, maxDepth, chain)
		chains = append(chains, chain)
	}
	return chains
}

func (a *Analyzer) sortedBodyKeys() []string {
	keys := make([]string, 0, len(a.bodies))
	for k := range a.bodies {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func (a *Analyzer) location(key string) string {
	if n, ok := a.nodes[key]; ok {
		return fmt.Sprintf("%s:%d", n.SourceFile, n.LineNumber)
	}
	return key
}

// walkPropagation follows a single deterministic branch of the reverse call
// graph (the lexicographically first caller at each step), modeling one
// chain per throw site, ending at the first handler or maxDepth.
func (a *Analyzer) walkPropagation(key, simple string, depth, maxDepth int, chain *PropagationChain) {
	if depth >= maxDepth {
		return
	}
	callers := a.reverseGraph[key]
	if len(callers) == 0 {
		return
	}

	names := make([]string, 0, len(callers))
	for c := range callers {
		names = append(names, c)
	}
	sort.Strings(names)
	caller := names[0]

	body := a.bodies[caller]
	if catchesClass(body, simple) {
		chain.Steps = append(chain.Steps, PropagationStep{
			Component: caller,
			Action:    ActionCatches,
			Location:  a.location(caller),
			Details:   fmt.Sprintf("catches %s", simple),
		})
		return
	}

	chain.Steps = append(chain.Steps, PropagationStep{
		Component: caller,
		Action:    ActionPropagates,
		Location:  a.location(caller),
		Details:   fmt.Sprintf("propagates %s", simple),
	})
	a.walkPropagation(caller, simple, depth+1, maxDepth, chain)
}
