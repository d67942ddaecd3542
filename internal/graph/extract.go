package graph

import (
	"regexp"
	"strings"
)

// callPattern finds call-site-shaped text: a bare or dotted identifier
// immediately followed by an opening parenthesis. The chunk package's AST
// bindings don't preserve tree-sitter field names, which makes precise
// call-target disambiguation by node shape unreliable across four
// languages; scanning the symbol's own source range with the same
// regex-over-text idiom the Exception Analyzer (4.7) uses for throw/catch
// sites is simpler and good enough for a best-effort call graph.
var callPattern = regexp.MustCompile(`\b([A-Za-z_]\w*(?:\.[A-Za-z_]\w*)?)\s*\(`)

var callKeywords = map[string]bool{
	"if": true, "for": true, "while": true, "switch": true, "catch": true,
	"return": true, "func": true, "function": true, "def": true, "class": true,
	"new": true, "else": true, "match": true, "range": true, "select": true,
	"go": true, "defer": true, "case": true, "except": true,
}

// extractCallTargets returns the deduplicated, order-preserving list of
// call-site text found in body (e.g. "svc.Handle", "strconv.Itoa", "helper").
func extractCallTargets(body string) []string {
	matches := callPattern.FindAllStringSubmatch(body, -1)
	seen := make(map[string]bool, len(matches))
	out := make([]string, 0, len(matches))
	for _, m := range matches {
		target := m[1]
		lastSeg := target
		if idx := strings.LastIndex(target, "."); idx >= 0 {
			lastSeg = target[idx+1:]
		}
		if callKeywords[lastSeg] || seen[target] {
			continue
		}
		seen[target] = true
		out = append(out, target)
	}
	return out
}

var goReceiverPattern = regexp.MustCompile(`func\s*\(\s*\w+\s+\*?([A-Za-z_]\w*)\s*\)`)

// goReceiverType extracts the receiver type name from a Go method's
// signature line ("func (s *Store) Get(...)" -> "Store"), or "" for a free
// function.
func goReceiverType(signature string) string {
	m := goReceiverPattern.FindStringSubmatch(signature)
	if m == nil {
		return ""
	}
	return m[1]
}

var (
	classHeritagePattern     = regexp.MustCompile(`class\s+\w+(?:\s+extends\s+([A-Za-z_][\w.]*))?(?:\s+implements\s+([\w,\s]+))?`)
	interfaceHeritagePattern = regexp.MustCompile(`interface\s+\w+(?:\s+extends\s+([\w,\s]+))?`)
	pyClassBasesPattern      = regexp.MustCompile(`class\s+\w+\s*\(([^)]*)\)`)
)

// extractHeritage derives a type's superclass and implemented interfaces
// from its declaration signature, language-aware. Go has no class
// inheritance syntax (interface satisfaction is structural) so both return
// empty for "go", and FindImplementations does not report Go types.
func extractHeritage(signature, language string) (extends string, implements []string) {
	switch language {
	case "typescript", "tsx", "javascript", "jsx":
		if m := classHeritagePattern.FindStringSubmatch(signature); m != nil {
			extends = strings.TrimSpace(m[1])
			implements = splitNames(m[2])
			return
		}
		if m := interfaceHeritagePattern.FindStringSubmatch(signature); m != nil {
			implements = splitNames(m[1])
		}
	case "python":
		if m := pyClassBasesPattern.FindStringSubmatch(signature); m != nil {
			bases := splitNames(m[1])
			if len(bases) > 0 {
				extends = bases[0]
				implements = bases[1:]
			}
		}
	}
	return
}

func splitNames(raw string) []string {
	if strings.TrimSpace(raw) == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}
