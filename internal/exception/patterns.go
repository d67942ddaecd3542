package exception

import (
	"fmt"
	"regexp"
	"strings"
)

func throwPattern(simpleName string) *regexp.Regexp {
	return regexp.MustCompile(`throw\s+new\s+` + regexp.QuoteMeta(simpleName) + `\s*\(`)
}

// catchPattern captures the bound identifier (catch(<simpleName> <ident>))
// so the catch-and-log-only check can match on it.
func catchPattern(simpleName string) *regexp.Regexp {
	return regexp.MustCompile(`catch\s*\(\s*` + regexp.QuoteMeta(simpleName) + `\s+(\w+)\s*\)`)
}

var wrapConstructorPattern = regexp.MustCompile(`new\s+([\w.]+Exception)\s*\(([^)]*)\)`)

func loggingPattern(simpleName string) *regexp.Regexp {
	return regexp.MustCompile(`\b(?:log|logger)\.(?:error|warn|info|debug|trace)\([^)]*` + regexp.QuoteMeta(simpleName) + `[^)]*\)`)
}

func commonMessagePattern(simpleName string) *regexp.Regexp {
	return regexp.MustCompile(`new\s+` + regexp.QuoteMeta(simpleName) + `\s*\(\s*"([^"]*)"`)
}

var printStackTracePattern = regexp.MustCompile(`\w+\.printStackTrace\s*\(\s*\)`)

var sleepPatterns = []*regexp.Regexp{
	regexp.MustCompile(`Thread\.sleep\s*\(`),
	regexp.MustCompile(`time\.sleep\s*\(`),
	regexp.MustCompile(`\bsleep\s*\(`),
}

// lineOf returns the 1-indexed line number containing byte offset pos in content.
func lineOf(content string, pos int) int {
	if pos < 0 || pos > len(content) {
		return 0
	}
	return strings.Count(content[:pos], "\n") + 1
}

func location(path string, line int) string {
	return fmt.Sprintf("%s:%d", path, line)
}

// catchBody returns the text between the braces of the catch block whose
// header match ends at headerEnd, by counting brace depth from the first
// "{" found after headerEnd. Returns "" if no balanced block is found.
func catchBody(content string, headerEnd int) string {
	open := strings.IndexByte(content[headerEnd:], '{')
	if open < 0 {
		return ""
	}
	open += headerEnd

	depth := 0
	for i := open; i < len(content); i++ {
		switch content[i] {
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return content[open+1 : i]
			}
		}
	}
	return ""
}
