package chunk

import "strings"

// BoilerplateFilter classifies a chunk as boilerplate so the ingestion
// pipeline can skip embedding it (spec 4.2). Failure to classify defaults
// to "not boilerplate" — fail-open, since embedding an extra chunk is the
// safer side of a mistake than silently dropping real content.
type BoilerplateFilter struct {
	perLanguage map[string][]string // language -> boilerplate substrings matched per line
}

// NewBoilerplateFilter builds a filter from a per-language configuration of
// literal boilerplate lines (e.g. license headers, generated-file banners).
func NewBoilerplateFilter(perLanguage map[string][]string) *BoilerplateFilter {
	if perLanguage == nil {
		perLanguage = DefaultBoilerplatePatterns()
	}
	return &BoilerplateFilter{perLanguage: perLanguage}
}

// DefaultBoilerplatePatterns returns a conservative built-in configuration.
func DefaultBoilerplatePatterns() map[string][]string {
	return map[string][]string{
		"java": {
			"// Code generated by",
			"// GENERATED FILE - DO NOT EDIT",
			"/* eslint-disable */",
		},
		"go": {
			"// Code generated by",
			"// DO NOT EDIT.",
		},
		"plaintext": {},
	}
}

// IsBoilerplate reports whether a chunk is boilerplate: every non-blank
// line matches a configured pattern for the chunk's language, or the
// trimmed content is empty.
func (f *BoilerplateFilter) IsBoilerplate(c *Chunk) bool {
	if c == nil {
		return false
	}
	trimmed := strings.TrimSpace(c.Content)
	if trimmed == "" {
		return true
	}

	patterns, ok := f.perLanguage[c.Language]
	if !ok || len(patterns) == 0 {
		return false
	}

	lines := strings.Split(c.Content, "\n")
	sawMatch := false
	for _, line := range lines {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		matched := false
		for _, p := range patterns {
			if strings.Contains(line, p) {
				matched = true
				break
			}
		}
		if !matched {
			return false
		}
		sawMatch = true
	}
	return sawMatch
}
