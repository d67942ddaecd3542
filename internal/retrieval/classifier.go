package retrieval

import "strings"

var conceptualTriggers = []string{
	"how to", "what is", "explain", "purpose", "architecture", "capability",
}

var implementationTriggers = []string{
	"implementation", "code for", "where is", "method", "class", "interface",
}

// Classify labels a query CONCEPTUAL, IMPLEMENTATION, or MIXED by substring
// match against the two trigger sets (spec 4.5). A query hitting both sets,
// or neither, is MIXED.
func Classify(query string) QueryType {
	lower := strings.ToLower(query)

	isConceptual := containsAny(lower, conceptualTriggers)
	isImplementation := containsAny(lower, implementationTriggers)

	switch {
	case isConceptual && !isImplementation:
		return QueryTypeConceptual
	case isImplementation && !isConceptual:
		return QueryTypeImplementation
	default:
		return QueryTypeMixed
	}
}

func containsAny(haystack string, needles []string) bool {
	for _, n := range needles {
		if strings.Contains(haystack, n) {
			return true
		}
	}
	return false
}
