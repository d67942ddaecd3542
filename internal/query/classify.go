package query

import "strings"

// Category is one of the five query intents the Hybrid Query Engine plans
// tool execution around (spec 4.9). Classification is multi-label: a query
// may match more than one category.
type Category string

const (
	CategoryCodeLocation   Category = "code-location"
	CategoryMethodBehavior Category = "method-behavior"
	CategoryErrorDiagnosis Category = "error-diagnosis"
	CategoryConfigImpact   Category = "config-impact"
	CategoryCrossComponent Category = "cross-component"
)

var categoryTriggers = map[Category][]string{
	CategoryCodeLocation:   {"where is", "find", "locate", "which file", "what file"},
	CategoryMethodBehavior: {"how does", "what does", "behavior", "behaves", "method", "function returns"},
	CategoryErrorDiagnosis: {"error", "exception", "fail", "crash", "stack trace", "bug"},
	CategoryConfigImpact:   {"config", "setting", "flag", "environment variable", "if i change", "what happens if"},
	CategoryCrossComponent: {"across", "integration", "end-to-end", "multiple services", "other repo", "dependency"},
}

// Classify labels query with every category it matches by substring. A
// query matching none defaults to CategoryCodeLocation, the intent whose
// plan step adds no dynamic tool, so an unrecognized query still falls back
// to retrieval-only synthesis rather than an empty plan.
func Classify(query string) []Category {
	lower := strings.ToLower(query)

	var categories []Category
	for _, c := range []Category{CategoryCodeLocation, CategoryMethodBehavior, CategoryErrorDiagnosis, CategoryConfigImpact, CategoryCrossComponent} {
		for _, trigger := range categoryTriggers[c] {
			if strings.Contains(lower, trigger) {
				categories = append(categories, c)
				break
			}
		}
	}

	if len(categories) == 0 {
		return []Category{CategoryCodeLocation}
	}
	return categories
}
