package query

import (
	"github.com/codecortex/codecortex/internal/mcp"
	"github.com/codecortex/codecortex/internal/retrieval"
)

// Dynamic tool names planned by BuildPlan; the tools themselves (backed by
// internal/graph and internal/exception) are registered with the
// *mcp.Registry by the composition root, not by this package.
const (
	ToolCallPath    = "call-path"
	ToolErrorChain  = "error-chain"
	ToolConfigImpact = "config-impact"
	ToolCrossRepo   = "cross-repo"
)

// toolPriority fixes each dynamic tool's ascending execution priority
// (spec 5: "MCP plan executes tools in ascending priority").
var toolPriority = map[string]int{
	ToolCallPath:     0,
	ToolErrorChain:   1,
	ToolConfigImpact: 2,
	ToolCrossRepo:    3,
}

// BuildPlan maps classified categories to the dynamic tools spec 4.9 step 3
// prescribes: code-location adds nothing (retrieval alone suffices);
// method-behavior -> Call-Path; error-diagnosis -> Error-Chain;
// config-impact -> Config-Impact; cross-component -> Cross-Repo plus
// whichever of the above are already implied by the other matched
// categories (multi-label classification surfaces those directly, so no
// extra snippet inspection is needed here).
func BuildPlan(categories []Category, snippets []retrieval.RankedID) mcp.Plan {
	wanted := make(map[string]bool)
	for _, c := range categories {
		switch c {
		case CategoryMethodBehavior:
			wanted[ToolCallPath] = true
		case CategoryErrorDiagnosis:
			wanted[ToolErrorChain] = true
		case CategoryConfigImpact:
			wanted[ToolConfigImpact] = true
		case CategoryCrossComponent:
			wanted[ToolCrossRepo] = true
		case CategoryCodeLocation:
			// no dynamic tool
		}
	}

	ids := make([]string, 0, len(snippets))
	for _, s := range snippets {
		ids = append(ids, s.ID)
	}

	var tools []mcp.PlannedTool
	for name := range wanted {
		tools = append(tools, mcp.PlannedTool{
			ToolName: name,
			Priority: toolPriority[name],
			Required: false,
			Params:   map[string]any{"snippetIDs": ids},
		})
	}
	return mcp.Plan{Tools: tools}
}
