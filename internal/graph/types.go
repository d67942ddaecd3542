// Package graph is the static call-graph and exception-hierarchy analyzer
// (Bytecode Analyzer, adapted). The reference system extracts MethodNode,
// CallGraph and ExceptionNode structures from compiled class bytecode; a Go
// rendition has no bytecode to parse, so the same abstractions are built by
// walking the tree-sitter AST of the scanned source tree instead.
package graph

// MethodNode identifies a method or function by (className, methodName,
// paramSignature). className is "" for free functions in languages without
// classes (Go). Equality is by the identity triple; everything else is an
// attribute.
type MethodNode struct {
	ClassName      string
	MethodName     string
	ParamSignature string

	IsInterface bool
	IsAbstract  bool
	SourceFile  string
	LineNumber  int
}

// Key returns the methodKey used to index forward/reverse call graphs:
// className + "." + methodName. Index stores nodes under this bare key only
// and does not fill in ParamSignature, so overloads of one name share a key.
func (m MethodNode) Key() string {
	if m.ClassName == "" {
		return m.MethodName
	}
	return m.ClassName + "." + m.MethodName
}

// QualifiedKey appends the parameter signature for overload disambiguation.
func (m MethodNode) QualifiedKey() string {
	if m.ParamSignature == "" {
		return m.Key()
	}
	return m.Key() + "(" + m.ParamSignature + ")"
}

// Equal compares two nodes by identity triple.
func (m MethodNode) Equal(other MethodNode) bool {
	return m.ClassName == other.ClassName &&
		m.MethodName == other.MethodName &&
		m.ParamSignature == other.ParamSignature
}

// CallGraph is a directed graph of MethodNode reachable from one
// distinguished root, built per query by AnalyzeMethod. Cycles are allowed;
// traversal is cycle-safe via a visited set.
type CallGraph struct {
	RootNode  *MethodNode
	Nodes     map[string]*MethodNode // methodKey -> node
	Edges     map[string][]string    // methodKey -> callee methodKeys, this traversal only
	Truncated bool                   // true if maxDepth or maxNodes was hit
}

// TypeDescriptor records a class/interface's declared shape, used for
// implementation-discovery (dynamic dispatch) and exception hierarchy walks.
type TypeDescriptor struct {
	Name        string
	IsInterface bool
	IsAbstract  bool
	Extends     string   // superclass/base, "" if none
	Implements  []string // directly implemented interfaces
	Methods     []string // declared method names (unqualified)
	SourceFile  string
	LineNumber  int
}

// ExceptionNode identifies an exception/error type; identity is the fully
// qualified class name. Parents form a DAG rooted at a Throwable-equivalent
// type and are cached process-wide once resolved.
type ExceptionNode struct {
	ClassName string
	Parents   []string
	Unchecked bool // true if RuntimeException/Error (or Go's error-is-a-value analog) appears on the chain
}

// PropagationAction is one step in a PropagationChain.
type PropagationAction string

const (
	ActionThrows     PropagationAction = "THROWS"
	ActionCatches    PropagationAction = "CATCHES"
	ActionPropagates PropagationAction = "PROPAGATES"
)

// PropagationStep is one node in an ordered PropagationChain.
type PropagationStep struct {
	Component string
	Action    PropagationAction
	Location  string
	Details   string
}

// PropagationChain is an ordered list of steps rooted at a throw site, ending
// either in a CATCHES step or truncated at maxDepth.
type PropagationChain struct {
	Steps []PropagationStep
}

// SourceFile is one file handed to the analyzer's one-shot Index pass.
type SourceFile struct {
	Path     string
	Content  string
	Language string // tree-sitter registry name: go, typescript, tsx, javascript, jsx, python
}
