// Package prompt implements the Prompt Builder (C11): deterministic
// assembly of a synthesis prompt from retrieved snippets, knowledge-graph
// relationships, workflow edges and knowledge-base articles.
package prompt

import (
	"fmt"
	"sort"
	"strings"
)

// fullFileTriggers are the query substrings that force full-file content
// into the prompt even when not explicitly requested (spec 4.11).
var fullFileTriggers = []string{"full file", "entire file", "complete file", "full context", "full path"}

// Snippet is one retrieved code/doc chunk with the metadata the prompt
// enumerates alongside it.
type Snippet struct {
	FilePath        string
	StartLine       int
	EndLine         int
	Purpose         string
	Description     string
	Capabilities    []string
	Logs            []string
	FullFileContent string // populated by the caller only when wanted
}

// WorkflowEdge is one discovered call/data-flow edge between components.
type WorkflowEdge struct {
	SourceFile string
	From       string
	To         string
	Confidence float64
	Pattern    string
}

// GraphRelationship is one knowledge-graph edge (e.g. extends, implements,
// calls) surfaced alongside retrieval results.
type GraphRelationship struct {
	Subject  string
	Relation string
	Object   string
}

// Article is one knowledge-base entry relevant to the query.
type Article struct {
	Title   string
	Content string
}

// Input bundles everything the Prompt Builder assembles into one prompt.
type Input struct {
	Query             string
	Articles          []Article
	Snippets          []Snippet
	WorkflowEdges     []WorkflowEdge
	Relationships     []GraphRelationship
	ForceFullFile     bool
}

// Build assembles the deterministic synthesis prompt described by spec
// 4.11: role and rules, knowledge articles, code snippets (de-duplicated
// full-file content per file), workflow edges grouped by source file,
// knowledge-graph relationships, and the repeated query.
func Build(in Input) string {
	var b strings.Builder

	writeRoleAndRules(&b)
	writeArticles(&b, in.Articles)
	writeSnippets(&b, in.Snippets, wantsFullFile(in.Query) || in.ForceFullFile)
	writeWorkflowEdges(&b, in.WorkflowEdges)
	writeRelationships(&b, in.Relationships)
	writeQuery(&b, in.Query)

	return b.String()
}

func wantsFullFile(query string) bool {
	lower := strings.ToLower(query)
	for _, trigger := range fullFileTriggers {
		if strings.Contains(lower, trigger) {
			return true
		}
	}
	return false
}

func writeRoleAndRules(b *strings.Builder) {
	b.WriteString("# Role\n\n")
	b.WriteString("You are a senior engineer answering questions about this codebase. ")
	b.WriteString("Ground every claim in the evidence below; never invent a file, function, or line number that isn't shown.\n\n")
}

func writeArticles(b *strings.Builder, articles []Article) {
	if len(articles) == 0 {
		return
	}
	b.WriteString("# Knowledge Articles\n\n")
	for _, a := range articles {
		fmt.Fprintf(b, "## %s\n\n%s\n\n", a.Title, a.Content)
	}
}

func writeSnippets(b *strings.Builder, snippets []Snippet, includeFullFile bool) {
	if len(snippets) == 0 {
		return
	}
	b.WriteString("# Code Snippets\n\n")

	seenFullFile := make(map[string]bool)
	for _, s := range snippets {
		fmt.Fprintf(b, "## %s (lines %d-%d)\n\n", s.FilePath, s.StartLine, s.EndLine)
		if s.Purpose != "" {
			fmt.Fprintf(b, "Purpose: %s\n\n", s.Purpose)
		}
		if s.Description != "" {
			fmt.Fprintf(b, "Description: %s\n\n", s.Description)
		}
		if len(s.Capabilities) > 0 {
			fmt.Fprintf(b, "Capabilities: %s\n\n", strings.Join(s.Capabilities, ", "))
		}
		if len(s.Logs) > 0 {
			b.WriteString("Logs:\n")
			for _, l := range s.Logs {
				fmt.Fprintf(b, "- %s\n", l)
			}
			b.WriteString("\n")
		}
		if includeFullFile && s.FullFileContent != "" && !seenFullFile[s.FilePath] {
			seenFullFile[s.FilePath] = true
			fmt.Fprintf(b, "Full file content:\n\n```\n%s\n```\n\n", s.FullFileContent)
		}
	}
}

func writeWorkflowEdges(b *strings.Builder, edges []WorkflowEdge) {
	if len(edges) == 0 {
		return
	}
	b.WriteString("# Workflow Edges\n\n")

	byFile := make(map[string][]WorkflowEdge)
	var files []string
	for _, e := range edges {
		if _, ok := byFile[e.SourceFile]; !ok {
			files = append(files, e.SourceFile)
		}
		byFile[e.SourceFile] = append(byFile[e.SourceFile], e)
	}
	sort.Strings(files)

	for _, f := range files {
		fmt.Fprintf(b, "## %s\n\n", f)
		for _, e := range byFile[f] {
			arrow := "->"
			if e.Confidence < 0.5 {
				arrow = "-?->"
			}
			fmt.Fprintf(b, "- %s %s %s [%s] (confidence %.2f)\n", e.From, arrow, e.To, e.Pattern, e.Confidence)
		}
		b.WriteString("\n")
	}
}

func writeRelationships(b *strings.Builder, rels []GraphRelationship) {
	if len(rels) == 0 {
		return
	}
	b.WriteString("# Knowledge Graph Relationships\n\n")
	for _, r := range rels {
		fmt.Fprintf(b, "- %s %s %s\n", r.Subject, r.Relation, r.Object)
	}
	b.WriteString("\n")
}

func writeQuery(b *strings.Builder, query string) {
	b.WriteString("# Question\n\n")
	fmt.Fprintf(b, "%s\n\n", query)
	b.WriteString("Answer using only the evidence above. Reference specific file paths and line numbers for every claim.\n")
}
