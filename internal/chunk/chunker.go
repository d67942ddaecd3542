package chunk

import (
	"context"
	"regexp"
	"strings"
	"time"
)

// logStatementPattern matches JVM-family logging call sites:
// log(ger).<level>(<args>);.
var logStatementPattern = regexp.MustCompile(`\b(?:log|logger)\.(trace|debug|info|warn|error)\s*\(([^;]+)\);`)

// jvmFamilyLanguages scans for log statements only in languages from the
// JVM family.
var jvmFamilyLanguages = map[string]bool{
	"java": true,
}

// DeterministicChunker implements a fixed-size, overlapping,
// line-addressable chunking algorithm (4.1). Unlike an AST-aware chunker
// it never needs to parse the file, so it never fails on unsupported or
// malformed syntax.
type DeterministicChunker struct {
	options ChunkerOptions
}

// NewDeterministicChunker creates a chunker with the given options, filling
// in defaults for any zero field.
func NewDeterministicChunker(opts ChunkerOptions) *DeterministicChunker {
	if opts.MaxChunkSize <= 0 {
		opts.MaxChunkSize = DefaultMaxChunkSize
	}
	if opts.OverlapSize <= 0 {
		opts.OverlapSize = DefaultOverlapSize
	}
	if opts.MinChunkSize <= 0 {
		opts.MinChunkSize = DefaultMinChunkSize
	}
	if opts.ContextOverlapPercent <= 0 {
		opts.ContextOverlapPercent = DefaultContextOverlapPercent
	}
	return &DeterministicChunker{options: opts}
}

// SupportedExtensions returns nil; the deterministic chunker applies to any
// text file, language tagging is purely cosmetic (see LanguageForPath).
func (c *DeterministicChunker) SupportedExtensions() []string { return nil }

// Chunk splits file content into fixed-size, overlapping, line-addressable chunks.
func (c *DeterministicChunker) Chunk(ctx context.Context, file *FileInput) ([]*Chunk, error) {
	if file == nil {
		return nil, nil
	}
	content := file.Content
	now := time.Now()

	language := file.Language
	if language == "" {
		language = LanguageForPath(file.Path)
	}

	if len(content) <= c.options.MaxChunkSize {
		chunk := &Chunk{
			FilePath:  file.Path,
			Ordinal:   0,
			Type:      ChunkTypeFile,
			Language:  language,
			Content:   content,
			StartLine: 1,
			EndLine:   lastLine(1, content),
			CreatedAt: now,
		}
		attachLogs(chunk, language)
		return []*Chunk{chunk}, nil
	}

	stride := c.options.MaxChunkSize - c.options.OverlapSize
	if stride <= 0 {
		stride = c.options.MaxChunkSize
	}

	type window struct {
		start, end int // byte offsets into content, [start,end)
	}
	var windows []window
	for start := 0; start < len(content); start += stride {
		end := start + c.options.MaxChunkSize
		if end > len(content) {
			end = len(content)
		}
		windows = append(windows, window{start: start, end: end})
		if end == len(content) {
			break
		}
	}

	// Merge a too-small trailing window into the previous one.
	if len(windows) > 1 {
		last := windows[len(windows)-1]
		if last.end-last.start < c.options.MinChunkSize {
			windows = windows[:len(windows)-1]
			windows[len(windows)-1].end = last.end
		}
	}

	chunks := make([]*Chunk, 0, len(windows))
	for i, w := range windows {
		text := content[w.start:w.end]
		startLine := 1 + countLines(content[:w.start])

		// endLine reflects the overlapping source range: subtract the
		// overlap region's line count from what a naive end-of-window
		// line count would give.
		endLine := lastLine(startLine, text)
		if i < len(windows)-1 {
			overlapLen := w.end - stride - w.start
			if overlapLen > 0 && overlapLen <= len(text) {
				overlapRegion := text[len(text)-overlapLenClamp(overlapLen, len(text)):]
				endLine -= countLines(overlapRegion)
			}
		}

		chunk := &Chunk{
			FilePath:  file.Path,
			Ordinal:   i,
			Type:      ChunkTypeChunk,
			Language:  language,
			Content:   text,
			StartLine: startLine,
			EndLine:   endLine,
			CreatedAt: now,
		}
		attachLogs(chunk, language)
		chunks = append(chunks, chunk)
	}

	// Populate contextBefore/contextAfter from neighboring chunks.
	for i, ch := range chunks {
		if i > 0 {
			ch.ContextBefore = tailPercent(chunks[i-1].Content, c.options.ContextOverlapPercent)
		}
		if i < len(chunks)-1 {
			ch.ContextAfter = headPercent(chunks[i+1].Content, c.options.ContextOverlapPercent)
		}
	}

	return chunks, nil
}

func overlapLenClamp(n, max int) int {
	if n > max {
		return max
	}
	return n
}

// attachLogs scans a chunk's content for log statements and attaches any
// matches whose line falls within [StartLine, EndLine]. Regex mismatch
// yields an empty list and never errors.
func attachLogs(chunk *Chunk, language string) {
	if !jvmFamilyLanguages[language] {
		return
	}
	matches := logStatementPattern.FindAllStringSubmatchIndex(chunk.Content, -1)
	for _, m := range matches {
		if m == nil {
			continue
		}
		matchStart := m[0]
		matchLine := chunk.StartLine + countLines(chunk.Content[:matchStart])
		if matchLine < chunk.StartLine || matchLine > chunk.EndLine {
			continue
		}
		level := chunk.Content[m[2]:m[3]]
		text := chunk.Content[m[0]:m[1]]
		chunk.Logs = append(chunk.Logs, LogStatement{
			Level: level,
			Line:  matchLine,
			Text:  text,
		})
	}
}

// countLines returns the number of newline-terminated lines represented by
// s; used to derive startLine/endLine, UTF-8 agnostic (counts raw '\n' bytes).
func countLines(s string) int {
	return strings.Count(s, "\n")
}

// lastLine returns the 1-indexed line holding the last character of text,
// given the line text starts on. A final line without a trailing newline
// still counts.
func lastLine(startLine int, text string) int {
	end := startLine - 1 + countLines(text)
	if !strings.HasSuffix(text, "\n") {
		end++
	}
	return end
}

// tailPercent returns the last pct% of s by character count (rounded
// down, so it is empty when that share is under one character).
func tailPercent(s string, pct int) string {
	n := len(s) * pct / 100
	if n <= 0 {
		return ""
	}
	if n >= len(s) {
		return s
	}
	return s[len(s)-n:]
}

// headPercent returns the first pct% of s by character count.
func headPercent(s string, pct int) string {
	n := len(s) * pct / 100
	if n <= 0 {
		return ""
	}
	if n >= len(s) {
		return s
	}
	return s[:n]
}

var _ Chunker = (*DeterministicChunker)(nil)
