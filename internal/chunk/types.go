package chunk

import (
	"context"
	"time"
)

// Chunk size defaults, character-based per the deterministic windowing
// algorithm (not token-based AST chunking).
const (
	DefaultMaxChunkSize           = 8000 // characters
	DefaultOverlapSize            = 400  // characters
	DefaultMinChunkSize           = 200  // characters; smaller trailing windows merge into the previous chunk
	DefaultContextOverlapPercent  = 10   // percent of neighbor content captured as contextBefore/contextAfter
)

// ChunkType distinguishes a whole-file chunk from a windowed slice of a larger file.
type ChunkType string

const (
	ChunkTypeFile  ChunkType = "file"
	ChunkTypeChunk ChunkType = "chunk"
)

// LogStatement is a single logging call site discovered inside a chunk's line range.
type LogStatement struct {
	Level string // trace, debug, info, warn, error
	Line  int
	Text  string // the full matched call, e.g. `log.warn("retrying {}", attempt)`
}

// Chunk is the deterministic, line-addressable unit produced by the Chunker.
// Identity is FilePath + "#" + Ordinal (see ID()).
type Chunk struct {
	FilePath      string
	Ordinal       int
	Type          ChunkType
	Language      string
	Content       string
	ContextBefore string
	ContextAfter  string
	StartLine     int // 1-indexed, inclusive
	EndLine       int // 1-indexed, inclusive
	Logs          []LogStatement
	CreatedAt     time.Time
}

// ID returns the chunk identifier: fileRelativePath "#" ordinalIndex.
func (c *Chunk) ID() string {
	return c.FilePath + "#" + itoa(c.Ordinal)
}

func itoa(n int) string {
	if n == 0 {
		return "0"
	}
	neg := n < 0
	if neg {
		n = -n
	}
	var buf [20]byte
	i := len(buf)
	for n > 0 {
		i--
		buf[i] = byte('0' + n%10)
		n /= 10
	}
	if neg {
		i--
		buf[i] = '-'
	}
	return string(buf[i:])
}

// FileInput is input to the Chunker.
type FileInput struct {
	Path     string // Relative path
	Content  string // File content (UTF-8 text)
	Language string // Recognized language name, or "plaintext"
}

// ChunkerOptions configures the deterministic chunker.
type ChunkerOptions struct {
	MaxChunkSize          int // characters
	OverlapSize           int // characters
	MinChunkSize          int // characters; trailing windows below this merge into the previous chunk
	ContextOverlapPercent int // percent of neighbor chunk content copied into ContextBefore/ContextAfter
}

// DefaultChunkerOptions returns the default windowing parameters.
func DefaultChunkerOptions() ChunkerOptions {
	return ChunkerOptions{
		MaxChunkSize:          DefaultMaxChunkSize,
		OverlapSize:           DefaultOverlapSize,
		MinChunkSize:          DefaultMinChunkSize,
		ContextOverlapPercent: DefaultContextOverlapPercent,
	}
}

// Chunker splits file text into deterministic, overlapping, line-addressable chunks.
type Chunker interface {
	Chunk(ctx context.Context, file *FileInput) ([]*Chunk, error)
	SupportedExtensions() []string
}

// SymbolType represents the kind of code symbol extracted from parsing.
type SymbolType string

const (
	SymbolTypeFunction  SymbolType = "function"
	SymbolTypeClass     SymbolType = "class"
	SymbolTypeInterface SymbolType = "interface"
	SymbolTypeType      SymbolType = "type"
	SymbolTypeVariable  SymbolType = "variable"
	SymbolTypeConstant  SymbolType = "constant"
	SymbolTypeMethod    SymbolType = "method"
)

// Symbol represents a code symbol extracted from an AST; the graph package
// turns these into MethodNode identities for the Bytecode/static Analyzer.
type Symbol struct {
	Name       string
	Type       SymbolType
	StartLine  int
	EndLine    int
	Signature  string
	DocComment string
}

// Tree represents a parsed AST (used by the graph package's static analyzer).
type Tree struct {
	Root     *Node
	Source   []byte
	Language string
}

// Node represents a node in the AST.
type Node struct {
	Type       string
	StartByte  uint32
	EndByte    uint32
	StartPoint Point
	EndPoint   Point
	Children   []*Node
	HasError   bool
}

// Point represents a position in the source code.
type Point struct {
	Row    uint32 // 0-indexed line number
	Column uint32
}

// LanguageConfig holds tree-sitter configuration for a supported language.
type LanguageConfig struct {
	Name       string
	Extensions []string

	FunctionTypes  []string
	ClassTypes     []string
	InterfaceTypes []string
	MethodTypes    []string
	TypeDefTypes   []string
	ConstantTypes  []string
	VariableTypes  []string

	NameField string
}
