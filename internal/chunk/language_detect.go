package chunk

import (
	"path/filepath"
	"strings"
)

// extensionLanguages maps a recognized file extension to its chunk
// language tag, per spec 4.1 ("Recognized languages"). This is
// independent of LanguageRegistry's tree-sitter grammars: it only governs
// how a chunk's Language field is tagged and whether log extraction
// applies, not how the file is parsed for the call-graph analyzer.
var extensionLanguages = map[string]string{
	".java":       "java",
	".py":         "py",
	".js":         "js",
	".ts":         "ts",
	".html":       "html",
	".css":        "css",
	".xml":        "xml",
	".json":       "json",
	".yaml":       "yaml",
	".yml":        "yaml",
	".properties": "properties",
}

// LanguageForPath returns the recognized language for a file path by
// extension, defaulting to "plaintext".
func LanguageForPath(path string) string {
	ext := strings.ToLower(filepath.Ext(path))
	if lang, ok := extensionLanguages[ext]; ok {
		return lang
	}
	return "plaintext"
}
