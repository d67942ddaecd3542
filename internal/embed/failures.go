package embed

import (
	"crypto/sha256"
	"encoding/hex"
	"sync"
	"time"
)

const failurePreviewLen = 200

// EmbeddingFailure records a text that could not be embedded, keyed by
// content hash so repeated failures of the same text accumulate attempts
// instead of duplicating (spec 3, "EmbeddingFailure").
type EmbeddingFailure struct {
	TextHash    string
	TextPreview string
	Cause       string
	FirstSeen   time.Time
	Attempts    int
}

// FailureLog is an append-mostly, concurrency-safe store of EmbeddingFailure
// keyed by content hash. Entries are retained until cleared or the text is
// successfully re-embedded.
type FailureLog struct {
	mu       sync.Mutex
	failures map[string]*EmbeddingFailure
}

// NewFailureLog creates an empty failure log.
func NewFailureLog() *FailureLog {
	return &FailureLog{failures: make(map[string]*EmbeddingFailure)}
}

// HashText returns the content-hash identity for a text.
func HashText(text string) string {
	sum := sha256.Sum256([]byte(text))
	return hex.EncodeToString(sum[:])
}

// Record appends or bumps the attempt count for a permanent failure.
func (l *FailureLog) Record(text string, cause error) *EmbeddingFailure {
	l.mu.Lock()
	defer l.mu.Unlock()

	hash := HashText(text)
	preview := text
	if len(preview) > failurePreviewLen {
		preview = preview[:failurePreviewLen]
	}

	f, ok := l.failures[hash]
	if !ok {
		f = &EmbeddingFailure{
			TextHash:    hash,
			TextPreview: preview,
			FirstSeen:   time.Now(),
		}
		l.failures[hash] = f
	}
	f.Attempts++
	if cause != nil {
		f.Cause = cause.Error()
	}
	return f
}

// Clear removes a recorded failure, used after a successful re-embedding.
func (l *FailureLog) Clear(text string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.failures, HashText(text))
}

// List returns a snapshot of all recorded failures.
func (l *FailureLog) List() []*EmbeddingFailure {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]*EmbeddingFailure, 0, len(l.failures))
	for _, f := range l.failures {
		cp := *f
		out = append(out, &cp)
	}
	return out
}

// Count returns the number of distinct failing texts currently recorded.
func (l *FailureLog) Count() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.failures)
}
