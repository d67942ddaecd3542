package index

import (
	"context"
	"fmt"
	"log/slog"
	"time"
)

// Stage identifies a phase of the indexing pipeline.
type Stage int

const (
	StageScanning Stage = iota
	StageChunking
	StageContextual
	StageEmbedding
	StageIndexing
)

func (s Stage) String() string {
	switch s {
	case StageScanning:
		return "scanning"
	case StageChunking:
		return "chunking"
	case StageContextual:
		return "contextual"
	case StageEmbedding:
		return "embedding"
	case StageIndexing:
		return "indexing"
	default:
		return "unknown"
	}
}

// ProgressEvent reports the state of a single stage at a point in time.
type ProgressEvent struct {
	Stage       Stage
	Message     string
	Current     int
	Total       int
	CurrentFile string
}

// ErrorEvent reports a per-file failure encountered during indexing.
type ErrorEvent struct {
	File   string
	Err    error
	IsWarn bool
}

// StageTimings records how long each pipeline stage took.
type StageTimings struct {
	Scan    time.Duration
	Chunk   time.Duration
	Context time.Duration
	Embed   time.Duration
	Index   time.Duration
}

// EmbedderInfo summarizes which embedding backend produced an index.
type EmbedderInfo struct {
	Backend    string
	Model      string
	Dimensions int
}

// CompletionStats summarizes a finished indexing run.
type CompletionStats struct {
	Files    int
	Chunks   int
	Duration time.Duration
	Errors   int
	Warnings int
	Stages   StageTimings
	Embedder EmbedderInfo
}

// Renderer receives progress notifications from a Runner. Implementations
// decide how (or whether) to surface them to an operator: LogRenderer logs
// each event, and JobRenderer additionally keeps the latest state for
// Snapshot.
type Renderer interface {
	UpdateProgress(ProgressEvent)
	AddError(ErrorEvent)
	Complete(CompletionStats)
}

// LogRenderer renders progress through structured logging. It is the
// default Renderer for non-interactive callers such as the HTTP API,
// where an operator tails logs rather than watching a terminal.
type LogRenderer struct{}

// NewLogRenderer returns a Renderer that logs every event via slog.
func NewLogRenderer() *LogRenderer {
	return &LogRenderer{}
}

func (LogRenderer) UpdateProgress(e ProgressEvent) {
	attrs := []any{
		slog.String("stage", e.Stage.String()),
	}
	if e.Total > 0 {
		attrs = append(attrs, slog.Int("current", e.Current), slog.Int("total", e.Total))
	}
	if e.CurrentFile != "" {
		attrs = append(attrs, slog.String("file", e.CurrentFile))
	}
	if e.Message != "" {
		attrs = append(attrs, slog.String("message", e.Message))
	}
	slog.Info("index_progress", attrs...)
}

func (LogRenderer) AddError(e ErrorEvent) {
	level := slog.LevelError
	if e.IsWarn {
		level = slog.LevelWarn
	}
	slog.Log(context.Background(), level, "index_file_error",
		slog.String("file", e.File),
		slog.String("error", fmt.Sprint(e.Err)))
}

func (LogRenderer) Complete(stats CompletionStats) {
	slog.Info("index_progress_complete",
		slog.Int("files", stats.Files),
		slog.Int("chunks", stats.Chunks),
		slog.String("duration", stats.Duration.String()),
		slog.Int("errors", stats.Errors),
		slog.Int("warnings", stats.Warnings),
		slog.String("embedder_backend", stats.Embedder.Backend),
		slog.String("embedder_model", stats.Embedder.Model))
}

// JobRenderer accumulates progress into a snapshot readable through
// Snapshot, in addition to passing each event to its inner Renderer. The
// generate commands use it in verbose mode; no HTTP route exposes it.
type JobRenderer struct {
	inner    Renderer
	snapshot ProgressEvent
	errors   []ErrorEvent
	done     *CompletionStats
}

// NewJobRenderer wraps an inner Renderer (typically a LogRenderer) and
// retains the latest event so callers can poll Snapshot().
func NewJobRenderer(inner Renderer) *JobRenderer {
	if inner == nil {
		inner = NewLogRenderer()
	}
	return &JobRenderer{inner: inner}
}

func (j *JobRenderer) UpdateProgress(e ProgressEvent) {
	j.snapshot = e
	j.inner.UpdateProgress(e)
}

func (j *JobRenderer) AddError(e ErrorEvent) {
	j.errors = append(j.errors, e)
	j.inner.AddError(e)
}

func (j *JobRenderer) Complete(stats CompletionStats) {
	j.done = &stats
	j.inner.Complete(stats)
}

// Snapshot returns the latest progress event, the accumulated errors, and
// the completion stats (nil until Complete has been called).
func (j *JobRenderer) Snapshot() (ProgressEvent, []ErrorEvent, *CompletionStats) {
	return j.snapshot, j.errors, j.done
}
