package embed

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"
)

// ProviderType represents an embedding provider.
type ProviderType string

const (
	// ProviderOllama calls an external HTTP embedding provider,
	// cross-platform default.
	ProviderOllama ProviderType = "ollama"

	// ProviderStatic uses deterministic hash-based embeddings, used as a
	// fallback when no provider is reachable and for tests.
	ProviderStatic ProviderType = "static"
)

// NewEmbedder creates an embedder for the given provider.
// CODECORTEX_EMBEDDER overrides provider selection; CODECORTEX_EMBED_CACHE=false
// disables query-embedding caching (enabled by default).
func NewEmbedder(ctx context.Context, provider ProviderType, model string) (Embedder, error) {
	if envProvider := os.Getenv("CODECORTEX_EMBEDDER"); envProvider != "" {
		provider = ParseProvider(envProvider)
	}

	var embedder Embedder
	var err error

	switch provider {
	case ProviderStatic:
		embedder, err = NewStaticEmbedder768(), nil
	case ProviderOllama:
		embedder, err = newOllamaEmbedder(ctx, model)
	default:
		embedder, err = newOllamaEmbedder(ctx, model)
	}
	if err != nil {
		return nil, err
	}

	embedder = NewBatchClient(embedder)

	if !isCacheDisabled() {
		embedder = NewCachedEmbedderWithDefaults(embedder)
	}
	return embedder, nil
}

func isCacheDisabled() bool {
	v := strings.ToLower(os.Getenv("CODECORTEX_EMBED_CACHE"))
	return v == "false" || v == "0" || v == "off" || v == "disabled"
}

// newOllamaEmbedder builds an HTTP embedding provider client, honoring
// environment overrides for host, model and timeout. The timeout override
// lands in OllamaConfig.Timeout, which OllamaEmbedder does not use for its
// request deadlines.
func newOllamaEmbedder(ctx context.Context, model string) (Embedder, error) {
	cfg := DefaultOllamaConfig()
	if model != "" {
		cfg.Model = model
	}
	if host := os.Getenv("CODECORTEX_EMBED_HOST"); host != "" {
		cfg.Host = host
	}
	if modelOverride := os.Getenv("CODECORTEX_EMBED_MODEL"); modelOverride != "" {
		cfg.Model = modelOverride
	}
	if timeoutStr := os.Getenv("CODECORTEX_EMBED_TIMEOUT"); timeoutStr != "" {
		if timeout, err := time.ParseDuration(timeoutStr); err == nil {
			cfg.Timeout = timeout
		}
	}

	embedder, err := NewOllamaEmbedder(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("embedding provider unavailable: %w\n\nTo fix:\n  1. Start a local provider (e.g. `ollama serve`)\n  2. Or fall back to static embeddings: CODECORTEX_EMBEDDER=static", err)
	}
	return embedder, nil
}

// ParseProvider converts a string to ProviderType, defaulting to ProviderOllama.
func ParseProvider(s string) ProviderType {
	switch strings.ToLower(s) {
	case "static":
		return ProviderStatic
	default:
		return ProviderOllama
	}
}

func (p ProviderType) String() string { return string(p) }

// ValidProviders returns all valid provider names.
func ValidProviders() []string {
	return []string{string(ProviderOllama), string(ProviderStatic)}
}

// IsValidProvider checks if a provider name is valid.
func IsValidProvider(s string) bool {
	lower := strings.ToLower(s)
	for _, p := range ValidProviders() {
		if lower == p {
			return true
		}
	}
	return false
}

// EmbedderInfo contains information about an embedder, used by the index
// runner (internal/index/runner.go).
type EmbedderInfo struct {
	Provider   ProviderType
	Model      string
	Dimensions int
	Available  bool
}

// GetInfo returns information about an embedder, unwrapping the query cache.
func GetInfo(ctx context.Context, embedder Embedder) EmbedderInfo {
	info := EmbedderInfo{
		Model:      embedder.ModelName(),
		Dimensions: embedder.Dimensions(),
		Available:  embedder.Available(ctx),
	}

	inner := embedder
	if cached, ok := inner.(*CachedEmbedder); ok {
		inner = cached.inner
	}
	if batch, ok := inner.(*BatchClient); ok {
		inner = batch.Inner()
	}

	switch inner.(type) {
	case *OllamaEmbedder:
		info.Provider = ProviderOllama
	default:
		info.Provider = ProviderStatic
	}
	return info
}

// MustNewEmbedder creates an embedder and panics on failure.
// Use only in tests or initialization code where failure is fatal.
func MustNewEmbedder(ctx context.Context, provider ProviderType, model string) Embedder {
	embedder, err := NewEmbedder(ctx, provider, model)
	if err != nil {
		panic(fmt.Sprintf("failed to create embedder: %v", err))
	}
	return embedder
}
