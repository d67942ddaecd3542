package store

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/codecortex/codecortex/internal/embed"
	"github.com/codecortex/codecortex/internal/fslock"
)

// namespaceShard holds one namespace's vector index, metadata map and
// embedding failure log (spec 4.4's "per-namespace state").
type namespaceShard struct {
	mu       sync.RWMutex
	vectors  *HNSWStore
	metadata map[string]*EmbeddingMetadata
	failures *embed.FailureLog
	dirty    bool
}

// NamespacedVectorStore partitions vector storage per repository namespace.
// Namespaces are isolated: a findSimilar call scoped to namespace A never
// returns an identifier stored only under namespace B.
type NamespacedVectorStore struct {
	mu         sync.RWMutex
	baseDir    string
	dimensions int
	config     VectorStoreConfig
	shards     map[string]*namespaceShard
	lock       *fslock.FileLock
}

// NewNamespacedVectorStore creates an empty store rooted at baseDir
// (typically "<index-dir>/vectors").
func NewNamespacedVectorStore(baseDir string, cfg VectorStoreConfig) *NamespacedVectorStore {
	return &NamespacedVectorStore{
		baseDir:    baseDir,
		dimensions: cfg.Dimensions,
		config:     cfg,
		shards:     make(map[string]*namespaceShard),
		lock:       fslock.New(baseDir, ".index.lock"),
	}
}

func (s *NamespacedVectorStore) shardFor(ns string) (*namespaceShard, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if shard, ok := s.shards[ns]; ok {
		return shard, nil
	}

	hnswStore, err := NewHNSWStore(s.config)
	if err != nil {
		return nil, fmt.Errorf("create namespace %q index: %w", ns, err)
	}
	shard := &namespaceShard{
		vectors:  hnswStore,
		metadata: make(map[string]*EmbeddingMetadata),
		failures: embed.NewFailureLog(),
	}
	s.shards[ns] = shard
	return shard, nil
}

// Store upserts a vector and its metadata atomically within a namespace.
func (s *NamespacedVectorStore) Store(ctx context.Context, id string, vec []float32, meta *EmbeddingMetadata, ns string) error {
	if len(vec) != s.dimensions {
		return ErrDimensionMismatch{Expected: s.dimensions, Got: len(vec)}
	}
	if meta != nil {
		meta.RepositoryNamespace = ns
	}

	shard, err := s.shardFor(ns)
	if err != nil {
		return err
	}

	shard.mu.Lock()
	defer shard.mu.Unlock()

	if err := shard.vectors.Add(ctx, []string{id}, [][]float32{vec}); err != nil {
		return err
	}
	shard.metadata[id] = meta
	shard.dirty = true
	return nil
}

// FindSimilar ranks chunks by cosine similarity against q, restricted to
// namespaces (or the union of all namespaces when empty).
func (s *NamespacedVectorStore) FindSimilar(ctx context.Context, q []float32, k int, minSim float32, namespaces []string) ([]EmbeddingMatch, error) {
	targets := s.resolveNamespaces(namespaces)

	var all []EmbeddingMatch
	for _, ns := range targets {
		s.mu.RLock()
		shard, ok := s.shards[ns]
		s.mu.RUnlock()
		if !ok {
			continue
		}

		shard.mu.RLock()
		results, err := shard.vectors.Search(ctx, q, k)
		if err != nil {
			shard.mu.RUnlock()
			return nil, fmt.Errorf("search namespace %q: %w", ns, err)
		}
		for _, r := range results {
			if r.Score < minSim {
				continue
			}
			all = append(all, EmbeddingMatch{
				ID:        r.ID,
				Score:     r.Score,
				Namespace: ns,
				Metadata:  shard.metadata[r.ID],
			})
		}
		shard.mu.RUnlock()
	}

	sort.Slice(all, func(i, j int) bool { return all[i].Score > all[j].Score })
	if len(all) > k {
		all = all[:k]
	}
	return all, nil
}

// FindByFilePath returns every chunk whose metadata FilePath equals or is
// suffix-matched by filePath, scoped to namespaces (or all, when empty).
func (s *NamespacedVectorStore) FindByFilePath(filePath string, namespaces []string) []EmbeddingMatch {
	targets := s.resolveNamespaces(namespaces)

	var matches []EmbeddingMatch
	for _, ns := range targets {
		s.mu.RLock()
		shard, ok := s.shards[ns]
		s.mu.RUnlock()
		if !ok {
			continue
		}

		shard.mu.RLock()
		for id, meta := range shard.metadata {
			if meta == nil {
				continue
			}
			if meta.FilePath == filePath || strings.HasSuffix(meta.FilePath, filePath) {
				matches = append(matches, EmbeddingMatch{ID: id, Namespace: ns, Metadata: meta})
			}
		}
		shard.mu.RUnlock()
	}
	return matches
}

// Size returns the total entry count across namespaces (or all, when empty).
func (s *NamespacedVectorStore) Size(namespaces []string) int {
	targets := s.resolveNamespaces(namespaces)
	total := 0
	for _, ns := range targets {
		s.mu.RLock()
		shard, ok := s.shards[ns]
		s.mu.RUnlock()
		if !ok {
			continue
		}
		shard.mu.RLock()
		total += len(shard.metadata)
		shard.mu.RUnlock()
	}
	return total
}

// Delete removes both the index entry and metadata for id within ns, atomically.
func (s *NamespacedVectorStore) Delete(ctx context.Context, id, ns string) error {
	s.mu.RLock()
	shard, ok := s.shards[ns]
	s.mu.RUnlock()
	if !ok {
		return nil
	}

	shard.mu.Lock()
	defer shard.mu.Unlock()
	if err := shard.vectors.Delete(ctx, []string{id}); err != nil {
		return err
	}
	delete(shard.metadata, id)
	shard.dirty = true
	return nil
}

// Namespaces returns the set of namespaces currently resident in memory.
func (s *NamespacedVectorStore) Namespaces() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]string, 0, len(s.shards))
	for ns := range s.shards {
		out = append(out, ns)
	}
	sort.Strings(out)
	return out
}

// Failures returns the embedding failure log for a namespace, creating the
// namespace shard if needed.
func (s *NamespacedVectorStore) Failures(ns string) (*embed.FailureLog, error) {
	shard, err := s.shardFor(ns)
	if err != nil {
		return nil, err
	}
	return shard.failures, nil
}

func (s *NamespacedVectorStore) resolveNamespaces(namespaces []string) []string {
	if len(namespaces) > 0 {
		return namespaces
	}
	return s.Namespaces()
}

// namespaceDir returns "<baseDir>/<namespace>", per spec 7's on-disk layout.
func (s *NamespacedVectorStore) namespaceDir(ns string) string {
	return filepath.Join(s.baseDir, ns)
}

// Persist fsyncs every dirty namespace's index and metadata to disk, guarded
// by the cross-process index lock so a concurrent CodeCortex process cannot
// observe a half-written namespace.
func (s *NamespacedVectorStore) Persist(ctx context.Context) error {
	if err := s.lock.Lock(); err != nil {
		return fmt.Errorf("acquire index lock: %w", err)
	}
	defer func() { _ = s.lock.Unlock() }()

	s.mu.RLock()
	shards := make(map[string]*namespaceShard, len(s.shards))
	for ns, shard := range s.shards {
		shards[ns] = shard
	}
	s.mu.RUnlock()

	for ns, shard := range shards {
		shard.mu.Lock()
		if !shard.dirty {
			shard.mu.Unlock()
			continue
		}
		dir := s.namespaceDir(ns)
		if err := os.MkdirAll(dir, 0o755); err != nil {
			shard.mu.Unlock()
			return fmt.Errorf("create namespace dir %q: %w", ns, err)
		}
		if err := shard.vectors.Save(filepath.Join(dir, "index")); err != nil {
			shard.mu.Unlock()
			return fmt.Errorf("save namespace %q index: %w", ns, err)
		}
		if err := writeMetadataFile(filepath.Join(dir, "metadata.json"), shard.metadata); err != nil {
			shard.mu.Unlock()
			return fmt.Errorf("save namespace %q metadata: %w", ns, err)
		}
		shard.dirty = false
		shard.mu.Unlock()
	}
	return nil
}

// Load lazily loads a namespace's index and metadata from disk into memory.
func (s *NamespacedVectorStore) Load(ctx context.Context, ns string) error {
	dir := s.namespaceDir(ns)
	indexPath := filepath.Join(dir, "index")
	if _, err := os.Stat(indexPath); os.IsNotExist(err) {
		return nil
	}

	shard, err := s.shardFor(ns)
	if err != nil {
		return err
	}

	shard.mu.Lock()
	defer shard.mu.Unlock()

	if err := shard.vectors.Load(indexPath); err != nil {
		return fmt.Errorf("load namespace %q index: %w", ns, err)
	}
	meta, err := readMetadataFile(filepath.Join(dir, "metadata.json"))
	if err != nil {
		return fmt.Errorf("load namespace %q metadata: %w", ns, err)
	}
	shard.metadata = meta
	return nil
}

func writeMetadataFile(path string, metadata map[string]*EmbeddingMetadata) error {
	data, err := json.Marshal(metadata)
	if err != nil {
		return err
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return err
	}
	return os.Rename(tmp, path)
}

func readMetadataFile(path string) (map[string]*EmbeddingMetadata, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return make(map[string]*EmbeddingMetadata), nil
	}
	if err != nil {
		return nil, err
	}
	var meta map[string]*EmbeddingMetadata
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, err
	}
	return meta, nil
}
