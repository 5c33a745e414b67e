// Package bruteforce implements vecindex.Index with an exact,
// exhaustive cosine-similarity scan. It is the right choice for small
// to medium corpora (rule of thumb: up to roughly 10^5 vectors).
package bruteforce

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/chunkvec/chunkvec/chunk"
	"github.com/chunkvec/chunkvec/vecindex"
)

// Index is the brute-force vecindex.Index implementation. It owns an
// ordered list of chunks, a parallel vector store, and an id→position
// map. It is safe for concurrent read-only use once built; it is not
// safe for concurrent mutation.
type Index struct {
	mu      sync.RWMutex
	config  vecindex.Config
	chunks  []chunk.Chunk
	vectors [][]float32
	idPos   map[string]int
	closed  bool
}

// New constructs an empty brute-force index with the given
// configuration. ModelID must be non-empty and Dimensions must be
// positive.
func New(cfg vecindex.Config) (*Index, error) {
	if cfg.ModelID == "" {
		return nil, fmt.Errorf("bruteforce: model id must not be empty")
	}
	if cfg.Dimensions <= 0 {
		return nil, fmt.Errorf("bruteforce: dimensions must be positive, got %d", cfg.Dimensions)
	}

	return &Index{
		config: cfg.WithDefaults(),
		idPos:  make(map[string]int),
	}, nil
}

// Add appends (c, vector); it fails with *vecindex.DimensionMismatchError
// on a dimension mismatch. If c.ID is already present, the call is a
// silent no-op (first-wins), matching the merger's and same-backend
// Merge's duplicate-id policy.
func (idx *Index) Add(c chunk.Chunk, vector []float32) error {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	return idx.addLocked(c, vector)
}

func (idx *Index) addLocked(c chunk.Chunk, vector []float32) error {
	if len(vector) != idx.config.Dimensions {
		return &vecindex.DimensionMismatchError{Expected: idx.config.Dimensions, Actual: len(vector)}
	}
	if _, exists := idx.idPos[c.ID]; exists {
		return nil
	}

	idx.idPos[c.ID] = len(idx.chunks)
	idx.chunks = append(idx.chunks, c)
	idx.vectors = append(idx.vectors, vecindex.CopyVector(vector))
	return nil
}

// AddAll adds each entry in order under the same constraints as Add.
func (idx *Index) AddAll(entries []vecindex.VectorEntry) error {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	for _, e := range entries {
		if err := idx.addLocked(e.Chunk, e.Vector); err != nil {
			return err
		}
	}
	return nil
}

// Merge absorbs another brute-force index of the same model id.
// Entries are taken from other.Entries() in order; ids already present
// are skipped (first-wins).
func (idx *Index) Merge(other vecindex.Index) error {
	src, ok := other.(*Index)
	if !ok {
		return fmt.Errorf("bruteforce: Merge requires another brute-force index; use the merge package for cross-backend merges")
	}

	idx.mu.Lock()
	defer idx.mu.Unlock()

	if !idx.config.CompatibleWith(src.Config()) {
		return &vecindex.IncompatibleModelError{Target: idx.config.ModelID, Source: src.ModelID()}
	}

	for _, e := range src.Entries() {
		if err := idx.addLocked(e.Chunk, e.Vector); err != nil {
			return err
		}
	}
	return nil
}

// Search returns the k highest-scoring results for query, sorted by
// descending similarity with ties broken by insertion order.
func (idx *Index) Search(ctx context.Context, query []float32, k int) ([]vecindex.SearchResult, error) {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	if len(query) != idx.config.Dimensions {
		return nil, &vecindex.DimensionMismatchError{Expected: idx.config.Dimensions, Actual: len(query)}
	}
	if k <= 0 || len(idx.chunks) == 0 {
		return []vecindex.SearchResult{}, nil
	}

	type scored struct {
		pos int
		sim float32
	}
	candidates := make([]scored, len(idx.chunks))
	for i, v := range idx.vectors {
		candidates[i] = scored{pos: i, sim: vecindex.CosineSimilarity(query, v)}
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].sim > candidates[j].sim
	})

	if k > len(candidates) {
		k = len(candidates)
	}

	results := make([]vecindex.SearchResult, k)
	for i := 0; i < k; i++ {
		c := idx.chunks[candidates[i].pos]
		results[i] = vecindex.SearchResult{
			Chunk:      c,
			Similarity: vecindex.ClampSimilarity(candidates[i].sim),
			ArtifactID: c.Artifact,
		}
	}
	return results, nil
}

// SearchText embeds query via provider and delegates to Search.
func (idx *Index) SearchText(ctx context.Context, query string, k int, provider vecindex.EmbeddingProvider) ([]vecindex.SearchResult, error) {
	if provider == nil {
		return nil, &vecindex.MissingProviderError{}
	}
	vec, err := provider.Embed(ctx, query)
	if err != nil {
		return nil, err
	}
	return idx.Search(ctx, vec, k)
}

// SearchByKind filters candidates to kind, then ranks. Because the
// brute-force backend scores every candidate anyway, filtering before
// ranking is exact (unlike the graph backend's over-fetch strategy).
func (idx *Index) SearchByKind(ctx context.Context, query string, kind chunk.Kind, k int, provider vecindex.EmbeddingProvider) ([]vecindex.SearchResult, error) {
	if provider == nil {
		return nil, &vecindex.MissingProviderError{}
	}
	vec, err := provider.Embed(ctx, query)
	if err != nil {
		return nil, err
	}

	idx.mu.RLock()
	defer idx.mu.RUnlock()

	if len(vec) != idx.config.Dimensions {
		return nil, &vecindex.DimensionMismatchError{Expected: idx.config.Dimensions, Actual: len(vec)}
	}
	if k <= 0 {
		return []vecindex.SearchResult{}, nil
	}

	type scored struct {
		pos int
		sim float32
	}
	var candidates []scored
	for i, c := range idx.chunks {
		if c.Kind != kind {
			continue
		}
		candidates = append(candidates, scored{pos: i, sim: vecindex.CosineSimilarity(vec, idx.vectors[i])})
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].sim > candidates[j].sim
	})

	if k > len(candidates) {
		k = len(candidates)
	}

	results := make([]vecindex.SearchResult, k)
	for i := 0; i < k; i++ {
		c := idx.chunks[candidates[i].pos]
		results[i] = vecindex.SearchResult{
			Chunk:      c,
			Similarity: vecindex.ClampSimilarity(candidates[i].sim),
			ArtifactID: c.Artifact,
		}
	}
	return results, nil
}

// Entries returns an ordered snapshot of (chunk, vector) pairs; vectors
// are defensively copied.
func (idx *Index) Entries() []vecindex.VectorEntry {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	out := make([]vecindex.VectorEntry, len(idx.chunks))
	for i, c := range idx.chunks {
		out[i] = vecindex.VectorEntry{Chunk: c, Vector: vecindex.CopyVector(idx.vectors[i])}
	}
	return out
}

// Size returns the number of chunks held.
func (idx *Index) Size() int {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	return len(idx.chunks)
}

// IsEmpty reports Size() == 0.
func (idx *Index) IsEmpty() bool {
	return idx.Size() == 0
}

// ModelID returns the configured model id.
func (idx *Index) ModelID() string {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	return idx.config.ModelID
}

// Dimensions returns the configured vector dimensionality.
func (idx *Index) Dimensions() int {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	return idx.config.Dimensions
}

// Config returns the index's configuration.
func (idx *Index) Config() vecindex.Config {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	return idx.config
}

// Stats returns summary statistics over the current contents.
func (idx *Index) Stats() vecindex.Stats {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	byKind := make(map[chunk.Kind]int)
	files := make(map[string]struct{})
	for _, c := range idx.chunks {
		byKind[c.Kind]++
		files[c.File] = struct{}{}
	}

	return vecindex.Stats{
		Total:             len(idx.chunks),
		ByKind:            byKind,
		FileCount:         len(files),
		ModelID:           idx.config.ModelID,
		Dimensions:        idx.config.Dimensions,
		SizeBytesEstimate: estimateSizeBytes(idx.chunks, idx.config.Dimensions),
	}
}

// Close is a no-op for the brute-force backend: it holds nothing but
// in-process memory.
func (idx *Index) Close() error {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	idx.closed = true
	return nil
}

func estimateSizeBytes(chunks []chunk.Chunk, dimensions int) int64 {
	const avgChunkJSONOverhead = 256 // rough per-chunk JSON envelope: id/name/file/lines/etc
	var total int64
	for _, c := range chunks {
		total += int64(len(c.Body)) + int64(len(c.Name)) + int64(len(c.File)) + avgChunkJSONOverhead
	}
	total += int64(len(chunks)) * int64(dimensions) * 4 // float32 vectors
	return total
}

var _ vecindex.Index = (*Index)(nil)
