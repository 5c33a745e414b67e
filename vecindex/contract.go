// Package vecindex holds the contracts shared by both index backends:
// the index configuration, the result and statistics shapes, the error
// kinds, the cosine-similarity kernel, and the Index interface itself.
// bruteforce, graphindex, analysis, merge, and codec all depend on this
// package; among this module's packages it depends only on chunk (the
// similarity kernel also uses github.com/viterin/vek/vek32).
package vecindex

import (
	"context"

	"github.com/chunkvec/chunkvec/chunk"
)

// VectorEntry pairs a chunk with its embedding vector.
type VectorEntry struct {
	Chunk  chunk.Chunk
	Vector []float32
}

// SearchResult is a single ranked hit: the matched chunk, its
// similarity (clamped to [0, 1]), and its provenance at the time the
// result was produced.
type SearchResult struct {
	Chunk      chunk.Chunk
	Similarity float32
	ArtifactID string // "" if the chunk carries no provenance
}

// Stats summarizes the contents of an index.
type Stats struct {
	Total             int
	ByKind            map[chunk.Kind]int
	FileCount         int
	ModelID           string
	Dimensions        int
	SizeBytesEstimate int64
}

// DuplicateGroup is a set of chunks whose pairwise similarity to the
// group's representative chunk met or exceeded FloorSimilarity.
type DuplicateGroup struct {
	FloorSimilarity float32
	Chunks          []chunk.Chunk
}

// Count returns the number of chunks in the group.
func (g DuplicateGroup) Count() int {
	return len(g.Chunks)
}

// EmbeddingProvider turns a text query into a vector of the index's
// configured dimensionality. It is a pure function from the index's
// point of view: errors surface to the caller of SearchText/
// SearchByKind unchanged.
type EmbeddingProvider interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// EmbeddingProviderFunc adapts a plain function to EmbeddingProvider.
type EmbeddingProviderFunc func(ctx context.Context, text string) ([]float32, error)

// Embed calls f.
func (f EmbeddingProviderFunc) Embed(ctx context.Context, text string) ([]float32, error) {
	return f(ctx, text)
}

// Index is the contract common to both backends (brute-force and
// proximity-graph). A single Index is not safe for concurrent
// mutation, nor for concurrent mutation interleaved with reads;
// concurrent read-only calls (Search*, Stats, Entries) on a fully-built
// index are safe.
type Index interface {
	// Add appends a single (chunk, vector) pair. Fails with
	// *DimensionMismatchError if len(vector) != Dimensions().
	Add(c chunk.Chunk, vector []float32) error

	// AddAll adds each entry in order, under the same constraints as
	// Add.
	AddAll(entries []VectorEntry) error

	// Merge absorbs another index of the same concrete backend and
	// model id. Chunks whose id already exists are skipped
	// (first-wins). Fails with *IncompatibleModelError if model ids
	// differ.
	Merge(other Index) error

	// Search returns the k highest-scoring results for a precomputed
	// query vector, sorted by descending similarity.
	Search(ctx context.Context, query []float32, k int) ([]SearchResult, error)

	// SearchText embeds query via provider and delegates to Search.
	// Fails with *MissingProviderError if provider is nil.
	SearchText(ctx context.Context, query string, k int, provider EmbeddingProvider) ([]SearchResult, error)

	// SearchByKind is SearchText filtered to a single chunk kind.
	SearchByKind(ctx context.Context, query string, kind chunk.Kind, k int, provider EmbeddingProvider) ([]SearchResult, error)

	// Entries returns an ordered snapshot of (chunk, vector) pairs.
	// Vectors are defensively copied.
	Entries() []VectorEntry

	// Size returns the number of chunks held.
	Size() int

	// IsEmpty reports Size() == 0.
	IsEmpty() bool

	// ModelID returns the configured model id.
	ModelID() string

	// Dimensions returns the configured vector dimensionality.
	Dimensions() int

	// Config returns the index's configuration.
	Config() Config

	// Stats returns summary statistics.
	Stats() Stats

	// Close releases resources held by the index. Idempotent.
	Close() error
}
