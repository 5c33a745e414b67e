// Package merge implements the cross-format merger: it consumes any
// mixture of vecindex.Index backends tagged with artifact-coordinate
// strings, enforces single-model identity, deduplicates by chunk id,
// stamps provenance, and builds a unified index of a configured
// target backend.
package merge

import (
	"sync"

	"github.com/chunkvec/chunkvec/bruteforce"
	"github.com/chunkvec/chunkvec/graphindex"
	"github.com/chunkvec/chunkvec/vecindex"
)

// TargetBackend selects which concrete backend Build constructs.
type TargetBackend int

const (
	TargetBruteForce TargetBackend = iota
	TargetGraph
)

// Option configures a Merger at construction time.
type Option func(*Merger)

// WithGraphMaxItemsHint sets a floor on the graph-sizing hint Build
// derives for the graph backend (the effective hint is
// max(2*pending_count, hint)). It has no effect when the target
// backend is brute-force.
func WithGraphMaxItemsHint(hint int) Option {
	return func(m *Merger) { m.graphMaxItemsHint = hint }
}

// Merger accumulates pending (chunk, vector) entries from heterogeneous
// sources and emits a unified index. It is meant to be driven by a
// single goroutine; the internal mutex exists only to catch accidental
// concurrent misuse, not to support it.
type Merger struct {
	mu sync.Mutex

	targetModelID     string
	targetDimensions  int
	targetBackend     TargetBackend
	graphMaxItemsHint int

	seen     map[string]struct{}
	pending  []vecindex.VectorEntry
	rejected []string
}

// New constructs a Merger targeting modelID/dimensions/backend.
func New(modelID string, dimensions int, backend TargetBackend, opts ...Option) *Merger {
	m := &Merger{
		targetModelID:    modelID,
		targetDimensions: dimensions,
		targetBackend:    backend,
		seen:             make(map[string]struct{}),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// AddIndex offers source, tagged with artifactCoords, to the merger.
// If source's model id does not match the merger's target, artifactCoords
// is appended to the rejected list and AddIndex returns false without
// touching pending state. Otherwise every entry of source.Entries() whose
// chunk id has not already been seen is stamped with artifactCoords and
// appended to pending (first-wins on duplicate ids across offered
// sources); AddIndex returns true.
func (m *Merger) AddIndex(source vecindex.Index, artifactCoords string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	target := vecindex.Config{ModelID: m.targetModelID, Dimensions: m.targetDimensions}
	if !target.CompatibleWith(source.Config()) {
		m.rejected = append(m.rejected, artifactCoords)
		return false
	}

	for _, e := range source.Entries() {
		if _, ok := m.seen[e.Chunk.ID]; ok {
			continue
		}
		m.seen[e.Chunk.ID] = struct{}{}
		m.pending = append(m.pending, vecindex.VectorEntry{
			Chunk:  e.Chunk.WithArtifact(artifactCoords),
			Vector: vecindex.CopyVector(e.Vector),
		})
	}
	return true
}

// Build constructs the target backend from the merger's configuration
// and loads it with the pending entries in (artifact order, intra-
// artifact insertion order). The merger's own state is left intact;
// call Reset to start a fresh accumulation.
func (m *Merger) Build() (vecindex.Index, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	dims := m.targetDimensions
	if dims <= 0 && len(m.pending) > 0 {
		dims = len(m.pending[0].Vector)
	}
	if dims <= 0 {
		return nil, &vecindex.DimensionUndeterminedError{}
	}

	cfg := vecindex.DefaultConfig(m.targetModelID, dims)

	var idx vecindex.Index
	var err error
	switch m.targetBackend {
	case TargetGraph:
		hint := 2 * len(m.pending)
		if m.graphMaxItemsHint > hint {
			hint = m.graphMaxItemsHint
		}
		idx, err = graphindex.NewWithCapacity(cfg, graphindex.DefaultSeed, hint)
	default:
		idx, err = bruteforce.New(cfg)
	}
	if err != nil {
		return nil, err
	}

	if err := idx.AddAll(m.pending); err != nil {
		return nil, err
	}
	return idx, nil
}

// RejectedArtifacts returns a snapshot of incompatible artifact
// coordinates, in the order they were offered.
func (m *Merger) RejectedArtifacts() []string {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]string, len(m.rejected))
	copy(out, m.rejected)
	return out
}

// PendingCount returns the current length of the pending list, after
// deduplication.
func (m *Merger) PendingCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.pending)
}

// Reset clears all accumulated state (pending entries, seen ids,
// rejected artifacts), returning the merger to its just-constructed
// shape. This is not required by the source's merger, which is
// typically used once and discarded, but it lets long-lived callers
// reuse one Merger across build cycles instead of reconstructing it.
func (m *Merger) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.seen = make(map[string]struct{})
	m.pending = nil
	m.rejected = nil
}
