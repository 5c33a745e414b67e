package merge

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chunkvec/chunkvec/bruteforce"
	"github.com/chunkvec/chunkvec/chunk"
	"github.com/chunkvec/chunkvec/graphindex"
	"github.com/chunkvec/chunkvec/vecindex"
)

func mustChunk(t *testing.T, id string) chunk.Chunk {
	t.Helper()
	c, err := chunk.New(id, id, chunk.KindMethod, "body of "+id, "file.go", 1, 2)
	require.NoError(t, err)
	return c
}

func unitVector(dims, hot int) []float32 {
	v := make([]float32, dims)
	v[hot] = 1
	return v
}

// S1: two brute-force sources merged into brute-force.
func TestMerger_TwoBruteForceSourcesMergeIntoBruteForce(t *testing.T) {
	// Given: two brute-force sources, m1/m2 and m3/m4, on the same model
	a, err := bruteforce.New(vecindex.DefaultConfig("test-model", 4))
	require.NoError(t, err)
	require.NoError(t, a.Add(mustChunk(t, "m1"), unitVector(4, 0)))
	require.NoError(t, a.Add(mustChunk(t, "m2"), unitVector(4, 1)))

	b, err := bruteforce.New(vecindex.DefaultConfig("test-model", 4))
	require.NoError(t, err)
	require.NoError(t, b.Add(mustChunk(t, "m3"), unitVector(4, 2)))
	require.NoError(t, b.Add(mustChunk(t, "m4"), unitVector(4, 3)))

	// When: offering both to a brute-force-targeted merger and building
	m := New("test-model", 4, TargetBruteForce)
	assert.True(t, m.AddIndex(a, "coords-a"))
	assert.True(t, m.AddIndex(b, "coords-b"))

	built, err := m.Build()
	require.NoError(t, err)
	// Then: the merged size is 4 and the result is a brute-force index
	assert.Equal(t, 4, built.Size())
	assert.IsType(t, &bruteforce.Index{}, built)
}

// S2: duplicate chunk id survives once, carrying the first offer's coords.
func TestMerger_DuplicateChunkIDSurvivesOnceWithFirstArtifact(t *testing.T) {
	// Given: source a with "shared", source b with its own "shared" plus "u2"
	a, err := bruteforce.New(vecindex.DefaultConfig("m", 2))
	require.NoError(t, err)
	require.NoError(t, a.Add(mustChunk(t, "shared"), []float32{1, 0}))

	b, err := bruteforce.New(vecindex.DefaultConfig("m", 2))
	require.NoError(t, err)
	require.NoError(t, b.Add(mustChunk(t, "shared"), []float32{0, 1}))
	require.NoError(t, b.Add(mustChunk(t, "u2"), []float32{1, 1}))

	// When: offering a then b, and building
	merger := New("m", 2, TargetBruteForce)
	require.True(t, merger.AddIndex(a, "coords-a"))
	require.True(t, merger.AddIndex(b, "coords-b"))

	built, err := merger.Build()
	require.NoError(t, err)
	// Then: the merged size is 2 and "shared" carries a's coordinates
	assert.Equal(t, 2, built.Size())

	var shared *vecindex.VectorEntry
	for _, e := range built.Entries() {
		if e.Chunk.ID == "shared" {
			e := e
			shared = &e
		}
	}
	require.NotNil(t, shared)
	assert.Equal(t, "coords-a", shared.Chunk.Artifact)
}

// S3: incompatible model rejected.
func TestMerger_IncompatibleModelRejected(t *testing.T) {
	// Given: a compatible source on "test-model" and an incompatible one on "different-model"
	compatible, err := bruteforce.New(vecindex.DefaultConfig("test-model", 2))
	require.NoError(t, err)
	require.NoError(t, compatible.Add(mustChunk(t, "a"), []float32{1, 0}))

	incompatible, err := bruteforce.New(vecindex.DefaultConfig("different-model", 2))
	require.NoError(t, err)
	require.NoError(t, incompatible.Add(mustChunk(t, "b"), []float32{0, 1}))

	// When: offering both to a merger targeting "test-model"
	merger := New("test-model", 2, TargetBruteForce)
	assert.True(t, merger.AddIndex(compatible, "compatible-coords"))
	assert.False(t, merger.AddIndex(incompatible, "incompatible-coords"))

	built, err := merger.Build()
	require.NoError(t, err)
	// Then: only the compatible source's chunk survives, and the incompatible coords are recorded as rejected
	assert.Equal(t, 1, built.Size())
	assert.Equal(t, []string{"incompatible-coords"}, merger.RejectedArtifacts())
}

// S4: cross-backend merge into graph.
func TestMerger_CrossBackendMergeIntoGraph(t *testing.T) {
	// Given: a brute-force source with 2 chunks and a graph source with 1 chunk
	bf, err := bruteforce.New(vecindex.DefaultConfig("m", 3))
	require.NoError(t, err)
	require.NoError(t, bf.Add(mustChunk(t, "bf1"), unitVector(3, 0)))
	require.NoError(t, bf.Add(mustChunk(t, "bf2"), unitVector(3, 1)))

	gi, err := graphindex.New(vecindex.DefaultConfig("m", 3))
	require.NoError(t, err)
	require.NoError(t, gi.Add(mustChunk(t, "g1"), unitVector(3, 2)))

	// When: merging both into a graph-targeted merger
	merger := New("m", 3, TargetGraph)
	require.True(t, merger.AddIndex(bf, "bf-coords"))
	require.True(t, merger.AddIndex(gi, "g-coords"))

	built, err := merger.Build()
	require.NoError(t, err)
	// Then: the merged size is 3 and the result identifies as a graph index
	assert.Equal(t, 3, built.Size())
	assert.IsType(t, &graphindex.Index{}, built)
}

// S5 lives in codec's round-trip test (save/load a graph built this way);
// here we only check the merger's own ordering/provenance guarantees.
func TestMerger_ProvenanceObservableInBuiltEntriesAndSearchResults(t *testing.T) {
	// Given: a single-chunk source offered under "source-coords"
	src, err := bruteforce.New(vecindex.DefaultConfig("m", 2))
	require.NoError(t, err)
	require.NoError(t, src.Add(mustChunk(t, "a"), []float32{1, 0}))

	merger := New("m", 2, TargetBruteForce)
	require.True(t, merger.AddIndex(src, "source-coords"))

	// When: building and then searching the result
	built, err := merger.Build()
	require.NoError(t, err)

	// Then: provenance is visible both in Entries() and in SearchResult.ArtifactID
	assert.Equal(t, "source-coords", built.Entries()[0].Chunk.Artifact)

	results, err := built.Search(context.Background(), []float32{1, 0}, 1)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "source-coords", results[0].ArtifactID)
}

func TestMerger_PendingCountReflectsDeduplication(t *testing.T) {
	// Given: a two-chunk source
	a, err := bruteforce.New(vecindex.DefaultConfig("m", 2))
	require.NoError(t, err)
	require.NoError(t, a.Add(mustChunk(t, "1"), []float32{1, 0}))
	require.NoError(t, a.Add(mustChunk(t, "2"), []float32{0, 1}))

	// When: offering it once, then offering the same source again
	merger := New("m", 2, TargetBruteForce)
	require.True(t, merger.AddIndex(a, "coords"))
	assert.Equal(t, 2, merger.PendingCount())

	require.True(t, merger.AddIndex(a, "coords-again"))
	// Then: pending count does not grow on the re-offer
	assert.Equal(t, 2, merger.PendingCount(), "re-offering the same source must not duplicate pending entries")
}

func TestMerger_Reset_ClearsAccumulatedState(t *testing.T) {
	// Given: a merger with one pending entry and one rejected artifact
	a, err := bruteforce.New(vecindex.DefaultConfig("m", 2))
	require.NoError(t, err)
	require.NoError(t, a.Add(mustChunk(t, "1"), []float32{1, 0}))

	bad, err := bruteforce.New(vecindex.DefaultConfig("other", 2))
	require.NoError(t, err)

	merger := New("m", 2, TargetBruteForce)
	merger.AddIndex(a, "coords")
	merger.AddIndex(bad, "bad-coords")
	require.Equal(t, 1, merger.PendingCount())
	require.Len(t, merger.RejectedArtifacts(), 1)

	// When: resetting
	merger.Reset()
	// Then: all accumulated state is cleared
	assert.Equal(t, 0, merger.PendingCount())
	assert.Empty(t, merger.RejectedArtifacts())
}

func TestMerger_Build_DimensionUndeterminedWhenNonPositive(t *testing.T) {
	// Given: a merger constructed with a non-positive dimensions value
	merger := New("m", 0, TargetBruteForce)
	// When: building with no successful AddIndex to establish dimensions
	_, err := merger.Build()
	// Then: Build fails with DimensionUndeterminedError
	var undetermined *vecindex.DimensionUndeterminedError
	assert.ErrorAs(t, err, &undetermined)
}

func TestMerger_Build_LargeGraphTargetUsesHint(t *testing.T) {
	// Given: a 10-chunk brute-force source and a graph-targeted merger with a large capacity hint
	src, err := bruteforce.New(vecindex.DefaultConfig("m", 2))
	require.NoError(t, err)
	for i := 0; i < 10; i++ {
		require.NoError(t, src.Add(mustChunk(t, fmt.Sprintf("c%d", i)), []float32{float32(i), 1}))
	}

	merger := New("m", 2, TargetGraph, WithGraphMaxItemsHint(1000))
	require.True(t, merger.AddIndex(src, "coords"))

	// When: building
	built, err := merger.Build()
	require.NoError(t, err)
	// Then: the build succeeds and holds all 10 chunks regardless of the oversized hint
	assert.Equal(t, 10, built.Size())
}
