package bruteforce

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chunkvec/chunkvec/chunk"
	"github.com/chunkvec/chunkvec/vecindex"
)

func mustChunk(t *testing.T, id, name string, kind chunk.Kind) chunk.Chunk {
	t.Helper()
	c, err := chunk.New(id, name, kind, "body of "+name, "file.go", 1, 2)
	require.NoError(t, err)
	return c
}

// TS01: Add and Search rank the exact match first.
func TestIndex_AddAndSearch(t *testing.T) {
	// Given: an index with three chunks at varying distance from a query vector
	idx, err := New(vecindex.DefaultConfig("test-model", 4))
	require.NoError(t, err)

	a := mustChunk(t, "a", "a", chunk.KindMethod)
	b := mustChunk(t, "b", "b", chunk.KindMethod)
	c := mustChunk(t, "c", "c", chunk.KindMethod)

	require.NoError(t, idx.Add(a, []float32{1, 0, 0, 0}))
	require.NoError(t, idx.Add(b, []float32{0, 1, 0, 0}))
	require.NoError(t, idx.Add(c, []float32{0.9, 0.1, 0, 0}))

	// When: searching with the exact vector of chunk a
	results, err := idx.Search(context.Background(), []float32{1, 0, 0, 0}, 2)
	require.NoError(t, err)
	// Then: a ranks first with near-1.0 similarity, c (its near neighbor) ranks second
	require.Len(t, results, 2)
	assert.Equal(t, "a", results[0].Chunk.ID)
	assert.GreaterOrEqual(t, results[0].Similarity, float32(0.99))
	assert.Equal(t, "c", results[1].Chunk.ID)
}

func TestIndex_Add_RejectsDimensionMismatch(t *testing.T) {
	// Given: a 4-dimensional index
	idx, err := New(vecindex.DefaultConfig("test-model", 4))
	require.NoError(t, err)

	// When: adding a 2-dimensional vector
	err = idx.Add(mustChunk(t, "a", "a", chunk.KindMethod), []float32{1, 2})
	// Then: the call fails with DimensionMismatchError and the index stays empty
	var mismatch *vecindex.DimensionMismatchError
	assert.ErrorAs(t, err, &mismatch)
	assert.Equal(t, 4, mismatch.Expected)
	assert.Equal(t, 2, mismatch.Actual)
	assert.Equal(t, 0, idx.Size())
}

func TestIndex_Add_DuplicateIDIsFirstWinsNoOp(t *testing.T) {
	// Given: an empty index
	idx, err := New(vecindex.DefaultConfig("m", 2))
	require.NoError(t, err)

	a := mustChunk(t, "dup", "first", chunk.KindMethod)
	b := mustChunk(t, "dup", "second", chunk.KindMethod)

	// When: adding two chunks that share the same id
	require.NoError(t, idx.Add(a, []float32{1, 0}))
	require.NoError(t, idx.Add(b, []float32{0, 1}))

	// Then: the second add is a silent no-op; the first chunk survives
	assert.Equal(t, 1, idx.Size())
	assert.Equal(t, "first", idx.Entries()[0].Chunk.Name)
}

func TestIndex_Entries_PreservesInsertionOrderAndCopiesVectors(t *testing.T) {
	// Given: three chunks added in a known order
	idx, err := New(vecindex.DefaultConfig("m", 2))
	require.NoError(t, err)

	require.NoError(t, idx.Add(mustChunk(t, "1", "one", chunk.KindMethod), []float32{1, 0}))
	require.NoError(t, idx.Add(mustChunk(t, "2", "two", chunk.KindMethod), []float32{0, 1}))
	require.NoError(t, idx.Add(mustChunk(t, "3", "three", chunk.KindMethod), []float32{1, 1}))

	// When: taking a snapshot via Entries
	entries := idx.Entries()
	// Then: the snapshot preserves insertion order
	require.Len(t, entries, 3)
	assert.Equal(t, "1", entries[0].Chunk.ID)
	assert.Equal(t, "2", entries[1].Chunk.ID)
	assert.Equal(t, "3", entries[2].Chunk.ID)

	// When: mutating a vector from the snapshot
	entries[0].Vector[0] = 999
	// Then: the index's own storage is untouched
	assert.Equal(t, float32(1), idx.Entries()[0].Vector[0], "mutating a snapshot vector must not affect the index")
}

func TestIndex_Stats(t *testing.T) {
	// Given: an index holding one method chunk and one class chunk
	idx, err := New(vecindex.DefaultConfig("m", 2))
	require.NoError(t, err)

	require.NoError(t, idx.Add(mustChunk(t, "1", "one", chunk.KindMethod), []float32{1, 0}))
	require.NoError(t, idx.Add(mustChunk(t, "2", "two", chunk.KindClass), []float32{0, 1}))

	// When: requesting stats
	stats := idx.Stats()
	// Then: totals and per-kind counts reflect the two chunks
	assert.Equal(t, 2, stats.Total)
	assert.Equal(t, 1, stats.ByKind[chunk.KindMethod])
	assert.Equal(t, 1, stats.ByKind[chunk.KindClass])
	assert.Equal(t, 1, stats.FileCount)
	assert.Equal(t, "m", stats.ModelID)
	assert.Equal(t, 2, stats.Dimensions)
}

func TestIndex_SearchText_RequiresProvider(t *testing.T) {
	// Given: an index with no embedding provider attached
	idx, err := New(vecindex.DefaultConfig("m", 2))
	require.NoError(t, err)

	// When: searching by text
	_, err = idx.SearchText(context.Background(), "query", 5, nil)
	// Then: the call fails with MissingProviderError
	var missing *vecindex.MissingProviderError
	assert.ErrorAs(t, err, &missing)
}

func TestIndex_SearchText_EmbedsAndDelegates(t *testing.T) {
	// Given: an index with one chunk and an embedding provider that returns its vector
	idx, err := New(vecindex.DefaultConfig("m", 2))
	require.NoError(t, err)
	require.NoError(t, idx.Add(mustChunk(t, "1", "one", chunk.KindMethod), []float32{1, 0}))

	provider := vecindex.EmbeddingProviderFunc(func(ctx context.Context, text string) ([]float32, error) {
		return []float32{1, 0}, nil
	})

	// When: searching by text
	results, err := idx.SearchText(context.Background(), "anything", 1, provider)
	require.NoError(t, err)
	// Then: the text is embedded and the matching chunk is returned
	require.Len(t, results, 1)
	assert.Equal(t, "1", results[0].Chunk.ID)
}

func TestIndex_SearchByKind_FiltersToKind(t *testing.T) {
	// Given: an index with one method chunk and one class chunk, both equidistant from the query
	idx, err := New(vecindex.DefaultConfig("m", 2))
	require.NoError(t, err)
	require.NoError(t, idx.Add(mustChunk(t, "1", "one", chunk.KindMethod), []float32{1, 0}))
	require.NoError(t, idx.Add(mustChunk(t, "2", "two", chunk.KindClass), []float32{1, 0}))

	provider := vecindex.EmbeddingProviderFunc(func(ctx context.Context, text string) ([]float32, error) {
		return []float32{1, 0}, nil
	})

	// When: searching filtered to KindClass
	results, err := idx.SearchByKind(context.Background(), "q", chunk.KindClass, 5, provider)
	require.NoError(t, err)
	// Then: only the class chunk is returned
	require.Len(t, results, 1)
	assert.Equal(t, chunk.KindClass, results[0].Chunk.Kind)
}

func TestIndex_Merge_SameBackendSkipsDuplicateIDs(t *testing.T) {
	// Given: index a with chunk "shared", index b with its own "shared" plus "only-in-b"
	a, err := New(vecindex.DefaultConfig("m", 2))
	require.NoError(t, err)
	require.NoError(t, a.Add(mustChunk(t, "shared", "a-version", chunk.KindMethod), []float32{1, 0}))

	b, err := New(vecindex.DefaultConfig("m", 2))
	require.NoError(t, err)
	require.NoError(t, b.Add(mustChunk(t, "shared", "b-version", chunk.KindMethod), []float32{0, 1}))
	require.NoError(t, b.Add(mustChunk(t, "only-in-b", "b2", chunk.KindMethod), []float32{1, 1}))

	// When: merging b into a
	require.NoError(t, a.Merge(b))

	// Then: a's own "shared" chunk wins, and b's unique chunk is absorbed
	assert.Equal(t, 2, a.Size())
	entries := a.Entries()
	assert.Equal(t, "a-version", entries[0].Chunk.Name, "first-wins: a's own chunk survives")
	assert.Equal(t, "only-in-b", entries[1].Chunk.ID)
}

func TestIndex_Merge_IncompatibleModelFails(t *testing.T) {
	// Given: two indexes with different model ids
	a, err := New(vecindex.DefaultConfig("model-a", 2))
	require.NoError(t, err)
	b, err := New(vecindex.DefaultConfig("model-b", 2))
	require.NoError(t, err)
	require.NoError(t, b.Add(mustChunk(t, "1", "one", chunk.KindMethod), []float32{1, 0}))

	// When: merging b into a
	err = a.Merge(b)
	// Then: the merge fails with IncompatibleModelError and a is untouched
	var incompat *vecindex.IncompatibleModelError
	assert.ErrorAs(t, err, &incompat)
	assert.Equal(t, 0, a.Size())
}

func TestIndex_Search_TopKOrderingIsNonIncreasing(t *testing.T) {
	// Given: ten chunks with varied vectors
	idx, err := New(vecindex.DefaultConfig("m", 3))
	require.NoError(t, err)

	vectors := [][]float32{
		{1, 0, 0}, {0.9, 0.1, 0}, {0.5, 0.5, 0}, {0, 1, 0}, {0, 0, 1},
		{0.3, 0.3, 0.3}, {0.8, 0.2, 0}, {0.2, 0.8, 0}, {1, 1, 0}, {0, 0.5, 0.5},
	}
	for i, v := range vectors {
		require.NoError(t, idx.Add(mustChunk(t, string(rune('a'+i)), "n", chunk.KindMethod), v))
	}

	// When: searching for the top 10 results
	results, err := idx.Search(context.Background(), []float32{1, 0, 0}, 10)
	require.NoError(t, err)
	// Then: similarity is non-increasing across the ranked list
	for i := 0; i < len(results)-1; i++ {
		assert.GreaterOrEqual(t, results[i].Similarity, results[i+1].Similarity)
	}
}

func TestIndex_Close_IsNoOpAndIdempotent(t *testing.T) {
	idx, err := New(vecindex.DefaultConfig("m", 2))
	require.NoError(t, err)
	assert.NoError(t, idx.Close())
	assert.NoError(t, idx.Close())
}

func TestNew_RejectsEmptyModelID(t *testing.T) {
	_, err := New(vecindex.Config{Dimensions: 4})
	assert.Error(t, err)
}

func TestNew_RejectsNonPositiveDimensions(t *testing.T) {
	_, err := New(vecindex.Config{ModelID: "m", Dimensions: 0})
	assert.Error(t, err)
}
