package graphindex

import (
	"context"

	"github.com/chunkvec/chunkvec/chunk"
	"github.com/chunkvec/chunkvec/vecindex"
)

// searchLayer runs a best-first search of width ef starting from
// entryPoints, restricted to edges present at layer, and returns the
// ef closest nodes found, sorted ascending by distance.
func (g *Index) searchLayer(query []float32, entryPoints []string, ef, layer int) []candidate {
	visited := make(map[string]bool, ef*4)
	var frontier []candidate
	var found []candidate

	for _, ep := range entryPoints {
		if visited[ep] {
			continue
		}
		visited[ep] = true
		d := g.distanceTo(query, ep)
		frontier = insertSorted(frontier, candidate{id: ep, dist: d})
		found = insertSorted(found, candidate{id: ep, dist: d})
	}

	for len(frontier) > 0 {
		cur := frontier[0]
		frontier = frontier[1:]

		if len(found) >= ef && cur.dist > found[len(found)-1].dist {
			break
		}

		for _, nb := range g.nodes[cur.id].neighborsAt(layer) {
			if visited[nb] {
				continue
			}
			visited[nb] = true

			d := g.distanceTo(query, nb)
			if len(found) < ef || d < found[len(found)-1].dist {
				frontier = insertSorted(frontier, candidate{id: nb, dist: d})
				found = insertSorted(found, candidate{id: nb, dist: d})
				if len(found) > ef {
					found = found[:ef]
				}
			}
		}
	}
	return found
}

// greedyClosest walks from `from` towards query at layer, width 1,
// until no neighbor improves on the current best.
func (g *Index) greedyClosest(query []float32, from string, layer int) string {
	best := from
	bestDist := g.distanceTo(query, from)

	for {
		improved := false
		for _, nb := range g.nodes[best].neighborsAt(layer) {
			d := g.distanceTo(query, nb)
			if d < bestDist {
				bestDist = d
				best = nb
				improved = true
			}
		}
		if !improved {
			return best
		}
	}
}

// Search returns the k nearest results to query via greedy descent
// through the upper layers followed by a width-max(EfSearch, k)
// best-first search on the ground layer.
func (g *Index) Search(ctx context.Context, query []float32, k int) ([]vecindex.SearchResult, error) {
	g.mu.RLock()
	defer g.mu.RUnlock()

	if len(query) != g.config.Dimensions {
		return nil, &vecindex.DimensionMismatchError{Expected: g.config.Dimensions, Actual: len(query)}
	}
	if k <= 0 || len(g.chunks) == 0 {
		return []vecindex.SearchResult{}, nil
	}

	found := g.searchFromEntry(query, k)

	if k > len(found) {
		k = len(found)
	}
	results := make([]vecindex.SearchResult, k)
	for i := 0; i < k; i++ {
		c := g.chunks[g.idPos[found[i].id]]
		results[i] = vecindex.SearchResult{
			Chunk:      c,
			Similarity: vecindex.ClampSimilarity(1 - found[i].dist),
			ArtifactID: c.Artifact,
		}
	}
	return results, nil
}

// searchFromEntry performs the full query path (greedy descent then
// ground-layer beam search) and returns candidates sorted ascending
// by distance. Callers must hold at least a read lock.
func (g *Index) searchFromEntry(query []float32, k int) []candidate {
	entryLevel := g.nodes[g.entryPoint].level

	cur := g.entryPoint
	for layer := entryLevel; layer > 0; layer-- {
		cur = g.greedyClosest(query, cur, layer)
	}

	ef := g.config.EfSearch
	if k > ef {
		ef = k
	}
	return g.searchLayer(query, []string{cur}, ef, 0)
}

// SearchText embeds query via provider and delegates to Search.
func (g *Index) SearchText(ctx context.Context, query string, k int, provider vecindex.EmbeddingProvider) ([]vecindex.SearchResult, error) {
	if provider == nil {
		return nil, &vecindex.MissingProviderError{}
	}
	vec, err := provider.Embed(ctx, query)
	if err != nil {
		return nil, err
	}
	return g.Search(ctx, vec, k)
}

// SearchByKind over-fetches (10x the requested k, capped to the
// index's size) and filters to kind, since the graph's approximate
// search has no exact way to pre-filter by kind before ranking.
func (g *Index) SearchByKind(ctx context.Context, query string, kind chunk.Kind, k int, provider vecindex.EmbeddingProvider) ([]vecindex.SearchResult, error) {
	if provider == nil {
		return nil, &vecindex.MissingProviderError{}
	}
	vec, err := provider.Embed(ctx, query)
	if err != nil {
		return nil, err
	}

	g.mu.RLock()
	defer g.mu.RUnlock()

	if len(vec) != g.config.Dimensions {
		return nil, &vecindex.DimensionMismatchError{Expected: g.config.Dimensions, Actual: len(vec)}
	}
	if k <= 0 || len(g.chunks) == 0 {
		return []vecindex.SearchResult{}, nil
	}

	overfetch := k * 10
	if overfetch > len(g.chunks) {
		overfetch = len(g.chunks)
	}

	found := g.searchFromEntry(vec, overfetch)

	var results []vecindex.SearchResult
	for _, f := range found {
		c := g.chunks[g.idPos[f.id]]
		if c.Kind != kind {
			continue
		}
		results = append(results, vecindex.SearchResult{
			Chunk:      c,
			Similarity: vecindex.ClampSimilarity(1 - f.dist),
			ArtifactID: c.Artifact,
		})
		if len(results) == k {
			break
		}
	}
	if results == nil {
		results = []vecindex.SearchResult{}
	}
	return results, nil
}

// SearchNeighbors implements analysis.NeighborSearcher: it looks up
// id's own vector and runs the same query path used by Search,
// excluding id itself from the results. This lets duplicate/anomaly
// analysis reuse the graph's approximate search instead of falling
// back to an O(n^2) scan.
func (g *Index) SearchNeighbors(ctx context.Context, id string, width int) ([]vecindex.SearchResult, error) {
	g.mu.RLock()
	defer g.mu.RUnlock()

	if _, ok := g.idPos[id]; !ok {
		return nil, nil
	}
	if width <= 0 {
		return []vecindex.SearchResult{}, nil
	}

	query := g.nodes[id].vector
	found := g.searchFromEntry(query, width+1)

	results := make([]vecindex.SearchResult, 0, width)
	for _, f := range found {
		if f.id == id {
			continue
		}
		c := g.chunks[g.idPos[f.id]]
		results = append(results, vecindex.SearchResult{
			Chunk:      c,
			Similarity: vecindex.ClampSimilarity(1 - f.dist),
			ArtifactID: c.Artifact,
		})
		if len(results) == width {
			break
		}
	}
	return results, nil
}
