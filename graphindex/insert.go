package graphindex

import (
	"fmt"
	"math"

	"github.com/chunkvec/chunkvec/chunk"
	"github.com/chunkvec/chunkvec/vecindex"
)

// Add inserts (c, vector) into the graph. If c.ID is already present
// the call is a silent no-op (first-wins), matching the brute-force
// backend's policy.
func (g *Index) Add(c chunk.Chunk, vector []float32) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.addLocked(c, vector)
}

// AddAll adds each entry in order under the same constraints as Add.
func (g *Index) AddAll(entries []vecindex.VectorEntry) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	for _, e := range entries {
		if err := g.addLocked(e.Chunk, e.Vector); err != nil {
			return err
		}
	}
	return nil
}

// Merge absorbs another graph index of the same model id, inserting
// its entries (in its own insertion order) one at a time through the
// normal build path. Ids already present are skipped (first-wins).
func (g *Index) Merge(other vecindex.Index) error {
	src, ok := other.(*Index)
	if !ok {
		return fmt.Errorf("graphindex: Merge requires another graph index; use the merge package for cross-backend merges")
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	if !g.config.CompatibleWith(src.Config()) {
		return &vecindex.IncompatibleModelError{Target: g.config.ModelID, Source: src.ModelID()}
	}

	for _, e := range src.Entries() {
		if err := g.addLocked(e.Chunk, e.Vector); err != nil {
			return err
		}
	}
	return nil
}

func (g *Index) addLocked(c chunk.Chunk, vector []float32) error {
	if len(vector) != g.config.Dimensions {
		return &vecindex.DimensionMismatchError{Expected: g.config.Dimensions, Actual: len(vector)}
	}
	if _, exists := g.idPos[c.ID]; exists {
		return nil
	}

	level := g.randomLevel()
	n := &node{
		id:        c.ID,
		vector:    vecindex.CopyVector(vector),
		level:     level,
		neighbors: make([][]string, level+1),
	}
	for i := range n.neighbors {
		n.neighbors[i] = []string{}
	}

	g.idPos[c.ID] = len(g.chunks)
	g.chunks = append(g.chunks, c)
	g.nodes[c.ID] = n

	if g.entryPoint == "" {
		g.entryPoint = c.ID
		return nil
	}

	entry := g.entryPoint
	entryLevel := g.nodes[entry].level

	cur := entry
	for layer := entryLevel; layer > level; layer-- {
		cur = g.greedyClosest(vector, cur, layer)
	}

	nearest := []candidate{{id: cur, dist: g.distanceTo(vector, cur)}}
	for layer := min(level, entryLevel); layer >= 0; layer-- {
		capacity := g.config.M
		if layer == 0 {
			capacity *= 2
		}

		found := g.searchLayer(vector, idsOf(nearest), g.config.EfConstruction, layer)
		selected := g.selectNeighborsHeuristic(found, capacity)

		n.neighbors[layer] = idsOf(selected)
		for _, s := range selected {
			g.addNeighbor(s.id, c.ID, layer, capacity)
		}
		nearest = found
	}

	if level > entryLevel {
		g.entryPoint = c.ID
	}
	return nil
}

// addNeighbor records a new back-edge from nodeID to newID at layer,
// pruning nodeID's neighbor list back down to capacity via the same
// diversity heuristic used at insertion time if it overflows.
func (g *Index) addNeighbor(nodeID, newID string, layer, capacity int) {
	n := g.nodes[nodeID]
	if layer > n.level {
		return
	}
	n.neighbors[layer] = append(n.neighbors[layer], newID)
	if len(n.neighbors[layer]) <= capacity {
		return
	}

	cands := make([]candidate, 0, len(n.neighbors[layer]))
	for _, nb := range n.neighbors[layer] {
		cands = append(cands, candidate{id: nb, dist: g.distanceBetween(nodeID, nb)})
	}
	sortCandidatesAsc(cands)
	pruned := g.selectNeighborsHeuristic(cands, capacity)
	n.neighbors[layer] = idsOf(pruned)
}

// selectNeighborsHeuristic picks up to m candidates (already sorted
// ascending by distance to the query), preferring ones that are closer
// to the query than to any neighbor already selected. This is the
// standard HNSW diversity heuristic; it avoids clustering all edges
// around the single nearest candidate. Candidates it prunes are used
// to backfill if the heuristic leaves the selection under capacity.
func (g *Index) selectNeighborsHeuristic(candidates []candidate, m int) []candidate {
	if len(candidates) <= m {
		return candidates
	}

	selected := make([]candidate, 0, m)
	var discarded []candidate
	for _, c := range candidates {
		if len(selected) >= m {
			discarded = append(discarded, c)
			continue
		}
		diverse := true
		for _, s := range selected {
			if g.distanceBetween(c.id, s.id) < c.dist {
				diverse = false
				break
			}
		}
		if diverse {
			selected = append(selected, c)
		} else {
			discarded = append(discarded, c)
		}
	}

	for _, c := range discarded {
		if len(selected) >= m {
			break
		}
		selected = append(selected, c)
	}
	return selected
}

// randomLevel draws a layer via the geometric distribution with
// multiplier 1/ln(M), the standard HNSW level-assignment formula.
func (g *Index) randomLevel() int {
	ml := 1.0 / math.Log(float64(g.config.M))
	u := g.rng.Float64()
	if u <= 0 {
		u = 1e-12
	}
	return int(math.Floor(-math.Log(u) * ml))
}

func (g *Index) distanceTo(query []float32, id string) float32 {
	return vecindex.CosineDistance(query, g.nodes[id].vector)
}

func (g *Index) distanceBetween(a, b string) float32 {
	return vecindex.CosineDistance(g.nodes[a].vector, g.nodes[b].vector)
}
