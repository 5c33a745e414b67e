// Package analysis implements the duplicate-detection and anomaly-
// detection operations shared by both index backends, expressed once
// against the common vecindex.Index contract.
package analysis

import (
	"context"

	"github.com/chunkvec/chunkvec/chunk"
	"github.com/chunkvec/chunkvec/vecindex"
)

// bruteForceNeighborhoodWidth is the suggested candidate-set width for
// the graph backend's duplicate scan.
const bruteForceNeighborhoodWidth = 20

// anomalyNeighborhoodWidth is the suggested neighbor count the graph
// backend averages over for anomaly scoring.
const anomalyNeighborhoodWidth = 10

// minChunksForAnomalyDetection is the smallest corpus FindAnomalies
// will evaluate; smaller corpora always return no anomalies.
const minChunksForAnomalyDetection = 5

// NeighborSearcher is an optional capability an Index backend may
// implement to let analysis operate on an approximate neighborhood
// instead of an exhaustive O(n^2) scan. The graph backend implements
// it; the brute-force backend does not, so these operations fall back
// to scoring every pair.
type NeighborSearcher interface {
	SearchNeighbors(ctx context.Context, id string, width int) ([]vecindex.SearchResult, error)
}

// FindDuplicates performs the greedy agglomeration described by the
// duplicate-detection contract: chunks are visited in insertion order;
// each unprocessed chunk gathers unprocessed peers meeting or
// exceeding threshold into a group, and group members are marked
// processed so they are never revisited. Groups of size 1 are
// discarded. Output order is the insertion order of group
// representatives.
func FindDuplicates(ctx context.Context, idx vecindex.Index, threshold float32) ([]vecindex.DuplicateGroup, error) {
	entries := idx.Entries()
	n := len(entries)
	processed := make([]bool, n)

	posByID := make(map[string]int, n)
	for i, e := range entries {
		posByID[e.Chunk.ID] = i
	}

	searcher, isApproximate := idx.(NeighborSearcher)

	var groups []vecindex.DuplicateGroup
	for i := 0; i < n; i++ {
		if processed[i] {
			continue
		}
		processed[i] = true
		group := []chunk.Chunk{entries[i].Chunk}

		if isApproximate {
			neighbors, err := searcher.SearchNeighbors(ctx, entries[i].Chunk.ID, bruteForceNeighborhoodWidth)
			if err != nil {
				return nil, err
			}
			for _, r := range neighbors {
				j, ok := posByID[r.Chunk.ID]
				if !ok || processed[j] {
					continue
				}
				if r.Similarity >= threshold {
					processed[j] = true
					group = append(group, entries[j].Chunk)
				}
			}
		} else {
			for j := i + 1; j < n; j++ {
				if processed[j] {
					continue
				}
				sim := vecindex.CosineSimilarity(entries[i].Vector, entries[j].Vector)
				if sim >= threshold {
					processed[j] = true
					group = append(group, entries[j].Chunk)
				}
			}
		}

		if len(group) >= 2 {
			groups = append(groups, vecindex.DuplicateGroup{FloorSimilarity: threshold, Chunks: group})
		}
	}

	if groups == nil {
		groups = []vecindex.DuplicateGroup{}
	}
	return groups, nil
}

// FindAnomalies returns chunks whose mean similarity to their peers
// falls below threshold. Corpora smaller than
// minChunksForAnomalyDetection always return no anomalies. The
// brute-force backend averages over every other chunk; the graph
// backend averages over its anomalyNeighborhoodWidth nearest
// neighbors (excluding itself).
func FindAnomalies(ctx context.Context, idx vecindex.Index, threshold float32) ([]chunk.Chunk, error) {
	entries := idx.Entries()
	n := len(entries)
	if n < minChunksForAnomalyDetection {
		return []chunk.Chunk{}, nil
	}

	var anomalies []chunk.Chunk

	if searcher, ok := idx.(NeighborSearcher); ok {
		for _, e := range entries {
			neighbors, err := searcher.SearchNeighbors(ctx, e.Chunk.ID, anomalyNeighborhoodWidth)
			if err != nil {
				return nil, err
			}
			if len(neighbors) == 0 {
				continue
			}
			var sum float32
			for _, r := range neighbors {
				sum += r.Similarity
			}
			if sum/float32(len(neighbors)) < threshold {
				anomalies = append(anomalies, e.Chunk)
			}
		}
	} else {
		for i, e := range entries {
			var sum float32
			for j, other := range entries {
				if i == j {
					continue
				}
				sum += vecindex.CosineSimilarity(e.Vector, other.Vector)
			}
			if sum/float32(n-1) < threshold {
				anomalies = append(anomalies, e.Chunk)
			}
		}
	}

	if anomalies == nil {
		anomalies = []chunk.Chunk{}
	}
	return anomalies, nil
}
