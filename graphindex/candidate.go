package graphindex

import "sort"

// candidate pairs a node id with its distance to some query, kept by
// every frontier/result set in the package.
type candidate struct {
	id   string
	dist float32
}

func sortCandidatesAsc(c []candidate) {
	sort.Slice(c, func(i, j int) bool { return c[i].dist < c[j].dist })
}

// insertSorted inserts c into an ascending-by-dist slice, keeping it sorted.
func insertSorted(s []candidate, c candidate) []candidate {
	i := sort.Search(len(s), func(i int) bool { return s[i].dist >= c.dist })
	s = append(s, candidate{})
	copy(s[i+1:], s[i:])
	s[i] = c
	return s
}

func idsOf(c []candidate) []string {
	ids := make([]string, len(c))
	for i, cand := range c {
		ids[i] = cand.id
	}
	return ids
}

func min(a, b int) int {
	if a < b {
		return a
	}
	return b
}
