package graphindex

import (
	"bytes"
	"encoding/gob"
	"fmt"
	"math/rand"

	"github.com/chunkvec/chunkvec/chunk"
	"github.com/chunkvec/chunkvec/vecindex"
)

// graphImageVersion1 is the only graph-image encoding this package
// has ever produced. It is independent of the outer wire format's
// own format_version field.
const graphImageVersion1 = 1

// nodeImage is the gob-serializable form of node.
type nodeImage struct {
	ID        string
	Vector    []float32
	Level     int
	Neighbors [][]string
}

// graphImage is the gob-serializable form of the graph's structural
// state. It intentionally excludes chunk metadata: the outer codec
// carries chunks (and their JSON) separately, keyed by the same ids
// used here.
type graphImage struct {
	Version    int
	EntryPoint string
	Order      []string
	Nodes      map[string]*nodeImage
}

// ExportImage serializes the graph's structure (entry point, nodes,
// per-layer neighbor lists, and vectors) to an opaque blob. The MHNS
// wire format embeds this blob directly rather than storing vectors
// a second time.
func (g *Index) ExportImage() ([]byte, error) {
	g.mu.RLock()
	defer g.mu.RUnlock()

	img := graphImage{
		Version:    graphImageVersion1,
		EntryPoint: g.entryPoint,
		Order:      make([]string, len(g.chunks)),
		Nodes:      make(map[string]*nodeImage, len(g.nodes)),
	}
	for i, c := range g.chunks {
		img.Order[i] = c.ID
	}
	for id, n := range g.nodes {
		img.Nodes[id] = &nodeImage{
			ID:        n.id,
			Vector:    n.vector,
			Level:     n.level,
			Neighbors: n.neighbors,
		}
	}

	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(img); err != nil {
		return nil, fmt.Errorf("graphindex: encode image: %w", err)
	}
	return buf.Bytes(), nil
}

// NewFromImage reconstructs a graph index from a blob produced by
// ExportImage and the chunk list it belongs with (in the same order
// the outer codec decoded them, which must match img.Order).
func NewFromImage(cfg vecindex.Config, chunks []chunk.Chunk, blob []byte) (*Index, error) {
	var img graphImage
	if err := gob.NewDecoder(bytes.NewReader(blob)).Decode(&img); err != nil {
		return nil, fmt.Errorf("graphindex: decode image: %w", err)
	}
	if img.Version != graphImageVersion1 {
		return nil, &vecindex.UnsupportedVersionError{Version: uint16(img.Version)}
	}
	if len(img.Order) != len(chunks) {
		return nil, fmt.Errorf("graphindex: image has %d nodes but %d chunks were provided", len(img.Order), len(chunks))
	}

	cfg = cfg.WithDefaults()
	g := &Index{
		config:     cfg,
		chunks:     chunks,
		idPos:      make(map[string]int, len(chunks)),
		nodes:      make(map[string]*node, len(img.Nodes)),
		entryPoint: img.EntryPoint,
		rng:        rand.New(rand.NewSource(DefaultSeed)),
	}

	for i, c := range chunks {
		if c.ID != img.Order[i] {
			return nil, fmt.Errorf("graphindex: chunk order mismatch at position %d: image has %q, got %q", i, img.Order[i], c.ID)
		}
		g.idPos[c.ID] = i
	}
	for id, ni := range img.Nodes {
		g.nodes[id] = &node{
			id:        ni.ID,
			vector:    ni.Vector,
			level:     ni.Level,
			neighbors: ni.Neighbors,
		}
	}

	if g.entryPoint != "" {
		if _, ok := g.nodes[g.entryPoint]; !ok {
			return nil, fmt.Errorf("graphindex: entry point %q not found among decoded nodes", g.entryPoint)
		}
	}
	return g, nil
}
