package codec

import (
	"encoding/json"

	"github.com/chunkvec/chunkvec/chunk"
	"github.com/chunkvec/chunkvec/vecindex"
)

// chunkWire is the on-disk JSON shape of a chunk, with the exact keys
// the wire format mandates.
type chunkWire struct {
	ID          string            `json:"id"`
	Name        string            `json:"name"`
	Type        string            `json:"type"`
	Code        string            `json:"code"`
	File        string            `json:"file"`
	LineStart   int               `json:"lineStart"`
	LineEnd     int               `json:"lineEnd"`
	ParentClass *string           `json:"parentClass"`
	Metadata    map[string]string `json:"metadata"`
	Artifact    *string           `json:"artifact"`
}

func chunkToWire(c chunk.Chunk) chunkWire {
	w := chunkWire{
		ID:        c.ID,
		Name:      c.Name,
		Type:      string(c.Kind),
		Code:      c.Body,
		File:      c.File,
		LineStart: c.LineStart,
		LineEnd:   c.LineEnd,
		Metadata:  c.Metadata,
	}
	if c.HasParent() {
		p := c.ParentContainer
		w.ParentClass = &p
	}
	if c.HasArtifact() {
		a := c.Artifact
		w.Artifact = &a
	}
	return w
}

func wireToChunk(w chunkWire) (chunk.Chunk, error) {
	c, err := chunk.New(w.ID, w.Name, chunk.Kind(w.Type), w.Code, w.File, w.LineStart, w.LineEnd)
	if err != nil {
		return chunk.Chunk{}, err
	}
	if w.ParentClass != nil {
		c = c.WithParentContainer(*w.ParentClass)
	}
	if w.Metadata != nil {
		c = c.WithMetadata(w.Metadata)
	}
	if w.Artifact != nil {
		c = c.WithArtifact(*w.Artifact)
	}
	return c, nil
}

func marshalChunks(entries []vecindex.VectorEntry) ([]byte, error) {
	wires := make([]chunkWire, len(entries))
	for i, e := range entries {
		wires[i] = chunkToWire(e.Chunk)
	}
	return json.Marshal(wires)
}

func unmarshalChunks(data []byte) ([]chunk.Chunk, error) {
	var wires []chunkWire
	if err := json.Unmarshal(data, &wires); err != nil {
		return nil, err
	}
	chunks := make([]chunk.Chunk, len(wires))
	for i, w := range wires {
		c, err := wireToChunk(w)
		if err != nil {
			return nil, err
		}
		chunks[i] = c
	}
	return chunks, nil
}
