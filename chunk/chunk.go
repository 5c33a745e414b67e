// Package chunk defines the immutable code-fragment record that this
// module's indexes and merger operate on.
package chunk

import "fmt"

// Kind enumerates the finite set of code-fragment shapes a Chunk can
// represent.
type Kind string

const (
	KindClass       Kind = "class"
	KindInterface   Kind = "interface"
	KindEnum        Kind = "enum"
	KindRecord      Kind = "record"
	KindMethod      Kind = "method"
	KindConstructor Kind = "constructor"
	KindField       Kind = "field"
	KindAnnotation  Kind = "annotation"
)

// Valid reports whether k is one of the finite set of known kinds.
func (k Kind) Valid() bool {
	switch k {
	case KindClass, KindInterface, KindEnum, KindRecord, KindMethod, KindConstructor, KindField, KindAnnotation:
		return true
	default:
		return false
	}
}

// Chunk is an immutable record identifying a unit of source code.
//
// Chunks are never mutated in place. The provenance slot (Artifact) is
// set only via WithArtifact, which returns a new Chunk.
type Chunk struct {
	ID              string
	Name            string
	Kind            Kind
	Body            string
	File            string
	LineStart       int
	LineEnd         int
	ParentContainer string // "" means absent
	Metadata        map[string]string
	Artifact        string // "" means no provenance stamped yet
}

// New constructs a Chunk, validating the invariants spelled out in the
// data model: id, name and file non-empty, kind one of the known kinds,
// and LineEnd >= LineStart >= 1. Body may be empty. The returned Chunk
// has no metadata; WithMetadata attaches a defensive copy.
func New(id, name string, kind Kind, body, file string, lineStart, lineEnd int) (Chunk, error) {
	if id == "" {
		return Chunk{}, fmt.Errorf("chunk: id must not be empty")
	}
	if name == "" {
		return Chunk{}, fmt.Errorf("chunk: name must not be empty")
	}
	if !kind.Valid() {
		return Chunk{}, fmt.Errorf("chunk: invalid kind %q", kind)
	}
	if file == "" {
		return Chunk{}, fmt.Errorf("chunk: file must not be empty")
	}
	if lineStart < 1 {
		return Chunk{}, fmt.Errorf("chunk: line_start must be >= 1, got %d", lineStart)
	}
	if lineEnd < lineStart {
		return Chunk{}, fmt.Errorf("chunk: line_end (%d) must be >= line_start (%d)", lineEnd, lineStart)
	}

	return Chunk{
		ID:        id,
		Name:      name,
		Kind:      kind,
		Body:      body,
		File:      file,
		LineStart: lineStart,
		LineEnd:   lineEnd,
	}, nil
}

// WithParentContainer returns a copy of c with ParentContainer set.
func (c Chunk) WithParentContainer(parent string) Chunk {
	c.ParentContainer = parent
	return c
}

// WithMetadata returns a copy of c with Metadata replaced by a
// defensive copy of md.
func (c Chunk) WithMetadata(md map[string]string) Chunk {
	c.Metadata = copyMetadata(md)
	return c
}

// WithArtifact returns a new Chunk identical to c except that its
// provenance slot is set to artifact. c itself is never modified: this
// is the "stamp artifact" operation from the data model, expressed as a
// pure function rather than a mutation.
func (c Chunk) WithArtifact(artifact string) Chunk {
	c.Metadata = copyMetadata(c.Metadata)
	c.Artifact = artifact
	return c
}

// HasArtifact reports whether c carries provenance information.
func (c Chunk) HasArtifact() bool {
	return c.Artifact != ""
}

// HasParent reports whether c has a parent container recorded.
func (c Chunk) HasParent() bool {
	return c.ParentContainer != ""
}

func copyMetadata(md map[string]string) map[string]string {
	if md == nil {
		return nil
	}
	out := make(map[string]string, len(md))
	for k, v := range md {
		out[k] = v
	}
	return out
}
