package codec

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"

	"github.com/chunkvec/chunkvec/bruteforce"
	"github.com/chunkvec/chunkvec/graphindex"
	"github.com/chunkvec/chunkvec/vecindex"
)

// Save writes idx to w in its magic-tagged on-disk format. Concrete
// support is limited to *bruteforce.Index and *graphindex.Index; any
// other vecindex.Index implementation fails with an error.
func Save(w io.Writer, idx vecindex.Index) error {
	switch v := idx.(type) {
	case *bruteforce.Index:
		return saveBruteForce(w, v)
	case *graphindex.Index:
		return saveGraph(w, v)
	default:
		return fmt.Errorf("codec: unsupported index type %T", idx)
	}
}

// Peek reports the magic bytes a stream begins with, without
// consuming them, via bufio.Reader's mark/reset-like Peek. Callers
// that want to inspect a stream's variant before committing to Load
// can use this directly.
func Peek(r *bufio.Reader) (string, error) {
	b, err := r.Peek(4)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// Load detects the stream's variant from its first four bytes and
// dispatches to the matching decoder. Fails with
// *vecindex.InvalidMagicError if neither magic matches, or
// *vecindex.UnsupportedVersionError if format_version is unrecognized.
func Load(r io.Reader) (vecindex.Index, error) {
	br, ok := r.(*bufio.Reader)
	if !ok {
		br = bufio.NewReader(r)
	}

	magic, err := Peek(br)
	if err != nil {
		return nil, err
	}

	switch magic {
	case MagicBruteForce:
		return loadBruteForce(br)
	case MagicGraph:
		return loadGraph(br)
	default:
		var observed [4]byte
		copy(observed[:], magic)
		return nil, &vecindex.InvalidMagicError{Observed: observed}
	}
}

func saveBruteForce(w io.Writer, idx *bruteforce.Index) error {
	entries := idx.Entries()
	cfg := idx.Config()

	if err := writeHeader(w, MagicBruteForce, cfg, len(entries)); err != nil {
		return err
	}

	chunksJSON, err := marshalChunks(entries)
	if err != nil {
		return err
	}
	if err := writeBytesWithLen(w, chunksJSON); err != nil {
		return err
	}

	for _, e := range entries {
		if err := binary.Write(w, binary.BigEndian, e.Vector); err != nil {
			return err
		}
	}
	return nil
}

func loadBruteForce(r io.Reader) (vecindex.Index, error) {
	dims, count, modelID, err := readHeader(r, MagicBruteForce)
	if err != nil {
		return nil, err
	}

	chunksJSON, err := readBytesWithLen(r)
	if err != nil {
		return nil, err
	}
	chunks, err := unmarshalChunks(chunksJSON)
	if err != nil {
		return nil, err
	}
	if len(chunks) != count {
		return nil, fmt.Errorf("codec: header declares %d chunks but chunks_json has %d", count, len(chunks))
	}

	idx, err := bruteforce.New(vecindex.DefaultConfig(modelID, dims))
	if err != nil {
		return nil, err
	}

	for _, c := range chunks {
		vec := make([]float32, dims)
		if err := binary.Read(r, binary.BigEndian, vec); err != nil {
			return nil, err
		}
		if err := idx.Add(c, vec); err != nil {
			return nil, err
		}
	}
	return idx, nil
}

func saveGraph(w io.Writer, idx *graphindex.Index) error {
	entries := idx.Entries()
	cfg := idx.Config()

	if err := writeHeader(w, MagicGraph, cfg, len(entries)); err != nil {
		return err
	}

	chunksJSON, err := marshalChunks(entries)
	if err != nil {
		return err
	}
	if err := writeBytesWithLen(w, chunksJSON); err != nil {
		return err
	}

	blob, err := idx.ExportImage()
	if err != nil {
		return err
	}
	return writeBytesWithLen(w, blob)
}

func loadGraph(r io.Reader) (vecindex.Index, error) {
	dims, count, modelID, err := readHeader(r, MagicGraph)
	if err != nil {
		return nil, err
	}

	chunksJSON, err := readBytesWithLen(r)
	if err != nil {
		return nil, err
	}
	chunks, err := unmarshalChunks(chunksJSON)
	if err != nil {
		return nil, err
	}
	if len(chunks) != count {
		return nil, fmt.Errorf("codec: header declares %d chunks but chunks_json has %d", count, len(chunks))
	}

	blob, err := readBytesWithLen(r)
	if err != nil {
		return nil, err
	}

	return graphindex.NewFromImage(vecindex.DefaultConfig(modelID, dims), chunks, blob)
}
