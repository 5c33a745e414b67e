// Package codec implements the binary on-disk format shared by both
// index backends: a common framed header, two magic-tagged body
// layouts (raw vectors for the brute-force backend, an opaque graph
// image for the proximity-graph backend), and format auto-detection.
package codec

import (
	"encoding/binary"
	"fmt"
	"io"
	"unicode/utf16"

	"github.com/chunkvec/chunkvec/vecindex"
)

// Magic byte sequences identifying the two on-disk variants.
const (
	MagicBruteForce = "MVEC"
	MagicGraph      = "MHNS"
)

// FormatVersion1 is the only format_version this package has ever
// written or read.
const FormatVersion1 = uint16(1)

// modelHash reproduces Java's String.hashCode() over model_id's UTF-16
// code units, then sign-extends the 32-bit result to 64 bits. This is
// not a strong hash; it exists purely for cross-implementation
// reproducibility of the on-disk model_hash field.
func modelHash(modelID string) int64 {
	var h int32
	for _, unit := range utf16.Encode([]rune(modelID)) {
		h = 31*h + int32(unit)
	}
	return int64(h)
}

func writeString(w io.Writer, s string) error {
	if len(s) > 0xFFFF {
		return fmt.Errorf("codec: string of length %d exceeds the 16-bit length prefix", len(s))
	}
	if err := binary.Write(w, binary.BigEndian, uint16(len(s))); err != nil {
		return err
	}
	_, err := io.WriteString(w, s)
	return err
}

func readString(r io.Reader) (string, error) {
	var n uint16
	if err := binary.Read(r, binary.BigEndian, &n); err != nil {
		return "", err
	}
	buf := make([]byte, n)
	if _, err := io.ReadFull(r, buf); err != nil {
		return "", err
	}
	return string(buf), nil
}

func writeBytesWithLen(w io.Writer, data []byte) error {
	if err := binary.Write(w, binary.BigEndian, int32(len(data))); err != nil {
		return err
	}
	_, err := w.Write(data)
	return err
}

func readBytesWithLen(r io.Reader) ([]byte, error) {
	var n int32
	if err := binary.Read(r, binary.BigEndian, &n); err != nil {
		return nil, err
	}
	if n < 0 {
		return nil, fmt.Errorf("codec: negative length prefix %d", n)
	}
	buf := make([]byte, n)
	if _, err := io.ReadFull(r, buf); err != nil {
		return nil, err
	}
	return buf, nil
}

// writeHeader writes the fields common to both variants: magic,
// format_version, dimensions, chunk_count, model_hash, and model_id.
func writeHeader(w io.Writer, magic string, cfg vecindex.Config, chunkCount int) error {
	if _, err := io.WriteString(w, magic); err != nil {
		return err
	}
	if err := binary.Write(w, binary.BigEndian, FormatVersion1); err != nil {
		return err
	}
	if err := binary.Write(w, binary.BigEndian, int32(cfg.Dimensions)); err != nil {
		return err
	}
	if err := binary.Write(w, binary.BigEndian, int32(chunkCount)); err != nil {
		return err
	}
	if err := binary.Write(w, binary.BigEndian, modelHash(cfg.ModelID)); err != nil {
		return err
	}
	return writeString(w, cfg.ModelID)
}

// readHeader consumes and validates the common header, including the
// magic bytes (which the caller has typically already peeked to
// decide which reader to call).
func readHeader(r io.Reader, expectedMagic string) (dimensions, chunkCount int, modelID string, err error) {
	magicBuf := make([]byte, 4)
	if _, err = io.ReadFull(r, magicBuf); err != nil {
		return
	}
	if string(magicBuf) != expectedMagic {
		var observed [4]byte
		copy(observed[:], magicBuf)
		err = &vecindex.InvalidMagicError{Observed: observed}
		return
	}

	var version uint16
	if err = binary.Read(r, binary.BigEndian, &version); err != nil {
		return
	}
	if version != FormatVersion1 {
		err = &vecindex.UnsupportedVersionError{Version: version}
		return
	}

	var dims32, count32 int32
	if err = binary.Read(r, binary.BigEndian, &dims32); err != nil {
		return
	}
	if err = binary.Read(r, binary.BigEndian, &count32); err != nil {
		return
	}

	var hash int64
	if err = binary.Read(r, binary.BigEndian, &hash); err != nil {
		return
	}
	_ = hash // not independently verified: model_id itself is the source of truth on load

	modelID, err = readString(r)
	dimensions = int(dims32)
	chunkCount = int(count32)
	return
}
