package codec

import (
	"bufio"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/chunkvec/chunkvec/vecindex"
)

// SaveFile writes idx to path using an atomic temp-file-plus-rename
// sequence: the index is fully serialized to a sibling ".tmp" file,
// which is then renamed over path (atomic on most filesystems), so a
// reader never observes a partially-written file.
func SaveFile(path string, idx vecindex.Index) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("codec: create directory: %w", err)
	}

	tmpPath := path + ".tmp"
	file, err := os.Create(tmpPath)
	if err != nil {
		return fmt.Errorf("codec: create temp file: %w", err)
	}

	if err := Save(file, idx); err != nil {
		if closeErr := file.Close(); closeErr != nil {
			slog.Warn("codec: failed to close temp file during cleanup", slog.String("error", closeErr.Error()))
		}
		if rmErr := os.Remove(tmpPath); rmErr != nil {
			slog.Warn("codec: failed to remove temp file during cleanup", slog.String("error", rmErr.Error()))
		}
		return fmt.Errorf("codec: encode index: %w", err)
	}

	if err := file.Close(); err != nil {
		if rmErr := os.Remove(tmpPath); rmErr != nil {
			slog.Warn("codec: failed to remove temp file during cleanup", slog.String("error", rmErr.Error()))
		}
		return fmt.Errorf("codec: close temp file: %w", err)
	}

	if err := os.Rename(tmpPath, path); err != nil {
		if rmErr := os.Remove(tmpPath); rmErr != nil {
			slog.Warn("codec: failed to remove temp file during cleanup", slog.String("error", rmErr.Error()))
		}
		return fmt.Errorf("codec: rename temp file: %w", err)
	}
	return nil
}

// LoadFile reads and decodes an index previously written by SaveFile.
func LoadFile(path string) (vecindex.Index, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("codec: open file: %w", err)
	}
	defer func() {
		if closeErr := file.Close(); closeErr != nil {
			slog.Warn("codec: failed to close file after load", slog.String("error", closeErr.Error()))
		}
	}()

	return Load(bufio.NewReader(file))
}
