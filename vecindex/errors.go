package vecindex

import "fmt"

// DimensionMismatchError is returned by Add/AddAll/Merge/Search when a
// vector's length does not equal the owning index's configured
// dimensions.
type DimensionMismatchError struct {
	Expected int
	Actual   int
}

func (e *DimensionMismatchError) Error() string {
	return fmt.Sprintf("vecindex: dimension mismatch: expected %d, got %d", e.Expected, e.Actual)
}

// IncompatibleModelError is returned by Merge (and recorded, not
// returned, by the merger's AddIndex) when two indexes' model ids
// differ.
type IncompatibleModelError struct {
	Target string
	Source string
}

func (e *IncompatibleModelError) Error() string {
	return fmt.Sprintf("vecindex: incompatible model: target %q, source %q", e.Target, e.Source)
}

// MissingProviderError is returned from textual search variants when no
// embedding provider has been configured.
type MissingProviderError struct{}

func (e *MissingProviderError) Error() string {
	return "vecindex: no embedding provider configured for text search"
}

// InvalidMagicError is returned from Load when the stream's first four
// bytes match neither on-disk format variant.
type InvalidMagicError struct {
	Observed [4]byte
}

func (e *InvalidMagicError) Error() string {
	return fmt.Sprintf("vecindex: invalid magic bytes: %q", e.Observed[:])
}

// UnsupportedVersionError is returned from Load when the stream's
// format_version is outside the set this build understands.
type UnsupportedVersionError struct {
	Version uint16
}

func (e *UnsupportedVersionError) Error() string {
	return fmt.Sprintf("vecindex: unsupported format version: %d", e.Version)
}

// DimensionUndeterminedError is returned by the merger's build() when
// called with no successful AddIndex and no explicit dimensions
// configured. In practice the merger is always constructed with known
// dimensions, so this is an assertion-level guard.
type DimensionUndeterminedError struct{}

func (e *DimensionUndeterminedError) Error() string {
	return "vecindex: target dimensions could not be determined (no sources accepted and none configured)"
}
