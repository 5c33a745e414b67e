package vecindex

import (
	"math"

	"github.com/viterin/vek/vek32"
)

// CosineSimilarity computes the cosine similarity of two equal-length
// vectors: dot(a, b) / (norm(a) * norm(b)). If either norm is zero, the
// result is 0. Panics are avoided by returning 0 on length mismatch;
// callers are expected to have already dimension-checked both vectors.
func CosineSimilarity(a, b []float32) float32 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}

	dot := vek32.Dot(a, b)
	normA := float32(math.Sqrt(float64(vek32.Dot(a, a))))
	normB := float32(math.Sqrt(float64(vek32.Dot(b, b))))

	if normA == 0 || normB == 0 {
		return 0
	}

	return dot / (normA * normB)
}

// CosineDistance is 1 - CosineSimilarity, the distance function used
// by the proximity-graph backend.
func CosineDistance(a, b []float32) float32 {
	return 1 - CosineSimilarity(a, b)
}

// Normalize returns a unit-length copy of v. The zero vector is
// returned unchanged (copied, not aliased).
func Normalize(v []float32) []float32 {
	out := make([]float32, len(v))
	copy(out, v)
	NormalizeInPlace(out)
	return out
}

// NormalizeInPlace scales v to unit length in place. The zero vector is
// left unchanged.
func NormalizeInPlace(v []float32) {
	sumSquares := vek32.Dot(v, v)
	if sumSquares == 0 {
		return
	}
	invMagnitude := float32(1.0 / math.Sqrt(float64(sumSquares)))
	for i := range v {
		v[i] *= invMagnitude
	}
}

// ClampSimilarity clamps a raw similarity value to [0, 1]. Vectors
// produced by well-behaved embedding providers are unit-normalized, so
// raw cosine lies in [-1, 1]; this clamp tolerates floating-point drift
// and also maps negative cosines down to 0: similarity is whatever the
// backend computed, then clamped to a non-negative score.
func ClampSimilarity(sim float32) float32 {
	if sim < 0 {
		return 0
	}
	if sim > 1 {
		return 1
	}
	return sim
}

// CopyVector returns a defensive copy of v, never aliasing the input.
func CopyVector(v []float32) []float32 {
	out := make([]float32, len(v))
	copy(out, v)
	return out
}
