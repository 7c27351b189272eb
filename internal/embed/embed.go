// Package embed turns text into fixed-length vectors for the chunk
// store. The hash embedder is a deterministic placeholder: it captures
// no semantics but is structurally correct, and the Embedder interface
// is the seam where a real model plugs in without touching the stores.
package embed

import (
	"context"
	"encoding/binary"
	"hash/fnv"
	"math"
)

// DefaultDimensions is the default embedding vector dimension.
const DefaultDimensions = 256

// Embedder maps text to a fixed-length L2-normalized vector.
type Embedder interface {
	// Embed generates the vector for a single text.
	Embed(ctx context.Context, text string) ([]float32, error)

	// Dimensions returns the vector length every Embed call produces.
	Dimensions() int
}

// HashEmbedder is the deterministic placeholder embedder. Each character
// is hashed together with its position into a bucket; the bucket counts
// are then L2-normalized. Identical text always yields a bit-identical
// vector.
type HashEmbedder struct {
	dims int
}

// NewHashEmbedder creates a hash embedder with the given dimension.
// Non-positive dimensions fall back to the default.
func NewHashEmbedder(dims int) *HashEmbedder {
	if dims <= 0 {
		dims = DefaultDimensions
	}
	return &HashEmbedder{dims: dims}
}

// Embed implements Embedder.
func (e *HashEmbedder) Embed(_ context.Context, text string) ([]float32, error) {
	vector := make([]float32, e.dims)
	var buf [8]byte

	for i, r := range []rune(text) {
		binary.LittleEndian.PutUint32(buf[0:4], uint32(r))
		binary.LittleEndian.PutUint32(buf[4:8], uint32(i))

		h := fnv.New64a()
		_, _ = h.Write(buf[:])
		vector[h.Sum64()%uint64(e.dims)]++
	}

	normalizeInPlace(vector)
	return vector, nil
}

// Dimensions implements Embedder.
func (e *HashEmbedder) Dimensions() int {
	return e.dims
}

// normalizeInPlace scales a vector to unit length. A zero vector is left
// untouched.
func normalizeInPlace(v []float32) {
	var sumSquares float64
	for _, val := range v {
		sumSquares += float64(val) * float64(val)
	}
	if sumSquares == 0 {
		return
	}
	inv := float32(1.0 / math.Sqrt(sumSquares))
	for i := range v {
		v[i] *= inv
	}
}

// CosineSimilarity computes the cosine similarity of two vectors.
// A dimension mismatch or a zero-magnitude vector scores 0.
func CosineSimilarity(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot, magA, magB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		magA += float64(a[i]) * float64(a[i])
		magB += float64(b[i]) * float64(b[i])
	}
	if magA == 0 || magB == 0 {
		return 0
	}
	return dot / (math.Sqrt(magA) * math.Sqrt(magB))
}

var _ Embedder = (*HashEmbedder)(nil)
