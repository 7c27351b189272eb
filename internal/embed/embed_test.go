package embed

import (
	"context"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHashEmbedder_Deterministic(t *testing.T) {
	e := NewHashEmbedder(DefaultDimensions)

	a, err := e.Embed(context.Background(), "the same text")
	require.NoError(t, err)
	b, err := e.Embed(context.Background(), "the same text")
	require.NoError(t, err)

	assert.Equal(t, a, b)
}

func TestHashEmbedder_DistinctTextsDiffer(t *testing.T) {
	e := NewHashEmbedder(DefaultDimensions)

	a, err := e.Embed(context.Background(), "first sample")
	require.NoError(t, err)
	b, err := e.Embed(context.Background(), "other sample")
	require.NoError(t, err)

	require.Len(t, a, DefaultDimensions)
	assert.NotEqual(t, a, b)
}

func TestHashEmbedder_PositionMatters(t *testing.T) {
	// Same characters in a different order must not collide.
	e := NewHashEmbedder(DefaultDimensions)

	a, err := e.Embed(context.Background(), "ab")
	require.NoError(t, err)
	b, err := e.Embed(context.Background(), "ba")
	require.NoError(t, err)

	assert.NotEqual(t, a, b)
}

func TestHashEmbedder_L2Normalized(t *testing.T) {
	e := NewHashEmbedder(64)

	v, err := e.Embed(context.Background(), "normalize me")
	require.NoError(t, err)

	var sum float64
	for _, x := range v {
		sum += float64(x) * float64(x)
	}
	assert.InDelta(t, 1.0, sum, 1e-5)
}

func TestHashEmbedder_EmptyTextIsZeroVector(t *testing.T) {
	e := NewHashEmbedder(32)

	v, err := e.Embed(context.Background(), "")
	require.NoError(t, err)

	require.Len(t, v, 32)
	for _, x := range v {
		assert.Zero(t, x)
	}
}

func TestCosineSimilarity(t *testing.T) {
	tests := []struct {
		name string
		a, b []float32
		want float64
	}{
		{"identical", []float32{1, 0}, []float32{1, 0}, 1},
		{"orthogonal", []float32{1, 0}, []float32{0, 1}, 0},
		{"opposite", []float32{1, 0}, []float32{-1, 0}, -1},
		{"zero vector scores 0", []float32{0, 0}, []float32{1, 0}, 0},
		{"dimension mismatch scores 0", []float32{1}, []float32{1, 0}, 0},
		{"scaled", []float32{2, 0}, []float32{5, 0}, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, CosineSimilarity(tt.a, tt.b), 1e-9)
		})
	}
}

func TestCachedEmbedder_ReturnsSameVectors(t *testing.T) {
	e := NewCachedEmbedder(NewHashEmbedder(64), 10)

	a, err := e.Embed(context.Background(), "cache this")
	require.NoError(t, err)
	b, err := e.Embed(context.Background(), "cache this")
	require.NoError(t, err)

	assert.Equal(t, a, b)
	assert.Equal(t, 64, e.Dimensions())
}

type countingEmbedder struct {
	*HashEmbedder
	calls int
}

func (c *countingEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	c.calls++
	return c.HashEmbedder.Embed(ctx, text)
}

func TestCachedEmbedder_AvoidsRecomputation(t *testing.T) {
	inner := &countingEmbedder{HashEmbedder: NewHashEmbedder(32)}
	e := NewCachedEmbedder(inner, 10)

	_, err := e.Embed(context.Background(), "once")
	require.NoError(t, err)
	_, err = e.Embed(context.Background(), "once")
	require.NoError(t, err)

	assert.Equal(t, 1, inner.calls)
}

func TestHashEmbedder_FallbackDimensions(t *testing.T) {
	e := NewHashEmbedder(0)
	assert.Equal(t, DefaultDimensions, e.Dimensions())

	v, err := e.Embed(context.Background(), "x")
	require.NoError(t, err)
	assert.Len(t, v, DefaultDimensions)

	var norm float64
	for _, f := range v {
		norm += float64(f) * float64(f)
	}
	assert.InDelta(t, 1.0, math.Sqrt(norm), 1e-5)
}
