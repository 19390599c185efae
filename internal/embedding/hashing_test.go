package embedding

import (
	"context"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"filing-rag/internal/config"
)

func dot(a, b []float32) float64 {
	var s float64
	for i := range a {
		s += float64(a[i]) * float64(b[i])
	}
	return s
}

func TestHashingEmbedder(t *testing.T) {
	h := NewHashingEmbedder(256)
	ctx := context.Background()

	a, err := h.Embed(ctx, "NVIDIA revenue 2023")
	require.NoError(t, err)
	require.Len(t, a, 256)
	assert.InDelta(t, 1.0, math.Sqrt(dot(a, a)), 1e-5)

	same, _ := h.Embed(ctx, "nvidia REVENUE 2023")
	assert.Equal(t, a, same)

	near, _ := h.Embed(ctx, "NVIDIA revenue grew in 2023")
	far, _ := h.Embed(ctx, "Microsoft cloud margin")
	assert.Greater(t, dot(a, near), dot(a, far))
}

func TestHashingEmbedderEmptyText(t *testing.T) {
	v, err := NewHashingEmbedder(0).Embed(context.Background(), "  ...  ")
	require.NoError(t, err)
	assert.Len(t, v, 384)
	assert.Equal(t, float32(1), v[0])
}

func TestNewEmbeddingFunc(t *testing.T) {
	fn, err := NewEmbeddingFunc(&config.EmbeddingConfig{Provider: "hashing", Dimension: 32})
	require.NoError(t, err)
	v, err := fn(context.Background(), "operating margin")
	require.NoError(t, err)
	assert.Len(t, v, 32)

	_, err = NewEmbeddingFunc(&config.EmbeddingConfig{Provider: "bert"})
	assert.Error(t, err)
}
