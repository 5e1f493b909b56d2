package mock_test

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chriswritescode-dev/opencode-manager-sub001/pkg/embedder/mock"
)

func TestEmbedder_Deterministic(t *testing.T) {
	m := mock.New(64)
	ctx := context.Background()

	a, err := m.Embed(ctx, "same text")
	require.NoError(t, err)
	b, err := m.Embed(ctx, "same text")
	require.NoError(t, err)
	assert.Equal(t, a, b)

	c, err := m.Embed(ctx, "different text")
	require.NoError(t, err)
	assert.NotEqual(t, a, c)
}

func TestEmbedder_UnitVectors(t *testing.T) {
	m := mock.New(32)

	vec, err := m.Embed(context.Background(), "any text")
	require.NoError(t, err)
	require.Len(t, vec, 32)

	var norm float64
	for _, v := range vec {
		norm += v * v
	}
	assert.InDelta(t, 1.0, math.Sqrt(norm), 1e-9)
}

func TestEmbedder_DefaultDimensions(t *testing.T) {
	assert.Equal(t, 64, mock.New(0).Dimensions())
	assert.Equal(t, 128, mock.New(128).Dimensions())
}

func TestEmbedder_ForcedError(t *testing.T) {
	m := mock.New(0)
	m.Err = errors.New("forced failure")

	_, err := m.Embed(context.Background(), "text")
	assert.ErrorIs(t, err, m.Err)

	_, err = m.EmbedBatch(context.Background(), []string{"a", "b"})
	assert.ErrorIs(t, err, m.Err)
}

func TestEmbedder_EmbedBatch(t *testing.T) {
	m := mock.New(16)

	vecs, err := m.EmbedBatch(context.Background(), []string{"one", "two"})
	require.NoError(t, err)
	require.Len(t, vecs, 2)

	single, err := m.Embed(context.Background(), "one")
	require.NoError(t, err)
	assert.Equal(t, single, vecs[0])
}
