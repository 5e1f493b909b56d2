package storage

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestCosineSimilarity(t *testing.T) {
	assert.InDelta(t, 1.0, CosineSimilarity([]float64{1, 0, 0}, []float64{1, 0, 0}), 1e-9)
	assert.InDelta(t, 0.0, CosineSimilarity([]float64{1, 0}, []float64{0, 1}), 1e-9)
	assert.InDelta(t, -1.0, CosineSimilarity([]float64{1, 0}, []float64{-1, 0}), 1e-9)
}

func TestCosineSimilarity_DegenerateInputs(t *testing.T) {
	// Mismatched lengths and zero vectors have no meaningful angle.
	assert.Equal(t, 0.0, CosineSimilarity([]float64{1, 2}, []float64{1, 2, 3}))
	assert.Equal(t, 0.0, CosineSimilarity([]float64{0, 0}, []float64{1, 1}))
	assert.Equal(t, 0.0, CosineSimilarity(nil, nil))
}

func TestRankByScore(t *testing.T) {
	memories := []*Memory{
		{ID: 1, Score: 0.2},
		{ID: 2, Score: 0.9},
		{ID: 3, Score: 0.5},
	}

	ranked := RankByScore(memories, 2)
	assert.Len(t, ranked, 2)
	assert.Equal(t, int64(2), ranked[0].ID)
	assert.Equal(t, int64(3), ranked[1].ID)
}

func TestRankByScore_TieBreaksOnLastAccess(t *testing.T) {
	older := time.Now().Add(-time.Hour)
	newer := time.Now()
	memories := []*Memory{
		{ID: 1, Score: 0.7, LastAccessedAt: older},
		{ID: 2, Score: 0.7, LastAccessedAt: newer},
	}

	ranked := RankByScore(memories, 0)
	assert.Equal(t, int64(2), ranked[0].ID)
	assert.Equal(t, int64(1), ranked[1].ID)
}
