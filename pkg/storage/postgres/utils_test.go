package postgres

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVectorToString(t *testing.T) {
	assert.Equal(t, "[0.1,0.2,0.3]", vectorToString([]float64{0.1, 0.2, 0.3}))
	assert.Equal(t, "[]", vectorToString(nil))
	assert.Equal(t, "[-1,0,1]", vectorToString([]float64{-1, 0, 1}))
}

func TestStringToVector(t *testing.T) {
	vec, err := stringToVector("[0.1,0.2,0.3]")
	require.NoError(t, err)
	assert.Equal(t, []float64{0.1, 0.2, 0.3}, vec)

	vec, err = stringToVector(" [1, 2.5, -3] ")
	require.NoError(t, err)
	assert.Equal(t, []float64{1, 2.5, -3}, vec)

	vec, err = stringToVector("[]")
	require.NoError(t, err)
	assert.Nil(t, vec)

	_, err = stringToVector("[a,b]")
	assert.Error(t, err)
}

func TestVectorRoundTrip(t *testing.T) {
	original := []float64{0.123456789, -0.987654321, 0.5}
	parsed, err := stringToVector(vectorToString(original))
	require.NoError(t, err)
	assert.Equal(t, original, parsed)
}

func TestSearchQueryCapsOnlyPositiveTopK(t *testing.T) {
	c := &Client{tableName: "memories"}

	query, capped := c.searchQuery(10)
	assert.True(t, capped)
	assert.Contains(t, query, "LIMIT $3")

	// An uncapped search must return the whole project so callers can
	// filter by scope afterwards without losing matches.
	query, capped = c.searchQuery(0)
	assert.False(t, capped)
	assert.NotContains(t, query, "LIMIT")

	query, capped = c.searchQuery(-1)
	assert.False(t, capped)
	assert.NotContains(t, query, "LIMIT")
}
