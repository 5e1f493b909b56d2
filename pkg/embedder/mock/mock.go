// Package mock provides a deterministic embedder for tests and offline use.
package mock

import (
	"context"
	"hash/fnv"
	"math"
)

// Embedder generates deterministic embeddings from a text hash.
// Identical inputs always produce identical vectors (cosine similarity 1.0),
// which makes exact-duplicate behavior observable without a remote backend.
type Embedder struct {
	dimensions int

	// Err, when set, is returned by every Embed call. Tests use this to
	// exercise the degraded-dedup path.
	Err error
}

// New creates a mock embedder with the given dimensionality.
// A dimensionality of 0 defaults to 64.
func New(dimensions int) *Embedder {
	if dimensions == 0 {
		dimensions = 64
	}
	return &Embedder{dimensions: dimensions}
}

// Embed creates a deterministic unit vector from the text's FNV hash.
func (m *Embedder) Embed(ctx context.Context, text string) ([]float64, error) {
	if m.Err != nil {
		return nil, m.Err
	}

	h := fnv.New64a()
	_, _ = h.Write([]byte(text))
	seed := h.Sum64()

	embedding := make([]float64, m.dimensions)
	for i := range embedding {
		// Linear congruential step keyed off the content hash.
		seed = seed*6364136223846793005 + 1442695040888963407
		embedding[i] = float64(int64(seed)) / float64(math.MaxInt64)
	}

	return normalize(embedding), nil
}

// EmbedBatch embeds each text in order.
func (m *Embedder) EmbedBatch(ctx context.Context, texts []string) ([][]float64, error) {
	out := make([][]float64, len(texts))
	for i, text := range texts {
		vec, err := m.Embed(ctx, text)
		if err != nil {
			return nil, err
		}
		out[i] = vec
	}
	return out, nil
}

// Dimensions returns the embedding size.
func (m *Embedder) Dimensions() int {
	return m.dimensions
}

// Close is a no-op.
func (m *Embedder) Close() error {
	return nil
}

// normalize converts the vector to unit length.
func normalize(vec []float64) []float64 {
	var norm float64
	for _, v := range vec {
		norm += v * v
	}
	if norm == 0 {
		return vec
	}
	norm = math.Sqrt(norm)
	for i, v := range vec {
		vec[i] = v / norm
	}
	return vec
}
