// Package embedder provides interfaces for text embedding providers.
//
// It defines the Provider interface that all embedding implementations must satisfy,
// enabling text-to-vector conversion for similarity search. A project must use a
// single provider (and therefore a single dimensionality) consistently; the
// composition root validates this at startup.
package embedder

import (
	"context"
	"errors"
)

// ErrUnavailable indicates that the embedding backend could not be reached
// (network failure or timeout). Callers treat this as a degraded-mode signal
// rather than a fatal error: deduplication falls back to exact text matching.
var ErrUnavailable = errors.New("embedding provider unavailable")

// Provider defines the interface for embedding providers.
//
// All embedding implementations (OpenAI remote, deterministic local mock)
// must implement this interface.
type Provider interface {
	// Embed converts a text string into a vector embedding.
	//
	// Parameters:
	//   - ctx: Context for cancellation and timeout
	//   - text: The input text to embed
	//
	// Returns the embedding vector and any error. Network and timeout
	// failures are reported as (or wrapping) ErrUnavailable.
	Embed(ctx context.Context, text string) ([]float64, error)

	// EmbedBatch converts multiple text strings into vector embeddings.
	//
	// This method is more efficient than calling Embed multiple times,
	// as it can batch process requests.
	//
	// Parameters:
	//   - ctx: Context for cancellation and timeout
	//   - texts: Slice of input texts to embed
	//
	// Returns a slice of embedding vectors (order matches input) and any error.
	EmbedBatch(ctx context.Context, texts []string) ([][]float64, error)

	// Dimensions returns the dimension of embedding vectors produced by this
	// provider.
	//
	// For example, OpenAI's text-embedding-3-small produces 1536-dimensional
	// vectors.
	Dimensions() int

	// Close closes the provider and releases resources.
	Close() error
}
