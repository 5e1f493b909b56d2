// Package openai provides an OpenAI-backed embedding provider.
package openai

import (
	"context"
	"fmt"

	openai "github.com/sashabaranov/go-openai"

	"github.com/chriswritescode-dev/opencode-manager-sub001/pkg/embedder"
)

// Client is an OpenAI embedder client.
// It implements the embedder.Provider interface on top of the OpenAI
// Embeddings API.
type Client struct {
	client     *openai.Client
	model      openai.EmbeddingModel
	dimensions int
}

// Config is the configuration for the OpenAI embedder.
type Config struct {
	// APIKey is the OpenAI API key (required).
	APIKey string

	// Model is the embedding model name. Defaults to text-embedding-3-small.
	Model string

	// BaseURL overrides the API base URL (optional, for compatible gateways).
	BaseURL string

	// Dimensions is the vector dimensionality. Defaults to 1536.
	Dimensions int
}

// NewClient creates a new OpenAI embedder client.
//
// Parameters:
//   - cfg: Configuration containing APIKey, Model, BaseURL and Dimensions
//
// Returns the client instance, or an error if the configuration is invalid.
func NewClient(cfg *Config) (*Client, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("openai embedder: missing API key")
	}

	config := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		config.BaseURL = cfg.BaseURL
	}

	model := openai.EmbeddingModel(cfg.Model)
	if cfg.Model == "" {
		model = openai.SmallEmbedding3
	}

	dimensions := cfg.Dimensions
	if dimensions == 0 {
		dimensions = 1536
	}

	return &Client{
		client:     openai.NewClientWithConfig(config),
		model:      model,
		dimensions: dimensions,
	}, nil
}

// Embed converts a single text to a vector.
//
// Transport failures are reported as embedder.ErrUnavailable so callers can
// take the degraded-dedup path instead of failing the whole operation.
func (c *Client) Embed(ctx context.Context, text string) ([]float64, error) {
	resp, err := c.client.CreateEmbeddings(ctx, openai.EmbeddingRequest{
		Input: []string{text},
		Model: c.model,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", embedder.ErrUnavailable, err)
	}

	if len(resp.Data) == 0 {
		return nil, fmt.Errorf("%w: no data returned from OpenAI API", embedder.ErrUnavailable)
	}

	return toFloat64(resp.Data[0].Embedding), nil
}

// EmbedBatch converts multiple texts to vectors in a single request.
func (c *Client) EmbedBatch(ctx context.Context, texts []string) ([][]float64, error) {
	resp, err := c.client.CreateEmbeddings(ctx, openai.EmbeddingRequest{
		Input: texts,
		Model: c.model,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", embedder.ErrUnavailable, err)
	}

	if len(resp.Data) != len(texts) {
		return nil, fmt.Errorf("%w: unexpected number of results (got %d, expected %d)",
			embedder.ErrUnavailable, len(resp.Data), len(texts))
	}

	embeddings := make([][]float64, len(texts))
	for i, data := range resp.Data {
		embeddings[i] = toFloat64(data.Embedding)
	}

	return embeddings, nil
}

// Dimensions returns the vector dimensionality.
func (c *Client) Dimensions() int {
	return c.dimensions
}

// Close closes the client. The OpenAI SDK client does not require explicit
// closing; this method is retained for interface compatibility.
func (c *Client) Close() error {
	return nil
}

// toFloat64 converts the SDK's float32 embedding to float64.
func toFloat64(embedding []float32) []float64 {
	out := make([]float64, len(embedding))
	for i, v := range embedding {
		out[i] = float64(v)
	}
	return out
}
