package plugin_test

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chriswritescode-dev/opencode-manager-sub001/pkg/plugin"
)

func TestNew_WiresAllComponents(t *testing.T) {
	p, err := plugin.New(validConfig(), nil, nil)
	require.NoError(t, err)
	defer p.Close()

	require.NotNil(t, p.Registry())
	assert.NotNil(t, p.Registry().Keyword)
	assert.NotNil(t, p.Registry().Params)
	assert.NotNil(t, p.Registry().Session)
	assert.NotNil(t, p.Registry().Transform)
	assert.NotNil(t, p.Memories())
	assert.NotNil(t, p.Sessions())
	assert.NotNil(t, p.Tools())
	assert.NotNil(t, p.Dispatcher())
}

func TestNew_RejectsInvalidConfig(t *testing.T) {
	cfg := validConfig()
	cfg.ProjectID = ""

	_, err := plugin.New(cfg, nil, nil)
	assert.ErrorIs(t, err, plugin.ErrInvalidConfig)
}

func TestNew_RejectsDimensionMismatch(t *testing.T) {
	cfg := validConfig()
	cfg.Embedder.Dimensions = 64
	cfg.Store.Dimensions = 1536

	_, err := plugin.New(cfg, nil, nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, plugin.ErrInvalidConfig)
	assert.Contains(t, err.Error(), "dimensions")
}

func TestNew_AppliesDedupThreshold(t *testing.T) {
	cfg := validConfig()
	cfg.Hooks.DedupThreshold = 0.92

	p, err := plugin.New(cfg, nil, nil)
	require.NoError(t, err)
	defer p.Close()

	assert.Equal(t, 0.92, p.Memories().DedupThreshold())
}

func TestNew_SQLiteBackend(t *testing.T) {
	cfg := validConfig()
	cfg.Store = plugin.StoreConfig{
		Provider: "sqlite",
		Path:     filepath.Join(t.TempDir(), "memories.db"),
	}

	p, err := plugin.New(cfg, nil, nil)
	require.NoError(t, err)
	defer p.Close()

	res, err := p.Memories().Create(context.Background(), cfg.ProjectID, "sqlite-backed fact", "context", "")
	require.NoError(t, err)
	assert.False(t, res.Deduplicated)
}

func TestNew_RejectsStoredDimensionMismatch(t *testing.T) {
	path := filepath.Join(t.TempDir(), "memories.db")

	cfg := validConfig()
	cfg.Store = plugin.StoreConfig{Provider: "sqlite", Path: path}
	cfg.Embedder.Dimensions = 64

	p, err := plugin.New(cfg, nil, nil)
	require.NoError(t, err)
	_, err = p.Memories().Create(context.Background(), cfg.ProjectID, "fact written at 64 dims", "context", "")
	require.NoError(t, err)
	require.NoError(t, p.Close())

	// Reopening the same database with a narrower embedder must fail even
	// though the sqlite backend declares no vector width of its own.
	cfg.Embedder.Dimensions = 32
	_, err = plugin.New(cfg, nil, nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, plugin.ErrInvalidConfig)
}

func TestPlugin_EndToEndMemoryRoundTrip(t *testing.T) {
	p, err := plugin.New(validConfig(), nil, nil)
	require.NoError(t, err)
	defer p.Close()

	ctx := context.Background()
	result := p.Tools().Write(ctx, "integration fact", "context")
	assert.Contains(t, result, "Saved memory")

	listing := p.Tools().Read(ctx, "", 0)
	assert.Contains(t, listing, "integration fact")
}
