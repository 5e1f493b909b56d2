package plugin_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chriswritescode-dev/opencode-manager-sub001/pkg/plugin"
)

func validConfig() *plugin.Config {
	return &plugin.Config{
		ProjectID: "proj",
		Embedder:  plugin.EmbedderConfig{Provider: "mock", Dimensions: 64},
		Store:     plugin.StoreConfig{Provider: "memory"},
	}
}

func TestConfig_Validate(t *testing.T) {
	assert.NoError(t, validConfig().Validate())

	missingProject := validConfig()
	missingProject.ProjectID = ""
	assert.ErrorIs(t, missingProject.Validate(), plugin.ErrInvalidConfig)

	badEmbedder := validConfig()
	badEmbedder.Embedder.Provider = "quantum"
	assert.ErrorIs(t, badEmbedder.Validate(), plugin.ErrInvalidConfig)

	badStore := validConfig()
	badStore.Store.Provider = "redis"
	assert.ErrorIs(t, badStore.Validate(), plugin.ErrInvalidConfig)

	badThreshold := validConfig()
	badThreshold.Hooks.DedupThreshold = 1.5
	assert.ErrorIs(t, badThreshold.Validate(), plugin.ErrInvalidConfig)
}

func TestLoadConfigFromJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	data := `{
		"project_id": "json-proj",
		"embedder": {"provider": "openai", "api_key": "sk-test", "dimensions": 1536},
		"store": {"provider": "sqlite", "path": "./mem.db"},
		"hooks": {"dedup_threshold": 0.9, "planning_agent": "architect"}
	}`
	require.NoError(t, os.WriteFile(path, []byte(data), 0644))

	cfg, err := plugin.LoadConfigFromJSON(path)
	require.NoError(t, err)
	assert.Equal(t, "json-proj", cfg.ProjectID)
	assert.Equal(t, "openai", cfg.Embedder.Provider)
	assert.Equal(t, 1536, cfg.Embedder.Dimensions)
	assert.Equal(t, "sqlite", cfg.Store.Provider)
	assert.Equal(t, 0.9, cfg.Hooks.DedupThreshold)
	assert.Equal(t, "architect", cfg.Hooks.PlanningAgent)
}

func TestLoadConfigFromJSON_MissingFile(t *testing.T) {
	_, err := plugin.LoadConfigFromJSON(filepath.Join(t.TempDir(), "nope.json"))
	assert.Error(t, err)
}

func TestLoadConfigFromEnv_Defaults(t *testing.T) {
	t.Setenv("MEMORY_PROJECT_ID", "")
	t.Setenv("MEMORY_STORE_PROVIDER", "")
	t.Setenv("EMBEDDING_PROVIDER", "")

	cfg, err := plugin.LoadConfigFromEnv()
	require.NoError(t, err)
	assert.Equal(t, "default", cfg.ProjectID)
	assert.Equal(t, "sqlite", cfg.Store.Provider)
	assert.Equal(t, "openai", cfg.Embedder.Provider)
	assert.Equal(t, 1536, cfg.Embedder.Dimensions)
}

func TestLoadConfigFromEnv_PostgresSettings(t *testing.T) {
	t.Setenv("MEMORY_PROJECT_ID", "env-proj")
	t.Setenv("MEMORY_STORE_PROVIDER", "postgres")
	t.Setenv("POSTGRES_HOST", "db.internal")
	t.Setenv("POSTGRES_PORT", "5433")
	t.Setenv("POSTGRES_USER", "svc")
	t.Setenv("POSTGRES_DATABASE", "agent_memories")
	t.Setenv("MEMORY_DEDUP_THRESHOLD", "0.92")

	cfg, err := plugin.LoadConfigFromEnv()
	require.NoError(t, err)
	assert.Equal(t, "env-proj", cfg.ProjectID)
	assert.Equal(t, "postgres", cfg.Store.Provider)
	assert.Equal(t, "db.internal", cfg.Store.Host)
	assert.Equal(t, 5433, cfg.Store.Port)
	assert.Equal(t, "agent_memories", cfg.Store.Database)
	assert.Equal(t, 0.92, cfg.Hooks.DedupThreshold)
}
