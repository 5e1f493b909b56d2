// Package plugin wires the memory subsystem together and exposes the hook
// surface consumed by a host runtime. It owns configuration, provider
// construction and the startup consistency checks between them.
package plugin

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/joho/godotenv"
)

// ErrInvalidConfig indicates a configuration that cannot produce a working
// plugin.
var ErrInvalidConfig = errors.New("invalid configuration")

// Config contains the complete configuration for the memory plugin.
//
// It covers the embedding provider, the memory store backend, and the
// hook-level tunables (dedup threshold, planning agent name, compaction
// context cap).
//
// Example:
//
//	config := &plugin.Config{
//	    ProjectID: "my-project",
//	    Embedder: plugin.EmbedderConfig{
//	        Provider: "openai",
//	        APIKey:   "sk-...",
//	        Model:    "text-embedding-3-small",
//	    },
//	    Store: plugin.StoreConfig{
//	        Provider: "sqlite",
//	        Path:     "./memories.db",
//	    },
//	}
type Config struct {
	// ProjectID keys every memory written by this plugin instance.
	ProjectID string `json:"project_id"`

	// Embedder contains embedding provider configuration.
	Embedder EmbedderConfig `json:"embedder"`

	// Store contains memory store configuration.
	Store StoreConfig `json:"store"`

	// Hooks contains hook-level tunables (optional).
	Hooks HooksConfig `json:"hooks,omitempty"`
}

// EmbedderConfig contains configuration for the embedding provider.
//
// Supported providers: openai, mock.
type EmbedderConfig struct {
	// Provider is the embedding provider name (openai, mock).
	Provider string `json:"provider"`

	// APIKey is the API key for the embedding provider.
	APIKey string `json:"api_key"`

	// Model is the embedding model name (e.g. "text-embedding-3-small").
	Model string `json:"model"`

	// BaseURL is the base URL for the API (optional, provider default if empty).
	BaseURL string `json:"base_url,omitempty"`

	// Dimensions is the dimension of the embedding vectors (e.g. 1536).
	Dimensions int `json:"dimensions,omitempty"`
}

// StoreConfig contains configuration for the memory store backend.
//
// Supported providers: sqlite, postgres, mysql, memory.
type StoreConfig struct {
	// Provider is the store backend name (sqlite, postgres, mysql, memory).
	Provider string `json:"provider"`

	// Path is the database file path (sqlite only).
	Path string `json:"path,omitempty"`

	// Host, Port, User, Password and Database configure the networked
	// backends (postgres, mysql).
	Host     string `json:"host,omitempty"`
	Port     int    `json:"port,omitempty"`
	User     string `json:"user,omitempty"`
	Password string `json:"password,omitempty"`
	Database string `json:"database,omitempty"`

	// SSLMode is the postgres sslmode setting (disable, require, ...).
	SSLMode string `json:"ssl_mode,omitempty"`

	// Dimensions is the vector column width (postgres only; must match the
	// embedder's dimensions).
	Dimensions int `json:"dimensions,omitempty"`
}

// HooksConfig contains hook-level tunables.
type HooksConfig struct {
	// DedupThreshold overrides the default cosine similarity threshold
	// above which new content merges into an existing memory.
	DedupThreshold float64 `json:"dedup_threshold,omitempty"`

	// PlanningAgent is the agent role that receives the no-edit reminder.
	PlanningAgent string `json:"planning_agent,omitempty"`

	// ContextCap limits how many memories are injected at compaction time.
	ContextCap int `json:"context_cap,omitempty"`
}

// LoadConfigFromEnv loads configuration from environment variables.
//
// The function:
//  1. Searches for a .env file (up to 5 directory levels up)
//  2. Loads environment variables from the found file
//  3. Parses environment variables into a Config struct
//
// Supported environment variables:
//   - MEMORY_PROJECT_ID
//   - MEMORY_STORE_PROVIDER (sqlite, postgres, mysql, memory)
//   - SQLITE_PATH
//   - POSTGRES_HOST, POSTGRES_PORT, POSTGRES_USER, POSTGRES_PASSWORD,
//     POSTGRES_DATABASE, POSTGRES_SSLMODE
//   - MYSQL_HOST, MYSQL_PORT, MYSQL_USER, MYSQL_PASSWORD, MYSQL_DATABASE
//   - EMBEDDING_PROVIDER, EMBEDDING_API_KEY, EMBEDDING_MODEL,
//     EMBEDDING_BASE_URL, EMBEDDING_DIMENSIONS
//   - MEMORY_DEDUP_THRESHOLD, MEMORY_PLANNING_AGENT, MEMORY_CONTEXT_CAP
func LoadConfigFromEnv() (*Config, error) {
	if envPath, found := findEnvFile(); found {
		_ = godotenv.Load(envPath)
	} else {
		_ = godotenv.Load()
	}

	dims, _ := strconv.Atoi(getEnvOrDefault("EMBEDDING_DIMENSIONS", "1536"))

	store := StoreConfig{
		Provider:   getEnvOrDefault("MEMORY_STORE_PROVIDER", "sqlite"),
		Dimensions: dims,
	}
	switch store.Provider {
	case "sqlite":
		store.Path = getEnvOrDefault("SQLITE_PATH", "./memories.db")
	case "postgres":
		port, _ := strconv.Atoi(getEnvOrDefault("POSTGRES_PORT", "5432"))
		store.Host = getEnvOrDefault("POSTGRES_HOST", "localhost")
		store.Port = port
		store.User = getEnvOrDefault("POSTGRES_USER", "postgres")
		store.Password = os.Getenv("POSTGRES_PASSWORD")
		store.Database = getEnvOrDefault("POSTGRES_DATABASE", "memories")
		store.SSLMode = getEnvOrDefault("POSTGRES_SSLMODE", "disable")
	case "mysql":
		port, _ := strconv.Atoi(getEnvOrDefault("MYSQL_PORT", "3306"))
		store.Host = getEnvOrDefault("MYSQL_HOST", "127.0.0.1")
		store.Port = port
		store.User = getEnvOrDefault("MYSQL_USER", "root")
		store.Password = os.Getenv("MYSQL_PASSWORD")
		store.Database = getEnvOrDefault("MYSQL_DATABASE", "memories")
	}

	threshold, _ := strconv.ParseFloat(os.Getenv("MEMORY_DEDUP_THRESHOLD"), 64)
	contextCap, _ := strconv.Atoi(os.Getenv("MEMORY_CONTEXT_CAP"))

	config := &Config{
		ProjectID: getEnvOrDefault("MEMORY_PROJECT_ID", "default"),
		Embedder: EmbedderConfig{
			Provider:   getEnvOrDefault("EMBEDDING_PROVIDER", "openai"),
			APIKey:     os.Getenv("EMBEDDING_API_KEY"),
			Model:      getEnvOrDefault("EMBEDDING_MODEL", "text-embedding-3-small"),
			BaseURL:    os.Getenv("EMBEDDING_BASE_URL"),
			Dimensions: dims,
		},
		Store: store,
		Hooks: HooksConfig{
			DedupThreshold: threshold,
			PlanningAgent:  os.Getenv("MEMORY_PLANNING_AGENT"),
			ContextCap:     contextCap,
		},
	}

	return config, nil
}

// LoadConfigFromJSON loads configuration from a JSON file.
func LoadConfigFromJSON(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	var config Config
	if err := json.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	return &config, nil
}

// Validate checks that the configuration can produce a working plugin.
func (c *Config) Validate() error {
	if c.ProjectID == "" {
		return fmt.Errorf("%w: project id is required", ErrInvalidConfig)
	}
	switch c.Embedder.Provider {
	case "openai", "mock":
	case "":
		return fmt.Errorf("%w: embedder provider is required", ErrInvalidConfig)
	default:
		return fmt.Errorf("%w: unknown embedder provider %q", ErrInvalidConfig, c.Embedder.Provider)
	}
	switch c.Store.Provider {
	case "sqlite", "postgres", "mysql", "memory":
	case "":
		return fmt.Errorf("%w: store provider is required", ErrInvalidConfig)
	default:
		return fmt.Errorf("%w: unknown store provider %q", ErrInvalidConfig, c.Store.Provider)
	}
	if c.Hooks.DedupThreshold < 0 || c.Hooks.DedupThreshold > 1 {
		return fmt.Errorf("%w: dedup threshold must be within [0, 1]", ErrInvalidConfig)
	}
	return nil
}

// getEnvOrDefault gets an environment variable or returns the default value.
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// findEnvFile searches the current directory and up to 5 parent directories
// for a .env file.
func findEnvFile() (string, bool) {
	dir, err := os.Getwd()
	if err != nil {
		return "", false
	}
	for i := 0; i < 5; i++ {
		envPath := filepath.Join(dir, ".env")
		if _, err := os.Stat(envPath); err == nil {
			return envPath, true
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	return "", false
}
