package plugin

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/chriswritescode-dev/opencode-manager-sub001/pkg/embedder"
	"github.com/chriswritescode-dev/opencode-manager-sub001/pkg/embedder/mock"
	"github.com/chriswritescode-dev/opencode-manager-sub001/pkg/embedder/openai"
	"github.com/chriswritescode-dev/opencode-manager-sub001/pkg/hooks"
	"github.com/chriswritescode-dev/opencode-manager-sub001/pkg/host"
	"github.com/chriswritescode-dev/opencode-manager-sub001/pkg/memory"
	"github.com/chriswritescode-dev/opencode-manager-sub001/pkg/session"
	"github.com/chriswritescode-dev/opencode-manager-sub001/pkg/storage"
	"github.com/chriswritescode-dev/opencode-manager-sub001/pkg/storage/memstore"
	"github.com/chriswritescode-dev/opencode-manager-sub001/pkg/storage/mysql"
	"github.com/chriswritescode-dev/opencode-manager-sub001/pkg/storage/postgres"
	"github.com/chriswritescode-dev/opencode-manager-sub001/pkg/storage/sqlite"
	"github.com/chriswritescode-dev/opencode-manager-sub001/pkg/tools"
)

// Plugin is the assembled memory subsystem: storage, embedding, the memory
// service, per-session state and the hook families the host runtime invokes.
type Plugin struct {
	config     *Config
	logger     *slog.Logger
	store      storage.Store
	embedder   embedder.Provider
	memories   *memory.Service
	states     *session.Service
	dispatcher *hooks.Dispatcher
	registry   *hooks.Registry
	tools      *tools.Tools
}

// New builds a plugin from configuration.
//
// It validates the configuration, constructs the embedder and store,
// verifies their dimensions agree, and wires every hook family into a
// Registry. The runtime is the host adapter used for prompts, message and
// todo reads during extraction.
func New(cfg *Config, runtime host.Runtime, logger *slog.Logger) (*Plugin, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("plugin", "project-memory")

	provider, err := initEmbedder(cfg)
	if err != nil {
		return nil, err
	}

	store, err := initStore(cfg)
	if err != nil {
		provider.Close()
		return nil, err
	}

	// A store provisioned for one vector width silently corrupts searches
	// when fed another; refuse to start on a mismatch.
	if cfg.Store.Dimensions > 0 && cfg.Store.Dimensions != provider.Dimensions() {
		provider.Close()
		store.Close()
		return nil, fmt.Errorf("%w: store dimensions %d do not match embedder dimensions %d",
			ErrInvalidConfig, cfg.Store.Dimensions, provider.Dimensions())
	}
	// Backends without a declared vector width (sqlite, mysql, memory) are
	// checked against vectors already on disk instead.
	if err := checkStoredDimensions(store, cfg.ProjectID, provider.Dimensions()); err != nil {
		provider.Close()
		store.Close()
		return nil, err
	}

	memories, err := memory.NewService(store, provider, &memory.Config{
		DedupThreshold: cfg.Hooks.DedupThreshold,
	}, logger)
	if err != nil {
		provider.Close()
		store.Close()
		return nil, err
	}

	states := session.NewService()
	dispatcher := hooks.NewDispatcher(logger, 0)

	registry := hooks.NewRegistry(
		hooks.NewKeywordHooks(states, logger),
		hooks.NewParamsHooks(states),
		hooks.NewSessionHooks(cfg.ProjectID, memories, runtime, dispatcher, states, logger, cfg.Hooks.ContextCap),
		hooks.NewTransformHooks(cfg.Hooks.PlanningAgent, logger),
	)

	return &Plugin{
		config:     cfg,
		logger:     logger,
		store:      store,
		embedder:   provider,
		memories:   memories,
		states:     states,
		dispatcher: dispatcher,
		registry:   registry,
		tools:      tools.New(cfg.ProjectID, memories, logger),
	}, nil
}

// Registry returns the hook families for host registration.
func (p *Plugin) Registry() *hooks.Registry { return p.registry }

// Memories returns the underlying memory service.
func (p *Plugin) Memories() *memory.Service { return p.memories }

// Sessions returns the per-session state service.
func (p *Plugin) Sessions() *session.Service { return p.states }

// Tools returns the agent-facing tool handlers.
func (p *Plugin) Tools() *tools.Tools { return p.tools }

// Dispatcher returns the background task dispatcher.
func (p *Plugin) Dispatcher() *hooks.Dispatcher { return p.dispatcher }

// Close waits for in-flight background tasks and releases the store and
// embedder.
func (p *Plugin) Close() error {
	p.dispatcher.Wait()
	var firstErr error
	if err := p.embedder.Close(); err != nil {
		firstErr = err
	}
	if err := p.store.Close(); err != nil && firstErr == nil {
		firstErr = err
	}
	return firstErr
}

func initEmbedder(cfg *Config) (embedder.Provider, error) {
	switch cfg.Embedder.Provider {
	case "openai":
		return openai.NewClient(&openai.Config{
			APIKey:     cfg.Embedder.APIKey,
			Model:      cfg.Embedder.Model,
			BaseURL:    cfg.Embedder.BaseURL,
			Dimensions: cfg.Embedder.Dimensions,
		})
	case "mock":
		return mock.New(cfg.Embedder.Dimensions), nil
	default:
		return nil, fmt.Errorf("%w: unknown embedder provider %q", ErrInvalidConfig, cfg.Embedder.Provider)
	}
}

// checkStoredDimensions samples a handful of existing rows and compares
// their vector width against the embedder. Rows without an embedding were
// written in degraded mode and carry no width to compare.
func checkStoredDimensions(store storage.Store, projectID string, want int) error {
	memories, err := store.ListByProject(context.Background(), projectID, &storage.ListOptions{Limit: 5})
	if err != nil {
		return fmt.Errorf("sampling stored embeddings: %w", err)
	}
	for _, m := range memories {
		if len(m.Embedding) == 0 {
			continue
		}
		if len(m.Embedding) != want {
			return fmt.Errorf("%w: stored embeddings have %d dimensions, embedder produces %d",
				ErrInvalidConfig, len(m.Embedding), want)
		}
		return nil
	}
	return nil
}

func initStore(cfg *Config) (storage.Store, error) {
	switch cfg.Store.Provider {
	case "sqlite":
		return sqlite.NewClient(&sqlite.Config{
			DBPath: cfg.Store.Path,
		})
	case "postgres":
		return postgres.NewClient(&postgres.Config{
			Host:       cfg.Store.Host,
			Port:       cfg.Store.Port,
			User:       cfg.Store.User,
			Password:   cfg.Store.Password,
			DBName:     cfg.Store.Database,
			Dimensions: cfg.Store.Dimensions,
			SSLMode:    cfg.Store.SSLMode,
		})
	case "mysql":
		return mysql.NewClient(&mysql.Config{
			Host:     cfg.Store.Host,
			Port:     cfg.Store.Port,
			User:     cfg.Store.User,
			Password: cfg.Store.Password,
			DBName:   cfg.Store.Database,
		})
	case "memory":
		return memstore.New(), nil
	default:
		return nil, fmt.Errorf("%w: unknown store provider %q", ErrInvalidConfig, cfg.Store.Provider)
	}
}
