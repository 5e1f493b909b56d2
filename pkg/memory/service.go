package memory

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/bwmarrin/snowflake"

	"github.com/chriswritescode-dev/opencode-manager-sub001/pkg/embedder"
	"github.com/chriswritescode-dev/opencode-manager-sub001/pkg/storage"
)

// Defaults for service tuning knobs.
const (
	// DefaultDedupThreshold is the minimum cosine similarity above which a
	// new fact is merged into an existing memory instead of inserted.
	DefaultDedupThreshold = 0.85

	// DefaultSearchLimit caps search results when no limit is given.
	DefaultSearchLimit = 10

	// DefaultEmbedTimeout bounds embedding calls; a timeout takes the
	// degraded-dedup path rather than failing the operation.
	DefaultEmbedTimeout = 10 * time.Second

	// DefaultScope is assigned when a caller omits the scope tag.
	DefaultScope = "context"
)

// Config contains tuning knobs for the memory service.
type Config struct {
	// DedupThreshold is the similarity cutoff for duplicate detection.
	// Zero means DefaultDedupThreshold.
	DedupThreshold float64

	// SearchMinScore is the minimum similarity for search results. Results
	// below it are dropped. Independent of DedupThreshold: search may return
	// results well below the dedup cutoff.
	SearchMinScore float64

	// EmbedTimeout bounds each embedding call. Zero means DefaultEmbedTimeout.
	EmbedTimeout time.Duration
}

// Service provides business logic on top of the store: create with semantic
// deduplication, scoped listing and search, access-count bookkeeping and
// per-project statistics.
//
// The service is safe for concurrent use.
type Service struct {
	store    storage.Store
	embedder embedder.Provider
	node     *snowflake.Node
	logger   *slog.Logger

	searchMinScore float64
	embedTimeout   time.Duration

	// mu guards dedupThreshold, which is runtime-tunable.
	mu             sync.RWMutex
	dedupThreshold float64
}

// CreateResult reports the outcome of a Create call.
type CreateResult struct {
	// ID is the stored memory's identifier: the new row's ID, or the
	// existing row's ID when the content deduplicated.
	ID int64

	// Deduplicated is true when the content merged into an existing memory.
	Deduplicated bool
}

// Stats summarizes a project's memories.
type Stats struct {
	// Total is the number of memories in the project.
	Total int

	// ByScope maps each scope tag to its memory count.
	ByScope map[string]int
}

// SearchOptions contains options for Search.
type SearchOptions struct {
	// Scope restricts results to a single scope when non-empty.
	Scope string

	// Limit caps results. Zero means DefaultSearchLimit.
	Limit int

	// MinScore overrides the configured search similarity floor when > 0.
	MinScore float64
}

// NewService creates a memory service.
//
// Parameters:
//   - store: persistence backend
//   - provider: embedding provider
//   - cfg: tuning knobs (nil for defaults)
//   - logger: structured logger (nil for slog.Default)
func NewService(store storage.Store, provider embedder.Provider, cfg *Config, logger *slog.Logger) (*Service, error) {
	if cfg == nil {
		cfg = &Config{}
	}
	if logger == nil {
		logger = slog.Default()
	}

	node, err := snowflake.NewNode(1)
	if err != nil {
		return nil, newServiceError("NewService", err)
	}

	threshold := cfg.DedupThreshold
	if threshold == 0 {
		threshold = DefaultDedupThreshold
	}
	embedTimeout := cfg.EmbedTimeout
	if embedTimeout == 0 {
		embedTimeout = DefaultEmbedTimeout
	}

	return &Service{
		store:          store,
		embedder:       provider,
		node:           node,
		logger:         logger.With("component", "memory"),
		dedupThreshold: threshold,
		searchMinScore: cfg.SearchMinScore,
		embedTimeout:   embedTimeout,
	}, nil
}

// Create stores a new fact, deduplicating against existing memories of the
// same project.
//
// The method:
//  1. Computes an embedding for the content (bounded by EmbedTimeout).
//  2. Searches the project's nearest memory; similarity at or above the
//     dedup threshold merges into it (access count bumped) instead of
//     inserting.
//  3. Otherwise inserts a new row.
//
// If the embedding call fails, deduplication degrades to exact text matching
// and the fallback is logged; the create itself still succeeds.
func (s *Service) Create(ctx context.Context, projectID, content, scope, filePath string) (*CreateResult, error) {
	if projectID == "" {
		return nil, newServiceError("Create", ErrMissingProject)
	}
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, newServiceError("Create", ErrEmptyContent)
	}
	if scope == "" {
		scope = DefaultScope
	}

	vector, err := s.embed(ctx, content)
	if err != nil {
		// Degraded mode: exact-text dedup only. Never silently skip dedup.
		s.logger.Warn("embedding unavailable, deduplicating by exact content match",
			"project", projectID, "error", err)

		existing, findErr := s.store.FindByContent(ctx, projectID, content)
		if findErr == nil {
			return s.mergeDuplicate(ctx, existing)
		}
		if !errors.Is(findErr, storage.ErrNotFound) {
			return nil, newServiceError("Create", findErr)
		}
		vector = nil
	} else {
		matches, searchErr := s.store.SearchByEmbedding(ctx, projectID, vector, 1)
		if searchErr != nil {
			return nil, newServiceError("Create", searchErr)
		}
		if len(matches) > 0 && matches[0].Score >= s.DedupThreshold() {
			return s.mergeDuplicate(ctx, matches[0])
		}
	}

	now := time.Now().UTC()
	record := &storage.Memory{
		ID:             s.node.Generate().Int64(),
		ProjectID:      projectID,
		Scope:          scope,
		Content:        content,
		FilePath:       filePath,
		Embedding:      vector,
		CreatedAt:      now,
		UpdatedAt:      now,
		LastAccessedAt: now,
	}

	if err := s.store.Insert(ctx, record); err != nil {
		return nil, newServiceError("Create", err)
	}

	return &CreateResult{ID: record.ID, Deduplicated: false}, nil
}

// mergeDuplicate records an access on the existing memory and reports the
// merge to the caller.
func (s *Service) mergeDuplicate(ctx context.Context, existing *storage.Memory) (*CreateResult, error) {
	if err := s.store.Touch(ctx, existing.ID); err != nil {
		return nil, newServiceError("Create", err)
	}
	return &CreateResult{ID: existing.ID, Deduplicated: true}, nil
}

// Search embeds the query, ranks the project's memories by similarity and
// returns the best matches. Surfaced memories get their access bookkeeping
// updated.
func (s *Service) Search(ctx context.Context, projectID, query string, opts *SearchOptions) ([]*storage.Memory, error) {
	if projectID == "" {
		return nil, newServiceError("Search", ErrMissingProject)
	}
	if opts == nil {
		opts = &SearchOptions{}
	}
	limit := opts.Limit
	if limit <= 0 {
		limit = DefaultSearchLimit
	}
	minScore := opts.MinScore
	if minScore == 0 {
		minScore = s.searchMinScore
	}

	vector, err := s.embed(ctx, query)
	if err != nil {
		return nil, newServiceError("Search", err)
	}

	// Over-fetch when a scope filter applies so the cap holds post-filter.
	topK := limit
	if opts.Scope != "" {
		topK = 0
	}

	matches, err := s.store.SearchByEmbedding(ctx, projectID, vector, topK)
	if err != nil {
		return nil, newServiceError("Search", err)
	}

	results := make([]*storage.Memory, 0, limit)
	for _, match := range matches {
		if opts.Scope != "" && match.Scope != opts.Scope {
			continue
		}
		if match.Score < minScore {
			continue
		}
		results = append(results, match)
		if len(results) == limit {
			break
		}
	}

	for _, match := range results {
		if err := s.store.Touch(ctx, match.ID); err != nil {
			s.logger.Warn("failed to record memory access", "id", match.ID, "error", err)
		}
	}

	return results, nil
}

// List returns a project's memories, most recently accessed first,
// optionally filtered by scope.
func (s *Service) List(ctx context.Context, projectID string, opts *storage.ListOptions) ([]*storage.Memory, error) {
	if projectID == "" {
		return nil, newServiceError("List", ErrMissingProject)
	}

	memories, err := s.store.ListByProject(ctx, projectID, opts)
	if err != nil {
		return nil, newServiceError("List", err)
	}
	return memories, nil
}

// Get retrieves a memory by ID.
func (s *Service) Get(ctx context.Context, id int64) (*storage.Memory, error) {
	memory, err := s.store.Get(ctx, id)
	if err != nil {
		return nil, newServiceError("Get", err)
	}
	return memory, nil
}

// Update replaces a memory's content, recomputing its embedding.
func (s *Service) Update(ctx context.Context, id int64, content string) (*storage.Memory, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, newServiceError("Update", ErrEmptyContent)
	}

	vector, err := s.embed(ctx, content)
	if err != nil {
		return nil, newServiceError("Update", err)
	}

	memory, err := s.store.Update(ctx, id, content, vector)
	if err != nil {
		return nil, newServiceError("Update", err)
	}
	return memory, nil
}

// Delete removes a memory by ID.
func (s *Service) Delete(ctx context.Context, id int64) error {
	if err := s.store.Delete(ctx, id); err != nil {
		return newServiceError("Delete", err)
	}
	return nil
}

// DeleteProject removes all memories of a project.
func (s *Service) DeleteProject(ctx context.Context, projectID string) error {
	if projectID == "" {
		return newServiceError("DeleteProject", ErrMissingProject)
	}
	if err := s.store.DeleteByProject(ctx, projectID); err != nil {
		return newServiceError("DeleteProject", err)
	}
	return nil
}

// DeleteByFilePath removes all memories of a project tied to a source file,
// typically because the file was removed.
func (s *Service) DeleteByFilePath(ctx context.Context, projectID, filePath string) error {
	if projectID == "" {
		return newServiceError("DeleteByFilePath", ErrMissingProject)
	}
	if err := s.store.DeleteByFilePath(ctx, projectID, filePath); err != nil {
		return newServiceError("DeleteByFilePath", err)
	}
	return nil
}

// Stats returns a project's memory statistics.
func (s *Service) Stats(ctx context.Context, projectID string) (*Stats, error) {
	if projectID == "" {
		return nil, newServiceError("Stats", ErrMissingProject)
	}

	total, err := s.store.CountByProject(ctx, projectID)
	if err != nil {
		return nil, newServiceError("Stats", err)
	}
	byScope, err := s.store.CountByScope(ctx, projectID)
	if err != nil {
		return nil, newServiceError("Stats", err)
	}

	return &Stats{Total: total, ByScope: byScope}, nil
}

// SetDedupThreshold changes the duplicate-detection cutoff at runtime.
// Only subsequent Create calls are affected.
func (s *Service) SetDedupThreshold(value float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.dedupThreshold = value
}

// DedupThreshold returns the current duplicate-detection cutoff.
func (s *Service) DedupThreshold() float64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.dedupThreshold
}

// embed runs the embedding call under the configured timeout.
func (s *Service) embed(ctx context.Context, text string) ([]float64, error) {
	ctx, cancel := context.WithTimeout(ctx, s.embedTimeout)
	defer cancel()
	return s.embedder.Embed(ctx, text)
}
