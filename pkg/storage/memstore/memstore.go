// Package memstore provides a volatile, in-process implementation of the
// memory store. It is safe for concurrent access and best suited for tests
// and ephemeral local runs. Returned records are cloned to prevent external
// mutation of internal state.
package memstore

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/chriswritescode-dev/opencode-manager-sub001/pkg/storage"
)

// Store implements storage.Store with a mutex-guarded map.
type Store struct {
	mu       sync.RWMutex
	memories map[int64]*storage.Memory
}

// New constructs an empty in-process store.
func New() *Store {
	return &Store{memories: make(map[int64]*storage.Memory)}
}

// Insert stores a clone of the memory.
func (s *Store) Insert(ctx context.Context, memory *storage.Memory) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.memories[memory.ID]; exists {
		return fmt.Errorf("Insert: %w: duplicate id %d", storage.ErrStorage, memory.ID)
	}
	s.memories[memory.ID] = clone(memory)
	return nil
}

// Get retrieves a memory by ID.
func (s *Store) Get(ctx context.Context, id int64) (*storage.Memory, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	memory, ok := s.memories[id]
	if !ok {
		return nil, fmt.Errorf("Get: %w", storage.ErrNotFound)
	}
	return clone(memory), nil
}

// FindByContent returns a memory with exactly matching content in a project.
func (s *Store) FindByContent(ctx context.Context, projectID, content string) (*storage.Memory, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var best *storage.Memory
	for _, memory := range s.memories {
		if memory.ProjectID != projectID || memory.Content != content {
			continue
		}
		if best == nil || memory.LastAccessedAt.After(best.LastAccessedAt) {
			best = memory
		}
	}
	if best == nil {
		return nil, fmt.Errorf("FindByContent: %w", storage.ErrNotFound)
	}
	return clone(best), nil
}

// ListByProject lists a project's memories, most recently accessed first.
func (s *Store) ListByProject(ctx context.Context, projectID string, opts *storage.ListOptions) ([]*storage.Memory, error) {
	if opts == nil {
		opts = &storage.ListOptions{}
	}
	limit := opts.Limit
	if limit <= 0 {
		limit = storage.DefaultListLimit
	}

	s.mu.RLock()
	var memories []*storage.Memory
	for _, memory := range s.memories {
		if memory.ProjectID != projectID {
			continue
		}
		if opts.Scope != "" && memory.Scope != opts.Scope {
			continue
		}
		memories = append(memories, clone(memory))
	}
	s.mu.RUnlock()

	// Score is unused here; rank purely by access recency.
	for _, memory := range memories {
		memory.Score = 0
	}
	memories = storage.RankByScore(memories, limit)
	return memories, nil
}

// SearchByEmbedding ranks a project's memories by cosine similarity.
func (s *Store) SearchByEmbedding(ctx context.Context, projectID string, embedding []float64, topK int) ([]*storage.Memory, error) {
	s.mu.RLock()
	var memories []*storage.Memory
	for _, memory := range s.memories {
		if memory.ProjectID != projectID {
			continue
		}
		memories = append(memories, clone(memory))
	}
	s.mu.RUnlock()

	for _, memory := range memories {
		memory.Score = storage.CosineSimilarity(embedding, memory.Embedding)
	}

	return storage.RankByScore(memories, topK), nil
}

// Update replaces a memory's content and embedding.
func (s *Store) Update(ctx context.Context, id int64, content string, embedding []float64) (*storage.Memory, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	memory, ok := s.memories[id]
	if !ok {
		return nil, fmt.Errorf("Update: %w", storage.ErrNotFound)
	}
	memory.Content = content
	memory.Embedding = append([]float64(nil), embedding...)
	memory.UpdatedAt = time.Now().UTC()

	return clone(memory), nil
}

// Touch increments the access count and refreshes the access timestamp.
func (s *Store) Touch(ctx context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	memory, ok := s.memories[id]
	if !ok {
		return fmt.Errorf("Touch: %w", storage.ErrNotFound)
	}
	memory.AccessCount++
	memory.LastAccessedAt = time.Now().UTC()
	return nil
}

// Delete removes a memory by ID.
func (s *Store) Delete(ctx context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.memories[id]; !ok {
		return fmt.Errorf("Delete: %w", storage.ErrNotFound)
	}
	delete(s.memories, id)
	return nil
}

// DeleteByProject removes all memories of a project.
func (s *Store) DeleteByProject(ctx context.Context, projectID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for id, memory := range s.memories {
		if memory.ProjectID == projectID {
			delete(s.memories, id)
		}
	}
	return nil
}

// DeleteByFilePath removes all memories of a project tied to a file path.
func (s *Store) DeleteByFilePath(ctx context.Context, projectID, filePath string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for id, memory := range s.memories {
		if memory.ProjectID == projectID && memory.FilePath == filePath {
			delete(s.memories, id)
		}
	}
	return nil
}

// CountByProject returns the number of memories in a project.
func (s *Store) CountByProject(ctx context.Context, projectID string) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	count := 0
	for _, memory := range s.memories {
		if memory.ProjectID == projectID {
			count++
		}
	}
	return count, nil
}

// CountByScope returns per-scope memory counts for a project.
func (s *Store) CountByScope(ctx context.Context, projectID string) (map[string]int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	counts := make(map[string]int)
	for _, memory := range s.memories {
		if memory.ProjectID == projectID {
			counts[memory.Scope]++
		}
	}
	return counts, nil
}

// Close is a no-op; everything lives in process memory.
func (s *Store) Close() error {
	return nil
}

func clone(memory *storage.Memory) *storage.Memory {
	copied := *memory
	copied.Embedding = append([]float64(nil), memory.Embedding...)
	return &copied
}
