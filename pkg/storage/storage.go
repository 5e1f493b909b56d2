// Package storage provides interfaces and types for memory persistence backends.
//
// It defines the Store interface that all backends must satisfy, along with the
// Memory record type and query options. Backends are assumed single-writer per
// project; reads may be concurrent.
package storage

import (
	"context"
	"errors"
	"time"
)

// DefaultListLimit caps ListByProject results when no limit is given.
const DefaultListLimit = 100

// Sentinel errors shared by all backends.
var (
	// ErrNotFound indicates that a requested memory does not exist.
	ErrNotFound = errors.New("memory not found")

	// ErrStorage indicates that a persistence operation failed at the I/O layer.
	ErrStorage = errors.New("storage operation failed")
)

// Memory is a durable fact tied to a project and a scope.
//
// The embedding is stored alongside the record and recomputed whenever the
// content changes; it is not separately addressable.
type Memory struct {
	// ID is the unique identifier, assigned by the caller before Insert.
	ID int64

	// ProjectID groups memories by project/workspace. Required.
	ProjectID string

	// Scope describes the kind of fact (context, convention, decision, ...).
	// Open enum: backends treat it as an opaque tag.
	Scope string

	// Content is the fact itself. Required, non-empty.
	Content string

	// FilePath optionally ties the memory to a source file so it can be
	// invalidated when the file is removed.
	FilePath string

	// Embedding is the vector representation of Content.
	Embedding []float64

	// AccessCount is incremented on every retrieval that surfaces this memory.
	AccessCount int

	// CreatedAt is when the memory was created.
	CreatedAt time.Time

	// UpdatedAt is when the memory was last updated.
	UpdatedAt time.Time

	// LastAccessedAt is when the memory was last surfaced to a caller.
	LastAccessedAt time.Time

	// Score is the similarity score from search operations. Only populated
	// on results of SearchByEmbedding.
	Score float64
}

// ListOptions contains options for ListByProject.
type ListOptions struct {
	// Scope restricts results to a single scope when non-empty.
	Scope string

	// Limit caps the number of results. Zero means DefaultListLimit.
	Limit int
}

// Store defines the interface for memory persistence backends.
//
// All backends (SQLite, PostgreSQL, MySQL, in-process) must implement this
// interface. Implementations report I/O failures wrapping ErrStorage and
// missing rows wrapping ErrNotFound.
type Store interface {
	// Insert appends a new memory row. The caller assigns the ID.
	Insert(ctx context.Context, memory *Memory) error

	// Get retrieves a memory by ID.
	Get(ctx context.Context, id int64) (*Memory, error)

	// FindByContent returns the memory with exactly matching content within a
	// project, or ErrNotFound. Used for degraded deduplication when embedding
	// is unavailable.
	FindByContent(ctx context.Context, projectID, content string) (*Memory, error)

	// ListByProject returns a project's memories ordered by most recently
	// accessed first.
	ListByProject(ctx context.Context, projectID string, opts *ListOptions) ([]*Memory, error)

	// SearchByEmbedding ranks a project's memories by cosine similarity to the
	// query vector, highest first, ties broken by LastAccessedAt descending.
	// At most topK results are returned with Score populated; topK of zero or
	// less applies no cap, so callers that filter results afterwards see the
	// whole project.
	SearchByEmbedding(ctx context.Context, projectID string, embedding []float64, topK int) ([]*Memory, error)

	// Update replaces a memory's content and embedding.
	Update(ctx context.Context, id int64, content string, embedding []float64) (*Memory, error)

	// Touch increments a memory's access count and refreshes LastAccessedAt.
	Touch(ctx context.Context, id int64) error

	// Delete removes a memory by ID.
	Delete(ctx context.Context, id int64) error

	// DeleteByProject removes all memories of a project.
	DeleteByProject(ctx context.Context, projectID string) error

	// DeleteByFilePath removes all memories of a project tied to a file path.
	DeleteByFilePath(ctx context.Context, projectID, filePath string) error

	// CountByProject returns the number of memories in a project.
	CountByProject(ctx context.Context, projectID string) (int, error)

	// CountByScope returns per-scope memory counts for a project.
	CountByScope(ctx context.Context, projectID string) (map[string]int, error)

	// Close closes the store and releases resources.
	Close() error
}
