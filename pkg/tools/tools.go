// Package tools exposes the memory subsystem to the agent as a small set of
// tool handlers. Tool results are always descriptive strings: failures are
// reported in the result text and never surface as errors to the host.
package tools

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/chriswritescode-dev/opencode-manager-sub001/pkg/memory"
	"github.com/chriswritescode-dev/opencode-manager-sub001/pkg/storage"
)

// Tools bundles the memory-read, memory-write and memory-delete handlers for
// a single project.
type Tools struct {
	projectID string
	memories  *memory.Service
	logger    *slog.Logger
}

// New creates the tool surface for a project.
func New(projectID string, memories *memory.Service, logger *slog.Logger) *Tools {
	if logger == nil {
		logger = slog.Default()
	}
	return &Tools{
		projectID: projectID,
		memories:  memories,
		logger:    logger.With("component", "memory-tools"),
	}
}

// Read handles memory-read. With a query it runs a similarity search,
// otherwise it lists the project's memories. The result is a formatted,
// human-readable block.
func (t *Tools) Read(ctx context.Context, query string, limit int) string {
	if limit <= 0 {
		limit = memory.DefaultSearchLimit
	}

	var (
		results []*storage.Memory
		err     error
	)
	if query != "" {
		results, err = t.memories.Search(ctx, t.projectID, query, &memory.SearchOptions{Limit: limit})
	} else {
		results, err = t.memories.List(ctx, t.projectID, &storage.ListOptions{Limit: limit})
	}
	if err != nil {
		t.logger.Warn("memory-read failed", "error", err)
		return fmt.Sprintf("Failed to read memories: %v", err)
	}
	if len(results) == 0 {
		if query != "" {
			return fmt.Sprintf("No memories matched %q.", query)
		}
		return "No memories recorded for this project yet."
	}

	var sb strings.Builder
	if query != "" {
		fmt.Fprintf(&sb, "Found %d memories matching %q:\n", len(results), query)
	} else {
		fmt.Fprintf(&sb, "Project has %d memories:\n", len(results))
	}
	for _, m := range results {
		fmt.Fprintf(&sb, "- [%d] (%s) %s\n", m.ID, m.Scope, m.Content)
	}
	return strings.TrimRight(sb.String(), "\n")
}

// Write handles memory-write. The result reports whether a new memory was
// created or the content merged into an existing one.
func (t *Tools) Write(ctx context.Context, content, scope string) string {
	res, err := t.memories.Create(ctx, t.projectID, content, scope, "")
	if err != nil {
		t.logger.Warn("memory-write failed", "error", err)
		return fmt.Sprintf("Failed to save memory: %v", err)
	}
	if res.Deduplicated {
		return fmt.Sprintf("Merged into existing memory %d (duplicate content).", res.ID)
	}
	return fmt.Sprintf("Saved memory %d.", res.ID)
}

// Delete handles memory-delete. The id is the string form of a memory id as
// reported by memory-read.
func (t *Tools) Delete(ctx context.Context, id string) string {
	parsed, err := strconv.ParseInt(strings.TrimSpace(id), 10, 64)
	if err != nil {
		return fmt.Sprintf("Invalid memory id %q.", id)
	}
	if err := t.memories.Delete(ctx, parsed); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return fmt.Sprintf("No memory with id %d.", parsed)
		}
		t.logger.Warn("memory-delete failed", "error", err)
		return fmt.Sprintf("Failed to delete memory %d: %v", parsed, err)
	}
	return fmt.Sprintf("Deleted memory %d.", parsed)
}
