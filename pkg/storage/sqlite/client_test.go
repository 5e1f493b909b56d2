package sqlite_test

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chriswritescode-dev/opencode-manager-sub001/pkg/storage"
	sqliteStore "github.com/chriswritescode-dev/opencode-manager-sub001/pkg/storage/sqlite"
)

func setupSQLiteTest(t *testing.T) storage.Store {
	t.Helper()

	store, err := sqliteStore.NewClient(&sqliteStore.Config{
		DBPath: filepath.Join(t.TempDir(), "memories.db"),
	})
	require.NoError(t, err)
	require.NotNil(t, store)

	t.Cleanup(func() { _ = store.Close() })
	return store
}

func newTestMemory(id int64, project, scope, content string, embedding []float64) *storage.Memory {
	now := time.Now().UTC()
	return &storage.Memory{
		ID:             id,
		ProjectID:      project,
		Scope:          scope,
		Content:        content,
		Embedding:      embedding,
		CreatedAt:      now,
		UpdatedAt:      now,
		LastAccessedAt: now,
	}
}

func TestSQLiteClient_InsertAndGet(t *testing.T) {
	store := setupSQLiteTest(t)
	ctx := context.Background()

	mem := newTestMemory(1, "proj", "convention", "handlers live under internal/api", []float64{0.1, 0.2, 0.3})
	require.NoError(t, store.Insert(ctx, mem))

	got, err := store.Get(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, int64(1), got.ID)
	assert.Equal(t, "proj", got.ProjectID)
	assert.Equal(t, "convention", got.Scope)
	assert.Equal(t, "handlers live under internal/api", got.Content)
	assert.Equal(t, []float64{0.1, 0.2, 0.3}, got.Embedding)
	assert.Equal(t, 0, got.AccessCount)
}

func TestSQLiteClient_GetNotFound(t *testing.T) {
	store := setupSQLiteTest(t)

	_, err := store.Get(context.Background(), 42)
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestSQLiteClient_FindByContent(t *testing.T) {
	store := setupSQLiteTest(t)
	ctx := context.Background()

	require.NoError(t, store.Insert(ctx, newTestMemory(1, "proj", "context", "exact text", nil)))

	got, err := store.FindByContent(ctx, "proj", "exact text")
	require.NoError(t, err)
	assert.Equal(t, int64(1), got.ID)

	_, err = store.FindByContent(ctx, "proj", "different text")
	assert.ErrorIs(t, err, storage.ErrNotFound)

	_, err = store.FindByContent(ctx, "other-project", "exact text")
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestSQLiteClient_ListByProject(t *testing.T) {
	store := setupSQLiteTest(t)
	ctx := context.Background()

	require.NoError(t, store.Insert(ctx, newTestMemory(1, "proj", "convention", "a", nil)))
	require.NoError(t, store.Insert(ctx, newTestMemory(2, "proj", "decision", "b", nil)))
	require.NoError(t, store.Insert(ctx, newTestMemory(3, "other", "decision", "c", nil)))

	all, err := store.ListByProject(ctx, "proj", nil)
	require.NoError(t, err)
	assert.Len(t, all, 2)

	decisions, err := store.ListByProject(ctx, "proj", &storage.ListOptions{Scope: "decision"})
	require.NoError(t, err)
	require.Len(t, decisions, 1)
	assert.Equal(t, int64(2), decisions[0].ID)
}

func TestSQLiteClient_SearchByEmbedding(t *testing.T) {
	store := setupSQLiteTest(t)
	ctx := context.Background()

	require.NoError(t, store.Insert(ctx, newTestMemory(1, "proj", "context", "east", []float64{1, 0})))
	require.NoError(t, store.Insert(ctx, newTestMemory(2, "proj", "context", "north", []float64{0, 1})))

	results, err := store.SearchByEmbedding(ctx, "proj", []float64{0.9, 0.1}, 1)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, int64(1), results[0].ID)
	assert.Greater(t, results[0].Score, 0.9)
}

func TestSQLiteClient_Touch(t *testing.T) {
	store := setupSQLiteTest(t)
	ctx := context.Background()

	require.NoError(t, store.Insert(ctx, newTestMemory(1, "proj", "context", "a", nil)))

	require.NoError(t, store.Touch(ctx, 1))
	require.NoError(t, store.Touch(ctx, 1))

	got, err := store.Get(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, 2, got.AccessCount)
}

func TestSQLiteClient_Update(t *testing.T) {
	store := setupSQLiteTest(t)
	ctx := context.Background()

	require.NoError(t, store.Insert(ctx, newTestMemory(1, "proj", "context", "before", []float64{1, 0})))

	updated, err := store.Update(ctx, 1, "after", []float64{0, 1})
	require.NoError(t, err)
	assert.Equal(t, "after", updated.Content)
	assert.Equal(t, []float64{0, 1}, updated.Embedding)

	_, err = store.Update(ctx, 99, "missing", nil)
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestSQLiteClient_Delete(t *testing.T) {
	store := setupSQLiteTest(t)
	ctx := context.Background()

	require.NoError(t, store.Insert(ctx, newTestMemory(1, "proj", "context", "a", nil)))
	require.NoError(t, store.Delete(ctx, 1))

	_, err := store.Get(ctx, 1)
	assert.ErrorIs(t, err, storage.ErrNotFound)

	assert.ErrorIs(t, store.Delete(ctx, 1), storage.ErrNotFound)
}

func TestSQLiteClient_DeleteByProject(t *testing.T) {
	store := setupSQLiteTest(t)
	ctx := context.Background()

	require.NoError(t, store.Insert(ctx, newTestMemory(1, "proj", "context", "a", nil)))
	require.NoError(t, store.Insert(ctx, newTestMemory(2, "proj", "context", "b", nil)))
	require.NoError(t, store.Insert(ctx, newTestMemory(3, "other", "context", "c", nil)))

	require.NoError(t, store.DeleteByProject(ctx, "proj"))

	n, err := store.CountByProject(ctx, "proj")
	require.NoError(t, err)
	assert.Equal(t, 0, n)

	n, err = store.CountByProject(ctx, "other")
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestSQLiteClient_DeleteByFilePath(t *testing.T) {
	store := setupSQLiteTest(t)
	ctx := context.Background()

	withPath := newTestMemory(1, "proj", "context", "a", nil)
	withPath.FilePath = "docs/setup.md"
	require.NoError(t, store.Insert(ctx, withPath))
	require.NoError(t, store.Insert(ctx, newTestMemory(2, "proj", "context", "b", nil)))

	require.NoError(t, store.DeleteByFilePath(ctx, "proj", "docs/setup.md"))

	n, err := store.CountByProject(ctx, "proj")
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestSQLiteClient_CountByScope(t *testing.T) {
	store := setupSQLiteTest(t)
	ctx := context.Background()

	require.NoError(t, store.Insert(ctx, newTestMemory(1, "proj", "convention", "a", nil)))
	require.NoError(t, store.Insert(ctx, newTestMemory(2, "proj", "convention", "b", nil)))
	require.NoError(t, store.Insert(ctx, newTestMemory(3, "proj", "decision", "c", nil)))

	byScope, err := store.CountByScope(ctx, "proj")
	require.NoError(t, err)
	assert.Equal(t, map[string]int{"convention": 2, "decision": 1}, byScope)
}
