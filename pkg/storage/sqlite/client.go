// Package sqlite provides the SQLite implementation of the memory store.
//
// SQLite is the default backend: a lightweight, file-based database suited to
// a per-project memory table. Vectors are stored as JSON strings in TEXT
// fields, and similarity search uses in-memory cosine ranking.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/chriswritescode-dev/opencode-manager-sub001/pkg/storage"
)

// Client implements storage.Store using SQLite as the backend.
type Client struct {
	db        *sql.DB
	tableName string
}

// Config contains configuration for creating a SQLite store.
type Config struct {
	// DBPath is the path to the SQLite database file.
	DBPath string

	// TableName is the name of the table holding memories.
	TableName string
}

// NewClient creates a new SQLite store.
//
// The parent directory of DBPath is created if missing, and the memory table
// is initialized on first use.
func NewClient(cfg *Config) (*Client, error) {
	dbDir := filepath.Dir(cfg.DBPath)
	if dbDir != "" && dbDir != "." {
		if err := os.MkdirAll(dbDir, 0755); err != nil {
			return nil, fmt.Errorf("NewSQLiteClient: failed to create directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", cfg.DBPath+"?_foreign_keys=1&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("NewSQLiteClient: %w", err)
	}

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("NewSQLiteClient: %w", err)
	}

	tableName := cfg.TableName
	if tableName == "" {
		tableName = "memories"
	}

	client := &Client{db: db, tableName: tableName}

	if err := client.initTables(context.Background()); err != nil {
		return nil, err
	}

	return client, nil
}

// initTables initializes the memory table.
//
// Timestamps are stored as epoch milliseconds; embeddings as JSON strings.
func (c *Client) initTables(ctx context.Context) error {
	query := fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS %s (
			id INTEGER PRIMARY KEY,
			project_id TEXT NOT NULL,
			scope TEXT NOT NULL,
			content TEXT NOT NULL,
			file_path TEXT NOT NULL DEFAULT '',
			embedding TEXT NOT NULL,
			access_count INTEGER NOT NULL DEFAULT 0,
			created_at INTEGER NOT NULL,
			updated_at INTEGER NOT NULL,
			last_accessed_at INTEGER NOT NULL
		)
	`, c.tableName)

	if _, err := c.db.ExecContext(ctx, query); err != nil {
		return storageErr("initTables", err)
	}

	indexQuery := fmt.Sprintf(`
		CREATE INDEX IF NOT EXISTS idx_%s_project_scope ON %s(project_id, scope)
	`, c.tableName, c.tableName)
	if _, err := c.db.ExecContext(ctx, indexQuery); err != nil {
		return storageErr("initTables", err)
	}

	return nil
}

const memoryColumns = "id, project_id, scope, content, file_path, embedding, access_count, created_at, updated_at, last_accessed_at"

// Insert inserts a memory row.
func (c *Client) Insert(ctx context.Context, memory *storage.Memory) error {
	embeddingJSON, err := json.Marshal(memory.Embedding)
	if err != nil {
		return storageErr("Insert", err)
	}

	query := fmt.Sprintf(`
		INSERT INTO %s (%s)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, c.tableName, memoryColumns)

	_, err = c.db.ExecContext(ctx, query,
		memory.ID,
		memory.ProjectID,
		memory.Scope,
		memory.Content,
		memory.FilePath,
		string(embeddingJSON),
		memory.AccessCount,
		memory.CreatedAt.UnixMilli(),
		memory.UpdatedAt.UnixMilli(),
		memory.LastAccessedAt.UnixMilli(),
	)
	if err != nil {
		return storageErr("Insert", err)
	}

	return nil
}

// Get retrieves a memory by ID.
func (c *Client) Get(ctx context.Context, id int64) (*storage.Memory, error) {
	query := fmt.Sprintf("SELECT %s FROM %s WHERE id = ?", memoryColumns, c.tableName)

	memory, err := c.scanMemory(c.db.QueryRowContext(ctx, query, id))
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("Get: %w", storage.ErrNotFound)
	}
	if err != nil {
		return nil, storageErr("Get", err)
	}

	return memory, nil
}

// FindByContent returns a memory with exactly matching content in a project.
func (c *Client) FindByContent(ctx context.Context, projectID, content string) (*storage.Memory, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM %s
		WHERE project_id = ? AND content = ?
		ORDER BY last_accessed_at DESC
		LIMIT 1
	`, memoryColumns, c.tableName)

	memory, err := c.scanMemory(c.db.QueryRowContext(ctx, query, projectID, content))
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("FindByContent: %w", storage.ErrNotFound)
	}
	if err != nil {
		return nil, storageErr("FindByContent", err)
	}

	return memory, nil
}

// ListByProject lists a project's memories, most recently accessed first.
func (c *Client) ListByProject(ctx context.Context, projectID string, opts *storage.ListOptions) ([]*storage.Memory, error) {
	if opts == nil {
		opts = &storage.ListOptions{}
	}
	limit := opts.Limit
	if limit <= 0 {
		limit = storage.DefaultListLimit
	}

	where := "WHERE project_id = ?"
	args := []interface{}{projectID}
	if opts.Scope != "" {
		where += " AND scope = ?"
		args = append(args, opts.Scope)
	}

	query := fmt.Sprintf(`
		SELECT %s FROM %s
		%s
		ORDER BY last_accessed_at DESC, id DESC
		LIMIT ?
	`, memoryColumns, c.tableName, where)
	args = append(args, limit)

	return c.queryMemories(ctx, "ListByProject", query, args...)
}

// SearchByEmbedding ranks a project's memories by cosine similarity.
//
// SQLite has no native vector operations, so similarity is calculated in
// memory after loading the project's rows.
func (c *Client) SearchByEmbedding(ctx context.Context, projectID string, embedding []float64, topK int) ([]*storage.Memory, error) {
	query := fmt.Sprintf("SELECT %s FROM %s WHERE project_id = ? ORDER BY id", memoryColumns, c.tableName)

	memories, err := c.queryMemories(ctx, "SearchByEmbedding", query, projectID)
	if err != nil {
		return nil, err
	}

	for _, memory := range memories {
		memory.Score = storage.CosineSimilarity(embedding, memory.Embedding)
	}

	return storage.RankByScore(memories, topK), nil
}

// Update replaces a memory's content and embedding.
func (c *Client) Update(ctx context.Context, id int64, content string, embedding []float64) (*storage.Memory, error) {
	embeddingJSON, err := json.Marshal(embedding)
	if err != nil {
		return nil, storageErr("Update", err)
	}

	query := fmt.Sprintf(`
		UPDATE %s SET content = ?, embedding = ?, updated_at = ?
		WHERE id = ?
	`, c.tableName)

	result, err := c.db.ExecContext(ctx, query, content, string(embeddingJSON), time.Now().UnixMilli(), id)
	if err != nil {
		return nil, storageErr("Update", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return nil, storageErr("Update", err)
	}
	if affected == 0 {
		return nil, fmt.Errorf("Update: %w", storage.ErrNotFound)
	}

	return c.Get(ctx, id)
}

// Touch increments the access count and refreshes the access timestamp.
func (c *Client) Touch(ctx context.Context, id int64) error {
	query := fmt.Sprintf(`
		UPDATE %s SET access_count = access_count + 1, last_accessed_at = ?
		WHERE id = ?
	`, c.tableName)

	result, err := c.db.ExecContext(ctx, query, time.Now().UnixMilli(), id)
	if err != nil {
		return storageErr("Touch", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return storageErr("Touch", err)
	}
	if affected == 0 {
		return fmt.Errorf("Touch: %w", storage.ErrNotFound)
	}

	return nil
}

// Delete removes a memory by ID.
func (c *Client) Delete(ctx context.Context, id int64) error {
	query := fmt.Sprintf("DELETE FROM %s WHERE id = ?", c.tableName)

	result, err := c.db.ExecContext(ctx, query, id)
	if err != nil {
		return storageErr("Delete", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return storageErr("Delete", err)
	}
	if affected == 0 {
		return fmt.Errorf("Delete: %w", storage.ErrNotFound)
	}

	return nil
}

// DeleteByProject removes all memories of a project.
func (c *Client) DeleteByProject(ctx context.Context, projectID string) error {
	query := fmt.Sprintf("DELETE FROM %s WHERE project_id = ?", c.tableName)
	if _, err := c.db.ExecContext(ctx, query, projectID); err != nil {
		return storageErr("DeleteByProject", err)
	}
	return nil
}

// DeleteByFilePath removes all memories of a project tied to a file path.
func (c *Client) DeleteByFilePath(ctx context.Context, projectID, filePath string) error {
	query := fmt.Sprintf("DELETE FROM %s WHERE project_id = ? AND file_path = ?", c.tableName)
	if _, err := c.db.ExecContext(ctx, query, projectID, filePath); err != nil {
		return storageErr("DeleteByFilePath", err)
	}
	return nil
}

// CountByProject returns the number of memories in a project.
func (c *Client) CountByProject(ctx context.Context, projectID string) (int, error) {
	query := fmt.Sprintf("SELECT COUNT(*) FROM %s WHERE project_id = ?", c.tableName)

	var count int
	if err := c.db.QueryRowContext(ctx, query, projectID).Scan(&count); err != nil {
		return 0, storageErr("CountByProject", err)
	}
	return count, nil
}

// CountByScope returns per-scope memory counts for a project.
func (c *Client) CountByScope(ctx context.Context, projectID string) (map[string]int, error) {
	query := fmt.Sprintf(`
		SELECT scope, COUNT(*) FROM %s
		WHERE project_id = ?
		GROUP BY scope
	`, c.tableName)

	rows, err := c.db.QueryContext(ctx, query, projectID)
	if err != nil {
		return nil, storageErr("CountByScope", err)
	}
	defer func() { _ = rows.Close() }()

	counts := make(map[string]int)
	for rows.Next() {
		var scope string
		var count int
		if err := rows.Scan(&scope, &count); err != nil {
			return nil, storageErr("CountByScope", err)
		}
		counts[scope] = count
	}
	if err := rows.Err(); err != nil {
		return nil, storageErr("CountByScope", err)
	}

	return counts, nil
}

// Close closes the database connection.
func (c *Client) Close() error {
	if c.db != nil {
		return c.db.Close()
	}
	return nil
}

// queryMemories runs a query and scans all rows into memories.
func (c *Client) queryMemories(ctx context.Context, op, query string, args ...interface{}) ([]*storage.Memory, error) {
	rows, err := c.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, storageErr(op, err)
	}
	defer func() { _ = rows.Close() }()

	var memories []*storage.Memory
	for rows.Next() {
		memory, err := c.scanMemory(rows)
		if err != nil {
			return nil, storageErr(op, err)
		}
		memories = append(memories, memory)
	}
	if err := rows.Err(); err != nil {
		return nil, storageErr(op, err)
	}

	return memories, nil
}

// rowScanner is satisfied by both *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...interface{}) error
}

// scanMemory scans a memory from a database row.
func (c *Client) scanMemory(scanner rowScanner) (*storage.Memory, error) {
	var memory storage.Memory
	var embeddingStr string
	var createdAt, updatedAt, lastAccessedAt int64

	err := scanner.Scan(
		&memory.ID,
		&memory.ProjectID,
		&memory.Scope,
		&memory.Content,
		&memory.FilePath,
		&embeddingStr,
		&memory.AccessCount,
		&createdAt,
		&updatedAt,
		&lastAccessedAt,
	)
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal([]byte(embeddingStr), &memory.Embedding); err != nil {
		return nil, fmt.Errorf("parse embedding: %w", err)
	}

	memory.CreatedAt = time.UnixMilli(createdAt).UTC()
	memory.UpdatedAt = time.UnixMilli(updatedAt).UTC()
	memory.LastAccessedAt = time.UnixMilli(lastAccessedAt).UTC()

	return &memory, nil
}

// storageErr tags an I/O failure with the operation name and the shared
// storage.ErrStorage sentinel.
func storageErr(op string, err error) error {
	return fmt.Errorf("%s: %w: %v", op, storage.ErrStorage, err)
}
