// Package postgres provides the PostgreSQL + pgvector implementation of the
// memory store. Similarity ranking runs inside the database using the pgvector
// cosine distance operator.
package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/lib/pq"

	"github.com/chriswritescode-dev/opencode-manager-sub001/pkg/storage"
)

// Client implements storage.Store on PostgreSQL with pgvector.
type Client struct {
	db         *sql.DB
	tableName  string
	dimensions int
}

// Config contains PostgreSQL configuration.
type Config struct {
	Host       string
	Port       int
	User       string
	Password   string
	DBName     string
	TableName  string
	Dimensions int
	SSLMode    string
}

// NewClient creates a new PostgreSQL store.
//
// The pgvector extension and the memory table are created on first use.
func NewClient(cfg *Config) (*Client, error) {
	sslMode := cfg.SSLMode
	if sslMode == "" {
		sslMode = "disable"
	}

	dsn := fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		cfg.Host, cfg.Port, cfg.User, cfg.Password, cfg.DBName, sslMode)

	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("NewPostgresClient: %w", err)
	}

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("NewPostgresClient: %w", err)
	}

	tableName := cfg.TableName
	if tableName == "" {
		tableName = "memories"
	}

	client := &Client{db: db, tableName: tableName, dimensions: cfg.Dimensions}

	if err := client.initTables(context.Background()); err != nil {
		return nil, err
	}

	return client, nil
}

// initTables enables pgvector and creates the memory table.
func (c *Client) initTables(ctx context.Context) error {
	if _, err := c.db.ExecContext(ctx, "CREATE EXTENSION IF NOT EXISTS vector"); err != nil {
		return storageErr("initTables", err)
	}

	query := fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS %s (
			id BIGINT PRIMARY KEY,
			project_id VARCHAR(255) NOT NULL,
			scope VARCHAR(64) NOT NULL,
			content TEXT NOT NULL,
			file_path TEXT NOT NULL DEFAULT '',
			embedding vector(%d) NOT NULL,
			access_count INTEGER NOT NULL DEFAULT 0,
			created_at BIGINT NOT NULL,
			updated_at BIGINT NOT NULL,
			last_accessed_at BIGINT NOT NULL
		)
	`, c.tableName, c.dimensions)
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
	query := fmt.Sprintf(`
		INSERT INTO %s (%s)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`, c.tableName, memoryColumns)

	_, err := c.db.ExecContext(ctx, query,
		memory.ID,
		memory.ProjectID,
		memory.Scope,
		memory.Content,
		memory.FilePath,
		vectorToString(memory.Embedding),
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
	query := fmt.Sprintf("SELECT %s FROM %s WHERE id = $1", memoryColumns, c.tableName)

	memory, err := scanMemory(c.db.QueryRowContext(ctx, query, id))
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
		WHERE project_id = $1 AND content = $2
		ORDER BY last_accessed_at DESC
		LIMIT 1
	`, memoryColumns, c.tableName)

	memory, err := scanMemory(c.db.QueryRowContext(ctx, query, projectID, content))
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

	where := "WHERE project_id = $1"
	args := []interface{}{projectID}
	if opts.Scope != "" {
		where += " AND scope = $2"
		args = append(args, opts.Scope)
	}

	query := fmt.Sprintf(`
		SELECT %s FROM %s
		%s
		ORDER BY last_accessed_at DESC, id DESC
		LIMIT $%d
	`, memoryColumns, c.tableName, where, len(args)+1)
	args = append(args, limit)

	return c.queryMemories(ctx, "ListByProject", query, false, args...)
}

// SearchByEmbedding ranks a project's memories using the pgvector cosine
// distance operator, ties broken by last access time. A topK of zero or less
// returns the whole project, matching the in-process backends.
func (c *Client) SearchByEmbedding(ctx context.Context, projectID string, embedding []float64, topK int) ([]*storage.Memory, error) {
	query, capped := c.searchQuery(topK)

	args := []interface{}{vectorToString(embedding), projectID}
	if capped {
		args = append(args, topK)
	}

	return c.queryMemories(ctx, "SearchByEmbedding", query, true, args...)
}

// searchQuery builds the similarity query, appending a LIMIT clause only for
// a positive topK.
func (c *Client) searchQuery(topK int) (string, bool) {
	query := fmt.Sprintf(`
		SELECT %s, 1 - (embedding <=> $1) AS similarity
		FROM %s
		WHERE project_id = $2
		ORDER BY embedding <=> $1, last_accessed_at DESC
	`, memoryColumns, c.tableName)

	if topK > 0 {
		return query + " LIMIT $3", true
	}
	return query, false
}

// Update replaces a memory's content and embedding.
func (c *Client) Update(ctx context.Context, id int64, content string, embedding []float64) (*storage.Memory, error) {
	query := fmt.Sprintf(`
		UPDATE %s SET content = $1, embedding = $2, updated_at = $3
		WHERE id = $4
	`, c.tableName)

	result, err := c.db.ExecContext(ctx, query, content, vectorToString(embedding), time.Now().UnixMilli(), id)
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
		UPDATE %s SET access_count = access_count + 1, last_accessed_at = $1
		WHERE id = $2
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
	query := fmt.Sprintf("DELETE FROM %s WHERE id = $1", c.tableName)

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
	query := fmt.Sprintf("DELETE FROM %s WHERE project_id = $1", c.tableName)
	if _, err := c.db.ExecContext(ctx, query, projectID); err != nil {
		return storageErr("DeleteByProject", err)
	}
	return nil
}

// DeleteByFilePath removes all memories of a project tied to a file path.
func (c *Client) DeleteByFilePath(ctx context.Context, projectID, filePath string) error {
	query := fmt.Sprintf("DELETE FROM %s WHERE project_id = $1 AND file_path = $2", c.tableName)
	if _, err := c.db.ExecContext(ctx, query, projectID, filePath); err != nil {
		return storageErr("DeleteByFilePath", err)
	}
	return nil
}

// CountByProject returns the number of memories in a project.
func (c *Client) CountByProject(ctx context.Context, projectID string) (int, error) {
	query := fmt.Sprintf("SELECT COUNT(*) FROM %s WHERE project_id = $1", c.tableName)

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
		WHERE project_id = $1
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

// queryMemories runs a query and scans all rows. withScore indicates that the
// query selects a trailing similarity column.
func (c *Client) queryMemories(ctx context.Context, op, query string, withScore bool, args ...interface{}) ([]*storage.Memory, error) {
	rows, err := c.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, storageErr(op, err)
	}
	defer func() { _ = rows.Close() }()

	var memories []*storage.Memory
	for rows.Next() {
		var memory *storage.Memory
		var scanErr error
		if withScore {
			memory, scanErr = scanScoredMemory(rows)
		} else {
			memory, scanErr = scanMemory(rows)
		}
		if scanErr != nil {
			return nil, storageErr(op, scanErr)
		}
		memories = append(memories, memory)
	}
	if err := rows.Err(); err != nil {
		return nil, storageErr(op, err)
	}

	return memories, nil
}

// storageErr tags an I/O failure with the operation name and the shared
// storage.ErrStorage sentinel.
func storageErr(op string, err error) error {
	return fmt.Errorf("%s: %w: %v", op, storage.ErrStorage, err)
}
