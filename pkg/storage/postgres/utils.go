package postgres

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/chriswritescode-dev/opencode-manager-sub001/pkg/storage"
)

// vectorToString converts a vector to the pgvector text format "[0.1,0.2,...]".
func vectorToString(embedding []float64) string {
	parts := make([]string, len(embedding))
	for i, v := range embedding {
		parts[i] = strconv.FormatFloat(v, 'f', -1, 64)
	}
	return "[" + strings.Join(parts, ",") + "]"
}

// stringToVector parses the pgvector text format back into a vector.
func stringToVector(s string) ([]float64, error) {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "[")
	s = strings.TrimSuffix(s, "]")
	if s == "" {
		return nil, nil
	}

	parts := strings.Split(s, ",")
	embedding := make([]float64, len(parts))
	for i, part := range parts {
		v, err := strconv.ParseFloat(strings.TrimSpace(part), 64)
		if err != nil {
			return nil, fmt.Errorf("parse vector element %d: %w", i, err)
		}
		embedding[i] = v
	}
	return embedding, nil
}

// rowScanner is satisfied by both *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...interface{}) error
}

// scanMemory scans a memory row without a similarity column.
func scanMemory(scanner rowScanner) (*storage.Memory, error) {
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

	return finishScan(&memory, embeddingStr, createdAt, updatedAt, lastAccessedAt)
}

// scanScoredMemory scans a memory row with a trailing similarity column.
func scanScoredMemory(scanner rowScanner) (*storage.Memory, error) {
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
		&memory.Score,
	)
	if err != nil {
		return nil, err
	}

	return finishScan(&memory, embeddingStr, createdAt, updatedAt, lastAccessedAt)
}

func finishScan(memory *storage.Memory, embeddingStr string, createdAt, updatedAt, lastAccessedAt int64) (*storage.Memory, error) {
	embedding, err := stringToVector(embeddingStr)
	if err != nil {
		return nil, err
	}
	memory.Embedding = embedding

	memory.CreatedAt = time.UnixMilli(createdAt).UTC()
	memory.UpdatedAt = time.UnixMilli(updatedAt).UTC()
	memory.LastAccessedAt = time.UnixMilli(lastAccessedAt).UTC()

	return memory, nil
}
