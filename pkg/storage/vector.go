package storage

import (
	"math"
	"sort"
)

// CosineSimilarity calculates the cosine similarity between two vectors.
//
// The result ranges from -1 (opposite) to 1 (identical). Vectors of differing
// dimensionality or zero norm yield 0.
func CosineSimilarity(a, b []float64) float64 {
	if len(a) != len(b) {
		return 0
	}

	var dot, normA, normB float64
	for i := range a {
		dot += a[i] * b[i]
		normA += a[i] * a[i]
		normB += b[i] * b[i]
	}

	if normA == 0 || normB == 0 {
		return 0
	}

	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}

// RankByScore sorts memories by Score descending, breaking ties by
// LastAccessedAt descending, and truncates to topK (0 means no cap).
//
// Backends without native vector ranking (SQLite, MySQL, in-process) compute
// scores in memory and share this ordering.
func RankByScore(memories []*Memory, topK int) []*Memory {
	sort.SliceStable(memories, func(i, j int) bool {
		if memories[i].Score != memories[j].Score {
			return memories[i].Score > memories[j].Score
		}
		return memories[i].LastAccessedAt.After(memories[j].LastAccessedAt)
	})

	if topK > 0 && len(memories) > topK {
		return memories[:topK]
	}
	return memories
}
