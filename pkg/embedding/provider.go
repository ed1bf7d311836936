package embedding

import (
	"context"
	"math"
)

// Task types passed through to providers that distinguish retrieval
// documents from retrieval queries.
const (
	TaskDocument = "RETRIEVAL_DOCUMENT"
	TaskQuery    = "RETRIEVAL_QUERY"
)

// EmbeddingProvider defines the interface for generating text embeddings
type EmbeddingProvider interface {
	// Name identifies the underlying model, used as the cache key suffix.
	Name() string

	Generate(ctx context.Context, text string, taskType string) ([]float32, error)

	// GenerateBatch embeds several texts in one request. Output is
	// order-preserving and 1:1 with the input.
	GenerateBatch(ctx context.Context, texts []string, taskType string) ([][]float32, error)
}

// normalizeVector normalizes a vector to unit length (magnitude = 1).
// Cosine distance in pgvector requires normalized vectors.
func normalizeVector(vec []float32) []float32 {
	var magnitude float64
	for _, v := range vec {
		magnitude += float64(v) * float64(v)
	}
	magnitude = math.Sqrt(magnitude)

	// Avoid division by zero
	if magnitude == 0 {
		return vec
	}

	normalized := make([]float32, len(vec))
	for i, v := range vec {
		normalized[i] = float32(float64(v) / magnitude)
	}
	return normalized
}

// meanPool averages several sub-embeddings into one vector and
// renormalizes. Used when a single logical text had to be force-split to
// fit provider limits; a documented approximation.
func meanPool(vectors [][]float32) []float32 {
	if len(vectors) == 0 {
		return nil
	}
	if len(vectors) == 1 {
		return vectors[0]
	}

	pooled := make([]float32, len(vectors[0]))
	for _, vec := range vectors {
		for i, v := range vec {
			pooled[i] += v
		}
	}
	n := float32(len(vectors))
	for i := range pooled {
		pooled[i] /= n
	}
	return normalizeVector(pooled)
}
