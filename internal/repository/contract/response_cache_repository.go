package contract

import (
	"context"

	"ai-knowledge-core/internal/entity"
)

// ScoredResponse wraps a ResponseCacheEntry with the similarity between
// the stored query embedding and the probe embedding.
type ScoredResponse struct {
	Entry      *entity.ResponseCacheEntry
	Similarity float64
}

type ResponseCacheRepository interface {
	// FindNearest returns the single nearest entry by cosine similarity,
	// or nil when the store is empty.
	FindNearest(ctx context.Context, embedding []float32) (*ScoredResponse, error)

	// Insert stores a freshly generated answer keyed by its query
	// embedding. Duplicate inserts are acceptable (last writer wins).
	Insert(ctx context.Context, entry *entity.ResponseCacheEntry) error
}
