package contract

import (
	"context"

	"ai-knowledge-core/internal/entity"
)

type EmbeddingCacheRepository interface {
	// Find returns the cached entry for (textHash, modelName), or nil on miss.
	Find(ctx context.Context, textHash, modelName string) (*entity.EmbeddingCacheEntry, error)

	// Upsert inserts or replaces the entry keyed by (TextHash, ModelName).
	// Idempotent; concurrent writers converge because cached values for
	// the same key are computed identically.
	Upsert(ctx context.Context, entry *entity.EmbeddingCacheEntry) error

	// Touch bumps LastAccessed on a cache hit. Last writer wins.
	Touch(ctx context.Context, textHash, modelName string) error
}
