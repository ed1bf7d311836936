package memory

import (
	"context"
	"time"

	"ai-knowledge-core/internal/entity"
	"ai-knowledge-core/internal/repository/contract"

	"github.com/patrickmn/go-cache"
)

// EmbeddingCacheRepository is an in-process embedding cache backed by
// go-cache. Used as an L1 in front of the persistent store, and as a
// standalone store in tests.
type EmbeddingCacheRepository struct {
	cache *cache.Cache
}

func NewEmbeddingCacheRepository(defaultExpiration, cleanupInterval time.Duration) *EmbeddingCacheRepository {
	return &EmbeddingCacheRepository{
		cache: cache.New(defaultExpiration, cleanupInterval),
	}
}

var _ contract.EmbeddingCacheRepository = (*EmbeddingCacheRepository)(nil)

func key(textHash, modelName string) string {
	return textHash + ":" + modelName
}

func (r *EmbeddingCacheRepository) Find(ctx context.Context, textHash, modelName string) (*entity.EmbeddingCacheEntry, error) {
	if x, found := r.cache.Get(key(textHash, modelName)); found {
		return x.(*entity.EmbeddingCacheEntry), nil
	}
	return nil, nil
}

func (r *EmbeddingCacheRepository) Upsert(ctx context.Context, entry *entity.EmbeddingCacheEntry) error {
	if entry.LastAccessed.IsZero() {
		entry.LastAccessed = time.Now()
	}
	r.cache.Set(key(entry.TextHash, entry.ModelName), entry, cache.DefaultExpiration)
	return nil
}

func (r *EmbeddingCacheRepository) Touch(ctx context.Context, textHash, modelName string) error {
	if x, found := r.cache.Get(key(textHash, modelName)); found {
		entry := x.(*entity.EmbeddingCacheEntry)
		entry.LastAccessed = time.Now()
		r.cache.Set(key(textHash, modelName), entry, cache.DefaultExpiration)
	}
	return nil
}
