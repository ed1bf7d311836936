package response

import (
	"context"
	"time"

	"ai-knowledge-core/internal/entity"
	"ai-knowledge-core/internal/pkg/logger"
	"ai-knowledge-core/internal/repository/contract"

	"github.com/google/uuid"
)

// DefaultThreshold is deliberately very high: the cache is keyed by a
// nearest-match heuristic, and returning a cached answer for a materially
// different question is worse than a cache miss.
const DefaultThreshold = 0.99

// Cache is the similarity-gated response cache. It short-circuits the
// whole pipeline for semantically repeated queries; distinct from the
// exact-hash embedding cache.
type Cache struct {
	repo      contract.ResponseCacheRepository
	log       logger.ILogger
	threshold float64
}

func NewCache(repo contract.ResponseCacheRepository, log logger.ILogger, threshold float64) *Cache {
	if threshold <= 0 {
		threshold = DefaultThreshold
	}
	return &Cache{
		repo:      repo,
		log:       log,
		threshold: threshold,
	}
}

// Find returns the cached answer whose stored query embedding is within
// the threshold, or nil on a miss. threshold <= 0 uses the configured
// default.
func (c *Cache) Find(ctx context.Context, queryEmbedding []float32, threshold float64) (*entity.ResponseCacheEntry, error) {
	if threshold <= 0 {
		threshold = c.threshold
	}

	nearest, err := c.repo.FindNearest(ctx, queryEmbedding)
	if err != nil {
		return nil, err
	}
	if nearest == nil || nearest.Similarity < threshold {
		return nil, nil
	}

	if c.log != nil {
		c.log.Info("response_cache", "cache hit", map[string]interface{}{
			"similarity": nearest.Similarity,
		})
	}
	return nearest.Entry, nil
}

// Insert stores a freshly generated answer. Misses never auto-populate;
// this is an explicit call made after generation.
func (c *Cache) Insert(ctx context.Context, queryEmbedding []float32, response []byte) error {
	return c.repo.Insert(ctx, &entity.ResponseCacheEntry{
		Id:             uuid.New(),
		QueryEmbedding: queryEmbedding,
		LLMResponse:    response,
		CreatedAt:      time.Now(),
	})
}
