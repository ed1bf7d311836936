package memory

import (
	"context"
	"math"
	"sync"

	"ai-knowledge-core/internal/entity"
	"ai-knowledge-core/internal/repository/contract"
)

// ResponseCacheRepository is an in-memory similarity-keyed response cache.
// Mirrors the pgvector-backed implementation closely enough for tests and
// single-process deployments.
type ResponseCacheRepository struct {
	mu      sync.RWMutex
	entries []*entity.ResponseCacheEntry
}

func NewResponseCacheRepository() *ResponseCacheRepository {
	return &ResponseCacheRepository{}
}

var _ contract.ResponseCacheRepository = (*ResponseCacheRepository)(nil)

func (r *ResponseCacheRepository) FindNearest(ctx context.Context, embedding []float32) (*contract.ScoredResponse, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var best *contract.ScoredResponse
	for _, e := range r.entries {
		sim := cosineSimilarity(embedding, e.QueryEmbedding)
		if best == nil || sim > best.Similarity {
			best = &contract.ScoredResponse{Entry: e, Similarity: sim}
		}
	}
	return best, nil
}

func (r *ResponseCacheRepository) Insert(ctx context.Context, entry *entity.ResponseCacheEntry) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries = append(r.entries, entry)
	return nil
}

func cosineSimilarity(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot, magA, magB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		magA += float64(a[i]) * float64(a[i])
		magB += float64(b[i]) * float64(b[i])
	}
	if magA == 0 || magB == 0 {
		return 0
	}
	return dot / (math.Sqrt(magA) * math.Sqrt(magB))
}
