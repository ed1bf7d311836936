package entity

import (
	"time"

	"github.com/google/uuid"
)

// ResponseCacheEntry caches a final LLM answer keyed by the query
// embedding. Lookup is nearest-neighbor under a similarity threshold,
// not exact match.
type ResponseCacheEntry struct {
	Id             uuid.UUID
	QueryEmbedding []float32
	LLMResponse    []byte
	CreatedAt      time.Time
}
