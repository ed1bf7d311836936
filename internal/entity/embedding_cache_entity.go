package entity

import "time"

// EmbeddingCacheEntry is the exact-match embedding cache row, keyed by
// (TextHash, ModelName). Eviction is an external concern; the core only
// upserts and bumps LastAccessed.
type EmbeddingCacheEntry struct {
	TextHash     string
	ModelName    string
	OriginalText string
	Embedding    []float32
	LastAccessed time.Time
	CreatedAt    time.Time
}
