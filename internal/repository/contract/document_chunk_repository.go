package contract

import (
	"context"
	"errors"

	"ai-knowledge-core/internal/entity"
	"ai-knowledge-core/internal/repository/specification"

	"github.com/google/uuid"
)

// ErrHybridSearchUnavailable is returned when the combined keyword+vector
// ranking function does not exist in the backing store (SQLSTATE 42883).
// Callers fall back to vector-only search.
var ErrHybridSearchUnavailable = errors.New("hybrid search function unavailable in store")

// ScoredChunk wraps a DocumentChunk with its similarity score
type ScoredChunk struct {
	Chunk      *entity.DocumentChunk
	Similarity float64 // 0.0 to 1.0 (1.0 = identical)
}

type DocumentChunkRepository interface {
	Create(ctx context.Context, chunk *entity.DocumentChunk) error
	CreateBulk(ctx context.Context, chunks []*entity.DocumentChunk) error
	Delete(ctx context.Context, id uuid.UUID) error
	// DeleteByDocumentId permanently removes all chunks of a document so
	// a re-chunk can reinsert rows with unchanged checksums.
	DeleteByDocumentId(ctx context.Context, documentId uuid.UUID) error
	FindOne(ctx context.Context, specs ...specification.Specification) (*entity.DocumentChunk, error)
	FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.DocumentChunk, error)
	Count(ctx context.Context, specs ...specification.Specification) (int64, error)

	// SearchKeyword runs a substring match against chunk content, newest
	// first. Membership only, no similarity score.
	SearchKeyword(ctx context.Context, query string, limit int, source string) ([]*entity.DocumentChunk, error)

	// SearchSimilarWithScore returns chunks with cosine similarity scores
	// ordered descending, filtered by threshold in the store.
	SearchSimilarWithScore(ctx context.Context, embedding []float32, limit int, source string, threshold float64) ([]*ScoredChunk, error)

	// SearchHybrid calls the combined keyword+vector ranking function.
	// Returns ErrHybridSearchUnavailable when the function is absent.
	SearchHybrid(ctx context.Context, query string, embedding []float32, limit int, keywordWeight, semanticWeight float64, source string) ([]*ScoredChunk, error)
}
