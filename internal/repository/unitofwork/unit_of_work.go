package unitofwork

import (
	"context"

	"ai-knowledge-core/internal/repository/contract"
)

type UnitOfWork interface {
	Begin(ctx context.Context) error
	Commit() error
	Rollback() error

	DocumentRepository() contract.DocumentRepository
	DocumentChunkRepository() contract.DocumentChunkRepository
	EmbeddingCacheRepository() contract.EmbeddingCacheRepository
	ResponseCacheRepository() contract.ResponseCacheRepository
}
