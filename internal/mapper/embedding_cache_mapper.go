package mapper

import (
	"ai-knowledge-core/internal/entity"
	"ai-knowledge-core/internal/model"

	"github.com/pgvector/pgvector-go"
)

type EmbeddingCacheMapper struct{}

func NewEmbeddingCacheMapper() *EmbeddingCacheMapper {
	return &EmbeddingCacheMapper{}
}

func (m *EmbeddingCacheMapper) ToEntity(e *model.EmbeddingCacheEntry) *entity.EmbeddingCacheEntry {
	if e == nil {
		return nil
	}
	return &entity.EmbeddingCacheEntry{
		TextHash:     e.TextHash,
		ModelName:    e.ModelName,
		OriginalText: e.OriginalText,
		Embedding:    e.Embedding.Slice(),
		LastAccessed: e.LastAccessed,
		CreatedAt:    e.CreatedAt,
	}
}

func (m *EmbeddingCacheMapper) ToModel(e *entity.EmbeddingCacheEntry) *model.EmbeddingCacheEntry {
	if e == nil {
		return nil
	}
	return &model.EmbeddingCacheEntry{
		TextHash:     e.TextHash,
		ModelName:    e.ModelName,
		OriginalText: e.OriginalText,
		Embedding:    pgvector.NewVector(e.Embedding),
		LastAccessed: e.LastAccessed,
		CreatedAt:    e.CreatedAt,
	}
}
