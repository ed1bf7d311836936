package mapper

import (
	"ai-knowledge-core/internal/entity"
	"ai-knowledge-core/internal/model"

	"github.com/pgvector/pgvector-go"
	"gorm.io/datatypes"
)

type ResponseCacheMapper struct{}

func NewResponseCacheMapper() *ResponseCacheMapper {
	return &ResponseCacheMapper{}
}

func (m *ResponseCacheMapper) ToEntity(e *model.ResponseCacheEntry) *entity.ResponseCacheEntry {
	if e == nil {
		return nil
	}
	return &entity.ResponseCacheEntry{
		Id:             e.Id,
		QueryEmbedding: e.QueryEmbedding.Slice(),
		LLMResponse:    []byte(e.LLMResponse),
		CreatedAt:      e.CreatedAt,
	}
}

func (m *ResponseCacheMapper) ToModel(e *entity.ResponseCacheEntry) *model.ResponseCacheEntry {
	if e == nil {
		return nil
	}
	return &model.ResponseCacheEntry{
		Id:             e.Id,
		QueryEmbedding: pgvector.NewVector(e.QueryEmbedding),
		LLMResponse:    datatypes.JSON(e.LLMResponse),
		CreatedAt:      e.CreatedAt,
	}
}
