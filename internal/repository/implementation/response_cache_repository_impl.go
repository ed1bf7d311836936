package implementation

import (
	"context"

	"ai-knowledge-core/internal/entity"
	"ai-knowledge-core/internal/mapper"
	"ai-knowledge-core/internal/model"
	"ai-knowledge-core/internal/repository/contract"

	"github.com/pgvector/pgvector-go"
	"gorm.io/gorm"
)

type ResponseCacheRepositoryImpl struct {
	db     *gorm.DB
	mapper *mapper.ResponseCacheMapper
}

func NewResponseCacheRepository(db *gorm.DB) contract.ResponseCacheRepository {
	return &ResponseCacheRepositoryImpl{
		db:     db,
		mapper: mapper.NewResponseCacheMapper(),
	}
}

func (r *ResponseCacheRepositoryImpl) FindNearest(ctx context.Context, embedding []float32) (*contract.ScoredResponse, error) {
	type result struct {
		model.ResponseCacheEntry
		Similarity float64
	}
	var results []result

	queryVector := pgvector.NewVector(embedding)

	err := r.db.WithContext(ctx).
		Table("response_cache").
		Select("response_cache.*, 1 - (query_embedding <=> ?) as similarity", queryVector).
		Order("similarity DESC").
		Limit(1).
		Scan(&results).Error
	if err != nil {
		return nil, err
	}
	if len(results) == 0 {
		return nil, nil
	}

	return &contract.ScoredResponse{
		Entry:      r.mapper.ToEntity(&results[0].ResponseCacheEntry),
		Similarity: results[0].Similarity,
	}, nil
}

func (r *ResponseCacheRepositoryImpl) Insert(ctx context.Context, entry *entity.ResponseCacheEntry) error {
	m := r.mapper.ToModel(entry)
	if err := r.db.WithContext(ctx).Create(m).Error; err != nil {
		return err
	}
	*entry = *r.mapper.ToEntity(m)
	return nil
}
