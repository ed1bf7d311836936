package implementation

import (
	"context"
	"errors"
	"time"

	"ai-knowledge-core/internal/entity"
	"ai-knowledge-core/internal/mapper"
	"ai-knowledge-core/internal/model"
	"ai-knowledge-core/internal/repository/contract"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type EmbeddingCacheRepositoryImpl struct {
	db     *gorm.DB
	mapper *mapper.EmbeddingCacheMapper
}

func NewEmbeddingCacheRepository(db *gorm.DB) contract.EmbeddingCacheRepository {
	return &EmbeddingCacheRepositoryImpl{
		db:     db,
		mapper: mapper.NewEmbeddingCacheMapper(),
	}
}

func (r *EmbeddingCacheRepositoryImpl) Find(ctx context.Context, textHash, modelName string) (*entity.EmbeddingCacheEntry, error) {
	var m model.EmbeddingCacheEntry
	err := r.db.WithContext(ctx).
		Where("text_hash = ? AND model_name = ?", textHash, modelName).
		First(&m).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return r.mapper.ToEntity(&m), nil
}

func (r *EmbeddingCacheRepositoryImpl) Upsert(ctx context.Context, entry *entity.EmbeddingCacheEntry) error {
	m := r.mapper.ToModel(entry)
	if m.LastAccessed.IsZero() {
		m.LastAccessed = time.Now()
	}
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "text_hash"}, {Name: "model_name"}},
			DoUpdates: clause.AssignmentColumns([]string{"original_text", "embedding", "last_accessed"}),
		}).
		Create(m).Error
}

func (r *EmbeddingCacheRepositoryImpl) Touch(ctx context.Context, textHash, modelName string) error {
	return r.db.WithContext(ctx).
		Model(&model.EmbeddingCacheEntry{}).
		Where("text_hash = ? AND model_name = ?", textHash, modelName).
		UpdateColumn("last_accessed", time.Now()).Error
}
