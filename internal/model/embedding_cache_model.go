package model

import (
	"time"

	"github.com/pgvector/pgvector-go"
)

type EmbeddingCacheEntry struct {
	TextHash     string          `gorm:"type:varchar(64);primaryKey"`
	ModelName    string          `gorm:"type:varchar(128);primaryKey"`
	OriginalText string          `gorm:"type:text"`
	Embedding    pgvector.Vector `gorm:"type:vector(1536)"`
	LastAccessed time.Time       `gorm:"index"`
	CreatedAt    time.Time       `gorm:"autoCreateTime"`
}

func (EmbeddingCacheEntry) TableName() string {
	return "embedding_cache"
}
