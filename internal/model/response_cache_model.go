package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/pgvector/pgvector-go"
	"gorm.io/datatypes"
)

type ResponseCacheEntry struct {
	Id             uuid.UUID       `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	QueryEmbedding pgvector.Vector `gorm:"type:vector(1536)"`
	LLMResponse    datatypes.JSON  `gorm:"type:jsonb"`
	CreatedAt      time.Time       `gorm:"autoCreateTime"`
}

func (ResponseCacheEntry) TableName() string {
	return "response_cache"
}
