package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/pgvector/pgvector-go"
	"gorm.io/gorm"
)

type DocumentChunk struct {
	Id          uuid.UUID       `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	DocumentId  uuid.UUID       `gorm:"type:uuid;not null;index;uniqueIndex:idx_chunk_doc_checksum"`
	Content     string          `gorm:"type:text"`
	SemanticTag string          `gorm:"type:varchar(32);default:'other'"`
	Sentiment   string          `gorm:"type:varchar(16);default:'neutral'"`
	ChunkIndex  int             `gorm:"default:0"` // 0-based, contiguous within a document
	Checksum    string          `gorm:"type:varchar(64);not null;uniqueIndex:idx_chunk_doc_checksum"`
	Embedding   pgvector.Vector `gorm:"type:vector(1536)"`
	CreatedAt   time.Time       `gorm:"autoCreateTime"`
	UpdatedAt   time.Time       `gorm:"autoUpdateTime"`
	DeletedAt   gorm.DeletedAt  `gorm:"index"`
}

func (DocumentChunk) TableName() string {
	return "document_chunks"
}
