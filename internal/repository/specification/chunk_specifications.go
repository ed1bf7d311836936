package specification

import "gorm.io/gorm"

// ByDocumentID filters chunks by their owning document
type ByDocumentID struct {
	DocumentId interface{}
}

func (s ByDocumentID) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("document_id = ?", s.DocumentId)
}

// ContentKeyword matches chunk content by substring (case-insensitive).
// Using ILIKE for Postgres.
type ContentKeyword struct {
	Query string
}

func (s ContentKeyword) Apply(db *gorm.DB) *gorm.DB {
	pattern := "%" + s.Query + "%"
	return db.Where("content ILIKE ?", pattern)
}

// BySource filters chunks by the source of their owning document.
// Requires a JOIN with documents; added here so callers don't have to
// remember it.
type BySource struct {
	Source string
}

func (s BySource) Apply(db *gorm.DB) *gorm.DB {
	return db.Joins("JOIN documents ON documents.id = document_chunks.document_id").
		Where("documents.source = ?", s.Source).
		Where("documents.deleted_at IS NULL")
}

// OrderByChunkIndex orders chunks by their position within the document
type OrderByChunkIndex struct{}

func (s OrderByChunkIndex) Apply(db *gorm.DB) *gorm.DB {
	return db.Order("chunk_index ASC")
}
