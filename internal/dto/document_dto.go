package dto

import (
	"time"

	"github.com/google/uuid"
)

type CreateDocumentRequest struct {
	Title   string `json:"title" validate:"required,min=1,max=512"`
	Source  string `json:"source" validate:"omitempty,max=256"`
	Content string `json:"content" validate:"required,min=1"`
}

func (r *CreateDocumentRequest) Validate() error {
	return validate.Struct(r)
}

type CreateDocumentResponse struct {
	Id uuid.UUID `json:"id"`
}

type UpdateDocumentRequest struct {
	Title   string `json:"title" validate:"required,min=1,max=512"`
	Source  string `json:"source" validate:"omitempty,max=256"`
	Content string `json:"content" validate:"required,min=1"`
}

func (r *UpdateDocumentRequest) Validate() error {
	return validate.Struct(r)
}

type ShowDocumentResponse struct {
	Id         uuid.UUID  `json:"id"`
	Title      string     `json:"title"`
	Source     string     `json:"source"`
	Content    string     `json:"content"`
	ChunkCount int64      `json:"chunk_count"`
	CreatedAt  time.Time  `json:"created_at"`
	UpdatedAt  *time.Time `json:"updated_at"`
}

type ListDocumentItem struct {
	Id        uuid.UUID `json:"id"`
	Title     string    `json:"title"`
	Source    string    `json:"source"`
	CreatedAt time.Time `json:"created_at"`
}
