package dto

import "github.com/google/uuid"

// PublishIngestDocumentMessage is the payload on the ingestion topic.
// Carries only the id; the consumer re-reads the document so stale
// payloads never ingest stale content.
type PublishIngestDocumentMessage struct {
	DocumentId uuid.UUID `json:"document_id"`
}
