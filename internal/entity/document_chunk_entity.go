package entity

import (
	"time"

	"github.com/google/uuid"
)

// Semantic tags assigned by the adaptive chunker. Unknown values coming
// back from the model normalize to TagOther.
const (
	TagKeyIdea  = "key_idea"
	TagEvidence = "evidence"
	TagEvent    = "event"
	TagDetail   = "detail"
	TagQuestion = "question"
	TagSummary  = "summary"
	TagOther    = "other"
)

const (
	SentimentPositive = "positive"
	SentimentNegative = "negative"
	SentimentNeutral  = "neutral"
)

type DocumentChunk struct {
	Id          uuid.UUID
	DocumentId  uuid.UUID
	Content     string
	SemanticTag string
	Sentiment   string
	ChunkIndex  int
	Checksum    string
	Embedding   []float32
	CreatedAt   time.Time
	UpdatedAt   *time.Time
	DeletedAt   *time.Time
	IsDeleted   bool
}

// NormalizeTag maps arbitrary LLM output onto the known tag set.
func NormalizeTag(tag string) string {
	switch tag {
	case TagKeyIdea, TagEvidence, TagEvent, TagDetail, TagQuestion, TagSummary:
		return tag
	default:
		return TagOther
	}
}

// NormalizeSentiment maps arbitrary LLM output onto the known sentiment set.
func NormalizeSentiment(s string) string {
	switch s {
	case SentimentPositive, SentimentNegative:
		return s
	default:
		return SentimentNeutral
	}
}
