package dto

import (
	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

type SearchRequest struct {
	Query      string  `json:"query" validate:"required,min=1"`
	Mode       string  `json:"mode" validate:"omitempty,oneof=keyword vector hybrid"`
	MatchCount int     `json:"match_count" validate:"omitempty,gte=1,lte=100"`
	Threshold  float64 `json:"threshold" validate:"gte=0,lte=1"`
	Source     string  `json:"source"`
}

func (r *SearchRequest) Validate() error {
	return validate.Struct(r)
}

type SearchResultItem struct {
	Id          string  `json:"id"`
	DocumentId  string  `json:"document_id"`
	Content     string  `json:"content"`
	SemanticTag string  `json:"semantic_tag"`
	Similarity  float64 `json:"similarity"`
	RerankScore float64 `json:"rerank_score,omitempty"`
	FinalScore  float64 `json:"final_score"`
}

type AnswerResponse struct {
	Reply     string             `json:"reply"`
	FromCache bool               `json:"from_cache"`
	Results   []SearchResultItem `json:"results,omitempty"`
}
