package service

import (
	"context"

	"ai-knowledge-core/internal/dto"
	"ai-knowledge-core/pkg/rag"
	"ai-knowledge-core/pkg/rag/search"
)

type IQueryService interface {
	Search(ctx context.Context, req *dto.SearchRequest) ([]dto.SearchResultItem, error)
	Answer(ctx context.Context, req *dto.SearchRequest) (*dto.AnswerResponse, error)
}

type queryService struct {
	orchestrator *search.Orchestrator
	pipeline     *rag.Pipeline
}

func NewQueryService(orchestrator *search.Orchestrator, pipeline *rag.Pipeline) IQueryService {
	return &queryService{
		orchestrator: orchestrator,
		pipeline:     pipeline,
	}
}

func (s *queryService) Search(ctx context.Context, req *dto.SearchRequest) ([]dto.SearchResultItem, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	results, err := s.orchestrator.Search(ctx, req.Query, searchConfigFromRequest(req))
	if err != nil {
		return nil, err
	}

	return toResultItems(results), nil
}

func (s *queryService) Answer(ctx context.Context, req *dto.SearchRequest) (*dto.AnswerResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	answer, err := s.pipeline.Answer(ctx, req.Query)
	if err != nil {
		return nil, err
	}

	return &dto.AnswerResponse{
		Reply:     answer.Reply,
		FromCache: answer.FromCache,
		Results:   toResultItems(answer.Results),
	}, nil
}

func searchConfigFromRequest(req *dto.SearchRequest) search.Config {
	config := search.DefaultConfig()
	if req.Mode != "" {
		config.Mode = search.Mode(req.Mode)
	}
	if req.MatchCount > 0 {
		config.MatchCount = req.MatchCount
	}
	if req.Threshold > 0 {
		config.Threshold = req.Threshold
	}
	config.Source = req.Source
	return config
}

func toResultItems(results []search.Result) []dto.SearchResultItem {
	items := make([]dto.SearchResultItem, 0, len(results))
	for _, r := range results {
		items = append(items, dto.SearchResultItem{
			Id:          r.Id.String(),
			DocumentId:  r.DocumentId.String(),
			Content:     r.Content,
			SemanticTag: r.SemanticTag,
			Similarity:  r.Similarity,
			RerankScore: r.RerankScore,
			FinalScore:  r.FinalScore,
		})
	}
	return items
}
