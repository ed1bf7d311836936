package rag

import (
	"context"
	"encoding/json"

	"ai-knowledge-core/internal/pkg/logger"
	"ai-knowledge-core/pkg/embedding"
	"ai-knowledge-core/pkg/llm"
	"ai-knowledge-core/pkg/rag/prompt"
	"ai-knowledge-core/pkg/rag/rerank"
	"ai-knowledge-core/pkg/rag/response"
	"ai-knowledge-core/pkg/rag/search"
)

type PipelineConfig struct {
	Search         search.Config
	RerankTopK     int
	UseFastRerank  bool
	CacheThreshold float64 // response cache similarity gate
}

func DefaultPipelineConfig() PipelineConfig {
	return PipelineConfig{
		Search:         search.DefaultConfig(),
		RerankTopK:     5,
		CacheThreshold: response.DefaultThreshold,
	}
}

// Answer is the pipeline output.
type Answer struct {
	Reply     string
	Results   []search.Result
	FromCache bool
}

// cachedAnswer is the JSON shape stored in the response cache.
type cachedAnswer struct {
	Reply string `json:"reply"`
}

// Pipeline wires the query path: response-cache check, retrieval,
// conditional rerank, answer generation, response-cache store. Degraded
// stages (fallback search, pass-through rerank) are invisible to the
// caller; only provider outages surface as errors.
type Pipeline struct {
	embedder  *embedding.Embedder
	searcher  *search.Orchestrator
	reranker  *rerank.Reranker
	respCache *response.Cache
	llm       llm.LLMProvider
	log       logger.ILogger
	config    PipelineConfig
}

func NewPipeline(
	embedder *embedding.Embedder,
	searcher *search.Orchestrator,
	reranker *rerank.Reranker,
	respCache *response.Cache,
	llmProvider llm.LLMProvider,
	log logger.ILogger,
	config PipelineConfig,
) *Pipeline {
	return &Pipeline{
		embedder:  embedder,
		searcher:  searcher,
		reranker:  reranker,
		respCache: respCache,
		llm:       llmProvider,
		log:       log,
		config:    config,
	}
}

func (p *Pipeline) Answer(ctx context.Context, query string) (*Answer, error) {
	queryEmbedding, err := p.embedder.GetEmbedding(ctx, query, embedding.TaskQuery)
	if err != nil {
		return nil, err
	}

	// 1. Response cache: a semantic near-match short-circuits everything.
	if p.respCache != nil {
		entry, err := p.respCache.Find(ctx, queryEmbedding, p.config.CacheThreshold)
		if err != nil {
			p.warn("response cache lookup failed", map[string]interface{}{"error": err.Error()})
		} else if entry != nil {
			var cached cachedAnswer
			if err := json.Unmarshal(entry.LLMResponse, &cached); err == nil {
				return &Answer{Reply: cached.Reply, FromCache: true}, nil
			}
			p.warn("discarding undecodable cached response", nil)
		}
	}

	// 2. Retrieval.
	results, err := p.searcher.SearchWithEmbedding(ctx, query, queryEmbedding, p.config.Search)
	if err != nil {
		return nil, err
	}

	// 3. Conditional rerank: only when retrieval is unconfident.
	if p.reranker != nil && p.reranker.ShouldRerank(results) {
		if p.config.UseFastRerank {
			results = p.reranker.FastRerank(ctx, query, results, p.config.RerankTopK)
		} else {
			results = p.reranker.Rerank(ctx, query, results, p.config.RerankTopK)
		}
	}

	// 4. Answer generation.
	completion, err := p.llm.Generate(ctx, prompt.NewAnswerBuilder(query, results).Build())
	if err != nil {
		return nil, err
	}

	// 5. Store for semantically repeated queries. Explicit, best effort.
	if p.respCache != nil {
		payload, err := json.Marshal(cachedAnswer{Reply: completion.Text})
		if err == nil {
			if err := p.respCache.Insert(ctx, queryEmbedding, payload); err != nil {
				p.warn("response cache insert failed", map[string]interface{}{"error": err.Error()})
			}
		}
	}

	return &Answer{
		Reply:   completion.Text,
		Results: results,
	}, nil
}

func (p *Pipeline) warn(msg string, details map[string]interface{}) {
	if p.log != nil {
		p.log.Warn("pipeline", msg, details)
	}
}
