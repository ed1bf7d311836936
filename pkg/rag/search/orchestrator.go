package search

import (
	"context"
	"errors"
	"fmt"
	"regexp"

	"ai-knowledge-core/internal/pkg/logger"
	"ai-knowledge-core/internal/repository/contract"
	"ai-knowledge-core/pkg/embedding"

	"github.com/google/uuid"
)

type Mode string

const (
	ModeKeyword Mode = "keyword"
	ModeVector  Mode = "vector"
	ModeHybrid  Mode = "hybrid"
)

// Result is the transient per-query search result. Discarded after the
// response is built unless promoted into the response cache.
type Result struct {
	Id          uuid.UUID
	DocumentId  uuid.UUID
	Content     string
	SemanticTag string
	Similarity  float64
	RerankScore float64
	FinalScore  float64
}

// Config encapsulates search parameters
type Config struct {
	Mode           Mode
	MatchCount     int
	Threshold      float64 // hard floor on similarity, applied as a post-filter
	Source         string  // optional source filter
	KeywordWeight  float64
	SemanticWeight float64
}

// DefaultConfig returns default search configuration
func DefaultConfig() Config {
	return Config{
		Mode:           ModeHybrid,
		MatchCount:     10,
		Threshold:      0.35,
		KeywordWeight:  0.3,
		SemanticWeight: 0.7,
	}
}

// Enumerative queries ("find all X", "list every Y") favor recall, so
// keyword weight takes over.
var enumerativePattern = regexp.MustCompile(`(?i)^\s*(find|list|show|give me)\s+(all|every|each)\b`)

// Orchestrator handles keyword, vector and hybrid retrieval over the
// chunk store.
type Orchestrator struct {
	embedder *embedding.Embedder
	repo     contract.DocumentChunkRepository
	log      logger.ILogger
}

func NewOrchestrator(embedder *embedding.Embedder, repo contract.DocumentChunkRepository, log logger.ILogger) *Orchestrator {
	return &Orchestrator{
		embedder: embedder,
		repo:     repo,
		log:      log,
	}
}

// Search embeds the query as needed and retrieves candidates per config.
func (o *Orchestrator) Search(ctx context.Context, query string, config Config) ([]Result, error) {
	if config.Mode == ModeKeyword {
		return o.searchKeyword(ctx, query, config)
	}

	queryEmbedding, err := o.embedder.GetEmbedding(ctx, query, embedding.TaskQuery)
	if err != nil {
		return nil, fmt.Errorf("embedding generation failed: %w", err)
	}
	return o.SearchWithEmbedding(ctx, query, queryEmbedding, config)
}

// SearchWithEmbedding runs vector or hybrid retrieval with an already
// computed query embedding. Callers that embed the query anyway (e.g.
// for the response cache) use this to avoid a second provider call.
func (o *Orchestrator) SearchWithEmbedding(ctx context.Context, query string, queryEmbedding []float32, config Config) ([]Result, error) {
	switch config.Mode {
	case ModeKeyword:
		return o.searchKeyword(ctx, query, config)
	case ModeVector:
		return o.searchVector(ctx, queryEmbedding, config)
	default:
		return o.searchHybrid(ctx, query, queryEmbedding, config)
	}
}

func (o *Orchestrator) searchKeyword(ctx context.Context, query string, config Config) ([]Result, error) {
	chunks, err := o.repo.SearchKeyword(ctx, query, config.MatchCount, config.Source)
	if err != nil {
		return nil, err
	}

	// Membership only: keyword hits carry no similarity score and the
	// threshold gate does not apply.
	results := make([]Result, len(chunks))
	for i, c := range chunks {
		results[i] = Result{
			Id:          c.Id,
			DocumentId:  c.DocumentId,
			Content:     c.Content,
			SemanticTag: c.SemanticTag,
		}
	}
	return results, nil
}

func (o *Orchestrator) searchVector(ctx context.Context, queryEmbedding []float32, config Config) ([]Result, error) {
	// DB threshold stays 0 so the backend over-fetches; the API threshold
	// below is the final precision gate.
	scored, err := o.repo.SearchSimilarWithScore(ctx, queryEmbedding, config.MatchCount, config.Source, 0)
	if err != nil {
		return nil, err
	}
	return applyThreshold(toResults(scored), config.Threshold), nil
}

func (o *Orchestrator) searchHybrid(ctx context.Context, query string, queryEmbedding []float32, config Config) ([]Result, error) {
	keywordWeight, semanticWeight := o.resolveWeights(query, config)

	scored, err := o.repo.SearchHybrid(ctx, query, queryEmbedding, config.MatchCount, keywordWeight, semanticWeight, config.Source)
	if err != nil {
		if errors.Is(err, contract.ErrHybridSearchUnavailable) {
			o.warn("hybrid ranking function missing, falling back to vector search", nil)
			return o.searchVector(ctx, queryEmbedding, config)
		}
		return nil, err
	}
	return applyThreshold(toResults(scored), config.Threshold), nil
}

// resolveWeights applies the query-shape profile on top of configured
// weights.
func (o *Orchestrator) resolveWeights(query string, config Config) (float64, float64) {
	keywordWeight := config.KeywordWeight
	semanticWeight := config.SemanticWeight
	if keywordWeight == 0 && semanticWeight == 0 {
		keywordWeight, semanticWeight = 0.3, 0.7
	}

	if enumerativePattern.MatchString(query) {
		// Recall over precision for "find all X" shapes.
		keywordWeight, semanticWeight = semanticWeight, keywordWeight
	}
	return keywordWeight, semanticWeight
}

func toResults(scored []*contract.ScoredChunk) []Result {
	results := make([]Result, len(scored))
	for i, s := range scored {
		// ts_rank is unbounded, so a keyword-heavy hybrid blend can edge
		// past 1 even though the SQL function caps it; clamp here too so
		// downstream blending always sees [0,1].
		sim := s.Similarity
		if sim > 1 {
			sim = 1
		} else if sim < 0 {
			sim = 0
		}
		results[i] = Result{
			Id:          s.Chunk.Id,
			DocumentId:  s.Chunk.DocumentId,
			Content:     s.Chunk.Content,
			SemanticTag: s.Chunk.SemanticTag,
			Similarity:  sim,
			FinalScore:  sim,
		}
	}
	return results
}

// applyThreshold drops rows below the floor without reordering survivors;
// ties keep the backend's original order.
func applyThreshold(results []Result, threshold float64) []Result {
	if threshold <= 0 {
		return results
	}
	filtered := results[:0:0]
	for _, r := range results {
		if r.Similarity >= threshold {
			filtered = append(filtered, r)
		}
	}
	return filtered
}

// TopSimilarity reports the best retrieval similarity, used by callers to
// decide whether reranking is worth the LLM budget.
func TopSimilarity(results []Result) float64 {
	top := 0.0
	for _, r := range results {
		if r.Similarity > top {
			top = r.Similarity
		}
	}
	return top
}

func (o *Orchestrator) warn(msg string, details map[string]interface{}) {
	if o.log != nil {
		o.log.Warn("search", msg, details)
	}
}
