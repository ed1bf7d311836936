package rerank

import (
	"context"
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"sync"

	"ai-knowledge-core/internal/pkg/logger"
	"ai-knowledge-core/pkg/llm"
	"ai-knowledge-core/pkg/rag/search"
)

type Config struct {
	WeightEmbedding  float64 // share of the original similarity in the final score
	WeightLLM        float64 // share of the LLM judge score
	BatchSize        int     // results scored per wave
	MaxInFlight      int     // concurrent judge calls, respects provider rate limits
	QualityThreshold float64 // callers skip reranking when top similarity beats this
}

func DefaultConfig() Config {
	return Config{
		WeightEmbedding:  0.4,
		WeightLLM:        0.6,
		BatchSize:        5,
		MaxInFlight:      4,
		QualityThreshold: 0.5,
	}
}

// Reranker re-scores a retrieved candidate set with an LLM relevance
// judge. Both strategies degrade to pass-through: a rerank call never
// fails, it only gets less precise.
type Reranker struct {
	llm    llm.LLMProvider
	log    logger.ILogger
	config Config
}

func NewReranker(provider llm.LLMProvider, log logger.ILogger, config Config) *Reranker {
	if config.BatchSize <= 0 {
		config.BatchSize = 5
	}
	if config.MaxInFlight <= 0 {
		config.MaxInFlight = 4
	}
	return &Reranker{
		llm:    provider,
		log:    log,
		config: config,
	}
}

// ShouldRerank is the conditional policy: spend LLM budget only when
// vector search came back unconfident.
func (r *Reranker) ShouldRerank(results []search.Result) bool {
	if len(results) == 0 {
		return false
	}
	return search.TopSimilarity(results) < r.config.QualityThreshold
}

// Rerank scores every candidate independently, in waves of BatchSize
// gated by MaxInFlight. Individual failures degrade that item to its
// original similarity; ordering is deterministic given identical judge
// outputs.
func (r *Reranker) Rerank(ctx context.Context, query string, results []search.Result, topK int) []search.Result {
	if len(results) == 0 {
		return nil
	}

	reranked := make([]search.Result, len(results))
	copy(reranked, results)

	sem := make(chan struct{}, r.config.MaxInFlight)
	for start := 0; start < len(reranked); start += r.config.BatchSize {
		end := start + r.config.BatchSize
		if end > len(reranked) {
			end = len(reranked)
		}

		var wg sync.WaitGroup
		for i := start; i < end; i++ {
			wg.Add(1)
			sem <- struct{}{}
			go func(i int) {
				defer wg.Done()
				defer func() { <-sem }()
				reranked[i] = r.scoreOne(ctx, query, reranked[i])
			}(i)
		}
		wg.Wait()
	}

	sort.SliceStable(reranked, func(a, b int) bool {
		return reranked[a].FinalScore > reranked[b].FinalScore
	})
	return truncate(reranked, topK)
}

func (r *Reranker) scoreOne(ctx context.Context, query string, result search.Result) search.Result {
	completion, err := r.llm.Generate(ctx, buildJudgePrompt(query, result.Content),
		llm.WithTemperature(0),
		llm.WithMaxTokens(8),
	)
	if err != nil {
		r.warn("judge call failed, keeping similarity for item", map[string]interface{}{"error": err.Error()})
		return degrade(result)
	}

	score, err := parseScore(completion.Text)
	if err != nil {
		r.warn("unparseable judge score, keeping similarity for item", map[string]interface{}{"raw": completion.Text})
		return degrade(result)
	}

	result.RerankScore = score / 100
	result.FinalScore = result.Similarity*r.config.WeightEmbedding + result.RerankScore*r.config.WeightLLM
	return result
}

// FastRerank asks for a single comma-separated ranking of candidate
// indices and derives scores from rank position. One call regardless of
// candidate count; total failure returns the original topK unranked.
func (r *Reranker) FastRerank(ctx context.Context, query string, results []search.Result, topK int) []search.Result {
	if len(results) == 0 {
		return nil
	}

	completion, err := r.llm.Generate(ctx, buildRankingPrompt(query, results),
		llm.WithTemperature(0),
		llm.WithMaxTokens(64),
	)
	if err != nil {
		r.warn("fast rerank call failed, passing through", map[string]interface{}{"error": err.Error()})
		return truncate(degradeAll(results), topK)
	}

	ranking := parseRanking(completion.Text, len(results))
	if len(ranking) == 0 {
		r.warn("unparseable fast rerank output, passing through", map[string]interface{}{"raw": completion.Text})
		return truncate(degradeAll(results), topK)
	}

	n := float64(len(results))
	reranked := make([]search.Result, len(results))
	copy(reranked, results)

	seen := make(map[int]bool, len(ranking))
	for rank, idx := range ranking {
		seen[idx] = true
		reranked[idx].RerankScore = 1 - float64(rank)/n
		reranked[idx].FinalScore = reranked[idx].Similarity*r.config.WeightEmbedding + reranked[idx].RerankScore*r.config.WeightLLM
	}
	// Candidates the model never mentioned degrade individually.
	for i := range reranked {
		if !seen[i] {
			reranked[i] = degrade(reranked[i])
		}
	}

	sort.SliceStable(reranked, func(a, b int) bool {
		return reranked[a].FinalScore > reranked[b].FinalScore
	})
	return truncate(reranked, topK)
}

func degrade(result search.Result) search.Result {
	result.RerankScore = result.Similarity
	result.FinalScore = result.Similarity
	return result
}

func degradeAll(results []search.Result) []search.Result {
	out := make([]search.Result, len(results))
	for i, res := range results {
		out[i] = degrade(res)
	}
	return out
}

func truncate(results []search.Result, topK int) []search.Result {
	if topK > 0 && len(results) > topK {
		return results[:topK]
	}
	return results
}

var numberPattern = regexp.MustCompile(`\d+`)

func parseScore(raw string) (float64, error) {
	match := numberPattern.FindString(raw)
	if match == "" {
		return 0, fmt.Errorf("no number in judge output %q", raw)
	}
	score, err := strconv.ParseFloat(match, 64)
	if err != nil {
		return 0, err
	}
	if score < 0 {
		score = 0
	}
	if score > 100 {
		score = 100
	}
	return score, nil
}

// parseRanking extracts a comma-separated index ranking, discarding
// duplicates and indices outside [0, n).
func parseRanking(raw string, n int) []int {
	var ranking []int
	seen := make(map[int]bool)
	for _, field := range strings.Split(raw, ",") {
		idx, err := strconv.Atoi(strings.TrimSpace(field))
		if err != nil || idx < 0 || idx >= n || seen[idx] {
			continue
		}
		seen[idx] = true
		ranking = append(ranking, idx)
	}
	return ranking
}

func buildJudgePrompt(query, content string) string {
	var prompt strings.Builder
	prompt.WriteString("Rate how relevant the document is to the query on a scale of 0 to 100.\n")
	prompt.WriteString("Respond with ONLY the number, nothing else.\n\n")
	prompt.WriteString("Query: ")
	prompt.WriteString(query)
	prompt.WriteString("\n\nDocument:\n")
	prompt.WriteString(content)
	return prompt.String()
}

func buildRankingPrompt(query string, results []search.Result) string {
	var prompt strings.Builder
	prompt.WriteString("Rank the documents below by relevance to the query, most relevant first.\n")
	prompt.WriteString("Respond with ONLY a comma-separated list of document indices, nothing else.\n\n")
	prompt.WriteString("Query: ")
	prompt.WriteString(query)
	prompt.WriteString("\n\n")
	for i, res := range results {
		fmt.Fprintf(&prompt, "[%d] %s\n\n", i, res.Content)
	}
	return prompt.String()
}

func (r *Reranker) warn(msg string, details map[string]interface{}) {
	if r.log != nil {
		r.log.Warn("rerank", msg, details)
	}
}
