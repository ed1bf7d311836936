package rerank

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"ai-knowledge-core/internal/pkg/logger"
	"ai-knowledge-core/pkg/llm"
	"ai-knowledge-core/pkg/rag/search"

	"github.com/stretchr/testify/assert"
)

// judgeLLM maps content substrings to judge scores; unmapped content
// fails the call. Safe under concurrent use.
type judgeLLM struct {
	mu      sync.Mutex
	scores  map[string]string
	failAll bool
	calls   int
}

func (j *judgeLLM) Chat(ctx context.Context, history []llm.Message, options ...llm.Option) (*llm.Completion, error) {
	return j.Generate(ctx, history[len(history)-1].Content, options...)
}

func (j *judgeLLM) Generate(ctx context.Context, prompt string, options ...llm.Option) (*llm.Completion, error) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.calls++
	if j.failAll {
		return nil, errors.New("judge offline")
	}
	for needle, score := range j.scores {
		if strings.Contains(prompt, needle) {
			return &llm.Completion{Text: score}, nil
		}
	}
	return nil, errors.New("no scripted score")
}

func results(sims ...float64) []search.Result {
	out := make([]search.Result, len(sims))
	for i, sim := range sims {
		out[i] = search.Result{
			Content:    contentFor(i),
			Similarity: sim,
			FinalScore: sim,
		}
	}
	return out
}

func contentFor(i int) string {
	return "candidate-" + string(rune('A'+i))
}

func TestRerankBlendsScores(t *testing.T) {
	provider := &judgeLLM{scores: map[string]string{
		"candidate-A": "20",
		"candidate-B": "90",
	}}
	r := NewReranker(provider, logger.NewNop(), DefaultConfig())

	out := r.Rerank(context.Background(), "q", results(0.8, 0.4), 0)

	assert.Len(t, out, 2)
	// 0.4*0.4 + 0.9*0.6 = 0.70 beats 0.8*0.4 + 0.2*0.6 = 0.44
	assert.Equal(t, "candidate-B", out[0].Content)
	assert.InDelta(t, 0.70, out[0].FinalScore, 0.0001)
	assert.InDelta(t, 0.44, out[1].FinalScore, 0.0001)
	assert.InDelta(t, 0.9, out[0].RerankScore, 0.0001)
}

func TestRerankAllFailuresPassThrough(t *testing.T) {
	provider := &judgeLLM{failAll: true}
	r := NewReranker(provider, logger.NewNop(), DefaultConfig())

	out := r.Rerank(context.Background(), "q", results(0.3, 0.9, 0.6), 2)

	assert.Len(t, out, 2, "topK still applies under total degradation")
	assert.Equal(t, 0.9, out[0].Similarity)
	assert.Equal(t, 0.6, out[1].Similarity)
	for _, res := range out {
		assert.Equal(t, res.Similarity, res.FinalScore)
		assert.Equal(t, res.Similarity, res.RerankScore)
	}
}

func TestRerankPartialFailureDegradesItem(t *testing.T) {
	// Only candidate-A has a scripted score; B degrades to its similarity.
	provider := &judgeLLM{scores: map[string]string{
		"candidate-A": "100",
	}}
	r := NewReranker(provider, logger.NewNop(), DefaultConfig())

	out := r.Rerank(context.Background(), "q", results(0.5, 0.9), 0)

	assert.Len(t, out, 2)
	// A: 0.5*0.4 + 1.0*0.6 = 0.80; B degraded: 0.9
	assert.Equal(t, "candidate-B", out[0].Content)
	assert.Equal(t, 0.9, out[0].FinalScore)
	assert.InDelta(t, 0.80, out[1].FinalScore, 0.0001)
}

func TestRerankEmptyInput(t *testing.T) {
	r := NewReranker(&judgeLLM{}, logger.NewNop(), DefaultConfig())
	assert.Nil(t, r.Rerank(context.Background(), "q", nil, 5))
}

func TestShouldRerank(t *testing.T) {
	r := NewReranker(&judgeLLM{}, logger.NewNop(), DefaultConfig())

	assert.False(t, r.ShouldRerank(nil), "nothing to rerank")
	assert.True(t, r.ShouldRerank(results(0.3, 0.45)), "unconfident retrieval")
	assert.False(t, r.ShouldRerank(results(0.3, 0.8)), "confident retrieval skips the judge")
}

func TestFastRerank(t *testing.T) {
	provider := &judgeLLM{scores: map[string]string{
		"Rank the": "2, 0, 1",
	}}
	r := NewReranker(provider, logger.NewNop(), DefaultConfig())

	out := r.FastRerank(context.Background(), "q", results(0.5, 0.5, 0.5), 0)

	assert.Equal(t, 1, provider.calls, "one call regardless of candidate count")
	assert.Len(t, out, 3)
	// rank scores: idx2 -> 1.0, idx0 -> 2/3, idx1 -> 1/3
	assert.Equal(t, contentFor(2), out[0].Content)
	assert.Equal(t, contentFor(0), out[1].Content)
	assert.Equal(t, contentFor(1), out[2].Content)
}

func TestFastRerankFailurePassesThrough(t *testing.T) {
	provider := &judgeLLM{failAll: true}
	r := NewReranker(provider, logger.NewNop(), DefaultConfig())

	out := r.FastRerank(context.Background(), "q", results(0.4, 0.8), 1)

	assert.Len(t, out, 1)
	assert.Equal(t, 0.8, out[0].FinalScore)
}

func TestParseScore(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		want    float64
		wantErr bool
	}{
		{name: "bare number", raw: "85", want: 85},
		{name: "number in prose", raw: "Score: 42 out of 100", want: 42},
		{name: "clamped above", raw: "150", want: 100},
		{name: "no number", raw: "highly relevant", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseScore(tt.raw)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			assert.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseRanking(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		n    int
		want []int
	}{
		{name: "clean", raw: "2, 0, 1", n: 3, want: []int{2, 0, 1}},
		{name: "duplicates dropped", raw: "1, 1, 0", n: 2, want: []int{1, 0}},
		{name: "out of range dropped", raw: "0, 7, 1", n: 2, want: []int{0, 1}},
		{name: "garbage", raw: "the best is the second one", n: 3, want: nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, parseRanking(tt.raw, tt.n))
		})
	}
}
