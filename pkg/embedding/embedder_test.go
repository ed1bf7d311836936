package embedding

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"ai-knowledge-core/internal/pkg/logger"
	"ai-knowledge-core/internal/repository/memory"

	"github.com/stretchr/testify/assert"
)

// fakeProvider returns deterministic vectors derived from the text length
// and records every batch it receives.
type fakeProvider struct {
	batches   [][]string
	callCount int
	failWith  error
	failTimes int

	// rejectAbove makes the provider fail with ErrContextLengthExceeded
	// for any batch whose total chars exceed the limit. 0 disables it.
	rejectAbove int
}

func (f *fakeProvider) Name() string { return "fake-model" }

func (f *fakeProvider) Generate(ctx context.Context, text string, taskType string) ([]float32, error) {
	vecs, err := f.GenerateBatch(ctx, []string{text}, taskType)
	if err != nil {
		return nil, err
	}
	return vecs[0], nil
}

func (f *fakeProvider) GenerateBatch(ctx context.Context, texts []string, taskType string) ([][]float32, error) {
	f.callCount++
	f.batches = append(f.batches, append([]string(nil), texts...))

	if f.failTimes > 0 && f.failWith != nil {
		f.failTimes--
		return nil, f.failWith
	}

	if f.rejectAbove > 0 {
		total := 0
		for _, t := range texts {
			total += len(t)
		}
		if total > f.rejectAbove {
			return nil, fmt.Errorf("%w: batch too large", ErrContextLengthExceeded)
		}
	}

	out := make([][]float32, len(texts))
	for i, t := range texts {
		out[i] = []float32{float32(len(t)), 1}
	}
	return out, nil
}

func newTestEmbedder(provider EmbeddingProvider, config EmbedderConfig) *Embedder {
	store := memory.NewEmbeddingCacheRepository(0, 0)
	return NewEmbedder(provider, store, logger.NewNop(), config)
}

func TestGetEmbeddingsPreservesOrder(t *testing.T) {
	provider := &fakeProvider{}
	e := newTestEmbedder(provider, DefaultEmbedderConfig())

	texts := []string{"a", "bb", "ccc", "dddd"}
	vecs, err := e.GetEmbeddings(context.Background(), texts, TaskDocument)

	assert.NoError(t, err)
	assert.Len(t, vecs, len(texts))
	for i, text := range texts {
		assert.Equal(t, float32(len(text)), vecs[i][0], "vector %d must match input %d", i, i)
	}
}

func TestGetEmbeddingsCacheIdempotence(t *testing.T) {
	provider := &fakeProvider{}
	e := newTestEmbedder(provider, DefaultEmbedderConfig())

	first, err := e.GetEmbedding(context.Background(), "same text", TaskDocument)
	assert.NoError(t, err)

	second, err := e.GetEmbedding(context.Background(), "same text", TaskDocument)
	assert.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, 1, provider.callCount, "second call must be served from cache")
}

func TestGetEmbeddingsPartialCacheHit(t *testing.T) {
	provider := &fakeProvider{}
	e := newTestEmbedder(provider, DefaultEmbedderConfig())

	_, err := e.GetEmbedding(context.Background(), "cached", TaskDocument)
	assert.NoError(t, err)
	provider.batches = nil

	vecs, err := e.GetEmbeddings(context.Background(), []string{"new one", "cached", "new two"}, TaskDocument)
	assert.NoError(t, err)
	assert.Len(t, vecs, 3)
	assert.Equal(t, float32(len("cached")), vecs[1][0])

	// Only the misses reach the provider.
	var sent []string
	for _, batch := range provider.batches {
		sent = append(sent, batch...)
	}
	assert.ElementsMatch(t, []string{"new one", "new two"}, sent)
}

func TestGetEmbeddingsBatchSplitting(t *testing.T) {
	provider := &fakeProvider{}
	config := DefaultEmbedderConfig()
	config.MaxTokensPerBatch = 10 // 40 chars
	e := newTestEmbedder(provider, config)

	texts := []string{
		strings.Repeat("a", 30),
		strings.Repeat("b", 30),
		strings.Repeat("c", 30),
	}
	vecs, err := e.GetEmbeddings(context.Background(), texts, TaskDocument)

	assert.NoError(t, err)
	assert.Len(t, vecs, 3)
	assert.Greater(t, provider.callCount, 1, "over-budget input must be split into several batches")
	for i := range texts {
		assert.Equal(t, float32(30), vecs[i][0])
	}
}

func TestGetEmbeddingsForceSplitsOversizedText(t *testing.T) {
	provider := &fakeProvider{}
	config := DefaultEmbedderConfig()
	config.MaxTokensPerText = 10 // 40 chars
	e := newTestEmbedder(provider, config)

	big := strings.Repeat("x", 200)
	vec, err := e.GetEmbedding(context.Background(), big, TaskDocument)

	assert.NoError(t, err)
	assert.NotEmpty(t, vec)
	for _, batch := range provider.batches {
		for _, text := range batch {
			assert.LessOrEqual(t, len(text), 40, "no piece may exceed the per-text ceiling")
		}
	}
}

func TestEmbedBatchBisectsOnContextLength(t *testing.T) {
	provider := &fakeProvider{rejectAbove: 50}
	e := newTestEmbedder(provider, DefaultEmbedderConfig())

	texts := []string{
		strings.Repeat("a", 30),
		strings.Repeat("b", 30),
		strings.Repeat("c", 30),
	}
	vecs, err := e.GetEmbeddings(context.Background(), texts, TaskDocument)

	assert.NoError(t, err)
	assert.Len(t, vecs, 3)
	for i := range texts {
		assert.Equal(t, float32(30), vecs[i][0], "bisection must not reorder results")
	}
}

func TestEmbedBatchForceChunksSingleText(t *testing.T) {
	provider := &fakeProvider{rejectAbove: 120}
	e := newTestEmbedder(provider, DefaultEmbedderConfig())

	big := strings.Repeat("y", 200)
	vec, err := e.GetEmbedding(context.Background(), big, TaskDocument)

	assert.NoError(t, err)
	assert.NotEmpty(t, vec)
	// Mean-pooled output is renormalized to unit length.
	var mag float64
	for _, v := range vec {
		mag += float64(v) * float64(v)
	}
	assert.InDelta(t, 1.0, mag, 0.001)
}

func TestGetEmbeddingsFatalAfterRetries(t *testing.T) {
	provider := &fakeProvider{failWith: errors.New("connection refused"), failTimes: 100}
	config := DefaultEmbedderConfig()
	config.MaxRetries = 1
	e := newTestEmbedder(provider, config)

	_, err := e.GetEmbedding(context.Background(), "text", TaskDocument)

	var provErr *ProviderError
	assert.ErrorAs(t, err, &provErr)
	assert.Equal(t, "fake-model", provErr.Provider)
	assert.Equal(t, 2, provider.callCount, "one attempt plus one retry")
}

func TestHashTextStable(t *testing.T) {
	assert.Equal(t, HashText("hello"), HashText("hello"))
	assert.NotEqual(t, HashText("hello"), HashText("hello "))
	assert.Len(t, HashText("hello"), 64)
}

func TestMeanPoolRenormalizes(t *testing.T) {
	pooled := meanPool([][]float32{{1, 0}, {0, 1}})
	var mag float64
	for _, v := range pooled {
		mag += float64(v) * float64(v)
	}
	assert.InDelta(t, 1.0, mag, 0.0001)
}
