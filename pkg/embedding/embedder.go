package embedding

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"time"

	"ai-knowledge-core/internal/entity"
	"ai-knowledge-core/internal/pkg/logger"
	"ai-knowledge-core/internal/repository/contract"
	"ai-knowledge-core/pkg/utils"

	gocache "github.com/patrickmn/go-cache"
)

// EmbedderConfig bounds request sizes toward the provider.
type EmbedderConfig struct {
	MaxTokensPerText  int // ceiling for a single input; larger texts are force-split
	MaxTokensPerBatch int // ceiling for one batch request
	MaxRetries        int // retries on transient provider failures
	MinSplitChars     int // floor below which force-splitting gives up
}

func DefaultEmbedderConfig() EmbedderConfig {
	return EmbedderConfig{
		MaxTokensPerText:  8000,
		MaxTokensPerBatch: 16000,
		MaxRetries:        2,
		MinSplitChars:     64,
	}
}

// Embedder is the caching embedding client. Lookups go through an
// in-process L1 (go-cache) and the persistent content-addressed store
// before any provider call. Output of GetEmbeddings is order-preserving
// and 1:1 with input regardless of internal batching and splitting.
type Embedder struct {
	provider EmbeddingProvider
	store    contract.EmbeddingCacheRepository // nil disables the persistent layer
	l1       *gocache.Cache
	log      logger.ILogger
	config   EmbedderConfig
}

func NewEmbedder(
	provider EmbeddingProvider,
	store contract.EmbeddingCacheRepository,
	log logger.ILogger,
	config EmbedderConfig,
) *Embedder {
	return &Embedder{
		provider: provider,
		store:    store,
		l1:       gocache.New(30*time.Minute, 10*time.Minute),
		log:      log,
		config:   config,
	}
}

// HashText returns the stable content hash used as the cache key.
func HashText(text string) string {
	sum := sha256.Sum256([]byte(text))
	return hex.EncodeToString(sum[:])
}

// estimateTokens is the chars/4 heuristic; close enough for budgeting.
func estimateTokens(text string) int {
	return (len(text) + 3) / 4
}

func (e *Embedder) GetEmbedding(ctx context.Context, text string, taskType string) ([]float32, error) {
	vecs, err := e.GetEmbeddings(ctx, []string{text}, taskType)
	if err != nil {
		return nil, err
	}
	return vecs[0], nil
}

func (e *Embedder) GetEmbeddings(ctx context.Context, texts []string, taskType string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	hashes := make([]string, len(texts))

	var missIdx []int
	for i, text := range texts {
		hashes[i] = HashText(text)
		if vec := e.lookupCache(ctx, hashes[i]); vec != nil {
			out[i] = vec
			continue
		}
		missIdx = append(missIdx, i)
	}

	if len(missIdx) == 0 {
		return out, nil
	}

	// Force-split texts above the per-text ceiling before batching.
	// Correctness beats in-cache granularity here: a split text is
	// embedded as the mean of its sub-embeddings.
	type piece struct {
		owner int
		text  string
	}
	maxChars := e.config.MaxTokensPerText * 4
	var pieces []piece
	for _, i := range missIdx {
		text := texts[i]
		if estimateTokens(text) > e.config.MaxTokensPerText {
			for _, part := range utils.SplitText(text, maxChars, 0) {
				pieces = append(pieces, piece{owner: i, text: part})
			}
		} else {
			pieces = append(pieces, piece{owner: i, text: text})
		}
	}

	// Greedy batches under the per-batch token budget.
	var batches [][]piece
	var current []piece
	budget := 0
	for _, p := range pieces {
		cost := estimateTokens(p.text)
		if len(current) > 0 && budget+cost > e.config.MaxTokensPerBatch {
			batches = append(batches, current)
			current = nil
			budget = 0
		}
		current = append(current, p)
		budget += cost
	}
	if len(current) > 0 {
		batches = append(batches, current)
	}

	vectorsByOwner := make(map[int][][]float32)
	for _, batch := range batches {
		batchTexts := make([]string, len(batch))
		for j, p := range batch {
			batchTexts[j] = p.text
		}
		vecs, err := e.embedBatch(ctx, batchTexts, taskType)
		if err != nil {
			return nil, err
		}
		for j, p := range batch {
			vectorsByOwner[p.owner] = append(vectorsByOwner[p.owner], vecs[j])
		}
	}

	for _, i := range missIdx {
		vec := meanPool(vectorsByOwner[i])
		out[i] = vec
		e.storeCache(ctx, hashes[i], texts[i], vec)
	}

	return out, nil
}

// embedBatch calls the provider and recovers from context-length failures:
// a batch of more than one text is bisected and each half retried; a
// single text is force-chunked further and its sub-embeddings mean-pooled.
// Only a minimal text that still exceeds provider limits becomes a hard
// failure.
func (e *Embedder) embedBatch(ctx context.Context, texts []string, taskType string) ([][]float32, error) {
	vecs, err := e.generateWithRetry(ctx, texts, taskType)
	if err == nil {
		return vecs, nil
	}
	if !errors.Is(err, ErrContextLengthExceeded) {
		return nil, err
	}

	if len(texts) > 1 {
		e.warn("batch exceeded context length, bisecting", map[string]interface{}{
			"batch_size": len(texts),
		})
		mid := len(texts) / 2
		left, err := e.embedBatch(ctx, texts[:mid], taskType)
		if err != nil {
			return nil, err
		}
		right, err := e.embedBatch(ctx, texts[mid:], taskType)
		if err != nil {
			return nil, err
		}
		return append(left, right...), nil
	}

	runes := []rune(texts[0])
	half := (len(runes) + 1) / 2
	if half < e.config.MinSplitChars {
		return nil, &ProviderError{Provider: e.provider.Name(), Err: err}
	}

	e.warn("single text exceeded context length, force-chunking", map[string]interface{}{
		"text_chars": len(runes),
	})

	parts := utils.SplitText(texts[0], half, 0)
	if len(parts) <= 1 {
		return nil, &ProviderError{Provider: e.provider.Name(), Err: err}
	}

	sub := make([][]float32, 0, len(parts))
	for _, part := range parts {
		vec, err := e.embedBatch(ctx, []string{part}, taskType)
		if err != nil {
			return nil, err
		}
		sub = append(sub, vec[0])
	}
	return [][]float32{meanPool(sub)}, nil
}

func (e *Embedder) generateWithRetry(ctx context.Context, texts []string, taskType string) ([][]float32, error) {
	var lastErr error
	for attempt := 0; attempt <= e.config.MaxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return nil, &ProviderError{Provider: e.provider.Name(), Err: ctx.Err()}
			case <-time.After(time.Duration(attempt) * 200 * time.Millisecond):
			}
		}

		vecs, err := e.provider.GenerateBatch(ctx, texts, taskType)
		if err == nil {
			return vecs, nil
		}
		if errors.Is(err, ErrContextLengthExceeded) {
			// Not transient; the caller splits instead of retrying.
			return nil, err
		}
		lastErr = err
	}
	return nil, &ProviderError{Provider: e.provider.Name(), Err: lastErr}
}

func (e *Embedder) lookupCache(ctx context.Context, hash string) []float32 {
	l1Key := hash + ":" + e.provider.Name()
	if x, found := e.l1.Get(l1Key); found {
		return x.([]float32)
	}

	if e.store == nil {
		return nil
	}

	entry, err := e.store.Find(ctx, hash, e.provider.Name())
	if err != nil {
		e.warn("embedding cache lookup failed", map[string]interface{}{"error": err.Error()})
		return nil
	}
	if entry == nil {
		return nil
	}

	if err := e.store.Touch(ctx, hash, e.provider.Name()); err != nil {
		e.warn("embedding cache touch failed", map[string]interface{}{"error": err.Error()})
	}
	e.l1.Set(l1Key, entry.Embedding, gocache.DefaultExpiration)
	return entry.Embedding
}

func (e *Embedder) storeCache(ctx context.Context, hash, originalText string, vec []float32) {
	e.l1.Set(hash+":"+e.provider.Name(), vec, gocache.DefaultExpiration)

	if e.store == nil {
		return
	}

	err := e.store.Upsert(ctx, &entity.EmbeddingCacheEntry{
		TextHash:     hash,
		ModelName:    e.provider.Name(),
		OriginalText: originalText,
		Embedding:    vec,
		LastAccessed: time.Now(),
	})
	if err != nil {
		// The cache is an optimization; a failed write never fails the embed.
		e.warn("embedding cache upsert failed", map[string]interface{}{"error": err.Error()})
	}
}

func (e *Embedder) warn(msg string, details map[string]interface{}) {
	if e.log != nil {
		e.log.Warn("embedding", msg, details)
	}
}
