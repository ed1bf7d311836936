package chunker

import (
	"context"
	"strings"

	"ai-knowledge-core/internal/entity"
	"ai-knowledge-core/internal/pkg/logger"
	"ai-knowledge-core/pkg/llm"
	"ai-knowledge-core/pkg/utils"
)

// Chunk is the chunker's output unit: content plus semantic tagging.
// Indices, checksums and embeddings are assigned by the ingestion caller.
type Chunk struct {
	Content     string
	SemanticTag string
	Sentiment   string
}

type Config struct {
	BlockSize         int     // character ceiling per LLM request, not a semantic boundary
	MinBlockChars     int     // floor below which truncated blocks stop bisecting
	MaxResponseTokens int     // token budget for the chunking completion
	Temperature       float64 // low, chunking wants determinism
}

func DefaultConfig() Config {
	return Config{
		BlockSize:         4000,
		MinBlockChars:     256,
		MaxResponseTokens: 4096,
		Temperature:       0.1,
	}
}

// Chunker splits documents into semantically coherent chunks using an
// LLM, degrading to deterministic sentence splitting when the model is
// unavailable or unusable. ChunkDocument never fails and never drops a
// block.
type Chunker struct {
	llm    llm.LLMProvider
	log    logger.ILogger
	config Config
}

func NewChunker(provider llm.LLMProvider, log logger.ILogger, config Config) *Chunker {
	return &Chunker{
		llm:    provider,
		log:    log,
		config: config,
	}
}

func (c *Chunker) ChunkDocument(ctx context.Context, text string) []Chunk {
	if strings.TrimSpace(text) == "" {
		return nil
	}

	blocks := utils.SplitText(text, c.config.BlockSize, 0)

	// Explicit work stack instead of recursion: truncated blocks push
	// their halves back, and the MinBlockChars floor bounds the depth.
	stack := make([]string, 0, len(blocks))
	for i := len(blocks) - 1; i >= 0; i-- {
		stack = append(stack, blocks[i])
	}

	var out []Chunk
	for len(stack) > 0 {
		block := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		chunks, bisect := c.processBlock(ctx, block)
		if bisect {
			runes := []rune(block)
			mid := len(runes) / 2
			// push right first so the left half pops next, preserving order
			stack = append(stack, string(runes[mid:]))
			stack = append(stack, string(runes[:mid]))
			continue
		}
		out = append(out, chunks...)
	}

	return out
}

// processBlock returns the block's chunks, or bisect=true when the model
// response was cut off and the block is still large enough to split.
func (c *Chunker) processBlock(ctx context.Context, block string) (chunks []Chunk, bisect bool) {
	completion, err := c.llm.Generate(ctx, buildChunkPrompt(block),
		llm.WithTemperature(c.config.Temperature),
		llm.WithMaxTokens(c.config.MaxResponseTokens),
	)
	if err != nil {
		c.warn("llm chunking failed, using sentence fallback", map[string]interface{}{
			"error":       err.Error(),
			"block_chars": len(block),
		})
		return c.fallbackChunks(block), false
	}

	if completion.Truncated {
		if len([]rune(block)) >= 2*c.config.MinBlockChars {
			// Reprocess halves rather than salvaging a cut-off response;
			// partial JSON would silently lose content.
			return nil, true
		}
		// Block is at the floor; try to use what came back anyway.
	}

	chunks = ParseChunks(completion.Text)
	if len(chunks) == 0 {
		c.warn("unparseable chunking response, using sentence fallback", map[string]interface{}{
			"block_chars": len(block),
		})
		return c.fallbackChunks(block), false
	}

	return chunks, false
}

// fallbackChunks keeps every block represented even on total LLM failure.
func (c *Chunker) fallbackChunks(block string) []Chunk {
	sentences := SplitSentences(block)
	chunks := make([]Chunk, 0, len(sentences))
	for _, s := range sentences {
		chunks = append(chunks, Chunk{
			Content:     s,
			SemanticTag: entity.TagOther,
			Sentiment:   entity.SentimentNeutral,
		})
	}
	return chunks
}

func (c *Chunker) warn(msg string, details map[string]interface{}) {
	if c.log != nil {
		c.log.Warn("chunker", msg, details)
	}
}
