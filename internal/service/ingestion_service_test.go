package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"ai-knowledge-core/internal/entity"
	"ai-knowledge-core/internal/pkg/logger"
	"ai-knowledge-core/internal/repository/contract"
	"ai-knowledge-core/internal/repository/specification"
	"ai-knowledge-core/internal/repository/unitofwork"
	"ai-knowledge-core/pkg/chunker"
	"ai-knowledge-core/pkg/embedding"
	"ai-knowledge-core/pkg/llm"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

// fakeUow is an in-memory unit of work capturing the chunk writes the
// ingestion service performs. rows mimics the (document_id, checksum)
// unique index so duplicate inserts fail like they would in Postgres.
type fakeUow struct {
	doc *entity.Document

	begun      bool
	committed  bool
	rolledBack bool

	deletedDocumentId uuid.UUID
	insertedChunks    []*entity.DocumentChunk
	rows              map[string]bool
}

func chunkRowKey(documentId uuid.UUID, checksum string) string {
	return documentId.String() + "|" + checksum
}

func (f *fakeUow) NewUnitOfWork(ctx context.Context) unitofwork.UnitOfWork { return f }

func (f *fakeUow) Begin(ctx context.Context) error { f.begun = true; return nil }
func (f *fakeUow) Commit() error                   { f.committed = true; return nil }
func (f *fakeUow) Rollback() error {
	if !f.committed {
		f.rolledBack = true
	}
	return nil
}

func (f *fakeUow) DocumentRepository() contract.DocumentRepository {
	return &fakeDocRepo{doc: f.doc}
}
func (f *fakeUow) DocumentChunkRepository() contract.DocumentChunkRepository {
	return &fakeUowChunkRepo{uow: f}
}
func (f *fakeUow) EmbeddingCacheRepository() contract.EmbeddingCacheRepository { return nil }
func (f *fakeUow) ResponseCacheRepository() contract.ResponseCacheRepository   { return nil }

type fakeDocRepo struct {
	doc *entity.Document
}

func (f *fakeDocRepo) Create(ctx context.Context, doc *entity.Document) error { return nil }
func (f *fakeDocRepo) Update(ctx context.Context, doc *entity.Document) error { return nil }
func (f *fakeDocRepo) Delete(ctx context.Context, id uuid.UUID) error         { return nil }
func (f *fakeDocRepo) FindOne(ctx context.Context, specs ...specification.Specification) (*entity.Document, error) {
	return f.doc, nil
}
func (f *fakeDocRepo) FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.Document, error) {
	return nil, nil
}
func (f *fakeDocRepo) Count(ctx context.Context, specs ...specification.Specification) (int64, error) {
	return 0, nil
}

type fakeUowChunkRepo struct {
	uow *fakeUow
}

func (f *fakeUowChunkRepo) Create(ctx context.Context, chunk *entity.DocumentChunk) error {
	return nil
}
func (f *fakeUowChunkRepo) CreateBulk(ctx context.Context, chunks []*entity.DocumentChunk) error {
	if f.uow.rows == nil {
		f.uow.rows = make(map[string]bool)
	}
	for _, c := range chunks {
		key := chunkRowKey(c.DocumentId, c.Checksum)
		if f.uow.rows[key] {
			return fmt.Errorf(`duplicate key value violates unique constraint "idx_chunk_doc_checksum"`)
		}
		f.uow.rows[key] = true
	}
	f.uow.insertedChunks = chunks
	return nil
}
func (f *fakeUowChunkRepo) Delete(ctx context.Context, id uuid.UUID) error { return nil }
func (f *fakeUowChunkRepo) DeleteByDocumentId(ctx context.Context, documentId uuid.UUID) error {
	f.uow.deletedDocumentId = documentId
	for key := range f.uow.rows {
		if strings.HasPrefix(key, documentId.String()+"|") {
			delete(f.uow.rows, key)
		}
	}
	return nil
}
func (f *fakeUowChunkRepo) FindOne(ctx context.Context, specs ...specification.Specification) (*entity.DocumentChunk, error) {
	return nil, nil
}
func (f *fakeUowChunkRepo) FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.DocumentChunk, error) {
	return nil, nil
}
func (f *fakeUowChunkRepo) Count(ctx context.Context, specs ...specification.Specification) (int64, error) {
	return 0, nil
}
func (f *fakeUowChunkRepo) SearchKeyword(ctx context.Context, query string, limit int, source string) ([]*entity.DocumentChunk, error) {
	return nil, nil
}
func (f *fakeUowChunkRepo) SearchSimilarWithScore(ctx context.Context, emb []float32, limit int, source string, threshold float64) ([]*contract.ScoredChunk, error) {
	return nil, nil
}
func (f *fakeUowChunkRepo) SearchHybrid(ctx context.Context, query string, emb []float32, limit int, kw, sem float64, source string) ([]*contract.ScoredChunk, error) {
	return nil, nil
}

// sentenceLLM yields a chunk per sentence-ish line, with one duplicate to
// exercise checksum dedupe.
type sentenceLLM struct {
	response string
	err      error
}

func (s *sentenceLLM) Chat(ctx context.Context, history []llm.Message, options ...llm.Option) (*llm.Completion, error) {
	return s.Generate(ctx, "", options...)
}

func (s *sentenceLLM) Generate(ctx context.Context, prompt string, options ...llm.Option) (*llm.Completion, error) {
	if s.err != nil {
		return nil, s.err
	}
	return &llm.Completion{Text: s.response}, nil
}

type unitProvider struct{}

func (unitProvider) Name() string { return "unit" }
func (u unitProvider) Generate(ctx context.Context, text string, taskType string) ([]float32, error) {
	return []float32{1, 0}, nil
}
func (unitProvider) GenerateBatch(ctx context.Context, texts []string, taskType string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i := range texts {
		out[i] = []float32{1, 0}
	}
	return out, nil
}

func newIngestionFixture(doc *entity.Document, llmResponse string) (*fakeUow, IIngestionService) {
	uow := &fakeUow{doc: doc}
	log := logger.NewNop()
	chk := chunker.NewChunker(&sentenceLLM{response: llmResponse}, log, chunker.DefaultConfig())
	embedder := embedding.NewEmbedder(unitProvider{}, nil, log, embedding.DefaultEmbedderConfig())
	return uow, NewIngestionService(uow, chk, embedder, log)
}

func TestIngestDocumentReplacesChunks(t *testing.T) {
	doc := &entity.Document{Id: uuid.New(), Title: "T", Content: "Alpha. Beta. Gamma."}
	uow, svc := newIngestionFixture(doc,
		`[{"content":"Alpha.","semantic_tag":"key_idea","sentiment":"neutral"},
		  {"content":"Beta.","semantic_tag":"detail","sentiment":"neutral"},
		  {"content":"Gamma.","semantic_tag":"detail","sentiment":"neutral"}]`)

	err := svc.IngestDocument(context.Background(), doc.Id)

	assert.NoError(t, err)
	assert.True(t, uow.begun)
	assert.True(t, uow.committed)
	assert.False(t, uow.rolledBack)
	assert.Equal(t, doc.Id, uow.deletedDocumentId, "old chunks are replaced in the same transaction")
	assert.Len(t, uow.insertedChunks, 3)
	for i, chunk := range uow.insertedChunks {
		assert.Equal(t, i, chunk.ChunkIndex, "indices must be contiguous from 0")
		assert.Equal(t, doc.Id, chunk.DocumentId)
		assert.NotEmpty(t, chunk.Checksum)
		assert.NotEmpty(t, chunk.Embedding)
	}
}

func TestIngestDocumentTwiceWithUnchangedContent(t *testing.T) {
	doc := &entity.Document{Id: uuid.New(), Content: "Alpha. Beta."}
	uow, svc := newIngestionFixture(doc,
		`[{"content":"Alpha.","semantic_tag":"detail","sentiment":"neutral"},
		  {"content":"Beta.","semantic_tag":"detail","sentiment":"neutral"}]`)

	assert.NoError(t, svc.IngestDocument(context.Background(), doc.Id))

	// Unchanged content produces identical checksums; the delete must
	// clear the old rows from the unique index or the reinsert fails.
	err := svc.IngestDocument(context.Background(), doc.Id)

	assert.NoError(t, err)
	assert.True(t, uow.committed)
	assert.Len(t, uow.insertedChunks, 2)
	assert.Len(t, uow.rows, 2, "replaced rows, not accumulated ones")
}

func TestIngestDocumentDeduplicatesByChecksum(t *testing.T) {
	doc := &entity.Document{Id: uuid.New(), Content: "Repeat. Repeat."}
	uow, svc := newIngestionFixture(doc,
		`[{"content":"Repeat.","semantic_tag":"detail","sentiment":"neutral"},
		  {"content":"Repeat.","semantic_tag":"detail","sentiment":"neutral"},
		  {"content":"Unique.","semantic_tag":"detail","sentiment":"neutral"}]`)

	err := svc.IngestDocument(context.Background(), doc.Id)

	assert.NoError(t, err)
	assert.Len(t, uow.insertedChunks, 2)
	assert.Equal(t, "Repeat.", uow.insertedChunks[0].Content)
	assert.Equal(t, "Unique.", uow.insertedChunks[1].Content)
	assert.Equal(t, 0, uow.insertedChunks[0].ChunkIndex)
	assert.Equal(t, 1, uow.insertedChunks[1].ChunkIndex, "indices stay contiguous after dedupe")
}

// batchLimitProvider rejects multi-text batches with a context-length
// error so the embedder has to bisect down to single texts.
type batchLimitProvider struct {
	calls int
}

func (*batchLimitProvider) Name() string { return "batch-limit" }
func (p *batchLimitProvider) Generate(ctx context.Context, text string, taskType string) ([]float32, error) {
	out, err := p.GenerateBatch(ctx, []string{text}, taskType)
	if err != nil {
		return nil, err
	}
	return out[0], nil
}
func (p *batchLimitProvider) GenerateBatch(ctx context.Context, texts []string, taskType string) ([][]float32, error) {
	p.calls++
	if len(texts) > 1 {
		return nil, fmt.Errorf("payload too big: %w", embedding.ErrContextLengthExceeded)
	}
	return [][]float32{{1, 0}}, nil
}

func TestIngestDocumentBisectsOversizedBatch(t *testing.T) {
	doc := &entity.Document{Id: uuid.New(), Content: "Alpha. Beta."}
	uow := &fakeUow{doc: doc}
	log := logger.NewNop()
	chk := chunker.NewChunker(&sentenceLLM{response: `[{"content":"Alpha.","semantic_tag":"detail","sentiment":"neutral"},
		{"content":"Beta.","semantic_tag":"detail","sentiment":"neutral"}]`}, log, chunker.DefaultConfig())
	provider := &batchLimitProvider{}
	embedder := embedding.NewEmbedder(provider, nil, log, embedding.DefaultEmbedderConfig())
	svc := NewIngestionService(uow, chk, embedder, log)

	err := svc.IngestDocument(context.Background(), doc.Id)

	assert.NoError(t, err)
	assert.True(t, uow.committed)
	assert.Len(t, uow.insertedChunks, 2)
	for _, chunk := range uow.insertedChunks {
		assert.NotEmpty(t, chunk.Embedding)
	}
	assert.Equal(t, 3, provider.calls, "one rejected batch plus two single-text halves")
}

func TestComposeDocumentText(t *testing.T) {
	bare := &entity.Document{Content: "Just a body."}
	assert.Equal(t, "Just a body.", composeDocumentText(bare))

	framed := &entity.Document{Title: "Release Notes", Source: "docs/changelog.md", Content: "Body."}
	text := composeDocumentText(framed)
	assert.Contains(t, text, "Document Title: Release Notes")
	assert.Contains(t, text, "Source: docs/changelog.md")
	assert.Contains(t, text, "Body.")
}

func TestIngestDocumentNotFound(t *testing.T) {
	uow, svc := newIngestionFixture(nil, `[]`)

	err := svc.IngestDocument(context.Background(), uuid.New())

	assert.ErrorIs(t, err, ErrDocumentNotFound)
	assert.False(t, uow.begun)
}

func TestIngestDocumentEmbeddingFailureAborts(t *testing.T) {
	doc := &entity.Document{Id: uuid.New(), Content: "Something."}
	uow := &fakeUow{doc: doc}
	log := logger.NewNop()
	chk := chunker.NewChunker(&sentenceLLM{response: `[{"content":"Something.","semantic_tag":"detail","sentiment":"neutral"}]`}, log, chunker.DefaultConfig())
	failing := &failingProvider{}
	embedder := embedding.NewEmbedder(failing, nil, log, embedding.EmbedderConfig{MaxTokensPerText: 8000, MaxTokensPerBatch: 16000, MinSplitChars: 64})
	svc := NewIngestionService(uow, chk, embedder, log)

	err := svc.IngestDocument(context.Background(), doc.Id)

	var provErr *embedding.ProviderError
	assert.ErrorAs(t, err, &provErr)
	assert.False(t, uow.begun, "no transaction opens when embedding fails")
	assert.Empty(t, uow.insertedChunks)
}

type failingProvider struct{}

func (failingProvider) Name() string { return "failing" }
func (failingProvider) Generate(ctx context.Context, text string, taskType string) ([]float32, error) {
	return nil, errors.New("provider down")
}
func (failingProvider) GenerateBatch(ctx context.Context, texts []string, taskType string) ([][]float32, error) {
	return nil, errors.New("provider down")
}
