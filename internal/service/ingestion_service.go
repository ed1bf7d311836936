package service

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"

	"ai-knowledge-core/internal/entity"
	"ai-knowledge-core/internal/pkg/logger"
	"ai-knowledge-core/internal/repository/specification"
	"ai-knowledge-core/internal/repository/unitofwork"
	"ai-knowledge-core/pkg/chunker"
	"ai-knowledge-core/pkg/embedding"

	"github.com/google/uuid"
)

// ErrDocumentNotFound is returned when an ingest message references a
// document that no longer exists.
var ErrDocumentNotFound = fmt.Errorf("document not found")

type IIngestionService interface {
	// IngestDocument re-chunks and re-embeds one document. Replacement is
	// transactional: delete-all + reinsert, so chunk indices stay
	// contiguous from 0.
	IngestDocument(ctx context.Context, documentId uuid.UUID) error
}

type ingestionService struct {
	uowFactory unitofwork.RepositoryFactory
	chunker    *chunker.Chunker
	embedder   *embedding.Embedder
	log        logger.ILogger
}

func NewIngestionService(
	uowFactory unitofwork.RepositoryFactory,
	chk *chunker.Chunker,
	embedder *embedding.Embedder,
	log logger.ILogger,
) IIngestionService {
	return &ingestionService{
		uowFactory: uowFactory,
		chunker:    chk,
		embedder:   embedder,
		log:        log,
	}
}

// composeDocumentText frames the document with its title and source so
// the header survives chunking and ends up searchable alongside the body.
func composeDocumentText(doc *entity.Document) string {
	if doc.Title == "" && doc.Source == "" {
		return doc.Content
	}
	return fmt.Sprintf(`Document Title: %s
Source: %s

%s`,
		doc.Title,
		doc.Source,
		doc.Content,
	)
}

func (s *ingestionService) IngestDocument(ctx context.Context, documentId uuid.UUID) error {
	uow := s.uowFactory.NewUnitOfWork(ctx)

	doc, err := uow.DocumentRepository().FindOne(ctx, specification.ByID{ID: documentId})
	if err != nil {
		return fmt.Errorf("load document %s: %w", documentId, err)
	}
	if doc == nil {
		return fmt.Errorf("%w: %s", ErrDocumentNotFound, documentId)
	}

	text := composeDocumentText(doc)

	s.log.Info("ingestion", "chunking document", map[string]interface{}{
		"document_id":   documentId.String(),
		"content_chars": len(text),
	})

	chunks := s.chunker.ChunkDocument(ctx, text)

	// Dedupe by checksum within the document; the unique index would
	// reject duplicates anyway, deduping here keeps indices contiguous.
	seen := make(map[string]bool, len(chunks))
	var kept []chunker.Chunk
	var checksums []string
	for _, c := range chunks {
		sum := sha256.Sum256([]byte(c.Content))
		checksum := hex.EncodeToString(sum[:])
		if seen[checksum] {
			continue
		}
		seen[checksum] = true
		kept = append(kept, c)
		checksums = append(checksums, checksum)
	}

	texts := make([]string, len(kept))
	for i, c := range kept {
		texts[i] = c.Content
	}

	var vectors [][]float32
	if len(texts) > 0 {
		vectors, err = s.embedder.GetEmbeddings(ctx, texts, embedding.TaskDocument)
		if err != nil {
			return fmt.Errorf("embed chunks for document %s: %w", documentId, err)
		}
	}

	newChunks := make([]*entity.DocumentChunk, len(kept))
	for i, c := range kept {
		newChunks[i] = &entity.DocumentChunk{
			Id:          uuid.New(),
			DocumentId:  doc.Id,
			Content:     c.Content,
			SemanticTag: c.SemanticTag,
			Sentiment:   c.Sentiment,
			ChunkIndex:  i,
			Checksum:    checksums[i],
			Embedding:   vectors[i],
			CreatedAt:   time.Now(),
		}
	}

	if err := uow.Begin(ctx); err != nil {
		return fmt.Errorf("begin ingestion transaction: %w", err)
	}
	defer uow.Rollback()

	if err := uow.DocumentChunkRepository().DeleteByDocumentId(ctx, doc.Id); err != nil {
		return fmt.Errorf("delete old chunks: %w", err)
	}
	if err := uow.DocumentChunkRepository().CreateBulk(ctx, newChunks); err != nil {
		return fmt.Errorf("insert chunks: %w", err)
	}

	if err := uow.Commit(); err != nil {
		return fmt.Errorf("commit ingestion: %w", err)
	}

	s.log.Info("ingestion", "document processed", map[string]interface{}{
		"document_id": documentId.String(),
		"chunks":      len(newChunks),
	})
	return nil
}
