package service

import (
	"context"
	"encoding/json"
	"time"

	"ai-knowledge-core/internal/dto"
	"ai-knowledge-core/internal/entity"
	"ai-knowledge-core/internal/repository/specification"
	"ai-knowledge-core/internal/repository/unitofwork"

	"github.com/google/uuid"
)

type IDocumentService interface {
	Create(ctx context.Context, req *dto.CreateDocumentRequest) (*dto.CreateDocumentResponse, error)
	Update(ctx context.Context, id uuid.UUID, req *dto.UpdateDocumentRequest) error
	Show(ctx context.Context, id uuid.UUID) (*dto.ShowDocumentResponse, error)
	List(ctx context.Context) ([]dto.ListDocumentItem, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

type documentService struct {
	uowFactory       unitofwork.RepositoryFactory
	publisherService IPublisherService
}

func NewDocumentService(
	uowFactory unitofwork.RepositoryFactory,
	publisherService IPublisherService,
) IDocumentService {
	return &documentService{
		uowFactory:       uowFactory,
		publisherService: publisherService,
	}
}

func (c *documentService) Create(ctx context.Context, req *dto.CreateDocumentRequest) (*dto.CreateDocumentResponse, error) {
	uow := c.uowFactory.NewUnitOfWork(ctx)
	doc := entity.Document{
		Id:        uuid.New(),
		Title:     req.Title,
		Source:    req.Source,
		Content:   req.Content,
		CreatedAt: time.Now(),
	}

	err := uow.DocumentRepository().Create(ctx, &doc)
	if err != nil {
		return nil, err
	}

	if err := c.publishIngest(ctx, doc.Id); err != nil {
		return nil, err
	}

	return &dto.CreateDocumentResponse{
		Id: doc.Id,
	}, nil
}

func (c *documentService) Update(ctx context.Context, id uuid.UUID, req *dto.UpdateDocumentRequest) error {
	uow := c.uowFactory.NewUnitOfWork(ctx)
	doc, err := uow.DocumentRepository().FindOne(ctx, specification.ByID{ID: id})
	if err != nil {
		return err
	}
	if doc == nil {
		return ErrDocumentNotFound
	}

	now := time.Now()
	doc.Title = req.Title
	doc.Source = req.Source
	doc.Content = req.Content
	doc.UpdatedAt = &now

	if err := uow.DocumentRepository().Update(ctx, doc); err != nil {
		return err
	}

	// Content changed, re-chunk asynchronously.
	return c.publishIngest(ctx, doc.Id)
}

func (c *documentService) Show(ctx context.Context, id uuid.UUID) (*dto.ShowDocumentResponse, error) {
	uow := c.uowFactory.NewUnitOfWork(ctx)
	doc, err := uow.DocumentRepository().FindOne(ctx, specification.ByID{ID: id})
	if err != nil {
		return nil, err
	}
	if doc == nil {
		return nil, nil // Not found
	}

	chunkCount, err := uow.DocumentChunkRepository().Count(ctx, specification.ByDocumentID{DocumentId: doc.Id})
	if err != nil {
		return nil, err
	}

	res := dto.ShowDocumentResponse{
		Id:         doc.Id,
		Title:      doc.Title,
		Source:     doc.Source,
		Content:    doc.Content,
		ChunkCount: chunkCount,
		CreatedAt:  doc.CreatedAt,
		UpdatedAt:  doc.UpdatedAt,
	}

	return &res, nil
}

func (c *documentService) List(ctx context.Context) ([]dto.ListDocumentItem, error) {
	uow := c.uowFactory.NewUnitOfWork(ctx)
	docs, err := uow.DocumentRepository().FindAll(ctx,
		specification.NotDeleted{},
		specification.OrderBy{Field: "created_at", Desc: true},
	)
	if err != nil {
		return nil, err
	}

	items := make([]dto.ListDocumentItem, 0, len(docs))
	for _, doc := range docs {
		items = append(items, dto.ListDocumentItem{
			Id:        doc.Id,
			Title:     doc.Title,
			Source:    doc.Source,
			CreatedAt: doc.CreatedAt,
		})
	}
	return items, nil
}

func (c *documentService) Delete(ctx context.Context, id uuid.UUID) error {
	uow := c.uowFactory.NewUnitOfWork(ctx)

	if err := uow.Begin(ctx); err != nil {
		return err
	}
	defer uow.Rollback()

	if err := uow.DocumentChunkRepository().DeleteByDocumentId(ctx, id); err != nil {
		return err
	}
	if err := uow.DocumentRepository().Delete(ctx, id); err != nil {
		return err
	}

	return uow.Commit()
}

func (c *documentService) publishIngest(ctx context.Context, documentId uuid.UUID) error {
	msgPayload := dto.PublishIngestDocumentMessage{
		DocumentId: documentId,
	}
	msgJson, err := json.Marshal(msgPayload)
	if err != nil {
		return err
	}
	return c.publisherService.Publish(ctx, msgJson)
}
