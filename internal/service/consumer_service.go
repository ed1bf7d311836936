package service

import (
	"context"
	"encoding/json"
	"errors"
	"log"

	"ai-knowledge-core/internal/dto"
	"ai-knowledge-core/pkg/embedding"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
)

type IConsumerService interface {
	Consume(ctx context.Context) error
}

type consumerService struct {
	pubSub    *gochannel.GoChannel
	topicName string
	ingestion IIngestionService
}

func NewConsumerService(
	pubSub *gochannel.GoChannel,
	topicName string,
	ingestion IIngestionService,
) IConsumerService {
	return &consumerService{
		pubSub:    pubSub,
		topicName: topicName,
		ingestion: ingestion,
	}
}

func (cs *consumerService) Consume(ctx context.Context) error {
	messages, err := cs.pubSub.Subscribe(ctx, cs.topicName)
	if err != nil {
		return err
	}

	go func() {
		for msg := range messages {
			cs.processMessage(ctx, msg)
		}
	}()

	return nil
}

func (cs *consumerService) processMessage(ctx context.Context, msg *message.Message) {
	var payload dto.PublishIngestDocumentMessage
	if err := json.Unmarshal(msg.Payload, &payload); err != nil {
		log.Printf("[ERROR] Failed to unmarshal ingest message: %v", err)
		msg.Ack() // Ack invalid messages to prevent infinite retry
		return
	}

	log.Printf("[INFO] Processing ingestion for DocumentId: %s", payload.DocumentId)

	err := cs.ingestion.IngestDocument(ctx, payload.DocumentId)
	if err != nil {
		if errors.Is(err, ErrDocumentNotFound) {
			log.Printf("[WARN] Document deleted before ingestion: %s", payload.DocumentId)
			msg.Ack()
			return
		}
		var provErr *embedding.ProviderError
		if errors.As(err, &provErr) {
			// Provider rejected the content after retries; redelivery
			// would fail the same way.
			log.Printf("[ERROR] Ingestion failed permanently for %s: %v", payload.DocumentId, err)
			msg.Ack()
			return
		}
		log.Printf("[ERROR] Ingestion failed for %s: %v", payload.DocumentId, err)
		msg.Nack()
		return
	}

	log.Printf("[SUCCESS] Document processed: %s", payload.DocumentId)
	msg.Ack()
}
