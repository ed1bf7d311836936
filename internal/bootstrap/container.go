package bootstrap

import (
	"log"

	"ai-knowledge-core/internal/config"
	"ai-knowledge-core/internal/pkg/logger"
	"ai-knowledge-core/internal/repository/implementation"
	"ai-knowledge-core/internal/repository/unitofwork"
	"ai-knowledge-core/internal/service"
	"ai-knowledge-core/pkg/chunker"
	"ai-knowledge-core/pkg/embedding"
	"ai-knowledge-core/pkg/llm/factory"
	"ai-knowledge-core/pkg/rag"
	"ai-knowledge-core/pkg/rag/rerank"
	"ai-knowledge-core/pkg/rag/response"
	"ai-knowledge-core/pkg/rag/search"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"gorm.io/gorm"
)

type Container struct {
	// Services
	DocumentService service.IDocumentService
	QueryService    service.IQueryService

	// Background Services (Exposed for main.go to run)
	ConsumerService service.IConsumerService

	Logger logger.ILogger
}

func NewContainer(db *gorm.DB, cfg *config.Config) *Container {
	// 1. Core Facades
	uowFactory := unitofwork.NewRepositoryFactory(db)
	sysLogger := logger.NewZapLogger(cfg.App.LogFilePath, cfg.App.Environment == "production")

	// 2. Event Bus
	watermillLogger := watermill.NewStdLogger(false, false)
	pubSub := gochannel.NewGoChannel(
		gochannel.Config{},
		watermillLogger,
	)

	// 3. AI Providers
	// Initialize Embedding Provider based on Config
	var embeddingProvider embedding.EmbeddingProvider
	if cfg.Ai.EmbeddingProvider == "gemini" {
		embeddingProvider = embedding.NewGeminiProvider(cfg.Keys.GoogleGemini, cfg.Ai.EmbeddingModel)
		log.Printf("[INFO] Using Embedding Provider: GEMINI (%s)", cfg.Ai.EmbeddingModel)
	} else {
		embeddingProvider = embedding.NewOllamaProvider(cfg.Ai.OllamaBaseURL, cfg.Ai.EmbeddingModel)
		log.Printf("[INFO] Using Embedding Provider: OLLAMA (%s)", cfg.Ai.EmbeddingModel)
	}

	// Initialize LLM Provider based on Config
	llmProvider, err := factory.NewLLMProvider(
		cfg.Ai.LLMProvider,
		cfg.Ai.LLMModel,
		cfg.Ai.OllamaBaseURL,
		cfg.Keys.GoogleGemini,
	)
	if err != nil {
		log.Fatalf("[FATAL] Failed to initialize LLM Provider: %v", err)
	}
	log.Printf("[INFO] Using LLM Provider: %s (%s)", cfg.Ai.LLMProvider, cfg.Ai.LLMModel)

	// 4. RAG Components
	embedderConfig := embedding.DefaultEmbedderConfig()
	embedderConfig.MaxTokensPerText = cfg.Rag.MaxTokensPerText
	embedderConfig.MaxTokensPerBatch = cfg.Rag.MaxTokensPerBatch
	embedder := embedding.NewEmbedder(
		embeddingProvider,
		implementation.NewEmbeddingCacheRepository(db),
		sysLogger,
		embedderConfig,
	)

	chunkerConfig := chunker.DefaultConfig()
	chunkerConfig.BlockSize = cfg.Rag.BlockSize
	chunkerConfig.MaxResponseTokens = cfg.Rag.MaxResponseTokens
	docChunker := chunker.NewChunker(llmProvider, sysLogger, chunkerConfig)

	chunkRepo := implementation.NewDocumentChunkRepository(db)
	orchestrator := search.NewOrchestrator(embedder, chunkRepo, sysLogger)

	reranker := rerank.NewReranker(llmProvider, sysLogger, rerank.DefaultConfig())

	respCache := response.NewCache(
		implementation.NewResponseCacheRepository(db),
		sysLogger,
		cfg.Rag.CacheThreshold,
	)

	pipelineConfig := rag.DefaultPipelineConfig()
	pipelineConfig.Search.MatchCount = cfg.Rag.MatchCount
	pipelineConfig.Search.Threshold = cfg.Rag.SimilarityThreshold
	pipelineConfig.Search.KeywordWeight = cfg.Rag.KeywordWeight
	pipelineConfig.Search.SemanticWeight = cfg.Rag.SemanticWeight
	pipelineConfig.RerankTopK = cfg.Rag.RerankTopK
	pipelineConfig.UseFastRerank = cfg.Rag.UseFastRerank
	pipelineConfig.CacheThreshold = cfg.Rag.CacheThreshold
	pipeline := rag.NewPipeline(
		embedder,
		orchestrator,
		reranker,
		respCache,
		llmProvider,
		sysLogger,
		pipelineConfig,
	)

	// 5. Services
	publisherService := service.NewPublisherService(cfg.Keys.IngestTopic, pubSub)
	ingestionService := service.NewIngestionService(uowFactory, docChunker, embedder, sysLogger)
	consumerService := service.NewConsumerService(
		pubSub,
		cfg.Keys.IngestTopic,
		ingestionService,
	)

	documentService := service.NewDocumentService(uowFactory, publisherService)
	queryService := service.NewQueryService(orchestrator, pipeline)

	return &Container{
		DocumentService: documentService,
		QueryService:    queryService,
		ConsumerService: consumerService,
		Logger:          sysLogger,
	}
}
