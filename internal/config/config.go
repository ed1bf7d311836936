package config

import (
	"log"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

type Config struct {
	App      AppConfig
	Database DatabaseConfig
	Keys     APIKeys
	Ai       AIConfig
	Rag      RagConfig
}

type AppConfig struct {
	Environment string
	LogFilePath string
}

type DatabaseConfig struct {
	Connection string
}

type APIKeys struct {
	GoogleGemini string
	IngestTopic  string // Document ingestion topic
}

type AIConfig struct {
	EmbeddingProvider string // "gemini" or "ollama"
	EmbeddingModel    string
	OllamaBaseURL     string
	LLMProvider       string // "ollama" or "gemini"
	LLMModel          string // e.g. "llama3", "qwen2.5"
}

type RagConfig struct {
	// Chunker
	BlockSize         int
	MaxResponseTokens int

	// Embedder
	MaxTokensPerText  int
	MaxTokensPerBatch int

	// Search
	MatchCount          int
	SimilarityThreshold float64
	KeywordWeight       float64
	SemanticWeight      float64

	// Rerank
	RerankTopK    int
	UseFastRerank bool

	// Response cache
	CacheThreshold float64
}

func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("Note: .env file not found, usage system environment")
	}

	return &Config{
		App: AppConfig{
			Environment: getEnv("GO_ENV", "development"),
			LogFilePath: getEnv("LOG_FILE_PATH", "app.log"),
		},
		Database: DatabaseConfig{
			Connection: getEnv("DB_CONNECTION_STRING", ""),
		},
		Keys: APIKeys{
			GoogleGemini: getEnv("GOOGLE_GEMINI_API_KEY", ""),
			IngestTopic:  getEnv("INGEST_DOCUMENT_TOPIC_NAME", "INGEST_DOCUMENT"),
		},
		Ai: AIConfig{
			EmbeddingProvider: getEnv("EMBEDDING_PROVIDER", "ollama"),
			EmbeddingModel:    getEnv("EMBEDDING_MODEL", "nomic-embed-text"),
			OllamaBaseURL:     getEnv("OLLAMA_BASE_URL", "http://localhost:11434"),
			LLMProvider:       getEnv("LLM_PROVIDER", "ollama"),
			LLMModel:          getEnv("LLM_MODEL", "llama3"),
		},
		Rag: RagConfig{
			BlockSize:           getEnvAsInt("CHUNK_BLOCK_SIZE", 4000),
			MaxResponseTokens:   getEnvAsInt("CHUNK_MAX_RESPONSE_TOKENS", 4096),
			MaxTokensPerText:    getEnvAsInt("EMBED_MAX_TOKENS_PER_TEXT", 8000),
			MaxTokensPerBatch:   getEnvAsInt("EMBED_MAX_TOKENS_PER_BATCH", 16000),
			MatchCount:          getEnvAsInt("SEARCH_MATCH_COUNT", 10),
			SimilarityThreshold: getEnvAsFloat("SEARCH_SIMILARITY_THRESHOLD", 0.35),
			KeywordWeight:       getEnvAsFloat("SEARCH_KEYWORD_WEIGHT", 0.3),
			SemanticWeight:      getEnvAsFloat("SEARCH_SEMANTIC_WEIGHT", 0.7),
			RerankTopK:          getEnvAsInt("RERANK_TOP_K", 5),
			UseFastRerank:       getEnvAsBool("RERANK_USE_FAST", false),
			CacheThreshold:      getEnvAsFloat("RESPONSE_CACHE_THRESHOLD", 0.99),
		},
	}
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	strValue := getEnv(key, "")
	if value, err := strconv.Atoi(strValue); err == nil {
		return value
	}
	return fallback
}

func getEnvAsFloat(key string, fallback float64) float64 {
	strValue := getEnv(key, "")
	if value, err := strconv.ParseFloat(strValue, 64); err == nil {
		return value
	}
	return fallback
}

func getEnvAsBool(key string, fallback bool) bool {
	strValue := getEnv(key, "")
	if value, err := strconv.ParseBool(strValue); err == nil {
		return value
	}
	return fallback
}
