package main

import (
	"log"
	"os"

	"ai-knowledge-core/internal/model"
	"ai-knowledge-core/pkg/database"

	"github.com/joho/godotenv"
)

func main() {
	// 1. Load Environment Variables
	if err := godotenv.Load(); err != nil {
		log.Println("Info: No .env file found, using system env")
	}

	dsn := os.Getenv("DB_CONNECTION_STRING")
	if dsn == "" {
		log.Fatal("Error: DB_CONNECTION_STRING is not set")
	}

	// 2. Connect to Database using existing GORM helpers
	db, err := database.NewGormDBFromDSN(dsn)
	if err != nil {
		log.Fatal("Error: Failed to connect to database:", err)
	}

	log.Println("Starting Authoritative GORM Migration...")

	// 3. Pre-Migration: Extensions (Things GORM AutoMigrate doesn't do)
	log.Println("Step 1: Setting up Extensions...")

	setupSQL := []string{
		`CREATE EXTENSION IF NOT EXISTS pgcrypto;`,
		`CREATE EXTENSION IF NOT EXISTS vector;`,
	}

	for _, sql := range setupSQL {
		if err := db.Exec(sql).Error; err != nil {
			log.Printf("Warn: Failed to execute setup SQL: %v. Continuing...", err)
		}
	}

	// 4. AutoMigrate All Models
	log.Println("Step 2: Running AutoMigrate...")

	models := []interface{}{
		&model.Document{},
		&model.DocumentChunk{},
		&model.EmbeddingCacheEntry{},
		&model.ResponseCacheEntry{},
	}

	if err := db.AutoMigrate(models...); err != nil {
		log.Fatalf("Error: AutoMigrate failed: %v", err)
	}

	// 5. Post-Migration: Indexes & Functions
	log.Println("Step 3: Creating Indexes and Functions...")

	postMigrationSQL := []string{
		// ANN indexes for the vector columns. ivfflat needs rows to
		// train on; creation is retried by re-running this migration
		// after initial ingestion.
		`CREATE INDEX IF NOT EXISTS idx_document_chunks_embedding
		 ON document_chunks USING ivfflat (embedding vector_cosine_ops) WITH (lists = 100);`,
		`CREATE INDEX IF NOT EXISTS idx_response_cache_embedding
		 ON response_cache USING ivfflat (query_embedding vector_cosine_ops) WITH (lists = 100);`,

		// Full-text index backing the keyword part of hybrid search.
		`CREATE INDEX IF NOT EXISTS idx_document_chunks_content_fts
		 ON document_chunks USING gin (to_tsvector('english', content));`,

		// Function: hybrid_search_chunks
		// Blends keyword rank and cosine similarity with caller-supplied
		// weights. Absence of this function (SQLSTATE 42883) makes
		// callers fall back to vector-only search.
		`CREATE OR REPLACE FUNCTION hybrid_search_chunks(
		    query_text text,
		    query_embedding vector(1536),
		    match_count int,
		    kw_weight float8,
		    sem_weight float8,
		    source_filter text
		) RETURNS TABLE (
		    id uuid,
		    document_id uuid,
		    content text,
		    semantic_tag varchar,
		    sentiment varchar,
		    chunk_index int,
		    similarity float8
		) LANGUAGE sql STABLE AS $$
		    SELECT
		        dc.id,
		        dc.document_id,
		        dc.content,
		        dc.semantic_tag,
		        dc.sentiment,
		        dc.chunk_index,
		        LEAST(
		            kw_weight * COALESCE(ts_rank(to_tsvector('english', dc.content), plainto_tsquery('english', query_text)), 0)
		              + sem_weight * (1 - (dc.embedding <=> query_embedding)),
		            1.0
		        ) AS similarity
		    FROM document_chunks dc
		    JOIN documents d ON d.id = dc.document_id AND d.deleted_at IS NULL
		    WHERE dc.deleted_at IS NULL
		      AND (source_filter = '' OR d.source = source_filter)
		    ORDER BY similarity DESC
		    LIMIT match_count;
		$$;`,
	}

	for _, sql := range postMigrationSQL {
		if err := db.Exec(sql).Error; err != nil {
			log.Printf("Warn: Failed to execute post-migration SQL: %v", err)
		}
	}

	log.Println("✅ Success: Database migration completed successfully via GORM.")
}
