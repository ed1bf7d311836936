package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"ai-knowledge-core/internal/bootstrap"
	"ai-knowledge-core/internal/config"
	"ai-knowledge-core/internal/tracer"
	"ai-knowledge-core/pkg/database"
)

func main() {
	// 0. Initialize Tracer (no-op unless OTEL_ENABLED=true)
	shutdownTracer := tracer.InitTracer()
	defer shutdownTracer(context.Background())

	// 1. Load Configuration
	cfg := config.Load()

	// 2. Initialize Database
	gormDB, err := database.NewGormDBFromDSN(cfg.Database.Connection)
	if err != nil {
		log.Panicf("Unable to connect to GORM DB: %v", err)
	}

	// 3. Bootstrap Dependencies (Container)
	container := bootstrap.NewContainer(gormDB, cfg)
	defer container.Logger.Sync()

	// 4. Start Consumer
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	log.Println("Starting Ingestion Consumer...")
	if err := container.ConsumerService.Consume(ctx); err != nil {
		log.Fatalf("Consumer failed to start: %v", err)
	}

	// 5. Block until shutdown signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down worker...")
}
