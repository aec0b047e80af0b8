package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"log/slog"
	nethttp "net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"ollama-rag-relay/internal/config"
	"ollama-rag-relay/internal/handlers"
	"ollama-rag-relay/internal/http"
	"ollama-rag-relay/internal/llm"
	"ollama-rag-relay/internal/memory"
	"ollama-rag-relay/internal/metrics"
	"ollama-rag-relay/internal/storage"
	"ollama-rag-relay/internal/vectorstore"
)

func main() {
	cfg, err := config.LoadRAG()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	opts := &slog.HandlerOptions{
		Level: cfg.LogLevel,
	}
	var handler slog.Handler
	if cfg.LogFormat == "json" {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}
	slog.SetDefault(slog.New(handler))

	// Initialize database
	db, err := storage.New(cfg.DBPath)
	if err != nil {
		log.Fatalf("Failed to open database: %v", err)
	}
	defer func() {
		_ = db.Close()
	}()

	if err := storage.Migrate(db); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}
	slog.Info("Database initialized", "path", cfg.DBPath)

	ctx := context.Background()

	// Initialize Qdrant vector store
	vectorStore, err := vectorstore.NewQdrantStore(cfg.QdrantURL)
	if err != nil {
		log.Fatalf("Failed to create Qdrant client: %v", err)
	}
	defer func() {
		_ = vectorStore.Close()
	}()

	// Ensure collection exists with correct vector size
	if err := vectorStore.EnsureCollection(ctx, cfg.QdrantCollection, cfg.QdrantVectorSize); err != nil {
		log.Fatalf("Failed to ensure Qdrant collection: %v", err)
	}
	if info, err := vectorStore.GetCollectionInfo(ctx, cfg.QdrantCollection); err != nil {
		slog.Warn("Failed to read collection info", "collection", cfg.QdrantCollection, "error", err)
	} else {
		slog.Info("Qdrant collection ready",
			"collection", cfg.QdrantCollection,
			"vector_size", info.VectorSize,
			"points", info.PointsCount,
			"status", info.Status,
		)
	}

	embedder, err := newEmbedder(cfg)
	if err != nil {
		log.Fatalf("Failed to create embedding client: %v", err)
	}

	// Validate embedding client vector size (fail-fast)
	testEmbeddings, err := embedder.EmbedTexts(ctx, []string{"test"})
	if err != nil {
		log.Fatalf("Failed to validate embedding client: %v", err)
	}
	if len(testEmbeddings) == 0 || len(testEmbeddings[0]) != embedder.Dimensions() || embedder.Dimensions() != cfg.QdrantVectorSize {
		log.Fatalf("Embedding vector size mismatch: QDRANT_VECTOR_SIZE is %d, embedder reports %d", cfg.QdrantVectorSize, embedder.Dimensions())
	}
	slog.Info("Embedding client validated", "provider", cfg.EmbeddingProvider, "model", cfg.EmbeddingModel, "vector_size", cfg.QdrantVectorSize)

	m := metrics.New("rag")
	memories := storage.NewMemoryRepo(db)
	if count, err := memories.Count(ctx); err == nil {
		slog.Info("Memory store loaded", "memories", count)
	}

	memoryService := memory.NewService(embedder, vectorStore, memories, cfg.QdrantCollection, cfg.TopK, m)

	router := http.NewRAGRouter(&http.RAGDeps{
		Memory: memoryService,
		HealthChecks: map[string]handlers.HealthCheck{
			"vector_store": func(ctx context.Context) error {
				exists, err := vectorStore.CollectionExists(ctx, cfg.QdrantCollection)
				if err != nil {
					return err
				}
				if !exists {
					return fmt.Errorf("collection %s does not exist", cfg.QdrantCollection)
				}
				return nil
			},
			"database": db.PingContext,
		},
		Metrics: m,
	})

	server := &nethttp.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	sigCtx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		slog.Info("Starting retrieval server", "addr", server.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, nethttp.ErrServerClosed) {
			log.Fatalf("Retrieval server failed to start: %v", err)
		}
	}()

	<-sigCtx.Done()
	slog.Info("Shutting down gracefully")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		slog.Error("HTTP server shutdown failed", "error", err)
	}
	slog.Info("Server stopped")
}

func newEmbedder(cfg *config.RAGConfig) (memory.Embedder, error) {
	httpClient := &nethttp.Client{Timeout: 60 * time.Second}
	switch cfg.EmbeddingProvider {
	case "openai":
		return llm.NewEmbeddingsClient(cfg.EmbeddingBaseURL, cfg.EmbeddingAPIKey, cfg.EmbeddingModel, cfg.QdrantVectorSize), nil
	default:
		return llm.NewOllamaEmbedder(cfg.EmbeddingBaseURL, cfg.EmbeddingModel, cfg.QdrantVectorSize, httpClient)
	}
}
