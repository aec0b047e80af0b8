package main

import (
	"context"
	"errors"
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
	"ollama-rag-relay/internal/metrics"
	"ollama-rag-relay/internal/ragclient"
	"ollama-rag-relay/internal/service"
	"ollama-rag-relay/internal/worker"
)

func main() {
	// Load configuration first (needed for log level)
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Configure structured logging with configurable level and format
	opts := &slog.HandlerOptions{
		Level: cfg.LogLevel,
	}
	var handler slog.Handler
	if cfg.LogFormat == "json" {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}
	logger := slog.New(handler)
	slog.SetDefault(logger)
	slog.Debug("Logging configured", "level", cfg.LogLevel.String(), "format", cfg.LogFormat)

	if cfg.OllamaURL == "" {
		slog.Warn("OLLAMA_URL is not set; chat and tags requests will fail until it is configured")
	}

	m := metrics.New("relay")

	// Background store tasks outlive the request that scheduled them
	pool := worker.NewPool(cfg.BackgroundWorkers, cfg.StoreTimeout, m.ObserveTask)

	// No client timeout: chat streams run as long as the model generates
	httpClient := &nethttp.Client{}

	inference, err := llm.NewOllamaClient(cfg.OllamaURL, httpClient)
	if err != nil {
		log.Fatalf("Failed to create inference client: %v", err)
	}
	retrieval := ragclient.NewClient(cfg.RAGServerURL, &nethttp.Client{Timeout: 30 * time.Second})
	images := llm.NewImageResolver(&nethttp.Client{Timeout: 30 * time.Second}, cfg.ImageMaxBytes)
	tags := llm.NewTagsClient(cfg.OllamaURL, &nethttp.Client{Timeout: 30 * time.Second})

	chatService := service.NewChatService(inference, retrieval, images, pool, m)

	healthChecks := map[string]handlers.HealthCheck{
		"retrieval": retrieval.Ping,
	}
	if cfg.OllamaURL != "" {
		healthChecks["inference"] = inference.Ping
	}

	router := http.NewRouter(&http.Deps{
		ChatService:  chatService,
		Tags:         tags,
		OllamaURL:    cfg.OllamaURL,
		HealthChecks: healthChecks,
		Metrics:      m,
	})

	server := &nethttp.Server{
		Addr:              ":" + cfg.APIPort,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		slog.Info("Starting API server", "addr", server.Addr)
		slog.Debug("Upstream configuration", "ollama_url", cfg.OllamaURL, "rag_server_url", cfg.RAGServerURL)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, nethttp.ErrServerClosed) {
			log.Fatalf("API server failed to start: %v", err)
		}
	}()

	<-ctx.Done()
	slog.Info("Shutting down gracefully")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.StoreTimeout+5*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		slog.Error("HTTP server shutdown failed", "error", err)
	}
	if err := pool.Shutdown(shutdownCtx); err != nil {
		slog.Error("Background tasks did not finish before shutdown", "error", err)
	}
	slog.Info("Server stopped")
}
