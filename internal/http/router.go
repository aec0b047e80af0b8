package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"ollama-rag-relay/internal/handlers"
	"ollama-rag-relay/internal/metrics"
	"ollama-rag-relay/internal/service"
)

// Deps holds dependencies for the relay router.
type Deps struct {
	ChatService  service.ChatService
	Tags         handlers.TagsFetcher
	OllamaURL    string
	HealthChecks map[string]handlers.HealthCheck
	Metrics      *metrics.Metrics
}

// RAGDeps holds dependencies for the retrieval service router.
type RAGDeps struct {
	Memory       handlers.MemoryService
	HealthChecks map[string]handlers.HealthCheck
	Metrics      *metrics.Metrics
}

func baseRouter(m *metrics.Metrics) chi.Router {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(LoggerMiddleware)
	r.Use(RequestLogger)
	r.Use(middleware.Recoverer)
	r.Use(MetricsMiddleware(m))
	r.Use(CORS)

	r.Method(http.MethodGet, "/metrics", m.Handler())
	return r
}

// NewRouter creates the relay API router.
func NewRouter(deps *Deps) http.Handler {
	r := baseRouter(deps.Metrics)

	chatHandler := handlers.NewChatHandler(deps.ChatService)
	tagsHandler := handlers.NewTagsHandler(deps.OllamaURL, deps.Tags)
	healthHandler := handlers.NewHealthHandler(deps.HealthChecks)

	r.Route("/api", func(r chi.Router) {
		r.Method(http.MethodPost, "/chat", chatHandler)
		r.Method(http.MethodGet, "/tags", tagsHandler)
		r.Method(http.MethodGet, "/health", healthHandler)
	})

	return r
}

// NewRAGRouter creates the retrieval service router.
func NewRAGRouter(deps *RAGDeps) http.Handler {
	r := baseRouter(deps.Metrics)

	ragHandler := handlers.NewRAGHandler(deps.Memory)
	healthHandler := handlers.NewHealthHandler(deps.HealthChecks)

	r.Route("/rag", func(r chi.Router) {
		r.Post("/query", ragHandler.Query)
		r.Post("/store", ragHandler.Store)
	})
	r.Method(http.MethodGet, "/health", healthHandler)

	return r
}
