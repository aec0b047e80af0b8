package handlers

import (
	"context"
	"encoding/json"
	"net/http"

	"ollama-rag-relay/internal/contextutil"
)

// TagsFetcher lists the models installed on the inference backend.
type TagsFetcher interface {
	ListTags(ctx context.Context) (json.RawMessage, error)
}

// TagsHandler relays the inference backend's model catalog.
type TagsHandler struct {
	baseURL string
	fetcher TagsFetcher
}

// NewTagsHandler creates a TagsHandler. An empty baseURL makes every request
// fail without contacting the backend.
func NewTagsHandler(baseURL string, fetcher TagsFetcher) *TagsHandler {
	return &TagsHandler{
		baseURL: baseURL,
		fetcher: fetcher,
	}
}

// ServeHTTP returns the backend's /api/tags JSON body unchanged.
func (h *TagsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := contextutil.LoggerFromContext(ctx)

	if h.baseURL == "" {
		logger.ErrorContext(ctx, "OLLAMA_URL is not configured")
		writeError(ctx, w, http.StatusInternalServerError, "OLLAMA_URL is missing")
		return
	}

	tags, err := h.fetcher.ListTags(ctx)
	if err != nil {
		logger.ErrorContext(ctx, "failed to fetch tags", "error", err)
		writeError(ctx, w, http.StatusInternalServerError, "Failed to fetch tags")
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(tags); err != nil {
		logger.DebugContext(ctx, "failed to write tags response", "error", err)
	}
}
