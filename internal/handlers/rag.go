package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"ollama-rag-relay/internal/contextutil"
	"ollama-rag-relay/internal/memory"
)

// MemoryService is the retrieval store behind the /rag routes.
type MemoryService interface {
	Query(ctx context.Context, text string) ([]string, error)
	Store(ctx context.Context, text string) (string, error)
}

// RAGHandler serves the retrieval service API.
type RAGHandler struct {
	memory MemoryService
}

// NewRAGHandler creates a new RAGHandler.
func NewRAGHandler(memory MemoryService) *RAGHandler {
	return &RAGHandler{memory: memory}
}

// RAGRequest is the body of both /rag routes.
type RAGRequest struct {
	Text string `json:"text"`
}

// RAGQueryResponse lists the stored texts most similar to the query.
type RAGQueryResponse struct {
	Context []string `json:"context"`
}

// RAGStoreResponse acknowledges a stored text.
type RAGStoreResponse struct {
	Status string `json:"status"`
}

// Query handles POST /rag/query.
func (h *RAGHandler) Query(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := contextutil.LoggerFromContext(ctx)

	req, ok := decodeRAGRequest(w, r)
	if !ok {
		return
	}

	snippets, err := h.memory.Query(ctx, req.Text)
	if err != nil {
		logger.ErrorContext(ctx, "memory query failed", "error", err)
		writeError(ctx, w, http.StatusInternalServerError, "Failed to query memory")
		return
	}
	if snippets == nil {
		snippets = []string{}
	}

	writeJSON(ctx, w, http.StatusOK, RAGQueryResponse{Context: snippets})
}

// Store handles POST /rag/store.
func (h *RAGHandler) Store(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := contextutil.LoggerFromContext(ctx)

	req, ok := decodeRAGRequest(w, r)
	if !ok {
		return
	}

	if _, err := h.memory.Store(ctx, req.Text); err != nil {
		if errors.Is(err, memory.ErrEmptyText) {
			logger.WarnContext(ctx, "empty text in store request")
			writeError(ctx, w, http.StatusBadRequest, "Validation error: text cannot be empty")
			return
		}
		logger.ErrorContext(ctx, "memory store failed", "error", err)
		writeError(ctx, w, http.StatusInternalServerError, "Failed to store memory")
		return
	}

	writeJSON(ctx, w, http.StatusOK, RAGStoreResponse{Status: "stored"})
}

func decodeRAGRequest(w http.ResponseWriter, r *http.Request) (RAGRequest, bool) {
	ctx := r.Context()
	var req RAGRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		contextutil.LoggerFromContext(ctx).WarnContext(ctx, "invalid request body", "error", err)
		writeError(ctx, w, http.StatusBadRequest, "Invalid request body")
		return req, false
	}
	return req, true
}
