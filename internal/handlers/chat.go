package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"ollama-rag-relay/internal/contextutil"
	"ollama-rag-relay/internal/datastream"
	"ollama-rag-relay/internal/service"
)

const chatFailedMessage = "Failed to process chat request"

// ChatHandler handles HTTP requests for chat.
type ChatHandler struct {
	chatService service.ChatService
}

// NewChatHandler creates a new ChatHandler.
func NewChatHandler(chatService service.ChatService) *ChatHandler {
	return &ChatHandler{
		chatService: chatService,
	}
}

// ChatRequest represents the HTTP request payload for chat.
type ChatRequest struct {
	Messages      []ChatMessage `json:"messages"`
	SelectedModel string        `json:"selectedModel"`
	Data          *ChatData     `json:"data,omitempty"`
}

// ChatData carries attachments sent alongside the conversation.
type ChatData struct {
	Images []string `json:"images,omitempty"`
}

// ChatMessage is one conversation turn as sent by the chat client.
type ChatMessage struct {
	Role    string         `json:"role"`
	Content MessageContent `json:"content"`
}

// MessageContent is either a plain string or an array of typed parts on the wire.
type MessageContent []ContentPart

// ContentPart is one element of multi-part message content.
type ContentPart struct {
	Type  string `json:"type"`
	Text  string `json:"text,omitempty"`
	Image string `json:"image,omitempty"`
}

// UnmarshalJSON accepts a string, an array of parts, or null.
func (c *MessageContent) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*c = nil
		return nil
	}
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*c = MessageContent{{Type: string(service.PartText), Text: s}}
		return nil
	}
	var parts []ContentPart
	if err := json.Unmarshal(data, &parts); err != nil {
		return fmt.Errorf("content must be a string or an array of parts: %w", err)
	}
	*c = parts
	return nil
}

// toServiceRequest converts the wire request. Parts other than text and image are dropped.
func (r ChatRequest) toServiceRequest() service.ChatRequest {
	req := service.ChatRequest{
		Model:    r.SelectedModel,
		Messages: make([]service.Message, 0, len(r.Messages)),
	}
	for _, m := range r.Messages {
		msg := service.Message{Role: service.Role(m.Role)}
		for _, p := range m.Content {
			switch service.PartType(p.Type) {
			case service.PartText:
				msg.Parts = append(msg.Parts, service.ContentPart{Type: service.PartText, Text: p.Text})
			case service.PartImage:
				msg.Parts = append(msg.Parts, service.ContentPart{Type: service.PartImage, Image: p.Image})
			}
		}
		req.Messages = append(req.Messages, msg)
	}
	if r.Data != nil {
		req.Images = r.Data.Images
	}
	return req
}

// ServeHTTP streams a retrieval-augmented reply to the last message.
// Headers are committed with the first token, so any failure before it is
// still reported with an HTTP error status.
func (h *ChatHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := contextutil.LoggerFromContext(ctx)

	if r.Method != http.MethodPost {
		logger.WarnContext(ctx, "method not allowed", "method", r.Method)
		writeError(ctx, w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	var req ChatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logger.WarnContext(ctx, "invalid request body", "error", err)
		writeError(ctx, w, http.StatusBadRequest, "Invalid request body")
		return
	}

	stream := datastream.New(w, r)
	completion, err := h.chatService.StreamChat(ctx, req.toServiceRequest(), stream.Text)
	if err != nil {
		if !stream.Started() {
			h.handleServiceError(ctx, w, err)
			return
		}
		logger.ErrorContext(ctx, "chat stream interrupted", "error", err)
		if werr := stream.Error(datastream.ErrorMessage); werr != nil {
			logger.DebugContext(ctx, "failed to write error part", "error", werr)
		}
		return
	}

	err = stream.Finish(completion.FinishReason, datastream.Usage{
		PromptTokens:     completion.PromptTokens,
		CompletionTokens: completion.CompletionTokens,
	})
	if err != nil {
		logger.DebugContext(ctx, "failed to write finish parts", "error", err)
	}
}

// handleServiceError maps service errors to HTTP status codes and responses.
// Upstream details are logged, never returned.
func (h *ChatHandler) handleServiceError(ctx context.Context, w http.ResponseWriter, err error) {
	logger := contextutil.LoggerFromContext(ctx)

	var validationErr *service.ValidationError
	if errors.As(err, &validationErr) {
		logger.WarnContext(ctx, "chat request rejected", "error", err)
		writeError(ctx, w, http.StatusBadRequest, fmt.Sprintf("Validation error: %s: %s", validationErr.Field, validationErr.Message))
		return
	}

	if errors.Is(err, service.ErrInvalidInput) {
		logger.WarnContext(ctx, "chat request rejected", "error", err)
		writeError(ctx, w, http.StatusBadRequest, "Invalid input")
		return
	}

	logger.ErrorContext(ctx, "service error", "error", err)
	writeError(ctx, w, http.StatusInternalServerError, chatFailedMessage)
}
