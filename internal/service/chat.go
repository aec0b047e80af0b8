package service

//go:generate go run go.uber.org/mock/mockgen@latest -destination=mocks/mock_inference_client.go -package=mocks ollama-rag-relay/internal/service InferenceClient
//go:generate go run go.uber.org/mock/mockgen@latest -destination=mocks/mock_retrieval_client.go -package=mocks ollama-rag-relay/internal/service RetrievalClient
//go:generate go run go.uber.org/mock/mockgen@latest -destination=mocks/mock_image_resolver.go -package=mocks ollama-rag-relay/internal/service ImageResolver
//go:generate go run go.uber.org/mock/mockgen@latest -destination=mocks/mock_chat_service.go -package=mocks -mock_names=ChatService=MockChatService ollama-rag-relay/internal/service ChatService

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"ollama-rag-relay/internal/contextutil"
	"ollama-rag-relay/internal/llm"
	"ollama-rag-relay/internal/metrics"
	"ollama-rag-relay/internal/worker"
)

// StoreTaskName labels background store tasks in logs and metrics.
const StoreTaskName = "rag_store"

// InferenceClient streams completions from the inference backend.
// This interface is defined from the service layer's perspective (consumer-first).
type InferenceClient interface {
	// StreamChat sends the ordered messages to model and streams the reply via callback.
	StreamChat(ctx context.Context, model string, messages []llm.Message, callback func(chunk string) error) (llm.ChatResult, error)
}

// RetrievalClient reads and writes the retrieval service's memory.
type RetrievalClient interface {
	Query(ctx context.Context, text string) ([]string, error)
	Store(ctx context.Context, text string) error
}

// ImageResolver turns an image URL into bytes the inference backend accepts.
type ImageResolver interface {
	Resolve(ctx context.Context, ref string) ([]byte, error)
}

// TaskSubmitter runs work in the background without blocking the caller.
type TaskSubmitter interface {
	Submit(ctx context.Context, name string, task worker.Task) error
}

// ChatService provides retrieval-augmented streaming chat.
type ChatService interface {
	// StreamChat answers the last message of req, streaming the reply via callback.
	// On success the exchange is queued for storage in the retrieval service.
	StreamChat(ctx context.Context, req ChatRequest, callback func(chunk string) error) (Completion, error)
}

// chatService implements ChatService.
type chatService struct {
	inference InferenceClient
	retrieval RetrievalClient
	images    ImageResolver
	tasks     TaskSubmitter
	metrics   *metrics.Metrics
}

// NewChatService creates a new ChatService. m may be nil.
func NewChatService(inference InferenceClient, retrieval RetrievalClient, images ImageResolver, tasks TaskSubmitter, m *metrics.Metrics) ChatService {
	return &chatService{
		inference: inference,
		retrieval: retrieval,
		images:    images,
		tasks:     tasks,
		metrics:   m,
	}
}

// StreamChat processes a chat request and streams the response.
func (s *chatService) StreamChat(ctx context.Context, req ChatRequest, callback func(chunk string) error) (Completion, error) {
	logger := contextutil.LoggerFromContext(ctx)

	if err := validateChatRequest(req); err != nil {
		logger.WarnContext(ctx, "invalid chat request", "error", err)
		s.metrics.ObserveChat(metrics.OutcomeRejected, 0)
		return Completion{}, err
	}

	last := req.Messages[len(req.Messages)-1]
	currentText := last.Text()

	snippets, err := s.retrieval.Query(ctx, currentText)
	s.metrics.ObserveRetrieval("query", err)
	if err != nil {
		logger.ErrorContext(ctx, "failed to query retrieval service", "error", err)
		s.metrics.ObserveChat(metrics.OutcomeFailed, 0)
		return Completion{}, externalError(err, "failed to query retrieval service")
	}
	logger.DebugContext(ctx, "retrieved context", "snippets", len(snippets))

	messages, err := s.buildMessages(ctx, req, BuildPrompt(snippets, currentText))
	if err != nil {
		logger.WarnContext(ctx, "failed to prepare messages", "error", err)
		s.metrics.ObserveChat(outcomeFor(err), 0)
		return Completion{}, err
	}

	chunks := 0
	result, err := s.inference.StreamChat(ctx, req.Model, messages, func(chunk string) error {
		chunks++
		return callback(chunk)
	})
	if err != nil {
		logger.ErrorContext(ctx, "failed to stream LLM response", "error", err, "model", req.Model, "chunks", chunks)
		s.metrics.ObserveChat(metrics.OutcomeFailed, chunks)
		return Completion{}, externalError(err, "failed to stream LLM response")
	}
	s.metrics.ObserveChat(metrics.OutcomeCompleted, chunks)

	s.storeExchange(ctx, memoryEntry(currentText, result.Text))

	logger.InfoContext(ctx, "streaming chat request processed successfully",
		"model", req.Model,
		"history", len(req.Messages)-1,
		"snippets", len(snippets),
		"chunks", chunks,
		"finish_reason", result.FinishReason,
	)
	return Completion{
		Text:             result.Text,
		FinishReason:     result.FinishReason,
		PromptTokens:     result.PromptTokens,
		CompletionTokens: result.CompletionTokens,
	}, nil
}

// buildMessages converts history as-is and replaces the last turn with a user
// message carrying the augmented prompt and every attached image.
func (s *chatService) buildMessages(ctx context.Context, req ChatRequest, prompt string) ([]llm.Message, error) {
	history := req.Messages[:len(req.Messages)-1]
	out := make([]llm.Message, 0, len(req.Messages))

	for i, m := range history {
		images, err := s.resolveImages(ctx, fmt.Sprintf("messages[%d]", i), m.ImageURLs())
		if err != nil {
			return nil, err
		}
		out = append(out, llm.Message{
			Role:    string(m.Role),
			Content: m.Text(),
			Images:  images,
		})
	}

	last := req.Messages[len(req.Messages)-1]
	own, err := s.resolveImages(ctx, fmt.Sprintf("messages[%d]", len(history)), last.ImageURLs())
	if err != nil {
		return nil, err
	}
	attached, err := s.resolveImages(ctx, "data.images", req.Images)
	if err != nil {
		return nil, err
	}

	out = append(out, llm.Message{
		Role:    string(RoleUser),
		Content: prompt,
		Images:  append(own, attached...),
	})
	return out, nil
}

func (s *chatService) resolveImages(ctx context.Context, field string, refs []string) ([][]byte, error) {
	if len(refs) == 0 {
		return nil, nil
	}
	images := make([][]byte, 0, len(refs))
	for _, ref := range refs {
		data, err := s.images.Resolve(ctx, ref)
		if err != nil {
			if errors.Is(err, llm.ErrInvalidImageURL) {
				return nil, &ValidationError{Field: field, Message: err.Error()}
			}
			return nil, externalError(err, "failed to resolve image")
		}
		images = append(images, data)
	}
	return images, nil
}

// storeExchange queues the exchange for the retrieval store. Failures are logged, never returned.
func (s *chatService) storeExchange(ctx context.Context, entry string) {
	err := s.tasks.Submit(ctx, StoreTaskName, func(taskCtx context.Context) error {
		err := s.retrieval.Store(taskCtx, entry)
		s.metrics.ObserveRetrieval("store", err)
		return err
	})
	if err != nil {
		contextutil.LoggerFromContext(ctx).WarnContext(ctx, "failed to queue retrieval store", "error", err)
		s.metrics.ObserveTask(StoreTaskName, err)
	}
}

func validateChatRequest(req ChatRequest) error {
	if len(req.Messages) == 0 {
		return &ValidationError{Field: "messages", Message: "cannot be empty"}
	}
	for i, m := range req.Messages {
		if !m.Role.Valid() {
			return &ValidationError{
				Field:   fmt.Sprintf("messages[%d].role", i),
				Message: fmt.Sprintf("unknown role %q", m.Role),
			}
		}
	}
	if req.Model == "" {
		return &ValidationError{Field: "selectedModel", Message: "cannot be empty"}
	}
	last := req.Messages[len(req.Messages)-1]
	if strings.TrimSpace(last.Text()) == "" && len(last.ImageURLs()) == 0 && len(req.Images) == 0 {
		return fmt.Errorf("%w: last message has no text or images", ErrInvalidInput)
	}
	return nil
}

func outcomeFor(err error) string {
	var validationErr *ValidationError
	if errors.As(err, &validationErr) || errors.Is(err, ErrInvalidInput) {
		return metrics.OutcomeRejected
	}
	return metrics.OutcomeFailed
}
