// Package memory implements the retrieval service: storing chat exchanges as
// embeddings and returning the most similar ones for a query.
package memory

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"ollama-rag-relay/internal/contextutil"
	"ollama-rag-relay/internal/metrics"
	"ollama-rag-relay/internal/storage"
	"ollama-rag-relay/internal/vectorstore"
)

// SourceUser marks memories stored from chat exchanges.
const SourceUser = "user"

// ErrEmptyText is returned when asked to store blank text.
var ErrEmptyText = errors.New("text cannot be empty")

// Embedder produces one vector per input text.
type Embedder interface {
	EmbedTexts(ctx context.Context, texts []string) ([][]float32, error)
	// Dimensions is the length of every vector EmbedTexts returns.
	Dimensions() int
}

// Service stores and retrieves memories.
type Service struct {
	embedder   Embedder
	vectors    vectorstore.VectorStore
	memories   storage.MemoryStore
	normalizer *Normalizer
	collection string
	topK       int
	metrics    *metrics.Metrics
	now        func() time.Time
}

// NewService creates a memory service. Query returns at most topK snippets. m may be nil.
func NewService(embedder Embedder, vectors vectorstore.VectorStore, memories storage.MemoryStore, collection string, topK int, m *metrics.Metrics) *Service {
	return &Service{
		embedder:   embedder,
		vectors:    vectors,
		memories:   memories,
		normalizer: NewNormalizer(),
		collection: collection,
		topK:       topK,
		metrics:    m,
		now:        time.Now,
	}
}

// DocumentID derives the memory ID from its text, so storing the same text twice
// addresses the same record.
func DocumentID(text string) string {
	return uuid.NewSHA1(uuid.NameSpaceOID, []byte(text)).String()
}

// Query returns the stored texts most similar to text, best match first.
// Blank text matches nothing.
func (s *Service) Query(ctx context.Context, text string) (snippets []string, err error) {
	start := time.Now()
	defer func() { s.metrics.ObserveMemory("query", time.Since(start), err) }()

	logger := contextutil.LoggerFromContext(ctx)
	if strings.TrimSpace(text) == "" {
		return []string{}, nil
	}

	vec, err := s.embed(ctx, text)
	if err != nil {
		return nil, err
	}

	results, err := s.vectors.Search(ctx, s.collection, vec, s.topK)
	if err != nil {
		return nil, fmt.Errorf("vector search failed: %w", err)
	}

	ids := make([]string, 0, len(results))
	for _, r := range results {
		ids = append(ids, r.PointID)
	}
	rows, err := s.memories.GetByIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to load memories: %w", err)
	}

	snippets = make([]string, 0, len(results))
	for _, r := range results {
		m, ok := rows[r.PointID]
		if !ok {
			logger.WarnContext(ctx, "vector has no stored memory", "id", r.PointID)
			continue
		}
		snippets = append(snippets, m.Text)
	}

	logger.DebugContext(ctx, "memory query completed", "hits", len(results), "snippets", len(snippets))
	return snippets, nil
}

// Store embeds and saves text. It returns the memory ID.
// Storing text that is already present refreshes its vector and keeps the original record.
// A failed insert of a new record removes the vector written for it.
func (s *Service) Store(ctx context.Context, text string) (id string, err error) {
	start := time.Now()
	defer func() { s.metrics.ObserveMemory("store", time.Since(start), err) }()

	logger := contextutil.LoggerFromContext(ctx)
	if strings.TrimSpace(text) == "" {
		return "", ErrEmptyText
	}

	vec, err := s.embed(ctx, text)
	if err != nil {
		return "", err
	}

	id = DocumentID(text)
	now := s.now().UTC()

	existing, err := s.memories.GetByID(ctx, id)
	if err != nil && !errors.Is(err, storage.ErrNotFound) {
		return "", fmt.Errorf("failed to look up memory: %w", err)
	}

	err = s.vectors.Upsert(ctx, s.collection, []vectorstore.Point{{
		ID:  id,
		Vec: vec,
		Meta: map[string]any{
			"source":    SourceUser,
			"timestamp": now.Format(time.RFC3339),
		},
	}})
	if err != nil {
		return "", fmt.Errorf("failed to upsert vector: %w", err)
	}

	if existing != nil {
		logger.InfoContext(ctx, "memory refreshed", "id", id, "created_at", existing.CreatedAt)
		return id, nil
	}

	inserted, err := s.memories.Insert(ctx, &storage.Memory{
		ID:        id,
		Text:      text,
		Source:    SourceUser,
		CreatedAt: now,
	})
	if err != nil {
		// Don't leave a vector that can never resolve to text.
		if delErr := s.vectors.Delete(ctx, s.collection, []string{id}); delErr != nil {
			logger.WarnContext(ctx, "failed to remove orphaned vector", "id", id, "error", delErr)
		}
		return "", fmt.Errorf("failed to save memory: %w", err)
	}

	logger.InfoContext(ctx, "memory stored", "id", id, "new", inserted, "length", len(text))
	return id, nil
}

func (s *Service) embed(ctx context.Context, text string) ([]float32, error) {
	vecs, err := s.embedder.EmbedTexts(ctx, []string{s.normalizer.PlainText(text)})
	if err != nil {
		return nil, fmt.Errorf("failed to embed text: %w", err)
	}
	if len(vecs) != 1 {
		return nil, fmt.Errorf("expected 1 embedding, got %d", len(vecs))
	}
	if want := s.embedder.Dimensions(); len(vecs[0]) != want {
		return nil, fmt.Errorf("embedding has %d dimensions, collection expects %d", len(vecs[0]), want)
	}
	return vecs[0], nil
}
