package llm

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	ollama "github.com/ollama/ollama/api"
)

// OllamaEmbedder produces embeddings through Ollama's native /api/embed endpoint.
type OllamaEmbedder struct {
	Model        string
	ExpectedSize int
	client       *ollama.Client
}

// NewOllamaEmbedder creates an embedder for model served at baseURL.
func NewOllamaEmbedder(baseURL, model string, expectedSize int, httpClient *http.Client) (*OllamaEmbedder, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid Ollama URL %q: %w", baseURL, err)
	}
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &OllamaEmbedder{
		Model:        model,
		ExpectedSize: expectedSize,
		client:       ollama.NewClient(u, httpClient),
	}, nil
}

// Dimensions returns the vector size this embedder produces.
func (e *OllamaEmbedder) Dimensions() int {
	return e.ExpectedSize
}

// EmbedTexts returns one vector per input text, in input order.
func (e *OllamaEmbedder) EmbedTexts(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, fmt.Errorf("empty input array")
	}

	res, err := e.client.Embed(ctx, &ollama.EmbedRequest{
		Model: e.Model,
		Input: texts,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to embed: %w", err)
	}

	if len(res.Embeddings) != len(texts) {
		return nil, fmt.Errorf("expected %d embeddings, got %d", len(texts), len(res.Embeddings))
	}
	for i, vec := range res.Embeddings {
		if len(vec) != e.ExpectedSize {
			return nil, fmt.Errorf("embedding %d has size %d, expected %d", i, len(vec), e.ExpectedSize)
		}
	}

	return res.Embeddings, nil
}
