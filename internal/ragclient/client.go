package ragclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
)

// Client talks to the retrieval service over HTTP.
type Client struct {
	BaseURL string
	client  *http.Client
}

// NewClient creates a retrieval client for baseURL (e.g. "http://localhost:8000").
func NewClient(baseURL string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Client{
		BaseURL: baseURL,
		client:  httpClient,
	}
}

type textRequest struct {
	Text string `json:"text"`
}

type queryResponse struct {
	Context json.RawMessage `json:"context"`
}

// Query returns the stored snippets most similar to text, in the order the service ranks them.
// A response whose "context" field is missing or not an array yields no snippets.
func (c *Client) Query(ctx context.Context, text string) ([]string, error) {
	body, err := c.post(ctx, "/rag/query", text)
	if err != nil {
		return nil, fmt.Errorf("rag query failed: %w", err)
	}

	var resp queryResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("failed to decode rag query response: %w", err)
	}

	var snippets []string
	if err := json.Unmarshal(resp.Context, &snippets); err != nil {
		return []string{}, nil
	}
	if snippets == nil {
		snippets = []string{}
	}
	return snippets, nil
}

// Store adds text to the retrieval service's memory.
func (c *Client) Store(ctx context.Context, text string) error {
	if _, err := c.post(ctx, "/rag/store", text); err != nil {
		return fmt.Errorf("rag store failed: %w", err)
	}
	return nil
}

// Ping checks that the retrieval service reports itself healthy.
func (c *Client) Ping(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.BaseURL+"/health", nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to reach retrieval service: %w", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("retrieval service unhealthy: %s", resp.Status)
	}
	return nil
}

func (c *Client) post(ctx context.Context, path, text string) ([]byte, error) {
	payload, err := json.Marshal(textRequest{Text: text})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+path, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("unexpected status %s: %s", resp.Status, string(body))
	}
	return body, nil
}
