package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
)

// TagsClient fetches the model catalog from an Ollama server.
// The catalog is returned as raw JSON so callers can pass it through unchanged.
type TagsClient struct {
	BaseURL string
	client  *http.Client
}

// NewTagsClient creates a new model catalog client.
func NewTagsClient(baseURL string, httpClient *http.Client) *TagsClient {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &TagsClient{
		BaseURL: baseURL,
		client:  httpClient,
	}
}

// ListTags issues GET {BaseURL}/api/tags and returns the body verbatim.
// A non-2xx status or a body that is not valid JSON is an error.
func (c *TagsClient) ListTags(ctx context.Context) (json.RawMessage, error) {
	url := fmt.Sprintf("%s/api/tags", c.BaseURL)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("fetch failed: %s", resp.Status)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}
	if !json.Valid(body) {
		return nil, fmt.Errorf("failed to decode response: invalid JSON")
	}

	return json.RawMessage(body), nil
}
