package llm

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	ollama "github.com/ollama/ollama/api"
)

// OllamaClient streams chat completions from an Ollama server.
type OllamaClient struct {
	BaseURL string
	client  *ollama.Client
}

// NewOllamaClient creates a new inference client for baseURL (e.g. "http://localhost:11434").
// An empty baseURL is accepted; requests made with it fail at the transport.
func NewOllamaClient(baseURL string, httpClient *http.Client) (*OllamaClient, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid Ollama URL %q: %w", baseURL, err)
	}
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &OllamaClient{
		BaseURL: baseURL,
		client:  ollama.NewClient(u, httpClient),
	}, nil
}

// StreamChat sends the ordered message list to model and calls callback for each generated chunk.
// It returns once the backend reports completion; the result carries the full reply text.
func (c *OllamaClient) StreamChat(ctx context.Context, model string, messages []Message, callback func(chunk string) error) (ChatResult, error) {
	req := &ollama.ChatRequest{
		Model:    model,
		Messages: toOllamaMessages(messages),
	}

	var (
		text strings.Builder
		last ollama.ChatResponse
	)
	err := c.client.Chat(ctx, req, func(resp ollama.ChatResponse) error {
		if chunk := resp.Message.Content; chunk != "" {
			text.WriteString(chunk)
			if err := callback(chunk); err != nil {
				return fmt.Errorf("callback error: %w", err)
			}
		}
		if resp.Done {
			last = resp
		}
		return nil
	})
	if err != nil {
		return ChatResult{Text: text.String()}, fmt.Errorf("failed to stream chat: %w", err)
	}

	return ChatResult{
		Text:             text.String(),
		FinishReason:     finishReason(last.DoneReason),
		PromptTokens:     last.PromptEvalCount,
		CompletionTokens: last.EvalCount,
	}, nil
}

// Ping checks that the Ollama server is reachable.
func (c *OllamaClient) Ping(ctx context.Context) error {
	if err := c.client.Heartbeat(ctx); err != nil {
		return fmt.Errorf("ollama heartbeat failed: %w", err)
	}
	return nil
}

func toOllamaMessages(messages []Message) []ollama.Message {
	out := make([]ollama.Message, 0, len(messages))
	for _, m := range messages {
		msg := ollama.Message{
			Role:    m.Role,
			Content: m.Content,
		}
		for _, img := range m.Images {
			msg.Images = append(msg.Images, ollama.ImageData(img))
		}
		out = append(out, msg)
	}
	return out
}

func finishReason(doneReason string) string {
	switch doneReason {
	case "", "stop":
		return "stop"
	case "length":
		return "length"
	default:
		return "other"
	}
}
