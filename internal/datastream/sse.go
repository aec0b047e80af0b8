package datastream

import (
	"encoding/json"
	"fmt"
	"net/http"
)

// SSEWriter encodes a reply as Server-Sent Events terminated by "data: [DONE]".
type SSEWriter struct {
	w       http.ResponseWriter
	started bool
}

// NewSSEWriter creates an SSE writer.
func NewSSEWriter(w http.ResponseWriter) *SSEWriter {
	return &SSEWriter{w: w}
}

type sseEvent struct {
	Type         string `json:"type"`
	Text         string `json:"text,omitempty"`
	Error        string `json:"error,omitempty"`
	FinishReason string `json:"finishReason,omitempty"`
	Usage        *Usage `json:"usage,omitempty"`
}

// Started reports whether headers have been committed.
func (s *SSEWriter) Started() bool {
	return s.started
}

// Start commits a 200 response with the event-stream headers.
func (s *SSEWriter) Start() error {
	if s.started {
		return nil
	}
	s.started = true

	h := s.w.Header()
	h.Set("Content-Type", "text/event-stream")
	h.Set("Cache-Control", "no-cache")
	h.Set("Connection", "keep-alive")
	s.w.WriteHeader(http.StatusOK)
	flush(s.w)
	return nil
}

// Text writes one text delta.
func (s *SSEWriter) Text(chunk string) error {
	return s.event(sseEvent{Type: "text", Text: chunk})
}

// Error writes an error event.
func (s *SSEWriter) Error(message string) error {
	return s.event(sseEvent{Type: "error", Error: message})
}

// Finish writes the finish event followed by the [DONE] sentinel.
func (s *SSEWriter) Finish(finishReason string, usage Usage) error {
	if err := s.event(sseEvent{Type: "finish", FinishReason: finishReason, Usage: &usage}); err != nil {
		return err
	}
	if _, err := fmt.Fprint(s.w, "data: [DONE]\n\n"); err != nil {
		return err
	}
	flush(s.w)
	return nil
}

func (s *SSEWriter) event(ev sseEvent) error {
	if err := s.Start(); err != nil {
		return err
	}
	// JSON encoding keeps newlines inside chunks from breaking SSE framing.
	payload, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("failed to encode event: %w", err)
	}
	if _, err := fmt.Fprintf(s.w, "data: %s\n\n", payload); err != nil {
		return err
	}
	flush(s.w)
	return nil
}
