package datastream

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/google/uuid"
)

// Data stream part type codes.
const (
	partText       = "0"
	partError      = "3"
	partStartStep  = "f"
	partFinishStep = "e"
	partFinish     = "d"
)

// DataStreamWriter encodes a reply in the data stream protocol: one
// "<code>:<json>\n" line per part.
type DataStreamWriter struct {
	w         http.ResponseWriter
	messageID string
	started   bool
}

// NewDataStreamWriter creates a writer with a fresh message id.
func NewDataStreamWriter(w http.ResponseWriter) *DataStreamWriter {
	return &DataStreamWriter{
		w:         w,
		messageID: "msg-" + uuid.NewString(),
	}
}

// MessageID returns the id announced in the start-step part.
func (s *DataStreamWriter) MessageID() string {
	return s.messageID
}

// Started reports whether headers have been committed.
func (s *DataStreamWriter) Started() bool {
	return s.started
}

// Start commits a 200 response with the data stream headers and announces the message.
func (s *DataStreamWriter) Start() error {
	if s.started {
		return nil
	}
	s.started = true

	h := s.w.Header()
	h.Set("Content-Type", "text/plain; charset=utf-8")
	h.Set("X-Vercel-AI-Data-Stream", "v1")
	h.Set("Cache-Control", "no-cache")
	h.Set("Connection", "keep-alive")
	s.w.WriteHeader(http.StatusOK)

	return s.part(partStartStep, map[string]string{"messageId": s.messageID})
}

// Text writes one text delta.
func (s *DataStreamWriter) Text(chunk string) error {
	if err := s.Start(); err != nil {
		return err
	}
	return s.part(partText, chunk)
}

// Error writes an error part.
func (s *DataStreamWriter) Error(message string) error {
	if err := s.Start(); err != nil {
		return err
	}
	return s.part(partError, message)
}

type finishStep struct {
	FinishReason string `json:"finishReason"`
	Usage        Usage  `json:"usage"`
	IsContinued  bool   `json:"isContinued"`
}

type finishMessage struct {
	FinishReason string `json:"finishReason"`
	Usage        Usage  `json:"usage"`
}

// Finish closes the step and the message.
func (s *DataStreamWriter) Finish(finishReason string, usage Usage) error {
	if err := s.Start(); err != nil {
		return err
	}
	if err := s.part(partFinishStep, finishStep{FinishReason: finishReason, Usage: usage}); err != nil {
		return err
	}
	return s.part(partFinish, finishMessage{FinishReason: finishReason, Usage: usage})
}

func (s *DataStreamWriter) part(code string, v any) error {
	payload, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to encode stream part %s: %w", code, err)
	}
	if _, err := fmt.Fprintf(s.w, "%s:%s\n", code, payload); err != nil {
		return err
	}
	flush(s.w)
	return nil
}
