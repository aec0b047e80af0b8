// Package datastream writes a streamed chat reply to an HTTP response.
//
// Two encodings are supported: the line-based AI SDK data stream protocol (v1),
// which chat UIs built on the AI SDK consume directly, and Server-Sent Events.
package datastream

import (
	"net/http"
	"strings"
)

// ErrorMessage is the text sent to clients when generation fails mid-stream.
// Upstream details stay in the server logs.
const ErrorMessage = "An error occurred."

// Usage is the token accounting reported when a stream finishes.
type Usage struct {
	PromptTokens     int `json:"promptTokens"`
	CompletionTokens int `json:"completionTokens"`
}

// Stream writes one assistant reply. Start commits the response headers; every
// other method flushes its part to the client immediately.
type Stream interface {
	Start() error
	Text(chunk string) error
	Error(message string) error
	Finish(finishReason string, usage Usage) error
	// Started reports whether headers have been committed.
	Started() bool
}

// New picks the encoding from the request's Accept header.
// Clients asking for text/event-stream get SSE; everyone else gets the data stream protocol.
func New(w http.ResponseWriter, r *http.Request) Stream {
	if strings.Contains(r.Header.Get("Accept"), "text/event-stream") {
		return NewSSEWriter(w)
	}
	return NewDataStreamWriter(w)
}

func flush(w http.ResponseWriter) {
	if f, ok := w.(http.Flusher); ok {
		f.Flush()
	}
}
