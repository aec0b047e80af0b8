package llm

// Message represents a single message sent to the inference backend.
// Images hold raw image bytes; the backend client handles transport encoding.
type Message struct {
	Role    string
	Content string
	Images  [][]byte
}

// ChatResult summarises a finished streamed completion.
type ChatResult struct {
	// Text is the full generated reply, the concatenation of every streamed chunk.
	Text string

	// FinishReason is one of "stop", "length" or "other".
	FinishReason string

	PromptTokens     int
	CompletionTokens int
}
