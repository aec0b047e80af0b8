package service

import "strings"

// Role identifies the author of a conversation message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleSystem    Role = "system"
)

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	switch r {
	case RoleUser, RoleAssistant, RoleSystem:
		return true
	}
	return false
}

// PartType is the kind of a message content part.
type PartType string

const (
	PartText  PartType = "text"
	PartImage PartType = "image"
)

// ContentPart is one piece of a multi-part message.
// Text is set for text parts, Image holds the image URL for image parts.
type ContentPart struct {
	Type  PartType
	Text  string
	Image string
}

// Message is a single conversation turn in the domain layer.
type Message struct {
	Role  Role
	Parts []ContentPart
}

// Text returns the message's text parts joined by newlines.
func (m Message) Text() string {
	var texts []string
	for _, p := range m.Parts {
		if p.Type == PartText {
			texts = append(texts, p.Text)
		}
	}
	return strings.Join(texts, "\n")
}

// ImageURLs returns the message's image references in order.
func (m Message) ImageURLs() []string {
	var urls []string
	for _, p := range m.Parts {
		if p.Type == PartImage {
			urls = append(urls, p.Image)
		}
	}
	return urls
}

// ChatRequest represents a chat request in the domain layer.
// The last message is the turn being answered; earlier ones are history.
type ChatRequest struct {
	Messages []Message
	Model    string
	Images   []string
}

// Completion summarises a finished streamed reply.
type Completion struct {
	Text             string
	FinishReason     string
	PromptTokens     int
	CompletionTokens int
}
