package service

import "strings"

const contextHeader = "Here's some past context:\n"

// BuildPrompt prefixes text with the retrieved snippets.
// With no snippets the text is returned unchanged.
func BuildPrompt(snippets []string, text string) string {
	if len(snippets) == 0 {
		return text
	}
	return contextHeader + strings.Join(snippets, "\n") + "\n\n" + text
}

// memoryEntry is what gets stored for future retrieval: the user's text and the reply.
func memoryEntry(userText, reply string) string {
	return userText + " " + reply
}
