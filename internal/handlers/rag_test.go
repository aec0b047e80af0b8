package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"ollama-rag-relay/internal/memory"
)

type fakeMemory struct {
	snippets []string
	err      error
	stored   []string
}

func (f *fakeMemory) Query(ctx context.Context, text string) ([]string, error) {
	return f.snippets, f.err
}

func (f *fakeMemory) Store(ctx context.Context, text string) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	f.stored = append(f.stored, text)
	return memory.DocumentID(text), nil
}

func TestRAGHandler_Query(t *testing.T) {
	tests := []struct {
		name       string
		body       string
		mem        *fakeMemory
		wantStatus int
		wantBody   string
	}{
		{
			name:       "returns snippets",
			body:       `{"text":"what do I like?"}`,
			mem:        &fakeMemory{snippets: []string{"likes tea", "has a cat"}},
			wantStatus: http.StatusOK,
			wantBody:   `{"context":["likes tea","has a cat"]}`,
		},
		{
			name:       "no matches is an empty array",
			body:       `{"text":"anything"}`,
			mem:        &fakeMemory{},
			wantStatus: http.StatusOK,
			wantBody:   `{"context":[]}`,
		},
		{
			name:       "invalid body",
			body:       `{`,
			mem:        &fakeMemory{},
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "memory failure",
			body:       `{"text":"x"}`,
			mem:        &fakeMemory{err: errors.New("qdrant down")},
			wantStatus: http.StatusInternalServerError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handler := NewRAGHandler(tt.mem)
			w := httptest.NewRecorder()
			handler.Query(w, httptest.NewRequest(http.MethodPost, "/rag/query", bytes.NewBufferString(tt.body)))

			if w.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d", w.Code, tt.wantStatus)
			}
			if tt.wantBody != "" {
				if got := bytes.TrimSpace(w.Body.Bytes()); string(got) != tt.wantBody {
					t.Errorf("body = %s, want %s", got, tt.wantBody)
				}
			}
		})
	}
}

func TestRAGHandler_Store(t *testing.T) {
	tests := []struct {
		name       string
		body       string
		mem        *fakeMemory
		wantStatus int
		wantStored bool
	}{
		{
			name:       "stored",
			body:       `{"text":"Hello Hi there"}`,
			mem:        &fakeMemory{},
			wantStatus: http.StatusOK,
			wantStored: true,
		},
		{
			name:       "empty text",
			body:       `{"text":""}`,
			mem:        &fakeMemory{err: memory.ErrEmptyText},
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "wrapped failure",
			body:       `{"text":"x"}`,
			mem:        &fakeMemory{err: fmt.Errorf("failed to upsert vector: %w", errors.New("qdrant down"))},
			wantStatus: http.StatusInternalServerError,
		},
		{
			name:       "invalid body",
			body:       `[]`,
			mem:        &fakeMemory{},
			wantStatus: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handler := NewRAGHandler(tt.mem)
			w := httptest.NewRecorder()
			handler.Store(w, httptest.NewRequest(http.MethodPost, "/rag/store", bytes.NewBufferString(tt.body)))

			if w.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d", w.Code, tt.wantStatus)
			}
			if !tt.wantStored {
				return
			}
			var resp RAGStoreResponse
			if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
				t.Fatalf("invalid JSON: %v", err)
			}
			if resp.Status != "stored" {
				t.Errorf("status = %q, want stored", resp.Status)
			}
			if len(tt.mem.stored) != 1 || tt.mem.stored[0] != "Hello Hi there" {
				t.Errorf("stored = %v", tt.mem.stored)
			}
		})
	}
}
