package handlers

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"ollama-rag-relay/internal/llm"
)

func TestTagsHandler_ServeHTTP(t *testing.T) {
	const catalog = `{"models":[{"name":"llama3.2:latest"},{"name":"llava:7b"}]}`

	tests := []struct {
		name       string
		upstream   http.HandlerFunc
		noBaseURL  bool
		wantStatus int
		wantBody   string
		wantError  string
	}{
		{
			name: "relays catalog verbatim",
			upstream: func(w http.ResponseWriter, r *http.Request) {
				_, _ = w.Write([]byte(catalog))
			},
			wantStatus: http.StatusOK,
			wantBody:   catalog,
		},
		{
			name: "upstream error status",
			upstream: func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusBadGateway)
			},
			wantStatus: http.StatusInternalServerError,
			wantError:  "Failed to fetch tags",
		},
		{
			name: "upstream invalid JSON",
			upstream: func(w http.ResponseWriter, r *http.Request) {
				_, _ = w.Write([]byte("nope"))
			},
			wantStatus: http.StatusInternalServerError,
			wantError:  "Failed to fetch tags",
		},
		{
			name: "missing OLLAMA_URL",
			upstream: func(w http.ResponseWriter, r *http.Request) {
				t.Error("backend must not be contacted without OLLAMA_URL")
			},
			noBaseURL:  true,
			wantStatus: http.StatusInternalServerError,
			wantError:  "OLLAMA_URL is missing",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			upstream := httptest.NewServer(tt.upstream)
			defer upstream.Close()

			baseURL := upstream.URL
			if tt.noBaseURL {
				baseURL = ""
			}
			handler := NewTagsHandler(baseURL, llm.NewTagsClient(upstream.URL, upstream.Client()))

			w := httptest.NewRecorder()
			handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/tags", nil))

			if w.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", w.Code, tt.wantStatus)
			}
			if tt.wantError != "" {
				if got, want := w.Body.String(), `{"error":"`+tt.wantError+`"}`; got != want {
					t.Errorf("body = %q, want exactly %q", got, want)
				}
				assertErrorBody(t, w, tt.wantError)
				return
			}
			if w.Body.String() != tt.wantBody {
				t.Errorf("body = %s, want %s", w.Body.String(), tt.wantBody)
			}
			if ct := w.Header().Get("Content-Type"); ct != "application/json" {
				t.Errorf("Content-Type = %q, want application/json", ct)
			}
		})
	}
}
