package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"ollama-rag-relay/internal/service"
	"ollama-rag-relay/internal/service/mocks"

	"go.uber.org/mock/gomock"
)

func TestNewChatHandler(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockChatService := mocks.NewMockChatService(ctrl)
	handler := NewChatHandler(mockChatService)

	if handler == nil {
		t.Fatal("NewChatHandler() returned nil")
	}
	if handler.chatService != mockChatService {
		t.Error("NewChatHandler() chatService not set correctly")
	}
}

func TestMessageContent_UnmarshalJSON(t *testing.T) {
	tests := []struct {
		name    string
		json    string
		want    MessageContent
		wantErr bool
	}{
		{
			name: "string",
			json: `"hello"`,
			want: MessageContent{{Type: "text", Text: "hello"}},
		},
		{
			name: "parts",
			json: `[{"type":"text","text":"look"},{"type":"image","image":"https://x/y.png"}]`,
			want: MessageContent{{Type: "text", Text: "look"}, {Type: "image", Image: "https://x/y.png"}},
		},
		{
			name: "null",
			json: `null`,
			want: nil,
		},
		{
			name:    "number",
			json:    `42`,
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got MessageContent
			err := json.Unmarshal([]byte(tt.json), &got)
			if tt.wantErr {
				if err == nil {
					t.Error("Unmarshal() expected error")
				}
				return
			}
			if err != nil {
				t.Fatalf("Unmarshal() error = %v", err)
			}
			if fmt.Sprint(got) != fmt.Sprint(tt.want) {
				t.Errorf("Unmarshal() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestChatRequest_toServiceRequest(t *testing.T) {
	body := `{
		"messages": [
			{"role": "system", "content": "be brief"},
			{"role": "user", "content": [
				{"type": "text", "text": "what is this?"},
				{"type": "image", "image": "https://img/cat.png"},
				{"type": "reasoning", "text": "ignored"}
			]}
		],
		"selectedModel": "llava",
		"data": {"images": ["https://img/dog.png"]}
	}`
	var req ChatRequest
	if err := json.Unmarshal([]byte(body), &req); err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}

	got := req.toServiceRequest()
	if got.Model != "llava" {
		t.Errorf("Model = %q, want llava", got.Model)
	}
	if len(got.Messages) != 2 {
		t.Fatalf("Messages = %d, want 2", len(got.Messages))
	}
	if got.Messages[0].Role != service.RoleSystem || got.Messages[0].Text() != "be brief" {
		t.Errorf("Messages[0] = %+v", got.Messages[0])
	}
	last := got.Messages[1]
	if len(last.Parts) != 2 {
		t.Fatalf("last message parts = %d, want 2 (unknown part dropped)", len(last.Parts))
	}
	if urls := last.ImageURLs(); len(urls) != 1 || urls[0] != "https://img/cat.png" {
		t.Errorf("ImageURLs() = %v", urls)
	}
	if len(got.Images) != 1 || got.Images[0] != "https://img/dog.png" {
		t.Errorf("Images = %v", got.Images)
	}
}

func TestChatHandler_ServeHTTP(t *testing.T) {
	simpleBody := `{"messages":[{"role":"user","content":"Hello"}],"selectedModel":"llama3.2"}`
	simpleReq := service.ChatRequest{
		Model:    "llama3.2",
		Messages: []service.Message{{
			Role:  service.RoleUser,
			Parts: []service.ContentPart{{Type: service.PartText, Text: "Hello"}},
		}},
	}

	tests := []struct {
		name          string
		method        string
		body          string
		accept        string
		mockSetup     func(*mocks.MockChatService)
		wantStatus    int
		checkResponse func(*testing.T, *httptest.ResponseRecorder)
	}{
		{
			name:   "successful stream",
			method: http.MethodPost,
			body:   simpleBody,
			mockSetup: func(m *mocks.MockChatService) {
				m.EXPECT().
					StreamChat(gomock.Any(), simpleReq, gomock.Any()).
					DoAndReturn(func(ctx context.Context, req service.ChatRequest, callback func(string) error) (service.Completion, error) {
						for _, chunk := range []string{"Hi", " there!"} {
							if err := callback(chunk); err != nil {
								return service.Completion{}, err
							}
						}
						return service.Completion{Text: "Hi there!", FinishReason: "stop", PromptTokens: 5, CompletionTokens: 2}, nil
					})
			},
			wantStatus: http.StatusOK,
			checkResponse: func(t *testing.T, w *httptest.ResponseRecorder) {
				if w.Header().Get("X-Vercel-AI-Data-Stream") != "v1" {
					t.Error("missing data stream header")
				}
				body := w.Body.String()
				for _, want := range []string{
					`0:"Hi"` + "\n",
					`0:" there!"` + "\n",
					`d:{"finishReason":"stop","usage":{"promptTokens":5,"completionTokens":2}}` + "\n",
				} {
					if !strings.Contains(body, want) {
						t.Errorf("body missing %q:\n%s", want, body)
					}
				}
				if !strings.HasPrefix(body, `f:{"messageId":"msg-`) {
					t.Errorf("body should start with the start-step part:\n%s", body)
				}
			},
		},
		{
			name:   "SSE stream",
			method: http.MethodPost,
			body:   simpleBody,
			accept: "text/event-stream",
			mockSetup: func(m *mocks.MockChatService) {
				m.EXPECT().
					StreamChat(gomock.Any(), simpleReq, gomock.Any()).
					DoAndReturn(func(ctx context.Context, req service.ChatRequest, callback func(string) error) (service.Completion, error) {
						_ = callback("Hi")
						return service.Completion{Text: "Hi", FinishReason: "stop"}, nil
					})
			},
			wantStatus: http.StatusOK,
			checkResponse: func(t *testing.T, w *httptest.ResponseRecorder) {
				if w.Header().Get("Content-Type") != "text/event-stream" {
					t.Errorf("Content-Type = %q", w.Header().Get("Content-Type"))
				}
				if !strings.HasSuffix(w.Body.String(), "data: [DONE]\n\n") {
					t.Errorf("SSE stream not terminated:\n%s", w.Body.String())
				}
			},
		},
		{
			name:       "method not allowed",
			method:     http.MethodGet,
			mockSetup:  func(m *mocks.MockChatService) {},
			wantStatus: http.StatusMethodNotAllowed,
		},
		{
			name:       "invalid JSON body",
			method:     http.MethodPost,
			body:       "invalid json",
			mockSetup:  func(m *mocks.MockChatService) {},
			wantStatus: http.StatusBadRequest,
			checkResponse: func(t *testing.T, w *httptest.ResponseRecorder) {
				assertErrorBody(t, w, "Invalid request body")
			},
		},
		{
			name:   "validation error",
			method: http.MethodPost,
			body:   `{"messages":[],"selectedModel":"m"}`,
			mockSetup: func(m *mocks.MockChatService) {
				m.EXPECT().
					StreamChat(gomock.Any(), gomock.Any(), gomock.Any()).
					Return(service.Completion{}, &service.ValidationError{Field: "messages", Message: "cannot be empty"})
			},
			wantStatus: http.StatusBadRequest,
			checkResponse: func(t *testing.T, w *httptest.ResponseRecorder) {
				assertErrorBody(t, w, "Validation error: messages: cannot be empty")
			},
		},
		{
			name:   "nothing to answer",
			method: http.MethodPost,
			body:   simpleBody,
			mockSetup: func(m *mocks.MockChatService) {
				m.EXPECT().
					StreamChat(gomock.Any(), simpleReq, gomock.Any()).
					Return(service.Completion{}, fmt.Errorf("%w: last message has no text or images", service.ErrInvalidInput))
			},
			wantStatus: http.StatusBadRequest,
			checkResponse: func(t *testing.T, w *httptest.ResponseRecorder) {
				assertErrorBody(t, w, "Invalid input")
			},
		},
		{
			name:   "failure before first token",
			method: http.MethodPost,
			body:   simpleBody,
			mockSetup: func(m *mocks.MockChatService) {
				m.EXPECT().
					StreamChat(gomock.Any(), simpleReq, gomock.Any()).
					Return(service.Completion{}, fmt.Errorf("%w: rag down", service.ErrExternalService))
			},
			wantStatus: http.StatusInternalServerError,
			checkResponse: func(t *testing.T, w *httptest.ResponseRecorder) {
				assertErrorBody(t, w, "Failed to process chat request")
			},
		},
		{
			name:   "failure after first token",
			method: http.MethodPost,
			body:   simpleBody,
			mockSetup: func(m *mocks.MockChatService) {
				m.EXPECT().
					StreamChat(gomock.Any(), simpleReq, gomock.Any()).
					DoAndReturn(func(ctx context.Context, req service.ChatRequest, callback func(string) error) (service.Completion, error) {
						_ = callback("Hi")
						return service.Completion{}, errors.New("runner crashed")
					})
			},
			wantStatus: http.StatusOK,
			checkResponse: func(t *testing.T, w *httptest.ResponseRecorder) {
				body := w.Body.String()
				if !strings.HasSuffix(body, `3:"An error occurred."`+"\n") {
					t.Errorf("stream should end with an error part:\n%s", body)
				}
				if strings.Contains(body, "runner crashed") {
					t.Error("upstream error details leaked to client")
				}
				if strings.Contains(body, "\nd:") {
					t.Error("failed stream should not have a finish part")
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			mockChatService := mocks.NewMockChatService(ctrl)
			tt.mockSetup(mockChatService)

			handler := NewChatHandler(mockChatService)

			req := httptest.NewRequest(tt.method, "/api/chat", bytes.NewBufferString(tt.body))
			if tt.accept != "" {
				req.Header.Set("Accept", tt.accept)
			}
			w := httptest.NewRecorder()

			handler.ServeHTTP(w, req)

			if w.Code != tt.wantStatus {
				t.Errorf("ServeHTTP() status = %v, want %v", w.Code, tt.wantStatus)
			}
			if tt.checkResponse != nil {
				tt.checkResponse(t, w)
			}
		})
	}
}

func assertErrorBody(t *testing.T, w *httptest.ResponseRecorder, want string) {
	t.Helper()
	if ct := w.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("Content-Type = %q, want application/json", ct)
	}
	var resp ErrorResponse
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("invalid error JSON: %v", err)
	}
	if resp.Error != want {
		t.Errorf("error = %q, want %q", resp.Error, want)
	}
}

func TestWriteError(t *testing.T) {
	w := httptest.NewRecorder()
	writeError(context.Background(), w, http.StatusBadRequest, "test error")

	if w.Code != http.StatusBadRequest {
		t.Errorf("writeError() status = %v, want %v", w.Code, http.StatusBadRequest)
	}
	if got, want := w.Body.String(), `{"error":"test error"}`; got != want {
		t.Errorf("writeError() body = %q, want %q", got, want)
	}
}

func TestWriteJSON_EncodeFailure(t *testing.T) {
	w := httptest.NewRecorder()
	writeJSON(context.Background(), w, http.StatusOK, map[string]any{"bad": make(chan int)})

	if w.Code != http.StatusInternalServerError {
		t.Errorf("writeJSON() status = %v, want 500", w.Code)
	}
	assertErrorBody(t, w, "Internal server error")
}
