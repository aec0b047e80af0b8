package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestHealthHandler_ServeHTTP(t *testing.T) {
	ok := func(ctx context.Context) error { return nil }
	fail := func(ctx context.Context) error { return errors.New("down") }

	tests := []struct {
		name       string
		method     string
		checks     map[string]HealthCheck
		wantStatus int
		wantState  string
		wantIssues []string
	}{
		{
			name:       "all healthy",
			method:     http.MethodGet,
			checks:     map[string]HealthCheck{"inference": ok, "retrieval": ok},
			wantStatus: http.StatusOK,
			wantState:  "healthy",
		},
		{
			name:       "one failing",
			method:     http.MethodGet,
			checks:     map[string]HealthCheck{"inference": ok, "vector_store": fail},
			wantStatus: http.StatusServiceUnavailable,
			wantState:  "unhealthy",
			wantIssues: []string{"vector_store_unavailable"},
		},
		{
			name:       "no checks",
			method:     http.MethodGet,
			wantStatus: http.StatusOK,
			wantState:  "healthy",
		},
		{
			name:       "method not allowed",
			method:     http.MethodPost,
			checks:     map[string]HealthCheck{"inference": ok},
			wantStatus: http.StatusMethodNotAllowed,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handler := NewHealthHandler(tt.checks)
			w := httptest.NewRecorder()
			handler.ServeHTTP(w, httptest.NewRequest(tt.method, "/api/health", nil))

			if w.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d", w.Code, tt.wantStatus)
			}
			if tt.wantState == "" {
				return
			}

			var resp HealthResponse
			if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
				t.Fatalf("invalid JSON: %v", err)
			}
			if resp.Status != tt.wantState {
				t.Errorf("status = %q, want %q", resp.Status, tt.wantState)
			}
			if len(resp.Checks) != len(tt.checks) {
				t.Errorf("checks = %v, want %d entries", resp.Checks, len(tt.checks))
			}
			if len(resp.Issues) != len(tt.wantIssues) {
				t.Fatalf("issues = %v, want %v", resp.Issues, tt.wantIssues)
			}
			for i := range tt.wantIssues {
				if resp.Issues[i] != tt.wantIssues[i] {
					t.Errorf("issues[%d] = %q, want %q", i, resp.Issues[i], tt.wantIssues[i])
				}
			}
		})
	}
}

func TestHealthHandler_CheckTimeout(t *testing.T) {
	handler := NewHealthHandler(map[string]HealthCheck{
		"slow": func(ctx context.Context) error {
			<-ctx.Done()
			return ctx.Err()
		},
	})
	handler.healthCheckTimeout = 10 * time.Millisecond

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/health", nil))

	if w.Code != http.StatusServiceUnavailable {
		t.Errorf("status = %d, want 503 after timeout", w.Code)
	}
}
