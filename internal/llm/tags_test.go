package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestTagsClient_ListTags(t *testing.T) {
	const catalog = `{"models":[{"name":"llama3.2:latest","size":2019393189,"details":{"family":"llama"}}]}`

	tests := []struct {
		name        string
		serverResp  func(w http.ResponseWriter, r *http.Request)
		want        string
		wantErr     bool
		errContains string
	}{
		{
			name: "successful listing",
			serverResp: func(w http.ResponseWriter, r *http.Request) {
				if r.Method != http.MethodGet {
					t.Errorf("expected GET, got %s", r.Method)
				}
				if r.URL.Path != "/api/tags" {
					t.Errorf("expected /api/tags, got %s", r.URL.Path)
				}
				w.Header().Set("Content-Type", "application/json")
				_, _ = w.Write([]byte(catalog))
			},
			want: catalog,
		},
		{
			name: "non-2xx status",
			serverResp: func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusServiceUnavailable)
			},
			wantErr:     true,
			errContains: "Service Unavailable",
		},
		{
			name: "invalid JSON",
			serverResp: func(w http.ResponseWriter, r *http.Request) {
				_, _ = w.Write([]byte("<html>oops</html>"))
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(tt.serverResp))
			defer server.Close()

			client := NewTagsClient(server.URL, server.Client())
			got, err := client.ListTags(context.Background())

			if tt.wantErr {
				if err == nil {
					t.Fatal("ListTags() expected error, got nil")
				}
				if tt.errContains != "" && !strings.Contains(err.Error(), tt.errContains) {
					t.Errorf("ListTags() error = %v, want it to contain %q", err, tt.errContains)
				}
				return
			}
			if err != nil {
				t.Fatalf("ListTags() unexpected error: %v", err)
			}
			if string(got) != tt.want {
				t.Errorf("ListTags() = %s, want %s", got, tt.want)
			}
			if !json.Valid(got) {
				t.Error("ListTags() returned invalid JSON")
			}
		})
	}
}

func TestTagsClient_ListTags_Unreachable(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	url := server.URL
	server.Close()

	client := NewTagsClient(url, nil)
	if _, err := client.ListTags(context.Background()); err == nil {
		t.Error("ListTags() against closed server expected error")
	}
}
