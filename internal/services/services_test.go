package services

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/titilda/museterm/internal/shared"
)

func TestClient(t *testing.T) {
	t.Run("New", func(t *testing.T) {
		t.Run("With Empty BaseURL", func(t *testing.T) {
			c := NewClient(ClientOpts{})

			if c.BaseURL() != "http://localhost:8080" {
				t.Errorf("expected default baseURL, got %s", c.BaseURL())
			}
		})

		t.Run("With Custom HTTP Client", func(t *testing.T) {
			custom := &http.Client{}
			c := NewClient(ClientOpts{BaseURL: "http://example.com", HTTPClient: custom})

			if c.httpClient != custom {
				t.Error("expected custom client to be used")
			}
		})
	})

	t.Run("Do", func(t *testing.T) {
		t.Run("Sends Method Path And Headers", func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if r.Method != http.MethodPost {
					t.Errorf("expected POST, got %s", r.Method)
				}
				if r.URL.Path != "/api/test" {
					t.Errorf("expected path '/api/test', got %s", r.URL.Path)
				}
				if got := r.Header.Get("Authorization"); got != "Bearer tok" {
					t.Errorf("expected bearer header, got %q", got)
				}
				if got := r.Header.Get("Content-Type"); got != "application/json" {
					t.Errorf("expected json content type, got %q", got)
				}
				w.WriteHeader(http.StatusOK)
				w.Write([]byte(`{"ok":true}`))
			}))
			defer server.Close()

			c := NewClient(ClientOpts{BaseURL: server.URL})
			resp, err := c.Do(context.Background(), http.MethodPost, "/api/test",
				strings.NewReader(`{}`), "application/json",
				map[string]string{"Authorization": "Bearer tok"})

			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if !resp.OK() {
				t.Errorf("expected success, got status %d", resp.StatusCode)
			}
			if string(resp.Body) != `{"ok":true}` {
				t.Errorf("unexpected body %q", resp.Body)
			}
		})

		t.Run("Cancelled Context Fails", func(t *testing.T) {
			c := NewClient(ClientOpts{BaseURL: "http://127.0.0.1:1"})
			ctx, cancel := context.WithCancel(context.Background())
			cancel()

			if _, err := c.Do(ctx, http.MethodGet, "/", nil, "", nil); err == nil {
				t.Error("expected an error with a cancelled context")
			}
		})
	})
}

func TestAPIResponse(t *testing.T) {
	t.Run("ErrorMessage", func(t *testing.T) {
		t.Run("Extracts Server Error Field", func(t *testing.T) {
			resp := &APIResponse{Body: []byte(`{"error":"Wrong credentials!"}`)}

			if got := resp.ErrorMessage(); got != "Wrong credentials!" {
				t.Errorf("expected server message, got %q", got)
			}
		})

		t.Run("Non JSON Body Yields Empty", func(t *testing.T) {
			resp := &APIResponse{Body: []byte("<html>")}

			if got := resp.ErrorMessage(); got != "" {
				t.Errorf("expected empty message, got %q", got)
			}
		})
	})

	t.Run("APIError", func(t *testing.T) {
		t.Run("Unwraps To ErrAPIRequest", func(t *testing.T) {
			var err error = &APIError{Status: 401, Message: "Wrong credentials!"}

			if !errors.Is(err, shared.ErrAPIRequest) {
				t.Error("expected APIError to unwrap to ErrAPIRequest")
			}
			if err.Error() != "status 401: Wrong credentials!" {
				t.Errorf("unexpected message %q", err.Error())
			}
		})

		t.Run("No Message Formats Status Only", func(t *testing.T) {
			err := &APIError{Status: 500}

			if err.Error() != "status 500" {
				t.Errorf("unexpected message %q", err.Error())
			}
		})
	})
}

// writeJSONResponse is a small helper for handler bodies.
func writeJSONResponse(t *testing.T, w http.ResponseWriter, status int, v any) {
	t.Helper()
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		t.Fatalf("failed to encode response: %v", err)
	}
}
