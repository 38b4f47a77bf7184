package session

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/titilda/museterm/internal/repositories"
	"github.com/titilda/museterm/internal/services"
	"github.com/titilda/museterm/internal/shared"
	tu "github.com/titilda/museterm/internal/testing"
)

func newTestManager(t *testing.T, handler http.HandlerFunc) (*Manager, *repositories.SessionStore) {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	db := tu.NewTestDB(t)
	store := repositories.NewSessionStore(db)
	client := services.NewClient(services.ClientOpts{BaseURL: server.URL})
	return NewManager(client, store, shared.NewLogger(io.Discard)), store
}

func grantHandler(t *testing.T, token string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/auth/login", "/api/auth/signup":
			w.Header().Set("Content-Type", "application/json")
			json.NewEncoder(w).Encode(map[string]string{
				"access_token": token, "token_type": "Bearer",
			})
		case "/api/me":
			w.Header().Set("Content-Type", "application/json")
			json.NewEncoder(w).Encode(map[string]string{
				"username": "alice", "fullName": "Alice A",
			})
		default:
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
			w.WriteHeader(http.StatusNotFound)
		}
	}
}

func TestManager(t *testing.T) {
	ctx := context.Background()

	t.Run("Login", func(t *testing.T) {
		t.Run("Stores Credential Durably Before Memory", func(t *testing.T) {
			m, store := newTestManager(t, grantHandler(t, "abc"))

			if m.IsAuthenticated() {
				t.Fatal("expected fresh manager to be unauthenticated")
			}
			if err := m.Login(ctx, "alice", "secret"); err != nil {
				t.Fatalf("expected no error, got %v", err)
			}

			if !m.IsAuthenticated() {
				t.Error("expected authenticated after login")
			}
			if got := m.AuthHeader()["Authorization"]; got != "Bearer abc" {
				t.Errorf("expected bearer header, got %q", got)
			}

			stored, ok, err := store.Get(repositories.KeyAccessToken)
			if err != nil || !ok {
				t.Fatalf("expected stored credential, ok=%v err=%v", ok, err)
			}
			if stored != "abc" {
				t.Errorf("expected 'abc' persisted, got %q", stored)
			}
		})

		t.Run("Rejected Credentials Leave State Untouched", func(t *testing.T) {
			m, store := newTestManager(t, func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusUnauthorized)
				json.NewEncoder(w).Encode(map[string]string{"error": "Wrong credentials!"})
			})

			if err := m.Login(ctx, "alice", "wrong"); err == nil {
				t.Fatal("expected an error")
			}
			if m.IsAuthenticated() {
				t.Error("expected unauthenticated after a failed login")
			}
			if _, ok, _ := store.Get(repositories.KeyAccessToken); ok {
				t.Error("expected no credential persisted")
			}
		})

		t.Run("Unauthenticated Header Is Empty", func(t *testing.T) {
			m, _ := newTestManager(t, grantHandler(t, "abc"))

			if h := m.AuthHeader(); len(h) != 0 {
				t.Errorf("expected empty header map, got %v", h)
			}
		})
	})

	t.Run("Signup", func(t *testing.T) {
		t.Run("Populates Profile From Whoami", func(t *testing.T) {
			m, store := newTestManager(t, grantHandler(t, "abc"))

			if err := m.Signup(ctx, "alice", "secret", "Alice A"); err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if p := m.Profile(); p.Username != "alice" || p.FullName != "Alice A" {
				t.Errorf("unexpected profile %+v", p)
			}
			if v, ok, _ := store.Get(repositories.KeyUsername); !ok || v != "alice" {
				t.Errorf("expected username persisted, got %q ok=%v", v, ok)
			}
		})

		t.Run("Whoami Failure Does Not Fail The Signup", func(t *testing.T) {
			m, _ := newTestManager(t, func(w http.ResponseWriter, r *http.Request) {
				if r.URL.Path == "/api/auth/signup" {
					w.Header().Set("Content-Type", "application/json")
					json.NewEncoder(w).Encode(map[string]string{
						"access_token": "abc", "token_type": "Bearer",
					})
					return
				}
				w.WriteHeader(http.StatusInternalServerError)
			})

			if err := m.Signup(ctx, "alice", "secret", ""); err != nil {
				t.Fatalf("expected signup to succeed, got %v", err)
			}
			if !m.IsAuthenticated() {
				t.Error("expected authenticated despite whoami failure")
			}
			if p := m.Profile(); p.Username != "" {
				t.Errorf("expected empty profile, got %+v", p)
			}
		})
	})

	t.Run("Restore", func(t *testing.T) {
		t.Run("Loads Persisted Credential And Profile", func(t *testing.T) {
			m, store := newTestManager(t, grantHandler(t, "abc"))
			store.Set(repositories.KeyAccessToken, "persisted")
			store.Set(repositories.KeyUsername, "alice")

			m.Restore()

			if !m.IsAuthenticated() {
				t.Error("expected authenticated after restore")
			}
			if got := m.AuthHeader()["Authorization"]; got != "Bearer persisted" {
				t.Errorf("expected restored token, got %q", got)
			}
			if m.Profile().Username != "alice" {
				t.Errorf("expected restored username, got %q", m.Profile().Username)
			}
		})

		t.Run("Empty Store Is A Valid State", func(t *testing.T) {
			m, _ := newTestManager(t, grantHandler(t, "abc"))

			m.Restore()

			if m.IsAuthenticated() {
				t.Error("expected unauthenticated with an empty store")
			}
		})
	})

	t.Run("Logout", func(t *testing.T) {
		t.Run("Clears Store Memory And Signals", func(t *testing.T) {
			m, store := newTestManager(t, grantHandler(t, "abc"))
			if err := m.Login(ctx, "alice", "secret"); err != nil {
				t.Fatalf("login failed: %v", err)
			}

			signalled := false
			m.OnLogout(func() { signalled = true })
			m.Logout()

			if m.IsAuthenticated() {
				t.Error("expected unauthenticated after logout")
			}
			if _, ok, _ := store.Get(repositories.KeyAccessToken); ok {
				t.Error("expected persisted credential evicted")
			}
			if !signalled {
				t.Error("expected the logout signal to fire")
			}
		})
	})

	t.Run("LogoutEverywhere", func(t *testing.T) {
		t.Run("Revoke Success Performs Local Logout", func(t *testing.T) {
			m, store := newTestManager(t, func(w http.ResponseWriter, r *http.Request) {
				if r.Method == http.MethodDelete && r.URL.Path == "/api/sessions" {
					w.WriteHeader(http.StatusNoContent)
					return
				}
				grantHandler(t, "abc")(w, r)
			})
			if err := m.Login(ctx, "alice", "secret"); err != nil {
				t.Fatalf("login failed: %v", err)
			}

			if err := m.LogoutEverywhere(ctx); err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if m.IsAuthenticated() {
				t.Error("expected unauthenticated after revoke")
			}
			if _, ok, _ := store.Get(repositories.KeyAccessToken); ok {
				t.Error("expected persisted credential evicted")
			}
		})

		t.Run("Revoke Failure Keeps The Local Session", func(t *testing.T) {
			m, store := newTestManager(t, func(w http.ResponseWriter, r *http.Request) {
				if r.Method == http.MethodDelete && r.URL.Path == "/api/sessions" {
					w.WriteHeader(http.StatusInternalServerError)
					return
				}
				grantHandler(t, "abc")(w, r)
			})
			if err := m.Login(ctx, "alice", "secret"); err != nil {
				t.Fatalf("login failed: %v", err)
			}

			if err := m.LogoutEverywhere(ctx); err == nil {
				t.Fatal("expected an error")
			}
			if !m.IsAuthenticated() {
				t.Error("expected the local session to survive a failed revoke")
			}
			if _, ok, _ := store.Get(repositories.KeyAccessToken); !ok {
				t.Error("expected the persisted credential to survive")
			}
		})
	})

	t.Run("ExpiresAt", func(t *testing.T) {
		t.Run("Opaque Token Yields Zero Time", func(t *testing.T) {
			m, _ := newTestManager(t, grantHandler(t, "not-a-jwt"))
			if err := m.Login(ctx, "alice", "secret"); err != nil {
				t.Fatalf("login failed: %v", err)
			}

			if !m.ExpiresAt().IsZero() {
				t.Error("expected zero expiry for a non-JWT token")
			}
		})

		t.Run("No Credential Yields Zero Time", func(t *testing.T) {
			m, _ := newTestManager(t, grantHandler(t, "abc"))

			if !m.ExpiresAt().IsZero() {
				t.Error("expected zero expiry without a credential")
			}
		})
	})
}
