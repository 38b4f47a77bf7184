package repositories_test

import (
	"testing"

	"github.com/titilda/museterm/internal/repositories"
	tu "github.com/titilda/museterm/internal/testing"
)

func TestSessionStore(t *testing.T) {
	t.Run("Get", func(t *testing.T) {
		t.Run("Missing Key Is Not An Error", func(t *testing.T) {
			store := repositories.NewSessionStore(tu.NewTestDB(t))

			value, ok, err := store.Get(repositories.KeyAccessToken)
			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if ok || value != "" {
				t.Errorf("expected absent key, got %q ok=%v", value, ok)
			}
		})
	})

	t.Run("Set", func(t *testing.T) {
		t.Run("Round Trips A Value", func(t *testing.T) {
			store := repositories.NewSessionStore(tu.NewTestDB(t))

			if err := store.Set(repositories.KeyUsername, "alice"); err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			value, ok, err := store.Get(repositories.KeyUsername)
			if err != nil || !ok {
				t.Fatalf("expected stored value, ok=%v err=%v", ok, err)
			}
			if value != "alice" {
				t.Errorf("expected 'alice', got %q", value)
			}
		})

		t.Run("Overwrites An Existing Value", func(t *testing.T) {
			store := repositories.NewSessionStore(tu.NewTestDB(t))

			store.Set(repositories.KeyAccessToken, "first")
			if err := store.Set(repositories.KeyAccessToken, "second"); err != nil {
				t.Fatalf("expected upsert to succeed, got %v", err)
			}

			value, _, _ := store.Get(repositories.KeyAccessToken)
			if value != "second" {
				t.Errorf("expected 'second', got %q", value)
			}
		})
	})

	t.Run("Delete", func(t *testing.T) {
		store := repositories.NewSessionStore(tu.NewTestDB(t))
		store.Set(repositories.KeyUsername, "alice")

		if err := store.Delete(repositories.KeyUsername); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if _, ok, _ := store.Get(repositories.KeyUsername); ok {
			t.Error("expected the key to be gone")
		}
	})

	t.Run("Clear", func(t *testing.T) {
		store := repositories.NewSessionStore(tu.NewTestDB(t))
		store.Set(repositories.KeyAccessToken, "abc")
		store.Set(repositories.KeyUsername, "alice")
		store.Set(repositories.KeyFullName, "Alice A")

		if err := store.Clear(); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		for _, key := range []string{repositories.KeyAccessToken, repositories.KeyUsername, repositories.KeyFullName} {
			if _, ok, _ := store.Get(key); ok {
				t.Errorf("expected %s to be cleared", key)
			}
		}
	})
}

func TestArtworkStore(t *testing.T) {
	t.Run("Get", func(t *testing.T) {
		t.Run("Missing Blob Is Not An Error", func(t *testing.T) {
			store := repositories.NewArtworkStore(tu.NewTestDB(t))

			data, ok, err := store.Get("song-1")
			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if ok || data != nil {
				t.Error("expected absent blob")
			}
		})
	})

	t.Run("Put", func(t *testing.T) {
		t.Run("Round Trips Bytes", func(t *testing.T) {
			store := repositories.NewArtworkStore(tu.NewTestDB(t))

			if err := store.Put("song-1", []byte("webp-bytes")); err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			data, ok, err := store.Get("song-1")
			if err != nil || !ok {
				t.Fatalf("expected stored blob, ok=%v err=%v", ok, err)
			}
			if string(data) != "webp-bytes" {
				t.Errorf("unexpected bytes %q", data)
			}
		})

		t.Run("Replaces An Existing Blob", func(t *testing.T) {
			store := repositories.NewArtworkStore(tu.NewTestDB(t))

			store.Put("song-1", []byte("old"))
			if err := store.Put("song-1", []byte("new")); err != nil {
				t.Fatalf("expected upsert to succeed, got %v", err)
			}

			data, _, _ := store.Get("song-1")
			if string(data) != "new" {
				t.Errorf("expected 'new', got %q", data)
			}
		})
	})

	t.Run("Evict", func(t *testing.T) {
		store := repositories.NewArtworkStore(tu.NewTestDB(t))
		store.Put("song-1", []byte("webp-bytes"))

		if err := store.Evict("song-1"); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if _, ok, _ := store.Get("song-1"); ok {
			t.Error("expected the blob to be gone")
		}
	})
}
