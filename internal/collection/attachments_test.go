package collection

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/titilda/museterm/internal/shared"
)

type memBlobStore struct {
	blobs map[string][]byte
	puts  int
}

func newMemBlobStore() *memBlobStore {
	return &memBlobStore{blobs: make(map[string][]byte)}
}

func (s *memBlobStore) Get(id string) ([]byte, bool, error) {
	data, ok := s.blobs[id]
	return data, ok, nil
}

func (s *memBlobStore) Put(id string, data []byte) error {
	s.puts++
	s.blobs[id] = data
	return nil
}

func TestAttachmentCache(t *testing.T) {
	logger := shared.NewLogger(io.Discard)

	t.Run("Preload", func(t *testing.T) {
		t.Run("Resolves Fetched Bytes To Files", func(t *testing.T) {
			dir := t.TempDir()
			cache := NewAttachmentCache(func(_ context.Context, id string) ([]byte, error) {
				return []byte("art-" + id), nil
			}, nil, dir, logger)

			cache.Preload(context.Background(), []string{"one", "two"})

			handle := cache.Handle("one")
			if handle != filepath.Join(dir, "one.webp") {
				t.Errorf("unexpected handle %q", handle)
			}
			data, err := os.ReadFile(handle)
			if err != nil {
				t.Fatalf("handle should be readable: %v", err)
			}
			if string(data) != "art-one" {
				t.Errorf("expected fetched bytes, got %q", data)
			}
		})

		t.Run("Failed Fetch Installs The Fallback", func(t *testing.T) {
			dir := t.TempDir()
			cache := NewAttachmentCache(func(_ context.Context, id string) ([]byte, error) {
				if id == "bad" {
					return nil, errors.New("boom")
				}
				return []byte("ok"), nil
			}, nil, dir, logger)

			cache.Preload(context.Background(), []string{"good", "bad"})

			if cache.Handle("good") != filepath.Join(dir, "good.webp") {
				t.Error("expected the good item to resolve normally")
			}
			if cache.Handle("bad") != cache.Fallback() {
				t.Error("expected the failed item to map to the fallback")
			}
			if _, err := os.Stat(cache.Fallback()); err != nil {
				t.Errorf("fallback handle should be readable: %v", err)
			}
		})

		t.Run("Resolved Ids Are Not Fetched Again", func(t *testing.T) {
			dir := t.TempDir()
			fetches := 0
			cache := NewAttachmentCache(func(context.Context, string) ([]byte, error) {
				fetches++
				return []byte("ok"), nil
			}, nil, dir, logger)

			cache.Preload(context.Background(), []string{"a"})
			cache.Preload(context.Background(), []string{"a"})

			if fetches != 1 {
				t.Errorf("expected a single fetch, got %d", fetches)
			}
		})
	})

	t.Run("BlobStore", func(t *testing.T) {
		t.Run("Fetched Bytes Are Cached Durably", func(t *testing.T) {
			dir := t.TempDir()
			store := newMemBlobStore()
			cache := NewAttachmentCache(func(context.Context, string) ([]byte, error) {
				return []byte("ok"), nil
			}, store, dir, logger)

			cache.Preload(context.Background(), []string{"a"})

			if store.puts != 1 {
				t.Errorf("expected one store write, got %d", store.puts)
			}
		})

		t.Run("Store Hit Skips The Fetch", func(t *testing.T) {
			dir := t.TempDir()
			store := newMemBlobStore()
			store.blobs["a"] = []byte("cached")
			cache := NewAttachmentCache(func(context.Context, string) ([]byte, error) {
				t.Error("fetch should not run on a store hit")
				return nil, nil
			}, store, dir, logger)

			cache.Preload(context.Background(), []string{"a"})

			data, err := os.ReadFile(cache.Handle("a"))
			if err != nil {
				t.Fatalf("handle should be readable: %v", err)
			}
			if string(data) != "cached" {
				t.Errorf("expected cached bytes, got %q", data)
			}
		})
	})

	t.Run("Handle", func(t *testing.T) {
		t.Run("Unknown Id Returns The Fallback", func(t *testing.T) {
			cache := NewAttachmentCache(func(context.Context, string) ([]byte, error) {
				return nil, nil
			}, nil, t.TempDir(), logger)

			if cache.Handle("never-loaded") != cache.Fallback() {
				t.Error("expected the fallback handle for an unresolved id")
			}
		})
	})

	t.Run("Fallback", func(t *testing.T) {
		t.Run("Failed Write Is Retried, Never Published", func(t *testing.T) {
			dir := filepath.Join(t.TempDir(), "missing")
			cache := NewAttachmentCache(func(context.Context, string) ([]byte, error) {
				return nil, errors.New("boom")
			}, nil, dir, logger)

			if handle := cache.Fallback(); handle != "" {
				t.Errorf("expected empty handle while the write fails, got %q", handle)
			}

			if err := os.MkdirAll(dir, 0755); err != nil {
				t.Fatalf("failed to create cache dir: %v", err)
			}

			handle := cache.Fallback()
			if handle == "" {
				t.Fatal("expected the fallback to materialize once the dir exists")
			}
			if _, err := os.ReadFile(handle); err != nil {
				t.Errorf("fallback handle should be readable: %v", err)
			}
		})
	})
}
