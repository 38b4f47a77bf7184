package collection

import (
	"context"
	_ "embed"
	"os"
	"path/filepath"
	"sync"

	"github.com/charmbracelet/log"
)

//go:embed fallback.webp
var fallbackArt []byte

// Fetcher retrieves the attachment bytes for one item.
type Fetcher func(ctx context.Context, id string) ([]byte, error)

// BlobStore is an optional durable cache for attachment bytes.
// Satisfied by repositories.ArtworkStore.
type BlobStore interface {
	Get(id string) ([]byte, bool, error)
	Put(id string, data []byte) error
}

// AttachmentCache resolves item ids to locally readable attachment files.
// Fetch failures are absorbed per item: the id maps to the fallback handle
// and the failure is logged, never surfaced.
type AttachmentCache struct {
	fetch  Fetcher
	store  BlobStore
	dir    string
	logger *log.Logger

	mu      sync.RWMutex
	handles map[string]string

	fallbackMu sync.Mutex
	fallback   string
}

// NewAttachmentCache creates a cache writing resolved files under dir. store
// may be nil to skip durable caching.
func NewAttachmentCache(fetch Fetcher, store BlobStore, dir string, logger *log.Logger) *AttachmentCache {
	return &AttachmentCache{
		fetch:   fetch,
		store:   store,
		dir:     dir,
		logger:  logger,
		handles: make(map[string]string),
	}
}

// Preload resolves every id concurrently and returns once each attempt has
// completed, successfully or with the fallback installed.
func (c *AttachmentCache) Preload(ctx context.Context, ids []string) {
	var wg sync.WaitGroup
	for _, id := range ids {
		c.mu.RLock()
		_, done := c.handles[id]
		c.mu.RUnlock()
		if done {
			continue
		}

		wg.Add(1)
		go func(id string) {
			defer wg.Done()
			c.resolve(ctx, id)
		}(id)
	}
	wg.Wait()
}

// Handle returns the resolved handle for id, or the fallback handle if none
// is cached yet.
func (c *AttachmentCache) Handle(id string) string {
	c.mu.RLock()
	h, ok := c.handles[id]
	c.mu.RUnlock()
	if ok {
		return h
	}
	return c.Fallback()
}

// Fallback returns the well-known fallback handle, materializing it on first
// use. A failed write returns "" and is retried on the next call, so the
// handle is never a path that cannot be read.
func (c *AttachmentCache) Fallback() string {
	c.fallbackMu.Lock()
	defer c.fallbackMu.Unlock()
	if c.fallback != "" {
		return c.fallback
	}

	path := filepath.Join(c.dir, "fallback.webp")
	if err := os.WriteFile(path, fallbackArt, 0644); err != nil {
		c.logger.Warn("failed to write fallback artwork", "err", err)
		return ""
	}
	c.fallback = path
	return path
}

func (c *AttachmentCache) resolve(ctx context.Context, id string) {
	data, ok := c.lookupStore(id)
	if !ok {
		var err error
		data, err = c.fetch(ctx, id)
		if err != nil {
			c.logger.Warn("attachment fetch failed, using fallback", "id", id, "err", err)
			c.install(id, c.Fallback())
			return
		}
		if c.store != nil {
			if err := c.store.Put(id, data); err != nil {
				c.logger.Warn("failed to cache attachment", "id", id, "err", err)
			}
		}
	}

	path := filepath.Join(c.dir, id+".webp")
	if err := os.WriteFile(path, data, 0644); err != nil {
		c.logger.Warn("failed to write attachment", "id", id, "err", err)
		c.install(id, c.Fallback())
		return
	}
	c.install(id, path)
}

func (c *AttachmentCache) lookupStore(id string) ([]byte, bool) {
	if c.store == nil {
		return nil, false
	}
	data, ok, err := c.store.Get(id)
	if err != nil {
		c.logger.Warn("attachment store lookup failed", "id", id, "err", err)
		return nil, false
	}
	return data, ok
}

func (c *AttachmentCache) install(id, handle string) {
	c.mu.Lock()
	c.handles[id] = handle
	c.mu.Unlock()
}
