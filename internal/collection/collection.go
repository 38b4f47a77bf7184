// package collection implements the server-backed, paginated item model.
//
// A Collection starts its metadata and item-list fetches at construction and
// exposes a single joined readiness: callers only ever observe a collection
// that is fully ready or failed, never half-loaded. Items are immutable once
// fetched; a fresh Collection replaces the whole set.
package collection

import (
	"context"
	"fmt"

	"github.com/titilda/museterm/internal/shared"
)

// PageSize is the fixed number of items per page.
const PageSize = 5

// Keyed is an item addressable by its opaque identifier.
type Keyed interface {
	Key() string
}

// Fetch halves, reported by FetchError.
const (
	HalfMetadata = "metadata"
	HalfItems    = "items"
)

// FetchError reports which half of the joined fetch failed.
type FetchError struct {
	Half string
	Err  error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("%s fetch: %v", e.Half, e.Err)
}

func (e *FetchError) Unwrap() []error {
	return []error{shared.ErrFetchFailed, e.Err}
}

// Collection is a remote collection of items of type T with metadata M.
type Collection[M any, T Keyed] struct {
	targetID string

	ready chan struct{}
	meta  M
	items []T
	err   error

	attachments *AttachmentCache
}

// New constructs a collection for targetID and immediately starts the
// metadata and item-list fetches concurrently. It never blocks; await
// [Collection.Ready] before reading. attachments may be nil when the item
// type carries no binary attachment.
func New[M any, T Keyed](ctx context.Context, targetID string, fetchMeta func(context.Context) (M, error), fetchItems func(context.Context) ([]T, error), attachments *AttachmentCache) *Collection[M, T] {
	c := &Collection[M, T]{
		targetID:    targetID,
		ready:       make(chan struct{}),
		attachments: attachments,
	}

	metaCh := make(chan error, 1)
	itemsCh := make(chan error, 1)

	go func() {
		meta, err := fetchMeta(ctx)
		if err != nil {
			metaCh <- &FetchError{Half: HalfMetadata, Err: err}
			return
		}
		c.meta = meta
		metaCh <- nil
	}()

	go func() {
		items, err := fetchItems(ctx)
		if err != nil {
			itemsCh <- &FetchError{Half: HalfItems, Err: err}
			return
		}
		c.items = items
		itemsCh <- nil
	}()

	go func() {
		metaErr := <-metaCh
		itemsErr := <-itemsCh
		if metaErr != nil {
			c.err = metaErr
		} else if itemsErr != nil {
			c.err = itemsErr
		}
		if c.err != nil {
			// no partial data escapes a failed collection
			c.items = nil
		}
		close(c.ready)
	}()

	return c
}

// TargetID returns the identifier the collection was constructed for.
func (c *Collection[M, T]) TargetID() string { return c.targetID }

// Ready blocks until both fetches complete and returns the joined result.
func (c *Collection[M, T]) Ready(ctx context.Context) error {
	select {
	case <-c.ready:
		return c.err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Meta returns the collection metadata. Valid only after Ready succeeds.
func (c *Collection[M, T]) Meta() M { return c.meta }

// Len returns the number of items.
func (c *Collection[M, T]) Len() int { return len(c.items) }

// TotalPages returns ceil(len/PageSize).
func (c *Collection[M, T]) TotalPages() int {
	return (len(c.items) + PageSize - 1) / PageSize
}

// ClampPage clamps n into the valid page range. An empty collection is
// treated as a single empty page 0.
func (c *Collection[M, T]) ClampPage(n int) int {
	if n < 0 {
		return 0
	}
	if last := c.TotalPages() - 1; n > last {
		if last < 0 {
			return 0
		}
		return last
	}
	return n
}

// Page returns the items at offset n*PageSize .. n*PageSize+PageSize, with n
// clamped into range. Out-of-range pages never error.
func (c *Collection[M, T]) Page(n int) []T {
	n = c.ClampPage(n)
	start := n * PageSize
	if start >= len(c.items) {
		return nil
	}
	end := start + PageSize
	if end > len(c.items) {
		end = len(c.items)
	}
	return c.items[start:end]
}

// All returns the full item sequence in server order.
func (c *Collection[M, T]) All() []T { return c.items }

// PreloadAttachments fetches every item's attachment concurrently. A failing
// fetch for one item installs the fallback handle for it; the call returns
// once every per-item attempt has completed.
func (c *Collection[M, T]) PreloadAttachments(ctx context.Context) {
	if c.attachments == nil {
		return
	}
	ids := make([]string, len(c.items))
	for i, item := range c.items {
		ids[i] = item.Key()
	}
	c.attachments.Preload(ctx, ids)
}

// AttachmentHandle returns the locally resolvable handle for an item's
// attachment, or the fallback handle when none is cached yet.
func (c *Collection[M, T]) AttachmentHandle(id string) string {
	if c.attachments == nil {
		return ""
	}
	return c.attachments.Handle(id)
}
