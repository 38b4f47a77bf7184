// package reorder implements the drag-and-drop session for playlist
// reordering.
//
// The engine tracks a live visual order while the pointer moves, but the
// authoritative order is always re-derived from the surface's observed
// sequence at drop time. Any drift between incrementally tracked state and
// what the user actually saw is eliminated by that final read.
package reorder

import (
	"context"
	"fmt"
	"slices"

	"github.com/charmbracelet/log"
	"github.com/titilda/museterm/internal/shared"
)

// EntryBox is one rendered entry's vertical extent on the surface.
type EntryBox struct {
	ID     string
	Top    int
	Height int
}

// Center returns the entry's vertical center.
func (b EntryBox) Center() int { return b.Top + b.Height/2 }

// Engine manages one modal drag session over a list of entries.
type Engine struct {
	entries  []string
	dragging string
	order    []string
	active   bool
	logger   *log.Logger
}

// NewEngine creates an idle engine.
func NewEngine(logger *log.Logger) *Engine {
	return &Engine{logger: logger}
}

// Begin opens a drag session with the given visual order.
func (e *Engine) Begin(ids []string) {
	e.entries = slices.Clone(ids)
	e.order = slices.Clone(ids)
	e.dragging = ""
	e.active = true
}

// Active reports whether a session is open.
func (e *Engine) Active() bool { return e.active }

// Cancel dismisses the session without persisting.
func (e *Engine) Cancel() {
	e.entries = nil
	e.order = nil
	e.dragging = ""
	e.active = false
}

// DragStart marks id as the entry being moved. At most one entry drags at a
// time; a second start while one is in flight is ignored.
func (e *Engine) DragStart(id string) {
	if e.dragging != "" && e.dragging != id {
		return
	}
	if !slices.Contains(e.entries, id) {
		return
	}
	e.dragging = id
}

// DragEnd unmarks the entry being moved.
func (e *Engine) DragEnd(id string) {
	if e.dragging == id {
		e.dragging = ""
	}
}

// Dragging returns the id currently being moved, or "".
func (e *Engine) Dragging() string { return e.dragging }

// Entries returns the current visual order for painting.
func (e *Engine) Entries() []string { return e.entries }

// InsertionPoint selects, among all entries except the one being dragged,
// the entry whose vertical center is nearest below the pointer — the
// candidate the moved entry should be inserted before. ok is false when the
// pointer is below every remaining center (insert at end).
func (e *Engine) InsertionPoint(pointerY int, boxes []EntryBox) (candidate string, ok bool) {
	best := -1
	for _, box := range boxes {
		if box.ID == e.dragging {
			continue
		}
		d := box.Center() - pointerY
		if d < 0 {
			continue
		}
		if best < 0 || d < best {
			best = d
			candidate = box.ID
			ok = true
		}
	}
	return candidate, ok
}

// MoveOver computes the insertion point for the pointer position and
// relocates the dragged entry before the candidate (or to the end). Returns
// true when the visual order changed. O(n) per pointer-move event.
func (e *Engine) MoveOver(pointerY int, boxes []EntryBox) bool {
	if e.dragging == "" {
		return false
	}

	candidate, ok := e.InsertionPoint(pointerY, boxes)

	from := slices.Index(e.entries, e.dragging)
	if from < 0 {
		return false
	}
	e.entries = slices.Delete(e.entries, from, from+1)

	to := len(e.entries)
	if ok {
		if i := slices.Index(e.entries, candidate); i >= 0 {
			to = i
		}
	}
	e.entries = slices.Insert(e.entries, to, e.dragging)
	return from != to
}

// Drop stores the authoritative order from the surface's live sequence. The
// visual order is read at the moment of the drop, not accumulated state, so
// the persisted order matches exactly what the user saw.
func (e *Engine) Drop(visual []string) {
	e.order = slices.Clone(visual)
	e.entries = slices.Clone(visual)
	e.dragging = ""
}

// Order returns the authoritative post-drop order.
func (e *Engine) Order() []string { return e.order }

// Commit sends the authoritative order to the persistence capability. On
// success the session closes; on failure it stays open for retry — the
// visual order still reflects the user's intended arrangement, so nothing is
// rolled back.
func (e *Engine) Commit(ctx context.Context, persist func(context.Context, []string) error) error {
	if err := persist(ctx, e.order); err != nil {
		e.logger.Warn("failed to persist order", "err", err)
		return fmt.Errorf("%w: %v", shared.ErrPersistFailed, err)
	}
	e.Cancel()
	return nil
}
