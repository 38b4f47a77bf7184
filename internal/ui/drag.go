package ui

import (
	"slices"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/titilda/museterm/internal/reorder"
)

// dragHeaderLines is the number of lines above the first entry row in the
// reorder modal; mouse Y coordinates map to entries relative to it.
const dragHeaderLines = 4

// openDrag begins a reorder session over the playlist's full song sequence.
func (m *Model) openDrag() (tea.Model, tea.Cmd) {
	if m.playlistCol == nil || m.plLoading {
		return m, nil
	}

	songs := m.playlistCol.All()
	ids := make([]string, len(songs))
	m.titleByID = make(map[string]string, len(songs))
	for i, s := range songs {
		ids[i] = s.ID
		m.titleByID[s.ID] = s.Title
	}

	m.engine.Begin(ids)
	m.dragRows = slices.Clone(ids)
	m.dragTop = dragHeaderLines
	m.dragOpen = true
	m.dragErr = ""
	return m, nil
}

// boxes returns the vertical extent of every rendered entry row.
func (m *Model) boxes() []reorder.EntryBox {
	boxes := make([]reorder.EntryBox, len(m.dragRows))
	for i, id := range m.dragRows {
		boxes[i] = reorder.EntryBox{ID: id, Top: m.dragTop + i, Height: 1}
	}
	return boxes
}

func (m *Model) handleDragMouse(msg tea.MouseMsg) (tea.Model, tea.Cmd) {
	if msg.Button != tea.MouseButtonLeft && msg.Action != tea.MouseActionMotion {
		return m, nil
	}

	switch msg.Action {
	case tea.MouseActionPress:
		row := msg.Y - m.dragTop
		if row >= 0 && row < len(m.dragRows) {
			m.engine.DragStart(m.dragRows[row])
		}

	case tea.MouseActionMotion:
		if m.engine.Dragging() == "" {
			return m, nil
		}
		if m.engine.MoveOver(msg.Y, m.boxes()) {
			// repaint the surface's sequence from the engine's live order
			m.dragRows = slices.Clone(m.engine.Entries())
		}

	case tea.MouseActionRelease:
		if m.engine.Dragging() == "" {
			return m, nil
		}
		// order is re-derived from the rows as rendered, not tracked state
		m.engine.Drop(m.dragRows)
	}

	return m, nil
}

func (m *Model) handleDragKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.engine.Cancel()
		m.dragOpen = false
		m.dragErr = ""
		return m, nil

	case "enter":
		if m.engine.Dragging() != "" {
			return m, nil
		}
		order := slices.Clone(m.engine.Order())
		target := m.playlistCol.TargetID()
		return m, func() tea.Msg {
			return orderSavedMsg{err: m.music.SaveSongOrder(m.ctx, target, order)}
		}
	}
	return m, nil
}
