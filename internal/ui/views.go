package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/titilda/museterm/internal/router"
)

// View renders the UI based on the active view.
func (m *Model) View() string {
	if m.dragOpen {
		return m.renderDrag()
	}

	var body string
	switch m.view {
	case router.ViewLogin:
		body = m.renderForm("Sign in", "ctrl+n: sign up instead")
	case router.ViewSignup:
		body = m.renderForm("Create account", "ctrl+n: sign in instead")
	case router.ViewHome:
		body = m.renderHome()
	case router.ViewPlaylist:
		body = m.renderPlaylist()
	case router.ViewSong:
		body = m.renderSong()
	case router.ViewNotFound:
		body = m.renderNotFound()
	}

	return fmt.Sprintf("%s\n%s", m.renderChrome(), body)
}

// renderChrome paints the persistent session bar above every view.
func (m *Model) renderChrome() string {
	if !m.authed {
		return styles.chrome.Render("museterm — not signed in")
	}
	who := m.profile.Username
	if m.profile.FullName != "" {
		who = fmt.Sprintf("%s (%s)", m.profile.FullName, m.profile.Username)
	}
	return styles.chrome.Render(fmt.Sprintf("museterm — %s · L: logout · ctrl+e: logout everywhere", who))
}

func (m *Model) renderForm(title, hint string) string {
	var b strings.Builder
	b.WriteString(styles.title.Render(title))
	b.WriteString("\n")
	for i := range m.inputs {
		b.WriteString(m.inputs[i].View())
		b.WriteString("\n")
	}
	if m.formErr != "" {
		b.WriteString(styles.err.Render(m.formErr))
		b.WriteString("\n")
	}
	b.WriteString(styles.help.Render(fmt.Sprintf("tab: next field · enter: submit · %s", hint)))
	return b.String()
}

func (m *Model) renderHome() string {
	if m.homeLoading {
		return "Loading playlists..."
	}
	if m.creating {
		return fmt.Sprintf("%s\n%s\n%s",
			styles.title.Render("New playlist"),
			m.createInput.View(),
			styles.help.Render("enter: create · esc: cancel"))
	}

	helpKeys := []key.Binding{m.keys.enter, m.keys.quit}
	out := fmt.Sprintf("%s\n\n%s", m.homeList.View(), m.help.ShortHelpView(helpKeys))
	if m.status != "" {
		out = fmt.Sprintf("%s\n%s", out, m.status)
	}
	return out
}

func (m *Model) renderPlaylist() string {
	if m.plLoading {
		return "Loading playlist..."
	}

	meta := m.playlistCol.Meta()
	title := meta.Name
	if meta.ManuallySorted {
		title = fmt.Sprintf("%s (custom order)", title)
	}

	var b strings.Builder
	b.WriteString(styles.title.Render(title))
	b.WriteString("\n")

	for _, song := range m.playlistCol.Page(m.page) {
		b.WriteString(fmt.Sprintf("  %s — %s\n", song.Title, song.Artist))
		b.WriteString(styles.help.Render(fmt.Sprintf("    art: %s", m.playlistCol.AttachmentHandle(song.ID))))
		b.WriteString("\n")
	}

	b.WriteString(fmt.Sprintf("\npage %d/%d", m.page+1, max(m.playlistCol.TotalPages(), 1)))
	if m.status != "" {
		b.WriteString("\n")
		b.WriteString(m.status)
	}
	b.WriteString("\n")
	b.WriteString(styles.help.Render("←/→: pages · o: reorder · esc: back"))
	return b.String()
}

func (m *Model) renderSong() string {
	if m.songLoading || m.song == nil {
		return "Loading song..."
	}
	s := m.song
	return fmt.Sprintf("%s\n%s\nAlbum: %s (%d)\nGenre: %s\n%s",
		styles.title.Render(s.Title),
		s.Artist,
		s.Album, s.ReleaseYear,
		s.Genre,
		styles.help.Render(fmt.Sprintf("art: %s · esc: back", m.songArt.Handle(s.ID))))
}

func (m *Model) renderNotFound() string {
	return fmt.Sprintf("%s\n%s\n\n%s",
		styles.title.Render("404"),
		"Page not found.",
		styles.help.Render("enter: home"))
}

// renderDrag paints the reorder modal. The entry rows start at
// dragHeaderLines so mouse coordinates map straight onto entries.
func (m *Model) renderDrag() string {
	var b strings.Builder
	b.WriteString(m.renderChrome())
	b.WriteString("\n")
	b.WriteString(styles.title.Render("Reorder songs"))
	b.WriteString("\n\n")

	for _, id := range m.dragRows {
		title := m.titleByID[id]
		if id == m.engine.Dragging() {
			b.WriteString(styles.dragging.Render(fmt.Sprintf("≡ %s", title)))
		} else {
			b.WriteString(fmt.Sprintf("  %s", title))
		}
		b.WriteString("\n")
	}

	if m.dragErr != "" {
		b.WriteString(styles.err.Render(fmt.Sprintf("save failed: %s — press enter to retry", m.dragErr)))
		b.WriteString("\n")
	}
	b.WriteString(styles.help.Render("drag with mouse · enter: save · esc: cancel"))
	return b.String()
}
