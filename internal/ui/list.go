package ui

import (
	"fmt"

	"github.com/charmbracelet/bubbles/list"
	"github.com/titilda/museterm/internal/models"
)

var _ list.Item = playlistItem{}

// playlistItem wraps [models.Playlist] to implement [list.Item].
type playlistItem struct {
	playlist models.Playlist
}

func (i playlistItem) FilterValue() string { return i.playlist.Name }
func (i playlistItem) Title() string       { return i.playlist.Name }
func (i playlistItem) Description() string {
	desc := i.playlist.CreatedAt.Format("2006-01-02")
	if i.playlist.ManuallySorted {
		desc = fmt.Sprintf("%s • custom order", desc)
	}
	return desc
}
