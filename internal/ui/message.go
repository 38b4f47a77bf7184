package ui

import "github.com/titilda/museterm/internal/models"

// Messages delivered back into the update loop by async work. Each carries
// the mount generation it was started under; stale results are dropped
// before touching view state.

type homeReadyMsg struct {
	gen uint64
	err error
}

type playlistReadyMsg struct {
	gen uint64
	err error
}

type artworkPreloadedMsg struct {
	gen uint64
}

type songFetchedMsg struct {
	gen  uint64
	song *models.Song
	err  error
}

type authDoneMsg struct {
	signup bool
	err    error
}

type orderSavedMsg struct {
	err error
}

type revokeDoneMsg struct {
	err error
}

type statusMsg struct {
	text string
}
