// package ui implements the rendering surface as a bubbletea program.
//
// The Model is the router's NavHost and MountHost: the router decides which
// view is active, the Model paints it and feeds navigation intents back. All
// remote work runs as [tea.Cmd]s carrying the mount generation they were
// started under, so results from an abandoned view are dropped instead of
// painting over a newer one.
package ui

import (
	"context"
	"fmt"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/log"
	"github.com/titilda/museterm/internal/collection"
	"github.com/titilda/museterm/internal/models"
	"github.com/titilda/museterm/internal/reorder"
	"github.com/titilda/museterm/internal/repositories"
	"github.com/titilda/museterm/internal/router"
	"github.com/titilda/museterm/internal/services"
	"github.com/titilda/museterm/internal/session"
)

// Model represents the TUI application state.
type Model struct {
	ctx       context.Context
	session   *session.Manager
	music     *services.Music
	router    *router.Router
	engine    *reorder.Engine
	artworks  *repositories.ArtworkStore
	cacheDir  string
	logger    *log.Logger
	startPath string

	keys   keyMap
	help   help.Model
	width  int
	height int

	view    router.View
	history []string
	queue   []tea.Cmd

	profile models.Profile
	authed  bool

	inputs  []textinput.Model
	focus   int
	formErr string

	homeCol     *collection.Collection[*models.Profile, models.Playlist]
	homeList    list.Model
	homeLoading bool
	creating    bool
	createInput textinput.Model

	playlistCol *collection.Collection[*models.Playlist, models.Song]
	page        int
	plLoading   bool
	status      string

	song        *models.Song
	songArt     *collection.AttachmentCache
	songLoading bool

	dragOpen  bool
	dragRows  []string
	dragTop   int
	dragErr   string
	titleByID map[string]string
}

// ModelOpts contains the dependencies for creating a Model.
type ModelOpts struct {
	Session   *session.Manager
	Artworks  *repositories.ArtworkStore
	CacheDir  string
	StartPath string
	Logger    *log.Logger
}

// NewModel creates the TUI model and its router.
func NewModel(ctx context.Context, opts ModelOpts) *Model {
	m := &Model{
		ctx:       ctx,
		session:   opts.Session,
		music:     opts.Session.Music(),
		engine:    reorder.NewEngine(opts.Logger),
		artworks:  opts.Artworks,
		cacheDir:  opts.CacheDir,
		logger:    opts.Logger,
		startPath: opts.StartPath,
		keys:      newKeyMap(),
		help:      help.New(),
	}

	m.router = router.New(router.Table(map[router.View]router.Initializer{
		router.ViewHome:     m.initHome,
		router.ViewPlaylist: m.initPlaylist,
		router.ViewSong:     m.initSong,
	}), opts.Session, m, m, opts.Logger)

	return m
}

// Push implements [router.NavHost].
func (m *Model) Push(path string) {
	if n := len(m.history); n > 0 && m.history[n-1] == path {
		return
	}
	m.history = append(m.history, path)
}

// Mount implements [router.MountHost]: clears the previous view's state and
// prepares the named view's template.
func (m *Model) Mount(view router.View) {
	m.view = view
	m.formErr = ""
	m.status = ""
	m.creating = false
	m.dragOpen = false

	switch view {
	case router.ViewLogin:
		m.inputs = newForm("username", "password")
	case router.ViewSignup:
		m.inputs = newForm("username", "password", "full name")
	case router.ViewHome:
		m.homeLoading = true
	case router.ViewPlaylist:
		m.plLoading = true
	case router.ViewSong:
		m.songLoading = true
		m.song = nil
	}
	m.focus = 0
}

// RefreshChrome implements [router.MountHost]; repainted unconditionally
// after every transition.
func (m *Model) RefreshChrome(profile models.Profile, authenticated bool) {
	m.profile = profile
	m.authed = authenticated
}

func newForm(placeholders ...string) []textinput.Model {
	inputs := make([]textinput.Model, len(placeholders))
	for i, ph := range placeholders {
		in := textinput.New()
		in.Placeholder = ph
		if ph == "password" {
			in.EchoMode = textinput.EchoPassword
		}
		if i == 0 {
			in.Focus()
		}
		inputs[i] = in
	}
	return inputs
}

// enqueue defers a command produced by a view initializer until the update
// loop returns.
func (m *Model) enqueue(cmd tea.Cmd) {
	m.queue = append(m.queue, cmd)
}

func (m *Model) drain() tea.Cmd {
	if len(m.queue) == 0 {
		return nil
	}
	cmds := m.queue
	m.queue = nil
	return tea.Batch(cmds...)
}

// navigate runs a router transition and returns the commands its
// initializers enqueued.
func (m *Model) navigate(path string) tea.Cmd {
	m.router.Navigate(m.ctx, path)
	return m.drain()
}

// Init starts the program at the configured path.
func (m *Model) Init() tea.Cmd {
	m.router.Start(m.ctx, m.startPath)
	return tea.Batch(m.drain(), textinput.Blink)
}

// view initializers

func (m *Model) initHome(ctx context.Context, _ router.Params) error {
	col := collection.New(ctx, "me", m.music.Me, m.music.Playlists, nil)
	m.homeCol = col

	gen := m.router.Generation()
	m.enqueue(func() tea.Msg {
		return homeReadyMsg{gen: gen, err: col.Ready(ctx)}
	})
	return nil
}

func (m *Model) initPlaylist(ctx context.Context, p router.Params) error {
	art := collection.NewAttachmentCache(m.music.Artwork, m.artworks, m.cacheDir, m.logger)
	col := collection.New(ctx, p.ID,
		func(ctx context.Context) (*models.Playlist, error) { return m.music.Playlist(ctx, p.ID) },
		func(ctx context.Context) ([]models.Song, error) { return m.music.PlaylistSongs(ctx, p.ID) },
		art,
	)
	m.playlistCol = col
	m.page = p.Page

	gen := m.router.Generation()
	m.enqueue(func() tea.Msg {
		return playlistReadyMsg{gen: gen, err: col.Ready(ctx)}
	})
	return nil
}

func (m *Model) initSong(ctx context.Context, p router.Params) error {
	m.songArt = collection.NewAttachmentCache(m.music.Artwork, m.artworks, m.cacheDir, m.logger)

	gen := m.router.Generation()
	m.enqueue(func() tea.Msg {
		song, err := m.music.Song(ctx, p.ID)
		if err == nil {
			m.songArt.Preload(ctx, []string{song.ID})
		}
		return songFetchedMsg{gen: gen, song: song, err: err}
	})
	return nil
}

// Update handles incoming messages and updates the model state.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		if m.homeList.Width() == 0 {
			m.homeList.SetSize(msg.Width-4, msg.Height-8)
		}
		return m, nil

	case tea.MouseMsg:
		if m.dragOpen {
			return m.handleDragMouse(msg)
		}
		return m, nil

	case tea.KeyMsg:
		return m.handleKeys(msg)

	case homeReadyMsg:
		if !m.router.Alive(msg.gen) {
			return m, nil
		}
		if msg.err != nil {
			return m, m.navigate("/notfound")
		}
		m.homeLoading = false
		items := make([]list.Item, 0, m.homeCol.Len())
		for _, pl := range m.homeCol.All() {
			items = append(items, playlistItem{playlist: pl})
		}
		m.homeList = list.New(items, list.NewDefaultDelegate(), m.width-4, m.height-8)
		m.homeList.Title = fmt.Sprintf("%s's playlists", m.homeCol.Meta().Username)
		m.homeList.SetShowHelp(false)
		return m, nil

	case playlistReadyMsg:
		if !m.router.Alive(msg.gen) {
			return m, nil
		}
		if msg.err != nil {
			return m, m.navigate("/notfound")
		}
		m.plLoading = false
		m.page = m.playlistCol.ClampPage(m.page)
		col := m.playlistCol
		gen := msg.gen
		return m, func() tea.Msg {
			col.PreloadAttachments(m.ctx)
			return artworkPreloadedMsg{gen: gen}
		}

	case artworkPreloadedMsg:
		// handles are installed; repaint picks them up
		return m, nil

	case songFetchedMsg:
		if !m.router.Alive(msg.gen) {
			return m, nil
		}
		if msg.err != nil {
			return m, m.navigate("/notfound")
		}
		m.songLoading = false
		m.song = msg.song
		return m, nil

	case authDoneMsg:
		if msg.err != nil {
			m.formErr = msg.err.Error()
			return m, nil
		}
		return m, m.navigate("/home")

	case orderSavedMsg:
		if msg.err != nil {
			// session stays open for retry; the arrangement is kept
			m.dragErr = msg.err.Error()
			return m, nil
		}
		m.engine.Cancel()
		m.dragOpen = false
		m.dragErr = ""
		return m, m.navigate(fmt.Sprintf("/playlists/%s/%d", m.playlistCol.TargetID(), m.page))

	case statusMsg:
		m.status = styles.err.Render(msg.text)
		return m, nil

	case revokeDoneMsg:
		if msg.err != nil {
			// session left intact, error surfaced on the current view
			m.status = styles.err.Render(fmt.Sprintf("logout everywhere failed: %v", msg.err))
			return m, nil
		}
		m.router.Logout()
		return m, m.drain()
	}

	return m.updateFocused(msg)
}

func (m *Model) handleKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.String() == "ctrl+c" {
		return m, tea.Quit
	}

	if m.dragOpen {
		return m.handleDragKeys(msg)
	}

	switch m.view {
	case router.ViewLogin, router.ViewSignup:
		return m.handleFormKeys(msg)
	case router.ViewHome:
		return m.handleHomeKeys(msg)
	case router.ViewPlaylist:
		return m.handlePlaylistKeys(msg)
	case router.ViewSong, router.ViewNotFound:
		switch msg.String() {
		case "q":
			return m, tea.Quit
		case "esc", "enter":
			return m, m.navigate("/home")
		}
	}
	return m, nil
}

func (m *Model) handleFormKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "tab", "down":
		m.setFocus(m.focus + 1)
		return m, nil
	case "shift+tab", "up":
		m.setFocus(m.focus - 1)
		return m, nil
	case "ctrl+n":
		if m.view == router.ViewLogin {
			return m, m.navigate("/signup")
		}
		return m, m.navigate("/login")
	case "enter":
		return m, m.submitForm()
	}
	return m.updateFocused(msg)
}

func (m *Model) setFocus(i int) {
	if len(m.inputs) == 0 {
		return
	}
	m.focus = (i + len(m.inputs)) % len(m.inputs)
	for j := range m.inputs {
		if j == m.focus {
			m.inputs[j].Focus()
		} else {
			m.inputs[j].Blur()
		}
	}
}

func (m *Model) submitForm() tea.Cmd {
	signup := m.view == router.ViewSignup
	username := m.inputs[0].Value()
	password := m.inputs[1].Value()
	if username == "" || password == "" {
		m.formErr = "username and password must not be empty"
		return nil
	}

	var fullName string
	if signup {
		fullName = m.inputs[2].Value()
	}

	return func() tea.Msg {
		var err error
		if signup {
			err = m.session.Signup(m.ctx, username, password, fullName)
		} else {
			err = m.session.Login(m.ctx, username, password)
		}
		return authDoneMsg{signup: signup, err: err}
	}
}

func (m *Model) handleHomeKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.creating {
		switch msg.String() {
		case "esc":
			m.creating = false
			return m, nil
		case "enter":
			name := m.createInput.Value()
			if name == "" {
				m.status = styles.err.Render("playlist name cannot be empty")
				return m, nil
			}
			return m, func() tea.Msg {
				_, err := m.music.CreatePlaylist(m.ctx, models.PlaylistCreate{Name: name})
				if err != nil {
					return statusMsg{text: fmt.Sprintf("create failed: %v", err)}
				}
				return homeRefreshMsg{}
			}
		}
		var cmd tea.Cmd
		m.createInput, cmd = m.createInput.Update(msg)
		return m, cmd
	}

	switch msg.String() {
	case "q":
		return m, tea.Quit
	case "L":
		m.router.Logout()
		return m, m.drain()
	case "ctrl+e":
		return m, m.logoutEverywhere()
	case "n":
		m.creating = true
		m.createInput = textinput.New()
		m.createInput.Placeholder = "playlist name"
		m.createInput.Focus()
		return m, textinput.Blink
	case "enter":
		if selected, ok := m.homeList.SelectedItem().(playlistItem); ok {
			return m, m.navigate("/playlists/" + selected.playlist.ID)
		}
		return m, nil
	}

	var cmd tea.Cmd
	m.homeList, cmd = m.homeList.Update(msg)
	return m, cmd
}

func (m *Model) handlePlaylistKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q":
		return m, tea.Quit
	case "esc":
		return m, m.navigate("/home")
	case "right", "l":
		m.page = m.playlistCol.ClampPage(m.page + 1)
		return m, nil
	case "left", "h":
		m.page = m.playlistCol.ClampPage(m.page - 1)
		return m, nil
	case "o":
		return m.openDrag()
	case "L":
		m.router.Logout()
		return m, m.drain()
	}
	return m, nil
}

// logoutEverywhere runs the revoke call off the loop; the local logout and
// transition happen back on the loop, and only on success.
func (m *Model) logoutEverywhere() tea.Cmd {
	return func() tea.Msg {
		return revokeDoneMsg{err: m.music.RevokeSessions(m.ctx)}
	}
}

// homeRefreshMsg re-runs the home transition after a successful write.
type homeRefreshMsg struct{}

func (m *Model) updateFocused(msg tea.Msg) (tea.Model, tea.Cmd) {
	if _, ok := msg.(homeRefreshMsg); ok {
		return m, m.navigate("/home")
	}

	switch m.view {
	case router.ViewLogin, router.ViewSignup:
		if len(m.inputs) == 0 {
			return m, nil
		}
		var cmd tea.Cmd
		m.inputs[m.focus], cmd = m.inputs[m.focus].Update(msg)
		return m, cmd
	case router.ViewHome:
		var cmd tea.Cmd
		m.homeList, cmd = m.homeList.Update(msg)
		return m, cmd
	}
	return m, nil
}
