// package router implements the navigation state machine.
//
// One view is active at a time, drawn from a fixed route table keyed by the
// first path segment. Transitions go through Navigate, which re-checks the
// authentication gate on every call and hands mounting to the rendering
// surface through the narrow NavHost and MountHost collaborators — the
// router never touches the surface's internals.
package router

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/titilda/museterm/internal/models"
	"github.com/titilda/museterm/internal/session"
	"github.com/titilda/museterm/internal/shared"
)

// View identifies one screen of the application.
type View string

const (
	ViewLogin    View = "login"
	ViewSignup   View = "signup"
	ViewHome     View = "home"
	ViewPlaylist View = "playlist"
	ViewSong     View = "song"
	ViewNotFound View = "notfound"
)

// Params carries the typed parameters extracted from the path remainder.
type Params struct {
	ID      string
	Page    int
	HasPage bool
}

// Initializer loads a view's data after it is mounted. A failing initializer
// redirects to the not-found view; there is no partial or degraded render.
type Initializer func(ctx context.Context, p Params) error

// Route is one entry of the static route table.
type Route struct {
	View         View
	RequiresAuth bool
	WantsID      bool
	Init         Initializer
}

// NavHost synchronizes the navigation host's history with the active path.
type NavHost interface {
	Push(path string)
}

// MountHost mounts view templates and repaints session-dependent chrome.
type MountHost interface {
	Mount(view View)
	RefreshChrome(profile models.Profile, authenticated bool)
}

// Router holds the active view and mediates every transition.
type Router struct {
	routes  map[string]Route
	session *session.Manager
	nav     NavHost
	mount   MountHost
	logger  *log.Logger

	mu         sync.Mutex
	generation uint64
	current    View
}

// New creates a Router over a fixed route table. Routes are keyed by the
// path's first segment; no registration happens after construction. The
// router registers itself as the session's logout signal.
func New(routes map[string]Route, sess *session.Manager, nav NavHost, mount MountHost, logger *log.Logger) *Router {
	r := &Router{
		routes:  routes,
		session: sess,
		nav:     nav,
		mount:   mount,
		logger:  logger,
	}
	sess.OnLogout(func() { r.Navigate(context.Background(), "/login") })
	return r
}

// Current returns the active view.
func (r *Router) Current() View {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.current
}

// Generation returns the token of the active mount. Async work started by a
// view holds the token it saw and checks [Router.Alive] before touching the
// surface, so a slow response from an abandoned view cannot corrupt a newer
// one.
func (r *Router) Generation() uint64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.generation
}

// Alive reports whether gen still identifies the mounted view.
func (r *Router) Alive(gen uint64) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.generation == gen
}

func (r *Router) install(view View) {
	r.mu.Lock()
	r.generation++
	r.current = view
	r.mu.Unlock()
	r.mount.Mount(view)
}

// Start resolves the initial view from the startup path: the matching route
// when the gate allows it, otherwise the home view when authenticated and
// the login view when not. Gating a known path is Navigate's job.
func (r *Router) Start(ctx context.Context, path string) {
	if _, ok := r.routes[firstSegment(canonicalize(path))]; !ok {
		if r.session.IsAuthenticated() {
			r.Navigate(ctx, "/home")
		} else {
			r.Navigate(ctx, "/login")
		}
		return
	}
	r.Navigate(ctx, path)
}

// Navigate performs one transition to path.
func (r *Router) Navigate(ctx context.Context, path string) {
	path = canonicalize(path)
	r.nav.Push(path)

	segs := segments(path)
	route, ok := r.routes[segs[0]]
	if !ok {
		r.logger.Debug("no route", "path", path)
		r.install(ViewNotFound)
		r.refreshChrome()
		return
	}

	// gate re-evaluated on every navigation, never cached
	if route.RequiresAuth && !r.session.IsAuthenticated() {
		route, segs = r.routes["login"], []string{"login"}
	}

	params, err := parseParams(route, segs[1:])
	if err != nil {
		r.logger.Warn("bad path params", "path", path, "err", err)
		r.install(ViewNotFound)
		r.refreshChrome()
		return
	}

	r.install(route.View)

	if route.Init != nil {
		if err := route.Init(ctx, params); err != nil {
			r.logger.Warn("view init failed", "view", route.View, "err", err)
			r.install(ViewNotFound)
		}
	}

	r.refreshChrome()
}

// Logout is not a route lookup: it clears the session, which signals this
// router to navigate to the login view.
func (r *Router) Logout() {
	r.session.Logout()
}

// LogoutEverywhere revokes all server sessions and transitions only on
// success; on failure the current view stays mounted and the error is
// surfaced to the caller.
func (r *Router) LogoutEverywhere(ctx context.Context) error {
	return r.session.LogoutEverywhere(ctx)
}

func (r *Router) refreshChrome() {
	r.mount.RefreshChrome(r.session.Profile(), r.session.IsAuthenticated())
}

// canonicalize aliases the root path to the home view path.
func canonicalize(path string) string {
	if path == "" || path == "/" {
		return "/home"
	}
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	return path
}

func segments(path string) []string {
	segs := strings.Split(strings.Trim(path, "/"), "/")
	if len(segs) == 0 || segs[0] == "" {
		return []string{"home"}
	}
	return segs
}

func firstSegment(path string) string {
	return segments(path)[0]
}

// parseParams extracts the typed parameters a route expects from the
// remaining path segments: an id validated as a UUID and an optional page
// number.
func parseParams(route Route, rest []string) (Params, error) {
	var p Params
	if !route.WantsID {
		return p, nil
	}
	if len(rest) == 0 {
		return p, shared.ErrMissingArgument
	}

	id, err := shared.ValidateID(rest[0])
	if err != nil {
		return p, err
	}
	p.ID = id

	if len(rest) > 1 {
		page, err := strconv.Atoi(rest[1])
		if err != nil {
			return p, fmt.Errorf("invalid page %q: %w", rest[1], err)
		}
		p.Page = page
		p.HasPage = true
	}
	return p, nil
}
