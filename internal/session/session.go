// package session owns the credential lifecycle for the Titilda Music client.
//
// The Manager is the only component holding the bearer token. Every
// authenticated call asks it for headers at call time; nothing else keeps a
// token copy. Durable storage is written before in-memory state on every
// credential mutation, so the store row is the point of truth and memory is a
// cache of it.
package session

import (
	"context"
	"io"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/golang-jwt/jwt/v5"
	"github.com/titilda/museterm/internal/models"
	"github.com/titilda/museterm/internal/repositories"
	"github.com/titilda/museterm/internal/services"
	"golang.org/x/oauth2"
)

// Store is the durable key-value collaborator. A missing key is a valid
// state, never an error.
type Store interface {
	Get(key string) (string, bool, error)
	Set(key, value string) error
	Delete(key string) error
	Clear() error
}

// Manager manages the current credential and cached profile fields.
type Manager struct {
	mu      sync.RWMutex
	token   *oauth2.Token
	profile models.Profile

	store  Store
	music  *services.Music
	logger *log.Logger

	onLogout func()
}

// NewManager creates a Manager over the given raw client and durable store.
func NewManager(client *services.Client, store Store, logger *log.Logger) *Manager {
	m := &Manager{store: store, logger: logger}
	m.music = services.NewMusic(client, m)
	return m
}

// Music returns the typed endpoint capability bound to this session.
func (m *Manager) Music() *services.Music { return m.music }

// OnLogout registers the callback invoked after a local logout. The router
// uses it to navigate to the login view.
func (m *Manager) OnLogout(fn func()) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.onLogout = fn
}

// Restore loads any persisted credential and profile. No network call; an
// empty store is a valid state, and store errors are logged, not returned.
func (m *Manager) Restore() {
	m.mu.Lock()
	defer m.mu.Unlock()

	tok, ok, err := m.store.Get(repositories.KeyAccessToken)
	if err != nil {
		m.logger.Warn("failed to restore session", "err", err)
		return
	}
	if !ok {
		return
	}

	m.token = &oauth2.Token{AccessToken: tok, TokenType: "Bearer"}
	if v, ok, err := m.store.Get(repositories.KeyUsername); err == nil && ok {
		m.profile.Username = v
	}
	if v, ok, err := m.store.Get(repositories.KeyFullName); err == nil && ok {
		m.profile.FullName = v
	}
}

// IsAuthenticated reports whether a credential is present.
func (m *Manager) IsAuthenticated() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.token != nil
}

// AuthHeader returns the Authorization header for the current credential, or
// an empty map when unauthenticated. Implements [services.HeaderSource].
func (m *Manager) AuthHeader() map[string]string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.token == nil {
		return map[string]string{}
	}
	return map[string]string{"Authorization": "Bearer " + m.token.AccessToken}
}

// Profile returns the cached profile fields.
func (m *Manager) Profile() models.Profile {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.profile
}

// ExpiresAt decodes the token's unverified JWT claims and returns its expiry.
// Display only; the zero time means unknown. Verification belongs to the
// server, which signed the token.
func (m *Manager) ExpiresAt() time.Time {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.token == nil {
		return time.Time{}
	}

	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(m.token.AccessToken, claims); err != nil {
		return time.Time{}
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return time.Time{}
	}
	return exp.Time
}

// setCredential persists the token, then installs it in memory. A persistence
// failure leaves both unchanged.
func (m *Manager) setCredential(grant *models.TokenGrant) error {
	if err := m.store.Set(repositories.KeyAccessToken, grant.AccessToken); err != nil {
		return err
	}

	m.mu.Lock()
	m.token = &oauth2.Token{AccessToken: grant.AccessToken, TokenType: grant.TokenType}
	m.mu.Unlock()
	return nil
}

// setProfile persists and caches the profile fields.
func (m *Manager) setProfile(profile models.Profile) error {
	if err := m.store.Set(repositories.KeyUsername, profile.Username); err != nil {
		return err
	}
	if err := m.store.Set(repositories.KeyFullName, profile.FullName); err != nil {
		return err
	}

	m.mu.Lock()
	m.profile = profile
	m.mu.Unlock()
	return nil
}

// Login performs the credential exchange and stores the returned bearer
// token. Profile fields are not populated by login itself.
func (m *Manager) Login(ctx context.Context, username, password string) error {
	grant, err := m.music.Login(ctx, username, password)
	if err != nil {
		return err
	}
	return m.setCredential(grant)
}

// Signup creates an account, stores its credential, then performs one
// follow-up whoami request to populate the profile. A whoami failure is
// logged and swallowed: signup succeeded once the credential was obtained.
func (m *Manager) Signup(ctx context.Context, username, password, fullName string) error {
	grant, err := m.music.Signup(ctx, username, password, fullName)
	if err != nil {
		return err
	}
	if err := m.setCredential(grant); err != nil {
		return err
	}

	profile, err := m.music.Me(ctx)
	if err != nil {
		m.logger.Warn("whoami after signup failed", "err", err)
		return nil
	}
	if err := m.setProfile(*profile); err != nil {
		m.logger.Warn("failed to persist profile", "err", err)
	}
	return nil
}

// RefreshProfile re-fetches and caches the profile fields.
func (m *Manager) RefreshProfile(ctx context.Context) error {
	profile, err := m.music.Me(ctx)
	if err != nil {
		return err
	}
	return m.setProfile(*profile)
}

// Logout clears the credential and profile, evicts the persisted entries and
// signals the router. Synchronous; always succeeds — store errors are logged.
func (m *Manager) Logout() {
	if err := m.store.Clear(); err != nil {
		m.logger.Warn("failed to evict persisted session", "err", err)
	}

	m.mu.Lock()
	m.token = nil
	m.profile = models.Profile{}
	fn := m.onLogout
	m.mu.Unlock()

	if fn != nil {
		fn()
	}
}

// LogoutEverywhere revokes every server-side session, then performs the local
// logout. On failure the local session is left intact and the error surfaced.
func (m *Manager) LogoutEverywhere(ctx context.Context) error {
	if err := m.music.RevokeSessions(ctx); err != nil {
		return err
	}
	m.Logout()
	return nil
}

// AuthenticatedRequest merges the auth header into the given request and
// performs it. Status interpretation is the caller's responsibility.
func (m *Manager) AuthenticatedRequest(ctx context.Context, method, path string, body io.Reader, contentType string) (*services.APIResponse, error) {
	return m.music.Do(ctx, method, path, body, contentType)
}
