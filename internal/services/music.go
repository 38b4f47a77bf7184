// Typed endpoint wrappers for the Titilda Music service.
package services

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strconv"

	"github.com/titilda/museterm/internal/models"
	"github.com/titilda/museterm/internal/shared"
)

// Music exposes every endpoint of the service as a typed call. Authenticated
// calls fetch headers from the HeaderSource at call time.
type Music struct {
	client  *Client
	headers HeaderSource
}

// NewMusic creates a Music service over the given raw client. headers may be
// nil for a client that only performs credential exchange.
func NewMusic(client *Client, headers HeaderSource) *Music {
	return &Music{client: client, headers: headers}
}

func (m *Music) authHeader() map[string]string {
	if m.headers == nil {
		return nil
	}
	return m.headers.AuthHeader()
}

// Do performs a raw request with the auth header merged in. It does not
// interpret status codes.
func (m *Music) Do(ctx context.Context, method, path string, body io.Reader, contentType string) (*APIResponse, error) {
	return m.client.Do(ctx, method, path, body, contentType, m.authHeader())
}

// apiError converts a non-2xx response into an *APIError.
func apiError(resp *APIResponse) error {
	return &APIError{Status: resp.StatusCode, Message: resp.ErrorMessage()}
}

// mapNotFound converts a 404 into the domain sentinel for the missing entity.
func mapNotFound(err error, sentinel error) error {
	var apiErr *APIError
	if errors.As(err, &apiErr) && apiErr.Status == http.StatusNotFound {
		return fmt.Errorf("%w: %v", sentinel, err)
	}
	return err
}

// getJSON performs an authenticated GET and decodes the response into out.
func (m *Music) getJSON(ctx context.Context, path string, out any) error {
	resp, err := m.client.Do(ctx, http.MethodGet, path, nil, "", m.authHeader())
	if err != nil {
		return err
	}
	if !resp.OK() {
		return apiError(resp)
	}
	if out != nil {
		if err := json.Unmarshal(resp.Body, out); err != nil {
			return fmt.Errorf("failed to decode response: %w", err)
		}
	}
	return nil
}

// sendJSON marshals body and performs an authenticated request, decoding into
// out when non-nil.
func (m *Music) sendJSON(ctx context.Context, method, path string, body, out any) error {
	data, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("failed to marshal request: %w", err)
	}
	resp, err := m.client.Do(ctx, method, path, bytes.NewReader(data), "application/json", m.authHeader())
	if err != nil {
		return err
	}
	if !resp.OK() {
		return apiError(resp)
	}
	if out != nil {
		if err := json.Unmarshal(resp.Body, out); err != nil {
			return fmt.Errorf("failed to decode response: %w", err)
		}
	}
	return nil
}

// ExchangeCredentials performs the credential exchange (login or signup) and
// validates the returned grant. A 2xx response whose payload is not a Bearer
// grant wraps [shared.ErrMalformedGrant].
func (m *Music) ExchangeCredentials(ctx context.Context, path string, body any) (*models.TokenGrant, error) {
	data, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	resp, err := m.client.Do(ctx, http.MethodPost, path, bytes.NewReader(data), "application/json", nil)
	if err != nil {
		return nil, err
	}
	if !resp.OK() {
		return nil, apiError(resp)
	}

	var grant models.TokenGrant
	if err := json.Unmarshal(resp.Body, &grant); err != nil {
		return nil, fmt.Errorf("%w: %v", shared.ErrMalformedGrant, err)
	}
	if grant.TokenType != "Bearer" || grant.AccessToken == "" {
		return nil, fmt.Errorf("%w: token_type %q", shared.ErrMalformedGrant, grant.TokenType)
	}

	return &grant, nil
}

// Login exchanges a username and password for a bearer grant.
func (m *Music) Login(ctx context.Context, username, password string) (*models.TokenGrant, error) {
	body := map[string]string{"username": username, "password": password}
	return m.ExchangeCredentials(ctx, "/api/auth/login", body)
}

// Signup creates an account and returns its bearer grant.
func (m *Music) Signup(ctx context.Context, username, password, fullName string) (*models.TokenGrant, error) {
	body := map[string]string{"username": username, "password": password, "fullName": fullName}
	return m.ExchangeCredentials(ctx, "/api/auth/signup", body)
}

// Me retrieves the authenticated user's profile.
func (m *Music) Me(ctx context.Context) (*models.Profile, error) {
	var profile models.Profile
	if err := m.getJSON(ctx, "/api/me", &profile); err != nil {
		return nil, err
	}
	return &profile, nil
}

// RevokeSessions invalidates every session of the authenticated user.
func (m *Music) RevokeSessions(ctx context.Context) error {
	resp, err := m.client.Do(ctx, http.MethodDelete, "/api/sessions", nil, "", m.authHeader())
	if err != nil {
		return err
	}
	if !resp.OK() {
		return apiError(resp)
	}
	return nil
}

// Playlists retrieves the user's playlists in server order.
func (m *Music) Playlists(ctx context.Context) ([]models.Playlist, error) {
	var playlists []models.Playlist
	if err := m.getJSON(ctx, "/api/playlists", &playlists); err != nil {
		return nil, err
	}
	return playlists, nil
}

// Playlist retrieves a playlist's metadata.
func (m *Music) Playlist(ctx context.Context, id string) (*models.Playlist, error) {
	var playlist models.Playlist
	if err := m.getJSON(ctx, "/api/playlists/"+id, &playlist); err != nil {
		return nil, mapNotFound(err, shared.ErrPlaylistNotFound)
	}
	return &playlist, nil
}

// PlaylistSongs retrieves a playlist's songs in persisted order.
func (m *Music) PlaylistSongs(ctx context.Context, id string) ([]models.Song, error) {
	var songs []models.Song
	if err := m.getJSON(ctx, "/api/playlists/"+id+"/songs", &songs); err != nil {
		return nil, mapNotFound(err, shared.ErrPlaylistNotFound)
	}
	return songs, nil
}

// CreatePlaylist creates a playlist with an optional initial set of songs and
// returns the created playlist's song list.
func (m *Music) CreatePlaylist(ctx context.Context, create models.PlaylistCreate) ([]models.Song, error) {
	if create.Songs == nil {
		create.Songs = []string{}
	}
	var songs []models.Song
	if err := m.sendJSON(ctx, http.MethodPost, "/api/playlists", create, &songs); err != nil {
		return nil, err
	}
	return songs, nil
}

// AddSongToPlaylist appends a song to a playlist.
func (m *Music) AddSongToPlaylist(ctx context.Context, playlistID, songID string) error {
	body := map[string]string{"songId": songID}
	return m.sendJSON(ctx, http.MethodPost, "/api/playlists/"+playlistID+"/songs", body, nil)
}

// SaveSongOrder persists a full custom ordering for a playlist. The server
// rejects orders that are not a permutation of the playlist's songs.
func (m *Music) SaveSongOrder(ctx context.Context, playlistID string, songIDs []string) error {
	return m.sendJSON(ctx, http.MethodPut, "/api/playlists/"+playlistID+"/song-order", songIDs, nil)
}

// Songs retrieves the user's song library.
func (m *Music) Songs(ctx context.Context) ([]models.Song, error) {
	var songs []models.Song
	if err := m.getJSON(ctx, "/api/songs", &songs); err != nil {
		return nil, err
	}
	return songs, nil
}

// Song retrieves a single song by id.
func (m *Music) Song(ctx context.Context, id string) (*models.Song, error) {
	var song models.Song
	if err := m.getJSON(ctx, "/api/songs/"+id, &song); err != nil {
		return nil, mapNotFound(err, shared.ErrSongNotFound)
	}
	return &song, nil
}

// CreateSong uploads a song as multipart form data. The audio file is
// required, artwork optional.
func (m *Music) CreateSong(ctx context.Context, upload models.SongUpload) (*models.Song, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	fields := map[string]string{
		"title":       upload.Title,
		"album":       upload.Album,
		"artist":      upload.Artist,
		"releaseYear": strconv.Itoa(upload.ReleaseYear),
		"genre":       upload.Genre,
	}
	for name, value := range fields {
		if err := w.WriteField(name, value); err != nil {
			return nil, fmt.Errorf("failed to write field %s: %w", name, err)
		}
	}

	if err := attachFile(w, "audioFile", upload.AudioPath); err != nil {
		return nil, err
	}
	if upload.ArtworkPath != "" {
		if err := attachFile(w, "artwork", upload.ArtworkPath); err != nil {
			return nil, err
		}
	}

	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("failed to finalize multipart body: %w", err)
	}

	resp, err := m.client.Do(ctx, http.MethodPost, "/api/songs", &buf, w.FormDataContentType(), m.authHeader())
	if err != nil {
		return nil, err
	}
	if !resp.OK() {
		return nil, apiError(resp)
	}

	var song models.Song
	if err := json.Unmarshal(resp.Body, &song); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}
	return &song, nil
}

// Artwork fetches the artwork bytes for a song.
func (m *Music) Artwork(ctx context.Context, songID string) ([]byte, error) {
	resp, err := m.client.Do(ctx, http.MethodGet, "/static/artworks/"+songID+".webp", nil, "", m.authHeader())
	if err != nil {
		return nil, err
	}
	if !resp.OK() {
		return nil, apiError(resp)
	}
	return resp.Body, nil
}

func attachFile(w *multipart.Writer, field, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()

	part, err := w.CreateFormFile(field, filepath.Base(path))
	if err != nil {
		return fmt.Errorf("failed to create form file: %w", err)
	}
	if _, err := io.Copy(part, f); err != nil {
		return fmt.Errorf("failed to copy file contents: %w", err)
	}
	return nil
}
