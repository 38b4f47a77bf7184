// package models defines the data model for the Titilda Music client
package models

import "time"

// Song represents a song as returned by the service.
//
// Artwork and AudioFile are server-side locators; artwork bytes are fetched
// separately through /static/artworks/{id}.webp.
type Song struct {
	ID            string `json:"id"`
	Title         string `json:"title"`
	Album         string `json:"album"`
	Artist        string `json:"artist"`
	Artwork       string `json:"artwork"`
	AudioFile     string `json:"audioFile"`
	AudioMimeType string `json:"audioMimeType"`
	ReleaseYear   int    `json:"releaseYear"`
	Genre         string `json:"genre"`
	Owner         string `json:"owner"`
}

// Key returns the song's unique identifier.
func (s Song) Key() string { return s.ID }

// Playlist represents playlist metadata as returned by the service.
//
// ManuallySorted is set by the server once a custom song order has been
// persisted for the playlist.
type Playlist struct {
	ID             string    `json:"id"`
	Name           string    `json:"name"`
	Owner          string    `json:"owner"`
	CreatedAt      time.Time `json:"createdAt"`
	ManuallySorted bool      `json:"isManuallySorted"`
}

// Key returns the playlist's unique identifier.
func (p Playlist) Key() string { return p.ID }

// Profile holds the cached fields of the authenticated user.
type Profile struct {
	Username string `json:"username"`
	FullName string `json:"fullName"`
}

// TokenGrant is the credential-exchange response from login and signup.
// Only a Bearer token_type is a recognized grant.
type TokenGrant struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
}

// PlaylistCreate is the request body for creating a playlist with an
// optional initial set of songs.
type PlaylistCreate struct {
	Name  string   `json:"name"`
	Songs []string `json:"songs"`
}

// SongUpload carries the multipart fields for creating a song. Audio is
// required; Artwork is optional.
type SongUpload struct {
	Title       string
	Album       string
	Artist      string
	ReleaseYear int
	Genre       string
	AudioPath   string
	ArtworkPath string
}
