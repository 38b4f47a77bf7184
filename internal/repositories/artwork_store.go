package repositories

import (
	"database/sql"
	"fmt"
)

// ArtworkStore caches downloaded artwork blobs so relaunches skip refetching.
type ArtworkStore struct {
	db *sql.DB
}

// NewArtworkStore creates a new [ArtworkStore] with the given database connection
func NewArtworkStore(db *sql.DB) *ArtworkStore {
	return &ArtworkStore{db: db}
}

// Get retrieves cached artwork bytes for a song. A cache miss returns
// (nil, false, nil).
func (s *ArtworkStore) Get(songID string) ([]byte, bool, error) {
	var data []byte
	err := s.db.QueryRow("SELECT data FROM artworks WHERE song_id = ?", songID).Scan(&data)
	if err == sql.ErrNoRows {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to query artwork %s: %w", songID, err)
	}
	return data, true, nil
}

// Put stores artwork bytes for a song, replacing any existing blob.
func (s *ArtworkStore) Put(songID string, data []byte) error {
	query := `
		INSERT INTO artworks (song_id, data, fetched_at) VALUES (?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(song_id) DO UPDATE SET data = excluded.data, fetched_at = CURRENT_TIMESTAMP
	`
	if _, err := s.db.Exec(query, songID, data); err != nil {
		return fmt.Errorf("failed to store artwork %s: %w", songID, err)
	}
	return nil
}

// Evict removes a song's cached artwork.
func (s *ArtworkStore) Evict(songID string) error {
	if _, err := s.db.Exec("DELETE FROM artworks WHERE song_id = ?", songID); err != nil {
		return fmt.Errorf("failed to evict artwork %s: %w", songID, err)
	}
	return nil
}
