// package repositories provides SQLite persistence for session credentials
// and cached artwork.
package repositories

import (
	"database/sql"
	"fmt"
)

// Fixed session keys. Absence of a key is a valid state, never an error.
const (
	KeyAccessToken = "access_token"
	KeyUsername    = "username"
	KeyFullName    = "full_name"
)

// SessionStore implements the durable key-value store backing the session
// manager. Every write is committed before in-memory state is updated, so the
// database row is the point of truth.
type SessionStore struct {
	db *sql.DB
}

// NewSessionStore creates a new [SessionStore] with the given database connection
func NewSessionStore(db *sql.DB) *SessionStore {
	return &SessionStore{db: db}
}

// Get retrieves the value for key. A missing key returns ("", false, nil).
func (s *SessionStore) Get(key string) (string, bool, error) {
	var value string
	err := s.db.QueryRow("SELECT value FROM session WHERE key = ?", key).Scan(&value)
	if err == sql.ErrNoRows {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("failed to query session key %s: %w", key, err)
	}
	return value, true, nil
}

// Set stores value under key, replacing any existing entry.
func (s *SessionStore) Set(key, value string) error {
	query := `
		INSERT INTO session (key, value, updated_at) VALUES (?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = CURRENT_TIMESTAMP
	`
	if _, err := s.db.Exec(query, key, value); err != nil {
		return fmt.Errorf("failed to store session key %s: %w", key, err)
	}
	return nil
}

// Delete evicts key. Deleting a missing key is a no-op.
func (s *SessionStore) Delete(key string) error {
	if _, err := s.db.Exec("DELETE FROM session WHERE key = ?", key); err != nil {
		return fmt.Errorf("failed to delete session key %s: %w", key, err)
	}
	return nil
}

// Clear evicts every session entry in one transaction.
func (s *SessionStore) Clear() error {
	if _, err := s.db.Exec("DELETE FROM session"); err != nil {
		return fmt.Errorf("failed to clear session: %w", err)
	}
	return nil
}
