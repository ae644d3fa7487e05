package store

import (
	"database/sql"
	"errors"
	"time"

	dbutil "github.com/lmercier/blindtest/internal/db"
)

// Session represents the persisted token triple.
type Session struct {
	AccessToken  string
	RefreshToken string // empty if the provider never issued one
	ExpiresAt    time.Time
}

// GetSession returns the stored session, or nil if the host never logged in.
func (s *Store) GetSession() (*Session, error) {
	var accessToken string
	var refreshToken sql.NullString
	var expiresAt int64

	err := s.db.QueryRow(`
		SELECT access_token, refresh_token, expires_at FROM session WHERE id = 1
	`).Scan(&accessToken, &refreshToken, &expiresAt)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil //nolint:nilnil // nil session means not logged in, not an error
	}
	if err != nil {
		return nil, err
	}

	return &Session{
		AccessToken:  accessToken,
		RefreshToken: dbutil.NullStringValue(refreshToken),
		ExpiresAt:    time.Unix(expiresAt, 0),
	}, nil
}

// SaveSession stores the token triple after a successful exchange or refresh.
func (s *Store) SaveSession(sess Session) error {
	var refreshToken any
	if sess.RefreshToken != "" {
		refreshToken = sess.RefreshToken
	}
	_, err := s.db.Exec(`
		INSERT INTO session (id, access_token, refresh_token, expires_at)
		VALUES (1, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			access_token = excluded.access_token,
			refresh_token = excluded.refresh_token,
			expires_at = excluded.expires_at
	`, sess.AccessToken, refreshToken, sess.ExpiresAt.Unix())
	return err
}

// DeleteSession removes the stored session (logout).
func (s *Store) DeleteSession() error {
	_, err := s.db.Exec(`DELETE FROM session WHERE id = 1`)
	return err
}
