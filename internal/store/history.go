package store

import (
	"database/sql"
	"time"

	dbutil "github.com/lmercier/blindtest/internal/db"
)

// historyLimit bounds the playlist history to the most recent entries.
const historyLimit = 5

// PlaylistRef is a playlist history entry.
type PlaylistRef struct {
	ID         string
	Name       string
	SourceLink string
}

// GetPlaylistHistory returns the playlist history, most recently used first.
func (s *Store) GetPlaylistHistory() ([]PlaylistRef, error) {
	rows, err := s.db.Query(`
		SELECT id, name, source_link
		FROM playlist_history
		ORDER BY last_used_at DESC
		LIMIT ?
	`, historyLimit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var refs []PlaylistRef
	for rows.Next() {
		var ref PlaylistRef
		if err := rows.Scan(&ref.ID, &ref.Name, &ref.SourceLink); err != nil {
			return nil, err
		}
		refs = append(refs, ref)
	}

	return refs, rows.Err()
}

// AddPlaylistToHistory records a playlist use. Re-using a known playlist
// moves it to the front without duplicating it; the history never grows
// beyond historyLimit entries.
func (s *Store) AddPlaylistToHistory(ref PlaylistRef) error {
	now := time.Now().UnixNano()
	return dbutil.WithTx(s.db, func(tx *sql.Tx) error {
		_, err := tx.Exec(`
			INSERT INTO playlist_history (id, name, source_link, last_used_at)
			VALUES (?, ?, ?, ?)
			ON CONFLICT(id) DO UPDATE SET
				name = excluded.name,
				source_link = excluded.source_link,
				last_used_at = excluded.last_used_at
		`, ref.ID, ref.Name, ref.SourceLink, now)
		if err != nil {
			return err
		}

		// Evict everything past the most recent entries.
		_, err = tx.Exec(`
			DELETE FROM playlist_history
			WHERE id NOT IN (
				SELECT id FROM playlist_history
				ORDER BY last_used_at DESC
				LIMIT ?
			)
		`, historyLimit)
		return err
	})
}
