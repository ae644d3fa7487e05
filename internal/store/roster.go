package store

import (
	"database/sql"
	"encoding/json"
	"errors"
)

// GetRosterPrefill returns the player names used in the last game, or nil
// if no game has been set up yet.
func (s *Store) GetRosterPrefill() ([]string, error) {
	var raw string
	err := s.db.QueryRow(`SELECT names FROM roster_prefill WHERE id = 1`).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var names []string
	if err := json.Unmarshal([]byte(raw), &names); err != nil {
		// A corrupt prefill is a convenience loss, not a failure.
		return nil, nil //nolint:nilerr // prefill is best-effort
	}
	return names, nil
}

// SaveRosterPrefill stores the player names for next game's setup.
func (s *Store) SaveRosterPrefill(names []string) error {
	raw, err := json.Marshal(names)
	if err != nil {
		return err
	}
	_, err = s.db.Exec(`
		INSERT INTO roster_prefill (id, names)
		VALUES (1, ?)
		ON CONFLICT(id) DO UPDATE SET names = excluded.names
	`, string(raw))
	return err
}
