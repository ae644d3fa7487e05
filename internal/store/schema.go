package store

import (
	"database/sql"
)

const currentSchemaVersion = 2

func initSchema(db *sql.DB) error {
	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS schema_version (
			version INTEGER PRIMARY KEY
		);

		CREATE TABLE IF NOT EXISTS session (
			id INTEGER PRIMARY KEY CHECK (id = 1),
			access_token TEXT NOT NULL,
			refresh_token TEXT,
			expires_at INTEGER NOT NULL
		);

		CREATE TABLE IF NOT EXISTS playlist_history (
			id TEXT PRIMARY KEY,
			name TEXT NOT NULL,
			source_link TEXT NOT NULL,
			last_used_at INTEGER NOT NULL
		);

		CREATE INDEX IF NOT EXISTS idx_playlist_history_last_used
			ON playlist_history(last_used_at DESC);

		CREATE TABLE IF NOT EXISTS roster_prefill (
			id INTEGER PRIMARY KEY CHECK (id = 1),
			names TEXT NOT NULL
		);
	`)
	if err != nil {
		return err
	}

	// Set initial version if not exists
	_, err = db.Exec(`
		INSERT OR IGNORE INTO schema_version (version) VALUES (?)
	`, currentSchemaVersion)
	return err
}
