package store

// Interface defines the store contract for dependency injection and testing.
type Interface interface {
	GetSession() (*Session, error)
	SaveSession(sess Session) error
	DeleteSession() error
	GetPlaylistHistory() ([]PlaylistRef, error)
	AddPlaylistToHistory(ref PlaylistRef) error
	GetRosterPrefill() ([]string, error)
	SaveRosterPrefill(names []string) error
	Close() error
}

// Verify Store implements Interface at compile time.
var _ Interface = (*Store)(nil)
