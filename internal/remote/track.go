package remote

import "time"

// Track is a snapshot of the remote service's reported "now playing"
// track. Identity is the ID; two events for the same ID describe the
// same track.
type Track struct {
	ID         string
	Name       string
	ArtistName string
	Duration   time.Duration
	ArtworkRef string
}

// Same reports whether two track snapshots refer to the same track.
// Either side may be nil.
func (t *Track) Same(other *Track) bool {
	if t == nil || other == nil {
		return t == other
	}
	return t.ID == other.ID
}

// PlayerState is a point-in-time playback snapshot.
type PlayerState struct {
	Track    *Track
	Position time.Duration
	Paused   bool
}
