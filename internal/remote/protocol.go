package remote

import "time"

// Wire messages exchanged with the playback device bridge. Commands carry
// a correlation id; the bridge echoes it on the matching response. Pushed
// player-state events have no id.

type command struct {
	ID      string `json:"id"`
	Type    string `json:"type"`
	URI     string `json:"uri,omitempty"`
	Shuffle *bool  `json:"shuffle,omitempty"`
}

const (
	cmdPlay        = "play"
	cmdPause       = "pause"
	cmdResume      = "resume"
	cmdSkipNext    = "skip_next"
	cmdSetShuffle  = "set_shuffle"
	cmdPlayerState = "player_state"
)

type inbound struct {
	Type  string           `json:"type"` // "player_state" or "response"
	ID    string           `json:"id,omitempty"`
	State *playerStateJSON `json:"state,omitempty"`
	Error string           `json:"error,omitempty"`
}

type playerStateJSON struct {
	Track      *trackJSON `json:"track"`
	PositionMs int64      `json:"position_ms"`
	IsPaused   bool       `json:"is_paused"`
}

type trackJSON struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	Artist     string `json:"artist"`
	DurationMs int64  `json:"duration_ms"`
	ArtworkRef string `json:"artwork_ref"`
}

func (p *playerStateJSON) toPlayerState() PlayerState {
	st := PlayerState{
		Position: time.Duration(p.PositionMs) * time.Millisecond,
		Paused:   p.IsPaused,
	}
	if p.Track != nil {
		st.Track = &Track{
			ID:         p.Track.ID,
			Name:       p.Track.Name,
			ArtistName: p.Track.Artist,
			Duration:   time.Duration(p.Track.DurationMs) * time.Millisecond,
			ArtworkRef: p.Track.ArtworkRef,
		}
	}
	return st
}
