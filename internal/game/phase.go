package game

// Phase represents where the current turn stands.
type Phase int

const (
	// PhasePlaying: the track is playing and the buzzer is armed.
	PhasePlaying Phase = iota
	// PhasePaused: a player buzzed; playback is paused and guessing is open.
	PhasePaused
	// PhaseRevealed: the answer is shown; guessing is closed for this track.
	PhaseRevealed
)

// String returns the phase name.
func (p Phase) String() string {
	switch p {
	case PhasePlaying:
		return "Playing"
	case PhasePaused:
		return "Paused"
	case PhaseRevealed:
		return "Revealed"
	default:
		return "Unknown"
	}
}

// Capabilities flags the skip rules, which varied across iterations of
// the game screen. Defaults (all false) match the latest behavior: skip
// is only available while the track is playing.
type Capabilities struct {
	SkipWhilePaused   bool
	SkipWhileRevealed bool
}
