package game

import "github.com/lmercier/blindtest/internal/remote"

// PhaseChange is emitted when the turn phase changes.
type PhaseChange struct {
	Previous Phase
	Current  Phase
}

// TurnChange is emitted when the turn passes to the next player.
type TurnChange struct {
	PlayerIndex int
	Player      string
}

// TrackChange is emitted when the remote service reports a different
// track. Duplicate events for the same track id do not emit.
type TrackChange struct {
	Previous *remote.Track
	Current  *remote.Track
}

// Reveal is emitted when the answer is shown.
type Reveal struct {
	Track *remote.Track
}

const eventBufferSize = 16

// Subscription provides event channels for a UI subscriber.
type Subscription struct {
	PhaseChanged <-chan PhaseChange
	TurnChanged  <-chan TurnChange
	TrackChanged <-chan TrackChange
	Revealed     <-chan Reveal
	Done         <-chan struct{}

	// Internal write channels
	phaseCh  chan PhaseChange
	turnCh   chan TurnChange
	trackCh  chan TrackChange
	revealCh chan Reveal
	doneCh   chan struct{}
}

// newSubscription creates a new subscription with buffered channels.
func newSubscription() *Subscription {
	s := &Subscription{
		phaseCh:  make(chan PhaseChange, eventBufferSize),
		turnCh:   make(chan TurnChange, eventBufferSize),
		trackCh:  make(chan TrackChange, eventBufferSize),
		revealCh: make(chan Reveal, eventBufferSize),
		doneCh:   make(chan struct{}),
	}
	s.PhaseChanged = s.phaseCh
	s.TurnChanged = s.turnCh
	s.TrackChanged = s.trackCh
	s.Revealed = s.revealCh
	s.Done = s.doneCh
	return s
}

// close signals subscribers to stop by closing doneCh.
func (s *Subscription) close() {
	close(s.doneCh)
}

// Non-blocking sends: a slow UI drops events rather than stalling the
// engine.

func (s *Subscription) sendPhase(e PhaseChange) {
	select {
	case s.phaseCh <- e:
	default:
	}
}

func (s *Subscription) sendTurn(e TurnChange) {
	select {
	case s.turnCh <- e:
	default:
	}
}

func (s *Subscription) sendTrack(e TrackChange) {
	select {
	case s.trackCh <- e:
	default:
	}
}

func (s *Subscription) sendReveal(e Reveal) {
	select {
	case s.revealCh <- e:
	default:
	}
}
