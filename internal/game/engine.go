// Package game drives the buzz/reveal/score turn cycle in sync with
// asynchronous playback events from the remote service.
package game

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/lmercier/blindtest/internal/remote"
)

// ErrNotAllowed is returned for actions the current phase forbids, such
// as revealing before anyone buzzed.
var ErrNotAllowed = errors.New("not allowed in current phase")

// Commander issues playback commands on behalf of the engine. Commands
// are fire-and-forget: the engine applies its transition first and
// treats later player-state events, not command completion, as the
// source of truth.
type Commander interface {
	Pause() error
	Resume() error
	SkipNext() error
}

// ArtworkStore is the slice of the artwork cache the engine owns:
// clearing it on every new-track transition.
type ArtworkStore interface {
	Clear()
}

// Status is a consistent snapshot of the turn state.
type Status struct {
	Phase       Phase
	PlayerIndex int
	Player      string
	Track       *remote.Track
	Elapsed     time.Duration
}

// Engine is the turn-state controller. All mutations go through its
// methods under a single lock, so no caller ever observes a
// half-applied transition.
type Engine struct {
	mu sync.Mutex

	roster *Roster
	board  *ScoreBoard
	cmd    Commander
	art    ArtworkStore
	caps   Capabilities

	phase              Phase
	currentPlayerIndex int
	currentTrack       *remote.Track
	elapsed            time.Duration // accumulated play time, frozen while paused
	clockStart         time.Time     // wall-clock anchor while playing

	subsMu sync.RWMutex
	subs   []*Subscription
	closed bool

	now func() time.Time
}

// NewEngine starts a game: roster fixed, scores at zero, first player up,
// phase Playing.
func NewEngine(roster *Roster, cmd Commander, art ArtworkStore, caps Capabilities) *Engine {
	e := &Engine{
		roster: roster,
		board:  NewScoreBoard(roster),
		cmd:    cmd,
		art:    art,
		caps:   caps,
		phase:  PhasePlaying,
		now:    time.Now,
	}
	e.clockStart = e.now()
	return e
}

// Board returns the scoreboard for this game.
func (e *Engine) Board() *ScoreBoard {
	return e.board
}

// Subscribe creates a new event subscription for the UI layer.
func (e *Engine) Subscribe() *Subscription {
	e.subsMu.Lock()
	defer e.subsMu.Unlock()
	sub := newSubscription()
	e.subs = append(e.subs, sub)
	return sub
}

// Close ends the game and all subscriptions.
func (e *Engine) Close() {
	e.subsMu.Lock()
	defer e.subsMu.Unlock()
	if e.closed {
		return
	}
	e.closed = true
	for _, sub := range e.subs {
		sub.close()
	}
	e.subs = nil
}

// Buzz claims or releases the turn. While playing it pauses the track
// and freezes the progress clock; while paused it resumes both. Buzzing
// is a no-op once the answer is revealed.
func (e *Engine) Buzz() error {
	e.mu.Lock()
	switch e.phase {
	case PhaseRevealed:
		e.mu.Unlock()
		return nil // guessing is closed

	case PhasePlaying:
		e.elapsed = e.elapsedLocked()
		e.setPhaseLocked(PhasePaused)
		e.mu.Unlock()
		if err := e.cmd.Pause(); err != nil {
			return fmt.Errorf("pause: %w", err)
		}
		return nil

	case PhasePaused:
		e.clockStart = e.now()
		e.setPhaseLocked(PhasePlaying)
		e.mu.Unlock()
		if err := e.cmd.Resume(); err != nil {
			return fmt.Errorf("resume: %w", err)
		}
		return nil

	default:
		e.mu.Unlock()
		return nil
	}
}

// Reveal shows the answer. Only reachable from Paused: a player must buzz
// before the track can be revealed.
func (e *Engine) Reveal() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.phase != PhasePaused {
		return fmt.Errorf("reveal: %w", ErrNotAllowed)
	}

	e.setPhaseLocked(PhaseRevealed)
	e.emit(func(s *Subscription) { s.sendReveal(Reveal{Track: e.currentTrack}) })
	return nil
}

// NextTurn hands the buzzer to the next player and moves to a fresh
// track. Only valid once the current track is revealed.
func (e *Engine) NextTurn() error {
	e.mu.Lock()
	if e.phase != PhaseRevealed {
		e.mu.Unlock()
		return fmt.Errorf("next turn: %w", ErrNotAllowed)
	}

	e.currentPlayerIndex = (e.currentPlayerIndex + 1) % e.roster.Len()
	idx := e.currentPlayerIndex
	e.emit(func(s *Subscription) {
		s.sendTurn(TurnChange{PlayerIndex: idx, Player: e.roster.Player(idx)})
	})

	e.art.Clear()
	e.resetForNewTrackLocked()
	e.mu.Unlock()

	if err := e.cmd.SkipNext(); err != nil {
		return fmt.Errorf("skip next: %w", err)
	}
	return nil
}

// Skip throws the current track away without changing whose turn it is.
// Availability outside Playing is governed by the capability flags.
func (e *Engine) Skip() error {
	e.mu.Lock()
	allowed := e.phase == PhasePlaying ||
		(e.phase == PhasePaused && e.caps.SkipWhilePaused) ||
		(e.phase == PhaseRevealed && e.caps.SkipWhileRevealed)
	if !allowed {
		e.mu.Unlock()
		return fmt.Errorf("skip: %w", ErrNotAllowed)
	}

	e.art.Clear()
	e.resetForNewTrackLocked()
	e.mu.Unlock()

	if err := e.cmd.SkipNext(); err != nil {
		return fmt.Errorf("skip next: %w", err)
	}
	return nil
}

// HandlePlayerState consumes a pushed event or snapshot from the link.
// A different track id resets the turn for the new track; the same id
// only corrects the progress clock, so duplicate events are harmless.
func (e *Engine) HandlePlayerState(st remote.PlayerState) {
	e.mu.Lock()
	defer e.mu.Unlock()

	prev := e.currentTrack

	switch {
	case st.Track == nil:
		e.syncClockLocked(st.Position)

	case prev == nil:
		e.currentTrack = st.Track
		e.syncClockLocked(st.Position)
		e.emit(func(s *Subscription) {
			s.sendTrack(TrackChange{Previous: nil, Current: st.Track})
		})

	case !prev.Same(st.Track):
		// External track change: the remote moved on (track ended, or a
		// skip we issued landed). Reset the phase fields, keep the player.
		e.art.Clear()
		e.currentTrack = st.Track
		e.elapsed = st.Position
		e.clockStart = e.now()
		e.setPhaseLocked(PhasePlaying)
		e.emit(func(s *Subscription) {
			s.sendTrack(TrackChange{Previous: prev, Current: st.Track})
		})

	default:
		// Same track: trust the reported position over local drift.
		e.syncClockLocked(st.Position)
	}
}

// Status returns a consistent snapshot of the turn state.
func (e *Engine) Status() Status {
	e.mu.Lock()
	defer e.mu.Unlock()
	return Status{
		Phase:       e.phase,
		PlayerIndex: e.currentPlayerIndex,
		Player:      e.roster.Player(e.currentPlayerIndex),
		Track:       e.currentTrack,
		Elapsed:     e.elapsedLocked(),
	}
}

// Elapsed returns the simulated progress clock, bounded by the track
// duration.
func (e *Engine) Elapsed() time.Duration {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.elapsedLocked()
}

func (e *Engine) elapsedLocked() time.Duration {
	elapsed := e.elapsed
	if e.phase == PhasePlaying {
		elapsed += e.now().Sub(e.clockStart)
	}
	if elapsed < 0 {
		elapsed = 0
	}
	if e.currentTrack != nil && elapsed > e.currentTrack.Duration {
		elapsed = e.currentTrack.Duration
	}
	return elapsed
}

func (e *Engine) syncClockLocked(position time.Duration) {
	e.elapsed = position
	e.clockStart = e.now()
}

func (e *Engine) resetForNewTrackLocked() {
	e.elapsed = 0
	e.clockStart = e.now()
	e.setPhaseLocked(PhasePlaying)
}

func (e *Engine) setPhaseLocked(phase Phase) {
	if e.phase == phase {
		return
	}
	prev := e.phase
	e.phase = phase
	e.emit(func(s *Subscription) {
		s.sendPhase(PhaseChange{Previous: prev, Current: phase})
	})
}

func (e *Engine) emit(send func(*Subscription)) {
	e.subsMu.RLock()
	for _, sub := range e.subs {
		send(sub)
	}
	e.subsMu.RUnlock()
}
