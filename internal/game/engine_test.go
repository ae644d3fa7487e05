package game

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lmercier/blindtest/internal/remote"
)

type fakeCommander struct {
	mu    sync.Mutex
	calls []string
	err   error
}

func (c *fakeCommander) record(name string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.calls = append(c.calls, name)
	return c.err
}

func (c *fakeCommander) Pause() error    { return c.record("pause") }
func (c *fakeCommander) Resume() error   { return c.record("resume") }
func (c *fakeCommander) SkipNext() error { return c.record("skip_next") }

func (c *fakeCommander) Calls() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]string(nil), c.calls...)
}

type fakeArtwork struct {
	mu     sync.Mutex
	clears int
}

func (a *fakeArtwork) Clear() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.clears++
}

func (a *fakeArtwork) Clears() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.clears
}

type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}

func newTestEngine(t *testing.T, caps Capabilities, names ...string) (*Engine, *fakeCommander, *fakeArtwork, *fakeClock) {
	t.Helper()
	if len(names) == 0 {
		names = []string{"Alice", "Bob", "Chloe"}
	}
	roster, err := NewRoster(names)
	require.NoError(t, err)

	cmd := &fakeCommander{}
	art := &fakeArtwork{}
	clock := &fakeClock{t: time.Unix(1000, 0)}

	e := NewEngine(roster, cmd, art, caps)
	e.now = clock.Now
	e.clockStart = clock.Now()
	t.Cleanup(e.Close)
	return e, cmd, art, clock
}

func track(id string, duration time.Duration) *remote.Track {
	return &remote.Track{
		ID:         id,
		Name:       "Track " + id,
		ArtistName: "Artist " + id,
		Duration:   duration,
	}
}

// buzzAndReveal drives the engine from Playing to Revealed.
func buzzAndReveal(t *testing.T, e *Engine) {
	t.Helper()
	require.NoError(t, e.Buzz())
	require.NoError(t, e.Reveal())
}

func TestNewEngineStartsPlayingWithFirstPlayer(t *testing.T) {
	e, cmd, _, _ := newTestEngine(t, Capabilities{})

	status := e.Status()
	assert.Equal(t, PhasePlaying, status.Phase)
	assert.Equal(t, 0, status.PlayerIndex)
	assert.Equal(t, "Alice", status.Player)
	assert.Nil(t, status.Track)
	assert.Empty(t, cmd.Calls())
}

func TestBuzzTogglesPauseResume(t *testing.T) {
	e, cmd, _, _ := newTestEngine(t, Capabilities{})

	require.NoError(t, e.Buzz())
	assert.Equal(t, PhasePaused, e.Status().Phase)
	assert.Equal(t, []string{"pause"}, cmd.Calls())

	require.NoError(t, e.Buzz())
	assert.Equal(t, PhasePlaying, e.Status().Phase)
	assert.Equal(t, []string{"pause", "resume"}, cmd.Calls())
}

func TestBuzzAfterRevealIsNoOp(t *testing.T) {
	e, cmd, _, _ := newTestEngine(t, Capabilities{})
	buzzAndReveal(t, e)

	require.NoError(t, e.Buzz())
	assert.Equal(t, PhaseRevealed, e.Status().Phase)
	assert.Equal(t, []string{"pause"}, cmd.Calls())
}

func TestRevealRequiresBuzz(t *testing.T) {
	e, _, _, _ := newTestEngine(t, Capabilities{})

	assert.ErrorIs(t, e.Reveal(), ErrNotAllowed)

	require.NoError(t, e.Buzz())
	require.NoError(t, e.Reveal())
	assert.Equal(t, PhaseRevealed, e.Status().Phase)
}

func TestRevealEmitsCurrentTrack(t *testing.T) {
	e, _, _, _ := newTestEngine(t, Capabilities{})
	sub := e.Subscribe()

	e.HandlePlayerState(remote.PlayerState{Track: track("t1", 3*time.Minute)})
	buzzAndReveal(t, e)

	select {
	case reveal := <-sub.Revealed:
		require.NotNil(t, reveal.Track)
		assert.Equal(t, "t1", reveal.Track.ID)
	default:
		t.Fatal("expected a reveal event")
	}
}

func TestNextTurnAdvancesRoundRobin(t *testing.T) {
	e, cmd, art, _ := newTestEngine(t, Capabilities{})

	wantPlayers := []string{"Bob", "Chloe", "Alice"} // wraps back to the first
	for i, want := range wantPlayers {
		buzzAndReveal(t, e)
		require.NoError(t, e.NextTurn())

		status := e.Status()
		assert.Equal(t, want, status.Player, "turn %d", i)
		assert.Equal(t, PhasePlaying, status.Phase)
	}

	assert.Equal(t, len(wantPlayers), art.Clears())
	skips := 0
	for _, call := range cmd.Calls() {
		if call == "skip_next" {
			skips++
		}
	}
	assert.Equal(t, len(wantPlayers), skips)
}

func TestNextTurnRequiresReveal(t *testing.T) {
	e, _, _, _ := newTestEngine(t, Capabilities{})

	assert.ErrorIs(t, e.NextTurn(), ErrNotAllowed)

	require.NoError(t, e.Buzz())
	assert.ErrorIs(t, e.NextTurn(), ErrNotAllowed)
}

func TestNextTurnEmitsTurnChange(t *testing.T) {
	e, _, _, _ := newTestEngine(t, Capabilities{})
	sub := e.Subscribe()

	buzzAndReveal(t, e)
	require.NoError(t, e.NextTurn())

	select {
	case turn := <-sub.TurnChanged:
		assert.Equal(t, 1, turn.PlayerIndex)
		assert.Equal(t, "Bob", turn.Player)
	default:
		t.Fatal("expected a turn change event")
	}
}

func TestSkipWhilePlaying(t *testing.T) {
	e, cmd, art, _ := newTestEngine(t, Capabilities{})

	require.NoError(t, e.Skip())
	assert.Equal(t, []string{"skip_next"}, cmd.Calls())
	assert.Equal(t, 1, art.Clears())
	assert.Equal(t, "Alice", e.Status().Player, "skip keeps the turn")
}

func TestSkipDisabledOutsidePlayingByDefault(t *testing.T) {
	e, _, _, _ := newTestEngine(t, Capabilities{})

	require.NoError(t, e.Buzz())
	assert.ErrorIs(t, e.Skip(), ErrNotAllowed)

	require.NoError(t, e.Reveal())
	assert.ErrorIs(t, e.Skip(), ErrNotAllowed)
}

func TestSkipCapabilityFlags(t *testing.T) {
	e, _, _, _ := newTestEngine(t, Capabilities{SkipWhilePaused: true, SkipWhileRevealed: true})

	require.NoError(t, e.Buzz())
	require.NoError(t, e.Skip())

	// Skip resets the phase to Playing; get back to Revealed.
	buzzAndReveal(t, e)
	require.NoError(t, e.Skip())
	assert.Equal(t, PhasePlaying, e.Status().Phase)
}

func TestHandlePlayerStateAdoptsFirstTrack(t *testing.T) {
	e, _, _, _ := newTestEngine(t, Capabilities{})
	sub := e.Subscribe()

	e.HandlePlayerState(remote.PlayerState{
		Track:    track("t1", 3 * time.Minute),
		Position: 7 * time.Second,
	})

	status := e.Status()
	require.NotNil(t, status.Track)
	assert.Equal(t, "t1", status.Track.ID)
	assert.Equal(t, 7*time.Second, status.Elapsed)

	select {
	case change := <-sub.TrackChanged:
		assert.Nil(t, change.Previous)
		assert.Equal(t, "t1", change.Current.ID)
	default:
		t.Fatal("expected a track change event")
	}
}

func TestHandlePlayerStateDuplicateEventIsIdempotent(t *testing.T) {
	e, _, art, _ := newTestEngine(t, Capabilities{})
	sub := e.Subscribe()

	st := remote.PlayerState{Track: track("t1", 3 * time.Minute), Position: 5 * time.Second}
	e.HandlePlayerState(st)
	<-sub.TrackChanged

	st.Position = 9 * time.Second
	e.HandlePlayerState(st)

	select {
	case <-sub.TrackChanged:
		t.Fatal("duplicate event must not emit a track change")
	default:
	}
	assert.Equal(t, 0, art.Clears(), "duplicate event must not clear artwork")
	assert.Equal(t, 9*time.Second, e.Status().Elapsed, "position correction applies")
}

func TestHandlePlayerStateNewTrackResetsTurn(t *testing.T) {
	e, _, art, _ := newTestEngine(t, Capabilities{})
	sub := e.Subscribe()

	e.HandlePlayerState(remote.PlayerState{Track: track("t1", 3 * time.Minute)})
	<-sub.TrackChanged
	require.NoError(t, e.Buzz()) // paused mid-guess

	e.HandlePlayerState(remote.PlayerState{
		Track:    track("t2", 2 * time.Minute),
		Position: time.Second,
	})

	status := e.Status()
	assert.Equal(t, PhasePlaying, status.Phase, "new track reopens guessing")
	assert.Equal(t, "t2", status.Track.ID)
	assert.Equal(t, "Alice", status.Player, "external track change keeps the turn")
	assert.Equal(t, 1, art.Clears())

	select {
	case change := <-sub.TrackChanged:
		assert.Equal(t, "t1", change.Previous.ID)
		assert.Equal(t, "t2", change.Current.ID)
	default:
		t.Fatal("expected a track change event")
	}
}

func TestHandlePlayerStateWithoutTrackOnlySyncsClock(t *testing.T) {
	e, _, _, _ := newTestEngine(t, Capabilities{})
	sub := e.Subscribe()

	e.HandlePlayerState(remote.PlayerState{Position: 30 * time.Second})

	assert.Nil(t, e.Status().Track)
	select {
	case <-sub.TrackChanged:
		t.Fatal("trackless state must not emit a track change")
	default:
	}
}

func TestProgressClock(t *testing.T) {
	e, _, _, clock := newTestEngine(t, Capabilities{})
	e.HandlePlayerState(remote.PlayerState{Track: track("t1", 3 * time.Minute)})

	clock.Advance(10 * time.Second)
	assert.Equal(t, 10*time.Second, e.Elapsed())

	// Buzz freezes the clock.
	require.NoError(t, e.Buzz())
	clock.Advance(time.Minute)
	assert.Equal(t, 10*time.Second, e.Elapsed())

	// Resuming continues from where it froze.
	require.NoError(t, e.Buzz())
	clock.Advance(5 * time.Second)
	assert.Equal(t, 15*time.Second, e.Elapsed())
}

func TestProgressClockClampsToDuration(t *testing.T) {
	e, _, _, clock := newTestEngine(t, Capabilities{})
	e.HandlePlayerState(remote.PlayerState{Track: track("t1", time.Minute)})

	clock.Advance(10 * time.Minute)
	assert.Equal(t, time.Minute, e.Elapsed())
}

func TestPhaseChangeEvents(t *testing.T) {
	e, _, _, _ := newTestEngine(t, Capabilities{})
	sub := e.Subscribe()

	require.NoError(t, e.Buzz())
	select {
	case change := <-sub.PhaseChanged:
		assert.Equal(t, PhasePlaying, change.Previous)
		assert.Equal(t, PhasePaused, change.Current)
	default:
		t.Fatal("expected a phase change event")
	}
}

func TestCommandErrorSurfacesAfterTransition(t *testing.T) {
	e, cmd, _, _ := newTestEngine(t, Capabilities{})
	cmd.err = remote.ErrCommandFailed

	err := e.Buzz()
	assert.ErrorIs(t, err, remote.ErrCommandFailed)
	// The transition applied regardless; the next player-state event
	// would reconcile any divergence.
	assert.Equal(t, PhasePaused, e.Status().Phase)
}

func TestCloseEndsSubscriptions(t *testing.T) {
	e, _, _, _ := newTestEngine(t, Capabilities{})
	sub := e.Subscribe()

	e.Close()
	select {
	case <-sub.Done:
	case <-time.After(time.Second):
		t.Fatal("Done should be closed")
	}
}
