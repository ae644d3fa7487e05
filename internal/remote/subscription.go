package remote

const eventBufferSize = 16

// Subscription delivers pushed player-state events in the order the
// bridge emitted them.
type Subscription struct {
	States <-chan PlayerState
	Done   <-chan struct{}

	// Internal write channels
	stateCh chan PlayerState
	doneCh  chan struct{}
}

// newSubscription creates a new subscription with a buffered channel.
func newSubscription() *Subscription {
	s := &Subscription{
		stateCh: make(chan PlayerState, eventBufferSize),
		doneCh:  make(chan struct{}),
	}
	s.States = s.stateCh
	s.Done = s.doneCh
	return s
}

// close signals subscribers to stop by closing doneCh.
func (s *Subscription) close() {
	close(s.doneCh)
}

// sendState sends a player-state event (non-blocking).
func (s *Subscription) sendState(st PlayerState) {
	select {
	case s.stateCh <- st:
	default:
		// Drop if buffer full; the next snapshot supersedes it anyway
	}
}
