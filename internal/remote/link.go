// Package remote maintains the connection to the playback device bridge
// and exposes playback commands plus a push subscription for
// player-state changes.
package remote

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

var (
	// ErrConnectFailed is returned when the bridge handshake fails or
	// times out.
	ErrConnectFailed = errors.New("connect failed")
	// ErrCommandFailed is returned when a command cannot be delivered,
	// typically because the link is not connected.
	ErrCommandFailed = errors.New("command failed")
)

// Link is a stateful connection to the playback device bridge.
type Link struct {
	url     string
	timeout time.Duration

	mu       sync.Mutex
	conn     *websocket.Conn
	inflight chan struct{} // non-nil while a connect attempt is running
	lastErr  error
	closed   bool

	writeMu sync.Mutex // gorilla allows a single concurrent writer

	subsMu sync.RWMutex
	subs   []*Subscription

	pendingMu sync.Mutex
	pending   map[string]chan PlayerState
}

// NewLink creates a link to the bridge at the given websocket URL.
func NewLink(url string, timeout time.Duration) *Link {
	return &Link{
		url:     url,
		timeout: timeout,
		pending: make(map[string]chan PlayerState),
	}
}

// Connect establishes the connection. Connecting while already connected
// is a no-op; a concurrent call while an attempt is running waits for
// that attempt's outcome rather than opening a second connection.
func (l *Link) Connect(ctx context.Context) error {
	for {
		l.mu.Lock()
		if l.closed {
			l.mu.Unlock()
			return fmt.Errorf("%w: link closed", ErrConnectFailed)
		}
		if l.conn != nil {
			l.mu.Unlock()
			return nil
		}
		if l.inflight != nil {
			wait := l.inflight
			l.mu.Unlock()
			select {
			case <-wait:
				continue // re-check the outcome
			case <-ctx.Done():
				return fmt.Errorf("%w: %v", ErrConnectFailed, ctx.Err())
			}
		}

		attempt := make(chan struct{})
		l.inflight = attempt
		l.mu.Unlock()

		dialer := websocket.Dialer{HandshakeTimeout: l.timeout}
		conn, resp, err := dialer.DialContext(ctx, l.url, nil)
		if resp != nil && resp.Body != nil {
			resp.Body.Close()
		}

		l.mu.Lock()
		l.inflight = nil
		switch {
		case err != nil:
			l.lastErr = fmt.Errorf("%w: %v", ErrConnectFailed, err)
			err = l.lastErr
		case l.closed:
			// Close raced with the dial; don't install the connection.
			_ = conn.Close()
			l.lastErr = fmt.Errorf("%w: link closed", ErrConnectFailed)
			err = l.lastErr
		default:
			l.conn = conn
			l.lastErr = nil
			go l.readLoop(conn)
		}
		l.mu.Unlock()
		close(attempt)
		return err
	}
}

// Connected reports whether the link currently has a live connection.
func (l *Link) Connected() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.conn != nil
}

// Disconnect releases the connection. Safe to call when not connected.
func (l *Link) Disconnect() {
	l.mu.Lock()
	conn := l.conn
	l.conn = nil
	l.mu.Unlock()

	if conn != nil {
		_ = conn.Close()
	}
}

// Close disconnects and ends all subscriptions.
func (l *Link) Close() {
	l.mu.Lock()
	if l.closed {
		l.mu.Unlock()
		return
	}
	l.closed = true
	l.mu.Unlock()

	l.Disconnect()

	l.subsMu.Lock()
	for _, sub := range l.subs {
		sub.close()
	}
	l.subs = nil
	l.subsMu.Unlock()
}

// Subscribe creates a new player-state subscription.
func (l *Link) Subscribe() *Subscription {
	l.subsMu.Lock()
	defer l.subsMu.Unlock()
	sub := newSubscription()
	l.subs = append(l.subs, sub)
	return sub
}

// PlayPlaylist starts playback of the playlist on the remote device.
func (l *Link) PlayPlaylist(playlistID string, shuffle bool) error {
	if err := l.SetShuffle(shuffle); err != nil {
		return err
	}
	return l.send(command{
		ID:   uuid.NewString(),
		Type: cmdPlay,
		URI:  "spotify:playlist:" + playlistID,
	})
}

// Pause pauses playback on the remote device.
func (l *Link) Pause() error {
	return l.send(command{ID: uuid.NewString(), Type: cmdPause})
}

// Resume resumes playback on the remote device.
func (l *Link) Resume() error {
	return l.send(command{ID: uuid.NewString(), Type: cmdResume})
}

// SkipNext advances the remote device to the next track.
func (l *Link) SkipNext() error {
	return l.send(command{ID: uuid.NewString(), Type: cmdSkipNext})
}

// SetShuffle sets the shuffle mode on the remote device.
func (l *Link) SetShuffle(on bool) error {
	return l.send(command{ID: uuid.NewString(), Type: cmdSetShuffle, Shuffle: &on})
}

// PlayerState requests a point-in-time playback snapshot.
func (l *Link) PlayerState(ctx context.Context) (*PlayerState, error) {
	id := uuid.NewString()
	ch := make(chan PlayerState, 1)

	l.pendingMu.Lock()
	l.pending[id] = ch
	l.pendingMu.Unlock()

	defer func() {
		l.pendingMu.Lock()
		delete(l.pending, id)
		l.pendingMu.Unlock()
	}()

	if err := l.send(command{ID: id, Type: cmdPlayerState}); err != nil {
		return nil, err
	}

	select {
	case st := <-ch:
		return &st, nil
	case <-time.After(l.timeout):
		return nil, fmt.Errorf("%w: player state timeout", ErrCommandFailed)
	case <-ctx.Done():
		return nil, fmt.Errorf("%w: %v", ErrCommandFailed, ctx.Err())
	}
}

func (l *Link) send(cmd command) error {
	l.mu.Lock()
	conn := l.conn
	l.mu.Unlock()

	if conn == nil {
		return fmt.Errorf("%w: not connected", ErrCommandFailed)
	}

	l.writeMu.Lock()
	err := conn.WriteJSON(cmd)
	l.writeMu.Unlock()

	if err != nil {
		l.dropConn(conn)
		return fmt.Errorf("%w: %v", ErrCommandFailed, err)
	}
	return nil
}

// readLoop dispatches inbound messages until the connection dies. Pushed
// events reach every subscription in emission order; responses complete
// their pending request.
func (l *Link) readLoop(conn *websocket.Conn) {
	for {
		var msg inbound
		if err := conn.ReadJSON(&msg); err != nil {
			l.dropConn(conn)
			return
		}

		switch msg.Type {
		case "player_state":
			if msg.State == nil {
				continue
			}
			st := msg.State.toPlayerState()
			l.subsMu.RLock()
			for _, sub := range l.subs {
				sub.sendState(st)
			}
			l.subsMu.RUnlock()

		case "response":
			if msg.State == nil {
				continue
			}
			l.pendingMu.Lock()
			ch := l.pending[msg.ID]
			l.pendingMu.Unlock()
			if ch != nil {
				select {
				case ch <- msg.State.toPlayerState():
				default:
				}
			}
		}
	}
}

// dropConn clears the connection if it is still the current one.
func (l *Link) dropConn(conn *websocket.Conn) {
	l.mu.Lock()
	if l.conn == conn {
		l.conn = nil
	}
	l.mu.Unlock()
	_ = conn.Close()
}
