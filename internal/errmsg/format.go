// Package errmsg provides consistent error formatting for user-facing messages.
package errmsg

import "fmt"

// Op represents an operation that can fail.
type Op string

// Operation constants - grouped by domain.
const (
	// Auth operations
	OpLogin        Op = "log in to Spotify"
	OpTokenRefresh Op = "refresh the Spotify session"

	// Link operations
	OpLinkConnect Op = "connect to the playback device"
	OpPlayback    Op = "control playback"

	// Playlist operations
	OpPlaylistFetch   Op = "fetch playlist info"
	OpPlaylistHistory Op = "update playlist history"

	// Game operations
	OpGameStart Op = "start the game"
	OpScore     Op = "update the score"

	// Persistence
	OpStateLoad Op = "load saved state"
	OpStateSave Op = "save state"
)

// Format creates a user-friendly error message.
func Format(op Op, err error) string {
	if err == nil {
		return ""
	}
	return fmt.Sprintf("Failed to %s: %v", op, err)
}

// FormatWith creates an error message with additional context.
func FormatWith(op Op, context string, err error) string {
	if err == nil {
		return ""
	}
	if context == "" {
		return Format(op, err)
	}
	return fmt.Sprintf("Failed to %s '%s': %v", op, context, err)
}
