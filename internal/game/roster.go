package game

import (
	"errors"
	"strings"
)

var (
	// ErrEmptyRoster is returned when a game is started without players.
	ErrEmptyRoster = errors.New("roster needs at least one player")
	// ErrBlankPlayer is returned when a player name is blank.
	ErrBlankPlayer = errors.New("player name is blank")
	// ErrDuplicatePlayer is returned when two players share a name.
	ErrDuplicatePlayer = errors.New("duplicate player name")
)

// Roster is the ordered list of players, fixed for the game.
type Roster struct {
	names []string
}

// NewRoster validates and fixes the player list for a game.
func NewRoster(names []string) (*Roster, error) {
	if len(names) == 0 {
		return nil, ErrEmptyRoster
	}

	seen := make(map[string]struct{}, len(names))
	cleaned := make([]string, 0, len(names))
	for _, name := range names {
		name = strings.TrimSpace(name)
		if name == "" {
			return nil, ErrBlankPlayer
		}
		if _, dup := seen[name]; dup {
			return nil, ErrDuplicatePlayer
		}
		seen[name] = struct{}{}
		cleaned = append(cleaned, name)
	}

	return &Roster{names: cleaned}, nil
}

// Names returns a copy of the player names in order.
func (r *Roster) Names() []string {
	names := make([]string, len(r.names))
	copy(names, r.names)
	return names
}

// Len returns the number of players.
func (r *Roster) Len() int {
	return len(r.names)
}

// Player returns the name at index, which must be in range.
func (r *Roster) Player(index int) string {
	return r.names[index]
}
