package game

import (
	"errors"
	"fmt"
)

// ErrUnknownPlayer is returned when a score change names a player outside
// the roster.
var ErrUnknownPlayer = errors.New("unknown player")

// PlayerScore is one scoreboard row.
type PlayerScore struct {
	Player string
	Score  int
}

// ScoreBoard maps roster players to scores. Display order is roster
// order; players are never removed during a game.
type ScoreBoard struct {
	order  []string
	scores map[string]int
}

// NewScoreBoard initializes every roster player to zero.
func NewScoreBoard(roster *Roster) *ScoreBoard {
	names := roster.Names()
	scores := make(map[string]int, len(names))
	for _, name := range names {
		scores[name] = 0
	}
	return &ScoreBoard{order: names, scores: scores}
}

// Increment adds delta to a player's score. Delta may be negative and
// scores may go below zero.
func (b *ScoreBoard) Increment(player string, delta int) error {
	if _, ok := b.scores[player]; !ok {
		return fmt.Errorf("%w: %q", ErrUnknownPlayer, player)
	}
	b.scores[player] += delta
	return nil
}

// Score returns a player's score, or 0 for unknown players.
func (b *ScoreBoard) Score(player string) int {
	return b.scores[player]
}

// Scores returns all rows in roster order.
func (b *ScoreBoard) Scores() []PlayerScore {
	rows := make([]PlayerScore, len(b.order))
	for i, name := range b.order {
		rows[i] = PlayerScore{Player: name, Score: b.scores[name]}
	}
	return rows
}

// Leaders returns the players holding the maximum score. A maximum of
// zero or less yields no leaders, so nobody is highlighted at game start.
func (b *ScoreBoard) Leaders() []string {
	maxScore := 0
	for _, score := range b.scores {
		if score > maxScore {
			maxScore = score
		}
	}
	if maxScore <= 0 {
		return nil
	}

	var leaders []string
	for _, name := range b.order {
		if b.scores[name] == maxScore {
			leaders = append(leaders, name)
		}
	}
	return leaders
}
