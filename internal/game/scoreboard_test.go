package game

import (
	"errors"
	"reflect"
	"testing"
)

func testRoster(t *testing.T, names ...string) *Roster {
	t.Helper()
	r, err := NewRoster(names)
	if err != nil {
		t.Fatalf("NewRoster(%v): %v", names, err)
	}
	return r
}

func TestScoreBoardStartsAtZero(t *testing.T) {
	b := NewScoreBoard(testRoster(t, "Alice", "Bob"))

	want := []PlayerScore{{Player: "Alice"}, {Player: "Bob"}}
	if got := b.Scores(); !reflect.DeepEqual(got, want) {
		t.Errorf("Scores() = %v, want %v", got, want)
	}
}

func TestScoreBoardIncrement(t *testing.T) {
	b := NewScoreBoard(testRoster(t, "Alice", "Bob"))

	if err := b.Increment("Alice", 2); err != nil {
		t.Fatalf("Increment: %v", err)
	}
	if err := b.Increment("Alice", -1); err != nil {
		t.Fatalf("Increment: %v", err)
	}
	if got := b.Score("Alice"); got != 1 {
		t.Errorf("Score(Alice) = %d, want 1", got)
	}
	if got := b.Score("Bob"); got != 0 {
		t.Errorf("Score(Bob) = %d, want 0", got)
	}
}

func TestScoreBoardBelowZero(t *testing.T) {
	b := NewScoreBoard(testRoster(t, "Alice"))

	if err := b.Increment("Alice", -2); err != nil {
		t.Fatalf("Increment: %v", err)
	}
	if got := b.Score("Alice"); got != -2 {
		t.Errorf("Score(Alice) = %d, want -2", got)
	}
}

func TestScoreBoardUnknownPlayer(t *testing.T) {
	b := NewScoreBoard(testRoster(t, "Alice"))

	err := b.Increment("Mallory", 1)
	if !errors.Is(err, ErrUnknownPlayer) {
		t.Errorf("err = %v, want ErrUnknownPlayer", err)
	}
	if got := b.Score("Alice"); got != 0 {
		t.Errorf("Score(Alice) = %d, want unchanged", got)
	}
}

func TestScoreBoardScoresKeepRosterOrder(t *testing.T) {
	b := NewScoreBoard(testRoster(t, "Chloe", "Alice", "Bob"))
	_ = b.Increment("Bob", 5)

	rows := b.Scores()
	want := []string{"Chloe", "Alice", "Bob"}
	for i, name := range want {
		if rows[i].Player != name {
			t.Errorf("rows[%d].Player = %q, want %q", i, rows[i].Player, name)
		}
	}
}

func TestScoreBoardLeaders(t *testing.T) {
	tests := []struct {
		name   string
		scores map[string]int
		want   []string
	}{
		{name: "all zero", scores: nil, want: nil},
		{name: "single leader", scores: map[string]int{"Bob": 3, "Alice": 1}, want: []string{"Bob"}},
		{name: "tie keeps roster order", scores: map[string]int{"Bob": 2, "Alice": 2}, want: []string{"Alice", "Bob"}},
		{name: "negative max", scores: map[string]int{"Alice": -1, "Bob": -3}, want: nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := NewScoreBoard(testRoster(t, "Alice", "Bob", "Chloe"))
			for player, score := range tt.scores {
				if err := b.Increment(player, score); err != nil {
					t.Fatalf("Increment: %v", err)
				}
			}
			if got := b.Leaders(); !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Leaders() = %v, want %v", got, tt.want)
			}
		})
	}
}
