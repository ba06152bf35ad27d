package models

import (
	"strings"
	"time"
)

// Universes is the fixed set of content categories. Each universe gets its
// own daily puzzle and its own per-user streak.
var Universes = []string{"marvel", "dc", "image"}

func IsUniverse(u string) bool {
	for _, known := range Universes {
		if u == known {
			return true
		}
	}
	return false
}

// PuzzleID builds the canonical puzzle identifier, YYYYMMDD-universe.
func PuzzleID(universe, date string) string {
	return strings.ReplaceAll(date, "-", "") + "-" + universe
}

// Character is one entry in a universe's selection pool.
type Character struct {
	Name     string   `json:"name"`
	Aliases  []string `json:"aliases,omitempty"`
	ImageKey string   `json:"imageKey"`
}

// Puzzle is the single daily selection of one character for one universe and
// one UTC calendar date. Immutable after creation except by hotfix.
type Puzzle struct {
	ID         string    `json:"id"`
	Universe   string    `json:"universe"`
	Character  string    `json:"character"`
	Aliases    []string  `json:"aliases"`
	ImageKey   string    `json:"imageKey"`
	ActiveDate string    `json:"activeDate"`
	CreatedAt  time.Time `json:"createdAt"`
}

// GuessAttempt is an append-only record of one guess. Attempt numbers for a
// (user, puzzle) pair are contiguous starting at 1.
type GuessAttempt struct {
	UserID        string    `json:"userId"`
	PuzzleID      string    `json:"puzzleId"`
	AttemptNumber int       `json:"attemptNumber"`
	Guess         string    `json:"guess"`
	Normalized    string    `json:"normalized"`
	Correct       bool      `json:"correct"`
	CreatedAt     time.Time `json:"createdAt"`
}

// UserStreak tracks consecutive-day completions for one (user, universe).
// Current never exceeds Longest.
type UserStreak struct {
	Current    int    `json:"current"`
	Longest    int    `json:"longest"`
	LastPlayed string `json:"lastPlayed,omitempty"`
}

type User struct {
	ID        string                `json:"id"`
	Username  string                `json:"username"`
	Streaks   map[string]UserStreak `json:"streaks"`
	CreatedAt time.Time             `json:"createdAt"`
}

// GuessOutcome is the result of one submitted guess. Character is only set
// when the guess was correct.
type GuessOutcome struct {
	Correct           bool       `json:"correct"`
	Character         string     `json:"character,omitempty"`
	ImageKey          string     `json:"imageKey,omitempty"`
	AttemptNumber     int        `json:"attemptNumber"`
	AttemptsRemaining int        `json:"attemptsRemaining"`
	GameOver          bool       `json:"gameOver"`
	Streak            UserStreak `json:"streak"`
}

type PuzzleStatus struct {
	PuzzleID          string `json:"puzzleId"`
	CanGuess          bool   `json:"canGuess"`
	IsSolved          bool   `json:"isSolved"`
	AttemptsUsed      int    `json:"attemptsUsed"`
	AttemptsRemaining int    `json:"attemptsRemaining"`
}
