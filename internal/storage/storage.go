// Package storage defines the repository contracts the gameplay core depends
// on, plus the SQLite and in-memory implementations behind them. Repository
// failures are treated as potentially-failing remote operations: surfaced to
// the caller, never retried here.
package storage

import (
	"context"

	"github.com/AnishKajan/ComicGuess-sub002/internal/models"
)

// PuzzleRepository fetches and creates daily puzzles. GetByKey returns
// models.ErrPuzzleNotFound when no puzzle exists for (universe, date).
type PuzzleRepository interface {
	GetByKey(ctx context.Context, universe, date string) (*models.Puzzle, error)
	// CreateIfAbsent persists p unless a puzzle already exists for its
	// (universe, date), in which case the existing record wins and is
	// returned. Concurrent creators must converge without error.
	CreateIfAbsent(ctx context.Context, p *models.Puzzle) (*models.Puzzle, error)
	// UpdateCharacter replaces the character of an existing puzzle. Hotfix
	// only; ErrPuzzleNotFound when the puzzle was never created.
	UpdateCharacter(ctx context.Context, universe, date string, ch models.Character) (*models.Puzzle, error)
	// DeleteOlderThan removes puzzles with an active date before cutoff and
	// reports how many were removed. Retention cleanup only.
	DeleteOlderThan(ctx context.Context, cutoff string) (int, error)
}

type UserRepository interface {
	// GetByID returns models.ErrUserNotFound for an unknown user.
	GetByID(ctx context.Context, id string) (*models.User, error)
	Create(ctx context.Context, u *models.User) error
	UpdateStreaks(ctx context.Context, id string, streaks map[string]models.UserStreak) error
}

// GuessRepository records attempts append-only.
type GuessRepository interface {
	AppendAttempt(ctx context.Context, a *models.GuessAttempt) error
	CountAttempts(ctx context.Context, userID, puzzleID string) (int, error)
	HasSolved(ctx context.Context, userID, puzzleID string) (bool, error)
	History(ctx context.Context, userID, puzzleID string) ([]models.GuessAttempt, error)
}

// Store bundles the three repositories a serving process needs.
type Store interface {
	PuzzleRepository
	UserRepository
	GuessRepository
	Close() error
}
