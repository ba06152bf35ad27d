// Package game runs the per-user attempt state machine for daily puzzles:
// attempt-bounded guess validation, terminal-state idempotence, and streak
// recording on terminal transitions.
package game

import (
	"context"
	"time"

	"github.com/AnishKajan/ComicGuess-sub002/internal/guess"
	"github.com/AnishKajan/ComicGuess-sub002/internal/models"
	"github.com/AnishKajan/ComicGuess-sub002/internal/puzzle"
	"github.com/AnishKajan/ComicGuess-sub002/internal/storage"
	"github.com/AnishKajan/ComicGuess-sub002/internal/streak"
	"github.com/AnishKajan/ComicGuess-sub002/internal/util"
)

// MaxAttempts is the attempt ceiling per (user, puzzle).
const MaxAttempts = 6

type Service struct {
	selector *puzzle.Selector
	tracker  *streak.Tracker
	users    storage.UserRepository
	guesses  storage.GuessRepository
	// locks serializes submissions per (user, puzzle) so two concurrent
	// guesses cannot both read the same attempt count and both append
	// attempt N.
	locks *keyedMutex
}

func NewService(selector *puzzle.Selector, tracker *streak.Tracker, users storage.UserRepository, guesses storage.GuessRepository) *Service {
	return &Service{
		selector: selector,
		tracker:  tracker,
		users:    users,
		guesses:  guesses,
		locks:    newKeyedMutex(),
	}
}

// SubmitGuess evaluates one guess for the caller against the (universe, date)
// puzzle, lazily creating the puzzle on first access. Terminal states reject
// deterministically without appending an attempt. On the terminal transition
// the streak is recorded exactly once.
func (s *Service) SubmitGuess(ctx context.Context, userID, universe, date, rawGuess string) (*models.GuessOutcome, error) {
	if !models.IsUniverse(universe) {
		return nil, models.ErrInvalidUniverse
	}
	normalized := guess.Normalize(rawGuess)
	if normalized == "" {
		return nil, models.ErrInvalidGuess
	}

	u, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	p, err := s.selector.GetOrCreate(ctx, universe, date)
	if err != nil {
		return nil, err
	}

	lockKey := userID + "|" + p.ID
	s.locks.lock(lockKey)
	defer s.locks.unlock(lockKey)

	solved, err := s.guesses.HasSolved(ctx, userID, p.ID)
	if err != nil {
		return nil, err
	}
	if solved {
		return nil, models.ErrAlreadySolved
	}

	used, err := s.guesses.CountAttempts(ctx, userID, p.ID)
	if err != nil {
		return nil, err
	}
	if used >= MaxAttempts {
		return nil, models.ErrAttemptsExhausted
	}

	correct := guess.Matches(rawGuess, p.Character, p.Aliases)
	attempt := &models.GuessAttempt{
		UserID:        userID,
		PuzzleID:      p.ID,
		AttemptNumber: used + 1,
		Guess:         rawGuess,
		Normalized:    normalized,
		Correct:       correct,
		CreatedAt:     time.Now().UTC(),
	}
	if err := s.guesses.AppendAttempt(ctx, attempt); err != nil {
		return nil, err
	}

	gameOver := correct || attempt.AttemptNumber >= MaxAttempts

	outcome := &models.GuessOutcome{
		Correct:           correct,
		AttemptNumber:     attempt.AttemptNumber,
		AttemptsRemaining: MaxAttempts - attempt.AttemptNumber,
		GameOver:          gameOver,
		Streak:            u.Streaks[universe],
	}
	if correct {
		outcome.Character = p.Character
		outcome.ImageKey = p.ImageKey
	}

	if gameOver {
		updated, err := s.tracker.RecordOutcome(ctx, userID, universe, date, correct)
		if err != nil {
			return nil, err
		}
		outcome.Streak = updated
		util.LogInfoCtx(ctx, "Game over for user %s on %s: correct=%v attempts=%d", userID, p.ID, correct, attempt.AttemptNumber)
	}

	return outcome, nil
}

// PuzzleStatus reports the caller's position in the state machine for the
// (universe, date) puzzle.
func (s *Service) PuzzleStatus(ctx context.Context, userID, universe, date string) (*models.PuzzleStatus, error) {
	if !models.IsUniverse(universe) {
		return nil, models.ErrInvalidUniverse
	}

	p, err := s.selector.GetOrCreate(ctx, universe, date)
	if err != nil {
		return nil, err
	}

	solved, err := s.guesses.HasSolved(ctx, userID, p.ID)
	if err != nil {
		return nil, err
	}
	used, err := s.guesses.CountAttempts(ctx, userID, p.ID)
	if err != nil {
		return nil, err
	}

	remaining := MaxAttempts - used
	if remaining < 0 {
		remaining = 0
	}
	return &models.PuzzleStatus{
		PuzzleID:          p.ID,
		CanGuess:          !solved && used < MaxAttempts,
		IsSolved:          solved,
		AttemptsUsed:      used,
		AttemptsRemaining: remaining,
	}, nil
}

// Streaks returns the caller's streaks for every universe, zero-valued where
// the user has never played.
func (s *Service) Streaks(ctx context.Context, userID string) (map[string]models.UserStreak, error) {
	u, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	out := make(map[string]models.UserStreak, len(models.Universes))
	for _, universe := range models.Universes {
		out[universe] = u.Streaks[universe]
	}
	return out, nil
}

// Progress reports the caller's per-universe status for one day.
func (s *Service) Progress(ctx context.Context, userID, date string) (map[string]*models.PuzzleStatus, error) {
	if _, err := s.users.GetByID(ctx, userID); err != nil {
		return nil, err
	}
	out := make(map[string]*models.PuzzleStatus, len(models.Universes))
	for _, universe := range models.Universes {
		status, err := s.PuzzleStatus(ctx, userID, universe, date)
		if err != nil {
			return nil, err
		}
		out[universe] = status
	}
	return out, nil
}
