package storage

import (
	"context"
	"sync"

	"github.com/AnishKajan/ComicGuess-sub002/internal/models"
)

// MemoryStore is a process-local Store. It backs tests and local development
// runs where no database file is configured.
type MemoryStore struct {
	mu      sync.RWMutex
	puzzles map[string]*models.Puzzle        // id -> puzzle
	users   map[string]*models.User          // id -> user
	guesses map[string][]models.GuessAttempt // userID|puzzleID -> attempts
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		puzzles: make(map[string]*models.Puzzle),
		users:   make(map[string]*models.User),
		guesses: make(map[string][]models.GuessAttempt),
	}
}

func (s *MemoryStore) Close() error { return nil }

func guessKey(userID, puzzleID string) string {
	return userID + "|" + puzzleID
}

func (s *MemoryStore) GetByKey(ctx context.Context, universe, date string) (*models.Puzzle, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.puzzles[models.PuzzleID(universe, date)]
	if !ok {
		return nil, models.ErrPuzzleNotFound
	}
	cp := *p
	return &cp, nil
}

func (s *MemoryStore) CreateIfAbsent(ctx context.Context, p *models.Puzzle) (*models.Puzzle, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if existing, ok := s.puzzles[p.ID]; ok {
		cp := *existing
		return &cp, nil
	}
	cp := *p
	s.puzzles[p.ID] = &cp
	out := cp
	return &out, nil
}

func (s *MemoryStore) UpdateCharacter(ctx context.Context, universe, date string, ch models.Character) (*models.Puzzle, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.puzzles[models.PuzzleID(universe, date)]
	if !ok {
		return nil, models.ErrPuzzleNotFound
	}
	p.Character = ch.Name
	p.Aliases = append([]string(nil), ch.Aliases...)
	p.ImageKey = ch.ImageKey
	cp := *p
	return &cp, nil
}

func (s *MemoryStore) DeleteOlderThan(ctx context.Context, cutoff string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	removed := 0
	for id, p := range s.puzzles {
		if p.ActiveDate < cutoff {
			delete(s.puzzles, id)
			removed++
		}
	}
	return removed, nil
}

func (s *MemoryStore) GetByID(ctx context.Context, id string) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	u, ok := s.users[id]
	if !ok {
		return nil, models.ErrUserNotFound
	}
	cp := *u
	cp.Streaks = make(map[string]models.UserStreak, len(u.Streaks))
	for k, v := range u.Streaks {
		cp.Streaks[k] = v
	}
	return &cp, nil
}

func (s *MemoryStore) Create(ctx context.Context, u *models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *u
	if cp.Streaks == nil {
		cp.Streaks = make(map[string]models.UserStreak)
	}
	s.users[u.ID] = &cp
	return nil
}

func (s *MemoryStore) UpdateStreaks(ctx context.Context, id string, streaks map[string]models.UserStreak) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return models.ErrUserNotFound
	}
	u.Streaks = make(map[string]models.UserStreak, len(streaks))
	for k, v := range streaks {
		u.Streaks[k] = v
	}
	return nil
}

func (s *MemoryStore) AppendAttempt(ctx context.Context, a *models.GuessAttempt) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := guessKey(a.UserID, a.PuzzleID)
	s.guesses[key] = append(s.guesses[key], *a)
	return nil
}

func (s *MemoryStore) CountAttempts(ctx context.Context, userID, puzzleID string) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.guesses[guessKey(userID, puzzleID)]), nil
}

func (s *MemoryStore) HasSolved(ctx context.Context, userID, puzzleID string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, a := range s.guesses[guessKey(userID, puzzleID)] {
		if a.Correct {
			return true, nil
		}
	}
	return false, nil
}

func (s *MemoryStore) History(ctx context.Context, userID, puzzleID string) ([]models.GuessAttempt, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	attempts := s.guesses[guessKey(userID, puzzleID)]
	out := make([]models.GuessAttempt, len(attempts))
	copy(out, attempts)
	return out, nil
}
