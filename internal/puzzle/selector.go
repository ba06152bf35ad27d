// Package puzzle selects the daily character for each universe and manages
// the puzzle lifecycle against the backing store.
package puzzle

import (
	"context"
	"errors"
	"hash/fnv"
	"time"

	"github.com/AnishKajan/ComicGuess-sub002/internal/models"
	"github.com/AnishKajan/ComicGuess-sub002/internal/roster"
	"github.com/AnishKajan/ComicGuess-sub002/internal/storage"
	"github.com/AnishKajan/ComicGuess-sub002/internal/util"
)

// Selector owns deterministic daily puzzle selection. The same (universe,
// date) always maps to the same pool entry, across processes and restarts.
type Selector struct {
	roster  *roster.Roster
	puzzles storage.PuzzleRepository
}

func NewSelector(r *roster.Roster, puzzles storage.PuzzleRepository) *Selector {
	return &Selector{roster: r, puzzles: puzzles}
}

// PoolIndex maps (date, universe) to an index into a pool of the given size.
// FNV-1a over "date-universe", reduced mod poolSize. No PRNG state; the
// mapping is the contract and is independently checkable.
func PoolIndex(date, universe string, poolSize int) int {
	h := fnv.New32a()
	h.Write([]byte(date + "-" + universe))
	return int(h.Sum32() % uint32(poolSize))
}

// Pick returns the character the pool yields for (universe, date) without
// touching the store.
func (s *Selector) Pick(universe, date string) (models.Character, error) {
	pool, err := s.roster.Pool(universe)
	if err != nil {
		return models.Character{}, err
	}
	return pool[PoolIndex(date, universe, len(pool))], nil
}

// GetOrCreate returns the puzzle for (universe, date), creating it from the
// pool on first access. Two concurrent creators converge on the same record.
func (s *Selector) GetOrCreate(ctx context.Context, universe, date string) (*models.Puzzle, error) {
	ch, err := s.Pick(universe, date)
	if err != nil {
		return nil, err
	}

	existing, err := s.puzzles.GetByKey(ctx, universe, date)
	if err == nil {
		return existing, nil
	}
	if !errors.Is(err, models.ErrPuzzleNotFound) {
		return nil, err
	}

	p := &models.Puzzle{
		ID:         models.PuzzleID(universe, date),
		Universe:   universe,
		Character:  ch.Name,
		Aliases:    append([]string(nil), ch.Aliases...),
		ImageKey:   ch.ImageKey,
		ActiveDate: date,
		CreatedAt:  time.Now().UTC(),
	}
	created, err := s.puzzles.CreateIfAbsent(ctx, p)
	if err != nil {
		return nil, err
	}
	util.LogInfoCtx(ctx, "Puzzle ready for %s/%s: %s", universe, date, created.ID)
	return created, nil
}

// Hotfix replaces the character of an already-created puzzle. This bypasses
// deterministic selection on purpose and is always logged with before and
// after values.
func (s *Selector) Hotfix(ctx context.Context, universe, date string, ch models.Character) (*models.Puzzle, error) {
	if !models.IsUniverse(universe) {
		return nil, models.ErrInvalidUniverse
	}
	before, err := s.puzzles.GetByKey(ctx, universe, date)
	if err != nil {
		return nil, err
	}
	after, err := s.puzzles.UpdateCharacter(ctx, universe, date, ch)
	if err != nil {
		return nil, err
	}
	util.LogWarn("Puzzle hotfix applied to %s: character %q -> %q", before.ID, before.Character, after.Character)
	return after, nil
}

// EnsureToday creates today's puzzle for every universe. Idempotent; used by
// the scheduled pre-creation sweep so the first player of the day never pays
// the creation round-trip.
func (s *Selector) EnsureToday(ctx context.Context) {
	date := util.Today()
	for _, universe := range models.Universes {
		if _, err := s.GetOrCreate(ctx, universe, date); err != nil {
			util.LogWarn("Failed to pre-create puzzle for %s/%s: %v", universe, date, err)
		}
	}
}

// CleanupOld deletes puzzles older than retention days.
func (s *Selector) CleanupOld(ctx context.Context, retentionDays int) {
	cutoff := util.DayBefore(util.Today(), retentionDays)
	if cutoff == "" {
		return
	}
	removed, err := s.puzzles.DeleteOlderThan(ctx, cutoff)
	if err != nil {
		util.LogWarn("Puzzle retention cleanup failed: %v", err)
		return
	}
	if removed > 0 {
		util.LogInfo("Retention cleanup removed %d puzzles older than %s", removed, cutoff)
	}
}
