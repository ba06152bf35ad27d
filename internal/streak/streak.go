// Package streak maintains per-user, per-universe consecutive-day counters.
package streak

import (
	"context"

	"github.com/AnishKajan/ComicGuess-sub002/internal/models"
	"github.com/AnishKajan/ComicGuess-sub002/internal/storage"
	"github.com/AnishKajan/ComicGuess-sub002/internal/util"
)

// Apply computes the next streak state for one recorded day. hasPrev is false
// when the user has never played this universe. Continuity rule: a success
// extends the streak only when the previous play was exactly the prior
// calendar day; any gap or same-day re-record restarts at 1, and a failed day
// resets to 0. Longest never decreases.
func Apply(prev models.UserStreak, hasPrev bool, date string, success bool) models.UserStreak {
	next := models.UserStreak{LastPlayed: date}

	if !hasPrev {
		if success {
			next.Current = 1
		}
		next.Longest = next.Current
		return next
	}

	switch {
	case success && prev.LastPlayed == util.PrevDay(date):
		next.Current = prev.Current + 1
	case success:
		next.Current = 1
	default:
		next.Current = 0
	}
	next.Longest = max(prev.Longest, next.Current)
	return next
}

// Tracker records terminal game outcomes against the user store.
type Tracker struct {
	users storage.UserRepository
}

func NewTracker(users storage.UserRepository) *Tracker {
	return &Tracker{users: users}
}

// RecordOutcome updates the (user, universe) streak for one calendar day and
// returns the new state. The caller must invoke this exactly once per
// terminal transition; intermediate attempts never reach here.
func (t *Tracker) RecordOutcome(ctx context.Context, userID, universe, date string, success bool) (models.UserStreak, error) {
	u, err := t.users.GetByID(ctx, userID)
	if err != nil {
		return models.UserStreak{}, err
	}

	prev, hasPrev := u.Streaks[universe]
	next := Apply(prev, hasPrev, date, success)
	u.Streaks[universe] = next

	if err := t.users.UpdateStreaks(ctx, userID, u.Streaks); err != nil {
		return models.UserStreak{}, err
	}
	util.LogInfoCtx(ctx, "Streak updated for user %s universe %s: current=%d longest=%d", userID, universe, next.Current, next.Longest)
	return next, nil
}
