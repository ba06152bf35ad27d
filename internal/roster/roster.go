// Package roster loads and indexes the per-universe character pools that
// daily puzzle selection draws from.
package roster

import (
	"encoding/json"
	"os"
	"strings"

	"github.com/samber/lo"

	"github.com/AnishKajan/ComicGuess-sub002/internal/models"
	"github.com/AnishKajan/ComicGuess-sub002/internal/util"
)

type rosterFile struct {
	Universes map[string][]models.Character `json:"universes"`
}

// Roster holds the fixed character pool for every universe. Pools are loaded
// once at startup and never mutated, so reads need no locking.
type Roster struct {
	pools map[string][]models.Character
}

// Load reads the roster JSON from path. Entries with an empty name and
// universes outside the fixed set are dropped with a warning.
func Load(path string) (*Roster, error) {
	util.LogInfo("Loading character roster from %s", path)

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var rf rosterFile
	if err := json.Unmarshal(data, &rf); err != nil {
		return nil, err
	}

	pools := make(map[string][]models.Character, len(models.Universes))
	for universe, entries := range rf.Universes {
		if !models.IsUniverse(universe) {
			util.LogWarn("Skipping unknown universe %q in roster", universe)
			continue
		}
		valid := lo.Filter(entries, func(ch models.Character, _ int) bool {
			if strings.TrimSpace(ch.Name) == "" {
				util.LogWarn("Skipping unnamed character in %s roster", universe)
				return false
			}
			return true
		})
		pools[universe] = valid
		util.LogInfo("Loaded %d characters for universe %s", len(valid), universe)
	}

	return New(pools), nil
}

// New builds a roster from already-parsed pools. Used directly by tests.
func New(pools map[string][]models.Character) *Roster {
	return &Roster{pools: pools}
}

// Pool returns the character pool for universe. ErrInvalidUniverse for an
// unrecognized universe, ErrEmptyPool when the universe has no characters.
func (r *Roster) Pool(universe string) ([]models.Character, error) {
	if !models.IsUniverse(universe) {
		return nil, models.ErrInvalidUniverse
	}
	pool := r.pools[universe]
	if len(pool) == 0 {
		return nil, models.ErrEmptyPool
	}
	return pool, nil
}

// Find returns the pool entry with the given canonical name, if present.
func (r *Roster) Find(universe, name string) (models.Character, bool) {
	pool := r.pools[universe]
	for _, ch := range pool {
		if ch.Name == name {
			return ch, true
		}
	}
	return models.Character{}, false
}
