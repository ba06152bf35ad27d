package roster_test

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/AnishKajan/ComicGuess-sub002/internal/models"
	"github.com/AnishKajan/ComicGuess-sub002/internal/roster"
)

func writeRoster(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "characters.json")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("Failed to write roster fixture: %v", err)
	}
	return path
}

func TestLoadRoster(t *testing.T) {
	path := writeRoster(t, `{
		"universes": {
			"marvel": [
				{"name": "Spider-Man", "aliases": ["Spidey", "Peter Parker"], "imageKey": "marvel/spider-man.jpg"},
				{"name": "Wolverine", "aliases": ["Logan"], "imageKey": "marvel/wolverine.jpg"}
			],
			"dc": [
				{"name": "Batman", "aliases": ["Bruce Wayne"], "imageKey": "dc/batman.jpg"}
			]
		}
	}`)

	r, err := roster.Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	marvel, err := r.Pool("marvel")
	if err != nil {
		t.Fatalf("Pool(marvel) failed: %v", err)
	}
	if len(marvel) != 2 {
		t.Fatalf("Marvel pool size = %d, want 2", len(marvel))
	}
	if marvel[0].Name != "Spider-Man" {
		t.Errorf("First marvel entry = %q, want Spider-Man", marvel[0].Name)
	}
	if len(marvel[0].Aliases) != 2 {
		t.Errorf("Spider-Man aliases = %v, want 2 entries", marvel[0].Aliases)
	}

	dc, err := r.Pool("dc")
	if err != nil {
		t.Fatalf("Pool(dc) failed: %v", err)
	}
	if len(dc) != 1 || dc[0].Name != "Batman" {
		t.Errorf("DC pool = %v, want single Batman entry", dc)
	}
}

func TestLoadSkipsUnknownUniverseAndUnnamedEntries(t *testing.T) {
	path := writeRoster(t, `{
		"universes": {
			"marvel": [
				{"name": "Spider-Man"},
				{"name": "   "},
				{"name": ""}
			],
			"darkhorse": [
				{"name": "Hellboy"}
			]
		}
	}`)

	r, err := roster.Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	marvel, err := r.Pool("marvel")
	if err != nil {
		t.Fatalf("Pool(marvel) failed: %v", err)
	}
	if len(marvel) != 1 {
		t.Errorf("Marvel pool size = %d, want 1 (blank names dropped)", len(marvel))
	}
	if _, err := r.Pool("darkhorse"); !errors.Is(err, models.ErrInvalidUniverse) {
		t.Errorf("Pool(darkhorse) error = %v, want ErrInvalidUniverse", err)
	}
}

func TestPoolErrors(t *testing.T) {
	r := roster.New(map[string][]models.Character{
		"marvel": {{Name: "Spider-Man"}},
	})

	if _, err := r.Pool("starwars"); !errors.Is(err, models.ErrInvalidUniverse) {
		t.Errorf("Invalid universe error = %v, want ErrInvalidUniverse", err)
	}
	if _, err := r.Pool("dc"); !errors.Is(err, models.ErrEmptyPool) {
		t.Errorf("Empty pool error = %v, want ErrEmptyPool", err)
	}
}

func TestLoadRejectsMissingOrMalformedFile(t *testing.T) {
	if _, err := roster.Load(filepath.Join(t.TempDir(), "missing.json")); err == nil {
		t.Error("Load of a missing file should fail")
	}

	path := writeRoster(t, `{"universes": `)
	if _, err := roster.Load(path); err == nil {
		t.Error("Load of malformed JSON should fail")
	}
}

func TestFind(t *testing.T) {
	r := roster.New(map[string][]models.Character{
		"marvel": {
			{Name: "Spider-Man", Aliases: []string{"Spidey"}},
			{Name: "Wolverine"},
		},
	})

	ch, ok := r.Find("marvel", "Wolverine")
	if !ok || ch.Name != "Wolverine" {
		t.Errorf("Find(Wolverine) = %v, %v", ch, ok)
	}
	if _, ok := r.Find("marvel", "Batman"); ok {
		t.Error("Find should miss on a name outside the pool")
	}
	if _, ok := r.Find("dc", "Batman"); ok {
		t.Error("Find should miss on an unloaded universe")
	}
}
