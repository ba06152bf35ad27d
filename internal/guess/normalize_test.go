package guess_test

import (
	"testing"

	"github.com/AnishKajan/ComicGuess-sub002/internal/guess"
)

func TestNormalize(t *testing.T) {
	cases := []struct {
		in       string
		expected string
	}{
		{"Spider-Man", "spider-man"},
		{"  SPIDER   MAN  ", "spider man"},
		{"Spider-Man!", "spider-man"},
		{"T'Challa", "tchalla"},
		{"Mr. Fantastic", "mr fantastic"},
		{"", ""},
		{"!!!", ""},
	}
	for _, c := range cases {
		if got := guess.Normalize(c.in); got != c.expected {
			t.Errorf("Normalize(%q) = %q, want %q", c.in, got, c.expected)
		}
	}
}

func TestCompact(t *testing.T) {
	cases := []struct {
		in       string
		expected string
	}{
		{"Spider-Man", "spiderman"},
		{"spider man", "spiderman"},
		{"Jean-Paul  Valley", "jeanpaulvalley"},
	}
	for _, c := range cases {
		if got := guess.Compact(c.in); got != c.expected {
			t.Errorf("Compact(%q) = %q, want %q", c.in, got, c.expected)
		}
	}
}

func TestMatchesHyphenSpaceVariants(t *testing.T) {
	canonical := "Spider-Man"
	correct := []string{"Spider-Man", "spider man", "SPIDERMAN", "Spider-Man ", "spider-man"}
	for _, g := range correct {
		if !guess.Matches(g, canonical, nil) {
			t.Errorf("Expected %q to match %q", g, canonical)
		}
	}
	if guess.Matches("Iron Man", canonical, nil) {
		t.Error("Iron Man should not match Spider-Man")
	}
}

func TestMatchesAliases(t *testing.T) {
	aliases := []string{"Spidey", "Peter Parker"}
	if !guess.Matches("peter  parker", "Spider-Man", aliases) {
		t.Error("Alias with extra whitespace should match")
	}
	if !guess.Matches("PETERPARKER", "Spider-Man", aliases) {
		t.Error("Compact alias form should match")
	}
	if guess.Matches("Mary Jane", "Spider-Man", aliases) {
		t.Error("Non-alias should not match")
	}
}

func TestMatchesEmptyGuess(t *testing.T) {
	if guess.Matches("", "Spider-Man", nil) {
		t.Error("Empty guess should never match")
	}
	if guess.Matches("   !!! ", "Spider-Man", nil) {
		t.Error("Guess that normalizes to empty should never match")
	}
}
