// Package guess implements guess text normalization and character name
// matching for the daily puzzle.
package guess

import (
	"strings"
	"unicode"
)

// Normalize folds a raw guess into its comparison form: lowercase, internal
// whitespace collapsed to single spaces, punctuation stripped except internal
// hyphens. Diacritics are not folded; matching is byte-for-byte after this.
func Normalize(raw string) string {
	lower := strings.ToLower(strings.TrimSpace(raw))

	var b strings.Builder
	b.Grow(len(lower))
	for _, r := range lower {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			b.WriteRune(r)
		case unicode.IsSpace(r) || r == '-':
			b.WriteRune(r)
		}
	}

	return strings.Join(strings.Fields(b.String()), " ")
}

// Compact is the hyphen/space-insensitive variant of Normalize, used to
// absorb "Spider Man" vs "Spider-Man" vs "spiderman" class differences.
func Compact(raw string) string {
	n := Normalize(raw)
	n = strings.ReplaceAll(n, " ", "")
	return strings.ReplaceAll(n, "-", "")
}

// Matches reports whether a raw guess names the puzzle character. A guess is
// correct when its normalized form equals the normalized canonical name or
// any normalized alias, or when the compact forms agree.
func Matches(raw, canonical string, aliases []string) bool {
	ng := Normalize(raw)
	if ng == "" {
		return false
	}
	cg := Compact(raw)

	for _, name := range append([]string{canonical}, aliases...) {
		if ng == Normalize(name) || cg == Compact(name) {
			return true
		}
	}
	return false
}
