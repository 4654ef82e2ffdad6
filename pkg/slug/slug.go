// Package slug builds URL-safe identifiers from display names.
package slug

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var (
	nonWord    = regexp.MustCompile(`[^a-z0-9\s_-]+`)
	separators = regexp.MustCompile(`[\s_]+`)
	dashes     = regexp.MustCompile(`-{2,}`)
)

// Make lower-cases value, folds diacritics to ASCII, drops everything that
// is not a word character, and joins words with single dashes.
func Make(value string) string {
	folded := Fold(strings.ToLower(strings.TrimSpace(value)))
	folded = nonWord.ReplaceAllString(folded, "")
	folded = separators.ReplaceAllString(folded, "-")
	folded = dashes.ReplaceAllString(folded, "-")
	return strings.Trim(folded, "-")
}

// Fold strips combining marks so "Thức uống" becomes "Thuc uong".
func Fold(value string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, value)
	if err != nil {
		out = value
	}
	// đ has no decomposition.
	return strings.NewReplacer("đ", "d", "Đ", "D").Replace(out)
}
