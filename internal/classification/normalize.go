// Package classification maps free-text merchant descriptions onto spending
// categories using an ordered phrase table, substring checks and fuzzy
// similarity.
package classification

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var nonAlphanumeric = regexp.MustCompile(`[^a-z0-9 ]+`)

// Normalize lower-cases text, folds accented letters to their ASCII base,
// replaces everything outside [a-z0-9 ] with a space and collapses runs of
// whitespace. The result is stable under repeated application.
func Normalize(text string) string {
	if text == "" {
		return ""
	}

	lower := strings.ToLower(text)

	folder := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	folded, _, err := transform.String(folder, lower)
	if err != nil {
		folded = lower
	}

	cleaned := nonAlphanumeric.ReplaceAllString(folded, " ")
	return strings.Join(strings.Fields(cleaned), " ")
}
