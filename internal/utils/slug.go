package utils

import (
	"strings"
	"unicode"

	"github.com/google/uuid"
	"golang.org/x/text/unicode/norm"
)

// Slugify lowercases, strips diacritics and collapses everything that is not
// a-z0-9 into single dashes. An empty result is possible for purely symbolic
// input; callers fall back to RandomSlug.
func Slugify(input string) string {
	decomposed := norm.NFKD.String(strings.ToLower(input))

	var b strings.Builder
	lastDash := true // suppress a leading dash
	for _, r := range decomposed {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
			lastDash = false
		case unicode.Is(unicode.Mn, r):
			// combining mark left over from NFKD, drop it
		default:
			if !lastDash {
				b.WriteByte('-')
				lastDash = true
			}
		}
	}
	return strings.TrimRight(b.String(), "-")
}

// RandomSlug returns a short collision-resistant slug suffix.
func RandomSlug() string {
	return uuid.New().String()[:8]
}
