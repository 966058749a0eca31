package utils

import (
	"strings"
	"unicode"
)

// NormalizeText collapses whitespace runs into one space and collapses runs of
// '!' or '?' into a single character. The result is trimmed.
func NormalizeText(text string) string {
	var b strings.Builder
	b.Grow(len(text))

	var prev rune
	pendingSpace := false
	for _, r := range text {
		if unicode.IsSpace(r) {
			pendingSpace = b.Len() > 0
			continue
		}
		if pendingSpace {
			b.WriteByte(' ')
			pendingSpace = false
			prev = ' '
		}
		if (r == '!' || r == '?') && (prev == '!' || prev == '?') {
			continue
		}
		b.WriteRune(r)
		prev = r
	}
	return b.String()
}
