package validators

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// SanitizeString trims the input, folds whitespace runs (tabs and NBSP
// included) into one space, drops control characters and caps the result at
// maxLen runes. Supplier and buyer names are mostly Cyrillic, so the cap never
// splits a multi-byte character.
func SanitizeString(input string, maxLen int) string {
	var b strings.Builder
	b.Grow(len(input))
	pendingSpace := false
	runes := 0
	for _, r := range input {
		if r == utf8.RuneError {
			continue
		}
		if unicode.IsSpace(r) {
			pendingSpace = b.Len() > 0
			continue
		}
		if unicode.IsControl(r) {
			continue
		}
		if pendingSpace {
			if maxLen > 0 && runes+1 >= maxLen {
				break
			}
			b.WriteByte(' ')
			runes++
			pendingSpace = false
		}
		if maxLen > 0 && runes >= maxLen {
			break
		}
		b.WriteRune(r)
		runes++
	}
	return b.String()
}
