package grading

import "unicode"

// Normalize casefolds, drops punctuation and symbols, and collapses whitespace
// runs to a single space with no leading or trailing space. It is idempotent.
func Normalize(s string) string {
	out := make([]rune, 0, len(s))
	space := false
	for _, r := range s {
		switch {
		case unicode.IsSpace(r):
			space = true
		case unicode.IsPunct(r), unicode.IsSymbol(r):
			// skip
		default:
			if space && len(out) > 0 {
				out = append(out, ' ')
			}
			space = false
			out = append(out, unicode.ToLower(r))
		}
	}
	return string(out)
}
