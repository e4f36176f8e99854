package redact

import (
	"strings"
	"unicode"
)

// Mask replaces every non-whitespace rune of s with '*'. Whitespace is kept
// in place, so the result has the same rune count and line structure.
func Mask(s string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return r
		}
		return '*'
	}, s)
}
