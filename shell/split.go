package shell

import (
	"strings"
	"unicode"
)

// Split breaks s into shell words. Whitespace outside quotes separates words,
// single quotes keep their content verbatim, and backslash escapes apply
// outside quotes and (for $ ` " \ and newline) inside double quotes. Shell
// operators are not special. Split never fails: an unterminated quote yields
// the whole input as a single word.
func Split(s string) []string {
	var words []string
	var cur strings.Builder
	inWord := false
	flush := func() {
		if inWord {
			words = append(words, cur.String())
			cur.Reset()
			inWord = false
		}
	}

	runes := []rune(s)
	for i := 0; i < len(runes); i++ {
		c := runes[i]
		switch {
		case c == '\\':
			if i+1 >= len(runes) {
				cur.WriteRune(c)
				inWord = true
				continue
			}
			i++
			if runes[i] == '\n' {
				continue
			}
			cur.WriteRune(runes[i])
			inWord = true

		case c == '\'':
			end := indexRune(runes, i+1, '\'')
			if end < 0 {
				return []string{s}
			}
			cur.WriteString(string(runes[i+1 : end]))
			inWord = true
			i = end

		case c == '"':
			end, ok := readDoubleQuoted(runes, i+1, &cur)
			if !ok {
				return []string{s}
			}
			inWord = true
			i = end

		case unicode.IsSpace(c):
			flush()

		default:
			cur.WriteRune(c)
			inWord = true
		}
	}
	flush()
	return words
}

// readDoubleQuoted copies a double-quoted section starting at runes[start]
// into b and returns the index of the closing quote.
func readDoubleQuoted(runes []rune, start int, b *strings.Builder) (int, bool) {
	for i := start; i < len(runes); i++ {
		c := runes[i]
		switch c {
		case '"':
			return i, true
		case '\\':
			if i+1 < len(runes) {
				switch next := runes[i+1]; next {
				case '$', '`', '"', '\\':
					b.WriteRune(next)
					i++
					continue
				case '\n':
					i++
					continue
				}
			}
			b.WriteRune(c)
		default:
			b.WriteRune(c)
		}
	}
	return 0, false
}

func indexRune(runes []rune, from int, r rune) int {
	for i := from; i < len(runes); i++ {
		if runes[i] == r {
			return i
		}
	}
	return -1
}
