// Package relpath rewrites absolute working-directory paths to repo-relative
// form anywhere inside tool inputs and outputs.
package relpath

import (
	"strings"

	"github.com/sonnes/unitrans/core"
)

// Relativize returns a copy of v in which every "<cwd>/" becomes "./" and
// every bare "<cwd>" not followed by a path character becomes ".". Non-string
// leaves are untouched. An empty or root cwd is a no-op.
func Relativize(v any, cwd string) any {
	cwd = strings.TrimRight(cwd, "/")
	if cwd == "" {
		return v
	}
	return core.WalkStrings(v, func(s string) string {
		return String(s, cwd)
	})
}

// String relativizes a single string against cwd.
func String(s, cwd string) string {
	cwd = strings.TrimRight(cwd, "/")
	if cwd == "" || !strings.Contains(s, cwd) {
		return s
	}
	s = strings.ReplaceAll(s, cwd+"/", "./")

	var b strings.Builder
	for {
		i := strings.Index(s, cwd)
		if i < 0 {
			b.WriteString(s)
			break
		}
		end := i + len(cwd)
		b.WriteString(s[:i])
		if end < len(s) && isPathChar(s[end]) {
			b.WriteString(cwd)
		} else {
			b.WriteByte('.')
		}
		s = s[end:]
	}
	return b.String()
}

// Transcript relativizes tool-call inputs and outputs, and command lines and
// outputs, of t in place against t.Cwd.
func Transcript(t *core.Transcript) {
	if t.Cwd == "" {
		return
	}
	for i := range t.Messages {
		m := &t.Messages[i]
		switch m.Type {
		case core.MessageToolCall:
			m.Input = Relativize(m.Input, t.Cwd)
			m.Output = Relativize(m.Output, t.Cwd)
		case core.MessageCommand:
			m.Command = String(m.Command, t.Cwd)
			m.Output = Relativize(m.Output, t.Cwd)
		}
	}
}

func isPathChar(c byte) bool {
	return c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' || c >= '0' && c <= '9' ||
		c == '_' || c == '-' || c == '.'
}
