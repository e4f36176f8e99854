// Package compact provides a Transformer that replaces verbose tool content
// with short line-count summaries.
package compact

import (
	"fmt"
	"strings"

	"github.com/sonnes/unitrans/core"
)

// Config controls the compact transformer behavior.
type Config struct {
	StripThinking bool
}

// Compactor replaces verbose tool content with line-count summaries.
type Compactor struct {
	stripThinking bool
}

// New creates a Compactor from the given config.
func New(cfg Config) *Compactor {
	return &Compactor{stripThinking: cfg.StripThinking}
}

// outputKeys are the fields of structured tool output that carry bulk text.
var outputKeys = map[string]bool{
	"stdout":  true,
	"stderr":  true,
	"content": true,
	"output":  true,
}

// Transform implements core.Transformer. Stats keep describing the full
// session; only message payloads shrink.
func (c *Compactor) Transform(t *core.Transcript) (*core.Transcript, error) {
	out := t.Clone()
	if out == nil {
		return nil, nil
	}
	msgs := out.Messages[:0]
	for _, m := range out.Messages {
		if c.stripThinking && m.Type == core.MessageThinking {
			continue
		}
		compactMessage(&m)
		msgs = append(msgs, m)
	}
	out.Messages = msgs
	return out, nil
}

func compactMessage(m *core.Message) {
	switch m.Type {
	case core.MessageToolCall:
		label := "output"
		if m.IsError {
			label = "error"
		}
		m.Output = compactOutput(label, m.Output)
		if m.Error != "" {
			m.Error = lineSummary("error", m.Error)
		}
		compactInput(m)
	case core.MessageCommand:
		m.Output = compactOutput("output", m.Output)
	}
}

func compactInput(m *core.Message) {
	in, ok := m.Input.(map[string]any)
	if !ok || in == nil {
		return
	}
	switch m.ToolName {
	case core.ToolWrite:
		summarizeMapField(in, "content")
	case core.ToolEdit:
		summarizeMapField(in, "old_string")
		summarizeMapField(in, "new_string")
		summarizeMapField(in, "patch")
	}
}

// compactOutput summarizes a string output, or the bulk text fields of a
// structured one. Other values pass through.
func compactOutput(label string, v any) any {
	switch val := v.(type) {
	case string:
		return lineSummary(label, val)
	case map[string]any:
		for k, child := range val {
			switch c := child.(type) {
			case string:
				if outputKeys[k] {
					val[k] = lineSummary(k, c)
				}
			case map[string]any:
				val[k] = compactOutput(label, c)
			}
		}
		return val
	default:
		return v
	}
}

// lineSummary returns a summary like "[output: 245 lines]" or "[error: 12 lines]".
func lineSummary(label, s string) string {
	n := countLines(s)
	if n == 1 {
		return fmt.Sprintf("[%s: 1 line]", label)
	}
	return fmt.Sprintf("[%s: %d lines]", label, n)
}

// summarizeMapField replaces a string field in a map with a line-count summary.
func summarizeMapField(m map[string]any, key string) {
	s, ok := m[key].(string)
	if !ok {
		return
	}
	m[key] = lineSummary(key, s)
}

// countLines returns the number of lines in s.
// An empty string has 0 lines. A string with no newline has 1 line.
func countLines(s string) int {
	if s == "" {
		return 0
	}
	n := strings.Count(s, "\n") + 1
	if strings.HasSuffix(s, "\n") {
		n--
	}
	return n
}
