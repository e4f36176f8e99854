package core

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"strings"
)

// ErrInvalidTranscript is returned by Validate. Individual problems are
// joined onto it.
var ErrInvalidTranscript = errors.New("invalid transcript")

var knownSources = map[Source]bool{
	SourceCodex:    true,
	SourceOpenCode: true,
	SourcePi:       true,
	SourceClaude:   true,
}

var knownTypes = map[MessageType]bool{
	MessageUser:       true,
	MessageAgent:      true,
	MessageThinking:   true,
	MessageToolCall:   true,
	MessageCommand:    true,
	MessageCompaction: true,
	MessageImage:      true,
}

// Normalize puts t into canonical form: messages are stably sorted by
// timestamp, messages without a timestamp inherit the previous one (or the
// transcript's), the preview is trimmed and stats are recomputed.
func Normalize(t *Transcript) {
	prev := t.Timestamp
	for i := range t.Messages {
		if t.Messages[i].Timestamp.IsZero() {
			t.Messages[i].Timestamp = prev
		}
		prev = t.Messages[i].Timestamp
	}
	sort.SliceStable(t.Messages, func(i, j int) bool {
		return t.Messages[i].Timestamp.Before(t.Messages[j].Timestamp)
	})
	if t.Timestamp.IsZero() && len(t.Messages) > 0 {
		t.Timestamp = t.Messages[0].Timestamp
	}
	t.Preview = strings.TrimSpace(t.Preview)
	t.Stats = ComputeStats(t.Messages)
}

// Validate checks the invariants every transcript leaving a reader must
// hold. A failure here is a bug in the reader, not bad input.
func Validate(t *Transcript) error {
	var errs []error
	add := func(format string, args ...any) {
		errs = append(errs, fmt.Errorf(format, args...))
	}

	if t.ID == "" {
		add("id is empty")
	}
	if !knownSources[t.Source] {
		add("unknown source %q", t.Source)
	}
	if t.Timestamp.IsZero() {
		add("timestamp is zero")
	}
	if len(t.Messages) == 0 {
		add("no messages")
	}
	if t.CostUSD < 0 || math.IsNaN(t.CostUSD) || math.IsInf(t.CostUSD, 0) {
		add("cost %v is not a non-negative number", t.CostUSD)
	}
	if t.Usage != nil && hasNegative(*t.Usage) {
		add("usage has negative counters")
	}

	for i, m := range t.Messages {
		if !knownTypes[m.Type] {
			add("message %d: unknown type %q", i, m.Type)
			continue
		}
		if i > 0 && m.Timestamp.Before(t.Messages[i-1].Timestamp) {
			add("message %d: out of chronological order", i)
		}
		switch m.Type {
		case MessageToolCall:
			if m.ToolName == "" {
				add("message %d: tool call without tool name", i)
			}
		case MessageImage:
			if m.Image == nil || !validDigest(m.Image.SHA256) {
				add("message %d: image without blob reference", i)
			}
		case MessageCommand:
			if m.Command == "" {
				add("message %d: command without command line", i)
			}
		}
		for _, ref := range m.Images {
			if !validDigest(ref.SHA256) {
				add("message %d: malformed image reference %q", i, ref.SHA256)
			}
		}
	}

	if len(errs) == 0 {
		return nil
	}
	return fmt.Errorf("%w: %w", ErrInvalidTranscript, errors.Join(errs...))
}

func hasNegative(u Usage) bool {
	return u.InputTokens < 0 || u.CachedInputTokens < 0 || u.CacheWriteTokens < 0 ||
		u.OutputTokens < 0 || u.ReasoningOutputTokens < 0 || u.TotalTokens < 0
}

func validDigest(s string) bool {
	if len(s) != 64 {
		return false
	}
	for _, c := range s {
		if !(c >= '0' && c <= '9' || c >= 'a' && c <= 'f') {
			return false
		}
	}
	return true
}
