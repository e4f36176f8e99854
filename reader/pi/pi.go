// Package pi decodes pi coding-agent sessions: a header followed by
// tree-shaped entries linked by parentId.
package pi

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/log"

	"github.com/sonnes/unitrans/blob"
	"github.com/sonnes/unitrans/core"
	"github.com/sonnes/unitrans/reader"
	"github.com/sonnes/unitrans/tree"
)

// Reader decodes pi sessions. The zero value is ready to use.
type Reader struct{}

// Raw JSON deserialization types. These mirror the session file on disk.

type rawSession struct {
	Header  rawHeader
	Entries []rawEntry
}

// rawDocument is the whole-document form; entries decode one at a time.
type rawDocument struct {
	Header  json.RawMessage   `json:"header"`
	Entries []json.RawMessage `json:"entries"`
}

type rawHeader struct {
	Type      string          `json:"type"`
	ID        string          `json:"id"`
	Timestamp string          `json:"timestamp"`
	Cwd       string          `json:"cwd"`
	Version   json.RawMessage `json:"version"`
}

type rawEntry struct {
	Type      string      `json:"type"`
	ID        string      `json:"id"`
	ParentID  *string     `json:"parentId"`
	Timestamp string      `json:"timestamp"`
	Message   *rawMessage `json:"message"`
	Provider  string      `json:"provider"`
	ModelID   string      `json:"modelId"`
	Summary   string      `json:"summary"`
}

type rawMessage struct {
	Role       string          `json:"role"`
	Content    json.RawMessage `json:"content"`
	Provider   string          `json:"provider"`
	Model      string          `json:"model"`
	Usage      *rawUsage       `json:"usage"`
	ToolCallID string          `json:"toolCallId"`
	IsError    bool            `json:"isError"`
	Command    string          `json:"command"`
	Output     string          `json:"output"`
	ExitCode   *int            `json:"exitCode"`
	Timestamp  int64           `json:"timestamp"`
}

type rawUsage struct {
	Input       int64 `json:"input"`
	Output      int64 `json:"output"`
	CacheRead   int64 `json:"cacheRead"`
	CacheWrite  int64 `json:"cacheWrite"`
	TotalTokens int64 `json:"totalTokens"`
}

type rawBlock struct {
	Type      string         `json:"type"`
	Text      string         `json:"text"`
	Thinking  string         `json:"thinking"`
	ID        string         `json:"id"`
	Name      string         `json:"name"`
	Arguments map[string]any `json:"arguments"`
	Data      string         `json:"data"`
	MimeType  string         `json:"mimeType"`
}

// Decode converts a session given either as a {header, entries} object or as
// the on-disk JSONL whose first line is the header.
func (r *Reader) Decode(data []byte, opts reader.Options) (*reader.Result, error) {
	s, err := parseSession(data)
	if err != nil {
		return nil, fmt.Errorf("parse pi session: %w", err)
	}

	b := reader.NewBuilder(core.SourcePi, opts)
	b.SetTimestamp(reader.ParseTime(s.Header.Timestamp))
	b.SetCwd(s.Header.Cwd)
	b.SetSourceVersion(version(s.Header.Version))

	branch := tree.Resolve(s.Entries, func(e rawEntry) tree.Node {
		n := tree.Node{ID: e.ID, Timestamp: reader.ParseTime(e.Timestamp)}
		if e.ParentID != nil {
			n.ParentID = *e.ParentID
		}
		return n
	})
	b.SetID(tree.SessionID(s.Header.ID, branch.Anchor))

	for _, e := range branch.Entries {
		decodeEntry(b, e)
	}
	return b.Finish()
}

func parseSession(data []byte) (rawSession, error) {
	var s rawSession
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return s, nil
	}

	// A whole-document object carries the entries inline.
	if json.Valid(trimmed) && trimmed[0] == '{' {
		var doc rawDocument
		if err := json.Unmarshal(trimmed, &doc); err != nil {
			return s, err
		}
		if len(doc.Header) > 0 {
			if err := json.Unmarshal(doc.Header, &s.Header); err != nil {
				log.Debug("ignoring malformed pi header", "err", err)
			}
		}
		for _, raw := range doc.Entries {
			if e, ok := decodeRawEntry(raw); ok {
				s.Entries = append(s.Entries, e)
			}
		}
		if len(doc.Header) > 0 || len(doc.Entries) > 0 {
			return s, nil
		}
	}

	s = rawSession{}
	first := true
	err := reader.Lines(trimmed, func(line []byte) {
		if first {
			first = false
			if err := json.Unmarshal(line, &s.Header); err == nil && s.Header.Type == "session" {
				return
			}
			s.Header = rawHeader{}
		}
		if e, ok := decodeRawEntry(line); ok {
			s.Entries = append(s.Entries, e)
		}
	})
	return s, err
}

func decodeRawEntry(data []byte) (rawEntry, bool) {
	var e rawEntry
	if err := json.Unmarshal(data, &e); err != nil {
		log.Debug("skipping malformed pi entry", "err", err)
		return rawEntry{}, false
	}
	return e, true
}

func version(raw json.RawMessage) string {
	return strings.Trim(string(raw), `"`)
}

func decodeEntry(b *reader.Builder, e rawEntry) {
	ts := reader.ParseTime(e.Timestamp)
	switch e.Type {
	case "message":
		if e.Message == nil {
			return
		}
		if ts.IsZero() {
			ts = reader.Millis(e.Message.Timestamp)
		}
		decodeMessage(b, e.Message, ts)

	case "model_change":
		b.SetModel(reader.WithProvider(e.Provider, e.ModelID))

	case "compaction", "branch_summary":
		if strings.TrimSpace(e.Summary) != "" {
			b.Add(core.Message{Type: core.MessageCompaction, Timestamp: ts, Text: e.Summary})
		}
	}
}

func decodeMessage(b *reader.Builder, m *rawMessage, ts time.Time) {
	switch m.Role {
	case "user":
		decodeUser(b, m, ts)
	case "assistant":
		decodeAssistant(b, m, ts)
	case "toolResult":
		decodeToolResult(b, m, ts)
	case "bashExecution":
		if strings.TrimSpace(m.Command) == "" {
			return
		}
		out := map[string]any{"stdout": m.Output}
		if m.ExitCode != nil {
			out["exitCode"] = *m.ExitCode
		}
		b.Add(core.Message{
			Type:      core.MessageCommand,
			Timestamp: ts,
			Command:   m.Command,
			Output:    out,
			ExitCode:  m.ExitCode,
		})
	}
}

// blocks decodes message content, which is either a plain string or an array
// of typed blocks.
func blocks(raw json.RawMessage) []rawBlock {
	if len(raw) == 0 {
		return nil
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return []rawBlock{{Type: "text", Text: s}}
	}
	var out []rawBlock
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil
	}
	return out
}

func decodeUser(b *reader.Builder, m *rawMessage, ts time.Time) {
	var texts []string
	var images []core.BlobRef
	for _, blk := range blocks(m.Content) {
		switch blk.Type {
		case "text":
			if strings.TrimSpace(blk.Text) != "" {
				texts = append(texts, blk.Text)
			}
		case "image":
			if ref, ok := b.Blobs().FromBase64(blk.Data, blk.MimeType); ok {
				images = append(images, ref)
			}
		}
	}
	text := strings.Join(texts, "\n")
	if len(images) > 0 {
		text = blob.StripPlaceholders(text)
	}
	if text == "" && len(images) == 0 {
		return
	}
	b.Add(core.Message{Type: core.MessageUser, Timestamp: ts, Text: text, Images: images})
}

func decodeAssistant(b *reader.Builder, m *rawMessage, ts time.Time) {
	model := reader.WithProvider(m.Provider, m.Model)
	for _, blk := range blocks(m.Content) {
		switch blk.Type {
		case "text":
			if strings.TrimSpace(blk.Text) != "" {
				b.Add(core.Message{Type: core.MessageAgent, Timestamp: ts, Text: blk.Text, Model: model})
			}
		case "thinking":
			if strings.TrimSpace(blk.Thinking) != "" {
				b.Add(core.Message{Type: core.MessageThinking, Timestamp: ts, Text: blk.Thinking})
			}
		case "toolCall":
			name, input := mapTool(blk.Name, blk.Arguments)
			b.Add(core.Message{
				Type:      core.MessageToolCall,
				Timestamp: ts,
				CallID:    blk.ID,
				ToolName:  name,
				Input:     input,
			})
		}
	}
	if m.Usage != nil {
		b.AddUsage(model, core.Usage{
			InputTokens:       m.Usage.Input + m.Usage.CacheRead,
			CachedInputTokens: m.Usage.CacheRead,
			CacheWriteTokens:  m.Usage.CacheWrite,
			OutputTokens:      m.Usage.Output,
			TotalTokens:       m.Usage.TotalTokens,
		})
	}
}

// decodeToolResult completes the open call. Images returned by a tool are
// emitted as image messages.
func decodeToolResult(b *reader.Builder, m *rawMessage, ts time.Time) {
	var texts []string
	for _, blk := range blocks(m.Content) {
		switch blk.Type {
		case "text":
			texts = append(texts, blk.Text)
		case "image":
			if ref, ok := b.Blobs().FromBase64(blk.Data, blk.MimeType); ok {
				b.Add(core.Message{Type: core.MessageImage, Timestamp: ts, Image: &ref})
			}
		}
	}
	output := strings.Join(texts, "\n")
	if !b.AttachOutput(m.ToolCallID, output, m.IsError, "") {
		log.Debug("tool result without call", "toolCallId", m.ToolCallID)
	}
}
