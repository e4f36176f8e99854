// Package opencode decodes OpenCode session exports (the JSON written by
// `opencode export`).
package opencode

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/log"

	"github.com/sonnes/unitrans/blob"
	"github.com/sonnes/unitrans/core"
	"github.com/sonnes/unitrans/reader"
)

// Reader decodes OpenCode exports. The zero value is ready to use.
type Reader struct{}

// Raw JSON deserialization types. These mirror the export structure.

// rawExport keeps info and messages raw so one bad record is skipped alone.
type rawExport struct {
	Info     json.RawMessage   `json:"info"`
	Messages []json.RawMessage `json:"messages"`
}

type rawSession struct {
	ID        string  `json:"id"`
	Title     string  `json:"title"`
	Directory string  `json:"directory"`
	Version   string  `json:"version"`
	Time      rawTime `json:"time"`
}

type rawTime struct {
	Created int64 `json:"created"`
	Start   int64 `json:"start"`
	End     int64 `json:"end"`
}

type rawMessage struct {
	Info  rawMessageInfo    `json:"info"`
	Parts []json.RawMessage `json:"parts"`
}

type rawMessageInfo struct {
	ID         string     `json:"id"`
	Role       string     `json:"role"`
	Time       rawTime    `json:"time"`
	ModelID    string     `json:"modelID"`
	ProviderID string     `json:"providerID"`
	Path       rawPath    `json:"path"`
	Tokens     *rawTokens `json:"tokens"`
	Summary    bool       `json:"summary"`
}

type rawPath struct {
	Cwd  string `json:"cwd"`
	Root string `json:"root"`
}

type rawTokens struct {
	Input     int64 `json:"input"`
	Output    int64 `json:"output"`
	Reasoning int64 `json:"reasoning"`
	Cache     struct {
		Read  int64 `json:"read"`
		Write int64 `json:"write"`
	} `json:"cache"`
}

type rawPart struct {
	ID        string    `json:"id"`
	Type      string    `json:"type"`
	Text      string    `json:"text"`
	Synthetic bool      `json:"synthetic"`
	Time      *rawTime  `json:"time"`
	CallID    string    `json:"callID"`
	Tool      string    `json:"tool"`
	State     *rawState `json:"state"`
	Mime      string    `json:"mime"`
	URL       string    `json:"url"`
}

type rawState struct {
	Status   string         `json:"status"`
	Input    map[string]any `json:"input"`
	Output   string         `json:"output"`
	Error    string         `json:"error"`
	Metadata map[string]any `json:"metadata"`
	Time     *rawTime       `json:"time"`
}

// Decode converts an export object.
func (r *Reader) Decode(data []byte, opts reader.Options) (*reader.Result, error) {
	var export rawExport
	if err := json.Unmarshal(data, &export); err != nil {
		return nil, fmt.Errorf("parse opencode export: %w", err)
	}

	var info rawSession
	if len(export.Info) > 0 {
		if err := json.Unmarshal(export.Info, &info); err != nil {
			log.Debug("ignoring malformed opencode session info", "err", err)
		}
	}

	b := reader.NewBuilder(core.SourceOpenCode, opts)
	b.SetID(info.ID)
	b.SetTimestamp(reader.Millis(info.Time.Created))
	b.SetCwd(info.Directory)
	b.SetSourceVersion(info.Version)
	b.SetSummary(info.Title)

	for _, raw := range export.Messages {
		var m rawMessage
		if err := json.Unmarshal(raw, &m); err != nil {
			log.Debug("skipping malformed opencode message", "err", err)
			continue
		}
		decodeMessage(b, m)
	}
	return b.Finish()
}

func decodeMessage(b *reader.Builder, m rawMessage) {
	info := m.Info
	ts := reader.Millis(info.Time.Created)
	b.SetCwd(info.Path.Cwd)

	parts := make([]rawPart, 0, len(m.Parts))
	for _, raw := range m.Parts {
		var p rawPart
		if err := json.Unmarshal(raw, &p); err != nil {
			log.Debug("skipping malformed opencode part", "message", info.ID, "err", err)
			continue
		}
		parts = append(parts, p)
	}

	switch info.Role {
	case "user":
		decodeUser(b, parts, ts)
	case "assistant":
		model := reader.WithProvider(info.ProviderID, info.ModelID)
		if info.Summary {
			if text := joinText(parts); text != "" {
				b.Add(core.Message{Type: core.MessageCompaction, Timestamp: ts, Text: text})
			}
		} else {
			decodeAssistant(b, parts, ts, model)
		}
		if info.Tokens != nil {
			b.AddUsage(model, usage(info.Tokens))
		}
	}
}

func decodeUser(b *reader.Builder, parts []rawPart, ts time.Time) {
	var images []core.BlobRef
	for _, p := range parts {
		if p.Type != "file" || !blob.IsDataURL(p.URL) {
			continue
		}
		mediaType, payload, _ := blob.ParseDataURL(p.URL)
		if mediaType == "" {
			mediaType = p.Mime
		}
		if ref, ok := b.Blobs().FromBase64(payload, mediaType); ok {
			images = append(images, ref)
		}
	}

	text := joinText(parts)
	if len(images) > 0 {
		text = blob.StripPlaceholders(text)
	}
	if text == "" && len(images) == 0 {
		return
	}
	b.Add(core.Message{Type: core.MessageUser, Timestamp: ts, Text: text, Images: images})
}

func decodeAssistant(b *reader.Builder, parts []rawPart, ts time.Time, model string) {
	for _, p := range parts {
		at := partTime(p.Time, ts)
		switch p.Type {
		case "text":
			if p.Synthetic || strings.TrimSpace(p.Text) == "" {
				continue
			}
			b.Add(core.Message{Type: core.MessageAgent, Timestamp: at, Text: p.Text, Model: model})

		case "reasoning":
			if strings.TrimSpace(p.Text) != "" {
				b.Add(core.Message{Type: core.MessageThinking, Timestamp: at, Text: p.Text})
			}

		case "tool":
			if p.State == nil {
				continue
			}
			decodeTool(b, p, partTime(p.State.Time, ts))
		}
	}
}

func decodeTool(b *reader.Builder, p rawPart, ts time.Time) {
	name, input := mapTool(p.Tool, p.State.Input)
	msg := core.Message{
		Type:      core.MessageToolCall,
		Timestamp: ts,
		CallID:    p.CallID,
		ToolName:  name,
		Input:     input,
	}
	if msg.CallID == "" {
		msg.CallID = p.ID
	}

	switch p.State.Status {
	case "completed":
		msg.Output = toolOutput(name, p.State)
	case "error":
		msg.IsError = true
		msg.Error = p.State.Error
	}
	b.Add(msg)
}

// toolOutput carries the exit status alongside Bash output so the shell
// reinterpreter can tell failed commands apart.
func toolOutput(name string, s *rawState) any {
	if name != core.ToolBash {
		return s.Output
	}
	out := map[string]any{"stdout": s.Output}
	if exit, ok := s.Metadata["exit"].(float64); ok {
		out["exitCode"] = int(exit)
	}
	return out
}

func joinText(parts []rawPart) string {
	var texts []string
	for _, p := range parts {
		if p.Type == "text" && !p.Synthetic && strings.TrimSpace(p.Text) != "" {
			texts = append(texts, p.Text)
		}
	}
	return strings.Join(texts, "\n")
}

func partTime(t *rawTime, fallback time.Time) time.Time {
	if t == nil {
		return fallback
	}
	if ts := reader.Millis(t.Start); !ts.IsZero() {
		return ts
	}
	return fallback
}

// usage converts OpenCode's per-message token counts. OpenCode reports input
// without cache reads; the unified model counts cached input inside input.
func usage(t *rawTokens) core.Usage {
	return core.Usage{
		InputTokens:           t.Input + t.Cache.Read,
		CachedInputTokens:     t.Cache.Read,
		CacheWriteTokens:      t.Cache.Write,
		OutputTokens:          t.Output,
		ReasoningOutputTokens: t.Reasoning,
		TotalTokens:           t.Input + t.Cache.Read + t.Cache.Write + t.Output + t.Reasoning,
	}
}
