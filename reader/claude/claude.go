// Package claude decodes Claude Code session logs (JSONL in ~/.claude/projects/).
package claude

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/charmbracelet/log"

	"github.com/sonnes/unitrans/blob"
	"github.com/sonnes/unitrans/core"
	"github.com/sonnes/unitrans/reader"
	"github.com/sonnes/unitrans/tree"
)

// Reader decodes Claude Code JSONL session files.
type Reader struct {
	// Dir overrides the default session directory (~/.claude/projects/) used
	// by Locate.
	Dir string
}

// Raw JSON deserialization types. These mirror the JSONL structure on disk.

type rawEntry struct {
	Type             string     `json:"type"`
	UUID             string     `json:"uuid"`
	ParentUUID       *string    `json:"parentUuid"`
	SessionID        string     `json:"sessionId"`
	Timestamp        string     `json:"timestamp"`
	CWD              string     `json:"cwd"`
	GitBranch        string     `json:"gitBranch"`
	Version          string     `json:"version"`
	IsSidechain      bool       `json:"isSidechain"`
	IsCompactSummary bool       `json:"isCompactSummary"`
	Summary          string     `json:"summary"`
	Message          rawMessage `json:"message"`
}

type rawMessage struct {
	ID      string          `json:"id"`
	Role    string          `json:"role"`
	Model   string          `json:"model"`
	Content json.RawMessage `json:"content"`
	Usage   *rawUsage       `json:"usage"`
}

type rawUsage struct {
	InputTokens              int64 `json:"input_tokens"`
	OutputTokens             int64 `json:"output_tokens"`
	CacheCreationInputTokens int64 `json:"cache_creation_input_tokens"`
	CacheReadInputTokens     int64 `json:"cache_read_input_tokens"`
}

type rawContentBlock struct {
	Type      string     `json:"type"`
	Text      string     `json:"text"`
	Thinking  string     `json:"thinking"`
	ID        string     `json:"id"`
	Name      string     `json:"name"`
	Input     any        `json:"input"`
	ToolUseID string     `json:"tool_use_id"`
	Content   any        `json:"content"`
	IsError   bool       `json:"is_error"`
	Source    *rawSource `json:"source"`
}

type rawSource struct {
	Type      string `json:"type"`
	MediaType string `json:"media_type"`
	Data      string `json:"data"`
}

// Decode converts one session file.
func (r *Reader) Decode(data []byte, opts reader.Options) (*reader.Result, error) {
	entries, summary, err := scanEntries(data)
	if err != nil {
		return nil, fmt.Errorf("scan session file: %w", err)
	}

	b := reader.NewBuilder(core.SourceClaude, opts)
	b.SetSummary(summary)

	branch := tree.Resolve(entries, func(e rawEntry) tree.Node {
		n := tree.Node{ID: e.UUID, Timestamp: reader.ParseTime(e.Timestamp)}
		if e.ParentUUID != nil {
			n.ParentID = *e.ParentUUID
		}
		return n
	})

	d := &decoder{
		b:          b,
		usage:      make(map[string]core.Usage),
		usageModel: make(map[string]string),
	}
	for _, e := range branch.Entries {
		d.entry(e)
	}
	if len(branch.Entries) > 0 {
		b.SetID(tree.SessionID(branch.Entries[0].SessionID, branch.Anchor))
	}
	for _, id := range d.usageOrder {
		b.AddUsage(d.usageModel[id], d.usage[id])
	}
	return b.Finish()
}

// Locate finds the file of a session by its id across all project
// directories.
func (r *Reader) Locate(sessionID string) (string, error) {
	dir := r.dir()
	projectDirs, err := os.ReadDir(dir)
	if err != nil {
		return "", fmt.Errorf("read projects directory: %w", err)
	}

	for _, d := range projectDirs {
		if !d.IsDir() {
			continue
		}
		path := filepath.Join(dir, d.Name(), sessionID+".jsonl")
		if _, err := os.Stat(path); err == nil {
			return path, nil
		}
	}
	return "", fmt.Errorf("session %s not found", sessionID)
}

func (r *Reader) dir() string {
	if r.Dir != "" {
		return r.Dir
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".claude", "projects")
}

// scanEntries reads JSONL lines, keeping every entry on the main chain that
// has a uuid. System entries stay so the parentUuid chain is unbroken. The
// last summary entry is returned separately.
func scanEntries(data []byte) ([]rawEntry, string, error) {
	var entries []rawEntry
	var summary string
	err := reader.Lines(data, func(line []byte) {
		var entry rawEntry
		if err := json.Unmarshal(line, &entry); err != nil {
			log.Debug("skipping malformed claude entry", "err", err)
			return
		}
		if entry.Type == "summary" {
			if entry.Summary != "" {
				summary = entry.Summary
			}
			return
		}
		if entry.IsSidechain || entry.UUID == "" {
			return
		}
		entries = append(entries, entry)
	})
	return entries, summary, err
}

type decoder struct {
	b *reader.Builder

	// Assistant messages arrive as several lines sharing message.id, each
	// repeating the usage so far. The last report per id is kept.
	usage      map[string]core.Usage
	usageModel map[string]string
	usageOrder []string
}

func (d *decoder) entry(e rawEntry) {
	if e.Type != "user" && e.Type != "assistant" {
		return
	}
	ts := reader.ParseTime(e.Timestamp)
	d.b.SetTimestamp(ts)
	d.b.SetCwd(e.CWD)
	d.b.SetSourceVersion(e.Version)
	if e.GitBranch != "" {
		d.b.SetGit(&core.GitContext{Branch: e.GitBranch})
	}

	switch e.Type {
	case "assistant":
		d.assistant(e, ts)
	case "user":
		d.user(e, ts)
	}
}

func (d *decoder) assistant(e rawEntry, ts time.Time) {
	model := e.Message.Model
	if model == "<synthetic>" {
		model = ""
	}
	for _, blk := range contentBlocks(e.Message.Content) {
		switch blk.Type {
		case "text":
			if strings.TrimSpace(blk.Text) != "" {
				d.b.Add(core.Message{Type: core.MessageAgent, Timestamp: ts, Text: blk.Text, Model: reader.NormalizeModel(model)})
			}
		case "thinking":
			if strings.TrimSpace(blk.Thinking) != "" {
				d.b.Add(core.Message{Type: core.MessageThinking, Timestamp: ts, Text: blk.Thinking})
			}
		case "tool_use":
			d.b.Add(core.Message{
				Type:      core.MessageToolCall,
				Timestamp: ts,
				CallID:    blk.ID,
				ToolName:  toolName(blk.Name),
				Input:     blk.Input,
			})
		}
	}

	if u := e.Message.Usage; u != nil && e.Message.ID != "" {
		if _, ok := d.usage[e.Message.ID]; !ok {
			d.usageOrder = append(d.usageOrder, e.Message.ID)
		}
		d.usage[e.Message.ID] = mapUsage(u)
		d.usageModel[e.Message.ID] = model
	}
}

func (d *decoder) user(e rawEntry, ts time.Time) {
	var texts []string
	var images []core.BlobRef
	for _, blk := range contentBlocks(e.Message.Content) {
		switch blk.Type {
		case "text":
			if strings.TrimSpace(blk.Text) != "" {
				texts = append(texts, blk.Text)
			}
		case "image":
			if ref, ok := d.image(blk.Source); ok {
				images = append(images, ref)
			}
		case "tool_result":
			d.toolResult(blk, ts)
		}
	}

	text := strings.Join(texts, "\n")
	if e.IsCompactSummary {
		if text != "" {
			d.b.Add(core.Message{Type: core.MessageCompaction, Timestamp: ts, Text: text})
		}
		return
	}
	if len(images) > 0 {
		text = blob.StripPlaceholders(text)
	}
	if text == "" && len(images) == 0 {
		return
	}
	d.b.Add(core.Message{Type: core.MessageUser, Timestamp: ts, Text: text, Images: images})
}

// toolResult completes the open call. Images in the result become image
// messages.
func (d *decoder) toolResult(blk rawContentBlock, ts time.Time) {
	text, images := extractToolResultContent(blk.Content)
	for _, src := range images {
		if ref, ok := d.image(src); ok {
			d.b.Add(core.Message{Type: core.MessageImage, Timestamp: ts, Image: &ref})
		}
	}
	errText := ""
	if blk.IsError {
		errText = text
	}
	if !d.b.AttachOutput(blk.ToolUseID, text, blk.IsError, errText) {
		log.Debug("tool result without call", "tool_use_id", blk.ToolUseID)
	}
}

func (d *decoder) image(src *rawSource) (core.BlobRef, bool) {
	if src == nil || src.Type != "base64" {
		return core.BlobRef{}, false
	}
	return d.b.Blobs().FromBase64(src.Data, src.MediaType)
}

// contentBlocks decodes message content, which is a plain string for typed
// user prompts and an array of blocks otherwise.
func contentBlocks(raw json.RawMessage) []rawContentBlock {
	if len(raw) == 0 {
		return nil
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return []rawContentBlock{{Type: "text", Text: s}}
	}
	var blocks []rawContentBlock
	for _, r := range rawArray(raw) {
		var b rawContentBlock
		if err := json.Unmarshal(r, &b); err != nil {
			continue
		}
		blocks = append(blocks, b)
	}
	return blocks
}

func rawArray(raw json.RawMessage) []json.RawMessage {
	var out []json.RawMessage
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil
	}
	return out
}

// extractToolResultContent handles tool_result content which can be a string
// or an array of {"type":"text","text":"..."} and image objects.
func extractToolResultContent(v any) (string, []*rawSource) {
	switch c := v.(type) {
	case string:
		return c, nil
	case []any:
		var parts []string
		var images []*rawSource
		for _, item := range c {
			m, ok := item.(map[string]any)
			if !ok {
				continue
			}
			if text, ok := m["text"].(string); ok {
				parts = append(parts, text)
			}
			if src, ok := m["source"].(map[string]any); ok && m["type"] == "image" {
				images = append(images, &rawSource{
					Type:      core.StringField(src, "type"),
					MediaType: core.StringField(src, "media_type"),
					Data:      core.StringField(src, "data"),
				})
			}
		}
		return strings.Join(parts, "\n"), images
	default:
		if v == nil {
			return "", nil
		}
		return fmt.Sprintf("%v", v), nil
	}
}

// toolName maps Claude Code's tool names onto the canonical set. MultiEdit
// is an Edit with several replacements.
func toolName(name string) string {
	if name == "MultiEdit" {
		return core.ToolEdit
	}
	return name
}

// mapUsage converts Anthropic usage, where input excludes cache reads and
// writes, to the unified counters.
func mapUsage(raw *rawUsage) core.Usage {
	input := raw.InputTokens + raw.CacheReadInputTokens
	return core.Usage{
		InputTokens:       input,
		CachedInputTokens: raw.CacheReadInputTokens,
		CacheWriteTokens:  raw.CacheCreationInputTokens,
		OutputTokens:      raw.OutputTokens,
		TotalTokens:       input + raw.CacheCreationInputTokens + raw.OutputTokens,
	}
}
