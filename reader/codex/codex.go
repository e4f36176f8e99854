// Package codex decodes Codex CLI rollouts (JSONL in ~/.codex/sessions/).
package codex

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
	"github.com/sonnes/unitrans/shell"
)

// Reader decodes Codex rollouts. The zero value is ready to use.
type Reader struct{}

// Raw JSON deserialization types. These mirror the rollout records on disk.

type rawRecord struct {
	Timestamp string          `json:"timestamp"`
	Type      string          `json:"type"`
	Payload   json.RawMessage `json:"payload"`
}

type rawSessionMeta struct {
	ID         string  `json:"id"`
	Timestamp  string  `json:"timestamp"`
	Cwd        string  `json:"cwd"`
	CLIVersion string  `json:"cli_version"`
	Git        *rawGit `json:"git"`
}

type rawGit struct {
	CommitHash    string `json:"commit_hash"`
	Branch        string `json:"branch"`
	RepositoryURL string `json:"repository_url"`
}

type rawTurnContext struct {
	Cwd   string `json:"cwd"`
	Model string `json:"model"`
}

type rawItem struct {
	Type      string           `json:"type"`
	Role      string           `json:"role"`
	ID        string           `json:"id"`
	Content   []rawContentPart `json:"content"`
	Summary   []rawContentPart `json:"summary"`
	Name      string           `json:"name"`
	Arguments string           `json:"arguments"`
	Input     string           `json:"input"`
	CallID    string           `json:"call_id"`
	Output    json.RawMessage  `json:"output"`
	Status    string           `json:"status"`
	Action    *rawAction       `json:"action"`
}

type rawContentPart struct {
	Type     string `json:"type"`
	Text     string `json:"text"`
	ImageURL string `json:"image_url"`
}

type rawAction struct {
	Type             string   `json:"type"`
	Command          []string `json:"command"`
	WorkingDirectory string   `json:"working_directory"`
	TimeoutMS        int64    `json:"timeout_ms"`
	Query            string   `json:"query"`
}

type rawEvent struct {
	Type     string        `json:"type"`
	Message  string        `json:"message"`
	Text     string        `json:"text"`
	Images   []string      `json:"images"`
	Info     *rawTokenInfo `json:"info"`
	CallID   string        `json:"call_id"`
	Stdout   string        `json:"stdout"`
	Stderr   string        `json:"stderr"`
	ExitCode *int          `json:"exit_code"`
	Duration *rawDuration  `json:"duration"`
}

type rawTokenInfo struct {
	TotalTokenUsage *rawTokenUsage `json:"total_token_usage"`
	LastTokenUsage  *rawTokenUsage `json:"last_token_usage"`
}

type rawTokenUsage struct {
	InputTokens           int64 `json:"input_tokens"`
	CachedInputTokens     int64 `json:"cached_input_tokens"`
	OutputTokens          int64 `json:"output_tokens"`
	ReasoningOutputTokens int64 `json:"reasoning_output_tokens"`
	TotalTokens           int64 `json:"total_tokens"`
}

type rawDuration struct {
	Secs  int64 `json:"secs"`
	Nanos int64 `json:"nanos"`
}

type rawCompacted struct {
	Message string `json:"message"`
}

// shellTools are the tool names Codex uses for running commands.
var shellTools = map[string]bool{
	"shell":          true,
	"shell_command":  true,
	"exec_command":   true,
	"container.exec": true,
}

// Decode converts a rollout, given as JSONL or as a JSON array of records.
func (r *Reader) Decode(data []byte, opts reader.Options) (*reader.Result, error) {
	records, err := scanRecords(data)
	if err != nil {
		return nil, fmt.Errorf("scan codex rollout: %w", err)
	}

	d := &decoder{b: reader.NewBuilder(core.SourceCodex, opts)}
	for _, rec := range records {
		d.record(rec)
	}
	return d.b.Finish()
}

func scanRecords(data []byte) ([]rawRecord, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) > 0 && trimmed[0] == '[' {
		var elems []json.RawMessage
		if err := json.Unmarshal(trimmed, &elems); err != nil {
			return nil, err
		}
		records := make([]rawRecord, 0, len(elems))
		for _, elem := range elems {
			if rec, ok := decodeRecord(elem); ok {
				records = append(records, rec)
			}
		}
		return records, nil
	}

	var records []rawRecord
	err := reader.Lines(data, func(line []byte) {
		if rec, ok := decodeRecord(line); ok {
			records = append(records, rec)
		}
	})
	return records, err
}

func decodeRecord(data []byte) (rawRecord, bool) {
	var rec rawRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		log.Debug("skipping malformed codex record", "err", err)
		return rawRecord{}, false
	}
	return rec, true
}

type decoder struct {
	b *reader.Builder
}

func (d *decoder) record(rec rawRecord) {
	ts := reader.ParseTime(rec.Timestamp)
	switch rec.Type {
	case "session_meta":
		var meta rawSessionMeta
		if json.Unmarshal(rec.Payload, &meta) != nil {
			return
		}
		d.b.SetID(meta.ID)
		d.b.SetTimestamp(reader.ParseTime(meta.Timestamp))
		d.b.SetTimestamp(ts)
		d.b.SetCwd(meta.Cwd)
		d.b.SetSourceVersion(meta.CLIVersion)
		if meta.Git != nil {
			d.b.SetGit(&core.GitContext{
				Repository: meta.Git.RepositoryURL,
				Branch:     meta.Git.Branch,
				Commit:     meta.Git.CommitHash,
			})
		}

	case "turn_context":
		var tc rawTurnContext
		if json.Unmarshal(rec.Payload, &tc) != nil {
			return
		}
		d.b.SetCwd(tc.Cwd)
		d.b.SetModel(tc.Model)

	case "response_item":
		var item rawItem
		if json.Unmarshal(rec.Payload, &item) != nil {
			return
		}
		d.item(item, ts)

	case "event_msg":
		var ev rawEvent
		if json.Unmarshal(rec.Payload, &ev) != nil {
			return
		}
		d.event(ev, ts)

	case "compacted":
		var c rawCompacted
		if json.Unmarshal(rec.Payload, &c) != nil || strings.TrimSpace(c.Message) == "" {
			return
		}
		d.b.Add(core.Message{Type: core.MessageCompaction, Timestamp: ts, Text: c.Message})
	}
}

func (d *decoder) item(item rawItem, ts time.Time) {
	switch item.Type {
	case "message":
		d.message(item, ts)

	case "reasoning":
		var parts []string
		for _, p := range item.Summary {
			if p.Text != "" {
				parts = append(parts, p.Text)
			}
		}
		if len(parts) == 0 {
			for _, p := range item.Content {
				if p.Text != "" {
					parts = append(parts, p.Text)
				}
			}
		}
		if len(parts) > 0 {
			d.b.Add(core.Message{Type: core.MessageThinking, Timestamp: ts, Text: strings.Join(parts, "\n\n")})
		}

	case "function_call":
		name, input := mapTool(item.Name, reader.JSONValue(item.Arguments))
		d.b.Add(core.Message{
			Type:      core.MessageToolCall,
			Timestamp: ts,
			CallID:    item.CallID,
			ToolName:  name,
			Input:     input,
		})

	case "custom_tool_call":
		var raw any = item.Input
		if item.Name != "apply_patch" {
			raw = reader.JSONValue(item.Input)
		}
		name, input := mapTool(item.Name, raw)
		d.b.Add(core.Message{
			Type:      core.MessageToolCall,
			Timestamp: ts,
			CallID:    item.CallID,
			ToolName:  name,
			Input:     input,
		})

	case "local_shell_call":
		if item.Action == nil {
			return
		}
		input := map[string]any{"command": stringsToAny(item.Action.Command)}
		if item.Action.WorkingDirectory != "" {
			input["workdir"] = item.Action.WorkingDirectory
		}
		if item.Action.TimeoutMS > 0 {
			input["timeout_ms"] = item.Action.TimeoutMS
		}
		d.b.Add(core.Message{
			Type:      core.MessageToolCall,
			Timestamp: ts,
			CallID:    callID(item),
			ToolName:  core.ToolBash,
			Input:     input,
		})

	case "web_search_call":
		input := map[string]any{}
		if item.Action != nil && item.Action.Query != "" {
			input["query"] = item.Action.Query
		}
		d.b.Add(core.Message{
			Type:      core.MessageToolCall,
			Timestamp: ts,
			CallID:    callID(item),
			ToolName:  core.ToolWebSearch,
			Input:     input,
			IsError:   item.Status == "failed",
		})

	case "function_call_output", "custom_tool_call_output":
		d.output(item.CallID, item.Output)
	}
}

func callID(item rawItem) string {
	if item.CallID != "" {
		return item.CallID
	}
	return item.ID
}

func (d *decoder) message(item rawItem, ts time.Time) {
	var texts []string
	var images []core.BlobRef
	for _, p := range item.Content {
		switch p.Type {
		case "input_text", "output_text", "text":
			if p.Text != "" {
				texts = append(texts, p.Text)
			}
		case "input_image":
			if ref, ok := d.b.Blobs().FromDataURL(p.ImageURL); ok {
				images = append(images, ref)
			}
		}
	}
	text := strings.Join(texts, "\n")

	switch item.Role {
	case "user":
		d.user(text, images, ts)
	case "assistant":
		if text != "" {
			d.b.Add(core.Message{Type: core.MessageAgent, Timestamp: ts, Text: text})
		}
	}
}

func (d *decoder) user(text string, images []core.BlobRef, ts time.Time) {
	if cmd, ok := parseUserShellCommand(text, ts); ok {
		d.b.Add(cmd)
		return
	}
	if len(images) > 0 {
		text = blob.StripPlaceholders(text)
	}
	if strings.TrimSpace(text) == "" && len(images) == 0 {
		return
	}
	d.b.Add(core.Message{Type: core.MessageUser, Timestamp: ts, Text: text, Images: images})
}

func (d *decoder) event(ev rawEvent, ts time.Time) {
	switch ev.Type {
	case "user_message":
		var images []core.BlobRef
		for _, u := range ev.Images {
			if ref, ok := d.b.Blobs().FromDataURL(u); ok {
				images = append(images, ref)
			}
		}
		d.user(ev.Message, images, ts)

	case "agent_message":
		if ev.Message != "" {
			d.b.Add(core.Message{Type: core.MessageAgent, Timestamp: ts, Text: ev.Message})
		}

	case "agent_reasoning":
		if ev.Text != "" {
			d.b.Add(core.Message{Type: core.MessageThinking, Timestamp: ts, Text: ev.Text})
		}

	case "token_count":
		if ev.Info == nil {
			return
		}
		d.b.AddTokenCount("", usage(ev.Info.LastTokenUsage), usage(ev.Info.TotalTokenUsage))

	case "exec_command_end":
		if ev.CallID == "" || !d.b.HasCall(ev.CallID) {
			return
		}
		out := map[string]any{"stdout": ev.Stdout, "stderr": ev.Stderr}
		failed := false
		if ev.ExitCode != nil {
			out["exitCode"] = *ev.ExitCode
			failed = *ev.ExitCode != 0
		}
		if ev.Duration != nil {
			out["durationSeconds"] = float64(ev.Duration.Secs) + float64(ev.Duration.Nanos)/1e9
		}
		d.b.AttachOutput(ev.CallID, out, failed, "")
	}
}

// output attaches a function or custom tool output. Shell outputs are kept
// raw for the shell reinterpreter; other tools get the plain output text.
func (d *decoder) output(id string, raw json.RawMessage) {
	if id == "" || len(raw) == 0 {
		return
	}
	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		return
	}
	// {"content": "...", "success": bool} wraps some outputs.
	failed := false
	if m, ok := v.(map[string]any); ok {
		if content, ok := m["content"].(string); ok {
			v = content
		}
		if success, ok := m["success"].(bool); ok && !success {
			failed = true
		}
	}

	if d.b.ToolName(id) == core.ToolBash {
		d.b.AttachOutput(id, v, failed || shell.ParseOutput(v).Failed(), "")
		return
	}
	out := shell.ParseOutput(v)
	d.b.AttachOutput(id, out.Stdout, failed || out.Failed(), "")
}

func usage(u *rawTokenUsage) *core.Usage {
	if u == nil {
		return nil
	}
	return &core.Usage{
		InputTokens:           u.InputTokens,
		CachedInputTokens:     u.CachedInputTokens,
		OutputTokens:          u.OutputTokens,
		ReasoningOutputTokens: u.ReasoningOutputTokens,
		TotalTokens:           u.TotalTokens,
	}
}

func stringsToAny(ss []string) []any {
	out := make([]any, len(ss))
	for i, s := range ss {
		out[i] = s
	}
	return out
}
