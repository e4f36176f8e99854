package reader

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/sonnes/unitrans/blob"
	"github.com/sonnes/unitrans/core"
	"github.com/sonnes/unitrans/pricing"
	"github.com/sonnes/unitrans/relpath"
	"github.com/sonnes/unitrans/shell"
)

// idNamespace seeds fallback transcript ids for sources without a session id.
var idNamespace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("https://github.com/sonnes/unitrans"))

// Builder is the state of a single conversion. Decoders feed it messages,
// tool outputs and usage as they walk the raw events; Finish assembles the
// transcript. A Builder is not safe for concurrent use and must not be
// reused across conversions.
type Builder struct {
	source core.Source
	opts   Options

	id            string
	timestamp     time.Time
	cwd           string
	git           *core.GitContext
	summary       string
	sourceVersion string
	model         string // primary, first agent model seen
	currentModel  string

	messages []core.Message
	seen     map[string]bool
	calls    map[string]int // call id -> index into messages

	usage      core.Usage
	hasUsage   bool
	lastTotal  *core.Usage
	modelUsage []core.ModelUsage
	modelIndex map[string]int

	blobs *blob.Extractor
}

// NewBuilder returns an empty Builder for one conversion.
func NewBuilder(source core.Source, opts Options) *Builder {
	return &Builder{
		source:     source,
		opts:       opts,
		seen:       make(map[string]bool),
		calls:      make(map[string]int),
		modelIndex: make(map[string]int),
		blobs:      blob.NewExtractor(),
	}
}

// Blobs returns the extractor collecting this conversion's attachments.
func (b *Builder) Blobs() *blob.Extractor { return b.blobs }

// SetID sets the session id. Empty ids are ignored.
func (b *Builder) SetID(id string) {
	if id != "" {
		b.id = id
	}
}

// SetTimestamp records the session start. Only the first non-zero value is
// kept.
func (b *Builder) SetTimestamp(ts time.Time) {
	if b.timestamp.IsZero() && !ts.IsZero() {
		b.timestamp = ts
	}
}

// SetCwd records the working directory. Only the first non-empty value is
// kept.
func (b *Builder) SetCwd(cwd string) {
	if b.cwd == "" {
		b.cwd = cwd
	}
}

// Cwd returns the recorded working directory.
func (b *Builder) Cwd() string { return b.cwd }

// SetGit merges source-provided repository context. Earlier values win.
func (b *Builder) SetGit(g *core.GitContext) {
	b.git = b.git.Merge(g)
}

// SetSummary sets the session summary. Later values replace earlier ones.
func (b *Builder) SetSummary(s string) {
	if s = strings.TrimSpace(s); s != "" {
		b.summary = s
	}
}

// SetSourceVersion records the version of the agent that wrote the log.
func (b *Builder) SetSourceVersion(v string) {
	if b.sourceVersion == "" {
		b.sourceVersion = v
	}
}

// SetModel switches the model subsequent agent messages and usage are
// attributed to.
func (b *Builder) SetModel(model string) {
	if model != "" {
		b.currentModel = NormalizeModel(model)
	}
}

// Add appends m unless a message with the same signature was already added.
// Tool calls are indexed by CallID so outputs can be attached later. It
// reports whether m was kept.
func (b *Builder) Add(m core.Message) bool {
	if m.Type == core.MessageAgent && m.Model == "" {
		m.Model = b.currentModel
	}
	if sig, ok := signature(m); ok {
		if b.seen[sig] {
			return false
		}
		b.seen[sig] = true
	}

	if m.Type == core.MessageAgent && m.Model != "" && b.model == "" {
		b.model = NormalizeModel(m.Model)
	}
	if m.Type == core.MessageToolCall && m.CallID != "" {
		if _, dup := b.calls[m.CallID]; dup {
			return false
		}
		b.calls[m.CallID] = len(b.messages)
	}
	b.messages = append(b.messages, m)
	return true
}

// signature identifies a logical event across channels that mirror it. Tool
// calls are keyed by (type, timestamp, id, tool name); everything else by
// (type, timestamp, text). Messages without a timestamp are never collapsed.
func signature(m core.Message) (string, bool) {
	if m.Timestamp.IsZero() {
		return "", false
	}
	ts := m.Timestamp.UTC().Format(time.RFC3339Nano)
	switch m.Type {
	case core.MessageToolCall:
		return strings.Join([]string{string(m.Type), ts, m.CallID, m.ToolName}, "\x00"), true
	case core.MessageCommand:
		return strings.Join([]string{string(m.Type), ts, m.Command}, "\x00"), true
	case core.MessageImage:
		if m.Image == nil {
			return "", false
		}
		return strings.Join([]string{string(m.Type), ts, m.Image.SHA256}, "\x00"), true
	default:
		text := m.Text
		for _, img := range m.Images {
			text += "\x00" + img.SHA256
		}
		return strings.Join([]string{string(m.Type), ts, text}, "\x00"), true
	}
}

// AttachOutput completes the open tool call callID. The first recorded output
// is kept; an error flag is sticky. It reports whether the call was found.
func (b *Builder) AttachOutput(callID string, output any, isError bool, errText string) bool {
	i, ok := b.calls[callID]
	if !ok {
		return false
	}
	m := &b.messages[i]
	if m.Output == nil {
		m.Output = output
	}
	if isError {
		m.IsError = true
	}
	if errText != "" && m.Error == "" {
		m.Error = errText
	}
	return true
}

// HasCall reports whether a tool call with callID was added.
func (b *Builder) HasCall(callID string) bool {
	_, ok := b.calls[callID]
	return ok
}

// ToolName returns the tool name of the call callID, or "" when unknown.
func (b *Builder) ToolName(callID string) string {
	i, ok := b.calls[callID]
	if !ok {
		return ""
	}
	return b.messages[i].ToolName
}

// AddUsage accumulates a per-event usage delta and attributes it to model,
// or to the current model when model is empty.
func (b *Builder) AddUsage(model string, u core.Usage) {
	if u.IsZero() {
		return
	}
	b.usage.Add(u)
	b.hasUsage = true

	model = NormalizeModel(model)
	if model == "" {
		model = b.currentModel
	}
	i, ok := b.modelIndex[model]
	if !ok {
		i = len(b.modelUsage)
		b.modelIndex[model] = i
		b.modelUsage = append(b.modelUsage, core.ModelUsage{Model: model})
	}
	b.modelUsage[i].Usage.Add(u)
}

// AddTokenCount accumulates a token report that may carry the usage of the
// last request, a cumulative session total, or both. The last-request figure
// is preferred; otherwise the delta against the previous total is used.
// Counters that decrease between totals contribute zero. A total identical
// to the previous one is a repeated report and is ignored.
func (b *Builder) AddTokenCount(model string, last, total *core.Usage) {
	if total != nil && b.lastTotal != nil && *total == *b.lastTotal {
		return
	}
	switch {
	case last != nil:
		b.AddUsage(model, *last)
	case total != nil:
		var prev core.Usage
		if b.lastTotal != nil {
			prev = *b.lastTotal
		}
		b.AddUsage(model, total.Delta(prev))
	}
	if total != nil {
		snapshot := *total
		b.lastTotal = &snapshot
	}
}

// Finish assembles, normalizes and validates the transcript. It returns
// (nil, nil) when no messages were added.
func (b *Builder) Finish() (*Result, error) {
	if len(b.messages) == 0 {
		return nil, nil
	}

	b.reinterpretShell()

	t := &core.Transcript{
		ID:            b.id,
		Source:        b.source,
		Timestamp:     b.timestamp,
		Summary:       b.summary,
		Model:         b.model,
		ClientVersion: b.opts.ClientVersion,
		SourceVersion: b.sourceVersion,
		Git:           b.opts.Git.Merge(b.git),
		Cwd:           b.cwd,
		Messages:      b.messages,
	}
	if !b.opts.Timestamp.IsZero() {
		t.Timestamp = b.opts.Timestamp
	}
	if t.Model == "" {
		t.Model = b.currentModel
	}
	if t.ID == "" {
		t.ID = b.fallbackID()
	}

	b.applyUsage(t)

	core.Normalize(t)
	t.Preview = core.SelectPreview(t.Messages)
	relpath.Transcript(t)

	if err := core.Validate(t); err != nil {
		return nil, fmt.Errorf("validate %s transcript %s: %w", b.source, t.ID, err)
	}
	return &Result{Transcript: t, Blobs: b.blobs.Blobs()}, nil
}

// reinterpretShell maps generic Bash calls onto structured tools now that
// their outputs are attached.
func (b *Builder) reinterpretShell() {
	for i := range b.messages {
		m := &b.messages[i]
		if m.Type != core.MessageToolCall || m.ToolName != core.ToolBash {
			continue
		}
		cwd := shell.Workdir(m.Input)
		if cwd == "" {
			cwd = b.cwd
		}
		r := shell.Reinterpret(shell.Call{
			Input:   m.Input,
			Output:  m.Output,
			IsError: m.IsError,
			Cwd:     cwd,
		})
		m.ToolName, m.Input, m.Output = r.ToolName, r.Input, r.Output
	}
}

// applyUsage sets aggregate usage and per-model usage. The transcript cost
// prices the whole session at the primary model's rates; per-model costs are
// informational. Usage never attributed to a model is charged to the primary
// model.
func (b *Builder) applyUsage(t *core.Transcript) {
	if !b.hasUsage {
		return
	}
	total := b.usage
	t.Usage = &total

	var models []core.ModelUsage
	index := make(map[string]int)
	for _, mu := range b.modelUsage {
		name := mu.Model
		if name == "" {
			name = t.Model
		}
		if name == "" {
			continue
		}
		i, ok := index[name]
		if !ok {
			i = len(models)
			index[name] = i
			models = append(models, core.ModelUsage{Model: name})
		}
		models[i].Usage.Add(mu.Usage)
	}

	for i := range models {
		models[i].CostUSD = pricing.Estimate(b.opts.Pricing, models[i].Model, models[i].Usage)
	}
	t.ModelUsage = models
	t.CostUSD = pricing.Estimate(b.opts.Pricing, t.Model, total)
}

// fallbackID derives a stable id from the first message when the source
// records none.
func (b *Builder) fallbackID() string {
	first := b.messages[0]
	key := string(b.source) + "\x00" + first.Timestamp.UTC().Format(time.RFC3339Nano) + "\x00" + first.Text
	return uuid.NewSHA1(idNamespace, []byte(key)).String()
}
