// Package redact masks sensitive content in finished transcripts. File
// content of tool calls that touch credential stores, key material or shell
// rc files is always masked; secret and PII string rules are opt-in.
package redact

import (
	"regexp"
	"sort"
	"strings"

	"github.com/charmbracelet/log"

	"github.com/sonnes/unitrans/core"
)

// Config controls which string rules the Redactor applies on top of the
// sensitive-file masking.
type Config struct {
	Secrets    bool
	PII        bool
	ExtraRules []Rule
	Allowlist  []string // regex patterns to skip
}

// Redactor masks sensitive content in a Transcript.
type Redactor struct {
	rules     []Rule
	allowlist []*regexp.Regexp
}

// New creates a Redactor from the given config.
func New(cfg Config) *Redactor {
	var rules []Rule
	if cfg.Secrets {
		rules = append(rules, SecretRules()...)
	}
	if cfg.PII {
		rules = append(rules, PIIRules()...)
	}
	rules = append(rules, cfg.ExtraRules...)

	allowlist := make([]*regexp.Regexp, 0, len(cfg.Allowlist))
	for _, pattern := range cfg.Allowlist {
		re, err := regexp.Compile(pattern)
		if err != nil {
			log.Warn("ignoring invalid allowlist pattern", "pattern", pattern, "err", err)
			continue
		}
		allowlist = append(allowlist, re)
	}

	return &Redactor{rules: rules, allowlist: allowlist}
}

// Redact returns a copy of t with the content of sensitive files masked.
// No string rules are applied.
func Redact(t *core.Transcript) *core.Transcript {
	out, _ := New(Config{}).Transform(t)
	return out
}

// Transform implements core.Transformer. The input transcript is not
// modified.
func (r *Redactor) Transform(t *core.Transcript) (*core.Transcript, error) {
	out := t.Clone()
	if out == nil {
		return nil, nil
	}
	for i := range out.Messages {
		m := &out.Messages[i]
		if m.Type == core.MessageToolCall {
			maskFileContent(m)
		}
		if len(r.rules) > 0 {
			r.redactMessage(m)
		}
	}
	if len(r.rules) > 0 {
		out.Preview = r.redactString(out.Preview)
		out.Summary = r.redactString(out.Summary)
	}
	return out, nil
}

// maskFileContent masks the payload of Read, Write and Edit calls on
// sensitive paths. Paths and every other field are left as they are.
func maskFileContent(m *core.Message) {
	in, _ := m.Input.(map[string]any)
	switch m.ToolName {
	case core.ToolRead:
		if in != nil && IsSensitive(core.StringField(in, "file_path")) {
			m.Output = maskContent(m.Output)
		}
	case core.ToolWrite:
		if in != nil && IsSensitive(core.StringField(in, "file_path")) {
			maskKeys(in, "content")
		}
	case core.ToolEdit:
		if in == nil {
			return
		}
		if patch := core.StringField(in, "patch"); patch != "" {
			in["patch"] = maskPatch(patch)
			return
		}
		if !IsSensitive(core.StringField(in, "file_path")) {
			return
		}
		maskKeys(in, "old_string", "new_string", "content")
		if edits, ok := in["edits"].([]any); ok {
			for _, e := range edits {
				if em, ok := e.(map[string]any); ok {
					maskKeys(em, "old_string", "new_string")
				}
			}
		}
	}
}

func maskKeys(m map[string]any, keys ...string) {
	for _, k := range keys {
		if s, ok := m[k].(string); ok {
			m[k] = Mask(s)
		}
	}
}

// maskContent masks a Read output: the whole string, or every "content"
// value of a structured result.
func maskContent(v any) any {
	switch val := v.(type) {
	case string:
		return Mask(val)
	case map[string]any:
		for k, child := range val {
			if s, ok := child.(string); ok && k == "content" {
				val[k] = Mask(s)
				continue
			}
			val[k] = maskContent(child)
		}
		return val
	case []any:
		for i, child := range val {
			val[i] = maskContent(child)
		}
		return val
	default:
		return v
	}
}

// maskPatch masks the body lines of every apply_patch section whose file
// header names a sensitive path. Headers and hunk markers stay readable.
func maskPatch(patch string) string {
	headers := []string{"*** Add File: ", "*** Update File: ", "*** Delete File: ", "*** Move to: "}
	lines := strings.Split(patch, "\n")
	sensitive := false
	for i, line := range lines {
		if strings.HasPrefix(line, "*** ") {
			for _, h := range headers {
				if name, ok := strings.CutPrefix(line, h); ok {
					sensitive = IsSensitive(strings.TrimSpace(name))
				}
			}
			continue
		}
		if !sensitive || strings.HasPrefix(line, "@@") || line == "" {
			continue
		}
		switch line[0] {
		case '+', '-', ' ':
			lines[i] = line[:1] + Mask(line[1:])
		default:
			lines[i] = Mask(line)
		}
	}
	return strings.Join(lines, "\n")
}

func (r *Redactor) redactMessage(m *core.Message) {
	m.Text = r.redactString(m.Text)
	m.Command = r.redactString(m.Command)
	m.Error = r.redactString(m.Error)
	m.Input = core.WalkStrings(m.Input, r.redactString)
	m.Output = core.WalkStrings(m.Output, r.redactString)
}

// redactString applies all rules to s. Overlapping matches resolve to
// earliest start, then longest. Allowlisted values are skipped.
func (r *Redactor) redactString(s string) string {
	if len(s) == 0 {
		return s
	}

	type replacement struct {
		start int
		end   int
		text  string
	}

	var reps []replacement
	for _, rule := range r.rules {
		for _, m := range rule.Detect(s) {
			if r.isAllowed(m.Value) {
				continue
			}
			reps = append(reps, replacement{
				start: m.Start,
				end:   m.End,
				text:  rule.Replacement(m),
			})
		}
	}

	if len(reps) == 0 {
		return s
	}

	sort.Slice(reps, func(i, j int) bool {
		if reps[i].start != reps[j].start {
			return reps[i].start < reps[j].start
		}
		return reps[i].end > reps[j].end
	})

	var result []byte
	pos := 0
	for _, rep := range reps {
		if rep.start < pos {
			continue
		}
		result = append(result, s[pos:rep.start]...)
		result = append(result, rep.text...)
		pos = rep.end
	}
	result = append(result, s[pos:]...)
	return string(result)
}

func (r *Redactor) isAllowed(value string) bool {
	for _, re := range r.allowlist {
		if re.MatchString(value) {
			return true
		}
	}
	return false
}
