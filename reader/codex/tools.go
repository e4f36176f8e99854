package codex

import (
	"regexp"
	"strings"
	"time"

	"github.com/sonnes/unitrans/core"
	"github.com/sonnes/unitrans/shell"
)

// mapTool maps a Codex tool name and decoded arguments onto the canonical
// tool set. Unknown tools keep their name and input.
func mapTool(name string, input any) (string, any) {
	switch {
	case shellTools[name]:
		return core.ToolBash, input
	case name == "apply_patch":
		return core.ToolEdit, map[string]any{"patch": patchText(input)}
	case name == "update_plan":
		return core.ToolTodoWrite, planTodos(input)
	case name == "view_image":
		if m, ok := input.(map[string]any); ok {
			return core.ToolRead, map[string]any{"file_path": core.StringField(m, "path")}
		}
	}
	return name, input
}

// patchText unwraps the patch envelope from either a raw custom tool input
// or function arguments {"input": "..."}.
func patchText(input any) string {
	switch v := input.(type) {
	case string:
		return v
	case map[string]any:
		if s := core.StringField(v, "input"); s != "" {
			return s
		}
		return core.StringField(v, "patch")
	}
	return ""
}

// planTodos rewrites update_plan arguments {plan:[{step, status}]} as a todo
// list.
func planTodos(input any) any {
	m, ok := input.(map[string]any)
	if !ok {
		return input
	}
	steps, ok := m["plan"].([]any)
	if !ok {
		return input
	}
	todos := make([]any, 0, len(steps))
	for _, s := range steps {
		step, ok := s.(map[string]any)
		if !ok {
			continue
		}
		todos = append(todos, map[string]any{
			"content": core.StringField(step, "step"),
			"status":  core.StringField(step, "status"),
		})
	}
	out := map[string]any{"todos": todos}
	if exp := core.StringField(m, "explanation"); exp != "" {
		out["explanation"] = exp
	}
	return out
}

var (
	userShellRe = regexp.MustCompile(`(?s)^\s*<user_shell_command>(.*)</user_shell_command>\s*$`)
	commandTag  = regexp.MustCompile(`(?s)<command>\s*(.*?)\s*</command>`)
	resultTag   = regexp.MustCompile(`(?s)<result>\n?(.*?)</result>`)
)

// parseUserShellCommand recognizes a command the user ran directly, which
// Codex records as a user message wrapped in <user_shell_command>.
func parseUserShellCommand(text string, ts time.Time) (core.Message, bool) {
	m := userShellRe.FindStringSubmatch(text)
	if m == nil {
		return core.Message{}, false
	}
	cmd := commandTag.FindStringSubmatch(m[1])
	if cmd == nil || strings.TrimSpace(cmd[1]) == "" {
		return core.Message{}, false
	}

	msg := core.Message{Type: core.MessageCommand, Timestamp: ts, Command: cmd[1]}
	if res := resultTag.FindStringSubmatch(m[1]); res != nil {
		out := shell.ParseOutput(res[1])
		msg.Output = out.Map()
		msg.ExitCode = out.ExitCode
	}
	return msg, true
}
