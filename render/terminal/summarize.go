package terminal

import (
	"fmt"
	"strings"

	"github.com/sonnes/unitrans/core"
)

// summarizeTool produces a compact one-liner like "[bash: git status]".
func summarizeTool(m core.Message) string {
	name := strings.ToLower(m.ToolName)
	if name == "" {
		name = "tool"
	}
	summary := extractToolSummary(name, m.Input)
	if summary == "" {
		return fmt.Sprintf("[%s]", name)
	}
	return fmt.Sprintf("[%s: %s]", name, summary)
}

// extractToolSummary picks the most relevant field from the tool input.
func extractToolSummary(name string, input any) string {
	m, ok := input.(map[string]any)
	if !ok || m == nil {
		return ""
	}

	switch name {
	case "bash":
		return core.StringField(m, "command")
	case "read", "write", "edit":
		if fp := core.StringField(m, "file_path"); fp != "" {
			return fp
		}
		return patchTarget(core.StringField(m, "patch"))
	case "glob", "grep":
		return core.StringField(m, "pattern")
	default:
		for _, key := range []string{"command", "file_path", "path", "pattern", "query", "url", "description"} {
			if v := core.StringField(m, key); v != "" {
				return v
			}
		}
		return ""
	}
}

// patchTarget returns the first file named by an apply_patch header.
func patchTarget(patch string) string {
	for _, line := range strings.Split(patch, "\n") {
		for _, h := range []string{"*** Add File: ", "*** Update File: ", "*** Delete File: "} {
			if name, ok := strings.CutPrefix(line, h); ok {
				return strings.TrimSpace(name)
			}
		}
	}
	return ""
}
