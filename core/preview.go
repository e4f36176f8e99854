package core

import "strings"

// boilerplatePrefixes mark user messages injected by the agent harness rather
// than typed by a person.
var boilerplatePrefixes = []string{
	"<environment_context>",
	"<user_instructions>",
	"<INSTRUCTIONS>",
	"<permissions instructions>",
	"# AGENTS.md instructions",
	"<system-reminder>",
	"<command-name>",
	"<command-message>",
	"<local-command-stdout>",
	"<local-command-caveat>",
	"<user_shell_command>",
	"Caveat: The messages below were generated",
}

// IsBoilerplate reports whether text starts with a known harness marker.
func IsBoilerplate(text string) bool {
	text = strings.TrimSpace(text)
	for _, p := range boilerplatePrefixes {
		if strings.HasPrefix(text, p) {
			return true
		}
	}
	return false
}

// SelectPreview returns the text of the first user message that is not
// boilerplate. When every user message is boilerplate the first one is
// returned verbatim; with no user messages the preview is empty.
func SelectPreview(messages []Message) string {
	first := ""
	seen := false
	for _, m := range messages {
		if m.Type != MessageUser {
			continue
		}
		if !seen {
			first, seen = m.Text, true
		}
		if text := strings.TrimSpace(m.Text); text != "" && !IsBoilerplate(text) {
			return text
		}
	}
	return first
}
