package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSelectPreview(t *testing.T) {
	tests := []struct {
		name string
		msgs []Message
		want string
	}{
		{
			name: "no user messages",
			msgs: []Message{{Type: MessageAgent, Text: "hello"}},
			want: "",
		},
		{
			name: "skips environment context",
			msgs: []Message{
				{Type: MessageUser, Text: "<environment_context>\n  <cwd>/repo</cwd>\n</environment_context>"},
				{Type: MessageUser, Text: "  Fix the login bug  "},
			},
			want: "Fix the login bug",
		},
		{
			name: "skips agents instructions banner",
			msgs: []Message{
				{Type: MessageUser, Text: "# AGENTS.md instructions for /repo\n\n..."},
				{Type: MessageAgent, Text: "ok"},
				{Type: MessageUser, Text: "add tests"},
			},
			want: "add tests",
		},
		{
			name: "all boilerplate falls back to first verbatim",
			msgs: []Message{
				{Type: MessageUser, Text: "<user_instructions>be terse</user_instructions>"},
				{Type: MessageUser, Text: "<environment_context></environment_context>"},
			},
			want: "<user_instructions>be terse</user_instructions>",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, SelectPreview(tt.msgs))
		})
	}
}

func TestIsBoilerplate(t *testing.T) {
	assert.True(t, IsBoilerplate("\n<environment_context>x</environment_context>"))
	assert.True(t, IsBoilerplate("<system-reminder>hi</system-reminder>"))
	assert.False(t, IsBoilerplate("please look at <environment_context>"))
	assert.False(t, IsBoilerplate(""))
}
