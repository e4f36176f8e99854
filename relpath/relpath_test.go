package relpath

import (
	"testing"

	"github.com/sonnes/unitrans/core"
	"github.com/stretchr/testify/assert"
)

func TestString(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"prefix with slash", "/repo/src/main.go", "./src/main.go"},
		{"bare directory", "/repo", "."},
		{"bare directory in sentence", "cd /repo && ls", "cd . && ls"},
		{"multiple occurrences", "diff /repo/a /repo/b", "diff ./a ./b"},
		{"sibling directory untouched", "/repository/x", "/repository/x"},
		{"unrelated path", "/etc/hosts", "/etc/hosts"},
		{"already relative", "./src", "./src"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, String(tt.in, "/repo"))
		})
	}
}

func TestRelativizeNested(t *testing.T) {
	in := map[string]any{
		"file_path": "/repo/notes.md",
		"count":     3,
		"nested": map[string]any{
			"paths": []any{"/repo/a.go", "/repo", 1.5, nil},
		},
		"filenames": []string{"/repo/b.go"},
	}

	got := Relativize(in, "/repo/")

	assert.Equal(t, map[string]any{
		"file_path": "./notes.md",
		"count":     3,
		"nested": map[string]any{
			"paths": []any{"./a.go", ".", 1.5, nil},
		},
		"filenames": []string{"./b.go"},
	}, got)
	assert.Equal(t, "/repo/notes.md", in["file_path"], "input not mutated")
}

func TestRelativizeIdempotent(t *testing.T) {
	v := map[string]any{"path": "/repo/src", "out": []any{"/repo/x", "text /repo"}}
	once := Relativize(v, "/repo")
	twice := Relativize(once, "/repo")
	assert.Equal(t, once, twice)
}

func TestRelativizeEmptyCwd(t *testing.T) {
	v := map[string]any{"path": "/repo/src"}
	assert.Equal(t, v, Relativize(v, ""))
	assert.Equal(t, v, Relativize(v, "/"))
}

func TestTranscript(t *testing.T) {
	tr := &core.Transcript{
		Cwd: "/repo",
		Messages: []core.Message{
			{Type: core.MessageUser, Text: "look at /repo/a.go"},
			{Type: core.MessageToolCall, ToolName: core.ToolRead, Input: map[string]any{"file_path": "/repo/a.go"}, Output: "package a // /repo"},
		},
	}
	Transcript(tr)

	assert.Equal(t, "look at /repo/a.go", tr.Messages[0].Text, "user text untouched")
	assert.Equal(t, map[string]any{"file_path": "./a.go"}, tr.Messages[1].Input)
	assert.Equal(t, "package a // .", tr.Messages[1].Output)
}
