package shell

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sonnes/unitrans/core"
)

func exitOutput(code int, stdout string) map[string]any {
	return map[string]any{"stdout": stdout, "exitCode": float64(code)}
}

func TestReinterpretHeredocWrite(t *testing.T) {
	got := Reinterpret(Call{
		Input:  map[string]any{"command": "cat <<'EOF' > notes.md\nhello\nEOF"},
		Output: exitOutput(0, ""),
		Cwd:    "/repo",
	})

	assert.Equal(t, core.ToolWrite, got.ToolName)
	assert.Equal(t, map[string]any{"file_path": "/repo/notes.md", "content": "hello\n"}, got.Input)
	assert.Nil(t, got.Output)
}

func TestReinterpretHeredocVariants(t *testing.T) {
	tests := []struct {
		name    string
		script  string
		path    string
		content string
	}{
		{"redirect first", "cat > out.txt <<EOF\na\nb\nEOF", "/repo/out.txt", "a\nb\n"},
		{"double-quoted marker", "cat <<\"END\" > /tmp/x\nline\nEND\n", "/tmp/x", "line\n"},
		{"empty body", "cat <<'EOF' > empty\nEOF", "/repo/empty", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Reinterpret(Call{Input: tt.script, Cwd: "/repo"})
			require.Equal(t, core.ToolWrite, got.ToolName)
			assert.Equal(t, tt.path, got.Input.(map[string]any)["file_path"])
			assert.Equal(t, tt.content, got.Input.(map[string]any)["content"])
		})
	}
}

func TestReinterpretRead(t *testing.T) {
	got := Reinterpret(Call{
		Input:  map[string]any{"command": []any{"bash", "-lc", "cat src/main.go"}},
		Output: "Exit code: 0\nWall time: 0.1 seconds\nOutput:\npackage main\n",
		Cwd:    "/repo",
	})

	assert.Equal(t, core.ToolRead, got.ToolName)
	assert.Equal(t, map[string]any{"file_path": "/repo/src/main.go"}, got.Input)
	assert.Equal(t, "package main\n", got.Output)
}

func TestReinterpretSearch(t *testing.T) {
	got := Reinterpret(Call{
		Input:  map[string]any{"command": `rg -n "foo" -S src`},
		Output: exitOutput(0, "src/a.go:1:foo\n\nsrc/b.go:7:foo()\n"),
		Cwd:    "/repo",
	})

	require.Equal(t, core.ToolGrep, got.ToolName)
	in := got.Input.(map[string]any)
	assert.Equal(t, "foo", in["pattern"])
	assert.Equal(t, "/repo/src", in["path"])

	out := got.Output.(map[string]any)
	assert.Equal(t, "content", out["mode"])
	assert.Equal(t, 2, out["numMatches"])
	assert.Equal(t, 2, out["numLines"])
	assert.Equal(t, "src/a.go:1:foo\nsrc/b.go:7:foo()", out["content"])
}

func TestReinterpretSearchNoMatches(t *testing.T) {
	got := Reinterpret(Call{Input: "grep -rn missing .", Output: exitOutput(1, "")})

	require.Equal(t, core.ToolGrep, got.ToolName)
	assert.Equal(t, 0, got.Output.(map[string]any)["numMatches"])
}

func TestReinterpretQuotedOperators(t *testing.T) {
	tests := []struct {
		name    string
		cmd     string
		tool    string
		pattern string
	}{
		{name: "quoted pipe in rg", cmd: `rg -n "foo|bar" src`, tool: core.ToolGrep, pattern: "foo|bar"},
		{name: "single-quoted alternation", cmd: `grep -E 'a|b' .`, tool: core.ToolGrep, pattern: "a|b"},
		{name: "quoted redirect", cmd: `grep -rn "x > y" .`, tool: core.ToolGrep, pattern: "x > y"},
		{name: "quoted semicolon", cmd: `rg 'end;' src`, tool: core.ToolGrep, pattern: "end;"},
		{name: "unquoted pipe", cmd: `rg foo src | head`, tool: core.ToolBash},
		{name: "substitution in double quotes", cmd: `grep "$(whoami)" .`, tool: core.ToolBash},
		{name: "unterminated quote", cmd: `grep "foo .`, tool: core.ToolBash},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Reinterpret(Call{
				Input:  map[string]any{"command": []any{"bash", "-lc", tt.cmd}},
				Output: exitOutput(0, "a.go:1:foo\n"),
				Cwd:    "/repo",
			})
			require.Equal(t, tt.tool, got.ToolName)
			if tt.pattern != "" {
				assert.Equal(t, tt.pattern, got.Input.(map[string]any)["pattern"])
			}
		})
	}
}

func TestHasOperator(t *testing.T) {
	tests := []struct {
		script string
		want   bool
	}{
		{`cat main.go`, false},
		{`cat 'a>b.txt'`, false},
		{`cat a\>b.txt`, false},
		{`cat main.go > out`, true},
		{`cat a; cat b`, true},
		{"cat `ls`", true},
		{`cat "x"|wc`, true},
	}
	for _, tt := range tests {
		t.Run(tt.script, func(t *testing.T) {
			assert.Equal(t, tt.want, hasOperator(tt.script))
		})
	}
}

func TestParseSearchArgs(t *testing.T) {
	tests := []struct {
		name string
		cmd  string
		want searchArgs
	}{
		{
			name: "files with matches and glob",
			cmd:  "rg -l --glob '*.go' TODO internal",
			want: searchArgs{pattern: "TODO", paths: []string{"internal"}, glob: "*.go", mode: "files_with_matches"},
		},
		{
			name: "combined short flags",
			cmd:  "grep -ric needle .",
			want: searchArgs{pattern: "needle", paths: []string{"."}, ignoreCase: true, mode: "count"},
		},
		{
			name: "attached values and equals forms",
			cmd:  "rg -C2 -tgo --regexp=a.b --after-context=1 -U src",
			want: searchArgs{
				pattern:   "a.b",
				paths:     []string{"src"},
				fileType:  "go",
				multiline: true,
				mode:      "content",
				context:   map[string]int{"-C": 2, "-A": 1},
			},
		},
		{
			name: "double dash ends flags",
			cmd:  "rg -- -pattern dir",
			want: searchArgs{pattern: "-pattern", paths: []string{"dir"}, mode: "content"},
		},
		{
			name: "explicit regexp makes every positional a path",
			cmd:  "grep -e x a b",
			want: searchArgs{pattern: "x", paths: []string{"a", "b"}, mode: "content"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, parseSearchArgs(Split(tt.cmd)[1:]))
		})
	}
}

func TestReinterpretSearchFilesAndCount(t *testing.T) {
	files := Reinterpret(Call{
		Input:  "rg -l foo",
		Output: exitOutput(0, "a.go\nb.go\n"),
		Cwd:    "/repo",
	})
	assert.Equal(t, map[string]any{
		"mode":       "files_with_matches",
		"filenames":  []any{"/repo/a.go", "/repo/b.go"},
		"numMatches": 2,
	}, files.Output)

	count := Reinterpret(Call{Input: "rg -c foo", Output: exitOutput(0, "a.go:3\nb.go:4\n")})
	assert.Equal(t, 7, count.Output.(map[string]any)["numMatches"])
	assert.Equal(t, 2, count.Output.(map[string]any)["numLines"])
}

func TestReinterpretWindowedRead(t *testing.T) {
	got := Reinterpret(Call{
		Input:  "sed -n '10,12p' main.go",
		Output: exitOutput(0, "a\nb\nc\n"),
		Cwd:    "/repo",
	})

	require.Equal(t, core.ToolRead, got.ToolName)
	assert.Equal(t, map[string]any{"file_path": "/repo/main.go", "offset": 10, "limit": 3}, got.Input)
	assert.Equal(t, map[string]any{
		"file": map[string]any{"content": "a\nb\nc\n", "numLines": 3, "startLine": 10},
	}, got.Output)
}

func TestReinterpretFallback(t *testing.T) {
	tests := []struct {
		name string
		call Call
	}{
		{"unknown command", Call{Input: "go test ./...", Output: exitOutput(0, "ok")}},
		{"pipeline", Call{Input: "cat a.txt | head", Output: exitOutput(0, "x")}},
		{"failed read", Call{Input: "cat missing.txt", Output: exitOutput(1, "")}},
		{"error flag", Call{Input: "cat a.txt", Output: exitOutput(0, ""), IsError: true}},
		{"search with redirect", Call{Input: "rg foo > out.txt", Output: exitOutput(0, "")}},
		{"failed search", Call{Input: "rg foo", Output: exitOutput(2, "")}},
		{"sed without -n", Call{Input: "sed '1,2p' f", Output: exitOutput(0, "")}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Reinterpret(tt.call)
			assert.Equal(t, core.ToolBash, got.ToolName)
			out, ok := got.Output.(map[string]any)
			require.True(t, ok)
			assert.Contains(t, out, "stdout")
			assert.Contains(t, out, "exitCode")
		})
	}
}

func TestReinterpretFallbackNormalizesInput(t *testing.T) {
	got := Reinterpret(Call{
		Input: map[string]any{"command": []any{"bash", "-lc", "make build"}, "workdir": "/w"},
	})

	assert.Equal(t, core.ToolBash, got.ToolName)
	assert.Equal(t, map[string]any{"command": "make build", "workdir": "/w"}, got.Input)
	assert.Nil(t, got.Output)
}
