// Package shell reinterprets generic shell tool calls as structured file and
// search tool calls when the command matches a known pattern.
package shell

import (
	"path"
	"strings"
)

// interactive shells recognized in argv-style commands like
// ["bash", "-lc", "<script>"].
var shells = map[string]bool{
	"bash": true,
	"sh":   true,
	"zsh":  true,
	"dash": true,
	"ksh":  true,
	"fish": true,
}

// scriptFlags select "run the next argument as a script".
var scriptFlags = map[string]bool{
	"-c":   true,
	"-lc":  true,
	"-ic":  true,
	"-lic": true,
	"-cl":  true,
}

// CommandLine extracts the script a shell tool call runs. The input may be a
// bare string, or a map whose "command" is a string or an argv array, or
// whose "cmd" is a string. An argv array of the form [shell, -lc, script, ...]
// yields script; any other array is joined with spaces.
func CommandLine(input any) (string, bool) {
	switch v := input.(type) {
	case string:
		return v, v != ""
	case map[string]any:
		if s, ok := v["command"].(string); ok && s != "" {
			return s, true
		}
		if argv, ok := stringSlice(v["command"]); ok && len(argv) > 0 {
			return argvScript(argv), true
		}
		if s, ok := v["cmd"].(string); ok && s != "" {
			return s, true
		}
	}
	return "", false
}

// Workdir returns the working directory a call declares for itself, if any.
func Workdir(input any) string {
	m, ok := input.(map[string]any)
	if !ok {
		return ""
	}
	for _, key := range []string{"workdir", "cwd", "working_directory"} {
		if s, ok := m[key].(string); ok && s != "" {
			return s
		}
	}
	return ""
}

func argvScript(argv []string) string {
	if len(argv) >= 3 && shells[path.Base(argv[0])] && scriptFlags[argv[1]] {
		return argv[2]
	}
	return strings.Join(argv, " ")
}

func stringSlice(v any) ([]string, bool) {
	switch s := v.(type) {
	case []string:
		return s, true
	case []any:
		out := make([]string, 0, len(s))
		for _, item := range s {
			str, ok := item.(string)
			if !ok {
				return nil, false
			}
			out = append(out, str)
		}
		return out, true
	}
	return nil, false
}

// normalizedInput rewrites a generic shell input so the script is always
// under "command" as a string. Other fields are kept.
func normalizedInput(input any, script string) any {
	m, ok := input.(map[string]any)
	if !ok {
		return map[string]any{"command": script}
	}
	out := make(map[string]any, len(m))
	for k, v := range m {
		if k == "cmd" {
			continue
		}
		out[k] = v
	}
	out["command"] = script
	return out
}

// resolve makes p absolute against cwd so path relativization can later
// rewrite it uniformly.
func resolve(p, cwd string) string {
	if p == "" || cwd == "" || path.IsAbs(p) || strings.HasPrefix(p, "~") {
		return p
	}
	return path.Join(cwd, p)
}
