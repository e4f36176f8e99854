package shell

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/tidwall/gjson"
)

// Output is captured shell output normalized from any of the shapes agents
// record it in.
type Output struct {
	Stdout          string
	Stderr          string
	ExitCode        *int
	DurationSeconds *float64
}

// Failed reports whether the output carries a non-zero exit code.
func (o Output) Failed() bool {
	return o.ExitCode != nil && *o.ExitCode != 0
}

// Map renders o as the generic shell tool output object.
func (o Output) Map() map[string]any {
	m := map[string]any{
		"stdout": o.Stdout,
		"stderr": o.Stderr,
	}
	if o.ExitCode != nil {
		m["exitCode"] = *o.ExitCode
	}
	if o.DurationSeconds != nil {
		m["durationSeconds"] = *o.DurationSeconds
	}
	return m
}

var (
	exitCodeRe = regexp.MustCompile(`^(?:Exit code:|Process exited with code)\s*(-?\d+)\s*$`)
	wallTimeRe = regexp.MustCompile(`^Wall time:\s*([0-9.]+)\s*seconds?\s*$`)
)

// ParseOutput normalizes raw shell output. Recognized shapes are a JSON
// string {output, metadata{exit_code, duration_seconds}}, a human-readable
// block with "Exit code:"/"Wall time:" headers followed by "Output:", an
// object with stdout/stderr/exit code keys, and plain text.
func ParseOutput(raw any) Output {
	switch v := raw.(type) {
	case nil:
		return Output{}
	case string:
		return parseOutputString(v)
	case map[string]any:
		return parseOutputMap(v)
	default:
		return Output{Stdout: fmt.Sprint(v)}
	}
}

func parseOutputString(s string) Output {
	trimmed := strings.TrimSpace(s)
	if strings.HasPrefix(trimmed, "{") && gjson.Valid(trimmed) {
		r := gjson.Parse(trimmed)
		if r.Get("output").Exists() || r.Get("metadata").Exists() {
			out := Output{
				Stdout: r.Get("output").String(),
				Stderr: r.Get("stderr").String(),
			}
			if c := r.Get("metadata.exit_code"); c.Exists() {
				n := int(c.Int())
				out.ExitCode = &n
			}
			if d := r.Get("metadata.duration_seconds"); d.Exists() {
				f := d.Float()
				out.DurationSeconds = &f
			}
			return out
		}
	}
	if out, ok := parseHeaderBlock(s); ok {
		return out
	}
	return Output{Stdout: s}
}

// parseHeaderBlock reads the "Exit code: N\nWall time: X seconds\nOutput:\n..."
// form. Header lines before "Output:" other than exit code and wall time are
// skipped.
func parseHeaderBlock(s string) (Output, bool) {
	var out Output
	seenHeader := false
	rest := s
	for rest != "" {
		line, tail, _ := strings.Cut(rest, "\n")
		line = strings.TrimRight(line, "\r")
		switch {
		case line == "Output:":
			if !seenHeader {
				return Output{}, false
			}
			out.Stdout = tail
			return out, true
		case exitCodeRe.MatchString(line):
			n, _ := strconv.Atoi(exitCodeRe.FindStringSubmatch(line)[1])
			out.ExitCode = &n
			seenHeader = true
		case wallTimeRe.MatchString(line):
			f, err := strconv.ParseFloat(wallTimeRe.FindStringSubmatch(line)[1], 64)
			if err == nil {
				out.DurationSeconds = &f
			}
			seenHeader = true
		}
		rest = tail
	}
	if seenHeader {
		return out, true
	}
	return Output{}, false
}

func parseOutputMap(m map[string]any) Output {
	var out Output
	for _, key := range []string{"stdout", "output", "aggregated_output", "content"} {
		if s, ok := m[key].(string); ok {
			out.Stdout = s
			break
		}
	}
	if s, ok := m["stderr"].(string); ok {
		out.Stderr = s
	}

	meta, _ := m["metadata"].(map[string]any)
	for _, src := range []map[string]any{m, meta} {
		if src == nil {
			continue
		}
		for _, key := range []string{"exitCode", "exit_code", "exit"} {
			if n, ok := toInt(src[key]); ok && out.ExitCode == nil {
				out.ExitCode = &n
			}
		}
		for _, key := range []string{"durationSeconds", "duration_seconds"} {
			if f, ok := toFloat(src[key]); ok && out.DurationSeconds == nil {
				out.DurationSeconds = &f
			}
		}
	}
	return out
}

func toInt(v any) (int, bool) {
	switch n := v.(type) {
	case int:
		return n, true
	case int64:
		return int(n), true
	case float64:
		return int(n), true
	case json.Number:
		i, err := n.Int64()
		return int(i), err == nil
	case string:
		i, err := strconv.Atoi(n)
		return i, err == nil
	}
	return 0, false
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	}
	return 0, false
}
