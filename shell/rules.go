package shell

import (
	"path"
	"regexp"
	"strconv"
	"strings"

	"github.com/charmbracelet/log"

	"github.com/sonnes/unitrans/core"
)

// Call is one generic shell tool call with its captured output. Relative
// paths in the command resolve against Cwd.
type Call struct {
	Input   any
	Output  any
	IsError bool
	Cwd     string
}

// Result is the reinterpreted tool call.
type Result struct {
	ToolName string
	Input    any
	Output   any
}

// rule pairs a matcher over the command script with a builder producing the
// structured call. Matchers return the captures the builder needs.
type rule struct {
	name   string
	okExit func(out Output) bool // whether the exit status allows the rule
	match  func(script string) ([]string, bool)
	build  func(args []string, c Call, out Output) Result
}

// rules are tried in order; the first match wins.
var rules = []rule{
	{name: "heredoc-write", okExit: succeeded, match: matchHeredoc, build: buildWrite},
	{name: "read", okExit: succeeded, match: matchCat, build: buildRead},
	{name: "search", okExit: searched, match: matchSearch, build: buildSearch},
	{name: "windowed-read", okExit: succeeded, match: matchSed, build: buildWindowedRead},
}

func succeeded(out Output) bool { return !out.Failed() }

// searched accepts exit 1, which grep-like tools use for "no matches".
func searched(out Output) bool {
	return out.ExitCode == nil || *out.ExitCode == 0 || *out.ExitCode == 1
}

// Reinterpret maps a generic shell call onto a structured tool when the
// command matches a known pattern, and otherwise returns a Bash call with
// its output normalized to {stdout, stderr, exitCode, durationSeconds}.
// Failed calls are never reinterpreted.
func Reinterpret(c Call) Result {
	script, ok := CommandLine(c.Input)
	out := ParseOutput(c.Output)
	if !ok {
		return Result{ToolName: core.ToolBash, Input: c.Input, Output: genericOutput(c.Output, out)}
	}

	if !c.IsError {
		script = strings.TrimSpace(script)
		for _, r := range rules {
			if !r.okExit(out) {
				continue
			}
			if args, ok := r.match(script); ok {
				log.Debug("reinterpreted shell call", "rule", r.name)
				return r.build(args, c, out)
			}
		}
	}

	return Result{
		ToolName: core.ToolBash,
		Input:    normalizedInput(c.Input, script),
		Output:   genericOutput(c.Output, out),
	}
}

func genericOutput(raw any, out Output) any {
	if raw == nil {
		return nil
	}
	return out.Map()
}

// operators disqualify a script from the single-command rules. Only
// unquoted operators count, except command substitution, which also
// expands inside double quotes.
const operatorRunes = "|&;<>`\n"

func hasOperator(script string) bool {
	runes := []rune(script)
	var quote rune
	for i := 0; i < len(runes); i++ {
		c := runes[i]
		substitution := c == '`' || (c == '$' && i+1 < len(runes) && runes[i+1] == '(')
		switch {
		case quote == '\'':
			if c == '\'' {
				quote = 0
			}
		case c == '\\':
			i++
		case quote == '"':
			if c == '"' {
				quote = 0
			} else if substitution {
				return true
			}
		case c == '\'' || c == '"':
			quote = c
		case substitution || strings.ContainsRune(operatorRunes, c):
			return true
		}
	}
	return quote != 0
}

// heredoc write: cat <<'EOF' > path / cat > path <<'EOF'

var heredocHeadRe = regexp.MustCompile(
	`^cat\s+(?:<<-?\s*['"]?(\w+)['"]?\s*>\s*(\S+)|>\s*(\S+)\s+<<-?\s*['"]?(\w+)['"]?)\s*$`)

func matchHeredoc(script string) ([]string, bool) {
	head, body, ok := strings.Cut(script, "\n")
	if !ok {
		return nil, false
	}
	m := heredocHeadRe.FindStringSubmatch(strings.TrimSpace(head))
	if m == nil {
		return nil, false
	}
	marker, target := m[1], m[2]
	if marker == "" {
		marker, target = m[4], m[3]
	}
	target = strings.Trim(target, `'"`)

	lines := strings.Split(body, "\n")
	end := -1
	for i, line := range lines {
		if strings.TrimSpace(line) == marker {
			end = i
			break
		}
	}
	if end < 0 {
		return nil, false
	}
	for _, line := range lines[end+1:] {
		if strings.TrimSpace(line) != "" {
			return nil, false
		}
	}

	content := ""
	if end > 0 {
		content = strings.Join(lines[:end], "\n") + "\n"
	}
	return []string{target, content}, true
}

func buildWrite(args []string, c Call, _ Output) Result {
	return Result{
		ToolName: core.ToolWrite,
		Input: map[string]any{
			"file_path": resolve(args[0], c.Cwd),
			"content":   args[1],
		},
	}
}

// plain read: cat <path>

func matchCat(script string) ([]string, bool) {
	if hasOperator(script) {
		return nil, false
	}
	words := Split(script)
	if len(words) != 2 || words[0] != "cat" || strings.HasPrefix(words[1], "-") {
		return nil, false
	}
	return words[1:], true
}

func buildRead(args []string, c Call, out Output) Result {
	return Result{
		ToolName: core.ToolRead,
		Input:    map[string]any{"file_path": resolve(args[0], c.Cwd)},
		Output:   out.Stdout,
	}
}

// windowed read: sed -n 'a,bp' <path>

var sedRangeRe = regexp.MustCompile(`^(\d+)(?:,(\d+))?p$`)

func matchSed(script string) ([]string, bool) {
	if hasOperator(script) {
		return nil, false
	}
	words := Split(script)
	if len(words) != 4 || words[0] != "sed" || words[1] != "-n" {
		return nil, false
	}
	m := sedRangeRe.FindStringSubmatch(words[2])
	if m == nil {
		return nil, false
	}
	end := m[2]
	if end == "" {
		end = m[1]
	}
	return []string{m[1], end, words[3]}, true
}

func buildWindowedRead(args []string, c Call, out Output) Result {
	start, _ := strconv.Atoi(args[0])
	end, _ := strconv.Atoi(args[1])
	return Result{
		ToolName: core.ToolRead,
		Input: map[string]any{
			"file_path": resolve(args[2], c.Cwd),
			"offset":    start,
			"limit":     end - start + 1,
		},
		Output: map[string]any{
			"file": map[string]any{
				"content":   out.Stdout,
				"numLines":  lineCount(out.Stdout),
				"startLine": start,
			},
		},
	}
}

// search: rg / grep

var searchTools = map[string]bool{
	"rg":    true,
	"grep":  true,
	"egrep": true,
	"fgrep": true,
}

func matchSearch(script string) ([]string, bool) {
	if hasOperator(script) {
		return nil, false
	}
	words := Split(script)
	if len(words) < 2 || !searchTools[path.Base(words[0])] {
		return nil, false
	}
	return words[1:], true
}

type searchArgs struct {
	pattern    string
	paths      []string
	glob       string
	fileType   string
	ignoreCase bool
	multiline  bool
	mode       string
	context    map[string]int
}

// long options that take a value; the rest are treated as switches.
var searchValueFlags = map[string]string{
	"--glob":           "-g",
	"--iglob":          "-g",
	"--include":        "-g",
	"--type":           "-t",
	"--regexp":         "-e",
	"--context":        "-C",
	"--after-context":  "-A",
	"--before-context": "-B",
	"--max-count":      "-m",
	"--max-depth":      "-d",
	"--type-not":       "-T",
	"--exclude":        "-x",
	"--exclude-dir":    "-x",
	"--sort":           "-s",
	"--color":          "-x",
	"--colors":         "-x",
}

var searchSwitches = map[string]byte{
	"--ignore-case":        'i',
	"--multiline":          'U',
	"--files-with-matches": 'l',
	"--count":              'c',
}

// short options that take a value.
const shortValueFlags = "ABCgtemdfT"

func parseSearchArgs(words []string) searchArgs {
	a := searchArgs{mode: "content"}
	var positional []string
	hasRegexp := false

	set := func(flag, value string) {
		switch flag {
		case "-g":
			a.glob = value
		case "-t":
			a.fileType = value
		case "-e":
			a.pattern = value
			hasRegexp = true
		case "-A", "-B", "-C":
			if n, err := strconv.Atoi(value); err == nil {
				if a.context == nil {
					a.context = make(map[string]int)
				}
				a.context[flag] = n
			}
		}
	}
	toggle := func(c byte) {
		switch c {
		case 'i':
			a.ignoreCase = true
		case 'U':
			a.multiline = true
		case 'l':
			a.mode = "files_with_matches"
		case 'c':
			a.mode = "count"
		}
	}

	for i := 0; i < len(words); i++ {
		w := words[i]
		switch {
		case w == "--":
			positional = append(positional, words[i+1:]...)
			i = len(words)

		case strings.HasPrefix(w, "--"):
			name, value, hasValue := strings.Cut(w, "=")
			if c, ok := searchSwitches[name]; ok {
				toggle(c)
				continue
			}
			short, ok := searchValueFlags[name]
			if !ok {
				continue
			}
			if !hasValue && i+1 < len(words) {
				i++
				value = words[i]
			}
			set(short, value)

		case strings.HasPrefix(w, "-") && len(w) > 1:
			for j := 1; j < len(w); j++ {
				c := w[j]
				if strings.IndexByte(shortValueFlags, c) < 0 {
					toggle(c)
					continue
				}
				value := w[j+1:]
				if value == "" && i+1 < len(words) {
					i++
					value = words[i]
				}
				set("-"+string(c), value)
				break
			}

		default:
			positional = append(positional, w)
		}
	}

	if !hasRegexp && len(positional) > 0 {
		a.pattern = positional[0]
		positional = positional[1:]
	}
	a.paths = positional
	return a
}

func buildSearch(words []string, c Call, out Output) Result {
	a := parseSearchArgs(words)

	in := map[string]any{
		"pattern":     a.pattern,
		"output_mode": a.mode,
	}
	if len(a.paths) > 0 {
		in["path"] = resolve(a.paths[0], c.Cwd)
	}
	if a.glob != "" {
		in["glob"] = a.glob
	}
	if a.fileType != "" {
		in["type"] = a.fileType
	}
	if a.ignoreCase {
		in["-i"] = true
	}
	if a.multiline {
		in["multiline"] = true
	}
	for flag, n := range a.context {
		in[flag] = n
	}

	lines := nonBlankLines(out.Stdout)
	var result map[string]any
	switch a.mode {
	case "files_with_matches":
		names := make([]any, len(lines))
		for i, l := range lines {
			names[i] = resolve(l, c.Cwd)
		}
		result = map[string]any{
			"mode":       a.mode,
			"filenames":  names,
			"numMatches": len(lines),
		}
	case "count":
		result = map[string]any{
			"mode":       a.mode,
			"content":    strings.Join(lines, "\n"),
			"numMatches": countTotal(lines),
			"numLines":   len(lines),
		}
	default:
		result = map[string]any{
			"mode":       a.mode,
			"content":    strings.Join(lines, "\n"),
			"numMatches": len(lines),
			"numLines":   len(lines),
		}
	}

	return Result{ToolName: core.ToolGrep, Input: in, Output: result}
}

func nonBlankLines(s string) []string {
	var out []string
	for _, l := range strings.Split(s, "\n") {
		if strings.TrimSpace(l) != "" {
			out = append(out, l)
		}
	}
	return out
}

// countTotal sums "path:N" (or bare "N") lines of count-mode output.
func countTotal(lines []string) int {
	total := 0
	for _, l := range lines {
		i := strings.LastIndexByte(l, ':')
		if n, err := strconv.Atoi(strings.TrimSpace(l[i+1:])); err == nil {
			total += n
		}
	}
	return total
}

func lineCount(s string) int {
	if s == "" {
		return 0
	}
	n := strings.Count(s, "\n")
	if !strings.HasSuffix(s, "\n") {
		n++
	}
	return n
}
