package redact

import "regexp"

// Kinds of sensitive data a rule can report.
const (
	KindSecret = "secret"
	KindPII    = "pii"
)

// A Rule finds sensitive spans in a string. Matches are replaced by
// Replacement, which for the built-in rules is the same-length mask.
type Rule interface {
	Name() string
	Kind() string
	Detect(s string) []Match
	Replacement(m Match) string
}

// Match is one detected span of s, as byte offsets.
type Match struct {
	Start int
	End   int
	Value string
}

// Pattern returns a masking rule for a regular expression. It panics if expr
// does not compile, like regexp.MustCompile.
func Pattern(name, kind, expr string) Rule {
	return &patternRule{name: name, kind: kind, re: regexp.MustCompile(expr)}
}

type patternRule struct {
	name, kind string
	re         *regexp.Regexp
}

func (r *patternRule) Name() string { return r.name }
func (r *patternRule) Kind() string { return r.kind }

func (r *patternRule) Detect(s string) []Match {
	var out []Match
	for _, loc := range r.re.FindAllStringIndex(s, -1) {
		out = append(out, Match{Start: loc[0], End: loc[1], Value: s[loc[0]:loc[1]]})
	}
	return out
}

func (r *patternRule) Replacement(m Match) string { return Mask(m.Value) }

type ruleDef struct{ name, expr string }

var secretDefs = []ruleDef{
	{"aws_key", `AKIA[0-9A-Z]{16}`},
	// provider API tokens: OpenAI/Anthropic, GitHub, GitLab, Slack
	{"api_key", `(?:sk-(?:ant-|proj-)?[a-zA-Z0-9\-_]{32,}|gh[po]_[a-zA-Z0-9]{36,}|github_pat_[a-zA-Z0-9_]{40,}|glpat-[a-zA-Z0-9\-]{20,}|xox[bpas]-[a-zA-Z0-9\-]{10,})`},
	// a truncated key block masks through end of string
	{"private_key", `(?s)-----BEGIN [A-Z ]*PRIVATE KEY-----.*?(?:-----END [A-Z ]*PRIVATE KEY-----|$)`},
	{"connection_string", "(?:postgres(?:ql)?|mongodb(?:\\+srv)?|mysql|redis|amqp)://[^\\s\"'`]+"},
	{"jwt", `eyJ[A-Za-z0-9\-_]+\.eyJ[A-Za-z0-9\-_]+\.[A-Za-z0-9\-_.+/=]+`},
}

var piiDefs = []ruleDef{
	{"email", `[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}`},
	{"ipv4", `\b\d{1,3}\.\d{1,3}\.\d{1,3}\.\d{1,3}\b`},
	{"phone", `(?:\+\d{1,3}[\s\-]?)?\(?\d{3}\)?[\s\-]?\d{3}[\s\-]?\d{4}`},
}

var (
	secretRules = compile(KindSecret, secretDefs)
	piiRules    = compile(KindPII, piiDefs)
)

func compile(kind string, defs []ruleDef) []Rule {
	rules := make([]Rule, len(defs))
	for i, d := range defs {
		rules[i] = Pattern(d.name, kind, d.expr)
	}
	return rules
}

// SecretRules returns the built-in credential rules.
func SecretRules() []Rule { return append([]Rule(nil), secretRules...) }

// PIIRules returns the built-in personal-data rules.
func PIIRules() []Rule { return append([]Rule(nil), piiRules...) }
