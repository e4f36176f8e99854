package terminal

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/charmbracelet/x/ansi"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sonnes/unitrans/core"
)

var t0 = time.Date(2025, 9, 10, 12, 0, 0, 0, time.UTC)

func sample() *core.Transcript {
	code := 2
	return &core.Transcript{
		ID:        "abc-123",
		Source:    core.SourceCodex,
		Timestamp: t0,
		Model:     "openai/gpt-5-codex",
		Cwd:       "/Users/test",
		Git:       &core.GitContext{Branch: "main"},
		Preview:   "Fix the auth bug\nplease",
		CostUSD:   1.5,
		Usage: &core.Usage{
			InputTokens:       1228873,
			CachedInputTokens: 202896,
			OutputTokens:      1273,
		},
		Stats: core.Stats{MessageCount: 6, ToolCallCount: 1, LinesAdded: 12, LinesRemoved: 3},
		Messages: []core.Message{
			{Type: core.MessageUser, Timestamp: t0, Text: "Fix the auth bug"},
			{Type: core.MessageThinking, Timestamp: t0.Add(2 * time.Second), Text: "look at auth.go"},
			{
				Type: core.MessageToolCall, Timestamp: t0.Add(3 * time.Second), CallID: "c1", ToolName: core.ToolBash,
				Input: map[string]any{"command": "grep -rn auth src/"},
			},
			{Type: core.MessageAgent, Timestamp: t0.Add(90 * time.Second), Text: "Found the issue in the auth module."},
			{Type: core.MessageCommand, Timestamp: t0.Add(2 * time.Hour), Command: "make test", ExitCode: &code},
			{Type: core.MessageImage, Timestamp: t0.Add(2 * time.Hour), Image: &core.BlobRef{SHA256: "2cf24dba5fb0a30e26e83b2ac5b9e29e", MediaType: "image/png"}},
		},
	}
}

func TestRenderHeader(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, (&Renderer{Width: 100}).Render(&buf, sample()))

	out := ansi.Strip(buf.String())

	for _, want := range []string{
		"Session abc-123",
		"+12 -3",
		"@codex",
		"Sep 10, 2025 12:00 PM",
		"openai/gpt-5-codex",
		"/Users/test(main)",
		"1,228,873",
		"1,273",
		"202,896",
		"$1.50",
		"INPUT",
		"OUTPUT",
		"CACHE READ",
		"COST",
	} {
		assert.Contains(t, out, want)
	}
	assert.NotContains(t, out, "CACHE WRITE")
}

func TestRenderMessages(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, (&Renderer{Width: 100}).Render(&buf, sample()))

	out := ansi.Strip(buf.String())

	assert.Contains(t, out, "USER")
	assert.Contains(t, out, "Fix the auth bug")
	assert.Contains(t, out, "THINKING")
	assert.Contains(t, out, "TOOL")
	assert.Contains(t, out, "[bash: grep -rn auth src/]")
	assert.Contains(t, out, "AGENT")
	assert.Contains(t, out, "1m 27s")
	assert.Contains(t, out, "$ make test  (exit 2)")
	assert.Contains(t, out, "image/png 2cf24dba5fb0")
}

func TestRenderSummaryTitle(t *testing.T) {
	tr := sample()
	tr.Summary = "Auth fix"

	var buf bytes.Buffer
	require.NoError(t, (&Renderer{Width: 80}).Render(&buf, tr))

	out := ansi.Strip(buf.String())
	assert.True(t, strings.HasPrefix(out, "Auth fix"))
}

func TestRenderTruncation(t *testing.T) {
	tr := &core.Transcript{
		ID:     "test-truncate",
		Source: core.SourcePi,
		Messages: []core.Message{
			{Type: core.MessageUser, Timestamp: t0, Text: strings.Repeat("a", 300)},
		},
	}

	var buf bytes.Buffer
	require.NoError(t, (&Renderer{Width: 60}).Render(&buf, tr))

	out := ansi.Strip(buf.String())
	assert.Contains(t, out, "...")
	for _, line := range strings.Split(out, "\n") {
		assert.LessOrEqual(t, ansi.StringWidth(line), 60)
	}
}

func TestSummary(t *testing.T) {
	got := ansi.Strip((&Renderer{Width: 200}).Summary(nil, "rollout.jsonl", sample(), 2))

	assert.Equal(t, "rollout.jsonl  codex  abc-123  6 msgs  1 tools  +12 -3  2 blobs  $1.50  Fix the auth bug", got)
}

func TestSummaryTruncated(t *testing.T) {
	got := ansi.Strip((&Renderer{Width: 30}).Summary(nil, "rollout.jsonl", sample(), 0))

	assert.Equal(t, 30, ansi.StringWidth(got))
	assert.True(t, strings.HasSuffix(got, "..."))
}

func TestFormatHelpers(t *testing.T) {
	assert.Equal(t, "<1s", formatDuration(500*time.Millisecond))
	assert.Equal(t, "45s", formatDuration(45*time.Second))
	assert.Equal(t, "2m", formatDuration(2*time.Minute))
	assert.Equal(t, "1h 5m", formatDuration(65*time.Minute))
	assert.Equal(t, "3h", formatDuration(3*time.Hour))

	assert.Equal(t, "0", formatNumber(0))
	assert.Equal(t, "999", formatNumber(999))
	assert.Equal(t, "1,000", formatNumber(1000))
	assert.Equal(t, "-12,345", formatNumber(-12345))

	assert.Equal(t, "$0.0042", formatCost(0.0042))
	assert.Equal(t, "$12.35", formatCost(12.346))
}
