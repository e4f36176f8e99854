package reader

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sonnes/unitrans/core"
	"github.com/sonnes/unitrans/pricing"
)

var t0 = time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)

func at(sec int) time.Time { return t0.Add(time.Duration(sec) * time.Second) }

func TestFinishEmpty(t *testing.T) {
	b := NewBuilder(core.SourceCodex, Options{})
	b.SetID("s1")
	b.AddUsage("gpt-5", core.Usage{InputTokens: 10})

	res, err := b.Finish()
	require.NoError(t, err)
	assert.Nil(t, res)
}

func TestAddDeduplicates(t *testing.T) {
	b := NewBuilder(core.SourceCodex, Options{})

	assert.True(t, b.Add(core.Message{Type: core.MessageUser, Timestamp: at(1), Text: "hi"}))
	assert.False(t, b.Add(core.Message{Type: core.MessageUser, Timestamp: at(1), Text: "hi"}))
	assert.True(t, b.Add(core.Message{Type: core.MessageAgent, Timestamp: at(1), Text: "hi"}))
	assert.True(t, b.Add(core.Message{Type: core.MessageUser, Timestamp: at(2), Text: "hi"}))

	call := core.Message{Type: core.MessageToolCall, Timestamp: at(3), CallID: "c1", ToolName: core.ToolRead}
	assert.True(t, b.Add(call))
	assert.False(t, b.Add(call))

	// no timestamp, no signature
	assert.True(t, b.Add(core.Message{Type: core.MessageAgent, Text: "x"}))
	assert.True(t, b.Add(core.Message{Type: core.MessageAgent, Text: "x"}))

	assert.Len(t, b.messages, 6)
}

func TestAttachOutput(t *testing.T) {
	b := NewBuilder(core.SourceCodex, Options{})
	b.Add(core.Message{Type: core.MessageToolCall, Timestamp: at(1), CallID: "c1", ToolName: core.ToolRead})

	assert.True(t, b.AttachOutput("c1", "first", false, ""))
	assert.True(t, b.AttachOutput("c1", "second", true, "boom"))
	assert.False(t, b.AttachOutput("missing", "x", false, ""))

	m := b.messages[0]
	assert.Equal(t, "first", m.Output)
	assert.True(t, m.IsError)
	assert.Equal(t, "boom", m.Error)
	assert.True(t, b.HasCall("c1"))
}

func TestAddTokenCount(t *testing.T) {
	tests := []struct {
		name    string
		reports [][2]*core.Usage // {last, total}
		want    core.Usage
	}{
		{
			name: "last preferred",
			reports: [][2]*core.Usage{
				{{InputTokens: 10, OutputTokens: 2}, {InputTokens: 10, OutputTokens: 2}},
				{{InputTokens: 5, OutputTokens: 1}, {InputTokens: 15, OutputTokens: 3}},
			},
			want: core.Usage{InputTokens: 15, OutputTokens: 3},
		},
		{
			name: "delta of totals",
			reports: [][2]*core.Usage{
				{nil, {InputTokens: 10, OutputTokens: 2}},
				{nil, {InputTokens: 25, OutputTokens: 4}},
			},
			want: core.Usage{InputTokens: 25, OutputTokens: 4},
		},
		{
			name: "repeated total ignored",
			reports: [][2]*core.Usage{
				{{InputTokens: 10}, {InputTokens: 10}},
				{{InputTokens: 10}, {InputTokens: 10}},
			},
			want: core.Usage{InputTokens: 10},
		},
		{
			name: "counter reset contributes zero",
			reports: [][2]*core.Usage{
				{nil, {InputTokens: 100, OutputTokens: 10}},
				{nil, {InputTokens: 40, OutputTokens: 12}},
			},
			want: core.Usage{InputTokens: 100, OutputTokens: 12},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := NewBuilder(core.SourceCodex, Options{})
			for _, r := range tt.reports {
				b.AddTokenCount("gpt-5", r[0], r[1])
			}
			assert.Equal(t, tt.want, b.usage)
		})
	}
}

func TestFinish(t *testing.T) {
	table := pricing.NewTable(pricing.Entry{
		Model:   "openai/gpt-5",
		Pricing: pricing.Pricing{Input: pricing.Rate{Base: 0.001}, Output: pricing.Rate{Base: 0.01}},
	})
	b := NewBuilder(core.SourceCodex, Options{
		Pricing:       table,
		ClientVersion: "ut/1.0",
		Git:           &core.GitContext{Branch: "main"},
	})
	b.SetID("sess")
	b.SetCwd("/repo")
	b.SetGit(&core.GitContext{Branch: "feature", Commit: "abc"})
	b.SetModel("gpt-5")

	b.Add(core.Message{Type: core.MessageUser, Timestamp: at(0), Text: "<environment_context>x</environment_context>"})
	b.Add(core.Message{Type: core.MessageUser, Timestamp: at(1), Text: "write notes"})
	b.Add(core.Message{
		Type:      core.MessageToolCall,
		Timestamp: at(2),
		CallID:    "c1",
		ToolName:  core.ToolBash,
		Input:     map[string]any{"command": []any{"bash", "-lc", "cat <<'EOF' > notes.md\nhello\nEOF"}},
	})
	b.AttachOutput("c1", `{"output":"","metadata":{"exit_code":0,"duration_seconds":0.1}}`, false, "")
	b.Add(core.Message{Type: core.MessageAgent, Timestamp: at(3), Text: "done"})
	b.AddUsage("", core.Usage{InputTokens: 100, OutputTokens: 10})

	res, err := b.Finish()
	require.NoError(t, err)
	require.NotNil(t, res)
	tr := res.Transcript

	assert.Equal(t, "sess", tr.ID)
	assert.Equal(t, core.SourceCodex, tr.Source)
	assert.Equal(t, at(0), tr.Timestamp)
	assert.Equal(t, "write notes", tr.Preview)
	assert.Equal(t, "openai/gpt-5", tr.Model)
	assert.Equal(t, "ut/1.0", tr.ClientVersion)
	assert.Equal(t, &core.GitContext{Branch: "main", Commit: "abc"}, tr.Git)

	call := tr.Messages[2]
	assert.Equal(t, core.ToolWrite, call.ToolName)
	assert.Equal(t, map[string]any{"file_path": "./notes.md", "content": "hello\n"}, call.Input)
	assert.Nil(t, call.Output)

	require.NotNil(t, tr.Usage)
	assert.Equal(t, int64(100), tr.Usage.InputTokens)
	require.Len(t, tr.ModelUsage, 1)
	assert.Equal(t, "openai/gpt-5", tr.ModelUsage[0].Model)
	assert.InDelta(t, 0.2, tr.CostUSD, 1e-9)
	assert.Equal(t, 1, tr.Stats.LinesAdded)
	assert.Equal(t, 1, tr.Stats.FilesChanged)
}

func TestFinishTimestampOverride(t *testing.T) {
	override := time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC)
	b := NewBuilder(core.SourcePi, Options{Timestamp: override})
	b.SetID("x")
	b.SetTimestamp(at(0))
	b.Add(core.Message{Type: core.MessageUser, Timestamp: at(1), Text: "hi"})

	res, err := b.Finish()
	require.NoError(t, err)
	assert.Equal(t, override, res.Transcript.Timestamp)
}

func TestFinishFallbackIDIsStable(t *testing.T) {
	build := func() string {
		b := NewBuilder(core.SourceOpenCode, Options{})
		b.Add(core.Message{Type: core.MessageUser, Timestamp: at(1), Text: "hi"})
		res, err := b.Finish()
		require.NoError(t, err)
		return res.Transcript.ID
	}
	first := build()
	assert.NotEmpty(t, first)
	assert.Equal(t, first, build())
}

func TestFinishSortsMessages(t *testing.T) {
	b := NewBuilder(core.SourceCodex, Options{})
	b.SetID("s")
	b.Add(core.Message{Type: core.MessageAgent, Timestamp: at(5), Text: "later"})
	b.Add(core.Message{Type: core.MessageUser, Timestamp: at(1), Text: "earlier"})

	res, err := b.Finish()
	require.NoError(t, err)
	assert.Equal(t, "earlier", res.Transcript.Messages[0].Text)
	assert.Equal(t, "later", res.Transcript.Messages[1].Text)
}

func TestFinishValidationFailure(t *testing.T) {
	b := NewBuilder(core.SourceCodex, Options{})
	b.SetID("s")
	b.Add(core.Message{Type: core.MessageToolCall, Timestamp: at(1), CallID: "c1"})

	_, err := b.Finish()
	require.Error(t, err)
	assert.ErrorIs(t, err, core.ErrInvalidTranscript)
}

func TestFinishCostUsesPrimaryModel(t *testing.T) {
	table := pricing.NewTable(pricing.Entry{
		Model:   "openai/gpt-5",
		Pricing: pricing.Pricing{Input: pricing.Rate{Base: 1}},
	})
	b := NewBuilder(core.SourceCodex, Options{Pricing: table})
	b.SetID("s")
	b.SetModel("gpt-5")
	b.Add(core.Message{Type: core.MessageUser, Timestamp: at(0), Text: "go"})
	b.Add(core.Message{Type: core.MessageAgent, Timestamp: at(1), Text: "first"})
	b.AddUsage("", core.Usage{InputTokens: 20})
	b.SetModel("o9-unpriced")
	b.Add(core.Message{Type: core.MessageAgent, Timestamp: at(2), Text: "second"})
	b.AddUsage("", core.Usage{InputTokens: 20})

	res, err := b.Finish()
	require.NoError(t, err)
	tr := res.Transcript

	assert.Equal(t, "openai/gpt-5", tr.Model)
	require.Len(t, tr.ModelUsage, 2)
	assert.InDelta(t, 20, tr.ModelUsage[0].CostUSD, 1e-9)
	assert.Zero(t, tr.ModelUsage[1].CostUSD)
	assert.InDelta(t, 40, tr.CostUSD, 1e-9)
}

func TestModelUsageFirstSeenOrder(t *testing.T) {
	b := NewBuilder(core.SourceOpenCode, Options{})
	b.SetID("s")
	b.Add(core.Message{Type: core.MessageAgent, Timestamp: at(1), Text: "a", Model: "anthropic/claude-sonnet-4"})
	b.AddUsage("anthropic/claude-sonnet-4", core.Usage{OutputTokens: 1})
	b.AddUsage("gpt-5", core.Usage{OutputTokens: 2})
	b.AddUsage("anthropic/claude-sonnet-4", core.Usage{OutputTokens: 3})

	res, err := b.Finish()
	require.NoError(t, err)
	tr := res.Transcript
	require.Len(t, tr.ModelUsage, 2)
	assert.Equal(t, "anthropic/claude-sonnet-4", tr.ModelUsage[0].Model)
	assert.Equal(t, int64(4), tr.ModelUsage[0].Usage.OutputTokens)
	assert.Equal(t, "openai/gpt-5", tr.ModelUsage[1].Model)
	assert.Equal(t, int64(6), tr.Usage.OutputTokens)
	assert.Zero(t, tr.CostUSD)
}
