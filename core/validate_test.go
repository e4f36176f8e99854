package core

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var t0 = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func validTranscript() *Transcript {
	return &Transcript{
		ID:        "sess-1",
		Source:    SourceCodex,
		Timestamp: t0,
		Messages: []Message{
			{Type: MessageUser, Timestamp: t0, Text: "hi"},
			{Type: MessageAgent, Timestamp: t0.Add(time.Second), Text: "hello"},
		},
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(tr *Transcript)
		wantErr string
	}{
		{name: "valid", mutate: func(*Transcript) {}},
		{name: "empty id", mutate: func(tr *Transcript) { tr.ID = "" }, wantErr: "id is empty"},
		{name: "unknown source", mutate: func(tr *Transcript) { tr.Source = "vim" }, wantErr: "unknown source"},
		{name: "no messages", mutate: func(tr *Transcript) { tr.Messages = nil }, wantErr: "no messages"},
		{name: "negative cost", mutate: func(tr *Transcript) { tr.CostUSD = -1 }, wantErr: "cost"},
		{
			name:    "tool call without name",
			mutate:  func(tr *Transcript) { tr.Messages[1] = Message{Type: MessageToolCall, Timestamp: t0} },
			wantErr: "tool call without tool name",
		},
		{
			name: "out of order",
			mutate: func(tr *Transcript) {
				tr.Messages[1].Timestamp = t0.Add(-time.Minute)
			},
			wantErr: "chronological",
		},
		{
			name: "bad image ref",
			mutate: func(tr *Transcript) {
				tr.Messages[1] = Message{Type: MessageImage, Timestamp: t0, Image: &BlobRef{SHA256: "xyz"}}
			},
			wantErr: "image without blob reference",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tr := validTranscript()
			tt.mutate(tr)
			err := Validate(tr)
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrInvalidTranscript)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestNormalize(t *testing.T) {
	tr := &Transcript{
		ID:      "x",
		Source:  SourcePi,
		Preview: "  hello \n",
		Messages: []Message{
			{Type: MessageAgent, Timestamp: t0.Add(2 * time.Second), Text: "b"},
			{Type: MessageToolCall, ToolName: ToolBash},
			{Type: MessageUser, Timestamp: t0, Text: "a"},
		},
	}
	Normalize(tr)

	require.Len(t, tr.Messages, 3)
	assert.Equal(t, "a", tr.Messages[0].Text)
	assert.Equal(t, "b", tr.Messages[1].Text)
	assert.Equal(t, ToolBash, tr.Messages[2].ToolName, "inherits previous timestamp, stable order")
	assert.Equal(t, t0, tr.Timestamp)
	assert.Equal(t, "hello", tr.Preview)
	assert.Equal(t, 3, tr.Stats.MessageCount)
	assert.NoError(t, Validate(tr))
}

func TestCloneIsDeep(t *testing.T) {
	code := 1
	tr := validTranscript()
	tr.Usage = &Usage{InputTokens: 10}
	tr.Messages = append(tr.Messages, Message{
		Type:     MessageToolCall,
		ToolName: ToolRead,
		Input:    map[string]any{"file_path": "a"},
		Output:   map[string]any{"file": map[string]any{"content": "x"}, "names": []any{"a"}},
		ExitCode: &code,
	})

	cp := tr.Clone()
	cp.Usage.InputTokens = 99
	cp.Messages[2].Input.(map[string]any)["file_path"] = "b"
	cp.Messages[2].Output.(map[string]any)["file"].(map[string]any)["content"] = "y"
	*cp.Messages[2].ExitCode = 2

	assert.Equal(t, int64(10), tr.Usage.InputTokens)
	assert.Equal(t, "a", tr.Messages[2].Input.(map[string]any)["file_path"])
	assert.Equal(t, "x", tr.Messages[2].Output.(map[string]any)["file"].(map[string]any)["content"])
	assert.Equal(t, 1, *tr.Messages[2].ExitCode)
	assert.True(t, strings.HasPrefix(cp.ID, "sess"))
}
