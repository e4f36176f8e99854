package json

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sonnes/unitrans/core"
)

func TestRender(t *testing.T) {
	ts := time.Date(2025, 9, 10, 12, 0, 0, 0, time.UTC)
	tr := &core.Transcript{
		ID:        "s1",
		Source:    core.SourcePi,
		Timestamp: ts,
		Preview:   "a <b> & c",
		Messages:  []core.Message{{Type: core.MessageUser, Timestamp: ts, Text: "a <b> & c"}},
	}

	tests := []struct {
		name     string
		indent   bool
		newlines int
	}{
		{"compact", false, 1},
		{"indented", true, 10},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			require.NoError(t, (&Renderer{Indent: tt.indent}).Render(&buf, tr))

			out := buf.String()
			assert.Contains(t, out, `"preview":`)
			assert.Contains(t, out, "a <b> & c")
			assert.GreaterOrEqual(t, strings.Count(out, "\n"), tt.newlines)

			var got core.Transcript
			require.NoError(t, json.Unmarshal(buf.Bytes(), &got))
			assert.Equal(t, "s1", got.ID)
			assert.Equal(t, core.SourcePi, got.Source)
		})
	}
}
