package reader

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLinesSkipsBlank(t *testing.T) {
	var got []string
	err := Lines([]byte("a\n\n  \nb\r\nc"), func(line []byte) {
		got = append(got, string(line))
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b", "c"}, got)
}

func TestLinesOversizedRecord(t *testing.T) {
	if testing.Short() {
		t.Skip("allocates a 65 MB record")
	}
	big := bytes.Repeat([]byte("x"), 65<<20)
	data := append(append([]byte("first\n"), big...), []byte("\nlast\n")...)

	var sizes []int
	err := Lines(data, func(line []byte) {
		sizes = append(sizes, len(line))
	})
	require.NoError(t, err)
	assert.Equal(t, []int{5, 65 << 20, 4}, sizes)
}

func TestParseTime(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want time.Time
	}{
		{"rfc3339", "2025-03-01T10:00:00.5Z", time.Date(2025, 3, 1, 10, 0, 0, 5e8, time.UTC)},
		{"offset normalized to utc", "2025-03-01T12:00:00+02:00", time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)},
		{"epoch millis", "1740823200000", time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)},
		{"garbage", "yesterday", time.Time{}},
		{"empty", "", time.Time{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.True(t, tt.want.Equal(ParseTime(tt.in)), "got %v", ParseTime(tt.in))
		})
	}
}

func TestJSONValue(t *testing.T) {
	assert.Equal(t, map[string]any{"a": 1.0}, JSONValue(`{"a":1}`))
	assert.Equal(t, []any{"x"}, JSONValue(` ["x"] `))
	assert.Equal(t, "plain", JSONValue("plain"))
	assert.Equal(t, `{"broken"`, JSONValue(`{"broken"`))
	assert.Equal(t, "42", JSONValue("42"))
}

func TestNormalizeModel(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"gpt-5-codex", "openai/gpt-5-codex"},
		{"claude-sonnet-4-5", "anthropic/claude-sonnet-4-5"},
		{"gemini-2.5-pro", "google/gemini-2.5-pro"},
		{"openrouter/qwen3", "openrouter/qwen3"},
		{"", ""},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, NormalizeModel(tt.in))
		})
	}

	assert.Equal(t, "zai/glm-4.6", WithProvider("zai", "glm-4.6"))
	assert.Equal(t, "openai/gpt-5", WithProvider("", "gpt-5"))
}
