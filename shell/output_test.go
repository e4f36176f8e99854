package shell

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseOutputJSON(t *testing.T) {
	got := ParseOutput(`{"output":"hello\n","metadata":{"exit_code":0,"duration_seconds":0.5}}`)

	assert.Equal(t, "hello\n", got.Stdout)
	require.NotNil(t, got.ExitCode)
	assert.Equal(t, 0, *got.ExitCode)
	require.NotNil(t, got.DurationSeconds)
	assert.Equal(t, 0.5, *got.DurationSeconds)
}

func TestParseOutputHeaderBlock(t *testing.T) {
	tests := []struct {
		name     string
		in       string
		stdout   string
		exitCode int
	}{
		{
			name:     "exit code and wall time",
			in:       "Exit code: 2\nWall time: 1.25 seconds\nOutput:\nboom\n",
			stdout:   "boom\n",
			exitCode: 2,
		},
		{
			name:     "process exited form with leading metadata",
			in:       "Chunk ID: ab12\nWall time: 0.0100 seconds\nProcess exited with code 0\nOriginal token count: 2\nOutput:\nok\n",
			stdout:   "ok\n",
			exitCode: 0,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ParseOutput(tt.in)
			assert.Equal(t, tt.stdout, got.Stdout)
			require.NotNil(t, got.ExitCode)
			assert.Equal(t, tt.exitCode, *got.ExitCode)
			require.NotNil(t, got.DurationSeconds)
		})
	}
}

func TestParseOutputPlainText(t *testing.T) {
	tests := []string{
		"just some text\n",
		"Output:\nno headers before the marker",
		`{"unrelated":"json"}`,
	}
	for _, in := range tests {
		got := ParseOutput(in)
		assert.Equal(t, in, got.Stdout)
		assert.Nil(t, got.ExitCode)
	}
}

func TestParseOutputMap(t *testing.T) {
	got := ParseOutput(map[string]any{
		"stdout":   "out",
		"stderr":   "err",
		"exitCode": float64(1),
	})
	assert.Equal(t, "out", got.Stdout)
	assert.Equal(t, "err", got.Stderr)
	require.NotNil(t, got.ExitCode)
	assert.Equal(t, 1, *got.ExitCode)
	assert.True(t, got.Failed())

	nested := ParseOutput(map[string]any{
		"output":   "x",
		"metadata": map[string]any{"exit_code": float64(0), "duration_seconds": 2.0},
	})
	assert.Equal(t, "x", nested.Stdout)
	assert.False(t, nested.Failed())
	require.NotNil(t, nested.DurationSeconds)
	assert.Equal(t, 2.0, *nested.DurationSeconds)
}

func TestOutputMap(t *testing.T) {
	code := 0
	assert.Equal(t, map[string]any{"stdout": "a", "stderr": "", "exitCode": 0},
		Output{Stdout: "a", ExitCode: &code}.Map())
	assert.Equal(t, map[string]any{"stdout": "", "stderr": ""}, Output{}.Map())
}
