package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestUsageAddIgnoresNegative(t *testing.T) {
	u := Usage{InputTokens: 10, OutputTokens: 5}
	u.Add(Usage{InputTokens: 3, OutputTokens: -7, TotalTokens: 3})
	assert.Equal(t, Usage{InputTokens: 13, OutputTokens: 5, TotalTokens: 3}, u)
}

// A counter reset mid-stream loses the post-reset tokens: the delta of a
// snapshot lower than the previous one is clamped to zero. This is a known
// approximation of the delta fallback.
func TestUsageDeltaClampsCounterReset(t *testing.T) {
	prev := Usage{InputTokens: 1000, OutputTokens: 200, TotalTokens: 1200}
	now := Usage{InputTokens: 150, OutputTokens: 260, TotalTokens: 410}

	d := now.Delta(prev)
	assert.Equal(t, int64(0), d.InputTokens)
	assert.Equal(t, int64(60), d.OutputTokens)
	assert.Equal(t, int64(0), d.TotalTokens)
}

func TestUsageDeltaRepeatedSnapshot(t *testing.T) {
	s := Usage{InputTokens: 10, CachedInputTokens: 4, OutputTokens: 2}
	assert.True(t, s.Delta(s).IsZero())
}

func TestGitContextMerge(t *testing.T) {
	known := &GitContext{Branch: "main"}
	got := known.Merge(&GitContext{Branch: "dev", Commit: "abc"})
	assert.Equal(t, &GitContext{Branch: "main", Commit: "abc"}, got)

	var none *GitContext
	assert.Nil(t, none.Merge(nil))
	assert.Equal(t, &GitContext{Repository: "r"}, none.Merge(&GitContext{Repository: "r"}))
}
