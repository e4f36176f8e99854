package core

// Usage holds token counters. InputTokens includes CachedInputTokens;
// CacheWriteTokens are counted separately.
type Usage struct {
	InputTokens           int64 `json:"inputTokens"`
	CachedInputTokens     int64 `json:"cachedInputTokens"`
	CacheWriteTokens      int64 `json:"cacheWriteTokens,omitempty"`
	OutputTokens          int64 `json:"outputTokens"`
	ReasoningOutputTokens int64 `json:"reasoningOutputTokens"`
	TotalTokens           int64 `json:"totalTokens"`
}

// Add accumulates the counts from other into u. Negative counters in other
// are ignored so the running totals never decrease.
func (u *Usage) Add(other Usage) {
	u.InputTokens += nonNeg(other.InputTokens)
	u.CachedInputTokens += nonNeg(other.CachedInputTokens)
	u.CacheWriteTokens += nonNeg(other.CacheWriteTokens)
	u.OutputTokens += nonNeg(other.OutputTokens)
	u.ReasoningOutputTokens += nonNeg(other.ReasoningOutputTokens)
	u.TotalTokens += nonNeg(other.TotalTokens)
}

// Delta returns max(0, u-prev) per field. A counter that went backwards
// between two cumulative snapshots contributes zero.
func (u Usage) Delta(prev Usage) Usage {
	return Usage{
		InputTokens:           nonNeg(u.InputTokens - prev.InputTokens),
		CachedInputTokens:     nonNeg(u.CachedInputTokens - prev.CachedInputTokens),
		CacheWriteTokens:      nonNeg(u.CacheWriteTokens - prev.CacheWriteTokens),
		OutputTokens:          nonNeg(u.OutputTokens - prev.OutputTokens),
		ReasoningOutputTokens: nonNeg(u.ReasoningOutputTokens - prev.ReasoningOutputTokens),
		TotalTokens:           nonNeg(u.TotalTokens - prev.TotalTokens),
	}
}

// IsZero reports whether every counter is zero.
func (u Usage) IsZero() bool {
	return u == Usage{}
}

func nonNeg(n int64) int64 {
	if n < 0 {
		return 0
	}
	return n
}
