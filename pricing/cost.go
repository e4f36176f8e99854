package pricing

import (
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/sonnes/unitrans/core"
)

// ErrPricingNotFound is returned by Cost when no table entry resolves.
var ErrPricingNotFound = errors.New("pricing not found")

// providerPrefixes are tried in order when the raw model name has no match.
var providerPrefixes = []string{
	"openai/",
	"anthropic/",
	"google/",
	"openrouter/",
	"xai/",
	"mistral/",
	"deepseek/",
}

// Resolve finds the pricing for model. Resolution order, first hit wins:
// exact name; name with each known provider prefix prepended; name with its
// provider prefix stripped; first entry whose key and the bare name are
// case-insensitive substrings of each other.
func (t Table) Resolve(model string) (Entry, bool) {
	if model == "" || t.Len() == 0 {
		return Entry{}, false
	}
	if p, ok := t.Get(model); ok {
		return Entry{Model: model, Pricing: p}, true
	}
	for _, prefix := range providerPrefixes {
		if p, ok := t.Get(prefix + model); ok {
			return Entry{Model: prefix + model, Pricing: p}, true
		}
	}
	bare := StripProvider(model)
	if bare != model {
		if p, ok := t.Get(bare); ok {
			return Entry{Model: bare, Pricing: p}, true
		}
	}
	return t.fuzzy(bare)
}

func (t Table) fuzzy(name string) (Entry, bool) {
	lower := strings.ToLower(name)
	var hits []Entry
	for _, e := range t.entries {
		key := strings.ToLower(e.Model)
		if strings.Contains(key, lower) || strings.Contains(lower, key) {
			hits = append(hits, e)
		}
	}
	if len(hits) == 0 {
		return Entry{}, false
	}
	if len(hits) > 1 {
		names := make([]string, len(hits))
		for i, h := range hits {
			names[i] = h.Model
		}
		log.Warn("ambiguous pricing match", "model", name, "chosen", hits[0].Model, "candidates", names)
	} else {
		log.Debug("fuzzy pricing match", "model", name, "entry", hits[0].Model)
	}
	return hits[0], true
}

// StripProvider removes a known provider prefix ("openai/gpt-5" -> "gpt-5").
func StripProvider(model string) string {
	for _, prefix := range providerPrefixes {
		if rest, ok := strings.CutPrefix(model, prefix); ok {
			return rest
		}
	}
	return model
}

// Estimate returns the cost of u for model, or zero when model does not
// resolve. This is the lenient form used while decoding.
func Estimate(t Table, model string, u core.Usage) float64 {
	e, ok := t.Resolve(model)
	if !ok {
		return 0
	}
	return e.Pricing.Cost(u)
}

// Cost is the strict form of Estimate for callers where pricing is
// mandatory. It fails with ErrPricingNotFound when model does not resolve.
func Cost(t Table, model string, u core.Usage) (float64, error) {
	e, ok := t.Resolve(model)
	if !ok {
		return 0, fmt.Errorf("%w for model %q", ErrPricingNotFound, model)
	}
	return e.Pricing.Cost(u), nil
}

// Cost bills non-cached input, output plus reasoning output, cache writes and
// cache reads independently, each at its tiered rate, and sums them.
func (p Pricing) Cost(u core.Usage) float64 {
	nonCached := u.InputTokens - u.CachedInputTokens
	if nonCached < 0 {
		nonCached = 0
	}
	return p.Input.Tiered(nonCached) +
		p.Output.Tiered(u.OutputTokens+u.ReasoningOutputTokens) +
		p.CacheWrite.Tiered(u.CacheWriteTokens) +
		p.CacheRead.Tiered(u.CachedInputTokens)
}

// Tiered bills n tokens: up to TierThreshold at Base, the rest at Above200K
// when set, otherwise still at Base.
func (r Rate) Tiered(n int64) float64 {
	if n <= 0 {
		return 0
	}
	if n <= TierThreshold {
		return float64(n) * r.Base
	}
	above := r.Base
	if r.Above200K != nil {
		above = *r.Above200K
	}
	return TierThreshold*r.Base + float64(n-TierThreshold)*above
}
