package reader

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"
	"time"

	"github.com/tidwall/gjson"
)

// Lines calls fn for every non-blank line of a JSONL payload. Lines have no
// size cap, so inline base64 images of any size are kept. The slice passed to
// fn is only valid for the duration of the call.
func Lines(data []byte, fn func(line []byte)) error {
	for len(data) > 0 {
		line := data
		if i := bytes.IndexByte(data, '\n'); i >= 0 {
			line, data = data[:i], data[i+1:]
		} else {
			data = nil
		}
		line = bytes.TrimSpace(line)
		if len(line) == 0 {
			continue
		}
		fn(line)
	}
	return nil
}

// ParseTime parses an RFC 3339 timestamp, or a number of epoch milliseconds
// given as a string. Anything else yields the zero time.
func ParseTime(s string) time.Time {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}
	}
	if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return t.UTC()
	}
	if ms, err := strconv.ParseInt(s, 10, 64); err == nil {
		return Millis(ms)
	}
	return time.Time{}
}

// Millis converts epoch milliseconds to a UTC time. Non-positive values
// yield the zero time.
func Millis(ms int64) time.Time {
	if ms <= 0 {
		return time.Time{}
	}
	return time.UnixMilli(ms).UTC()
}

// JSONValue decodes a string that may hold embedded JSON (tool arguments are
// often serialized twice). Objects and arrays are decoded; anything else is
// returned unchanged.
func JSONValue(s string) any {
	trimmed := strings.TrimSpace(s)
	if trimmed == "" || (trimmed[0] != '{' && trimmed[0] != '[') || !gjson.Valid(trimmed) {
		return s
	}
	var v any
	if err := json.Unmarshal([]byte(trimmed), &v); err != nil {
		return s
	}
	return v
}

// NormalizeModel returns model with a provider prefix. Names that already
// carry one are returned as is; otherwise the provider is inferred from the
// model family.
func NormalizeModel(model string) string {
	model = strings.TrimSpace(model)
	if model == "" || strings.Contains(model, "/") {
		return model
	}
	lower := strings.ToLower(model)
	switch {
	case strings.Contains(lower, "claude"):
		return "anthropic/" + model
	case strings.Contains(lower, "gemini"):
		return "google/" + model
	default:
		return "openai/" + model
	}
}

// WithProvider joins an explicit provider id and model name.
func WithProvider(provider, model string) string {
	model = strings.TrimSpace(model)
	if model == "" || provider == "" || strings.Contains(model, "/") {
		return NormalizeModel(model)
	}
	return provider + "/" + model
}
