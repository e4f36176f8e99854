package core

const maxWalkDepth = 32

// WalkStrings returns a copy of v with fn applied to every string leaf,
// recursing through maps and slices. Values of any other type are returned
// unchanged; v itself is never modified.
func WalkStrings(v any, fn func(string) string) any {
	return walkDepth(v, fn, 0)
}

func walkDepth(v any, fn func(string) string, depth int) any {
	if depth > maxWalkDepth {
		return v
	}
	switch val := v.(type) {
	case string:
		return fn(val)
	case map[string]any:
		out := make(map[string]any, len(val))
		for k, child := range val {
			out[k] = walkDepth(child, fn, depth+1)
		}
		return out
	case []any:
		out := make([]any, len(val))
		for i, child := range val {
			out[i] = walkDepth(child, fn, depth+1)
		}
		return out
	case []string:
		out := make([]string, len(val))
		for i, s := range val {
			out[i] = fn(s)
		}
		return out
	default:
		return v
	}
}
