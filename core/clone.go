package core

// Clone returns a deep copy of t. Tool inputs and outputs are copied through
// CloneValue, so mutating the copy never affects t.
func (t *Transcript) Clone() *Transcript {
	if t == nil {
		return nil
	}
	out := *t
	if t.Usage != nil {
		u := *t.Usage
		out.Usage = &u
	}
	if t.Git != nil {
		g := *t.Git
		out.Git = &g
	}
	if t.ModelUsage != nil {
		out.ModelUsage = append([]ModelUsage(nil), t.ModelUsage...)
	}
	if t.Messages != nil {
		out.Messages = make([]Message, len(t.Messages))
		for i, m := range t.Messages {
			out.Messages[i] = m.clone()
		}
	}
	return &out
}

func (m Message) clone() Message {
	out := m
	out.Input = CloneValue(m.Input)
	out.Output = CloneValue(m.Output)
	if m.Images != nil {
		out.Images = append([]BlobRef(nil), m.Images...)
	}
	if m.Image != nil {
		ref := *m.Image
		out.Image = &ref
	}
	if m.ExitCode != nil {
		code := *m.ExitCode
		out.ExitCode = &code
	}
	return out
}

// CloneValue deep-copies the JSON-like shapes used for tool input and output
// (maps, slices, scalars). Other values are returned as is.
func CloneValue(v any) any {
	switch val := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(val))
		for k, child := range val {
			out[k] = CloneValue(child)
		}
		return out
	case []any:
		out := make([]any, len(val))
		for i, child := range val {
			out[i] = CloneValue(child)
		}
		return out
	case []string:
		return append([]string(nil), val...)
	default:
		return v
	}
}
