package core

// Transformer derives a new Transcript from t. Implementations must not
// mutate t; callers may keep using the original after the call.
type Transformer interface {
	Transform(t *Transcript) (*Transcript, error)
}

// Chain applies transformers in order, feeding each the previous output and
// stopping at the first error. With no transformers t is returned as is.
func Chain(t *Transcript, transformers ...Transformer) (*Transcript, error) {
	out := t
	for _, tr := range transformers {
		next, err := tr.Transform(out)
		if err != nil {
			return nil, err
		}
		out = next
	}
	return out, nil
}
