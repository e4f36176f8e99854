package reader

import "github.com/charmbracelet/log"

// Input is one raw session handed to Batch.
type Input struct {
	Name string
	Data []byte
}

// Converted pairs a successful conversion with the input it came from.
type Converted struct {
	Name   string
	Result *Result
}

// Batch decodes inputs one after another. Inputs that fail or hold no
// convertible content are logged and skipped; they never abort the batch.
func Batch(d Decoder, inputs []Input, opts Options) []Converted {
	var out []Converted
	for _, in := range inputs {
		res, err := d.Decode(in.Data, opts)
		if err != nil {
			log.Warn("skipping session", "input", in.Name, "err", err)
			continue
		}
		if res == nil {
			log.Warn("skipping session with no content", "input", in.Name)
			continue
		}
		out = append(out, Converted{Name: in.Name, Result: res})
	}
	return out
}
