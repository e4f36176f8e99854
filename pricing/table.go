// Package pricing resolves model names against a pricing table and estimates
// the USD cost of accumulated token usage.
package pricing

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// TierThreshold is the token count above which an above-threshold rate, when
// configured, applies.
const TierThreshold = 200_000

// Rate is a per-token USD price. Above200K, when set, bills tokens beyond
// TierThreshold.
type Rate struct {
	Base      float64
	Above200K *float64
}

// Pricing holds the rates for one model.
type Pricing struct {
	Input      Rate
	Output     Rate
	CacheWrite Rate
	CacheRead  Rate
}

// Entry pairs a model key with its pricing.
type Entry struct {
	Model   string
	Pricing Pricing
}

// Table is an ordered pricing table. Order matters for fuzzy lookup: the first
// matching entry wins.
type Table struct {
	entries []Entry
	index   map[string]int
}

// NewTable builds a Table from entries in the given order. A later duplicate
// key replaces the earlier pricing but keeps its position.
func NewTable(entries ...Entry) Table {
	var t Table
	for _, e := range entries {
		t.Set(e.Model, e.Pricing)
	}
	return t
}

// Set adds or replaces the pricing for model.
func (t *Table) Set(model string, p Pricing) {
	if t.index == nil {
		t.index = make(map[string]int)
	}
	if i, ok := t.index[model]; ok {
		t.entries[i].Pricing = p
		return
	}
	t.index[model] = len(t.entries)
	t.entries = append(t.entries, Entry{Model: model, Pricing: p})
}

// Get returns the pricing stored under exactly model.
func (t Table) Get(model string) (Pricing, bool) {
	i, ok := t.index[model]
	if !ok {
		return Pricing{}, false
	}
	return t.entries[i].Pricing, true
}

// Entries returns the table entries in order.
func (t Table) Entries() []Entry {
	return t.entries
}

// Len returns the number of entries.
func (t Table) Len() int {
	return len(t.entries)
}

// fileRates is the on-disk shape of one model, in USD per million tokens.
type fileRates struct {
	Input               *float64 `yaml:"input"`
	Output              *float64 `yaml:"output"`
	CacheWrite          *float64 `yaml:"cache_write"`
	CacheRead           *float64 `yaml:"cache_read"`
	InputAbove200K      *float64 `yaml:"input_above_200k"`
	OutputAbove200K     *float64 `yaml:"output_above_200k"`
	CacheWriteAbove200K *float64 `yaml:"cache_write_above_200k"`
	CacheReadAbove200K  *float64 `yaml:"cache_read_above_200k"`
}

// UnmarshalYAML decodes a mapping of model name to per-million rates,
// preserving the mapping's key order:
//
//	gpt-5:
//	  input: 1.25
//	  output: 10
//	  cache_read: 0.125
//	claude-sonnet-4-5:
//	  input: 3
//	  input_above_200k: 6
func (t *Table) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind == yaml.DocumentNode && len(node.Content) == 1 {
		node = node.Content[0]
	}
	if node.Kind != yaml.MappingNode {
		return fmt.Errorf("pricing table: expected a mapping, got %v", node.Tag)
	}
	for i := 0; i+1 < len(node.Content); i += 2 {
		key, val := node.Content[i], node.Content[i+1]
		var r fileRates
		if err := val.Decode(&r); err != nil {
			return fmt.Errorf("pricing table: model %q: %w", key.Value, err)
		}
		t.Set(key.Value, r.pricing())
	}
	return nil
}

func (r fileRates) pricing() Pricing {
	return Pricing{
		Input:      perToken(r.Input, r.InputAbove200K),
		Output:     perToken(r.Output, r.OutputAbove200K),
		CacheWrite: perToken(r.CacheWrite, r.CacheWriteAbove200K),
		CacheRead:  perToken(r.CacheRead, r.CacheReadAbove200K),
	}
}

func perToken(base, above *float64) Rate {
	var r Rate
	if base != nil {
		r.Base = *base / 1_000_000
	}
	if above != nil {
		v := *above / 1_000_000
		r.Above200K = &v
	}
	return r
}

// Parse decodes a YAML pricing table.
func Parse(data []byte) (Table, error) {
	var t Table
	if err := yaml.Unmarshal(data, &t); err != nil {
		return Table{}, fmt.Errorf("parse pricing table: %w", err)
	}
	return t, nil
}

// LoadFile reads a YAML pricing table from path.
func LoadFile(path string) (Table, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Table{}, fmt.Errorf("read pricing table: %w", err)
	}
	return Parse(data)
}
