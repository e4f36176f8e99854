// Package manifest manages an output directory of converted transcripts: one
// JSON file per transcript, a content-addressed blobs/ directory, and the
// manifest.json index that lists every stored session.
package manifest

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/sonnes/unitrans/core"
)

// Entry is the index record for one stored transcript.
type Entry struct {
	ID        string      `json:"id"`
	Source    core.Source `json:"source"`
	Preview   string      `json:"preview"`
	Summary   string      `json:"summary,omitempty"`
	Model     string      `json:"model,omitempty"`
	Timestamp time.Time   `json:"timestamp"`
	Usage     *core.Usage `json:"usage,omitempty"`
	CostUSD   float64     `json:"costUsd"`
	Stats     core.Stats  `json:"stats"`
	Href      string      `json:"href"`
}

// NewEntry extracts the index fields of t. href is the transcript file's
// path relative to the manifest.
func NewEntry(t *core.Transcript, href string) Entry {
	e := Entry{
		ID:        t.ID,
		Source:    t.Source,
		Preview:   t.Preview,
		Summary:   t.Summary,
		Model:     t.Model,
		Timestamp: t.Timestamp,
		CostUSD:   t.CostUSD,
		Stats:     t.Stats,
		Href:      href,
	}
	if t.Usage != nil {
		u := *t.Usage
		e.Usage = &u
	}
	return e
}

// Manifest holds the list of session metadata entries.
type Manifest struct {
	Entries []Entry `json:"entries"`
}

// ReadFile reads a manifest from disk. Returns an empty Manifest if the file
// does not exist.
func ReadFile(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return &Manifest{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read manifest: %w", err)
	}

	var m Manifest
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("parse manifest %s: %w", path, err)
	}
	return &m, nil
}

// Upsert adds or replaces an entry matched by ID. After upserting, the
// entries are sorted newest-first by Timestamp.
func (m *Manifest) Upsert(entry Entry) {
	for i, e := range m.Entries {
		if e.ID == entry.ID {
			m.Entries[i] = entry
			m.sort()
			return
		}
	}
	m.Entries = append(m.Entries, entry)
	m.sort()
}

func (m *Manifest) sort() {
	sort.SliceStable(m.Entries, func(i, j int) bool {
		return m.Entries[i].Timestamp.After(m.Entries[j].Timestamp)
	})
}

// WriteFile writes the manifest to disk atomically.
func (m *Manifest) WriteFile(path string) error {
	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return fmt.Errorf("encode manifest: %w", err)
	}
	return writeFileAtomic(path, append(data, '\n'))
}

// writeFileAtomic writes data through a temporary file and rename so readers
// never see a partial file.
func writeFileAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}

	tmp, err := os.CreateTemp(dir, ".unitrans-*.tmp")
	if err != nil {
		return err
	}
	tmpPath := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return err
	}

	return os.Rename(tmpPath, path)
}
