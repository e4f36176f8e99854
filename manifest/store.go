package manifest

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/log"

	"github.com/sonnes/unitrans/core"
)

const (
	manifestFile = "manifest.json"
	blobsDir     = "blobs"
)

// Store writes converted transcripts under Dir.
type Store struct {
	Dir string
}

// NewStore returns a Store rooted at dir.
func NewStore(dir string) *Store {
	return &Store{Dir: dir}
}

// ManifestPath returns the path of the index file.
func (s *Store) ManifestPath() string {
	return filepath.Join(s.Dir, manifestFile)
}

// Save writes t to <Dir>/<id>.json, every blob to <Dir>/blobs/<sha256>, and
// upserts the manifest entry. It returns the transcript file path. Blobs
// already on disk are not rewritten.
func (s *Store) Save(t *core.Transcript, blobs core.BlobMap) (string, error) {
	for sha, b := range blobs {
		if err := s.saveBlob(sha, b); err != nil {
			return "", err
		}
	}

	name := fileName(t.ID) + ".json"
	data, err := json.MarshalIndent(t, "", "  ")
	if err != nil {
		return "", fmt.Errorf("encode transcript %s: %w", t.ID, err)
	}
	path := filepath.Join(s.Dir, name)
	if err := writeFileAtomic(path, append(data, '\n')); err != nil {
		return "", fmt.Errorf("write transcript %s: %w", t.ID, err)
	}

	m, err := ReadFile(s.ManifestPath())
	if err != nil {
		return "", err
	}
	m.Upsert(NewEntry(t, name))
	if err := m.WriteFile(s.ManifestPath()); err != nil {
		return "", fmt.Errorf("write manifest: %w", err)
	}
	return path, nil
}

func (s *Store) saveBlob(sha string, b core.Blob) error {
	path := filepath.Join(s.Dir, blobsDir, fileName(sha))
	if _, err := os.Stat(path); err == nil {
		log.Debug("blob already stored", "sha256", sha)
		return nil
	}
	if err := writeFileAtomic(path, b.Data); err != nil {
		return fmt.Errorf("write blob %s: %w", sha, err)
	}
	return nil
}

// LoadBlob reads a stored blob by digest.
func (s *Store) LoadBlob(sha string) ([]byte, error) {
	data, err := os.ReadFile(filepath.Join(s.Dir, blobsDir, fileName(sha)))
	if err != nil {
		return nil, fmt.Errorf("read blob %s: %w", sha, err)
	}
	return data, nil
}

// fileName makes an id safe to use as a single path element.
func fileName(id string) string {
	name := strings.Map(func(r rune) rune {
		switch r {
		case '/', '\\', ':', 0:
			return '_'
		}
		return r
	}, id)
	if name == "" || name == "." || name == ".." {
		return "_"
	}
	return name
}
