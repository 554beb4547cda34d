package dictionary

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/granaflow/grana/internal/model"
	"github.com/granaflow/grana/internal/normalize"
)

//go:embed data/entries.json
var embeddedEntries []byte

// Load parses a JSON array of dictionary entries.
func Load(r io.Reader) ([]model.DictionaryEntry, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read dictionary: %w", err)
	}

	var entries []model.DictionaryEntry
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("failed to parse dictionary: %w", err)
	}

	return entries, nil
}

// LoadFile parses dictionary entries from a JSON file on disk.
func LoadFile(path string) ([]model.DictionaryEntry, error) {
	f, err := os.Open(path) // #nosec G304 -- path comes from user config
	if err != nil {
		return nil, fmt.Errorf("failed to open dictionary file: %w", err)
	}
	defer func() { _ = f.Close() }()

	return Load(f)
}

// Default builds a Store from the embedded curated entry set.
func Default(norm *normalize.Normalizer) (*Store, error) {
	var entries []model.DictionaryEntry
	if err := json.Unmarshal(embeddedEntries, &entries); err != nil {
		return nil, fmt.Errorf("embedded dictionary is corrupt: %w", err)
	}
	return New(entries, norm)
}
