// Package dictionary holds the static classification knowledge base:
// curated merchant, banking-pattern, keyword and utility entries.
package dictionary

import (
	"fmt"

	"github.com/granaflow/grana/internal/common"
	"github.com/granaflow/grana/internal/model"
	"github.com/granaflow/grana/internal/normalize"
)

// Store is an immutable, read-only set of dictionary entries with a
// normalized exact-lookup index. It is built once at startup and safely
// shared across concurrent classification calls without locking.
type Store struct {
	entries []model.DictionaryEntry

	// exact maps a normalized key or alias to the indexes of entries it
	// resolves to. Multiple entries may claim the same alias; tie-breaks
	// happen in the matcher.
	exact map[string][]int

	// normalizedAliases holds, per entry index, the entry key plus all
	// aliases in normalized form, for substring matching.
	normalizedAliases [][]string

	norm *normalize.Normalizer
}

// New builds a Store from curated entries, validating every entry and
// rejecting duplicate keys within an entry-type namespace.
func New(entries []model.DictionaryEntry, norm *normalize.Normalizer) (*Store, error) {
	if norm == nil {
		norm = normalize.New()
	}

	seen := make(map[string]bool, len(entries))
	for i := range entries {
		if err := entries[i].Validate(); err != nil {
			return nil, fmt.Errorf("%w: %v", common.ErrInvalidDictionary, err)
		}
		ns := string(entries[i].Type) + ":" + entries[i].Key
		if seen[ns] {
			return nil, fmt.Errorf("%w: duplicate key %q in %s namespace",
				common.ErrDuplicateEntry, entries[i].Key, entries[i].Type)
		}
		seen[ns] = true
	}

	s := &Store{
		entries:           make([]model.DictionaryEntry, len(entries)),
		exact:             make(map[string][]int),
		normalizedAliases: make([][]string, len(entries)),
		norm:              norm,
	}
	copy(s.entries, entries)

	for i := range s.entries {
		e := &s.entries[i]
		aliases := make([]string, 0, len(e.Aliases)+1)

		key := norm.Normalize(e.Key)
		if key != "" {
			aliases = append(aliases, key)
			s.exact[key] = append(s.exact[key], i)
		}
		for _, a := range e.Aliases {
			na := norm.Normalize(a)
			if na == "" {
				continue
			}
			aliases = append(aliases, na)
			s.exact[na] = append(s.exact[na], i)
		}
		s.normalizedAliases[i] = aliases
	}

	return s, nil
}

// Len returns the number of entries in the store.
func (s *Store) Len() int {
	return len(s.entries)
}

// Entries returns a copy of all entries.
func (s *Store) Entries() []model.DictionaryEntry {
	out := make([]model.DictionaryEntry, len(s.entries))
	copy(out, s.entries)
	return out
}

// Entry returns the entry at index i.
func (s *Store) Entry(i int) model.DictionaryEntry {
	return s.entries[i]
}

// ExactLookup returns the indexes of entries whose normalized key or alias
// equals the normalized description.
func (s *Store) ExactLookup(normalized string) []int {
	return s.exact[normalized]
}

// AliasesOf returns the normalized key and aliases of the entry at index i.
func (s *Store) AliasesOf(i int) []string {
	return s.normalizedAliases[i]
}

// Normalizer returns the normalizer the store was indexed with. The matcher
// must use the same one so lookups and index agree.
func (s *Store) Normalizer() *normalize.Normalizer {
	return s.norm
}
