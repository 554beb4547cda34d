// Package matcher searches the dictionary store for classification
// candidates for a normalized transaction description.
package matcher

import (
	"sort"
	"strings"

	"github.com/granaflow/grana/internal/dictionary"
	"github.com/granaflow/grana/internal/model"
	"github.com/granaflow/grana/internal/normalize"
)

// MinAliasLength guards substring matching against false positives on
// very short aliases.
const MinAliasLength = 3

// MatchKind identifies which strategy produced a candidate.
type MatchKind string

const (
	// KindExact means the normalized description equals a key or alias.
	KindExact MatchKind = "exact"
	// KindSubstring means the description contains an alias.
	KindSubstring MatchKind = "substring"
	// KindKeywordOverlap means at least one entry keyword appears in the
	// description's token set.
	KindKeywordOverlap MatchKind = "keyword_overlap"
)

// specificity ranks match kinds for tie-breaking (higher is more specific).
func specificity(k MatchKind) int {
	switch k {
	case KindExact:
		return 3
	case KindSubstring:
		return 2
	case KindKeywordOverlap:
		return 1
	}
	return 0
}

// entryTypeRank orders entry types for tie-breaking at equal priority and
// confidence: merchants dominate banking patterns, which dominate utilities
// and generic keywords.
func entryTypeRank(t model.EntryType) int {
	switch t {
	case model.EntryMerchant:
		return 4
	case model.EntryBankingPattern:
		return 3
	case model.EntryUtility:
		return 2
	case model.EntryKeyword:
		return 1
	}
	return 0
}

// Candidate is one qualifying dictionary entry with the strategy and token
// that matched it.
type Candidate struct {
	Entry        model.DictionaryEntry
	Kind         MatchKind
	MatchedToken string
}

// Matcher evaluates normalized descriptions against an immutable dictionary
// store. It is safe for concurrent use.
type Matcher struct {
	store *dictionary.Store

	// keywords holds, per entry index, the entry's keywords in normalized
	// form so token comparison matches the description pipeline.
	keywords [][]string
}

// New creates a matcher over the given store.
func New(store *dictionary.Store) *Matcher {
	m := &Matcher{
		store:    store,
		keywords: make([][]string, store.Len()),
	}

	norm := store.Normalizer()
	for i := 0; i < store.Len(); i++ {
		entry := store.Entry(i)
		kws := make([]string, 0, len(entry.Keywords))
		for _, kw := range entry.Keywords {
			if nk := norm.Normalize(kw); nk != "" {
				kws = append(kws, nk)
			}
		}
		m.keywords[i] = kws
	}

	return m
}

// Match returns every qualifying candidate for the normalized description,
// ordered best-first: priority desc, confidence modifier desc, match-kind
// specificity, entry-type rank, then key for determinism. An empty
// description or no match yields an empty result, never an error.
func (m *Matcher) Match(normalized, userLocation string) []Candidate {
	if normalized == "" {
		return nil
	}

	tokens := normalize.TokenSet(normalized)
	candidates := make([]Candidate, 0, 4)

	for i := 0; i < m.store.Len(); i++ {
		entry := m.store.Entry(i)
		if !entry.AppliesTo(userLocation) {
			continue
		}

		if c, ok := m.matchEntry(i, entry, normalized, tokens); ok {
			candidates = append(candidates, c)
		}
	}

	sortCandidates(candidates)
	return candidates
}

// matchEntry applies the strategies valid for the entry's type, most
// specific first, and returns at most one candidate per entry.
func (m *Matcher) matchEntry(i int, entry model.DictionaryEntry, normalized string, tokens map[string]bool) (Candidate, bool) {
	aliases := m.store.AliasesOf(i)

	for _, alias := range aliases {
		if alias == normalized {
			return Candidate{Entry: entry, Kind: KindExact, MatchedToken: alias}, true
		}
	}

	for _, alias := range aliases {
		if len(alias) >= MinAliasLength && strings.Contains(normalized, alias) {
			return Candidate{Entry: entry, Kind: KindSubstring, MatchedToken: alias}, true
		}
	}

	switch entry.Type {
	case model.EntryBankingPattern, model.EntryKeyword:
		for _, kw := range m.keywords[i] {
			if tokens[kw] {
				return Candidate{Entry: entry, Kind: KindKeywordOverlap, MatchedToken: kw}, true
			}
		}
	case model.EntryMerchant, model.EntryUtility:
		// Merchants and utilities match only by key or alias.
	}

	return Candidate{}, false
}

func sortCandidates(candidates []Candidate) {
	sort.SliceStable(candidates, func(a, b int) bool {
		ca, cb := candidates[a], candidates[b]
		if ca.Entry.Priority != cb.Entry.Priority {
			return ca.Entry.Priority > cb.Entry.Priority
		}
		if ca.Entry.ConfidenceModifier != cb.Entry.ConfidenceModifier {
			return ca.Entry.ConfidenceModifier > cb.Entry.ConfidenceModifier
		}
		if specificity(ca.Kind) != specificity(cb.Kind) {
			return specificity(ca.Kind) > specificity(cb.Kind)
		}
		if entryTypeRank(ca.Entry.Type) != entryTypeRank(cb.Entry.Type) {
			return entryTypeRank(ca.Entry.Type) > entryTypeRank(cb.Entry.Type)
		}
		return ca.Entry.Key < cb.Entry.Key
	})
}
