package model

import (
	"fmt"
)

// EntryType selects the matching strategy a dictionary entry participates in.
type EntryType string

const (
	// EntryMerchant matches a specific merchant by key or alias.
	EntryMerchant EntryType = "merchant"
	// EntryBankingPattern matches recurring banking operations (fees, transfers, interest).
	EntryBankingPattern EntryType = "banking_pattern"
	// EntryKeyword matches generic category keywords as a fallback.
	EntryKeyword EntryType = "keyword"
	// EntryUtility matches utility providers (power, water, telecom).
	EntryUtility EntryType = "utility"
)

// ValidEntryType reports whether t is one of the known entry types.
func ValidEntryType(t EntryType) bool {
	switch t {
	case EntryMerchant, EntryBankingPattern, EntryKeyword, EntryUtility:
		return true
	}
	return false
}

// DictionaryEntry is one curated rule in the static classification knowledge base.
// Entries are loaded once at startup and never mutated afterwards.
type DictionaryEntry struct {
	Key                string    `json:"key"`
	EntityName         string    `json:"entity_name"`
	Category           string    `json:"category"`
	Subcategory        string    `json:"subcategory,omitempty"`
	Aliases            []string  `json:"aliases,omitempty"`
	Keywords           []string  `json:"keywords,omitempty"`
	ConfidenceModifier float64   `json:"confidence_modifier"`
	Priority           int       `json:"priority"`
	Type               EntryType `json:"entry_type"`
	StateSpecific      bool      `json:"state_specific,omitempty"`
	States             []string  `json:"states,omitempty"`
}

// Validate enforces the dictionary entry invariants.
func (e *DictionaryEntry) Validate() error {
	if e.Key == "" {
		return fmt.Errorf("dictionary entry: missing key")
	}
	if e.Category == "" {
		return fmt.Errorf("dictionary entry %q: missing category", e.Key)
	}
	if !ValidEntryType(e.Type) {
		return fmt.Errorf("dictionary entry %q: unknown entry type %q", e.Key, e.Type)
	}
	if e.ConfidenceModifier < 0 || e.ConfidenceModifier > 1 {
		return fmt.Errorf("dictionary entry %q: confidence modifier %.2f outside [0,1]", e.Key, e.ConfidenceModifier)
	}
	if e.Priority < 0 {
		return fmt.Errorf("dictionary entry %q: negative priority %d", e.Key, e.Priority)
	}
	if e.StateSpecific && len(e.States) == 0 {
		return fmt.Errorf("dictionary entry %q: state specific but no states listed", e.Key)
	}
	return nil
}

// AppliesTo reports whether the entry is usable for a user in the given state.
// Entries without state restrictions apply everywhere.
func (e *DictionaryEntry) AppliesTo(userLocation string) bool {
	if !e.StateSpecific {
		return true
	}
	for _, s := range e.States {
		if s == userLocation {
			return true
		}
	}
	return false
}
