package dictionary

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/granaflow/grana/internal/common"
	"github.com/granaflow/grana/internal/model"
	"github.com/granaflow/grana/internal/normalize"
)

func validEntry() model.DictionaryEntry {
	return model.DictionaryEntry{
		Key:                "ifood",
		EntityName:         "iFood",
		Category:           "Alimentação",
		Subcategory:        "Delivery",
		Aliases:            []string{"ifd ifood"},
		ConfidenceModifier: 0.95,
		Priority:           90,
		Type:               model.EntryMerchant,
	}
}

func TestNew_ValidatesEntries(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*model.DictionaryEntry)
		wantErr string
	}{
		{
			name:    "missing key",
			mutate:  func(e *model.DictionaryEntry) { e.Key = "" },
			wantErr: "missing key",
		},
		{
			name:    "missing category",
			mutate:  func(e *model.DictionaryEntry) { e.Category = "" },
			wantErr: "missing category",
		},
		{
			name:    "unknown entry type",
			mutate:  func(e *model.DictionaryEntry) { e.Type = "regex" },
			wantErr: "unknown entry type",
		},
		{
			name:    "confidence modifier above one",
			mutate:  func(e *model.DictionaryEntry) { e.ConfidenceModifier = 1.2 },
			wantErr: "outside [0,1]",
		},
		{
			name:    "negative priority",
			mutate:  func(e *model.DictionaryEntry) { e.Priority = -1 },
			wantErr: "negative priority",
		},
		{
			name:    "state specific without states",
			mutate:  func(e *model.DictionaryEntry) { e.StateSpecific = true; e.States = nil },
			wantErr: "no states listed",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			entry := validEntry()
			tt.mutate(&entry)

			_, err := New([]model.DictionaryEntry{entry}, normalize.New())
			require.Error(t, err)
			assert.ErrorIs(t, err, common.ErrInvalidDictionary)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestNew_RejectsDuplicateKeysPerNamespace(t *testing.T) {
	a := validEntry()
	b := validEntry()

	_, err := New([]model.DictionaryEntry{a, b}, normalize.New())
	require.Error(t, err)
	assert.ErrorIs(t, err, common.ErrDuplicateEntry)
}

func TestNew_AllowsSameKeyAcrossNamespaces(t *testing.T) {
	merchant := validEntry()
	keyword := validEntry()
	keyword.Type = model.EntryKeyword
	keyword.Keywords = []string{"ifood"}

	store, err := New([]model.DictionaryEntry{merchant, keyword}, normalize.New())
	require.NoError(t, err)
	assert.Equal(t, 2, store.Len())
}

func TestStore_ExactLookupUsesNormalizedAliases(t *testing.T) {
	entry := validEntry()
	entry.Aliases = []string{"Pão de Açúcar Delivery"}

	store, err := New([]model.DictionaryEntry{entry}, normalize.New())
	require.NoError(t, err)

	// Aliases are indexed in normalized form.
	assert.Len(t, store.ExactLookup("pao de acucar delivery"), 1)
	assert.Empty(t, store.ExactLookup("Pão de Açúcar Delivery"))
	assert.Empty(t, store.ExactLookup("something else"))
}

func TestStore_EntriesReturnsCopy(t *testing.T) {
	store, err := New([]model.DictionaryEntry{validEntry()}, normalize.New())
	require.NoError(t, err)

	entries := store.Entries()
	entries[0].Category = "mutated"

	assert.Equal(t, "Alimentação", store.Entry(0).Category)
}

func TestDefault_EmbeddedDictionary(t *testing.T) {
	store, err := Default(normalize.New())
	require.NoError(t, err)
	assert.Greater(t, store.Len(), 20)

	// The curated set must cover every entry type.
	types := make(map[model.EntryType]bool)
	for _, e := range store.Entries() {
		types[e.Type] = true
	}
	for _, want := range []model.EntryType{model.EntryMerchant, model.EntryBankingPattern, model.EntryKeyword, model.EntryUtility} {
		assert.True(t, types[want], "embedded dictionary missing %s entries", want)
	}
}

func TestLoad_ParsesEntryList(t *testing.T) {
	input := `[
		{
			"key": "uber",
			"entity_name": "Uber",
			"category": "Transporte",
			"confidence_modifier": 0.95,
			"priority": 90,
			"entry_type": "merchant"
		}
	]`

	entries, err := Load(strings.NewReader(input))
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "uber", entries[0].Key)
	assert.Equal(t, model.EntryMerchant, entries[0].Type)
}

func TestLoad_RejectsMalformedJSON(t *testing.T) {
	_, err := Load(strings.NewReader(`{"not": "a list"}`))
	assert.Error(t, err)
}
