package model

// ClassificationMethod records which lookup stage produced a result.
type ClassificationMethod string

const (
	// MethodLearned means a user-specific learned pattern matched.
	MethodLearned ClassificationMethod = "learned"
	// MethodMerchant means a merchant dictionary entry matched.
	MethodMerchant ClassificationMethod = "merchant"
	// MethodBankingPattern means a banking-pattern dictionary entry matched.
	MethodBankingPattern ClassificationMethod = "banking_pattern"
	// MethodKeyword means a generic keyword entry matched.
	MethodKeyword ClassificationMethod = "keyword"
	// MethodUtility means a utility-provider dictionary entry matched.
	MethodUtility ClassificationMethod = "utility"
	// MethodDefault means nothing matched and the default category was assigned.
	MethodDefault ClassificationMethod = "default"
)

// CategoryOther is the default category for unclassifiable transactions.
const CategoryOther = "Outros"

// ClassificationResult is produced fresh on every classification call.
// It is not persisted unless the user promotes it to a LearnedPattern.
type ClassificationResult struct {
	Description     string               `json:"description"`
	Category        string               `json:"category"`
	Subcategory     string               `json:"subcategory,omitempty"`
	Confidence      int                  `json:"confidence"`
	Method          ClassificationMethod `json:"method"`
	FeaturesUsed    []string             `json:"features_used,omitempty"`
	LearnedFromUser bool                 `json:"learned_from_user"`
}

// MethodForEntryType maps a dictionary entry type to its result method tag.
func MethodForEntryType(t EntryType) ClassificationMethod {
	switch t {
	case EntryMerchant:
		return MethodMerchant
	case EntryBankingPattern:
		return MethodBankingPattern
	case EntryKeyword:
		return MethodKeyword
	case EntryUtility:
		return MethodUtility
	}
	return MethodDefault
}
