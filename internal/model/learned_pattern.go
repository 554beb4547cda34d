package model

import "time"

// LearnedSource indicates how a learned pattern was created.
type LearnedSource string

const (
	// SourceUserCorrection indicates the user corrected an engine classification.
	SourceUserCorrection LearnedSource = "USER_CORRECTION"
	// SourceUserConfirmed indicates the user confirmed an engine classification as-is.
	SourceUserConfirmed LearnedSource = "USER_CONFIRMED"
	// SourceImport indicates the pattern was bulk-imported from an earlier system.
	SourceImport LearnedSource = "IMPORT"
)

// LearnedPattern is a per-user classification rule created from a confirmed
// or corrected classification. It takes precedence over the static dictionary
// for future identical descriptions.
//
// At most one active pattern exists per (UserID, NormalizedDescription).
// Patterns are soft-deleted (IsActive=false), never removed, so the audit
// trail survives user cleanup.
type LearnedPattern struct {
	ID                    int64         `json:"id"`
	UserID                string        `json:"user_id"`
	Description           string        `json:"description"`
	NormalizedDescription string        `json:"normalized_description"`
	Category              string        `json:"category"`
	Subcategory           string        `json:"subcategory,omitempty"`
	Confidence            int           `json:"confidence"`
	UseCount              int           `json:"use_count"`
	LastUsedAt            time.Time     `json:"last_used_at"`
	FirstLearnedAt        time.Time     `json:"first_learned_at"`
	IsActive              bool          `json:"is_active"`
	SourceType            LearnedSource `json:"source_type"`
}
