// Package service defines the interfaces for the classifier's persistence
// collaborators.
package service

import (
	"context"

	"github.com/granaflow/grana/internal/model"
)

// LearnedPatternStore is the persistence boundary for user-learned
// classification rules. Any store satisfying these operations can back
// the engine.
//
// Upsert is keyed on (UserID, NormalizedDescription) over active rows:
// re-upserting an existing key reinforces the row (use count, last-used
// timestamp) instead of creating a duplicate, which keeps concurrent
// submissions from racing into two active rules for one key.
type LearnedPatternStore interface {
	// UpsertLearnedPattern creates or reinforces a pattern. On return the
	// pattern's ID, UseCount and timestamps reflect the stored row.
	UpsertLearnedPattern(ctx context.Context, pattern *model.LearnedPattern) error

	// RecordLearnedPatternUse bumps the usage counter and last-used
	// timestamp of an active pattern by ID. It never touches the
	// classification fields, so a concurrent user correction cannot be
	// overwritten by usage bookkeeping.
	RecordLearnedPatternUse(ctx context.Context, id int64) error

	// DeactivateLearnedPattern soft-deletes a pattern by ID. The row is kept
	// for audit history.
	DeactivateLearnedPattern(ctx context.Context, id int64) error

	// ListActiveLearnedPatterns returns all active patterns for a user.
	ListActiveLearnedPatterns(ctx context.Context, userID string) ([]model.LearnedPattern, error)

	// FindLearnedPattern returns the active pattern for the user and
	// normalized description, or an error wrapping common.ErrNotFound.
	FindLearnedPattern(ctx context.Context, userID, normalizedDescription string) (*model.LearnedPattern, error)
}
