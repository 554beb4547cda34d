// Package engine implements the core classification engine for categorizing
// bank-statement transactions.
package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"strings"
	"time"

	"github.com/granaflow/grana/internal/common"
	"github.com/granaflow/grana/internal/dictionary"
	"github.com/granaflow/grana/internal/matcher"
	"github.com/granaflow/grana/internal/model"
	"github.com/granaflow/grana/internal/normalize"
	"github.com/granaflow/grana/internal/service"
)

// Confidence-bucket thresholds. These are the single source of truth for
// every consumer of classification results; UI layers flag anything below
// MediumConfidenceMin for review.
const (
	// HighConfidenceMin is the lower bound of the high-confidence bucket.
	HighConfidenceMin = 80
	// MediumConfidenceMin is the lower bound of the medium-confidence bucket.
	MediumConfidenceMin = 60
)

// Learned-pattern confidence policy.
const (
	// LearnedConfidenceBase is the confidence assigned when a pattern is
	// first learned or re-learned with a different category.
	LearnedConfidenceBase = 75
	// LearnedConfidenceStep is added on each identical re-confirmation,
	// capped at 100.
	LearnedConfidenceStep = 5
)

// Batch sizing bounds.
const (
	// DefaultBatchSize is the chunk size used when none is configured.
	DefaultBatchSize = 100
	// MaxBatchSize caps the configured chunk size so a single chunk cannot
	// run long enough to threaten caller timeouts.
	MaxBatchSize = 500
	// DefaultMaxConcurrentChunks bounds chunk parallelism.
	DefaultMaxConcurrentChunks = 3
)

// ErrNothingToLearn indicates a description that normalizes to nothing, so
// no learned pattern can be keyed on it.
var ErrNothingToLearn = errors.New("description normalizes to empty, nothing to learn")

// NeedsReview reports whether a confidence value falls in the low bucket
// that should be flagged for manual review.
func NeedsReview(confidence int) bool {
	return confidence < MediumConfidenceMin
}

// Config holds configuration options for the classification engine.
type Config struct {
	BatchSize           int
	MaxConcurrentChunks int
	// FeatureRunnerUps is how many runner-up matched tokens are included in
	// FeaturesUsed for transparency.
	FeatureRunnerUps int
	// UsageUpdateTimeout bounds the best-effort learned-pattern usage
	// bookkeeping that runs off the request path.
	UsageUpdateTimeout time.Duration
}

// DefaultConfig returns the default configuration.
func DefaultConfig() Config {
	return Config{
		BatchSize:           DefaultBatchSize,
		MaxConcurrentChunks: DefaultMaxConcurrentChunks,
		FeatureRunnerUps:    2,
		UsageUpdateTimeout:  5 * time.Second,
	}
}

// ClassificationEngine orchestrates lookup order: learned pattern first,
// then dictionary match, then the default category. The dictionary store is
// injected at construction so tests can run with a minimal synthetic set.
type ClassificationEngine struct {
	patterns service.LearnedPatternStore
	matcher  *matcher.Matcher
	norm     *normalize.Normalizer
	config   Config
}

// New creates a classification engine with default configuration.
func New(patterns service.LearnedPatternStore, dict *dictionary.Store) *ClassificationEngine {
	return NewWithConfig(patterns, dict, DefaultConfig())
}

// NewWithConfig creates a classification engine with custom configuration.
// BatchSize is clamped to [1, MaxBatchSize].
func NewWithConfig(patterns service.LearnedPatternStore, dict *dictionary.Store, config Config) *ClassificationEngine {
	if config.BatchSize < 1 {
		config.BatchSize = DefaultBatchSize
	}
	if config.BatchSize > MaxBatchSize {
		config.BatchSize = MaxBatchSize
	}
	if config.MaxConcurrentChunks < 1 {
		config.MaxConcurrentChunks = DefaultMaxConcurrentChunks
	}
	if config.FeatureRunnerUps < 0 {
		config.FeatureRunnerUps = 0
	}
	if config.UsageUpdateTimeout <= 0 {
		config.UsageUpdateTimeout = 5 * time.Second
	}

	return &ClassificationEngine{
		patterns: patterns,
		matcher:  matcher.New(dict),
		norm:     dict.Normalizer(),
		config:   config,
	}
}

// Classify assigns a category to a single transaction. Unclassifiable input
// resolves to the default category; only a malformed transaction (missing
// description) is an error.
func (e *ClassificationEngine) Classify(ctx context.Context, txn model.Transaction, userID, userLocation string) (model.ClassificationResult, error) {
	if err := txn.Validate(); err != nil {
		return model.ClassificationResult{}, err
	}

	normalized := e.norm.Normalize(txn.Description)

	if normalized != "" && userID != "" && e.patterns != nil {
		pattern, err := e.patterns.FindLearnedPattern(ctx, userID, normalized)
		switch {
		case err == nil:
			e.recordPatternUse(pattern)
			return model.ClassificationResult{
				Description:     txn.Description,
				Category:        pattern.Category,
				Subcategory:     pattern.Subcategory,
				Confidence:      pattern.Confidence,
				Method:          model.MethodLearned,
				FeaturesUsed:    []string{normalized},
				LearnedFromUser: true,
			}, nil
		case errors.Is(err, common.ErrNotFound):
			// Expected steady state for novel descriptions.
		default:
			slog.Warn("Learned pattern lookup failed, falling back to dictionary",
				"user_id", userID,
				"error", err)
		}
	}

	if candidates := e.matcher.Match(normalized, userLocation); len(candidates) > 0 {
		top := candidates[0]
		return model.ClassificationResult{
			Description:  txn.Description,
			Category:     top.Entry.Category,
			Subcategory:  top.Entry.Subcategory,
			Confidence:   int(math.Round(top.Entry.ConfidenceModifier * 100)),
			Method:       model.MethodForEntryType(top.Entry.Type),
			FeaturesUsed: e.featuresUsed(candidates),
		}, nil
	}

	return model.ClassificationResult{
		Description: txn.Description,
		Category:    model.CategoryOther,
		Confidence:  0,
		Method:      model.MethodDefault,
	}, nil
}

// featuresUsed collects the winning matched token plus a few runner-ups.
func (e *ClassificationEngine) featuresUsed(candidates []matcher.Candidate) []string {
	limit := 1 + e.config.FeatureRunnerUps
	if limit > len(candidates) {
		limit = len(candidates)
	}

	features := make([]string, 0, limit)
	seen := make(map[string]bool, limit)
	for _, c := range candidates[:limit] {
		if seen[c.MatchedToken] {
			continue
		}
		seen[c.MatchedToken] = true
		features = append(features, c.MatchedToken)
	}
	return features
}

// recordPatternUse bumps the usage counter and last-used timestamp off the
// request path. The bump is a counter-only write keyed by row ID, so a user
// correction landing between the lookup and the bump keeps its category.
// Failures are logged and swallowed; classification correctness is never
// blocked by telemetry bookkeeping.
func (e *ClassificationEngine) recordPatternUse(pattern *model.LearnedPattern) {
	id := pattern.ID
	userID := pattern.UserID

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), e.config.UsageUpdateTimeout)
		defer cancel()

		err := common.WithRetry(ctx, func() error {
			err := e.patterns.RecordLearnedPatternUse(ctx, id)
			if errors.Is(err, common.ErrNotFound) {
				// The pattern was forgotten while the bump was in flight;
				// retrying cannot bring it back.
				return &common.RetryableError{Err: err, Retryable: false}
			}
			return err
		}, common.RetryOptions{MaxAttempts: 2})
		if err != nil && !errors.Is(err, common.ErrNotFound) {
			slog.Warn("Failed to record learned pattern use",
				"pattern_id", id,
				"user_id", userID,
				"error", err)
		}
	}()
}

// Learn records a user confirmation or correction as a learned pattern.
// Identical re-confirmation raises the stored confidence by
// LearnedConfidenceStep (capped at 100); a correction to a different
// category restarts at LearnedConfidenceBase under the same key.
func (e *ClassificationEngine) Learn(ctx context.Context, userID string, txn model.Transaction, category, subcategory string) (*model.LearnedPattern, error) {
	if err := txn.Validate(); err != nil {
		return nil, err
	}
	if strings.TrimSpace(userID) == "" {
		return nil, fmt.Errorf("%w: userID", common.ErrMissingConfig)
	}
	if strings.TrimSpace(category) == "" {
		return nil, fmt.Errorf("%w: category", common.ErrMissingConfig)
	}

	normalized := e.norm.Normalize(txn.Description)
	if normalized == "" {
		return nil, fmt.Errorf("%w: %q", ErrNothingToLearn, txn.Description)
	}

	pattern := &model.LearnedPattern{
		UserID:                userID,
		Description:           txn.Description,
		NormalizedDescription: normalized,
		Category:              category,
		Subcategory:           subcategory,
		Confidence:            LearnedConfidenceBase,
		SourceType:            model.SourceUserCorrection,
	}

	existing, err := e.patterns.FindLearnedPattern(ctx, userID, normalized)
	switch {
	case err == nil && existing.Category == category:
		confidence := existing.Confidence + LearnedConfidenceStep
		if confidence < LearnedConfidenceBase {
			confidence = LearnedConfidenceBase
		}
		if confidence > 100 {
			confidence = 100
		}
		pattern.Confidence = confidence
		pattern.SourceType = model.SourceUserConfirmed
	case err == nil:
		// Category changed: restart at base confidence under the same key.
	case errors.Is(err, common.ErrNotFound):
		// First time seeing this description.
	default:
		return nil, fmt.Errorf("failed to look up existing pattern: %w", err)
	}

	if err := e.patterns.UpsertLearnedPattern(ctx, pattern); err != nil {
		return nil, fmt.Errorf("failed to save learned pattern: %w", err)
	}

	slog.Debug("Learned pattern saved",
		"user_id", userID,
		"normalized", normalized,
		"category", category,
		"confidence", pattern.Confidence,
		"use_count", pattern.UseCount)

	return pattern, nil
}

// Forget soft-deletes a learned pattern by ID.
func (e *ClassificationEngine) Forget(ctx context.Context, id int64) error {
	return e.patterns.DeactivateLearnedPattern(ctx, id)
}
