package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/granaflow/grana/internal/common"
	"github.com/granaflow/grana/internal/model"
	"github.com/granaflow/grana/internal/service"
)

// Ensure SQLiteStorage implements the persistence boundary.
var _ service.LearnedPatternStore = (*SQLiteStorage)(nil)

// UpsertLearnedPattern creates or reinforces a learned pattern. The conflict
// target is the partial unique index on (user_id, normalized_description)
// over active rows: a second upsert for the same key updates the category and
// confidence, bumps use_count and refreshes last_used_at instead of creating
// a duplicate active row.
func (s *SQLiteStorage) UpsertLearnedPattern(ctx context.Context, pattern *model.LearnedPattern) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateLearnedPattern(pattern); err != nil {
		return err
	}

	if pattern.SourceType == "" {
		pattern.SourceType = model.SourceUserCorrection
	}

	now := time.Now().UTC()

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO learned_patterns (
			user_id, description, normalized_description,
			category, subcategory, confidence,
			use_count, last_used_at, first_learned_at,
			is_active, source_type
		) VALUES (?, ?, ?, ?, ?, ?, 1, ?, ?, 1, ?)
		ON CONFLICT(user_id, normalized_description) WHERE is_active = 1
		DO UPDATE SET
			description = excluded.description,
			category = excluded.category,
			subcategory = excluded.subcategory,
			confidence = excluded.confidence,
			source_type = excluded.source_type,
			use_count = use_count + 1,
			last_used_at = excluded.last_used_at
	`, pattern.UserID, pattern.Description, pattern.NormalizedDescription,
		pattern.Category, nullString(pattern.Subcategory), pattern.Confidence,
		now, now, string(pattern.SourceType))
	if err != nil {
		return fmt.Errorf("failed to upsert learned pattern: %w", err)
	}

	// Read the row back so the caller sees the stored id, use count and
	// timestamps.
	stored, err := s.FindLearnedPattern(ctx, pattern.UserID, pattern.NormalizedDescription)
	if err != nil {
		return fmt.Errorf("failed to read back learned pattern: %w", err)
	}
	*pattern = *stored

	return nil
}

// RecordLearnedPatternUse bumps use_count and last_used_at of an active
// pattern. The classification fields are left alone: a correction written
// between a lookup and this bump must survive the bump.
func (s *SQLiteStorage) RecordLearnedPatternUse(ctx context.Context, id int64) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateID(id); err != nil {
		return err
	}

	result, err := s.db.ExecContext(ctx, `
		UPDATE learned_patterns
		SET use_count = use_count + 1, last_used_at = ?
		WHERE id = ? AND is_active = 1
	`, time.Now().UTC(), id)
	if err != nil {
		return fmt.Errorf("failed to record learned pattern use: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check usage update result: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("learned pattern %d: %w", id, common.ErrNotFound)
	}

	return nil
}

// DeactivateLearnedPattern soft-deletes a pattern. The row survives for
// audit history.
func (s *SQLiteStorage) DeactivateLearnedPattern(ctx context.Context, id int64) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateID(id); err != nil {
		return err
	}

	result, err := s.db.ExecContext(ctx, `
		UPDATE learned_patterns
		SET is_active = 0, last_used_at = ?
		WHERE id = ? AND is_active = 1
	`, time.Now().UTC(), id)
	if err != nil {
		return fmt.Errorf("failed to deactivate learned pattern: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check deactivation result: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("learned pattern %d: %w", id, common.ErrNotFound)
	}

	return nil
}

// ListActiveLearnedPatterns returns all active patterns for a user, most
// recently used first.
func (s *SQLiteStorage) ListActiveLearnedPatterns(ctx context.Context, userID string) ([]model.LearnedPattern, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(userID, "userID"); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, user_id, description, normalized_description,
			category, subcategory, confidence, use_count,
			last_used_at, first_learned_at, is_active, source_type
		FROM learned_patterns
		WHERE user_id = ? AND is_active = 1
		ORDER BY last_used_at DESC, id DESC
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list learned patterns: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var patterns []model.LearnedPattern
	for rows.Next() {
		pattern, scanErr := scanLearnedPattern(rows)
		if scanErr != nil {
			return nil, scanErr
		}
		patterns = append(patterns, *pattern)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate learned patterns: %w", err)
	}

	return patterns, nil
}

// FindLearnedPattern returns the active pattern for the user and normalized
// description, or an error wrapping common.ErrNotFound.
func (s *SQLiteStorage) FindLearnedPattern(ctx context.Context, userID, normalizedDescription string) (*model.LearnedPattern, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(userID, "userID"); err != nil {
		return nil, err
	}
	if err := validateString(normalizedDescription, "normalizedDescription"); err != nil {
		return nil, err
	}

	row := s.db.QueryRowContext(ctx, `
		SELECT id, user_id, description, normalized_description,
			category, subcategory, confidence, use_count,
			last_used_at, first_learned_at, is_active, source_type
		FROM learned_patterns
		WHERE user_id = ? AND normalized_description = ? AND is_active = 1
	`, userID, normalizedDescription)

	pattern, err := scanLearnedPattern(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("learned pattern for %q: %w", normalizedDescription, common.ErrNotFound)
	}
	if err != nil {
		return nil, err
	}

	return pattern, nil
}

// scanner abstracts sql.Row and sql.Rows for shared scanning.
type scanner interface {
	Scan(dest ...any) error
}

func scanLearnedPattern(row scanner) (*model.LearnedPattern, error) {
	var pattern model.LearnedPattern
	var subcategory sql.NullString
	var sourceType string
	var isActive int

	err := row.Scan(
		&pattern.ID,
		&pattern.UserID,
		&pattern.Description,
		&pattern.NormalizedDescription,
		&pattern.Category,
		&subcategory,
		&pattern.Confidence,
		&pattern.UseCount,
		&pattern.LastUsedAt,
		&pattern.FirstLearnedAt,
		&isActive,
		&sourceType,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan learned pattern: %w", err)
	}

	pattern.Subcategory = subcategory.String
	pattern.IsActive = isActive == 1
	pattern.SourceType = model.LearnedSource(sourceType)

	return &pattern, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
