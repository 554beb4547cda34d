package storage

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/granaflow/grana/internal/common"
	"github.com/granaflow/grana/internal/model"
)

func createTestStorage(t *testing.T) *SQLiteStorage {
	t.Helper()

	dbPath := filepath.Join(t.TempDir(), "test.db")
	storage, err := NewSQLiteStorage(dbPath)
	require.NoError(t, err)

	t.Cleanup(func() {
		_ = storage.Close()
	})

	require.NoError(t, storage.Migrate(context.Background()))
	return storage
}

func testPattern(userID, normalized string) *model.LearnedPattern {
	return &model.LearnedPattern{
		UserID:                userID,
		Description:           "PADARIA STELLA 44",
		NormalizedDescription: normalized,
		Category:              "Alimentação",
		Subcategory:           "Padaria",
		Confidence:            75,
		SourceType:            model.SourceUserCorrection,
	}
}

func TestUpsertLearnedPattern_Create(t *testing.T) {
	storage := createTestStorage(t)
	ctx := context.Background()

	pattern := testPattern("user-1", "padaria stella")
	require.NoError(t, storage.UpsertLearnedPattern(ctx, pattern))

	assert.Positive(t, pattern.ID)
	assert.Equal(t, 1, pattern.UseCount)
	assert.True(t, pattern.IsActive)
	assert.False(t, pattern.FirstLearnedAt.IsZero())
	assert.False(t, pattern.LastUsedAt.IsZero())
	assert.Equal(t, model.SourceUserCorrection, pattern.SourceType)
}

func TestUpsertLearnedPattern_ReinforcesExistingKey(t *testing.T) {
	storage := createTestStorage(t)
	ctx := context.Background()

	first := testPattern("user-1", "padaria stella")
	require.NoError(t, storage.UpsertLearnedPattern(ctx, first))

	second := testPattern("user-1", "padaria stella")
	second.Category = "Restaurantes"
	second.Confidence = 80
	second.SourceType = model.SourceUserConfirmed
	require.NoError(t, storage.UpsertLearnedPattern(ctx, second))

	// Same active row, not a duplicate.
	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, 2, second.UseCount)
	assert.Equal(t, "Restaurantes", second.Category)
	assert.Equal(t, 80, second.Confidence)
	assert.Equal(t, model.SourceUserConfirmed, second.SourceType)

	patterns, err := storage.ListActiveLearnedPatterns(ctx, "user-1")
	require.NoError(t, err)
	assert.Len(t, patterns, 1)
}

func TestUpsertLearnedPattern_UsersAreIsolated(t *testing.T) {
	storage := createTestStorage(t)
	ctx := context.Background()

	require.NoError(t, storage.UpsertLearnedPattern(ctx, testPattern("user-1", "padaria stella")))
	require.NoError(t, storage.UpsertLearnedPattern(ctx, testPattern("user-2", "padaria stella")))

	for _, userID := range []string{"user-1", "user-2"} {
		patterns, err := storage.ListActiveLearnedPatterns(ctx, userID)
		require.NoError(t, err)
		require.Len(t, patterns, 1)
		assert.Equal(t, userID, patterns[0].UserID)
		assert.Equal(t, 1, patterns[0].UseCount)
	}
}

func TestUpsertLearnedPattern_Validation(t *testing.T) {
	storage := createTestStorage(t)
	ctx := context.Background()

	tests := []struct {
		name    string
		mutate  func(*model.LearnedPattern)
		wantErr error
	}{
		{
			name:    "missing user ID",
			mutate:  func(p *model.LearnedPattern) { p.UserID = "" },
			wantErr: ErrInvalidPattern,
		},
		{
			name:    "missing normalized description",
			mutate:  func(p *model.LearnedPattern) { p.NormalizedDescription = "" },
			wantErr: ErrInvalidPattern,
		},
		{
			name:    "missing category",
			mutate:  func(p *model.LearnedPattern) { p.Category = "" },
			wantErr: ErrInvalidPattern,
		},
		{
			name:    "confidence above range",
			mutate:  func(p *model.LearnedPattern) { p.Confidence = 101 },
			wantErr: ErrInvalidPattern,
		},
		{
			name:    "confidence below range",
			mutate:  func(p *model.LearnedPattern) { p.Confidence = -1 },
			wantErr: ErrInvalidPattern,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pattern := testPattern("user-1", "padaria stella")
			tt.mutate(pattern)
			err := storage.UpsertLearnedPattern(ctx, pattern)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}

	t.Run("nil pattern", func(t *testing.T) {
		err := storage.UpsertLearnedPattern(ctx, nil)
		assert.ErrorIs(t, err, ErrNilParameter)
	})
}

func TestFindLearnedPattern(t *testing.T) {
	storage := createTestStorage(t)
	ctx := context.Background()

	require.NoError(t, storage.UpsertLearnedPattern(ctx, testPattern("user-1", "padaria stella")))

	t.Run("hit", func(t *testing.T) {
		found, err := storage.FindLearnedPattern(ctx, "user-1", "padaria stella")
		require.NoError(t, err)
		assert.Equal(t, "Alimentação", found.Category)
		assert.Equal(t, "Padaria", found.Subcategory)
	})

	t.Run("miss", func(t *testing.T) {
		_, err := storage.FindLearnedPattern(ctx, "user-1", "posto shell")
		assert.ErrorIs(t, err, common.ErrNotFound)
	})

	t.Run("other user misses", func(t *testing.T) {
		_, err := storage.FindLearnedPattern(ctx, "user-2", "padaria stella")
		assert.ErrorIs(t, err, common.ErrNotFound)
	})
}

func TestRecordLearnedPatternUse(t *testing.T) {
	storage := createTestStorage(t)
	ctx := context.Background()

	pattern := testPattern("user-1", "padaria stella")
	require.NoError(t, storage.UpsertLearnedPattern(ctx, pattern))

	require.NoError(t, storage.RecordLearnedPatternUse(ctx, pattern.ID))

	stored, err := storage.FindLearnedPattern(ctx, "user-1", "padaria stella")
	require.NoError(t, err)
	assert.Equal(t, 2, stored.UseCount)

	// Only the counters move; the classification fields stay untouched.
	assert.Equal(t, "Alimentação", stored.Category)
	assert.Equal(t, "Padaria", stored.Subcategory)
	assert.Equal(t, 75, stored.Confidence)
	assert.Equal(t, model.SourceUserCorrection, stored.SourceType)
}

func TestRecordLearnedPatternUse_PreservesConcurrentCorrection(t *testing.T) {
	storage := createTestStorage(t)
	ctx := context.Background()

	pattern := testPattern("user-1", "padaria stella")
	require.NoError(t, storage.UpsertLearnedPattern(ctx, pattern))

	// A correction lands before a pending usage bump for the same row.
	correction := testPattern("user-1", "padaria stella")
	correction.Category = "Lazer"
	correction.Subcategory = ""
	require.NoError(t, storage.UpsertLearnedPattern(ctx, correction))

	require.NoError(t, storage.RecordLearnedPatternUse(ctx, pattern.ID))

	stored, err := storage.FindLearnedPattern(ctx, "user-1", "padaria stella")
	require.NoError(t, err)
	assert.Equal(t, "Lazer", stored.Category)
	assert.Equal(t, 3, stored.UseCount)
}

func TestRecordLearnedPatternUse_NotFound(t *testing.T) {
	storage := createTestStorage(t)
	ctx := context.Background()

	err := storage.RecordLearnedPatternUse(ctx, 9999)
	assert.ErrorIs(t, err, common.ErrNotFound)

	// Deactivated rows do not accept bumps either.
	pattern := testPattern("user-1", "padaria stella")
	require.NoError(t, storage.UpsertLearnedPattern(ctx, pattern))
	require.NoError(t, storage.DeactivateLearnedPattern(ctx, pattern.ID))

	err = storage.RecordLearnedPatternUse(ctx, pattern.ID)
	assert.ErrorIs(t, err, common.ErrNotFound)
}

func TestRecordLearnedPatternUse_InvalidID(t *testing.T) {
	storage := createTestStorage(t)

	err := storage.RecordLearnedPatternUse(context.Background(), 0)
	assert.ErrorIs(t, err, ErrInvalidID)
}

func TestDeactivateLearnedPattern(t *testing.T) {
	storage := createTestStorage(t)
	ctx := context.Background()

	pattern := testPattern("user-1", "padaria stella")
	require.NoError(t, storage.UpsertLearnedPattern(ctx, pattern))

	require.NoError(t, storage.DeactivateLearnedPattern(ctx, pattern.ID))

	_, err := storage.FindLearnedPattern(ctx, "user-1", "padaria stella")
	assert.ErrorIs(t, err, common.ErrNotFound)

	patterns, err := storage.ListActiveLearnedPatterns(ctx, "user-1")
	require.NoError(t, err)
	assert.Empty(t, patterns)
}

func TestDeactivateLearnedPattern_NotFound(t *testing.T) {
	storage := createTestStorage(t)

	err := storage.DeactivateLearnedPattern(context.Background(), 9999)
	assert.ErrorIs(t, err, common.ErrNotFound)
}

func TestDeactivateLearnedPattern_InvalidID(t *testing.T) {
	storage := createTestStorage(t)

	err := storage.DeactivateLearnedPattern(context.Background(), 0)
	assert.ErrorIs(t, err, ErrInvalidID)
}

func TestUpsertAfterDeactivateCreatesNewActiveRow(t *testing.T) {
	storage := createTestStorage(t)
	ctx := context.Background()

	first := testPattern("user-1", "padaria stella")
	require.NoError(t, storage.UpsertLearnedPattern(ctx, first))
	require.NoError(t, storage.DeactivateLearnedPattern(ctx, first.ID))

	// Re-learning the same key starts a fresh row; the deactivated one
	// stays behind for history.
	second := testPattern("user-1", "padaria stella")
	second.Category = "Restaurantes"
	require.NoError(t, storage.UpsertLearnedPattern(ctx, second))

	assert.NotEqual(t, first.ID, second.ID)
	assert.Equal(t, 1, second.UseCount)
	assert.Equal(t, "Restaurantes", second.Category)
}

func TestListActiveLearnedPatterns_Ordering(t *testing.T) {
	storage := createTestStorage(t)
	ctx := context.Background()

	older := testPattern("user-1", "padaria stella")
	require.NoError(t, storage.UpsertLearnedPattern(ctx, older))

	time.Sleep(10 * time.Millisecond)

	newer := testPattern("user-1", "posto shell")
	newer.Description = "POSTO SHELL 123"
	require.NoError(t, storage.UpsertLearnedPattern(ctx, newer))

	patterns, err := storage.ListActiveLearnedPatterns(ctx, "user-1")
	require.NoError(t, err)
	require.Len(t, patterns, 2)

	assert.Equal(t, "posto shell", patterns[0].NormalizedDescription)
	assert.Equal(t, "padaria stella", patterns[1].NormalizedDescription)
}

func TestListActiveLearnedPatterns_EmptyUser(t *testing.T) {
	storage := createTestStorage(t)

	_, err := storage.ListActiveLearnedPatterns(context.Background(), "  ")
	assert.ErrorIs(t, err, ErrEmptyString)
}

func TestMigrate_Idempotent(t *testing.T) {
	storage := createTestStorage(t)
	ctx := context.Background()

	// Running migrations on an up-to-date database is a no-op.
	require.NoError(t, storage.Migrate(ctx))

	var version int
	require.NoError(t, storage.db.QueryRowContext(ctx, "PRAGMA user_version").Scan(&version))
	assert.Equal(t, ExpectedSchemaVersion, version)
}

func TestNewSQLiteStorage_EmptyPath(t *testing.T) {
	_, err := NewSQLiteStorage("")
	assert.ErrorIs(t, err, ErrEmptyString)
}
