package engine

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/granaflow/grana/internal/common"
	"github.com/granaflow/grana/internal/model"
	"github.com/granaflow/grana/internal/service"
)

var _ service.LearnedPatternStore = (*MockPatternStore)(nil)

// MockPatternStore is an in-memory LearnedPatternStore for testing.
type MockPatternStore struct {
	mu       sync.Mutex
	patterns map[string]*model.LearnedPattern // keyed userID + "\x00" + normalized
	nextID   int64

	// FailFind and FailUpsert force errors to exercise degradation paths.
	FailFind   error
	FailUpsert error

	// FailRecordUseOnce fails the next usage bump only, exercising the
	// retry path without blocking it forever.
	FailRecordUseOnce error

	// Calls counts invocations per method name.
	Calls map[string]int
}

// NewMockPatternStore creates an empty mock store.
func NewMockPatternStore() *MockPatternStore {
	return &MockPatternStore{
		patterns: make(map[string]*model.LearnedPattern),
		nextID:   1,
		Calls:    make(map[string]int),
	}
}

func mockKey(userID, normalized string) string {
	return userID + "\x00" + normalized
}

func (m *MockPatternStore) record(method string) {
	m.Calls[method]++
}

// CallCount returns how many times a method was invoked.
func (m *MockPatternStore) CallCount(method string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.Calls[method]
}

// UpsertLearnedPattern implements service.LearnedPatternStore.
func (m *MockPatternStore) UpsertLearnedPattern(_ context.Context, pattern *model.LearnedPattern) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.record("UpsertLearnedPattern")

	if m.FailUpsert != nil {
		return m.FailUpsert
	}

	key := mockKey(pattern.UserID, pattern.NormalizedDescription)
	now := time.Now().UTC()

	if existing, ok := m.patterns[key]; ok && existing.IsActive {
		existing.Description = pattern.Description
		existing.Category = pattern.Category
		existing.Subcategory = pattern.Subcategory
		existing.Confidence = pattern.Confidence
		existing.SourceType = pattern.SourceType
		existing.UseCount++
		existing.LastUsedAt = now
		*pattern = *existing
		return nil
	}

	stored := *pattern
	stored.ID = m.nextID
	m.nextID++
	stored.UseCount = 1
	stored.IsActive = true
	stored.LastUsedAt = now
	stored.FirstLearnedAt = now
	m.patterns[key] = &stored
	*pattern = stored

	return nil
}

// RecordLearnedPatternUse implements service.LearnedPatternStore.
func (m *MockPatternStore) RecordLearnedPatternUse(_ context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.record("RecordLearnedPatternUse")

	if m.FailRecordUseOnce != nil {
		err := m.FailRecordUseOnce
		m.FailRecordUseOnce = nil
		return err
	}

	for _, p := range m.patterns {
		if p.ID == id && p.IsActive {
			p.UseCount++
			p.LastUsedAt = time.Now().UTC()
			return nil
		}
	}
	return fmt.Errorf("learned pattern %d: %w", id, common.ErrNotFound)
}

// DeactivateLearnedPattern implements service.LearnedPatternStore.
func (m *MockPatternStore) DeactivateLearnedPattern(_ context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.record("DeactivateLearnedPattern")

	for key, p := range m.patterns {
		if p.ID == id && p.IsActive {
			p.IsActive = false
			delete(m.patterns, key)
			m.patterns[key+"\x00inactive"] = p
			return nil
		}
	}
	return fmt.Errorf("learned pattern %d: %w", id, common.ErrNotFound)
}

// ListActiveLearnedPatterns implements service.LearnedPatternStore.
func (m *MockPatternStore) ListActiveLearnedPatterns(_ context.Context, userID string) ([]model.LearnedPattern, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.record("ListActiveLearnedPatterns")

	var out []model.LearnedPattern
	for _, p := range m.patterns {
		if p.UserID == userID && p.IsActive {
			out = append(out, *p)
		}
	}
	return out, nil
}

// FindLearnedPattern implements service.LearnedPatternStore.
func (m *MockPatternStore) FindLearnedPattern(_ context.Context, userID, normalized string) (*model.LearnedPattern, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.record("FindLearnedPattern")

	if m.FailFind != nil {
		return nil, m.FailFind
	}

	if p, ok := m.patterns[mockKey(userID, normalized)]; ok && p.IsActive {
		out := *p
		return &out, nil
	}
	return nil, fmt.Errorf("learned pattern for %q: %w", normalized, common.ErrNotFound)
}
