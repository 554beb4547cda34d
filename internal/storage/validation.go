package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/granaflow/grana/internal/model"
)

// Validation errors.
var (
	ErrNilContext     = errors.New("context cannot be nil")
	ErrEmptyString    = errors.New("string parameter cannot be empty")
	ErrNilParameter   = errors.New("parameter cannot be nil")
	ErrInvalidPattern = errors.New("invalid learned pattern")
	ErrInvalidID      = errors.New("id must be positive")
)

// validateContext ensures the context is not nil.
func validateContext(ctx context.Context) error {
	if ctx == nil {
		return ErrNilContext
	}
	return nil
}

// validateString ensures a string parameter is not empty.
func validateString(s string, paramName string) error {
	if strings.TrimSpace(s) == "" {
		return fmt.Errorf("%w: %s", ErrEmptyString, paramName)
	}
	return nil
}

// validateID ensures a row identifier is positive.
func validateID(id int64) error {
	if id <= 0 {
		return fmt.Errorf("%w: %d", ErrInvalidID, id)
	}
	return nil
}

// validateLearnedPattern validates a learned pattern before writing it.
func validateLearnedPattern(p *model.LearnedPattern) error {
	if p == nil {
		return fmt.Errorf("%w: pattern", ErrNilParameter)
	}
	if p.UserID == "" {
		return fmt.Errorf("%w: missing user ID", ErrInvalidPattern)
	}
	if p.NormalizedDescription == "" {
		return fmt.Errorf("%w: missing normalized description", ErrInvalidPattern)
	}
	if p.Category == "" {
		return fmt.Errorf("%w: missing category", ErrInvalidPattern)
	}
	if p.Confidence < 0 || p.Confidence > 100 {
		return fmt.Errorf("%w: confidence %d outside [0,100]", ErrInvalidPattern, p.Confidence)
	}
	return nil
}
