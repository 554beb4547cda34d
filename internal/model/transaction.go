// Package model defines the core domain models used throughout the application.
package model

import (
	"errors"
	"strings"
)

// TransactionType indicates the direction of a transaction.
type TransactionType string

const (
	// TypeIncome represents money entering the account.
	TypeIncome TransactionType = "income"
	// TypeExpense represents money leaving the account.
	TypeExpense TransactionType = "expense"
)

// Transaction is the classifier's input: a raw bank-statement line.
// Amount and Date are optional metadata that may be available depending
// on the statement source.
type Transaction struct {
	Description string          `json:"description"`
	Type        TransactionType `json:"type"`
	Amount      *float64        `json:"amount,omitempty"`
	Date        string          `json:"date,omitempty"`
}

// ErrMissingDescription indicates a transaction without a usable description.
// This is a caller contract violation, not an unclassifiable transaction.
var ErrMissingDescription = errors.New("transaction description is required")

// Validate checks the input contract: description must be non-empty after trimming.
func (t *Transaction) Validate() error {
	if strings.TrimSpace(t.Description) == "" {
		return ErrMissingDescription
	}
	return nil
}
