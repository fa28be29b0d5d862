// Package storage provides the SQLite persistence layer for household
// expenses, budgets, categories and users.
package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/Veraticus/finassist/internal/model"
	"github.com/Veraticus/finassist/internal/service"
)

// Validation errors.
var (
	ErrNilContext     = errors.New("context cannot be nil")
	ErrEmptyString    = errors.New("string parameter cannot be empty")
	ErrInvalidExpense = errors.New("invalid expense")
	ErrInvalidBudget  = errors.New("invalid budget")
	ErrUnknownTable   = errors.New("unknown table")
	ErrUnknownColumn  = errors.New("unknown column")
	ErrUnknownOp      = errors.New("unknown filter operator")
	ErrNotFound       = errors.New("not found")
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

// validateExpense checks the fields every stored expense must carry.
func validateExpense(e *model.Expense) error {
	if strings.TrimSpace(e.Detail) == "" {
		return fmt.Errorf("%w: missing detail", ErrInvalidExpense)
	}
	if e.Amount <= 0 {
		return fmt.Errorf("%w: amount must be positive, got %v", ErrInvalidExpense, e.Amount)
	}
	if e.Date.IsZero() {
		return fmt.Errorf("%w: missing date", ErrInvalidExpense)
	}
	return nil
}

// validateBudget checks a budget's period and amount.
func validateBudget(b *model.Budget) error {
	if err := validateString(b.CategoryID, "category_id"); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidBudget, err)
	}
	if b.Month < 1 || b.Month > 12 {
		return fmt.Errorf("%w: month %d out of range", ErrInvalidBudget, b.Month)
	}
	if b.Year < 1900 {
		return fmt.Errorf("%w: year %d out of range", ErrInvalidBudget, b.Year)
	}
	if b.Amount < 0 {
		return fmt.Errorf("%w: amount cannot be negative", ErrInvalidBudget)
	}
	return nil
}

// validateQuery checks every identifier in q against the schema so that
// nothing user-controlled reaches the SQL text.
func validateQuery(q service.Query) error {
	cols, ok := schema[q.Table]
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownTable, q.Table)
	}
	check := func(col string) error {
		if _, ok := cols[col]; !ok {
			return fmt.Errorf("%w: %s.%s", ErrUnknownColumn, q.Table, col)
		}
		return nil
	}
	for _, col := range q.Columns {
		if err := check(col); err != nil {
			return err
		}
	}
	for _, f := range q.Filters {
		if err := check(f.Column); err != nil {
			return err
		}
		if _, ok := operators[f.Op]; !ok {
			return fmt.Errorf("%w: %q", ErrUnknownOp, f.Op)
		}
	}
	for _, o := range q.Order {
		if embedAlias(q.Embeds, o.Column) {
			continue
		}
		if err := check(o.Column); err != nil {
			return err
		}
	}
	for _, e := range q.Embeds {
		if err := check(e.Key); err != nil {
			return err
		}
		related, ok := schema[e.Table]
		if !ok {
			return fmt.Errorf("%w: %q", ErrUnknownTable, e.Table)
		}
		if _, ok := related[e.Column]; !ok {
			return fmt.Errorf("%w: %s.%s", ErrUnknownColumn, e.Table, e.Column)
		}
		if !isIdentifier(e.As) {
			return fmt.Errorf("%w: alias %q", ErrUnknownColumn, e.As)
		}
	}
	return nil
}

func isIdentifier(s string) bool {
	if s == "" {
		return false
	}
	for i, r := range s {
		switch {
		case r == '_', r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z':
		case r >= '0' && r <= '9' && i > 0:
		default:
			return false
		}
	}
	return true
}
