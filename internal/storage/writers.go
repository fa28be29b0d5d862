package storage

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/Veraticus/finassist/internal/model"
)

// UpsertUser creates a user keyed by Telegram id, or renames the existing one.
// Users without a Telegram id are always created.
func (s *SQLiteStorage) UpsertUser(ctx context.Context, user model.User) (*model.User, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(user.Name, "name"); err != nil {
		return nil, err
	}

	var telegramID any
	if user.TelegramID != "" {
		telegramID = user.TelegramID
	}

	var id int64
	err := s.db.QueryRowContext(ctx, `
		INSERT INTO users (name, telegram_id) VALUES (?, ?)
		ON CONFLICT(telegram_id) DO UPDATE SET name = excluded.name
		RETURNING id`,
		user.Name, telegramID,
	).Scan(&id)
	if err != nil {
		return nil, fmt.Errorf("failed to upsert user: %w", err)
	}

	user.ID = strconv.FormatInt(id, 10)
	return &user, nil
}

// SetBudget creates or replaces the budget for a category and month.
func (s *SQLiteStorage) SetBudget(ctx context.Context, budget model.Budget) (*model.Budget, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateBudget(&budget); err != nil {
		return nil, err
	}
	if budget.Currency == "" {
		budget.Currency = model.DefaultCurrency
	}

	var id int64
	err := s.db.QueryRowContext(ctx, `
		INSERT INTO budgets (category_id, amount, currency, month, year) VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(category_id, month, year) DO UPDATE SET
			amount = excluded.amount,
			currency = excluded.currency
		RETURNING id`,
		budget.CategoryID, budget.Amount, budget.Currency, budget.Month, budget.Year,
	).Scan(&id)
	if err != nil {
		return nil, fmt.Errorf("failed to set budget: %w", err)
	}

	budget.ID = strconv.FormatInt(id, 10)
	return &budget, nil
}

// InsertExpense implements service.ExpenseWriter.
func (s *SQLiteStorage) InsertExpense(ctx context.Context, expense model.Expense) (*model.Expense, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateExpense(&expense); err != nil {
		return nil, err
	}
	if expense.Currency == "" {
		expense.Currency = model.DefaultCurrency
	}
	if expense.CreatedAt.IsZero() {
		expense.CreatedAt = time.Now().UTC()
	}

	var id int64
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		result, err := tx.ExecContext(ctx, `
			INSERT INTO expenses (
				user_id, category_id, expense_detail, amount, currency,
				original_amount, original_currency, expense_date, paid_by, notes, created_at
			) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			nullable(expense.UserID),
			nullable(expense.CategoryID),
			strings.TrimSpace(expense.Detail),
			expense.Amount,
			expense.Currency,
			nullableAmount(expense.OriginalAmount),
			nullable(expense.OriginalCurrency),
			expense.Date.Format(model.DateLayout),
			expense.PaidBy,
			expense.Notes,
			expense.CreatedAt.UTC().Format(time.RFC3339Nano),
		)
		if err != nil {
			return fmt.Errorf("failed to insert expense: %w", err)
		}
		id, err = result.LastInsertId()
		if err != nil {
			return fmt.Errorf("failed to get expense ID: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	expense.ID = strconv.FormatInt(id, 10)
	return &expense, nil
}

func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func nullableAmount(v float64) any {
	if v == 0 {
		return nil
	}
	return v
}
