package model

import "time"

// DateLayout is the wire and storage format for expense dates.
const DateLayout = "2006-01-02"

// DefaultCurrency is the currency expenses are recorded in when none is given.
const DefaultCurrency = "MXN"

// Expense is a single recorded family expense.
type Expense struct {
	CreatedAt        time.Time `json:"created_at"`
	Date             time.Time `json:"expense_date"`
	ID               string    `json:"id,omitempty"`
	UserID           string    `json:"user_id"`
	CategoryID       string    `json:"category_id"`
	Detail           string    `json:"expense_detail"`
	Currency         string    `json:"currency"`
	OriginalCurrency string    `json:"original_currency,omitempty"`
	PaidBy           string    `json:"paid_by,omitempty"`
	Notes            string    `json:"notes,omitempty"`
	Amount           float64   `json:"amount"`
	OriginalAmount   float64   `json:"original_amount,omitempty"`
}

// User is a family member who records expenses.
type User struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	TelegramID string `json:"telegram_id,omitempty"`
}

// Budget is the planned spend for one category in one calendar month.
type Budget struct {
	ID         string  `json:"id,omitempty"`
	CategoryID string  `json:"category_id"`
	Currency   string  `json:"currency"`
	Amount     float64 `json:"amount"`
	Month      int     `json:"month"`
	Year       int     `json:"year"`
}
