// Package service defines the interfaces between the query and
// classification engines and the stores that back them.
package service

import (
	"context"
	"fmt"
	"time"

	"github.com/Veraticus/finassist/internal/model"
)

// Table names understood by every row source.
const (
	TableExpenses   = "expenses"
	TableBudgets    = "budgets"
	TableCategories = "categories"
	TableUsers      = "users"
)

// Op is a comparison operator supported by row sources.
type Op string

// Supported operators. They mirror the PostgREST operator names.
const (
	OpEq  Op = "eq"
	OpGt  Op = "gt"
	OpGte Op = "gte"
	OpLt  Op = "lt"
	OpLte Op = "lte"
)

// Filter restricts rows by comparing one column with a value.
type Filter struct {
	Value  any
	Column string
	Op     Op
}

// Eq builds an equality filter.
func Eq(column string, value any) Filter { return Filter{Column: column, Op: OpEq, Value: value} }

// Gte builds a greater-than-or-equal filter.
func Gte(column string, value any) Filter { return Filter{Column: column, Op: OpGte, Value: value} }

// Lte builds a less-than-or-equal filter.
func Lte(column string, value any) Filter { return Filter{Column: column, Op: OpLte, Value: value} }

// Lt builds a strictly-less-than filter.
func Lt(column string, value any) Filter { return Filter{Column: column, Op: OpLt, Value: value} }

// Embed pulls one column of a related row into each result row. The related
// row is found by matching its id against Key on the base table, and the
// value lands in the result under As.
type Embed struct {
	Table  string
	Key    string
	Column string
	As     string
}

// Common embeds used by the executors.
var (
	EmbedCategoryName = Embed{Table: TableCategories, Key: "category_id", Column: "name", As: "category_name"}
	EmbedUserName     = Embed{Table: TableUsers, Key: "user_id", Column: "name", As: "user_name"}
)

// Order sorts results by a column.
type Order struct {
	Column string
	Desc   bool
}

// Query describes a simple key/range fetch against one table.
type Query struct {
	Table   string
	Columns []string
	Embeds  []Embed
	Filters []Filter
	Order   []Order
	Limit   int
}

// RowSource fetches rows with equality and range filters. An empty result is
// not an error.
type RowSource interface {
	Fetch(ctx context.Context, q Query) ([]model.Row, error)
}

// ExpenseWriter persists expenses.
type ExpenseWriter interface {
	InsertExpense(ctx context.Context, expense model.Expense) (*model.Expense, error)
}

// Store is a row source that can also record expenses.
type Store interface {
	RowSource
	ExpenseWriter
}

// RetryOptions configures retry behavior for operations.
type RetryOptions struct {
	MaxAttempts  int
	InitialDelay time.Duration
	MaxDelay     time.Duration
	Multiplier   float64
}

// Categories loads the live category snapshot ordered by name.
func Categories(ctx context.Context, src RowSource) ([]model.Category, error) {
	rows, err := src.Fetch(ctx, Query{
		Table:   TableCategories,
		Columns: []string{"id", "name", "description"},
		Order:   []Order{{Column: "name"}},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to load categories: %w", err)
	}

	categories := make([]model.Category, 0, len(rows))
	for _, row := range rows {
		categories = append(categories, model.Category{
			ID:          row.String("id"),
			Name:        row.String("name"),
			Description: row.String("description"),
		})
	}
	return categories, nil
}
