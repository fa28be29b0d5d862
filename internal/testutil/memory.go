// Package testutil provides in-memory and SQLite backed stores seeded with
// household fixtures for tests across the module.
package testutil

import (
	"cmp"
	"context"
	"fmt"
	"slices"
	"strconv"
	"sync"
	"time"

	"github.com/Veraticus/finassist/internal/model"
	"github.com/Veraticus/finassist/internal/service"
)

// MemoryStore is a service.Store that keeps every table in memory. It applies
// filters, embeds, ordering and limits the way the real row sources do and
// records every query it receives.
type MemoryStore struct {
	now      func() time.Time
	fetchErr error
	tables   map[string][]model.Row
	queries  []service.Query
	nextID   int
	mu       sync.Mutex
}

// NewMemoryStore creates an empty store. Inserted rows are stamped with
// successive created_at values starting at a fixed instant.
func NewMemoryStore() *MemoryStore {
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	tick := 0
	return &MemoryStore{
		tables: make(map[string][]model.Row),
		now: func() time.Time {
			tick++
			return base.Add(time.Duration(tick) * time.Second)
		},
	}
}

// FailWith makes every subsequent Fetch return err.
func (m *MemoryStore) FailWith(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.fetchErr = err
}

// Queries returns the queries received so far.
func (m *MemoryStore) Queries() []service.Query {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]service.Query(nil), m.queries...)
}

// AddRow appends a raw row to table.
func (m *MemoryStore) AddRow(table string, row model.Row) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.tables[table] = append(m.tables[table], row.Clone())
}

// AddCategory creates a category and returns it with its assigned id.
func (m *MemoryStore) AddCategory(name string) model.Category {
	m.mu.Lock()
	defer m.mu.Unlock()
	cat := model.Category{ID: m.id(), Name: name}
	m.tables[service.TableCategories] = append(m.tables[service.TableCategories], model.Row{
		"id": cat.ID, "name": cat.Name, "description": "",
	})
	return cat
}

// AddUser creates a user and returns it with its assigned id.
func (m *MemoryStore) AddUser(name string) model.User {
	m.mu.Lock()
	defer m.mu.Unlock()
	user := model.User{ID: m.id(), Name: name}
	m.tables[service.TableUsers] = append(m.tables[service.TableUsers], model.Row{
		"id": user.ID, "name": user.Name, "telegram_id": "",
	})
	return user
}

// AddBudget records a budget row.
func (m *MemoryStore) AddBudget(b model.Budget) model.Budget {
	m.mu.Lock()
	defer m.mu.Unlock()
	b.ID = m.id()
	if b.Currency == "" {
		b.Currency = model.DefaultCurrency
	}
	m.tables[service.TableBudgets] = append(m.tables[service.TableBudgets], model.Row{
		"id": b.ID, "category_id": b.CategoryID, "amount": b.Amount,
		"currency": b.Currency, "month": b.Month, "year": b.Year,
	})
	return b
}

// AddExpense records an expense without going through validation.
func (m *MemoryStore) AddExpense(e model.Expense) model.Expense {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.insert(e)
}

// InsertExpense implements service.ExpenseWriter.
func (m *MemoryStore) InsertExpense(_ context.Context, e model.Expense) (*model.Expense, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	saved := m.insert(e)
	return &saved, nil
}

func (m *MemoryStore) insert(e model.Expense) model.Expense {
	e.ID = m.id()
	if e.Currency == "" {
		e.Currency = model.DefaultCurrency
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = m.now()
	}
	m.tables[service.TableExpenses] = append(m.tables[service.TableExpenses], model.Row{
		"id":                e.ID,
		"user_id":           e.UserID,
		"category_id":       e.CategoryID,
		"expense_detail":    e.Detail,
		"amount":            e.Amount,
		"currency":          e.Currency,
		"original_amount":   e.OriginalAmount,
		"original_currency": e.OriginalCurrency,
		"expense_date":      e.Date.Format(model.DateLayout),
		"paid_by":           e.PaidBy,
		"notes":             e.Notes,
		"created_at":        e.CreatedAt.UTC().Format(time.RFC3339Nano),
	})
	return e
}

func (m *MemoryStore) id() string {
	m.nextID++
	return strconv.Itoa(m.nextID)
}

// Fetch implements service.RowSource.
func (m *MemoryStore) Fetch(_ context.Context, q service.Query) ([]model.Row, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.queries = append(m.queries, q)
	if m.fetchErr != nil {
		return nil, m.fetchErr
	}

	var out []model.Row
	for _, row := range m.tables[q.Table] {
		if !matches(row, q.Filters) {
			continue
		}
		result := project(row, q.Columns)
		for _, embed := range q.Embeds {
			result[embed.As] = m.lookup(embed, row[embed.Key])
		}
		out = append(out, result)
	}

	if len(q.Order) > 0 {
		slices.SortStableFunc(out, func(a, b model.Row) int {
			for _, o := range q.Order {
				c, _ := compare(a[o.Column], b[o.Column])
				if o.Desc {
					c = -c
				}
				if c != 0 {
					return c
				}
			}
			return 0
		})
	}

	if q.Limit > 0 && len(out) > q.Limit {
		out = out[:q.Limit]
	}
	return out, nil
}

func (m *MemoryStore) lookup(embed service.Embed, key any) any {
	if key == nil {
		return nil
	}
	for _, related := range m.tables[embed.Table] {
		if c, ok := compare(related["id"], key); ok && c == 0 {
			return related[embed.Column]
		}
	}
	return nil
}

func project(row model.Row, columns []string) model.Row {
	if len(columns) == 0 {
		return row.Clone()
	}
	out := make(model.Row, len(columns))
	for _, col := range columns {
		if v, ok := row[col]; ok {
			out[col] = v
		}
	}
	return out
}

func matches(row model.Row, filters []service.Filter) bool {
	for _, f := range filters {
		c, ok := compare(row[f.Column], f.Value)
		if !ok {
			return false
		}
		switch f.Op {
		case service.OpEq:
			ok = c == 0
		case service.OpGt:
			ok = c > 0
		case service.OpGte:
			ok = c >= 0
		case service.OpLt:
			ok = c < 0
		case service.OpLte:
			ok = c <= 0
		default:
			ok = false
		}
		if !ok {
			return false
		}
	}
	return true
}

// compare orders two column values numerically when both are numbers and
// lexically otherwise. Nil never compares.
func compare(a, b any) (int, bool) {
	if a == nil || b == nil {
		return 0, false
	}
	af, aok := number(a)
	bf, bok := number(b)
	if aok && bok {
		return cmp.Compare(af, bf), true
	}
	return cmp.Compare(text(a), text(b)), true
}

func number(v any) (float64, bool) {
	return model.Row{"v": v}.Float("v")
}

func text(v any) string {
	if t, ok := v.(time.Time); ok {
		return t.Format(model.DateLayout)
	}
	return fmt.Sprint(v)
}
