package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// ErrEmptySQL is returned when the model produced no statement.
var ErrEmptySQL = errors.New("generated SQL is empty")

const sqlSystemPrompt = "You write PostgreSQL SELECT queries for a family expense tracker. " +
	"Return ONLY the SQL query, no code blocks, no semicolons, no explanation."

const schemaInfo = `Database Schema:
- expenses(id, user_id, category_id, expense_detail, amount, currency, original_amount, original_currency, expense_date, paid_by, notes, created_at)
  * paid_by is a TEXT field containing the user name, NOT a foreign key
- categories(id, name, description)
- budgets(id, category_id, amount, currency, month, year) - month is INTEGER 1-12, year is INTEGER (e.g., 2025)
- users(id, name, telegram_id)

Relations:
- expenses.category_id -> categories.id
- expenses.user_id -> users.id
- budgets.category_id -> categories.id

Important:
- When querying budgets, ALWAYS filter by both month AND year
- Use: WHERE month = EXTRACT(MONTH FROM CURRENT_DATE) AND year = EXTRACT(YEAR FROM CURRENT_DATE)
- Filter dates on expenses.expense_date`

// SQLGenerator asks the model for a SELECT statement answering a question.
// Its output is untrusted and must pass the guardrail before use.
type SQLGenerator struct {
	client Client
}

// NewSQLGenerator creates a generator backed by client.
func NewSQLGenerator(client Client) *SQLGenerator {
	return &SQLGenerator{client: client}
}

func sqlPrompt(question string) string {
	return fmt.Sprintf(`Generate a safe PostgreSQL SELECT query for this question: %q

%s

Requirements:
- Only SELECT statements allowed
- Use proper JOINs for relations
- Amounts are in MXN
- Use proper date filtering with PostgreSQL functions
- Family expense tracking: query all expenses, not user-specific
- Return meaningful column names
- Limit results to reasonable amounts (max 100 rows)

SQL Query:`, question, schemaInfo)
}

// Generate returns the model's SQL with fences and trailing semicolons removed.
func (g *SQLGenerator) Generate(ctx context.Context, question string) (string, error) {
	content, err := g.client.Complete(ctx, sqlSystemPrompt, sqlPrompt(question))
	if err != nil {
		return "", fmt.Errorf("failed to generate SQL: %w", err)
	}
	sql := CleanSQL(content)
	if sql == "" {
		return "", ErrEmptySQL
	}
	return sql, nil
}

// CleanSQL strips markdown fences and trailing semicolons from model output.
func CleanSQL(content string) string {
	sql := cleanMarkdownWrapper(content)
	sql = strings.TrimRight(strings.TrimSpace(sql), "; \t\n")
	return strings.TrimSpace(sql)
}
