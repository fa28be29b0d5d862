package report

import (
	"testing"

	"github.com/Veraticus/finassist/internal/model"
	"github.com/Veraticus/finassist/internal/query"
	"github.com/stretchr/testify/assert"
)

func TestFormatMoney(t *testing.T) {
	tests := []struct {
		currency string
		want     string
		amount   float64
	}{
		{amount: 0, want: "$0.00 MXN"},
		{amount: 120.5, want: "$120.50 MXN"},
		{amount: 1234.5, want: "$1,234.50 MXN"},
		{amount: 1234567.891, want: "$1,234,567.89 MXN"},
		{amount: -45, want: "-$45.00 MXN"},
		{amount: 57.74, currency: "CAD", want: "$57.74 CAD"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			assert.Equal(t, tt.want, FormatMoney(tt.amount, tt.currency))
		})
	}
}

func TestBuild(t *testing.T) {
	tests := []struct {
		result *query.Result
		name   string
		kind   string
		title  string
		footer string
		lines  []string
	}{
		{
			name:   "template total",
			result: &query.Result{Kind: "template", Template: "week_total", Rows: []model.Row{{"total": 1500.0}}},
			kind:   KindTotal,
			title:  "Total spending over the last 7 days",
			lines:  []string{"Total: $1,500.00 MXN"},
		},
		{
			name:   "dynamic sum with count",
			result: &query.Result{Kind: "dynamic", Rows: []model.Row{{"total": 42.5, "count": 3}}},
			kind:   KindTotal,
			title:  "Results",
			lines:  []string{"Total: $42.50 MXN (3 expenses)"},
		},
		{
			name:   "count",
			result: &query.Result{Kind: "dynamic", Rows: []model.Row{{"count": 1}}},
			kind:   KindCount,
			lines:  []string{"1 expense"},
		},
		{
			name: "category breakdown",
			result: &query.Result{Kind: "template", Template: "month_by_category", Rows: []model.Row{
				{"category": "Groceries", "total": 300.0, "count": 4},
				{"category": "Rent", "total": 200.0, "count": 1},
			}},
			kind: KindBreakdown,
			lines: []string{
				"Groceries: $300.00 MXN (60.0%)",
				"Rent: $200.00 MXN (40.0%)",
			},
			footer: "Total: $500.00 MXN",
		},
		{
			name: "budget progress",
			result: &query.Result{Kind: "template", Template: "budget_vs_spending", Rows: []model.Row{
				{"category_name": "Groceries", "budget": 400.0, "spent": 500.0, "remaining": -100.0, "percent_used": 125.0},
				{"category_name": "Rent", "budget": 1500.0, "spent": 750.0, "remaining": 750.0, "percent_used": 50.0},
			}},
			kind: KindBudget,
			lines: []string{
				"Groceries: $500.00 MXN of $400.00 MXN (125.0%) over budget by $100.00 MXN",
				"Rent: $750.00 MXN of $1,500.00 MXN (50.0%)",
			},
			footer: "Spent $1,250.00 MXN of $1,900.00 MXN budgeted",
		},
		{
			name: "recent expenses",
			result: &query.Result{Kind: "template", Template: "recent_expenses", Rows: []model.Row{
				{"expense_detail": "Costco", "amount": 120.54, "category": "Groceries", "expense_date": "2024-03-15", "user_name": "Ana"},
			}},
			kind:   KindExpenses,
			lines:  []string{"2024-03-15  Costco  $120.54 MXN  Groceries  Ana"},
			footer: "1 expense, $120.54 MXN",
		},
		{
			name:   "empty",
			result: &query.Result{Kind: "template", Template: "budget_vs_spending", Rows: []model.Row{}},
			kind:   KindEmpty,
			lines:  []string{"No expenses found."},
		},
		{
			name: "unknown shape",
			result: &query.Result{Kind: "dynamic", Rows: []model.Row{
				{"category_name": "Rent", "budgeted": 1500.0},
			}},
			kind:  KindRows,
			lines: []string{"budgeted=1500 category_name=Rent"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Build(tt.result)
			assert.Equal(t, tt.kind, got.Kind)
			assert.Equal(t, tt.lines, got.Lines)
			assert.Equal(t, tt.footer, got.Footer)
			if tt.title != "" {
				assert.Equal(t, tt.title, got.Title)
			}
		})
	}
}

func TestBuildUnboundedWarning(t *testing.T) {
	got := Build(&query.Result{
		Kind:     "dynamic",
		Rows:     []model.Row{{"total": 10.0, "count": 1}},
		Warnings: []query.Warning{query.WarnUnboundedWindow},
	})
	assert.Contains(t, got.Footer, "No date range was recognised")
	assert.Contains(t, got.String(), "Total: $10.00 MXN (1 expense)")
}
