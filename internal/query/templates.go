package query

import (
	"context"
	"fmt"
	"slices"
	"time"

	"github.com/Veraticus/finassist/internal/model"
	"github.com/Veraticus/finassist/internal/service"
	"github.com/shopspring/decimal"
)

func (e *Engine) runTemplate(ctx context.Context, t Template, p TemplateParams, today time.Time) ([]model.Row, error) {
	switch t {
	case WeekTotal:
		return e.total(ctx, LastDays(today, 7))
	case MonthTotal:
		return e.total(ctx, MonthToDate(today))
	case TodayTotal:
		return e.total(ctx, Day(today))
	case YesterdayTotal:
		return e.total(ctx, Day(today.AddDate(0, 0, -1)))
	case PeriodTotal:
		return e.total(ctx, p.period())
	case MonthByCategory:
		return e.byCategory(ctx, MonthToDate(today), 0)
	case TodayByCategory:
		return e.byCategory(ctx, Day(today), 0)
	case YesterdayByCategory:
		return e.byCategory(ctx, Day(today.AddDate(0, 0, -1)), 0)
	case CustomMonthCategory:
		w, err := p.monthWindow()
		if err != nil {
			return nil, err
		}
		return e.byCategory(ctx, w, 0)
	case TopCategoriesPeriod:
		return e.byCategory(ctx, p.period(), p.Limit)
	case TotalBudget:
		return e.totalBudget(ctx, int(today.Month()), today.Year())
	case BudgetVsSpending:
		return e.budgetVsSpending(ctx, int(today.Month()), today.Year(), MonthToDate(today))
	case CustomMonthBudget:
		w, err := p.monthWindow()
		if err != nil {
			return nil, err
		}
		return e.budgetVsSpending(ctx, int(w.Start.Month()), w.Start.Year(), w)
	case RecentExpenses:
		return e.recent(ctx, p)
	}
	return nil, fmt.Errorf("%w: %s", ErrUnknownTemplate, t)
}

func (e *Engine) total(ctx context.Context, w Window) ([]model.Row, error) {
	rows, err := e.fetch(ctx, service.Query{
		Table:   service.TableExpenses,
		Columns: []string{FieldAmount},
		Filters: w.Filters(FieldExpenseDate),
	})
	if err != nil {
		return nil, err
	}
	return []model.Row{{"total": sumAmounts(rows, FieldAmount).InexactFloat64()}}, nil
}

func (e *Engine) byCategory(ctx context.Context, w Window, limit int) ([]model.Row, error) {
	rows, err := e.fetch(ctx, service.Query{
		Table:   service.TableExpenses,
		Columns: []string{FieldAmount, "category_id"},
		Embeds:  []service.Embed{service.EmbedCategoryName},
		Filters: w.Filters(FieldExpenseDate),
	})
	if err != nil {
		return nil, err
	}

	groups := groupByCategory(rows, categoryNameColumn)
	out := make([]model.Row, 0, len(groups))
	for _, g := range groups {
		out = append(out, model.Row{
			"category": g.name,
			"total":    g.total.InexactFloat64(),
			"count":    g.count,
		})
	}
	return truncate(out, limit), nil
}

func (e *Engine) totalBudget(ctx context.Context, month, year int) ([]model.Row, error) {
	rows, err := e.fetch(ctx, service.Query{
		Table:   service.TableBudgets,
		Columns: []string{FieldAmount},
		Filters: []service.Filter{service.Eq("month", month), service.Eq("year", year)},
	})
	if err != nil {
		return nil, err
	}
	return []model.Row{{"total": sumAmounts(rows, FieldAmount).InexactFloat64()}}, nil
}

// budgetVsSpending emulates budgets LEFT JOIN spend: every budget row for the
// month appears, with spent set to zero when nothing was recorded.
func (e *Engine) budgetVsSpending(ctx context.Context, month, year int, spendWindow Window) ([]model.Row, error) {
	budgets, err := e.fetch(ctx, service.Query{
		Table:   service.TableBudgets,
		Columns: []string{"category_id", FieldAmount},
		Embeds:  []service.Embed{service.EmbedCategoryName},
		Filters: []service.Filter{service.Eq("month", month), service.Eq("year", year)},
	})
	if err != nil {
		return nil, err
	}
	if len(budgets) == 0 {
		return []model.Row{}, nil
	}

	spend, err := e.fetch(ctx, service.Query{
		Table:   service.TableExpenses,
		Columns: []string{"category_id", FieldAmount},
		Filters: spendWindow.Filters(FieldExpenseDate),
	})
	if err != nil {
		return nil, err
	}

	spentByCategory := make(map[string]decimal.Decimal)
	for _, row := range spend {
		id := row.String("category_id")
		spentByCategory[id] = spentByCategory[id].Add(amountOf(row, FieldAmount))
	}

	out := make([]model.Row, 0, len(budgets))
	for _, b := range budgets {
		budget := amountOf(b, FieldAmount)
		spent := spentByCategory[b.String("category_id")]
		name := b.String(categoryNameColumn)
		if name == "" {
			name = unknownName
		}
		percent := percentOf(spent, budget)
		out = append(out, model.Row{
			categoryNameColumn: name,
			"budget":           budget.InexactFloat64(),
			"spent":            spent.InexactFloat64(),
			"remaining":        budget.Sub(spent).InexactFloat64(),
			"percent_used":     percent,
		})
	}

	slices.SortStableFunc(out, func(a, b model.Row) int {
		pa, _ := a.Float("percent_used")
		pb, _ := b.Float("percent_used")
		switch {
		case pa > pb:
			return -1
		case pa < pb:
			return 1
		}
		return 0
	})
	return out, nil
}

func (e *Engine) recent(ctx context.Context, p TemplateParams) ([]model.Row, error) {
	limit := p.Limit
	if limit <= 0 {
		limit = DefaultRecentLimit
	}

	w := Window{}
	if p.Start != nil {
		w.Start = dateOf(*p.Start)
	}

	rows, err := e.fetch(ctx, service.Query{
		Table:   service.TableExpenses,
		Columns: []string{"expense_detail", FieldAmount, FieldExpenseDate, "created_at"},
		Embeds:  []service.Embed{service.EmbedCategoryName, service.EmbedUserName},
		Filters: w.Filters(FieldExpenseDate),
		Order:   []service.Order{{Column: FieldExpenseDate, Desc: true}, {Column: "created_at", Desc: true}},
		Limit:   limit,
	})
	if err != nil {
		return nil, err
	}

	out := make([]model.Row, 0, len(rows))
	for _, row := range rows {
		rec := expenseRecord(row)
		user := row.String("user_name")
		if user == "" {
			user = unknownName
		}
		out = append(out, model.Row{
			"expense_detail": rec["expense_detail"],
			"amount":         rec["amount"],
			"category":       rec[categoryNameColumn],
			"expense_date":   rec[FieldExpenseDate],
			"user_name":      user,
		})
	}
	return out, nil
}
