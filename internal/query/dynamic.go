package query

import (
	"context"

	"github.com/Veraticus/finassist/internal/model"
	"github.com/Veraticus/finassist/internal/service"
)

// executeExpensePlan fetches the superset of expenses for the plan's window
// and hands the records to Execute. A category equality filter is pushed to
// the store as a category_id filter once the id is known.
func (e *Engine) executeExpensePlan(ctx context.Context, plan ExtractedPlan) ([]model.Row, error) {
	q := service.Query{
		Table:   service.TableExpenses,
		Columns: expenseColumns,
		Embeds:  []service.Embed{service.EmbedCategoryName},
		Filters: plan.Window.Filters(FieldExpenseDate),
	}

	if plan.CategoryEquals != "" {
		cats, err := e.fetch(ctx, service.Query{
			Table:   service.TableCategories,
			Columns: []string{"id"},
			Filters: []service.Filter{service.Eq("name", plan.CategoryEquals)},
		})
		if err != nil {
			return nil, err
		}
		if len(cats) == 1 {
			q.Filters = append(q.Filters, service.Eq("category_id", cats[0]["id"]))
		}
	}

	rows, err := e.fetch(ctx, q)
	if err != nil {
		return nil, err
	}

	records := make([]model.Row, 0, len(rows))
	for _, row := range rows {
		records = append(records, expenseRecord(row))
	}
	return Execute(plan, records), nil
}

// executeBudgetPlan interprets plans that read the budgets table.
func (e *Engine) executeBudgetPlan(ctx context.Context, plan ExtractedPlan) ([]model.Row, error) {
	scope := plan.Budget

	q := service.Query{Table: service.TableBudgets}
	if scope.Month != 0 {
		q.Filters = append(q.Filters, service.Eq("month", scope.Month))
	}
	if scope.Year != 0 {
		q.Filters = append(q.Filters, service.Eq("year", scope.Year))
	}
	withCategory := scope.CategoryJoin || plan.CategoryEquals != ""
	if withCategory {
		q.Embeds = []service.Embed{service.EmbedCategoryName}
	}

	rows, err := e.fetch(ctx, q)
	if err != nil {
		return nil, err
	}

	if plan.CategoryEquals != "" {
		filtered := rows[:0:0]
		for _, row := range rows {
			if row.String(categoryNameColumn) == plan.CategoryEquals {
				filtered = append(filtered, row)
			}
		}
		rows = filtered
	}

	if plan.Aggregation.Kind == AggSum && !plan.GroupByCategory {
		return []model.Row{{"total": sumAmounts(rows, FieldAmount).InexactFloat64()}}, nil
	}

	out := make([]model.Row, 0, len(rows))
	for _, row := range rows {
		amount := amountOf(row, FieldAmount).InexactFloat64()
		if withCategory {
			name := row.String(categoryNameColumn)
			if name == "" {
				name = unknownName
			}
			out = append(out, model.Row{categoryNameColumn: name, "budgeted": amount, "amount": amount})
			continue
		}
		rec := row.Clone()
		rec["amount"] = amount
		out = append(out, rec)
	}

	if plan.OrderBy != nil && plan.OrderBy.Field == FieldAmount {
		sortRows(out, *plan.OrderBy)
	}
	return truncate(out, plan.Limit), nil
}
