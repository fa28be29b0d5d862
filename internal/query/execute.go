package query

import (
	"slices"
	"strings"

	"github.com/Veraticus/finassist/internal/model"
	"github.com/shopspring/decimal"
)

const (
	categoryNameColumn = "category_name"
	unknownName        = "Unknown"
)

// expenseColumns are fetched for dynamic expense plans.
var expenseColumns = []string{
	"id", "expense_detail", "amount", "currency", "expense_date", "paid_by", "category_id", "created_at",
}

// expenseRecord reshapes a fetched expense row into the record returned by
// dynamic queries.
func expenseRecord(row model.Row) model.Row {
	category := row.String(categoryNameColumn)
	if category == "" {
		category = unknownName
	}
	expenseDate := row.String(FieldExpenseDate)
	if d, ok := row.Date(FieldExpenseDate); ok {
		expenseDate = d.Format(model.DateLayout)
	}
	return model.Row{
		"expense_id":       row.String("id"),
		"expense_detail":   row.String("expense_detail"),
		"amount":           amountOf(row, "amount").InexactFloat64(),
		"currency":         row.String("currency"),
		FieldExpenseDate:   expenseDate,
		"paid_by":          row.String("paid_by"),
		categoryNameColumn: category,
	}
}

// Execute applies plan to expense records: filter, then aggregate or
// sort and limit. It is pure and never inspects SQL.
func Execute(plan ExtractedPlan, records []model.Row) []model.Row {
	rows := plan.Filter(records)

	if plan.GroupByCategory {
		grouped := groupByCategory(rows, categoryNameColumn)
		out := make([]model.Row, 0, len(grouped))
		for _, g := range grouped {
			out = append(out, model.Row{
				categoryNameColumn: g.name,
				"total":            g.total.InexactFloat64(),
				"count":            g.count,
			})
		}
		limit := plan.Limit
		if plan.Aggregation.Kind == AggTopN {
			limit = plan.Aggregation.N
		}
		return truncate(out, limit)
	}

	switch plan.Aggregation.Kind {
	case AggTopN:
		sorted := slices.Clone(rows)
		sortRows(sorted, OrderBy{Field: FieldAmount, Desc: true})
		return truncate(sorted, plan.Aggregation.N)
	case AggMax:
		return extreme(rows, 1)
	case AggMin:
		return extreme(rows, -1)
	case AggSum:
		return []model.Row{{
			"total": sumAmounts(rows, FieldAmount).InexactFloat64(),
			"count": len(rows),
		}}
	case AggCount:
		return []model.Row{{"count": len(rows)}}
	default:
		out := slices.Clone(rows)
		if plan.OrderBy != nil {
			sortRows(out, *plan.OrderBy)
		}
		return truncate(out, plan.Limit)
	}
}

// extreme returns the first row holding the largest (sign 1) or smallest
// (sign -1) amount.
func extreme(rows []model.Row, sign int) []model.Row {
	if len(rows) == 0 {
		return []model.Row{}
	}
	best := rows[0]
	for _, row := range rows[1:] {
		if amountOf(row, FieldAmount).Cmp(amountOf(best, FieldAmount))*sign > 0 {
			best = row
		}
	}
	return []model.Row{best}
}

func sortRows(rows []model.Row, order OrderBy) {
	slices.SortStableFunc(rows, func(a, b model.Row) int {
		var c int
		if order.Field == FieldAmount {
			c = amountOf(a, FieldAmount).Cmp(amountOf(b, FieldAmount))
		} else {
			c = strings.Compare(a.String(order.Field), b.String(order.Field))
		}
		if order.Desc {
			return -c
		}
		return c
	})
}

func truncate(rows []model.Row, limit int) []model.Row {
	if limit > 0 && len(rows) > limit {
		return rows[:limit]
	}
	if rows == nil {
		return []model.Row{}
	}
	return rows
}

type categoryGroup struct {
	name  string
	total decimal.Decimal
	count int
}

// groupByCategory sums amounts per category name, skipping rows without one,
// and orders groups by total descending. Ties keep first-seen order.
func groupByCategory(rows []model.Row, column string) []categoryGroup {
	index := make(map[string]int)
	var groups []categoryGroup
	for _, row := range rows {
		name := row.String(column)
		if name == "" || name == unknownName {
			continue
		}
		i, ok := index[name]
		if !ok {
			i = len(groups)
			index[name] = i
			groups = append(groups, categoryGroup{name: name, total: decimal.Zero})
		}
		groups[i].total = groups[i].total.Add(amountOf(row, FieldAmount))
		groups[i].count++
	}
	slices.SortStableFunc(groups, func(a, b categoryGroup) int {
		return b.total.Cmp(a.total)
	})
	return groups
}
