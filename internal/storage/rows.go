package storage

import (
	"context"
	"fmt"
	"strings"

	"github.com/Veraticus/finassist/internal/model"
	"github.com/Veraticus/finassist/internal/service"
)

// tableColumns lists every readable column per table in select order.
var tableColumns = map[string][]string{
	service.TableCategories: {"id", "name", "description"},
	service.TableUsers:      {"id", "name", "telegram_id"},
	service.TableExpenses: {
		"id", "user_id", "category_id", "expense_detail", "amount", "currency",
		"original_amount", "original_currency", "expense_date", "paid_by", "notes", "created_at",
	},
	service.TableBudgets: {"id", "category_id", "amount", "currency", "month", "year"},
}

var schema = func() map[string]map[string]struct{} {
	out := make(map[string]map[string]struct{}, len(tableColumns))
	for table, cols := range tableColumns {
		set := make(map[string]struct{}, len(cols))
		for _, c := range cols {
			set[c] = struct{}{}
		}
		out[table] = set
	}
	return out
}()

var operators = map[service.Op]string{
	service.OpEq:  "=",
	service.OpGt:  ">",
	service.OpGte: ">=",
	service.OpLt:  "<",
	service.OpLte: "<=",
}

func embedAlias(embeds []service.Embed, name string) bool {
	for _, e := range embeds {
		if e.As == name {
			return true
		}
	}
	return false
}

// buildSelect renders q as parameterised SQL. q must already be validated.
func buildSelect(q service.Query) (string, []any) {
	columns := q.Columns
	if len(columns) == 0 {
		columns = tableColumns[q.Table]
	}

	var sb strings.Builder
	sb.WriteString("SELECT ")
	for i, col := range columns {
		if i > 0 {
			sb.WriteString(", ")
		}
		fmt.Fprintf(&sb, "t.%s AS %s", col, col)
	}
	for i, e := range q.Embeds {
		if len(columns) > 0 || i > 0 {
			sb.WriteString(", ")
		}
		fmt.Fprintf(&sb, "e%d.%s AS %s", i, e.Column, e.As)
	}
	fmt.Fprintf(&sb, " FROM %s t", q.Table)
	for i, e := range q.Embeds {
		fmt.Fprintf(&sb, " LEFT JOIN %s e%d ON e%d.id = t.%s", e.Table, i, i, e.Key)
	}

	args := make([]any, 0, len(q.Filters)+1)
	for i, f := range q.Filters {
		if i == 0 {
			sb.WriteString(" WHERE ")
		} else {
			sb.WriteString(" AND ")
		}
		fmt.Fprintf(&sb, "t.%s %s ?", f.Column, operators[f.Op])
		args = append(args, f.Value)
	}

	for i, o := range q.Order {
		if i == 0 {
			sb.WriteString(" ORDER BY ")
		} else {
			sb.WriteString(", ")
		}
		if embedAlias(q.Embeds, o.Column) {
			sb.WriteString(o.Column)
		} else {
			sb.WriteString("t." + o.Column)
		}
		if o.Desc {
			sb.WriteString(" DESC")
		}
	}

	if q.Limit > 0 {
		sb.WriteString(" LIMIT ?")
		args = append(args, q.Limit)
	}
	return sb.String(), args
}

// Fetch implements service.RowSource.
func (s *SQLiteStorage) Fetch(ctx context.Context, q service.Query) ([]model.Row, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateQuery(q); err != nil {
		return nil, err
	}

	query, args := buildSelect(q)
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query %s: %w", q.Table, err)
	}
	defer func() { _ = rows.Close() }()

	names, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("failed to read columns: %w", err)
	}

	var out []model.Row
	for rows.Next() {
		values := make([]any, len(names))
		ptrs := make([]any, len(names))
		for i := range values {
			ptrs[i] = &values[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, fmt.Errorf("failed to scan %s row: %w", q.Table, err)
		}
		row := make(model.Row, len(names))
		for i, name := range names {
			if b, ok := values[i].([]byte); ok {
				row[name] = string(b)
				continue
			}
			row[name] = values[i]
		}
		out = append(out, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating %s rows: %w", q.Table, err)
	}
	return out, nil
}
