package query

import (
	"fmt"

	"github.com/Veraticus/finassist/internal/model"
)

// AggregationKind selects how filtered rows are reduced.
type AggregationKind int

const (
	// AggNone returns individual rows.
	AggNone AggregationKind = iota
	// AggSum returns {total, count}.
	AggSum
	// AggCount returns {count}.
	AggCount
	// AggMax returns the row with the largest amount.
	AggMax
	// AggMin returns the row with the smallest amount.
	AggMin
	// AggTopN returns the N rows with the largest amounts.
	AggTopN
)

func (k AggregationKind) String() string {
	switch k {
	case AggNone:
		return "none"
	case AggSum:
		return "sum"
	case AggCount:
		return "count"
	case AggMax:
		return "max"
	case AggMin:
		return "min"
	case AggTopN:
		return "top_n"
	default:
		return fmt.Sprintf("aggregation(%d)", int(k))
	}
}

// MarshalText implements encoding.TextMarshaler.
func (k AggregationKind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// DefaultTopN applies when a top-N phrase carries no number.
const DefaultTopN = 5

// Aggregation is the reduction step of a plan. N is set only for AggTopN.
type Aggregation struct {
	Kind AggregationKind `json:"kind"`
	N    int             `json:"n,omitempty"`
}

// TopN builds a top-N aggregation.
func TopN(n int) Aggregation {
	return Aggregation{Kind: AggTopN, N: n}
}

// WindowSource records where a plan's date window came from.
type WindowSource string

const (
	// WindowFromSQL means the window was parsed from the SQL text.
	WindowFromSQL WindowSource = "sql"
	// WindowFromQuestion means the window came from a phrase in the question.
	WindowFromQuestion WindowSource = "question"
	// WindowNone means no window was found and every row is eligible.
	WindowNone WindowSource = "none"
)

// Sort fields the executor understands.
const (
	FieldAmount      = "amount"
	FieldExpenseDate = "expense_date"
)

// OrderBy sorts the final row list.
type OrderBy struct {
	Field string `json:"field"`
	Desc  bool   `json:"desc"`
}

// BudgetScope routes a plan to the budget interpreter. Zero Month or Year
// means that column is not filtered.
type BudgetScope struct {
	Month        int  `json:"month,omitempty"`
	Year         int  `json:"year,omitempty"`
	CategoryJoin bool `json:"category_join"`
}

// ExtractedPlan is the structure recovered from generated SQL and the
// question that prompted it. The executor works only from the plan and never
// looks at the SQL text again.
type ExtractedPlan struct {
	OrderBy         *OrderBy     `json:"order_by,omitempty"`
	Budget          *BudgetScope `json:"budget,omitempty"`
	Window          Window       `json:"window"`
	WindowSource    WindowSource `json:"window_source"`
	CategoryEquals  string       `json:"category_equals,omitempty"`
	Aggregation     Aggregation  `json:"aggregation"`
	Limit           int          `json:"limit,omitempty"`
	GroupByCategory bool         `json:"group_by_category,omitempty"`
}

// Unbounded reports whether the plan fell back to scanning every row.
func (p ExtractedPlan) Unbounded() bool {
	return p.Budget == nil && !p.Window.Bounded()
}

// Matches reports whether an expense row satisfies the plan's filters.
func (p ExtractedPlan) Matches(row model.Row) bool {
	if p.Window.Bounded() {
		d, ok := row.Date(FieldExpenseDate)
		if !ok || !p.Window.Contains(d) {
			return false
		}
	}
	if p.CategoryEquals != "" && row.String(categoryNameColumn) != p.CategoryEquals {
		return false
	}
	return true
}

// Filter keeps the rows that satisfy the plan's filters. Filtering its own
// output again returns the same rows.
func (p ExtractedPlan) Filter(rows []model.Row) []model.Row {
	out := make([]model.Row, 0, len(rows))
	for _, row := range rows {
		if p.Matches(row) {
			out = append(out, row)
		}
	}
	return out
}
