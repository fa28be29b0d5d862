// Package report turns query results into short plain-text summaries for
// terminals and chat replies.
package report

import (
	"fmt"
	"sort"
	"strings"

	"github.com/Veraticus/finassist/internal/model"
	"github.com/Veraticus/finassist/internal/query"
	"github.com/shopspring/decimal"
)

// Kinds of report, chosen from the shape of the result rows.
const (
	KindEmpty     = "empty"
	KindTotal     = "total"
	KindCount     = "count"
	KindBreakdown = "breakdown"
	KindBudget    = "budget"
	KindExpenses  = "expenses"
	KindRows      = "rows"
)

// Report is a rendered result. Lines carry no styling.
type Report struct {
	Title  string
	Kind   string
	Lines  []string
	Footer string
}

// String joins the report into one block of text.
func (r Report) String() string {
	var sb strings.Builder
	if r.Title != "" {
		sb.WriteString(r.Title)
		sb.WriteString("\n")
	}
	for _, line := range r.Lines {
		sb.WriteString(line)
		sb.WriteString("\n")
	}
	if r.Footer != "" {
		sb.WriteString(r.Footer)
		sb.WriteString("\n")
	}
	return sb.String()
}

// Build summarizes res.
func Build(res *query.Result) Report {
	if res == nil {
		return Report{Kind: KindEmpty, Lines: []string{"No results."}}
	}

	r := Report{Title: title(res)}
	rows := res.Rows
	switch {
	case len(rows) == 0:
		r.Kind = KindEmpty
		r.Lines = []string{"No expenses found."}
	case isTotal(rows):
		r.Kind = KindTotal
		r.Lines = totalLines(rows[0])
	case len(rows) == 1 && onlyKeys(rows[0], "count"):
		r.Kind = KindCount
		r.Lines = []string{countText(rows[0].Amount("count"))}
	case has(rows[0], "budget", "spent"):
		r.Kind = KindBudget
		r.Lines, r.Footer = budgetLines(rows)
	case has(rows[0], "total") && (has(rows[0], "category") || has(rows[0], "category_name")):
		r.Kind = KindBreakdown
		r.Lines, r.Footer = breakdownLines(rows)
	case has(rows[0], "expense_detail", "amount"):
		r.Kind = KindExpenses
		r.Lines, r.Footer = expenseLines(rows)
	default:
		r.Kind = KindRows
		r.Lines = genericLines(rows)
	}

	for _, w := range res.Warnings {
		if w == query.WarnUnboundedWindow {
			r.Footer = strings.TrimSpace(r.Footer + "\nNo date range was recognised; all expenses were included.")
		}
	}
	return r
}

func title(res *query.Result) string {
	if res.Template != "" {
		if t, err := query.ParseTemplate(res.Template); err == nil {
			return t.Description()
		}
	}
	return "Results"
}

// FormatMoney renders amount with two decimals, thousands separators and the
// currency code, e.g. "$1,234.50 MXN".
func FormatMoney(amount float64, currency string) string {
	if currency == "" {
		currency = model.DefaultCurrency
	}
	d := decimal.NewFromFloat(amount).Round(2)
	sign := ""
	if d.IsNegative() {
		sign = "-"
		d = d.Neg()
	}

	fixed := d.StringFixed(2)
	whole, frac, _ := strings.Cut(fixed, ".")
	var sb strings.Builder
	for i, ch := range whole {
		if i > 0 && (len(whole)-i)%3 == 0 {
			sb.WriteByte(',')
		}
		sb.WriteRune(ch)
	}
	return fmt.Sprintf("%s$%s.%s %s", sign, sb.String(), frac, currency)
}

func isTotal(rows []model.Row) bool {
	if len(rows) != 1 {
		return false
	}
	return onlyKeys(rows[0], "total") || onlyKeys(rows[0], "total", "count")
}

func totalLines(row model.Row) []string {
	line := "Total: " + FormatMoney(row.Amount("total"), "")
	if _, ok := row["count"]; ok {
		line += " (" + countText(row.Amount("count")) + ")"
	}
	return []string{line}
}

func countText(n float64) string {
	if n == 1 {
		return "1 expense"
	}
	return fmt.Sprintf("%.0f expenses", n)
}

func breakdownLines(rows []model.Row) ([]string, string) {
	var grand decimal.Decimal
	for _, row := range rows {
		grand = grand.Add(decimal.NewFromFloat(row.Amount("total")))
	}

	lines := make([]string, 0, len(rows))
	for _, row := range rows {
		name := row.String("category")
		if name == "" {
			name = row.String("category_name")
		}
		total := decimal.NewFromFloat(row.Amount("total"))
		share := 0.0
		if grand.IsPositive() {
			share = total.Div(grand).Mul(decimal.NewFromInt(100)).Round(1).InexactFloat64()
		}
		lines = append(lines, fmt.Sprintf("%s: %s (%.1f%%)", name, FormatMoney(total.InexactFloat64(), ""), share))
	}
	return lines, "Total: " + FormatMoney(grand.InexactFloat64(), "")
}

func budgetLines(rows []model.Row) ([]string, string) {
	var budget, spent decimal.Decimal
	lines := make([]string, 0, len(rows))
	for _, row := range rows {
		b := decimal.NewFromFloat(row.Amount("budget"))
		s := decimal.NewFromFloat(row.Amount("spent"))
		budget = budget.Add(b)
		spent = spent.Add(s)

		line := fmt.Sprintf("%s: %s of %s (%.1f%%)",
			row.String("category_name"),
			FormatMoney(s.InexactFloat64(), ""),
			FormatMoney(b.InexactFloat64(), ""),
			row.Amount("percent_used"))
		if s.GreaterThan(b) {
			line += " over budget by " + FormatMoney(s.Sub(b).InexactFloat64(), "")
		}
		lines = append(lines, line)
	}
	return lines, fmt.Sprintf("Spent %s of %s budgeted",
		FormatMoney(spent.InexactFloat64(), ""), FormatMoney(budget.InexactFloat64(), ""))
}

func expenseLines(rows []model.Row) ([]string, string) {
	var total decimal.Decimal
	lines := make([]string, 0, len(rows))
	for _, row := range rows {
		amount := row.Amount("amount")
		total = total.Add(decimal.NewFromFloat(amount))

		parts := []string{}
		if d := row.String("expense_date"); d != "" {
			parts = append(parts, d)
		}
		parts = append(parts, row.String("expense_detail"), FormatMoney(amount, row.String("currency")))
		category := row.String("category")
		if category == "" {
			category = row.String("category_name")
		}
		if category != "" {
			parts = append(parts, category)
		}
		payer := row.String("user_name")
		if payer == "" {
			payer = row.String("paid_by")
		}
		if payer != "" {
			parts = append(parts, payer)
		}
		lines = append(lines, strings.Join(parts, "  "))
	}
	return lines, fmt.Sprintf("%s, %s", countText(float64(len(rows))), FormatMoney(total.InexactFloat64(), ""))
}

func genericLines(rows []model.Row) []string {
	lines := make([]string, 0, len(rows))
	for _, row := range rows {
		keys := make([]string, 0, len(row))
		for k := range row {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		parts := make([]string, 0, len(keys))
		for _, k := range keys {
			parts = append(parts, fmt.Sprintf("%s=%v", k, row[k]))
		}
		lines = append(lines, strings.Join(parts, " "))
	}
	return lines
}

func has(row model.Row, keys ...string) bool {
	for _, k := range keys {
		if _, ok := row[k]; !ok {
			return false
		}
	}
	return true
}

func onlyKeys(row model.Row, keys ...string) bool {
	return len(row) == len(keys) && has(row, keys...)
}
