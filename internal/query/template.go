// Package query resolves analytics questions against a row-level store. Named
// templates run fixed fetch-and-aggregate logic; generated SQL is validated,
// reduced to an ExtractedPlan and executed in memory over fetched rows.
package query

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// Template errors.
var (
	ErrUnknownTemplate = errors.New("unknown query template")
	ErrMissingParams   = errors.New("missing template parameters")
	ErrUnknownMonth    = errors.New("unknown month name")
)

// Template identifies one fixed-shape analytic.
type Template int

// The closed set of templates. Add new ones before templateCount.
const (
	WeekTotal Template = iota + 1
	MonthTotal
	TodayTotal
	YesterdayTotal
	PeriodTotal
	MonthByCategory
	TodayByCategory
	YesterdayByCategory
	CustomMonthCategory
	TopCategoriesPeriod
	TotalBudget
	BudgetVsSpending
	CustomMonthBudget
	RecentExpenses
	templateCount
)

var templateNames = map[Template]string{
	WeekTotal:           "week_total",
	MonthTotal:          "month_total",
	TodayTotal:          "today_total",
	YesterdayTotal:      "yesterday_total",
	PeriodTotal:         "total_spent_period",
	MonthByCategory:     "month_by_category",
	TodayByCategory:     "today_by_category",
	YesterdayByCategory: "yesterday_by_category",
	CustomMonthCategory: "custom_month_category",
	TopCategoriesPeriod: "top_categories_period",
	TotalBudget:         "total_budget",
	BudgetVsSpending:    "budget_vs_spending",
	CustomMonthBudget:   "custom_month_budget",
	RecentExpenses:      "recent_expenses",
}

var templateDescriptions = map[Template]string{
	WeekTotal:           "Total spending over the last 7 days",
	MonthTotal:          "Total spending this calendar month so far",
	TodayTotal:          "Total spending today",
	YesterdayTotal:      "Total spending yesterday",
	PeriodTotal:         "Total spending between two dates",
	MonthByCategory:     "Spending this month grouped by category",
	TodayByCategory:     "Spending today grouped by category",
	YesterdayByCategory: "Spending yesterday grouped by category",
	CustomMonthCategory: "Spending grouped by category for a named month and year",
	TopCategoriesPeriod: "Highest spending categories between two dates",
	TotalBudget:         "Total budget for the current month",
	BudgetVsSpending:    "Budget versus actual spending per category this month",
	CustomMonthBudget:   "Budget versus actual spending per category for a named month and year",
	RecentExpenses:      "Most recent expenses with category and payer",
}

// String returns the template's wire name.
func (t Template) String() string {
	if name, ok := templateNames[t]; ok {
		return name
	}
	return fmt.Sprintf("template(%d)", int(t))
}

// Description is a one-line summary used in routing prompts.
func (t Template) Description() string {
	return templateDescriptions[t]
}

// Valid reports whether t is a member of the closed template set.
func (t Template) Valid() bool {
	return t > 0 && t < templateCount
}

// Monthly reports whether the template needs a month and year.
func (t Template) Monthly() bool {
	return t == CustomMonthCategory || t == CustomMonthBudget
}

// Templates returns every template in declaration order.
func Templates() []Template {
	out := make([]Template, 0, int(templateCount)-1)
	for t := WeekTotal; t < templateCount; t++ {
		out = append(out, t)
	}
	return out
}

// ParseTemplate maps a wire name to a template. Names are matched ignoring
// case and surrounding whitespace. Legacy names carrying a month suffix, such
// as custom_month_category_july_2025, resolve to their base template.
func ParseTemplate(name string) (Template, error) {
	key := strings.ToLower(strings.TrimSpace(name))
	for t, n := range templateNames {
		if n == key {
			return t, nil
		}
	}
	for _, t := range []Template{CustomMonthCategory, CustomMonthBudget} {
		if strings.HasPrefix(key, t.String()+"_") {
			return t, nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownTemplate, name)
}

// MarshalText implements encoding.TextMarshaler.
func (t Template) MarshalText() ([]byte, error) {
	if !t.Valid() {
		return nil, fmt.Errorf("%w: %d", ErrUnknownTemplate, int(t))
	}
	return []byte(t.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (t *Template) UnmarshalText(text []byte) error {
	parsed, err := ParseTemplate(string(text))
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}

// DefaultRecentLimit is the number of rows recent_expenses returns by default.
const DefaultRecentLimit = 10

// TemplateParams carries the optional inputs of parameterized templates.
type TemplateParams struct {
	Start *time.Time `json:"start,omitempty"`
	End   *time.Time `json:"end,omitempty"`
	Month string     `json:"month,omitempty"`
	Year  int        `json:"year,omitempty"`
	Limit int        `json:"limit,omitempty"`
}

// monthWindow resolves Month and Year into a calendar month.
func (p TemplateParams) monthWindow() (Window, error) {
	if strings.TrimSpace(p.Month) == "" || p.Year == 0 {
		return Window{}, fmt.Errorf("%w: month and year are required", ErrMissingParams)
	}
	month, ok := ParseMonth(p.Month)
	if !ok {
		return Window{}, fmt.Errorf("%w: %q", ErrUnknownMonth, p.Month)
	}
	return CalendarMonth(p.Year, month), nil
}

// period returns the Start/End window, either side optional.
func (p TemplateParams) period() Window {
	w := Window{}
	if p.Start != nil {
		w.Start = dateOf(*p.Start)
	}
	if p.End != nil {
		w.End = dateOf(*p.End)
	}
	return w
}
