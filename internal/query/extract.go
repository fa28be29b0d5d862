package query

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/Veraticus/finassist/internal/classification"
	"github.com/Veraticus/finassist/internal/model"
)

// windowRule recovers a date window from SQL text.
type windowRule struct {
	re    *regexp.Regexp
	build func(m []string, today time.Time) (Window, bool)
	name  string
}

// questionRule recovers a date window from a phrase in the question.
type questionRule struct {
	build   func(today time.Time) Window
	phrases []string
}

const dateColumn = `(?:\w+\.)?expense_date`

var (
	sqlWindowRules = []windowRule{
		{
			name: "date_trunc_month",
			re:   regexp.MustCompile(`(?i)DATE_TRUNC\(\s*'month'\s*,\s*` + dateColumn + `\s*\)\s*=\s*(?:DATE\s*)?'(\d{4})-(\d{2})-01'`),
			build: func(m []string, _ time.Time) (Window, bool) {
				year, _ := strconv.Atoi(m[1])
				month, _ := strconv.Atoi(m[2])
				if month < 1 || month > 12 {
					return Window{}, false
				}
				return CalendarMonth(year, time.Month(month)), true
			},
		},
		{
			name: "date_trunc_current_month",
			re:   regexp.MustCompile(`(?i)DATE_TRUNC\(\s*'month'\s*,\s*` + dateColumn + `\s*\)\s*=\s*DATE_TRUNC\(\s*'month'\s*,\s*(?:CURRENT_DATE|NOW\(\s*\))\s*\)`),
			build: func(_ []string, today time.Time) (Window, bool) {
				return CalendarMonth(today.Year(), today.Month()), true
			},
		},
		{
			name: "greater_or_equal",
			re:   regexp.MustCompile(`(?i)` + dateColumn + `\s*>=\s*(?:DATE\s*)?'(\d{4}-\d{2}-\d{2})'`),
			build: func(m []string, _ time.Time) (Window, bool) {
				start, ok := parseDate(m[1])
				if !ok {
					return Window{}, false
				}
				return Window{Start: start}, true
			},
		},
		{
			name: "between",
			re:   regexp.MustCompile(`(?i)` + dateColumn + `\s+BETWEEN\s+(?:DATE\s*)?'(\d{4}-\d{2}-\d{2})'\s+AND\s+(?:DATE\s*)?'(\d{4}-\d{2}-\d{2})'`),
			build: func(m []string, _ time.Time) (Window, bool) {
				start, ok1 := parseDate(m[1])
				end, ok2 := parseDate(m[2])
				if !ok1 || !ok2 {
					return Window{}, false
				}
				return Window{Start: start, End: end}, true
			},
		},
		{
			name: "current_date_interval",
			re:   regexp.MustCompile(`(?i)` + dateColumn + `\s*>=?\s*(?:CURRENT_DATE|NOW\(\s*\))\s*-\s*INTERVAL\s*'(\d+)\s*(day|days|week|weeks|month|months|year|years)'`),
			build: func(m []string, today time.Time) (Window, bool) {
				n, err := strconv.Atoi(m[1])
				if err != nil {
					return Window{}, false
				}
				var start time.Time
				switch strings.TrimSuffix(strings.ToLower(m[2]), "s") {
				case "day":
					start = today.AddDate(0, 0, -n)
				case "week":
					start = today.AddDate(0, 0, -7*n)
				case "month":
					start = today.AddDate(0, -n, 0)
				case "year":
					start = today.AddDate(-n, 0, 0)
				}
				return Window{Start: start}, true
			},
		},
	}

	// upperBound narrows an open-ended window when the SQL also bounds the end.
	upperBound = regexp.MustCompile(`(?i)` + dateColumn + `\s*(<=|<)\s*(?:DATE\s*)?'(\d{4}-\d{2}-\d{2})'`)

	questionWindowRules = []questionRule{
		{
			phrases: []string{"last month", "mes pasado"},
			build: func(today time.Time) Window {
				prev := date(today.Year(), today.Month(), 1).AddDate(0, -1, 0)
				return CalendarMonth(prev.Year(), prev.Month())
			},
		},
		{
			phrases: []string{"this month", "este mes"},
			build: func(today time.Time) Window {
				return CalendarMonth(today.Year(), today.Month())
			},
		},
		{
			phrases: []string{"this year", "este ano"},
			build: func(today time.Time) Window {
				return Window{Start: date(today.Year(), time.January, 1), End: today}
			},
		},
		{
			phrases: []string{"last year", "ano pasado"},
			build: func(today time.Time) Window {
				return Window{
					Start:        date(today.Year()-1, time.January, 1),
					End:          date(today.Year(), time.January, 1),
					EndExclusive: true,
				}
			},
		},
	}

	categoryAlias  = regexp.MustCompile(`(?i)\bcategories\s+(?:AS\s+)?([a-z_]\w*)`)
	categoryFilter = `(?i)\b%s\.name\s*=\s*(?:'((?:[^']|'')+)'|"([^"]+)")`

	aggregationRules = []struct {
		re   *regexp.Regexp
		kind AggregationKind
	}{
		{regexp.MustCompile(`(?i)\bMAX\s*\(`), AggMax},
		{regexp.MustCompile(`(?i)\bMIN\s*\(`), AggMin},
		{regexp.MustCompile(`(?i)\bSUM\s*\(`), AggSum},
		{regexp.MustCompile(`(?i)\bCOUNT\s*\(`), AggCount},
	}

	topNumbered = regexp.MustCompile(`\b(?:top|highest|largest|biggest)\s+(\d+)\b`)
	topPlural   = regexp.MustCompile(`\b(?:top|highest|largest|biggest)\s+(?:[a-z]+\s+)?(?:expenses|purchases|transactions|items|payments|gastos|compras)\b`)

	orderBy     = regexp.MustCompile(`(?is)\bORDER\s+BY\s+(?:\w+\.)?(amount|expense_date)\b(?:\s+(ASC|DESC))?`)
	limitClause = regexp.MustCompile(`(?i)\bLIMIT\s+(\d+)`)
	groupBy     = regexp.MustCompile(`(?is)\bGROUP\s+BY\b(.*)`)
	groupByName = regexp.MustCompile(`(?i)^\s*(?:[\w.]+\s*,\s*)*(?:\w+\.)?(?:name|category_name|category_id|category)\b`)

	budgetsTable = regexp.MustCompile(`(?i)\bbudgets\b`)
	budgetMonth  = []*regexp.Regexp{
		regexp.MustCompile(`(?i)\bmonth\s*=\s*EXTRACT\s*\(\s*MONTH\s+FROM\s+(?:CURRENT_DATE|NOW\(\s*\))\s*\)`),
		regexp.MustCompile(`(?i)\bmonth\s*=\s*(\d{1,2})\b`),
	}
	budgetYear = []*regexp.Regexp{
		regexp.MustCompile(`(?i)\byear\s*=\s*EXTRACT\s*\(\s*YEAR\s+FROM\s+(?:CURRENT_DATE|NOW\(\s*\))\s*\)`),
		regexp.MustCompile(`(?i)\byear\s*=\s*(\d{4})\b`),
	}
	budgetCategoryJoin = regexp.MustCompile(`(?i)\bJOIN\s+categories\b|\bcategories\s+(?:AS\s+)?c\b`)
)

var sqlKeywords = map[string]bool{
	"on": true, "where": true, "join": true, "left": true, "right": true, "inner": true,
	"outer": true, "group": true, "order": true, "limit": true, "using": true, "and": true,
}

// Extract derives a plan from SQL text and the question that produced it.
// The question is normalized first so Spanish phrases match without accents.
// today anchors every relative date phrase. Extraction never fails: features
// it cannot find are left unset.
func Extract(sql, question string, today time.Time) ExtractedPlan {
	today = dateOf(today)
	q := classification.Normalize(question)

	plan := ExtractedPlan{WindowSource: WindowNone}

	if budgetsTable.MatchString(sql) {
		plan.Budget = extractBudgetScope(sql, today)
	} else {
		plan.Window, plan.WindowSource = extractWindow(sql, q, today)
	}

	plan.CategoryEquals = extractCategory(sql)
	plan.Aggregation = extractAggregation(sql, q)
	plan.OrderBy = extractOrder(sql)

	if m := limitClause.FindStringSubmatch(sql); m != nil {
		plan.Limit, _ = strconv.Atoi(m[1])
	}

	if m := groupBy.FindStringSubmatch(sql); m != nil {
		switch plan.Aggregation.Kind {
		case AggSum, AggCount, AggTopN:
			plan.GroupByCategory = groupByName.MatchString(m[1])
		}
	}

	return plan
}

func extractWindow(sql, question string, today time.Time) (Window, WindowSource) {
	for _, rule := range sqlWindowRules {
		m := rule.re.FindStringSubmatch(sql)
		if m == nil {
			continue
		}
		w, ok := rule.build(m, today)
		if !ok {
			continue
		}
		if w.End.IsZero() {
			if ub := upperBound.FindStringSubmatch(sql); ub != nil {
				if end, ok := parseDate(ub[2]); ok {
					w.End = end
					w.EndExclusive = ub[1] == "<"
				}
			}
		}
		return w, WindowFromSQL
	}

	if question != "" {
		for _, rule := range questionWindowRules {
			for _, phrase := range rule.phrases {
				if strings.Contains(question, phrase) {
					return rule.build(today), WindowFromQuestion
				}
			}
		}
	}

	return Window{}, WindowNone
}

func extractCategory(sql string) string {
	qualifiers := []string{"categories"}
	for _, m := range categoryAlias.FindAllStringSubmatch(sql, -1) {
		if alias := strings.ToLower(m[1]); !sqlKeywords[alias] {
			qualifiers = append(qualifiers, regexp.QuoteMeta(m[1]))
		}
	}

	for _, qualifier := range qualifiers {
		re := regexp.MustCompile(strings.Replace(categoryFilter, "%s", qualifier, 1))
		if m := re.FindStringSubmatch(sql); m != nil {
			if m[1] != "" {
				return strings.ReplaceAll(m[1], "''", "'")
			}
			return m[2]
		}
	}
	return ""
}

func extractAggregation(sql, question string) Aggregation {
	if m := topNumbered.FindStringSubmatch(question); m != nil {
		if n, err := strconv.Atoi(m[1]); err == nil && n > 0 {
			return TopN(n)
		}
	}
	if topPlural.MatchString(question) {
		return TopN(DefaultTopN)
	}

	for _, rule := range aggregationRules {
		if rule.re.MatchString(sql) {
			return Aggregation{Kind: rule.kind}
		}
	}
	return Aggregation{Kind: AggNone}
}

func extractOrder(sql string) *OrderBy {
	m := orderBy.FindStringSubmatch(sql)
	if m == nil {
		return nil
	}
	return &OrderBy{
		Field: strings.ToLower(m[1]),
		Desc:  strings.EqualFold(m[2], "DESC"),
	}
}

func extractBudgetScope(sql string, today time.Time) *BudgetScope {
	scope := &BudgetScope{CategoryJoin: budgetCategoryJoin.MatchString(sql)}
	scope.Month = matchCalendarPart(budgetMonth, sql, int(today.Month()), 1, 12)
	scope.Year = matchCalendarPart(budgetYear, sql, today.Year(), 1900, 9999)
	return scope
}

// matchCalendarPart reads a month or year predicate. The first pattern refers
// to the current date; the second carries a literal within [lo, hi].
func matchCalendarPart(patterns []*regexp.Regexp, sql string, current, lo, hi int) int {
	if patterns[0].MatchString(sql) {
		return current
	}
	if m := patterns[1].FindStringSubmatch(sql); m != nil {
		if n, err := strconv.Atoi(m[1]); err == nil && n >= lo && n <= hi {
			return n
		}
	}
	return 0
}

func parseDate(s string) (time.Time, bool) {
	t, err := time.Parse(model.DateLayout, s)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}
