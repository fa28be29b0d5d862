package query

import (
	"strconv"
	"strings"
	"time"

	"github.com/Veraticus/finassist/internal/model"
	"github.com/Veraticus/finassist/internal/service"
)

// Window is a date range over expense_date. A zero Start or End leaves that
// side open. End is inclusive unless EndExclusive is set.
type Window struct {
	Start        time.Time `json:"start,omitempty"`
	End          time.Time `json:"end,omitempty"`
	EndExclusive bool      `json:"end_exclusive,omitempty"`
}

// Bounded reports whether either side of the window is set.
func (w Window) Bounded() bool {
	return !w.Start.IsZero() || !w.End.IsZero()
}

// Contains reports whether date d falls inside the window.
func (w Window) Contains(d time.Time) bool {
	d = dateOf(d)
	if !w.Start.IsZero() && d.Before(w.Start) {
		return false
	}
	if !w.End.IsZero() {
		if w.EndExclusive && !d.Before(w.End) {
			return false
		}
		if !w.EndExclusive && d.After(w.End) {
			return false
		}
	}
	return true
}

// Filters turns the window into row source range filters on column.
func (w Window) Filters(column string) []service.Filter {
	var filters []service.Filter
	if !w.Start.IsZero() {
		filters = append(filters, service.Gte(column, w.Start.Format(model.DateLayout)))
	}
	if !w.End.IsZero() {
		if w.EndExclusive {
			filters = append(filters, service.Lt(column, w.End.Format(model.DateLayout)))
		} else {
			filters = append(filters, service.Lte(column, w.End.Format(model.DateLayout)))
		}
	}
	return filters
}

// String renders the window for logs.
func (w Window) String() string {
	start, end := "-inf", "+inf"
	if !w.Start.IsZero() {
		start = w.Start.Format(model.DateLayout)
	}
	if !w.End.IsZero() {
		end = w.End.Format(model.DateLayout)
	}
	closer := "]"
	if w.EndExclusive {
		closer = ")"
	}
	return "[" + start + ", " + end + closer
}

// CalendarMonth returns [first of month, first of next month).
func CalendarMonth(year int, month time.Month) Window {
	start := date(year, month, 1)
	return Window{Start: start, End: start.AddDate(0, 1, 0), EndExclusive: true}
}

// Day returns the single-day window for d.
func Day(d time.Time) Window {
	d = dateOf(d)
	return Window{Start: d, End: d}
}

// MonthToDate returns [first of today's month, today].
func MonthToDate(today time.Time) Window {
	today = dateOf(today)
	return Window{Start: date(today.Year(), today.Month(), 1), End: today}
}

// LastDays returns [today - n days, today].
func LastDays(today time.Time, n int) Window {
	today = dateOf(today)
	return Window{Start: today.AddDate(0, 0, -n), End: today}
}

var monthNames = map[string]time.Month{
	"january": time.January, "february": time.February, "march": time.March,
	"april": time.April, "may": time.May, "june": time.June,
	"july": time.July, "august": time.August, "september": time.September,
	"october": time.October, "november": time.November, "december": time.December,

	"jan": time.January, "feb": time.February, "mar": time.March, "apr": time.April,
	"jun": time.June, "jul": time.July, "aug": time.August, "sep": time.September,
	"sept": time.September, "oct": time.October, "nov": time.November, "dec": time.December,

	"enero": time.January, "febrero": time.February, "marzo": time.March,
	"abril": time.April, "mayo": time.May, "junio": time.June,
	"julio": time.July, "agosto": time.August, "septiembre": time.September,
	"setiembre": time.September, "octubre": time.October, "noviembre": time.November,
	"diciembre": time.December,
}

// ParseMonth maps an English or Spanish month name, a three letter
// abbreviation, or a number from 1 to 12 onto a month.
func ParseMonth(name string) (time.Month, bool) {
	key := strings.ToLower(strings.TrimSpace(name))
	if m, ok := monthNames[key]; ok {
		return m, true
	}
	if n, err := strconv.Atoi(key); err == nil && n >= 1 && n <= 12 {
		return time.Month(n), true
	}
	return 0, false
}

func date(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

// dateOf drops the clock and zone, keeping the calendar date as seen in t's location.
func dateOf(t time.Time) time.Time {
	return date(t.Year(), t.Month(), t.Day())
}
