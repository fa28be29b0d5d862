package model

import (
	"encoding/json"
	"fmt"
	"strconv"
	"time"
)

// Row is a single record returned by a row source or produced by the query
// engine. Embedded relations are flattened into the column named by the
// embed, for example "category_name".
type Row map[string]any

// String returns the value at key as a string, or "" when absent.
func (r Row) String(key string) string {
	switch v := r[key].(type) {
	case nil:
		return ""
	case string:
		return v
	case []byte:
		return string(v)
	case fmt.Stringer:
		return v.String()
	default:
		return fmt.Sprint(v)
	}
}

// Float returns the value at key as a float64. Strings are parsed; values
// that cannot be interpreted as numbers yield (0, false).
func (r Row) Float(key string) (float64, bool) {
	switch v := r[key].(type) {
	case float64:
		return v, true
	case float32:
		return float64(v), true
	case int:
		return float64(v), true
	case int32:
		return float64(v), true
	case int64:
		return float64(v), true
	case json.Number:
		f, err := v.Float64()
		if err != nil {
			return 0, false
		}
		return f, true
	case string:
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return 0, false
		}
		return f, true
	case []byte:
		f, err := strconv.ParseFloat(string(v), 64)
		if err != nil {
			return 0, false
		}
		return f, true
	default:
		return 0, false
	}
}

// Amount returns the float value at key, or 0 when missing or non-numeric.
func (r Row) Amount(key string) float64 {
	f, _ := r.Float(key)
	return f
}

// Date parses the value at key as a calendar date. Full timestamps are
// accepted and truncated to their date component.
func (r Row) Date(key string) (time.Time, bool) {
	switch v := r[key].(type) {
	case time.Time:
		return time.Date(v.Year(), v.Month(), v.Day(), 0, 0, 0, 0, time.UTC), true
	case string:
		if len(v) >= len(DateLayout) {
			if t, err := time.Parse(DateLayout, v[:len(DateLayout)]); err == nil {
				return t, true
			}
		}
	}
	return time.Time{}, false
}

// Clone returns a shallow copy of the row.
func (r Row) Clone() Row {
	out := make(Row, len(r))
	for k, v := range r {
		out[k] = v
	}
	return out
}
