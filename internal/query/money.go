package query

import (
	"encoding/json"

	"github.com/Veraticus/finassist/internal/model"
	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// amountOf reads a monetary column exactly when the store returned text and
// falls back to the float value otherwise.
func amountOf(row model.Row, key string) decimal.Decimal {
	switch v := row[key].(type) {
	case string:
		if d, err := decimal.NewFromString(v); err == nil {
			return d
		}
	case json.Number:
		if d, err := decimal.NewFromString(v.String()); err == nil {
			return d
		}
	}
	return decimal.NewFromFloat(row.Amount(key))
}

func sumAmounts(rows []model.Row, key string) decimal.Decimal {
	total := decimal.Zero
	for _, row := range rows {
		total = total.Add(amountOf(row, key))
	}
	return total
}

// percentOf returns part/whole*100 rounded to one decimal, or zero when whole
// is not positive.
func percentOf(part, whole decimal.Decimal) float64 {
	if !whole.IsPositive() {
		return 0
	}
	return part.Div(whole).Mul(hundred).Round(1).InexactFloat64()
}
